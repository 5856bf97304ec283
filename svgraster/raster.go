// Package svgraster rasterizes SVG document trees into monochrome bitmaps,
// by wrapping rasterx.
//
// Rendering is deliberately colorless: any fill or stroke whose paint is not
// "none" lands as solid black, and coverage is quantized to two levels, so
// repeated renders of one document are byte-identical. Text and image
// elements carry no drawable geometry here; producers are expected to
// outline text before handing a document over.
package svgraster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"strconv"
	"strings"

	"github.com/benoitkugler/pcbexport/svgpath"
	"github.com/benoitkugler/pcbexport/svgtree"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// ErrorMode determines how the walkers respond to svg content they do not
// handle.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unhandled content silently.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode skips unhandled content with a log line.
	WarnErrorMode
	// StrictErrorMode aborts on unhandled content.
	StrictErrorMode
)

// style is the resolved presentation state of one element, inherited down
// the tree.
type style struct {
	transform     svgpath.Matrix2D
	fill          bool
	fillOpacity   float64
	evenOdd       bool
	stroke        bool
	strokeOpacity float64
	strokeWidth   float64
	dash          []float64
	dashOffset    float64
	lineCap       rasterx.CapFunc
	lineJoin      rasterx.JoinMode
	lineGap       rasterx.GapFunc
	miterLimit    float64
}

var defaultStyle = style{
	transform:     svgpath.Identity,
	fill:          true,
	fillOpacity:   1,
	stroke:        false,
	strokeOpacity: 1,
	strokeWidth:   1,
	lineCap:       rasterx.ButtCap,
	lineJoin:      rasterx.Miter,
	lineGap:       rasterx.FlatGap,
	miterLimit:    4,
}

// cursor walks a document carrying the inherited style stack.
type cursor struct {
	stack []style
	mode  ErrorMode
}

func (c *cursor) top() *style { return &c.stack[len(c.stack)-1] }

func (c *cursor) pop() { c.stack = c.stack[:len(c.stack)-1] }

// fault reports content the walker cannot handle, according to the error
// mode.
func (c *cursor) fault(msg string) error {
	switch c.mode {
	case StrictErrorMode:
		return errors.New(msg)
	case WarnErrorMode:
		log.Println(msg)
	}
	return nil
}

// pushStyle resolves the element's presentation attributes plus its style
// attribute against the inherited state and pushes the result.
func (c *cursor) pushStyle(e *svgtree.Element) error {
	var pairs []string
	for _, attr := range e.Attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			pairs = append(pairs, strings.Split(attr.Value, ";")...)
		default:
			pairs = append(pairs, attr.Name.Local+":"+attr.Value)
		}
	}
	cur := c.stack[len(c.stack)-1]
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		if err := readStyleAttr(&cur, strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)); err != nil {
			return err
		}
	}
	c.stack = append(c.stack, cur)
	return nil
}

func readStyleAttr(cur *style, k, v string) error {
	switch k {
	case "fill":
		if v != "" && v != "inherit" {
			cur.fill = !strings.EqualFold(v, "none")
		}
	case "fill-rule":
		cur.evenOdd = v == "evenodd"
	case "stroke":
		if v != "" && v != "inherit" {
			cur.stroke = !strings.EqualFold(v, "none")
		}
	case "stroke-width":
		w, err := parseLength(v)
		if err != nil {
			return err
		}
		cur.strokeWidth = w
	case "stroke-dasharray":
		if strings.EqualFold(v, "none") {
			cur.dash = nil
			break
		}
		pts, err := svgpath.ParsePoints(v)
		if err != nil {
			return err
		}
		cur.dash = pts
	case "stroke-dashoffset":
		off, err := parseLength(v)
		if err != nil {
			return err
		}
		cur.dashOffset = off
	case "stroke-linecap":
		switch v {
		case "butt":
			cur.lineCap = rasterx.ButtCap
		case "round":
			cur.lineCap = rasterx.RoundCap
		case "square":
			cur.lineCap = rasterx.SquareCap
		}
	case "stroke-linejoin":
		switch v {
		case "miter":
			cur.lineJoin = rasterx.Miter
		case "miter-clip":
			cur.lineJoin = rasterx.MiterClip
		case "round":
			cur.lineJoin = rasterx.Round
		case "bevel":
			cur.lineJoin = rasterx.Bevel
		case "arc":
			cur.lineJoin = rasterx.Arc
		case "arc-clip":
			cur.lineJoin = rasterx.ArcClip
		}
	case "stroke-miterlimit":
		ml, err := parseLength(v)
		if err != nil {
			return err
		}
		cur.miterLimit = ml
	case "opacity", "fill-opacity", "stroke-opacity":
		op, err := parseFraction(v)
		if err != nil {
			return err
		}
		if k != "stroke-opacity" {
			cur.fillOpacity *= op
		}
		if k != "fill-opacity" {
			cur.strokeOpacity *= op
		}
	case "transform":
		m, err := svgpath.ParseTransform(cur.transform, v)
		if err != nil {
			return err
		}
		cur.transform = m
	}
	return nil
}

// parseLength reads a float, tolerating a px suffix.
func parseLength(v string) (float64, error) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	return strconv.ParseFloat(v, 64)
}

// parseFraction reads a float or a percentage.
func parseFraction(v string) (float64, error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err := strconv.ParseFloat(v, 64)
	return f / d, err
}

// skippedTags are subtrees that never contribute ink directly.
var skippedTags = map[string]bool{
	"defs": true, "title": true, "desc": true, "metadata": true,
	"style": true, "symbol": true, "clipPath": true, "mask": true,
	"pattern": true, "marker": true, "linearGradient": true,
	"radialGradient": true,
}

// containerTags recurse with inherited style.
var containerTags = map[string]bool{
	"svg": true, "g": true, "a": true, "switch": true,
}

// leafPath builds the outline geometry of a drawable leaf. A leaf whose
// geometry collapses (zero radius, missing data) yields an empty path, which
// is not an error.
func leafPath(e *svgtree.Element) (svgpath.Path, error) {
	var p svgpath.Path
	switch e.Tag {
	case "path":
		d := e.Attribute("d")
		if d == "" {
			return nil, nil
		}
		return svgpath.CompilePathData(d)
	case "rect":
		w, h := e.FloatAttribute("width"), e.FloatAttribute("height")
		if w == 0 || h == 0 {
			return nil, nil
		}
		x, y := e.FloatAttribute("x"), e.FloatAttribute("y")
		rx, ry := e.FloatAttribute("rx"), e.FloatAttribute("ry")
		if rx > 0 && !e.HasAttribute("ry") {
			ry = rx
		}
		if ry > 0 && !e.HasAttribute("rx") {
			rx = ry
		}
		p.AddRoundRect(x, y, x+w, y+h, rx, ry, 0)
	case "circle":
		r := e.FloatAttribute("r")
		if r == 0 {
			return nil, nil
		}
		p.AddEllipse(e.FloatAttribute("cx"), e.FloatAttribute("cy"), r, r)
	case "ellipse":
		rx, ry := e.FloatAttribute("rx"), e.FloatAttribute("ry")
		if rx == 0 || ry == 0 {
			return nil, nil
		}
		p.AddEllipse(e.FloatAttribute("cx"), e.FloatAttribute("cy"), rx, ry)
	case "line":
		p.AddLine(e.FloatAttribute("x1"), e.FloatAttribute("y1"),
			e.FloatAttribute("x2"), e.FloatAttribute("y2"))
	case "polyline", "polygon":
		pts, err := svgpath.ParsePoints(e.Attribute("points"))
		if err != nil {
			return nil, err
		}
		if len(pts)%2 != 0 {
			return nil, fmt.Errorf("%s has an odd number of points", e.Tag)
		}
		p.AddPolyline(pts, e.Tag == "polygon")
	}
	return p, nil
}

// renderer rasterizes paths: a filler for fills and a dasher for strokes,
// sharing one scanner.
type renderer struct {
	filler *rasterx.Filler
	dasher *rasterx.Dasher
}

func (rd *renderer) draw(p svgpath.Path, st *style, strokeOnly bool) {
	if st.fill && !strokeOnly && st.fillOpacity >= 0.5 {
		rd.filler.Clear()
		rd.filler.SetWinding(!st.evenOdd)
		p.DrawTo(rd.filler, st.transform)
		rd.filler.Draw()
		rd.filler.SetWinding(true) // default is true
	}
	if st.stroke && st.strokeWidth > 0 && st.strokeOpacity >= 0.5 {
		sx, sy := st.transform.ScaleFactors()
		scale := (sx + sy) / 2
		var dashes []float64
		if len(st.dash) > 0 {
			dashes = make([]float64, len(st.dash))
			for i, d := range st.dash {
				dashes[i] = d * scale
			}
		}
		rd.dasher.Clear()
		rd.dasher.SetStroke(
			fixed.Int26_6(st.strokeWidth*scale*64), fixed.Int26_6(st.miterLimit*64),
			st.lineCap, st.lineCap, st.lineGap, st.lineJoin, dashes, st.dashOffset*scale,
		)
		p.DrawTo(rd.dasher, st.transform)
		rd.dasher.Draw()
	}
}

// viewBox resolves the document's coordinate system: the viewBox attribute,
// falling back to width/height.
func viewBox(doc *svgtree.Document) (svgpath.Bounds, error) {
	root := doc.Root
	if vb := root.Attribute("viewBox"); vb != "" {
		pts, err := svgpath.ParsePoints(vb)
		if err != nil || len(pts) != 4 {
			return svgpath.Bounds{}, fmt.Errorf("invalid viewBox %q", vb)
		}
		b := svgpath.Bounds{X: pts[0], Y: pts[1], W: pts[2], H: pts[3]}
		if !b.Empty() {
			return b, nil
		}
	}
	b := svgpath.Bounds{W: root.FloatAttribute("width"), H: root.FloatAttribute("height")}
	if b.Empty() {
		return svgpath.Bounds{}, errors.New("document has no usable dimensions")
	}
	return b, nil
}

// Render rasterizes the document into a white bitmap of the given pixel
// dimensions, mapping its viewBox onto the target rectangle. Ink is black;
// a pixel is set when it is at least half covered.
func Render(doc *svgtree.Document, width, height int, target svgpath.Bounds, mode ErrorMode) (*Bitmap, error) {
	vb, err := viewBox(doc)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	scanner.SetColor(color.NRGBA{A: 0xff})
	rd := &renderer{
		filler: rasterx.NewFiller(width, height, scanner),
		dasher: rasterx.NewDasher(width, height, scanner),
	}

	c := &cursor{stack: []style{defaultStyle}, mode: mode}
	c.stack[0].transform = svgpath.Identity.
		Translate(target.X, target.Y).
		Scale(target.W/vb.W, target.H/vb.H).
		Translate(-vb.X, -vb.Y)
	if err := c.render(doc.Root, rd); err != nil {
		return nil, err
	}

	bm := NewBitmap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if img.Pix[img.PixOffset(x, y)+3] >= 0x80 {
				bm.pix[y*width+x] = Black
			}
		}
	}
	return bm, nil
}

func (c *cursor) render(e *svgtree.Element, rd *renderer) error {
	if skippedTags[e.Tag] {
		return nil
	}
	if err := c.pushStyle(e); err != nil {
		return err
	}
	defer c.pop()

	if containerTags[e.Tag] {
		for _, child := range e.Children {
			if err := c.render(child, rd); err != nil {
				return err
			}
		}
		return nil
	}
	switch e.Tag {
	case "path", "rect", "circle", "ellipse", "line", "polyline", "polygon":
		p, err := leafPath(e)
		if err != nil {
			return err
		}
		if len(p) == 0 {
			return nil
		}
		rd.draw(p, c.top(), e.Tag == "line")
		return nil
	case "text", "image":
		return c.fault("cannot rasterize svg element " + e.Tag)
	}
	return c.fault("cannot process svg element " + e.Tag)
}

// LeafGeometry locates one drawable leaf: Bounds is the leaf's ink extent
// in its parent's frame (the element's own transform applied, stroke
// growth included) and Transform maps that frame to viewBox space.
type LeafGeometry struct {
	Bounds    svgpath.Bounds
	Transform svgpath.Matrix2D
}

// LeafBounds measures every drawable leaf of the document, keyed by element
// serial. Leaves whose extent cannot be computed (text, images, empty
// geometry) have no entry.
func LeafBounds(doc *svgtree.Document, mode ErrorMode) (map[int]LeafGeometry, error) {
	c := &cursor{stack: []style{defaultStyle}, mode: mode}
	out := make(map[int]LeafGeometry)
	if err := c.measure(doc.Root, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cursor) measure(e *svgtree.Element, out map[int]LeafGeometry) error {
	if skippedTags[e.Tag] {
		return nil
	}
	ancestors := c.top().transform
	if err := c.pushStyle(e); err != nil {
		return err
	}
	defer c.pop()

	if containerTags[e.Tag] {
		for _, child := range e.Children {
			if err := c.measure(child, out); err != nil {
				return err
			}
		}
		return nil
	}
	switch e.Tag {
	case "path", "rect", "circle", "ellipse", "line", "polyline", "polygon":
		p, err := leafPath(e)
		if err != nil {
			return err
		}
		if len(p) == 0 {
			return nil
		}
		st := c.top()
		local := p.BoundingBox()
		if st.stroke && st.strokeWidth > 0 {
			local = local.Expanded(st.strokeWidth / 2)
		}
		own := svgpath.Identity
		if tv := e.Attribute("transform"); tv != "" {
			own, _ = svgpath.ParseTransform(svgpath.Identity, tv) // vetted by pushStyle
		}
		out[e.Serial] = LeafGeometry{Bounds: own.MapRect(local), Transform: ancestors}
		return nil
	case "text", "image":
		return c.fault("cannot measure svg element " + e.Tag)
	}
	return c.fault("cannot process svg element " + e.Tag)
}

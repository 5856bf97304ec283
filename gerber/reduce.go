package gerber

import (
	"math"
	"strings"

	"github.com/benoitkugler/pcbexport/svgpath"
	"github.com/benoitkugler/pcbexport/svgtree"
)

// reduce squashes every element the output format cannot express natively,
// reporting whether anything changed. A changed document must go through
// the raster fallback.
func reduce(doc *svgtree.Document) bool {
	changed := false

	// text would need font shaping; producers outline it upstream
	changed = squashMatching(doc, "text", "", nil) || changed
	// gerber can't handle ellipses
	changed = squashMatching(doc, "ellipse", "", nil) || changed
	// nor rects with rounded corners
	changed = squashMatching(doc, "rect", "rx", nil) || changed
	changed = squashMatching(doc, "rect", "ry", nil) || changed
	// nor dashed strokes
	notNone := func(v string) bool { return v != "none" }
	for _, tag := range [3]string{"rect", "circle", "line"} {
		changed = squashMatching(doc, tag, "stroke-dasharray", notNone) || changed
	}
	// gerber can't handle paths with curves
	changed = squashMatching(doc, "path", "d", svgpath.ContainsCurve) || changed
	// nor multiple subpaths, which may intersect
	multiZ := func(d string) bool { return svgpath.CloseCount(d) > 1 }
	changed = squashMatching(doc, "path", "d", multiZ) || changed
	changed = squashMatching(doc, "image", "", nil) || changed
	changed = squashAnisotropic(doc) || changed

	return changed
}

// squashMatching squashes every element with the given tag whose attribute
// is present and accepted by pred (a nil pred accepts any value; an empty
// attr matches the tag unconditionally).
func squashMatching(doc *svgtree.Document, tag, attr string, pred func(string) bool) bool {
	any := false
	for _, e := range doc.ElementsByTag(tag) {
		if attr != "" {
			if !e.HasAttribute(attr) {
				continue
			}
			if pred != nil && !pred(e.Attribute(attr)) {
				continue
			}
		}
		svgtree.Squash(e)
		any = true
	}
	return any
}

// squashAnisotropic culls leaves under unequal axis scaling: stroked
// geometry loses its uniform aperture there, so the output format has no
// faithful primitive for it.
func squashAnisotropic(doc *svgtree.Document) bool {
	changed := false
	for _, leaf := range doc.Leaves() {
		m := svgpath.Identity
		for e := leaf; e != nil; e = e.Parent {
			tv := e.Attribute("transform")
			if tv == "" {
				continue
			}
			t, err := svgpath.ParseTransform(svgpath.Identity, tv)
			if err != nil {
				continue
			}
			m = t.Mult(m)
		}
		sx, sy := m.ScaleFactors()
		if math.Abs(sx-sy) > 1e-6 {
			svgtree.Squash(leaf)
			changed = true
		}
	}
	return changed
}

// squashBareHoles drops circles that are plain drilled holes, a non
// connector with no stroke: they carry no ink on copper, mask or silk.
func squashBareHoles(doc *svgtree.Document) {
	for _, circle := range doc.ElementsByTag("circle") {
		if strings.Contains(circle.ID(), NonConnectorName) && circle.FloatAttribute("stroke-width") == 0 {
			svgtree.Squash(circle)
		}
	}
}

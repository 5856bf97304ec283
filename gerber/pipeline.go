package gerber

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/pcbexport/svgraster"
	"github.com/benoitkugler/pcbexport/svgtree"
)

// unknownMargin absorbs float and antialiasing noise in clip decisions, in
// output units.
const unknownMargin = 0.1

// clipSpec configures one layer's run through the sanitize-and-clip
// pipeline.
type clipSpec struct {
	name       string
	kind       LayerKind
	board      Bounds           // board rect, authoring units, origin (0,0)
	clip       string           // already clipped mask document, or ""
	connectors ConnectorMap     // ring-path connectors, for donut rewriting
	extractor  PolygonExtractor // outline polygon reconstruction
}

// gridRect converts the board rect to output units.
func gridRect(board Bounds) Bounds {
	return board.Scaled(dpiScale)
}

// clipToBoard sanitizes one layer document and clips it to the board rect.
// It returns the document to emit, whether anything had to leave native
// rendering, and on outline layers the cutout authoring error. A document
// that cannot be used at all comes back empty.
func clipToBoard(svg string, spec clipSpec) (string, bool, error) {
	doc, err := svgtree.Parse(svg)
	if err != nil {
		Logger().Warn("unparsable layer document", "layer", spec.name, "error", err)
		return "", false, nil
	}
	if len(doc.Root.Children) == 0 {
		return "", false, nil
	}

	// bare holes carry no ink except on the drill layer
	if spec.kind != ForDrill {
		squashBareHoles(doc)
	}

	rewriteDonuts(doc, spec.connectors)

	if spec.kind == ForOutline {
		if err := splitContours(doc); err != nil {
			return "", false, err
		}
	}

	// the raster clone keeps everything the emitter cannot consume
	// natively; both trees share serials
	raster := doc.Clone()

	converted := reduce(doc)

	grid := gridRect(spec.board)
	tw := int(math.Ceil(grid.W))
	th := int(math.Ceil(grid.H))
	target := Bounds{X: 0, Y: 0, W: float64(tw), H: float64(th)}

	var clipBM *svgraster.Bitmap
	if spec.clip != "" {
		if clipDoc, err := svgtree.Parse(spec.clip); err == nil {
			if bm, err := svgraster.Render(clipDoc, tw+2, th+2, target, svgraster.IgnoreErrorMode); err == nil {
				clipBM = bm
			}
		}
	}

	geos, err := svgraster.LeafBounds(doc, svgraster.IgnoreErrorMode)
	if err != nil {
		Logger().Warn("unmeasurable layer document", "layer", spec.name, "error", err)
		return "", false, nil
	}

	// the outline must keep off-board geometry (it IS the board shape);
	// drill holes near the edge must survive the box test too
	if spec.kind != ForOutline && spec.kind != ForDrill {
		c, err := clipByBounds(doc, geos, grid)
		if err != nil {
			Logger().Warn("unmeasurable layer document", "layer", spec.name, "error", err)
			return "", false, nil
		}
		converted = converted || c
	}

	if clipBM != nil {
		bm, err := svgraster.Render(doc, tw+2, th+2, target, svgraster.IgnoreErrorMode)
		if err != nil {
			Logger().Warn("unrenderable layer document", "layer", spec.name, "error", err)
			return "", false, nil
		}
		converted = clipByPixels(doc, geos, grid, bm, clipBM) || converted
	}

	svgString := doc.String()
	if !converted {
		return svgString, false, nil
	}

	// everything still native leaves the raster clone, so the clone holds
	// exactly the fallback ink
	reconcile(doc, raster)

	raster.Root.SetAttribute("width", fmt.Sprintf("%dpx", tw))
	raster.Root.SetAttribute("height", fmt.Sprintf("%dpx", th))
	if spec.board.X != 0 || spec.board.Y != 0 {
		rewriteViewBoxOrigin(raster.Root, grid.X, grid.Y)
	}
	svgtree.ChangeColors(raster.Root, "#000000", []string{"none", ""})

	if spec.kind == ForOutline {
		return extractOutline(svgString, raster, tw, th, target, spec.extractor), true, nil
	}

	return rasterizeAndTrace(svgString, raster, tw, th, target, clipBM), true, nil
}

// reconcile squashes, in the raster clone, every leaf whose twin stayed
// native in the working document.
func reconcile(doc, raster *svgtree.Document) {
	for _, leaf := range raster.Leaves() {
		if twin := doc.Find(leaf.Serial); twin != nil && !twin.Squashed() {
			svgtree.Squash(leaf)
		}
	}
}

// rewriteViewBoxOrigin repoints the viewBox at the board origin, keeping
// the extent.
func rewriteViewBoxOrigin(root *svgtree.Element, x, y float64) {
	coords := strings.Fields(root.Attribute("viewBox"))
	if len(coords) != 4 {
		return
	}
	coords[0] = ftoa(x)
	coords[1] = ftoa(y)
	root.SetAttribute("viewBox", strings.Join(coords, " "))
}

// expandMask grows every shape of the mask document by the solder mask
// clearance and paints it black: the mask opening covers the pad plus
// clearance on each side.
func expandMask(svg string) (string, bool) {
	doc, err := svgtree.Parse(svg)
	if err != nil {
		return "", false
	}
	svgtree.ExpandAndFill(doc, "black", MaskClearanceMils*2)
	return doc.String(), true
}

// cleanOutline reduces the outline document to the authored board outline
// leaf when one is marked, dropping decorations that would read as extra
// contours. An outline without drawable leaves comes back empty.
func cleanOutline(svg string) string {
	doc, err := svgtree.Parse(svg)
	if err != nil {
		return ""
	}
	leaves := doc.Leaves()
	switch {
	case len(leaves) == 0:
		return ""
	case len(leaves) == 1:
		return svg
	}
	var outline *svgtree.Element
	for _, leaf := range leaves {
		if leaf.ID() == MagicBoardOutlineID {
			outline = leaf
			break
		}
	}
	if outline == nil {
		return svg
	}
	for _, leaf := range leaves {
		if leaf != outline {
			svgtree.Detach(leaf)
		}
	}
	return doc.String()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package gerber

import (
	"fmt"
	"math"

	"github.com/benoitkugler/pcbexport/svgraster"
	"github.com/benoitkugler/pcbexport/svgtree"
)

// outsideGrid reports whether the mapped bounds escape the board rect plus
// the noise margin on any side.
func outsideGrid(b, grid Bounds) bool {
	return b.X < grid.X-unknownMargin || b.Y < grid.Y-unknownMargin ||
		b.X+b.W > grid.X+grid.W+unknownMargin || b.Y+b.H > grid.Y+grid.H+unknownMargin
}

// clipByBounds squashes every leaf whose rendered bounds fall outside the
// board. The ink out there is milled away with the surrounding panel, so
// exact geometry does not matter. Circles get a second chance as bare
// holes: a pad ring may hang off the board while its hole still lands on
// it.
func clipByBounds(doc *svgtree.Document, geos map[int]svgraster.LeafGeometry, grid Bounds) (bool, error) {
	clipped := false
	var holes []*svgtree.Element
	ix := 0
	for _, leaf := range doc.Leaves() {
		geo, ok := geos[leaf.Serial]
		if !ok {
			continue
		}
		if !outsideGrid(geo.Transform.MapRect(geo.Bounds), grid) {
			continue
		}
		if leaf.Tag == "circle" {
			// shrink the circle to its hole before retesting
			clone := doc.CreateElement("circle")
			clone.Attrs = append(clone.Attrs, leaf.Attrs...)
			r, sw := leaf.FloatAttribute("r"), leaf.FloatAttribute("stroke-width")
			clone.SetAttribute("id", fmt.Sprintf("__%d__", ix))
			ix++
			clone.SetAttribute("stroke-width", "0")
			clone.SetAttribute("r", ftoa(r-sw/2))
			svgtree.InsertAfter(leaf, clone)
			holes = append(holes, clone)
		}
		svgtree.Squash(leaf)
		clipped = true
	}
	if len(holes) == 0 {
		return clipped, nil
	}

	geos, err := svgraster.LeafBounds(doc, svgraster.IgnoreErrorMode)
	if err != nil {
		return clipped, err
	}
	for _, clone := range holes {
		geo, ok := geos[clone.Serial]
		if !ok || outsideGrid(geo.Transform.MapRect(geo.Bounds), grid) {
			svgtree.Detach(clone)
			continue
		}
		// enlarge a little, otherwise aliasing eats an edge hole in the
		// raster round trip
		clone.SetAttribute("r", ftoa(clone.FloatAttribute("r")+4))
		clone.SetAttribute("stroke-width", "2")
	}
	return clipped, nil
}

// clipByPixels squashes every leaf whose pixel region holds ink in both the
// layer render and the clip mask. This catches the partial overlaps the box
// test cannot see.
func clipByPixels(doc *svgtree.Document, geos map[int]svgraster.LeafGeometry, grid Bounds, layer, clip *svgraster.Bitmap) bool {
	clipped := false
	for _, leaf := range doc.Leaves() {
		geo, ok := geos[leaf.Serial]
		if !ok {
			continue
		}
		b := geo.Transform.MapRect(geo.Bounds)
		x1 := int(math.Floor(math.Max(0, b.X-grid.X)))
		x2 := int(math.Ceil(math.Min(grid.W, b.X+b.W-grid.X)))
		y1 := int(math.Floor(math.Max(0, b.Y-grid.Y)))
		y2 := int(math.Ceil(math.Min(grid.H, b.Y+b.H-grid.Y)))
		if svgraster.Collide(layer, clip, x1, y1, x2, y2) {
			svgtree.Squash(leaf)
			clipped = true
		}
	}
	return clipped
}

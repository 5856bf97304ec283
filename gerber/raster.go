package gerber

import (
	"strings"

	"github.com/benoitkugler/pcbexport/svgraster"
	"github.com/benoitkugler/pcbexport/svgtree"
)

// renderFunc produces one render attempt; stableRender calls it until the
// output settles.
type renderFunc func() *svgraster.Bitmap

// stableRender renders and hashes until a hash repeats, accepting the sixth
// attempt when none ever does. Renders have occasionally come out slightly
// different from one attempt to the next; tracing a bitmap that was seen
// twice keeps the output reproducible. The returned bitmap is inverted (ink
// white), ready for tracing.
func stableRender(render renderFunc) *svgraster.Bitmap {
	seen := make(map[string]*svgraster.Bitmap)
	counter := 0
	for {
		bm := render()
		bm.Invert()
		hash := bm.Hash()
		if cached, ok := seen[hash]; ok {
			return cached
		}
		if counter > 0 {
			Logger().Debug("render hash not seen before", "count", counter, "hash", hash)
		}
		seen[hash] = bm
		if counter >= 5 {
			Logger().Warn("too many tries to find identical renders, accepting the last one", "count", counter, "hash", hash)
			return bm
		}
		counter++
	}
}

// renderInk rasterizes the fallback document on the board grid; a failure
// comes back as a blank bitmap.
func renderInk(doc *svgtree.Document, tw, th int, target Bounds) *svgraster.Bitmap {
	bm, err := svgraster.Render(doc, tw+2, th+2, target, svgraster.IgnoreErrorMode)
	if err != nil {
		Logger().Warn("raster fallback render failed", "error", err)
		return svgraster.NewBitmap(tw+2, th+2)
	}
	return bm
}

// rasterizeAndTrace renders the raster clone, erases whatever the clip mask
// covers, and splices the traced runs into the working document's
// serialization.
func rasterizeAndTrace(svgString string, raster *svgtree.Document, tw, th int, target Bounds, clip *svgraster.Bitmap) string {
	bm := stableRender(func() *svgraster.Bitmap {
		return renderInk(raster, tw, th, target)
	})
	if clip != nil {
		bm.ApplyClip(clip)
	}
	path := svgraster.TracePath(bm, 1, "#000000")
	return strings.Replace(svgString, "</svg>", path+"</svg>", 1)
}

// extractOutline renders each surviving path of the raster clone on its own
// and hands the bitmap to the polygon extractor; the reconstructed elements
// are spliced into the working document's serialization. Isolating paths
// keeps each contour a single polygon.
func extractOutline(svgString string, raster *svgtree.Document, tw, th int, target Bounds, extractor PolygonExtractor) string {
	if extractor == nil {
		Logger().Warn("no polygon extractor configured, outline left unvectorized")
		return svgString
	}

	var paths []*svgtree.Element
	for _, leaf := range raster.Leaves() {
		if leaf.Tag == "path" {
			paths = append(paths, leaf)
		}
	}

	merge := func(bm *svgraster.Bitmap) {
		elements, err := extractor.Extract(bm, 1)
		if err != nil {
			Logger().Warn("outline extraction failed", "error", err)
			return
		}
		for _, el := range elements {
			svgString = strings.Replace(svgString, "</svg>", el+"</svg>", 1)
		}
	}

	if len(paths) == 0 {
		// the outline was drawn with other primitives; extract in one go
		bm := renderInk(raster, tw, th, target)
		bm.Invert()
		merge(bm)
		return svgString
	}
	for _, path := range paths {
		isolated := raster.Clone()
		for _, leaf := range isolated.Leaves() {
			if leaf.Tag == "path" && leaf.Serial != path.Serial {
				svgtree.Squash(leaf)
			}
		}
		bm := renderInk(isolated, tw, th, target)
		bm.Invert()
		merge(bm)
	}
	return svgString
}

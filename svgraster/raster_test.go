package svgraster

import (
	"math"
	"strings"
	"testing"

	"github.com/benoitkugler/pcbexport/svgpath"
	"github.com/benoitkugler/pcbexport/svgtree"
)

func mustParse(t *testing.T, svg string) *svgtree.Document {
	t.Helper()
	doc, err := svgtree.Parse(svg)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	return doc
}

func render(t *testing.T, svg string, width, height int) *Bitmap {
	t.Helper()
	doc := mustParse(t, svg)
	target := svgpath.Bounds{W: float64(width), H: float64(height)}
	bm, err := Render(doc, width, height, target, StrictErrorMode)
	if err != nil {
		t.Fatalf("Render: %s", err)
	}
	return bm
}

func checkPixels(t *testing.T, bm *Bitmap, black, white [][2]int) {
	t.Helper()
	for _, p := range black {
		if bm.At(p[0], p[1]) != Black {
			t.Errorf("pixel %v: want ink", p)
		}
	}
	for _, p := range white {
		if bm.At(p[0], p[1]) != White {
			t.Errorf("pixel %v: want blank", p)
		}
	}
}

func TestRenderRect(t *testing.T) {
	bm := render(t, `<svg viewBox="0 0 10 10"><rect x="2" y="3" width="4" height="2"/></svg>`, 10, 10)
	checkPixels(t, bm,
		[][2]int{{2, 3}, {5, 3}, {2, 4}, {5, 4}, {3, 4}},
		[][2]int{{1, 3}, {6, 3}, {2, 2}, {2, 5}, {0, 0}, {9, 9}})
}

func TestRenderViewBoxOffset(t *testing.T) {
	// a viewBox with a non zero origin must land on the same pixels
	bm := render(t, `<svg viewBox="5 5 10 10"><rect x="7" y="8" width="4" height="2"/></svg>`, 10, 10)
	checkPixels(t, bm,
		[][2]int{{2, 3}, {5, 4}},
		[][2]int{{1, 3}, {6, 3}, {7, 8}})
}

func TestRenderScaled(t *testing.T) {
	// mapping a 10 unit viewBox on a 20 pixel target doubles everything
	bm := render(t, `<svg viewBox="0 0 10 10"><rect x="2" y="3" width="4" height="2"/></svg>`, 20, 20)
	checkPixels(t, bm,
		[][2]int{{4, 6}, {11, 9}},
		[][2]int{{3, 6}, {12, 6}, {4, 5}, {4, 10}})
}

func TestRenderStroke(t *testing.T) {
	bm := render(t, `<svg viewBox="0 0 10 10"><line x1="1" y1="5" x2="9" y2="5" stroke="black" stroke-width="2"/></svg>`, 10, 10)
	checkPixels(t, bm,
		[][2]int{{1, 4}, {8, 5}, {5, 4}},
		[][2]int{{0, 5}, {9, 5}, {5, 3}, {5, 6}})
}

func TestRenderFillNone(t *testing.T) {
	blank := NewBitmap(10, 10).Hash()
	for _, svg := range []string{
		`<svg viewBox="0 0 10 10"><rect x="2" y="3" width="4" height="2" fill="none"/></svg>`,
		`<svg viewBox="0 0 10 10"><rect x="2" y="3" width="4" height="2" fill-opacity="0.4"/></svg>`,
		`<svg viewBox="0 0 10 10"><g style="fill:none"><rect x="2" y="3" width="4" height="2"/></g></svg>`,
	} {
		if bm := render(t, svg, 10, 10); bm.Hash() != blank {
			t.Errorf("expected a blank render for %s", svg)
		}
	}
	// any paint that is not none is ink, whatever its color
	bm := render(t, `<svg viewBox="0 0 10 10"><rect x="2" y="3" width="4" height="2" fill="#f7bd13" fill-opacity="0.6"/></svg>`, 10, 10)
	if bm.At(3, 4) != Black {
		t.Errorf("colored fill must render as ink")
	}
}

func TestRenderTransform(t *testing.T) {
	bm := render(t, `<svg viewBox="0 0 10 10"><g transform="translate(3,0)"><rect width="2" height="2"/></g></svg>`, 10, 10)
	checkPixels(t, bm,
		[][2]int{{3, 0}, {4, 1}},
		[][2]int{{0, 0}, {2, 0}, {5, 0}, {3, 2}})

	bm = render(t, `<svg viewBox="0 0 10 10"><rect x="1" y="1" width="1" height="1" transform="scale(2)"/></svg>`, 10, 10)
	checkPixels(t, bm,
		[][2]int{{2, 2}, {3, 3}},
		[][2]int{{1, 1}, {4, 2}, {2, 4}})
}

func TestRenderFillRule(t *testing.T) {
	bm := render(t, `<svg viewBox="0 0 10 10"><path fill-rule="evenodd" d="M0,0h10v10h-10z M3,3h4v4h-4z"/></svg>`, 10, 10)
	checkPixels(t, bm, [][2]int{{1, 1}, {8, 8}}, [][2]int{{5, 5}, {4, 4}})

	// same geometry under the default nonzero rule fills the middle
	bm = render(t, `<svg viewBox="0 0 10 10"><path d="M0,0h10v10h-10z M3,3h4v4h-4z"/></svg>`, 10, 10)
	checkPixels(t, bm, [][2]int{{1, 1}, {5, 5}}, nil)
}

func TestRenderUnsupported(t *testing.T) {
	const svg = `<svg viewBox="0 0 10 10"><text x="1" y="1">gnd</text></svg>`
	doc := mustParse(t, svg)
	if _, err := Render(doc, 10, 10, svgpath.Bounds{W: 10, H: 10}, StrictErrorMode); err == nil {
		t.Errorf("strict mode must reject text")
	}
	bm, err := Render(doc, 10, 10, svgpath.Bounds{W: 10, H: 10}, IgnoreErrorMode)
	if err != nil {
		t.Fatalf("ignore mode: %s", err)
	}
	if bm.Hash() != NewBitmap(10, 10).Hash() {
		t.Errorf("ignored text must leave the bitmap blank")
	}

	doc = mustParse(t, `<svg viewBox="0 0 10 10"><foo/></svg>`)
	if _, err := Render(doc, 10, 10, svgpath.Bounds{W: 10, H: 10}, StrictErrorMode); err == nil ||
		!strings.Contains(err.Error(), "foo") {
		t.Errorf("strict mode must name the unknown element, got %v", err)
	}
}

func TestRenderSkipsDefs(t *testing.T) {
	bm := render(t, `<svg viewBox="0 0 10 10"><defs><rect width="10" height="10"/></defs><title>board</title></svg>`, 10, 10)
	if bm.Hash() != NewBitmap(10, 10).Hash() {
		t.Errorf("defs content must not be painted")
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestLeafBounds(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 100 100">
<g transform="translate(10,0)">
<circle id="c" cx="20" cy="30" r="5" transform="translate(0,10)" fill="none" stroke="black" stroke-width="4"/>
</g>
<rect id="r" x="5" y="6" width="10" height="4"/>
</svg>`)
	geos, err := LeafBounds(doc, StrictErrorMode)
	if err != nil {
		t.Fatalf("LeafBounds: %s", err)
	}
	if len(geos) != 2 {
		t.Fatalf("got %d entries, want 2", len(geos))
	}
	circle, rect := doc.Leaves()[0], doc.Leaves()[1]

	// bounds carry the element transform and the stroke growth
	cg := geos[circle.Serial]
	if !near(cg.Bounds.X, 13) || !near(cg.Bounds.Y, 33) || !near(cg.Bounds.W, 14) || !near(cg.Bounds.H, 14) {
		t.Errorf("circle bounds: %+v", cg.Bounds)
	}
	// the transform holds only the ancestors
	if x, y := cg.Transform.Transform(0, 0); !near(x, 10) || !near(y, 0) {
		t.Errorf("circle transform maps origin to %g,%g", x, y)
	}
	if full := cg.Transform.MapRect(cg.Bounds); !near(full.X, 23) || !near(full.Y, 33) {
		t.Errorf("mapped circle bounds: %+v", full)
	}

	rg := geos[rect.Serial]
	if !near(rg.Bounds.X, 5) || !near(rg.Bounds.Y, 6) || !near(rg.Bounds.W, 10) || !near(rg.Bounds.H, 4) {
		t.Errorf("rect bounds: %+v", rg.Bounds)
	}
}

func TestLeafBoundsSkipsText(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0 0 10 10"><rect width="2" height="2"/><text>x</text></svg>`)
	geos, err := LeafBounds(doc, IgnoreErrorMode)
	if err != nil {
		t.Fatalf("LeafBounds: %s", err)
	}
	if len(geos) != 1 {
		t.Errorf("got %d entries, want only the rect", len(geos))
	}
	if _, err := LeafBounds(doc, StrictErrorMode); err == nil {
		t.Errorf("strict mode must reject text")
	}
}

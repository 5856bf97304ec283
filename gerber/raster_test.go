package gerber

import (
	"strings"
	"testing"

	"github.com/benoitkugler/pcbexport/svgraster"
)

func TestStableRenderRepeats(t *testing.T) {
	calls := 0
	bm := stableRender(func() *svgraster.Bitmap {
		calls++
		out := svgraster.NewBitmap(4, 4)
		out.Set(1, 1, 0x00)
		return out
	})
	// a deterministic render settles on the second attempt
	if calls != 2 {
		t.Errorf("got %d renders, want 2", calls)
	}
	// the result is inverted, ink white
	if bm.At(1, 1) != 0xff || bm.At(0, 0) != 0x00 {
		t.Errorf("bitmap not inverted")
	}
}

func TestStableRenderGivesUp(t *testing.T) {
	calls := 0
	stableRender(func() *svgraster.Bitmap {
		out := svgraster.NewBitmap(8, 1)
		out.Set(calls, 0, 0x00)
		calls++
		return out
	})
	// every attempt differs: six renders, then accept the last
	if calls != 6 {
		t.Errorf("got %d renders, want 6", calls)
	}
}

func TestRasterizeAndTrace(t *testing.T) {
	raster := mustParse(t, `<svg width="4" height="4" viewBox="0 0 4 4"><rect x="1" y="1" width="2" height="2" fill="black"/></svg>`)
	out := rasterizeAndTrace("<svg></svg>", raster, 4, 4, Bounds{W: 4, H: 4}, nil)
	want := "M1.5,1.5L2.5,1.5 M1.5,2.5L2.5,2.5 "
	if !strings.Contains(out, want) {
		t.Errorf("traced runs: %s", out)
	}
	if !strings.HasSuffix(out, "</svg>") || !strings.Contains(out, "stroke-linecap='square'") {
		t.Errorf("splice: %s", out)
	}
}

func TestRasterizeAndTraceClip(t *testing.T) {
	raster := mustParse(t, `<svg width="4" height="4" viewBox="0 0 4 4"><rect x="1" y="1" width="2" height="2" fill="black"/></svg>`)
	clipDoc := mustParse(t, `<svg width="4" height="4" viewBox="0 0 4 4"><rect x="0" y="0" width="4" height="4" fill="black"/></svg>`)
	clip, err := svgraster.Render(clipDoc, 6, 6, Bounds{W: 4, H: 4}, svgraster.StrictErrorMode)
	if err != nil {
		t.Fatalf("Render: %s", err)
	}
	out := rasterizeAndTrace("<svg></svg>", raster, 4, 4, Bounds{W: 4, H: 4}, clip)
	if !strings.Contains(out, "d=''") {
		t.Errorf("clip must erase all runs: %s", out)
	}
}

func TestExtractOutlineIsolatesPaths(t *testing.T) {
	raster := mustParse(t, `<svg width="10" height="10" viewBox="0 0 10 10">
<path d="M1,1 L4,1 L4,4 L1,4 z" fill="black"/>
<path d="M6,6 L9,6 L9,9 L6,9 z" fill="black"/>
</svg>`)
	ext := &fakeExtractor{elements: []string{"<polygon/>"}}
	out := extractOutline("<svg></svg>", raster, 10, 10, Bounds{W: 10, H: 10}, ext)
	if ext.calls != 2 {
		t.Fatalf("extractor called %d times, want 2", ext.calls)
	}
	// each bitmap holds a single contour
	first, second := ext.bitmaps[0], ext.bitmaps[1]
	if first.At(2, 2) != 0xff || first.At(7, 7) != 0x00 {
		t.Errorf("first bitmap must hold only the first contour")
	}
	if second.At(7, 7) != 0xff || second.At(2, 2) != 0x00 {
		t.Errorf("second bitmap must hold only the second contour")
	}
	if strings.Count(out, "<polygon/>") != 2 {
		t.Errorf("reconstructed polygons: %s", out)
	}
}

func TestExtractOutlineWholeDocument(t *testing.T) {
	// an outline drawn without path elements is extracted in one pass
	raster := mustParse(t, `<svg width="10" height="10" viewBox="0 0 10 10"><rect x="1" y="1" width="8" height="8" fill="black"/></svg>`)
	ext := &fakeExtractor{elements: []string{"<polygon/>"}}
	out := extractOutline("<svg></svg>", raster, 10, 10, Bounds{W: 10, H: 10}, ext)
	if ext.calls != 1 {
		t.Fatalf("extractor called %d times, want 1", ext.calls)
	}
	if !strings.Contains(out, "<polygon/>") {
		t.Errorf("reconstructed polygon not spliced: %s", out)
	}
}

func TestExtractOutlineWithoutExtractor(t *testing.T) {
	raster := mustParse(t, `<svg width="4" height="4"><path d="M0,0 L3,0 z" fill="black"/></svg>`)
	if out := extractOutline("<svg></svg>", raster, 4, 4, Bounds{W: 4, H: 4}, nil); out != "<svg></svg>" {
		t.Errorf("missing extractor must leave the document alone: %s", out)
	}
}

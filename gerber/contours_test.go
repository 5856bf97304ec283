package gerber

import (
	"errors"
	"testing"
)

func TestSplitContours(t *testing.T) {
	doc := mustParse(t, `<svg width="20" height="20"><path id="outline" fill="black" d="M0,0 L10,0 L10,10 z M2,2 L8,2 L8,8 z"/></svg>`)
	if err := splitContours(doc); err != nil {
		t.Fatalf("splitContours: %s", err)
	}
	leaves := doc.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("got %d paths, want 2", len(leaves))
	}
	if got := leaves[0].Attribute("d"); got != "M0,0 L10,0 L10,10 z" {
		t.Errorf("first contour: %q", got)
	}
	if got := leaves[1].Attribute("d"); got != "M2,2 L8,2 L8,8z" {
		t.Errorf("second contour: %q", got)
	}
	// the cutout inherits the drawing attributes
	if leaves[1].Attribute("fill") != "black" {
		t.Errorf("cutout lost its fill")
	}
}

func TestSplitContoursRelative(t *testing.T) {
	doc := mustParse(t, `<svg><path d="m1,1 l4,0 l0,4 z m2,2 l1,0 l0,1 z"/></svg>`)
	if err := splitContours(doc); err != nil {
		t.Fatalf("splitContours: %s", err)
	}
	leaves := doc.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("got %d paths, want 2", len(leaves))
	}
	// a relative fragment starts from the replayed moves of its
	// predecessors
	if got := leaves[1].Attribute("d"); got != "m1,1 m2,2 l1,0 l0,1z" {
		t.Errorf("second contour: %q", got)
	}
}

func TestSplitContoursAbsoluteReset(t *testing.T) {
	doc := mustParse(t, `<svg><path d="m1,1 l4,0 z M9,9 l1,0 z m2,2 l1,0 z"/></svg>`)
	if err := splitContours(doc); err != nil {
		t.Fatalf("splitContours: %s", err)
	}
	leaves := doc.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("got %d paths, want 3", len(leaves))
	}
	// the absolute move resets the replay prefix
	if got := leaves[2].Attribute("d"); got != "M9,9 m2,2 l1,0z" {
		t.Errorf("third contour: %q", got)
	}
}

func TestSplitContoursBadCutout(t *testing.T) {
	doc := mustParse(t, `<svg><path d="M0,0 L10,0 z L2,2 z"/></svg>`)
	err := splitContours(doc)
	if !errors.Is(err, errCutouts) {
		t.Fatalf("expected errCutouts, got %v", err)
	}
	// the document is left untouched
	if got := doc.Leaves()[0].Attribute("d"); got != "M0,0 L10,0 z L2,2 z" {
		t.Errorf("path mutated on failure: %q", got)
	}
}

func TestSplitContoursSingle(t *testing.T) {
	doc := mustParse(t, `<svg><path d="M0,0 L10,0 L10,10 z"/></svg>`)
	if err := splitContours(doc); err != nil {
		t.Fatalf("splitContours: %s", err)
	}
	if n := len(doc.Leaves()); n != 1 {
		t.Errorf("single contour must not be split, got %d paths", n)
	}
}

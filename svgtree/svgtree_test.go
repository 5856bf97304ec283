package svgtree

import (
	"strings"
	"testing"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="9in" height="7in" viewBox="0 0 810 630">
<g id="copper">
<circle id="pad1" cx="100" cy="100" r="20" fill="none" stroke="#F7BD13" stroke-width="8"/>
<path id="trace1" d="M10,10 L200,10" stroke="black" stroke-width="5" fill="none"/>
<text id="label">gnd</text>
</g>
</svg>`

func TestParseRoundTrip(t *testing.T) {
	doc, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if doc.Root.Tag != "svg" {
		t.Errorf("root tag: got %s", doc.Root.Tag)
	}
	out := doc.String()
	if !strings.HasPrefix(out, "<?xml ") {
		t.Errorf("declaration lost: %s", out[:30])
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %s", err)
	}
	if got, want := len(again.Leaves()), len(doc.Leaves()); got != want {
		t.Errorf("leaves after round trip: got %d, want %d", got, want)
	}
	if again.String() != out {
		t.Errorf("serialization is not stable")
	}
}

func TestParseErrors(t *testing.T) {
	for _, svg := range []string{
		"",
		"just text",
		"<svg><g></svg>",
		"<svg/><svg/>",
	} {
		if _, err := Parse(svg); err == nil {
			t.Errorf("Parse(%q): expected an error", svg)
		}
	}
}

func TestLeaves(t *testing.T) {
	doc, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	leaves := doc.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("got %d leaves, want 3", len(leaves))
	}
	if leaves[0].ID() != "pad1" || leaves[1].ID() != "trace1" || leaves[2].ID() != "label" {
		t.Errorf("leaf order: %s, %s, %s", leaves[0].ID(), leaves[1].ID(), leaves[2].ID())
	}
}

func TestCloneKeepsSerials(t *testing.T) {
	doc, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	clone := doc.Clone()
	for _, leaf := range doc.Leaves() {
		twin := clone.Find(leaf.Serial)
		if twin == nil {
			t.Fatalf("serial %d missing from clone", leaf.Serial)
		}
		if twin.ID() != leaf.ID() {
			t.Errorf("serial %d: clone id %s, want %s", leaf.Serial, twin.ID(), leaf.ID())
		}
	}
	// mutating the clone must not touch the original
	Squash(clone.Find(doc.Leaves()[0].Serial))
	if doc.Leaves()[0].Squashed() {
		t.Errorf("squashing the clone leaked into the original")
	}
}

func TestSquash(t *testing.T) {
	doc, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	leaf := doc.Leaves()[0]
	Squash(leaf)
	if !leaf.Squashed() {
		t.Errorf("element not squashed")
	}
	if leaf.ID() != "pad1" {
		t.Errorf("squash must keep the id, got %q", leaf.ID())
	}
	if leaf.HasAttribute("r") {
		t.Errorf("squash must drop geometry attributes")
	}
	if len(doc.Leaves()) != 2 {
		t.Errorf("squashed element still counted as a leaf")
	}
}

func TestInsertAfter(t *testing.T) {
	doc, err := Parse(`<svg><g><path id="a" d="M0,0z"/><path id="c" d="M1,1z"/></g></svg>`)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	a := doc.Leaves()[0]
	b := doc.CreateElement("path")
	b.SetAttribute("id", "b")
	InsertAfter(a, b)
	leaves := doc.Leaves()
	if len(leaves) != 3 || leaves[1].ID() != "b" || leaves[2].ID() != "c" {
		t.Fatalf("unexpected order after insert")
	}
	if clone := doc.Clone(); clone.Find(b.Serial) == nil {
		t.Errorf("created element not cloned by serial")
	}
}

func TestChangeColors(t *testing.T) {
	doc, err := Parse(`<svg><rect fill="red" stroke="none" width="5" height="5"/><circle r="3" style="fill:#abc;stroke:blue"/></svg>`)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	ChangeColors(doc.Root, "#000000", []string{"none", ""})
	out := doc.String()
	if strings.Contains(out, "red") || strings.Contains(out, "#abc") || strings.Contains(out, "blue") {
		t.Errorf("colors not rewritten: %s", out)
	}
	if !strings.Contains(out, `stroke="none"`) {
		t.Errorf("excepted value was rewritten: %s", out)
	}
}

func TestExpandAndFill(t *testing.T) {
	doc, err := Parse(`<svg><rect width="5" height="5" fill="white"/><line x1="0" y1="0" x2="9" y2="0" fill="none" stroke="white" stroke-width="4"/></svg>`)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	ExpandAndFill(doc, "black", 0.9)
	rect, line := doc.Leaves()[0], doc.Leaves()[1]
	if rect.Property("fill") != "black" || rect.Property("stroke") != "black" {
		t.Errorf("rect not blackened: %s", rect.OuterXML())
	}
	if got := rect.FloatAttribute("stroke-width"); got != 0.9 {
		t.Errorf("rect stroke width: got %g, want 0.9", got)
	}
	if got := line.FloatAttribute("stroke-width"); got != 4.9 {
		t.Errorf("line stroke width: got %g, want 4.9", got)
	}
	if line.Property("fill") != "none" {
		t.Errorf("fill none must stay none")
	}
}

func TestFloatAttribute(t *testing.T) {
	doc, err := Parse(`<svg><rect width="7.5px" height="oops"/></svg>`)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	rect := doc.Leaves()[0]
	if got := rect.FloatAttribute("width"); got != 7.5 {
		t.Errorf("width: got %g, want 7.5", got)
	}
	if got := rect.FloatAttribute("height"); got != 0 {
		t.Errorf("height: got %g, want 0", got)
	}
	if got := rect.FloatAttribute("missing"); got != 0 {
		t.Errorf("missing: got %g, want 0", got)
	}
}

// Package svgtree provides a mutable SVG document model.
//
// Unlike a one-shot icon parser, the element tree built here is meant to be
// rewritten in place (elements squashed, replaced or inserted) and serialized
// again, so every element keeps its attributes verbatim and receives a
// stable integer key at parse time. Clones preserve the keys, which lets two
// documents built from one parse be correlated without relying on positional
// alignment.
package svgtree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// Element is one node of the document tree. Attributes keep their source
// order so serialization is stable.
type Element struct {
	Tag      string
	Attrs    []xml.Attr
	Text     string // character data, for text-bearing elements
	Parent   *Element
	Children []*Element

	// Serial is assigned at parse (or creation) time and preserved by
	// Document.Clone, so the same geometry in two clones shares one key.
	Serial int
}

// Document owns an element tree and the serial index over it.
type Document struct {
	Root *Element

	// Declaration is the leading <?xml ...?> instruction, if the source
	// carried one; it is re-emitted verbatim.
	Declaration string

	serials map[int]*Element
	next    int
}

// tags whose childless occurrences count as drawable leaves
var drawableTags = map[string]bool{
	"path": true, "circle": true, "rect": true, "line": true,
	"ellipse": true, "polygon": true, "polyline": true,
	"text": true, "image": true,
}

// Parse builds a document from an SVG string. Character encodings other
// than UTF-8 are handled through the charset reader. A document without a
// root element is an error.
func Parse(svg string) (*Document, error) {
	doc := &Document{serials: make(map[int]*Element)}
	decoder := xml.NewDecoder(strings.NewReader(svg))
	decoder.CharsetReader = charset.NewReaderLabel

	var current *Element
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("invalid svg document: %w", err)
		}
		switch se := t.(type) {
		case xml.StartElement:
			se = se.Copy() // the decoder reuses the attribute slice
			el := &Element{Tag: se.Name.Local, Attrs: se.Attr, Parent: current, Serial: doc.next}
			doc.serials[doc.next] = el
			doc.next++
			if current == nil {
				if doc.Root != nil {
					return nil, fmt.Errorf("invalid svg document: multiple root elements")
				}
				doc.Root = el
			} else {
				current.Children = append(current.Children, el)
			}
			current = el
		case xml.EndElement:
			if current == nil {
				return nil, fmt.Errorf("invalid svg document: unbalanced end tag </%s>", se.Name.Local)
			}
			current = current.Parent
		case xml.CharData:
			if current != nil {
				current.Text += string(se)
			}
		case xml.ProcInst:
			if current == nil && se.Target == "xml" {
				doc.Declaration = "<?xml " + string(se.Inst) + "?>"
			}
		}
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("invalid svg document: no root element")
	}
	return doc, nil
}

// CreateElement returns a detached element owned by the document, with a
// fresh serial. Attach it with InsertAfter or AppendChild.
func (d *Document) CreateElement(tag string) *Element {
	el := &Element{Tag: tag, Serial: d.next}
	d.serials[d.next] = el
	d.next++
	return el
}

// Find returns the element with the given serial, or nil.
func (d *Document) Find(serial int) *Element {
	return d.serials[serial]
}

// Clone deep-copies the document. Serials are preserved, so lookups by
// serial resolve to the corresponding element in the clone.
func (d *Document) Clone() *Document {
	out := &Document{Declaration: d.Declaration, serials: make(map[int]*Element, len(d.serials)), next: d.next}
	out.Root = cloneElement(d.Root, nil, out.serials)
	return out
}

func cloneElement(e *Element, parent *Element, serials map[int]*Element) *Element {
	c := &Element{Tag: e.Tag, Text: e.Text, Parent: parent, Serial: e.Serial}
	c.Attrs = append([]xml.Attr(nil), e.Attrs...)
	serials[e.Serial] = c
	for _, child := range e.Children {
		c.Children = append(c.Children, cloneElement(child, c, serials))
	}
	return c
}

// Walk visits e and its descendants in document order. Returning false from
// fn prunes the descent below the visited element.
func Walk(e *Element, fn func(*Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		Walk(c, fn)
	}
}

// Leaves returns the drawable leaf elements in document order: childless
// elements of ink-bearing tags. Squashed elements are not drawable and are
// excluded.
func (d *Document) Leaves() []*Element {
	var out []*Element
	Walk(d.Root, func(e *Element) bool {
		if len(e.Children) == 0 && drawableTags[e.Tag] {
			out = append(out, e)
		}
		return true
	})
	return out
}

// ElementsByTag returns all elements with the given tag, in document order.
func (d *Document) ElementsByTag(tag string) []*Element {
	var out []*Element
	Walk(d.Root, func(e *Element) bool {
		if e.Tag == tag {
			out = append(out, e)
		}
		return true
	})
	return out
}

// Attribute returns the value of the named attribute, or "".
func (e *Element) Attribute(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// HasAttribute reports whether the named attribute is present.
func (e *Element) HasAttribute(name string) bool {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// FloatAttribute parses the named attribute as a float, ignoring a trailing
// unit suffix such as "px". Absent or malformed values yield 0.
func (e *Element) FloatAttribute(name string) float64 {
	v := strings.TrimSpace(e.Attribute(name))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// SetAttribute sets or replaces the named attribute, keeping its position
// when it already exists.
func (e *Element) SetAttribute(name, value string) {
	for i, a := range e.Attrs {
		if a.Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// RemoveAttribute drops the named attribute if present.
func (e *Element) RemoveAttribute(name string) {
	for i, a := range e.Attrs {
		if a.Name.Local == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// ID returns the element's id attribute.
func (e *Element) ID() string { return e.Attribute("id") }

// InsertAfter inserts el as a sibling immediately following ref. ref must be
// a child of its parent; a detached ref is a no-op.
func InsertAfter(ref, el *Element) {
	p := ref.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == ref {
			el.Parent = p
			p.Children = append(p.Children, nil)
			copy(p.Children[i+2:], p.Children[i+1:])
			p.Children[i+1] = el
			return
		}
	}
}

// AppendChild attaches el as the last child of parent.
func AppendChild(parent, el *Element) {
	el.Parent = parent
	parent.Children = append(parent.Children, el)
}

// Detach removes el from its parent's children. The element keeps its
// serial but no longer appears in the tree.
func Detach(el *Element) {
	p := el.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == el {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			el.Parent = nil
			return
		}
	}
}

// Squash rewrites the element in place into an empty, ink-less group,
// keeping only its id. This is how elements are removed from native
// rendering; nothing ever restores a squashed element.
func Squash(e *Element) {
	id := e.ID()
	e.Tag = "g"
	e.Attrs = nil
	e.Children = nil
	e.Text = ""
	if id != "" {
		e.SetAttribute("id", id)
	}
}

// Squashed reports whether the element is an empty group, i.e. carries no
// ink and no children.
func (e *Element) Squashed() bool {
	return e.Tag == "g" && len(e.Children) == 0
}

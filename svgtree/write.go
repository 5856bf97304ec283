package svgtree

import (
	"encoding/xml"
	"strings"
)

// String serializes the document, starting with the original XML
// declaration when one was parsed. The output is compact: no indentation is
// introduced beyond the character data already present.
func (d *Document) String() string {
	var b strings.Builder
	if d.Declaration != "" {
		b.WriteString(d.Declaration)
		b.WriteByte('\n')
	}
	writeElement(&b, d.Root)
	return b.String()
}

// OuterXML serializes a single element and its subtree.
func (e *Element) OuterXML() string {
	var b strings.Builder
	writeElement(&b, e)
	return b.String()
}

func writeElement(b *strings.Builder, e *Element) {
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(attrName(a.Name))
		b.WriteString(`="`)
		escape(b, a.Value, true)
		b.WriteByte('"')
	}
	if len(e.Children) == 0 && e.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	if e.Text != "" {
		escape(b, e.Text, false)
	}
	for _, c := range e.Children {
		writeElement(b, c)
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
}

// attrName restores the usual prefixes for the namespaces that occur in
// generated board SVGs; unknown namespaces fall back to the local name.
func attrName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case "xmlns":
		return "xmlns:" + n.Local
	case "http://www.w3.org/XML/1998/namespace", "xml":
		return "xml:" + n.Local
	case "http://www.w3.org/1999/xlink", "xlink":
		return "xlink:" + n.Local
	}
	return n.Local
}

func escape(b *strings.Builder, s string, attr bool) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			if attr {
				b.WriteString("&quot;")
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
}

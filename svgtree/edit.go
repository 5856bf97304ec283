package svgtree

import (
	"strconv"
	"strings"
)

// StyleProperty returns the value of a property from the element's style
// attribute, or "" when the property (or the attribute) is absent.
func (e *Element) StyleProperty(name string) string {
	style := e.Attribute("style")
	if style == "" {
		return ""
	}
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == name {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Property resolves a presentation property: the attribute wins, then the
// style attribute.
func (e *Element) Property(name string) string {
	if v := e.Attribute(name); v != "" {
		return v
	}
	return e.StyleProperty(name)
}

// setProperty updates the property where it currently lives: in the style
// attribute when declared there, as a plain attribute otherwise.
func (e *Element) setProperty(name, value string) {
	style := e.Attribute("style")
	if style != "" {
		decls := strings.Split(style, ";")
		for i, decl := range decls {
			k, _, ok := strings.Cut(decl, ":")
			if ok && strings.TrimSpace(k) == name {
				decls[i] = name + ":" + value
				e.SetAttribute("style", strings.Join(decls, ";"))
				return
			}
		}
	}
	e.SetAttribute(name, value)
}

// ChangeColors rewrites every fill and stroke in the subtree to the given
// color, leaving values found in exceptions (usually "none" and "")
// untouched. Both plain attributes and style declarations are rewritten.
func ChangeColors(e *Element, color string, exceptions []string) {
	excepted := func(v string) bool {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, x := range exceptions {
			if v == x {
				return true
			}
		}
		return false
	}
	Walk(e, func(el *Element) bool {
		for _, name := range [2]string{"fill", "stroke"} {
			if v := el.Attribute(name); v != "" && !excepted(v) {
				el.SetAttribute(name, color)
			}
			if v := el.StyleProperty(name); v != "" && !excepted(v) {
				el.setProperty(name, color)
			}
		}
		return true
	})
}

// ExpandAndFill turns the subtree into a solid single-color shape grown by
// extra units: every painted leaf is filled with the color and its stroke is
// widened by extra (a leaf without a stroke gains one of width extra, which
// grows the shape by extra/2 on each side).
func ExpandAndFill(doc *Document, color string, extra float64) {
	for _, leaf := range doc.Leaves() {
		fill := leaf.Property("fill")
		stroke := leaf.Property("stroke")
		if strings.EqualFold(fill, "none") && strings.EqualFold(stroke, "none") {
			continue
		}
		if !strings.EqualFold(fill, "none") {
			leaf.setProperty("fill", color)
		}
		width := extra
		if stroke != "" && !strings.EqualFold(stroke, "none") {
			if w := leaf.Property("stroke-width"); w != "" {
				width += parseFloatLoose(w)
			} else {
				width += 1 // svg default stroke width
			}
		}
		leaf.setProperty("stroke", color)
		leaf.setProperty("stroke-width", formatFloat(width))
	}
}

func parseFloatLoose(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

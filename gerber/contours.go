package gerber

import (
	"errors"
	"regexp"
	"strings"

	"github.com/benoitkugler/pcbexport/svgpath"
	"github.com/benoitkugler/pcbexport/svgtree"
)

// cutoutsMessage tells the user how to re-author an outline whose cutouts
// cannot be split into contours.
const cutoutsMessage = "unable to process the cutouts in this custom PCB shape. " +
	"You may need to reload the shape SVG. " +
	"Cutouts must be made using a shape 'subtraction' or 'difference' operation in your vector graphics editor."

var errCutouts = errors.New(cutoutsMessage)

// moveFinder captures a move command and its coordinate pair.
var moveFinder = regexp.MustCompile(`([mM])\s*(-?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)[\s,]*(-?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`)

// splitContours breaks outline paths holding several closed subpaths into
// independent sibling paths: the emitter reads the first contour as the
// board boundary and the others as cutouts. Every fragment after a close
// must start with a move command; geometry that does not (usually a shape
// combined without a proper subtraction) aborts with errCutouts, leaving
// the document untouched.
func splitContours(doc *svgtree.Document) error {
	paths := doc.ElementsByTag("path") // normally just one

	multiple := false
	for _, path := range paths {
		d := strings.TrimSpace(path.Attribute("d"))
		if svgpath.CloseCount(d) < 2 {
			continue
		}
		multiple = true
		for _, sub := range splitOnClose(d) {
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(sub)), "m") {
				return errCutouts
			}
		}
	}
	if !multiple {
		return nil
	}

	for _, path := range paths {
		original := strings.TrimSpace(path.Attribute("d"))
		if svgpath.CloseCount(original) < 2 {
			continue
		}
		subs := splitOnClose(path.Attribute("d"))

		// each relative fragment needs the moves of its predecessors
		// replayed to start from the right position
		var priorM string
		if m := moveFinder.FindStringSubmatch(strings.TrimSpace(subs[0])); m != nil {
			priorM = m[1] + m[2] + "," + m[3] + " "
		}
		for i := 1; i < len(subs); i++ {
			d := strings.TrimSpace(subs[i])
			if i < len(subs)-1 || strings.HasSuffix(strings.ToLower(original), "z") {
				d += "z"
			}
			m := moveFinder.FindStringSubmatch(d)
			if strings.HasPrefix(d, "m") {
				d = priorM + d
			}
			if m != nil {
				if m[1] == "M" {
					priorM = m[1] + m[2] + "," + m[3] + " "
				} else {
					priorM += m[1] + m[2] + "," + m[3] + " "
				}
			}

			sibling := doc.CreateElement(path.Tag)
			sibling.Attrs = append(sibling.Attrs, path.Attrs...)
			sibling.SetAttribute("d", d)
			svgtree.AppendChild(path.Parent, sibling)
		}
		path.SetAttribute("d", subs[0]+"z")
	}
	return nil
}

// splitOnClose splits path data on close commands, dropping blank pieces.
func splitOnClose(d string) []string {
	pieces := strings.FieldsFunc(d, func(r rune) bool { return r == 'z' || r == 'Z' })
	out := pieces[:0]
	for _, piece := range pieces {
		if strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
	}
	return out
}

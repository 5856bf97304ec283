package svgpath

import (
	"math"
	"strings"
)

// applyTransformOp composes one transform function onto m.
func applyTransformOp(m Matrix2D, k string, points []float64) (Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m = m.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m = m.Translate(points[1], points[2]).
				Rotate(points[0] * math.Pi / 180).
				Translate(-points[1], -points[2])
		} else {
			return m, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m = m.Translate(points[0], 0)
		} else if ln == 2 {
			m = m.Translate(points[0], points[1])
		} else {
			return m, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m = m.SkewX(points[0] * math.Pi / 180)
		} else {
			return m, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m = m.SkewY(points[0] * math.Pi / 180)
		} else {
			return m, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m = m.Scale(points[0], points[0])
		} else if ln == 2 {
			m = m.Scale(points[0], points[1])
		} else {
			return m, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m = m.Mult(Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5],
			})
		} else {
			return m, errParamMismatch
		}
	default:
		return m, errParamMismatch
	}
	return m, nil
}

// ParseTransform compiles an SVG transform attribute value into a single
// matrix, composing the listed functions left to right onto base.
func ParseTransform(base Matrix2D, v string) (Matrix2D, error) {
	ts := strings.Split(v, ")")
	m1 := base
	c := &pathCursor{}
	for _, t := range ts {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		if err := c.getPoints(d[1]); err != nil {
			return m1, err
		}
		var err error
		m1, err = applyTransformOp(m1, strings.ToLower(strings.TrimSpace(d[0])), c.points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

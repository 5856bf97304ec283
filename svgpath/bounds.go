package svgpath

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Analytic bounding box of a compiled path: each segment contributes its
// endpoints plus the points where the derivative vanishes, so curve extents
// are exact rather than control-point hulls. Clipping decisions depend on
// this: a conservative hull would cut elements that are actually on the
// board.

// quadratic polynomial x = At^2 + Bt + C, derivative as at + b
func quadraticDerivative(p0, p1, p2 float64) (a, b float64) {
	return 2 * (p2 - p1 - (p1 - p0)), 2 * (p1 - p0)
}

func linearRoots(a, b float64) []float64 {
	if a == 0 {
		return nil
	}
	return []float64{-b / a}
}

func bezierQuad(p0, p1, p2, t float64) float64 {
	return (p0+p2-2*p1)*t*t + 2*(p1-p0)*t + p0
}

// cubic polynomial x = At^3 + Bt^2 + Ct + D; the derivative taken as
// at^2 + bt + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		return linearRoots(b, c)
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

type extent struct {
	minX, minY, maxX, maxY float64
	any                    bool
}

func (e *extent) add(x, y float64) {
	if !e.any {
		e.minX, e.maxX, e.minY, e.maxY = x, x, y, y
		e.any = true
		return
	}
	e.minX = math.Min(e.minX, x)
	e.minY = math.Min(e.minY, y)
	e.maxX = math.Max(e.maxX, x)
	e.maxY = math.Max(e.maxY, y)
}

// addCurve evaluates the segment at the t values that are inside (0, 1),
// plus both endpoints.
func (e *extent) addCurve(ts []float64, eval func(t float64) (x, y float64)) {
	e.add(eval(0))
	e.add(eval(1))
	for _, t := range ts {
		if 0 < t && t < 1 {
			e.add(eval(t))
		}
	}
}

// BoundingBox returns the exact axis-aligned bounding box of the path's
// geometry, ignoring stroke width. A path without drawing operations yields
// the zero Bounds.
func (p Path) BoundingBox() Bounds {
	var (
		ext            extent
		curX, curY     float64
		startX, startY float64
	)
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			curX, curY = fixedTof(fixed.Point26_6(op))
			startX, startY = curX, curY
		case LineTo:
			x, y := fixedTof(fixed.Point26_6(op))
			ext.add(curX, curY)
			ext.add(x, y)
			curX, curY = x, y
		case QuadTo:
			p0x, p0y := curX, curY
			p1x, p1y := fixedTof(op[0])
			p2x, p2y := fixedTof(op[1])
			aX, bX := quadraticDerivative(p0x, p1x, p2x)
			aY, bY := quadraticDerivative(p0y, p1y, p2y)
			ts := append(linearRoots(aX, bX), linearRoots(aY, bY)...)
			ext.addCurve(ts, func(t float64) (float64, float64) {
				return bezierQuad(p0x, p1x, p2x, t), bezierQuad(p0y, p1y, p2y, t)
			})
			curX, curY = p2x, p2y
		case CubicTo:
			p0x, p0y := curX, curY
			p1x, p1y := fixedTof(op[0])
			p2x, p2y := fixedTof(op[1])
			p3x, p3y := fixedTof(op[2])
			aX, bX, cX := cubicDerivative(p0x, p1x, p2x, p3x)
			aY, bY, cY := cubicDerivative(p0y, p1y, p2y, p3y)
			ts := append(quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)...)
			ext.addCurve(ts, func(t float64) (float64, float64) {
				return bezierSpline(p0x, p1x, p2x, p3x, t), bezierSpline(p0y, p1y, p2y, p3y, t)
			})
			curX, curY = p3x, p3y
		case Close:
			// the closing line runs between points already accounted for
			curX, curY = startX, startY
		}
	}
	if !ext.any {
		return Bounds{}
	}
	return Bounds{ext.minX, ext.minY, ext.maxX - ext.minX, ext.maxY - ext.minY}
}

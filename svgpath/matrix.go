package svgpath

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Matrix2D is an SVG affine transform:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity transform.
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Mult returns a∘b: b is applied first, then a.
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Translate appends a translation.
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale appends a scale.
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Rotate appends a rotation of theta radians.
func (a Matrix2D) Rotate(theta float64) Matrix2D {
	c, s := math.Cos(theta), math.Sin(theta)
	return a.Mult(Matrix2D{c, s, -s, c, 0, 0})
}

// SkewX appends an x-axis skew of theta radians.
func (a Matrix2D) SkewX(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, math.Tan(theta), 1, 0, 0})
}

// SkewY appends a y-axis skew of theta radians.
func (a Matrix2D) SkewY(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, math.Tan(theta), 0, 1, 0, 0})
}

// Invert returns the inverse transform; the matrix must not be degenerate.
func (a Matrix2D) Invert() Matrix2D {
	det := a.A*a.D - a.B*a.C
	return Matrix2D{
		A: a.D / det, B: -a.B / det,
		C: -a.C / det, D: a.A / det,
		E: (a.C*a.F - a.D*a.E) / det,
		F: (a.B*a.E - a.A*a.F) / det,
	}
}

// Transform maps the point (x, y).
func (a Matrix2D) Transform(x, y float64) (float64, float64) {
	return a.A*x + a.C*y + a.E, a.B*x + a.D*y + a.F
}

// ScaleFactors returns the lengths of the transformed unit vectors: the
// effective scale along each input axis. They differ when the transform
// carries anisotropic scaling or skew.
func (a Matrix2D) ScaleFactors() (sx, sy float64) {
	return math.Hypot(a.A, a.B), math.Hypot(a.C, a.D)
}

func (a Matrix2D) trans(p fixed.Point26_6) fixed.Point26_6 {
	fx, fy := fixedTof(p)
	x, y := a.Transform(fx, fy)
	return toFixedP(x, y)
}

func (a Matrix2D) trMove(op MoveTo) fixed.Point26_6 { return a.trans(fixed.Point26_6(op)) }
func (a Matrix2D) trLine(op LineTo) fixed.Point26_6 { return a.trans(fixed.Point26_6(op)) }

func (a Matrix2D) trQuad(op QuadTo) (b, c fixed.Point26_6) {
	return a.trans(op[0]), a.trans(op[1])
}

func (a Matrix2D) trCubic(op CubicTo) (b, c, d fixed.Point26_6) {
	return a.trans(op[0]), a.trans(op[1]), a.trans(op[2])
}

// Bounds is an axis-aligned rectangle: origin plus extent.
type Bounds struct{ X, Y, W, H float64 }

// Empty reports whether the rectangle has no area.
func (b Bounds) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Center returns the rectangle's midpoint.
func (b Bounds) Center() (float64, float64) { return b.X + b.W/2, b.Y + b.H/2 }

// Expanded grows the rectangle by m on every side.
func (b Bounds) Expanded(m float64) Bounds {
	return Bounds{b.X - m, b.Y - m, b.W + 2*m, b.H + 2*m}
}

// Contains reports whether o lies entirely inside b.
func (b Bounds) Contains(o Bounds) bool {
	return o.X >= b.X && o.Y >= b.Y && o.X+o.W <= b.X+b.W && o.Y+o.H <= b.Y+b.H
}

// Scaled multiplies origin and extent by f.
func (b Bounds) Scaled(f float64) Bounds {
	return Bounds{b.X * f, b.Y * f, b.W * f, b.H * f}
}

// Union returns the smallest rectangle covering b and o; an empty operand
// yields the other one.
func (b Bounds) Union(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.X+b.W, o.X+o.W)
	y1 := math.Max(b.Y+b.H, o.Y+o.H)
	return Bounds{x0, y0, x1 - x0, y1 - y0}
}

// MapRect returns the axis-aligned bounding box of the rectangle's image
// under the transform.
func (a Matrix2D) MapRect(b Bounds) Bounds {
	x0, y0 := a.Transform(b.X, b.Y)
	x1, y1 := a.Transform(b.X+b.W, b.Y)
	x2, y2 := a.Transform(b.X, b.Y+b.H)
	x3, y3 := a.Transform(b.X+b.W, b.Y+b.H)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Bounds{minX, minY, maxX - minX, maxY - minY}
}

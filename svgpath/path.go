// Package svgpath provides the geometry layer for board exports: affine
// transforms, an operation-list path model over fixed-point coordinates,
// compilation of SVG path data and basic shapes into paths, and analytic
// bounding boxes.
package svgpath

import (
	"fmt"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Operation is one SVG path command.
type Operation interface {
	// drawTo replays the operation on the sink, transformed by M.
	drawTo(d rasterx.Adder, M Matrix2D)
}

type MoveTo fixed.Point26_6

type LineTo fixed.Point26_6

type QuadTo [2]fixed.Point26_6

type CubicTo [3]fixed.Point26_6

type Close struct{}

func (op MoveTo) drawTo(d rasterx.Adder, M Matrix2D) {
	d.Stop(false) // implicit end of the previous subpath
	d.Start(M.trMove(op))
}

func (op LineTo) drawTo(d rasterx.Adder, M Matrix2D) {
	d.Line(M.trLine(op))
}

func (op QuadTo) drawTo(d rasterx.Adder, M Matrix2D) {
	b, c := M.trQuad(op)
	d.QuadBezier(b, c)
}

func (op CubicTo) drawTo(d rasterx.Adder, M Matrix2D) {
	b, c, d_ := M.trCubic(op)
	d.CubeBezier(b, c, d_)
}

func (op Close) drawTo(d rasterx.Adder, _ Matrix2D) {
	d.Stop(true)
}

// Path is a sequence of operations. Higher-level shapes reduce to a path.
type Path []Operation

// DrawTo replays the whole path on the sink, transformed by M, and ends the
// final subpath without closing it.
func (p Path) DrawTo(d rasterx.Adder, M Matrix2D) {
	for _, op := range p {
		op.drawTo(d, M)
	}
	d.Stop(false)
}

// ToSVGPath returns the path as SVG path data.
func (p Path) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = fmt.Sprintf("M%4.3f,%4.3f", float32(op.X)/64, float32(op.Y)/64)
		case LineTo:
			chunks[i] = fmt.Sprintf("L%4.3f,%4.3f", float32(op.X)/64, float32(op.Y)/64)
		case QuadTo:
			chunks[i] = fmt.Sprintf("Q%4.3f,%4.3f,%4.3f,%4.3f", float32(op[0].X)/64, float32(op[0].Y)/64,
				float32(op[1].X)/64, float32(op[1].Y)/64)
		case CubicTo:
			chunks[i] = fmt.Sprintf("C%4.3f,%4.3f,%4.3f,%4.3f,%4.3f,%4.3f", float32(op[0].X)/64, float32(op[0].Y)/64,
				float32(op[1].X)/64, float32(op[1].Y)/64, float32(op[2].X)/64, float32(op[2].Y)/64)
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

func (p Path) String() string { return p.ToSVGPath() }

// Clear zeros the path slice, keeping the allocation.
func (p *Path) Clear() {
	*p = (*p)[:0]
}

// Start starts a new subpath at the given point.
func (p *Path) Start(a fixed.Point26_6) {
	*p = append(*p, MoveTo{a.X, a.Y})
}

// Line adds a linear segment.
func (p *Path) Line(b fixed.Point26_6) {
	*p = append(*p, LineTo{b.X, b.Y})
}

// QuadBezier adds a quadratic segment.
func (p *Path) QuadBezier(b, c fixed.Point26_6) {
	*p = append(*p, QuadTo{b, c})
}

// CubeBezier adds a cubic segment.
func (p *Path) CubeBezier(b, c, d fixed.Point26_6) {
	*p = append(*p, CubicTo{b, c, d})
}

// Stop ends the current subpath, closing it when closeLoop is set.
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}

// matrixAdder transforms incoming points before appending them to the path;
// shape builders use it to bake rotation into the emitted operations.
type matrixAdder struct {
	M    Matrix2D
	path *Path
}

func (q *matrixAdder) Start(a fixed.Point26_6) {
	q.path.Start(q.M.trans(a))
}

func (q *matrixAdder) Line(b fixed.Point26_6) {
	q.path.Line(q.M.trans(b))
}

func (q *matrixAdder) QuadBezier(b, c fixed.Point26_6) {
	q.path.QuadBezier(q.M.trans(b), q.M.trans(c))
}

func (q *matrixAdder) CubeBezier(b, c, d fixed.Point26_6) {
	q.path.CubeBezier(q.M.trans(b), q.M.trans(c), q.M.trans(d))
}

func (q *matrixAdder) Stop(closeLoop bool) {
	q.path.Stop(closeLoop)
}

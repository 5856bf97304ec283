package svgpath

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// This file compiles SVG path data (the `d` attribute) into a Path.

var errParamMismatch = errors.New("parameter count mismatch")

// curveCommands are the path data commands the manufacturing format cannot
// express natively.
const curveCommands = "AaCcQqSsTt"

// ContainsCurve reports whether the path data holds any curve command.
func ContainsCurve(d string) bool {
	return strings.ContainsAny(d, curveCommands)
}

// CloseCount returns the number of close-subpath commands in the path data.
func CloseCount(d string) int {
	return strings.Count(d, "z") + strings.Count(d, "Z")
}

// pathCursor accumulates the current position and reflection state while
// compiling path data.
type pathCursor struct {
	path                   Path
	placeX, placeY         float64
	cntlPtX, cntlPtY       float64
	pathStartX, pathStartY float64
	points                 []float64
	lastKey                byte
	inPath                 bool
}

// CompilePathData builds a Path from SVG path data. Drawing commands before
// the first move, unknown commands and arity errors are reported; numbers
// follow the SVG micro-grammar (implicit separators before '-' and before a
// second '.').
func CompilePathData(d string) (Path, error) {
	c := &pathCursor{lastKey: ' '}
	lastIndex := -1
	for i, r := range d {
		if strings.ContainsRune("MmLlHhVvCcSsQqTtAaZz", r) {
			if lastIndex != -1 {
				if err := c.addSeg(d[lastIndex:i]); err != nil {
					return nil, err
				}
			}
			lastIndex = i
		} else if lastIndex == -1 && !unicode.IsSpace(r) && r != ',' {
			return nil, fmt.Errorf("invalid path data: expected a command, got %q", r)
		}
	}
	if lastIndex != -1 {
		if err := c.addSeg(d[lastIndex:]); err != nil {
			return nil, err
		}
	}
	return c.path, nil
}

// readFloat parses one numeric chunk, splitting at a second decimal point
// ("1.5.6" is two numbers in path data).
func (c *pathCursor) readFloat(numStr string) error {
	last := 0
	isFirst := true
	for i, n := range numStr {
		if n != '.' {
			continue
		}
		if isFirst {
			isFirst = false
			continue
		}
		f, err := strconv.ParseFloat(numStr[last:i], 64)
		if err != nil {
			return err
		}
		c.points = append(c.points, f)
		last = i
	}
	f, err := strconv.ParseFloat(numStr[last:], 64)
	if err != nil {
		return err
	}
	c.points = append(c.points, f)
	return nil
}

// getPoints reads the numbers in the argument list, splitting at separators
// and at a '-' that does not follow an exponent marker.
func (c *pathCursor) getPoints(dataPoints string) error {
	lastIndex := -1
	c.points = c.points[:0]
	lr := ' '
	for i, r := range dataPoints {
		if !unicode.IsNumber(r) && r != '.' && !(r == '-' && lr == 'e') && r != 'e' {
			if lastIndex != -1 {
				if err := c.readFloat(dataPoints[lastIndex:i]); err != nil {
					return err
				}
			}
			if r == '-' {
				lastIndex = i
			} else {
				lastIndex = -1
			}
		} else if lastIndex == -1 {
			lastIndex = i
		}
		lr = r
	}
	if lastIndex != -1 && lastIndex != len(dataPoints) {
		if err := c.readFloat(dataPoints[lastIndex:]); err != nil {
			return err
		}
	}
	return nil
}

// ParsePoints reads a whitespace or comma separated list of numbers, as
// found in points, viewBox and stroke-dasharray attributes.
func ParsePoints(data string) ([]float64, error) {
	c := &pathCursor{}
	if err := c.getPoints(data); err != nil {
		return nil, err
	}
	return c.points, nil
}

// ensureStart opens a subpath at the current position; needed for drawing
// commands that follow a close.
func (c *pathCursor) ensureStart() {
	if !c.inPath {
		c.path.Start(toFixedP(c.placeX, c.placeY))
		c.pathStartX, c.pathStartY = c.placeX, c.placeY
		c.inPath = true
	}
}

// reflectControlQuad returns the reflection of the last quadratic control
// point, or the current position when the previous command was not
// quadratic.
func (c *pathCursor) reflectControlQuad() (x, y float64) {
	switch c.lastKey {
	case 'q', 'Q', 't', 'T':
		return c.placeX*2 - c.cntlPtX, c.placeY*2 - c.cntlPtY
	}
	return c.placeX, c.placeY
}

func (c *pathCursor) reflectControlCube() (x, y float64) {
	switch c.lastKey {
	case 'c', 'C', 's', 'S':
		return c.placeX*2 - c.cntlPtX, c.placeY*2 - c.cntlPtY
	}
	return c.placeX, c.placeY
}

func (c *pathCursor) addSeg(segString string) error {
	if err := c.getPoints(segString[1:]); err != nil {
		return fmt.Errorf("invalid path data %q: %w", segString, err)
	}
	l := len(c.points)
	k := segString[0]
	rel := k >= 'a' && k <= 'z'

	wrong := func() error {
		return fmt.Errorf("invalid path data %q: %w", segString, errParamMismatch)
	}

	if !c.inPath && k != 'M' && k != 'm' && k != 'Z' && k != 'z' && c.lastKey == ' ' {
		return fmt.Errorf("invalid path data: %q before any moveto", k)
	}

	switch k {
	case 'Z', 'z':
		if l != 0 {
			return wrong()
		}
		if c.inPath {
			c.path.Stop(true)
			c.placeX, c.placeY = c.pathStartX, c.pathStartY
			c.inPath = false
		}
	case 'M', 'm':
		if l%2 != 0 || l < 2 {
			return wrong()
		}
		if rel {
			c.placeX += c.points[0]
			c.placeY += c.points[1]
		} else {
			c.placeX, c.placeY = c.points[0], c.points[1]
		}
		c.pathStartX, c.pathStartY = c.placeX, c.placeY
		c.inPath = true
		c.path.Start(toFixedP(c.placeX, c.placeY))
		for i := 2; i < l; i += 2 { // extra pairs are implicit linetos
			c.lineTo(rel, c.points[i], c.points[i+1])
		}
	case 'L', 'l':
		if l%2 != 0 || l < 2 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i += 2 {
			c.lineTo(rel, c.points[i], c.points[i+1])
		}
	case 'H', 'h':
		if l < 1 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i++ {
			if rel {
				c.lineTo(false, c.placeX+c.points[i], c.placeY)
			} else {
				c.lineTo(false, c.points[i], c.placeY)
			}
		}
	case 'V', 'v':
		if l < 1 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i++ {
			if rel {
				c.lineTo(false, c.placeX, c.placeY+c.points[i])
			} else {
				c.lineTo(false, c.placeX, c.points[i])
			}
		}
	case 'C', 'c':
		if l%6 != 0 || l < 6 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i += 6 {
			if rel {
				for j := 0; j < 6; j += 2 {
					c.points[i+j] += c.placeX
					c.points[i+j+1] += c.placeY
				}
			}
			c.path.CubeBezier(
				toFixedP(c.points[i], c.points[i+1]),
				toFixedP(c.points[i+2], c.points[i+3]),
				toFixedP(c.points[i+4], c.points[i+5]))
			c.cntlPtX, c.cntlPtY = c.points[i+2], c.points[i+3]
			c.placeX, c.placeY = c.points[i+4], c.points[i+5]
			c.lastKey = k
		}
	case 'S', 's':
		if l%4 != 0 || l < 4 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i += 4 {
			if rel {
				for j := 0; j < 4; j += 2 {
					c.points[i+j] += c.placeX
					c.points[i+j+1] += c.placeY
				}
			}
			rx, ry := c.reflectControlCube()
			c.path.CubeBezier(
				toFixedP(rx, ry),
				toFixedP(c.points[i], c.points[i+1]),
				toFixedP(c.points[i+2], c.points[i+3]))
			c.cntlPtX, c.cntlPtY = c.points[i], c.points[i+1]
			c.placeX, c.placeY = c.points[i+2], c.points[i+3]
			c.lastKey = k
		}
	case 'Q', 'q':
		if l%4 != 0 || l < 4 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i += 4 {
			if rel {
				for j := 0; j < 4; j += 2 {
					c.points[i+j] += c.placeX
					c.points[i+j+1] += c.placeY
				}
			}
			c.path.QuadBezier(
				toFixedP(c.points[i], c.points[i+1]),
				toFixedP(c.points[i+2], c.points[i+3]))
			c.cntlPtX, c.cntlPtY = c.points[i], c.points[i+1]
			c.placeX, c.placeY = c.points[i+2], c.points[i+3]
			c.lastKey = k
		}
	case 'T', 't':
		if l%2 != 0 || l < 2 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i += 2 {
			if rel {
				c.points[i] += c.placeX
				c.points[i+1] += c.placeY
			}
			rx, ry := c.reflectControlQuad()
			c.path.QuadBezier(
				toFixedP(rx, ry),
				toFixedP(c.points[i], c.points[i+1]))
			c.cntlPtX, c.cntlPtY = rx, ry
			c.placeX, c.placeY = c.points[i], c.points[i+1]
			c.lastKey = k
		}
	case 'A', 'a':
		if l%7 != 0 || l < 7 {
			return wrong()
		}
		c.ensureStart()
		for i := 0; i < l; i += 7 {
			if rel {
				c.points[i+5] += c.placeX
				c.points[i+6] += c.placeY
			}
			c.addArcFromA(c.points[i : i+7])
		}
	default:
		return fmt.Errorf("invalid path data: unknown command %q", k)
	}
	c.lastKey = k
	return nil
}

func (c *pathCursor) lineTo(rel bool, x, y float64) {
	if rel {
		x += c.placeX
		y += c.placeY
	}
	c.path.Line(toFixedP(x, y))
	c.placeX, c.placeY = x, y
}

// addArcFromA resolves the ellipse center for an A command and adds the arc.
func (c *pathCursor) addArcFromA(points []float64) {
	ra, rb := points[0], points[1]
	cx, cy := findEllipseCenter(&ra, &rb, points[2]*math.Pi/180, c.placeX, c.placeY,
		points[5], points[6], points[4] == 0, points[3] == 0)
	points[0], points[1] = ra, rb
	c.placeX, c.placeY = c.path.addArc(points, cx, cy, c.placeX, c.placeY)
}

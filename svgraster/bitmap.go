package svgraster

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// Pixel values of a Bitmap. The raster starts white; drawn ink is black.
const (
	White uint8 = 0xff
	Black uint8 = 0x00
)

// Bitmap is a monochrome raster, one byte per pixel.
type Bitmap struct {
	width, height int
	pix           []uint8
}

// NewBitmap creates a bitmap of the given dimensions, filled white.
func NewBitmap(width, height int) *Bitmap {
	pix := make([]uint8, width*height)
	for i := range pix {
		pix[i] = White
	}
	return &Bitmap{width: width, height: height, pix: pix}
}

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// At returns the pixel at (x, y). Coordinates outside the bitmap read white.
func (b *Bitmap) At(x, y int) uint8 {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return White
	}
	return b.pix[y*b.width+x]
}

// Set writes the pixel at (x, y); out-of-range coordinates are ignored.
func (b *Bitmap) Set(x, y int, v uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	b.pix[y*b.width+x] = v
}

// Invert flips every pixel, turning ink white on a black background.
func (b *Bitmap) Invert() {
	for i, v := range b.pix {
		b.pix[i] = ^v
	}
}

// Hash returns a content hash of the raw pixels, used to detect whether two
// renders of the same document produced identical output.
func (b *Bitmap) Hash() string {
	sum := md5.Sum(b.pix)
	return hex.EncodeToString(sum[:])
}

// ApplyClip forces every pixel that carries ink in the clip to black.
// Applied to an inverted bitmap (where ink reads white), this erases the
// clipped ink.
func (b *Bitmap) ApplyClip(clip *Bitmap) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if clip.At(x, y) != White {
				b.Set(x, y, Black)
			}
		}
	}
}

// Collide reports whether any pixel in the region [x1,x2)×[y1,y2) is
// non-white in both bitmaps.
func Collide(a, b *Bitmap, x1, y1, x2, y2 int) bool {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if a.At(x, y) == White {
				continue
			}
			if b.At(x, y) == White {
				continue
			}
			return true
		}
	}
	return false
}

// TracePath converts the bitmap's white runs back into vector form: each
// maximal horizontal run of white pixels on a row becomes one straight
// segment of a stroked path, centered on the run with a half-unit offset.
// Runs are emitted as `M<start>,<y>L<end>,<y>` where end is the run's last
// white pixel; ten segments per output line. The result is a complete
// <path> element.
func TracePath(b *Bitmap, unit float64, color string) string {
	halfUnit := unit / 2
	var paths strings.Builder
	lineCount := 0
	emit := func(start, end, y int) {
		paths.WriteString("M" + coord(float64(start)+halfUnit) + "," + coord(float64(y)+halfUnit) +
			"L" + coord(float64(end)+halfUnit) + "," + coord(float64(y)+halfUnit) + " ")
		lineCount++
		if lineCount == 10 {
			lineCount = 0
			paths.WriteString("\n")
		}
	}
	for y := 0; y < b.height; y++ {
		inWhite := false
		whiteStart := 0
		for x := 0; x < b.width; x++ {
			if inWhite {
				if b.At(x, y) == White {
					continue
				}
				// got ink: close up this run
				inWhite = false
				emit(whiteStart, x-1, y)
			} else {
				if b.At(x, y) != White {
					continue
				}
				inWhite = true
				whiteStart = x
			}
		}
		if inWhite {
			emit(whiteStart, b.width-1, y)
		}
	}

	return "<path fill='none' stroke='" + color + "' stroke-width='" + coord(unit) +
		"' stroke-linecap='square' d='" + paths.String() + "' />\n"
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Package imaging decodes page images, measures their physical quality and
// applies enhancement filters ahead of recognition.
package imaging

import (
	"image"
	"image/color"
)

// grayBuffer is a row-major float plane of 8-bit intensities.
type grayBuffer struct {
	w, h int
	pix  []float64
}

func newGrayBuffer(w, h int) *grayBuffer {
	return &grayBuffer{w: w, h: h, pix: make([]float64, w*h)}
}

func (g *grayBuffer) at(x, y int) float64 {
	return g.pix[reflect101(y, g.h)*g.w+reflect101(x, g.w)]
}

func (g *grayBuffer) set(x, y int, v float64) {
	g.pix[y*g.w+x] = v
}

func (g *grayBuffer) clone() *grayBuffer {
	out := newGrayBuffer(g.w, g.h)
	copy(out.pix, g.pix)
	return out
}

// reflect101 mirrors an out-of-range index without repeating the edge pixel.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// toGrayBuffer converts any image to luma intensities.
func toGrayBuffer(img image.Image) *grayBuffer {
	b := img.Bounds()
	g := newGrayBuffer(b.Dx(), b.Dy())
	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < g.h; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X):]
			for x := 0; x < g.w; x++ {
				g.pix[y*g.w+x] = float64(row[x])
			}
		}
		return g
	}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			g.pix[y*g.w+x] = float64(c.Y)
		}
	}
	return g
}

// toImage rounds the buffer into an 8-bit gray image.
func (g *grayBuffer) toImage() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.w, g.h))
	for i, v := range g.pix {
		out.Pix[i] = clampByte(v)
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

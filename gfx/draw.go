// Package gfx contains the raster primitives used to paint video frames.
// Coordinates outside the frame are clipped, never wrapped.
package gfx

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face is the bitmap font used for labels.
var Face = basicfont.Face7x13

// NewFrame allocates a frame of the given logical size.
func NewFrame(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Pixel sets a single pixel.
func Pixel(img *image.RGBA, x, y int, c RGB) {
	if !(image.Point{x, y}.In(img.Rect)) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i+0] = c[0]
	img.Pix[i+1] = c[1]
	img.Pix[i+2] = c[2]
	img.Pix[i+3] = 0xff
}

// Rect fills [x1, x2) x [y1, y2).
func Rect(img *image.RGBA, x1, y1, x2, y2 int, c RGB) {
	r := image.Rect(x1, y1, x2, y2)
	if x2 <= x1 || y2 <= y1 {
		return
	}
	draw.Draw(img, r, image.NewUniform(c.Color()), image.Point{}, draw.Src)
}

// RectGradient fills [x1, x2) x [y1, y2) with bands that darken towards the
// bottom. Every third row one channel steps down by one, cycling red, green,
// blue, until it reaches zero.
func RectGradient(img *image.RGBA, x1, y1, x2, y2 int, c RGB) {
	band := c
	step := 0
	for y := y1; y < y2; y++ {
		Rect(img, x1, y, x2, y+1, band)
		if (y-y1)%3 == 2 {
			if ch := step % 3; band[ch] > 0 {
				band[ch]--
			}
			step++
		}
	}
}

// Text draws s with its top left corner at (x, y).
func Text(img *image.RGBA, x, y int, s string, c RGB) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.Color()),
		Face: Face,
		Dot:  fixed.P(x, y+Face.Ascent),
	}
	d.DrawString(s)
}

// TextWidth is the advance of s in pixels.
func TextWidth(s string) int {
	return font.MeasureString(Face, s).Ceil()
}

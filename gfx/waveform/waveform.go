// Package waveform turns one frame of 8-bit samples into an oscilloscope
// style trace.
package waveform

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/peragwin/multitrack/audio/util"
	"github.com/peragwin/multitrack/gfx"
)

const (
	// EdgeThreshold is the drop between neighbouring samples that marks a
	// falling edge.
	EdgeThreshold = 8
	// SearchDivisor limits the edge search to the first 1/SearchDivisor of a
	// frame.
	SearchDivisor = 15
)

// Style controls how a channel cell is painted.
type Style struct {
	Name      string
	Colour    gfx.RGB
	Gradient  bool
	Alignment bool
}

// Align returns the index of the first falling edge in the search window, or
// 0 when there is none. Starting every frame on a falling edge keeps periodic
// signals from jittering sideways.
func Align(raw []byte) int {
	limit := len(raw) / SearchDivisor
	for x := 0; x < limit && x+1 < len(raw); x++ {
		if int(raw[x])-int(raw[x+1]) >= EdgeThreshold {
			return x
		}
	}
	return 0
}

// Span is the number of raw samples mapped across the cell. With alignment
// the search window is excluded so every frame covers the same time.
func Span(n int, aligned bool) int {
	if aligned {
		return n - n/SearchDivisor
	}
	return n
}

// Resample linearly interpolates raw[offset:offset+span] onto width columns.
func Resample(raw []byte, width, offset, span int) []byte {
	out := make([]byte, max(width, 0))
	if len(raw) == 0 || width <= 0 {
		return out
	}
	last := len(raw) - 1

	util.ParallelFor(width, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			pos := float32(i*span) / float32(width)
			low := math32.Floor(pos)
			t := pos - low

			il := min(offset+int(low), last)
			ih := min(offset+int(math32.Ceil(pos)), last)

			v := (1-t)*float32(raw[il]) + t*float32(raw[ih])
			out[i] = byte(v)
		}
	})
	return out
}

// Draw paints a channel cell: background, label and the trace of raw. It
// returns the resampled columns.
func Draw(img *image.RGBA, cell image.Rectangle, style Style, raw []byte) []byte {
	x0, y0 := cell.Min.X, cell.Min.Y
	w, h := cell.Dx(), cell.Dy()

	// separators
	gfx.Rect(img, x0, y0+h-1, x0+w, y0+h, gfx.Black)
	gfx.Rect(img, x0+w-1, y0, x0+w, y0+h, gfx.Black)

	if style.Gradient {
		gfx.RectGradient(img, x0, y0, x0+w-1, y0+h-1, style.Colour)
	} else {
		gfx.Rect(img, x0, y0, x0+w-1, y0+h-1, style.Colour)
	}

	gfx.Text(img, x0+4, y0+4, style.Name, gfx.White)

	offset := 0
	if style.Alignment {
		offset = Align(raw)
	}
	samples := Resample(raw, w, offset, Span(len(raw), style.Alignment))

	for x := 1; x < len(samples); x++ {
		prev := int(samples[x-1]) * h / 256
		cur := int(samples[x]) * h / 256
		// always fill downwards
		if prev > cur {
			prev, cur = cur, prev
		}
		gfx.Rect(img, x0+x-1, y0+prev, x0+x, y0+cur, gfx.White)
		gfx.Pixel(img, x0+x-1, y0+cur, gfx.White)
	}
	return samples
}

// Package video turns rendered frames into an output stream.
package video

import (
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/peragwin/multitrack/audio/util"
	"github.com/peragwin/multitrack/config"
)

// ErrFlushed is returned when the encoder is used after Flush.
var ErrFlushed = errors.New("encoder already flushed")

// Encoder upscales logical frames to the output size, packs them as rgb24
// and hands them to a Sink with a steadily advancing timestamp.
type Encoder struct {
	win  config.Window
	sink Sink

	scaled *image.RGBA
	rgb    []byte

	pts     time.Duration
	step    time.Duration
	frames  int
	flushed bool
}

// NewEncoder creates an encoder for frames of the window's logical size.
func NewEncoder(win config.Window, sink Sink) *Encoder {
	e := &Encoder{
		win:  win,
		sink: sink,
		rgb:  make([]byte, 3*win.OutputWidth()*win.OutputHeight()),
		step: win.FrameDuration(),
	}
	if win.Scale > 1 {
		e.scaled = image.NewRGBA(image.Rect(0, 0, win.OutputWidth(), win.OutputHeight()))
	}
	return e
}

// Open creates the sink registered as driver writing to path and wraps it in
// an encoder.
func Open(driver, path string, win config.Window) (*Encoder, error) {
	sink, err := NewSink(driver, path, win)
	if err != nil {
		return nil, err
	}
	return NewEncoder(win, sink), nil
}

// RenderFrame encodes frame at the next timestamp.
func (e *Encoder) RenderFrame(frame *image.RGBA) error {
	if e.flushed {
		return ErrFlushed
	}
	if frame.Rect.Dx() != e.win.Width || frame.Rect.Dy() != e.win.Height {
		return fmt.Errorf("frame is %dx%d, expected %dx%d",
			frame.Rect.Dx(), frame.Rect.Dy(), e.win.Width, e.win.Height)
	}

	src := frame
	if e.scaled != nil {
		draw.NearestNeighbor.Scale(e.scaled, e.scaled.Rect, frame, frame.Rect, draw.Src, nil)
		src = e.scaled
	}
	packRGB(e.rgb, src)

	if err := e.sink.WriteFrame(e.rgb, e.pts); err != nil {
		return fmt.Errorf("could not write frame %d: %w", e.frames, err)
	}
	e.frames++
	e.pts += e.step
	return nil
}

// PTS is the timestamp the next frame will get.
func (e *Encoder) PTS() time.Duration { return e.pts }

// Frames is the number of frames written.
func (e *Encoder) Frames() int { return e.frames }

// Flush finalizes the output. Only the first call does anything.
func (e *Encoder) Flush() error {
	if e.flushed {
		return ErrFlushed
	}
	e.flushed = true
	return e.sink.Close()
}

// packRGB drops the alpha channel of img into dst, row by row.
func packRGB(dst []byte, img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	util.ParallelFor(h, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+4*w]
			out := dst[3*w*y : 3*w*(y+1)]
			for x := 0; x < w; x++ {
				copy(out[3*x:3*x+3], row[4*x:4*x+3])
			}
		}
	})
}

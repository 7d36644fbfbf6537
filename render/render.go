// Package render drives a frame source into an encoder until the source runs
// out.
package render

import (
	"errors"
	"image"

	"github.com/golang/glog"
)

// ErrEndOfStream is returned by a Source that has no more frames. It ends a
// render normally.
var ErrEndOfStream = errors.New("end of stream")

// Source paints successive frames.
type Source interface {
	// RenderNextFrame paints the next frame into frame and advances the
	// playhead. It returns ErrEndOfStream, leaving frame unspecified, once
	// there is nothing left to draw.
	RenderNextFrame(frame *image.RGBA) error
	// Progress reports how far along the render is, in source defined units.
	Progress() (pos, total uint64)
}

// Encoder consumes frames.
type Encoder interface {
	RenderFrame(frame *image.RGBA) error
	// Flush finalizes the output. It is called exactly once per Run.
	Flush() error
}

// Run renders src into enc one frame at a time, reusing frame for every
// call. The encoder is flushed however the loop ends. Reaching the end of
// the source is not an error.
func Run(src Source, enc Encoder, frame *image.RGBA, progress *Progress) (int, error) {
	if progress != nil {
		progress.Start(src.Progress())
	}

	frames := 0
	for {
		err := src.RenderNextFrame(frame)
		if err == nil {
			err = enc.RenderFrame(frame)
		}
		if progress != nil {
			progress.Update(src.Progress())
		}

		if err != nil {
			flushErr := enc.Flush()
			if progress != nil {
				progress.Finish()
			}
			if errors.Is(err, ErrEndOfStream) {
				glog.Infof("rendered %d frames", frames)
				return frames, flushErr
			}
			if flushErr != nil {
				glog.Errorf("flush after failed render: %v", flushErr)
			}
			return frames, err
		}
		frames++
	}
}

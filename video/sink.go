package video

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/golang/glog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/peragwin/multitrack/config"
)

// Sink receives packed rgb24 frames at the output resolution. pts places the
// frame on the output timeline.
type Sink interface {
	WriteFrame(pix []byte, pts time.Duration) error
	Close() error
}

type sinkFunc func(path string, win config.Window) (Sink, error)

var sinks = map[string]sinkFunc{
	"ffmpeg": newFFmpegSink,
	"png":    newPNGSink,
}

// Drivers lists the registered sink names.
func Drivers() []string {
	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSink creates a sink using the named driver.
func NewSink(driver, path string, win config.Window) (Sink, error) {
	mk, ok := sinks[driver]
	if !ok {
		return nil, errors.New("unknown video driver: " + driver)
	}
	return mk(path, win)
}

// frameSlot is the index of the frame shown at pts.
func frameSlot(pts, step time.Duration) int {
	return int(math.Round(float64(pts) / float64(step)))
}

// ffmpegSink pipes raw frames into an ffmpeg process that encodes H.264 in
// yuv420p. ffmpeg stamps rawvideo input by position, so every frame must
// arrive in its own slot.
type ffmpegSink struct {
	pw   *io.PipeWriter
	done chan error
	step time.Duration
	n    int
}

func newFFmpegSink(path string, win config.Window) (Sink, error) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgb24",
		"s":         fmt.Sprintf("%dx%d", win.OutputWidth(), win.OutputHeight()),
		"framerate": win.FrameRate,
	}).Output(path, ffmpeg.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
	}).OverWriteOutput().WithInput(pr)

	go func() {
		err := stream.Run()
		if err != nil {
			err = fmt.Errorf("ffmpeg: %w", err)
		}
		// unblock any pending write if ffmpeg exits early
		pr.CloseWithError(err)
		done <- err
	}()

	glog.Infof("encoding %dx%d@%d to %s", win.OutputWidth(), win.OutputHeight(), win.FrameRate, path)
	return &ffmpegSink{pw: pw, done: done, step: win.FrameDuration()}, nil
}

func (s *ffmpegSink) WriteFrame(pix []byte, pts time.Duration) error {
	if slot := frameSlot(pts, s.step); slot != s.n {
		return fmt.Errorf("frame at %v would be encoded as frame %d, not %d", pts, s.n, slot)
	}
	if _, err := s.pw.Write(pix); err != nil {
		return err
	}
	s.n++
	return nil
}

func (s *ffmpegSink) Close() error {
	s.pw.Close()
	return <-s.done
}

// pngSink writes every frame as a PNG into a folder, numbered by its slot on
// the timeline.
type pngSink struct {
	dir    string
	width  int
	height int
	step   time.Duration
	n      int
	img    *image.RGBA
}

func newPNGSink(dir string, win config.Window) (Sink, error) {
	if err := clearFolder(dir); err != nil {
		return nil, err
	}
	w, h := win.OutputWidth(), win.OutputHeight()
	return &pngSink{
		dir:    dir,
		width:  w,
		height: h,
		step:   win.FrameDuration(),
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
	}, nil
}

// FrameName is the file name of the n-th PNG frame.
func FrameName(n int) string {
	return fmt.Sprintf("frame_%06d.png", n)
}

func (s *pngSink) WriteFrame(pix []byte, pts time.Duration) error {
	if len(pix) != 3*s.width*s.height {
		return fmt.Errorf("frame has %d bytes, expected %d", len(pix), 3*s.width*s.height)
	}
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		s.img.Pix[j+0] = pix[i+0]
		s.img.Pix[j+1] = pix[i+1]
		s.img.Pix[j+2] = pix[i+2]
		s.img.Pix[j+3] = 0xff
	}

	fp, err := os.Create(filepath.Join(s.dir, FrameName(frameSlot(pts, s.step))))
	if err != nil {
		return err
	}
	if err := png.Encode(fp, s.img); err != nil {
		fp.Close()
		return err
	}
	s.n++
	return fp.Close()
}

func (s *pngSink) Close() error {
	glog.Infof("wrote %d frames to %s", s.n, s.dir)
	return nil
}

// clearFolder creates dir if needed and removes the PNG files in it.
func clearFolder(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	old, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return err
	}
	for _, p := range old {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

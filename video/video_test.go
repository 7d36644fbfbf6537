package video

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peragwin/multitrack/config"
	"github.com/peragwin/multitrack/gfx"
)

type fakeSink struct {
	frames [][]byte
	pts    []time.Duration
	closed int
}

func (s *fakeSink) WriteFrame(pix []byte, pts time.Duration) error {
	s.frames = append(s.frames, append([]byte(nil), pix...))
	s.pts = append(s.pts, pts)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed++
	return nil
}

func TestEncoderScalesAndPacks(t *testing.T) {
	win := config.Window{Width: 3, Height: 2, Scale: 2, FrameRate: 50, DurationSecs: 1}
	sink := &fakeSink{}
	enc := NewEncoder(win, sink)

	frame := gfx.NewFrame(3, 2)
	gfx.Pixel(frame, 0, 0, gfx.RGB{1, 2, 3})
	gfx.Pixel(frame, 2, 1, gfx.RGB{7, 8, 9})

	for i := 0; i < 3; i++ {
		if err := enc.RenderFrame(frame); err != nil {
			t.Fatal(err)
		}
	}

	if len(sink.frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(sink.frames))
	}
	pix := sink.frames[0]
	if len(pix) != 3*6*4 {
		t.Fatalf("expected a 6x4 rgb24 frame, got %d bytes", len(pix))
	}
	at := func(x, y int) gfx.RGB {
		i := 3 * (y*6 + x)
		return gfx.RGB{pix[i], pix[i+1], pix[i+2]}
	}
	for _, p := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		if at(p[0], p[1]) != (gfx.RGB{1, 2, 3}) {
			t.Fatalf("pixel %v not replicated", p)
		}
	}
	if at(5, 3) != (gfx.RGB{7, 8, 9}) || at(4, 2) != (gfx.RGB{7, 8, 9}) {
		t.Fatal("bottom right pixel not replicated")
	}
	if at(2, 0) != gfx.Black {
		t.Fatal("unexpected colour bleed")
	}

	for i, pts := range sink.pts {
		if pts != time.Duration(i)*20*time.Millisecond {
			t.Fatalf("frame %d at %v", i, pts)
		}
	}
	if enc.PTS() != 60*time.Millisecond || enc.Frames() != 3 {
		t.Fatalf("unexpected state pts=%v frames=%d", enc.PTS(), enc.Frames())
	}
}

func TestEncoderFlushOnce(t *testing.T) {
	win := config.Window{Width: 2, Height: 2, Scale: 1, FrameRate: 30, DurationSecs: 1}
	sink := &fakeSink{}
	enc := NewEncoder(win, sink)

	if err := enc.RenderFrame(gfx.NewFrame(4, 4)); err == nil {
		t.Fatal("expected a size mismatch error")
	}
	if err := enc.RenderFrame(gfx.NewFrame(2, 2)); err != nil {
		t.Fatal(err)
	}
	if len(sink.frames[0]) != 12 {
		t.Fatalf("unscaled frame has %d bytes", len(sink.frames[0]))
	}

	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); !errors.Is(err, ErrFlushed) {
		t.Fatalf("expected second flush to fail, got %v", err)
	}
	if err := enc.RenderFrame(gfx.NewFrame(2, 2)); !errors.Is(err, ErrFlushed) {
		t.Fatalf("expected render after flush to fail, got %v", err)
	}
	if sink.closed != 1 {
		t.Fatalf("sink closed %d times", sink.closed)
	}
}

func TestPNGSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale.png")
	keep := filepath.Join(dir, "notes.txt")
	for _, p := range []string{stale, keep} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	win := config.Window{Width: 4, Height: 2, Scale: 1, FrameRate: 30, DurationSecs: 1}
	enc, err := Open("png", dir, win)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale png was not cleared")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatal("non png file was removed")
	}

	frame := gfx.NewFrame(4, 2)
	if err := enc.RenderFrame(frame); err != nil {
		t.Fatal(err)
	}
	gfx.Rect(frame, 0, 0, 4, 2, gfx.RGB{200, 100, 50})
	if err := enc.RenderFrame(frame); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	fp, err := os.Open(filepath.Join(dir, FrameName(1)))
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	img, err := png.Decode(fp)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(3, 1).RGBA()
	if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
		t.Fatalf("unexpected pixel %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestUnknownDriver(t *testing.T) {
	if _, err := NewSink("gif", "out.gif", config.Presets["16x9"]); err == nil {
		t.Fatal("expected an unknown driver error")
	}
	if len(Drivers()) != 2 {
		t.Fatalf("unexpected drivers %v", Drivers())
	}
}

func TestFrameSlot(t *testing.T) {
	step := config.Window{FrameRate: 30}.FrameDuration()
	for _, n := range []int{0, 1, 29, 30, 9000} {
		if got := frameSlot(time.Duration(n)*step, step); got != n {
			t.Errorf("frame %d: got slot %d", n, got)
		}
	}
}

func TestPNGSinkPlacesFramesByTimestamp(t *testing.T) {
	dir := t.TempDir()
	win := config.Window{Width: 2, Height: 1, Scale: 1, FrameRate: 25, DurationSecs: 1}
	sink, err := NewSink("png", dir, win)
	if err != nil {
		t.Fatal(err)
	}
	pix := make([]byte, 3*2)
	if err := sink.WriteFrame(pix, 0); err != nil {
		t.Fatal(err)
	}
	if err := sink.WriteFrame(pix, 2*win.FrameDuration()); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	for n, want := range []bool{true, false, true} {
		_, err := os.Stat(filepath.Join(dir, FrameName(n)))
		if got := err == nil; got != want {
			t.Errorf("frame %d: expected present=%v, stat error %v", n, want, err)
		}
	}
}

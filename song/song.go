// Package song renders a set of audio files as a grid of waveforms.
package song

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/golang/glog"

	"github.com/peragwin/multitrack/audio"
	"github.com/peragwin/multitrack/config"
	"github.com/peragwin/multitrack/gfx"
	"github.com/peragwin/multitrack/gfx/grid"
	"github.com/peragwin/multitrack/gfx/waveform"
	"github.com/peragwin/multitrack/lyrics"
	"github.com/peragwin/multitrack/render"
)

// Channel is a configured channel with its decoder attached.
type Channel struct {
	config.Channel
	Stream *audio.Stream
}

// Song owns its channels for the lifetime of a render.
type Song struct {
	Channels []*Channel

	grid      *grid.Grid
	gradients bool
	lyrics    *lyrics.Lyrics
	width     int
	height    int
}

// Load opens every channel of cfg for rendering into win.
func Load(cfg *config.Song, win config.Window) (*Song, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Song{
		grid:      grid.New(win.Width, win.Height, len(cfg.Channels)),
		gradients: cfg.UseGradients,
		width:     win.Width,
		height:    win.Height,
	}
	for _, c := range cfg.Channels {
		stream, err := audio.OpenStream(c.File, win.FrameRate)
		if err != nil {
			s.Close()
			return nil, err
		}
		glog.Infof("loaded %q: %d samples at %dHz, %d per frame",
			c.Name, stream.Total(), stream.SampleRate(), stream.MinRequired())
		s.Channels = append(s.Channels, &Channel{Channel: c, Stream: stream})
	}

	if cfg.LyricsFile != "" {
		l, err := lyrics.Load(cfg.LyricsFile)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.lyrics = l
	}
	return s, nil
}

// Table lists the channels and their files.
func (s *Song) Table() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%-16s %s\n", "Channel Name", "Filename")
	for _, c := range s.Channels {
		fmt.Fprintf(b, "%-16s %s\n", DisplayName(c.Name), c.File)
	}
	return b.String()
}

// DisplayName shortens names that do not fit the table column.
func DisplayName(name string) string {
	if len(name) > 16 {
		return name[:13] + "..."
	}
	return name
}

// RenderNextFrame draws one frame of every channel. It stops at the first
// channel that runs out of audio.
func (s *Song) RenderNextFrame(frame *image.RGBA) error {
	var t float64
	if len(s.Channels) > 0 {
		first := s.Channels[0].Stream
		t = float64(first.Played()) / float64(first.SampleRate())
	}

	for i, c := range s.Channels {
		samples, err := c.Stream.FrameSamples()
		if errors.Is(err, audio.ErrEndOfStream) {
			return render.ErrEndOfStream
		}
		if err != nil {
			return fmt.Errorf("error rendering %q: %w", c.File, err)
		}

		waveform.Draw(frame, s.grid.Cell(i), waveform.Style{
			Name:      c.Name,
			Colour:    c.Colour,
			Gradient:  s.gradients,
			Alignment: c.UseAlignment,
		}, samples)
	}

	if s.lyrics != nil {
		s.drawLyric(frame, s.lyrics.FindLine(t))
	}
	return nil
}

func (s *Song) drawLyric(frame *image.RGBA, line string) {
	if line == "" {
		return
	}
	x := (s.width - gfx.TextWidth(line)) / 2
	y := s.height - gfx.Face.Height - 8
	gfx.Text(frame, x+1, y+1, line, gfx.Black)
	gfx.Text(frame, x, y, line, gfx.White)
}

// Progress is measured in samples of the first channel.
func (s *Song) Progress() (pos, total uint64) {
	if len(s.Channels) == 0 {
		return 0, 0
	}
	first := s.Channels[0].Stream
	return first.Played(), first.Total()
}

// Close releases every opened channel.
func (s *Song) Close() error {
	var errs []error
	for _, c := range s.Channels {
		if err := c.Stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

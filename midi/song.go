// Package midi renders a standard MIDI file as a scrolling piano roll.
package midi

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/glog"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/peragwin/multitrack/config"
	"github.com/peragwin/multitrack/gfx"
)

// DefaultTempo is the MIDI default of 120 bpm, in microseconds per quarter
// note.
const DefaultTempo = 500000

// DefaultColour is used for tracks the config does not mention.
var DefaultColour = gfx.RGB{24, 24, 24}

// ErrNoNotes is returned when no visible track contains a note.
var ErrNoNotes = errors.New("no visible tracks with notes")

// Note is a single key press in absolute ticks. Off is 0 while the note is
// still held.
type Note struct {
	On  uint32
	Off uint32
	Key uint8
}

// Open reports whether the note never received a note-off.
func (n Note) Open() bool { return n.Off == 0 }

// Channel is one track of the file.
type Channel struct {
	Name    string
	NoteMin uint8
	NoteMax uint8
	Colour  gfx.RGB
	Notes   []Note
}

func newChannel() *Channel {
	return &Channel{NoteMin: math.MaxUint8, NoteMax: 0, Colour: DefaultColour}
}

func (c *Channel) noteOn(tick uint32, key uint8) {
	if key > c.NoteMax {
		c.NoteMax = key
	}
	if key < c.NoteMin {
		c.NoteMin = key
	}
	c.Notes = append(c.Notes, Note{On: tick, Key: key})
}

// noteOff closes the earliest open note with the same key.
func (c *Channel) noteOff(tick uint32, key uint8) bool {
	for i := range c.Notes {
		if n := &c.Notes[i]; n.Key == key && n.Open() {
			n.Off = tick
			return true
		}
	}
	return false
}

// Song is a parsed MIDI file plus the playhead of the render.
type Song struct {
	PPQ           uint16
	Tempo         uint32
	UsPerTick     float64
	DurationTicks uint32

	// Channels are the visible tracks in display order.
	Channels []*Channel

	// Playhead is the time at the left edge of the roll, in seconds.
	Playhead     float64
	WindowSecs   float64
	SecsPerFrame float64

	width, height int
	gradients     bool
}

// Load reads the MIDI file named by cfg.
func Load(cfg *config.Midi, win config.Window) (*Song, error) {
	sm, err := smf.ReadFile(cfg.MidiFile)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", cfg.MidiFile, err)
	}
	return FromSMF(sm, cfg, win)
}

// FromSMF builds a song from parsed MIDI data. Tracks become channels; the
// config picks their colour, visibility and order.
func FromSMF(sm *smf.SMF, cfg *config.Midi, win config.Window) (*Song, error) {
	ticks, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v, only metric ticks are supported", sm.TimeFormat)
	}
	if ticks.Resolution() == 0 {
		return nil, errors.New("midi file has a resolution of 0 ticks per quarter note")
	}

	s := &Song{
		PPQ:          ticks.Resolution(),
		Tempo:        DefaultTempo,
		Playhead:     -win.DurationSecs / 2,
		WindowSecs:   win.DurationSecs,
		SecsPerFrame: 1 / float64(win.FrameRate),
		width:        win.Width,
		height:       win.Height,
		gradients:    cfg.UseGradients,
	}

	var all []*Channel
	for _, track := range sm.Tracks {
		all = append(all, s.ingest(track))
	}
	s.UsPerTick = float64(s.Tempo) / float64(s.PPQ)

	s.Channels = arrange(all, cfg.Channels)
	if len(s.Channels) == 0 {
		return nil, ErrNoNotes
	}

	glog.Infof("midi: %d channels, duration %.2fs, %d ticks",
		len(s.Channels), s.Duration(), s.DurationTicks)
	return s, nil
}

// ingest converts one track into a channel, updating the song tempo and
// length as it goes.
func (s *Song) ingest(track smf.Track) *Channel {
	c := newChannel()
	var tick uint32
	var channel, key, velocity uint8
	var bpm float64
	var name string

	for _, ev := range track {
		tick += ev.Delta
		msg := ev.Message

		switch {
		case msg.GetMetaTempo(&bpm):
			if bpm > 0 {
				s.Tempo = uint32(math.Round(60000000 / bpm))
			}
		case msg.GetMetaTrackName(&name):
			if c.Name == "" {
				c.Name = name
			}
		case msg.GetNoteOn(&channel, &key, &velocity):
			if velocity == 0 {
				s.closeNote(c, tick, key)
				continue
			}
			c.noteOn(tick, key)
			s.extend(tick)
		case msg.GetNoteOff(&channel, &key, &velocity):
			s.closeNote(c, tick, key)
		}
	}
	return c
}

func (s *Song) closeNote(c *Channel, tick uint32, key uint8) {
	if !c.noteOff(tick, key) {
		glog.V(2).Infof("midi: %q note-off for key %d at tick %d without a note-on", c.Name, key, tick)
	}
	s.extend(tick)
}

func (s *Song) extend(tick uint32) {
	if tick > s.DurationTicks {
		s.DurationTicks = tick
	}
}

// arrange drops empty and hidden channels, applies configured colours and
// sorts: configured channels first by order then name, the rest by name.
func arrange(all []*Channel, cfg map[string]config.MidiChannel) []*Channel {
	var out []*Channel
	for _, c := range all {
		if len(c.Notes) == 0 {
			continue
		}
		if cc, ok := cfg[c.Name]; ok {
			if !cc.Visible {
				continue
			}
			c.Colour = cc.Colour
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, aok := cfg[out[i].Name]
		b, bok := cfg[out[j].Name]
		switch {
		case aok && bok && a.Order != b.Order:
			return a.Order < b.Order
		case aok != bok:
			return aok
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Duration is the song length in seconds.
func (s *Song) Duration() float64 {
	return float64(s.DurationTicks) * s.UsPerTick / 1e6
}

// Progress counts milliseconds from the moment the first tick enters the
// centre of the roll.
func (s *Song) Progress() (pos, total uint64) {
	half := s.WindowSecs / 2
	p := math.Max(0, (s.Playhead+half)*1000)
	return uint64(p), uint64((s.Duration() + half) * 1000)
}

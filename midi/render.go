package midi

import (
	"image"
	"math"

	"github.com/peragwin/multitrack/gfx"
	"github.com/peragwin/multitrack/render"
)

const (
	// EmphasisTicks is how close to the centre line a note start has to be
	// to be drawn larger.
	EmphasisTicks = 20
	// lanePadding keeps the highest and lowest notes off the lane edges.
	lanePadding = 4
)

// Window is the tick range covered by the roll. Start and End are clamped to
// the song; RawStart and RawEnd are not, so notes slide smoothly in and out
// at the edges.
type Window struct {
	Start, End       uint32
	RawStart, RawEnd int64
}

// Centre is the tick under the middle of the roll.
func (w Window) Centre() float64 {
	return float64(w.RawStart+w.RawEnd) / 2
}

// TickWindow converts the current playhead to ticks.
func (s *Song) TickWindow() Window {
	start := s.Playhead * 1e6 / s.UsPerTick
	end := (s.Playhead + s.WindowSecs) * 1e6 / s.UsPerTick
	last := float64(s.DurationTicks)
	return Window{
		Start:    uint32(clamp(start, 0, last)),
		End:      uint32(clamp(end, 0, last)),
		RawStart: int64(start),
		RawEnd:   int64(end),
	}
}

// NotesInWindow returns the notes of c that overlap [start, end]. Open notes
// last until the end of the song.
func (s *Song) NotesInWindow(c *Channel, start, end uint32) []Note {
	var out []Note
	for _, n := range c.Notes {
		if s.noteEnd(n) >= start && n.On <= end {
			out = append(out, n)
		}
	}
	return out
}

func (s *Song) noteEnd(n Note) uint32 {
	if n.Open() {
		return s.DurationTicks
	}
	return n.Off
}

// RenderNextFrame draws the roll at the current playhead and then advances
// it by one frame.
func (s *Song) RenderNextFrame(frame *image.RGBA) error {
	if s.Playhead >= s.Duration() {
		return render.ErrEndOfStream
	}

	laneHeight := s.height / len(s.Channels)
	win := s.TickWindow()
	for i, c := range s.Channels {
		lane := image.Rect(0, i*laneHeight, s.width, (i+1)*laneHeight)
		s.drawLane(frame, lane, c, win)
	}

	s.Playhead += s.SecsPerFrame
	return nil
}

func (s *Song) drawLane(frame *image.RGBA, lane image.Rectangle, c *Channel, win Window) {
	xMin, yMin := lane.Min.X, lane.Min.Y
	xMax, yMax := lane.Max.X-1, lane.Max.Y-1

	gfx.Rect(frame, xMin, yMax, lane.Max.X, lane.Max.Y, gfx.Black)
	gfx.Rect(frame, xMax, yMin, lane.Max.X, lane.Max.Y, gfx.Black)
	if s.gradients {
		gfx.RectGradient(frame, xMin, yMin, xMax, yMax, c.Colour)
	} else {
		gfx.Rect(frame, xMin, yMin, xMax, yMax, c.Colour)
	}

	mid := win.Centre()
	fxMin, fxMax := float64(xMin), float64(xMax)
	fyMin, fyMax := float64(yMin), float64(yMax)

	for _, n := range s.NotesInWindow(c, win.Start, win.End) {
		off := s.noteEnd(n)
		x1 := math.Floor(lerp(float64(n.On), float64(win.RawStart), float64(win.RawEnd), fxMin, fxMax))
		x2 := math.Floor(lerp(float64(off), float64(win.RawStart), float64(win.RawEnd), fxMin, fxMax))

		var y float64
		if c.NoteMax == c.NoteMin {
			y = math.Floor((fyMin + fyMax) / 2)
		} else {
			y = math.Floor(lerp(float64(n.Key), float64(c.NoteMin), float64(c.NoteMax),
				fyMax-lanePadding, fyMin+lanePadding))
		}

		scale := emphasis(n, off, mid)

		rx1 := int(clamp(x1-scale, fxMin, fxMax-1))
		rx2 := int(clamp(x2+scale, fxMin, fxMax-1))
		ry1 := int(clamp(y-scale, fyMin, fyMax-1))
		ry2 := int(clamp(y+scale+1, fyMin, fyMax-1))

		gfx.Rect(frame, rx1+1, ry1+1, rx2+1, ry2+1, gfx.Black)
		gfx.Rect(frame, rx1, ry1, rx2, ry2, gfx.White)
	}

	gfx.Text(frame, xMin+5, yMin+5, c.Name, gfx.Black)
	gfx.Text(frame, xMin+4, yMin+4, c.Name, gfx.White)
}

// emphasis grows notes that started just before the centre line, and adds
// one more pixel while the note is sounding at the centre.
func emphasis(n Note, off uint32, mid float64) float64 {
	dist := mid - float64(n.On)
	if dist < 0 {
		dist = EmphasisTicks
	}
	scale := math.Max(0, 1-dist/EmphasisTicks)
	if float64(n.On) < mid && float64(off) > mid {
		scale++
	}
	return scale
}

func lerp(v, vMin, vMax, mMin, mMax float64) float64 {
	if vMax == vMin {
		return mMin
	}
	return (v-vMin)/(vMax-vMin)*(mMax-mMin) + mMin
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

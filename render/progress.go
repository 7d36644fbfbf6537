package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	todoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	etaStyle  = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
)

// Progress draws a single line progress bar with an ETA.
type Progress struct {
	out   io.Writer
	width int

	start time.Time
	pos   uint64
	total uint64
	now   func() time.Time
}

// NewProgress creates a bar width cells wide that writes to out.
func NewProgress(out io.Writer, width int) *Progress {
	return &Progress{out: out, width: width, now: time.Now}
}

// Start resets the clock and sets the expected total.
func (p *Progress) Start(pos, total uint64) {
	p.start = p.now()
	p.pos, p.total = pos, total
}

// Update moves the bar and redraws it.
func (p *Progress) Update(pos, total uint64) {
	p.pos, p.total = pos, total
	fmt.Fprint(p.out, "\r"+p.String())
}

// Finish draws the final state and ends the line.
func (p *Progress) Finish() {
	fmt.Fprintln(p.out, "\r"+p.String())
}

// Fraction is the completed share in [0, 1].
func (p *Progress) Fraction() float64 {
	if p.total == 0 {
		return 0
	}
	f := float64(p.pos) / float64(p.total)
	if f > 1 {
		f = 1
	}
	return f
}

// ETA estimates the time left from the average speed so far.
func (p *Progress) ETA() time.Duration {
	f := p.Fraction()
	if f <= 0 {
		return 0
	}
	elapsed := p.now().Sub(p.start)
	return time.Duration(float64(elapsed) * (1 - f) / f).Round(time.Second)
}

func (p *Progress) String() string {
	f := p.Fraction()
	filled := int(f * float64(p.width))
	bar := strings.Repeat("#", filled)
	if filled < p.width {
		bar += ">" + strings.Repeat("-", p.width-filled-1)
	}
	return fmt.Sprintf("%s  [%s%s]  %3d%%  ",
		etaStyle.Render("["+p.ETA().String()+"]"),
		doneStyle.Render(bar[:filled]),
		todoStyle.Render(bar[filled:]),
		int(f*100),
	)
}

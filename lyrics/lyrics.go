// Package lyrics reads LRC files and looks up the line sung at a given time.
package lyrics

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var lineRe = regexp.MustCompile(`^\[(\d\d):(\d\d\.\d\d)\](.*)$`)

// Line is a lyric shown from Start until End, in seconds.
type Line struct {
	Start float64
	End   float64
	Text  string
}

// Lyrics is an ordered list of lines.
type Lyrics struct {
	Lines []Line
}

// Load reads the LRC file at path.
func Load(path string) (*Lyrics, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not load lyrics: %w", err)
	}
	defer fp.Close()
	return Parse(fp)
}

// Parse reads LRC text. Each timestamp ends the line before it; empty
// timestamped lines only end the previous line. Text is trimmed and
// uppercased.
func Parse(r io.Reader) (*Lyrics, error) {
	l := &Lyrics{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := lineRe.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		mins, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", m[0], err)
		}
		secs, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", m[0], err)
		}
		t := mins*60 + secs

		if n := len(l.Lines); n > 0 {
			l.Lines[n-1].End = t
		}
		text := strings.ToUpper(strings.TrimSpace(m[3]))
		if text == "" {
			continue
		}
		l.Lines = append(l.Lines, Line{Start: t, End: math.Inf(1), Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// FindLine returns the text shown at t, or "" between lines.
func (l *Lyrics) FindLine(t float64) string {
	for _, line := range l.Lines {
		if line.Start <= t && t <= line.End {
			return line.Text
		}
	}
	return ""
}

// Package config loads the JSON documents that describe a render: the output
// window, and either an audio song or a MIDI song.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// ErrUnknownPreset is returned for a window preset name that does not exist.
var ErrUnknownPreset = errors.New("unknown window preset")

// Window is the logical canvas and output timing of a render.
type Window struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	Scale     int `json:"scale"`
	FrameRate int `json:"frame_rate"`
	// DurationSecs is the span of time shown across a MIDI piano roll.
	DurationSecs float64 `json:"duration_secs"`
}

// Presets are the built in windows, named by aspect ratio.
var Presets = map[string]Window{
	"16x9": {Width: 480, Height: 270, Scale: 4, FrameRate: 60, DurationSecs: 5},
	"9x16": {Width: 216, Height: 384, Scale: 5, FrameRate: 30, DurationSecs: 3},
	"9x18": {Width: 216, Height: 432, Scale: 5, FrameRate: 30, DurationSecs: 3},
}

// PresetNames lists the preset names in a stable order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset looks up a built in window.
func Preset(name string) (Window, error) {
	w, ok := Presets[name]
	if !ok {
		return Window{}, fmt.Errorf("%w %q, use one of %s",
			ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
	}
	return w, nil
}

// UnmarshalJSON fills in the default duration.
func (w *Window) UnmarshalJSON(data []byte) error {
	type window Window
	v := window{DurationSecs: 5}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*w = Window(v)
	return nil
}

// Validate checks that every dimension is usable.
func (w Window) Validate() error {
	switch {
	case w.Width < 1 || w.Height < 1:
		return fmt.Errorf("window must be at least 1x1, got %dx%d", w.Width, w.Height)
	case w.Scale < 1:
		return fmt.Errorf("window scale must be at least 1, got %d", w.Scale)
	case w.FrameRate < 1:
		return fmt.Errorf("frame rate must be at least 1, got %d", w.FrameRate)
	case w.DurationSecs <= 0:
		return fmt.Errorf("duration_secs must be positive, got %v", w.DurationSecs)
	}
	return nil
}

// OutputWidth is the width of the encoded video.
func (w Window) OutputWidth() int { return w.Width * w.Scale }

// OutputHeight is the height of the encoded video.
func (w Window) OutputHeight() int { return w.Height * w.Scale }

// FrameDuration is the presentation time of a single frame.
func (w Window) FrameDuration() time.Duration {
	return time.Second / time.Duration(w.FrameRate)
}

// LoadWindow reads a window from a JSON file.
func LoadWindow(path string) (Window, error) {
	var w Window
	if err := loadJSON(path, &w); err != nil {
		return Window{}, err
	}
	if err := w.Validate(); err != nil {
		return Window{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// ResolveWindow returns the named preset if one is given, otherwise the
// window file at path.
func ResolveWindow(path, preset string) (Window, error) {
	if preset != "" {
		return Preset(preset)
	}
	return LoadWindow(path)
}

func loadJSON(path string, v interface{}) error {
	fp, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer fp.Close()
	if err := json.NewDecoder(fp).Decode(v); err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	return nil
}

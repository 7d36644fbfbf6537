package config

import (
	"encoding/json"
	"fmt"

	"github.com/peragwin/multitrack/gfx"
)

// MidiChannel styles the track with the matching name.
type MidiChannel struct {
	Order   int     `json:"order"`
	Colour  gfx.RGB `json:"colour"`
	Visible bool    `json:"visible"`
}

// UnmarshalJSON makes channels visible unless hidden explicitly.
func (c *MidiChannel) UnmarshalJSON(data []byte) error {
	type channel MidiChannel
	v := channel{Visible: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = MidiChannel(v)
	return nil
}

// Midi describes a piano roll render of a standard MIDI file.
type Midi struct {
	MidiFile     string                 `json:"midi_file"`
	Channels     map[string]MidiChannel `json:"channels"`
	VideoFileOut string                 `json:"video_file_out"`
	UseGradients bool                   `json:"use_gradients"`
}

// UnmarshalJSON fills in the output path and gradient defaults.
func (m *Midi) UnmarshalJSON(data []byte) error {
	type midi Midi
	v := midi{VideoFileOut: DefaultOutput, UseGradients: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Midi(v)
	return nil
}

// LoadMidi reads a MIDI song file.
func LoadMidi(path string) (*Midi, error) {
	m := new(Midi)
	if err := loadJSON(path, m); err != nil {
		return nil, err
	}
	if m.MidiFile == "" {
		return nil, fmt.Errorf("%s: midi_file is required", path)
	}
	if m.Channels == nil {
		m.Channels = map[string]MidiChannel{}
	}
	return m, nil
}

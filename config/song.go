package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peragwin/multitrack/gfx"
)

// DefaultOutput is the video written when a song does not name one.
const DefaultOutput = "output.mp4"

// ErrNoChannels is returned for a song without any channels.
var ErrNoChannels = errors.New("please provide at least one channel")

// Channel is one audio file drawn as a waveform.
type Channel struct {
	Name string `json:"name"`
	File string `json:"file"`
	// Colour defaults to black.
	Colour       gfx.RGB `json:"colour"`
	UseAlignment bool    `json:"use_alignment"`
}

// UnmarshalJSON turns alignment on unless it is disabled explicitly.
func (c *Channel) UnmarshalJSON(data []byte) error {
	type channel Channel
	v := channel{UseAlignment: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Channel(v)
	return nil
}

// Song is an ordered set of audio channels rendered side by side.
type Song struct {
	Channels     []Channel `json:"channels"`
	VideoFileOut string    `json:"video_file_out"`
	UseGradients bool      `json:"use_gradients"`
	LyricsFile   string    `json:"lyrics_file"`
}

// UnmarshalJSON fills in the output path and gradient defaults.
func (s *Song) UnmarshalJSON(data []byte) error {
	type song Song
	v := song{VideoFileOut: DefaultOutput, UseGradients: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Song(v)
	return nil
}

// Validate checks that the song can be rendered.
func (s *Song) Validate() error {
	if len(s.Channels) == 0 {
		return ErrNoChannels
	}
	for i, c := range s.Channels {
		if c.File == "" {
			return fmt.Errorf("channel %d (%q) has no file", i, c.Name)
		}
	}
	return nil
}

// LoadSong reads and validates a song file.
func LoadSong(path string) (*Song, error) {
	s := new(Song)
	if err := loadJSON(path, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

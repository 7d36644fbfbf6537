package audio

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/peragwin/multitrack/audio/util"
)

// MaxRetries bounds the number of unproductive packet reads a single call to
// FrameSamples may make before giving up.
const MaxRetries = 100

var (
	// ErrEndOfStream is returned once the track has no full frame left. It is
	// sticky: every later call returns it again.
	ErrEndOfStream = errors.New("end of stream")
	// ErrStalled is returned when MaxRetries reads in a row failed to add
	// samples to the backlog.
	ErrStalled = errors.New("decoder stalled")
)

// Stream hands out exactly one video frame's worth of normalized samples per
// call, decoding packets into a backlog as needed.
type Stream struct {
	name   string
	source *Source

	backlog     *util.RingBuffer
	minRequired int
	played      uint64
	total       uint64
	ended       bool
}

// OpenStream loads the track at path and prepares it for rendering at
// frameRate frames per second.
func OpenStream(path string, frameRate int) (*Stream, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewStream(path, src, frameRate)
	if err != nil {
		src.Format.Close()
		return nil, err
	}
	return s, nil
}

// NewStream wraps an opened source. The samples per frame are the integer
// quotient of the sample rate and frameRate; the remainder is dropped.
func NewStream(name string, src *Source, frameRate int) (*Stream, error) {
	if frameRate < 1 {
		return nil, fmt.Errorf("invalid frame rate %d", frameRate)
	}
	minRequired := src.Track.SampleRate / frameRate
	if minRequired < 1 {
		return nil, fmt.Errorf("sample rate %d is too low for %d fps", src.Track.SampleRate, frameRate)
	}

	return &Stream{
		name:        name,
		source:      src,
		backlog:     util.NewRingBuffer(2 * minRequired),
		minRequired: minRequired,
		total:       src.Track.Frames,
	}, nil
}

// MinRequired is the number of samples returned per frame.
func (s *Stream) MinRequired() int { return s.minRequired }

// Played is the number of samples handed out so far.
func (s *Stream) Played() uint64 { return s.played }

// Total is the track length in samples, 0 if the container does not say.
func (s *Stream) Total() uint64 { return s.total }

// SampleRate of the underlying track.
func (s *Stream) SampleRate() int { return s.source.Track.SampleRate }

// Close releases the container.
func (s *Stream) Close() error { return s.source.Format.Close() }

// FrameSamples returns the next MinRequired samples in playback order.
func (s *Stream) FrameSamples() ([]byte, error) {
	if s.ended {
		return nil, ErrEndOfStream
	}
	need := s.minRequired
	if s.total > 0 && s.played+uint64(need) > s.total {
		s.ended = true
		return nil, ErrEndOfStream
	}

	s.backlog.Reserve(need)

	retries := MaxRetries
	for s.backlog.Len() < need {
		if retries == 0 {
			return nil, fmt.Errorf("%s: %w after %d attempts", s.name, ErrStalled, MaxRetries)
		}
		added, err := s.fill()
		if err != nil {
			return nil, err
		}
		if added == 0 {
			retries--
		}
	}

	s.played += uint64(need)
	return s.backlog.Drain(need), nil
}

// fill decodes one packet into the backlog and reports how many samples it
// added.
func (s *Stream) fill() (int, error) {
	p, err := s.source.Format.NextPacket()
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			glog.V(2).Infof("%s: dropping unreadable packet: %v", s.name, err)
			return 0, nil
		}
		if !errors.Is(err, ErrIO) {
			return 0, fmt.Errorf("%s: %w", s.name, err)
		}
		if s.total == 0 || s.played+uint64(s.minRequired) >= s.total {
			s.ended = true
			return 0, ErrEndOfStream
		}
		glog.V(2).Infof("%s: retrying read at sample %d: %v", s.name, s.played, err)
		return 0, nil
	}

	if p.TrackID != s.source.Track.ID {
		glog.Warningf("%s: packet for track %d does not match track %d, skipping",
			s.name, p.TrackID, s.source.Track.ID)
		return 0, nil
	}

	buf, err := s.source.Decoder.Decode(p)
	if err != nil {
		if errors.Is(err, ErrIO) || errors.Is(err, ErrCorrupt) {
			glog.V(2).Infof("%s: dropping packet: %v", s.name, err)
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", s.name, err)
	}

	samples, err := buf.Normalize()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.name, err)
	}
	s.backlog.Push(samples)
	return len(samples), nil
}

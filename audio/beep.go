package audio

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
)

const beepFramesPerPacket = 1024

// beepReader adapts a beep streamer to the packet interface. beep hands out
// float64 stereo frames, which are repacked as pcm_f64le.
type beepReader struct {
	s      beep.StreamSeekCloser
	track  Track
	frames [][2]float64
}

func openFlac(f *os.File) (FormatReader, error) {
	s, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	return newBeepReader(s, format), nil
}

func openVorbis(f *os.File) (FormatReader, error) {
	s, format, err := vorbis.Decode(f)
	if err != nil {
		return nil, err
	}
	return newBeepReader(s, format), nil
}

func newBeepReader(s beep.StreamSeekCloser, format beep.Format) *beepReader {
	var frames uint64
	if n := s.Len(); n > 0 {
		frames = uint64(n)
	}
	return &beepReader{
		s: s,
		track: Track{
			Codec:      "pcm_f64le",
			SampleRate: int(format.SampleRate),
			Channels:   2,
			Frames:     frames,
		},
		frames: make([][2]float64, beepFramesPerPacket),
	}
}

func (r *beepReader) Tracks() []Track { return []Track{r.track} }

func (r *beepReader) NextPacket() (*Packet, error) {
	n, ok := r.s.Stream(r.frames)
	if !ok || n == 0 {
		if err := r.s.Err(); err != nil {
			return nil, err
		}
		return nil, ioError(io.EOF)
	}

	data := make([]byte, n*16)
	for i, frame := range r.frames[:n] {
		binary.LittleEndian.PutUint64(data[i*16:], math.Float64bits(frame[0]))
		binary.LittleEndian.PutUint64(data[i*16+8:], math.Float64bits(frame[1]))
	}
	return &Packet{TrackID: r.track.ID, Data: data}, nil
}

func (r *beepReader) Close() error { return r.s.Close() }

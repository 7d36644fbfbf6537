package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

const mp3BytesPerPacket = 4 * 1152

// mp3Reader pulls decoded frames out of go-mp3, which always produces
// interleaved 16-bit little-endian stereo.
type mp3Reader struct {
	f     *os.File
	dec   io.Reader
	track Track
	buf   []byte
}

func openMp3(f *os.File) (FormatReader, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	var frames uint64
	if n := dec.Length(); n > 0 {
		frames = uint64(n) / 4
	}

	return &mp3Reader{
		f:   f,
		dec: dec,
		track: Track{
			Codec:      "pcm_s16le",
			SampleRate: dec.SampleRate(),
			Channels:   2,
			Frames:     frames,
		},
		buf: make([]byte, mp3BytesPerPacket),
	}, nil
}

func (r *mp3Reader) Tracks() []Track { return []Track{r.track} }

func (r *mp3Reader) NextPacket() (*Packet, error) {
	n, err := io.ReadFull(r.dec, r.buf)
	n -= n % 4
	if n == 0 {
		switch err {
		case nil, io.EOF, io.ErrUnexpectedEOF:
			return nil, ioError(io.EOF)
		}
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	data := make([]byte, n)
	copy(data, r.buf[:n])
	return &Packet{TrackID: r.track.ID, Data: data}, nil
}

func (r *mp3Reader) Close() error { return r.f.Close() }

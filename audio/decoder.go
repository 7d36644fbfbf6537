package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned while opening or decoding a track. ErrIO and ErrCorrupt are
// the transient classes; everything else is fatal to the render.
var (
	ErrIO                      = errors.New("io error")
	ErrCorrupt                 = errors.New("corrupt data")
	ErrUnsupportedFormat       = errors.New("unsupported format")
	ErrNoTrack                 = errors.New("no supported audio tracks")
	ErrUnsupportedCodec        = errors.New("unsupported codec")
	ErrUnsupportedSampleFormat = errors.New("unsupported sample format")
)

// CodecNull marks a track that carries no decodable audio.
const CodecNull = ""

// Track describes one elementary stream of a container.
type Track struct {
	ID         int
	Codec      string
	SampleRate int
	Channels   int
	// Frames is the number of playable samples per channel, 0 when unknown.
	Frames uint64
}

// Packet is one compressed (or raw) chunk of a track as yielded by a FormatReader.
type Packet struct {
	TrackID int
	Data    []byte
}

// FormatReader demuxes a container into packets.
type FormatReader interface {
	Tracks() []Track
	NextPacket() (*Packet, error)
	Close() error
}

// Decoder turns the packets of a single track into samples.
type Decoder interface {
	Decode(p *Packet) (*Buffer, error)
}

type formatOpener func(f *os.File) (FormatReader, error)

type container struct {
	name  string
	exts  []string
	magic func(head []byte) bool
	open  formatOpener
}

var containers = []container{
	{
		name: "wav",
		exts: []string{"wav", "wave"},
		magic: func(h []byte) bool {
			return len(h) >= 12 && string(h[:4]) == "RIFF" && string(h[8:12]) == "WAVE"
		},
		open: openWav,
	},
	{
		name:  "flac",
		exts:  []string{"flac"},
		magic: func(h []byte) bool { return bytes.HasPrefix(h, []byte("fLaC")) },
		open:  openFlac,
	},
	{
		name:  "ogg",
		exts:  []string{"ogg", "oga"},
		magic: func(h []byte) bool { return bytes.HasPrefix(h, []byte("OggS")) },
		open:  openVorbis,
	},
	{
		name: "mp3",
		exts: []string{"mp3"},
		magic: func(h []byte) bool {
			if bytes.HasPrefix(h, []byte("ID3")) {
				return true
			}
			return len(h) >= 2 && h[0] == 0xff && h[1]&0xe0 == 0xe0
		},
		open: openMp3,
	},
}

type codecMaker func(t Track) (Decoder, error)

var codecs = map[string]codecMaker{
	"pcm_u8":    newPCMDecoder(FormatU8, 1),
	"pcm_s16le": newPCMDecoder(FormatS16, 2),
	"pcm_s24le": newPCMDecoder(FormatS24, 3),
	"pcm_s32le": newPCMDecoder(FormatS32, 4),
	"pcm_f32le": newPCMDecoder(FormatF32, 4),
	"pcm_f64le": newPCMDecoder(FormatF64, 8),
}

// Source is an opened track: the container reader, the first decodable track
// and a decoder for it.
type Source struct {
	Format  FormatReader
	Track   Track
	Decoder Decoder
}

// Open probes the file at path from its content, using the extension as a
// hint, and prepares the first track with a decodable codec.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not load track %q: %w", path, err)
	}

	c, err := probe(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not load track %q: %w", path, err)
	}

	format, err := c.open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not load track %q: %w: %v", path, ErrUnsupportedFormat, err)
	}

	src, err := NewSource(format)
	if err != nil {
		format.Close()
		return nil, fmt.Errorf("could not load track %q: %w", path, err)
	}
	return src, nil
}

// NewSource selects the first track of format with a non-null codec and
// constructs its decoder.
func NewSource(format FormatReader) (*Source, error) {
	var track *Track
	for _, t := range format.Tracks() {
		if t.Codec != CodecNull {
			t := t
			track = &t
			break
		}
	}
	if track == nil {
		return nil, ErrNoTrack
	}

	mk, ok := codecs[track.Codec]
	if !ok {
		return nil, fmt.Errorf("%s is an %w", track.Codec, ErrUnsupportedCodec)
	}
	dec, err := mk(*track)
	if err != nil {
		return nil, err
	}
	return &Source{Format: format, Track: *track, Decoder: dec}, nil
}

// probe picks a container by magic bytes first and by extension second. The
// file is rewound before returning.
func probe(f io.ReadSeeker, ext string) (*container, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	hint := strings.ToLower(strings.TrimPrefix(ext, "."))
	// the hinted container wins on an ambiguous header
	for i := range containers {
		c := &containers[i]
		if hasExt(c, hint) && c.magic(head) {
			return c, nil
		}
	}
	for i := range containers {
		if containers[i].magic(head) {
			return &containers[i], nil
		}
	}
	for i := range containers {
		if hasExt(&containers[i], hint) {
			return &containers[i], nil
		}
	}
	return nil, ErrUnsupportedFormat
}

func hasExt(c *container, ext string) bool {
	for _, e := range c.exts {
		if e == ext {
			return true
		}
	}
	return false
}

// ioError marks err as a transient I/O condition.
func ioError(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}

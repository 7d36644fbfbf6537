package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatIEEEFloat  = 0x0003
	wavFormatExtensible = 0xfffe

	wavFramesPerPacket = 1024
)

// wavReader yields the data chunk of a RIFF/WAVE file in fixed size packets.
type wavReader struct {
	f     *os.File
	track Track
	pcm   io.Reader
	buf   []byte
	align int
}

func openWav(f *os.File) (FormatReader, error) {
	format, err := wavFormatTag(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, err
	}
	if d.PCMChunk == nil {
		return nil, errors.New("WAV file has no data chunk")
	}

	channels := int(d.NumChans)
	align := channels * int((d.BitDepth+7)/8)
	if align == 0 {
		return nil, fmt.Errorf("WAV file has %d channels at %d bits", d.NumChans, d.BitDepth)
	}

	track := Track{
		ID:         0,
		Codec:      wavCodec(format, d.BitDepth),
		SampleRate: int(d.SampleRate),
		Channels:   channels,
		Frames:     uint64(d.PCMLen()) / uint64(align),
	}

	return &wavReader{
		f:     f,
		track: track,
		pcm:   io.LimitReader(d.PCMChunk.R, d.PCMLen()),
		buf:   make([]byte, wavFramesPerPacket*align),
		align: align,
	}, nil
}

// wavFormatTag reads the format tag of the fmt chunk. Extensible files are
// resolved to the tag at the front of their SubFormat GUID, which go-audio
// does not parse.
func wavFormatTag(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return 0, err
	}
	hdr := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return 0, fmt.Errorf("WAV file has no fmt chunk: %w", err)
		}
		size := int64(binary.LittleEndian.Uint32(hdr[4:]))
		if string(hdr[:4]) != "fmt " {
			// chunks are padded to an even size
			if _, err := r.Seek(size+size&1, io.SeekCurrent); err != nil {
				return 0, err
			}
			continue
		}

		if size < 16 {
			return 0, fmt.Errorf("WAV fmt chunk is only %d bytes", size)
		}
		body := make([]byte, min(size, 40))
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, fmt.Errorf("WAV fmt chunk is truncated: %w", err)
		}
		tag := binary.LittleEndian.Uint16(body)
		if tag != wavFormatExtensible {
			return tag, nil
		}
		// cbSize, valid bits and channel mask come before the GUID
		if len(body) < 26 {
			return 0, errors.New("WAV extensible fmt chunk has no SubFormat")
		}
		return binary.LittleEndian.Uint16(body[24:]), nil
	}
}

func wavCodec(format, depth uint16) string {
	switch format {
	case wavFormatPCM:
		switch depth {
		case 8:
			return "pcm_u8"
		case 16:
			return "pcm_s16le"
		case 24:
			return "pcm_s24le"
		case 32:
			return "pcm_s32le"
		}
	case wavFormatIEEEFloat:
		switch depth {
		case 32:
			return "pcm_f32le"
		case 64:
			return "pcm_f64le"
		}
	}
	return fmt.Sprintf("wav_0x%04x_%dbit", format, depth)
}

func (r *wavReader) Tracks() []Track { return []Track{r.track} }

func (r *wavReader) NextPacket() (*Packet, error) {
	n, err := io.ReadFull(r.pcm, r.buf)
	n -= n % r.align
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, ioError(err)
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, ioError(err)
	}

	data := make([]byte, n)
	copy(data, r.buf[:n])
	return &Packet{TrackID: r.track.ID, Data: data}, nil
}

func (r *wavReader) Close() error { return r.f.Close() }

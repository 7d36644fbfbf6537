package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// pcmDecoder unpacks interleaved little-endian PCM and keeps channel 0.
type pcmDecoder struct {
	format     SampleFormat
	width      int // bytes per sample
	channels   int
	sampleRate int
}

func newPCMDecoder(format SampleFormat, width int) codecMaker {
	return func(t Track) (Decoder, error) {
		if t.Channels < 1 {
			return nil, fmt.Errorf("%w: track %d has %d channels", ErrUnsupportedCodec, t.ID, t.Channels)
		}
		return &pcmDecoder{
			format:     format,
			width:      width,
			channels:   t.Channels,
			sampleRate: t.SampleRate,
		}, nil
	}
}

func (d *pcmDecoder) Decode(p *Packet) (*Buffer, error) {
	stride := d.width * d.channels
	if len(p.Data)%stride != 0 {
		return nil, fmt.Errorf("%w: packet of %d bytes is not a multiple of %d",
			ErrCorrupt, len(p.Data), stride)
	}
	n := len(p.Data) / stride
	buf := &Buffer{Format: d.format, SampleRate: d.sampleRate}

	switch d.format {
	case FormatU8:
		buf.U8 = make([]uint8, n)
		for i := range buf.U8 {
			buf.U8[i] = p.Data[i*stride]
		}
	case FormatS16:
		buf.S16 = make([]int16, n)
		for i := range buf.S16 {
			buf.S16[i] = int16(binary.LittleEndian.Uint16(p.Data[i*stride:]))
		}
	case FormatS24:
		buf.S32 = make([]int32, n)
		for i := range buf.S32 {
			b := p.Data[i*stride:]
			buf.S32[i] = int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		}
	case FormatS32:
		buf.S32 = make([]int32, n)
		for i := range buf.S32 {
			buf.S32[i] = int32(binary.LittleEndian.Uint32(p.Data[i*stride:]))
		}
	case FormatF32:
		buf.F32 = make([]float32, n)
		for i := range buf.F32 {
			buf.F32[i] = math.Float32frombits(binary.LittleEndian.Uint32(p.Data[i*stride:]))
		}
	case FormatF64:
		buf.F64 = make([]float64, n)
		for i := range buf.F64 {
			buf.F64[i] = math.Float64frombits(binary.LittleEndian.Uint64(p.Data[i*stride:]))
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSampleFormat, d.format)
	}
	return buf, nil
}

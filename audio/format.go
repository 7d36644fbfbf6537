package audio

import (
	"fmt"

	"github.com/peragwin/multitrack/audio/util"
)

// SampleFormat identifies the in-memory representation of decoded samples.
type SampleFormat int

// Supported sample formats
const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS16
	FormatS24
	FormatS32
	FormatF32
	FormatF64
)

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16:
		return "s16"
	case FormatS24:
		return "s24"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	case FormatF64:
		return "f64"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Buffer holds the first channel of one decoded packet. Only the slice that
// matches Format is populated; S24 samples are sign-extended into S32.
type Buffer struct {
	Format     SampleFormat
	SampleRate int

	U8  []uint8
	S16 []int16
	S32 []int32
	F32 []float32
	F64 []float64
}

// Len is the number of samples in the buffer.
func (b *Buffer) Len() int {
	switch b.Format {
	case FormatU8:
		return len(b.U8)
	case FormatS16:
		return len(b.S16)
	case FormatS24, FormatS32:
		return len(b.S32)
	case FormatF32:
		return len(b.F32)
	case FormatF64:
		return len(b.F64)
	}
	return 0
}

// Normalize converts the buffer to unsigned 8-bit amplitudes centred at 128.
func (b *Buffer) Normalize() ([]byte, error) {
	switch b.Format {
	case FormatU8:
		out := make([]byte, len(b.U8))
		copy(out, b.U8)
		return out, nil
	case FormatS16:
		return util.ParallelMap(b.S16, NormalizeS16), nil
	case FormatS24:
		return util.ParallelMap(b.S32, NormalizeS24), nil
	case FormatS32:
		return util.ParallelMap(b.S32, NormalizeS32), nil
	case FormatF32:
		return util.ParallelMap(b.F32, NormalizeF32), nil
	case FormatF64:
		return util.ParallelMap(b.F64, NormalizeF64), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedSampleFormat, b.Format)
}

// NormalizeS16 maps a signed 16-bit sample onto [0, 255].
func NormalizeS16(s int16) byte {
	return byte(int32(s/(1<<8)) + 128)
}

// NormalizeS24 maps a sign-extended 24-bit sample onto [0, 255].
func NormalizeS24(s int32) byte {
	return clampByte(int64(s/(1<<16)) + 128)
}

// NormalizeS32 maps a signed 32-bit sample onto [0, 255].
func NormalizeS32(s int32) byte {
	return byte(s/(1<<24) + 128)
}

// NormalizeF32 maps a sample in [-1, 1] onto [0, 255], saturating outside it.
func NormalizeF32(s float32) byte {
	return NormalizeF64(float64(s))
}

// NormalizeF64 maps a sample in [-1, 1] onto [0, 255], saturating outside it.
func NormalizeF64(s float64) byte {
	v := s*128 + 128
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

func clampByte(v int64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

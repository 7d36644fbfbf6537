package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestProbe(t *testing.T) {
	riff := append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 32)...)
	cases := []struct {
		name string
		head []byte
		ext  string
		want string
	}{
		{"wav magic", riff, ".bin", "wav"},
		{"flac magic", []byte("fLaC\x00\x00\x00\x22"), "", "flac"},
		{"ogg magic", []byte("OggS\x00\x02"), ".mp3", "ogg"},
		{"id3", []byte("ID3\x04\x00"), ".mp3", "mp3"},
		{"mpeg sync", []byte{0xff, 0xfb, 0x90, 0x64}, "", "mp3"},
		{"extension only", []byte("????????????"), ".FLAC", "flac"},
	}
	for _, c := range cases {
		got, err := probe(bytes.NewReader(c.head), c.ext)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if got.name != c.want {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got.name)
		}
	}

	if _, err := probe(bytes.NewReader([]byte("nope")), ".txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestProbeRewinds(t *testing.T) {
	r := bytes.NewReader([]byte("fLaC and then some"))
	if _, err := probe(r, ".flac"); err != nil {
		t.Fatal(err)
	}
	if int64(r.Len()) != r.Size() {
		t.Fatal("probe did not rewind the reader")
	}
}

func TestPCMDecodeFirstChannel(t *testing.T) {
	mk := codecs["pcm_s24le"]
	dec, err := mk(Track{Codec: "pcm_s24le", Channels: 2, SampleRate: 44100})
	if err != nil {
		t.Fatal(err)
	}

	// left: 1, -1, 0x7fffff; right is junk
	data := []byte{
		0x01, 0x00, 0x00, 0xaa, 0xaa, 0xaa,
		0xff, 0xff, 0xff, 0xbb, 0xbb, 0xbb,
		0xff, 0xff, 0x7f, 0xcc, 0xcc, 0xcc,
	}
	buf, err := dec.Decode(&Packet{Data: data})
	if err != nil {
		t.Fatal(err)
	}
	if buf.Format != FormatS24 || buf.SampleRate != 44100 {
		t.Fatalf("unexpected buffer %v at %d", buf.Format, buf.SampleRate)
	}
	want := []int32{1, -1, 0x7fffff}
	if len(buf.S32) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.S32))
	}
	for i := range want {
		if buf.S32[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], buf.S32[i])
		}
	}

	if _, err := dec.Decode(&Packet{Data: data[:7]}); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected a partial frame to be corrupt, got %v", err)
	}
}

func TestNewSourceErrors(t *testing.T) {
	if _, err := NewSource(&fakeFormat{track: Track{ID: 1}}); !errors.Is(err, ErrNoTrack) {
		t.Fatalf("expected no track, got %v", err)
	}
	_, err := NewSource(&fakeFormat{track: Track{ID: 1, Codec: "alac", Channels: 2}})
	if !errors.Is(err, ErrUnsupportedCodec) {
		t.Fatalf("expected unsupported codec, got %v", err)
	}
}

func TestWavCodec(t *testing.T) {
	cases := []struct {
		format, depth uint16
		want          string
	}{
		{wavFormatPCM, 8, "pcm_u8"},
		{wavFormatPCM, 16, "pcm_s16le"},
		{wavFormatPCM, 24, "pcm_s24le"},
		{wavFormatPCM, 32, "pcm_s32le"},
		{wavFormatIEEEFloat, 32, "pcm_f32le"},
		{wavFormatIEEEFloat, 64, "pcm_f64le"},
	}
	for _, c := range cases {
		if got := wavCodec(c.format, c.depth); got != c.want {
			t.Errorf("0x%04x/%d: expected %s, got %s", c.format, c.depth, c.want, got)
		}
	}
	for _, format := range []uint16{0x0055, wavFormatExtensible} {
		if _, ok := codecs[wavCodec(format, 32)]; ok {
			t.Fatalf("0x%04x should not map to a pcm codec", format)
		}
	}
}

func TestOpenWavStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	data := make([]int, 2*3000)
	for i := 0; i < len(data); i += 2 {
		data[i] = -1 << 23
		data[i+1] = 1<<23 - 1
	}
	writeTestWav(t, path, 44100, 24, 2, data)

	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Format.Close()

	if src.Track.Codec != "pcm_s24le" || src.Track.Channels != 2 || src.Track.Frames != 3000 {
		t.Fatalf("unexpected track %+v", src.Track)
	}

	p, err := src.Format.NextPacket()
	if err != nil {
		t.Fatal(err)
	}
	buf, err := src.Decoder.Decode(p)
	if err != nil {
		t.Fatal(err)
	}
	out, err := buf.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d: left channel should be at the floor, got %d", i, v)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.wav")); err == nil {
		t.Fatal("expected an error for a missing file")
	}

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not audio at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func riffChunk(id string, body []byte) []byte {
	b := make([]byte, 8, 9+len(body))
	copy(b, id)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(body)))
	b = append(b, body...)
	if len(body)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func riffWave(chunks ...[]byte) []byte {
	body := []byte("WAVE")
	for _, c := range chunks {
		body = append(body, c...)
	}
	return riffChunk("RIFF", body)
}

func fmtPCM(channels, rate, bits int) []byte {
	b := make([]byte, 16)
	le := binary.LittleEndian
	le.PutUint16(b[0:], wavFormatPCM)
	le.PutUint16(b[2:], uint16(channels))
	le.PutUint32(b[4:], uint32(rate))
	le.PutUint32(b[8:], uint32(rate*channels*bits/8))
	le.PutUint16(b[12:], uint16(channels*bits/8))
	le.PutUint16(b[14:], uint16(bits))
	return b
}

func fmtExtensible(sub uint16, channels, rate, bits int) []byte {
	b := append(fmtPCM(channels, rate, bits), make([]byte, 24)...)
	le := binary.LittleEndian
	le.PutUint16(b[0:], wavFormatExtensible)
	le.PutUint16(b[16:], 22)
	le.PutUint16(b[18:], uint16(bits))
	le.PutUint32(b[20:], 4)
	le.PutUint16(b[24:], sub)
	copy(b[26:], "\x00\x00\x00\x00\x10\x00\x80\x00\x00\xaa\x00\x38\x9b\x71")
	return b
}

func TestWavFormatTag(t *testing.T) {
	junk := riffChunk("JUNK", []byte{1, 2, 3})
	cases := []struct {
		name string
		file []byte
		want uint16
	}{
		{"pcm", riffWave(fmtPCM(1, 8000, 16)), wavFormatPCM},
		{"after junk", riffWave(junk, fmtPCM(1, 8000, 16)), wavFormatPCM},
		{"extensible float", riffWave(fmtExtensible(wavFormatIEEEFloat, 2, 48000, 32)), wavFormatIEEEFloat},
		{"extensible pcm", riffWave(junk, fmtExtensible(wavFormatPCM, 1, 48000, 24)), wavFormatPCM},
	}
	for _, c := range cases {
		got, err := wavFormatTag(bytes.NewReader(c.file))
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: expected 0x%04x, got 0x%04x", c.name, c.want, got)
		}
	}

	short := fmtPCM(1, 8000, 16)
	binary.LittleEndian.PutUint16(short, wavFormatExtensible)
	for _, file := range [][]byte{riffWave(short), riffWave(junk)} {
		if _, err := wavFormatTag(bytes.NewReader(file)); err == nil {
			t.Fatal("expected an error without a usable fmt chunk")
		}
	}
}

func TestOpenWavExtensibleFloat(t *testing.T) {
	cases := []struct {
		bits  int
		codec string
		put   func([]byte, float64)
		want  byte
	}{
		{32, "pcm_f32le", func(b []byte, v float64) {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		}, 192},
		{64, "pcm_f64le", func(b []byte, v float64) {
			binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		}, 192},
	}
	for _, c := range cases {
		const frames = 2048
		size := c.bits / 8
		data := make([]byte, frames*size)
		for i := 0; i < frames; i++ {
			c.put(data[i*size:], 0.5)
		}
		path := filepath.Join(t.TempDir(), "float.wav")
		file := riffWave(fmtExtensible(wavFormatIEEEFloat, 1, 48000, c.bits), riffChunk("data", data))
		if err := os.WriteFile(path, file, 0o644); err != nil {
			t.Fatal(err)
		}

		src, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		if src.Track.Codec != c.codec || src.Track.Frames != frames {
			src.Format.Close()
			t.Fatalf("%d bit: unexpected track %+v", c.bits, src.Track)
		}
		p, err := src.Format.NextPacket()
		if err != nil {
			t.Fatal(err)
		}
		buf, err := src.Decoder.Decode(p)
		if err != nil {
			t.Fatal(err)
		}
		out, err := buf.Normalize()
		if err != nil {
			t.Fatal(err)
		}
		src.Format.Close()
		for i, v := range out {
			if v != c.want {
				t.Fatalf("%d bit: sample %d normalized to %d, expected %d", c.bits, i, v, c.want)
			}
		}
	}
}

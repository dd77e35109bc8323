package whisper

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAV byte stream around the given PCM
// payload, mirroring the layout the transcode stage emits.
func buildWAV(formatTag, channels, bits uint16, sampleRate uint32, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, formatTag)
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	byteRate := sampleRate * uint32(channels) * uint32(bits) / 8
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, channels*bits/8)
	binary.Write(&buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func TestParseWAVMono(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(100)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(-100)))

	wav, err := parseWAV(buildWAV(1, 1, 16, 16000, pcm))
	if err != nil {
		t.Fatalf("parseWAV: %v", err)
	}
	if wav.sampleRate != 16000 {
		t.Errorf("sampleRate = %d, want 16000", wav.sampleRate)
	}
	if wav.channels != 1 {
		t.Errorf("channels = %d, want 1", wav.channels)
	}
	if !bytes.Equal(wav.pcm, pcm) {
		t.Errorf("pcm payload mismatch")
	}
}

func TestParseWAVSkipsForeignChunks(t *testing.T) {
	pcm := make([]byte, 4)
	base := buildWAV(1, 2, 16, 44100, pcm)

	// Splice a LIST chunk (odd size, so padded) between the header and fmt.
	var buf bytes.Buffer
	buf.Write(base[:12])
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(3))
	buf.Write([]byte{'I', 'N', 'F', 0}) // 3 bytes + pad
	buf.Write(base[12:])

	wav, err := parseWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("parseWAV: %v", err)
	}
	if wav.channels != 2 || wav.sampleRate != 44100 {
		t.Errorf("got channels=%d sampleRate=%d, want 2/44100", wav.channels, wav.sampleRate)
	}
}

func TestParseWAVRejectsNonWAV(t *testing.T) {
	cases := map[string][]byte{
		"empty":        nil,
		"not riff":     []byte("OggS this is not a wav file at all, promise."),
		"compressed":   buildWAV(85, 1, 16, 16000, make([]byte, 4)), // MP3 format tag
		"not 16-bit":   buildWAV(1, 1, 8, 16000, make([]byte, 4)),
		"missing data": buildWAV(1, 1, 16, 16000, nil)[:36],
	}
	for name, data := range cases {
		if _, err := parseWAV(data); !errors.Is(err, errNotWAV) {
			t.Errorf("%s: err = %v, want errNotWAV", name, err)
		}
	}
}

func TestPCMToFloat32Mono(t *testing.T) {
	pcm := make([]byte, 6)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(16384)))  // 0.5
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(-32768))) // -1.0
	binary.LittleEndian.PutUint16(pcm[4:], 0)

	got := pcmToFloat32Mono(pcm, 1)
	want := []float32{0.5, -1.0, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestPCMToFloat32MonoDownmixesStereo(t *testing.T) {
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(16384)))  // L: 0.5
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(-16384))) // R: -0.5

	got := pcmToFloat32Mono(pcm, 2)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if math.Abs(float64(got[0])) > 1e-6 {
		t.Errorf("downmixed sample = %f, want 0", got[0])
	}
}

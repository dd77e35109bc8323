package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// wavData describes the PCM payload extracted from a RIFF/WAV container.
type wavData struct {
	sampleRate int
	channels   int
	pcm        []byte
}

// errNotWAV is returned by parseWAV when the input is not a RIFF/WAV file or
// does not carry 16-bit PCM audio.
var errNotWAV = errors.New("not a 16-bit PCM WAV file")

// parseWAV extracts the format fields and raw PCM payload from a RIFF/WAV
// byte stream. Only uncompressed 16-bit PCM (format tag 1) is accepted;
// that is the format the transcode stage produces.
func parseWAV(data []byte) (wavData, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return wavData{}, errNotWAV
	}

	var out wavData
	// Walk the chunk list; "fmt " and "data" may appear in any order and
	// other chunks (LIST, fact) may precede them.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return wavData{}, fmt.Errorf("%w: truncated fmt chunk", errNotWAV)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 || bits != 16 {
				return wavData{}, errNotWAV
			}
			out.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			out.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			out.pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if out.sampleRate == 0 || out.channels == 0 || out.pcm == nil {
		return wavData{}, errNotWAV
	}
	return out, nil
}

// pcmToFloat32Mono converts 16-bit signed little-endian PCM audio to float32
// samples normalised to [-1.0, 1.0], down-mixing multi-channel input to mono
// by averaging all channels per frame. Any trailing odd byte is ignored.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels <= 1 {
		channels = 1
	}
	samplesPerChannel := len(pcm) / (2 * channels)
	mono := make([]float32, samplesPerChannel)
	for i := range samplesPerChannel {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

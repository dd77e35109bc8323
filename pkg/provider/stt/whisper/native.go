// This file contains the Native transcriber backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/interviewace/interviewace/pkg/provider/stt"
)

// Compile-time assertion that Native satisfies stt.Transcriber.
var _ stt.Transcriber = (*Native)(nil)

// Native implements stt.Transcriber using the whisper.cpp Go bindings (CGO),
// eliminating HTTP overhead entirely. The model is loaded once at startup and
// shared across all concurrent transcriptions; each call creates its own
// whisper context, which is the binding's unit of thread confinement.
type Native struct {
	model    whisperlib.Model
	language string
}

// NativeOption is a functional option for configuring a Native transcriber.
type NativeOption func(*Native)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(n *Native) { n.language = lang }
}

// NewNative creates a Native transcriber that loads the whisper.cpp model
// from the given file path. The caller must call Close when the transcriber
// is no longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*Native, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	n := &Native{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// Close releases the whisper model. Must be called when the transcriber is no
// longer needed.
func (n *Native) Close() error {
	if n.model != nil {
		return n.model.Close()
	}
	return nil
}

// Transcribe implements stt.Transcriber. It reads the WAV file at wavPath,
// converts its PCM payload to float32 mono, and runs batch inference using a
// fresh whisper context.
func (n *Native) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("whisper: read wav file: %w", err)
	}
	wav, err := parseWAV(data)
	if err != nil {
		return "", fmt.Errorf("whisper: %q: %w", wavPath, err)
	}

	samples := pcmToFloat32Mono(wav.pcm, wav.channels)

	// Each whisper context is NOT thread-safe, but the model can be shared
	// across goroutines.
	wctx, err := n.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(n.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", n.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

package resilience

import (
	"context"

	"github.com/interviewace/interviewace/pkg/provider/stt"
)

// STTFallback implements [stt.Transcriber] with automatic failover across
// multiple speech-to-text backends.
type STTFallback struct {
	group *Group[stt.Transcriber]
}

var _ stt.Transcriber = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred
// backend.
func NewSTTFallback(primaryName string, primary stt.Transcriber, opts ...BreakerOption) *STTFallback {
	return &STTFallback{group: NewGroup(primaryName, primary, opts...)}
}

// Add registers an additional transcriber as a fallback.
func (f *STTFallback) Add(name string, transcriber stt.Transcriber) {
	f.group.Add(name, transcriber)
}

// Transcribe runs the WAV file through the first healthy backend.
func (f *STTFallback) Transcribe(ctx context.Context, wavPath string) (string, error) {
	return DoWithResult(f.group, func(t stt.Transcriber) (string, error) {
		return t.Transcribe(ctx, wavPath)
	})
}

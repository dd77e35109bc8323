// Package mock provides test doubles for the stt package interfaces.
//
// Use Transcriber to return a controlled transcript (or error) and inspect
// which file paths were submitted.
//
// Example:
//
//	m := &mock.Transcriber{Text: "hello world"}
//	text, _ := m.Transcribe(ctx, "/tmp/answer.wav")
package mock

import (
	"context"
	"sync"

	"github.com/interviewace/interviewace/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// WAVPath is the file path passed to Transcribe.
	WAVPath string
}

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Text is the transcript returned by Transcribe.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns Text, Err.
func (t *Transcriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TranscribeCalls = append(t.TranscribeCalls, TranscribeCall{Ctx: ctx, WAVPath: wavPath})
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// Reset clears all recorded calls. Thread-safe.
func (t *Transcriber) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TranscribeCalls = nil
}

// Ensure Transcriber implements stt.Transcriber at compile time.
var _ stt.Transcriber = (*Transcriber)(nil)

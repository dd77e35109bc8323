// Package stt defines the Transcriber interface for batch speech-to-text
// backends.
//
// The analysis pipeline records one answer as a single audio clip, so the
// interface is deliberately batch-shaped: one finished WAV file in, one
// transcript out. Streaming transcription is out of scope.
//
// Implementors must be safe for concurrent use; the same Transcriber instance
// may serve multiple analysis requests at once.
package stt

import "context"

// Transcriber is the abstraction over any batch speech-to-text backend.
//
// Transcribe reads the 16 kHz mono 16-bit PCM WAV file at wavPath and returns
// the transcribed text. An empty string with a nil error means the backend
// understood the audio but found no speech. Implementations must respect
// context cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Package openai provides a speech-to-text provider backed by the OpenAI
// audio transcription API (whisper-1 and successors). It is the hosted
// alternative to running a local whisper.cpp server or embedding the model.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/interviewace/interviewace/pkg/provider/stt"
)

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber implements stt.Transcriber using the OpenAI audio API.
type Transcriber struct {
	client   oai.Client
	model    string
	language string
}

// config holds optional configuration for the transcriber.
type config struct {
	baseURL  string
	language string
	timeout  time.Duration
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// API-compatible gateways.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithLanguage sets the ISO-639-1 language hint sent with each request.
func WithLanguage(lang string) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a Transcriber. model is the OpenAI audio model identifier,
// e.g. "whisper-1".
func New(apiKey string, model string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Transcriber{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: cfg.language,
	}, nil
}

// Transcribe implements stt.Transcriber. The WAV file at wavPath is uploaded
// in full; the API returns the complete transcript in one response.
func (t *Transcriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("openai: open wav file: %w", err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:  f,
		Model: oai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = param.NewOpt(t.language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcription request: %w", err)
	}
	return resp.Text, nil
}

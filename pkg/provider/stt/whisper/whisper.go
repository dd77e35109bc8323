// Package whisper provides batch stt.Transcriber implementations backed by
// whisper.cpp.
//
// Two variants are available:
//
//   - Client connects to a running whisper-server binary (which exposes a
//     REST API at POST /inference) and submits each WAV file as a multipart
//     inference request.
//   - Native (native.go) loads a ggml model through the whisper.cpp CGO
//     bindings and runs inference in-process, eliminating HTTP overhead.
//
// Usage:
//
//	c, err := whisper.New("http://localhost:8080", whisper.WithLanguage("en"))
//	text, err := c.Transcribe(ctx, "/tmp/answer.wav")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/interviewace/interviewace/pkg/provider/stt"
)

const defaultLanguage = "en"

// Compile-time assertion that Client implements stt.Transcriber.
var _ stt.Transcriber = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with, which is the default.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithTimeout sets the per-inference HTTP timeout. Defaults to 60 s; batch
// inference over a full answer can take a while on CPU-only hosts.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Client implements stt.Transcriber backed by a whisper.cpp HTTP server.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Client that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	c := &Client{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Transcribe implements stt.Transcriber. It uploads the WAV file at wavPath
// to the whisper.cpp /inference endpoint as multipart/form-data and returns
// the transcribed text.
func (c *Client) Transcribe(ctx context.Context, wavPath string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("whisper: open wav file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", fmt.Errorf("whisper: copy wav data: %w", err)
	}

	if c.language != "" {
		if err := mw.WriteField("language", c.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if c.model != "" {
		if err := mw.WriteField("model", c.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := c.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return result.Text, nil
}

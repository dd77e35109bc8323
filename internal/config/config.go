// Package config provides the configuration schema, loader, and provider registry
// for the InterviewAce coaching server.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for InterviewAce.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Coach     CoachConfig     `yaml:"coach"`
	Gaze      GazeConfig      `yaml:"gaze"`
	Transcode TranscodeConfig `yaml:"transcode"`
}

// ServerConfig holds network and logging settings for the server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM      ProviderEntry `yaml:"llm"`
	STT      ProviderEntry `yaml:"stt"`
	Landmark ProviderEntry `yaml:"landmark"`

	// LLMFallbacks lists additional LLM backends tried in order when the
	// primary fails. Each gets its own circuit breaker.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint, or is the
	// sidecar/server URL for self-hosted providers (whisper, mediapipe).
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "whisper-1") or a model file path for local inference.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// CoachConfig tunes the deterministic speech analysis. Zero values are
// replaced with defaults by [Validate] so that an empty block behaves the
// same as an absent one.
type CoachConfig struct {
	// FillerWords lists the filler phrases counted in transcripts.
	FillerWords []string `yaml:"filler_words"`

	// ExpectedKeywords lists the content keywords used for the relevance score
	// and the phonetic near-miss check.
	ExpectedKeywords []string `yaml:"expected_keywords"`

	// SlowWPM is the pace below which the delivery counts as too slow.
	SlowWPM float64 `yaml:"slow_wpm"`

	// FastWPM is the pace above which the delivery counts as too fast.
	FastWPM float64 `yaml:"fast_wpm"`

	// FillerLimit is the filler-word count above which the filler suggestion
	// switches from praise to a reduction prompt.
	FillerLimit int `yaml:"filler_limit"`

	// RelevanceFloor is the content relevance score (0-100) below which the
	// relevance suggestion prompts for more keyword coverage.
	RelevanceFloor float64 `yaml:"relevance_floor"`
}

// GazeConfig tunes the eye-contact evaluation thresholds. All values are in
// normalised image coordinates where (0.5, 0.5) is the frame centre.
type GazeConfig struct {
	// CenterTolerance is the maximum horizontal distance from 0.5 each eye may
	// have for the gaze to count as centred.
	CenterTolerance float64 `yaml:"center_tolerance"`

	// VerticalMin and VerticalMax bound the vertical band both eyes must sit
	// in for the gaze to count as level.
	VerticalMin float64 `yaml:"vertical_min"`
	VerticalMax float64 `yaml:"vertical_max"`

	// LeftEyeIndex and RightEyeIndex select the face-mesh landmarks used as
	// the eye positions. Defaults match the MediaPipe FaceMesh outer corners.
	LeftEyeIndex  int `yaml:"left_eye_index"`
	RightEyeIndex int `yaml:"right_eye_index"`
}

// TranscodeConfig configures the audio normalisation stage.
type TranscodeConfig struct {
	// FFmpegPath is the ffmpeg executable to invoke. Defaults to "ffmpeg"
	// resolved via PATH.
	FFmpegPath string `yaml:"ffmpeg_path"`

	// WorkDir is the directory for transcoding scratch files. Defaults to the
	// system temp directory.
	WorkDir string `yaml:"work_dir"`
}

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":      {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt":      {"whisper", "whisper-native", "openai"},
	"landmark": {"mediapipe"},
}

// Default analysis tuning, applied by [Validate] wherever the YAML leaves a
// field at its zero value.
var (
	DefaultFillerWords      = []string{"um", "uh", "like", "you know", "so", "basically", "actually"}
	DefaultExpectedKeywords = []string{"experience", "skills", "background", "passionate", "motivated", "team player", "problem-solving"}
)

const (
	DefaultSlowWPM        = 120.0
	DefaultFastWPM        = 160.0
	DefaultFillerLimit    = 3
	DefaultRelevanceFloor = 50.0

	DefaultCenterTolerance = 0.15
	DefaultVerticalMin     = 0.3
	DefaultVerticalMax     = 0.7
	DefaultLeftEyeIndex    = 33
	DefaultRightEyeIndex   = 263
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values and fills in
// defaults for analysis tuning left unset. It returns a joined error listing
// all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Unknown provider names warn rather than fail so that new backends can
	// be trialled without a config schema change.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("landmark", cfg.Providers.Landmark.Name)
	for _, entry := range cfg.Providers.LLMFallbacks {
		validateProviderName("llm", entry.Name)
	}
	if len(cfg.Providers.LLMFallbacks) > 0 && cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm_fallbacks requires a primary providers.llm"))
	}

	// Provider availability warnings. Missing providers degrade the relevant
	// feature rather than failing startup.
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; answer analysis will report transcription as unavailable")
	}
	if cfg.Providers.Landmark.Name == "" {
		slog.Warn("no landmark provider configured; gaze streams will report the model as unavailable")
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; generative feedback will use fallback text")
	}

	// Coach defaults and bounds.
	if cfg.Coach.FillerWords == nil {
		cfg.Coach.FillerWords = slices.Clone(DefaultFillerWords)
	}
	if cfg.Coach.ExpectedKeywords == nil {
		cfg.Coach.ExpectedKeywords = slices.Clone(DefaultExpectedKeywords)
	}
	if cfg.Coach.SlowWPM == 0 {
		cfg.Coach.SlowWPM = DefaultSlowWPM
	}
	if cfg.Coach.FastWPM == 0 {
		cfg.Coach.FastWPM = DefaultFastWPM
	}
	if cfg.Coach.FillerLimit == 0 {
		cfg.Coach.FillerLimit = DefaultFillerLimit
	}
	if cfg.Coach.RelevanceFloor == 0 {
		cfg.Coach.RelevanceFloor = DefaultRelevanceFloor
	}
	if cfg.Coach.SlowWPM >= cfg.Coach.FastWPM {
		errs = append(errs, fmt.Errorf("coach.slow_wpm %.0f must be below coach.fast_wpm %.0f", cfg.Coach.SlowWPM, cfg.Coach.FastWPM))
	}
	if cfg.Coach.RelevanceFloor < 0 || cfg.Coach.RelevanceFloor > 100 {
		errs = append(errs, fmt.Errorf("coach.relevance_floor %.1f is out of range [0, 100]", cfg.Coach.RelevanceFloor))
	}

	// Gaze defaults and bounds.
	if cfg.Gaze.CenterTolerance == 0 {
		cfg.Gaze.CenterTolerance = DefaultCenterTolerance
	}
	if cfg.Gaze.VerticalMin == 0 {
		cfg.Gaze.VerticalMin = DefaultVerticalMin
	}
	if cfg.Gaze.VerticalMax == 0 {
		cfg.Gaze.VerticalMax = DefaultVerticalMax
	}
	if cfg.Gaze.LeftEyeIndex == 0 {
		cfg.Gaze.LeftEyeIndex = DefaultLeftEyeIndex
	}
	if cfg.Gaze.RightEyeIndex == 0 {
		cfg.Gaze.RightEyeIndex = DefaultRightEyeIndex
	}
	if cfg.Gaze.CenterTolerance < 0 || cfg.Gaze.CenterTolerance > 0.5 {
		errs = append(errs, fmt.Errorf("gaze.center_tolerance %.2f is out of range [0, 0.5]", cfg.Gaze.CenterTolerance))
	}
	if cfg.Gaze.VerticalMin >= cfg.Gaze.VerticalMax {
		errs = append(errs, fmt.Errorf("gaze.vertical_min %.2f must be below gaze.vertical_max %.2f", cfg.Gaze.VerticalMin, cfg.Gaze.VerticalMax))
	}
	if cfg.Gaze.LeftEyeIndex < 0 || cfg.Gaze.RightEyeIndex < 0 {
		errs = append(errs, errors.New("gaze eye indices must not be negative"))
	}

	// Transcode defaults.
	if cfg.Transcode.FFmpegPath == "" {
		cfg.Transcode.FFmpegPath = "ffmpeg"
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

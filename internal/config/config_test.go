package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/pkg/provider/landmark"
	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/provider/stt"
	"github.com/interviewace/interviewace/pkg/types"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

providers:
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o
  stt:
    name: whisper
    base_url: http://localhost:9000
  landmark:
    name: mediapipe
    base_url: http://localhost:9100
  llm_fallbacks:
    - name: ollama
      base_url: http://localhost:11434
      model: llama3.1

coach:
  filler_words: [um, uh]
  expected_keywords: [experience, skills]
  slow_wpm: 110
  fast_wpm: 170
  filler_limit: 5
  relevance_floor: 40

gaze:
  center_tolerance: 0.2
  vertical_min: 0.25
  vertical_max: 0.75
  left_eye_index: 33
  right_eye_index: 263

transcode:
  ffmpeg_path: /usr/bin/ffmpeg
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Providers.LLM.Name != "openai" {
		t.Errorf("providers.llm.name: got %q, want %q", cfg.Providers.LLM.Name, "openai")
	}
	if cfg.Providers.STT.BaseURL != "http://localhost:9000" {
		t.Errorf("providers.stt.base_url: got %q", cfg.Providers.STT.BaseURL)
	}
	if len(cfg.Coach.FillerWords) != 2 {
		t.Errorf("coach.filler_words: got %d entries, want 2", len(cfg.Coach.FillerWords))
	}
	if cfg.Coach.SlowWPM != 110 || cfg.Coach.FastWPM != 170 {
		t.Errorf("coach pace bounds: got %.0f/%.0f, want 110/170", cfg.Coach.SlowWPM, cfg.Coach.FastWPM)
	}
	if cfg.Gaze.CenterTolerance != 0.2 {
		t.Errorf("gaze.center_tolerance: got %.2f, want 0.2", cfg.Gaze.CenterTolerance)
	}
	if cfg.Transcode.FFmpegPath != "/usr/bin/ffmpeg" {
		t.Errorf("transcode.ffmpeg_path: got %q", cfg.Transcode.FFmpegPath)
	}
	if len(cfg.Providers.LLMFallbacks) != 1 || cfg.Providers.LLMFallbacks[0].Name != "ollama" {
		t.Errorf("providers.llm_fallbacks: got %+v", cfg.Providers.LLMFallbacks)
	}
}

func TestLoadFromReader_EmptyGetsDefaults(t *testing.T) {
	// An empty config should succeed and receive the default analysis tuning.
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	if len(cfg.Coach.FillerWords) != len(config.DefaultFillerWords) {
		t.Errorf("coach.filler_words: got %d entries, want defaults (%d)", len(cfg.Coach.FillerWords), len(config.DefaultFillerWords))
	}
	if cfg.Coach.SlowWPM != config.DefaultSlowWPM || cfg.Coach.FastWPM != config.DefaultFastWPM {
		t.Errorf("pace defaults: got %.0f/%.0f", cfg.Coach.SlowWPM, cfg.Coach.FastWPM)
	}
	if cfg.Gaze.CenterTolerance != config.DefaultCenterTolerance {
		t.Errorf("gaze.center_tolerance default: got %.2f", cfg.Gaze.CenterTolerance)
	}
	if cfg.Gaze.LeftEyeIndex != 33 || cfg.Gaze.RightEyeIndex != 263 {
		t.Errorf("eye index defaults: got %d/%d, want 33/263", cfg.Gaze.LeftEyeIndex, cfg.Gaze.RightEyeIndex)
	}
	if cfg.Transcode.FFmpegPath != "ffmpeg" {
		t.Errorf("transcode.ffmpeg_path default: got %q", cfg.Transcode.FFmpegPath)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("serverr:\n  listen_addr: ':8080'\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

// ── validation ────────────────────────────────────────────────────────────────

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: "server:\n  log_level: loud\n",
			want: "server.log_level",
		},
		{
			name: "inverted pace bounds",
			yaml: "coach:\n  slow_wpm: 200\n  fast_wpm: 150\n",
			want: "slow_wpm",
		},
		{
			name: "relevance floor out of range",
			yaml: "coach:\n  relevance_floor: 150\n",
			want: "relevance_floor",
		},
		{
			name: "inverted vertical band",
			yaml: "gaze:\n  vertical_min: 0.8\n  vertical_max: 0.4\n",
			want: "vertical_min",
		},
		{
			name: "tls missing key",
			yaml: "server:\n  tls:\n    cert_file: /etc/cert.pem\n",
			want: "server.tls",
		},
		{
			name: "fallbacks without primary llm",
			yaml: "providers:\n  llm_fallbacks:\n    - name: ollama\n",
			want: "llm_fallbacks",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

// ── registry ─────────────────────────────────────────────────────────────────

// stubLLM implements llm.Provider.
type stubLLM struct{}

func (s *stubLLM) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}

// stubTranscriber implements stt.Transcriber.
type stubTranscriber struct{}

func (s *stubTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return "", nil
}

// stubDetector implements landmark.Detector.
type stubDetector struct{}

func (s *stubDetector) Detect(_ context.Context, _ landmark.Image) ([]types.Landmark, error) {
	return nil, nil
}

func TestRegistry_CreateRegistered(t *testing.T) {
	reg := config.NewRegistry()
	reg.RegisterLLM("stub", func(config.ProviderEntry) (llm.Provider, error) {
		return &stubLLM{}, nil
	})
	reg.RegisterSTT("stub", func(config.ProviderEntry) (stt.Transcriber, error) {
		return &stubTranscriber{}, nil
	})
	reg.RegisterLandmark("stub", func(config.ProviderEntry) (landmark.Detector, error) {
		return &stubDetector{}, nil
	})

	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "stub"}); err != nil {
		t.Errorf("CreateLLM: %v", err)
	}
	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "stub"}); err != nil {
		t.Errorf("CreateSTT: %v", err)
	}
	if _, err := reg.CreateLandmark(config.ProviderEntry{Name: "stub"}); err != nil {
		t.Errorf("CreateLandmark: %v", err)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg := config.NewRegistry()
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "nonexistent"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateLLM: err = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := reg.CreateSTT(config.ProviderEntry{Name: "nonexistent"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateSTT: err = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := reg.CreateLandmark(config.ProviderEntry{Name: "nonexistent"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateLandmark: err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	reg := config.NewRegistry()
	reg.RegisterLLM("stub", func(config.ProviderEntry) (llm.Provider, error) {
		return nil, errors.New("first")
	})
	reg.RegisterLLM("stub", func(config.ProviderEntry) (llm.Provider, error) {
		return &stubLLM{}, nil
	})
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "stub"}); err != nil {
		t.Errorf("CreateLLM after overwrite: %v", err)
	}
}

// Command interviewace is the main entry point for the InterviewAce coaching server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/interviewace/interviewace/internal/app"
	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/internal/observe"
	"github.com/interviewace/interviewace/internal/resilience"
	"github.com/interviewace/interviewace/pkg/provider/landmark"
	"github.com/interviewace/interviewace/pkg/provider/landmark/mediapipe"
	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/provider/llm/anyllm"
	llmopenai "github.com/interviewace/interviewace/pkg/provider/llm/openai"
	"github.com/interviewace/interviewace/pkg/provider/stt"
	sttopenai "github.com/interviewace/interviewace/pkg/provider/stt/openai"
	"github.com/interviewace/interviewace/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "interviewace: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "interviewace: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("interviewace starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"llm", providerLabel(cfg.Providers.LLM),
		"stt", providerLabel(cfg.Providers.STT),
		"landmark", providerLabel(cfg.Providers.Landmark),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "interviewace",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, closers := buildProviders(cfg, reg)

	application, err := app.New(cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	for _, c := range closers {
		application.AddCloser(c)
	}

	slog.Info("server ready")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// The native openai-go client for OpenAI itself; any-llm-go for the rest.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(entry.BaseURL))
		}
		return llmopenai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, sttopenai.WithLanguage(lang))
		}
		return sttopenai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterLandmark("mediapipe", func(entry config.ProviderEntry) (landmark.Detector, error) {
		return mediapipe.New(entry.BaseURL)
	})
}

// buildProviders instantiates the providers named in cfg. A provider that is
// unconfigured or fails to construct leaves its slot nil; the server starts
// anyway and the affected feature degrades to its fallback output. Returns
// cleanup functions for providers that hold resources.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, []func() error) {
	ps := &app.Providers{}
	var closers []func() error

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			slog.Warn("llm provider unavailable", "name", name, "err", err)
		} else {
			ps.LLM = p
			closers = appendCloser(closers, p)
			slog.Info("provider created", "kind", "llm", "name", name)
		}
	}

	// Wrap the primary in a failover group when fallbacks are listed.
	if ps.LLM != nil && len(cfg.Providers.LLMFallbacks) > 0 {
		fb := resilience.NewLLMFallback(cfg.Providers.LLM.Name, ps.LLM)
		for _, entry := range cfg.Providers.LLMFallbacks {
			p, err := reg.CreateLLM(entry)
			if err != nil {
				slog.Warn("llm fallback unavailable", "name", entry.Name, "err", err)
				continue
			}
			fb.Add(entry.Name, p)
			closers = appendCloser(closers, p)
			slog.Info("llm fallback registered", "name", entry.Name)
		}
		ps.LLM = fb
	}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			slog.Warn("stt provider unavailable", "name", name, "err", err)
		} else {
			ps.Transcriber = p
			closers = appendCloser(closers, p)
			slog.Info("provider created", "kind", "stt", "name", name)
		}
	}

	if name := cfg.Providers.Landmark.Name; name != "" {
		p, err := reg.CreateLandmark(cfg.Providers.Landmark)
		if err != nil {
			slog.Warn("landmark provider unavailable", "name", name, "err", err)
		} else {
			ps.Landmark = p
			closers = appendCloser(closers, p)
			slog.Info("provider created", "kind", "landmark", "name", name)
		}
	}

	return ps, closers
}

// appendCloser records the provider's Close method when it has one. The
// native whisper transcriber frees its loaded model this way.
func appendCloser(closers []func() error, provider any) []func() error {
	if c, ok := provider.(io.Closer); ok {
		return append(closers, c.Close)
	}
	return closers
}

func providerLabel(entry config.ProviderEntry) string {
	if entry.Name == "" {
		return "(not configured)"
	}
	if entry.Model != "" {
		return entry.Name + "/" + entry.Model
	}
	return entry.Name
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map.
func optString(opts map[string]any, key string) string {
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Package app wires all InterviewAce subsystems into a running HTTP server.
//
// New builds the analysis pipeline, the gaze session handler, and the
// health/metrics surface from config and providers. Run serves HTTP until the
// context is cancelled, then shuts the server down gracefully and runs
// registered closers in reverse order.
//
// For testing, inject doubles via functional options (WithTranscoder,
// WithMetricsHandler). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/interviewace/interviewace/internal/analysis"
	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/internal/feedback"
	"github.com/interviewace/interviewace/internal/gaze"
	"github.com/interviewace/interviewace/internal/health"
	"github.com/interviewace/interviewace/internal/observe"
	"github.com/interviewace/interviewace/internal/transcode"
	"github.com/interviewace/interviewace/pkg/provider/landmark"
	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/provider/stt"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 15 * time.Second

// Providers holds one interface value per provider slot. A nil slot means the
// provider is not configured; the affected feature degrades to its fallback
// output instead of failing startup. Populated by main via the config registry.
type Providers struct {
	Landmark    landmark.Detector
	Transcriber stt.Transcriber
	LLM         llm.Provider
}

// App owns the HTTP server and the handlers behind it.
type App struct {
	cfg       *config.Config
	providers *Providers

	transcoder     analysis.Transcoder
	metrics        *observe.Metrics
	metricsHandler http.Handler

	handler http.Handler
	server  *http.Server

	mu      sync.Mutex
	closers []func() error
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithTranscoder injects a transcoder instead of creating an ffmpeg-backed one
// from config.
func WithTranscoder(t analysis.Transcoder) Option {
	return func(a *App) { a.transcoder = t }
}

// WithMetrics injects a metrics bundle instead of using the process default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler injects the handler served at /metrics instead of the
// Prometheus default.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// New wires the full request surface from config and providers.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if providers == nil {
		providers = &Providers{}
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if a.transcoder == nil {
		a.transcoder = transcode.New(
			transcode.WithPath(cfg.Transcode.FFmpegPath),
			transcode.WithWorkDir(cfg.Transcode.WorkDir),
		)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.metricsHandler == nil {
		a.metricsHandler = promhttp.Handler()
	}

	coach := feedback.New(providers.LLM)

	analyze := analysis.NewHandler(
		a.transcoder,
		providers.Transcriber,
		analysis.NewCalculator(cfg.Coach),
		analysis.NewAdvisor(cfg.Coach),
		analysis.NewNearMissFinder(),
		coach,
		analysis.WithMetrics(a.metrics),
	)

	stream := gaze.NewHandler(
		providers.Landmark,
		gaze.NewEvaluator(cfg.Gaze),
		gaze.WithMetrics(a.metrics),
	)

	mux := http.NewServeMux()
	mux.Handle("POST /analyze_interview", analyze)
	mux.Handle("GET /video-stream", stream)
	mux.Handle("GET /metrics", a.metricsHandler)
	a.buildHealth().Register(mux)

	a.handler = allowAllCORS(observe.Middleware(a.metrics)(mux))
	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// buildHealth assembles readiness checkers for the configured dependencies.
// Sidecar providers get a live HTTP probe; unconfigured slots are not checked
// at all since their features degrade rather than fail.
func (a *App) buildHealth() *health.Handler {
	var checkers []health.Checker

	if a.providers.Landmark != nil && a.cfg.Providers.Landmark.BaseURL != "" {
		checkers = append(checkers,
			health.SidecarChecker("landmark", a.cfg.Providers.Landmark.BaseURL, nil))
	}
	if a.providers.Transcriber != nil && a.cfg.Providers.STT.BaseURL != "" {
		checkers = append(checkers,
			health.SidecarChecker("stt", a.cfg.Providers.STT.BaseURL, nil))
	}
	if a.providers.LLM != nil {
		checkers = append(checkers, health.StaticChecker("llm", nil))
	}

	return health.New(checkers...)
}

// Handler returns the fully wrapped HTTP handler. Exposed for tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// AddCloser registers a cleanup function run after the server stops. Closers
// run in reverse registration order.
func (a *App) AddCloser(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and
// runs the registered closers. It returns the first serve or close error.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("listening (https)", "addr", a.server.Addr)
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("listening", "addr", a.server.Addr)
			err = a.server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("draining connections", "timeout", shutdownTimeout)
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(drainCtx)
	})

	err := g.Wait()
	if closeErr := a.close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

// close runs the registered closers in reverse order, joining their errors.
func (a *App) close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, fmt.Errorf("closer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// allowAllCORS mirrors the permissive cross-origin policy of the original
// deployment where the frontend is served from a different origin. Preflight
// requests are answered directly.
func allowAllCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

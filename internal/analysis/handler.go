package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/interviewace/interviewace/internal/feedback"
	"github.com/interviewace/interviewace/internal/observe"
	"github.com/interviewace/interviewace/internal/transcode"
	"github.com/interviewace/interviewace/pkg/provider/stt"
	"github.com/interviewace/interviewace/pkg/types"
)

// Transcript sentinels. They replace the transcript when speech-to-text is
// not available or produced nothing; the deterministic metrics still run on
// them so the response shape never changes.
const (
	TranscriptServiceUnavailable = "Transcription service is unavailable."
	TranscriptNotUnderstood      = "Could not understand audio."
)

const (
	defaultQuestion   = "No question provided."
	defaultMaxUpload  = 32 << 20 // 32 MiB
	transcribeTimeout = 2 * time.Minute
)

// Transcoder normalises an uploaded audio stream into a WAV artifact.
// Implemented by [transcode.FFmpeg].
type Transcoder interface {
	WAV(ctx context.Context, r io.Reader) (*transcode.Artifact, error)
}

// Handler serves the answer-analysis endpoint. Transcriber may be nil, in
// which case the transcript degrades to its sentinel and the rest of the
// pipeline still runs.
type Handler struct {
	transcoder  Transcoder
	transcriber stt.Transcriber
	calc        *Calculator
	advisor     *Advisor
	nearMiss    *NearMissFinder
	coach       *feedback.Coach
	metrics     *observe.Metrics
	maxUpload   int64
}

// HandlerOption is a functional option for Handler.
type HandlerOption func(*Handler)

// WithMaxUpload caps the accepted multipart body size in bytes.
func WithMaxUpload(n int64) HandlerOption {
	return func(h *Handler) { h.maxUpload = n }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler constructs the analysis handler.
func NewHandler(transcoder Transcoder, transcriber stt.Transcriber, calc *Calculator, advisor *Advisor, nearMiss *NearMissFinder, coach *feedback.Coach, opts ...HandlerOption) *Handler {
	h := &Handler{
		transcoder:  transcoder,
		transcriber: transcriber,
		calc:        calc,
		advisor:     advisor,
		nearMiss:    nearMiss,
		coach:       coach,
		maxUpload:   defaultMaxUpload,
	}
	for _, o := range opts {
		o(h)
	}
	if h.metrics == nil {
		h.metrics = observe.DefaultMetrics()
	}
	return h
}

// errorEnvelope is the JSON error body for 4xx/5xx responses.
type errorEnvelope struct {
	Error string `json:"error"`
}

// ServeHTTP implements the POST /analyze_interview endpoint.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	audio, _, err := r.FormFile("audio")
	if err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, "no audio file provided")
		return
	}
	defer audio.Close()

	durationStr := r.FormValue("duration")
	if durationStr == "" {
		h.writeError(ctx, w, http.StatusBadRequest, "no duration provided")
		return
	}
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil || math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		h.writeError(ctx, w, http.StatusBadRequest, "invalid duration format")
		return
	}

	question := r.FormValue("question")
	if question == "" {
		question = defaultQuestion
	}
	jobDescription := r.FormValue("job_description")

	// Normalise the upload to 16 kHz mono WAV.
	transcodeStart := time.Now()
	artifact, err := h.transcoder.WAV(ctx, audio)
	h.metrics.TranscodeDuration.Record(ctx, time.Since(transcodeStart).Seconds())
	if err != nil {
		log.Error("transcode failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, "failed to convert audio; ensure the recording is a supported format")
		return
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			log.Warn("failed to remove transcode artifact", "error", err)
		}
	}()

	transcript := h.transcribe(ctx, log, artifact.Path)

	// Deterministic analysis always runs, sentinel transcript or not.
	metrics := h.calc.Metrics(transcript, duration)
	suggestions := h.advisor.Suggest(metrics)
	_, missing := h.calc.FoundKeywords(transcript)
	nearMisses := h.nearMiss.Find(transcript, missing)
	if nearMisses == nil {
		nearMisses = []string{}
	}

	// Generative feedback is best-effort; the Coach never returns an error.
	llmStart := time.Now()
	generative := types.GenerativeFeedback{
		QAAlignment: h.coach.Alignment(ctx, question, jobDescription, transcript),
		Summary:     h.coach.Summary(ctx, transcript),
	}
	h.metrics.LLMDuration.Record(ctx, time.Since(llmStart).Seconds())

	report := types.AnalysisReport{
		Transcript:         transcript,
		SpeechMetrics:      metrics,
		Suggestions:        suggestions,
		KeywordNearMisses:  nearMisses,
		GenerativeFeedback: generative,
	}

	h.metrics.RecordAnalysis(ctx, "ok")
	writeJSON(w, http.StatusOK, report)
}

// transcribe runs speech-to-text on the WAV at path, degrading to the
// transcript sentinels on a nil transcriber, call failure, or empty result.
func (h *Handler) transcribe(ctx context.Context, log *slog.Logger, wavPath string) string {
	if h.transcriber == nil {
		return TranscriptServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	start := time.Now()
	text, err := h.transcriber.Transcribe(ctx, wavPath)
	h.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		log.Warn("transcription degraded", "error", err)
		h.metrics.RecordProviderError(ctx, "stt", "transcribe")
		return TranscriptServiceUnavailable
	}
	if text == "" {
		return TranscriptNotUnderstood
	}
	return text
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	outcome := "client_error"
	if status >= 500 {
		outcome = "server_error"
	}
	h.metrics.RecordAnalysis(ctx, outcome)
	writeJSON(w, status, errorEnvelope{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Warn("failed to encode response", "error", err)
	}
}

package gaze

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/interviewace/interviewace/internal/observe"
	"github.com/interviewace/interviewace/pkg/provider/landmark"
)

// frameMessage is the inbound WebSocket envelope.
type frameMessage struct {
	Image string `json:"image"`
}

// statusEvent is the outbound WebSocket envelope.
type statusEvent struct {
	Event string     `json:"event"`
	Data  statusData `json:"data"`
}

type statusData struct {
	Status Status `json:"status"`
}

// Handler serves the gaze-evaluation WebSocket endpoint. Each connection is
// handled sequentially: one frame in, one verdict out, in order. Detector may
// be nil, in which case every frame is answered with [StatusModelUnavailable].
type Handler struct {
	detector  landmark.Detector
	evaluator *Evaluator
	metrics   *observe.Metrics
}

// Option is a functional option for Handler.
type Option func(*Handler)

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler constructs the gaze session handler. detector may be nil.
func NewHandler(detector landmark.Detector, evaluator *Evaluator, opts ...Option) *Handler {
	h := &Handler{
		detector:  detector,
		evaluator: evaluator,
	}
	for _, o := range opts {
		o(h)
	}
	if h.metrics == nil {
		h.metrics = observe.DefaultMetrics()
	}
	return h
}

// ServeHTTP upgrades to a WebSocket and runs the frame loop until the client
// disconnects. Gaze verdicts, including error verdicts, never terminate the
// connection; only transport failures do.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The browser client connects cross-origin, matching the permissive
		// CORS policy of the HTTP endpoints.
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	h.metrics.ActiveStreams.Add(ctx, 1)
	defer h.metrics.ActiveStreams.Add(ctx, -1)
	log.Info("gaze session started", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logDisconnect(log, err)
			return
		}

		status := h.evaluateFrame(ctx, data)
		h.metrics.RecordFrameStatus(ctx, string(status))

		payload, err := json.Marshal(statusEvent{
			Event: "eye_contact_status",
			Data:  statusData{Status: status},
		})
		if err != nil {
			log.Error("marshal status event", "error", err)
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			h.logDisconnect(log, err)
			return
		}
	}
}

// evaluateFrame turns one inbound message into a gaze verdict. All failure
// modes map to a status; this function never errors.
func (h *Handler) evaluateFrame(ctx context.Context, data []byte) Status {
	start := time.Now()
	defer func() {
		h.metrics.FrameEvalDuration.Record(ctx, time.Since(start).Seconds())
	}()

	// Without a detector there is no point decoding the payload.
	if h.detector == nil {
		return StatusModelUnavailable
	}

	var msg frameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return StatusProcessingError
	}

	img, err := DecodeFrame(msg.Image)
	if err != nil {
		return StatusProcessingError
	}

	landmarks, err := h.detector.Detect(ctx, img)
	if err != nil {
		h.metrics.RecordProviderError(ctx, "landmark", "detect")
		return StatusProcessingError
	}

	return h.evaluator.Evaluate(landmarks)
}

// logDisconnect logs session end, quieter for normal closure.
func (h *Handler) logDisconnect(log *slog.Logger, err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		log.Info("gaze session closed")
	default:
		if errors.Is(err, context.Canceled) {
			log.Info("gaze session cancelled")
			return
		}
		log.Warn("gaze session ended", "error", err)
	}
}

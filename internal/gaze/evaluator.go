package gaze

import (
	"math"

	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/pkg/types"
)

// Status is the per-frame gaze verdict sent to the client. The strings are
// part of the wire contract and shown verbatim in the UI.
type Status string

const (
	// StatusNoFace means the detector found no face in the frame.
	StatusNoFace Status = "No Face Detected"

	// StatusGood means both eyes are horizontally centred and vertically level.
	StatusGood Status = "Good"

	// StatusAdjust means a face was found but the gaze is off-centre.
	StatusAdjust Status = "Adjust Position"

	// StatusModelUnavailable means no landmark detector is configured or
	// loaded; frames are acknowledged but not evaluated.
	StatusModelUnavailable Status = "Model Unavailable"

	// StatusProcessingError means this frame could not be decoded or the
	// detector failed on it. The session continues with the next frame.
	StatusProcessingError Status = "Processing Error"
)

// Evaluator applies the geometric gaze rule to detected face landmarks.
// All coordinates are normalised to [0,1] with (0.5, 0.5) the frame centre.
type Evaluator struct {
	centerTolerance float64
	verticalMin     float64
	verticalMax     float64
	leftEyeIndex    int
	rightEyeIndex   int
}

// NewEvaluator builds an Evaluator from the gaze tuning.
func NewEvaluator(cfg config.GazeConfig) *Evaluator {
	return &Evaluator{
		centerTolerance: cfg.CenterTolerance,
		verticalMin:     cfg.VerticalMin,
		verticalMax:     cfg.VerticalMax,
		leftEyeIndex:    cfg.LeftEyeIndex,
		rightEyeIndex:   cfg.RightEyeIndex,
	}
}

// Evaluate returns the gaze verdict for one frame's landmarks. An empty
// slice means no face was detected. A landmark list too short to contain the
// configured eye indices yields [StatusProcessingError]; it indicates a
// detector output format mismatch, not an absent face.
func (e *Evaluator) Evaluate(landmarks []types.Landmark) Status {
	if len(landmarks) == 0 {
		return StatusNoFace
	}
	if e.leftEyeIndex >= len(landmarks) || e.rightEyeIndex >= len(landmarks) {
		return StatusProcessingError
	}

	left := landmarks[e.leftEyeIndex]
	right := landmarks[e.rightEyeIndex]

	if e.centred(left) && e.centred(right) && e.level(left) && e.level(right) {
		return StatusGood
	}
	return StatusAdjust
}

// centred reports whether the eye is within the horizontal tolerance band
// around the frame centre.
func (e *Evaluator) centred(p types.Landmark) bool {
	return math.Abs(p.X-0.5) < e.centerTolerance
}

// level reports whether the eye sits inside the vertical band. Both bounds
// are exclusive.
func (e *Evaluator) level(p types.Landmark) bool {
	return p.Y > e.verticalMin && p.Y < e.verticalMax
}

// Package mock provides a test double for the landmark.Detector interface.
//
// Use Detector in unit tests to feed controlled landmark sets to the gaze
// pipeline without a live detection sidecar. All fields are safe to set
// before calling any method; mutating them during a concurrent call is the
// caller's responsibility.
package mock

import (
	"context"
	"sync"

	"github.com/interviewace/interviewace/pkg/provider/landmark"
	"github.com/interviewace/interviewace/pkg/types"
)

// DetectCall records a single invocation of Detect.
type DetectCall struct {
	// Ctx is the context passed to Detect.
	Ctx context.Context
	// Img is the image passed to Detect.
	Img landmark.Image
}

// Detector is a mock implementation of landmark.Detector.
// Zero values cause Detect to report no face with a nil error. Set Err to
// inject a detection failure.
type Detector struct {
	mu sync.Mutex

	// Landmarks is returned by Detect. Nil means no face detected.
	Landmarks []types.Landmark

	// Err, if non-nil, is returned as the error from Detect.
	Err error

	// DetectCalls records every invocation of Detect in order.
	DetectCalls []DetectCall
}

// Detect records the call and returns Landmarks, Err.
func (d *Detector) Detect(ctx context.Context, img landmark.Image) ([]types.Landmark, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DetectCalls = append(d.DetectCalls, DetectCall{Ctx: ctx, Img: img})
	return d.Landmarks, d.Err
}

// Reset clears all recorded calls. Thread-safe.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DetectCalls = nil
}

// Ensure Detector implements landmark.Detector at compile time.
var _ landmark.Detector = (*Detector)(nil)

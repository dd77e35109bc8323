// Package landmark defines the Detector interface for facial-landmark
// detection backends.
//
// A detector wraps an external computer-vision capability (e.g., a MediaPipe
// FaceLandmarker sidecar) and exposes a single batch inference call. The gaze
// pipeline treats the detector as a black box: it hands over one encoded
// image and receives the normalized landmark set for at most one face.
//
// Implementors must be safe for concurrent use; the same Detector instance is
// shared by every active frame-stream connection.
package landmark

import (
	"context"

	"github.com/interviewace/interviewace/pkg/types"
)

// Image is one still frame handed to a Detector. Data holds the image in its
// original encoding (JPEG, PNG, …); Format is the lower-case format name as
// reported by the frame decoder. Width and Height are in pixels.
type Image struct {
	Format string
	Width  int
	Height int
	Data   []byte
}

// Detector is the abstraction over any facial-landmark detection backend.
//
// Detect runs one inference over img and returns the landmark set for the
// first detected face, or an empty (possibly nil) slice when no face is
// present. A non-nil error indicates the inference itself failed; a frame
// with no face in it is a successful detection with zero landmarks, not an
// error.
type Detector interface {
	Detect(ctx context.Context, img Image) ([]types.Landmark, error)
}

// Package gaze evaluates interview eye contact from webcam frames. A
// persistent WebSocket session receives base64 frames, hands them to a face
// landmark detector, and answers each frame with a gaze verdict.
package gaze

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	// Frame payloads are jpeg or png depending on the browser's canvas encoder.
	_ "image/jpeg"
	_ "image/png"

	"github.com/interviewace/interviewace/pkg/provider/landmark"
)

// ErrBadFrame is wrapped by all frame decoding failures.
var ErrBadFrame = errors.New("bad frame")

const dataURLPrefix = "data:image/"

// DecodeFrame parses a data URL of the form
// "data:image/<format>;base64,<payload>" into a landmark.Image, validating
// that the payload is a decodable image and extracting its dimensions.
func DecodeFrame(dataURL string) (landmark.Image, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return landmark.Image{}, fmt.Errorf("%w: not an image data URL", ErrBadFrame)
	}
	rest := dataURL[len(dataURLPrefix):]

	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return landmark.Image{}, fmt.Errorf("%w: missing base64 marker", ErrBadFrame)
	}
	format := rest[:sep]
	payload := rest[sep+len(";base64,"):]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return landmark.Image{}, fmt.Errorf("%w: decode base64: %w", ErrBadFrame, err)
	}

	cfg, detected, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return landmark.Image{}, fmt.Errorf("%w: decode image: %w", ErrBadFrame, err)
	}

	// Trust the decoded format over the label in the URL.
	if detected != "" {
		format = detected
	}

	return landmark.Image{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}

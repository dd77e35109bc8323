// Package mediapipe provides a landmark.Detector backed by a MediaPipe
// FaceLandmarker sidecar process exposing a REST API at POST /detect.
//
// The sidecar loads the face_landmarker.task model once and serves one
// inference per request. Requests carry the encoded frame as multipart
// form-data; responses mirror the MediaPipe tasks result shape:
//
//	{"face_landmarks": [[{"x": 0.49, "y": 0.51}, ...]]}
//
// An empty outer list means no face was detected, which Detect reports as a
// zero-length landmark slice with a nil error.
package mediapipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/interviewace/interviewace/pkg/provider/landmark"
	"github.com/interviewace/interviewace/pkg/types"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxFaces = 1
)

// Compile-time assertion that Client implements landmark.Detector.
var _ landmark.Detector = (*Client)(nil)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxFaces sets the maximum number of faces the sidecar should detect.
// Only the first face's landmarks are returned either way. Defaults to 1.
func WithMaxFaces(n int) Option {
	return func(c *Client) {
		c.maxFaces = n
	}
}

// Client implements landmark.Detector against a MediaPipe FaceLandmarker
// sidecar. It holds no per-request state and is safe for concurrent use.
type Client struct {
	serverURL  string
	maxFaces   int
	httpClient *http.Client
}

// New creates a Client that connects to the sidecar at serverURL (e.g.,
// "http://localhost:9090"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("mediapipe: serverURL must not be empty")
	}
	c := &Client{
		serverURL:  serverURL,
		maxFaces:   defaultMaxFaces,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// detectResponse is the JSON structure returned by the sidecar.
type detectResponse struct {
	FaceLandmarks [][]struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"face_landmarks"`
}

// Detect implements landmark.Detector. It POSTs img to the sidecar's /detect
// endpoint and returns the first face's normalized landmarks, or an empty
// slice when no face is present.
func (c *Client) Detect(ctx context.Context, img landmark.Image) ([]types.Landmark, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("image", "frame."+imageExt(img.Format))
	if err != nil {
		return nil, fmt.Errorf("mediapipe: create form file: %w", err)
	}
	if _, err := fw.Write(img.Data); err != nil {
		return nil, fmt.Errorf("mediapipe: write image data: %w", err)
	}
	if err := mw.WriteField("max_faces", strconv.Itoa(c.maxFaces)); err != nil {
		return nil, fmt.Errorf("mediapipe: write max_faces field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("mediapipe: close multipart writer: %w", err)
	}

	endpoint := c.serverURL + "/detect"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("mediapipe: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediapipe: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mediapipe: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mediapipe: read response body: %w", err)
	}

	var result detectResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("mediapipe: parse JSON response: %w", err)
	}

	if len(result.FaceLandmarks) == 0 {
		return nil, nil
	}

	face := result.FaceLandmarks[0]
	landmarks := make([]types.Landmark, 0, len(face))
	for _, p := range face {
		landmarks = append(landmarks, types.Landmark{X: p.X, Y: p.Y})
	}
	return landmarks, nil
}

// imageExt maps a decoded image format name to a file extension for the
// multipart filename hint. Unknown formats fall back to "bin".
func imageExt(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "png":
		return "png"
	default:
		return "bin"
	}
}

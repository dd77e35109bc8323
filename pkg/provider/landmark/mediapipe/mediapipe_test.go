package mediapipe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/interviewace/interviewace/pkg/provider/landmark"
)

func testImage() landmark.Image {
	return landmark.Image{
		Format: "jpeg",
		Width:  640,
		Height: 480,
		Data:   []byte{0xff, 0xd8, 0xff, 0xe0},
	}
}

func TestNew_RequiresServerURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should return an error")
	}
}

func TestDetect_ParsesLandmarks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("path = %q, want /detect", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image form file: %v", err)
		}
		if got := r.FormValue("max_faces"); got != "1" {
			t.Errorf("max_faces = %q, want %q", got, "1")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"face_landmarks":[[{"x":0.48,"y":0.52},{"x":0.55,"y":0.5}]]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lm, err := c.Detect(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(lm) != 2 {
		t.Fatalf("len(landmarks) = %d, want 2", len(lm))
	}
	if lm[0].X != 0.48 || lm[0].Y != 0.52 {
		t.Errorf("landmarks[0] = %+v, want {0.48 0.52}", lm[0])
	}
}

func TestDetect_NoFaceReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"face_landmarks":[]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lm, err := c.Detect(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(lm) != 0 {
		t.Errorf("len(landmarks) = %d, want 0", len(lm))
	}
}

func TestDetect_ServerErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Detect(context.Background(), testImage()); err == nil {
		t.Fatal("Detect should fail on HTTP 500")
	}
}

func TestDetect_MalformedJSONIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"face_landmarks": [`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.Detect(context.Background(), testImage()); err == nil {
		t.Fatal("Detect should fail on malformed JSON")
	}
}

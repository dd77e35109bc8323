package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/interviewace/interviewace/internal/feedback"
	"github.com/interviewace/interviewace/internal/transcode"
	llmmock "github.com/interviewace/interviewace/pkg/provider/llm/mock"
	sttmock "github.com/interviewace/interviewace/pkg/provider/stt/mock"
	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/types"
)

// fakeTranscoder writes the upload to a temp WAV, or fails on demand.
type fakeTranscoder struct {
	dir string
	err error
}

func (f *fakeTranscoder) WAV(_ context.Context, r io.Reader) (*transcode.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(f.dir, "out.wav")
	data, _ := io.ReadAll(r)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	return &transcode.Artifact{Path: path}, nil
}

func newTestHandler(t *testing.T, transcriber *sttmock.Transcriber, llmProvider llm.Provider) *Handler {
	t.Helper()
	cfg := coachDefaults()
	coach := feedback.New(llmProvider)
	h := NewHandler(
		&fakeTranscoder{dir: t.TempDir()},
		transcriber,
		NewCalculator(cfg),
		NewAdvisor(cfg),
		NewNearMissFinder(),
		coach,
	)
	if transcriber == nil {
		h.transcriber = nil
	}
	return h
}

// analyzeRequest builds a multipart POST with the given form fields.
func analyzeRequest(t *testing.T, fields map[string]string, withAudio bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if withAudio {
		fw, err := mw.CreateFormFile("audio", "answer.webm")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("fake-webm-bytes"))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze_interview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) types.AnalysisReport {
	t.Helper()
	var report types.AnalysisReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return report
}

func TestAnalyzeSuccess(t *testing.T) {
	transcriber := &sttmock.Transcriber{Text: "um I have experience and skills"}
	h := newTestHandler(t, transcriber, nil)

	req := analyzeRequest(t, map[string]string{
		"duration": "10",
		"question": "Tell me about yourself.",
	}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	report := decodeReport(t, rec)

	if report.Transcript != "um I have experience and skills" {
		t.Errorf("transcript = %q", report.Transcript)
	}
	if report.FillerWordCount != 1 {
		t.Errorf("filler count = %d, want 1", report.FillerWordCount)
	}
	if report.WordsPerMinute != 36 { // 6 words over 10s
		t.Errorf("wpm = %v, want 36", report.WordsPerMinute)
	}
	if len(report.Suggestions) != 3 {
		t.Errorf("suggestions = %v, want 3 entries", report.Suggestions)
	}
	if report.KeywordNearMisses == nil {
		t.Error("keyword_near_misses should be [] not null")
	}
	// No LLM configured: generative fields fall back to sentinels.
	if report.QAAlignment != feedback.AlignmentUnavailable {
		t.Errorf("qa_alignment_feedback = %q", report.QAAlignment)
	}
	if report.Summary != feedback.SummaryUnavailable {
		t.Errorf("abstractive_summary = %q", report.Summary)
	}

	if len(transcriber.TranscribeCalls) != 1 {
		t.Errorf("transcriber called %d times, want 1", len(transcriber.TranscribeCalls))
	}
}

func TestAnalyzeWireNames(t *testing.T) {
	h := newTestHandler(t, &sttmock.Transcriber{Text: "hello"}, nil)

	req := analyzeRequest(t, map[string]string{"duration": "5"}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{
		"transcript", "filler_words_count", "wpm", "content_relevance_score",
		"suggestions", "keyword_near_misses", "qa_alignment_feedback", "abstractive_summary",
	} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response missing wire field %q", key)
		}
	}
}

func TestAnalyzeMissingAudio(t *testing.T) {
	h := newTestHandler(t, &sttmock.Transcriber{}, nil)

	req := analyzeRequest(t, map[string]string{"duration": "10"}, false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error != "no audio file provided" {
		t.Errorf("error = %q", env.Error)
	}
}

func TestAnalyzeDurationValidation(t *testing.T) {
	h := newTestHandler(t, &sttmock.Transcriber{}, nil)

	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"missing", map[string]string{}},
		{"not a number", map[string]string{"duration": "fast"}},
		{"zero", map[string]string{"duration": "0"}},
		{"negative", map[string]string{"duration": "-3"}},
		{"nan", map[string]string{"duration": "NaN"}},
		{"inf", map[string]string{"duration": "Inf"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := analyzeRequest(t, tc.fields, true)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnalyzeTranscodeFailure(t *testing.T) {
	h := newTestHandler(t, &sttmock.Transcriber{}, nil)
	h.transcoder = &fakeTranscoder{err: transcode.ErrTranscode}

	req := analyzeRequest(t, map[string]string{"duration": "10"}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == "" {
		t.Error("error envelope is empty")
	}
}

func TestAnalyzeNilTranscriberDegrades(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	req := analyzeRequest(t, map[string]string{"duration": "10"}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	report := decodeReport(t, rec)
	if report.Transcript != TranscriptServiceUnavailable {
		t.Errorf("transcript = %q, want sentinel", report.Transcript)
	}
	if len(report.Suggestions) != 3 {
		t.Errorf("suggestions = %v, want 3 entries", report.Suggestions)
	}
}

func TestAnalyzeTranscriberErrorDegrades(t *testing.T) {
	h := newTestHandler(t, &sttmock.Transcriber{Err: errors.New("server down")}, nil)

	req := analyzeRequest(t, map[string]string{"duration": "10"}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if report := decodeReport(t, rec); report.Transcript != TranscriptServiceUnavailable {
		t.Errorf("transcript = %q, want sentinel", report.Transcript)
	}
}

func TestAnalyzeEmptyTranscriptSentinel(t *testing.T) {
	h := newTestHandler(t, &sttmock.Transcriber{Text: ""}, nil)

	req := analyzeRequest(t, map[string]string{"duration": "10"}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if report := decodeReport(t, rec); report.Transcript != TranscriptNotUnderstood {
		t.Errorf("transcript = %q, want %q", report.Transcript, TranscriptNotUnderstood)
	}
}

func TestAnalyzeGenerativeFeedback(t *testing.T) {
	p := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Well structured answer."},
	}
	h := newTestHandler(t, &sttmock.Transcriber{Text: "I have experience."}, p)

	req := analyzeRequest(t, map[string]string{
		"duration":        "10",
		"question":        "Why us?",
		"job_description": "Site reliability engineer",
	}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	report := decodeReport(t, rec)
	if report.QAAlignment != "Well structured answer." {
		t.Errorf("qa_alignment_feedback = %q", report.QAAlignment)
	}
	if report.Summary != "Well structured answer." {
		t.Errorf("abstractive_summary = %q", report.Summary)
	}

	// One call for alignment, one for summary.
	if len(p.CompleteCalls) != 2 {
		t.Fatalf("LLM called %d times, want 2", len(p.CompleteCalls))
	}
	alignPrompt := p.CompleteCalls[0].Req.Messages[0].Content
	if !strings.Contains(alignPrompt, "Site reliability engineer") {
		t.Errorf("alignment prompt missing job description: %q", alignPrompt)
	}
}

func TestAnalyzeDefaultQuestion(t *testing.T) {
	p := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "fine"},
	}
	h := newTestHandler(t, &sttmock.Transcriber{Text: "answer text"}, p)

	req := analyzeRequest(t, map[string]string{"duration": "10"}, true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	alignPrompt := p.CompleteCalls[0].Req.Messages[0].Content
	if !strings.Contains(alignPrompt, "No question provided.") {
		t.Errorf("alignment prompt missing default question: %q", alignPrompt)
	}
}

package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/interviewace/interviewace/pkg/provider/llm"
	llmmock "github.com/interviewace/interviewace/pkg/provider/llm/mock"
	sttmock "github.com/interviewace/interviewace/pkg/provider/stt/mock"
)

type fakeService struct {
	name  string
	err   error
	calls int
}

func (s *fakeService) call() error {
	s.calls++
	return s.err
}

func TestGroup_PrimarySuccess(t *testing.T) {
	primary := &fakeService{name: "primary"}
	backup := &fakeService{name: "backup"}

	g := NewGroup[*fakeService]("primary", primary)
	g.Add("backup", backup)

	if err := g.Do(func(s *fakeService) error { return s.call() }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 1 || backup.calls != 0 {
		t.Fatalf("calls = %d/%d, want 1/0", primary.calls, backup.calls)
	}
}

func TestGroup_FailsOverToBackup(t *testing.T) {
	primary := &fakeService{name: "primary", err: errBoom}
	backup := &fakeService{name: "backup"}

	g := NewGroup[*fakeService]("primary", primary)
	g.Add("backup", backup)

	if err := g.Do(func(s *fakeService) error { return s.call() }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", primary.calls, backup.calls)
	}
}

func TestGroup_AllFail(t *testing.T) {
	primary := &fakeService{name: "primary", err: errBoom}
	backup := &fakeService{name: "backup", err: errBoom}

	g := NewGroup[*fakeService]("primary", primary)
	g.Add("backup", backup)

	err := g.Do(func(s *fakeService) error { return s.call() })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestGroup_SkipsOpenBreaker(t *testing.T) {
	primary := &fakeService{name: "primary", err: errBoom}
	backup := &fakeService{name: "backup"}

	g := NewGroup[*fakeService]("primary", primary, WithMaxFailures(2))
	g.Add("backup", backup)

	// Trip the primary's breaker.
	for i := 0; i < 2; i++ {
		if err := g.Do(func(s *fakeService) error { return s.call() }); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
	}
	if primary.calls != 2 {
		t.Fatalf("primary calls = %d, want 2", primary.calls)
	}

	// With the breaker open the primary is bypassed entirely.
	if err := g.Do(func(s *fakeService) error { return s.call() }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 2 {
		t.Fatalf("primary calls after open = %d, want 2", primary.calls)
	}
	if backup.calls != 3 {
		t.Fatalf("backup calls = %d, want 3", backup.calls)
	}
}

func TestDoWithResult_ReturnsFirstSuccess(t *testing.T) {
	g := NewGroup[string]("a", "value-a")
	g.Add("b", "value-b")

	got, err := DoWithResult(g, func(v string) (string, error) {
		if v == "value-a" {
			return "", errBoom
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "value-b" {
		t.Fatalf("result = %q, want %q", got, "value-b")
	}
}

func TestLLMFallback_FailsOver(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errBoom}
	backup := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from backup"},
	}

	fb := NewLLMFallback("primary", primary)
	fb.Add("backup", backup)

	resp, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from backup" {
		t.Fatalf("content = %q, want %q", resp.Content, "from backup")
	}
	if len(primary.CompleteCalls) != 1 {
		t.Fatalf("primary calls = %d, want 1", len(primary.CompleteCalls))
	}
}

func TestLLMFallback_AllFail(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errBoom}
	fb := NewLLMFallback("primary", primary)

	_, err := fb.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestSTTFallback_FailsOver(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errBoom}
	backup := &sttmock.Transcriber{Text: "hello world"}

	fb := NewSTTFallback("primary", primary)
	fb.Add("backup", backup)

	text, err := fb.Transcribe(context.Background(), "/tmp/answer.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q, want %q", text, "hello world")
	}
	if len(backup.TranscribeCalls) != 1 {
		t.Fatalf("backup calls = %d, want 1", len(backup.TranscribeCalls))
	}
	if got := backup.TranscribeCalls[0].WAVPath; got != "/tmp/answer.wav" {
		t.Fatalf("wav path = %q", got)
	}
}

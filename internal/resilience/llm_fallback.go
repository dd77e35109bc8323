package resilience

import (
	"context"

	"github.com/interviewace/interviewace/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with automatic failover across
// multiple LLM backends. Each backend sits behind its own breaker; when the
// primary fails or its breaker is open, the next healthy fallback is tried.
type LLMFallback struct {
	group *Group[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred
// backend.
func NewLLMFallback(primaryName string, primary llm.Provider, opts ...BreakerOption) *LLMFallback {
	return &LLMFallback{group: NewGroup(primaryName, primary, opts...)}
}

// Add registers an additional LLM backend as a fallback.
func (f *LLMFallback) Add(name string, provider llm.Provider) {
	f.group.Add(name, provider)
}

// Complete sends the request to the first healthy backend and returns its
// response.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return DoWithResult(f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider to feed controlled completions (or errors) and inspect the
// requests callers built.
//
// Example:
//
//	m := &mock.Provider{
//	    CompleteResponse: &llm.CompletionResponse{Content: "Well structured answer."},
//	}
//	resp, _ := m.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/interviewace/interviewace/pkg/provider/llm"
)

// CompleteCall records a single invocation of Provider.Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the request passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider. Set the response fields
// before use; mutating them during a concurrent call is the caller's
// responsibility.
type Provider struct {
	mu sync.Mutex

	// CompleteResponse is returned by Complete when CompleteErr is nil.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr, if non-nil, is returned as the error from Complete.
	CompleteErr error

	// CompleteCalls records every call to Complete in order.
	CompleteCalls []CompleteCall
}

// Complete records the call and returns the configured response or error.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	return p.CompleteResponse, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = nil
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)

// Package feedback produces generative coaching feedback from an answer
// transcript via an LLM provider. Feedback is strictly best-effort: every
// failure mode degrades to a fixed fallback sentence so the deterministic
// analysis result is never blocked or discarded because a model call failed.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/types"
)

// Fallback texts returned whenever generative feedback cannot be produced.
const (
	AlignmentUnavailable = "Answer alignment feedback is currently unavailable."
	SummaryUnavailable   = "Summary feedback is currently unavailable."
)

const (
	defaultTimeout   = 20 * time.Second
	defaultMaxTokens = 512

	alignmentSystemPrompt = "You are an interview coach. Assess how well the candidate's answer addresses the interview question. Be specific and constructive, in at most four sentences."
	summarySystemPrompt   = "You are an interview coach. Summarise the candidate's answer in two or three sentences, highlighting the strongest point and one improvement."
)

// Coach produces generative feedback. A nil provider is valid and yields the
// fallback texts, which lets the server run with no LLM configured.
type Coach struct {
	provider llm.Provider
	timeout  time.Duration
	log      *slog.Logger
}

// Option is a functional option for Coach.
type Option func(*Coach)

// WithTimeout caps each model call. Default: 20s.
func WithTimeout(d time.Duration) Option {
	return func(c *Coach) { c.timeout = d }
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coach) { c.log = log }
}

// New constructs a Coach. provider may be nil.
func New(provider llm.Provider, opts ...Option) *Coach {
	c := &Coach{
		provider: provider,
		timeout:  defaultTimeout,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Alignment assesses how well the transcript answers the question. The job
// description, when present, is folded into the prompt as additional context.
// Never returns an error; on any failure the fallback text comes back.
func (c *Coach) Alignment(ctx context.Context, question, jobDescription, transcript string) string {
	if question == "" || strings.TrimSpace(transcript) == "" {
		return AlignmentUnavailable
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Interview question: %s\n\n", question)
	if jobDescription != "" {
		fmt.Fprintf(&prompt, "Job description: %s\n\n", jobDescription)
	}
	fmt.Fprintf(&prompt, "Candidate's answer: %s", transcript)

	return c.complete(ctx, "alignment", alignmentSystemPrompt, prompt.String(), AlignmentUnavailable)
}

// Summary produces an abstractive summary of the transcript. Never returns
// an error; on any failure the fallback text comes back.
func (c *Coach) Summary(ctx context.Context, transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return SummaryUnavailable
	}
	return c.complete(ctx, "summary", summarySystemPrompt, "Candidate's answer: "+transcript, SummaryUnavailable)
}

// complete runs one model call and maps every failure to fallback.
func (c *Coach) complete(ctx context.Context, kind, system, prompt, fallback string) string {
	if c.provider == nil {
		return fallback
	}
	if strings.TrimSpace(prompt) == "" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages: []types.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		c.log.Warn("generative feedback degraded", "kind", kind, "error", err)
		return fallback
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		c.log.Warn("generative feedback empty", "kind", kind)
		return fallback
	}
	return strings.TrimSpace(resp.Content)
}

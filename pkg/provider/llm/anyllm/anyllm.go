// Package anyllm adapts github.com/mozilla-ai/any-llm-go to the llm.Provider
// interface, giving the feedback coach access to every backend that library
// supports through a single provider name string.
package anyllm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/types"
)

// backendFactories maps provider names to any-llm-go constructors. Without an
// explicit API key option each backend reads its usual environment variable
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, and so on).
var backendFactories = map[string]func(...anyllmlib.Option) (anyllmlib.Provider, error){
	"openai":    asFactory(anyllmoai.New),
	"anthropic": asFactory(anthropic.New),
	"gemini":    asFactory(gemini.New),
	"ollama":    asFactory(ollama.New),
	"deepseek":  asFactory(deepseek.New),
	"mistral":   asFactory(mistral.New),
	"groq":      asFactory(groq.New),
	"llamacpp":  asFactory(llamacpp.New),
	"llamafile": asFactory(llamafile.New),
}

// asFactory adapts a backend constructor returning its concrete provider type
// to one returning the anyllmlib.Provider interface.
func asFactory[P anyllmlib.Provider](newFn func(...anyllmlib.Option) (P, error)) func(...anyllmlib.Option) (anyllmlib.Provider, error) {
	return func(opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
		backend, err := newFn(opts...)
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
}

var _ llm.Provider = (*Provider)(nil)

// Provider bridges one any-llm-go backend to the llm.Provider interface.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a Provider for the named backend and model. The name must be a
// key of the supported backend set; opts are passed through to the backend
// constructor (anyllmlib.WithAPIKey, anyllmlib.WithBaseURL).
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, errors.New("anyllm: provider name required")
	}
	if model == "" {
		return nil, errors.New("anyllm: model required")
	}

	factory, ok := backendFactories[strings.ToLower(providerName)]
	if !ok {
		return nil, fmt.Errorf("anyllm: unsupported provider %q; supported: %s",
			providerName, strings.Join(SupportedBackends(), ", "))
	}
	backend, err := factory(opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	return &Provider{backend: backend, model: model}, nil
}

// SupportedBackends returns the recognised provider names in sorted order.
func SupportedBackends() []string {
	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewOllama creates a Provider for a local Ollama server. Without options it
// connects to http://localhost:11434.
func NewOllama(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("ollama", model, opts...)
}

// Complete runs one completion through the wrapped backend.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	messages := make([]anyllmlib.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toBackendMessage(m))
	}

	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: messages,
	}
	if req.Temperature != 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		params.MaxTokens = &mt
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("anyllm: response contained no choices")
	}

	result := &llm.CompletionResponse{
		Content: resp.Choices[0].Message.ContentString(),
	}
	if resp.Usage != nil {
		result.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}

func toBackendMessage(m types.Message) anyllmlib.Message {
	return anyllmlib.Message{Role: m.Role, Content: m.Content}
}

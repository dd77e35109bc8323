// Package openai implements the llm.Provider interface on the OpenAI chat
// completions API using the official Go SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/interviewace/interviewace/pkg/provider/llm"
	"github.com/interviewace/interviewace/pkg/types"
)

var _ llm.Provider = (*Provider)(nil)

// Provider calls the OpenAI chat completions endpoint. Safe for concurrent
// use.
type Provider struct {
	client oai.Client
	model  string
}

type settings struct {
	baseURL      string
	organization string
	timeout      time.Duration
}

// Option customizes the Provider at construction time.
type Option func(*settings)

// WithBaseURL points the client at an OpenAI-compatible endpoint instead of
// the hosted API.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithOrganization sets the organization header on every request.
func WithOrganization(org string) Option {
	return func(s *settings) { s.organization = org }
}

// WithTimeout caps the wall time of a single completion call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// New builds a Provider for the given model. The API key and model are
// required.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai llm: api key required")
	}
	if model == "" {
		return nil, errors.New("openai llm: model required")
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	if s.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(s.organization))
	}
	if s.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: s.timeout}))
	}

	return &Provider{
		client: oai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Complete runs one chat completion and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		converted, err := roleMessage(m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, converted)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai llm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai llm: response contained no choices")
	}

	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func roleMessage(m types.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case "system":
		return oai.SystemMessage(m.Content), nil
	case "user":
		return oai.UserMessage(m.Content), nil
	case "assistant":
		return oai.AssistantMessage(m.Content), nil
	default:
		return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai llm: unsupported message role %q", m.Role)
	}
}

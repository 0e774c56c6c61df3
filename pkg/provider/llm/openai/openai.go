// Package openai provides an LLM provider backed by the official OpenAI SDK.
//
// Unlike the any-llm backed provider it forwards every determinism knob the
// cleaner pins (temperature, top_p, n) and maps [llm.ResponseFormatJSON] onto
// OpenAI's native JSON mode for models that have one. Models without JSON
// mode get the prompt alone; the cleaner's extractor copes with prose.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm"
)

// ErrTruncated is returned when the model stopped at the token limit, which
// leaves a JSON response unterminated.
var ErrTruncated = errors.New("openai: response truncated at token limit")

// Option is a functional option for [New]. Each maps onto one SDK request
// option.
type Option func(*[]option.RequestOption)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *[]option.RequestOption) { *o = append(*o, option.WithBaseURL(url)) }
}

// WithOrganization sends the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return func(o *[]option.RequestOption) { *o = append(*o, option.WithOrganization(org)) }
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(o *[]option.RequestOption) {
		*o = append(*o, option.WithHTTPClient(&http.Client{Timeout: d}))
	}
}

// Provider implements llm.Provider with chat completions.
type Provider struct {
	client oai.Client
	model  string
	caps   llm.ModelCapabilities
}

var _ llm.Provider = (*Provider)(nil)

// New returns a Provider for model. apiKey and model are required.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	switch {
	case apiKey == "":
		return nil, errors.New("openai: apiKey must not be empty")
	case model == "":
		return nil, errors.New("openai: model must not be empty")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, o := range opts {
		o(&reqOpts)
	}
	return &Provider{
		client: oai.NewClient(reqOpts...),
		model:  model,
		caps:   modelCapabilities(model),
	}, nil
}

// Complete sends one chat completion and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	content, err := firstChoice(resp.Choices)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content: content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Capabilities reports the limits of the configured model.
func (p *Provider) Capabilities() llm.ModelCapabilities { return p.caps }

func firstChoice(choices []oai.ChatCompletionChoice) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("openai: empty choices in response")
	}
	c := choices[0]
	switch {
	case c.Message.Refusal != "":
		return "", fmt.Errorf("openai: model refused: %s", c.Message.Refusal)
	case c.FinishReason == "length":
		return "", ErrTruncated
	}
	return c.Message.Content, nil
}

func (p *Provider) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, msg)
	}

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    messages,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.TopP > 0 {
		params.TopP = param.NewOpt(req.TopP)
	}
	if req.CandidateCount > 0 {
		params.N = param.NewOpt(int64(req.CandidateCount))
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.ResponseFormat == llm.ResponseFormatJSON && modelCapabilities(p.model).SupportsJSONMode {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params, nil
}

func convertMessage(m llm.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case "system":
		return oai.SystemMessage(m.Content), nil
	case "user":
		return oai.UserMessage(m.Content), nil
	case "assistant":
		return oai.AssistantMessage(m.Content), nil
	}
	return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unknown message role %q", m.Role)
}

// modelCapabilities knows the OpenAI model families the cleaner is run
// against. JSON mode arrived with gpt-4-turbo; the original gpt-4 and o1-mini
// lack it.
func modelCapabilities(model string) llm.ModelCapabilities {
	caps := llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsJSONMode: true}
	switch m := strings.ToLower(model); {
	case strings.HasPrefix(m, "gpt-4o"):
		caps.MaxOutputTokens = 16_384
	case strings.HasPrefix(m, "gpt-4-turbo"):
	case strings.HasPrefix(m, "gpt-4"):
		caps.ContextWindow, caps.SupportsJSONMode = 8_192, false
	case strings.HasPrefix(m, "gpt-3.5-turbo"):
		caps.ContextWindow = 16_385
	case strings.HasPrefix(m, "o1-mini"):
		caps.MaxOutputTokens, caps.SupportsJSONMode = 65_536, false
	case strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		caps.ContextWindow, caps.MaxOutputTokens = 200_000, 100_000
	}
	return caps
}

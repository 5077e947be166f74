package provider

import (
	"context"

	"github.com/harun/oracle/pkg/session"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	xaiOpenAIBaseURL    = "https://api.x.ai/v1"
)

// OpenAIProvider implements Provider over the chat completions API. Gemini
// and xAI are served by the same adapter through their OpenAI compatible
// endpoints.
type OpenAIProvider struct {
	client openai.Client
	family Family
}

// NewOpenAIProvider creates a provider for family. An empty baseURL selects
// the family default.
func NewOpenAIProvider(family Family, apiKey, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		switch family {
		case FamilyGemini:
			baseURL = geminiOpenAIBaseURL
		case FamilyXAI:
			baseURL = xaiOpenAIBaseURL
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		family: family,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return string(p.family)
}

// Submit sends the system and user messages and returns the first choice.
func (p *OpenAIProvider) Submit(ctx context.Context, req Request) (*Response, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.UserMessage()))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.APIModel),
		Messages: messages,
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	if req.ReasoningEffort != "" && p.family == FamilyOpenAI {
		params.ReasoningEffort = shared.ReasoningEffort(req.ReasoningEffort)
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, ToTransportError(err, req.Model)
	}
	if len(response.Choices) == 0 {
		return nil, &TransportError{Reason: ReasonAPIError, Model: req.Model, Msg: req.Model + " returned no choices"}
	}

	return &Response{
		AnswerText: response.Choices[0].Message.Content,
		Usage: session.Usage{
			InputTokens:     int(response.Usage.PromptTokens),
			OutputTokens:    int(response.Usage.CompletionTokens),
			ReasoningTokens: int(response.Usage.CompletionTokensDetails.ReasoningTokens),
			TotalTokens:     int(response.Usage.TotalTokens),
		},
	}, nil
}

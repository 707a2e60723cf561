package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatCompletions calls an OpenAI-compatible chat completions endpoint.
type ChatCompletions struct {
	name   string
	client openai.Client
}

// NewChatCompletions builds a provider client. The API key is supplied per request because
// every page carries its own.
func NewChatCompletions(name, baseURL string, httpClient *http.Client) *ChatCompletions {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &ChatCompletions{name: name, client: client}
}

func (c *ChatCompletions) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", &ProviderError{Provider: c.name, Err: errors.New("api key is not configured")}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(req.Message),
		},
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(MaxTokens),
	}, option.WithAPIKey(req.APIKey))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ProviderError{Provider: c.name, Status: apiErr.StatusCode, Err: err}
		}
		return "", &ProviderError{Provider: c.name, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: c.name, Err: errors.New("provider returned no choices")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

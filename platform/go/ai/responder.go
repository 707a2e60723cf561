// Package ai adapts chat-completion providers to a single Responder contract.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zenGate-Global/pagebot/platform/go/metrics"
)

const (
	ProviderOpenAI  = "openai"
	ProviderMistral = "mistral"
	ProviderClaude  = "claude"

	DefaultInstructions = "You are a helpful assistant."
	DefaultTemperature  = 0.7
	MaxTokens           = 150

	DefaultOpenAIBaseURL  = "https://api.openai.com/v1/"
	DefaultMistralBaseURL = "https://api.mistral.ai/v1/"
)

// Request is one reply generation for an inbound message.
type Request struct {
	Provider     string
	Model        string
	Instructions string
	Tone         string
	Style        string
	Temperature  float64
	APIKey       string
	Message      string
}

// Responder produces a reply for a message.
type Responder interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderError reports a failed provider call. Status is zero for transport failures.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Config holds the endpoints and timeout shared by every provider.
type Config struct {
	OpenAIBaseURL  string
	MistralBaseURL string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// Registry selects a Responder by provider name. It is itself a Responder that dispatches on
// Request.Provider.
type Registry struct {
	providers map[string]Responder
}

// NewRegistry wires the OpenAI-compatible providers. Unknown providers resolve to NotImplemented.
func NewRegistry(cfg Config) *Registry {
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = DefaultOpenAIBaseURL
	}
	if cfg.MistralBaseURL == "" {
		cfg.MistralBaseURL = DefaultMistralBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Registry{
		providers: map[string]Responder{
			ProviderOpenAI:  NewChatCompletions(ProviderOpenAI, cfg.OpenAIBaseURL, httpClient),
			ProviderMistral: NewChatCompletions(ProviderMistral, cfg.MistralBaseURL, httpClient),
		},
	}
}

// Register replaces or adds a provider.
func (r *Registry) Register(name string, responder Responder) {
	r.providers[normalizeProvider(name)] = responder
}

// For returns the Responder for provider.
func (r *Registry) For(provider string) Responder {
	name := normalizeProvider(provider)
	if responder, ok := r.providers[name]; ok {
		return responder
	}
	return NotImplemented{Provider: name}
}

// Generate applies defaults and calls the provider named in req.
func (r *Registry) Generate(ctx context.Context, req Request) (string, error) {
	req = withDefaults(req)

	started := time.Now()
	reply, err := r.For(req.Provider).Generate(ctx, req)
	metrics.ObserveAICall(normalizeProvider(req.Provider), started, err)
	return reply, err
}

func withDefaults(req Request) Request {
	if strings.TrimSpace(req.Instructions) == "" {
		req.Instructions = DefaultInstructions
	}
	if req.Temperature == 0 {
		req.Temperature = DefaultTemperature
	}
	return req
}

// systemPrompt folds the optional tone and style hints into the instructions.
func systemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(req.Instructions)
	if tone := strings.TrimSpace(req.Tone); tone != "" {
		b.WriteString("\nTone: ")
		b.WriteString(tone)
	}
	if style := strings.TrimSpace(req.Style); style != "" {
		b.WriteString("\nStyle: ")
		b.WriteString(style)
	}
	return b.String()
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var _ Responder = (*Registry)(nil)

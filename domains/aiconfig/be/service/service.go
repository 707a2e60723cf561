package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/pagebot/domains/aiconfig/be/repo"
	"github.com/zenGate-Global/pagebot/platform/go/ai"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Config is the AI fallback configuration of a page. The API key never leaves the service.
type Config struct {
	ID           uuid.UUID
	PageID       string
	Provider     string
	Model        string
	Temperature  float64
	Instructions *string
	Tone         *string
	Style        *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertInput creates or replaces a page's configuration.
type UpsertInput struct {
	PageID       string
	Provider     string
	APIKey       string
	Model        string
	Temperature  *float64
	Instructions *string
	Tone         *string
	Style        *string
	IsActive     *bool
}

// TestResult is the outcome of a one-off generation against the page's active configuration.
type TestResult struct {
	Success  bool
	Response string
	Provider string
	Model    string
	Message  string
	Error    string
}

// Generator produces AI replies. *ai.Registry satisfies it.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (string, error)
}

// Service exposes the AI configuration operations. Every call is scoped to one tenant.
type Service interface {
	Get(ctx context.Context, scope tenant.Scope, pageID string) (*Config, error)
	Upsert(ctx context.Context, scope tenant.Scope, input UpsertInput) (Config, error)
	Test(ctx context.Context, scope tenant.Scope, pageID, message string) (TestResult, error)
}

type service struct {
	repo      domainrepo.Repository
	generator Generator
}

// New builds an AI configuration Service.
func New(repo domainrepo.Repository, generator Generator) Service {
	return &service{repo: repo, generator: generator}
}

// Get returns nil without error when the page has no configuration.
func (s *service) Get(ctx context.Context, scope tenant.Scope, pageID string) (*Config, error) {
	record, err := s.repo.Get(ctx, scope.TenantID, strings.TrimSpace(pageID))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	cfg := mapConfig(record)
	return &cfg, nil
}

func (s *service) Upsert(ctx context.Context, scope tenant.Scope, input UpsertInput) (Config, error) {
	errs := FieldErrors{}
	pageID := required(errs, "pageId", input.PageID)
	provider := strings.ToLower(required(errs, "provider", input.Provider))
	apiKey := required(errs, "apiKey", input.APIKey)
	model := required(errs, "model", input.Model)

	temperature := ai.DefaultTemperature
	if input.Temperature != nil && *input.Temperature != 0 {
		temperature = *input.Temperature
	}
	if temperature < 0 || temperature > 2 {
		errs.add("temperature", "temperature must be between 0 and 2")
	}
	if len(errs) > 0 {
		return Config{}, &ValidationError{Fields: errs}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	record, err := s.repo.Upsert(ctx, persistence.UpsertAIConfigParams{
		ConfigID:     uuid.New(),
		TenantID:     scope.TenantID,
		PageID:       pageID,
		Provider:     provider,
		APIKey:       apiKey,
		Model:        model,
		Temperature:  temperature,
		Instructions: trimmedOrNil(input.Instructions),
		Tone:         trimmedOrNil(input.Tone),
		Style:        trimmedOrNil(input.Style),
		IsActive:     isActive,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrPageNotConnected) {
			return Config{}, &ValidationError{Fields: FieldErrors{"pageId": {"page is not connected"}}}
		}
		return Config{}, err
	}
	return mapConfig(record), nil
}

// Test generates a reply with the page's active configuration. Provider failures are reported
// in the result, not as an error.
func (s *service) Test(ctx context.Context, scope tenant.Scope, pageID, message string) (TestResult, error) {
	errs := FieldErrors{}
	pageID = required(errs, "pageId", pageID)
	message = required(errs, "testMessage", message)
	if len(errs) > 0 {
		return TestResult{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.GetActive(ctx, scope.TenantID, pageID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return TestResult{Message: "No active AI configuration found for this page"}, nil
		}
		return TestResult{}, err
	}

	reply, err := s.generator.Generate(ctx, ai.RequestFor(record, message))
	if err != nil {
		return TestResult{
			Provider: record.Provider,
			Model:    record.Model,
			Message:  "AI reply generation failed",
			Error:    err.Error(),
		}, nil
	}

	return TestResult{Success: true, Response: reply, Provider: record.Provider, Model: record.Model}, nil
}

func required(errs FieldErrors, field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.add(field, field+" is required")
	}
	return value
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapConfig(record persistence.AIConfig) Config {
	return Config{
		ID:           record.ConfigID,
		PageID:       record.PageID,
		Provider:     record.Provider,
		Model:        record.Model,
		Temperature:  record.Temperature,
		Instructions: record.Instructions,
		Tone:         record.Tone,
		Style:        record.Style,
		IsActive:     record.IsActive,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

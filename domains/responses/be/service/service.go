package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/domains/responses/be/matching"
	domainrepo "github.com/zenGate-Global/pagebot/domains/responses/be/repo"
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

// ErrNotFound is returned for rules that are absent or owned by another tenant.
var ErrNotFound = errors.New("response rule not found")

// DefaultPriority applies when a rule is saved without a priority.
const DefaultPriority = 1

// Rule is a keyword-to-response mapping of one page.
type Rule struct {
	ID        uuid.UUID
	PageID    string
	Keyword   string
	Response  string
	Priority  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput is the payload for a new rule.
type CreateInput struct {
	PageID   string
	Keyword  string
	Response string
	Priority *int
	IsActive *bool
}

// UpdateInput replaces a rule's mutable fields.
type UpdateInput struct {
	Keyword  string
	Response string
	Priority *int
	IsActive *bool
}

// TestResult is the dry-run outcome of matching a message against a page's rules.
type TestResult struct {
	Found bool
	Rule  Rule
}

// Service exposes the responses domain operations. Every call is scoped to one tenant.
type Service interface {
	List(ctx context.Context, scope tenant.Scope, pageID string) ([]Rule, error)
	Create(ctx context.Context, scope tenant.Scope, input CreateInput) (Rule, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, input UpdateInput) (Rule, error)
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
	Test(ctx context.Context, scope tenant.Scope, pageID, message string) (TestResult, error)
}

type service struct {
	repo domainrepo.Repository
}

// New builds a responses Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, scope tenant.Scope, pageID string) ([]Rule, error) {
	records, err := s.repo.List(ctx, scope.TenantID, strings.TrimSpace(pageID))
	if err != nil {
		return nil, err
	}
	return mapRules(records), nil
}

func (s *service) Create(ctx context.Context, scope tenant.Scope, input CreateInput) (Rule, error) {
	errs := FieldErrors{}
	pageID := strings.TrimSpace(input.PageID)
	if pageID == "" {
		errs.add("pageId", "pageId is required")
	}
	keyword, response := validateText(errs, input.Keyword, input.Response)
	priority := priorityOr(input.Priority)
	if len(errs) > 0 {
		return Rule{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.Create(ctx, persistence.CreateRuleParams{
		RuleID:   uuid.New(),
		TenantID: scope.TenantID,
		PageID:   pageID,
		Keyword:  keyword,
		Response: response,
		Priority: priority,
		IsActive: boolOr(input.IsActive, true),
	})
	if err != nil {
		if errors.Is(err, persistence.ErrPageNotConnected) {
			return Rule{}, &ValidationError{Fields: FieldErrors{"pageId": {"page is not connected"}}}
		}
		return Rule{}, err
	}
	return mapRule(record), nil
}

func (s *service) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, input UpdateInput) (Rule, error) {
	if id == uuid.Nil {
		return Rule{}, ErrNotFound
	}

	errs := FieldErrors{}
	keyword, response := validateText(errs, input.Keyword, input.Response)
	priority := priorityOr(input.Priority)
	if len(errs) > 0 {
		return Rule{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.Update(ctx, scope.TenantID, id, persistence.UpdateRuleParams{
		Keyword:  keyword,
		Response: response,
		Priority: priority,
		IsActive: boolOr(input.IsActive, true),
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return mapRule(record), nil
}

func (s *service) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, scope.TenantID, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Test runs the same selection the webhook router uses, without recording or sending.
func (s *service) Test(ctx context.Context, scope tenant.Scope, pageID, message string) (TestResult, error) {
	errs := FieldErrors{}
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		errs.add("pageId", "pageId is required")
	}
	if strings.TrimSpace(message) == "" {
		errs.add("testMessage", "testMessage is required")
	}
	if len(errs) > 0 {
		return TestResult{}, &ValidationError{Fields: errs}
	}

	rules, err := s.repo.ListActive(ctx, scope.TenantID, pageID)
	if err != nil {
		return TestResult{}, err
	}

	rule, ok := matching.SelectRule(rules, message)
	if !ok {
		return TestResult{}, nil
	}
	return TestResult{Found: true, Rule: mapRule(rule)}, nil
}

func validateText(errs FieldErrors, keyword, response string) (string, string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		errs.add("keyword", "keyword is required")
	}
	response = strings.TrimSpace(response)
	if response == "" {
		errs.add("response", "response is required")
	}
	return keyword, response
}

// priorityOr accepts any integer; negative values rank a rule below the default.
func priorityOr(priority *int) int {
	if priority == nil {
		return DefaultPriority
	}
	return *priority
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func mapRules(records []persistence.ResponseRule) []Rule {
	rules := make([]Rule, 0, len(records))
	for _, record := range records {
		rules = append(rules, mapRule(record))
	}
	return rules
}

func mapRule(record persistence.ResponseRule) Rule {
	return Rule{
		ID:        record.RuleID,
		PageID:    record.PageID,
		Keyword:   record.Keyword,
		Response:  record.Response,
		Priority:  record.Priority,
		IsActive:  record.IsActive,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

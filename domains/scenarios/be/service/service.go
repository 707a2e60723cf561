package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/pagebot/domains/scenarios/be/repo"
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

// ErrNotFound is returned for scenarios that are absent or owned by another tenant.
var ErrNotFound = errors.New("scenario not found")

const (
	DefaultTriggerType = "new_message"
	DefaultActionType  = "predefined"
)

// Scenario is stored automation metadata. The message router does not evaluate scenarios.
type Scenario struct {
	ID           uuid.UUID
	PageID       string
	Name         string
	Description  *string
	TriggerType  string
	TriggerValue *string
	ActionType   string
	ActionValue  *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Input carries the mutable scenario fields. PageID is only read on create.
type Input struct {
	PageID       string
	Name         string
	Description  *string
	TriggerType  string
	TriggerValue *string
	ActionType   string
	ActionValue  *string
	IsActive     *bool
}

// Service exposes the scenarios domain operations.
type Service interface {
	List(ctx context.Context, scope tenant.Scope, pageID string) ([]Scenario, error)
	Create(ctx context.Context, scope tenant.Scope, input Input) (Scenario, error)
	Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, input Input) (Scenario, error)
	Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
}

type service struct {
	repo domainrepo.Repository
}

// New builds a scenarios Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, scope tenant.Scope, pageID string) ([]Scenario, error) {
	records, err := s.repo.List(ctx, scope.TenantID, strings.TrimSpace(pageID))
	if err != nil {
		return nil, err
	}

	scenarios := make([]Scenario, 0, len(records))
	for _, record := range records {
		scenarios = append(scenarios, mapScenario(record))
	}
	return scenarios, nil
}

func (s *service) Create(ctx context.Context, scope tenant.Scope, input Input) (Scenario, error) {
	errs := FieldErrors{}
	pageID := strings.TrimSpace(input.PageID)
	if pageID == "" {
		errs.add("pageId", "pageId is required")
	}
	fields := buildFields(errs, input)
	if len(errs) > 0 {
		return Scenario{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.Create(ctx, uuid.New(), scope.TenantID, pageID, fields)
	if err != nil {
		if errors.Is(err, persistence.ErrPageNotConnected) {
			return Scenario{}, &ValidationError{Fields: FieldErrors{"pageId": {"page is not connected"}}}
		}
		return Scenario{}, err
	}
	return mapScenario(record), nil
}

func (s *service) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, input Input) (Scenario, error) {
	if id == uuid.Nil {
		return Scenario{}, ErrNotFound
	}

	errs := FieldErrors{}
	fields := buildFields(errs, input)
	if len(errs) > 0 {
		return Scenario{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.Update(ctx, scope.TenantID, id, fields)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Scenario{}, ErrNotFound
		}
		return Scenario{}, err
	}
	return mapScenario(record), nil
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

func buildFields(errs FieldErrors, input Input) persistence.ScenarioFields {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs.add("name", "name is required")
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	return persistence.ScenarioFields{
		Name:         name,
		Description:  input.Description,
		TriggerType:  orDefault(input.TriggerType, DefaultTriggerType),
		TriggerValue: input.TriggerValue,
		ActionType:   orDefault(input.ActionType, DefaultActionType),
		ActionValue:  input.ActionValue,
		IsActive:     isActive,
	}
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

func mapScenario(record persistence.Scenario) Scenario {
	return Scenario{
		ID:           record.ScenarioID,
		PageID:       record.PageID,
		Name:         record.Name,
		Description:  record.Description,
		TriggerType:  record.TriggerType,
		TriggerValue: record.TriggerValue,
		ActionType:   record.ActionType,
		ActionValue:  record.ActionValue,
		IsActive:     record.IsActive,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

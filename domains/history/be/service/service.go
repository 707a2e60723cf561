package service

import (
	"context"
	"strings"
	"time"

	domainrepo "github.com/zenGate-Global/pagebot/domains/history/be/repo"
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

const (
	DefaultLimit = 50
	MaxLimit     = 500

	SummaryWindow = 30 * 24 * time.Hour
	DailyWindow   = 7 * 24 * time.Hour
)

// ListParams selects one window of a page's history. Nil values take the defaults.
type ListParams struct {
	PageID string
	Limit  *int
	Offset *int
}

// Stats aggregates a page's recent history.
type Stats struct {
	Summary persistence.HistorySummary
	Daily   []persistence.DailyCount
}

// Service exposes read access to message history.
type Service interface {
	List(ctx context.Context, scope tenant.Scope, params ListParams) ([]persistence.HistoryRecord, error)
	Stats(ctx context.Context, scope tenant.Scope, pageID string) (Stats, error)
}

type service struct {
	repo domainrepo.Repository
	now  func() time.Time
}

// New builds a history Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) List(ctx context.Context, scope tenant.Scope, params ListParams) ([]persistence.HistoryRecord, error) {
	errs := FieldErrors{}
	pageID := requirePageID(errs, params.PageID)

	limit := DefaultLimit
	if params.Limit != nil {
		limit = *params.Limit
		if limit <= 0 {
			errs.add("limit", "limit must be positive")
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
	}

	offset := 0
	if params.Offset != nil {
		offset = *params.Offset
		if offset < 0 {
			errs.add("offset", "offset must not be negative")
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	return s.repo.List(ctx, scope.TenantID, pageID, limit, offset)
}

func (s *service) Stats(ctx context.Context, scope tenant.Scope, pageID string) (Stats, error) {
	errs := FieldErrors{}
	pageID = requirePageID(errs, pageID)
	if len(errs) > 0 {
		return Stats{}, &ValidationError{Fields: errs}
	}

	now := s.now().UTC()
	summary, err := s.repo.Summarize(ctx, scope.TenantID, pageID, now.Add(-SummaryWindow))
	if err != nil {
		return Stats{}, err
	}
	daily, err := s.repo.Daily(ctx, scope.TenantID, pageID, now.Add(-DailyWindow))
	if err != nil {
		return Stats{}, err
	}

	return Stats{Summary: summary, Daily: daily}, nil
}

func requirePageID(errs FieldErrors, pageID string) string {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		errs.add("pageId", "pageId is required")
	}
	return pageID
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

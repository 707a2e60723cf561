package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/pagebot/domains/pages/be/repo"
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

// ErrNotFound is returned for pages that are absent or owned by another tenant.
var ErrNotFound = errors.New("page not found")

// Page is a connected Facebook Page. The access token is write-only.
type Page struct {
	ID        uuid.UUID
	PageID    string
	PageName  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConnectInput is the connect (upsert) payload.
type ConnectInput struct {
	PageID      string
	PageName    string
	AccessToken string
}

// Service exposes the pages domain operations. Every call is scoped to one tenant.
type Service interface {
	List(ctx context.Context, scope tenant.Scope) ([]Page, error)
	Connect(ctx context.Context, scope tenant.Scope, input ConnectInput) (Page, error)
	Toggle(ctx context.Context, scope tenant.Scope, pageID string, active bool) error
	Delete(ctx context.Context, scope tenant.Scope, pageID string) error
}

type service struct {
	repo domainrepo.Repository
}

// New builds a pages Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, scope tenant.Scope) ([]Page, error) {
	records, err := s.repo.List(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(records))
	for _, record := range records {
		pages = append(pages, mapPage(record))
	}
	return pages, nil
}

func (s *service) Connect(ctx context.Context, scope tenant.Scope, input ConnectInput) (Page, error) {
	errs := FieldErrors{}
	pageID := strings.TrimSpace(input.PageID)
	if pageID == "" {
		errs.add("pageId", "pageId is required")
	}
	pageName := strings.TrimSpace(input.PageName)
	if pageName == "" {
		errs.add("pageName", "pageName is required")
	}
	token := strings.TrimSpace(input.AccessToken)
	if token == "" {
		errs.add("accessToken", "accessToken is required")
	}
	if len(errs) > 0 {
		return Page{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.Connect(ctx, persistence.ConnectPageParams{
		PageUID:     uuid.New(),
		TenantID:    scope.TenantID,
		PageID:      pageID,
		PageName:    pageName,
		AccessToken: token,
	})
	if err != nil {
		return Page{}, err
	}
	return mapPage(record), nil
}

func (s *service) Toggle(ctx context.Context, scope tenant.Scope, pageID string, active bool) error {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return ErrNotFound
	}
	return translate(s.repo.SetActive(ctx, scope.TenantID, pageID, active))
}

func (s *service) Delete(ctx context.Context, scope tenant.Scope, pageID string) error {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return ErrNotFound
	}
	return translate(s.repo.Delete(ctx, scope.TenantID, pageID))
}

func translate(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func mapPage(record persistence.Page) Page {
	return Page{
		ID:        record.PageUID,
		PageID:    record.PageID,
		PageName:  record.PageName,
		IsActive:  record.IsActive,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Page is a Facebook Page connected by a tenant.
type Page struct {
	PageUID     uuid.UUID `db:"page_uid" json:"id"`
	TenantID    uuid.UUID `db:"tenant_id" json:"tenantId"`
	PageID      string    `db:"page_id" json:"pageId"`
	PageName    string    `db:"page_name" json:"pageName"`
	AccessToken string    `db:"access_token" json:"-"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ConnectPageParams is the upsert payload for a page connection.
type ConnectPageParams struct {
	PageUID     uuid.UUID
	TenantID    uuid.UUID
	PageID      string
	PageName    string
	AccessToken string
}

// PageStore provides access to the pages table.
type PageStore struct {
	pool *pgxpool.Pool
}

// NewPageStore creates a store; assumes migrations already created the table.
func NewPageStore(pool *pgxpool.Pool) (*PageStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PageStore{pool: pool}, nil
}

const pageColumns = `page_uid, tenant_id, page_id, page_name, access_token, is_active, created_at, updated_at`

// ListPages returns the tenant's pages, newest first.
func (s *PageStore) ListPages(ctx context.Context, tenantID uuid.UUID) ([]Page, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]Page, 0)
	for rows.Next() {
		page, scanErr := scanPage(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pages = append(pages, page)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}

	return pages, nil
}

// ConnectPage inserts the page or, when (tenant, page id) exists, refreshes its name and
// token and re-activates it.
func (s *PageStore) ConnectPage(ctx context.Context, params ConnectPageParams) (Page, error) {
	if params.PageUID == uuid.Nil {
		params.PageUID = uuid.New()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO pages (page_uid, tenant_id, page_id, page_name, access_token, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		ON CONFLICT (tenant_id, page_id) DO UPDATE
		SET page_name = EXCLUDED.page_name,
		    access_token = EXCLUDED.access_token,
		    is_active = TRUE,
		    updated_at = NOW()
		RETURNING `+pageColumns,
		params.PageUID, params.TenantID, params.PageID, params.PageName, params.AccessToken,
	)

	page, err := scanPage(row)
	if err != nil {
		return Page{}, fmt.Errorf("upsert page: %w", err)
	}
	return page, nil
}

// SetPageActive toggles the active flag of a tenant's page.
func (s *PageStore) SetPageActive(ctx context.Context, tenantID uuid.UUID, pageID string, active bool) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE pages
		SET is_active = $3,
		    updated_at = NOW()
		WHERE tenant_id = $1 AND page_id = $2
	`, tenantID, pageID, active)
	if err != nil {
		return fmt.Errorf("toggle page: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePage removes a tenant's page. Rules, AI configuration and scenarios are removed by
// the ON DELETE CASCADE foreign keys in the same statement.
func (s *PageStore) DeletePage(ctx context.Context, tenantID uuid.UUID, pageID string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM pages WHERE tenant_id = $1 AND page_id = $2`, tenantID, pageID)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindActivePage resolves an external page id to its active connection. When several
// tenants connected the same page, the most recently updated connection wins.
func (s *PageStore) FindActivePage(ctx context.Context, pageID string) (Page, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE page_id = $1 AND is_active = TRUE
		ORDER BY updated_at DESC, page_uid DESC
		LIMIT 1
	`, pageID)

	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, ErrNotFound
		}
		return Page{}, fmt.Errorf("find active page: %w", err)
	}
	return page, nil
}

func scanPage(scanner rowScanner) (Page, error) {
	var p Page
	err := scanner.Scan(&p.PageUID, &p.TenantID, &p.PageID, &p.PageName, &p.AccessToken, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

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

// AIConfig is the per-page AI fallback configuration. At most one exists per (tenant, page).
type AIConfig struct {
	ConfigID     uuid.UUID `db:"config_id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	PageID       string    `db:"page_id"`
	Provider     string    `db:"provider"`
	APIKey       string    `db:"api_key"`
	Model        string    `db:"model"`
	Temperature  float64   `db:"temperature"`
	Instructions *string   `db:"instructions"`
	Tone         *string   `db:"tone"`
	Style        *string   `db:"style"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UpsertAIConfigParams is the create-or-replace payload.
type UpsertAIConfigParams struct {
	ConfigID     uuid.UUID
	TenantID     uuid.UUID
	PageID       string
	Provider     string
	APIKey       string
	Model        string
	Temperature  float64
	Instructions *string
	Tone         *string
	Style        *string
	IsActive     bool
}

// AIConfigStore provides access to the ai_configs table.
type AIConfigStore struct {
	pool *pgxpool.Pool
}

// NewAIConfigStore creates a store; assumes migrations already created the table.
func NewAIConfigStore(pool *pgxpool.Pool) (*AIConfigStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AIConfigStore{pool: pool}, nil
}

const aiConfigColumns = `config_id, tenant_id, page_id, provider, api_key, model, temperature,
	instructions, tone, style, is_active, created_at, updated_at`

// GetAIConfig returns the page's configuration regardless of its active flag.
func (s *AIConfigStore) GetAIConfig(ctx context.Context, tenantID uuid.UUID, pageID string) (AIConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+aiConfigColumns+`
		FROM ai_configs
		WHERE tenant_id = $1 AND page_id = $2
	`, tenantID, pageID)
	return scanOneAIConfig(row)
}

// GetActiveAIConfig returns the page's configuration only when it is active.
func (s *AIConfigStore) GetActiveAIConfig(ctx context.Context, tenantID uuid.UUID, pageID string) (AIConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+aiConfigColumns+`
		FROM ai_configs
		WHERE tenant_id = $1 AND page_id = $2 AND is_active = TRUE
	`, tenantID, pageID)
	return scanOneAIConfig(row)
}

// UpsertAIConfig creates the page's configuration or updates it in place.
func (s *AIConfigStore) UpsertAIConfig(ctx context.Context, params UpsertAIConfigParams) (AIConfig, error) {
	if params.ConfigID == uuid.Nil {
		params.ConfigID = uuid.New()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO ai_configs (
			config_id, tenant_id, page_id, provider, api_key, model, temperature,
			instructions, tone, style, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (tenant_id, page_id) DO UPDATE
		SET provider = EXCLUDED.provider,
		    api_key = EXCLUDED.api_key,
		    model = EXCLUDED.model,
		    temperature = EXCLUDED.temperature,
		    instructions = EXCLUDED.instructions,
		    tone = EXCLUDED.tone,
		    style = EXCLUDED.style,
		    is_active = EXCLUDED.is_active,
		    updated_at = NOW()
		RETURNING `+aiConfigColumns,
		params.ConfigID, params.TenantID, params.PageID, params.Provider, params.APIKey, params.Model,
		params.Temperature, params.Instructions, params.Tone, params.Style, params.IsActive,
	)

	cfg, err := scanAIConfig(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return AIConfig{}, ErrPageNotConnected
		}
		return AIConfig{}, fmt.Errorf("upsert ai config: %w", err)
	}
	return cfg, nil
}

func scanOneAIConfig(row pgx.Row) (AIConfig, error) {
	cfg, err := scanAIConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AIConfig{}, ErrNotFound
		}
		return AIConfig{}, fmt.Errorf("get ai config: %w", err)
	}
	return cfg, nil
}

func scanAIConfig(scanner rowScanner) (AIConfig, error) {
	var c AIConfig
	err := scanner.Scan(
		&c.ConfigID, &c.TenantID, &c.PageID, &c.Provider, &c.APIKey, &c.Model, &c.Temperature,
		&c.Instructions, &c.Tone, &c.Style, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

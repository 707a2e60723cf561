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

// Scenario is administrative automation metadata attached to a page.
type Scenario struct {
	ScenarioID   uuid.UUID `db:"scenario_id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	PageID       string    `db:"page_id"`
	Name         string    `db:"name"`
	Description  *string   `db:"description"`
	TriggerType  string    `db:"trigger_type"`
	TriggerValue *string   `db:"trigger_value"`
	ActionType   string    `db:"action_type"`
	ActionValue  *string   `db:"action_value"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ScenarioFields are the mutable scenario attributes shared by create and update.
type ScenarioFields struct {
	Name         string
	Description  *string
	TriggerType  string
	TriggerValue *string
	ActionType   string
	ActionValue  *string
	IsActive     bool
}

// ScenarioStore provides access to the scenarios table.
type ScenarioStore struct {
	pool *pgxpool.Pool
}

// NewScenarioStore creates a store; assumes migrations already created the table.
func NewScenarioStore(pool *pgxpool.Pool) (*ScenarioStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ScenarioStore{pool: pool}, nil
}

const scenarioColumns = `scenario_id, tenant_id, page_id, name, description, trigger_type,
	trigger_value, action_type, action_value, is_active, created_at, updated_at`

// ListScenarios returns a page's scenarios, newest first.
func (s *ScenarioStore) ListScenarios(ctx context.Context, tenantID uuid.UUID, pageID string) ([]Scenario, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scenarioColumns+`
		FROM scenarios
		WHERE tenant_id = $1 AND page_id = $2
		ORDER BY created_at DESC
	`, tenantID, pageID)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := make([]Scenario, 0)
	for rows.Next() {
		scenario, scanErr := scanScenario(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		scenarios = append(scenarios, scenario)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenarios: %w", err)
	}
	return scenarios, nil
}

// CreateScenario inserts a scenario for a connected page.
func (s *ScenarioStore) CreateScenario(ctx context.Context, scenarioID, tenantID uuid.UUID, pageID string, fields ScenarioFields) (Scenario, error) {
	if scenarioID == uuid.Nil {
		return Scenario{}, errors.New("scenario id is required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO scenarios (
			scenario_id, tenant_id, page_id, name, description, trigger_type,
			trigger_value, action_type, action_value, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING `+scenarioColumns,
		scenarioID, tenantID, pageID, fields.Name, fields.Description, fields.TriggerType,
		fields.TriggerValue, fields.ActionType, fields.ActionValue, fields.IsActive,
	)

	scenario, err := scanScenario(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Scenario{}, ErrPageNotConnected
		}
		return Scenario{}, fmt.Errorf("insert scenario: %w", err)
	}
	return scenario, nil
}

// UpdateScenario replaces the mutable fields of a tenant's scenario.
func (s *ScenarioStore) UpdateScenario(ctx context.Context, tenantID, scenarioID uuid.UUID, fields ScenarioFields) (Scenario, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE scenarios
		SET name = $3,
		    description = $4,
		    trigger_type = $5,
		    trigger_value = $6,
		    action_type = $7,
		    action_value = $8,
		    is_active = $9,
		    updated_at = NOW()
		WHERE scenario_id = $1 AND tenant_id = $2
		RETURNING `+scenarioColumns,
		scenarioID, tenantID, fields.Name, fields.Description, fields.TriggerType,
		fields.TriggerValue, fields.ActionType, fields.ActionValue, fields.IsActive,
	)

	scenario, err := scanScenario(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Scenario{}, ErrNotFound
		}
		return Scenario{}, fmt.Errorf("update scenario: %w", err)
	}
	return scenario, nil
}

// DeleteScenario removes a tenant's scenario.
func (s *ScenarioStore) DeleteScenario(ctx context.Context, tenantID, scenarioID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM scenarios WHERE scenario_id = $1 AND tenant_id = $2`, scenarioID, tenantID)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanScenario(scanner rowScanner) (Scenario, error) {
	var sc Scenario
	err := scanner.Scan(
		&sc.ScenarioID, &sc.TenantID, &sc.PageID, &sc.Name, &sc.Description, &sc.TriggerType,
		&sc.TriggerValue, &sc.ActionType, &sc.ActionValue, &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt,
	)
	return sc, err
}

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

// ResponseRule maps a keyword to a canned reply for one page.
type ResponseRule struct {
	RuleID    uuid.UUID `db:"rule_id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	PageID    string    `db:"page_id"`
	Keyword   string    `db:"keyword"`
	Response  string    `db:"response"`
	Priority  int       `db:"priority"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CreateRuleParams is the insert payload for a response rule.
type CreateRuleParams struct {
	RuleID   uuid.UUID
	TenantID uuid.UUID
	PageID   string
	Keyword  string
	Response string
	Priority int
	IsActive bool
}

// UpdateRuleParams replaces the mutable fields of a rule.
type UpdateRuleParams struct {
	Keyword  string
	Response string
	Priority int
	IsActive bool
}

// RuleStore provides access to the response_rules table.
type RuleStore struct {
	pool *pgxpool.Pool
}

// NewRuleStore creates a store; assumes migrations already created the table.
func NewRuleStore(pool *pgxpool.Pool) (*RuleStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &RuleStore{pool: pool}, nil
}

const ruleColumns = `rule_id, tenant_id, page_id, keyword, response, priority, is_active, created_at, updated_at`

// ListRules returns every rule of a page, priority descending then newest first.
func (s *RuleStore) ListRules(ctx context.Context, tenantID uuid.UUID, pageID string) ([]ResponseRule, error) {
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+`
		FROM response_rules
		WHERE tenant_id = $1 AND page_id = $2
		ORDER BY priority DESC, created_at DESC, rule_id DESC
	`, tenantID, pageID)
}

// ListActiveRules returns the active rules of a page in the same order as ListRules.
func (s *RuleStore) ListActiveRules(ctx context.Context, tenantID uuid.UUID, pageID string) ([]ResponseRule, error) {
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+`
		FROM response_rules
		WHERE tenant_id = $1 AND page_id = $2 AND is_active = TRUE
		ORDER BY priority DESC, created_at DESC, rule_id DESC
	`, tenantID, pageID)
}

// CreateRule inserts a rule. A page the tenant has not connected yields ErrPageNotConnected.
func (s *RuleStore) CreateRule(ctx context.Context, params CreateRuleParams) (ResponseRule, error) {
	if params.RuleID == uuid.Nil {
		return ResponseRule{}, errors.New("rule id is required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO response_rules (rule_id, tenant_id, page_id, keyword, response, priority, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+ruleColumns,
		params.RuleID, params.TenantID, params.PageID, params.Keyword, params.Response, params.Priority, params.IsActive,
	)

	rule, err := scanRule(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ResponseRule{}, ErrPageNotConnected
		}
		return ResponseRule{}, fmt.Errorf("insert response rule: %w", err)
	}
	return rule, nil
}

// UpdateRule replaces the mutable fields of a tenant's rule.
func (s *RuleStore) UpdateRule(ctx context.Context, tenantID, ruleID uuid.UUID, params UpdateRuleParams) (ResponseRule, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE response_rules
		SET keyword = $3,
		    response = $4,
		    priority = $5,
		    is_active = $6,
		    updated_at = NOW()
		WHERE rule_id = $1 AND tenant_id = $2
		RETURNING `+ruleColumns,
		ruleID, tenantID, params.Keyword, params.Response, params.Priority, params.IsActive,
	)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResponseRule{}, ErrNotFound
		}
		return ResponseRule{}, fmt.Errorf("update response rule: %w", err)
	}
	return rule, nil
}

// DeleteRule removes a tenant's rule.
func (s *RuleStore) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM response_rules WHERE rule_id = $1 AND tenant_id = $2`, ruleID, tenantID)
	if err != nil {
		return fmt.Errorf("delete response rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RuleStore) queryRules(ctx context.Context, query string, args ...any) ([]ResponseRule, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list response rules: %w", err)
	}
	defer rows.Close()

	rules := make([]ResponseRule, 0)
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rules = append(rules, rule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate response rules: %w", err)
	}
	return rules, nil
}

func scanRule(scanner rowScanner) (ResponseRule, error) {
	var r ResponseRule
	err := scanner.Scan(&r.RuleID, &r.TenantID, &r.PageID, &r.Keyword, &r.Response, &r.Priority, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

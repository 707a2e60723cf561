package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseType classifies how an inbound message was answered.
type ResponseType string

const (
	ResponseTypePredefined ResponseType = "predefined"
	ResponseTypeAI         ResponseType = "ai"
	ResponseTypeNone       ResponseType = "none"
)

// HistoryRecord is one processed inbound message. Records are never updated.
type HistoryRecord struct {
	MessageID    uuid.UUID    `db:"message_id" json:"id"`
	TenantID     uuid.UUID    `db:"tenant_id" json:"tenantId"`
	PageID       string       `db:"page_id" json:"pageId"`
	SenderID     string       `db:"sender_id" json:"senderId"`
	MessageText  string       `db:"message_text" json:"messageText"`
	ResponseText *string      `db:"response_text" json:"responseText"`
	ResponseType ResponseType `db:"response_type" json:"responseType"`
	ProcessedAt  time.Time    `db:"processed_at" json:"processedAt"`
}

// AppendHistoryParams is the insert payload; ProcessedAt defaults to NOW() when zero.
type AppendHistoryParams struct {
	MessageID    uuid.UUID
	TenantID     uuid.UUID
	PageID       string
	SenderID     string
	MessageText  string
	ResponseText *string
	ResponseType ResponseType
	ProcessedAt  time.Time
}

// HistorySummary aggregates outcomes over a window.
type HistorySummary struct {
	TotalMessages       int64
	PredefinedResponses int64
	AIResponses         int64
	NoResponses         int64
}

// DailyCount is the number of messages processed on one UTC day.
type DailyCount struct {
	Date          time.Time
	MessagesCount int64
}

// HistoryStore provides access to the message_history table.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a store; assumes migrations already created the table.
func NewHistoryStore(pool *pgxpool.Pool) (*HistoryStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &HistoryStore{pool: pool}, nil
}

const historyColumns = `message_id, tenant_id, page_id, sender_id, message_text, response_text, response_type, processed_at`

// AppendHistory inserts one record.
func (s *HistoryStore) AppendHistory(ctx context.Context, params AppendHistoryParams) error {
	if params.MessageID == uuid.Nil {
		params.MessageID = uuid.New()
	}

	var processedAt *time.Time
	if !params.ProcessedAt.IsZero() {
		processedAt = &params.ProcessedAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO message_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	`, params.MessageID, params.TenantID, params.PageID, params.SenderID, params.MessageText,
		params.ResponseText, string(params.ResponseType), processedAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListHistory pages through a page's history, newest first.
func (s *HistoryStore) ListHistory(ctx context.Context, tenantID uuid.UUID, pageID string, limit, offset int) ([]HistoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+historyColumns+`
		FROM message_history
		WHERE tenant_id = $1 AND page_id = $2
		ORDER BY processed_at DESC, message_id DESC
		LIMIT $3 OFFSET $4
	`, tenantID, pageID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]HistoryRecord, 0)
	for rows.Next() {
		record, scanErr := scanHistory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// SummarizeHistory counts a page's outcomes processed at or after since.
func (s *HistoryStore) SummarizeHistory(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (HistorySummary, error) {
	var summary HistorySummary
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE response_type = 'predefined'),
			COUNT(*) FILTER (WHERE response_type = 'ai'),
			COUNT(*) FILTER (WHERE response_type = 'none')
		FROM message_history
		WHERE tenant_id = $1 AND page_id = $2 AND processed_at >= $3
	`, tenantID, pageID, since).Scan(
		&summary.TotalMessages,
		&summary.PredefinedResponses,
		&summary.AIResponses,
		&summary.NoResponses,
	)
	if err != nil {
		return HistorySummary{}, fmt.Errorf("summarize history: %w", err)
	}
	return summary, nil
}

// DailyHistory counts a page's messages per UTC day since the given instant, newest day first.
func (s *HistoryStore) DailyHistory(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) ([]DailyCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT (processed_at AT TIME ZONE 'UTC')::date AS day, COUNT(*)
		FROM message_history
		WHERE tenant_id = $1 AND page_id = $2 AND processed_at >= $3
		GROUP BY day
		ORDER BY day DESC
	`, tenantID, pageID, since)
	if err != nil {
		return nil, fmt.Errorf("daily history: %w", err)
	}
	defer rows.Close()

	counts := make([]DailyCount, 0)
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Date, &c.MessagesCount); err != nil {
			return nil, fmt.Errorf("scan daily history: %w", err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily history: %w", err)
	}
	return counts, nil
}

// EachHistorySince streams a page's records processed at or after since, oldest first.
// Iteration stops at the first error returned by fn.
func (s *HistoryStore) EachHistorySince(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time, fn func(HistoryRecord) error) error {
	rows, err := s.pool.Query(ctx, `
		SELECT `+historyColumns+`
		FROM message_history
		WHERE tenant_id = $1 AND page_id = $2 AND processed_at >= $3
		ORDER BY processed_at ASC, message_id ASC
	`, tenantID, pageID, since)
	if err != nil {
		return fmt.Errorf("stream history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, scanErr := scanHistory(rows)
		if scanErr != nil {
			return scanErr
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanHistory(scanner rowScanner) (HistoryRecord, error) {
	var (
		h            HistoryRecord
		responseType string
	)
	err := scanner.Scan(&h.MessageID, &h.TenantID, &h.PageID, &h.SenderID, &h.MessageText, &h.ResponseText, &responseType, &h.ProcessedAt)
	h.ResponseType = ResponseType(responseType)
	return h, err
}

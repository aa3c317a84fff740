package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nuworks/agentia/internal/models"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) LogOrder(ctx context.Context, entry models.OrderLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Entries == nil {
		entry.Entries = []string{}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO order_logs (id, project_id, company_name, order_date, background_id, avatar_id, bgm_id, script_chars, archive_name, archive_bytes, entries, location)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.ProjectID, entry.CompanyName, entry.OrderDate, entry.BackgroundID, entry.AvatarID,
		entry.BGMID, entry.ScriptChars, entry.ArchiveName, entry.ArchiveBytes, entry.Entries, entry.Location,
	)
	if err != nil {
		return fmt.Errorf("insert order log: %w", err)
	}

	return nil
}

func (s *Service) LogLLMUsage(ctx context.Context, record models.LLMUsageLog) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	metadata := record.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO llm_usage_logs (id, provider, model, status, input_tokens, output_tokens, total_tokens, cost_usd, latency_ms, endpoint, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.Provider, record.Model, record.Status, record.InputTokens, record.OutputTokens,
		record.TotalTokens, record.CostUSD, record.LatencyMs, record.Endpoint, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert LLM usage log: %w", err)
	}

	return nil
}

type OrderQuery struct {
	ProjectID string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// buildOrderQuery appends a filter per set field, numbering placeholders in order.
func buildOrderQuery(q OrderQuery) (string, []any) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	query := `SELECT id, project_id, company_name, order_date, background_id, avatar_id, bgm_id, script_chars, archive_name, archive_bytes, entries, location, created_at
			  FROM order_logs WHERE TRUE`
	var args []any
	argIdx := 1

	if q.ProjectID != "" {
		query += fmt.Sprintf(" AND project_id = $%d", argIdx)
		args = append(args, q.ProjectID)
		argIdx++
	}
	if q.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)
	return query, args
}

func (s *Service) GetOrders(ctx context.Context, q OrderQuery) ([]models.OrderLog, error) {
	query, args := buildOrderQuery(q)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order logs: %w", err)
	}
	defer rows.Close()

	logs := []models.OrderLog{}
	for rows.Next() {
		var l models.OrderLog
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.CompanyName, &l.OrderDate, &l.BackgroundID, &l.AvatarID, &l.BGMID,
			&l.ScriptChars, &l.ArchiveName, &l.ArchiveBytes, &l.Entries, &l.Location, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order logs: %w", err)
	}
	return logs, nil
}

type UsageSummary struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	TotalCalls   int     `json:"total_calls"`
	FailedCalls  int     `json:"failed_calls"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

func (s *Service) GetUsageSummary(ctx context.Context, startDate, endDate *time.Time) ([]UsageSummary, error) {
	query := `SELECT provider, model, COUNT(*) as total_calls,
			         COUNT(*) FILTER (WHERE status <> 'ok') as failed_calls,
			         COALESCE(SUM(total_tokens), 0) as total_tokens,
			         COALESCE(SUM(cost_usd), 0)::float8 as total_cost_usd
			  FROM llm_usage_logs WHERE TRUE`
	var args []any
	argIdx := 1

	if startDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *startDate)
		argIdx++
	}
	if endDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *endDate)
	}

	query += " GROUP BY provider, model ORDER BY total_cost_usd DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	summaries := []UsageSummary{}
	for rows.Next() {
		var us UsageSummary
		if err := rows.Scan(&us.Provider, &us.Model, &us.TotalCalls, &us.FailedCalls, &us.TotalTokens, &us.TotalCostUSD); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, us)
	}
	return summaries, rows.Err()
}

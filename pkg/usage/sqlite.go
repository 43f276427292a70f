package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"storymaster/arbiter/pkg/config"
	"storymaster/arbiter/pkg/routing"
)

// schema is the usage ledger schema, applied on open.
const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id                TEXT PRIMARY KEY,
	request_id        TEXT NOT NULL,
	provider          TEXT NOT NULL,
	model             TEXT NOT NULL,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	cost              REAL NOT NULL DEFAULT 0,
	latency_ms        INTEGER NOT NULL DEFAULT 0,
	outcome           TEXT NOT NULL,
	created_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage_records(provider);
CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage_records(created_at);
`

// Summary aggregates the ledger per provider.
type Summary struct {
	// Provider is the provider identity.
	Provider string `json:"provider"`

	// Requests is the number of recorded outcomes.
	Requests int64 `json:"requests"`

	// Errors is the number of outcomes recorded as "error".
	Errors int64 `json:"errors"`

	// PromptTokens and CompletionTokens are cumulative token counts.
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`

	// TotalCost is the cumulative cost in dollars.
	TotalCost float64 `json:"total_cost"`

	// AverageLatencyMS is the mean recorded latency.
	AverageLatencyMS float64 `json:"average_latency_ms"`
}

// Ledger is the SQLite-backed usage store.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

var _ routing.UsageRecorder = (*Ledger)(nil)

// NewLedger opens (or creates) the ledger database at cfg.SQLitePath and
// applies the schema.
func NewLedger(cfg config.UsageConfig, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage ledger %q: %w", cfg.SQLitePath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply usage schema: %w", err)
	}

	logger.Info("usage ledger opened", "path", cfg.SQLitePath)

	return &Ledger{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

// RecordChat implements routing.UsageRecorder.
func (l *Ledger) RecordChat(ctx context.Context, rec routing.ChatUsage) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage_records (
			id, request_id, provider, model,
			prompt_tokens, completion_tokens, cost, latency_ms,
			outcome, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		rec.RequestID,
		rec.Provider,
		rec.Model,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.Cost,
		rec.LatencyMS,
		rec.Outcome,
		l.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// SummaryByProvider aggregates all recorded outcomes per provider, ordered
// by provider name.
func (l *Ledger) SummaryByProvider(ctx context.Context) ([]Summary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT
			provider,
			COUNT(*),
			SUM(CASE WHEN outcome = 'error' THEN 1 ELSE 0 END),
			SUM(prompt_tokens),
			SUM(completion_tokens),
			SUM(cost),
			AVG(latency_ms)
		FROM usage_records
		GROUP BY provider
		ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(
			&s.Provider,
			&s.Requests,
			&s.Errors,
			&s.PromptTokens,
			&s.CompletionTokens,
			&s.TotalCost,
			&s.AverageLatencyMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneBefore deletes rows created before the cutoff and returns how many
// were removed.
func (l *Ledger) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the total number of recorded outcomes.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

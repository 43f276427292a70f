package usage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"storymaster/arbiter/pkg/config"
	"storymaster/arbiter/pkg/routing"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()

	cfg := config.UsageConfig{
		Enabled:    true,
		SQLitePath: filepath.Join(t.TempDir(), "usage.db"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	l, err := NewLedger(cfg, logger)
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func record(requestID, provider, model string, prompt, completion int, cost float64, latencyMS int64, outcome string) routing.ChatUsage {
	return routing.ChatUsage{
		RequestID:        requestID,
		Provider:         provider,
		Model:            model,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		Cost:             cost,
		LatencyMS:        latencyMS,
		Outcome:          outcome,
	}
}

func TestLedgerRecordAndCount(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	if err := l.RecordChat(ctx, record("req-1", "alpha", "model-x", 100, 50, 0.002, 120, "success")); err != nil {
		t.Fatalf("RecordChat failed: %v", err)
	}
	if err := l.RecordChat(ctx, record("req-2", "alpha", "model-x", 10, 5, 0, 80, "error")); err != nil {
		t.Fatalf("RecordChat failed: %v", err)
	}

	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestLedgerSummaryByProvider(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	records := []routing.ChatUsage{
		record("req-1", "beta", "model-y", 200, 100, 0.01, 400, "success"),
		record("req-2", "alpha", "model-x", 100, 50, 0.002, 100, "success"),
		record("req-3", "alpha", "model-x", 100, 50, 0.002, 300, "success"),
		record("req-4", "alpha", "model-x", 10, 0, 0, 50, "error"),
	}
	for _, rec := range records {
		if err := l.RecordChat(ctx, rec); err != nil {
			t.Fatalf("RecordChat failed: %v", err)
		}
	}

	summaries, err := l.SummaryByProvider(ctx)
	if err != nil {
		t.Fatalf("SummaryByProvider failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	alpha := summaries[0]
	if alpha.Provider != "alpha" {
		t.Fatalf("summaries not ordered by provider: %+v", summaries)
	}
	if alpha.Requests != 3 || alpha.Errors != 1 {
		t.Errorf("alpha requests/errors = %d/%d, want 3/1", alpha.Requests, alpha.Errors)
	}
	if alpha.PromptTokens != 210 || alpha.CompletionTokens != 100 {
		t.Errorf("alpha tokens = %d/%d, want 210/100", alpha.PromptTokens, alpha.CompletionTokens)
	}
	if diff := alpha.TotalCost - 0.004; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("alpha TotalCost = %v, want 0.004", alpha.TotalCost)
	}
	if alpha.AverageLatencyMS != 150 {
		t.Errorf("alpha AverageLatencyMS = %v, want 150", alpha.AverageLatencyMS)
	}

	beta := summaries[1]
	if beta.Provider != "beta" || beta.Requests != 1 || beta.Errors != 0 {
		t.Errorf("beta summary = %+v", beta)
	}
}

func TestLedgerPruneBefore(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base.AddDate(0, 0, -100) }
	if err := l.RecordChat(ctx, record("req-old", "alpha", "model-x", 1, 1, 0, 10, "success")); err != nil {
		t.Fatalf("RecordChat failed: %v", err)
	}

	l.now = func() time.Time { return base }
	if err := l.RecordChat(ctx, record("req-new", "alpha", "model-x", 1, 1, 0, 10, "success")); err != nil {
		t.Fatalf("RecordChat failed: %v", err)
	}

	deleted, err := l.PruneBefore(ctx, base.AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("PruneBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("PruneBefore deleted %d rows, want 1", deleted)
	}

	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d after pruning, want 1", n)
	}
}

func TestLedgerSummaryEmpty(t *testing.T) {
	l := testLedger(t)

	summaries, err := l.SummaryByProvider(context.Background())
	if err != nil {
		t.Fatalf("SummaryByProvider failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("got %d summaries for an empty ledger, want 0", len(summaries))
	}
}

package routing

import (
	"context"
	"time"

	"storymaster/arbiter/pkg/providers"
)

// executeWithRetry runs one scheduled call with up to MaxRetries additional
// attempts. After each failed attempt except the last it sleeps
// RetryDelay * 2^attempt; the final failure's error is returned unchanged.
// Only the first attempt emits a "started" log event.
func (m *Manager) executeWithRetry(ctx context.Context, req *providers.Request, sched *ScheduleResult) (*providers.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt == 0 {
			m.logger.Info("chat started",
				"request_id", req.RequestID,
				"provider", sched.Provider,
				"model", sched.Model,
				"estimated_cost", sched.EstimatedCost,
				"estimated_latency_ms", sched.EstimatedLatencyMS,
			)
		}

		resp, err := sched.Adapter.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		m.logger.Warn("chat attempt failed",
			"request_id", req.RequestID,
			"provider", sched.Provider,
			"attempt", attempt+1,
			"max_attempts", m.cfg.MaxRetries+1,
			"error", err,
		)

		if attempt < m.cfg.MaxRetries {
			if err := m.sleep(ctx, backoffDelay(m.cfg.RetryDelay, attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

// backoffDelay returns the sleep after failed attempt n (zero-based):
// base * 2^n.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * (1 << attempt)
}

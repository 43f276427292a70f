package routing

import (
	"context"
	"time"

	"storymaster/arbiter/pkg/providers"
)

// handleFailure walks the configured fallback list after the retry executor
// has exhausted its attempts on the scheduled provider. Each remaining
// initialized fallback gets exactly one attempt, with any explicit model pin
// cleared since the pinned model may not exist on the fallback. With no
// fallbacks remaining the original error is returned unchanged; with
// fallbacks attempted and all failed, a FailoverExhaustedError preserves the
// original error as the cause.
func (m *Manager) handleFailure(ctx context.Context, req *providers.Request, failed *ScheduleResult, cause error) (*providers.Response, error) {
	var attempted []string
	var lastErr error

	for _, name := range m.cfg.FallbackProviders {
		if name == failed.Provider {
			continue
		}
		bound, ok := m.byName[name]
		if !ok {
			continue
		}

		fbReq := req.Clone()
		fbReq.Provider = name
		fbReq.Model = ""

		sched, err := m.scheduleForProvider(ctx, fbReq, bound)
		if err != nil {
			m.logger.Warn("fallback scheduling failed",
				"request_id", req.RequestID,
				"fallback", name,
				"error", err,
			)
			attempted = append(attempted, name)
			lastErr = err
			continue
		}
		fbReq.Model = sched.Model

		m.logger.Info("attempting fallback",
			"request_id", req.RequestID,
			"fallback", name,
			"model", sched.Model,
		)

		attempted = append(attempted, name)
		start := time.Now()
		resp, err := sched.Adapter.Chat(ctx, fbReq)
		latencyMS := time.Since(start).Milliseconds()

		if err != nil {
			m.recordOutcome(ctx, fbReq, sched, nil, latencyMS, err)
			lastErr = err
			continue
		}

		m.recordOutcome(ctx, fbReq, sched, resp, latencyMS, nil)
		return resp, nil
	}

	if len(attempted) == 0 {
		return nil, cause
	}

	return nil, &FailoverExhaustedError{
		Attempted: attempted,
		LastErr:   lastErr,
		Cause:     cause,
	}
}

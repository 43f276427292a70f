package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storymaster/arbiter/pkg/providers"
	"storymaster/arbiter/pkg/telemetry/logging"
)

// ChatStream executes one streaming chat completion. Scheduling errors are
// returned directly; once a stream is handed back, every later failure is
// reported in-band, as chunks, and the returned channel always ends with a
// terminal chunk before closing.
func (m *Manager) ChatStream(ctx context.Context, req *providers.Request) (<-chan providers.ChatChunk, error) {
	req = req.Clone()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, req.RequestID)

	sched, err := m.Schedule(ctx, req)
	if err != nil {
		m.logger.Error("scheduling failed",
			"request_id", req.RequestID,
			"provider", req.Provider,
			"error", err,
		)
		return nil, err
	}

	req.Provider = sched.Provider
	req.Model = sched.Model

	out := make(chan providers.ChatChunk)
	go m.runStream(ctx, req, sched, out)
	return out, nil
}

// runStream opens the upstream stream with the same bounded retry as the
// non-streaming path, forwards its chunks, and converts any failure into
// fallback chunks. It owns out and closes it when the stream is over.
func (m *Manager) runStream(ctx context.Context, req *providers.Request, sched *ScheduleResult, out chan<- providers.ChatChunk) {
	defer close(out)

	start := time.Now()
	upstream, err := m.openStreamWithRetry(ctx, req, sched)
	if err != nil {
		m.recordStreamFailure(ctx, req, sched, time.Since(start).Milliseconds(), err)
		m.streamFailover(ctx, req, sched, err, out)
		return
	}

	for chunk := range upstream {
		if chunk.Err != nil {
			m.recordStreamFailure(ctx, req, sched, time.Since(start).Milliseconds(), chunk.Err)
			m.streamFailover(ctx, req, sched, chunk.Err, out)
			return
		}
		select {
		case out <- chunk:
		case <-ctx.Done():
			return
		}
	}

	m.recordStreamComplete(ctx, req, sched, time.Since(start).Milliseconds())
}

// openStreamWithRetry opens the upstream stream with up to MaxRetries
// additional attempts, mirroring executeWithRetry. Only stream setup is
// retried; a failure after chunks have flowed goes straight to failover.
func (m *Manager) openStreamWithRetry(ctx context.Context, req *providers.Request, sched *ScheduleResult) (<-chan providers.ChatChunk, error) {
	var lastErr error

	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt == 0 {
			m.logger.Info("chat stream started",
				"request_id", req.RequestID,
				"provider", sched.Provider,
				"model", sched.Model,
				"estimated_cost", sched.EstimatedCost,
				"estimated_latency_ms", sched.EstimatedLatencyMS,
			)
		}

		upstream, err := sched.Adapter.ChatStream(ctx, req)
		if err == nil {
			return upstream, nil
		}
		lastErr = err

		m.logger.Warn("chat stream attempt failed",
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

// streamFailover runs the ordinary failover walk and converts its outcome
// to chunks: a successful fallback response becomes a content chunk plus a
// terminator, an exhausted failover becomes one synthetic error chunk whose
// delta carries the initial and fallback error text.
func (m *Manager) streamFailover(ctx context.Context, req *providers.Request, sched *ScheduleResult, cause error, out chan<- providers.ChatChunk) {
	resp, err := m.handleFailure(ctx, req, sched, cause)
	if err != nil {
		m.emit(ctx, out, providers.ChatChunk{
			ID:      req.RequestID,
			Object:  "chat.completion.chunk",
			Created: time.Now().Unix(),
			Model:   sched.Model,
			Choices: []providers.ChunkChoice{
				{
					Delta: providers.Delta{
						Content: fmt.Sprintf("\n\n--- ERROR ---\nInitial error: %v\nFallback error: %v", cause, err),
					},
					FinishReason: providers.FinishReasonError,
				},
			},
			Err: err,
		})
		return
	}

	finish := resp.FinishReason()
	if finish == "" {
		finish = providers.FinishReasonStop
	}

	if !m.emit(ctx, out, providers.ChatChunk{
		ID:      resp.ID,
		Object:  "chat.completion.chunk",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: []providers.ChunkChoice{
			{Delta: providers.Delta{Content: resp.Content()}},
		},
	}) {
		return
	}

	m.emit(ctx, out, providers.ChatChunk{
		ID:      resp.ID,
		Object:  "chat.completion.chunk",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: []providers.ChunkChoice{
			{FinishReason: finish},
		},
	})
}

// emit sends one chunk unless the context is cancelled first.
func (m *Manager) emit(ctx context.Context, out chan<- providers.ChatChunk, chunk providers.ChatChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// recordStreamComplete folds a cleanly finished stream into the counters.
// Streams report no token usage, so cost is zero.
func (m *Manager) recordStreamComplete(ctx context.Context, req *providers.Request, sched *ScheduleResult, latencyMS int64) {
	m.metrics.Record(sched.Provider, latencyMS, 0, false)

	if m.promMetrics != nil {
		m.promMetrics.RecordRequest(sched.Provider, sched.Model)
		m.promMetrics.RecordLatency(sched.Provider, sched.Model, float64(latencyMS)/1000)
	}

	m.logger.Info("chat stream completed",
		"request_id", req.RequestID,
		"provider", sched.Provider,
		"model", sched.Model,
		"latency_ms", latencyMS,
	)

	if m.recorder != nil {
		rec := ChatUsage{
			RequestID: req.RequestID,
			Provider:  sched.Provider,
			Model:     sched.Model,
			LatencyMS: latencyMS,
			Outcome:   "stream_complete",
		}
		if err := m.recorder.RecordChat(ctx, rec); err != nil {
			m.logger.Warn("usage recording failed",
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}
}

// recordStreamFailure folds a failed stream into the counters before
// failover runs.
func (m *Manager) recordStreamFailure(ctx context.Context, req *providers.Request, sched *ScheduleResult, latencyMS int64, cause error) {
	m.metrics.Record(sched.Provider, latencyMS, 0, true)

	if m.promMetrics != nil {
		m.promMetrics.RecordRequest(sched.Provider, sched.Model)
		m.promMetrics.RecordLatency(sched.Provider, sched.Model, float64(latencyMS)/1000)
		m.promMetrics.RecordError(sched.Provider, "stream")
	}

	m.logger.Error("chat stream failed",
		"request_id", req.RequestID,
		"provider", sched.Provider,
		"model", sched.Model,
		"latency_ms", latencyMS,
		"error", cause,
	)

	if m.recorder != nil {
		rec := ChatUsage{
			RequestID: req.RequestID,
			Provider:  sched.Provider,
			Model:     sched.Model,
			LatencyMS: latencyMS,
			Outcome:   "error",
		}
		if err := m.recorder.RecordChat(ctx, rec); err != nil {
			m.logger.Warn("usage recording failed",
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}
}

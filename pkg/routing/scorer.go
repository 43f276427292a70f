package routing

import (
	"context"
	"sort"

	"storymaster/arbiter/pkg/providers"
)

// Scoring constants. The score is clamp(100 - cost_penalty - latency_penalty
// + priority_bonus, 0, 100).
const (
	maxScore = 100

	// ceilingPenalty applies in full when a candidate exceeds the cost
	// ceiling; under the ceiling the penalty is min(maxCostPenalty,
	// cost*1000).
	ceilingPenalty = 50
	maxCostPenalty = 30

	// latency penalty is min(maxLatencyPenalty, latency_ms/200).
	maxLatencyPenalty   = 20
	latencyPenaltyScale = 200

	highPriorityBonus   = 20
	mediumPriorityBonus = 10
)

// ScoreWithCeiling computes the candidate score for the given estimates.
// costCeiling <= 0 disables the ceiling check. The function is pure:
// identical inputs always yield identical scores.
func ScoreWithCeiling(cost float64, latencyMS int, priority providers.Priority, costCeiling float64) float64 {
	var costPenalty float64
	if costCeiling > 0 && cost > costCeiling {
		costPenalty = ceilingPenalty
	} else {
		costPenalty = cost * 1000
		if costPenalty > maxCostPenalty {
			costPenalty = maxCostPenalty
		}
	}

	latencyPenalty := float64(latencyMS) / latencyPenaltyScale
	if latencyPenalty > maxLatencyPenalty {
		latencyPenalty = maxLatencyPenalty
	}

	var bonus float64
	switch priority {
	case providers.PriorityHigh:
		bonus = highPriorityBonus
	case providers.PriorityMedium:
		bonus = mediumPriorityBonus
	}

	score := maxScore - costPenalty - latencyPenalty + bonus
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Score computes the candidate score under the configured cost ceiling.
func (m *Manager) Score(cost float64, latencyMS int, priority providers.Priority) float64 {
	return ScoreWithCeiling(cost, latencyMS, priority, m.cfg.CostCeiling)
}

// FindCandidates scores every suitable (provider, model) pairing across the
// initialized provider set. An explicit model pin restricts eligibility to
// that exact model, requests carrying image content to multimodal-capable
// models; deprecated models never qualify. Candidates sort descending by
// score, ties preserving initialization order.
func (m *Manager) FindCandidates(ctx context.Context, req *providers.Request) ([]Candidate, error) {
	var candidates []Candidate

	for _, name := range m.order {
		bound := m.byName[name]
		models, err := m.candidateModels(ctx, bound)
		if err != nil {
			m.logger.Warn("skipping provider in discovery",
				"provider", name,
				"error", err,
			)
			continue
		}

		latency := m.EstimatedLatency(name)
		for _, mi := range models {
			if req.Model != "" && mi.ID != req.Model {
				continue
			}
			if mi.Deprecated {
				continue
			}
			if req.HasImages() && !mi.SupportsImages {
				continue
			}

			cost := m.estimateCost(req, mi.ID, bound)
			candidates = append(candidates, Candidate{
				Provider:           name,
				Model:              mi.ID,
				EstimatedCost:      cost,
				EstimatedLatencyMS: latency,
				Score:              m.Score(cost, latency, req.Priority),
			})
		}
	}

	if len(candidates) == 0 {
		return nil, &NoCandidatesError{Providers: m.order}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// candidateModels returns the models a provider contributes to discovery.
// Providers without a catalog capability contribute their configured default
// model; its multimodal support is unknown and treated as absent.
func (m *Manager) candidateModels(ctx context.Context, bound *boundProvider) ([]providers.ModelInfo, error) {
	if bound.listModels == nil {
		if bound.config.Model == "" {
			return nil, nil
		}
		return []providers.ModelInfo{{ID: bound.config.Model}}, nil
	}
	return m.catalog.Models(ctx, bound.name, bound.listModels)
}

// ScheduleBest is the discovery-mode entry point. The default provider is
// preferred when it schedules cleanly and is acceptable for the request;
// otherwise the best-scored candidate across all providers wins.
func (m *Manager) ScheduleBest(ctx context.Context, req *providers.Request) (*ScheduleResult, error) {
	if sched, err := m.Schedule(ctx, req); err == nil && m.isAcceptable(sched, req.Priority) {
		return sched, nil
	}

	candidates, err := m.FindCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	best := candidates[0]
	bound := m.byName[best.Provider]

	bestReq := req.Clone()
	bestReq.Provider = best.Provider
	bestReq.Model = best.Model
	return m.scheduleForProvider(ctx, bestReq, bound)
}

// isAcceptable applies the acceptability gate: under the cost ceiling when
// one is configured and, for high-priority requests, under the configured
// latency threshold.
func (m *Manager) isAcceptable(sched *ScheduleResult, priority providers.Priority) bool {
	if m.cfg.CostCeiling > 0 && sched.EstimatedCost > m.cfg.CostCeiling {
		return false
	}
	if priority == providers.PriorityHigh && sched.EstimatedLatencyMS > m.cfg.HighPriorityLatencyMS {
		return false
	}
	return true
}

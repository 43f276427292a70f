package routing

import (
	"context"
	"errors"
	"testing"

	"storymaster/arbiter/pkg/config"
	"storymaster/arbiter/pkg/providers"
)

func TestScoreWithCeiling(t *testing.T) {
	tests := []struct {
		name        string
		cost        float64
		latencyMS   int
		priority    providers.Priority
		costCeiling float64
		want        float64
	}{
		{
			name: "free and instant",
			want: 100,
		},
		{
			name:     "high priority bonus clamps at 100",
			priority: providers.PriorityHigh,
			want:     100,
		},
		{
			name:      "typical candidate",
			cost:      0.002,
			latencyMS: 4000,
			priority:  providers.PriorityMedium,
			// 100 - 2 - 20 + 10
			want: 88,
		},
		{
			name: "cost penalty capped at 30",
			cost: 0.05,
			want: 70,
		},
		{
			name:      "latency penalty capped at 20",
			latencyMS: 100000,
			want:      80,
		},
		{
			name:        "over the ceiling takes the full penalty",
			cost:        0.002,
			costCeiling: 0.001,
			want:        50,
		},
		{
			name:        "under the ceiling keeps the proportional penalty",
			cost:        0.002,
			costCeiling: 0.01,
			want:        98,
		},
		{
			name:        "worst case stays within range",
			cost:        0.5,
			latencyMS:   100000,
			costCeiling: 0.001,
			want:        30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreWithCeiling(tt.cost, tt.latencyMS, tt.priority, tt.costCeiling)
			if got != tt.want {
				t.Errorf("ScoreWithCeiling(%v, %v, %q, %v) = %v, want %v",
					tt.cost, tt.latencyMS, tt.priority, tt.costCeiling, got, tt.want)
			}
		})
	}
}

func TestScoreIsPure(t *testing.T) {
	first := ScoreWithCeiling(0.003, 1200, providers.PriorityHigh, 0.01)
	for i := 0; i < 10; i++ {
		if got := ScoreWithCeiling(0.003, 1200, providers.PriorityHigh, 0.01); got != first {
			t.Fatalf("score changed between identical calls: %v != %v", got, first)
		}
	}
}

func TestFindCandidatesFiltersAndSorts(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.Models = []providers.ModelInfo{
		{ID: "model-x", SupportsImages: true},
		{ID: "model-old", Deprecated: true},
	}
	alpha.CostPerCall = 0.001

	beta := catalogMock("beta", "model-y")
	beta.Models = []providers.ModelInfo{{ID: "model-y"}}
	beta.CostPerCall = 0.02

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
		DefaultLatenciesMS: map[string]int{
			"alpha": 1000,
			"beta":  1000,
		},
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	candidates, err := m.FindCandidates(context.Background(), &providers.Request{})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (deprecated model excluded)", len(candidates))
	}
	// alpha is cheaper, so it outranks beta.
	if candidates[0].Provider != "alpha" || candidates[1].Provider != "beta" {
		t.Errorf("candidate order = %v, want alpha before beta", candidates)
	}
	for _, c := range candidates {
		if c.Model == "model-old" {
			t.Error("deprecated model survived filtering")
		}
	}
}

func TestFindCandidatesRestrictsToMultimodal(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.Models = []providers.ModelInfo{
		{ID: "model-x", SupportsImages: true},
		{ID: "model-text"},
	}

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
	}, map[string]providers.Provider{
		"alpha": alpha,
	}, map[string]string{"alpha": "model-x"})

	req := &providers.Request{
		Messages: []providers.Message{
			{Role: providers.RoleUser, Parts: []providers.ContentPart{
				{Type: providers.PartTypeImageURL, ImageURL: "https://example.com/cat.png"},
			}},
		},
	}

	candidates, err := m.FindCandidates(context.Background(), req)
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Model != "model-x" {
		t.Errorf("candidates = %v, want only the multimodal model", candidates)
	}
}

func TestFindCandidatesHonorsModelPin(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.Models = []providers.ModelInfo{
		{ID: "model-x"},
		{ID: "model-pinned"},
	}
	beta := catalogMock("beta", "model-y")

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	candidates, err := m.FindCandidates(context.Background(), &providers.Request{Model: "model-pinned"})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want only the pinned model", len(candidates))
	}
	if candidates[0].Provider != "alpha" || candidates[0].Model != "model-pinned" {
		t.Errorf("candidate = %+v, want alpha/model-pinned", candidates[0])
	}
}

func TestFindCandidatesTieBreaksByInitializationOrder(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	beta := catalogMock("beta", "model-y")

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
		DefaultLatenciesMS: map[string]int{
			"alpha": 1000,
			"beta":  1000,
		},
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	candidates, err := m.FindCandidates(context.Background(), &providers.Request{})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(candidates) != 2 || candidates[0].Score != candidates[1].Score {
		t.Fatalf("expected two tied candidates, got %v", candidates)
	}
	if candidates[0].Provider != "alpha" {
		t.Errorf("tie broken to %q, want initialization order (alpha first)", candidates[0].Provider)
	}
}

func TestFindCandidatesEmptySet(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.Models = []providers.ModelInfo{{ID: "model-x", Deprecated: true}}

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
	}, map[string]providers.Provider{
		"alpha": alpha,
	}, map[string]string{"alpha": "model-x"})

	_, err := m.FindCandidates(context.Background(), &providers.Request{})
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("FindCandidates error = %v, want %v", err, ErrNoCandidates)
	}
}

func TestScheduleBestPrefersAcceptableDefault(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.CostPerCall = 0.001
	beta := catalogMock("beta", "model-y")

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
		CostCeiling:     0.01,
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	sched, err := m.ScheduleBest(context.Background(), &providers.Request{})
	if err != nil {
		t.Fatalf("ScheduleBest failed: %v", err)
	}
	if sched.Provider != "alpha" {
		t.Errorf("ScheduleBest chose %q, want the acceptable default", sched.Provider)
	}
}

func TestScheduleBestSkipsUnacceptableDefault(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.CostPerCall = 0.5
	beta := catalogMock("beta", "model-y")
	beta.CostPerCall = 0.001

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
		CostCeiling:     0.01,
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	sched, err := m.ScheduleBest(context.Background(), &providers.Request{})
	if err != nil {
		t.Fatalf("ScheduleBest failed: %v", err)
	}
	if sched.Provider != "beta" {
		t.Errorf("ScheduleBest chose %q, want the best-scored alternative", sched.Provider)
	}
	if sched.Model != "model-y" {
		t.Errorf("ScheduleBest model = %q, want %q", sched.Model, "model-y")
	}
}

func TestScheduleBestNeverSubstitutesPinnedModel(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.CostPerCall = 0.001
	beta := catalogMock("beta", "model-y")
	beta.CostPerCall = 0.02

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider: "alpha",
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	// The default provider does not carry the pinned model; the pin must be
	// resolved on the provider that does, never swapped for another model.
	sched, err := m.ScheduleBest(context.Background(), &providers.Request{Model: "model-y"})
	if err != nil {
		t.Fatalf("ScheduleBest failed: %v", err)
	}
	if sched.Provider != "beta" || sched.Model != "model-y" {
		t.Errorf("ScheduleBest = %s/%s, want beta/model-y", sched.Provider, sched.Model)
	}

	// A pin no provider carries fails instead of substituting.
	if _, err := m.ScheduleBest(context.Background(), &providers.Request{Model: "model-ghost"}); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("ScheduleBest error = %v, want %v", err, ErrNoCandidates)
	}
}

func TestScheduleBestHighPriorityLatencyGate(t *testing.T) {
	alpha := catalogMock("alpha", "model-x")
	alpha.CostPerCall = 0.01
	beta := catalogMock("beta", "model-y")

	m := newTestManager(t, config.SchedulerConfig{
		DefaultProvider:       "alpha",
		HighPriorityLatencyMS: 5000,
		DefaultLatenciesMS: map[string]int{
			"alpha": 8000,
			"beta":  1000,
		},
	}, map[string]providers.Provider{
		"alpha": alpha,
		"beta":  beta,
	}, map[string]string{"alpha": "model-x", "beta": "model-y"})

	// Low priority tolerates the slow default.
	sched, err := m.ScheduleBest(context.Background(), &providers.Request{Priority: providers.PriorityLow})
	if err != nil {
		t.Fatalf("ScheduleBest failed: %v", err)
	}
	if sched.Provider != "alpha" {
		t.Errorf("low priority chose %q, want the default", sched.Provider)
	}

	// High priority does not.
	sched, err = m.ScheduleBest(context.Background(), &providers.Request{Priority: providers.PriorityHigh})
	if err != nil {
		t.Fatalf("ScheduleBest failed: %v", err)
	}
	if sched.Provider != "beta" {
		t.Errorf("high priority chose %q, want the faster alternative", sched.Provider)
	}
}

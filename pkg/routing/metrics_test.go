package routing

import (
	"sync"
	"testing"
)

func TestMetricsRegistryAverageInvariant(t *testing.T) {
	r := NewMetricsRegistry()

	r.Record("alpha", 100, 0.001, false)
	r.Record("alpha", 300, 0.002, false)
	r.Record("alpha", 200, 0, true)

	snap, ok := r.Snapshot("alpha")
	if !ok {
		t.Fatal("no metrics for alpha")
	}

	if snap.RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3", snap.RequestCount)
	}
	if snap.SuccessCount != 2 || snap.ErrorCount != 1 {
		t.Errorf("success/error = %d/%d, want 2/1", snap.SuccessCount, snap.ErrorCount)
	}
	if snap.TotalLatencyMS != 600 {
		t.Errorf("TotalLatencyMS = %d, want 600", snap.TotalLatencyMS)
	}
	if want := float64(snap.TotalLatencyMS) / float64(snap.RequestCount); snap.AverageLatencyMS != want {
		t.Errorf("AverageLatencyMS = %v, want %v", snap.AverageLatencyMS, want)
	}
	// Cost only accumulates on success.
	if diff := snap.TotalCost - 0.003; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("TotalCost = %v, want 0.003", snap.TotalCost)
	}
}

func TestMetricsRegistryUnknownProvider(t *testing.T) {
	r := NewMetricsRegistry()

	if _, ok := r.Snapshot("ghost"); ok {
		t.Error("Snapshot for unknown provider reported ok")
	}
	if got := r.AverageLatencyMS("ghost"); got != 0 {
		t.Errorf("AverageLatencyMS = %v, want 0", got)
	}
}

func TestMetricsRegistrySnapshotIsCopy(t *testing.T) {
	r := NewMetricsRegistry()
	r.Record("alpha", 100, 0, false)

	snap, _ := r.Snapshot("alpha")
	snap.RequestCount = 999

	again, _ := r.Snapshot("alpha")
	if again.RequestCount != 1 {
		t.Error("mutating a snapshot leaked into the registry")
	}
}

func TestMetricsRegistryConcurrentRecord(t *testing.T) {
	r := NewMetricsRegistry()

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				r.Record("alpha", 10, 0.001, i%2 == 0)
			}
		}()
	}
	wg.Wait()

	snap, _ := r.Snapshot("alpha")
	if want := int64(goroutines * perGoroutine); snap.RequestCount != want {
		t.Errorf("RequestCount = %d, want %d", snap.RequestCount, want)
	}
	if snap.SuccessCount+snap.ErrorCount != snap.RequestCount {
		t.Error("success + error does not equal request count")
	}
	if want := float64(snap.TotalLatencyMS) / float64(snap.RequestCount); snap.AverageLatencyMS != want {
		t.Errorf("AverageLatencyMS = %v, want %v", snap.AverageLatencyMS, want)
	}
}

func TestMetricsRegistryAll(t *testing.T) {
	r := NewMetricsRegistry()
	r.Record("alpha", 100, 0, false)
	r.Record("beta", 200, 0, true)

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("All returned %d providers, want 2", len(all))
	}
	if all["alpha"].SuccessCount != 1 || all["beta"].ErrorCount != 1 {
		t.Errorf("All = %+v", all)
	}
}

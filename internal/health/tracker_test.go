package health

import (
	"sync"
	"testing"

	"StockPilot/internal/domain/models"
)

func TestStreakCountsAndReset(t *testing.T) {
	tr := NewTracker()
	id := models.ProviderAkShare

	if tr.Failures(id) != 0 {
		t.Fatalf("unknown provider should report 0 failures")
	}

	tr.RecordFailure(id)
	tr.RecordFailure(id)
	tr.RecordFailure(id)
	if got := tr.Failures(id); got != 3 {
		t.Fatalf("failures %d, want 3", got)
	}

	tr.RecordSuccess(id)
	if got := tr.Failures(id); got != 0 {
		t.Fatalf("success must reset streak, got %d", got)
	}

	tr.RecordFailure(id)
	if got := tr.Failures(id); got != 1 {
		t.Fatalf("failures %d, want 1 after reset", got)
	}
}

func TestStreaksAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.RecordFailure(models.ProviderAkShare)
	tr.RecordFailure(models.ProviderAkShare)
	tr.RecordSuccess(models.ProviderTushare)

	if tr.Failures(models.ProviderAkShare) != 2 {
		t.Fatalf("akshare streak lost")
	}
	if tr.Failures(models.ProviderTushare) != 0 {
		t.Fatalf("tushare streak should be 0")
	}
}

func TestSnapshotDetached(t *testing.T) {
	tr := NewTracker()
	tr.RecordFailure(models.ProviderGemini)

	snap := tr.Snapshot()
	rec, ok := snap[models.ProviderGemini]
	if !ok {
		t.Fatalf("snapshot missing gemini")
	}
	if rec.ConsecutiveFailures != 1 {
		t.Fatalf("snapshot failures %d, want 1", rec.ConsecutiveFailures)
	}
	if rec.LastFailure.IsZero() {
		t.Fatalf("snapshot missing last failure time")
	}

	tr.RecordFailure(models.ProviderGemini)
	if snap[models.ProviderGemini].ConsecutiveFailures != 1 {
		t.Fatalf("snapshot must not track live state")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	tr := NewTracker()
	providers := []models.ProviderID{
		models.ProviderAkShare, models.ProviderTushare, models.ProviderBaostock,
		models.ProviderYFinance, models.ProviderPytdx,
	}

	var wg sync.WaitGroup
	for _, id := range providers {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(id models.ProviderID) {
				defer wg.Done()
				tr.RecordFailure(id)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range providers {
		if got := tr.Failures(id); got != 50 {
			t.Fatalf("%s: failures %d, want 50", id, got)
		}
	}
}

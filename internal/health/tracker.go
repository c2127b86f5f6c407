package health

import (
	"sync"
	"time"

	"StockPilot/internal/domain/models"
)

// Record is one provider's failure-streak state. Failures only reset on
// an explicit success; there is no time-based decay.
type Record struct {
	Provider            models.ProviderID `json:"provider"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	LastFailure         time.Time         `json:"last_failure,omitzero"`
	LastSuccess         time.Time         `json:"last_success,omitzero"`
}

type entry struct {
	mu  sync.Mutex
	rec Record
}

// Tracker holds process-wide provider health. It is constructed by the
// composition root and injected wherever needed; there is no package
// singleton. Updates for different providers never contend: the outer
// lock only guards the map, each record has its own mutex.
type Tracker struct {
	mu      sync.RWMutex
	entries map[models.ProviderID]*entry
}

// NewTracker creates an empty Tracker. Records appear lazily on the
// first attempt against each provider.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[models.ProviderID]*entry)}
}

func (t *Tracker) entryFor(id models.ProviderID) *entry {
	t.mu.RLock()
	e, ok := t.entries[id]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.entries[id]; ok {
		return e
	}
	e = &entry{rec: Record{Provider: id}}
	t.entries[id] = e
	return e
}

// RecordSuccess resets the provider's failure streak.
func (t *Tracker) RecordSuccess(id models.ProviderID) {
	e := t.entryFor(id)
	e.mu.Lock()
	e.rec.ConsecutiveFailures = 0
	e.rec.LastSuccess = time.Now()
	e.mu.Unlock()
}

// RecordFailure increments the provider's failure streak.
func (t *Tracker) RecordFailure(id models.ProviderID) {
	e := t.entryFor(id)
	e.mu.Lock()
	e.rec.ConsecutiveFailures++
	e.rec.LastFailure = time.Now()
	e.mu.Unlock()
}

// Failures returns the provider's current consecutive failure count.
func (t *Tracker) Failures(id models.ProviderID) int {
	t.mu.RLock()
	e, ok := t.entries[id]
	t.mu.RUnlock()
	if !ok {
		return 0
	}
	e.mu.Lock()
	n := e.rec.ConsecutiveFailures
	e.mu.Unlock()
	return n
}

// Snapshot copies every record. The result is detached from live state.
func (t *Tracker) Snapshot() map[models.ProviderID]Record {
	t.mu.RLock()
	ids := make([]models.ProviderID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	out := make(map[models.ProviderID]Record, len(ids))
	for _, id := range ids {
		e := t.entryFor(id)
		e.mu.Lock()
		out[id] = e.rec
		e.mu.Unlock()
	}
	return out
}

package models

import "time"

// Attempt records one provider try inside a resolution walk.
type Attempt struct {
	Provider   ProviderID    `json:"provider"`
	OK         bool          `json:"ok"`
	Error      string        `json:"error,omitempty"`
	DurationMS int64         `json:"duration_ms"`
	Elapsed    time.Duration `json:"-"`
}

// FetchOutcome is the event emitted after every data-path resolution,
// successful or not. It feeds the configured sink backend so the report
// pipeline can audit provider behavior.
type FetchOutcome struct {
	Symbol   string     `json:"symbol"`
	Market   Market     `json:"market"`
	Kind     DataKind   `json:"kind"`
	Winner   ProviderID `json:"winner,omitempty"`
	Attempts []Attempt  `json:"attempts"`
	Started  time.Time  `json:"started"`
	Elapsed  int64      `json:"elapsed_ms"`
}

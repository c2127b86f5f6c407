package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCodeFormat means canonicalization could not classify the
	// input. Surfaced immediately, never retried.
	ErrInvalidCodeFormat = errors.New("invalid stock code format")

	// ErrUnsupportedCombination means no capability entry exists for the
	// requested market and data kind.
	ErrUnsupportedCombination = errors.New("no provider serves this market and data kind")

	// ErrNotCanonicalized is the facade guard against raw codes that
	// skipped canonicalization. Programming-error class.
	ErrNotCanonicalized = errors.New("stock code was not canonicalized")

	// ErrUnsupportedKind is returned by an adapter asked for a data kind
	// it does not implement. The capability table should make this
	// unreachable.
	ErrUnsupportedKind = errors.New("provider does not serve this data kind")
)

// ExhaustedError reports that every provider in the fallback order failed.
// It carries the full attempt log so callers can report which providers
// were tried and why, not just "no data".
type ExhaustedError struct {
	Market   Market
	Kind     DataKind
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Error))
	}
	return fmt.Sprintf("all providers exhausted for %s/%s: %s", e.Market, e.Kind, strings.Join(parts, "; "))
}

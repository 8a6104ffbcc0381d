package analyze

import (
	"errors"
	"fmt"
)

// Per-symbol skip causes carried inside DataUnavailableError.
var (
	// ErrNoBars marks a symbol whose provider response was empty.
	ErrNoBars = errors.New("provider returned no bars")

	// ErrNoQualifyingSessions marks a symbol whose bars produced no
	// session the detector could use.
	ErrNoQualifyingSessions = errors.New("no qualifying sessions")

	// ErrNoSymbols marks a request with an empty symbol list.
	ErrNoSymbols = errors.New("no symbols requested")
)

// ConfigurationError marks a request rejected before any symbol work
// started. The run fails synchronously; nothing was fetched.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DataUnavailableError records one symbol the provider could not
// serve. The symbol is skipped and the batch continues.
type DataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

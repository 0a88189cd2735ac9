package provider

import (
	"errors"
	"fmt"
	"time"
)

// UnavailableError is the single failure kind crossing a client's public
// boundary: network failure, non-2xx response and parse failure all map to
// it. Clients never retry internally; the orchestrator falls back to the
// estimator exactly once per call.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as an UnavailableError for the named provider
func Unavailable(provider string, err error) error {
	return &UnavailableError{Provider: provider, Err: err}
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// UnsupportedWindowError indicates the caller asked for a window direction or
// granularity the provider cannot serve (e.g. a forecast from a
// history-only source). This is a caller error, surfaced loudly in logs, but
// production request paths still resolve it with an estimate.
type UnsupportedWindowError struct {
	Provider string
	Start    time.Time
	End      time.Time
	Reason   string
}

func (e *UnsupportedWindowError) Error() string {
	return fmt.Sprintf("provider %s cannot serve window [%s, %s): %s",
		e.Provider, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

// UnsupportedWindow builds an UnsupportedWindowError
func UnsupportedWindow(provider string, start, end time.Time, reason string) error {
	return &UnsupportedWindowError{Provider: provider, Start: start, End: end, Reason: reason}
}

// IsUnsupportedWindow reports whether err is (or wraps) an UnsupportedWindowError
func IsUnsupportedWindow(err error) bool {
	var uw *UnsupportedWindowError
	return errors.As(err, &uw)
}

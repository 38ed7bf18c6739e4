package generation

import (
	"errors"
	"fmt"
)

// Failure classes reported by the invoker. Every error returned from
// Invoker.Generate wraps exactly one of the first three, or ErrNotConfigured.
var (
	ErrProviderUnavailable = errors.New("generation: provider unavailable")
	ErrProviderRejected    = errors.New("generation: provider rejected request")
	ErrEmptyOutput         = errors.New("generation: empty output")
	ErrNotConfigured       = errors.New("generation: provider not configured")
)

// ProviderError carries the provider's own description of a rejection.
type ProviderError struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// Classify returns the failure class of err, or nil if err is not a generation failure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotConfigured):
		return ErrNotConfigured
	case errors.Is(err, ErrEmptyOutput):
		return ErrEmptyOutput
	case errors.Is(err, ErrProviderRejected):
		return ErrProviderRejected
	case errors.Is(err, ErrProviderUnavailable):
		return ErrProviderUnavailable
	}
	return nil
}

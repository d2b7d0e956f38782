package collector

import (
	"errors"
	"fmt"

	"StockCheck/internal/model"
)

// Provider error kinds. A ProviderError unwraps to one of these.
var (
	ErrRateLimited   = errors.New("rate limited")
	ErrAuth          = errors.New("authentication failed")
	ErrInformational = errors.New("informational response")
	ErrNoData        = errors.New("no data")
	ErrTransport     = errors.New("transport failure")
)

// ProviderError describes a failed provider call.
type ProviderError struct {
	Provider   string
	Kind       error
	Message    string
	StatusCode int
	Cause      error // underlying transport error, if any
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes both the kind and the transport cause to errors.Is.
func (e *ProviderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func providerErr(provider string, kind error, msg string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: msg}
}

// ReasonFor maps a provider error to the reason code shown in reports.
func ReasonFor(err error) model.Reason {
	switch {
	case err == nil:
		return model.ReasonNone
	case errors.Is(err, ErrRateLimited):
		return model.ReasonRateLimited
	case errors.Is(err, ErrAuth):
		return model.ReasonAuthFailure
	case errors.Is(err, ErrInformational):
		return model.ReasonProviderInfo
	case errors.Is(err, ErrNoData):
		return model.ReasonDataUnavailable
	default:
		return model.ReasonTransport
	}
}

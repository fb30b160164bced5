package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError marks a provider/infrastructure problem: rate limiting,
// rejected auth, timeout, or a malformed body. Transient failures count
// against the provider's circuit breaker.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a "no data" outcome: the symbol is simply not served
// by this provider. Permanent failures advance the chain without touching the
// breaker.
type PermanentError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: no data for %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the named provider.
func Transient(providerName string, err error) error {
	return &TransientError{Provider: providerName, Err: err}
}

// Permanent wraps err as a PermanentError for the named provider and symbol.
func Permanent(providerName, symbol string, err error) error {
	return &PermanentError{Provider: providerName, Symbol: symbol, Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// classifyStatus maps a non-200 HTTP status to a classified error. Rate
// limits, auth rejections, and server errors are provider health signals;
// 404 means the symbol is unknown to this provider.
func classifyStatus(providerName, symbol string, status int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	err := fmt.Errorf("status %d: %s", status, body)
	switch {
	case status == http.StatusNotFound:
		return Permanent(providerName, symbol, err)
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusTooManyRequests,
		status >= 500:
		return Transient(providerName, err)
	default:
		return Transient(providerName, err)
	}
}

package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// Failure classes surfaced by provider calls. Every stage boundary converts
// these into a degraded-but-valid result; they never cross out of a stage.
var (
	// ErrTimeout means a provider call exceeded its deadline.
	ErrTimeout = eris.New("provider call timed out")
	// ErrEmptyResult means the model or search returned nothing usable.
	ErrEmptyResult = eris.New("provider returned empty result")
	// ErrProvider covers transport, auth, and rate-limit failures.
	ErrProvider = eris.New("provider request failed")
	// ErrMalformedInput means required context fields were missing.
	ErrMalformedInput = eris.New("malformed input")
)

// Timeout wraps err as a timeout failure.
func Timeout(err error) error {
	if err == nil {
		return ErrTimeout
	}
	return eris.Wrap(err, ErrTimeout.Error())
}

// IsTimeout reports whether err is a deadline failure, either tagged with
// ErrTimeout or caused by context expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx,
// network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures). Used by HTTP provider clients
// to decide whether to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

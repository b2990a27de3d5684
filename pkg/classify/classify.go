package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind is the failure taxonomy bucket an error falls into.
type Kind string

const (
	KindTransient  Kind = "transient"
	KindPermanent  Kind = "permanent"
	KindRateLimit  Kind = "rate_limit"
	KindValidation Kind = "validation"
)

// ClassifiedError is the normalized verdict for a raw send failure.
type ClassifiedError struct {
	Kind       Kind   `json:"kind"`
	Retryable  bool   `json:"retryable"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

// ProviderError is the normalized error shape channel providers return for
// upstream API failures. StatusCode is the upstream HTTP (or mapped) status.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
	}
	return "provider error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// statusCoder lets foreign error types expose an upstream status code
// without depending on this package.
type statusCoder interface {
	StatusCode() int
}

var rateLimitPhrases = []string{
	"rate limit",
	"too many requests",
	"throttl",
}

var validationPhrases = []string{
	"invalid",
	"malformed",
	"bad request",
}

var networkPhrases = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"host is unreachable",
	"i/o timeout",
	"timeout",
	"timed out",
	"eof",
}

// Classify applies the rule table to a raw error. A nil error has no
// classification and panics; callers only classify actual failures.
func Classify(err error) ClassifiedError {
	if err == nil {
		panic("classify: nil error")
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	status := statusOf(err)

	switch {
	case isNetworkError(err, lower):
		return ClassifiedError{Kind: KindTransient, Retryable: true, StatusCode: status, Message: msg}

	case status == http.StatusTooManyRequests || containsAny(lower, rateLimitPhrases):
		return ClassifiedError{Kind: KindRateLimit, Retryable: true, StatusCode: status, Message: msg}

	case status >= 500 && status <= 599:
		return ClassifiedError{Kind: KindTransient, Retryable: true, StatusCode: status, Message: msg}

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || containsAny(lower, validationPhrases):
		return ClassifiedError{Kind: KindValidation, Retryable: false, StatusCode: status, Message: msg}

	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound:
		return ClassifiedError{Kind: KindPermanent, Retryable: false, StatusCode: status, Message: msg}

	default:
		// Fail-safe: unknown shapes are not retried to avoid unbounded
		// retries on failure modes we cannot reason about.
		return ClassifiedError{Kind: KindPermanent, Retryable: false, StatusCode: status, Message: msg}
	}
}

// statusOf extracts an upstream status code from the error chain.
func statusOf(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// isNetworkError detects transport-layer failures: timeouts, refused or
// reset connections, unreachable hosts, cancelled deadlines.
func isNetworkError(err error, lower string) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.ECONNABORTED,
		syscall.EPIPE,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.ETIMEDOUT,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	// Some transports flatten the original error into a plain string.
	return containsAny(lower, networkPhrases) || strings.Contains(lower, "econnreset") || strings.Contains(lower, "econnrefused")
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

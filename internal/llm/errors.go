package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoUserMessage is reported when a message sequence carries no user turn.
var ErrNoUserMessage = errors.New("message sequence requires at least one user message")

// Kind classifies backend failures
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindServerUnavailable
	KindInvalidRequest
)

// String returns the snake_case name of the kind
func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerUnavailable:
		return "server_unavailable"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Transient reports whether failures of this kind may be retried
func (k Kind) Transient() bool {
	return k == KindRateLimited || k == KindServerUnavailable
}

// BackendError is returned by the model client when the backend call fails
type BackendError struct {
	Kind       Kind
	StatusCode int
	Message    string
	// Timeout is set when the per-call deadline expired before the backend answered.
	Timeout bool
	Err     error
}

func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString("llm backend: ")
	b.WriteString(e.Kind.String())
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Timeout {
		b.WriteString(" (timeout)")
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// SchemaViolation is returned when structured output stays invalid after the repair pass
type SchemaViolation struct {
	RawText          string
	ValidationErrors []string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("llm output violates schema: %s", strings.Join(e.ValidationErrors, "; "))
}

// IsTransient reports whether err is a backend failure eligible for retry
func IsTransient(err error) bool {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Kind.Transient()
	}
	return false
}

// KindOf extracts the backend error kind from err, if any
func KindOf(err error) (Kind, bool) {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Kind, true
	}
	return KindUnknown, false
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout, status >= http.StatusInternalServerError:
		// 529 (overloaded) falls in here too
		return KindServerUnavailable
	case status >= http.StatusBadRequest:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

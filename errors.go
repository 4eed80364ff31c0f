package hsds

import (
	"fmt"
	"net/http"
	"strings"
)

// TransportError wraps a failure to reach an endpoint: dial errors, request
// timeouts, an open circuit breaker. The underlying cause is available via
// errors.Unwrap.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hsds: request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response from the store. Message carries the
// server's error text when the body provided one.
type ServerError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("hsds: %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("hsds: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a ServerError for a missing object or
// domain.
func IsNotFound(err error) bool {
	se, ok := err.(*ServerError)
	if !ok {
		return false
	}
	return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
}

// IsConflict reports whether err is a ServerError for a name that already
// exists.
func IsConflict(err error) bool {
	se, ok := err.(*ServerError)
	return ok && se.StatusCode == http.StatusConflict
}

// RequestError ties a failure in a batch to the request that produced it.
type RequestError struct {
	Index int
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %d: %v", e.Index, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// BatchError aggregates the failed requests of a batch. Requests absent
// from Failures completed successfully; the batch never aborts siblings on
// the first failure.
type BatchError struct {
	Failures []*RequestError
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return "hsds: batch: " + e.Failures[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "hsds: batch: %d requests failed: ", len(e.Failures))
	for i, f := range e.Failures {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(f.Error())
	}
	return sb.String()
}

func (e *BatchError) Unwrap() error {
	if len(e.Failures) == 1 {
		return e.Failures[0]
	}
	return nil
}

package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// StatusError reports a non-200 TMDB response.
type StatusError struct {
	Op         string
	StatusCode int
	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
	Latency    time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Op, e.StatusCode, e.Latency)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Class is the retry classification of a lookup error.
type Class int

const (
	// Permanent failures fail the lookup immediately.
	Permanent Class = iota
	// Transient failures may succeed when retried.
	Transient
)

func (c Class) String() string {
	if c == Transient {
		return "transient"
	}
	return "permanent"
}

// Classify maps rate limiting, server errors, timeouts and dropped
// connections to Transient. Client errors (400, 401, 403, 404, 422), decode
// errors, and cancellation are Permanent.
func Classify(err error) Class {
	if err == nil {
		return Permanent
	}
	if errors.Is(err, context.Canceled) {
		return Permanent
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return Transient
		default:
			return Permanent
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return Permanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return Transient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transient
	}
	return Permanent
}

// RetryAfter returns the Retry-After hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.RetryAfter
	}
	return 0
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrNotFound         = errors.New("not found")
	ErrTransient        = errors.New("transient failure")
	ErrPermanent        = errors.New("permanent failure")
	ErrLookupFailed     = errors.New("lookup failed")
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrMalformedEntry   = errors.New("malformed entry")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Failure kinds reported in run summaries.
const (
	FailureCacheUnavailable = "cache_unavailable"
	FailureLookupFailed     = "lookup_failed"
	FailurePermanentLookup  = "permanent_lookup"
	FailureMalformedEntry   = "malformed_entry"
	FailureOther            = "other"
)

// FailureKind maps an error to its run summary bucket. Exhausted retries are
// checked before the permanent marker since they carry the transient marker.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedEntry):
		return FailureMalformedEntry
	case errors.Is(err, ErrCacheUnavailable):
		return FailureCacheUnavailable
	case errors.Is(err, ErrLookupFailed):
		return FailureLookupFailed
	case errors.Is(err, ErrPermanent), errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
		return FailurePermanentLookup
	default:
		return FailureOther
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

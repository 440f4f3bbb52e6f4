package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	kindKey  contextKey = "media_kind"
	groupKey contextKey = "group_id"
)

// WithRunID annotates context with the classification run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithKind annotates context with the media kind being resolved.
func WithKind(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, kindKey, kind)
}

// KindFromContext returns the media kind if present.
func KindFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(kindKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithGroupID annotates context with the batch group identifier.
func WithGroupID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, groupKey, id)
}

// GroupIDFromContext extracts the batch group identifier if present.
func GroupIDFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(groupKey).(int)
	return v, ok
}

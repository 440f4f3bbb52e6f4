package logging

import (
	"context"
	"log/slog"

	"vodsieve/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for classification run identifiers.
	FieldRunID = "run_id"
	// FieldMediaKind is the standardized structured logging key for media kinds.
	FieldMediaKind = "kind"
	// FieldGroupID is the standardized structured logging key for batch group identifiers.
	FieldGroupID = "group_id"
	// FieldEventType classifies a log line for filtering (e.g. cache_unavailable).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision recorded by decision logs.
	FieldDecisionType = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	if kind, ok := services.KindFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMediaKind, kind))
	}
	if id, ok := services.GroupIDFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldGroupID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

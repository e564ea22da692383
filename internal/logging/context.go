package logging

import (
	"context"
	"log/slog"

	"mailtriage/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for triage run identifiers.
	FieldRunID = "run_id"
	// FieldMessageID is the standardized structured logging key for mailbox message identifiers.
	FieldMessageID = "message_id"
	// FieldLabel is the standardized structured logging key for classification labels.
	FieldLabel = "label"
	// FieldOutcome is the standardized structured logging key for per-message outcomes.
	FieldOutcome = "outcome"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.MessageIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMessageID, id))
	}
	if label, ok := services.LabelFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLabel, label))
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

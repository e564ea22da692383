package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	messageIDKey contextKey = "message_id"
	labelKey     contextKey = "label"
)

// WithRunID annotates context with the identifier of the current triage run.
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

// WithMessageID annotates context with the mailbox message identifier.
func WithMessageID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, messageIDKey, id)
}

// MessageIDFromContext returns the message identifier if present.
func MessageIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(messageIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLabel annotates context with the classification label once known.
func WithLabel(ctx context.Context, label string) context.Context {
	if label == "" {
		return ctx
	}
	return context.WithValue(ctx, labelKey, label)
}

// LabelFromContext returns the classification label if present.
func LabelFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(labelKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

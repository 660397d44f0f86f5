package logging

import (
	"context"
	"log/slog"

	"tidybox/internal/services"
)

// Standard field keys shared by console and JSON output.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldCategory  = "category"
	FieldSubject   = "subject"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields converts the scope carried by ctx into slog attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFromContext(ctx)
	fields := make([]slog.Attr, 0, 4)
	for _, f := range []struct{ key, value string }{
		{FieldRunID, scope.RunID},
		{FieldStage, scope.Stage},
		{FieldCategory, scope.Category},
		{FieldSubject, scope.Subject},
	} {
		if f.value != "" {
			fields = append(fields, slog.String(f.key, f.value))
		}
	}
	return fields
}

// WithContext returns logger tagged with the scope carried by ctx. Loggers from
// NewFromConfig already carry run_id, so a matching scope value is not repeated.
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

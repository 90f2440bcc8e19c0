package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and the stream loop enrich the context once; every slog call made
// with that context then carries workspace, user and connection ids.
type LogFields struct {
	WorkspaceID  *string // Workspace the request or stream is scoped to
	UserID       *string // Authenticated user (email)
	ConnectionID *string // Realtime stream connection id
	EventType    *string // Realtime event type (e.g., "task-created")
	TaskID       *string // Task being mutated
	Component    string  // Component name (OTel semantic convention style, e.g., "saathi.realtime.publisher")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.WorkspaceID != nil {
		result.WorkspaceID = next.WorkspaceID
	}
	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.ConnectionID != nil {
		result.ConnectionID = next.ConnectionID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.TaskID != nil {
		result.TaskID = next.TaskID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter for logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes event as one record with message "bootstrap".
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}
	if event.Identity != "" {
		attrs = append(attrs, slog.String("identity", event.Identity))
	}

	switch {
	case event.Message != nil:
		attrs = append(attrs, slog.String("operation", event.Message.Operation))
		if event.Message.Path != "" {
			attrs = append(attrs, slog.String("path", event.Message.Path))
		}
		if event.Message.ContentFormat != nil {
			attrs = append(attrs, slog.Uint64("content_format", uint64(*event.Message.ContentFormat)))
		}
		if event.Message.Code != "" {
			attrs = append(attrs, slog.String("code", event.Message.Code))
		}
	case event.StateChange != nil:
		attrs = append(attrs, slog.String("state", event.StateChange.NewState))
		if event.StateChange.OldState != "" {
			attrs = append(attrs, slog.String("old_state", event.StateChange.OldState))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "bootstrap", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)

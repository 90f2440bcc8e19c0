package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Falcon-J/saathi/internal/model"
)

// EventPublisher fans a committed mutation out to realtime subscribers.
// Publish must not block on delivery and must not report failures.
type EventPublisher interface {
	Publish(ctx context.Context, event model.Event)
}

func publish(ctx context.Context, pub EventPublisher, typ model.EventType, workspaceID, userID string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to encode event payload", "error", err, "event_type", typ)
		raw = nil
	}
	pub.Publish(ctx, model.Event{
		Type:        typ,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Data:        raw,
	})
}

type memberEventData struct {
	Email    string           `json:"email"`
	Username string           `json:"username,omitempty"`
	Role     model.MemberRole `json:"role,omitempty"`
	By       string           `json:"by,omitempty"`
}

type taskDeletedData struct {
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
}

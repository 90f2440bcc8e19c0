package model

import "encoding/json"

type EventType string

const (
	EventTypeTaskCreated EventType = "task-created"
	EventTypeTaskUpdated EventType = "task-updated"
	EventTypeTaskDeleted EventType = "task-deleted"
	EventTypeTaskToggled EventType = "task-toggled"
	EventTypeUserJoined  EventType = "user-joined"
	EventTypeUserLeft    EventType = "user-left"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeTaskCreated, EventTypeTaskUpdated, EventTypeTaskDeleted,
		EventTypeTaskToggled, EventTypeUserJoined, EventTypeUserLeft:
		return true
	}
	return false
}

// Event is the latest-event record stored per workspace. Timestamp is Unix
// milliseconds and is the only field observers order on.
type Event struct {
	ID          string          `json:"id,omitempty"`
	Type        EventType       `json:"type"`
	WorkspaceID string          `json:"workspaceId"`
	UserID      string          `json:"userId"`
	Timestamp   int64           `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Message converts the event into its stream envelope.
func (e Event) Message() StreamMessage {
	return StreamMessage{
		ID:          e.ID,
		Type:        string(e.Type),
		WorkspaceID: e.WorkspaceID,
		UserID:      e.UserID,
		Timestamp:   e.Timestamp,
		Data:        e.Data,
	}
}

const (
	MessageTypeConnected = "connected"
	MessageTypeHeartbeat = "heartbeat"
)

// StreamMessage is the JSON body of every `data:` frame on the realtime
// stream. Type is "connected", "heartbeat" or one of the EventType values.
type StreamMessage struct {
	ID          string          `json:"id,omitempty" jsonschema:"description=Publisher-assigned event id; absent on connected and heartbeat"`
	Type        string          `json:"type" jsonschema:"enum=connected,enum=heartbeat,enum=task-created,enum=task-updated,enum=task-deleted,enum=task-toggled,enum=user-joined,enum=user-left"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	Timestamp   int64           `json:"timestamp" jsonschema:"description=Unix milliseconds"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// IsEvent reports whether the message carries a domain event rather than a
// connection-level frame.
func (m StreamMessage) IsEvent() bool {
	return EventType(m.Type).IsValid()
}

// Event converts a domain-event message back into an Event.
func (m StreamMessage) Event() Event {
	return Event{
		ID:          m.ID,
		Type:        EventType(m.Type),
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Timestamp:   m.Timestamp,
		Data:        m.Data,
	}
}

type ConnectedData struct {
	UserID      string `json:"userId"`
	WorkspaceID string `json:"workspaceId"`
}

type HeartbeatData struct {
	ActiveUsers []string `json:"activeUsers"`
}

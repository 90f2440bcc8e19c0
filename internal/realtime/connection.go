package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Falcon-J/saathi/common/logger"
	"github.com/Falcon-J/saathi/common/metrics"
	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/model"
)

// Sink receives the messages of one stream. Send must write the frame to
// the client before returning.
type Sink interface {
	Send(msg model.StreamMessage) error
}

type EventReader interface {
	LatestEvent(ctx context.Context, workspaceID string) (*model.Event, error)
}

type PresenceStore interface {
	Touch(ctx context.Context, workspaceID, userID string) error
	ActiveUsers(ctx context.Context, workspaceID string) ([]string, error)
}

type State int32

const (
	StateOpen State = iota
	StatePolling
	StateDelivering
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StatePolling:
		return "polling"
	case StateDelivering:
		return "delivering"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type CloseReason string

const (
	CloseReasonCanceled CloseReason = "canceled"
	CloseReasonLifetime CloseReason = "lifetime"
	CloseReasonShutdown CloseReason = "shutdown"
)

// Connection polls the store on behalf of one subscriber and forwards
// events newer than its watermark.
type Connection struct {
	id          string
	workspaceID string
	userID      string
	events      EventReader
	presence    PresenceStore
	cfg         config.RealtimeConfig
	now         func() time.Time
	stop        <-chan struct{}

	watermark atomic.Int64
	state     atomic.Int32
}

func NewConnection(events EventReader, presence PresenceStore, cfg config.RealtimeConfig, workspaceID, userID string, watermark int64) *Connection {
	c := &Connection{
		id:          uuid.NewString(),
		workspaceID: workspaceID,
		userID:      userID,
		events:      events,
		presence:    presence,
		cfg:         cfg,
		now:         time.Now,
	}
	c.watermark.Store(watermark)
	return c
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Watermark() int64 { return c.watermark.Load() }

func (c *Connection) State() State { return State(c.state.Load()) }

// Run streams until ctx is canceled, the lifetime cap elapses or the owning
// service stops its connections. Store and
// sink errors during a tick are logged and the next tick proceeds.
func (c *Connection) Run(ctx context.Context, sink Sink) CloseReason {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID:  logger.Ptr(c.workspaceID),
		UserID:       logger.Ptr(c.userID),
		ConnectionID: logger.Ptr(c.id),
		Component:    "saathi.realtime.connection",
	})

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()
	defer c.setState(StateClosed)

	lifetime := time.NewTimer(c.cfg.MaxLifetime)
	defer lifetime.Stop()

	c.setState(StateOpen)
	slog.InfoContext(ctx, "realtime stream opened", "watermark", c.Watermark())

	c.send(ctx, sink, c.connectedMessage())
	if err := c.presence.Touch(ctx, c.workspaceID, c.userID); err != nil {
		slog.WarnContext(ctx, "failed to record presence", "error", err)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "realtime stream closed", "reason", CloseReasonCanceled)
			return CloseReasonCanceled
		case <-lifetime.C:
			slog.InfoContext(ctx, "realtime stream closed", "reason", CloseReasonLifetime)
			return CloseReasonLifetime
		case <-c.stop:
			slog.InfoContext(ctx, "realtime stream closed", "reason", CloseReasonShutdown)
			return CloseReasonShutdown
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			ticks++
			c.poll(ctx, sink, ticks)
			c.setState(StateOpen)
		}
	}
}

func (c *Connection) poll(ctx context.Context, sink Sink, tick int) {
	c.setState(StatePolling)

	if err := c.presence.Touch(ctx, c.workspaceID, c.userID); err != nil {
		metrics.PollErrors.Inc()
		slog.WarnContext(ctx, "failed to record presence", "error", err)
	}
	if ctx.Err() != nil {
		return
	}

	event, err := c.events.LatestEvent(ctx, c.workspaceID)
	switch {
	case err != nil:
		metrics.PollErrors.Inc()
		slog.WarnContext(ctx, "failed to poll latest event", "error", err)
	case event != nil && event.Timestamp > c.Watermark():
		c.setState(StateDelivering)
		// A failed send leaves the watermark alone so the next poll retries.
		if c.send(ctx, sink, event.Message()) {
			c.watermark.Store(event.Timestamp)
			metrics.EventsDelivered.Inc()
		}
	}

	if c.cfg.HeartbeatEvery > 0 && tick%c.cfg.HeartbeatEvery == 0 && ctx.Err() == nil {
		c.heartbeat(ctx, sink)
	}
}

func (c *Connection) heartbeat(ctx context.Context, sink Sink) {
	users, err := c.presence.ActiveUsers(ctx, c.workspaceID)
	if err != nil {
		metrics.PollErrors.Inc()
		slog.WarnContext(ctx, "failed to list active users", "error", err)
	}
	if users == nil {
		users = []string{}
	}

	data, err := json.Marshal(model.HeartbeatData{ActiveUsers: users})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode heartbeat", "error", err)
		return
	}

	c.send(ctx, sink, model.StreamMessage{
		Type:      model.MessageTypeHeartbeat,
		Timestamp: c.now().UnixMilli(),
		Data:      data,
	})
}

func (c *Connection) connectedMessage() model.StreamMessage {
	data, _ := json.Marshal(model.ConnectedData{UserID: c.userID, WorkspaceID: c.workspaceID})
	return model.StreamMessage{
		Type:        model.MessageTypeConnected,
		WorkspaceID: c.workspaceID,
		UserID:      c.userID,
		Timestamp:   c.now().UnixMilli(),
		Data:        data,
	}
}

func (c *Connection) send(ctx context.Context, sink Sink, msg model.StreamMessage) bool {
	if err := sink.Send(msg); err != nil {
		slog.WarnContext(ctx, "failed to write stream message", "error", err, "type", msg.Type)
		return false
	}
	return true
}

func (c *Connection) setState(s State) {
	c.state.Store(int32(s))
}

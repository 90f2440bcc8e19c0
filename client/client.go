// Package client subscribes to a workspace's realtime stream and keeps the
// subscription alive across transport failures.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Falcon-J/saathi/common/logger"
	"github.com/Falcon-J/saathi/internal/model"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	sessionCookieName     = "auth-session"
	streamPath            = "/api/realtime"
)

// ErrStreamClosed is reported when the server ends the stream, for example
// when the connection reaches its lifetime cap.
var ErrStreamClosed = errors.New("stream closed by server")

// StatusError is reported when the stream endpoint answers with a non-200
// status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream endpoint returned status %d", e.Code)
}

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

type Config struct {
	BaseURL        string
	WorkspaceID    string
	SessionID      string
	HTTPClient     *http.Client
	ReconnectDelay time.Duration
}

// Handlers are invoked from the stream goroutine, one message at a time.
// Any of them may be nil. Event handlers receive the raw event data.
type Handlers struct {
	OnOpen        func()
	OnConnected   func(model.ConnectedData)
	OnHeartbeat   func(activeUsers []string)
	OnTaskCreated func(data json.RawMessage)
	OnTaskUpdated func(data json.RawMessage)
	OnTaskDeleted func(data json.RawMessage)
	OnTaskToggled func(data json.RawMessage)
	OnUserJoined  func(data json.RawMessage)
	OnUserLeft    func(data json.RawMessage)
	OnError       func(err error)
}

// Client holds at most one live stream and at most one pending reconnect.
type Client struct {
	cfg      Config
	handlers Handlers
	http     *http.Client

	state atomic.Int32

	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	activeUsers []string
	lastEvent   *model.Event
}

func New(cfg Config, handlers Handlers) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base url is required")
	}
	if strings.TrimSpace(cfg.WorkspaceID) == "" {
		return nil, errors.New("workspace id is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		cfg:         cfg,
		handlers:    handlers,
		http:        httpClient,
		activeUsers: []string{},
	}, nil
}

// Connect starts streaming in the background. Calling it while a stream or
// reconnect is already in flight replaces it.
func (c *Client) Connect(ctx context.Context) {
	c.Disconnect()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &c.cfg.WorkspaceID,
		Component:   "saathi.client",
	})
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.setState(StateConnecting)
	go c.run(runCtx, done)
}

// Disconnect closes the live stream and cancels any pending reconnect. It
// blocks until the stream goroutine has exited, so it must not be called
// from a handler.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.setState(StateDisconnected)
}

func (c *Client) State() State {
	return State(c.state.Load())
}

// ActiveUsers returns the user list from the most recent heartbeat.
func (c *Client) ActiveUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.activeUsers...)
}

// LastEvent returns the most recent domain event received, or nil.
func (c *Client) LastEvent() *model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastEvent == nil {
		return nil
	}
	ev := *c.lastEvent
	return &ev
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.stream(ctx)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.ReconnectDelay)),
		backoff.WithMaxElapsedTime(time.Duration(math.MaxInt64)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "realtime stream lost, reconnecting",
				"error", err, "retry_in", next)
			if c.handlers.OnError != nil {
				c.handlers.OnError(err)
			}
		}),
	)
	if err == nil || ctx.Err() != nil {
		return
	}
	// Only a permanent failure ends the loop while ctx is live.
	c.setState(StateDisconnected)
	slog.ErrorContext(ctx, "realtime stream stopped", "error", err)
	if c.handlers.OnError != nil {
		c.handlers.OnError(err)
	}
}

func (c *Client) stream(ctx context.Context) error {
	c.setState(StateConnecting)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL(), nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("building stream request: %w", err))
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.cfg.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.cfg.SessionID})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("opening stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setState(StateDisconnected)
		return &StatusError{Code: resp.StatusCode}
	}

	c.setState(StateConnected)
	if c.handlers.OnOpen != nil {
		c.handlers.OnOpen()
	}

	dec := newDecoder(resp.Body)
	for {
		payload, err := dec.Next()
		if err != nil {
			c.setState(StateDisconnected)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrStreamClosed
			}
			return fmt.Errorf("reading stream: %w", err)
		}
		c.dispatch(ctx, payload)
	}
}

func (c *Client) streamURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + streamPath + "?workspaceId=" + url.QueryEscape(c.cfg.WorkspaceID)
}

// dispatch routes one frame. Frames that fail to parse are logged and
// skipped without touching the connection.
func (c *Client) dispatch(ctx context.Context, payload string) {
	var msg model.StreamMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.WarnContext(ctx, "failed to parse stream message", "error", err)
		return
	}

	switch msg.Type {
	case model.MessageTypeConnected:
		var data model.ConnectedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			slog.WarnContext(ctx, "failed to parse connected message", "error", err)
			return
		}
		if c.handlers.OnConnected != nil {
			c.handlers.OnConnected(data)
		}
		return

	case model.MessageTypeHeartbeat:
		var data model.HeartbeatData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				slog.WarnContext(ctx, "failed to parse heartbeat", "error", err)
				return
			}
		}
		if data.ActiveUsers != nil {
			c.mu.Lock()
			c.activeUsers = data.ActiveUsers
			c.mu.Unlock()
		}
		if c.handlers.OnHeartbeat != nil {
			c.handlers.OnHeartbeat(c.ActiveUsers())
		}
		return
	}

	if !msg.IsEvent() {
		slog.DebugContext(ctx, "ignoring unknown stream message", "type", msg.Type)
		return
	}

	ev := msg.Event()
	c.mu.Lock()
	c.lastEvent = &ev
	c.mu.Unlock()

	var handler func(json.RawMessage)
	switch ev.Type {
	case model.EventTypeTaskCreated:
		handler = c.handlers.OnTaskCreated
	case model.EventTypeTaskUpdated:
		handler = c.handlers.OnTaskUpdated
	case model.EventTypeTaskDeleted:
		handler = c.handlers.OnTaskDeleted
	case model.EventTypeTaskToggled:
		handler = c.handlers.OnTaskToggled
	case model.EventTypeUserJoined:
		handler = c.handlers.OnUserJoined
	case model.EventTypeUserLeft:
		handler = c.handlers.OnUserLeft
	}
	if handler != nil {
		handler(ev.Data)
	}
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Falcon-J/saathi/common/logger"
	"github.com/Falcon-J/saathi/common/metrics"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/store"
)

var ErrMissingWorkspace = errors.New("event has no workspace id")

const (
	publishQueueSize   = 256
	publishErrorBuffer = 64
)

type publishJob struct {
	ctx   context.Context
	event model.Event
}

type publishFailure struct {
	ctx   context.Context
	event model.Event
	err   error
}

// Publisher writes each event as the sole latest event of its workspace.
// Last write wins; there is no history. Asynchronous publishes are written
// by a single goroutine in the order Publish was called.
type Publisher struct {
	kv      store.KV
	timeout time.Duration
	now     func() time.Time
	lastTS  atomic.Int64

	mu      sync.Mutex
	closed  bool
	queue   chan publishJob
	drained chan struct{}
	errs    chan publishFailure
	done    chan struct{}
}

func NewPublisher(kv store.KV, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Publisher{
		kv:      kv,
		timeout: timeout,
		now:     time.Now,
		queue:   make(chan publishJob, publishQueueSize),
		drained: make(chan struct{}),
		errs:    make(chan publishFailure, publishErrorBuffer),
		done:    make(chan struct{}),
	}
	go p.logFailures()
	go p.drain()
	return p
}

// Publish stores the event in the background and returns immediately. The
// caller's cancellation does not abort the write, and failures are only
// logged: a domain action never observes the outcome of its fan-out.
func (p *Publisher) Publish(ctx context.Context, event model.Event) {
	if event.WorkspaceID == "" {
		slog.WarnContext(ctx, "dropping event without workspace id", "event_type", event.Type)
		return
	}
	event = p.stamp(event)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		slog.WarnContext(ctx, "publisher closed, dropping event",
			"event_type", event.Type,
			"workspace_id", event.WorkspaceID)
		return
	}
	defer p.mu.Unlock()

	select {
	case p.queue <- publishJob{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		metrics.PublishFailures.Inc()
		slog.ErrorContext(ctx, "publish queue full, dropping event",
			"event_type", event.Type,
			"workspace_id", event.WorkspaceID)
	}
}

// PublishSync stores the event and reports the store error, if any.
func (p *Publisher) PublishSync(ctx context.Context, event model.Event) error {
	if event.WorkspaceID == "" {
		return ErrMissingWorkspace
	}
	return p.write(ctx, p.stamp(event))
}

// LatestEvent returns the workspace's latest event, or nil if none was
// published yet.
func (p *Publisher) LatestEvent(ctx context.Context, workspaceID string) (*model.Event, error) {
	raw, err := p.kv.Get(ctx, LatestEventKey(workspaceID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting latest event: %w", err)
	}

	var event model.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return nil, fmt.Errorf("decoding latest event: %w", err)
	}
	return &event, nil
}

// Close writes every queued event, then stops the writer and the failure
// logger. Events published after Close are dropped.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.drained
	close(p.errs)
	<-p.done
}

// drain is the only writer for asynchronous publishes.
func (p *Publisher) drain() {
	defer close(p.drained)

	for job := range p.queue {
		wctx, cancel := context.WithTimeout(job.ctx, p.timeout)
		err := p.write(wctx, job.event)
		cancel()
		if err == nil {
			continue
		}
		select {
		case p.errs <- publishFailure{ctx: job.ctx, event: job.event, err: err}:
		default:
			slog.ErrorContext(job.ctx, "failed to publish event", "error", err, "event_type", job.event.Type)
		}
	}
}

// stamp assigns an id and, when missing, a timestamp. Generated timestamps
// are strictly increasing within the process so two events in the same
// millisecond stay distinguishable to watermark comparisons.
func (p *Publisher) stamp(event model.Event) model.Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == 0 {
		event.Timestamp = p.nextTimestamp()
	}
	return event
}

func (p *Publisher) nextTimestamp() int64 {
	for {
		last := p.lastTS.Load()
		ts := p.now().UnixMilli()
		if ts <= last {
			ts = last + 1
		}
		if p.lastTS.CompareAndSwap(last, ts) {
			return ts
		}
	}
}

func (p *Publisher) write(ctx context.Context, event model.Event) error {
	sc := logger.StartSpan(ctx, "realtime.publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer sc.End()
	sc.SetAttributes(
		attribute.String("saathi.workspace_id", event.WorkspaceID),
		attribute.String("saathi.event_type", string(event.Type)),
	)
	ctx = sc.Context()

	raw, err := json.Marshal(event)
	if err != nil {
		sc.RecordError(err)
		metrics.PublishFailures.Inc()
		return fmt.Errorf("encoding event: %w", err)
	}

	if err := p.kv.Set(ctx, LatestEventKey(event.WorkspaceID), string(raw), 0); err != nil {
		sc.RecordError(err)
		metrics.PublishFailures.Inc()
		return fmt.Errorf("storing latest event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	slog.DebugContext(ctx, "published event",
		"event_type", event.Type,
		"workspace_id", event.WorkspaceID,
		"timestamp", event.Timestamp)
	return nil
}

func (p *Publisher) logFailures() {
	defer close(p.done)

	for f := range p.errs {
		ctx := logger.WithLogFields(f.ctx, logger.LogFields{
			WorkspaceID: logger.Ptr(f.event.WorkspaceID),
			EventType:   logger.Ptr(string(f.event.Type)),
			Component:   "saathi.realtime.publisher",
		})
		slog.ErrorContext(ctx, "failed to publish event", "error", f.err, "event_id", f.event.ID)
	}
}

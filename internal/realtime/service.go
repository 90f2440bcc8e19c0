package realtime

import (
	"context"
	"sync"

	"github.com/Falcon-J/saathi/core/config"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/store"
)

// Service bundles the publisher and presence tracker over one store and
// opens subscriber connections against them.
type Service struct {
	cfg       config.RealtimeConfig
	publisher *Publisher
	presence  *PresenceTracker

	stop     chan struct{}
	stopOnce sync.Once
}

func NewService(kv store.KV, cfg config.RealtimeConfig) *Service {
	return &Service{
		cfg:       cfg,
		publisher: NewPublisher(kv, cfg.PublishTimeout),
		presence:  NewPresenceTracker(kv, cfg.PresenceTTL),
		stop:      make(chan struct{}),
	}
}

func (s *Service) Publisher() *Publisher { return s.publisher }

func (s *Service) Presence() *PresenceTracker { return s.presence }

func (s *Service) Publish(ctx context.Context, event model.Event) {
	s.publisher.Publish(ctx, event)
}

func (s *Service) ActiveUsers(ctx context.Context, workspaceID string) ([]string, error) {
	return s.presence.ActiveUsers(ctx, workspaceID)
}

// Open creates a connection that delivers only events newer than watermark.
func (s *Service) Open(workspaceID, userID string, watermark int64) *Connection {
	conn := NewConnection(s.publisher, s.presence, s.cfg, workspaceID, userID, watermark)
	conn.stop = s.stop
	return conn
}

// CloseConnections ends every running connection opened by this service.
// Connections opened afterwards end right after their connected message.
func (s *Service) CloseConnections() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Close stops all connections and drains in-flight publishes.
func (s *Service) Close() {
	s.CloseConnections()
	s.publisher.Close()
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key or entity does not exist
var ErrNotFound = errors.New("not found")

// KV is the key-value surface the whole service is built on. Every call is a
// single round trip; there are no multi-key transactions.
type KV interface {
	// Get returns ErrNotFound when the key is missing or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetAdd(ctx context.Context, key string, members ...string) error
	SetRemove(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	Ping(ctx context.Context) error
}

type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

type Status struct {
	Connected bool    `json:"connected"`
	Backend   Backend `json:"type"`
}

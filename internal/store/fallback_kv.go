package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Falcon-J/saathi/common/metrics"
)

type FallbackConfig struct {
	MaxRetries int           // attempts per primary operation, minimum 1
	RetryDelay time.Duration // pause between attempts
}

// FallbackKV serves every operation from the primary store while it is
// healthy and from the in-memory secondary once the primary has exhausted its
// retries. A successful Ping brings the primary back. Writes made while the
// primary is down are not replayed to it.
type FallbackKV struct {
	primary   KV
	secondary *MemoryKV
	cfg       FallbackConfig
	up        atomic.Bool
}

// NewFallbackKV wraps primary. A nil primary runs on memory only.
func NewFallbackKV(primary KV, secondary *MemoryKV, cfg FallbackConfig) *FallbackKV {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if secondary == nil {
		secondary = NewMemoryKV()
	}
	f := &FallbackKV{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
	}
	f.setUp(primary != nil)
	return f
}

func (f *FallbackKV) Status() Status {
	if f.up.Load() {
		return Status{Connected: true, Backend: BackendRedis}
	}
	return Status{Connected: false, Backend: BackendMemory}
}

func (f *FallbackKV) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := f.do(ctx, "get", key,
		func(ctx context.Context) error {
			var err error
			val, err = f.primary.Get(ctx, key)
			return err
		},
		func(ctx context.Context) error {
			var err error
			val, err = f.secondary.Get(ctx, key)
			return err
		},
	)
	return val, err
}

func (f *FallbackKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return f.do(ctx, "set", key,
		func(ctx context.Context) error { return f.primary.Set(ctx, key, value, ttl) },
		func(ctx context.Context) error { return f.secondary.Set(ctx, key, value, ttl) },
	)
}

func (f *FallbackKV) Delete(ctx context.Context, key string) error {
	return f.do(ctx, "del", key,
		func(ctx context.Context) error { return f.primary.Delete(ctx, key) },
		func(ctx context.Context) error { return f.secondary.Delete(ctx, key) },
	)
}

func (f *FallbackKV) SetAdd(ctx context.Context, key string, members ...string) error {
	return f.do(ctx, "sadd", key,
		func(ctx context.Context) error { return f.primary.SetAdd(ctx, key, members...) },
		func(ctx context.Context) error { return f.secondary.SetAdd(ctx, key, members...) },
	)
}

func (f *FallbackKV) SetRemove(ctx context.Context, key string, members ...string) error {
	return f.do(ctx, "srem", key,
		func(ctx context.Context) error { return f.primary.SetRemove(ctx, key, members...) },
		func(ctx context.Context) error { return f.secondary.SetRemove(ctx, key, members...) },
	)
}

func (f *FallbackKV) SetMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	err := f.do(ctx, "smembers", key,
		func(ctx context.Context) error {
			var err error
			members, err = f.primary.SetMembers(ctx, key)
			return err
		},
		func(ctx context.Context) error {
			var err error
			members, err = f.secondary.SetMembers(ctx, key)
			return err
		},
	)
	return members, err
}

// Ping checks the primary and marks it up or down accordingly. Without a
// primary it always succeeds against memory.
func (f *FallbackKV) Ping(ctx context.Context) error {
	if f.primary == nil {
		return nil
	}
	if err := f.primary.Ping(ctx); err != nil {
		if f.up.Load() {
			slog.WarnContext(ctx, "primary store ping failed, serving from memory", "error", err)
		}
		f.setUp(false)
		return fmt.Errorf("ping primary: %w", err)
	}
	if !f.up.Load() {
		slog.InfoContext(ctx, "primary store reachable again")
	}
	f.setUp(true)
	return nil
}

// Monitor pings the primary on every interval until ctx is done, so a
// recovered primary is picked up without a restart.
func (f *FallbackKV) Monitor(ctx context.Context, interval time.Duration) {
	if f.primary == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = f.Ping(ctx)
		}
	}
}

func (f *FallbackKV) do(ctx context.Context, op, key string, primary, secondary func(context.Context) error) error {
	if f.primary == nil || !f.up.Load() {
		return secondary(ctx)
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := primary(ctx)
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		// A cancelled caller says nothing about the primary's health.
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(f.cfg.RetryDelay)),
		backoff.WithMaxTries(uint(f.cfg.MaxRetries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "primary store operation failed",
				"op", op,
				"key", key,
				"attempt", attempt,
				"max_attempts", f.cfg.MaxRetries,
				"retry_in", next,
				"error", err)
		}),
	)
	// The final attempt comes back still wrapped.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	}

	slog.ErrorContext(ctx, "primary store unavailable, falling back to memory",
		"op", op,
		"key", key,
		"attempts", attempt,
		"error", err)
	f.setUp(false)
	metrics.StoreFallbacks.Inc()
	return secondary(ctx)
}

func (f *FallbackKV) setUp(up bool) {
	f.up.Store(up)
	if up {
		metrics.StoreBackendUp.Set(1)
	} else {
		metrics.StoreBackendUp.Set(0)
	}
}

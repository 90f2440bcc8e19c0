package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Falcon-J/saathi/common/metrics"
	"github.com/Falcon-J/saathi/internal/store"
)

// PresenceTracker records per-user last-seen timestamps and derives the set
// of active users. Entries older than the TTL are evicted when read.
type PresenceTracker struct {
	kv  store.KV
	ttl time.Duration
	now func() time.Time
}

func NewPresenceTracker(kv store.KV, ttl time.Duration) *PresenceTracker {
	return &PresenceTracker{kv: kv, ttl: ttl, now: time.Now}
}

// WithClock replaces the tracker's time source.
func (t *PresenceTracker) WithClock(now func() time.Time) *PresenceTracker {
	t.now = now
	return t
}

// Touch refreshes the user's last-seen time and adds them to the active set.
func (t *PresenceTracker) Touch(ctx context.Context, workspaceID, userID string) error {
	now := strconv.FormatInt(t.now().UnixMilli(), 10)

	if err := t.kv.Set(ctx, PresenceKey(workspaceID, userID), now, t.ttl); err != nil {
		return fmt.Errorf("touching presence: %w", err)
	}
	if err := t.kv.SetAdd(ctx, ActiveUsersKey(workspaceID), userID); err != nil {
		return fmt.Errorf("adding active user: %w", err)
	}
	return nil
}

// ActiveUsers returns the users seen within the TTL. Members whose presence
// record is missing, unparsable or stale are removed from the active set.
func (t *PresenceTracker) ActiveUsers(ctx context.Context, workspaceID string) ([]string, error) {
	members, err := t.kv.SetMembers(ctx, ActiveUsersKey(workspaceID))
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}

	cutoff := t.now().Add(-t.ttl).UnixMilli()
	active := make([]string, 0, len(members))
	var stale []string

	for _, userID := range members {
		raw, err := t.kv.Get(ctx, PresenceKey(workspaceID, userID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				stale = append(stale, userID)
				continue
			}
			// unknown state, keep the member but do not report it
			slog.WarnContext(ctx, "failed to read presence", "error", err, "user_id", userID)
			continue
		}

		lastSeen, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || lastSeen <= cutoff {
			stale = append(stale, userID)
			continue
		}
		active = append(active, userID)
	}

	if len(stale) > 0 {
		if err := t.kv.SetRemove(ctx, ActiveUsersKey(workspaceID), stale...); err != nil {
			slog.WarnContext(ctx, "failed to evict stale presence", "error", err, "count", len(stale))
		} else {
			metrics.PresenceEvictions.Add(float64(len(stale)))
		}
	}

	return active, nil
}

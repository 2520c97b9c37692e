package inflight

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/redis"
)

// Tracker records which attachment categories of a lease request have a decision in flight.
// A category is busy between Begin and End; a second Begin on a busy category is refused.
type Tracker interface {
	Begin(ctx context.Context, requestID int64, category string) error
	End(ctx context.Context, requestID int64, category string) error
	Busy(ctx context.Context, requestID int64, category string) (bool, error)
	BusyCategories(ctx context.Context, requestID int64) ([]string, error)
}

func busyError(requestID int64, category string) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "a decision for %q is already being processed", category).
		WithDetails(map[string]any{"request_id": requestID, "category": category})
}

// MemoryTracker keeps markers in process memory. Used when Redis is not configured.
type MemoryTracker struct {
	mu   sync.Mutex
	busy map[int64]map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{busy: map[int64]map[string]struct{}{}}
}

func (t *MemoryTracker) Begin(_ context.Context, requestID int64, category string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	categories, ok := t.busy[requestID]
	if !ok {
		categories = map[string]struct{}{}
		t.busy[requestID] = categories
	}
	if _, taken := categories[category]; taken {
		return busyError(requestID, category)
	}
	categories[category] = struct{}{}
	return nil
}

func (t *MemoryTracker) End(_ context.Context, requestID int64, category string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	categories, ok := t.busy[requestID]
	if !ok {
		return nil
	}
	delete(categories, category)
	if len(categories) == 0 {
		delete(t.busy, requestID)
	}
	return nil
}

func (t *MemoryTracker) Busy(_ context.Context, requestID int64, category string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, taken := t.busy[requestID][category]
	return taken, nil
}

func (t *MemoryTracker) BusyCategories(_ context.Context, requestID int64) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.busy[requestID]))
	for category := range t.busy[requestID] {
		out = append(out, category)
	}
	sort.Strings(out)
	return out, nil
}

// RedisTracker shares markers across API replicas. Each busy category is its own key,
// claimed with SET NX and carrying its own TTL, which bounds how long a crashed replica
// can leave that category busy.
type RedisTracker struct {
	store redis.MarkerStore
	ttl   time.Duration
}

func NewRedisTracker(store redis.MarkerStore, ttl time.Duration) *RedisTracker {
	return &RedisTracker{store: store, ttl: ttl}
}

func (t *RedisTracker) key(requestID int64, category string) string {
	return t.store.InFlightKey(strconv.FormatInt(requestID, 10), category)
}

func (t *RedisTracker) Begin(ctx context.Context, requestID int64, category string) error {
	acquired, err := t.store.Acquire(ctx, t.key(requestID, category), t.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark category in flight")
	}
	if !acquired {
		return busyError(requestID, category)
	}
	return nil
}

func (t *RedisTracker) End(ctx context.Context, requestID int64, category string) error {
	if err := t.store.Del(ctx, t.key(requestID, category)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear in-flight marker")
	}
	return nil
}

func (t *RedisTracker) Busy(ctx context.Context, requestID int64, category string) (bool, error) {
	busy, err := t.store.Exists(ctx, t.key(requestID, category))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read in-flight marker")
	}
	return busy, nil
}

func (t *RedisTracker) BusyCategories(ctx context.Context, requestID int64) ([]string, error) {
	prefix := t.store.InFlightPrefix(strconv.FormatInt(requestID, 10))
	keys, err := t.store.ScanKeys(ctx, prefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list in-flight markers")
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		category := strings.TrimPrefix(key, prefix)
		if _, dup := seen[category]; dup || category == "" {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	sort.Strings(out)
	return out, nil
}

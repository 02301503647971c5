package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// CursorStore persists the last-checked timestamp so a restart does not
// re-notify for leads the operator has already seen.
type CursorStore interface {
	// Load returns the stored cursor. found is false when no cursor has
	// ever been saved, which callers treat as "never checked".
	Load(ctx context.Context) (cursor time.Time, found bool, err error)
	// Save overwrites the stored cursor.
	Save(ctx context.Context, cursor time.Time) error
}

// RedisCursorStore keeps the cursor under a single Redis key as an RFC3339 string.
type RedisCursorStore struct {
	client *redis.Client
	key    string
	tracer trace.Tracer
}

// NewRedisCursorStore creates a Redis-backed cursor store.
func NewRedisCursorStore(client *redis.Client, key string) *RedisCursorStore {
	if client == nil {
		panic("dashboard: redis client cannot be nil")
	}
	if key == "" {
		key = "dashboard:last_checked"
	}
	return &RedisCursorStore{
		client: client,
		key:    key,
		tracer: otel.Tracer("leadwatch.internal.dashboard.cursor"),
	}
}

// Load retrieves the cursor from Redis.
func (s *RedisCursorStore) Load(ctx context.Context) (time.Time, bool, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load_cursor")
	defer span.End()

	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil
		}
		span.RecordError(err)
		return time.Time{}, false, fmt.Errorf("dashboard: load cursor: %w", err)
	}

	cursor, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		span.RecordError(err)
		return time.Time{}, false, fmt.Errorf("dashboard: parse cursor %q: %w", raw, err)
	}
	return cursor, true, nil
}

// Save persists the cursor to Redis. No TTL: the cursor outlives sessions.
func (s *RedisCursorStore) Save(ctx context.Context, cursor time.Time) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.save_cursor")
	defer span.End()

	raw := cursor.UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dashboard: save cursor: %w", err)
	}
	return nil
}

// MemoryCursorStore is an in-memory CursorStore for tests and ephemeral runs.
type MemoryCursorStore struct {
	mu     sync.Mutex
	cursor time.Time
	set    bool
}

// NewMemoryCursorStore creates an empty in-memory cursor store.
func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{}
}

// Load returns the stored cursor.
func (s *MemoryCursorStore) Load(context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.set, nil
}

// Save overwrites the stored cursor.
func (s *MemoryCursorStore) Save(_ context.Context, cursor time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
	s.set = true
	return nil
}

var _ CursorStore = (*RedisCursorStore)(nil)
var _ CursorStore = (*MemoryCursorStore)(nil)

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testTTL = time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// backend pairs a Store with a way to shift time for both the store clock
// and, for Redis, the server-side TTLs.
type backend struct {
	name    string
	store   Store
	advance func(time.Duration)
}

func newMemoryBackend(t *testing.T) backend {
	t.Helper()
	clock := newFakeClock()
	s, err := NewMemoryStore(Options{TTL: testTTL, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return backend{name: "memory", store: s, advance: clock.Advance}
}

func newRedisBackend(t *testing.T) (backend, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	clock := newFakeClock()
	s, err := NewRedisStore(rdb, "test", Options{TTL: testTTL, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	// Server TTLs are left alone so expired records stay visible to the
	// store clock, the way a lagging Redis expiry would leave them.
	return backend{name: "redis", store: s, advance: clock.Advance}, mr
}

func backends(t *testing.T) []backend {
	t.Helper()
	rb, _ := newRedisBackend(t)
	return []backend{newMemoryBackend(t), rb}
}

func mustIssue(t *testing.T, s Store, username string) Token {
	t.Helper()
	tok, err := s.Issue(context.Background(), username)
	if err != nil {
		t.Fatalf("Issue(%q): %v", username, err)
	}
	return tok
}

func mustLen(t *testing.T, s Store) int {
	t.Helper()
	n, err := s.Len(context.Background())
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	return n
}

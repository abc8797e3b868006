package goIdentity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSweepExpired(t *testing.T) {
	engine, clock := newTestEngine(t, func(c *Config) {
		c.Session.TokenTTL = time.Hour
	})
	ctx := context.Background()

	mustLogin(t, engine, "demo", "demo123")
	mustLogin(t, engine, "admin", "admin123")
	clock.Advance(30 * time.Minute)
	fresh := mustLogin(t, engine, "demo", "demo123")
	clock.Advance(31 * time.Minute)

	n, err := engine.SweepExpired(ctx)
	if err != nil || n != 2 {
		t.Fatalf("SweepExpired: n=%d err=%v", n, err)
	}
	if _, err := engine.Resolve(ctx, fresh.Token); err != nil {
		t.Fatalf("fresh token must survive sweep: %v", err)
	}
	if got := engine.MetricsSnapshot().Counters[MetricTokensSwept]; got != 2 {
		t.Fatalf("expected swept counter 2, got %d", got)
	}
}

func TestBackgroundSweeper(t *testing.T) {
	engine, clock := newTestEngine(t, func(c *Config) {
		c.Session.TokenTTL = time.Minute
		c.Session.SweepInterval = 5 * time.Millisecond
	})

	mustLogin(t, engine, "demo", "demo123")
	clock.Advance(2 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for tokenCount(t, engine) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("background sweeper did not remove the expired token")
		}
		time.Sleep(5 * time.Millisecond)
	}

	engine.Close()
	if _, err := engine.SweepExpired(context.Background()); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed after Close, got %v", err)
	}
}

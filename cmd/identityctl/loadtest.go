package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type LoadTestCommand struct {
	Users       int    `long:"users" default:"200" description:"number of accounts to create and log in"`
	Concurrency int    `long:"concurrency" default:"64" description:"number of concurrent workers"`
	Ops         int    `long:"ops" default:"200000" description:"resolve operations to run"`
	Backend     string `long:"backend" default:"memory" choice:"memory" choice:"redis" description:"token store"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"redis address; miniredis is started when empty"`
	Prefix      string `long:"prefix" default:"it" description:"redis key prefix"`
	Metrics     bool   `long:"metrics" description:"print the Prometheus exposition after the run"`

	Argon ArgonOptions `group:"argon2"`

	global *Options
	out    io.Writer
}

func (c *LoadTestCommand) Execute([]string) error {
	if c.Users <= 0 || c.Concurrency <= 0 || c.Ops <= 0 {
		return errors.New("users, concurrency and ops must be > 0")
	}
	// Hashing dominates logins; the load test is about the token path.
	if c.Argon.Memory == 0 {
		c.Argon.Memory = 8 * 1024
	}
	if c.Argon.Time == 0 {
		c.Argon.Time = 1
	}
	if c.Argon.Parallelism == 0 {
		c.Argon.Parallelism = 1
	}

	ctx := context.Background()
	cfg := goIdentity.DefaultConfig()
	argon := c.Argon.config()
	cfg.Password.Memory = argon.Memory
	cfg.Password.Time = argon.Time
	cfg.Password.Parallelism = argon.Parallelism
	cfg.Password.UpgradeOnLogin = false
	cfg.Session.RedisPrefix = c.Prefix
	cfg.Security.MaxLoginAttempts = 0
	cfg.Security.LoginCooldownDuration = 0
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	builder := goIdentity.New().WithConfig(cfg)
	if c.global != nil && c.global.Verbose {
		builder = builder.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	if c.Backend == "redis" {
		client, cleanup, err := c.redisClient()
		if err != nil {
			return err
		}
		defer cleanup()
		builder = builder.WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(c.out, "creating %d users...\n", c.Users)
	startSeed := time.Now()
	names := make([]string, c.Users)
	for i := range names {
		names[i] = fmt.Sprintf("load-%d", i)
		if _, err := engine.CreateUser(ctx, goIdentity.CreateUserRequest{
			Username: names[i],
			Password: "load-test-pass",
		}); err != nil {
			return fmt.Errorf("create %s: %w", names[i], err)
		}
	}
	fmt.Fprintf(c.out, "created in %s\n", time.Since(startSeed).Round(time.Millisecond))

	tokens := make([]string, c.Users)
	loginStats := runPhase(c.Users, c.Concurrency, func(_ *rand.Rand, i int) error {
		res, err := engine.Login(ctx, names[i], "load-test-pass")
		if err != nil {
			return err
		}
		tokens[i] = res.Token
		return nil
	})
	resolveStats := runPhase(c.Ops, c.Concurrency, func(r *rand.Rand, _ int) error {
		_, err := engine.Resolve(ctx, tokens[r.Intn(len(tokens))])
		return err
	})
	logoutStats := runPhase(c.Users, c.Concurrency, func(_ *rand.Rand, i int) error {
		ok, err := engine.Logout(ctx, tokens[i])
		if err == nil && !ok {
			err = errors.New("token already gone")
		}
		return err
	})

	fmt.Fprintln(c.out, "---- results ----")
	printStats(c.out, "login", loginStats)
	printStats(c.out, "resolve", resolveStats)
	printStats(c.out, "logout", logoutStats)

	if c.Metrics {
		fmt.Fprintln(c.out, "---- metrics ----")
		fmt.Fprint(c.out, prometheus.NewPrometheusExporter(engine).Render(ctx))
	}
	return nil
}

func (c *LoadTestCommand) redisClient() (redis.UniversalClient, func(), error) {
	addr := c.RedisAddr
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Fprintf(c.out, "using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Fprintf(c.out, "using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase runs op ops times across concurrency workers. Each call gets a
// worker-local rand and the operation index.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

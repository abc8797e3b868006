package goIdentity

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/logging"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/roles"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/users"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	tokenStore session.Store
	auditSink  AuditSink
	logger     *slog.Logger
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis stores tokens in Redis and enables login throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenStore overrides the token backend chosen by Build.
func (b *Builder) WithTokenStore(store session.Store) *Builder {
	b.tokenStore = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for background failures. The default discards.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock replaces time.Now for token expiry and record timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the config, hashes seed passwords and starts the audit
// dispatcher and, if configured, the sweeper.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	hasher, err := password.NewArgon2(cfg.argon2())
	if err != nil {
		return nil, err
	}

	// -------- RECORD STORES --------
	seedUsers := make([]users.Seed, 0, len(cfg.Seed.Users))
	for _, su := range cfg.Seed.Users {
		hash := su.PasswordHash
		if hash == "" {
			hash, err = hasher.Hash(su.Password)
			if err != nil {
				return nil, err
			}
		}
		seedUsers = append(seedUsers, users.Seed{
			ID:           su.ID,
			Username:     su.Username,
			PasswordHash: hash,
			RealName:     su.RealName,
			Email:        su.Email,
			Role:         su.Role,
		})
	}
	userStore, err := users.NewStore(now, seedUsers...)
	if err != nil {
		return nil, err
	}
	roleStore, err := roles.NewStore(now, cfg.Seed.Roles...)
	if err != nil {
		return nil, err
	}

	// -------- TOKEN STORE --------
	tokens := b.tokenStore
	backend := "custom"
	if tokens == nil {
		opts := session.Options{
			TTL:        cfg.Session.TokenTTL,
			TokenBytes: cfg.Session.TokenBytes,
			Now:        now,
		}
		if b.redis != nil {
			backend = "redis"
			tokens, err = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, opts)
		} else {
			backend = "memory"
			tokens, err = session.NewMemoryStore(opts)
		}
		if err != nil {
			return nil, err
		}
	}

	// Unknown usernames are verified against this hash so both failure
	// paths pay the same Argon2 cost.
	dummy, err := hasher.Hash("goidentity-timing-equalizer")
	if err != nil {
		return nil, err
	}

	logger := logging.Logger(logging.Discard())
	if b.logger != nil {
		logger = logging.NewSlogLogger(b.logger)
	}

	engine := &Engine{
		config:    cfg,
		users:     userStore,
		roles:     roleStore,
		tokens:    tokens,
		backend:   backend,
		hasher:    hasher,
		dummyHash: dummy,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger.With("component", "goidentity"),
		now:       now,
		closed:    make(chan struct{}),
	}
	engine.maxPasswordBytes = cfg.Password.MaxPasswordBytes
	if engine.maxPasswordBytes == 0 {
		engine.maxPasswordBytes = password.DefaultMaxPasswordBytes
	}

	if b.redis != nil && cfg.Security.MaxLoginAttempts > 0 {
		engine.limiter = rate.New(b.redis, rate.Config{
			KeyPrefix:             cfg.Session.RedisPrefix,
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	auditCfg := audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}
	if cfg.Audit.RetainAccountChanges {
		auditCfg.Retain = accountChangeEvents
	}
	engine.audit = audit.NewDispatcher(auditCfg, b.auditSink)

	if cfg.Session.SweepInterval > 0 {
		engine.startSweeper(cfg.Session.SweepInterval)
	}

	b.built = true

	return engine, nil
}

package goIdentity

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/internal/paging"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/roles"
	"github.com/MrEthical07/goIdentity/session"
)

// Config holds every Engine setting. Start from DefaultConfig and override.
type Config struct {
	Session  SessionConfig
	Password PasswordConfig
	Account  AccountConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Listing  ListingConfig
	Seed     SeedConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls token issuance and storage.
type SessionConfig struct {
	TokenTTL   time.Duration
	TokenBytes int
	// RedisPrefix namespaces token keys when a Redis client is configured.
	RedisPrefix string
	// SweepInterval starts a background sweeper when positive.
	SweepInterval time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id parameters and the length policy.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
	MinLength        int
	UpgradeOnLogin   bool
}

// AccountConfig holds user-record defaults.
type AccountConfig struct {
	DefaultRole       string
	MaxUsernameLength int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls login throttling. Throttling needs a Redis client
// and is off when MaxLoginAttempts is zero.
type SecurityConfig struct {
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	EnableIPThrottle      bool
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// RetainAccountChanges keeps password changes, user updates and deletes
	// and role deletes out of DropIfFull shedding.
	RetainAccountChanges bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// ListingConfig bounds ListUsers and ListRoles page sizes.
type ListingConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

/*
====================================
SEED CONFIG
====================================
*/

// SeedUser is a user installed at Build. PasswordHash wins over Password
// when both are set.
type SeedUser struct {
	ID           int64
	Username     string
	Password     string
	PasswordHash string
	RealName     string
	Email        string
	Role         string
}

// SeedConfig lists the records installed at Build.
type SeedConfig struct {
	Users []SeedUser
	Roles []roles.Seed
}

// DefaultSeed returns the built-in administrator and demo accounts plus the
// admin and user roles. The passwords are well known; replace them outside
// development.
func DefaultSeed() SeedConfig {
	return SeedConfig{
		Users: []SeedUser{
			{ID: 1, Username: "admin", Password: "admin123", RealName: "Administrator", Email: "admin@example.com", Role: "admin"},
			{ID: 2, Username: "demo", Password: "demo123", RealName: "Demo User", Email: "demo@example.com", Role: "user"},
		},
		Roles: []roles.Seed{
			{ID: 1, Name: "Administrator", Code: "admin", Description: "Full administrative access"},
			{ID: 2, Name: "User", Code: "user", Description: "Regular account"},
		},
	}
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Session: SessionConfig{
			TokenTTL:      session.DefaultTTL,
			TokenBytes:    internal.DefaultTokenBytes,
			RedisPrefix:   session.DefaultRedisPrefix,
			SweepInterval: 0,
		},
		Password: PasswordConfig{
			Memory:           pw.Memory,
			Time:             pw.Time,
			Parallelism:      pw.Parallelism,
			SaltLength:       pw.SaltLength,
			KeyLength:        pw.KeyLength,
			MaxPasswordBytes: pw.MaxPasswordBytes,
			MinLength:        6,
			UpgradeOnLogin:   true,
		},
		Account: AccountConfig{
			DefaultRole:       "user",
			MaxUsernameLength: 64,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			EnableIPThrottle:      false,
		},
		Audit: AuditConfig{
			Enabled:              false,
			BufferSize:           1024,
			DropIfFull:           true,
			RetainAccountChanges: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Listing: ListingConfig{
			DefaultPageSize: paging.DefaultPageSize,
			MaxPageSize:     paging.MaxPageSize,
		},
		Seed: DefaultSeed(),
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Seed.Users = slices.Clone(cfg.Seed.Users)
	out.Seed.Roles = slices.Clone(cfg.Seed.Roles)
	return out
}

func (c *Config) argon2() password.Config {
	return password.Config{
		Memory:           c.Password.Memory,
		Time:             c.Password.Time,
		Parallelism:      c.Password.Parallelism,
		SaltLength:       c.Password.SaltLength,
		KeyLength:        c.Password.KeyLength,
		MaxPasswordBytes: c.Password.MaxPasswordBytes,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	// Redis stores expiry in whole milliseconds.
	if c.Session.TokenTTL < time.Millisecond {
		return errors.New("Session.TokenTTL must be >= 1ms")
	}
	if c.Session.TokenBytes < internal.MinTokenBytes || c.Session.TokenBytes > internal.MaxTokenBytes {
		return fmt.Errorf("Session.TokenBytes must be in [%d,%d]", internal.MinTokenBytes, internal.MaxTokenBytes)
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("Session.SweepInterval must be >= 0")
	}

	// Password
	if c.Password.MinLength < 1 {
		return errors.New("Password.MinLength must be >= 1")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password.MaxPasswordBytes must be >= 0")
	}
	if c.Password.MaxPasswordBytes > 0 && c.Password.MinLength > c.Password.MaxPasswordBytes {
		return errors.New("Password.MinLength must not exceed Password.MaxPasswordBytes")
	}

	// Account
	if strings.TrimSpace(c.Account.DefaultRole) == "" {
		return errors.New("Account.DefaultRole must be set")
	}
	if c.Account.MaxUsernameLength < 1 || c.Account.MaxUsernameLength > 255 {
		return errors.New("Account.MaxUsernameLength must be in [1,255]")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security.MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security.LoginCooldownDuration must be > 0 when MaxLoginAttempts is set")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics.EnableLatencyHistograms requires Metrics.Enabled")
	}

	// Listing
	if c.Listing.DefaultPageSize < 1 {
		return errors.New("Listing.DefaultPageSize must be >= 1")
	}
	if c.Listing.MaxPageSize < c.Listing.DefaultPageSize {
		return errors.New("Listing.MaxPageSize must be >= Listing.DefaultPageSize")
	}

	// Seed
	seen := make(map[string]struct{}, len(c.Seed.Users))
	for _, u := range c.Seed.Users {
		if u.Username == "" {
			return fmt.Errorf("Seed user %d has no username", u.ID)
		}
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("Seed username %q is duplicated", u.Username)
		}
		seen[u.Username] = struct{}{}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("Seed user %q needs a password or password hash", u.Username)
		}
	}

	return nil
}

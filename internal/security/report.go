package security

import (
	"fmt"
	"time"
)

// Argon2id parameters below these values are reported as weak.
const (
	recommendedMemoryKB = 19 * 1024
	recommendedTime     = 2
)

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type Report struct {
	TokenBackend       string
	TokenTTL           time.Duration
	TokenBytes         int
	Argon2             PasswordReport
	MinPasswordLength  int
	HashUpgradeActive  bool
	RateLimitingActive bool
	IPThrottleActive   bool
	AuditEnabled       bool
	SweeperActive      bool
	DefaultCredentials []string
	Warnings           []string
}

type ReportInput struct {
	TokenBackend          string
	TokenTTL              time.Duration
	TokenBytes            int
	Password              PasswordReport
	MinPasswordLength     int
	UpgradeOnLogin        bool
	LimiterConfigured     bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	AuditEnabled          bool
	SweepInterval         time.Duration
	DefaultCredentials    []string
}

func BuildReport(input ReportInput) Report {
	rateLimiting := input.LimiterConfigured &&
		input.MaxLoginAttempts > 0 &&
		input.LoginCooldownDuration > 0

	r := Report{
		TokenBackend:       input.TokenBackend,
		TokenTTL:           input.TokenTTL,
		TokenBytes:         input.TokenBytes,
		Argon2:             input.Password,
		MinPasswordLength:  input.MinPasswordLength,
		HashUpgradeActive:  input.UpgradeOnLogin,
		RateLimitingActive: rateLimiting,
		IPThrottleActive:   rateLimiting && input.EnableIPThrottle,
		AuditEnabled:       input.AuditEnabled,
		SweeperActive:      input.SweepInterval > 0,
		DefaultCredentials: input.DefaultCredentials,
	}

	if len(input.DefaultCredentials) > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("seed accounts use built-in passwords: %v", input.DefaultCredentials))
	}
	if !rateLimiting {
		r.Warnings = append(r.Warnings, "login throttling is off")
	}
	if input.Password.Memory < recommendedMemoryKB || input.Password.Time < recommendedTime {
		r.Warnings = append(r.Warnings, "argon2 cost is below the recommended minimum")
	}
	if input.TokenBackend == "memory" && !r.SweeperActive {
		r.Warnings = append(r.Warnings, "expired tokens are only evicted on access")
	}
	return r
}

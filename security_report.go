package goIdentity

import "github.com/MrEthical07/goIdentity/internal/security"

type (
	// SecurityReport summarizes the effective security settings of an Engine.
	SecurityReport = security.Report
	// PasswordConfigReport is the Argon2id part of a SecurityReport.
	PasswordConfigReport = security.PasswordReport
)

// SecurityReport describes the engine's effective configuration, with
// warnings for weak or development-only settings.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return security.BuildReport(security.ReportInput{
		TokenBackend: e.backend,
		TokenTTL:     e.config.Session.TokenTTL,
		TokenBytes:   e.config.Session.TokenBytes,
		Password: security.PasswordReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		MinPasswordLength:     e.config.Password.MinLength,
		UpgradeOnLogin:        e.config.Password.UpgradeOnLogin,
		LimiterConfigured:     e.limiter != nil,
		EnableIPThrottle:      e.config.Security.EnableIPThrottle,
		MaxLoginAttempts:      e.config.Security.MaxLoginAttempts,
		LoginCooldownDuration: e.config.Security.LoginCooldownDuration,
		AuditEnabled:          e.audit != nil,
		SweepInterval:         e.config.Session.SweepInterval,
		DefaultCredentials:    defaultCredentials(e.config.Seed.Users),
	})
}

// defaultCredentials lists seed users still on the password DefaultSeed
// ships for the same username.
func defaultCredentials(seeds []SeedUser) []string {
	builtin := make(map[string]string)
	for _, su := range DefaultSeed().Users {
		builtin[su.Username] = su.Password
	}

	var out []string
	for _, su := range seeds {
		if su.PasswordHash != "" {
			continue
		}
		if pw, ok := builtin[su.Username]; ok && pw == su.Password {
			out = append(out, su.Username)
		}
	}
	return out
}

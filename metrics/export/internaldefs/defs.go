package internaldefs

import (
	"context"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goIdentity.MetricLoginSuccess, Name: "goidentity_login_success_total", Help: "Successful logins."},
	{ID: goIdentity.MetricLoginFailure, Name: "goidentity_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: goIdentity.MetricLoginRateLimited, Name: "goidentity_login_rate_limited_total", Help: "Logins rejected by the attempt limiter."},
	{ID: goIdentity.MetricLoginDisabled, Name: "goidentity_login_disabled_total", Help: "Logins rejected because the account is disabled."},
	{ID: goIdentity.MetricLogout, Name: "goidentity_logout_total", Help: "Tokens revoked by logout."},
	{ID: goIdentity.MetricResolveSuccess, Name: "goidentity_resolve_success_total", Help: "Tokens resolved to a profile."},
	{ID: goIdentity.MetricResolveFailure, Name: "goidentity_resolve_failure_total", Help: "Tokens that failed to resolve."},
	{ID: goIdentity.MetricTokenIssued, Name: "goidentity_token_issued_total", Help: "Session tokens issued."},
	{ID: goIdentity.MetricTokensRevoked, Name: "goidentity_tokens_revoked_total", Help: "Session tokens revoked by password changes, disables and deletes."},
	{ID: goIdentity.MetricTokensSwept, Name: "goidentity_tokens_swept_total", Help: "Expired session tokens removed by sweeps."},
	{ID: goIdentity.MetricUserCreated, Name: "goidentity_user_created_total", Help: "Users created."},
	{ID: goIdentity.MetricUserDuplicate, Name: "goidentity_user_duplicate_total", Help: "User creations rejected as duplicate."},
	{ID: goIdentity.MetricUserUpdated, Name: "goidentity_user_updated_total", Help: "User updates."},
	{ID: goIdentity.MetricUserDeleted, Name: "goidentity_user_deleted_total", Help: "Users deleted."},
	{ID: goIdentity.MetricPasswordChanged, Name: "goidentity_password_changed_total", Help: "Password changes."},
	{ID: goIdentity.MetricPasswordUpgraded, Name: "goidentity_password_upgraded_total", Help: "Password hashes rehashed with current parameters."},
	{ID: goIdentity.MetricRoleCreated, Name: "goidentity_role_created_total", Help: "Roles created."},
	{ID: goIdentity.MetricRoleUpdated, Name: "goidentity_role_updated_total", Help: "Role updates."},
	{ID: goIdentity.MetricRoleDeleted, Name: "goidentity_role_deleted_total", Help: "Roles deleted."},
}

// GaugeDef binds one StoreStats field to its exported name.
type GaugeDef struct {
	Name  string
	Help  string
	Value func(goIdentity.StoreStats) int
}

// GaugeDefs lists the store-size gauges in render order.
var GaugeDefs = []GaugeDef{
	{Name: "goidentity_users", Help: "User accounts in the store.", Value: func(s goIdentity.StoreStats) int { return s.Users }},
	{Name: "goidentity_roles", Help: "Roles in the store.", Value: func(s goIdentity.StoreStats) int { return s.Roles }},
	{Name: "goidentity_tokens_stored", Help: "Session tokens held by the token store, expired ones included until evicted.", Value: func(s goIdentity.StoreStats) int { return s.Tokens }},
}

// StoreUpName reports whether the last StoreStats read succeeded.
const StoreUpName = "goidentity_store_up"

// AuditDroppedName counts audit events that never reached the queue.
const AuditDroppedName = "goidentity_audit_dropped_total"

// Source is everything the exporters read from an engine.
type Source interface {
	MetricsSnapshot() goIdentity.MetricsSnapshot
	AuditDropped() uint64
	StoreStats(ctx context.Context) (goIdentity.StoreStats, error)
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goIdentity.MetricResolveLatency, Name: "goidentity_resolve_latency_seconds", Help: "Token resolve latency."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the
// engine's millisecond buckets.
var HistogramBounds = []string{
	"0.001",
	"0.002",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_002",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

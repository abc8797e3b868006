// Package prometheus renders goIdentity engine metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps an engine and exposes an [http.Handler].
// Counters are named goidentity_*_total; the only histogram is
// goidentity_resolve_latency_seconds. Store sizes are gauges
// (goidentity_users, goidentity_roles, goidentity_tokens_stored) guarded by
// goidentity_store_up.
//
// # What this package must NOT do
//
//   - Register with a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus

// Package session owns opaque session tokens: issuance, validation with lazy
// eviction of expired records, revocation and sweeping.
//
// # Backends
//
// [MemoryStore] keeps tokens in a mutex-guarded map and is the default.
// [RedisStore] keeps them in Redis as a compact versioned binary blob (see
// [Encode]) with a per-user index set, so tokens survive process restarts and
// can be shared between replicas.
//
// # Expiry
//
// Both backends judge expiry with [Live] against an injected clock. A token is
// live while now <= ExpiresAt. Expired records found during [Store.Validate]
// are deleted before the error is returned.
//
// # What this package must NOT do
//
//   - Look up users or decide whether a username is still valid.
//   - Import goIdentity, users or roles (no upward imports).
package session

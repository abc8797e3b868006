// Package goIdentity is an in-process identity and access layer: password
// login, opaque session tokens, and administration of user and role records.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config]
// and value types (Profile, Role, LoginResult, MetricsSnapshot). The record
// stores live in the users, roles and session packages; rate limiting, audit
// dispatch, paging and logging live under internal/.
//
// # What this package must NOT do
//
//   - Speak HTTP or any other transport; callers map errors with [KindOf].
//   - Persist users or roles outside process memory.
//   - Return password hashes or plaintext passwords from any API.
//
// # Token model
//
// Tokens are opaque random strings bound to a username by value. [Engine.Resolve]
// re-checks the user on every call, so deleting or disabling a user stops its
// tokens from resolving even before they are revoked.
package goIdentity

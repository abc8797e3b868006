// Package internal contains helpers that are private to goIdentity, chiefly
// secure generation of opaque session token values.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - logging: context-aware structured logger over log/slog
//   - paging: keyword filtering and page slicing for store listings
//   - rate: Redis-backed login throttling primitives
//   - security: configuration posture report
//
// # What this package must NOT do
//
//   - Be imported by any package outside the goIdentity module.
package internal

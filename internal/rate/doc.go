// Package rate provides the Redis-backed fixed-window counters behind login
// throttling.
//
// # Window semantics
//
// INCR + conditional EXPIRE on the first hit of a window. Keys:
//   - <prefix>:rl:<username>  failed logins per username
//   - <prefix>:rli:<ip>       failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide whether a login succeeded; the Engine reports outcomes.
//   - Be imported outside the goIdentity module.
package rate

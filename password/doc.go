// Package password hashes and verifies account passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Every hash carries its own random salt, so two users with the same password
// never share a stored digest. [Argon2.NeedsUpgrade] reports hashes produced
// with weaker parameters than the current config so the engine can re-hash
// on the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Enforce password policy (minimum length is an Engine concern).
//   - Import any other goIdentity package.
package password

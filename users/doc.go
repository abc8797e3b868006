// Package users is the credential store: the authoritative in-memory table of
// user accounts.
//
// The store holds password hashes, never plaintext; hashing and verification
// belong to the caller. Every mutation runs under a single mutex so username
// uniqueness and id allocation are decided atomically. The account with
// [ProtectedAdminID] can be updated but never deleted.
package users

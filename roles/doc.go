// Package roles stores the role catalogue. Role codes are unique; the
// built-in roles listed in [ProtectedIDs] cannot be deleted.
package roles

package session

import "time"

// Token is an issued session token bound to a username.
type Token struct {
	Value     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Live reports whether tok is still valid at now. The expiry instant itself
// is inclusive.
func Live(tok Token, now time.Time) bool {
	return !now.After(tok.ExpiresAt)
}

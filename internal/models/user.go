package models

import "time"

// UserHandle identifies the signed-in user. The client never persists users;
// the handle is derived from the identity provider's token.
type UserHandle struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token behind the handle has expired at now
func (u UserHandle) Expired(now time.Time) bool {
	return !u.ExpiresAt.IsZero() && !now.Before(u.ExpiresAt)
}

package domain

import "time"

// Session represents one authenticated login. A session gates the usability
// of every refresh token that references it: once Valid flips to false the
// refresh tokens stay cryptographically sound but can no longer be exchanged
// for access tokens.
//
// Sessions are never deleted; revoked records are retained for audit.
type Session struct {
	ID        string    `bson:"_id,omitempty"`
	UserID    string    `bson:"user_id"`
	Valid     bool      `bson:"valid"`
	UserAgent string    `bson:"user_agent,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

package domain

import "time"

// User represents a user in the system.
type User struct {
	ID           string    `bson:"_id,omitempty"`
	Email        string    `bson:"email,unique"`
	Name         string    `bson:"name,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

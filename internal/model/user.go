// Package model defines the data structures shared by all layers of the
// application. These are plain structs — no behaviour beyond small helpers,
// no database or HTTP knowledge.
package model

import "time"

// User represents a registered account.
//
// Email is the login identifier and is unique across the system. The
// password is stored only as a bcrypt hash — the plaintext never leaves the
// auth layer. PasswordHash is tagged json:"-" so it can never leak into an
// API response, no matter which handler serializes the struct.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

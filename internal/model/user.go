// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash and AccessToken carry `json:"-"` so a User can never leak
// either of them by being written to a response by accident. The token is
// handed out only through the explicit register and sign-in response types
// in the handler package.
//
// Name, Email and AccessToken are each UNIQUE in the store. The database,
// not application code, decides who wins when two registrations race.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"` // bcrypt output, never the plaintext
	AccessToken  string    `json:"-"         db:"access_token"`  // issued once at registration
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

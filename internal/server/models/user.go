// Package models defines the records persisted by TruthMate and the value
// rules (enums, limits, normalisation) they obey.
package models

import "time"

const (
	MaxNameLength     = 50
	MinPasswordLength = 6
	// MaxPasswordLength is in bytes; bcrypt ignores anything longer.
	MaxPasswordLength = 72
	MaxEmailLength    = 320
)

// User is a registered account. Password holds the bcrypt hash and is never
// sent to clients.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

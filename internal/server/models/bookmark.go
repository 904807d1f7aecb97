package models

import "time"

const (
	MaxNotesLength = 500
	MaxTags        = 10
	MaxTagLength   = 20
)

type Bookmark struct {
	ID             string
	UserID         string
	VerificationID string
	Notes          string
	Tags           []string
	CreatedAt      time.Time
}

// BookmarkedVerification pairs a bookmark with the projection of the record
// it points to.
type BookmarkedVerification struct {
	Bookmark     Bookmark
	Verification VerificationSummary
}

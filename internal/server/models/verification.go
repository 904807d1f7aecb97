package models

import "time"

const (
	MaxClaimLength       = 2000
	MaxExplanationLength = 5000
	MaxEvidenceItems     = 20
)

// Evidence is a single source supporting or refuting a claim. Credibility and
// Relevance are in [0,1].
type Evidence struct {
	Title       string  `json:"title" bson:"title"`
	Link        string  `json:"link" bson:"link"`
	Snippet     string  `json:"snippet" bson:"snippet"`
	Credibility float64 `json:"credibility" bson:"credibility"`
	Relevance   float64 `json:"relevance" bson:"relevance"`
	Summary     string  `json:"summary" bson:"summary"`
}

// Flag is a user report on a verification.
type Flag struct {
	UserID    string    `json:"userId" bson:"userId"`
	Reason    string    `json:"reason" bson:"reason"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Metadata describes how a verification was produced. IPAddress and
// UserAgent are always taken from the request, never from the client body.
type Metadata struct {
	IPAddress      string  `json:"ipAddress" bson:"ipAddress"`
	UserAgent      string  `json:"userAgent" bson:"userAgent"`
	ProcessingTime float64 `json:"processingTime" bson:"processingTime"`
	AIModel        string  `json:"aiModel" bson:"aiModel"`
	SourceCount    int     `json:"sourceCount" bson:"sourceCount"`
}

type Verification struct {
	ID                string
	UserID            string
	Claim             string
	ClaimType         ClaimType
	Verdict           Verdict
	Confidence        int
	Explanation       string
	SourceCredibility int
	HarmIndex         HarmIndex
	Evidence          []Evidence
	IsPublic          bool
	Views             int64
	// Bookmarks is the set of user ids that bookmarked this record.
	Bookmarks []string
	Flags     []Flag
	Category  Category
	Metadata  Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleTo reports whether requesterID may read v. An empty requesterID is
// an anonymous caller.
func (v *Verification) VisibleTo(requesterID string) bool {
	return v.IsPublic || v.IsOwnedBy(requesterID)
}

func (v *Verification) IsOwnedBy(requesterID string) bool {
	return requesterID != "" && v.UserID == requesterID
}

// VerificationSummary is the projection joined into bookmark listings.
type VerificationSummary struct {
	ID         string
	Claim      string
	Verdict    Verdict
	Confidence int
	Category   Category
	CreatedAt  time.Time
	Views      int64
}

// VerificationFilter narrows verification listings. Zero values mean "any".
// Search is a case-insensitive literal substring of the claim.
type VerificationFilter struct {
	Category Category
	Verdict  Verdict
	Search   string
}

// ExploreStats are the feed-wide counters shown next to the public list.
// "Today" starts at UTC midnight.
type ExploreStats struct {
	TotalVerifications int64
	TodayVerifications int64
	FakeNewsToday      int64
	ActiveUsersToday   int64
}

// HistoryStats are per-user counters shown next to the history list.
type HistoryStats struct {
	Total int64
	Today int64
}

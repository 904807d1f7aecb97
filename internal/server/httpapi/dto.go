package httpapi

import (
	"time"

	"github.com/truthmate/truthmate/internal/server/models"
	"github.com/truthmate/truthmate/internal/server/services"
)

type userView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toSettingsView(u *models.User) userView {
	v := toUserView(u)
	v.CreatedAt, v.UpdatedAt = &u.CreatedAt, &u.UpdatedAt
	return v
}

// metadataView leaves out the requester's IP address and user agent.
type metadataView struct {
	ProcessingTime float64 `json:"processingTime"`
	AIModel        string  `json:"aiModel"`
	SourceCount    int     `json:"sourceCount"`
}

// verificationView never carries the owner id, the bookmark set or flag
// owners.
type verificationView struct {
	ID                string            `json:"id,omitempty"`
	Claim             string            `json:"claim"`
	ClaimType         models.ClaimType  `json:"claimType"`
	Verdict           models.Verdict    `json:"verdict"`
	Confidence        int               `json:"confidence"`
	Explanation       string            `json:"explanation"`
	SourceCredibility int               `json:"sourceCredibility"`
	HarmIndex         models.HarmIndex  `json:"harmIndex"`
	Evidence          []models.Evidence `json:"evidence"`
	IsPublic          bool              `json:"isPublic"`
	Views             int64             `json:"views"`
	BookmarkCount     int               `json:"bookmarkCount"`
	FlagCount         int               `json:"flagCount"`
	Category          models.Category   `json:"category"`
	Metadata          metadataView      `json:"metadata"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	IsOwner           *bool             `json:"isOwner,omitempty"`
}

func toVerificationView(v *models.Verification) verificationView {
	evidence := v.Evidence
	if evidence == nil {
		evidence = []models.Evidence{}
	}
	return verificationView{
		ID:                v.ID,
		Claim:             v.Claim,
		ClaimType:         v.ClaimType,
		Verdict:           v.Verdict,
		Confidence:        v.Confidence,
		Explanation:       v.Explanation,
		SourceCredibility: v.SourceCredibility,
		HarmIndex:         v.HarmIndex,
		Evidence:          evidence,
		IsPublic:          v.IsPublic,
		Views:             v.Views,
		BookmarkCount:     len(v.Bookmarks),
		FlagCount:         len(v.Flags),
		Category:          v.Category,
		Metadata: metadataView{
			ProcessingTime: v.Metadata.ProcessingTime,
			AIModel:        v.Metadata.AIModel,
			SourceCount:    v.Metadata.SourceCount,
		},
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func toVerificationViews(items []*models.Verification) []verificationView {
	out := make([]verificationView, 0, len(items))
	for _, v := range items {
		out = append(out, toVerificationView(v))
	}
	return out
}

// historyItem is the simplified row of the history page.
type historyItem struct {
	ID         string          `json:"id"`
	Claim      string          `json:"claim"`
	Verdict    models.Verdict  `json:"verdict"`
	Confidence int             `json:"confidence"`
	Category   models.Category `json:"category"`
	IsPublic   bool            `json:"isPublic"`
	Views      int64           `json:"views"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func toHistoryItems(items []*models.Verification) []historyItem {
	out := make([]historyItem, 0, len(items))
	for _, v := range items {
		out = append(out, historyItem{
			ID:         v.ID,
			Claim:      v.Claim,
			Verdict:    v.Verdict,
			Confidence: v.Confidence,
			Category:   v.Category,
			IsPublic:   v.IsPublic,
			Views:      v.Views,
			CreatedAt:  v.CreatedAt,
		})
	}
	return out
}

type pageView struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func toPageView(p services.PageInfo) pageView {
	return pageView{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext,
		HasPrev:    p.HasPrev,
	}
}

type offsetView struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

type bookmarkPageView struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type exploreStatsView struct {
	TotalVerifications int64 `json:"totalVerifications"`
	TodayVerifications int64 `json:"todayVerifications"`
	FakeNewsToday      int64 `json:"fakeNewsToday"`
	ActiveUsersToday   int64 `json:"activeUsersToday"`
}

type historyStatsView struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
}

type bookmarkedVerificationView struct {
	ID         string          `json:"id"`
	Claim      string          `json:"claim"`
	Verdict    models.Verdict  `json:"verdict"`
	Confidence int             `json:"confidence"`
	Category   models.Category `json:"category"`
	CreatedAt  time.Time       `json:"createdAt"`
	Views      int64           `json:"views"`
}

type bookmarkView struct {
	ID             string                     `json:"id"`
	VerificationID string                     `json:"verificationId"`
	Notes          string                     `json:"notes"`
	Tags           []string                   `json:"tags"`
	CreatedAt      time.Time                  `json:"createdAt"`
	Verification   bookmarkedVerificationView `json:"verification"`
}

func toBookmarkViews(items []models.BookmarkedVerification) []bookmarkView {
	out := make([]bookmarkView, 0, len(items))
	for _, it := range items {
		tags := it.Bookmark.Tags
		if tags == nil {
			tags = []string{}
		}
		s := it.Verification
		out = append(out, bookmarkView{
			ID:             it.Bookmark.ID,
			VerificationID: it.Bookmark.VerificationID,
			Notes:          it.Bookmark.Notes,
			Tags:           tags,
			CreatedAt:      it.Bookmark.CreatedAt,
			Verification: bookmarkedVerificationView{
				ID:         s.ID,
				Claim:      s.Claim,
				Verdict:    s.Verdict,
				Confidence: s.Confidence,
				Category:   s.Category,
				CreatedAt:  s.CreatedAt,
				Views:      s.Views,
			},
		})
	}
	return out
}

// Request bodies. Pointer fields distinguish "absent" from zero values.

type registerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type settingsRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type metadataRequest struct {
	ProcessingTime *float64 `json:"processingTime"`
	AIModel        *string  `json:"aiModel"`
	SourceCount    *int     `json:"sourceCount"`
}

type createVerificationRequest struct {
	Claim             *string           `json:"claim"`
	ClaimType         *string           `json:"claimType"`
	Verdict           *string           `json:"verdict"`
	Confidence        *float64          `json:"confidence"`
	Explanation       *string           `json:"explanation"`
	Reasoning         *string           `json:"reasoning"`
	SourceCredibility *float64          `json:"sourceCredibility"`
	HarmIndex         any               `json:"harmIndex"`
	Evidence          []models.Evidence `json:"evidence"`
	IsPublic          *bool             `json:"isPublic"`
	Category          *string           `json:"category"`
	Metadata          *metadataRequest  `json:"metadata"`
}

func (r *createVerificationRequest) input() services.CreateInput {
	in := services.CreateInput{
		Claim:             deref(r.Claim),
		ClaimType:         deref(r.ClaimType),
		Verdict:           deref(r.Verdict),
		Confidence:        r.Confidence,
		Explanation:       deref(r.Explanation),
		SourceCredibility: deref(r.SourceCredibility),
		HarmIndex:         r.HarmIndex,
		Evidence:          r.Evidence,
		IsPublic:          deref(r.IsPublic),
		Category:          deref(r.Category),
	}
	if in.Explanation == "" {
		in.Explanation = deref(r.Reasoning)
	}
	if m := r.Metadata; m != nil {
		in.Metadata = models.Metadata{
			ProcessingTime: deref(m.ProcessingTime),
			AIModel:        deref(m.AIModel),
			SourceCount:    deref(m.SourceCount),
		}
	}
	return in
}

type verifyRequest struct {
	Claim     *string `json:"claim"`
	ClaimType *string `json:"claimType"`
	Image     *string `json:"image"`
	ImageURL  *string `json:"imageUrl"`
	IsPublic  *bool   `json:"isPublic"`
	Category  *string `json:"category"`
}

type bookmarkRequest struct {
	VerificationID *string  `json:"verificationId"`
	Notes          *string  `json:"notes"`
	Tags           []string `json:"tags"`
}

type checkBookmarksRequest struct {
	VerificationIDs []string `json:"verificationIds"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

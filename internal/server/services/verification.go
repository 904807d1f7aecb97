package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/logging"
	"github.com/truthmate/truthmate/internal/server/config"
	"github.com/truthmate/truthmate/internal/server/models"
	"github.com/truthmate/truthmate/internal/server/repositories/repomanager"
	"github.com/truthmate/truthmate/internal/timex"
)

const (
	defaultUserPageLimit   = 10
	defaultPublicPageLimit = 20
	maxVerificationLimit   = 50

	viewIncrementTimeout = 5 * time.Second
	unknownRequestValue  = "unknown"
)

// RequestMeta is taken from the HTTP request and overrides whatever the
// client put into metadata.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// CreateInput is a verification as submitted by a client. Verdict, HarmIndex
// and Category are free-form and normalised on create. A nil Confidence
// means "absent".
type CreateInput struct {
	Claim             string
	ClaimType         string
	Verdict           string
	Confidence        *float64
	Explanation       string
	SourceCredibility float64
	HarmIndex         any
	Evidence          []models.Evidence
	IsPublic          bool
	Category          string
	Metadata          models.Metadata
}

type CreateResult struct {
	Verification *models.Verification
	// Duplicate is set when an identical recent claim was returned instead
	// of storing a new record.
	Duplicate bool
}

// VerifyInput is the body of /api/verify.
type VerifyInput struct {
	Claim     string
	ClaimType string
	Image     string
	ImageURL  string
	IsPublic  bool
	Category  string
}

type VerifyResult struct {
	Verification *models.Verification
	Saved        bool
	Duplicate    bool
	Warning      string
}

type ViewResult struct {
	Verification *models.Verification
	IsOwner      bool
}

// PageInfo is page-number pagination.
type PageInfo struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

func newPageInfo(page, limit int, total int64) PageInfo {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return PageInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// OffsetInfo is offset pagination.
type OffsetInfo struct {
	Limit   int
	Offset  int
	Total   int64
	HasMore bool
}

type UserPage struct {
	Items      []*models.Verification
	Pagination PageInfo
}

type PublicPage struct {
	Items      []*models.Verification
	Pagination OffsetInfo
	Stats      models.ExploreStats
}

type HistoryPage struct {
	Items      []*models.Verification
	Pagination PageInfo
	Stats      models.HistoryStats
}

// ListQuery selects a page of the caller's own verifications.
type ListQuery struct {
	Page   int
	Limit  int
	Filter models.VerificationFilter
}

// PublicQuery selects a slice of the public feed.
type PublicQuery struct {
	Filter models.VerificationFilter
	Sort   models.SortOrder
	Limit  int
	Offset int
}

// VerificationService creates, reads and lists verifications.
type VerificationService struct {
	repomanager repomanager.RepositoryManager
	analyzer    Analyzer
	log         logging.Logger
	dedupWindow time.Duration
	now         func() time.Time

	// views tracks background view increments.
	views sync.WaitGroup
}

func NewVerificationService(m repomanager.RepositoryManager, analyzer Analyzer, cfg *config.Config, log logging.Logger) *VerificationService {
	return &VerificationService{
		repomanager: m,
		analyzer:    analyzer,
		log:         log.With("module", "verifications"),
		dedupWindow: cfg.DedupWindow,
		now:         time.Now,
	}
}

// ParseFilter validates listing filters. Empty values and "all" mean no
// filter; anything outside the enums is a validation error.
func ParseFilter(category, verdict, search string) (models.VerificationFilter, error) {
	var f models.VerificationFilter
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, "all") {
		parsed, ok := models.ParseCategory(c)
		if !ok {
			return f, common.InvalidField("category", "invalid category %q", c)
		}
		f.Category = parsed
	}
	if v := strings.TrimSpace(verdict); v != "" && !strings.EqualFold(v, "all") {
		parsed, ok := models.ParseVerdict(v)
		if !ok {
			return f, common.InvalidField("verdict", "invalid verdict %q", v)
		}
		f.Verdict = parsed
	}
	f.Search = strings.TrimSpace(search)
	return f, nil
}

// Create stores a normalised verification. An identical trimmed claim by the
// same user inside the dedup window is returned instead, with Duplicate set.
// The check and the insert are not atomic.
func (s *VerificationService) Create(ctx context.Context, userID string, in CreateInput, meta RequestMeta) (*CreateResult, error) {
	v, err := s.build(userID, in, meta)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Verifications()
	existing, err := repo.FindRecentDuplicate(ctx, userID, v.Claim, s.now().Add(-s.dedupWindow))
	switch {
	case err == nil:
		return &CreateResult{Verification: existing, Duplicate: true}, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error checking duplicates: %w", err)
	}

	created, err := repo.Create(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("error creating verification: %w", err)
	}
	return &CreateResult{Verification: created}, nil
}

func (s *VerificationService) build(userID string, in CreateInput, meta RequestMeta) (*models.Verification, error) {
	claim := strings.TrimSpace(in.Claim)
	verdict := strings.TrimSpace(in.Verdict)

	var missing []string
	if claim == "" {
		missing = append(missing, "claim")
	}
	if verdict == "" {
		missing = append(missing, "verdict")
	}
	if in.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if len(missing) > 0 {
		return nil, common.MissingFields(missing...)
	}
	if utf8.RuneCountInString(claim) > models.MaxClaimLength {
		return nil, common.InvalidField("claim", "claim must be at most %d characters", models.MaxClaimLength)
	}

	evidence := models.NormalizeEvidence(in.Evidence)
	metadata := in.Metadata
	metadata.IPAddress = orUnknown(meta.IPAddress)
	metadata.UserAgent = orUnknown(meta.UserAgent)
	if metadata.SourceCount == 0 {
		metadata.SourceCount = len(evidence)
	}

	now := s.now().UTC()
	return &models.Verification{
		UserID:            userID,
		Claim:             claim,
		ClaimType:         models.NormalizeClaimType(in.ClaimType),
		Verdict:           models.NormalizeVerdict(verdict),
		Confidence:        models.ClampPercent(*in.Confidence),
		Explanation:       models.Truncate(strings.TrimSpace(in.Explanation), models.MaxExplanationLength),
		SourceCredibility: models.ClampPercent(in.SourceCredibility),
		HarmIndex:         models.NormalizeHarmIndex(in.HarmIndex),
		Evidence:          evidence,
		IsPublic:          in.IsPublic,
		Bookmarks:         []string{},
		Flags:             []models.Flag{},
		Category:          models.NormalizeCategory(in.Category),
		Metadata:          metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknownRequestValue
	}
	return s
}

// Verify runs the analyzer on the claim and stores the outcome through
// Create. When storage is down the analysis is still returned, unsaved,
// with a warning.
func (s *VerificationService) Verify(ctx context.Context, userID string, in VerifyInput, meta RequestMeta) (*VerifyResult, error) {
	claimType := models.NormalizeClaimType(in.ClaimType)
	claim := strings.TrimSpace(in.Claim)
	if claimType == models.ClaimImage {
		if in.Image == "" && in.ImageURL == "" {
			return nil, common.MissingFields("image")
		}
		if claim == "" {
			claim = in.ImageURL
		}
		if claim == "" {
			claim = "uploaded image"
		}
	}
	if claim == "" {
		return nil, common.MissingFields("claim")
	}

	started := s.now()
	analysis, err := s.analyzer.Analyze(ctx, userID, AnalysisRequest{
		Claim:     claim,
		ClaimType: claimType,
		Image:     in.Image,
		ImageURL:  in.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	category := analysis.Category
	if strings.TrimSpace(in.Category) != "" {
		category = in.Category
	}
	confidence := analysis.Confidence
	input := CreateInput{
		Claim:             claim,
		ClaimType:         string(claimType),
		Verdict:           analysis.Verdict,
		Confidence:        &confidence,
		Explanation:       analysis.Explanation,
		SourceCredibility: analysis.SourceCredibility,
		HarmIndex:         analysis.HarmIndex,
		Evidence:          analysis.Evidence,
		IsPublic:          in.IsPublic,
		Category:          category,
		Metadata: models.Metadata{
			ProcessingTime: s.now().Sub(started).Seconds(),
			AIModel:        analysis.AIModel,
			SourceCount:    len(analysis.Evidence),
		},
	}
	if input.Verdict == "" {
		input.Verdict = string(models.VerdictUnknown)
	}

	res, err := s.Create(ctx, userID, input, meta)
	if errors.Is(err, common.ErrStorageUnavailable) {
		s.log.Warn(ctx, "verification not saved", "error", err)
		v, buildErr := s.build(userID, input, meta)
		if buildErr != nil {
			return nil, buildErr
		}
		return &VerifyResult{
			Verification: v,
			Warning:      "storage unavailable: the result was not saved to your history",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Verification: res.Verification, Saved: true, Duplicate: res.Duplicate}, nil
}

// Get returns a verification visible to requesterID (empty for anonymous
// callers). Non-owner reads count one view; the returned record already
// includes it. The increment outlives a cancelled request.
func (s *VerificationService) Get(ctx context.Context, id, requesterID string) (*ViewResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.MissingFields("id")
	}

	v, err := s.repomanager.Verifications().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading verification: %w", err)
	}
	if !v.VisibleTo(requesterID) {
		return nil, common.ErrorForbidden
	}

	owner := v.IsOwnedBy(requesterID)
	if !owner {
		v.Views = s.countView(ctx, v.ID, v.Views)
	}
	return &ViewResult{Verification: v, IsOwner: owner}, nil
}

// countView increments the stored counter on a detached context and returns
// the new count. If the increment fails, or the request ends first, seen+1
// is returned.
func (s *VerificationService) countView(ctx context.Context, id string, seen int64) int64 {
	result := make(chan int64, 1)
	bg := context.WithoutCancel(ctx)

	s.views.Add(1)
	go func() {
		defer s.views.Done()
		defer close(result)
		bg, cancel := context.WithTimeout(bg, viewIncrementTimeout)
		defer cancel()
		n, err := s.repomanager.Verifications().IncrementViews(bg, id)
		if err != nil {
			s.log.Warn(bg, "view increment failed", "verification_id", id, "error", err)
			return
		}
		result <- n
	}()

	select {
	case n, ok := <-result:
		if ok {
			return n
		}
	case <-ctx.Done():
	}
	return seen + 1
}

// Wait blocks until background view increments have finished.
func (s *VerificationService) Wait() {
	s.views.Wait()
}

// ListForUser returns the caller's verifications, newest first.
func (s *VerificationService) ListForUser(ctx context.Context, userID string, q ListQuery) (*UserPage, error) {
	page, limit := normalizePage(q.Page, q.Limit, defaultUserPageLimit, maxVerificationLimit)
	repo := s.repomanager.Verifications()

	items, err := repo.ListByUser(ctx, userID, q.Filter, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("error listing verifications: %w", err)
	}
	total, err := repo.CountByUser(ctx, userID, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("error counting verifications: %w", err)
	}
	return &UserPage{Items: items, Pagination: newPageInfo(page, limit, total)}, nil
}

// History is the simplified own list shown on the history page, with the
// user's total and today counters.
func (s *VerificationService) History(ctx context.Context, userID string, page, limit int) (*HistoryPage, error) {
	up, err := s.ListForUser(ctx, userID, ListQuery{Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	stats, err := s.repomanager.Verifications().UserStats(ctx, userID, timex.StartOfDayUTC(s.now()))
	if err != nil {
		return nil, fmt.Errorf("error loading history stats: %w", err)
	}
	return &HistoryPage{Items: up.Items, Pagination: up.Pagination, Stats: stats}, nil
}

// ListPublic returns the public feed with feed-wide counters. Verdict
// filters do not apply here.
func (s *VerificationService) ListPublic(ctx context.Context, q PublicQuery) (*PublicPage, error) {
	limit := q.Limit
	if limit < 1 {
		limit = defaultPublicPageLimit
	}
	limit = min(limit, maxVerificationLimit)
	offset := max(q.Offset, 0)
	sort := q.Sort
	if sort == "" {
		sort = models.SortRecent
	}

	repo := s.repomanager.Verifications()
	items, err := repo.ListPublic(ctx, q.Filter, sort, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing public verifications: %w", err)
	}
	total, err := repo.CountPublic(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("error counting public verifications: %w", err)
	}
	stats, err := repo.Stats(ctx, timex.StartOfDayUTC(s.now()))
	if err != nil {
		return nil, fmt.Errorf("error loading explore stats: %w", err)
	}

	return &PublicPage{
		Items: items,
		Pagination: OffsetInfo{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: int64(offset+len(items)) < total,
		},
		Stats: stats,
	}, nil
}

// normalizePage clamps page so that the offset (page-1)*limit fits in an int.
func normalizePage(page, limit, def, maxLimit int) (int, int) {
	if limit < 1 {
		limit = def
	}
	limit = min(limit, maxLimit)
	return min(max(page, 1), math.MaxInt/limit), limit
}

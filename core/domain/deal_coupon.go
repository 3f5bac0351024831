package domain

import "time"

// CouponStatus represents the lifecycle state of a normalized coupon
type CouponStatus string

const (
	CouponStatusActive            CouponStatus = "active"
	CouponStatusNeedsReview       CouponStatus = "needs_review"
	CouponStatusReported          CouponStatus = "reported"
	CouponStatusCommunityVerified CouponStatus = "community_verified"
	CouponStatusExpired           CouponStatus = "expired"
)

// Escalation thresholds. Both transitions are one-way.
const (
	ReportEscalationThreshold = 3
	VerifyEscalationThreshold = 2
)

// SortMode selects the feed ordering
type SortMode string

const (
	SortModeHot      SortMode = "hot"
	SortModeNew      SortMode = "new"
	SortModeExpiring SortMode = "expiring"
	SortModeVerified SortMode = "verified"
)

// ParseSortMode maps a query value to a SortMode, defaulting to hot.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortModeNew, SortModeExpiring, SortModeVerified:
		return SortMode(s)
	default:
		return SortModeHot
	}
}

// VoteResult is a community verification vote on a coupon code
type VoteResult string

const (
	VoteWorked VoteResult = "worked"
	VoteFailed VoteResult = "failed"
)

// RawCoupon is an unvalidated offer as a connector yields it
type RawCoupon struct {
	Title      string     `json:"title"`
	Deal       string     `json:"deal"`
	Code       string     `json:"code,omitempty"`
	Link       string     `json:"link"`
	StoreHint  string     `json:"store_hint,omitempty"`
	Domain     string     `json:"domain,omitempty"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Popularity int        `json:"popularity,omitempty"`
}

// NormalizedCoupon is a validated, scored, deduplicated offer
type NormalizedCoupon struct {
	ID           string `json:"id"`
	Store        string `json:"store"`
	StoreID      string `json:"store_id"`
	Domain       string `json:"domain"`
	Title        string `json:"title"`
	Deal         string `json:"deal"`
	Code         string `json:"code,omitempty"`
	Source       string `json:"source"`
	SourceURL    string `json:"source_url"`
	CanonicalURL string `json:"canonical_url"`
	DedupeKey    string `json:"dedupe_key"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Scores
	TrustWeight       float64  `json:"trust_weight"`
	ConfidenceScore   float64  `json:"confidence_score"`
	HotScore          float64  `json:"hot_score"`
	VerifiedScore     float64  `json:"verified_score"`
	ConfidenceReasons []string `json:"confidence_reasons,omitempty"`

	// Community signals
	Consensus   int `json:"consensus"`
	VotesWorked int `json:"votes_worked"`
	VotesFailed int `json:"votes_failed"`

	Status CouponStatus `json:"status"`

	// Engagement counters
	CopyCount      int        `json:"copy_count"`
	SaveCount      int        `json:"save_count"`
	Views          int        `json:"views"`
	ReportCount    int        `json:"report_count"`
	VerifiedCount  int        `json:"verified_count"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}

// HasCode reports whether the coupon carries a redeemable code.
func (c *NormalizedCoupon) HasCode() bool {
	return c.Code != ""
}

// IsExpired reports whether the coupon has passed its expiry. A coupon
// without an expiry never expires.
func (c *NormalizedCoupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// EscalatedStatus returns the status the coupon should hold given its
// community counters. Escalations are sticky: once reported or verified the
// status does not fall back when counters change meaning.
func EscalatedStatus(current CouponStatus, reportCount, verifiedCount int) CouponStatus {
	if current == CouponStatusReported || reportCount >= ReportEscalationThreshold {
		return CouponStatusReported
	}
	if current == CouponStatusCommunityVerified || verifiedCount >= VerifyEscalationThreshold {
		return CouponStatusCommunityVerified
	}
	return current
}

// FeedQuery is a validated deal feed request
type FeedQuery struct {
	Sort            SortMode
	StoreID         string
	Query           string
	Cursor          string
	Limit           int
	OnlyKnownStores bool
	ExcludeStores   []string
	PriorityStores  []string
}

// FeedPage is one page of feed results with the cursor to resume from
type FeedPage struct {
	Coupons    []NormalizedCoupon `json:"coupons"`
	NextCursor *string            `json:"next_cursor,omitempty"`
}

// DigestQuery selects coupons for a digest notification
type DigestQuery struct {
	StoreIDs      []string
	MinConfidence float64
	Limit         int
}

package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"deal_server/core/domain"
	"deal_server/core/service/feed"
)

// DefaultExpiryDays is applied when a source gives no expiry.
const DefaultExpiryDays = 60

// StoreResolver matches offers to catalog stores. Satisfied by the registry.
type StoreResolver interface {
	Resolve(hint, link string) *domain.Store
	Unknown() *domain.Store
	Popularity(storeID string) int
}

// Normalizer validates raw offers and produces scored coupons.
type Normalizer struct {
	resolver StoreResolver
	now      func() time.Time
}

// NewNormalizer builds a normalizer. nowFn may be nil in production wiring;
// tests inject a frozen clock.
func NewNormalizer(resolver StoreResolver, nowFn func() time.Time) *Normalizer {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Normalizer{resolver: resolver, now: nowFn}
}

// Normalize turns a raw offer into a normalized coupon, or nil when the
// offer fails validation: empty deal text, unusable code, or no domain.
func (n *Normalizer) Normalize(raw domain.RawCoupon, sourceID string, trust float64) *domain.NormalizedCoupon {
	deal := strings.TrimSpace(raw.Deal)
	if deal == "" {
		deal = strings.TrimSpace(raw.Title)
	}
	if deal == "" {
		return nil
	}

	code := strings.TrimSpace(raw.Code)
	if code == "" {
		code = ExtractCode(raw.Title + " " + deal)
	}
	code = strings.ToUpper(code)
	if !IsValidCode(code) {
		return nil
	}

	canonicalURL := CanonicalizeURL(raw.Link)
	domainName := strings.ToLower(strings.TrimSpace(raw.Domain))
	if domainName == "" {
		domainName = ExtractDomain(canonicalURL)
	}
	if domainName == "" {
		return nil
	}

	store := n.resolver.Resolve(raw.StoreHint, raw.Link)
	if store == nil {
		store = n.resolver.Unknown()
	}

	now := n.now()
	createdAt := now
	if raw.PostedAt != nil {
		createdAt = *raw.PostedAt
	}

	expiresAt := raw.ExpiresAt
	if expiresAt == nil {
		e := createdAt.Add(DefaultExpiryDays * 24 * time.Hour)
		expiresAt = &e
	}

	title := Summarize(deal, SummaryMaxLength)
	if title == "" {
		title = deal
	}

	status := domain.CouponStatusActive
	if store.IsUnknown() {
		status = domain.CouponStatusNeedsReview
	}

	if trust < 0 {
		trust = 0
	}
	if trust > 1 {
		trust = 1
	}

	scores := feed.ComputeScores(feed.ScoreInput{
		TrustWeight:     trust,
		CreatedAt:       createdAt,
		HasCode:         true,
		Consensus:       1,
		StorePopularity: store.PopularityWeight,
		IsUnknownStore:  store.IsUnknown(),
		Now:             now,
	})

	return &domain.NormalizedCoupon{
		ID:                uuid.New().String(),
		Store:             store.Name,
		StoreID:           store.ID,
		Domain:            domainName,
		Title:             title,
		Deal:              deal,
		Code:              code,
		Source:            sourceID,
		SourceURL:         raw.Link,
		CanonicalURL:      canonicalURL,
		DedupeKey:         DedupeKey(store.ID, code, canonicalURL, title),
		CreatedAt:         createdAt,
		UpdatedAt:         now,
		ExpiresAt:         expiresAt,
		TrustWeight:       trust,
		ConfidenceScore:   scores.ConfidenceScore,
		HotScore:          scores.HotScore,
		VerifiedScore:     scores.VerifiedScore,
		ConfidenceReasons: scores.ConfidenceReasons,
		Consensus:         1,
		Status:            status,
	}
}

package feed

import (
	"context"
	"errors"
	"fmt"

	"deal_server/config"
	"deal_server/core/domain"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/pkg/apperr"
	"deal_server/pkg/ratelimit"

	"github.com/goccy/go-json"
)

// Service implements in.FeedService
type Service struct {
	coupons     out.CouponRepository
	preferences out.PreferencesRepository
	listCache   *ratelimit.DealListCache
	cfg         *config.Config
}

// NewService creates a new FeedService. listCache may be nil, which disables
// first-page caching.
func NewService(coupons out.CouponRepository, preferences out.PreferencesRepository, listCache *ratelimit.DealListCache, cfg *config.Config) in.FeedService {
	return &Service{
		coupons:     coupons,
		preferences: preferences,
		listCache:   listCache,
		cfg:         cfg,
	}
}

// =============================================================================
// Listing
// =============================================================================

func (s *Service) ListDeals(ctx context.Context, req *in.ListDealsRequest) (*domain.FeedPage, error) {
	query, err := s.buildQuery(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(req, query)
	if cacheKey != nil {
		if data, ok := s.listCache.Get(ctx, cacheKey, req.Cursor); ok {
			var page domain.FeedPage
			if err := json.Unmarshal(data, &page); err == nil {
				return &page, nil
			}
		}
	}

	page, err := s.coupons.ListFeed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	if cacheKey != nil {
		if data, err := json.Marshal(page); err == nil {
			s.listCache.Set(ctx, cacheKey, req.Cursor, data)
		}
	}
	return page, nil
}

// cacheKey returns a key when the request is cacheable: a cursorless first
// page with no per-device exclusions or blocked stores in play. nil means
// serve straight from the repository.
func (s *Service) cacheKey(req *in.ListDealsRequest, query *domain.FeedQuery) *ratelimit.ListCacheKey {
	if s.listCache == nil || req.Cursor != "" || req.DeviceID != "" {
		return nil
	}
	if len(query.ExcludeStores) > 0 || !query.OnlyKnownStores {
		return nil
	}
	return &ratelimit.ListCacheKey{
		Sort:    string(query.Sort),
		StoreID: query.StoreID,
		Query:   query.Query,
		Limit:   query.Limit,
	}
}

func (s *Service) ListRecommended(ctx context.Context, req *in.ListDealsRequest) (*domain.FeedPage, error) {
	if req.DeviceID == "" {
		return nil, apperr.MissingField("device_id")
	}

	prefs, err := s.preferences.Get(ctx, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	query, err := s.buildQuery(ctx, req, prefs)
	if err != nil {
		return nil, err
	}
	query.PriorityStores = prefs.DigestStores()

	page, err := s.coupons.ListFeed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recommended deals: %w", err)
	}
	return page, nil
}

// buildQuery validates and clamps a listing request. When preferences are
// given their blocked stores join the exclusion set.
func (s *Service) buildQuery(ctx context.Context, req *in.ListDealsRequest, prefs *domain.Preferences) (*domain.FeedQuery, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.FeedDefaultLimit
	}
	if limit > s.cfg.FeedMaxLimit {
		limit = s.cfg.FeedMaxLimit
	}

	onlyKnown := true
	if req.OnlyKnownStores != nil {
		onlyKnown = *req.OnlyKnownStores
	}

	exclude := append([]string{}, req.ExcludeStores...)

	// Device blocks apply to any listing that knows the device.
	if prefs == nil && req.DeviceID != "" {
		loaded, err := s.preferences.Get(ctx, req.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		prefs = loaded
	}
	if prefs != nil {
		exclude = append(exclude, prefs.BlockedStores...)
	}

	return &domain.FeedQuery{
		Sort:            domain.ParseSortMode(req.Sort),
		StoreID:         req.StoreID,
		Query:           req.Query,
		Cursor:          req.Cursor,
		Limit:           limit,
		OnlyKnownStores: onlyKnown,
		ExcludeStores:   exclude,
	}, nil
}

func (s *Service) GetDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	coupon, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

// =============================================================================
// Digest
// =============================================================================

func (s *Service) Digest(ctx context.Context, req *in.DigestRequest) ([]domain.NormalizedCoupon, error) {
	minConfidence := req.MinConfidence
	if minConfidence <= 0 {
		minConfidence = s.cfg.DigestMinConfidence
	}
	if minConfidence < s.cfg.DigestFloorConfidence {
		minConfidence = s.cfg.DigestFloorConfidence
	}
	if minConfidence > 100 {
		minConfidence = 100
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DigestDefaultLimit
	}
	if limit > s.cfg.DigestMaxLimit {
		limit = s.cfg.DigestMaxLimit
	}

	storeIDs := req.StoreIDs
	if len(storeIDs) == 0 && req.DeviceID != "" {
		prefs, err := s.preferences.Get(ctx, req.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		storeIDs = prefs.DigestStores()
	}

	coupons, err := s.coupons.ListDigest(ctx, &domain.DigestQuery{
		StoreIDs:      storeIDs,
		MinConfidence: minConfidence,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("build digest: %w", err)
	}

	if req.DeviceID != "" && len(coupons) > 0 {
		if err := s.preferences.MarkDigestSent(ctx, req.DeviceID); err != nil {
			return nil, fmt.Errorf("mark digest sent: %w", err)
		}
	}
	return coupons, nil
}

// =============================================================================
// Engagement
// =============================================================================

func (s *Service) CopyDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	coupon, err := s.coupons.IncrementCopy(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

func (s *Service) SaveDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	coupon, err := s.coupons.IncrementSave(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

func (s *Service) ViewDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	coupon, err := s.coupons.IncrementView(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

func (s *Service) ReportDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	coupon, err := s.coupons.Report(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

func (s *Service) VerifyDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	coupon, err := s.coupons.Verify(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

func (s *Service) VoteDeal(ctx context.Context, id string, result domain.VoteResult) (*domain.NormalizedCoupon, error) {
	if result != domain.VoteWorked && result != domain.VoteFailed {
		return nil, apperr.InvalidInput("result", "must be worked or failed")
	}
	coupon, err := s.coupons.RecordVote(ctx, id, result)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return coupon, nil
}

func (s *Service) mapNotFound(err error, id string) error {
	if errors.Is(err, out.ErrNotFound) {
		return apperr.NotFound("deal").WithDetail("id", id)
	}
	return err
}

package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/core/service/normalize"
	"deal_server/pkg/apperr"
	"deal_server/pkg/logger"
)

// Submitted deals enter the pipeline at community trust.
const submissionTrust = 0.6

// Service implements in.SubmissionService. A submission lands twice: once as
// a normalized coupon, immediately visible, and once as a submission row the
// community connector replays on later runs.
type Service struct {
	normalizer  *normalize.Normalizer
	coupons     out.CouponRepository
	submissions out.SubmissionRepository
}

// NewService creates a new SubmissionService
func NewService(
	normalizer *normalize.Normalizer,
	coupons out.CouponRepository,
	submissions out.SubmissionRepository,
) in.SubmissionService {
	return &Service{
		normalizer:  normalizer,
		coupons:     coupons,
		submissions: submissions,
	}
}

func (s *Service) SubmitDeal(ctx context.Context, req *in.SubmitDealRequest) (*domain.NormalizedCoupon, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, apperr.MissingField("code")
	}
	if !normalize.IsValidCode(code) {
		return nil, apperr.InvalidInput("code", "must be at least 4 characters with no spaces")
	}

	website := strings.TrimSpace(req.Website)
	if website != "" {
		normalized, err := normalize.NormalizeWebsite(website)
		if err != nil {
			return nil, apperr.InvalidInput("website", err.Error())
		}
		website = normalized
	}

	store := strings.TrimSpace(req.Store)
	deal := strings.TrimSpace(req.Description)
	if deal == "" {
		name := store
		if name == "" {
			name = "community"
		}
		deal = "Promo code for " + name
	}

	now := time.Now().UTC()
	raw := domain.RawCoupon{
		Title:     deal,
		Deal:      deal,
		Code:      code,
		Link:      website,
		StoreHint: store,
		PostedAt:  &now,
	}

	coupon := s.normalizer.Normalize(raw, "community", submissionTrust)
	if coupon == nil {
		return nil, apperr.ValidationFailed("submission could not be normalized into a deal")
	}

	result, err := s.coupons.Upsert(ctx, coupon)
	if err != nil {
		return nil, fmt.Errorf("store submitted deal: %w", err)
	}

	if err := s.submissions.Create(ctx, &domain.Submission{
		Store:       store,
		StoreID:     coupon.StoreID,
		Description: deal,
		Code:        coupon.Code,
		Link:        website,
		PostedAt:    now,
	}); err != nil {
		// The coupon already landed; losing the replay row is tolerable.
		logger.WithError(err).Warn("Submission row write failed")
	}

	if result.Duplicate {
		logger.WithField("dedupe_key", coupon.DedupeKey).Info("Submission matched an existing deal")
	}
	return result.Coupon, nil
}

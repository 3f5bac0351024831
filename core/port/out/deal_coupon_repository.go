package out

import (
	"context"
	"time"

	"deal_server/core/domain"
)

// UpsertResult reports whether an upsert created a new row or landed on an
// existing dedupe key.
type UpsertResult struct {
	Coupon    *domain.NormalizedCoupon
	Inserted  bool
	Duplicate bool
}

// CouponRepository defines the interface for normalized coupon persistence
type CouponRepository interface {
	// Ingestion path
	Upsert(ctx context.Context, coupon *domain.NormalizedCoupon) (*UpsertResult, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Reads
	GetByID(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	ListFeed(ctx context.Context, query *domain.FeedQuery) (*domain.FeedPage, error)
	ListDigest(ctx context.Context, query *domain.DigestQuery) ([]domain.NormalizedCoupon, error)

	// Engagement counters. Each op atomically bumps its counter, recomputes
	// scores from the fresh row, persists, and returns the updated record.
	IncrementCopy(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	IncrementSave(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	IncrementView(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	Report(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	Verify(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	RecordVote(ctx context.Context, id string, result domain.VoteResult) (*domain.NormalizedCoupon, error)
}

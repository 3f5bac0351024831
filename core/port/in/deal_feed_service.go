package in

import (
	"context"

	"deal_server/core/domain"
)

// ListDealsRequest is a validated feed listing request
type ListDealsRequest struct {
	Sort            string
	StoreID         string
	Query           string
	Cursor          string
	Limit           int
	OnlyKnownStores *bool
	ExcludeStores   []string
	DeviceID        string
}

// DigestRequest selects coupons for a device digest
type DigestRequest struct {
	DeviceID      string
	StoreIDs      []string
	MinConfidence float64
	Limit         int
}

// FeedService defines the read side of the deal feed
type FeedService interface {
	ListDeals(ctx context.Context, req *ListDealsRequest) (*domain.FeedPage, error)

	// ListRecommended applies the device's preferences: favorite stores are
	// ranked first and blocked stores are excluded.
	ListRecommended(ctx context.Context, req *ListDealsRequest) (*domain.FeedPage, error)

	GetDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	Digest(ctx context.Context, req *DigestRequest) ([]domain.NormalizedCoupon, error)

	// Engagement
	CopyDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	SaveDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	ViewDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	ReportDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	VerifyDeal(ctx context.Context, id string) (*domain.NormalizedCoupon, error)
	VoteDeal(ctx context.Context, id string, result domain.VoteResult) (*domain.NormalizedCoupon, error)
}

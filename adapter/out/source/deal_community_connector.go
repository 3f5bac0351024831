package source

import (
	"context"
	"fmt"

	"deal_server/core/domain"
	"deal_server/core/port/out"
)

// Community submissions are unvetted, so they rank below partner feeds.
const communityTrust = 0.6

// How many recent submissions each run re-ingests. Older submissions have
// either landed as coupons already or expired.
const communityFetchLimit = 200

// CommunityConnector replays recent user submissions through the ingestion
// pipeline so they get normalized, scored, and deduplicated like any other
// source.
type CommunityConnector struct {
	submissions out.SubmissionRepository
}

// NewCommunityConnector builds the connector over the submission store.
func NewCommunityConnector(submissions out.SubmissionRepository) *CommunityConnector {
	return &CommunityConnector{submissions: submissions}
}

func (c *CommunityConnector) ID() string           { return "community" }
func (c *CommunityConnector) Kind() string         { return "community" }
func (c *CommunityConnector) TrustWeight() float64 { return communityTrust }

func (c *CommunityConnector) Fetch(ctx context.Context) ([]domain.RawCoupon, error) {
	entries, err := c.submissions.ListRecent(ctx, communityFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	var coupons []domain.RawCoupon
	for _, entry := range entries {
		if entry.Code == "" {
			continue
		}

		deal := entry.Description
		if deal == "" {
			store := entry.Store
			if store == "" {
				store = "community"
			}
			deal = "Promo code for " + store
		}

		postedAt := entry.PostedAt
		coupons = append(coupons, domain.RawCoupon{
			Title:     deal,
			Deal:      deal,
			Code:      entry.Code,
			Link:      entry.Link,
			StoreHint: entry.Store,
			PostedAt:  &postedAt,
		})
	}
	return coupons, nil
}

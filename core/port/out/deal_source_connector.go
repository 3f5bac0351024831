package out

import (
	"context"

	"deal_server/core/domain"
)

// SourceConnector is a pluggable upstream deal source.
type SourceConnector interface {
	// ID is the stable source identifier used in coupons and history rows.
	ID() string

	// Kind names the connector family: rss, affiliate, brand_page,
	// community, partner_stub.
	Kind() string

	// TrustWeight is the base trust assigned to offers from this source,
	// in [0,1].
	TrustWeight() float64

	// Fetch returns raw offers. Per-item problems are skipped inside the
	// connector; an error means the whole fetch failed.
	Fetch(ctx context.Context) ([]domain.RawCoupon, error)
}

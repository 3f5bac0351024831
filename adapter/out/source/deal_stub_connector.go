package source

import (
	"context"

	"deal_server/core/domain"
	"deal_server/pkg/logger"
)

// StubConnector stands in for a partner API that is configured but not yet
// connected. It fetches nothing and logs what is missing.
type StubConnector struct {
	id   string
	name string
	note string
}

// NewStubConnector builds a placeholder connector.
func NewStubConnector(id, name, note string) *StubConnector {
	return &StubConnector{id: id, name: name, note: note}
}

func (c *StubConnector) ID() string           { return c.id }
func (c *StubConnector) Kind() string         { return "partner_stub" }
func (c *StubConnector) TrustWeight() float64 { return 0 }

func (c *StubConnector) Fetch(ctx context.Context) ([]domain.RawCoupon, error) {
	logger.WithSource(c.id).Info("Partner source needs configuration", "name", c.name, "note", c.note)
	return nil, nil
}

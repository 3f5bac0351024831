package in

import (
	"context"

	"deal_server/core/domain"
)

// IngestionService drives ingestion runs
type IngestionService interface {
	// Run executes a full ingestion cycle. When a run is already in flight
	// it returns started=false without doing anything.
	Run(ctx context.Context) (summary *domain.RunSummary, started bool, err error)

	// IsRunning reports whether a cycle is in flight.
	IsRunning() bool

	SourceStatuses(ctx context.Context) []domain.SourceStatus
	History(ctx context.Context, limit int) ([]*domain.IngestionRecord, error)
}

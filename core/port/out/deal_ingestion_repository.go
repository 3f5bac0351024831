package out

import (
	"context"

	"deal_server/core/domain"
)

// IngestionHistoryRepository persists per-connector run records
type IngestionHistoryRepository interface {
	Record(ctx context.Context, record *domain.IngestionRecord) error
	ListRecent(ctx context.Context, limit int) ([]*domain.IngestionRecord, error)
	LastForSource(ctx context.Context, sourceID string) (*domain.IngestionRecord, error)
}

// SubmissionRepository persists community submissions
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
	ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error)
}

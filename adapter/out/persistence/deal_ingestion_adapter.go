package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/out"
	"deal_server/pkg/snowflake"

	"github.com/jmoiron/sqlx"
)

// IngestionHistoryRepository implements out.IngestionHistoryRepository
type IngestionHistoryRepository struct {
	db *sqlx.DB
}

// NewIngestionHistoryRepository creates a new IngestionHistoryRepository
func NewIngestionHistoryRepository(db *sqlx.DB) out.IngestionHistoryRepository {
	return &IngestionHistoryRepository{db: db}
}

type ingestionRow struct {
	ID         int64     `db:"id"`
	RunID      string    `db:"run_id"`
	SourceID   string    `db:"source_id"`
	Fetched    int       `db:"fetched"`
	Inserted   int       `db:"inserted"`
	Duplicates int       `db:"duplicates"`
	RunAt      time.Time `db:"run_at"`
}

func (r *ingestionRow) toDomain() *domain.IngestionRecord {
	return &domain.IngestionRecord{
		ID:         r.ID,
		RunID:      r.RunID,
		SourceID:   r.SourceID,
		Fetched:    r.Fetched,
		Inserted:   r.Inserted,
		Duplicates: r.Duplicates,
		RunAt:      r.RunAt,
	}
}

func (r *IngestionHistoryRepository) Record(ctx context.Context, record *domain.IngestionRecord) error {
	if record.ID == 0 {
		record.ID = snowflake.ID()
	}
	if record.RunAt.IsZero() {
		record.RunAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingestion_history (id, run_id, source_id, fetched, inserted, duplicates, run_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.RunID, record.SourceID,
		record.Fetched, record.Inserted, record.Duplicates, record.RunAt,
	)
	if err != nil {
		return fmt.Errorf("record ingestion: %w", err)
	}
	return nil
}

func (r *IngestionHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*domain.IngestionRecord, error) {
	var rows []ingestionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, run_id, source_id, fetched, inserted, duplicates, run_at
		FROM ingestion_history
		ORDER BY run_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ingestion history: %w", err)
	}

	records := make([]*domain.IngestionRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toDomain()
	}
	return records, nil
}

func (r *IngestionHistoryRepository) LastForSource(ctx context.Context, sourceID string) (*domain.IngestionRecord, error) {
	var row ingestionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, run_id, source_id, fetched, inserted, duplicates, run_at
		FROM ingestion_history
		WHERE source_id = $1
		ORDER BY run_at DESC, id DESC
		LIMIT 1`, sourceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("last ingestion for source: %w", err)
	}
	return row.toDomain(), nil
}

// SubmissionRepository implements out.SubmissionRepository
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *sqlx.DB) out.SubmissionRepository {
	return &SubmissionRepository{db: db}
}

type submissionRow struct {
	ID          int64     `db:"id"`
	Store       string    `db:"store"`
	StoreID     string    `db:"store_id"`
	Description string    `db:"description"`
	Code        string    `db:"code"`
	Link        string    `db:"link"`
	PostedAt    time.Time `db:"posted_at"`
}

func (r *submissionRow) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:          r.ID,
		Store:       r.Store,
		StoreID:     r.StoreID,
		Description: r.Description,
		Code:        r.Code,
		Link:        r.Link,
		PostedAt:    r.PostedAt,
	}
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	if submission.ID == 0 {
		submission.ID = snowflake.ID()
	}
	if submission.PostedAt.IsZero() {
		submission.PostedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, store, store_id, description, code, link, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		submission.ID, submission.Store, submission.StoreID,
		submission.Description, submission.Code, submission.Link, submission.PostedAt,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	var rows []submissionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, store, store_id, description, code, link, posted_at
		FROM submissions
		ORDER BY posted_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	submissions := make([]*domain.Submission, len(rows))
	for i, row := range rows {
		submissions[i] = row.toDomain()
	}
	return submissions, nil
}

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/out"

	"github.com/jmoiron/sqlx"
)

// StoreSuggestionRepository implements out.StoreSuggestionRepository
type StoreSuggestionRepository struct {
	db *sqlx.DB
}

// NewStoreSuggestionRepository creates a new StoreSuggestionRepository
func NewStoreSuggestionRepository(db *sqlx.DB) out.StoreSuggestionRepository {
	return &StoreSuggestionRepository{db: db}
}

type suggestionRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Website    string    `db:"website"`
	Domain     string    `db:"domain"`
	Keyword    string    `db:"keyword"`
	Status     string    `db:"status"`
	Votes      int       `db:"votes"`
	DeviceHash string    `db:"device_hash"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *suggestionRow) toDomain() *domain.StoreSuggestion {
	return &domain.StoreSuggestion{
		ID:         r.ID,
		Name:       r.Name,
		Website:    r.Website,
		Domain:     r.Domain,
		Keyword:    r.Keyword,
		Status:     domain.SuggestionStatus(r.Status),
		Votes:      r.Votes,
		DeviceHash: r.DeviceHash,
		CreatedAt:  r.CreatedAt,
	}
}

const suggestionColumns = `id, name, website, domain, keyword, status, votes, device_hash, created_at`

func (r *StoreSuggestionRepository) Create(ctx context.Context, suggestion *domain.StoreSuggestion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin suggestion tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_suggestions (id, name, website, domain, keyword, status, votes, device_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		suggestion.ID, suggestion.Name, suggestion.Website, suggestion.Domain,
		suggestion.Keyword, string(suggestion.Status), suggestion.Votes,
		suggestion.DeviceHash, suggestion.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}

	// The proposing device counts as the first vote.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_suggestion_votes (suggestion_id, device_hash) VALUES ($1, $2)`,
		suggestion.ID, suggestion.DeviceHash,
	)
	if err != nil {
		return fmt.Errorf("record suggestion vote: %w", err)
	}

	return tx.Commit()
}

func (r *StoreSuggestionRepository) GetByID(ctx context.Context, id string) (*domain.StoreSuggestion, error) {
	var row suggestionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+suggestionColumns+` FROM store_suggestions WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return row.toDomain(), nil
}

func (r *StoreSuggestionRepository) List(ctx context.Context, status domain.SuggestionStatus, limit int) ([]*domain.StoreSuggestion, error) {
	var rows []suggestionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+suggestionColumns+` FROM store_suggestions
		WHERE status = $1
		ORDER BY votes DESC, created_at DESC
		LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}

	suggestions := make([]*domain.StoreSuggestion, len(rows))
	for i, row := range rows {
		suggestions[i] = row.toDomain()
	}
	return suggestions, nil
}

func (r *StoreSuggestionRepository) HasPendingForDomain(ctx context.Context, domainName string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM store_suggestions WHERE domain = $1 AND status = 'pending'
		)`, domainName)
	if err != nil {
		return false, fmt.Errorf("check pending suggestion: %w", err)
	}
	return exists, nil
}

// AddVote records one vote per device. A repeat vote from the same device is
// a no-op and returns the current row.
func (r *StoreSuggestionRepository) AddVote(ctx context.Context, suggestionID, deviceHash string) (*domain.StoreSuggestion, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin vote tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO store_suggestion_votes (suggestion_id, device_hash)
		VALUES ($1, $2)
		ON CONFLICT (suggestion_id, device_hash) DO NOTHING`,
		suggestionID, deviceHash)
	if err != nil {
		// The vote row references the suggestion, so a foreign key
		// violation means the suggestion id is unknown.
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record vote: %w", err)
	}

	var row suggestionRow
	if n, _ := res.RowsAffected(); n > 0 {
		err = tx.GetContext(ctx, &row, `
			UPDATE store_suggestions SET votes = votes + 1
			WHERE id = $1 RETURNING `+suggestionColumns, suggestionID)
	} else {
		err = tx.GetContext(ctx, &row,
			`SELECT `+suggestionColumns+` FROM store_suggestions WHERE id = $1`, suggestionID)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bump suggestion votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit vote tx: %w", err)
	}
	return row.toDomain(), nil
}

func (r *StoreSuggestionRepository) Approve(ctx context.Context, suggestionID string) (*domain.StoreSuggestion, error) {
	var row suggestionRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE store_suggestions SET status = 'approved'
		WHERE id = $1 RETURNING `+suggestionColumns, suggestionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("approve suggestion: %w", err)
	}
	return row.toDomain(), nil
}

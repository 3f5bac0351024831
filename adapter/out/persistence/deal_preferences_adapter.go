package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/out"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PreferencesRepository implements out.PreferencesRepository
type PreferencesRepository struct {
	db *sqlx.DB
}

// NewPreferencesRepository creates a new PreferencesRepository
func NewPreferencesRepository(db *sqlx.DB) out.PreferencesRepository {
	return &PreferencesRepository{db: db}
}

type preferencesRow struct {
	DeviceID           string         `db:"device_id"`
	FavoriteStores     pq.StringArray `db:"favorite_stores"`
	BlockedStores      pq.StringArray `db:"blocked_stores"`
	Categories         pq.StringArray `db:"categories"`
	Watchlist          pq.StringArray `db:"watchlist"`
	NotifyOnStoreDrops bool           `db:"notify_on_store_drops"`
	LastDigestSentAt   sql.NullTime   `db:"last_digest_sent_at"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r *preferencesRow) toDomain() *domain.Preferences {
	p := &domain.Preferences{
		DeviceID:           r.DeviceID,
		FavoriteStores:     r.FavoriteStores,
		BlockedStores:      r.BlockedStores,
		Categories:         r.Categories,
		Watchlist:          r.Watchlist,
		NotifyOnStoreDrops: r.NotifyOnStoreDrops,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if p.FavoriteStores == nil {
		p.FavoriteStores = []string{}
	}
	if p.BlockedStores == nil {
		p.BlockedStores = []string{}
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Watchlist == nil {
		p.Watchlist = []string{}
	}
	if r.LastDigestSentAt.Valid {
		t := r.LastDigestSentAt.Time
		p.LastDigestSentAt = &t
	}
	return p
}

const preferencesColumns = `device_id, favorite_stores, blocked_stores, categories, watchlist,
	notify_on_store_drops, last_digest_sent_at, created_at, updated_at`

// Get returns the device row, creating the default row on first access.
func (r *PreferencesRepository) Get(ctx context.Context, deviceID string) (*domain.Preferences, error) {
	query := `
		INSERT INTO preferences (device_id) VALUES ($1)
		ON CONFLICT (device_id) DO UPDATE SET device_id = EXCLUDED.device_id
		RETURNING ` + preferencesColumns

	var row preferencesRow
	if err := r.db.GetContext(ctx, &row, query, deviceID); err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return row.toDomain(), nil
}

// Update applies a partial update. Provided lists replace the stored lists
// wholesale.
func (r *PreferencesRepository) Update(ctx context.Context, deviceID string, update *domain.PreferencesUpdate) (*domain.Preferences, error) {
	// Ensure the row exists before updating.
	if _, err := r.Get(ctx, deviceID); err != nil {
		return nil, err
	}

	var sets []string
	var args []interface{}
	argIdx := 1

	if update.FavoriteStores != nil {
		sets = append(sets, fmt.Sprintf("favorite_stores = $%d", argIdx))
		args = append(args, pq.Array(*update.FavoriteStores))
		argIdx++
	}
	if update.BlockedStores != nil {
		sets = append(sets, fmt.Sprintf("blocked_stores = $%d", argIdx))
		args = append(args, pq.Array(*update.BlockedStores))
		argIdx++
	}
	if update.Categories != nil {
		sets = append(sets, fmt.Sprintf("categories = $%d", argIdx))
		args = append(args, pq.Array(*update.Categories))
		argIdx++
	}
	if update.Watchlist != nil {
		sets = append(sets, fmt.Sprintf("watchlist = $%d", argIdx))
		args = append(args, pq.Array(*update.Watchlist))
		argIdx++
	}
	if update.NotifyOnStoreDrops != nil {
		sets = append(sets, fmt.Sprintf("notify_on_store_drops = $%d", argIdx))
		args = append(args, *update.NotifyOnStoreDrops)
		argIdx++
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++

	query := fmt.Sprintf(`UPDATE preferences SET %s WHERE device_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argIdx, preferencesColumns)
	args = append(args, deviceID)

	var row preferencesRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PreferencesRepository) MarkDigestSent(ctx context.Context, deviceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE preferences SET last_digest_sent_at = now(), updated_at = now()
		WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("mark digest sent: %w", err)
	}
	return nil
}

// ListDigestSubscribers returns devices opted into store drop notifications
// that follow at least one store.
func (r *PreferencesRepository) ListDigestSubscribers(ctx context.Context) ([]*domain.Preferences, error) {
	query := `
		SELECT ` + preferencesColumns + ` FROM preferences
		WHERE notify_on_store_drops = TRUE
		  AND (cardinality(favorite_stores) > 0 OR cardinality(watchlist) > 0)`

	var rows []preferencesRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list digest subscribers: %w", err)
	}

	subscribers := make([]*domain.Preferences, len(rows))
	for i, row := range rows {
		subscribers[i] = row.toDomain()
	}
	return subscribers, nil
}

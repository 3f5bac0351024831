package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/out"
	"deal_server/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// StoreRepository implements out.StoreRepository
type StoreRepository struct {
	db *sqlx.DB
}

// NewStoreRepository creates a new StoreRepository
func NewStoreRepository(db *sqlx.DB) out.StoreRepository {
	return &StoreRepository{db: db}
}

type storeRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Website          string         `db:"website"`
	Domains          pq.StringArray `db:"domains"`
	Country          string         `db:"country"`
	PopularityWeight int            `db:"popularity_weight"`
	Categories       pq.StringArray `db:"categories"`
	Aliases          pq.StringArray `db:"aliases"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r *storeRow) toDomain() *domain.Store {
	return &domain.Store{
		ID:               r.ID,
		Name:             r.Name,
		Website:          r.Website,
		Domains:          r.Domains,
		Country:          r.Country,
		PopularityWeight: r.PopularityWeight,
		Categories:       r.Categories,
		Aliases:          r.Aliases,
		CreatedAt:        r.CreatedAt,
	}
}

const storeColumns = `id, name, website, domains, country, popularity_weight, categories, aliases, created_at`

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	var row storeRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return row.toDomain(), nil
}

func (r *StoreRepository) List(ctx context.Context, filter *out.StoreFilter) ([]*domain.Store, int64, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("id != '%s'", domain.UnknownStoreID))

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(lower(name) LIKE $%d OR EXISTS (SELECT 1 FROM unnest(domains) d WHERE d LIKE $%d))", argIdx, argIdx))
		args = append(args, pattern)
		argIdx++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(categories)", argIdx))
		args = append(args, strings.ToLower(filter.Category))
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM stores WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count stores: %w", err)
	}

	orderBy := "popularity_weight DESC, name ASC"
	if filter.SortBy == "name" {
		orderBy = "name ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM stores WHERE %s ORDER BY %s`,
		storeColumns, where, orderBy)

	if filter.Page != nil {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Page.Limit(), filter.Page.Offset())
	}

	var rows []storeRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}

	stores := make([]*domain.Store, len(rows))
	for i, row := range rows {
		stores[i] = row.toDomain()
	}
	return stores, total, nil
}

func (r *StoreRepository) ListAll(ctx context.Context) ([]*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores ORDER BY popularity_weight DESC, id ASC`

	var rows []storeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all stores: %w", err)
	}

	stores := make([]*domain.Store, len(rows))
	for i, row := range rows {
		stores[i] = row.toDomain()
	}
	return stores, nil
}

func (r *StoreRepository) ListCategories(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT unnest(categories) AS category FROM stores ORDER BY category`

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list store categories: %w", err)
	}
	return categories, nil
}

func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	query := `
		INSERT INTO stores (id, name, website, domains, country, popularity_weight, categories, aliases, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	createdAt := store.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		store.ID, store.Name, store.Website, pq.Array(store.Domains), store.Country,
		store.PopularityWeight, pq.Array(store.Categories), pq.Array(store.Aliases),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

// EnsureSeedData inserts any seed stores missing from the table. Existing
// rows are left untouched so manual edits survive restarts.
func (r *StoreRepository) EnsureSeedData(ctx context.Context, stores []*domain.Store) error {
	inserted := 0
	for _, store := range stores {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO stores (id, name, website, domains, country, popularity_weight, categories, aliases)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING`,
			store.ID, store.Name, store.Website, pq.Array(store.Domains), store.Country,
			store.PopularityWeight, pq.Array(store.Categories), pq.Array(store.Aliases),
		)
		if err != nil {
			return fmt.Errorf("seed store %s: %w", store.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if inserted > 0 {
		logger.WithField("inserted", inserted).Info("Seeded store catalog")
	}
	return nil
}

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/out"
	"deal_server/core/service/feed"
	"deal_server/core/service/normalize"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Feed queries never surface low-confidence rows.
const minFeedConfidence = 70

const couponColumns = `
	id, store, store_id, domain, title, deal, code, source, source_url,
	canonical_url, dedupe_key, created_at, updated_at, expires_at,
	trust_weight, confidence_score, hot_score, verified_score,
	confidence_reasons, consensus, votes_worked, votes_failed, status,
	copy_count, save_count, views, report_count, verified_count,
	last_verified_at`

// CouponRepository implements out.CouponRepository on Postgres.
type CouponRepository struct {
	db       *sqlx.DB
	resolver normalize.StoreResolver
}

// NewCouponRepository creates a new CouponRepository. The resolver supplies
// store popularity when engagement updates trigger a rescore.
func NewCouponRepository(db *sqlx.DB, resolver normalize.StoreResolver) out.CouponRepository {
	return &CouponRepository{db: db, resolver: resolver}
}

type couponRow struct {
	ID                string         `db:"id"`
	Store             string         `db:"store"`
	StoreID           string         `db:"store_id"`
	Domain            string         `db:"domain"`
	Title             string         `db:"title"`
	Deal              string         `db:"deal"`
	Code              string         `db:"code"`
	Source            string         `db:"source"`
	SourceURL         string         `db:"source_url"`
	CanonicalURL      string         `db:"canonical_url"`
	DedupeKey         string         `db:"dedupe_key"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	ExpiresAt         sql.NullTime   `db:"expires_at"`
	TrustWeight       float64        `db:"trust_weight"`
	ConfidenceScore   float64        `db:"confidence_score"`
	HotScore          float64        `db:"hot_score"`
	VerifiedScore     float64        `db:"verified_score"`
	ConfidenceReasons pq.StringArray `db:"confidence_reasons"`
	Consensus         int            `db:"consensus"`
	VotesWorked       int            `db:"votes_worked"`
	VotesFailed       int            `db:"votes_failed"`
	Status            string         `db:"status"`
	CopyCount         int            `db:"copy_count"`
	SaveCount         int            `db:"save_count"`
	Views             int            `db:"views"`
	ReportCount       int            `db:"report_count"`
	VerifiedCount     int            `db:"verified_count"`
	LastVerifiedAt    sql.NullTime   `db:"last_verified_at"`

	// Set by the upsert RETURNING clause only.
	Inserted bool `db:"inserted"`
}

func (r *couponRow) toDomain() *domain.NormalizedCoupon {
	c := &domain.NormalizedCoupon{
		ID:                r.ID,
		Store:             r.Store,
		StoreID:           r.StoreID,
		Domain:            r.Domain,
		Title:             r.Title,
		Deal:              r.Deal,
		Code:              r.Code,
		Source:            r.Source,
		SourceURL:         r.SourceURL,
		CanonicalURL:      r.CanonicalURL,
		DedupeKey:         r.DedupeKey,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		TrustWeight:       r.TrustWeight,
		ConfidenceScore:   r.ConfidenceScore,
		HotScore:          r.HotScore,
		VerifiedScore:     r.VerifiedScore,
		ConfidenceReasons: r.ConfidenceReasons,
		Consensus:         r.Consensus,
		VotesWorked:       r.VotesWorked,
		VotesFailed:       r.VotesFailed,
		Status:            domain.CouponStatus(r.Status),
		CopyCount:         r.CopyCount,
		SaveCount:         r.SaveCount,
		Views:             r.Views,
		ReportCount:       r.ReportCount,
		VerifiedCount:     r.VerifiedCount,
	}
	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		c.ExpiresAt = &t
	}
	if r.LastVerifiedAt.Valid {
		t := r.LastVerifiedAt.Time
		c.LastVerifiedAt = &t
	}
	return c
}

// =============================================================================
// Ingestion path
// =============================================================================

// upsertCouponQuery refreshes content fields on a dedupe hit and bumps
// consensus. Engagement counters, created_at, and vote tallies belong to the
// existing row and survive re-ingestion untouched.
const upsertCouponQuery = `
	INSERT INTO normalized_coupons (
		id, store, store_id, domain, title, deal, code, source, source_url,
		canonical_url, dedupe_key, created_at, updated_at, expires_at,
		trust_weight, confidence_score, hot_score, verified_score,
		confidence_reasons, consensus, votes_worked, votes_failed, status,
		copy_count, save_count, views, report_count, verified_count
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9,
		$10, $11, $12, $13, $14,
		$15, $16, $17, $18,
		$19, $20, $21, $22, $23,
		$24, $25, $26, $27, $28
	)
	ON CONFLICT (dedupe_key) DO UPDATE SET
		store              = EXCLUDED.store,
		store_id           = EXCLUDED.store_id,
		domain             = EXCLUDED.domain,
		title              = EXCLUDED.title,
		deal               = EXCLUDED.deal,
		code               = EXCLUDED.code,
		source             = EXCLUDED.source,
		source_url         = EXCLUDED.source_url,
		canonical_url      = EXCLUDED.canonical_url,
		expires_at         = EXCLUDED.expires_at,
		updated_at         = EXCLUDED.updated_at,
		trust_weight       = EXCLUDED.trust_weight,
		confidence_score   = EXCLUDED.confidence_score,
		hot_score          = EXCLUDED.hot_score,
		verified_score     = EXCLUDED.verified_score,
		confidence_reasons = EXCLUDED.confidence_reasons,
		status             = EXCLUDED.status,
		consensus          = normalized_coupons.consensus + 1
	RETURNING ` + couponColumns + `, (xmax = 0) AS inserted`

func (r *CouponRepository) Upsert(ctx context.Context, coupon *domain.NormalizedCoupon) (*out.UpsertResult, error) {
	var expiresAt interface{}
	if coupon.ExpiresAt != nil {
		expiresAt = *coupon.ExpiresAt
	}

	var row couponRow
	err := r.db.GetContext(ctx, &row, upsertCouponQuery,
		coupon.ID, coupon.Store, coupon.StoreID, coupon.Domain, coupon.Title,
		coupon.Deal, coupon.Code, coupon.Source, coupon.SourceURL,
		coupon.CanonicalURL, coupon.DedupeKey, coupon.CreatedAt, coupon.UpdatedAt,
		expiresAt,
		coupon.TrustWeight, coupon.ConfidenceScore, coupon.HotScore, coupon.VerifiedScore,
		pq.Array(coupon.ConfidenceReasons), coupon.Consensus,
		coupon.VotesWorked, coupon.VotesFailed, string(coupon.Status),
		coupon.CopyCount, coupon.SaveCount, coupon.Views,
		coupon.ReportCount, coupon.VerifiedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert coupon: %w", err)
	}

	return &out.UpsertResult{
		Coupon:    row.toDomain(),
		Inserted:  row.Inserted,
		Duplicate: !row.Inserted,
	}, nil
}

func (r *CouponRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	// NULL expiry never expires.
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM normalized_coupons WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired coupons: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// Reads
// =============================================================================

func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	query := `SELECT ` + couponColumns + ` FROM normalized_coupons WHERE id = $1`

	var row couponRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return row.toDomain(), nil
}

func (r *CouponRepository) ListFeed(ctx context.Context, query *domain.FeedQuery) (*domain.FeedPage, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	conditions = append(conditions, "status = 'active'")
	conditions = append(conditions, fmt.Sprintf("confidence_score >= %d", minFeedConfidence))
	conditions = append(conditions, fmt.Sprintf("(expires_at IS NULL OR expires_at >= $%d)", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++

	if query.StoreID != "" {
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", argIdx))
		args = append(args, query.StoreID)
		argIdx++
	} else if query.OnlyKnownStores {
		conditions = append(conditions, fmt.Sprintf("store_id != '%s'", domain.UnknownStoreID))
	}

	if query.Query != "" {
		pattern := "%" + strings.ToLower(query.Query) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(lower(deal) LIKE $%d OR lower(store) LIKE $%d OR lower(title) LIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, pattern)
		argIdx++
	}

	if len(query.ExcludeStores) > 0 {
		conditions = append(conditions, fmt.Sprintf("store_id != ALL($%d)", argIdx))
		args = append(args, pq.Array(query.ExcludeStores))
		argIdx++
	}

	plan := feed.PlanFor(query.Sort, query.PriorityStores)
	if clause, cursorArgs, ok := plan.CursorClause(query.Cursor, argIdx); ok {
		conditions = append(conditions, clause)
		args = append(args, cursorArgs...)
		argIdx += len(cursorArgs)
	}

	sqlQuery := fmt.Sprintf(
		`SELECT %s FROM normalized_coupons WHERE %s ORDER BY %s LIMIT $%d`,
		couponColumns, strings.Join(conditions, " AND "), plan.OrderBy(), argIdx)
	args = append(args, query.Limit)

	var rows []couponRow
	if err := r.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	coupons := make([]domain.NormalizedCoupon, len(rows))
	for i, row := range rows {
		coupons[i] = *row.toDomain()
	}

	return &domain.FeedPage{
		Coupons:    coupons,
		NextCursor: plan.NextCursor(coupons, query.Limit),
	}, nil
}

func (r *CouponRepository) ListDigest(ctx context.Context, query *domain.DigestQuery) ([]domain.NormalizedCoupon, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	conditions = append(conditions, "status = 'active'")
	conditions = append(conditions, fmt.Sprintf("store_id != '%s'", domain.UnknownStoreID))
	conditions = append(conditions, fmt.Sprintf("confidence_score >= $%d", argIdx))
	args = append(args, query.MinConfidence)
	argIdx++
	conditions = append(conditions, fmt.Sprintf("(expires_at IS NULL OR expires_at >= $%d)", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++

	if len(query.StoreIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("store_id = ANY($%d)", argIdx))
		args = append(args, pq.Array(query.StoreIDs))
		argIdx++
	}

	sqlQuery := fmt.Sprintf(
		`SELECT %s FROM normalized_coupons WHERE %s
		 ORDER BY confidence_score DESC, hot_score DESC, created_at DESC, id DESC
		 LIMIT $%d`,
		couponColumns, strings.Join(conditions, " AND "), argIdx)
	args = append(args, query.Limit)

	var rows []couponRow
	if err := r.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("list digest: %w", err)
	}

	coupons := make([]domain.NormalizedCoupon, len(rows))
	for i, row := range rows {
		coupons[i] = *row.toDomain()
	}
	return coupons, nil
}

// =============================================================================
// Engagement counters
// =============================================================================

func (r *CouponRepository) IncrementCopy(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	return r.bumpAndRescore(ctx, id, "copy_count = copy_count + 1")
}

func (r *CouponRepository) IncrementSave(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	return r.bumpAndRescore(ctx, id, "save_count = save_count + 1")
}

func (r *CouponRepository) IncrementView(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	// Views do not feed the scoring model, so no rescore.
	query := `UPDATE normalized_coupons SET views = views + 1, updated_at = $2
	          WHERE id = $1 RETURNING ` + couponColumns

	var row couponRow
	if err := r.db.GetContext(ctx, &row, query, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment view: %w", err)
	}
	return row.toDomain(), nil
}

func (r *CouponRepository) Report(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	return r.bumpAndRescore(ctx, id, "report_count = report_count + 1")
}

func (r *CouponRepository) Verify(ctx context.Context, id string) (*domain.NormalizedCoupon, error) {
	return r.bumpAndRescore(ctx, id, "verified_count = verified_count + 1, last_verified_at = now()")
}

func (r *CouponRepository) RecordVote(ctx context.Context, id string, result domain.VoteResult) (*domain.NormalizedCoupon, error) {
	col := "votes_worked"
	if result == domain.VoteFailed {
		col = "votes_failed"
	}
	return r.bumpAndRescore(ctx, id, col+" = "+col+" + 1")
}

// bumpAndRescore applies a counter update, recomputes the scores on the fresh
// row, applies any status escalation, persists, and returns the final record.
func (r *CouponRepository) bumpAndRescore(ctx context.Context, id, setClause string) (*domain.NormalizedCoupon, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf(`UPDATE normalized_coupons SET %s, updated_at = $2
	                      WHERE id = $1 RETURNING %s`, setClause, couponColumns)

	var row couponRow
	if err := r.db.GetContext(ctx, &row, query, id, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update coupon counters: %w", err)
	}

	coupon := row.toDomain()
	coupon.Status = domain.EscalatedStatus(coupon.Status, coupon.ReportCount, coupon.VerifiedCount)

	scores := feed.ComputeScores(feed.ScoreInput{
		TrustWeight:     coupon.TrustWeight,
		CreatedAt:       coupon.CreatedAt,
		HasCode:         coupon.HasCode(),
		Consensus:       coupon.Consensus,
		VotesWorked:     coupon.VotesWorked,
		VotesFailed:     coupon.VotesFailed,
		StorePopularity: r.resolver.Popularity(coupon.StoreID),
		CopyCount:       coupon.CopyCount,
		SaveCount:       coupon.SaveCount,
		ReportCount:     coupon.ReportCount,
		IsUnknownStore:  coupon.StoreID == domain.UnknownStoreID,
		Now:             now,
	})
	coupon.ConfidenceScore = scores.ConfidenceScore
	coupon.HotScore = scores.HotScore
	coupon.VerifiedScore = scores.VerifiedScore
	coupon.ConfidenceReasons = scores.ConfidenceReasons
	coupon.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		UPDATE normalized_coupons SET
			confidence_score = $2, hot_score = $3, verified_score = $4,
			confidence_reasons = $5, status = $6, updated_at = $7
		WHERE id = $1`,
		coupon.ID, coupon.ConfidenceScore, coupon.HotScore, coupon.VerifiedScore,
		pq.Array(coupon.ConfidenceReasons), string(coupon.Status), now)
	if err != nil {
		return nil, fmt.Errorf("persist rescored coupon: %w", err)
	}

	return coupon, nil
}

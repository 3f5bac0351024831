package submission

import (
	"context"
	"testing"
	"time"

	"deal_server/core/domain"
	"deal_server/core/port/in"
	"deal_server/core/port/out"
	"deal_server/core/service/normalize"
	"deal_server/pkg/apperr"
)

type hintResolver struct {
	stores map[string]*domain.Store
}

func (r *hintResolver) Resolve(hint, link string) *domain.Store {
	for _, s := range r.stores {
		if hint == s.Name || (len(s.Domains) > 0 && normalize.ExtractDomain(link) == s.Domains[0]) {
			return s
		}
	}
	return nil
}

func (r *hintResolver) Unknown() *domain.Store {
	return &domain.Store{ID: domain.UnknownStoreID, Name: "Unknown"}
}

func (r *hintResolver) Popularity(storeID string) int {
	if s, ok := r.stores[storeID]; ok {
		return s.PopularityWeight
	}
	return 0
}

type memCouponRepo struct {
	out.CouponRepository
	byKey map[string]*domain.NormalizedCoupon
}

func (m *memCouponRepo) Upsert(ctx context.Context, coupon *domain.NormalizedCoupon) (*out.UpsertResult, error) {
	if existing, ok := m.byKey[coupon.DedupeKey]; ok {
		existing.Consensus++
		return &out.UpsertResult{Coupon: existing, Duplicate: true}, nil
	}
	m.byKey[coupon.DedupeKey] = coupon
	return &out.UpsertResult{Coupon: coupon, Inserted: true}, nil
}

type memSubmissionRepo struct {
	rows []*domain.Submission
}

func (m *memSubmissionRepo) Create(ctx context.Context, submission *domain.Submission) error {
	m.rows = append(m.rows, submission)
	return nil
}

func (m *memSubmissionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	return m.rows, nil
}

func newTestService() (in.SubmissionService, *memCouponRepo, *memSubmissionRepo) {
	resolver := &hintResolver{stores: map[string]*domain.Store{
		"nike": {ID: "nike", Name: "Nike", Domains: []string{"nike.com"}, PopularityWeight: 95},
	}}
	nowFn := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	coupons := &memCouponRepo{byKey: map[string]*domain.NormalizedCoupon{}}
	submissions := &memSubmissionRepo{}
	svc := NewService(normalize.NewNormalizer(resolver, nowFn), coupons, submissions)
	return svc, coupons, submissions
}

func wantAppCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr := apperr.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError %s, got %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %q, want %q", appErr.Code, code)
	}
}

func TestSubmitDeal(t *testing.T) {
	svc, coupons, submissions := newTestService()
	ctx := context.Background()

	coupon, err := svc.SubmitDeal(ctx, &in.SubmitDealRequest{
		Store:       "Nike",
		Website:     "nike.com",
		Code:        "run20",
		Description: "20% off running gear",
	})
	if err != nil {
		t.Fatalf("SubmitDeal() error = %v", err)
	}
	if coupon.StoreID != "nike" {
		t.Errorf("StoreID = %q, want nike", coupon.StoreID)
	}
	if coupon.Code != "RUN20" {
		t.Errorf("Code = %q, want RUN20", coupon.Code)
	}
	if coupon.Source != "community" {
		t.Errorf("Source = %q", coupon.Source)
	}
	if coupon.Status != domain.CouponStatusActive {
		t.Errorf("Status = %q", coupon.Status)
	}
	if len(coupons.byKey) != 1 {
		t.Fatalf("stored %d coupons, want 1", len(coupons.byKey))
	}

	if len(submissions.rows) != 1 {
		t.Fatalf("stored %d submission rows, want 1", len(submissions.rows))
	}
	row := submissions.rows[0]
	if row.StoreID != "nike" || row.Code != "RUN20" {
		t.Errorf("submission row = %+v", row)
	}
	if row.Link != "https://nike.com" {
		t.Errorf("submission link = %q, want normalized website", row.Link)
	}
}

func TestSubmitDealValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	t.Run("missing code", func(t *testing.T) {
		_, err := svc.SubmitDeal(ctx, &in.SubmitDealRequest{Store: "Nike", Website: "nike.com"})
		wantAppCode(t, err, apperr.CodeMissingField)
	})

	t.Run("unusable code", func(t *testing.T) {
		_, err := svc.SubmitDeal(ctx, &in.SubmitDealRequest{Store: "Nike", Website: "nike.com", Code: "a b"})
		wantAppCode(t, err, apperr.CodeInvalidInput)
	})

	t.Run("invalid website", func(t *testing.T) {
		_, err := svc.SubmitDeal(ctx, &in.SubmitDealRequest{Store: "Nike", Website: "ftp://nike.com", Code: "RUN20"})
		wantAppCode(t, err, apperr.CodeInvalidInput)
	})

	t.Run("no website and unmatched store", func(t *testing.T) {
		_, err := svc.SubmitDeal(ctx, &in.SubmitDealRequest{Store: "Totally Obscure Shop", Code: "SAVE10"})
		wantAppCode(t, err, apperr.CodeValidationFailed)
	})
}

func TestSubmitDealDuplicateTolerated(t *testing.T) {
	svc, coupons, submissions := newTestService()
	ctx := context.Background()

	req := &in.SubmitDealRequest{Store: "Nike", Website: "nike.com", Code: "RUN20", Description: "20% off running gear"}
	if _, err := svc.SubmitDeal(ctx, req); err != nil {
		t.Fatalf("first SubmitDeal() error = %v", err)
	}
	coupon, err := svc.SubmitDeal(ctx, req)
	if err != nil {
		t.Fatalf("second SubmitDeal() error = %v", err)
	}
	if coupon.Consensus != 2 {
		t.Errorf("Consensus = %d, want 2 after duplicate submission", coupon.Consensus)
	}
	if len(coupons.byKey) != 1 {
		t.Errorf("stored %d coupons, want 1", len(coupons.byKey))
	}
	if len(submissions.rows) != 2 {
		t.Errorf("stored %d submission rows, want 2 replay entries", len(submissions.rows))
	}
}

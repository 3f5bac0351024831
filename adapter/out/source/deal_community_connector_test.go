package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"deal_server/core/domain"
)

type fakeSubmissionStore struct {
	entries   []*domain.Submission
	err       error
	lastLimit int
}

func (f *fakeSubmissionStore) Create(ctx context.Context, submission *domain.Submission) error {
	f.entries = append(f.entries, submission)
	return nil
}

func (f *fakeSubmissionStore) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	f.lastLimit = limit
	return f.entries, f.err
}

func TestCommunityConnectorFetch(t *testing.T) {
	postedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	store := &fakeSubmissionStore{entries: []*domain.Submission{
		{Store: "Nike", Description: "20% off running gear", Code: "RUN20", Link: "https://nike.com/sale", PostedAt: postedAt},
		{Store: "Adidas", Description: "Great sale, no coupon", PostedAt: postedAt},
		{Store: "Sephora", Code: "GLOW10", PostedAt: postedAt},
		{Code: "MYSTERY5", PostedAt: postedAt},
	}}

	conn := NewCommunityConnector(store)
	coupons, err := conn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if store.lastLimit != communityFetchLimit {
		t.Errorf("ListRecent limit = %d, want %d", store.lastLimit, communityFetchLimit)
	}
	// Submissions without a code never become coupons.
	if len(coupons) != 3 {
		t.Fatalf("got %d coupons, want 3", len(coupons))
	}

	first := coupons[0]
	if first.Code != "RUN20" || first.Deal != "20% off running gear" || first.StoreHint != "Nike" {
		t.Errorf("first coupon = %+v", first)
	}
	if first.PostedAt == nil || !first.PostedAt.Equal(postedAt) {
		t.Errorf("PostedAt = %v, want %v", first.PostedAt, postedAt)
	}

	if got := coupons[1].Deal; got != "Promo code for Sephora" {
		t.Errorf("synthesized deal = %q", got)
	}
	if got := coupons[2].Deal; got != "Promo code for community" {
		t.Errorf("synthesized deal without store = %q", got)
	}
}

func TestCommunityConnectorFetchError(t *testing.T) {
	conn := NewCommunityConnector(&fakeSubmissionStore{err: errors.New("db down")})
	if _, err := conn.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() = nil error, want failure when submissions cannot be loaded")
	}
}

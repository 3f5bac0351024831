package persistence

import (
	"strings"
	"testing"
)

func TestUpsertRefreshesContentOnDedupeHit(t *testing.T) {
	_, update, found := strings.Cut(upsertCouponQuery, "DO UPDATE SET")
	if !found {
		t.Fatal("upsert query has no DO UPDATE clause")
	}
	update, _, _ = strings.Cut(update, "RETURNING")

	refreshed := []string{
		"store ", "store_id", "domain", "title", "deal ", "code",
		"source ", "source_url", "canonical_url", "expires_at",
		"trust_weight", "confidence_score", "hot_score", "verified_score",
		"confidence_reasons", "status",
	}
	for _, col := range refreshed {
		if !strings.Contains(update, col) {
			t.Errorf("dedupe hit does not refresh %s", strings.TrimSpace(col))
		}
	}

	if !strings.Contains(update, "consensus          = normalized_coupons.consensus + 1") {
		t.Error("dedupe hit does not bump consensus")
	}
}

func TestUpsertPreservesEngagementOnDedupeHit(t *testing.T) {
	_, update, _ := strings.Cut(upsertCouponQuery, "DO UPDATE SET")
	update, _, _ = strings.Cut(update, "RETURNING")

	preserved := []string{
		"created_at", "copy_count", "save_count", "views",
		"report_count", "verified_count", "votes_worked", "votes_failed",
		"last_verified_at",
	}
	for _, col := range preserved {
		if strings.Contains(update, col+" ") || strings.Contains(update, col+"=") {
			t.Errorf("dedupe hit overwrites %s", col)
		}
	}
}

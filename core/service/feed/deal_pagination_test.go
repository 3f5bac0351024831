package feed

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"deal_server/core/domain"
)

func testCoupon(id string, hot float64, createdAt time.Time) domain.NormalizedCoupon {
	return domain.NormalizedCoupon{ID: id, HotScore: hot, CreatedAt: createdAt}
}

func TestPlanForOrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort domain.SortMode
		want string
	}{
		{"hot", domain.SortModeHot, "hot_score DESC, created_at DESC, id DESC"},
		{"new", domain.SortModeNew, "created_at DESC, id DESC"},
		{"verified", domain.SortModeVerified, "verified_score DESC, created_at DESC, id DESC"},
		{"expiring", domain.SortModeExpiring, "COALESCE(expires_at, '9999-12-31T23:59:59Z') ASC, created_at DESC, id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanFor(tt.sort, nil).OrderBy(); got != tt.want {
				t.Errorf("OrderBy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanForPriorityStores(t *testing.T) {
	plan := PlanFor(domain.SortModeHot, []string{"nike", "adidas", "nike", ""})
	orderBy := plan.OrderBy()

	if !strings.HasPrefix(orderBy, "CASE WHEN store_id IN ('nike', 'adidas') THEN 0 ELSE 1 END ASC") {
		t.Errorf("priority key missing or malformed: %q", orderBy)
	}
	if !strings.HasSuffix(orderBy, "hot_score DESC, created_at DESC, id DESC") {
		t.Errorf("base keys missing: %q", orderBy)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := PlanFor(domain.SortModeHot, nil)
	last := testCoupon("deal-9", 87.5, now)

	cursor := plan.EncodeCursor(&last)
	if cursor != "87.5|"+now.Format(time.RFC3339Nano)+"|deal-9" {
		t.Errorf("EncodeCursor = %q", cursor)
	}

	clause, args, ok := plan.CursorClause(cursor, 4)
	if !ok {
		t.Fatal("CursorClause rejected its own cursor")
	}
	if len(args) != 3 {
		t.Fatalf("got %d args, want 3", len(args))
	}
	want := "(hot_score < $4 OR (hot_score = $4 AND (created_at < $5 OR (created_at = $5 AND (id < $6)))))"
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
}

func TestCursorClauseAscending(t *testing.T) {
	plan := PlanFor(domain.SortModeExpiring, nil)
	clause, _, ok := plan.CursorClause("2026-03-05T00:00:00Z|2026-03-01T00:00:00Z|deal-1", 1)
	if !ok {
		t.Fatal("valid cursor rejected")
	}
	if !strings.Contains(clause, "> $1") {
		t.Errorf("ascending key should seek forward: %q", clause)
	}
}

func TestCursorClauseMalformed(t *testing.T) {
	plan := PlanFor(domain.SortModeHot, nil)

	tests := []struct {
		name   string
		cursor string
	}{
		{"empty", ""},
		{"too few parts", "87.5|deal-9"},
		{"too many parts", "87.5|x|y|z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := plan.CursorClause(tt.cursor, 1); ok {
				t.Errorf("CursorClause(%q) accepted a malformed cursor", tt.cursor)
			}
		})
	}
}

func TestNextCursor(t *testing.T) {
	now := time.Now().UTC()
	plan := PlanFor(domain.SortModeNew, nil)
	page := []domain.NormalizedCoupon{
		testCoupon("a", 1, now),
		testCoupon("b", 2, now.Add(-time.Hour)),
	}

	t.Run("full page yields cursor", func(t *testing.T) {
		cursor := plan.NextCursor(page, 2)
		if cursor == nil {
			t.Fatal("expected a cursor for a full page")
		}
		if !strings.HasSuffix(*cursor, "|b") {
			t.Errorf("cursor should encode the last row: %q", *cursor)
		}
	})

	t.Run("short page yields nil", func(t *testing.T) {
		if cursor := plan.NextCursor(page, 5); cursor != nil {
			t.Errorf("expected nil cursor, got %q", *cursor)
		}
	})

	t.Run("zero limit yields nil", func(t *testing.T) {
		if cursor := plan.NextCursor(nil, 0); cursor != nil {
			t.Error("expected nil cursor for zero limit")
		}
	})
}

func TestLessMatchesOrdering(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := PlanFor(domain.SortModeHot, nil)

	coupons := []domain.NormalizedCoupon{
		testCoupon("a", 50, now),
		testCoupon("b", 90, now.Add(-time.Hour)),
		testCoupon("c", 90, now),
		testCoupon("d", 10.5, now),
	}

	sort.Slice(coupons, func(i, j int) bool {
		return plan.Less(&coupons[i], &coupons[j])
	})

	wantOrder := []string{"c", "b", "a", "d"}
	for i, want := range wantOrder {
		if coupons[i].ID != want {
			t.Fatalf("position %d = %s, want %s (full order: %v)", i, coupons[i].ID, want, ids(coupons))
		}
	}
}

func ids(coupons []domain.NormalizedCoupon) []string {
	out := make([]string, len(coupons))
	for i := range coupons {
		out[i] = coupons[i].ID
	}
	return out
}

// admitsAfterCursor mirrors the seek predicate CursorClause renders in SQL:
// a row qualifies when its composite key sorts strictly past the cursor.
func admitsAfterCursor(t *testing.T, plan *CursorPlan, cursor string, c *domain.NormalizedCoupon) bool {
	t.Helper()
	parts := strings.Split(cursor, "|")
	if len(parts) != len(plan.keys) {
		t.Fatalf("cursor %q has %d parts, plan has %d keys", cursor, len(parts), len(plan.keys))
	}
	for i, k := range plan.keys {
		rv, cv := k.Value(c), parts[i]
		var cmp int
		if k.Numeric {
			rf, err := strconv.ParseFloat(rv, 64)
			if err != nil {
				t.Fatalf("row value %q: %v", rv, err)
			}
			cf, err := strconv.ParseFloat(cv, 64)
			if err != nil {
				t.Fatalf("cursor value %q: %v", cv, err)
			}
			switch {
			case rf < cf:
				cmp = -1
			case rf > cf:
				cmp = 1
			}
		} else {
			cmp = strings.Compare(rv, cv)
		}
		if cmp == 0 {
			continue
		}
		if k.Dir == Desc {
			return cmp < 0
		}
		return cmp > 0
	}
	return false
}

// Walking a dataset page by page must deliver every row exactly once, in
// order, even when scores carry repeating-decimal fractions that defeat
// fixed-precision formatting.
func TestCursorPaginationDeliversEveryRowOnce(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := PlanFor(domain.SortModeHot, nil)

	var all []domain.NormalizedCoupon
	for i := 0; i < 53; i++ {
		all = append(all, testCoupon(
			fmt.Sprintf("deal-%02d", i),
			float64(i%11)/3.0,
			base.Add(-time.Duration(i%5)*time.Second),
		))
	}
	sort.Slice(all, func(i, j int) bool {
		return plan.Less(&all[i], &all[j])
	})

	const limit = 7
	var delivered []string
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > len(all) {
			t.Fatal("pagination did not terminate")
		}

		var page []domain.NormalizedCoupon
		for i := range all {
			if cursor != "" && !admitsAfterCursor(t, plan, cursor, &all[i]) {
				continue
			}
			page = append(page, all[i])
			if len(page) == limit {
				break
			}
		}
		for _, c := range page {
			delivered = append(delivered, c.ID)
		}

		next := plan.NextCursor(page, limit)
		if next == nil {
			break
		}
		cursor = *next
	}

	if len(delivered) != len(all) {
		t.Fatalf("delivered %d rows, want %d: %v", len(delivered), len(all), delivered)
	}
	seen := make(map[string]bool, len(delivered))
	for i, id := range delivered {
		if seen[id] {
			t.Errorf("row %s delivered twice", id)
		}
		seen[id] = true
		if id != all[i].ID {
			t.Errorf("position %d = %s, want %s", i, id, all[i].ID)
		}
	}
}

package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"deal_server/core/domain"
)

// maxExpiresSentinel stands in for NULL expiry so codeless COALESCE ordering
// keeps never-expiring deals last in the expiring sort.
const maxExpiresSentinel = "9999-12-31T23:59:59Z"

// Direction of a sort key.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortKey is one component of a seek-pagination ordering: a SQL expression,
// its direction, and how to read the matching cursor value off a row.
type SortKey struct {
	Expr    string
	Dir     Direction
	Numeric bool
	Value   func(c *domain.NormalizedCoupon) string
}

// CursorPlan is the full ordered key set for one sort mode. Every row is
// totally ordered because id is always the final tie-break.
type CursorPlan struct {
	keys []SortKey
}

func hotKeys() []SortKey {
	return []SortKey{
		{Expr: "hot_score", Dir: Desc, Numeric: true, Value: func(c *domain.NormalizedCoupon) string {
			return formatScore(c.HotScore)
		}},
		createdAtKey(),
		idKey(),
	}
}

func createdAtKey() SortKey {
	return SortKey{Expr: "created_at", Dir: Desc, Value: func(c *domain.NormalizedCoupon) string {
		return c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}}
}

func idKey() SortKey {
	return SortKey{Expr: "id", Dir: Desc, Value: func(c *domain.NormalizedCoupon) string {
		return c.ID
	}}
}

// formatScore must round-trip exactly: the token is compared against the
// full-precision column, so any rounding would re-admit or skip the
// boundary row on the next page.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// PlanFor builds the cursor plan for a sort mode. When priority stores are
// given with the hot sort, a CASE expression ranking those stores first is
// prepended to the key set.
func PlanFor(sort domain.SortMode, priorityStores []string) *CursorPlan {
	switch sort {
	case domain.SortModeNew:
		return &CursorPlan{keys: []SortKey{createdAtKey(), idKey()}}

	case domain.SortModeExpiring:
		expiring := SortKey{
			Expr: fmt.Sprintf("COALESCE(expires_at, '%s')", maxExpiresSentinel),
			Dir:  Asc,
			Value: func(c *domain.NormalizedCoupon) string {
				if c.ExpiresAt == nil {
					return maxExpiresSentinel
				}
				return c.ExpiresAt.UTC().Format(time.RFC3339Nano)
			},
		}
		return &CursorPlan{keys: []SortKey{expiring, createdAtKey(), idKey()}}

	case domain.SortModeVerified:
		verified := SortKey{Expr: "verified_score", Dir: Desc, Numeric: true, Value: func(c *domain.NormalizedCoupon) string {
			return formatScore(c.VerifiedScore)
		}}
		return &CursorPlan{keys: []SortKey{verified, createdAtKey(), idKey()}}

	default: // hot
		keys := hotKeys()
		if unique := dedupeStoreIDs(priorityStores); len(unique) > 0 {
			keys = append([]SortKey{priorityKey(unique)}, keys...)
		}
		return &CursorPlan{keys: keys}
	}
}

func dedupeStoreIDs(ids []string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}

func priorityKey(storeIDs []string) SortKey {
	quoted := make([]string, len(storeIDs))
	for i, id := range storeIDs {
		quoted[i] = pq.QuoteLiteral(id)
	}
	set := make(map[string]bool, len(storeIDs))
	for _, id := range storeIDs {
		set[id] = true
	}

	return SortKey{
		Expr:    fmt.Sprintf("CASE WHEN store_id IN (%s) THEN 0 ELSE 1 END", strings.Join(quoted, ", ")),
		Dir:     Asc,
		Numeric: true,
		Value: func(c *domain.NormalizedCoupon) string {
			if set[c.StoreID] {
				return "0"
			}
			return "1"
		},
	}
}

// OrderBy renders the ORDER BY expression list.
func (p *CursorPlan) OrderBy() string {
	parts := make([]string, len(p.keys))
	for i, k := range p.keys {
		parts[i] = k.Expr + " " + string(k.Dir)
	}
	return strings.Join(parts, ", ")
}

// EncodeCursor serializes the last row of a full page into a resume token.
func (p *CursorPlan) EncodeCursor(last *domain.NormalizedCoupon) string {
	values := make([]string, len(p.keys))
	for i, k := range p.keys {
		values[i] = k.Value(last)
	}
	return strings.Join(values, "|")
}

// NextCursor returns the token for the next page, or nil when the page came
// back shorter than the limit.
func (p *CursorPlan) NextCursor(page []domain.NormalizedCoupon, limit int) *string {
	if len(page) != limit || limit == 0 {
		return nil
	}
	cursor := p.EncodeCursor(&page[len(page)-1])
	return &cursor
}

// CursorClause turns a resume token into a seek predicate. The clause resumes
// strictly past the composite key:
//
//	(k0 < $n OR (k0 = $n AND (k1 < $n+1 OR ...)))
//
// startArg is the first free positional placeholder. A malformed token
// (wrong part count) yields ok=false and the caller ignores it.
func (p *CursorPlan) CursorClause(cursor string, startArg int) (clause string, args []interface{}, ok bool) {
	if cursor == "" {
		return "", nil, false
	}
	parts := strings.Split(cursor, "|")
	if len(parts) != len(p.keys) {
		return "", nil, false
	}

	args = make([]interface{}, len(parts))
	for i, part := range parts {
		args[i] = part
	}
	return p.buildClause(0, startArg), args, true
}

func (p *CursorPlan) buildClause(index, startArg int) string {
	key := p.keys[index]
	op := "<"
	if key.Dir == Asc {
		op = ">"
	}
	placeholder := fmt.Sprintf("$%d", startArg+index)

	if index == len(p.keys)-1 {
		return fmt.Sprintf("(%s %s %s)", key.Expr, op, placeholder)
	}
	return fmt.Sprintf("(%s %s %s OR (%s = %s AND %s))",
		key.Expr, op, placeholder,
		key.Expr, placeholder,
		p.buildClause(index+1, startArg))
}

// Less compares two coupons under this plan's ordering. It mirrors the SQL
// ORDER BY and exists so the ordering can be property-tested in memory.
func (p *CursorPlan) Less(a, b *domain.NormalizedCoupon) bool {
	for _, k := range p.keys {
		av, bv := k.Value(a), k.Value(b)
		if av == bv {
			continue
		}
		var less bool
		if k.Numeric {
			var af, bf float64
			fmt.Sscanf(av, "%f", &af)
			fmt.Sscanf(bv, "%f", &bf)
			if af == bf {
				continue
			}
			less = af < bf
		} else {
			less = av < bv
		}
		if k.Dir == Desc {
			return !less
		}
		return less
	}
	return false
}

package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsForeignKeyViolation(t *testing.T) {
	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: "store_suggestion_votes_suggestion_id_fkey"}

	if !isForeignKeyViolation(fkErr) {
		t.Fatal("expected a 23503 error to match")
	}
	// Drivers come back wrapped through the query helpers.
	if !isForeignKeyViolation(fmt.Errorf("record vote: %w", fkErr)) {
		t.Fatal("expected a wrapped 23503 error to match")
	}

	if isForeignKeyViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violations must not match")
	}
	if isForeignKeyViolation(errors.New("connection refused")) {
		t.Fatal("plain errors must not match")
	}
	if isForeignKeyViolation(nil) {
		t.Fatal("nil must not match")
	}
}

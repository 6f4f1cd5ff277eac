package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// TestUpdatePRNoSets verifies that a user with no sets for the exercise gets
// no record and no insert.
func TestUpdatePRNoSets(t *testing.T) {
	q := &fakeQuerier{
		rowAnswers: []rowAnswer{
			{match: "FROM sets", err: pgx.ErrNoRows},
		},
	}

	pr, inserted, err := UpdatePR(context.Background(), q, 7, 3)
	if err != nil {
		t.Fatalf("UpdatePR: %v", err)
	}
	if pr != nil || inserted {
		t.Errorf("UpdatePR = (%+v, %v), want (nil, false)", pr, inserted)
	}
	if got := q.callsMatching("INSERT INTO prs"); len(got) != 0 {
		t.Errorf("%d insert statements ran, want 0", len(got))
	}
}

// TestUpdatePRFirstRecord verifies the first qualifying set establishes the
// record, scoped to the user's own workouts.
func TestUpdatePRFirstRecord(t *testing.T) {
	q := &fakeQuerier{
		rowAnswers: []rowAnswer{
			{match: "FROM sets", vals: []any{120.0, 4}},
			{match: "FROM prs", err: pgx.ErrNoRows},
			{match: "INSERT INTO prs", vals: []any{int64(5)}},
		},
	}

	pr, inserted, err := UpdatePR(context.Background(), q, 7, 3)
	if err != nil {
		t.Fatalf("UpdatePR: %v", err)
	}
	if !inserted || pr == nil {
		t.Fatalf("UpdatePR = (%+v, %v), want an inserted record", pr, inserted)
	}
	if pr.ID != 5 || pr.Weight != 120.0 || pr.Reps != 4 {
		t.Errorf("inserted record = %+v, want id 5, 120.0 × 4", pr)
	}

	best := q.callsMatching("FROM sets")
	if len(best) != 1 || best[0].args[1] != int64(7) {
		t.Errorf("best-set lookup calls = %+v, want one scoped to user 7", best)
	}
}

// TestUpdatePRNoImprovement verifies that a best set whose estimated 1RM does
// not beat the standing record inserts zero rows, including the exact-tie
// case, so repeated reconciliation never lowers or duplicates the record.
func TestUpdatePRNoImprovement(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name           string
		existingWeight float64
		existingReps   int
	}{
		{"equal estimate", 100.0, 5},
		{"higher estimate", 110.0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{
				rowAnswers: []rowAnswer{
					{match: "FROM sets", vals: []any{100.0, 5}},
					{match: "FROM prs", vals: []any{
						int64(3), int64(7), int64(3), date, tt.existingReps, tt.existingWeight,
					}},
				},
			}

			pr, inserted, err := UpdatePR(context.Background(), q, 7, 3)
			if err != nil {
				t.Fatalf("UpdatePR: %v", err)
			}
			if inserted {
				t.Error("UpdatePR inserted a row without an improvement")
			}
			if pr == nil || pr.ID != 3 || pr.Weight != tt.existingWeight {
				t.Errorf("UpdatePR returned %+v, want the standing record", pr)
			}
			if got := q.callsMatching("INSERT INTO prs"); len(got) != 0 {
				t.Errorf("%d insert statements ran, want 0", len(got))
			}
		})
	}
}

// TestUpdatePRImprovement verifies a best set that beats the standing record
// inserts a new dated row while leaving the old one in place.
func TestUpdatePRImprovement(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	q := &fakeQuerier{
		rowAnswers: []rowAnswer{
			{match: "FROM sets", vals: []any{105.0, 5}},
			{match: "FROM prs", vals: []any{
				int64(3), int64(7), int64(3), date, 5, 100.0,
			}},
			{match: "INSERT INTO prs", vals: []any{int64(9)}},
		},
	}

	pr, inserted, err := UpdatePR(context.Background(), q, 7, 3)
	if err != nil {
		t.Fatalf("UpdatePR: %v", err)
	}
	if !inserted || pr == nil {
		t.Fatalf("UpdatePR = (%+v, %v), want an inserted record", pr, inserted)
	}
	if pr.ID != 9 || pr.Weight != 105.0 || pr.Reps != 5 {
		t.Errorf("inserted record = %+v, want id 9, 105.0 × 5", pr)
	}
	if got := q.callsMatching("INSERT INTO prs"); len(got) != 1 {
		t.Errorf("%d insert statements ran, want 1", len(got))
	}
}

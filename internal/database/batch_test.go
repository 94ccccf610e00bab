package database

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
)

func TestSplitValues(t *testing.T) {
	t.Run("splits_under_budget", func(t *testing.T) {
		values := make([]string, 1200)
		for i := range values {
			values[i] = fmt.Sprintf("hash%04d", i)
		}

		chunks := SplitValues(values, DefaultClauseBudget)
		if len(chunks) != 3 {
			t.Fatalf("1200 values under a budget of %d: got %d chunks, want 3", DefaultClauseBudget, len(chunks))
		}
		for i, c := range chunks {
			if len(c) > DefaultClauseBudget {
				t.Errorf("chunk %d exceeds budget: %d", i, len(c))
			}
		}

		// Concatenated chunks must equal the input, in order.
		var flat []string
		for _, c := range chunks {
			flat = append(flat, c...)
		}
		if len(flat) != len(values) {
			t.Fatalf("lost values in split: %d != %d", len(flat), len(values))
		}
		for i := range flat {
			if flat[i] != values[i] {
				t.Fatalf("order broken at %d: %s != %s", i, flat[i], values[i])
			}
		}
	})

	t.Run("fits_in_one", func(t *testing.T) {
		chunks := SplitValues([]string{"a", "b"}, 10)
		if len(chunks) != 1 || len(chunks[0]) != 2 {
			t.Errorf("expected one chunk of two, got %v", chunks)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if chunks := SplitValues(nil, 10); chunks != nil {
			t.Errorf("expected no chunks, got %v", chunks)
		}
	})
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v (first occurrence order)", got, want)
		}
	}
}

func TestOrBudget(t *testing.T) {
	t.Run("room_left", func(t *testing.T) {
		left, err := orBudget(500, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if left != 498 {
			t.Errorf("expected 498, got %d", left)
		}
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := orBudget(10, 10)
		if !errors.Is(err, apperrors.ErrBatchOverflow) {
			t.Fatalf("expected BATCH_OVERFLOW, got %v", err)
		}
	})
}

func TestFindBatched(t *testing.T) {
	mgr := openTestStore(t)

	// The seeded geography table is a convenient target for batched reads.
	type geoRow struct {
		ISO2    string `gorm:"column:iso2"`
		Country string `gorm:"column:country"`
	}

	t.Run("concatenates_chunks", func(t *testing.T) {
		small := &Manager{db: mgr.db, budget: 2}
		rows, err := findBatched[geoRow](small, "GEO", "iso2", []string{"PL", "US", "DE", "FR", "PL"}, 0, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected 4 distinct rows, got %d", len(rows))
		}
	})

	t.Run("fixed_conds_exhaust_budget", func(t *testing.T) {
		small := &Manager{db: mgr.db, budget: 2}
		_, err := findBatched[geoRow](small, "GEO", "iso2", []string{"PL"}, 2, nil)
		if !errors.Is(err, apperrors.ErrBatchOverflow) {
			t.Fatalf("expected BATCH_OVERFLOW, got %v", err)
		}
	})
}

package database

import (
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
)

// DefaultClauseBudget caps the number of logical OR terms one store query may
// carry. The sqlite expression tree depth limit makes very long OR chains
// fail outright, so a predicate over more values than this is split into
// several queries whose results the caller concatenates.
const DefaultClauseBudget = 500

// SplitValues splits values into contiguous chunks of at most budget entries.
// The split is deterministic and order-preserving.
func SplitValues(values []string, budget int) [][]string {
	if budget <= 0 || len(values) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(values)+budget-1)/budget)
	for start := 0; start < len(values); start += budget {
		end := start + budget
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}

// Dedupe removes duplicate values, preserving first-occurrence order, so that
// the concatenated chunk results equal a single unsplit query.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// orBudget returns the OR-term budget left after the fixed AND conditions of
// a query are accounted for. AND chains are never split: a predicate whose
// fixed conditions alone exhaust the budget is a configuration error, raised
// immediately.
func orBudget(budget, fixedConds int) (int, error) {
	left := budget - fixedConds
	if left <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrBatchOverflow,
			fmt.Sprintf("%d fixed conditions leave no room in a clause budget of %d", fixedConds, budget))
	}
	return left, nil
}

// findBatched runs `column IN (chunk)` once per budgeted chunk of values,
// with scope applying any fixed AND conditions unchanged to every chunk, and
// concatenates the results. fixedConds must count the conditions scope adds.
func findBatched[T any](m *Manager, table, column string, values []string, fixedConds int, scope func(*gorm.DB) *gorm.DB) ([]T, error) {
	budget, err := orBudget(m.budget, fixedConds)
	if err != nil {
		return nil, err
	}

	var out []T
	for _, chunk := range SplitValues(Dedupe(values), budget) {
		q := m.db.Table(table).Where(column+" IN ?", chunk)
		if scope != nil {
			q = scope(q)
		}
		var rows []T
		if err := q.Find(&rows).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

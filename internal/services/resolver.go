package services

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/models"
)

// Wildcard matches every value of a filter.
const Wildcard = "%"

// OptionList is the "?" value: resolving it fails with a message listing the
// filter's legal values, so the caller can pick one.
const OptionList = "?"

// QuoteColumns are the selectable output columns of an observation row.
var QuoteColumns = []string{"DATE", "OPEN", "HIGH", "LOW", "VAL", "VOL"}

// QuerySpec is the resolved state of one query: which table kind, which
// identifier filters, which output columns, which target currency. It is an
// immutable value: every resolution step returns a new spec and leaves the
// receiver untouched, so a failed step never half-mutates the query.
//
// Filters resolve in a fixed precedence order: kind, symbol, name,
// components, country, region, columns, currency. Applying any of the five
// selection filters resets the other four to wildcard: the last, most
// specific filter wins, which keeps combined predicates from silently
// over-restricting. Switching the kind resets everything; filter values are
// table-scoped and stale ones are meaningless.
type QuerySpec struct {
	Kind       models.Kind
	Symbols    []string
	Names      []string
	Components []string
	Countries  []string
	Regions    []string
	Columns    []string
	Currency   string

	// Unknown holds requested symbols with no cache match that the caller
	// accepted for fetching instead of rejecting.
	Unknown []string
}

// NewQuerySpec returns the default spec: every filter wildcard, all columns,
// no currency conversion.
func NewQuerySpec() QuerySpec {
	return QuerySpec{Currency: Wildcard}
}

// WithKind resolves the table kind and resets every other filter to its
// default. A value matching no kind is UNKNOWN_TABLE, not a plain filter
// error: without a table nothing else can resolve.
func (q QuerySpec) WithKind(raw string) (QuerySpec, error) {
	if strings.TrimSpace(raw) == OptionList {
		return q, apperrors.WithMessage(apperrors.ErrInvalidFilter,
			"legal table values: "+strings.Join(models.KindNames(), ", "))
	}
	val, err := matchOne("table", raw, models.KindNames())
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidFilter) {
			return q, apperrors.WithOptions(apperrors.ErrUnknownTable, "table", raw, models.KindNames())
		}
		return q, err
	}
	out := NewQuerySpec()
	out.Kind = models.Kind(val)
	return out, nil
}

// WithSymbols resolves the symbol filter against the cache's known symbols.
// When allowUnknown is set, values with no match are carried through as
// identifiers to fetch rather than rejected.
func (q QuerySpec) WithSymbols(raw string, legal []string, allowUnknown bool) (QuerySpec, error) {
	var unknown []string
	vals, err := matchValuesFunc("symbol", raw, legal, func(part string) (string, bool) {
		if !allowUnknown {
			return "", false
		}
		unknown = append(unknown, strings.ToUpper(part))
		return "", true
	})
	if err != nil {
		return q, err
	}
	out := q.resetSelection()
	out.Symbols = vals
	out.Unknown = unknown
	return out, nil
}

// WithNames resolves the display-name filter.
func (q QuerySpec) WithNames(raw string, legal []string) (QuerySpec, error) {
	vals, err := matchValues("name", raw, legal)
	if err != nil {
		return q, err
	}
	out := q.resetSelection()
	out.Names = vals
	return out, nil
}

// WithComponents resolves the index filter selecting constituent stocks.
func (q QuerySpec) WithComponents(raw string, legal []string) (QuerySpec, error) {
	vals, err := matchValues("components", raw, legal)
	if err != nil {
		return q, err
	}
	out := q.resetSelection()
	out.Components = vals
	return out, nil
}

// WithCountries resolves the country filter against the geography reference.
func (q QuerySpec) WithCountries(raw string, legal []string) (QuerySpec, error) {
	vals, err := matchValues("country", raw, legal)
	if err != nil {
		return q, err
	}
	out := q.resetSelection()
	out.Countries = vals
	return out, nil
}

// WithRegions resolves the region filter against the geography reference.
func (q QuerySpec) WithRegions(raw string, legal []string) (QuerySpec, error) {
	vals, err := matchValues("region", raw, legal)
	if err != nil {
		return q, err
	}
	out := q.resetSelection()
	out.Regions = vals
	return out, nil
}

// WithColumns resolves the output column selection. Columns support the "-"
// prefix for exclusion: "-VOL" keeps everything but volume. Inclusions and
// exclusions cannot be mixed.
func (q QuerySpec) WithColumns(raw string) (QuerySpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Wildcard {
		out := q
		out.Columns = nil
		return out, nil
	}
	if raw == OptionList {
		return q, apperrors.WithMessage(apperrors.ErrInvalidFilter,
			"legal columns: "+strings.Join(QuoteColumns, ", "))
	}

	var include, exclude []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		neg := strings.HasPrefix(part, "-")
		val, err := matchOne("columns", strings.TrimPrefix(part, "-"), QuoteColumns)
		if err != nil {
			return q, err
		}
		if neg {
			exclude = append(exclude, val)
		} else {
			include = append(include, val)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return q, apperrors.WithMessage(apperrors.ErrInvalidFilter,
			"column selection cannot mix included and excluded columns")
	}

	out := q
	if len(exclude) > 0 {
		out.Columns = nil
		for _, c := range QuoteColumns {
			if !contains(exclude, c) {
				out.Columns = append(out.Columns, c)
			}
		}
	} else {
		out.Columns = include
	}
	return out, nil
}

// WithCurrency resolves the conversion target currency.
func (q QuerySpec) WithCurrency(raw string, legal []string) (QuerySpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Wildcard {
		out := q
		out.Currency = Wildcard
		return out, nil
	}
	val, err := matchOne("currency", raw, legal)
	if err != nil {
		return q, err
	}
	out := q
	out.Currency = val
	return out, nil
}

// SelectedColumns returns the resolved output columns, defaulting to all.
func (q QuerySpec) SelectedColumns() []string {
	if len(q.Columns) == 0 {
		return append([]string(nil), QuoteColumns...)
	}
	return append([]string(nil), q.Columns...)
}

// resetSelection clears all five selection filters; the caller then sets the
// one that was just resolved.
func (q QuerySpec) resetSelection() QuerySpec {
	out := q
	out.Symbols = nil
	out.Names = nil
	out.Components = nil
	out.Countries = nil
	out.Regions = nil
	out.Unknown = nil
	return out
}

// matchValues resolves a raw, possibly ";"-separated filter value against
// the filter's legal options. An empty or "%" value is the wildcard. A "?"
// value fails with the full legal list.
func matchValues(filter, raw string, legal []string) ([]string, error) {
	return matchValuesFunc(filter, raw, legal, nil)
}

// matchValuesFunc is matchValues with a fallback for values that match
// nothing. The fallback reports whether it consumed the value; without one,
// an unmatched value is an error naming the legal options.
func matchValuesFunc(filter, raw string, legal []string, fallback func(string) (string, bool)) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Wildcard {
		return nil, nil
	}
	if raw == OptionList {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidFilter,
			fmt.Sprintf("legal %s values: %s", filter, strings.Join(legal, ", ")))
	}

	var vals []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		val, err := matchOne(filter, part, legal)
		if err != nil {
			// An ambiguous value is never handed to the fallback; only a
			// value matching nothing can be a new identifier.
			if fallback != nil && errors.Is(err, apperrors.ErrInvalidFilter) {
				if v, ok := fallback(part); ok {
					if v != "" {
						vals = append(vals, v)
					}
					continue
				}
			}
			return nil, err
		}
		vals = append(vals, val)
	}
	return vals, nil
}

// matchOne resolves a single value against the legal options. An exact
// literal match always wins, even when the value is also a prefix of other
// options. Otherwise a unique prefix match wins; multiple prefix matches are
// ambiguous and fail listing the candidates; no match fails listing every
// legal option.
func matchOne(filter, val string, legal []string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(val))

	var candidates []string
	for _, opt := range legal {
		if opt == v {
			return opt, nil
		}
		if strings.HasPrefix(opt, v) {
			candidates = append(candidates, opt)
		}
	}

	switch len(candidates) {
	case 0:
		return "", apperrors.WithOptions(apperrors.ErrInvalidFilter, filter, val, legal)
	case 1:
		return candidates[0], nil
	default:
		return "", apperrors.WithMessage(apperrors.ErrAmbiguousFilter, fmt.Sprintf(
			"%s value %q is ambiguous; candidates: %s",
			filter, val, strings.Join(candidates, ", ")))
	}
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

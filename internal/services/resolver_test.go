package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/zielaskowski/tradeDB/internal/models"
	"github.com/zielaskowski/tradeDB/internal/testutil"
)

func TestWithKind(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		spec, err := NewQuerySpec().WithKind("STOCK")
		testutil.AssertNoError(t, err)
		if spec.Kind != models.KindStock {
			t.Errorf("expected STOCK, got %s", spec.Kind)
		}
	})

	t.Run("prefix", func(t *testing.T) {
		spec, err := NewQuerySpec().WithKind("sto")
		testutil.AssertNoError(t, err)
		if spec.Kind != models.KindStock {
			t.Errorf("expected STOCK from prefix, got %s", spec.Kind)
		}
	})

	t.Run("unknown_lists_options", func(t *testing.T) {
		_, err := NewQuerySpec().WithKind("BOND")
		testutil.AssertAppError(t, err, "UNKNOWN_TABLE")
		if !strings.Contains(err.Error(), "STOCK") {
			t.Errorf("error should list legal kinds, got %q", err.Error())
		}
	})

	t.Run("option_list", func(t *testing.T) {
		_, err := NewQuerySpec().WithKind(OptionList)
		testutil.AssertAppError(t, err, "INVALID_FILTER")
	})

	t.Run("resets_everything", func(t *testing.T) {
		spec, err := NewQuerySpec().WithKind("STOCK")
		testutil.AssertNoError(t, err)
		spec, err = spec.WithSymbols("PKN", []string{"PKN"}, false)
		testutil.AssertNoError(t, err)

		spec, err = spec.WithKind("ETF")
		testutil.AssertNoError(t, err)
		if len(spec.Symbols) != 0 {
			t.Error("switching kind must drop table-scoped filters")
		}
	})
}

func TestSelectionFilterPrecedence(t *testing.T) {
	legal := []string{"PKN", "KGH", "CDR"}

	t.Run("last_filter_wins", func(t *testing.T) {
		spec, err := NewQuerySpec().WithKind("STOCK")
		testutil.AssertNoError(t, err)
		spec, err = spec.WithSymbols("PKN", legal, false)
		testutil.AssertNoError(t, err)
		spec, err = spec.WithCountries("PL", []string{"PL", "US"})
		testutil.AssertNoError(t, err)

		if len(spec.Symbols) != 0 {
			t.Error("setting country must clear the symbol filter")
		}
		if !reflect.DeepEqual(spec.Countries, []string{"PL"}) {
			t.Errorf("expected country filter PL, got %v", spec.Countries)
		}
	})

	t.Run("failed_step_leaves_spec_unchanged", func(t *testing.T) {
		spec, err := NewQuerySpec().WithKind("STOCK")
		testutil.AssertNoError(t, err)
		spec, err = spec.WithSymbols("PKN;KGH", legal, false)
		testutil.AssertNoError(t, err)

		after, err := spec.WithCountries("XX", []string{"PL", "US"})
		testutil.AssertAppError(t, err, "INVALID_FILTER")
		if !reflect.DeepEqual(after, spec) {
			t.Error("a failed resolution step must not mutate the query spec")
		}
	})
}

func TestMatchSemantics(t *testing.T) {
	t.Run("literal_beats_prefix", func(t *testing.T) {
		// EUROPE is both a literal option and a prefix of another; the
		// literal match must win without an ambiguity error.
		spec, err := NewQuerySpec().WithRegions("EUROPE", []string{"EUROPE", "EUROPE WEST"})
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.Regions, []string{"EUROPE"}) {
			t.Errorf("expected literal match EUROPE, got %v", spec.Regions)
		}
	})

	t.Run("ambiguous_prefix", func(t *testing.T) {
		_, err := NewQuerySpec().WithRegions("EU", []string{"EUROPE & CENTRAL ASIA", "EUROPE WEST"})
		testutil.AssertAppError(t, err, "AMBIGUOUS_FILTER")
		if !strings.Contains(err.Error(), "EUROPE & CENTRAL ASIA") || !strings.Contains(err.Error(), "EUROPE WEST") {
			t.Errorf("ambiguity error should list candidates, got %q", err.Error())
		}
	})

	t.Run("unique_prefix", func(t *testing.T) {
		spec, err := NewQuerySpec().WithRegions("NORTH", []string{"NORTH AMERICA", "EUROPE & CENTRAL ASIA"})
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.Regions, []string{"NORTH AMERICA"}) {
			t.Errorf("expected NORTH AMERICA, got %v", spec.Regions)
		}
	})

	t.Run("case_insensitive", func(t *testing.T) {
		spec, err := NewQuerySpec().WithSymbols("pkn", []string{"PKN"}, false)
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.Symbols, []string{"PKN"}) {
			t.Errorf("expected PKN, got %v", spec.Symbols)
		}
	})

	t.Run("multi_value", func(t *testing.T) {
		spec, err := NewQuerySpec().WithSymbols("PKN;KGH", []string{"PKN", "KGH", "CDR"}, false)
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.Symbols, []string{"PKN", "KGH"}) {
			t.Errorf("expected both symbols, got %v", spec.Symbols)
		}
	})

	t.Run("wildcard", func(t *testing.T) {
		spec, err := NewQuerySpec().WithSymbols(Wildcard, []string{"PKN"}, false)
		testutil.AssertNoError(t, err)
		if len(spec.Symbols) != 0 {
			t.Errorf("wildcard selects nothing explicitly, got %v", spec.Symbols)
		}
	})
}

func TestUnknownSymbols(t *testing.T) {
	legal := []string{"PKN", "KGH"}

	t.Run("rejected_without_permission", func(t *testing.T) {
		_, err := NewQuerySpec().WithSymbols("ALE", legal, false)
		testutil.AssertAppError(t, err, "INVALID_FILTER")
	})

	t.Run("carried_with_permission", func(t *testing.T) {
		spec, err := NewQuerySpec().WithSymbols("PKN;ale", legal, true)
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.Symbols, []string{"PKN"}) {
			t.Errorf("known symbol should resolve, got %v", spec.Symbols)
		}
		if !reflect.DeepEqual(spec.Unknown, []string{"ALE"}) {
			t.Errorf("unknown symbol should be carried upper-cased, got %v", spec.Unknown)
		}
	})

	t.Run("ambiguity_still_errors", func(t *testing.T) {
		_, err := NewQuerySpec().WithSymbols("K", []string{"KGH", "KTY"}, true)
		testutil.AssertAppError(t, err, "AMBIGUOUS_FILTER")
	})
}

func TestWithColumns(t *testing.T) {
	t.Run("include", func(t *testing.T) {
		spec, err := NewQuerySpec().WithColumns("DATE;VAL")
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.SelectedColumns(), []string{"DATE", "VAL"}) {
			t.Errorf("got %v", spec.SelectedColumns())
		}
	})

	t.Run("exclude", func(t *testing.T) {
		spec, err := NewQuerySpec().WithColumns("-VOL")
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.SelectedColumns(), []string{"DATE", "OPEN", "HIGH", "LOW", "VAL"}) {
			t.Errorf("got %v", spec.SelectedColumns())
		}
	})

	t.Run("mixing_rejected", func(t *testing.T) {
		_, err := NewQuerySpec().WithColumns("DATE;-VOL")
		testutil.AssertAppError(t, err, "INVALID_FILTER")
	})

	t.Run("default_is_all", func(t *testing.T) {
		if !reflect.DeepEqual(NewQuerySpec().SelectedColumns(), QuoteColumns) {
			t.Error("default selection should be every column")
		}
	})

	t.Run("prefix", func(t *testing.T) {
		_, err := NewQuerySpec().WithColumns("V")
		testutil.AssertAppError(t, err, "AMBIGUOUS_FILTER")

		spec, err := NewQuerySpec().WithColumns("OP")
		testutil.AssertNoError(t, err)
		if !reflect.DeepEqual(spec.SelectedColumns(), []string{"OPEN"}) {
			t.Errorf("got %v", spec.SelectedColumns())
		}
	})
}

func TestWithCurrency(t *testing.T) {
	legal := []string{"EUR", "PLN", "USD"}

	t.Run("default_wildcard", func(t *testing.T) {
		if NewQuerySpec().Currency != Wildcard {
			t.Error("default currency should be the wildcard")
		}
	})

	t.Run("resolves", func(t *testing.T) {
		spec, err := NewQuerySpec().WithCurrency("pln", legal)
		testutil.AssertNoError(t, err)
		if spec.Currency != "PLN" {
			t.Errorf("got %s", spec.Currency)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewQuerySpec().WithCurrency("XYZ", legal)
		testutil.AssertAppError(t, err, "INVALID_FILTER")
	})
}

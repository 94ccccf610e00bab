package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zielaskowski/tradeDB/internal/config"
	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/models"
)

var storeSeq atomic.Int64

// openTestStore provisions a fresh in-memory store. Each store gets its own
// namespace so tests never share state.
func openTestStore(t *testing.T) *Manager {
	t.Helper()

	cfg := &config.Config{
		DBPath:       fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", storeSeq.Add(1)),
		ClauseBudget: DefaultClauseBudget,
		GraceDays:    30,
	}
	mgr, err := Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOpenProvisionsFreshStore(t *testing.T) {
	mgr := openTestStore(t)

	t.Run("geo_seeded", func(t *testing.T) {
		geo, err := mgr.Geo()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(geo) < 50 {
			t.Fatalf("expected seeded geography table, got %d rows", len(geo))
		}
		found := false
		for _, g := range geo {
			if g.ISO2 == models.CountryUnknown {
				found = true
			}
		}
		if !found {
			t.Error("geography table missing the UNKNOWN sentinel row")
		}
	})

	t.Run("currencies_seeded", func(t *testing.T) {
		desc, err := mgr.CurrencyDesc("PLN")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if desc == nil {
			t.Fatal("PLN should be seeded from the geography table")
		}
		if !desc.Coverage().IsZero() {
			t.Errorf("seeded currency must start with no coverage, got %v", desc.Coverage())
		}
	})

	t.Run("all_tables_exist", func(t *testing.T) {
		tables, err := loadSchema()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, tab := range tables {
			var n int64
			if err := mgr.DB().Table(tab.Name).Count(&n).Error; err != nil {
				t.Errorf("table %s should exist: %v", tab.Name, err)
			}
		}
	})
}

func TestOpenValidatesExistingStore(t *testing.T) {
	cfg := &config.Config{
		DBPath:       filepath.Join(t.TempDir(), "trader.sqlite"),
		ClauseBudget: DefaultClauseBudget,
	}

	mgr, err := Open(cfg)
	if err != nil {
		t.Fatalf("first open should provision: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	t.Run("valid_store_reopens", func(t *testing.T) {
		mgr, err := Open(cfg)
		if err != nil {
			t.Fatalf("reopening a valid store must succeed: %v", err)
		}
		mgr.Close()
	})

	t.Run("mismatch_is_fatal", func(t *testing.T) {
		mgr, err := Open(cfg)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		// Sabotage one table; the next open must refuse the file rather
		// than migrate it.
		if err := mgr.DB().Exec("ALTER TABLE GEO ADD COLUMN extra TEXT").Error; err != nil {
			t.Fatalf("alter: %v", err)
		}
		mgr.Close()

		if _, err := Open(cfg); !errors.Is(err, apperrors.ErrSchemaMismatch) {
			t.Fatalf("expected SCHEMA_MISMATCH, got %v", err)
		}
	})

	t.Run("type_drift_is_fatal", func(t *testing.T) {
		cfg := &config.Config{
			DBPath:       filepath.Join(t.TempDir(), "trader.sqlite"),
			ClauseBudget: DefaultClauseBudget,
		}
		mgr, err := Open(cfg)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		// Rebuild one table with a column declared as the wrong type. Names
		// and order still agree, so only the type check can catch this.
		if err := mgr.DB().Exec("DROP TABLE GEO").Error; err != nil {
			t.Fatalf("drop: %v", err)
		}
		err = mgr.DB().Exec(
			"CREATE TABLE GEO (iso2 TEXT PRIMARY KEY, country TEXT NOT NULL, region TEXT, currency INTEGER)",
		).Error
		if err != nil {
			t.Fatalf("recreate: %v", err)
		}
		mgr.Close()

		if _, err := Open(cfg); !errors.Is(err, apperrors.ErrSchemaMismatch) {
			t.Fatalf("expected SCHEMA_MISMATCH on type drift, got %v", err)
		}
	})
}

func TestUpsertDescriptions(t *testing.T) {
	mgr := openTestStore(t)

	desc := models.AssetDesc{
		Hash:     models.Identity("PKN", "PKN ORLEN", models.KindStock),
		Symbol:   "PKN",
		Name:     "PKN ORLEN",
		Country:  "PL",
		FromDate: day(2023, 1, 1),
		ToDate:   day(2023, 1, 10),
	}

	t.Run("idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := UpsertDescriptions(mgr.DB(), models.KindStock, []models.AssetDesc{desc}); err != nil {
				t.Fatalf("upsert %d: %v", i, err)
			}
		}
		got, err := mgr.Descriptions(models.KindStock)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("repeated upsert must not duplicate, got %d rows", len(got))
		}
	})

	t.Run("replaces_on_same_identity", func(t *testing.T) {
		desc.ToDate = day(2023, 2, 28)
		if err := UpsertDescriptions(mgr.DB(), models.KindStock, []models.AssetDesc{desc}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := mgr.DescriptionsBy(models.KindStock, "hash", []string{desc.Hash})
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if len(got) != 1 || !got[0].ToDate.Equal(day(2023, 2, 28)) {
			t.Fatalf("expected widened to_date, got %+v", got)
		}
	})
}

func TestQuotesRangeRead(t *testing.T) {
	mgr := openTestStore(t)

	hash := models.Identity("KGH", "KGHM", models.KindStock)
	desc := models.AssetDesc{Hash: hash, Symbol: "KGH", Name: "KGHM", Country: "PL",
		FromDate: day(2023, 1, 1), ToDate: day(2023, 1, 31)}
	if err := UpsertDescriptions(mgr.DB(), models.KindStock, []models.AssetDesc{desc}); err != nil {
		t.Fatalf("desc: %v", err)
	}

	var quotes []models.Quote
	for d := day(2023, 1, 1); !d.After(day(2023, 1, 31)); d = d.AddDate(0, 0, 1) {
		quotes = append(quotes, models.Quote{Hash: hash, Date: d, Open: 1, High: 2, Low: 0.5, Val: 1.5, Vol: 100})
	}
	if err := UpsertQuotes(mgr.DB(), models.KindStock, quotes); err != nil {
		t.Fatalf("quotes: %v", err)
	}

	t.Run("window", func(t *testing.T) {
		got, err := mgr.Quotes(models.KindStock, []string{hash}, models.NewDateRange(day(2023, 1, 10), day(2023, 1, 14)))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("expected 5 rows in window, got %d", len(got))
		}
	})

	t.Run("quote_upsert_idempotent", func(t *testing.T) {
		if err := UpsertQuotes(mgr.DB(), models.KindStock, quotes); err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		got, err := mgr.Quotes(models.KindStock, []string{hash}, desc.Coverage())
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(got) != 31 {
			t.Fatalf("repeated upsert must not duplicate, got %d rows", len(got))
		}
	})
}

func TestComponentsIdempotent(t *testing.T) {
	mgr := openTestStore(t)

	stockHash := models.Identity("PKN", "PKN ORLEN", models.KindStock)
	indexHash := models.Identity("WIG20", "WIG20", models.KindIndex)
	seedPair(t, mgr, stockHash, indexHash)

	edge := []models.Component{{StockHash: stockHash, IndexHash: indexHash}}
	for i := 0; i < 3; i++ {
		if err := UpsertComponents(mgr.DB(), edge); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	got, err := mgr.ComponentsOf([]string{indexHash})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("membership edge must be idempotent, got %d rows", len(got))
	}
}

func TestDeleteAsset(t *testing.T) {
	mgr := openTestStore(t)

	stockHash := models.Identity("CDR", "CD PROJEKT", models.KindStock)
	indexHash := models.Identity("WIG20", "WIG20", models.KindIndex)
	seedPair(t, mgr, stockHash, indexHash)

	if err := UpsertQuotes(mgr.DB(), models.KindStock, []models.Quote{
		{Hash: stockHash, Date: day(2023, 1, 2), Val: 1},
	}); err != nil {
		t.Fatalf("quotes: %v", err)
	}
	if err := UpsertComponents(mgr.DB(), []models.Component{{StockHash: stockHash, IndexHash: indexHash}}); err != nil {
		t.Fatalf("components: %v", err)
	}

	if err := DeleteAsset(mgr.DB(), models.KindStock, stockHash); err != nil {
		t.Fatalf("delete: %v", err)
	}

	descs, err := mgr.DescriptionsBy(models.KindStock, "hash", []string{stockHash})
	if err != nil {
		t.Fatalf("read descs: %v", err)
	}
	if len(descs) != 0 {
		t.Error("description row should be gone")
	}
	quotes, err := mgr.Quotes(models.KindStock, []string{stockHash}, models.NewDateRange(day(2023, 1, 1), day(2023, 1, 31)))
	if err != nil {
		t.Fatalf("read quotes: %v", err)
	}
	if len(quotes) != 0 {
		t.Error("quote rows should be gone")
	}
	comps, err := mgr.ComponentsOf([]string{indexHash})
	if err != nil {
		t.Fatalf("read components: %v", err)
	}
	if len(comps) != 0 {
		t.Error("membership edges should be gone")
	}
}

// seedPair writes one stock and one index description so foreign keys hold.
func seedPair(t *testing.T, mgr *Manager, stockHash, indexHash string) {
	t.Helper()

	err := UpsertDescriptions(mgr.DB(), models.KindStock, []models.AssetDesc{
		{Hash: stockHash, Symbol: "S", Name: "S", Country: "PL", FromDate: day(2023, 1, 1), ToDate: day(2023, 1, 31)},
	})
	if err != nil {
		t.Fatalf("stock desc: %v", err)
	}
	err = UpsertDescriptions(mgr.DB(), models.KindIndex, []models.AssetDesc{
		{Hash: indexHash, Symbol: "I", Name: "I", Country: "PL", FromDate: day(2023, 1, 1), ToDate: day(2023, 1, 31)},
	})
	if err != nil {
		t.Fatalf("index desc: %v", err)
	}
}

package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/zielaskowski/tradeDB/internal/database"
	"github.com/zielaskowski/tradeDB/internal/models"
)

// CreateTestAsset seeds one described asset with a daily observation for
// every day in the given range. Country is an iso2 code already present in
// the seeded geography table, or UNKNOWN.
func CreateTestAsset(t *testing.T, mgr *database.Manager, kind models.Kind, symbol, name, country string, r models.DateRange) models.AssetDesc {
	t.Helper()

	desc := models.AssetDesc{
		Hash:     models.Identity(symbol, name, kind),
		Symbol:   strings.ToUpper(symbol),
		Name:     strings.ToUpper(name),
		Country:  country,
		FromDate: r.From,
		ToDate:   r.To,
	}
	if err := database.UpsertDescriptions(mgr.DB(), kind, []models.AssetDesc{desc}); err != nil {
		t.Fatalf("failed to create test asset %s: %v", symbol, err)
	}
	if err := database.UpsertQuotes(mgr.DB(), kind, QuoteRows(desc.Hash, r)); err != nil {
		t.Fatalf("failed to create test quotes for %s: %v", symbol, err)
	}
	return desc
}

// QuoteRows builds one synthetic observation per day in r.
func QuoteRows(hash string, r models.DateRange) []models.Quote {
	var out []models.Quote
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		out = append(out, models.Quote{
			Hash: hash, Date: d,
			Open: 10, High: 11, Low: 9, Val: 10.5, Vol: 1000,
		})
	}
	return out
}

// FetchRows builds raw fetched rows for a symbol, one per day in r, the way
// a remote source would hand them over.
func FetchRows(symbol, name string, r models.DateRange) []models.FetchRow {
	var out []models.FetchRow
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		out = append(out, models.FetchRow{
			Symbol: symbol, Name: name, Date: d,
			Open: 10, High: 11, Low: 9, Val: 10.5, Vol: 1000,
		})
	}
	return out
}

// Day builds a UTC midnight date, the granularity every store row uses.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Range builds a date range between two UTC midnight days.
func Range(fy int, fm time.Month, fd, ty int, tm time.Month, td int) models.DateRange {
	return models.NewDateRange(Day(fy, fm, fd), Day(ty, tm, td))
}

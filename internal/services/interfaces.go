package services

import (
	"errors"
	"time"

	"github.com/zielaskowski/tradeDB/internal/models"
)

// ErrAssetRemoved is the sentinel a Fetcher returns when the remote source
// reports an asset as no longer available. It is control flow, not a
// failure: the engine reacts by deleting the asset's cached rows.
var ErrAssetRemoved = errors.New("asset removed from source")

// FetchRequest selects what the fetch collaborator should download: one
// asset's daily rows inside Range. Constituent stocks of an index arrive as
// stock rows whose Index field names the index.
type FetchRequest struct {
	Kind   models.Kind
	Symbol string
	Range  models.DateRange
}

// Fetcher is the collaborator boundary to the remote source. How it obtains
// rows (scraping, polling, anti-bot handling) is not the engine's concern;
// it only relies on raw tabular rows with at least date and val, an empty
// result, or the ErrAssetRemoved sentinel.
type Fetcher interface {
	Fetch(req FetchRequest) ([]models.FetchRow, error)
}

// RateSource is the collaborator boundary to the currency-rate source. The
// identity currency (source equals target) is short-circuited by the engine
// and never reaches the collaborator.
type RateSource interface {
	Rates(symbol string, r models.DateRange) ([]models.RateRow, error)
}

// Request is the typed configuration structure for one engine call. It
// enumerates every recognized option; anything else is rejected at the
// boundary before filter resolution starts.
type Request struct {
	Kind       string `validate:"required"`
	Symbol     string
	Name       string
	Components string
	Country    string
	Region     string
	Columns    string
	Currency   string `validate:"fx_target"`
	StartDate  time.Time
	EndDate    time.Time `validate:"omitempty,gtefield=StartDate"`

	// UpdateDates permits date-range widening up to today even without an
	// explicit end date. UpdateSymbols permits fetching symbols the cache
	// has never seen. Without either flag, a request with no end date is
	// answered from cache only.
	UpdateDates   bool
	UpdateSymbols bool

	// ScaleVolume also rescales volume during currency conversion. Volume
	// is a unit count, not a monetary amount, so this is off by default.
	ScaleVolume bool
}

// ResultRow is one joined description/observation row returned to callers.
// Result sets are copies; they never alias store state.
type ResultRow struct {
	Symbol    string
	Name      string
	Country   string
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Val       float64
	Vol       int64
	Currency  string
	Converted bool
}

// Result is the outcome of one engine call.
type Result struct {
	Rows    []ResultRow
	Columns []string
}

// MergeServicer merges freshly fetched rows into the store and handles
// asset removal.
type MergeServicer interface {
	Merge(kind models.Kind, rows []models.FetchRow, requested models.DateRange) error
	Remove(kind models.Kind, hash string) error
}

// FxServicer converts result rows into a target currency, keeping the
// currency-rate sub-cache covered on the way.
type FxServicer interface {
	Convert(rows []ResultRow, target string, r models.DateRange, scaleVolume bool) ([]ResultRow, error)
}

// TraderServicer is the public surface of the cache engine.
type TraderServicer interface {
	Get(req Request) (*Result, error)
}

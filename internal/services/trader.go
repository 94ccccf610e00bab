package services

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zielaskowski/tradeDB/internal/config"
	"github.com/zielaskowski/tradeDB/internal/database"
	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/logger"
	"github.com/zielaskowski/tradeDB/internal/models"
	"github.com/zielaskowski/tradeDB/internal/validator"
)

// Trader is the cache engine's public entry point. Each Get call runs to
// completion before the next is accepted: resolve filters, detect coverage
// gaps, fetch what is missing, merge, read back, convert. The store is
// opened at the start of the call and closed on every exit path.
type Trader struct {
	cfg     *config.Config
	fetcher Fetcher
	rates   RateSource
	log     *zap.SugaredLogger
}

// NewTrader creates a Trader using the given collaborators for remote data.
func NewTrader(cfg *config.Config, fetcher Fetcher, rates RateSource) *Trader {
	return &Trader{cfg: cfg, fetcher: fetcher, rates: rates, log: logger.Get()}
}

// Get answers one request, fetching from the remote source only when the
// cached coverage cannot satisfy it.
func (t *Trader) Get(req Request) (*Result, error) {
	if err := validator.Struct(&req); err != nil {
		return nil, err
	}

	mgr, err := database.Open(t.cfg)
	if err != nil {
		return nil, err
	}
	defer mgr.Close()

	return t.get(mgr, req)
}

func (t *Trader) get(mgr *database.Manager, req Request) (*Result, error) {
	requested, fetchAllowed := requestedRange(req)

	spec, err := t.resolve(mgr, req, fetchAllowed)
	if err != nil {
		return nil, err
	}

	descs, err := resolveIdentifiers(mgr, spec)
	if err != nil {
		return nil, err
	}

	// Date widening is a deliberate traffic-control trade-off: it only runs
	// for requests narrowed to specific identifiers, or on explicit opt-in.
	narrowed := len(spec.Symbols) > 0 || len(spec.Names) > 0 || len(spec.Unknown) > 0
	if fetchAllowed && (narrowed || req.UpdateDates) {
		descs, err = t.sync(mgr, spec, descs, requested)
		if err != nil {
			return nil, err
		}
	}

	return t.read(mgr, spec, descs, req, requested)
}

// resolve runs the cascading filter resolution in precedence order against
// the store-backed option sets.
func (t *Trader) resolve(mgr *database.Manager, req Request, fetchAllowed bool) (QuerySpec, error) {
	spec, err := NewQuerySpec().WithKind(req.Kind)
	if err != nil {
		return spec, err
	}

	if req.Symbol != "" || req.Name != "" {
		all, err := mgr.Descriptions(spec.Kind)
		if err != nil {
			return spec, err
		}
		symbols := make([]string, len(all))
		names := make([]string, len(all))
		for i, d := range all {
			symbols[i], names[i] = d.Symbol, d.Name
		}
		if req.Symbol != "" {
			if spec, err = spec.WithSymbols(req.Symbol, symbols, fetchAllowed); err != nil {
				return spec, err
			}
		}
		if req.Name != "" {
			if spec, err = spec.WithNames(req.Name, names); err != nil {
				return spec, err
			}
		}
	}

	if req.Components != "" {
		idx, err := mgr.Descriptions(models.KindIndex)
		if err != nil {
			return spec, err
		}
		symbols := make([]string, len(idx))
		for i, d := range idx {
			symbols[i] = d.Symbol
		}
		if spec, err = spec.WithComponents(req.Components, symbols); err != nil {
			return spec, err
		}
	}

	if req.Country != "" || req.Region != "" || req.Currency != "" {
		geo, err := mgr.Geo()
		if err != nil {
			return spec, err
		}
		if req.Country != "" {
			codes := make([]string, len(geo))
			for i, g := range geo {
				codes[i] = g.ISO2
			}
			if spec, err = spec.WithCountries(req.Country, codes); err != nil {
				return spec, err
			}
		}
		if req.Region != "" {
			if spec, err = spec.WithRegions(req.Region, distinctRegions(geo)); err != nil {
				return spec, err
			}
		}
		if req.Currency != "" {
			if spec, err = spec.WithCurrency(req.Currency, distinctCurrencies(geo)); err != nil {
				return spec, err
			}
		}
	}

	if req.Columns != "" {
		if spec, err = spec.WithColumns(req.Columns); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

// sync closes coverage gaps for the resolved identifiers, one asset at a
// time. An empty fetch skips the asset; the removal sentinel deletes it; any
// other fetch or merge failure aborts the remainder of the batch, leaving
// previously committed assets intact.
func (t *Trader) sync(mgr *database.Manager, spec QuerySpec, descs []models.AssetDesc, requested models.DateRange) ([]models.AssetDesc, error) {
	merge := NewMergeService(mgr, t.cfg.GraceDays)
	batch := uuid.NewString()

	kept := make([]models.AssetDesc, 0, len(descs))
	synced := make([]string, 0, len(descs))
	for _, desc := range descs {
		gap, need := missingRange(desc.Coverage(), requested, desc.TradingStart, t.cfg.GraceDays)
		if !need {
			kept = append(kept, desc)
			continue
		}

		t.log.Infow("fetching gap", "batch", batch, "symbol", desc.Symbol, "from", gap.From, "to", gap.To)
		rows, err := t.fetcher.Fetch(FetchRequest{Kind: spec.Kind, Symbol: desc.Symbol, Range: gap})
		switch {
		case errors.Is(err, ErrAssetRemoved):
			if err := merge.Remove(spec.Kind, desc.Hash); err != nil {
				return nil, err
			}
			continue
		case err != nil:
			return nil, apperrors.Wrap(apperrors.ErrFetchFailure, err)
		case len(rows) == 0:
			t.log.Infow("source returned nothing, skipping", "batch", batch, "symbol", desc.Symbol)
			kept = append(kept, desc)
			continue
		}

		if err := merge.Merge(spec.Kind, rows, gap); err != nil {
			return nil, err
		}
		synced = append(synced, desc.Hash)
	}

	for _, sym := range spec.Unknown {
		t.log.Infow("fetching new symbol", "batch", batch, "symbol", sym)
		rows, err := t.fetcher.Fetch(FetchRequest{Kind: spec.Kind, Symbol: sym, Range: requested})
		switch {
		case errors.Is(err, ErrAssetRemoved):
			continue
		case err != nil:
			return nil, apperrors.Wrap(apperrors.ErrFetchFailure, err)
		case len(rows) == 0:
			t.log.Infow("unknown symbol yielded nothing", "batch", batch, "symbol", sym)
			continue
		}
		if err := merge.Merge(spec.Kind, rows, requested); err != nil {
			return nil, err
		}
	}

	// Re-read synced and newly fetched descriptions: coverage has widened
	// and unknown symbols may exist now.
	if len(synced) > 0 {
		fresh, err := mgr.DescriptionsBy(spec.Kind, "hash", synced)
		if err != nil {
			return nil, err
		}
		kept = append(kept, fresh...)
	}
	if len(spec.Unknown) > 0 {
		fresh, err := mgr.DescriptionsBy(spec.Kind, "symbol", spec.Unknown)
		if err != nil {
			return nil, err
		}
		kept = append(kept, fresh...)
	}
	return kept, nil
}

// read loads the resolved observations and joins them with description and
// currency metadata. Returned rows are copies.
func (t *Trader) read(mgr *database.Manager, spec QuerySpec, descs []models.AssetDesc, req Request, requested models.DateRange) (*Result, error) {
	result := &Result{Columns: spec.SelectedColumns()}
	if len(descs) == 0 {
		return result, nil
	}

	readRange := requested
	if readRange.IsZero() {
		// Latest-available policy: answer from what is cached.
		for _, d := range descs {
			readRange = readRange.Union(d.Coverage())
		}
		if start := models.Day(req.StartDate); !start.IsZero() && start.After(readRange.From) {
			readRange.From = start
		}
	}
	if readRange.IsZero() {
		return result, nil
	}

	byHash := make(map[string]models.AssetDesc, len(descs))
	hashes := make([]string, 0, len(descs))
	for _, d := range descs {
		if _, ok := byHash[d.Hash]; ok {
			continue
		}
		byHash[d.Hash] = d
		hashes = append(hashes, d.Hash)
	}

	quotes, err := mgr.Quotes(spec.Kind, hashes, readRange)
	if err != nil {
		return nil, err
	}

	geo, err := mgr.Geo()
	if err != nil {
		return nil, err
	}
	currencyOf := make(map[string]string, len(geo))
	for _, g := range geo {
		currencyOf[g.ISO2] = g.Currency
	}

	rows := make([]ResultRow, 0, len(quotes))
	for _, q := range quotes {
		desc := byHash[q.Hash]
		rows = append(rows, ResultRow{
			Symbol:   desc.Symbol,
			Name:     desc.Name,
			Country:  desc.Country,
			Date:     q.Date,
			Open:     q.Open,
			High:     q.High,
			Low:      q.Low,
			Val:      q.Val,
			Vol:      q.Vol,
			Currency: currencyOf[desc.Country],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	if spec.Currency != Wildcard {
		fx := NewFxService(mgr, t.rates, t.cfg.GraceDays)
		if rows, err = fx.Convert(rows, spec.Currency, readRange, req.ScaleVolume); err != nil {
			return nil, err
		}
	}

	result.Rows = rows
	return result, nil
}

// requestedRange derives the fetch window from the request. A request with
// no end date means "latest available, do not fetch"; date widening is only
// attempted when the caller explicitly bounds the range or opts in via the
// update flags, which imply a window ending today.
func requestedRange(req Request) (models.DateRange, bool) {
	end := models.Day(req.EndDate)
	if end.IsZero() && (req.UpdateDates || req.UpdateSymbols) {
		end = models.Day(time.Now())
	}
	if end.IsZero() {
		return models.DateRange{}, false
	}
	start := models.Day(req.StartDate)
	if start.IsZero() {
		start = end
	}
	return models.NewDateRange(start, end), true
}

// resolveIdentifiers turns the resolved spec into concrete description rows.
func resolveIdentifiers(mgr *database.Manager, spec QuerySpec) ([]models.AssetDesc, error) {
	switch {
	case len(spec.Symbols) > 0:
		return mgr.DescriptionsBy(spec.Kind, "symbol", spec.Symbols)
	case len(spec.Names) > 0:
		return mgr.DescriptionsBy(spec.Kind, "name", spec.Names)
	case len(spec.Components) > 0:
		idx, err := mgr.DescriptionsBy(models.KindIndex, "symbol", spec.Components)
		if err != nil {
			return nil, err
		}
		idxHashes := make([]string, len(idx))
		for i, d := range idx {
			idxHashes[i] = d.Hash
		}
		comps, err := mgr.ComponentsOf(idxHashes)
		if err != nil {
			return nil, err
		}
		stockHashes := make([]string, len(comps))
		for i, c := range comps {
			stockHashes[i] = c.StockHash
		}
		return mgr.DescriptionsBy(spec.Kind, "hash", stockHashes)
	case len(spec.Countries) > 0:
		return mgr.DescriptionsBy(spec.Kind, "country", spec.Countries)
	case len(spec.Regions) > 0:
		geo, err := mgr.GeoByRegion(spec.Regions)
		if err != nil {
			return nil, err
		}
		codes := make([]string, len(geo))
		for i, g := range geo {
			codes[i] = g.ISO2
		}
		return mgr.DescriptionsBy(spec.Kind, "country", codes)
	case len(spec.Unknown) > 0:
		// Nothing cached yet; the sync pass fetches these.
		return nil, nil
	default:
		return mgr.Descriptions(spec.Kind)
	}
}

func distinctRegions(geo []models.Geo) []string {
	return distinctField(geo, func(g models.Geo) string { return g.Region })
}

func distinctCurrencies(geo []models.Geo) []string {
	return distinctField(geo, func(g models.Geo) string { return g.Currency })
}

func distinctField(geo []models.Geo, field func(models.Geo) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range geo {
		v := field(g)
		if v == "" || v == models.CountryUnknown {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

package services

import (
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zielaskowski/tradeDB/internal/database"
	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/logger"
	"github.com/zielaskowski/tradeDB/internal/models"
)

// mergeService folds freshly fetched rows into the store without regressing
// metadata the cache already knows.
type mergeService struct {
	mgr       *database.Manager
	log       *zap.SugaredLogger
	graceDays int
}

// NewMergeService creates a new MergeServicer bound to an open store.
func NewMergeService(mgr *database.Manager, graceDays int) MergeServicer {
	return &mergeService{mgr: mgr, log: logger.Get(), graceDays: graceDays}
}

// assetBatch collects everything fetched for one identity.
type assetBatch struct {
	desc   models.AssetDesc
	dates  models.DateRange
	quotes []models.Quote
}

// Merge computes identities for the fetched rows, merges them with existing
// description rows and writes the batch in one transaction. Descriptive
// fields the batch does not supply (country, index membership) are preserved
// from the store; volatile fields always take the fetched value. The covered
// interval is recomputed as the union of the fetched dates and the known
// interval, so it only ever widens; days of the widened interval the source
// returned no row for are written as zero rows, keeping the interval free of
// holes. requested is the window that was asked
// from the source; when the source returned nothing near its start, the
// earliest fetched date is recorded as the synthetic trading start.
func (m *mergeService) Merge(kind models.Kind, rows []models.FetchRow, requested models.DateRange) error {
	if len(rows) == 0 {
		return nil
	}

	geo, err := m.mgr.Geo()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMergeFailure, err)
	}

	batches, order := m.groupRows(kind, rows, geo)
	if len(order) == 0 {
		return nil
	}

	existing, err := m.existingDescs(kind, order)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMergeFailure, err)
	}

	descs := make([]models.AssetDesc, 0, len(order))
	quotes := make([]models.Quote, 0, len(rows))
	var fillers []models.Quote
	for _, hash := range order {
		b := batches[hash]
		desc := b.desc
		coverage := b.dates
		var known models.DateRange

		if ex, ok := existing[hash]; ok {
			if desc.Country == models.CountryUnknown && ex.Country != "" {
				desc.Country = ex.Country
			}
			if desc.Indexes == "" {
				desc.Indexes = ex.Indexes
			}
			known = ex.Coverage()
			coverage = known.Union(b.dates)
			desc.TradingStart = ex.TradingStart
		}

		// The source returned nothing for a span well before its first row:
		// remember where trading actually starts so the dead span is not
		// re-requested on every call.
		if desc.TradingStart.IsZero() && !requested.IsZero() &&
			b.dates.From.After(requested.From.AddDate(0, 0, m.graceDays)) {
			desc.TradingStart = b.dates.From
		}

		desc.FromDate, desc.ToDate = coverage.From, coverage.To
		descs = append(descs, desc)
		quotes = append(quotes, b.quotes...)
		fillers = append(fillers, quoteGaps(b, coverage, known)...)
	}

	comps, err := m.membershipEdges(kind, descs)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMergeFailure, err)
	}

	// Description rows go first: quote rows foreign-key against them.
	err = m.mgr.DB().Transaction(func(tx *gorm.DB) error {
		if err := database.UpsertDescriptions(tx, kind, descs); err != nil {
			return err
		}
		if err := database.UpsertQuotes(tx, kind, quotes); err != nil {
			return err
		}
		if err := database.FillQuotes(tx, kind, fillers); err != nil {
			return err
		}
		return database.UpsertComponents(tx, comps)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMergeFailure, err)
	}

	m.log.Infow("merged fetch batch",
		"kind", kind, "assets", len(descs), "quotes", len(quotes))
	return nil
}

// Remove deletes every cached row of the identity. A removed asset is not
// retried on subsequent queries: its description is gone, so resolving its
// symbol again takes the missing-value error path.
func (m *mergeService) Remove(kind models.Kind, hash string) error {
	err := m.mgr.DB().Transaction(func(tx *gorm.DB) error {
		return database.DeleteAsset(tx, kind, hash)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMergeFailure, err)
	}
	m.log.Infow("removed delisted asset", "kind", kind, "hash", hash)
	return nil
}

// quoteGaps returns a zero observation row for every day of the merged
// interval that neither the store nor this batch has a row for. A covered
// interval guarantees a row per day; when the source skips one, a market
// holiday for instance, the skipped day is recorded as zeros rather than
// left out. Fillers are written with FillQuotes, so a real row is never
// replaced by one.
func quoteGaps(b *assetBatch, merged, known models.DateRange) []models.Quote {
	fetched := make(map[string]bool, len(b.quotes))
	for _, q := range b.quotes {
		fetched[dayKey(q.Date)] = true
	}

	var gaps []models.Quote
	for d := merged.From; !d.After(merged.To); d = d.AddDate(0, 0, 1) {
		if fetched[dayKey(d)] {
			continue
		}
		if known.Contains(models.DateRange{From: d, To: d}) {
			continue
		}
		gaps = append(gaps, models.Quote{Hash: b.desc.Hash, Date: d})
	}
	return gaps
}

// groupRows buckets fetched rows by content identity, in first-seen order.
func (m *mergeService) groupRows(kind models.Kind, rows []models.FetchRow, geo []models.Geo) (map[string]*assetBatch, []string) {
	batches := make(map[string]*assetBatch)
	var order []string

	for _, row := range rows {
		date := models.Day(row.Date)
		if date.IsZero() {
			m.log.Warnw("dropping fetched row without a date", "symbol", row.Symbol)
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
		name, iso2 := resolveRowCountry(row, kind, geo)
		hash := models.Identity(symbol, name, kind)

		b, ok := batches[hash]
		if !ok {
			b = &assetBatch{desc: models.AssetDesc{
				Hash:    hash,
				Symbol:  symbol,
				Name:    name,
				Country: iso2,
				Indexes: strings.ToUpper(strings.TrimSpace(row.Index)),
			}}
			batches[hash] = b
			order = append(order, hash)
		}

		b.dates = b.dates.Extend(date)
		b.quotes = append(b.quotes, models.Quote{
			Hash: hash,
			Date: date,
			Open: row.Open,
			High: row.High,
			Low:  row.Low,
			Val:  row.Val,
			Vol:  row.Vol,
		})
	}
	return batches, order
}

// existingDescs loads current description rows for the identities.
func (m *mergeService) existingDescs(kind models.Kind, hashes []string) (map[string]models.AssetDesc, error) {
	descs, err := m.mgr.DescriptionsBy(kind, "hash", hashes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.AssetDesc, len(descs))
	for _, d := range descs {
		out[d.Hash] = d
	}
	return out, nil
}

// membershipEdges builds COMPONENTS rows for stocks whose batch named the
// index they belong to. Edges to indexes the cache has not seen yet are
// skipped; the display-name column still records the membership.
func (m *mergeService) membershipEdges(kind models.Kind, descs []models.AssetDesc) ([]models.Component, error) {
	if kind != models.KindStock {
		return nil, nil
	}

	var indexSymbols []string
	for _, d := range descs {
		if d.Indexes != "" {
			indexSymbols = append(indexSymbols, d.Indexes)
		}
	}
	if len(indexSymbols) == 0 {
		return nil, nil
	}

	idxDescs, err := m.mgr.DescriptionsBy(models.KindIndex, "symbol", indexSymbols)
	if err != nil {
		return nil, err
	}
	idxBySymbol := make(map[string]string, len(idxDescs))
	for _, d := range idxDescs {
		idxBySymbol[d.Symbol] = d.Hash
	}

	var comps []models.Component
	for _, d := range descs {
		if idxHash, ok := idxBySymbol[d.Indexes]; ok {
			comps = append(comps, models.Component{StockHash: d.Hash, IndexHash: idxHash})
		}
	}
	return comps, nil
}

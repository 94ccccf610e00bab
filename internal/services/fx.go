package services

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zielaskowski/tradeDB/internal/database"
	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/logger"
	"github.com/zielaskowski/tradeDB/internal/models"
)

// fxService resolves a value series from its source currency into a target
// currency through the currency-rate sub-cache. The sub-cache is kept
// covered with the same gap logic as asset quotes.
type fxService struct {
	mgr       *database.Manager
	rates     RateSource
	log       *zap.SugaredLogger
	graceDays int
}

// NewFxService creates a new FxServicer bound to an open store.
func NewFxService(mgr *database.Manager, rates RateSource, graceDays int) FxServicer {
	return &fxService{mgr: mgr, rates: rates, log: logger.Get(), graceDays: graceDays}
}

// Convert rescales every monetary field of the rows by rate_source over
// rate_target, joining on date. The wildcard target is a no-op. Rows whose
// date has no rate on either side are returned unconverted and flagged via
// the Converted field, never dropped. Volume is only rescaled when
// scaleVolume is set; it is a unit count, not a monetary amount.
func (f *fxService) Convert(rows []ResultRow, target string, r models.DateRange, scaleVolume bool) ([]ResultRow, error) {
	if target == "" || target == Wildcard || len(rows) == 0 {
		return rows, nil
	}

	// The identity currency converts with a constant rate of 1; only rows in
	// other currencies need rate coverage.
	sources := make(map[string]struct{})
	for _, row := range rows {
		if row.Currency != "" && row.Currency != target {
			sources[row.Currency] = struct{}{}
		}
	}

	rateOf := make(map[string]map[string]float64)
	if len(sources) > 0 {
		symbols := make([]string, 0, len(sources)+1)
		for sym := range sources {
			symbols = append(symbols, sym)
		}
		symbols = append(symbols, target)

		for _, sym := range symbols {
			if err := f.ensureRates(sym, r); err != nil {
				return nil, err
			}
			series, err := f.mgr.CurrencyRates(sym, r)
			if err != nil {
				return nil, err
			}
			byDay := make(map[string]float64, len(series))
			for _, rate := range series {
				byDay[dayKey(rate.Date)] = rate.Val
			}
			rateOf[sym] = byDay
		}
	}

	out := make([]ResultRow, len(rows))
	copy(out, rows)
	for i := range out {
		row := &out[i]
		switch {
		case row.Currency == "":
			// Source currency unknown; nothing to scale by.
			continue
		case row.Currency == target:
			row.Converted = true
			continue
		}

		rs, okS := rateOf[row.Currency][dayKey(row.Date)]
		rt, okT := rateOf[target][dayKey(row.Date)]
		if !okS || !okT || rs == 0 || rt == 0 {
			f.log.Warnw("no rate for date, row left unconverted",
				"symbol", row.Symbol, "date", row.Date, "from", row.Currency, "to", target)
			continue
		}

		ratio := decimal.NewFromFloat(rs).Div(decimal.NewFromFloat(rt))
		row.Open = scale(row.Open, ratio)
		row.High = scale(row.High, ratio)
		row.Low = scale(row.Low, ratio)
		row.Val = scale(row.Val, ratio)
		if scaleVolume {
			row.Vol = decimal.NewFromInt(row.Vol).Mul(ratio).Round(0).IntPart()
		}
		row.Currency = target
		row.Converted = true
	}
	return out, nil
}

// ensureRates closes any coverage gap of the currency's rate series.
func (f *fxService) ensureRates(symbol string, r models.DateRange) error {
	desc, err := f.mgr.CurrencyDesc(symbol)
	if err != nil {
		return err
	}
	if desc == nil {
		return apperrors.WithMessage(apperrors.ErrRateGap,
			"currency "+symbol+" is unknown to the rate cache")
	}

	gap, need := missingRange(desc.Coverage(), r, time.Time{}, f.graceDays)
	if !need {
		return nil
	}

	rows, err := f.rates.Rates(symbol, gap)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrFetchFailure, err)
	}
	if len(rows) == 0 {
		f.log.Warnw("rate source returned nothing", "symbol", symbol, "range", gap)
		return nil
	}

	fetched := models.DateRange{}
	rates := make([]models.CurrencyRate, 0, len(rows))
	for _, row := range rows {
		date := models.Day(row.Date)
		if date.IsZero() {
			continue
		}
		fetched = fetched.Extend(date)
		rates = append(rates, models.CurrencyRate{Symbol: symbol, Date: date, Val: row.Val})
	}

	coverage := desc.Coverage().Union(fetched)
	desc.FromDate, desc.ToDate = coverage.From, coverage.To

	err = f.mgr.DB().Transaction(func(tx *gorm.DB) error {
		if err := database.UpsertCurrencyDesc(tx, *desc); err != nil {
			return err
		}
		return database.UpsertCurrencyRates(tx, rates)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMergeFailure, err)
	}
	return nil
}

func scale(v float64, ratio decimal.Decimal) float64 {
	out, _ := decimal.NewFromFloat(v).Mul(ratio).Float64()
	return out
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

package services

import (
	"time"

	"github.com/zielaskowski/tradeDB/internal/models"
)

// missingRange decides whether a requested interval needs a remote fetch and
// computes the window to ask for. When the known interval already contains
// the request there is nothing to do. Otherwise the fetch window is the
// union of known and requested: an expansion always pulls the minimal
// contiguous superset, never a disjoint sub-range, so the stored interval
// stays a true gap-free guarantee.
//
// A recorded trading start clamps requests reaching further back than the
// grace window before it; spans the source has already shown to be dead are
// not re-probed on every call. A request entirely before the trading start
// needs no fetch at all.
func missingRange(known, requested models.DateRange, tradingStart time.Time, graceDays int) (models.DateRange, bool) {
	if requested.IsZero() {
		return models.DateRange{}, false
	}

	tradingStart = models.Day(tradingStart)
	if !tradingStart.IsZero() && requested.From.Before(tradingStart.AddDate(0, 0, -graceDays)) {
		if requested.To.Before(tradingStart) {
			return models.DateRange{}, false
		}
		requested.From = tradingStart
	}

	if known.Contains(requested) {
		return models.DateRange{}, false
	}
	return known.Union(requested), true
}

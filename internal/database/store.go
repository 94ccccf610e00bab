package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/models"
)

// Read accessors. Result sets are always copies; nothing returned here
// aliases store state.

// Descriptions returns every description row of the kind.
func (m *Manager) Descriptions(kind models.Kind) ([]models.AssetDesc, error) {
	var descs []models.AssetDesc
	if err := m.db.Table(kind.DescTable()).Order("symbol").Find(&descs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return descs, nil
}

// DescriptionsBy returns description rows whose column matches any of the
// values, batched under the clause budget.
func (m *Manager) DescriptionsBy(kind models.Kind, column string, values []string) ([]models.AssetDesc, error) {
	return findBatched[models.AssetDesc](m, kind.DescTable(), column, values, 0, nil)
}

// Quotes returns observation rows for the identities within the range,
// batched on the identity list. The date interval rides along as a fixed AND
// condition on every chunk.
func (m *Manager) Quotes(kind models.Kind, hashes []string, r models.DateRange) ([]models.Quote, error) {
	return findBatched[models.Quote](m, kind.QuoteTable(), "hash", hashes, 2,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("date BETWEEN ? AND ?", r.From, r.To).Order("hash, date")
		})
}

// Geo returns the full geography reference table.
func (m *Manager) Geo() ([]models.Geo, error) {
	var rows []models.Geo
	if err := m.db.Table("GEO").Order("iso2").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return rows, nil
}

// GeoByRegion returns geography rows belonging to the given regions.
func (m *Manager) GeoByRegion(regions []string) ([]models.Geo, error) {
	return findBatched[models.Geo](m, "GEO", "region", regions, 0, nil)
}

// CurrencyDesc returns the description row of a currency, or nil when the
// currency is unknown to the store.
func (m *Manager) CurrencyDesc(symbol string) (*models.CurrencyDesc, error) {
	var descs []models.CurrencyDesc
	if err := m.db.Table("CURRENCY_DESC").Where("symbol = ?", symbol).Find(&descs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	if len(descs) == 0 {
		return nil, nil
	}
	return &descs[0], nil
}

// CurrencyRates returns rate rows of a currency within the range.
func (m *Manager) CurrencyRates(symbol string, r models.DateRange) ([]models.CurrencyRate, error) {
	var rows []models.CurrencyRate
	err := m.db.Table("CURRENCY").
		Where("symbol = ?", symbol).
		Where("date BETWEEN ? AND ?", r.From, r.To).
		Order("date").Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return rows, nil
}

// ComponentsOf returns membership edges of the given index identities.
func (m *Manager) ComponentsOf(indexHashes []string) ([]models.Component, error) {
	return findBatched[models.Component](m, "COMPONENTS", "index_hash", indexHashes, 0, nil)
}

// Write accessors. They operate on a *gorm.DB so the merge engine can run a
// whole fetch batch inside one transaction. A failure is fatal for the batch:
// the caller aborts rather than continuing with partial state.

// UpsertDescriptions writes description rows, replacing rows with the same
// identity. Must run before UpsertQuotes: quote rows foreign-key against the
// description's identity.
func UpsertDescriptions(db *gorm.DB, kind models.Kind, descs []models.AssetDesc) error {
	if len(descs) == 0 {
		return nil
	}
	err := db.Table(kind.DescTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		UpdateAll: true,
	}).Create(&descs).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// UpsertQuotes writes observation rows, replacing rows with the same
// (identity, date).
func UpsertQuotes(db *gorm.DB, kind models.Kind, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	err := db.Table(kind.QuoteTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(&quotes).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// FillQuotes inserts observation rows only where no row exists for the
// (identity, date) pair. Used for the zero filler rows that keep a covered
// interval hole-free; a filler never replaces a real observation.
func FillQuotes(db *gorm.DB, kind models.Kind, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	err := db.Table(kind.QuoteTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&quotes).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// UpsertComponents writes membership edges. Duplicate pairs are idempotent,
// not duplicated.
func UpsertComponents(db *gorm.DB, comps []models.Component) error {
	if len(comps) == 0 {
		return nil
	}
	err := db.Table("COMPONENTS").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_hash"}, {Name: "index_hash"}},
		DoNothing: true,
	}).Create(&comps).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// UpsertCurrencyDesc writes a currency description row.
func UpsertCurrencyDesc(db *gorm.DB, desc models.CurrencyDesc) error {
	err := db.Table("CURRENCY_DESC").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		UpdateAll: true,
	}).Create(&desc).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// UpsertCurrencyRates writes rate rows, replacing rows with the same
// (symbol, date).
func UpsertCurrencyRates(db *gorm.DB, rates []models.CurrencyRate) error {
	if len(rates) == 0 {
		return nil
	}
	err := db.Table("CURRENCY").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(&rates).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

// DeleteAsset removes every row belonging to the identity: observations,
// membership edges, then the description. Used when the remote source
// reports the asset as removed.
func DeleteAsset(db *gorm.DB, kind models.Kind, hash string) error {
	if err := db.Table(kind.QuoteTable()).Where("hash = ?", hash).Delete(&models.Quote{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	err := db.Table("COMPONENTS").
		Where("stock_hash = ? OR index_hash = ?", hash, hash).Delete(&models.Component{}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	if err := db.Table(kind.DescTable()).Where("hash = ?", hash).Delete(&models.AssetDesc{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

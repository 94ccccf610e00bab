package models

import "time"

// CountryUnknown is the sentinel ISO2 code used when the country of an asset
// cannot be determined from the source.
const CountryUnknown = "UNKNOWN"

// AssetDesc is one description row: one row per distinct (symbol, name, kind)
// triple. The hash is the content identity computed by Identity. FromDate and
// ToDate delimit the currently known, gap-free covered interval; they only
// ever widen across merges. TradingStart, when set, marks the earliest date
// the source has ever returned data for, so dead ranges before it are not
// re-probed on every call.
type AssetDesc struct {
	Hash         string    `gorm:"column:hash;primaryKey"`
	Symbol       string    `gorm:"column:symbol"`
	Name         string    `gorm:"column:name"`
	Country      string    `gorm:"column:country"`
	Indexes      string    `gorm:"column:indexes"`
	FromDate     time.Time `gorm:"column:from_date"`
	ToDate       time.Time `gorm:"column:to_date"`
	TradingStart time.Time `gorm:"column:trading_start"`
}

// Coverage returns the known covered interval of the asset.
func (d AssetDesc) Coverage() DateRange {
	return DateRange{From: Day(d.FromDate), To: Day(d.ToDate)}
}

// Quote is one daily observation row, owned by its AssetDesc and deleted
// together with it. A close value missing at the source (market holiday) is
// recorded as zero, not omitted: the coverage invariant requires no holes in
// the stored interval.
type Quote struct {
	Hash string    `gorm:"column:hash"`
	Date time.Time `gorm:"column:date"`
	Open float64   `gorm:"column:open"`
	High float64   `gorm:"column:high"`
	Low  float64   `gorm:"column:low"`
	Val  float64   `gorm:"column:val"`
	Vol  int64     `gorm:"column:vol"`
}

// Component is one index-membership edge. A stock may belong to multiple
// indexes; uniqueness is enforced on the pair.
type Component struct {
	StockHash string `gorm:"column:stock_hash"`
	IndexHash string `gorm:"column:index_hash"`
}

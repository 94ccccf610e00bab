package models

import "time"

// CurrencyDesc is the description row of a currency rate series, keyed by the
// currency code rather than a content hash. Its covered interval follows the
// same coverage/gap rules as asset descriptions.
type CurrencyDesc struct {
	Symbol   string    `gorm:"column:symbol;primaryKey"`
	Name     string    `gorm:"column:name"`
	FromDate time.Time `gorm:"column:from_date"`
	ToDate   time.Time `gorm:"column:to_date"`
}

// Coverage returns the known covered interval of the rate series.
func (d CurrencyDesc) Coverage() DateRange {
	return DateRange{From: Day(d.FromDate), To: Day(d.ToDate)}
}

// CurrencyRate is one daily rate observation, expressed against the rate
// source's base currency.
type CurrencyRate struct {
	Symbol string    `gorm:"column:symbol"`
	Date   time.Time `gorm:"column:date"`
	Val    float64   `gorm:"column:val"`
}

// RateRow is one raw date/val row returned by the currency-rate collaborator.
type RateRow struct {
	Date time.Time
	Val  float64
}

package models

// Geo is one static geography/currency reference row, seeded at store
// creation and read-only afterwards except for the UNKNOWN sentinel.
type Geo struct {
	ISO2     string `gorm:"column:iso2;primaryKey"`
	Country  string `gorm:"column:country"`
	Region   string `gorm:"column:region"`
	Currency string `gorm:"column:currency"`
}

// UnknownGeo is the sentinel row used when country or currency cannot be
// determined for an asset.
func UnknownGeo() Geo {
	return Geo{ISO2: CountryUnknown, Country: CountryUnknown, Region: CountryUnknown, Currency: ""}
}

package database

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"

	"gorm.io/gorm"

	"github.com/zielaskowski/tradeDB/internal/models"
)

// Geography/currency reference data, loaded once at store creation and
// read-only thereafter. Snapshot of the World Bank country list joined with
// ISO 4217 currency codes.
//
//go:embed geo.csv
var geoCSV []byte

// seedGeo populates the GEO table from the embedded reference file and adds
// the UNKNOWN sentinel row used when a country cannot be determined.
func seedGeo(db *gorm.DB) error {
	reader := csv.NewReader(bytes.NewReader(geoCSV))
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("parsing embedded geo reference: %w", err)
	}

	rows := make([]models.Geo, 0, len(records))
	for i, rec := range records {
		if i == 0 { // header
			continue
		}
		rows = append(rows, models.Geo{
			ISO2:     rec[0],
			Country:  rec[1],
			Region:   rec[2],
			Currency: rec[3],
		})
	}
	rows = append(rows, models.UnknownGeo())

	return db.Table("GEO").Create(&rows).Error
}

// seedCurrencies creates one CURRENCY_DESC row per distinct currency in GEO,
// each with the sentinel empty coverage interval.
func seedCurrencies(db *gorm.DB) error {
	var codes []string
	if err := db.Table("GEO").Distinct("currency").
		Where("currency <> ''").Order("currency").Pluck("currency", &codes).Error; err != nil {
		return err
	}

	descs := make([]models.CurrencyDesc, 0, len(codes))
	for _, code := range codes {
		descs = append(descs, models.CurrencyDesc{Symbol: code, Name: code})
	}
	return db.Table("CURRENCY_DESC").Create(&descs).Error
}

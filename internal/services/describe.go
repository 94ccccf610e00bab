package services

import (
	"strings"

	"github.com/zielaskowski/tradeDB/internal/models"
)

// The source encodes an index's country inside its display name, expected as
// "NAME - COUNTRY". A few names need fixing up before the split, and a few
// country spellings disagree with the geography reference.

// countryReplacements maps source spellings to the names used in GEO.
var countryReplacements = [][2]string{
	{"SOUTH KOREA", "KOREA, REP."},
	{"SLOVAKIA", "SLOVAK REPUBLIC"},
	{"SWISS", "SWITZERLAND"},
	{"TURKEY", "TURKIYE"},
	{"U.S.", "UNITED STATES"},
	{"RUSSIA", "RUSSIAN FEDERATION"},
}

// normalizeIndexName appends the country suffix the source leaves out for a
// few well-known index families.
func normalizeIndexName(name string) string {
	switch {
	case strings.HasPrefix(name, "WIG"):
		return name + " - POLAND"
	case strings.HasPrefix(name, "ATX"):
		return "ATX - AUSTRIA"
	}
	return name
}

// splitCountryName extracts the country from an index display name. It
// returns the shortened name and the ISO2 code resolved against the
// geography rows. When no country can be recognized the name is kept whole
// and the country is the UNKNOWN sentinel.
func splitCountryName(name string, geo []models.Geo) (string, string) {
	name = strings.ToUpper(strings.TrimSpace(name))
	parts := strings.SplitN(normalizeIndexName(name), " - ", 2)
	if len(parts) < 2 {
		return name, models.CountryUnknown
	}

	short := strings.TrimSpace(strings.ReplaceAll(parts[0], "INDEX", ""))
	country := strings.TrimSpace(parts[1])
	for _, r := range countryReplacements {
		country = strings.ReplaceAll(country, r[0], r[1])
	}

	for _, g := range geo {
		if strings.HasPrefix(g.Country, country) {
			return short, g.ISO2
		}
	}
	return name, models.CountryUnknown
}

// resolveRowCountry returns the ISO2 code of a fetched row. Rows fetched
// from index or component listings carry the country directly; index rows
// carry it inside the name.
func resolveRowCountry(row models.FetchRow, kind models.Kind, geo []models.Geo) (string, string) {
	name := strings.ToUpper(strings.TrimSpace(row.Name))
	if row.Country != "" {
		code := strings.ToUpper(strings.TrimSpace(row.Country))
		for _, g := range geo {
			if g.ISO2 == code || strings.HasPrefix(g.Country, code) {
				return name, g.ISO2
			}
		}
		return name, models.CountryUnknown
	}
	if kind == models.KindIndex {
		return splitCountryName(row.Name, geo)
	}
	return name, models.CountryUnknown
}

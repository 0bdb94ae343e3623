package entity

import (
	"regexp"
	"strings"

	"github.com/D00Movenok/GeoMap/internal/geo"
)

// BusinessCountry is the country of every business address.
const BusinessCountry = "Brasil"

var (
	// "Av. Paulista, 1000 - São Paulo/SP"
	addressCityRe  = regexp.MustCompile(`\s-\s([^/]+)/`)
	addressStateRe = regexp.MustCompile(`/\s*([A-Z]{2})\b`)
)

// ParseBusinessAddress extracts the place of a street address formatted as
// "street, number - City/UF". Missing parts are N/A.
func ParseBusinessAddress(address string) geo.Place {
	p := geo.Place{City: geo.NA, State: geo.NA, Country: BusinessCountry}
	if m := addressCityRe.FindStringSubmatch(address); m != nil {
		p.City = strings.TrimSpace(m[1])
	}
	if m := addressStateRe.FindStringSubmatch(address); m != nil {
		p.State = strings.TrimSpace(m[1])
	}
	return p
}

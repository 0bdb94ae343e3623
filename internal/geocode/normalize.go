package geocode

import (
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/pkg/nominatim"
)

// Normalize maps a provider address to a Place. The order of the fallbacks
// is significant: city, town, village for the city and state, region for
// the state.
func Normalize(a nominatim.Address) geo.Place {
	return geo.Place{
		City:    firstPresent(a.City, a.Town, a.Village),
		State:   firstPresent(a.State, a.Region),
		Country: firstPresent(a.Country),
	}
}

func firstPresent(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return geo.NA
}

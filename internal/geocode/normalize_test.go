package geocode_test

import (
	"testing"

	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/geocode"
	"github.com/D00Movenok/GeoMap/pkg/nominatim"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		addr nominatim.Address
		want geo.Place
	}{
		{
			"all fields",
			nominatim.Address{City: "São Paulo", State: "São Paulo", Country: "Brasil"},
			geo.Place{City: "São Paulo", State: "São Paulo", Country: "Brasil"},
		},
		{
			"town before village",
			nominatim.Address{Town: "X", Village: "Y", State: "S", Country: "C"},
			geo.Place{City: "X", State: "S", Country: "C"},
		},
		{
			"city before town",
			nominatim.Address{City: "W", Town: "X", Village: "Y", State: "S", Country: "C"},
			geo.Place{City: "W", State: "S", Country: "C"},
		},
		{
			"village only",
			nominatim.Address{Village: "Y", Region: "R", Country: "C"},
			geo.Place{City: "Y", State: "R", Country: "C"},
		},
		{
			"state before region",
			nominatim.Address{State: "S", Region: "R"},
			geo.Place{City: geo.NA, State: "S", Country: geo.NA},
		},
		{
			"empty address",
			nominatim.Address{},
			geo.NotAvailable(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, geocode.Normalize(tt.addr))
		})
	}
}

package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// NA is stored in place of any missing place field.
	NA = "N/A"

	ReversePrefix string = "geo_"
	PostalPrefix  string = "postal_"

	// Precision of the key quantization, ~11m.
	Precision = 4
)

type Coordinate struct {
	Lat float64 `json:"lat" mapstructure:"lat"`
	Lng float64 `json:"lng" mapstructure:"lng"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		!math.IsInf(c.Lat, 0) && !math.IsInf(c.Lng, 0)
}

// Key returns the quantized identity of the coordinate shared by all
// points that round to the same 4-decimal pair.
func (c Coordinate) Key() string {
	return formatFixed(c.Lat) + "_" + formatFixed(c.Lng)
}

// Quantize rounds both components to the key precision.
func (c Coordinate) Quantize() Coordinate {
	lat, _ := strconv.ParseFloat(formatFixed(c.Lat), 64)
	lng, _ := strconv.ParseFloat(formatFixed(c.Lng), 64)
	return Coordinate{Lat: lat, Lng: lng}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%s, %s)", formatFixed(c.Lat), formatFixed(c.Lng))
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision, 64)
}

// ReverseKey is the cache key of a reverse lookup.
func ReverseKey(c Coordinate) string {
	return ReversePrefix + c.Key()
}

// PostalKey is the cache key of a postal code lookup.
func PostalKey(code string) string {
	return PostalPrefix + NormalizePostalCode(code)
}

func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// Value is anything the geocode cache can hold.
type Value interface {
	// Complete reports whether the value passes the structural check
	// applied when the durable store is loaded.
	Complete() bool
}

// Place is the normalized provider answer without coordinates.
type Place struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// NotAvailable is the sentinel place returned on any provider failure.
func NotAvailable() Place {
	return Place{City: NA, State: NA, Country: NA}
}

func (p Place) Complete() bool {
	return p.City != "" && p.State != "" && p.Country != ""
}

// Known reports whether country and state carry real values.
func (p Place) Known() bool {
	return p.Country != "" && p.Country != NA && p.State != "" && p.State != NA
}

// Location is a Place anchored to the coordinate it was requested for.
type Location struct {
	Coords Coordinate `json:"coords"`
	Place
}

func (l Location) String() string {
	return fmt.Sprintf("%s, %s, %s %s", l.City, l.State, l.Country, l.Coords)
}

type PostalResult struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	DisplayAddress string  `json:"display_address"`
}

func (r PostalResult) Complete() bool {
	return r.DisplayAddress != "" && r.Coordinate().Valid()
}

func (r PostalResult) Coordinate() Coordinate {
	return Coordinate{Lat: r.Lat, Lng: r.Lng}
}

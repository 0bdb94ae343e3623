package location_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/D00Movenok/GeoMap/internal/entity"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/location"
	"github.com/stretchr/testify/require"
)

// stubResolver answers from a fixed table and records batch behaviour.
type stubResolver struct {
	places map[string]geo.Place
	delay  time.Duration

	mu        sync.Mutex
	calls     []geo.Coordinate
	inflight  int
	maxFlight int
	completed int
	// completed lookups observed when each lookup started
	startedAt []int
}

func (s *stubResolver) ReverseGeocode(_ context.Context, c geo.Coordinate) geo.Location {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.startedAt = append(s.startedAt, s.completed)
	s.inflight++
	if s.inflight > s.maxFlight {
		s.maxFlight = s.inflight
	}
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.inflight--
	s.completed++
	s.mu.Unlock()

	p, ok := s.places[c.Key()]
	if !ok {
		p = geo.NotAvailable()
	}
	return geo.Location{Coords: c, Place: p}
}

func coord(lat, lng float64) *geo.Coordinate {
	return &geo.Coordinate{Lat: lat, Lng: lng}
}

func TestIndex_Build(t *testing.T) {
	r := &stubResolver{
		places: map[string]geo.Place{
			coord(-23.5505, -46.6333).Key(): {City: "São Paulo", State: "São Paulo", Country: "Brasil"},
			coord(-22.9068, -43.1729).Key(): {City: "Rio de Janeiro", State: "Rio de Janeiro", Country: "Brasil"},
			coord(-23.9608, -46.3336).Key(): {City: "Santos", State: "São Paulo", Country: "Brasil"},
			coord(38.7223, -9.1393).Key():   {City: "Lisboa", State: "Lisboa", Country: "Portugal"},
			coord(41.1579, -8.6291).Key():   {City: geo.NA, State: "Porto", Country: "Portugal"},
			coord(-9.6529, -35.7263).Key():  {City: "Maceió", State: geo.NA, Country: "Brasil"},
		},
		delay: 10 * time.Millisecond,
	}
	entities := []entity.Entity{
		{ID: 1, Location: coord(-23.5505, -46.6333)},
		{ID: 2, Location: coord(-23.55051, -46.63331)}, // same quantized key as 1
		{ID: 3, Location: coord(-22.9068, -43.1729)},
		{ID: 4, Location: coord(-23.9608, -46.3336)},
		{ID: 5, Location: coord(38.7223, -9.1393)},
		{ID: 6, Location: coord(41.1579, -8.6291)},
		{ID: 7, Location: coord(-9.6529, -35.7263)},
		{ID: 8, Location: coord(0, 0)},
		{ID: 9},
		{ID: 10, Location: coord(math.NaN(), 1)},
	}

	idx := location.New(r, 3)
	idx.Build(context.Background(), entities)

	require.Len(t, r.calls, 7, "one lookup per distinct quantized coordinate")
	require.LessOrEqual(t, r.maxFlight, 3)
	for n, done := range r.startedAt {
		require.GreaterOrEqualf(t, done, (n/3)*3, "lookup %d started before its previous batch finished", n)
	}

	require.Equal(t, []string{"Brasil", "Portugal"}, idx.Countries())
	require.Equal(t, []string{"Rio de Janeiro", "São Paulo"}, idx.States("Brasil"))
	require.Equal(t, []string{"Santos", "São Paulo"}, idx.Cities("Brasil", "São Paulo"))
	require.Equal(t, []string{}, idx.Cities("Portugal", "Porto"))
	require.Equal(t, []string{}, idx.States("Chile"))

	l, ok := idx.GetLocation(geo.Coordinate{Lat: -23.55051, Lng: -46.63331})
	require.True(t, ok)
	require.Equal(t, "São Paulo", l.City)

	_, ok = idx.GetLocation(geo.Coordinate{Lat: -9.6529, Lng: -35.7263})
	require.False(t, ok, "unknown state must not be indexed")
	_, ok = idx.GetLocation(geo.Coordinate{})
	require.False(t, ok, "N/A answers must not be indexed")
}

func TestIndex_BuildResets(t *testing.T) {
	r := &stubResolver{
		places: map[string]geo.Place{
			coord(1, 1).Key(): {City: "A", State: "B", Country: "C"},
			coord(2, 2).Key(): {City: "D", State: "E", Country: "F"},
		},
	}
	idx := location.New(r, 0)

	idx.Build(context.Background(), []entity.Entity{{Location: coord(1, 1)}})
	idx.Build(context.Background(), []entity.Entity{{Location: coord(2, 2)}})

	require.Equal(t, []string{"F"}, idx.Countries())
	require.Equal(t, 1, idx.Len())
}

func TestIndex_AddLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  geo.Location
		want bool
	}{
		{
			"valid",
			geo.Location{Coords: geo.Coordinate{Lat: 1, Lng: 2}, Place: geo.Place{City: "A", State: "B", Country: "C"}},
			true,
		},
		{
			"missing city is fine",
			geo.Location{Coords: geo.Coordinate{Lat: 1, Lng: 2}, Place: geo.Place{City: geo.NA, State: "B", Country: "C"}},
			true,
		},
		{
			"nan coordinate",
			geo.Location{Coords: geo.Coordinate{Lat: math.NaN(), Lng: 2}, Place: geo.Place{City: "A", State: "B", Country: "C"}},
			false,
		},
		{
			"infinite coordinate",
			geo.Location{Coords: geo.Coordinate{Lat: 1, Lng: math.Inf(1)}, Place: geo.Place{City: "A", State: "B", Country: "C"}},
			false,
		},
		{
			"unknown country",
			geo.Location{Coords: geo.Coordinate{Lat: 1, Lng: 2}, Place: geo.Place{City: "A", State: "B", Country: geo.NA}},
			false,
		},
		{
			"empty state",
			geo.Location{Coords: geo.Coordinate{Lat: 1, Lng: 2}, Place: geo.Place{City: "A", Country: "C"}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := location.New(&stubResolver{}, 0)
			require.NotPanics(t, func() {
				require.Equal(t, tt.want, idx.AddLocation(tt.loc))
			})
		})
	}
}

func TestIndex_AddBusinessLocation(t *testing.T) {
	idx := location.New(&stubResolver{}, 0)

	ok := idx.AddBusinessLocation(entity.Entity{
		Type:     entity.TypeBusiness,
		Address:  "Av. Paulista, 1000 - São Paulo/SP",
		Location: coord(-23.5614, -46.6559),
	})
	require.True(t, ok)
	require.Equal(t, []string{"SP"}, idx.States("Brasil"))

	require.False(t, idx.AddBusinessLocation(entity.Entity{Address: "Av. Paulista, 1000"}))
	require.False(t, idx.AddBusinessLocation(entity.Entity{
		Address:  "Av. Paulista, 1000",
		Location: coord(1, 1),
	}))
}

func TestSelection(t *testing.T) {
	idx := location.New(&stubResolver{}, 0)
	idx.AddLocation(geo.Location{Coords: geo.Coordinate{Lat: 1, Lng: 1}, Place: geo.Place{City: "Santos", State: "São Paulo", Country: "Brasil"}})
	idx.AddLocation(geo.Location{Coords: geo.Coordinate{Lat: 2, Lng: 2}, Place: geo.Place{City: "Campinas", State: "São Paulo", Country: "Brasil"}})
	idx.AddLocation(geo.Location{Coords: geo.Coordinate{Lat: 3, Lng: 3}, Place: geo.Place{City: "Niterói", State: "Rio de Janeiro", Country: "Brasil"}})

	var s location.Selection
	o := s.Options(idx)
	require.Equal(t, []string{"Brasil"}, o.Countries)
	require.False(t, o.StatesEnabled)
	require.Empty(t, o.States)
	require.False(t, o.CitiesEnabled)

	s.SelectCountry("Brasil")
	s.SelectState("São Paulo")
	s.SelectCity("Santos")
	o = s.Options(idx)
	require.True(t, o.StatesEnabled)
	require.Equal(t, []string{"Rio de Janeiro", "São Paulo"}, o.States)
	require.True(t, o.CitiesEnabled)
	require.Equal(t, []string{"Campinas", "Santos"}, o.Cities)
	require.Equal(t, location.Selection{Country: "Brasil", State: "São Paulo", City: "Santos"}, s)

	s.SelectCountry("")
	require.Equal(t, location.Selection{}, s)
	o = s.Options(idx)
	require.False(t, o.StatesEnabled)
	require.False(t, o.CitiesEnabled)

	s.SelectState("São Paulo")
	require.Empty(t, s.State, "state can't be chosen without a country")
}

package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/D00Movenok/GeoMap/internal/app"
	"github.com/D00Movenok/GeoMap/internal/common"
	"github.com/D00Movenok/GeoMap/internal/database"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/pkg/nominatim"
	"github.com/stretchr/testify/require"
)

// fakeClient answers from fixed tables and counts calls.
type fakeClient struct {
	reverse map[string]nominatim.Address
	search  map[string][]nominatim.SearchResult
	calls   int
}

func (f *fakeClient) Reverse(_ context.Context, lat float64, lng float64) (*nominatim.ReverseResult, error) {
	f.calls++
	a, ok := f.reverse[geo.Coordinate{Lat: lat, Lng: lng}.Key()]
	if !ok {
		return nil, nominatim.ErrUnableToGeocode
	}
	return &nominatim.ReverseResult{Address: a}, nil
}

func (f *fakeClient) Search(_ context.Context, code string) ([]nominatim.SearchResult, error) {
	f.calls++
	return f.search[code], nil
}

func testConfig() *common.Config {
	return &common.Config{
		Geocoder: common.GeocoderConfig{Interval: time.Millisecond},
		Entities: common.EntitiesConfig{
			Users: []map[string]any{
				{"id": 1, "name": "Paulo Alves", "location": map[string]any{"lat": -23.5505, "lng": -46.6333}},
				{"id": 2, "name": "Teste Silva", "location": map[string]any{"lat": -9.6529, "lng": -35.7263}},
			},
			Businesses: []map[string]any{
				{"id": 1001, "name": "Loja Central", "postal_code": "01311-000", "address": "Av. Paulista, 1000 - São Paulo/SP"},
				{"id": 1002, "name": "Loja Perdida", "postal_code": "99999-999"},
				{"id": 1003, "name": "Loja Fora", "postal_code": "57035-690", "address": "Av. Fernandes Lima, 10 - Maceió/AL"},
			},
		},
	}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		reverse: map[string]nominatim.Address{
			"-23.5505_-46.6333": {City: "São Paulo", State: "São Paulo", Country: "Brasil"},
			"-9.6529_-35.7263":  {Town: "Maceió", State: "Alagoas", Country: "Brasil"},
			"-23.5614_-46.6559": {City: "São Paulo", State: "São Paulo", Country: "Brasil"},
		},
		search: map[string][]nominatim.SearchResult{
			"01311-000": {{Lat: "-23.5614", Lon: "-46.6559", DisplayName: "Avenida Paulista"}},
			"57035-690": {{Lat: "-9.6400", Lon: "-35.7100", DisplayName: "Maceió"}},
		},
	}
}

func TestApp_Load(t *testing.T) {
	db, err := database.New("", true)
	require.NoError(t, err)
	defer db.Close()

	client := newFakeClient()
	a, err := app.NewWithClient(db, client, testConfig())
	require.NoError(t, err)

	a.Load(context.Background())

	require.Equal(t, []string{"Brasil"}, a.Index.Countries())
	require.Equal(t, []string{"AL", "Alagoas", "São Paulo"}, a.Index.States("Brasil"))

	businesses := a.Businesses()
	require.NotNil(t, businesses[0].Location)
	require.Nil(t, businesses[1].Location)

	// reverse lookup failed for the third business, its address is used
	l, ok := a.Index.GetLocation(*businesses[2].Location)
	require.True(t, ok)
	require.Equal(t, geo.Place{City: "Maceió", State: "AL", Country: "Brasil"}, l.Place)

	// 3 postal lookups and 4 reverse lookups
	require.Equal(t, 7, client.calls)

	// a second session is served by the persisted cache
	client2 := newFakeClient()
	a2, err := app.NewWithClient(db, client2, testConfig())
	require.NoError(t, err)
	a2.Load(context.Background())
	require.Equal(t, a.Index.Countries(), a2.Index.Countries())
	require.Equal(t, 2, client2.calls, "only failed lookups are repeated")
}

func TestApp_InvalidEntities(t *testing.T) {
	db, err := database.New("", true)
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	cfg.Entities.Users = append(cfg.Entities.Users, map[string]any{"id": 3, "name": "No location"})
	_, err = app.NewWithClient(db, newFakeClient(), cfg)
	require.Error(t, err)
}

// blockingClient holds every postal lookup until released.
type blockingClient struct {
	*fakeClient
	entered chan struct{}
	release chan struct{}
}

func (b *blockingClient) Search(ctx context.Context, code string) ([]nominatim.SearchResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.fakeClient.Search(ctx, code)
}

func TestApp_EntitiesDuringPostalLookup(t *testing.T) {
	db, err := database.New("", true)
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	cfg.Entities.Businesses = cfg.Entities.Businesses[:1]
	client := &blockingClient{
		fakeClient: newFakeClient(),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	a, err := app.NewWithClient(db, client, cfg)
	require.NoError(t, err)

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		a.Load(context.Background())
	}()

	select {
	case <-client.entered:
	case <-time.After(time.Second):
		t.Fatal("postal lookup was not issued")
	}

	got := make(chan int, 1)
	go func() { got <- len(a.Entities()) }()
	select {
	case n := <-got:
		require.Equal(t, 3, n)
	case <-time.After(time.Second):
		t.Fatal("Entities blocked by a pending postal lookup")
	}

	close(client.release)
	select {
	case <-loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not finish")
	}
	require.NotNil(t, a.Businesses()[0].Location)
}

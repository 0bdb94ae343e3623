package location

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/D00Movenok/GeoMap/internal/entity"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/metrics"
)

// DefaultConcurrency is the number of lookups resolved per batch.
const DefaultConcurrency = 3

type Resolver interface {
	ReverseGeocode(ctx context.Context, c geo.Coordinate) geo.Location
}

type set map[string]struct{}

func (s set) add(v string) {
	s[v] = struct{}{}
}

func (s set) sorted() []string {
	res := maps.Keys(s)
	slices.Sort(res)
	return res
}

type stateKey struct {
	country string
	state   string
}

// Index holds the places of the dataset coordinates and the
// country -> state -> city tree used to populate filters.
type Index struct {
	resolver    Resolver
	concurrency int
	logger      zerolog.Logger

	mu        sync.RWMutex
	locations map[string]geo.Location
	countries set
	states    map[string]set
	cities    map[stateKey]set
}

func New(r Resolver, concurrency int) *Index {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	i := &Index{
		resolver:    r,
		concurrency: concurrency,
		logger:      log.With().Str("component", "location").Logger(),
	}
	i.reset()
	return i
}

func (i *Index) reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.locations = make(map[string]geo.Location)
	i.countries = make(set)
	i.states = make(map[string]set)
	i.cities = make(map[stateKey]set)
}

// Build rebuilds the index from scratch. Distinct coordinates of the
// entities are resolved in batches; each batch finishes before the next
// one starts.
func (i *Index) Build(ctx context.Context, entities []entity.Entity) {
	i.reset()

	seen := make(set)
	coords := make([]geo.Coordinate, 0, len(entities))
	for _, e := range entities {
		c, ok := e.Coordinate()
		if !ok {
			continue
		}
		k := c.Key()
		if _, ok = seen[k]; ok {
			continue
		}
		seen.add(k)
		coords = append(coords, c)
	}

	i.logger.Info().
		Int("coordinates", len(coords)).
		Int("concurrency", i.concurrency).
		Msg("Building location index")

	for start := 0; start < len(coords); start += i.concurrency {
		end := start + i.concurrency
		if end > len(coords) {
			end = len(coords)
		}
		for _, l := range i.resolveBatch(ctx, coords[start:end]) {
			i.AddLocation(l)
		}
	}

	i.logger.Info().Int("locations", i.Len()).Msg("Location index built")
}

func (i *Index) resolveBatch(
	ctx context.Context,
	batch []geo.Coordinate,
) []geo.Location {
	res := make([]geo.Location, len(batch))
	wg := sync.WaitGroup{}
	wg.Add(len(batch))
	for n, c := range batch {
		go func(n int, c geo.Coordinate) {
			defer wg.Done()
			res[n] = i.resolver.ReverseGeocode(ctx, c)
		}(n, c)
	}
	wg.Wait()
	return res
}

// AddLocation indexes l. Locations without valid coordinates or without a
// known country and state are logged and discarded.
func (i *Index) AddLocation(l geo.Location) bool {
	if !l.Coords.Valid() {
		i.reject(l, "invalid coordinates")
		return false
	}
	if !l.Known() {
		i.reject(l, "unknown country or state")
		return false
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.locations[l.Coords.Key()] = l
	i.countries.add(l.Country)
	if _, ok := i.states[l.Country]; !ok {
		i.states[l.Country] = make(set)
	}
	i.states[l.Country].add(l.State)
	if l.City != "" && l.City != geo.NA {
		sk := stateKey{country: l.Country, state: l.State}
		if _, ok := i.cities[sk]; !ok {
			i.cities[sk] = make(set)
		}
		i.cities[sk].add(l.City)
	}
	return true
}

// AddBusinessLocation indexes a geocoded business using the place written
// in its street address.
func (i *Index) AddBusinessLocation(e entity.Entity) bool {
	c, ok := e.Coordinate()
	if !ok {
		return false
	}
	return i.AddLocation(geo.Location{
		Coords: c,
		Place:  entity.ParseBusinessAddress(e.Address),
	})
}

func (i *Index) reject(l geo.Location, reason string) {
	metrics.IndexRejectsTotal.Inc()
	i.logger.Error().
		Str("reason", reason).
		Any("location", l).
		Msg("Invalid location, skipping...")
}

// GetLocation returns the indexed place of the quantized c.
func (i *Index) GetLocation(c geo.Coordinate) (geo.Location, bool) {
	if !c.Valid() {
		return geo.Location{}, false
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	l, ok := i.locations[c.Key()]
	return l, ok
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.locations)
}

func (i *Index) Countries() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.countries.sorted()
}

func (i *Index) States(country string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.states[country]
	if !ok {
		return []string{}
	}
	return s.sorted()
}

func (i *Index) Cities(country string, state string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.cities[stateKey{country: country, state: state}]
	if !ok {
		return []string{}
	}
	return s.sorted()
}

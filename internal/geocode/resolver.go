package geocode

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/D00Movenok/GeoMap/internal/cache"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/metrics"
	"github.com/D00Movenok/GeoMap/internal/queue"
	"github.com/D00Movenok/GeoMap/pkg/nominatim"
)

var (
	ErrEmptyAnswer = errors.New("empty provider answer")
)

const (
	kindReverse = "reverse"
	kindPostal  = "postal"
)

// fetchFunc performs one provider call. store tells whether the value may
// be cached; v may be nil when there is nothing to return.
type fetchFunc func(ctx context.Context) (v geo.Value, store bool)

// Resolver turns coordinates and postal codes into places. Lookups are
// served from the cache when possible, otherwise they are sent through the
// rate-limited queue. Concurrent misses on one key share a single request.
type Resolver struct {
	client nominatim.Client
	cache  *cache.Cache
	queue  *queue.Queue
	calls  *atomic.Int64
	logger zerolog.Logger

	mu       sync.Mutex
	inflight map[string][]chan geo.Value
}

func NewResolver(
	client nominatim.Client,
	c *cache.Cache,
	q *queue.Queue,
) *Resolver {
	return &Resolver{
		client:   client,
		cache:    c,
		queue:    q,
		calls:    atomic.NewInt64(0),
		logger:   log.With().Str("component", "geocode").Logger(),
		inflight: make(map[string][]chan geo.Value),
	}
}

// NetworkCalls returns how many provider requests were issued.
func (r *Resolver) NetworkCalls() int64 {
	return r.calls.Load()
}

// ReverseGeocode resolves the place of c. It always returns a complete
// Location anchored to the original, unquantized c; provider failures and
// an expired ctx yield the N/A sentinel.
func (r *Resolver) ReverseGeocode(
	ctx context.Context,
	c geo.Coordinate,
) geo.Location {
	key := geo.ReverseKey(c)
	v, _ := r.lookup(ctx, key, kindReverse, func(ctx context.Context) (geo.Value, bool) {
		return r.fetchReverse(ctx, c)
	})
	p, ok := v.(geo.Place)
	if !ok {
		p = geo.NotAvailable()
	}
	return geo.Location{Coords: c, Place: p}
}

// GeocodePostalCode resolves a postal code to a coordinate and address.
// The second result is false when the code is unknown or the lookup failed.
func (r *Resolver) GeocodePostalCode(
	ctx context.Context,
	postalCode string,
) (geo.PostalResult, bool) {
	code := geo.NormalizePostalCode(postalCode)
	if code == "" {
		return geo.PostalResult{}, false
	}
	v, ok := r.lookup(ctx, geo.PostalKey(code), kindPostal, func(ctx context.Context) (geo.Value, bool) {
		return r.fetchPostal(ctx, code)
	})
	if !ok {
		return geo.PostalResult{}, false
	}
	res, ok := v.(geo.PostalResult)
	return res, ok
}

func (r *Resolver) lookup(
	ctx context.Context,
	key string,
	kind string,
	fetch fetchFunc,
) (geo.Value, bool) {
	logger := r.logger.With().Str("key", key).Logger()

	if v, ok := r.cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues(kind).Inc()
		logger.Debug().Msg("Cache hit")
		return v, true
	}
	metrics.CacheMissesTotal.WithLabelValues(kind).Inc()
	logger.Debug().Msg("Cache miss")

	ch := make(chan geo.Value, 1)

	r.mu.Lock()
	waiters, pending := r.inflight[key]
	r.inflight[key] = append(waiters, ch)
	r.mu.Unlock()

	if !pending {
		r.queue.Enqueue(func(ctx context.Context) {
			// waiters are released even if fetch panics
			var v geo.Value
			defer func() { r.deliver(key, v) }()

			res, store := fetch(ctx)
			// cache first so nobody observes a resolved lookup missing
			// from the cache
			if store && res != nil {
				r.cache.Set(key, res)
			}
			v = res
		})
	}

	select {
	case v := <-ch:
		return v, v != nil
	case <-ctx.Done():
		logger.Warn().Err(ctx.Err()).Msg("Lookup abandoned by caller")
		return nil, false
	}
}

func (r *Resolver) deliver(key string, v geo.Value) {
	r.mu.Lock()
	waiters := r.inflight[key]
	delete(r.inflight, key)
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- v
	}
}

func (r *Resolver) fetchReverse(
	ctx context.Context,
	c geo.Coordinate,
) (geo.Value, bool) {
	r.calls.Inc()
	metrics.ProviderRequestsTotal.WithLabelValues(kindReverse).Inc()

	res, err := r.client.Reverse(ctx, c.Lat, c.Lng)
	if err == nil && res == nil {
		err = ErrEmptyAnswer
	}
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(kindReverse).Inc()
		r.logger.Error().
			Err(err).
			Stringer("coords", c).
			Msg("Reverse geocode failed")
		return geo.NotAvailable(), false
	}

	p := Normalize(res.Address)
	r.logger.Debug().Any("place", p).Stringer("coords", c).Msg("New reverse lookup")
	return p, true
}

func (r *Resolver) fetchPostal(
	ctx context.Context,
	code string,
) (geo.Value, bool) {
	r.calls.Inc()
	metrics.ProviderRequestsTotal.WithLabelValues(kindPostal).Inc()

	logger := r.logger.With().Str("postal_code", code).Logger()

	res, err := r.client.Search(ctx, code)
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(kindPostal).Inc()
		logger.Error().Err(err).Msg("Postal code lookup failed")
		return nil, false
	}
	if len(res) == 0 {
		logger.Warn().Msg("Postal code not found")
		return nil, false
	}

	lat, lng, err := res[0].Coordinates()
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(kindPostal).Inc()
		logger.Error().Err(err).Msg("Malformed postal code answer")
		return nil, false
	}

	pr := geo.PostalResult{Lat: lat, Lng: lng, DisplayAddress: res[0].DisplayName}
	if !pr.Complete() {
		logger.Warn().Any("result", pr).Msg("Incomplete postal code answer")
		return nil, false
	}
	logger.Debug().Any("result", pr).Msg("New postal lookup")
	return pr, true
}

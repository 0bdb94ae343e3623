package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/D00Movenok/GeoMap/internal/cache"
	"github.com/D00Movenok/GeoMap/internal/common"
	"github.com/D00Movenok/GeoMap/internal/database"
	"github.com/D00Movenok/GeoMap/internal/entity"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/geocode"
	"github.com/D00Movenok/GeoMap/internal/location"
	"github.com/D00Movenok/GeoMap/internal/queue"
	"github.com/D00Movenok/GeoMap/pkg/nominatim"
)

// App is the session context shared by every component. It is created
// once at startup and lives until the process exits.
type App struct {
	DB       *database.DB
	Cache    *cache.Cache
	Queue    *queue.Queue
	Resolver *geocode.Resolver
	Index    *location.Index

	mu         sync.RWMutex
	users      []entity.Entity
	businesses []entity.Entity
}

// New opens the storage described by cfg and wires the components around
// a Nominatim client.
func New(cfg *common.Config) (*App, error) {
	db, err := database.New(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, fmt.Errorf("can't create key/value storage: %w", err)
	}
	client := nominatim.NewClientWithConfig(nominatim.Config{
		URL:       cfg.Geocoder.URL,
		UserAgent: cfg.Geocoder.UserAgent,
		Language:  cfg.Geocoder.Language,
		Country:   cfg.Geocoder.Country,
		Timeout:   cfg.Geocoder.Timeout,
	})
	a, err := NewWithClient(db, client, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// NewWithClient wires the components on an open storage. The persisted
// cache is loaded before returning.
func NewWithClient(
	db *database.DB,
	client nominatim.Client,
	cfg *common.Config,
) (*App, error) {
	users, err := entity.Decode(cfg.Entities.Users, entity.TypeUser)
	if err != nil {
		return nil, fmt.Errorf("can't load users: %w", err)
	}
	businesses, err := entity.Decode(cfg.Entities.Businesses, entity.TypeBusiness)
	if err != nil {
		return nil, fmt.Errorf("can't load businesses: %w", err)
	}

	c := cache.New(db, cache.Options{
		Namespace:        cfg.Cache.Namespace,
		LegacyNamespaces: cfg.Cache.LegacyNamespaces,
		MaxSize:          cfg.Cache.MaxSize,
		TTL:              cfg.Cache.TTL,
	})
	c.Load()

	q := queue.New(queue.Options{
		Interval: cfg.Geocoder.Interval,
		Timeout:  cfg.Geocoder.Timeout,
	})
	r := geocode.NewResolver(client, c, q)

	return &App{
		DB:         db,
		Cache:      c,
		Queue:      q,
		Resolver:   r,
		Index:      location.New(r, cfg.Index.Concurrency),
		users:      users,
		businesses: businesses,
	}, nil
}

// Load geocodes business postal codes and builds the location index from
// every entity. Businesses the reverse lookup could not place fall back to
// the place written in their address.
func (a *App) Load(ctx context.Context) {
	placed := make(map[int]geo.PostalResult)
	for n, b := range a.Businesses() {
		if b.Location != nil || b.PostalCode == "" {
			continue
		}
		res, ok := a.Resolver.GeocodePostalCode(ctx, b.PostalCode)
		if !ok {
			log.Warn().Stringer("entity", b).Str("postal_code", b.PostalCode).Msg("Can't place business")
			continue
		}
		placed[n] = res
	}

	a.mu.Lock()
	for n, res := range placed {
		c := res.Coordinate()
		a.businesses[n].Location = &c
		if a.businesses[n].Address == "" {
			a.businesses[n].Address = res.DisplayAddress
		}
	}
	a.mu.Unlock()

	all := a.Entities()
	a.Index.Build(ctx, all)

	for _, b := range a.Businesses() {
		c, ok := b.Coordinate()
		if !ok {
			continue
		}
		if _, ok = a.Index.GetLocation(c); ok {
			continue
		}
		a.Index.AddBusinessLocation(b)
	}

	log.Info().
		Int("entities", len(all)).
		Int("locations", a.Index.Len()).
		Str("countries", common.FormatStringSlice(a.Index.Countries())).
		Msg("Entities loaded")
}

// Entities returns users followed by businesses.
func (a *App) Entities() []entity.Entity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	res := make([]entity.Entity, 0, len(a.users)+len(a.businesses))
	res = append(res, a.users...)
	res = append(res, a.businesses...)
	return res
}

func (a *App) Businesses() []entity.Entity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]entity.Entity(nil), a.businesses...)
}

func (a *App) Close() error {
	return a.DB.Close()
}

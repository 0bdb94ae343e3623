package cache

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/D00Movenok/GeoMap/internal/database"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/metrics"
)

const (
	DefaultNamespace = "geocode_cache_v3"
	DefaultMaxSize   = 1000
	DefaultTTL       = 24 * time.Hour
)

// DefaultLegacyNamespaces are namespaces of older snapshot schemas.
var DefaultLegacyNamespaces = []string{"geocode_cache_v2", "geocode_cache_v1"}

type Options struct {
	Namespace        string
	LegacyNamespaces []string
	MaxSize          int
	TTL              time.Duration
	Now              func() time.Time
}

func (o *Options) setDefaults() {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.LegacyNamespaces == nil {
		o.LegacyNamespaces = DefaultLegacyNamespaces
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type entry struct {
	value    geo.Value
	storedAt int64
}

// Cache is a bounded, expiring geocode store mirrored into the durable
// storage on every write. When full it evicts in insertion order.
type Cache struct {
	db     *database.DB
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]entry
	order   []string
}

func New(db *database.DB, opts Options) *Cache {
	opts.setDefaults()
	return &Cache{
		db:   db,
		opts: opts,
		logger: log.With().
			Str("namespace", opts.Namespace).
			Logger(),
		entries: make(map[string]entry),
	}
}

// Load replaces the in-memory state with the valid entries of the durable
// snapshot. It never fails: an unreadable snapshot is dropped and the cache
// starts empty.
func (c *Cache) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.order = nil

	for _, ns := range c.opts.LegacyNamespaces {
		if err := c.db.DeleteSnapshot(ns); err != nil {
			c.logger.Error().Err(err).Str("legacy", ns).Msg("Can't clear legacy cache")
		}
	}

	s, err := c.db.GetSnapshot(c.opts.Namespace)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.logger.Debug().Msg("No persisted cache")
		return
	case err != nil:
		c.logger.Error().Err(err).Msg("Can't load cache, discarding it")
		if err = c.db.DeleteSnapshot(c.opts.Namespace); err != nil {
			c.logger.Error().Err(err).Msg("Can't clear corrupted cache")
		}
		return
	}

	now := c.opts.Now().UnixMilli()
	for _, r := range s.Records {
		if c.expired(r.StoredAt, now) {
			continue
		}
		v, err := decodeValue(r)
		if err != nil {
			c.logger.Debug().Err(err).Str("key", r.Key).Msg("Skipping cache record")
			continue
		}
		if _, ok := c.entries[r.Key]; ok {
			continue
		}
		c.entries[r.Key] = entry{value: v, storedAt: r.StoredAt}
		c.order = append(c.order, r.Key)
	}
	for len(c.order) > c.opts.MaxSize {
		c.evictOldest()
	}

	c.logger.Info().Int("entries", len(c.order)).Msg("Cache loaded")
}

// Get returns the value stored under key unless it has expired.
func (c *Cache) Get(key string) (geo.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(e.storedAt, c.opts.Now().UnixMilli()) {
		c.remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key and persists the whole cache. An existing key
// keeps its insertion position.
func (c *Cache) Set(key string, value geo.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.opts.MaxSize {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry{value: value, storedAt: c.opts.Now().UnixMilli()}

	if err := c.persist(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Can't persist cache")
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Keys returns the cached keys oldest first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

func (c *Cache) expired(storedAt int64, now int64) bool {
	return now-storedAt >= c.opts.TTL.Milliseconds()
}

func (c *Cache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	key := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, key)
	metrics.CacheEvictionsTotal.Inc()
	c.logger.Debug().Str("key", key).Msg("Evicted cache entry")
}

func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cache) persist() error {
	s := &database.Snapshot{
		Records: make([]database.CacheRecord, 0, len(c.order)),
	}
	for _, k := range c.order {
		e := c.entries[k]
		s.Records = append(s.Records, encodeValue(k, e))
	}
	if err := c.db.SaveSnapshot(c.opts.Namespace, s); err != nil {
		return fmt.Errorf("can't save snapshot: %w", err)
	}
	return nil
}

func encodeValue(key string, e entry) database.CacheRecord {
	r := database.CacheRecord{Key: key, StoredAt: e.storedAt}
	switch v := e.value.(type) {
	case geo.Place:
		r.City, r.State, r.Country = v.City, v.State, v.Country
	case geo.PostalResult:
		r.Lat, r.Lng, r.DisplayAddress = v.Lat, v.Lng, v.DisplayAddress
	}
	return r
}

func decodeValue(r database.CacheRecord) (geo.Value, error) {
	var v geo.Value
	switch {
	case strings.HasPrefix(r.Key, geo.ReversePrefix):
		v = geo.Place{City: r.City, State: r.State, Country: r.Country}
	case strings.HasPrefix(r.Key, geo.PostalPrefix):
		v = geo.PostalResult{Lat: r.Lat, Lng: r.Lng, DisplayAddress: r.DisplayAddress}
	default:
		return nil, ErrUnknownKind
	}
	if !v.Complete() {
		return nil, ErrIncompleteValue
	}
	return v, nil
}

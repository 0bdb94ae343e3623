package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_cache_hits_total",
		Help: "Total geocode cache hits",
	}, []string{"kind"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_cache_misses_total",
		Help: "Total geocode cache misses",
	}, []string{"kind"})
	CacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geomap_cache_evictions_total",
		Help: "Total entries evicted from a full geocode cache",
	})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_provider_requests_total",
		Help: "Total geocoding provider requests",
	}, []string{"kind"})
	ProviderFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_provider_failures_total",
		Help: "Total geocoding provider requests that failed",
	}, []string{"kind"})
	QueueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geomap_queue_length",
		Help: "Requests waiting in the geocoding queue",
	})
	IndexRejectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geomap_index_rejects_total",
		Help: "Total locations discarded by the location index",
	})
)

func init() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		CacheEvictionsTotal,
		ProviderRequestsTotal,
		ProviderFailuresTotal,
		QueueLength,
		IndexRejectsTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

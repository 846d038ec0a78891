// Package observability holds the Prometheus collectors of the codec, the
// caches and the HTTP surface. Until Init is called every helper is a no-op.
package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	codecOpsTotal          *prometheus.CounterVec
	codecOpDurationSeconds *prometheus.HistogramVec
	geometriesSkipped      *prometheus.CounterVec
	objectsSkipped         prometheus.Counter
	semanticsDropped       prometheus.Counter
	holesDropped           prometheus.Counter
	verticesDeduplicated   prometheus.Counter

	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	redisOpDuration *prometheus.HistogramVec
}

var (
	mu  sync.RWMutex
	cur *collectors
)

// Init registers the collectors with reg. Calling it again swaps in a fresh
// set bound to the new registry.
func Init(reg prometheus.Registerer, enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || reg == nil {
		cur = nil
		return
	}
	c := &collectors{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
			},
			[]string{"method", "route", "status"},
		),
		codecOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cityjson_operations_total",
				Help: "Codec operations by kind and outcome.",
			},
			[]string{"op", "outcome"},
		),
		codecOpDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cityjson_operation_duration_seconds",
				Help:    "Duration of codec operations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"op"},
		),
		geometriesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cityjson_geometries_skipped_total",
				Help: "Geometries left out because they could not be decoded.",
			},
			[]string{"reason"},
		),
		objectsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityjson_objects_skipped_total",
			Help: "CityObjects left out of an export.",
		}),
		semanticsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityjson_semantics_dropped_total",
			Help: "Geometries whose semantics did not line up with their faces.",
		}),
		holesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityjson_holes_dropped_total",
			Help: "Interior rings discarded while flattening faces.",
		}),
		verticesDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityjson_vertices_deduplicated_total",
			Help: "Vertices merged by the export deduplication pass.",
		}),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Cache hits by cache.",
			},
			[]string{"cache"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Cache misses by cache.",
			},
			[]string{"cache"},
		),
		redisOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redis_operation_duration_seconds",
				Help:    "Duration of Redis operations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"op", "outcome"},
		),
	}
	reg.MustRegister(
		c.httpRequestsTotal, c.httpRequestDurationSeconds,
		c.codecOpsTotal, c.codecOpDurationSeconds,
		c.geometriesSkipped, c.objectsSkipped, c.semanticsDropped, c.holesDropped, c.verticesDeduplicated,
		c.cacheHits, c.cacheMisses, c.redisOpDuration,
	)
	cur = c
}

func get() *collectors {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	c := get()
	if c == nil {
		return
	}
	st := strconv.Itoa(status)
	c.httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	c.httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveCodecOp records one decode, import, assemble or encode call.
func ObserveCodecOp(op string, err error, durationSeconds float64) {
	c := get()
	if c == nil {
		return
	}
	c.codecOpsTotal.WithLabelValues(op, outcome(err)).Inc()
	c.codecOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func AddGeometriesSkipped(reason string, n int) {
	if c := get(); c != nil && n > 0 {
		c.geometriesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

func AddObjectsSkipped(n int) {
	if c := get(); c != nil && n > 0 {
		c.objectsSkipped.Add(float64(n))
	}
}

func AddSemanticsDropped(n int) {
	if c := get(); c != nil && n > 0 {
		c.semanticsDropped.Add(float64(n))
	}
}

func AddHolesDropped(n int) {
	if c := get(); c != nil && n > 0 {
		c.holesDropped.Add(float64(n))
	}
}

func AddVerticesDeduplicated(n int) {
	if c := get(); c != nil && n > 0 {
		c.verticesDeduplicated.Add(float64(n))
	}
}

func AddCacheHits(cache string, n int) {
	if c := get(); c != nil && n > 0 {
		c.cacheHits.WithLabelValues(cache).Add(float64(n))
	}
}

func AddCacheMisses(cache string, n int) {
	if c := get(); c != nil && n > 0 {
		c.cacheMisses.WithLabelValues(cache).Add(float64(n))
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	c := get()
	if c == nil {
		return
	}
	c.redisOpDuration.WithLabelValues(op, outcome(err)).Observe(durationSeconds)
}

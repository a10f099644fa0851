package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hostel", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hostel", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ContentLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hostel", Name: "content_loads_total", Help: "Content source loads."},
		[]string{"source", "result"}, // result: ok|error
	)
	ContentLoadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hostel", Name: "content_load_duration_seconds",
			Help:    "Content source load duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hostel", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	LocationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hostel", Name: "location_requests_total", Help: "User location lookups by outcome."},
		[]string{"outcome"}, // outcome: granted|cached|denied|unsupported|timeout|error
	)
	Annotations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hostel", Name: "distance_annotations_total", Help: "Distance targets by result."},
		[]string{"kind", "result"}, // result: annotated|skipped
	)
)

// Serve exposes reg's /metrics on its own listener at addr. A blank addr
// disables it and returns nil.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	if addr == "" {
		return nil // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ContentLoads, ContentLoadLatency, CacheEvents, LocationOutcomes, Annotations)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveContentLoad(source string, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ContentLoads.WithLabelValues(source, result).Inc()
	ContentLoadLatency.WithLabelValues(source).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveLocation(outcome string) {
	LocationOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveAnnotation(kind, result string) {
	Annotations.WithLabelValues(kind, result).Inc()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokemon_app_upstream_requests_total",
		Help: "Requests sent to the creature data API by resource and HTTP status (0 = transport failure)",
	}, []string{"resource", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokemon_app_upstream_request_duration_seconds",
		Help:    "Latency of requests to the creature data API",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokemon_app_cache_results_total",
		Help: "Response cache lookups by backend and result (hit|miss)",
	}, []string{"backend", "result"})
)

// ObserveUpstream records one upstream round trip.
func ObserveUpstream(resource string, status int, d time.Duration) {
	upstreamRequests.WithLabelValues(resource, strconv.Itoa(status)).Inc()
	upstreamDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// RecordCacheResult counts a cache hit or miss.
func RecordCacheResult(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheResults.WithLabelValues(backend, result).Inc()
}

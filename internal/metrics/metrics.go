// Package metrics exposes Prometheus counters for recipe API traffic and
// for which fallback step answered each search.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records API requests, ladder outcomes and recipe views
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	ladders       *prometheus.CounterVec
	recipesViewed prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_api_requests_total",
			Help: "Recipe API requests by endpoint, fallback step and outcome",
		}, []string{"endpoint", "step", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantry_api_request_duration_seconds",
			Help:    "Recipe API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ladders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_ladder_resolved_total",
			Help: "Fallback ladders by the step that produced results (none when exhausted)",
		}, []string{"ladder", "step"}),
		recipesViewed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pantry_recipes_viewed_total",
			Help: "Recipe detail views recorded",
		}),
	}

	reg.MustRegister(c.requests, c.latency, c.ladders, c.recipesViewed)
	return c
}

// ObserveRequest records one API request
func (c *Collector) ObserveRequest(endpoint, step, outcome string, d time.Duration) {
	c.requests.WithLabelValues(endpoint, step, outcome).Inc()
	c.latency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveLadder records which step ended a fallback ladder
func (c *Collector) ObserveLadder(ladder, step string) {
	c.ladders.WithLabelValues(ladder, step).Inc()
}

// RecipeViewed counts a stored recipe view
func (c *Collector) RecipeViewed() {
	c.recipesViewed.Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

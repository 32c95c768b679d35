// Package metrics collects and exposes Prometheus metrics for the
// listing service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records operational counters for creates, queries and
// uploads.
type Collector struct {
	registry *prometheus.Registry

	listingsCreated prometheus.Counter
	createFailures  *prometheus.CounterVec
	feedQueries     *prometheus.CounterVec
	uploadBatch     prometheus.Histogram
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kejani_listings_created_total",
			Help: "Listings successfully created.",
		}),
		createFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kejani_listing_create_failures_total",
			Help: "Create-workflow failures by stage.",
		}, []string{"stage"}),
		feedQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kejani_feed_queries_total",
			Help: "Feed queries by feed kind.",
		}, []string{"feed"}),
		uploadBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kejani_upload_batch_seconds",
			Help:    "Duration of asset upload batches.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.listingsCreated, c.createFailures, c.feedQueries, c.uploadBatch)
	return c
}

// RecordListingCreated counts one successful create.
func (c *Collector) RecordListingCreated() {
	c.listingsCreated.Inc()
}

// RecordCreateFailure counts a create failure at the given stage.
func (c *Collector) RecordCreateFailure(stage string) {
	c.createFailures.WithLabelValues(stage).Inc()
}

// RecordFeedQuery counts a feed query ("public" or "owner").
func (c *Collector) RecordFeedQuery(feed string) {
	c.feedQueries.WithLabelValues(feed).Inc()
}

// RecordUploadBatch records how long an upload batch took.
func (c *Collector) RecordUploadBatch(d time.Duration) {
	c.uploadBatch.Observe(d.Seconds())
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

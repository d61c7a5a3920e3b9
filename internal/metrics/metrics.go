// Package metrics provides Prometheus metrics for Marquee.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all Marquee metrics
	namespace = "marquee"
)

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	// ResolutionsTotal tracks add-show resolutions by outcome
	ResolutionsTotal *prometheus.CounterVec

	// ResolutionDuration tracks how long resolutions take
	ResolutionDuration *prometheus.HistogramVec

	// QueueItemsTotal tracks finished queue items by status
	QueueItemsTotal *prometheus.CounterVec

	// QueueItemDuration tracks queue item processing time
	QueueItemDuration *prometheus.HistogramVec

	// QueueDepth tracks items waiting for a worker
	QueueDepth prometheus.Gauge

	// HousekeepingRemoved tracks entries removed by scheduled tasks
	HousekeepingRemoved *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "addshow_resolutions_total",
				Help:      "Total number of add-show resolutions",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "addshow_resolution_duration_seconds",
				Help:      "Duration of add-show resolutions in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		),
		QueueItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "showqueue_items_total",
				Help:      "Total number of finished show queue items",
			},
			[]string{"status"},
		),
		QueueItemDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "showqueue_item_duration_seconds",
				Help:      "Duration of show queue items in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "showqueue_depth",
				Help:      "Number of show queue items waiting for a worker",
			},
		),
		HousekeepingRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "housekeeping_removed_total",
				Help:      "Total number of entries removed by housekeeping tasks",
			},
			[]string{"task"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.QueueItemsTotal,
		m.QueueItemDuration,
		m.QueueDepth,
		m.HousekeepingRemoved,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveResolution records an add-show resolution.
func (m *Metrics) ObserveResolution(outcome string, elapsed time.Duration) {
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveQueueItem records a finished queue item.
func (m *Metrics) ObserveQueueItem(status string, elapsed time.Duration) {
	m.QueueItemsTotal.WithLabelValues(status).Inc()
	m.QueueItemDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// SetQueueDepth records the number of waiting queue items.
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

// ObserveHousekeeping records entries removed by a housekeeping task.
func (m *Metrics) ObserveHousekeeping(task string, removed int) {
	m.HousekeepingRemoved.WithLabelValues(task).Add(float64(removed))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minewatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minewatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Registry metrics
	RefreshCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minewatch_refresh_cycles_total",
			Help: "Total number of sensor refresh cycles triggered by reads",
		},
	)

	SensorsRefreshed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minewatch_sensors_refreshed_per_cycle",
			Help:    "Number of sensors advanced per refresh cycle",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	SensorsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minewatch_sensors_created_total",
			Help: "Total number of sensors added to the registry",
		},
	)

	SensorsUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minewatch_sensors_updated_total",
			Help: "Total number of partial sensor updates applied",
		},
	)

	// Ledger metrics
	AlertsRaisedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minewatch_alerts_raised_total",
			Help: "Total number of alerts raised",
		},
		[]string{"severity"},
	)

	AlertsAcknowledgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minewatch_alerts_acknowledged_total",
			Help: "Total number of alerts acknowledged",
		},
	)

	// Storage metrics
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minewatch_store_ops_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"op", "status"}, // op: get, set; status: ok, error
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minewatch_store_op_duration_seconds",
			Help:    "Key-value store operation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)

	// Event publishing metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minewatch_events_published_total",
			Help: "Total number of change events handed to the sink",
		},
		[]string{"status"}, // status: ok, dropped, failed
	)

	EventQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minewatch_event_queue_size",
			Help: "Current size of the change-event queue",
		},
	)

	// Auth metrics
	AuthRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minewatch_auth_rejections_total",
			Help: "Total number of mutation requests rejected for missing or invalid credentials",
		},
	)

	// Error handling
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minewatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)

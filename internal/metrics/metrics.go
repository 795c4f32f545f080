package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cabin-network-backend/internal/inventory"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Inventory
	CabinsTotal       prometheus.Gauge
	DevicesTotal      prometheus.Gauge
	Workstations      *prometheus.GaugeVec
	SnapshotRevision  prometheus.Gauge
	MutationsTotal    *prometheus.CounterVec
	SearchesTotal     *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabin_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cabin_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		CabinsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cabin_cabins_total",
				Help: "Number of cabins across both zones",
			},
		),

		DevicesTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cabin_devices_total",
				Help: "Number of uplink devices across all cabins",
			},
		),

		Workstations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cabin_workstations",
				Help: "Number of workstations by status",
			},
			[]string{"status"},
		),

		SnapshotRevision: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cabin_snapshot_revision",
				Help: "Revision of the last snapshot received from the tree",
			},
		),

		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabin_mutations_total",
				Help: "Total number of inventory mutations",
			},
			[]string{"op", "result"}, // result: "ok", "invalid", "error"
		),

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabin_searches_total",
				Help: "Total number of global workstation searches",
			},
			[]string{"result"}, // "hit", "miss"
		),

		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabin_notifications_total",
				Help: "Total number of offline alerts delivered",
			},
			[]string{"result"},
		),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// ObserveStats publishes the inventory totals.
func (m *Metrics) ObserveStats(s inventory.Stats, revision uint64) {
	m.CabinsTotal.Set(float64(s.TotalCabins))
	m.DevicesTotal.Set(float64(s.TotalDevices))
	m.Workstations.WithLabelValues("connected").Set(float64(s.ConnectedCount))
	m.Workstations.WithLabelValues("offline").Set(float64(s.OfflineCount))
	m.SnapshotRevision.Set(float64(revision))
}

// RecordMutation counts one mutation attempt.
func (m *Metrics) RecordMutation(op, result string) {
	m.MutationsTotal.WithLabelValues(op, result).Inc()
}

// RecordSearch counts one global search.
func (m *Metrics) RecordSearch(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SearchesTotal.WithLabelValues(result).Inc()
}

// RecordNotification counts one alert delivery attempt.
func (m *Metrics) RecordNotification(result string) {
	m.NotificationsSent.WithLabelValues(result).Inc()
}

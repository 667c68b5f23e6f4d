package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics holds the Prometheus collectors exposed on /metrics.
type PromMetrics struct {
	ItemsScanned  *prometheus.CounterVec
	ItemsApproved *prometheus.CounterVec
	ItemsPosted   *prometheus.CounterVec
	Errors        *prometheus.CounterVec
	ScanDuration  *prometheus.HistogramVec
	PostDuration  prometheus.Histogram
	QueueDepth    prometheus.Gauge
}

// NewPromMetrics registers the collectors on the given registerer.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		ItemsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_items_scanned_total",
			Help: "Content items found during platform scans.",
		}, []string{"platform"}),
		ItemsApproved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_items_approved_total",
			Help: "Content items that passed the confidence threshold.",
		}, []string{"platform"}),
		ItemsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_items_posted_total",
			Help: "Content items published.",
		}, []string{"platform"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_errors_total",
			Help: "Scan and posting errors by platform.",
		}, []string{"platform"}),
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "content_scan_duration_seconds",
			Help:    "Duration of a single platform scan.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
		PostDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_post_duration_seconds",
			Help:    "Duration of the posting transaction.",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_queue_approved_depth",
			Help: "Approved, unposted items available for scheduling.",
		}),
	}

	reg.MustRegister(
		m.ItemsScanned,
		m.ItemsApproved,
		m.ItemsPosted,
		m.Errors,
		m.ScanDuration,
		m.PostDuration,
		m.QueueDepth,
	)
	return m
}

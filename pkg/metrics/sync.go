package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of integration sync runs.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	imported *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_run_duration_seconds",
		Help:    "Duration of integration sync runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	imported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_items_imported_total",
		Help: "Items imported by integration sync runs.",
	}, []string{"provider"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_run_failures_total",
		Help: "Failed integration sync runs.",
	}, []string{"provider"})
	reg.MustRegister(duration, imported, failures)
	return &SyncMetrics{
		duration: duration,
		imported: imported,
		failures: failures,
	}
}

// ObserveDuration records the duration for the named provider.
func (s *SyncMetrics) ObserveDuration(provider string, d time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

// AddImported counts items imported for the named provider.
func (s *SyncMetrics) AddImported(provider string, n int) {
	if s == nil || s.imported == nil || n <= 0 {
		return
	}
	s.imported.WithLabelValues(normalizeLabel(provider)).Add(float64(n))
}

// IncFailure counts a failed run for the named provider.
func (s *SyncMetrics) IncFailure(provider string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(provider)).Inc()
}

func normalizeLabel(label string) string {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return "unknown"
	}
	return strings.ReplaceAll(label, " ", "_")
}

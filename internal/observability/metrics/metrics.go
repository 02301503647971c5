package metrics

import "github.com/prometheus/client_golang/prometheus"

// WatcherMetrics exposes counters/histograms for the poll/detect/notify loop.
type WatcherMetrics struct {
	pollTotal         *prometheus.CounterVec
	newLeadsTotal     prometheus.Counter
	fetchLatency      prometheus.Histogram
	statusUpdateTotal *prometheus.CounterVec
}

func NewWatcherMetrics(reg prometheus.Registerer) *WatcherMetrics {
	m := &WatcherMetrics{
		pollTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadwatch",
			Subsystem: "watcher",
			Name:      "poll_total",
			Help:      "Total poll cycles by result",
		}, []string{"result"}),
		newLeadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadwatch",
			Subsystem: "watcher",
			Name:      "new_leads_total",
			Help:      "Total newly detected appointments",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadwatch",
			Subsystem: "watcher",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of combined stats+appointments fetches",
			Buckets:   prometheus.DefBuckets,
		}),
		statusUpdateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadwatch",
			Subsystem: "watcher",
			Name:      "status_update_total",
			Help:      "Total appointment status updates by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.pollTotal, m.newLeadsTotal, m.fetchLatency, m.statusUpdateTotal)
	return m
}

func (m *WatcherMetrics) ObservePoll(result string) {
	if m == nil {
		return
	}
	m.pollTotal.WithLabelValues(result).Inc()
}

func (m *WatcherMetrics) ObserveNewLeads(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.newLeadsTotal.Add(float64(count))
}

func (m *WatcherMetrics) ObserveFetchLatency(seconds float64) {
	if m == nil {
		return
	}
	m.fetchLatency.Observe(seconds)
}

func (m *WatcherMetrics) ObserveStatusUpdate(result string) {
	if m == nil {
		return
	}
	m.statusUpdateTotal.WithLabelValues(result).Inc()
}

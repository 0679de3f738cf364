package reconciler

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the reconciler's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	batches         *prometheus.CounterVec
	refetches       *prometheus.CounterVec
	commands        *prometheus.CounterVec
	discovered      prometheus.Counter
	streamReconnect prometheus.Counter
	dropped         prometheus.Counter
	appliances      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "electrolux_update_batches_total",
			Help: "Update batches applied, by origin.",
		}, []string{"origin"}),
		refetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "electrolux_deferred_refetch_total",
			Help: "End-of-cycle refetches, by outcome.",
		}, []string{"outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "electrolux_commands_total",
			Help: "Commands sent to the cloud, by outcome.",
		}, []string{"outcome"}),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "electrolux_discovered_entities_total",
			Help: "Entities added by missing-entity discovery.",
		}),
		streamReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "electrolux_stream_sessions_total",
			Help: "Live update stream sessions opened.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "electrolux_notifications_dropped_total",
			Help: "Batch notifications dropped because observers fell behind.",
		}),
		appliances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "electrolux_appliances",
			Help: "Appliances currently set up.",
		}),
	}
	reg.MustRegister(m.batches, m.refetches, m.commands, m.discovered, m.streamReconnect, m.dropped, m.appliances)
	return m
}

func (m *Metrics) batch(origin string) {
	if m != nil {
		m.batches.WithLabelValues(origin).Inc()
	}
}

func (m *Metrics) refetch(outcome string) {
	if m != nil {
		m.refetches.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) command(outcome string) {
	if m != nil {
		m.commands.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) discover(n int) {
	if m != nil && n > 0 {
		m.discovered.Add(float64(n))
	}
}

func (m *Metrics) session() {
	if m != nil {
		m.streamReconnect.Inc()
	}
}

func (m *Metrics) notifyDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) setAppliances(n int) {
	if m != nil {
		m.appliances.Set(float64(n))
	}
}

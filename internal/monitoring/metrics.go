package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "comboer"

// ComboMetrics counts comboing work. A nil *ComboMetrics is valid and
// records nothing.
type ComboMetrics struct {
	created    *prometheus.CounterVec
	cuts       *prometheus.CounterVec
	finals     *prometheus.CounterVec
	events     *prometheus.CounterVec
	eventTimes prometheus.Histogram
}

// NewComboMetrics creates the collectors and registers them with reg.
func NewComboMetrics(reg prometheus.Registerer) (*ComboMetrics, error) {
	m := &ComboMetrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combos_created_total",
			Help:      "Combos created, by stage.",
		}, []string{"stage"}),
		cuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cuts_failed_total",
			Help:      "Candidates rejected, by cut.",
		}, []string{"cut"}),
		finals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "final_combos_total",
			Help:      "Final combos handed downstream, by reaction.",
		}, []string{"reaction"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events processed, by outcome.",
		}, []string{"outcome"}),
		eventTimes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Wall time spent comboing one event.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.created, m.cuts, m.finals, m.events, m.eventTimes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCombos adds n combos created on stage.
func (m *ComboMetrics) ObserveCombos(stage string, n int) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(stage).Add(float64(n))
}

// ObserveCuts adds n rejections by cut.
func (m *ComboMetrics) ObserveCuts(cut string, n int) {
	if m == nil {
		return
	}
	m.cuts.WithLabelValues(cut).Add(float64(n))
}

// ObserveFinal adds n final combos for a reaction.
func (m *ComboMetrics) ObserveFinal(reaction string, n int) {
	if m == nil {
		return
	}
	m.finals.WithLabelValues(reaction).Add(float64(n))
}

// ObserveEvent records one processed event.
func (m *ComboMetrics) ObserveEvent(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
	m.eventTimes.Observe(d.Seconds())
}

package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComboMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewComboMetrics(reg)
	require.NoError(t, err)

	m.ObserveCombos("charged", 4)
	m.ObserveCombos("charged", 2)
	m.ObserveCuts("invariant_mass", 3)
	m.ObserveFinal("omega_p", 1)
	m.ObserveEvent("ok", 2*time.Millisecond)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.created.WithLabelValues("charged")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cuts.WithLabelValues("invariant_mass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.finals.WithLabelValues("omega_p")))

	want := `
# HELP comboer_events_total Events processed, by outcome.
# TYPE comboer_events_total counter
comboer_events_total{outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "comboer_events_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.eventTimes))
}

func TestComboMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewComboMetrics(reg)
	require.NoError(t, err)
	_, err = NewComboMetrics(reg)
	assert.Error(t, err)
}

func TestNilComboMetrics(t *testing.T) {
	var m *ComboMetrics
	assert.NotPanics(t, func() {
		m.ObserveCombos("mixed", 1)
		m.ObserveCuts("skim", 1)
		m.ObserveFinal("r", 1)
		m.ObserveEvent("ok", time.Second)
	})
}

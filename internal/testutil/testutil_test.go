package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
)

func TestEventBuilder(t *testing.T) {
	ev := NewEvent(42).
		RFTime(1.5).
		Track(64, r3.Vec{Z: 1}, 0.1, pid.Proton, pid.PiPlus).
		Shower(event.FCAL, 0.5, r3.Vec{Z: 600}, 20, "good").
		Beam(8.5, 1.5).
		Skims("pi0").
		Build()

	assert.Equal(t, uint64(42), ev.Number)
	assert.Equal(t, 1.5, ev.RFTime)
	require.Len(t, ev.Tracks, 1)
	assert.Len(t, ev.Tracks[0].Hypotheses, 2)
	require.Len(t, ev.Showers, 1)
	assert.True(t, ev.Showers[0].HasTag("good"))
	assert.Len(t, ev.Beams, 1)
	assert.True(t, ev.HasSkims([]string{"pi0"}))

	sh, err := ev.Shower(ev.ShowerHandle(0))
	require.NoError(t, err)
	assert.Equal(t, event.FCAL, sh.Detector)
}

func TestBuildReturnsIndependentCopies(t *testing.T) {
	b := NewEvent(1)
	first := b.Build()
	b.Track(60, r3.Vec{}, 0, pid.PiMinus)

	assert.Empty(t, first.Tracks)
	assert.Len(t, b.Build().Tracks, 1)
}

func TestNewReaction(t *testing.T) {
	r := NewReaction(t, "omega_p",
		BeamStep(append(Finals(pid.Proton), Decaying(pid.Omega, 1))...),
		DecayStep(pid.Omega, append(Finals(pid.PiPlus, pid.PiMinus), Decaying(pid.PiZero, 2))...),
		DecayStep(pid.PiZero, Finals(pid.Gamma, pid.Gamma)...),
	)

	assert.True(t, r.FirstStepBeam())
	assert.Equal(t, 2, r.RequiredCounts()[pid.Gamma])
	assert.True(t, Missing(pid.Neutron).Missing)
}

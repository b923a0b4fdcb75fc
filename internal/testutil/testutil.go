// Package testutil provides shared event and reaction fixtures.
//
// Fixture builders favour short call sites: positions are given as plain
// coordinates and handles are assigned in the order objects are added.
package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

// EventBuilder assembles an event.
type EventBuilder struct {
	ev event.Event
}

// NewEvent starts an event with the given number and an RF time of zero.
func NewEvent(number uint64) *EventBuilder {
	return &EventBuilder{ev: event.Event{Number: number}}
}

// RFTime sets the RF time at the target centre.
func (b *EventBuilder) RFTime(t float64) *EventBuilder {
	b.ev.RFTime = t
	return b
}

// Track adds a track at z on the beamline carrying one hypothesis per kind,
// each with momentum p and time t.
func (b *EventBuilder) Track(z float64, p r3.Vec, t float64, kinds ...pid.PID) *EventBuilder {
	tr := event.Track{ID: len(b.ev.Tracks), Position: r3.Vec{Z: z}}
	for _, k := range kinds {
		tr.Hypotheses = append(tr.Hypotheses, event.Hypothesis{PID: k, Momentum: p, Time: t})
	}
	b.ev.Tracks = append(b.ev.Tracks, tr)
	return b
}

// Shower adds a shower.
func (b *EventBuilder) Shower(det event.Detector, energy float64, pos r3.Vec, t float64, tags ...string) *EventBuilder {
	b.ev.Showers = append(b.ev.Showers, event.Shower{
		ID:       len(b.ev.Showers),
		Detector: det,
		Energy:   energy,
		Position: pos,
		Time:     t,
		Tags:     tags,
	})
	return b
}

// Beam adds a beam photon.
func (b *EventBuilder) Beam(energy, t float64) *EventBuilder {
	b.ev.Beams = append(b.ev.Beams, event.Beam{ID: len(b.ev.Beams), Energy: energy, Time: t})
	return b
}

// Skims sets the event's skim tags.
func (b *EventBuilder) Skims(skims ...string) *EventBuilder {
	b.ev.Skims = append([]string{}, skims...)
	return b
}

// Build returns the event. Showers are numbered after tracks, so build once
// every object has been added.
func (b *EventBuilder) Build() *event.Event {
	ev := b.ev
	return &ev
}

// Finals turns particle kinds into non-decaying, detected finals.
func Finals(kinds ...pid.PID) []reaction.Final {
	out := make([]reaction.Final, len(kinds))
	for i, k := range kinds {
		out[i] = reaction.Final{PID: k}
	}
	return out
}

// Decaying is a final that decays in step.
func Decaying(kind pid.PID, step int) reaction.Final {
	return reaction.Final{PID: kind, DecayStep: step}
}

// Missing is an undetected final.
func Missing(kind pid.PID) reaction.Final {
	return reaction.Final{PID: kind, Missing: true}
}

// NewReaction builds a validated reaction, failing the test on error.
func NewReaction(t *testing.T, name string, steps ...reaction.Step) *reaction.Reaction {
	t.Helper()
	r := &reaction.Reaction{Name: name, Steps: steps}
	if err := r.Validate(); err != nil {
		t.Fatalf("reaction %s: %v", name, err)
	}
	return r
}

// BeamStep is a production step from a beam photon on a proton target.
func BeamStep(finals ...reaction.Final) reaction.Step {
	return reaction.Step{Initial: pid.Gamma, Target: pid.Proton, Finals: finals}
}

// DecayStep is the decay of initial into finals.
func DecayStep(initial pid.PID, finals ...reaction.Final) reaction.Step {
	return reaction.Step{Initial: initial, Finals: finals}
}

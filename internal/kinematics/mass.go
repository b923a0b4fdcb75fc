package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/comboer/internal/combo"
	"github.com/banshee-data/comboer/internal/config"
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

// Window is an accepted invariant-mass range in GeV, inclusive.
type Window struct {
	Min, Max float64
}

// Contains reports whether m lies in the window.
func (w Window) Contains(m float64) bool { return m >= w.Min && m <= w.Max }

// DefaultWindows are the built-in windows for common decays.
func DefaultWindows() map[pid.PID]Window {
	return map[pid.PID]Window{
		pid.PiZero:   {Min: 0.08, Max: 0.19},
		pid.Eta:      {Min: 0.40, Max: 0.70},
		pid.Omega:    {Min: 0.60, Max: 0.96},
		pid.KShort:   {Min: 0.30, Max: 0.70},
		pid.Lambda:   {Min: 1.00, Max: 1.23},
		pid.EtaPrime: {Min: 0.80, Max: 1.12},
		pid.Phi:      {Min: 0.90, Max: 1.14},
	}
}

// WindowsFromConfig converts configured windows keyed by particle name.
func WindowsFromConfig(cfg map[string]config.MassWindow) (map[pid.PID]Window, error) {
	out := make(map[pid.PID]Window, len(cfg))
	for name, w := range cfg {
		p, err := pid.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("mass window: %w", err)
		}
		out[p] = Window{Min: w.Min, Max: w.Max}
	}
	return out, nil
}

// MassCutter applies invariant-mass windows to decay groupings. Decays with
// no window always pass.
type MassCutter struct {
	Windows  map[pid.PID]Window
	Target   Target
	Timing   *RFTiming
	Vertexer *ChargedVertexer

	ev   *event.Event
	bins combo.ZBinning
}

// BeginEvent implements combo.EventAware.
func (m *MassCutter) BeginEvent(ev *event.Event, bins combo.ZBinning) {
	m.ev = ev
	m.bins = bins
}

// CutInvariantMass implements combo.MassCutter with photons pointed from the
// centre of zbin.
func (m *MassCutter) CutInvariantMass(c *combo.Combo, decay pid.PID, zbin combo.ZBin) bool {
	w, ok := m.Windows[decay]
	if !ok {
		return true
	}
	vertex := r3.Vec{Z: m.Target.CenterZ}
	if zbin >= 0 {
		vertex.Z = m.bins.Center(zbin)
	}
	p4, ok := m.sum(c, vertex, 0)
	return ok && w.Contains(p4.Mass())
}

// CutInvariantMassDeferred implements combo.MassCutter. It re-evaluates, at
// the precise vertex, every windowed decay holding a massive neutral, and
// every windowed decay holding photons whose bin was unknown when it was
// built: either the production bin was unknown or the decay sits at or below
// a detached vertex.
func (m *MassCutter) CutInvariantMassDeferred(_ *reaction.Reaction, full *combo.Combo, _ *event.Beam, rfBunch int) bool {
	vertex := r3.Vec{Z: m.Target.CenterZ}
	binKnown := false
	if m.Vertexer != nil {
		var known bool
		vertex, known = m.Vertexer.Vertex()
		binKnown = known && m.bins.Bin(vertex.Z) != combo.ZBinUnknown
	}
	var visit func(c *combo.Combo, detached bool) bool
	visit = func(c *combo.Combo, detached bool) bool {
		for _, d := range c.Decays() {
			below := detached || d.Use.Parent.IsDetachedVertex()
			w, windowed := m.Windows[d.Use.Parent]
			recheck := windowed && (d.Use.Info.HasMassiveNeutral() || ((below || !binKnown) && m.hasPhoton(d.Use.Info)))
			for _, sub := range d.Combos {
				if recheck {
					p4, ok := m.sum(sub, vertex, rfBunch)
					if !ok || !w.Contains(p4.Mass()) {
						return false
					}
				}
				if !visit(sub, below) {
					return false
				}
			}
		}
		return true
	}
	return visit(full, false)
}

func (m *MassCutter) hasPhoton(info *combo.Info) bool {
	for _, p := range info.Particles() {
		if p.PID == pid.Gamma {
			return true
		}
	}
	for _, d := range info.Decays() {
		if m.hasPhoton(d.Use.Info) {
			return true
		}
	}
	return false
}

// sum adds the four-vectors of every leaf of c. ok is false when a massive
// neutral has an unphysical time of flight.
func (m *MassCutter) sum(c *combo.Combo, vertex r3.Vec, rfBunch int) (FourVector, bool) {
	var total FourVector
	for _, l := range c.AllLeaves(nil) {
		switch {
		case m.ev.IsTrack(l.Handle):
			h, ok := m.ev.MustTrack(l.Handle).Hypothesis(l.PID)
			if !ok {
				return FourVector{}, false
			}
			total = total.Add(FromMomentum(h.Momentum, l.PID.Mass()))
		case l.PID == pid.Gamma:
			sh := m.ev.MustShower(l.Handle)
			total = total.Add(PhotonFromShower(sh.Energy, vertex, sh.Position))
		default:
			sh := m.ev.MustShower(l.Handle)
			p4, ok := FromTimeOfFlight(l.PID.Mass(), vertex, sh.Position, sh.Time-m.vertexTime(vertex, rfBunch))
			if !ok {
				return FourVector{}, false
			}
			total = total.Add(p4)
		}
	}
	return total, true
}

// vertexTime is the production time at vertex for the given bunch.
func (m *MassCutter) vertexTime(vertex r3.Vec, rfBunch int) float64 {
	t := m.ev.RFTime + (vertex.Z-m.Target.CenterZ)/SpeedOfLight
	if m.Timing != nil {
		t += float64(rfBunch) * m.Timing.PeriodNs
	}
	return t
}

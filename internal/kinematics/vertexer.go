package kinematics

import (
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/comboer/internal/combo"
	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/reaction"
)

// ChargedVertexer places the production vertex at the mean point of closest
// approach of the charged tracks produced there. Detached vertices are left in
// the unknown bin, which defers their mass cuts to the beam stage.
type ChargedVertexer struct {
	Target Target

	ev     *event.Event
	bins   combo.ZBinning
	vertex r3.Vec
	// vertexTime is the RF time propagated to the vertex, before the bunch
	// shift is applied.
	vertexTime float64
	known      bool
}

// NewChargedVertexer returns a vertexer for target.
func NewChargedVertexer(target Target) *ChargedVertexer {
	return &ChargedVertexer{Target: target}
}

// BeginEvent implements combo.EventAware.
func (v *ChargedVertexer) BeginEvent(ev *event.Event, bins combo.ZBinning) {
	v.ev = ev
	v.bins = bins
	v.reset()
}

func (v *ChargedVertexer) reset() {
	v.vertex = r3.Vec{Z: v.Target.CenterZ}
	v.vertexTime = 0
	v.known = false
	if v.ev != nil {
		v.vertexTime = v.ev.RFTime
	}
}

// VertexZBins implements combo.Vertexer.
func (v *ChargedVertexer) VertexZBins(r *reaction.Reaction, charged *combo.Combo) []combo.ZBin {
	bins := make([]combo.ZBin, len(r.Vertices()))
	for i := range bins {
		bins[i] = combo.ZBinUnknown
	}
	if pos, ok := v.productionVertex(charged); ok {
		bins[0] = v.bins.Bin(pos.Z)
	}
	return bins
}

// ComputeVertexTimeOffsets implements combo.Vertexer. The vertex comes from
// the charged combo when there is one and the target centre otherwise.
func (v *ChargedVertexer) ComputeVertexTimeOffsets(_ *reaction.Reaction, charged, _ *combo.Combo, _ *event.Beam) {
	v.reset()
	if pos, ok := v.productionVertex(charged); ok {
		v.vertex = pos
		v.known = true
	}
	if v.ev != nil {
		v.vertexTime = v.ev.RFTime + (v.vertex.Z-v.Target.CenterZ)/SpeedOfLight
	}
}

// Vertex returns the vertex of the last ComputeVertexTimeOffsets call and
// whether it came from tracks.
func (v *ChargedVertexer) Vertex() (r3.Vec, bool) { return v.vertex, v.known }

// VertexTime is the RF time at the vertex for bunch 0.
func (v *ChargedVertexer) VertexTime() float64 { return v.vertexTime }

// productionVertex averages the tracks directly in charged and in its
// non-detached decays.
func (v *ChargedVertexer) productionVertex(charged *combo.Combo) (r3.Vec, bool) {
	if charged == nil || v.ev == nil {
		return r3.Vec{}, false
	}
	var xs, ys, zs []float64
	var collect func(c *combo.Combo)
	collect = func(c *combo.Combo) {
		for _, l := range c.Leaves() {
			if !v.ev.IsTrack(l.Handle) {
				continue
			}
			p := v.ev.MustTrack(l.Handle).Position
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
			zs = append(zs, p.Z)
		}
		for _, d := range c.Decays() {
			if d.Use.Parent.IsDetachedVertex() {
				continue
			}
			for _, sub := range d.Combos {
				collect(sub)
			}
		}
	}
	collect(charged)
	if len(zs) == 0 {
		return r3.Vec{}, false
	}
	return r3.Vec{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}, true
}

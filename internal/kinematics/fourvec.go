package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SpeedOfLight in cm/ns.
const SpeedOfLight = 29.9792458

// FourVector is an energy-momentum four-vector.
type FourVector struct {
	E float64
	P r3.Vec
}

// Add returns the sum of two four-vectors.
func (v FourVector) Add(o FourVector) FourVector {
	return FourVector{E: v.E + o.E, P: r3.Add(v.P, o.P)}
}

// Mass returns the invariant mass. Space-like vectors give a negative mass of
// the same magnitude so that they still fail lower window edges.
func (v FourVector) Mass() float64 {
	m2 := v.E*v.E - r3.Dot(v.P, v.P)
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// FromMomentum builds the four-vector of a particle of mass m.
func FromMomentum(p r3.Vec, m float64) FourVector {
	return FourVector{E: math.Sqrt(r3.Dot(p, p) + m*m), P: p}
}

// PhotonFromShower builds a photon four-vector pointing from vertex to the
// shower position.
func PhotonFromShower(energy float64, vertex, position r3.Vec) FourVector {
	dir := r3.Sub(position, vertex)
	if r3.Norm(dir) == 0 {
		return FourVector{E: energy}
	}
	return FourVector{E: energy, P: r3.Scale(energy, r3.Unit(dir))}
}

// FromTimeOfFlight builds the four-vector of a massive neutral from its flight
// path and flight time. ok is false when the implied speed is unphysical.
func FromTimeOfFlight(m float64, vertex, position r3.Vec, flightTime float64) (FourVector, bool) {
	dir := r3.Sub(position, vertex)
	path := r3.Norm(dir)
	if flightTime <= 0 || path == 0 {
		return FourVector{}, false
	}
	beta := path / (flightTime * SpeedOfLight)
	if beta >= 1 {
		return FourVector{}, false
	}
	gamma := 1 / math.Sqrt(1-beta*beta)
	return FourVector{E: gamma * m, P: r3.Scale(gamma*m*beta, r3.Unit(dir))}, true
}

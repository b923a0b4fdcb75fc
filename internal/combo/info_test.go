package combo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/comboer/internal/pid"
)

func TestCanonicalize(t *testing.T) {
	reg := NewRegistry()
	pi0 := Use{Parent: pid.PiZero, ZBin: ZBinIndependent, Info: reg.MakeOrGet([]ParticleCount{{PID: pid.Gamma, Count: 2}}, nil)}
	ks := Use{Parent: pid.KShort, ZBin: ZBinIndependent, Info: reg.MakeOrGet([]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.PiMinus, Count: 1}}, nil)}

	ps, ds := canonicalize(
		[]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.Gamma, Count: 1}, {PID: pid.Proton, Count: 1}, {PID: pid.PiPlus, Count: 1}, {PID: pid.Eta, Count: 0}},
		[]DecayCount{{Use: ks, Count: 1}, {Use: pi0, Count: 1}, {Use: pi0, Count: 1}},
	)

	wantP := []ParticleCount{{PID: pid.Proton, Count: 1}, {PID: pid.PiPlus, Count: 2}, {PID: pid.Gamma, Count: 1}}
	if diff := cmp.Diff(wantP, ps); diff != "" {
		t.Errorf("particles (-want +got):\n%s", diff)
	}
	require.Len(t, ds, 2)
	assert.Equal(t, DecayCount{Use: pi0, Count: 2}, ds[0], "neutral decays sort before charged")
	assert.Equal(t, DecayCount{Use: ks, Count: 1}, ds[1])

	ps2, ds2 := canonicalize(ps, ds)
	assert.Equal(t, ps, ps2, "canonicalize is idempotent")
	assert.Equal(t, ds, ds2)
}

func TestRegistryInterns(t *testing.T) {
	reg := NewRegistry()
	a := reg.MakeOrGet([]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.Proton, Count: 1}}, nil)
	b := reg.MakeOrGet([]ParticleCount{{PID: pid.Proton, Count: 1}, {PID: pid.PiPlus, Count: 1}}, nil)
	assert.Same(t, a, b)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "{Proton:1,Pi+:1}", a.String())
	assert.Equal(t, pid.AllCharged, a.Content())

	reg.Freeze()
	assert.Same(t, a, reg.GetOrMake([]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.Proton, Count: 1}}, nil))

	c := reg.GetOrMake([]ParticleCount{{PID: pid.Gamma, Count: 3}}, nil)
	assert.Equal(t, 2, reg.Len())
	assert.Same(t, c, reg.MakeOrGet([]ParticleCount{{PID: pid.Gamma, Count: 3}}, nil))
	assert.Same(t, c, reg.GetOrMake([]ParticleCount{{PID: pid.Gamma, Count: 3}}, nil))
	assert.True(t, c.hasNeutralClass)
}

func TestInfoContent(t *testing.T) {
	reg := NewRegistry()
	photons := reg.MakeOrGet([]ParticleCount{{PID: pid.Gamma, Count: 2}}, nil)
	pi0 := Use{Parent: pid.PiZero, ZBin: ZBinIndependent, Info: photons}
	mixed := reg.MakeOrGet([]ParticleCount{{PID: pid.PiPlus, Count: 1}}, []DecayCount{{Use: pi0, Count: 1}})
	neutron := reg.MakeOrGet([]ParticleCount{{PID: pid.Neutron, Count: 1}}, nil)

	assert.Equal(t, pid.AllNeutral, photons.Content())
	assert.Equal(t, pid.Mixed, mixed.Content())
	assert.True(t, mixed.hasNeutralClass)
	assert.False(t, mixed.HasMassiveNeutral())
	assert.True(t, neutron.HasMassiveNeutral())
	assert.Equal(t, 2, mixed.NumClasses())
}

func TestRegistryWithoutAndFilter(t *testing.T) {
	reg := NewRegistry()
	pi0 := Use{Parent: pid.PiZero, ZBin: ZBinIndependent, Info: reg.MakeOrGet([]ParticleCount{{PID: pid.Gamma, Count: 2}}, nil)}
	info := reg.MakeOrGet([]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.PiMinus, Count: 1}}, []DecayCount{{Use: pi0, Count: 1}})

	noPi0 := reg.Without(info, pid.Unknown, pi0)
	assert.Equal(t, "{Pi+:1,Pi-:1}", noPi0.String())

	noPiPlus := reg.Without(info, pid.PiPlus, Use{})
	assert.Equal(t, 1, len(noPiPlus.Particles()))
	assert.Equal(t, 1, len(noPiPlus.Decays()))

	charged := reg.Filter(info,
		func(p ParticleCount) bool { return p.PID.IsCharged() },
		func(DecayCount) bool { return false })
	assert.Same(t, noPi0, charged)
}

func TestRegistryZIndependent(t *testing.T) {
	reg := NewRegistry()
	photons := reg.MakeOrGet([]ParticleCount{{PID: pid.Gamma, Count: 2}}, nil)
	pi0 := Use{Parent: pid.PiZero, ZBin: ZBinIndependent, Info: photons}
	omega := Use{Parent: pid.Omega, ZBin: ZBinIndependent, Info: reg.MakeOrGet(
		[]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.PiMinus, Count: 1}},
		[]DecayCount{{Use: pi0, Count: 1}})}
	reg.Freeze()

	assert.Equal(t, omega, reg.ZIndependent(omega), "already z-independent")

	pi0At3 := Use{Parent: pid.PiZero, ZBin: 3, Info: photons}
	omegaAt3 := Use{Parent: pid.Omega, ZBin: 3, Info: reg.GetOrMake(
		[]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.PiMinus, Count: 1}},
		[]DecayCount{{Use: pi0At3, Count: 1}})}
	require.NotSame(t, omega.Info, omegaAt3.Info)

	assert.Equal(t, pi0, reg.ZIndependent(pi0At3))
	assert.Equal(t, omega, reg.ZIndependent(omegaAt3))
	assert.Equal(t, omega, reg.ZIndependent(omegaAt3), "memoised")
}

func TestUseCompareOrdersContentThenMass(t *testing.T) {
	reg := NewRegistry()
	photons := reg.MakeOrGet([]ParticleCount{{PID: pid.Gamma, Count: 2}}, nil)
	pions := reg.MakeOrGet([]ParticleCount{{PID: pid.PiPlus, Count: 1}, {PID: pid.PiMinus, Count: 1}}, nil)
	eta := Use{Parent: pid.Eta, ZBin: ZBinIndependent, Info: photons}
	pi0 := Use{Parent: pid.PiZero, ZBin: ZBinIndependent, Info: photons}
	ks := Use{Parent: pid.KShort, ZBin: ZBinIndependent, Info: pions}

	assert.Negative(t, useCompare(eta, pi0), "heavier parent first")
	assert.Negative(t, useCompare(pi0, ks), "neutral before charged")
	assert.Zero(t, useCompare(ks, ks))
}

package reaction

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/comboer/internal/pid"
)

// g p -> K+ Lambda, Lambda -> p pi-
func kLambda() *Reaction {
	return &Reaction{
		Name: "kplus_lambda",
		Steps: []Step{
			{Initial: pid.Gamma, Target: pid.Proton, Finals: []Final{{PID: pid.KPlus}, {PID: pid.Lambda, DecayStep: 1}}},
			{Initial: pid.Lambda, Finals: []Final{{PID: pid.Proton}, {PID: pid.PiMinus}}},
		},
		NumPlusMinusRFBunches: 1,
	}
}

// g p -> omega p, omega -> pi+ pi- pi0, pi0 -> g g
func omegaP() *Reaction {
	return &Reaction{
		Name: "omega_p",
		Steps: []Step{
			{Initial: pid.Gamma, Target: pid.Proton, Finals: []Final{{PID: pid.Omega, DecayStep: 1}, {PID: pid.Proton}}},
			{Initial: pid.Omega, Finals: []Final{{PID: pid.PiPlus}, {PID: pid.PiMinus}, {PID: pid.PiZero, DecayStep: 2}}},
			{Initial: pid.PiZero, Finals: []Final{{PID: pid.Gamma}, {PID: pid.Gamma}}},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, kLambda().Validate())
	require.NoError(t, omegaP().Validate())

	tests := []struct {
		name   string
		mutate func(r *Reaction)
		want   string
	}{
		{"no steps", func(r *Reaction) { r.Steps = nil }, "no steps"},
		{"unlinked step", func(r *Reaction) { r.Steps[0].Finals[1].DecayStep = 0 }, "not linked"},
		{"wrong decaying kind", func(r *Reaction) { r.Steps[1].Initial = pid.KShort }, "decays KShort"},
		{"backwards link", func(r *Reaction) {
			r.Steps = append(r.Steps, Step{Initial: pid.PiMinus, Finals: []Final{{PID: pid.MuonMinus}}})
			r.Steps[2].Finals[0].DecayStep = 1
			r.Steps[1].Finals[1].DecayStep = 2
		}, "out of order"},
		{"missing decays", func(r *Reaction) { r.Steps[0].Finals[1].Missing = true }, "missing but decays"},
		{"negative bunches", func(r *Reaction) { r.NumPlusMinusRFBunches = -1 }, "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := kLambda()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidStep))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTopologyQueries(t *testing.T) {
	t.Parallel()

	r := omegaP()
	assert.True(t, r.FirstStepBeam())
	assert.Equal(t, []pid.PID{pid.Proton}, r.DetectedFinals(0))
	assert.Equal(t, []pid.PID{pid.PiPlus, pid.PiMinus}, r.DetectedFinals(1))
	assert.Equal(t, map[pid.PID]int{pid.Proton: 1, pid.PiPlus: 1, pid.PiMinus: 1, pid.Gamma: 2}, r.RequiredCounts())
	assert.Equal(t, pid.Mixed, r.Content())
	assert.False(t, r.HasMissingDecayProduct(0))

	r.Steps[2].Finals[1].Missing = true
	assert.True(t, r.HasMissingDecayProduct(2))
	assert.True(t, r.HasMissingDecayProduct(0))
	assert.Equal(t, pid.AllCharged, kLambda().Content())
}

func TestVertices(t *testing.T) {
	t.Parallel()

	v := kLambda().Vertices()
	require.Len(t, v, 2)
	assert.Equal(t, []int{0}, v[0].Steps)
	assert.True(t, v[0].Production)
	assert.Equal(t, []int{1}, v[1].Steps)
	assert.False(t, v[1].Production)
	assert.Equal(t, []int{0, 1}, kLambda().StepVertices())

	v = omegaP().Vertices()
	require.Len(t, v, 1)
	assert.Equal(t, []int{0, 1, 2}, v[0].Steps)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	in := `[{"name":"pi0_p","num_plus_minus_rf_bunches":2,"steps":[
		{"initial":"Gamma","target":"Proton","finals":[{"pid":"Pi0","decay_step":1},{"pid":"Proton"}]},
		{"initial":"Pi0","finals":[{"pid":"Gamma"},{"pid":"Gamma"}]}]}]`
	rxns, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rxns, 1)
	assert.Equal(t, "pi0_p", rxns[0].Name)
	assert.Equal(t, 2, rxns[0].NumPlusMinusRFBunches)
	assert.Equal(t, pid.PiZero, rxns[0].Steps[1].Initial)

	_, err = Decode(strings.NewReader(`[{"name":"x","steps":[{"initial":"Gamma","finals":[{"pid":"Muon"}]}]}]`))
	assert.True(t, errors.Is(err, pid.ErrUnknownPID))

	_, err = Decode(strings.NewReader(`[{"name":"a","steps":[{"initial":"Gamma","finals":[{"pid":"Gamma"}]}]},{"name":"a","steps":[{"initial":"Gamma","finals":[{"pid":"Gamma"}]}]}]`))
	assert.ErrorContains(t, err, "duplicate")
}

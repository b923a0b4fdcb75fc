package reaction

import (
	"errors"
	"fmt"

	"github.com/banshee-data/comboer/internal/pid"
)

// ErrInvalidStep is returned when a reaction's steps are not a well-formed decay chain.
var ErrInvalidStep = errors.New("invalid reaction step")

// Final is one final-state particle of a step.
type Final struct {
	PID pid.PID `json:"pid"`
	// Missing particles are inferred, never detected, and are not comboed.
	Missing bool `json:"missing,omitempty"`
	// DecayStep is the index of the step describing this particle's decay.
	// Zero means the particle does not decay: step 0 is always the first step.
	DecayStep int `json:"decay_step,omitempty"`
}

// Decays reports whether the particle has its own decay step.
func (f Final) Decays() bool { return f.DecayStep > 0 }

// Step is one reaction step: initial (+ target) → finals.
type Step struct {
	Initial pid.PID `json:"initial"`
	Target  pid.PID `json:"target,omitempty"`
	Finals  []Final `json:"finals"`
}

// Reaction is an ordered list of steps. Step 0 is the production step; every
// other step is the decay of a final-state particle of an earlier step.
type Reaction struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
	// NumPlusMinusRFBunches is how many RF bunches either side of the selected
	// one a beam photon may come from.
	NumPlusMinusRFBunches int `json:"num_plus_minus_rf_bunches"`
	// Skims lists event skim tags required before this reaction is comboed.
	Skims []string `json:"skims,omitempty"`
}

// Validate checks the decay links of the reaction.
func (r *Reaction) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: reaction %q has no steps", ErrInvalidStep, r.Name)
	}
	parents := make([]int, len(r.Steps))
	for i := range parents {
		parents[i] = -1
	}
	for si, step := range r.Steps {
		for fi, f := range step.Finals {
			if f.PID == pid.Unknown {
				return fmt.Errorf("%w: reaction %q step %d final %d has no particle kind", ErrInvalidStep, r.Name, si, fi)
			}
			if !f.Decays() {
				continue
			}
			if f.Missing {
				return fmt.Errorf("%w: reaction %q step %d final %d is missing but decays", ErrInvalidStep, r.Name, si, fi)
			}
			if f.DecayStep <= si || f.DecayStep >= len(r.Steps) {
				return fmt.Errorf("%w: reaction %q step %d final %d decays via step %d out of order", ErrInvalidStep, r.Name, si, fi, f.DecayStep)
			}
			if parents[f.DecayStep] >= 0 {
				return fmt.Errorf("%w: reaction %q step %d is the decay of more than one particle", ErrInvalidStep, r.Name, f.DecayStep)
			}
			if r.Steps[f.DecayStep].Initial != f.PID {
				return fmt.Errorf("%w: reaction %q step %d decays %s, linked from %s", ErrInvalidStep, r.Name, f.DecayStep, r.Steps[f.DecayStep].Initial, f.PID)
			}
			parents[f.DecayStep] = si
		}
	}
	for si := 1; si < len(r.Steps); si++ {
		if parents[si] < 0 {
			return fmt.Errorf("%w: reaction %q step %d is not linked from any final", ErrInvalidStep, r.Name, si)
		}
	}
	if r.NumPlusMinusRFBunches < 0 {
		return fmt.Errorf("%w: reaction %q num_plus_minus_rf_bunches must be non-negative", ErrInvalidStep, r.Name)
	}
	return nil
}

// FirstStepBeam reports whether the production step is initiated by a beam on a target.
func (r *Reaction) FirstStepBeam() bool {
	return r.Steps[0].Target != pid.Unknown
}

// HasMissingDecayProduct reports whether the step's decay chain contains a missing particle.
func (r *Reaction) HasMissingDecayProduct(step int) bool {
	for _, f := range r.Steps[step].Finals {
		if f.Missing {
			return true
		}
		if f.Decays() && r.HasMissingDecayProduct(f.DecayStep) {
			return true
		}
	}
	return false
}

// DetectedFinals returns the particles of a step that are detected directly:
// neither missing nor decaying.
func (r *Reaction) DetectedFinals(step int) []pid.PID {
	var out []pid.PID
	for _, f := range r.Steps[step].Finals {
		if !f.Missing && !f.Decays() {
			out = append(out, f.PID)
		}
	}
	return out
}

// RequiredCounts totals the detected particles over all steps.
func (r *Reaction) RequiredCounts() map[pid.PID]int {
	counts := make(map[pid.PID]int)
	for si := range r.Steps {
		for _, p := range r.DetectedFinals(si) {
			counts[p]++
		}
	}
	return counts
}

// Content classifies the detected particles of the whole reaction by charge.
func (r *Reaction) Content() pid.ChargeContent {
	first := true
	var c pid.ChargeContent
	for p := range r.RequiredCounts() {
		pc := pid.AllNeutral
		if p.IsCharged() {
			pc = pid.AllCharged
		}
		if first {
			c, first = pc, false
			continue
		}
		c = c.Merge(pc)
	}
	return c
}

func (r *Reaction) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("reaction(%d steps)", len(r.Steps))
}

package combo

import (
	"fmt"
	"slices"
)

// Stage is a comboing pass. Stages run in order for every charged combo.
type Stage uint8

const (
	// StageCharged builds groupings of charged tracks only.
	StageCharged Stage = iota
	// StageMixedZIndependent adds neutrals whose kinematics do not depend on
	// the vertex position.
	StageMixedZIndependent
	// StageMixed adds the remaining neutrals for a known vertex-z bin.
	StageMixed
)

func (s Stage) String() string {
	switch s {
	case StageCharged:
		return "charged"
	case StageMixedZIndependent:
		return "mixed_z_independent"
	case StageMixed:
		return "mixed"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// memoKey identifies one stored result. ctx is the charged-stage combo that
// a mixed-content result was built against, and nil otherwise.
type memoKey struct {
	stage Stage
	use   Use
	ctx   *Combo
}

// comboList is the stored result for one memoKey, in creation order.
type comboList struct {
	combos []*Combo
	// copied is the number of leading combos carried forward from the
	// z-independent stage.
	copied int

	byBunch      map[int][]*Combo
	unconstraint []*Combo
	merged       map[string][]*Combo
}

func (l *comboList) add(c *Combo, stage Stage) {
	l.combos = append(l.combos, c)
	if stage == StageCharged {
		return
	}
	if c.bunches.Unconstrained() {
		l.unconstraint = append(l.unconstraint, c)
		return
	}
	if l.byBunch == nil {
		l.byBunch = make(map[int][]*Combo)
	}
	for _, b := range c.bunches {
		l.byBunch[b] = append(l.byBunch[b], c)
	}
}

// compatible returns the combos whose bunch sets share a bunch with bunches,
// together with the unconstrained ones, in creation order. Merged lists are
// cached by bunch set.
func (l *comboList) compatible(bunches BunchSet) []*Combo {
	if bunches.Unconstrained() || (l.byBunch == nil && l.unconstraint == nil) {
		return l.combos
	}
	key := bunches.Key()
	if m, ok := l.merged[key]; ok {
		return m
	}
	m := l.unconstraint
	for _, b := range bunches {
		m = mergeCombos(m, l.byBunch[b])
	}
	if l.merged == nil {
		l.merged = make(map[string][]*Combo)
	}
	l.merged[key] = m
	return m
}

// mergeCombos merges two creation-ordered lists without duplicates.
func mergeCombos(a, b []*Combo) []*Combo {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]*Combo, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i].seq < b[j].seq):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j].seq < a[i].seq:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// resumeAfterSeq returns the position of the first combo created after seq.
func resumeAfterSeq(list []*Combo, seq uint32) int {
	i, found := slices.BinarySearchFunc(list, seq, func(c *Combo, s uint32) int {
		switch {
		case c.seq < s:
			return -1
		case c.seq > s:
			return 1
		}
		return 0
	})
	if found {
		i++
	}
	return i
}

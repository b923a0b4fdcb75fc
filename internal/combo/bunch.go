package combo

import (
	"slices"
	"strconv"
	"strings"
)

// BunchSet is the sorted set of RF bunches, relative to the event's RF time,
// still compatible with a combo's timing. The empty set means no constraint.
type BunchSet []int

// NewBunchSet returns the canonical set of the given bunches.
func NewBunchSet(bunches ...int) BunchSet {
	if len(bunches) == 0 {
		return nil
	}
	s := slices.Clone(bunches)
	slices.Sort(s)
	return BunchSet(slices.Compact(s))
}

// Unconstrained reports whether the set places no constraint.
func (b BunchSet) Unconstrained() bool { return len(b) == 0 }

// Contains reports whether bunch is in the set.
func (b BunchSet) Contains(bunch int) bool {
	_, ok := slices.BinarySearch(b, bunch)
	return ok
}

// Key is a compact string form used to index lists by bunch set.
func (b BunchSet) Key() string {
	if len(b) == 1 {
		return strconv.Itoa(b[0])
	}
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

func (b BunchSet) String() string { return "{" + b.Key() + "}" }

// Intersect combines two constraints. An unconstrained side yields the other
// side. ok is false when both sides are constrained and share no bunch, in
// which case the pairing must be discarded.
func Intersect(a, b BunchSet) (BunchSet, bool) {
	if a.Unconstrained() {
		return b, true
	}
	if b.Unconstrained() {
		return a, true
	}
	if slices.Equal(a, b) {
		return a, true
	}
	var out BunchSet
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out, len(out) > 0
}

// Union merges two sets.
func Union(a, b BunchSet) BunchSet {
	out := make(BunchSet, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
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

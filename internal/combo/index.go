package combo

import (
	"slices"

	"github.com/banshee-data/comboer/internal/event"
	"github.com/banshee-data/comboer/internal/pid"
)

// particleIndex serves per-event candidate lists. Every list is sorted by
// handle, which the vertical resume cursors rely on.
type particleIndex struct {
	ev        *event.Event
	timing    Timing
	showerTag string

	tracks  map[pid.PID][]event.Handle
	showers []event.Handle // all admitted showers; massive-neutral candidates
	byZ     map[ZBin]*photonIndex
}

// photonIndex holds the photon candidates usable with a vertex in one z bin.
type photonIndex struct {
	bunches map[event.Handle]BunchSet
	lists   map[string][]event.Handle // by BunchSet key; "" holds every usable shower
}

func newParticleIndex(ev *event.Event, timing Timing, showerTag string) *particleIndex {
	idx := &particleIndex{
		ev:        ev,
		timing:    timing,
		showerTag: showerTag,
		tracks:    make(map[pid.PID][]event.Handle),
		byZ:       make(map[ZBin]*photonIndex),
	}
	for i := range ev.Tracks {
		for _, h := range ev.Tracks[i].Hypotheses {
			idx.tracks[h.PID] = append(idx.tracks[h.PID], ev.TrackHandle(i))
		}
	}
	for i := range ev.Showers {
		if showerTag != "" && !ev.Showers[i].HasTag(showerTag) {
			continue
		}
		idx.showers = append(idx.showers, ev.ShowerHandle(i))
	}
	return idx
}

// numTracks is the number of tracks carrying hypothesis p.
func (idx *particleIndex) numTracks(p pid.PID) int { return len(idx.tracks[p]) }

// Particles returns the candidates for p. Charged kinds ignore the stage,
// bunch constraint and z bin. Massive neutrals depend on the vertex, so they
// are only offered on the full mixed stage. Photons are drawn from the
// index of zbin (the z-independent one on the z-independent stage) and
// restricted to showers compatible with bunches.
func (idx *particleIndex) Particles(p pid.PID, stage Stage, bunches BunchSet, zbin ZBin) []event.Handle {
	switch {
	case p.IsCharged():
		return idx.tracks[p]
	case p.IsMassiveNeutral():
		if stage != StageMixed {
			return nil
		}
		return idx.showers
	case p != pid.Gamma:
		return nil
	}
	if stage == StageMixedZIndependent {
		zbin = ZBinIndependent
	}
	return idx.photons(zbin).lookup(bunches)
}

// PhotonBunches is the valid bunch set of a photon candidate at zbin.
func (idx *particleIndex) PhotonBunches(h event.Handle, zbin ZBin) BunchSet {
	if idx.ev.MustShower(h).ZIndependent() {
		zbin = ZBinIndependent
	}
	return idx.photons(zbin).bunches[h]
}

// IsZIndependent reports whether leaf kinematics do not depend on the vertex.
func (idx *particleIndex) IsZIndependent(p pid.PID, h event.Handle) bool {
	switch {
	case p.IsCharged():
		return true
	case p == pid.Gamma:
		return idx.ev.MustShower(h).ZIndependent()
	}
	return false
}

func (idx *particleIndex) photons(zbin ZBin) *photonIndex {
	if pi, ok := idx.byZ[zbin]; ok {
		return pi
	}
	pi := &photonIndex{
		bunches: make(map[event.Handle]BunchSet),
		lists:   map[string][]event.Handle{"": nil},
	}
	for _, h := range idx.showers {
		sh := idx.ev.MustShower(h)
		bin := zbin
		if sh.ZIndependent() {
			bin = ZBinIndependent
		} else if zbin == ZBinIndependent {
			continue
		}
		b := idx.timing.ValidRFBunches(sh, bin)
		if b.Unconstrained() {
			continue
		}
		pi.bunches[h] = b
		pi.lists[""] = append(pi.lists[""], h)
		for _, bunch := range b {
			k := BunchSet{bunch}.Key()
			pi.lists[k] = append(pi.lists[k], h)
		}
	}
	idx.byZ[zbin] = pi
	return pi
}

// lookup returns the showers compatible with bunches, building and caching
// the union of the single-bunch lists the first time a set is requested.
func (pi *photonIndex) lookup(bunches BunchSet) []event.Handle {
	key := bunches.Key()
	if l, ok := pi.lists[key]; ok {
		return l
	}
	var merged []event.Handle
	for _, bunch := range bunches {
		merged = mergeHandles(merged, pi.lists[BunchSet{bunch}.Key()])
	}
	pi.lists[key] = merged
	return merged
}

// mergeHandles merges two sorted handle lists without duplicates.
func mergeHandles(a, b []event.Handle) []event.Handle {
	out := make([]event.Handle, 0, len(a)+len(b))
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

// resumeAfterHandle returns the position of the first handle greater than last.
func resumeAfterHandle(list []event.Handle, last event.Handle) int {
	i, found := slices.BinarySearch(list, last)
	if found {
		i++
	}
	return i
}

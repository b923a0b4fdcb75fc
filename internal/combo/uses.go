package combo

import (
	"slices"
	"strconv"
	"strings"

	"github.com/banshee-data/comboer/internal/pid"
	"github.com/banshee-data/comboer/internal/reaction"
)

// reactionUses is the analysed form of one reaction.
type reactionUses struct {
	reaction   *reaction.Reaction
	steps      []Use // per step; a zero Use when the step has nothing to combo
	primary    Use
	stepVertex []int
	nVertices  int
	required   map[pid.PID]int
}

// analyzeReaction builds the use of every step, decays before parents.
//
// A step's detected finals and decay uses are split by charge. A step with a
// single charge content becomes one shape. Otherwise the shape holds the mixed
// decays, the charged part and the neutral part; each part is promoted into the
// step's shape when it is a single class (a charged decay only with count one)
// and grouped under an unstructured sub-use otherwise.
func analyzeReaction(reg *Registry, r *reaction.Reaction) *reactionUses {
	ru := &reactionUses{
		reaction:   r,
		steps:      make([]Use, len(r.Steps)),
		stepVertex: r.StepVertices(),
		nVertices:  len(r.Vertices()),
		required:   r.RequiredCounts(),
	}
	for si := len(r.Steps) - 1; si >= 0; si-- {
		includeParent := !(si == 0 && r.FirstStepBeam()) && !r.HasMissingDecayProduct(si)

		var chargedP, neutralP []ParticleCount
		for _, p := range r.DetectedFinals(si) {
			if p.IsCharged() {
				chargedP = append(chargedP, ParticleCount{PID: p, Count: 1})
			} else {
				neutralP = append(neutralP, ParticleCount{PID: p, Count: 1})
			}
		}
		var chargedD, neutralD, mixedD []DecayCount
		for _, f := range r.Steps[si].Finals {
			if !f.Decays() {
				continue
			}
			u := ru.steps[f.DecayStep]
			if u.Info == nil {
				includeParent = false
				continue
			}
			dc := DecayCount{Use: u, Count: 1}
			switch u.Info.content {
			case pid.AllCharged:
				chargedD = append(chargedD, dc)
			case pid.AllNeutral:
				neutralD = append(neutralD, dc)
			default:
				mixedD = append(mixedD, dc)
			}
		}
		chargedP, chargedD = canonicalize(chargedP, chargedD)
		neutralP, neutralD = canonicalize(neutralP, neutralD)
		_, mixedD = canonicalize(nil, mixedD)

		hasCharged := len(chargedP) > 0 || len(chargedD) > 0
		hasNeutral := len(neutralP) > 0 || len(neutralD) > 0

		var info *Info
		switch {
		case !hasCharged && !hasNeutral:
			info = reg.MakeOrGet(nil, mixedD)
		case !hasNeutral && len(mixedD) == 0:
			info = reg.MakeOrGet(chargedP, chargedD)
		case !hasCharged && len(mixedD) == 0:
			info = reg.MakeOrGet(neutralP, neutralD)
		default:
			all := slices.Clone(mixedD)
			var allP []ParticleCount
			if hasCharged {
				if len(chargedP) == 0 && len(chargedD) == 1 && chargedD[0].Count == 1 {
					all = append(all, chargedD[0])
				} else {
					cu := Use{Parent: pid.Unknown, ZBin: ZBinIndependent, Info: reg.MakeOrGet(chargedP, chargedD)}
					all = append(all, DecayCount{Use: cu, Count: 1})
				}
			}
			if hasNeutral {
				switch {
				case len(neutralP) == 0 && len(neutralD) == 1:
					all = append(all, neutralD[0])
				case len(neutralD) == 0 && len(neutralP) == 1:
					allP = neutralP
				default:
					nu := Use{Parent: pid.Unknown, ZBin: ZBinIndependent, Info: reg.MakeOrGet(neutralP, neutralD)}
					all = append(all, DecayCount{Use: nu, Count: 1})
				}
			}
			info = reg.MakeOrGet(allP, all)
		}
		if info.NumClasses() == 0 {
			continue
		}
		parent := pid.Unknown
		if includeParent {
			parent = r.Steps[si].Initial
		}
		ru.steps[si] = Use{Parent: parent, ZBin: ZBinIndependent, Info: info}
	}
	ru.primary = ru.steps[0]
	return ru
}

// zDependentUse rebuilds the primary use with each step's vertex bin. Charged
// shapes keep the z-independent bin. Results are cached per bin list.
func (c *Comboer) zDependentUse(ru *reactionUses, bins []ZBin) Use {
	var kb strings.Builder
	kb.WriteString(ru.reaction.Name)
	for _, b := range bins {
		kb.WriteByte('/')
		kb.WriteString(strconv.Itoa(int(b)))
	}
	key := kb.String()
	if u, ok := c.zDependent[key]; ok {
		return u
	}
	created := make([]Use, len(ru.steps))
	for si := len(ru.steps) - 1; si >= 0; si-- {
		orig := ru.steps[si]
		if orig.Info == nil {
			continue
		}
		zbin := c.bins.CenterBin
		if v := ru.stepVertex[si]; v < len(bins) {
			zbin = bins[v]
		}
		created[si] = c.rebuildUse(ru, si, zbin, orig, created)
	}
	c.zDependent[key] = created[0]
	return created[0]
}

func (c *Comboer) rebuildUse(ru *reactionUses, si int, zbin ZBin, orig Use, created []Use) Use {
	if orig.Info.content == pid.AllCharged {
		return orig
	}
	ds := make([]DecayCount, 0, len(orig.Info.decays))
	for _, d := range orig.Info.decays {
		found := false
		for _, f := range ru.reaction.Steps[si].Finals {
			if f.Decays() && ru.steps[f.DecayStep] == d.Use {
				ds = append(ds, DecayCount{Use: created[f.DecayStep], Count: 1})
				found = true
			}
		}
		if !found {
			// an unstructured charged or neutral part of this step
			ds = append(ds, DecayCount{Use: c.rebuildUse(ru, si, zbin, d.Use, created), Count: d.Count})
		}
	}
	return Use{Parent: orig.Parent, ZBin: zbin, Info: c.reg.GetOrMake(orig.Info.particles, ds)}
}

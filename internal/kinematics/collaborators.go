package kinematics

import (
	"github.com/banshee-data/comboer/internal/combo"
	"github.com/banshee-data/comboer/internal/config"
)

// Collaborators is the reference set of comboer collaborators sharing one
// vertexer.
type Collaborators struct {
	Target   Target
	Vertexer *ChargedVertexer
	Timing   *RFTiming
	Mass     *MassCutter
}

// NewCollaborators wires the reference collaborators from cfg. Mass windows
// fall back to DefaultWindows when the configuration has none.
func NewCollaborators(cfg *config.ComboConfig) (*Collaborators, error) {
	target := Target{CenterZ: cfg.GetTargetCenterZ(), Length: cfg.GetTargetLength()}
	windows := DefaultWindows()
	if cw := cfg.GetMassWindows(); len(cw) > 0 {
		var err error
		if windows, err = WindowsFromConfig(cw); err != nil {
			return nil, err
		}
	}
	vertexer := NewChargedVertexer(target)
	timing := &RFTiming{
		PeriodNs:        cfg.GetRFBunchPeriodNs(),
		PhotonWindowNs:  cfg.GetPhotonTimeWindowNs(),
		ChargedWindowNs: cfg.GetChargedTimeWindowNs(),
		Target:          target,
		Vertexer:        vertexer,
	}
	return &Collaborators{
		Target:   target,
		Vertexer: vertexer,
		Timing:   timing,
		Mass:     &MassCutter{Windows: windows, Target: target, Timing: timing, Vertexer: vertexer},
	}, nil
}

// Options returns comboer options using these collaborators and the
// remaining settings of cfg.
func (c *Collaborators) Options(cfg *config.ComboConfig) combo.Options {
	return combo.Options{
		Geometry:              c.Target,
		Vertexer:              c.Vertexer,
		Timing:                c.Timing,
		Mass:                  c.Mass,
		ZBinWidth:             cfg.GetVertexZBinWidth(),
		ShowerSelectTag:       cfg.GetShowerSelectTag(),
		NumPlusMinusRFBunches: cfg.GetNumPlusMinusRFBunches(),
		MaxDepth:              cfg.GetMaxBuildDepth(),
	}
}

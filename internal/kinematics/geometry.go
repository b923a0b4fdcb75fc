package kinematics

// Target is a fixed cylindrical target on the beamline.
type Target struct {
	CenterZ float64
	Length  float64
}

// TargetCenterZ implements combo.Geometry.
func (t Target) TargetCenterZ() float64 { return t.CenterZ }

// TargetLength implements combo.Geometry.
func (t Target) TargetLength() float64 { return t.Length }

package combo

import "math"

// ZBinning lays out vertex-z bins of fixed width along the beamline so that
// the target centre is the centre of a bin. One extra bin past the target
// collects detached vertices.
type ZBinning struct {
	Low   float64 // lower edge of bin 0, cm
	Width float64 // cm
	N     int     // number of bins, including the detached-vertex bin
	// CenterBin is the bin containing the target centre.
	CenterBin ZBin
}

// NewZBinning lays out bins over a target of the given centre and length.
func NewZBinning(centerZ, length, width float64) ZBinning {
	upstream := centerZ - length/2
	downstream := centerZ + length/2
	low := centerZ - width/2
	for low > upstream {
		low -= width
	}
	n := int(math.Ceil((downstream-low)/width - 1e-9))
	b := ZBinning{Low: low, Width: width, N: n + 1}
	b.CenterBin = b.Bin(centerZ)
	return b
}

// Bin returns the bin containing z. Vertices upstream of the range are
// Unknown; downstream ones fall in the last bin.
func (b ZBinning) Bin(z float64) ZBin {
	if b.Width <= 0 || z < b.Low {
		return ZBinUnknown
	}
	i := int((z - b.Low) / b.Width)
	if i >= b.N {
		i = b.N - 1
	}
	return ZBin(i)
}

// Center returns the z at the centre of bin. Sentinel bins map to the target
// centre.
func (b ZBinning) Center(bin ZBin) float64 {
	if bin < 0 {
		if b.CenterBin < 0 {
			return b.Low
		}
		bin = b.CenterBin
	}
	return b.Low + (float64(bin)+0.5)*b.Width
}

package mcsim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Statistics summarises a relaxed system.
type Statistics struct {
	Energy     float64 `json:"energy"`
	Zeeman     float64 `json:"zeeman"`
	Anisotropy float64 `json:"anisotropy"`
	Exchange   float64 `json:"exchange"`
	DMI        float64 `json:"dmi"`

	Mean r3.Vec `json:"mean"`
	// Magnetization is the length of Mean.
	Magnetization float64 `json:"magnetization"`
	// TopologicalCharge is the skyrmion number of the field.
	TopologicalCharge float64 `json:"topological_charge"`
}

// GetStatistics computes the statistics of sys.
func GetStatistics(sys *System) Statistics {
	var stats Statistics
	stats.Zeeman = sys.Zeeman()
	stats.Anisotropy = sys.Anisotropy()
	stats.Exchange = sys.Exchange()
	stats.DMI = sys.DMI()
	stats.Energy = stats.Zeeman + stats.Anisotropy + stats.Exchange + stats.DMI

	stats.Mean = sys.s.Mean()
	stats.Magnetization = r3.Norm(stats.Mean)
	stats.TopologicalCharge = TopologicalCharge(sys.s)
	return stats
}

// TopologicalCharge returns the skyrmion number of f.
//
// Every plaquette is split into two triangles, and the signed solid angles spanned by the spins of
// each triangle are summed, see B. Berg and M. Luscher, Nuclear Physics B 190, 412 (1981).
// For a field that is uniform along the boundary the result is an integer.
func TopologicalCharge(f *Field) float64 {
	n := f.Dims()
	var omega float64
	for i := range n[0] - 1 {
		for j := range n[1] - 1 {
			a, b := f.At(i, j), f.At(i+1, j)
			c, d := f.At(i+1, j+1), f.At(i, j+1)
			omega += solidAngle(a, b, c) + solidAngle(a, c, d)
		}
	}
	return omega / (4 * math.Pi)
}

func solidAngle(a, b, c r3.Vec) float64 {
	num := r3.Dot(a, r3.Cross(b, c))
	den := 1 + r3.Dot(a, b) + r3.Dot(b, c) + r3.Dot(c, a)
	return 2 * math.Atan2(num, den)
}

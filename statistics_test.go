package mcsim

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// skyrmion returns a field with one compact skyrmion of radius r centered at c, and spins up elsewhere.
func skyrmion(n [2]int, c [2]float64, r float64, helicity float64) *Field {
	f := MustField(n)
	for i := range n[0] {
		for j := range n[1] {
			x, y := float64(i)-c[0], float64(j)-c[1]
			rho := math.Hypot(x, y)
			if rho >= r {
				continue
			}
			theta := math.Pi * (1 - rho/r)
			phi := math.Atan2(y, x) + helicity
			f.Set(i, j, r3.Vec{X: math.Sin(theta) * math.Cos(phi), Y: math.Sin(theta) * math.Sin(phi), Z: math.Cos(theta)})
		}
	}
	return f
}

func TestTopologicalCharge(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		f      *Field
		charge float64
	}{
		{name: "uniform", f: MustField([2]int{8, 9}), charge: 0},
		{name: "uniform tilted", f: MustField([2]int{4, 4}, r3.Vec{X: 1, Y: 2, Z: 3}), charge: 0},
		{name: "single row", f: MustField([2]int{1, 9}), charge: 0},
		{name: "neel", f: skyrmion([2]int{41, 41}, [2]float64{20, 20}, 15, 0), charge: 1},
		{name: "bloch", f: skyrmion([2]int{41, 41}, [2]float64{20, 20}, 15, math.Pi/2), charge: 1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s %v", test.name, test.f.Dims()), func(t *testing.T) {
			t.Parallel()
			// The sign of the charge depends on the handedness convention, compare magnitudes.
			q := math.Abs(TopologicalCharge(test.f))
			if !scalar.EqualWithinAbs(q, test.charge, 1e-6) {
				t.Fatalf("%v, expected %v", q, test.charge)
			}
		})
	}
}

func TestGetStatistics(t *testing.T) {
	t.Parallel()
	f := MustField([2]int{5, 6})
	for i := range 5 {
		for j := range 3 {
			f.Set(i, j, yHat)
		}
	}
	sys, err := NewSystem(f, Params{B: r3.Vec{X: 0, Y: 0, Z: 1}, K: 1, U: Up, J: 1, D: 1})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	stats := GetStatistics(sys)
	expected := Statistics{
		Energy:        -69,
		Zeeman:        -15,
		Anisotropy:    -15,
		Exchange:      -44,
		DMI:           5,
		Mean:          r3.Vec{X: 0, Y: 0.5, Z: 0.5},
		Magnetization: math.Sqrt(0.5),
	}
	for _, c := range []struct {
		name      string
		got, want float64
	}{
		{"energy", stats.Energy, expected.Energy},
		{"zeeman", stats.Zeeman, expected.Zeeman},
		{"anisotropy", stats.Anisotropy, expected.Anisotropy},
		{"exchange", stats.Exchange, expected.Exchange},
		{"dmi", stats.DMI, expected.DMI},
		{"magnetization", stats.Magnetization, expected.Magnetization},
		{"charge", stats.TopologicalCharge, expected.TopologicalCharge},
	} {
		if !scalar.EqualWithinAbs(c.got, c.want, 1e-9) {
			t.Fatalf("%s %v, expected %v", c.name, c.got, c.want)
		}
	}
	if !vecEqual(stats.Mean, expected.Mean, 1e-12) {
		t.Fatalf("%v, expected %v", stats.Mean, expected.Mean)
	}
}

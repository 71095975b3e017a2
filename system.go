package mcsim

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// dmiHorizontal is the DMI vector of the bond (i, j)-(i, j+1).
	dmiHorizontal = r3.Vec{X: 1, Y: 0, Z: 0}
	// dmiVertical is the DMI vector of the bond (i, j)-(i+1, j).
	dmiVertical = r3.Vec{X: 0, Y: -1, Z: 0}
)

// Params are the material parameters of a System.
type Params struct {
	// B is the external magnetic field.
	B r3.Vec `json:"b" yaml:"b"`
	// K is the uniaxial anisotropy constant.
	K float64 `json:"k" yaml:"k"`
	// U is the anisotropy axis, it need not be of unit length.
	U r3.Vec `json:"u" yaml:"u"`
	// J is the exchange constant.
	J float64 `json:"j" yaml:"j"`
	// D is the DMI constant.
	D float64 `json:"d" yaml:"d"`
}

// System computes the energy of a Field.
// It only reads the field, and never caches: every call sums over the whole lattice.
type System struct {
	s *Field
	p Params
}

// NewSystem returns the energy model of field s with parameters p.
func NewSystem(s *Field, p Params) (*System, error) {
	if s == nil {
		return nil, errors.Wrap(ErrValidation, "nil field")
	}
	for _, v := range []r3.Vec{p.B, p.U, {X: p.K, Y: p.J, Z: p.D}} {
		if !finite(v) {
			return nil, errors.Wrap(ErrValidation, fmt.Sprintf("%#v", p))
		}
	}
	if r3.Norm(p.U) == 0 {
		return nil, errors.Wrap(ErrValidation, fmt.Sprintf("zero anisotropy axis %#v", p.U))
	}
	return &System{s: s, p: p}, nil
}

// Field returns the field of the system.
func (sys *System) Field() *Field { return sys.s }

// Params returns the parameters of the system.
func (sys *System) Params() Params { return sys.p }

// Energy returns the total energy, the sum of the Zeeman, anisotropy, exchange and DMI energies.
func (sys *System) Energy() float64 {
	return sys.Zeeman() + sys.Anisotropy() + sys.Exchange() + sys.DMI()
}

// Zeeman returns the sum of -s·B over all sites.
func (sys *System) Zeeman() float64 {
	var e float64
	for _, s := range sys.s.spins {
		e += zeeman(s, sys.p.B)
	}
	return e
}

// Anisotropy returns the sum of -K (s·u)² over all sites, where u is the normalised anisotropy axis.
func (sys *System) Anisotropy() float64 {
	u := r3.Unit(sys.p.U)
	var e float64
	for _, s := range sys.s.spins {
		e += anisotropy(s, sys.p.K, u)
	}
	return e
}

// Exchange returns -J times the sum of s·s' over all nearest neighbour bonds.
func (sys *System) Exchange() float64 {
	var sum float64
	sys.bonds(func(a, b r3.Vec, _ r3.Vec) {
		sum += r3.Dot(a, b)
	})
	return -sys.p.J * sum
}

// DMI returns D times the sum of d·(s×s') over all nearest neighbour bonds.
// d is (1, 0, 0) for bonds along the second lattice index, and (0, -1, 0) for bonds along the first.
func (sys *System) DMI() float64 {
	var sum float64
	sys.bonds(func(a, b r3.Vec, d r3.Vec) {
		sum += r3.Dot(d, r3.Cross(a, b))
	})
	return sys.p.D * sum
}

// SiteEnergy returns the terms of the total energy that depend on the spin at site (i, j).
// Changing only that spin changes Energy by exactly the change of SiteEnergy.
func (sys *System) SiteEnergy(i, j int) float64 {
	n := sys.s.n
	s := sys.s.At(i, j)
	e := zeeman(s, sys.p.B) + anisotropy(s, sys.p.K, r3.Unit(sys.p.U))

	// Bonds keep the orientation of their lower index spin.
	if left := j - 1; left >= 0 {
		e += bond(sys.s.At(i, left), s, dmiHorizontal, sys.p.J, sys.p.D)
	}
	if right := j + 1; right < n[1] {
		e += bond(s, sys.s.At(i, right), dmiHorizontal, sys.p.J, sys.p.D)
	}
	if up := i - 1; up >= 0 {
		e += bond(sys.s.At(up, j), s, dmiVertical, sys.p.J, sys.p.D)
	}
	if down := i + 1; down < n[0] {
		e += bond(s, sys.s.At(down, j), dmiVertical, sys.p.J, sys.p.D)
	}
	return e
}

// bonds calls fn once for every nearest neighbour bond (a, b) of the open lattice, with its DMI vector.
func (sys *System) bonds(fn func(a, b, d r3.Vec)) {
	n := sys.s.n
	for i := range n[0] {
		for j := range n[1] - 1 {
			fn(sys.s.At(i, j), sys.s.At(i, j+1), dmiHorizontal)
		}
	}
	for j := range n[1] {
		for i := range n[0] - 1 {
			fn(sys.s.At(i, j), sys.s.At(i+1, j), dmiVertical)
		}
	}
}

func zeeman(s, b r3.Vec) float64 {
	return -r3.Dot(s, b)
}

func anisotropy(s r3.Vec, k float64, u r3.Vec) float64 {
	su := r3.Dot(s, u)
	return -k * su * su
}

func bond(a, b, d r3.Vec, j, dmi float64) float64 {
	return -j*r3.Dot(a, b) + dmi*r3.Dot(d, r3.Cross(a, b))
}

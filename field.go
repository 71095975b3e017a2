// Package mcsim minimises the magnetic energy of a two-dimensional lattice of unit spins
// with a greedy single-site Monte Carlo search.
//
// The energy has four terms: Zeeman, uniaxial anisotropy, nearest neighbour exchange and
// Dzyaloshinskii-Moriya interaction (DMI). The lattice has open boundaries.
package mcsim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// Up is the default spin value.
	Up = r3.Vec{X: 0, Y: 0, Z: 1}
)

// Field is a two-dimensional lattice of three-dimensional spins.
// Spins are stored row major, site (i, j) is at i*ny + j.
//
// A Field is not safe for concurrent use.
// During Drive the driver is the only writer, and a System only reads it.
type Field struct {
	n     [2]int
	spins []r3.Vec
}

// NewField creates a lattice of n[0] x n[1] spins, all equal to value.
// value defaults to Up, and is normalised if it is not of unit length.
func NewField(n [2]int, value ...r3.Vec) (*Field, error) {
	if n[0] <= 0 || n[1] <= 0 {
		return nil, errors.Wrap(ErrValidation, fmt.Sprintf("dimensions %#v", n))
	}
	v := Up
	switch len(value) {
	case 0:
	case 1:
		v = value[0]
	default:
		return nil, errors.Wrap(ErrValidation, fmt.Sprintf("%d values", len(value)))
	}
	if !finite(v) {
		return nil, errors.Wrap(ErrValidation, fmt.Sprintf("value %#v", v))
	}

	f := &Field{n: n, spins: make([]r3.Vec, n[0]*n[1])}
	for i := range f.spins {
		f.spins[i] = v
	}

	if !scalar.EqualWithinAbsOrRel(r3.Norm2(v), 1, 1e-8, 1e-5) {
		if err := f.Normalise(); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("value %#v", v))
		}
	}
	return f, nil
}

// MustField is like NewField but panics on error.
func MustField(n [2]int, value ...r3.Vec) *Field {
	f, err := NewField(n, value...)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return f
}

// Dims returns the lattice dimensions {nx, ny}.
func (f *Field) Dims() [2]int { return f.n }

// Len returns the number of sites.
func (f *Field) Len() int { return len(f.spins) }

// At returns the spin at site (i, j).
func (f *Field) At(i, j int) r3.Vec {
	return f.spins[f.index(i, j)]
}

// Set overwrites the spin at site (i, j).
// v is stored as is, callers are responsible for its length.
func (f *Field) Set(i, j int, v r3.Vec) {
	f.spins[f.index(i, j)] = v
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := &Field{n: f.n, spins: make([]r3.Vec, len(f.spins))}
	copy(c.spins, f.spins)
	return c
}

// Mean returns the component-wise average of all spins.
// The result is not normalised.
func (f *Field) Mean() r3.Vec {
	var sum r3.Vec
	for _, s := range f.spins {
		sum = r3.Add(sum, s)
	}
	return r3.Scale(1/float64(len(f.spins)), sum)
}

// Magnitude returns the Euclidean norm of every spin as an nx x ny matrix.
func (f *Field) Magnitude() *mat.Dense {
	m := mat.NewDense(f.n[0], f.n[1], nil)
	for i := range f.n[0] {
		for j := range f.n[1] {
			m.Set(i, j, r3.Norm(f.At(i, j)))
		}
	}
	return m
}

// Normalise scales every spin to unit length.
// If any spin has zero or non-finite length, ErrDomain is returned and f is left unchanged.
func (f *Field) Normalise() error {
	for k, s := range f.spins {
		if norm := r3.Norm(s); norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
			return errors.Wrap(ErrDomain, fmt.Sprintf("site %#v %#v", f.site(k), s))
		}
	}
	for k, s := range f.spins {
		f.spins[k] = r3.Unit(s)
	}
	return nil
}

// Randomise sets every spin to a random direction.
// Components are first drawn uniformly from [-1, 1] and the field is then normalised.
func (f *Field) Randomise(rng *rand.Rand) error {
	r := &Field{n: f.n, spins: make([]r3.Vec, len(f.spins))}
	for k := range r.spins {
		r.spins[k] = r3.Vec{X: 2*rng.Float64() - 1, Y: 2*rng.Float64() - 1, Z: 2*rng.Float64() - 1}
	}
	if err := r.Normalise(); err != nil {
		return errors.Wrap(err, "")
	}
	f.spins = r.spins
	return nil
}

func (f *Field) index(i, j int) int {
	if i < 0 || i >= f.n[0] || j < 0 || j >= f.n[1] {
		panic(fmt.Sprintf("site %d %d out of %#v", i, j, f.n))
	}
	return i*f.n[1] + j
}

func (f *Field) site(k int) [2]int {
	return [2]int{k / f.n[1], k % f.n[1]}
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

package mcsim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// DriveOptions are options for Drive.
type DriveOptions struct {
	stepSize float64
	local    bool
}

// NewDriveOptions returns the default options: step size 0.1 and full energy recomputation.
func NewDriveOptions() DriveOptions {
	opt := DriveOptions{}
	opt.stepSize = 0.1
	return opt
}

// StepSize sets the maximum absolute value of each component of a trial perturbation.
func (opt DriveOptions) StepSize(alpha float64) DriveOptions {
	opt.stepSize = alpha
	return opt
}

// Local sets whether a trial is judged by the energy of the bonds touching the perturbed site,
// instead of two evaluations of the total energy.
// Both give the same acceptance decisions up to floating point rounding.
func (opt DriveOptions) Local(local bool) DriveOptions {
	opt.local = local
	return opt
}

// Perturb returns s plus a random vector with components uniform in [-alpha, alpha], normalised to unit length.
func Perturb(s r3.Vec, alpha float64, rng *rand.Rand) (r3.Vec, error) {
	delta := r3.Vec{X: 2*rng.Float64() - 1, Y: 2*rng.Float64() - 1, Z: 2*rng.Float64() - 1}
	s1 := r3.Add(s, r3.Scale(alpha, delta))
	if norm := r3.Norm(s1); norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return r3.Vec{}, errors.Wrap(ErrDomain, fmt.Sprintf("%#v", s1))
	}
	return r3.Unit(s1), nil
}

// Drive performs n greedy Monte Carlo steps on the field of sys.
//
// Each step picks a site uniformly at random, perturbs its spin, and reverts the perturbation if
// the total energy increased. Moves that keep the energy unchanged are accepted.
// The energy of sys therefore never increases.
//
// Drive is the only writer of the field while it runs.
// ctx is checked between steps, if it is done the field is left consistent and the context error returned.
func Drive(ctx context.Context, sys *System, n int, rng *rand.Rand, options ...DriveOptions) error {
	opt := NewDriveOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if sys == nil || rng == nil {
		return errors.Wrap(ErrValidation, "nil system or random source")
	}
	if n < 1 {
		return errors.Wrap(ErrValidation, fmt.Sprintf("steps %d", n))
	}
	if !(opt.stepSize >= 0) || math.IsInf(opt.stepSize, 0) {
		return errors.Wrap(ErrValidation, fmt.Sprintf("step size %f", opt.stepSize))
	}

	dims := sys.s.Dims()
	for step := range n {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), fmt.Sprintf("step %d", step))
		default:
		}

		i, j := rng.IntN(dims[0]), rng.IntN(dims[1])
		if err := trial(sys, i, j, rng, opt); err != nil {
			return errors.Wrap(err, fmt.Sprintf("step %d site %d %d", step, i, j))
		}
	}
	return nil
}

// trial perturbs site (i, j) and keeps the perturbation only if the energy did not increase.
// Only the previous value of the site is kept for rollback.
func trial(sys *System, i, j int, rng *rand.Rand, opt DriveOptions) error {
	energy := sys.Energy
	if opt.local {
		energy = func() float64 { return sys.SiteEnergy(i, j) }
	}

	e0 := energy()
	prev := sys.s.At(i, j)
	next, err := Perturb(prev, opt.stepSize, rng)
	if err != nil {
		return errors.Wrap(err, "")
	}

	sys.s.Set(i, j, next)
	e1 := energy()
	if e1 > e0 {
		sys.s.Set(i, j, prev)
	}
	return nil
}

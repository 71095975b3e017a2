package mcsim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunReplicas relaxes independent replicas concurrently, one for each seed.
//
// newSystem builds the initial system of a replica, typically randomising a fresh field with rng.
// Replicas share no mutable state: each has its own field and its own random source seeded by its seed,
// so the result of a replica depends only on its seed.
// The returned systems are in the order of seeds.
func RunReplicas(ctx context.Context, seeds []uint64, newSystem func(rng *rand.Rand) (*System, error), n int, options ...DriveOptions) ([]*System, error) {
	systems := make([]*System, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for idx, seed := range seeds {
		g.Go(func() error {
			rng := NewRand(seed)
			sys, err := newSystem(rng)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("seed %d", seed))
			}
			if err := Drive(ctx, sys, n, rng, options...); err != nil {
				return errors.Wrap(err, fmt.Sprintf("seed %d", seed))
			}
			systems[idx] = sys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return systems, nil
}

// Lowest returns the index of the system with the lowest total energy, or -1 if there are none.
func Lowest(systems []*System) int {
	best := -1
	var bestE float64
	for i, sys := range systems {
		e := sys.Energy()
		if best == -1 || e < bestE {
			best, bestE = i, e
		}
	}
	return best
}

// NewRand returns a PCG random source seeded by seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

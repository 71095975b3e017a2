package mcsim_test

import (
	"context"
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mcsim"
)

func Example() {
	// A 5x6 lattice whose first three columns point along y.
	s, err := mcsim.NewField([2]int{5, 6})
	if err != nil {
		log.Fatalf("%+v", err)
	}
	for i := range 5 {
		for j := range 3 {
			s.Set(i, j, r3.Vec{X: 0, Y: 1, Z: 0})
		}
	}

	system, err := mcsim.NewSystem(s, mcsim.Params{
		B: r3.Vec{X: 0, Y: 0, Z: 0.1},
		K: 0.01,
		U: r3.Vec{X: 0, Y: 0, Z: 1},
		J: 1,
		D: 1,
	})
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Printf("exchange %.1f dmi %.1f\n", system.Exchange(), system.DMI())

	// Relax with the greedy Monte Carlo driver.
	e0 := system.Energy()
	if err := mcsim.Drive(context.Background(), system, 10_000, mcsim.NewRand(1)); err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Printf("energy decreased %v\n", system.Energy() < e0)

	// Output:
	// exchange -44.0 dmi 5.0
	// energy decreased true
}

// Package config reads and writes YAML run configurations.
package config

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/fumin/mcsim"
)

const (
	InitUniform = "uniform"
	InitRandom  = "random"

	DefaultSteps    = 100_000
	DefaultStepSize = 0.1
)

// Config describes one relaxation.
type Config struct {
	Lattice [2]int     `yaml:"lattice"`
	Init    string     `yaml:"init"`
	Value   [3]float64 `yaml:"value"`

	B [3]float64 `yaml:"b"`
	K float64    `yaml:"k"`
	U [3]float64 `yaml:"u"`
	J float64    `yaml:"j"`
	D float64    `yaml:"d"`

	Steps    int     `yaml:"steps"`
	StepSize float64 `yaml:"step_size"`
	Local    bool    `yaml:"local"`
	Seed     uint64  `yaml:"seed"`
	Replicas int     `yaml:"replicas"`
}

// DefaultConfig returns a ferromagnet on a 20x20 lattice, starting from a random field.
func DefaultConfig() *Config {
	return &Config{
		Lattice:  [2]int{20, 20},
		Init:     InitRandom,
		Value:    [3]float64{0, 0, 1},
		U:        [3]float64{0, 0, 1},
		J:        1,
		Steps:    DefaultSteps,
		StepSize: DefaultStepSize,
		Seed:     1,
		Replicas: 1,
	}
}

// Load reads a configuration from path.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Validate reports a configuration that cannot be run.
// Returned errors match mcsim.ErrValidation.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Wrap(mcsim.ErrValidation, fmt.Sprintf(format, args...))
	}
	if c.Lattice[0] < 1 || c.Lattice[1] < 1 {
		return invalid("lattice %v", c.Lattice)
	}
	switch c.Init {
	case InitUniform:
		if v := vec(c.Value); r3.Norm(v) == 0 || !finite(v) {
			return invalid("value %v", c.Value)
		}
	case InitRandom:
	default:
		return invalid("init %q", c.Init)
	}
	if c.Steps < 1 {
		return invalid("steps %d", c.Steps)
	}
	if c.StepSize < 0 || math.IsNaN(c.StepSize) || math.IsInf(c.StepSize, 0) {
		return invalid("step size %f", c.StepSize)
	}
	if c.Replicas < 1 {
		return invalid("replicas %d", c.Replicas)
	}
	return nil
}

// Params returns the material parameters.
func (c *Config) Params() mcsim.Params {
	return mcsim.Params{B: vec(c.B), K: c.K, U: vec(c.U), J: c.J, D: c.D}
}

// DriveOptions returns the options of the Monte Carlo driver.
func (c *Config) DriveOptions() mcsim.DriveOptions {
	return mcsim.NewDriveOptions().StepSize(c.StepSize).Local(c.Local)
}

// Seeds returns one seed per replica, starting at Seed.
func (c *Config) Seeds() []uint64 {
	seeds := make([]uint64, c.Replicas)
	for i := range seeds {
		seeds[i] = c.Seed + uint64(i)
	}
	return seeds
}

// NewSystem returns the initial state of a replica.
// rng is only used for random initial fields.
func (c *Config) NewSystem(rng *rand.Rand) (*mcsim.System, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	var f *mcsim.Field
	var err error
	switch c.Init {
	case InitUniform:
		f, err = mcsim.NewField(c.Lattice, vec(c.Value))
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
	default:
		f, err = mcsim.NewField(c.Lattice)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if err := f.Randomise(rng); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	sys, err := mcsim.NewSystem(f, c.Params())
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return sys, nil
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

func finite(v r3.Vec) bool {
	for _, x := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

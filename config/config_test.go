package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mcsim"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("%+v", err)
	}
	if cfg.StepSize != DefaultStepSize {
		t.Fatalf("%f, expected %f", cfg.StepSize, DefaultStepSize)
	}
	if seeds := cfg.Seeds(); !slices.Equal(seeds, []uint64{1}) {
		t.Fatalf("%v", seeds)
	}
}

func TestLoadSave(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Lattice = [2]int{7, 9}
	cfg.B = [3]float64{0, 0, 0.25}
	cfg.D = 0.5
	cfg.Local = true
	cfg.Replicas = 3
	if err := Save(path, cfg); err != nil {
		t.Fatalf("%+v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if *loaded != *cfg {
		t.Fatalf("%#v, expected %#v", loaded, cfg)
	}
	if seeds := loaded.Seeds(); !slices.Equal(seeds, []uint64{1, 2, 3}) {
		t.Fatalf("%v", seeds)
	}
}

func TestLoadPartial(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("lattice: [3, 4]\nd: 0.7\n"), 0644); err != nil {
		t.Fatalf("%+v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if cfg.Lattice != [2]int{3, 4} || cfg.D != 0.7 {
		t.Fatalf("%#v", cfg)
	}
	if cfg.Steps != DefaultSteps || cfg.J != 1 {
		t.Fatalf("%#v, expected defaults", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		modify func(*Config)
	}{
		{modify: func(c *Config) { c.Lattice = [2]int{0, 3} }},
		{modify: func(c *Config) { c.Init = "spiral" }},
		{modify: func(c *Config) { c.Init, c.Value = InitUniform, [3]float64{} }},
		{modify: func(c *Config) { c.Steps = 0 }},
		{modify: func(c *Config) { c.StepSize = -1 }},
		{modify: func(c *Config) { c.Replicas = 0 }},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			test.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, mcsim.ErrValidation) {
				t.Fatalf("%+v, expected %v", err, mcsim.ErrValidation)
			}
		})
	}
}

func TestNewSystem(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Lattice = [2]int{4, 5}
	cfg.Init = InitUniform
	cfg.Value = [3]float64{0, 3, 4}
	cfg.B = [3]float64{0, 1, 0}

	sys, err := cfg.NewSystem(mcsim.NewRand(1))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if n := sys.Field().Dims(); n != cfg.Lattice {
		t.Fatalf("%v, expected %v", n, cfg.Lattice)
	}
	if m, expected := sys.Field().Mean(), (r3.Vec{X: 0, Y: 0.6, Z: 0.8}); r3.Norm(r3.Sub(m, expected)) > 1e-12 {
		t.Fatalf("%v, expected %v", m, expected)
	}
	if z, expected := sys.Zeeman(), -0.6*20; !scalar.EqualWithinAbs(z, expected, 1e-9) {
		t.Fatalf("%f, expected %f", z, expected)
	}

	// Random fields are reproducible from the seed.
	cfg.Init = InitRandom
	a, err := cfg.NewSystem(mcsim.NewRand(7))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	b, err := cfg.NewSystem(mcsim.NewRand(7))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if a.Energy() != b.Energy() {
		t.Fatalf("%f %f", a.Energy(), b.Energy())
	}
}

func TestPresets(t *testing.T) {
	t.Parallel()
	names := ListPresets()
	if expected := []string{"ferromagnet", "helix", "skyrmion"}; !slices.Equal(names, expected) {
		t.Fatalf("%v, expected %v", names, expected)
	}
	for _, name := range names {
		cfg := GetPreset(name)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s %+v", name, err)
		}
	}

	// Presets are copied.
	cfg := GetPreset("helix")
	cfg.D = 100
	if Presets["helix"].D == 100 {
		t.Fatalf("preset modified")
	}
	if GetPreset("vortex") != nil {
		t.Fatalf("expected nil")
	}
}

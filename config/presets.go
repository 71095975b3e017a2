package config

import (
	"slices"
)

// Presets are named configurations.
var Presets = map[string]*Config{
	// skyrmion relaxes a random field under a perpendicular field strong enough to isolate skyrmions.
	"skyrmion": {
		Lattice: [2]int{30, 30}, Init: InitRandom, Value: [3]float64{0, 0, 1},
		B: [3]float64{0, 0, 0.3}, K: 0.05, U: [3]float64{0, 0, 1}, J: 1, D: 0.6,
		Steps: 2_000_000, StepSize: 0.2, Local: true, Seed: 1, Replicas: 1,
	},
	"ferromagnet": {
		Lattice: [2]int{20, 20}, Init: InitRandom, Value: [3]float64{0, 0, 1},
		U: [3]float64{0, 0, 1}, K: 0.1, J: 1,
		Steps: 500_000, StepSize: 0.1, Local: true, Seed: 1, Replicas: 1,
	},
	// helix has no field, so DMI winds the spins into spirals.
	"helix": {
		Lattice: [2]int{40, 40}, Init: InitUniform, Value: [3]float64{0, 0, 1},
		U: [3]float64{0, 0, 1}, J: 1, D: 1,
		Steps: 2_000_000, StepSize: 0.2, Local: true, Seed: 1, Replicas: 1,
	},
}

// GetPreset returns a copy of the named preset, or nil if none exists.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

// ListPresets returns the preset names in lexical order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

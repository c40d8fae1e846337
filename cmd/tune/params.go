package main

import (
	"github.com/pthm-cable/wake/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the parameter set, with defaults taken from base.
func NewParamVector(base *config.Config) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "force_multiplier", Path: "wake.force_multiplier", Min: 0.05, Max: 3.0, Default: base.Wake.ForceMultiplier},
			{Name: "viscosity", Path: "fluid.viscosity", Min: 0.90, Max: 0.999, Default: base.Fluid.Viscosity},
			{Name: "radius_cells", Path: "wake.radius_cells", Min: 2, Max: 16, Default: base.Wake.RadiusCells},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp bounds every value to its spec.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Wake.ForceMultiplier = c[0]
	cfg.Fluid.Viscosity = c[1]
	cfg.Wake.RadiusCells = c[2]
}

// Overlay is the YAML written for the best parameters. Loading it over the
// defaults changes only these keys.
type Overlay struct {
	Fluid struct {
		Viscosity float64 `yaml:"viscosity"`
	} `yaml:"fluid"`
	Wake struct {
		ForceMultiplier float64 `yaml:"force_multiplier"`
		RadiusCells     float64 `yaml:"radius_cells"`
	} `yaml:"wake"`
}

// NewOverlay builds an overlay from parameter values.
func (pv *ParamVector) NewOverlay(values []float64) Overlay {
	c := pv.Clamp(values)
	var o Overlay
	o.Wake.ForceMultiplier = c[0]
	o.Fluid.Viscosity = c[1]
	o.Wake.RadiusCells = c[2]
	return o
}

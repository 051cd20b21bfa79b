package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights are the fixed per-indicator scaling constants applied after
// max-based normalization. They are hand-chosen for visual stacking
// balance, not derived from data, and are treated as configuration.
type Weights struct {
	GHGs           float64 `yaml:"ghgs"`
	LandUse        float64 `yaml:"land_use"`
	WaterScarcity  float64 `yaml:"water_scarcity"`
	Eutrophication float64 `yaml:"eutrophication"`
	Acidification  float64 `yaml:"acidification"`
	Biodiversity   float64 `yaml:"biodiversity"`
}

// DefaultWeights returns the built-in chart weights.
func DefaultWeights() Weights {
	return Weights{
		GHGs:           1.0,
		LandUse:        0.9,
		WaterScarcity:  0.6,
		Eutrophication: 0.8,
		Acidification:  0.8,
		Biodiversity:   0.7,
	}
}

// LoadWeights reads per-indicator weights from a YAML file. An empty
// path returns the defaults. Weights omitted from the file keep their
// default value.
func LoadWeights(path string) (Weights, error) {
	weights := DefaultWeights()
	if path == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return weights, fmt.Errorf("failed to read weights file: %w", err)
	}

	if err := yaml.Unmarshal(data, &weights); err != nil {
		return weights, fmt.Errorf("failed to parse weights file: %w", err)
	}

	for _, w := range []float64{
		weights.GHGs, weights.LandUse, weights.WaterScarcity,
		weights.Eutrophication, weights.Acidification, weights.Biodiversity,
	} {
		if w < 0 {
			return weights, fmt.Errorf("weights must be non-negative, got %v", w)
		}
	}

	return weights, nil
}

package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is one per-symbol parameter override in the YAML presets file.
type Preset struct {
	Symbol          string  `yaml:"symbol"`
	Lookback        int     `yaml:"lookback"`
	ProfitTargetPct float64 `yaml:"profit_target_pct"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`
}

type presetFile struct {
	Symbols []Preset `yaml:"symbols"`
}

// LoadPresets reads per-symbol parameter presets from a YAML file.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	return file.Symbols, nil
}

// ApplyPresets registers presets, filling unset fields from the registry
// defaults.
func (r *Registry) ApplyPresets(presets []Preset) {
	for _, p := range presets {
		if p.Symbol == "" {
			continue
		}
		params := r.defaults
		if p.Lookback > 0 {
			params.Lookback = p.Lookback
		}
		if p.ProfitTargetPct > 0 {
			params.ProfitTargetPct = p.ProfitTargetPct
		}
		if p.StopLossPct > 0 {
			params.StopLossPct = p.StopLossPct
		}
		r.SetPreset(p.Symbol, params)
	}
}

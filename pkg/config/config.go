// Package config implements EcoLang run configuration loading. Callers
// may request limits and eco parameters, but every requested limit is
// clamped to the engine's safe ceilings so configuration can never widen
// the sandbox.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecorun/ecolang/pkg/eco"
	"github.com/ecorun/ecolang/pkg/govern"
)

// File represents the YAML structure of a config file. Zero fields fall
// back to the defaults.
type File struct {
	MaxSteps       int64   `yaml:"max_steps,omitempty"`
	MaxLoop        int64   `yaml:"max_loop,omitempty"`
	MaxTimeS       float64 `yaml:"max_time_s,omitempty"`
	MaxOutputChars int     `yaml:"max_output_chars,omitempty"`
	MaxCallDepth   int     `yaml:"max_call_depth,omitempty"`
	MaxParams      int     `yaml:"max_params,omitempty"`

	EnergyPerOpJ float64 `yaml:"energy_per_op_J,omitempty"`
	IdlePowerW   float64 `yaml:"idle_power_W,omitempty"`
	CO2PerKWhG   float64 `yaml:"co2_per_kwh_g,omitempty"`
}

// Config is a resolved, clamped run configuration.
type Config struct {
	Limits govern.Limits
	Params eco.Params
}

// Default returns the engine defaults.
func Default() Config {
	return Config{
		Limits: govern.DefaultLimits(),
		Params: eco.DefaultParams(),
	}
}

// Load reads one YAML config file and resolves it against the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return Resolve(&f), nil
}

// Discover loads configuration with project-file precedence: a
// .ecolang.yaml in projectDir wins over ~/.ecolang/config.yaml; if
// neither exists the defaults apply.
func Discover(projectDir string) Config {
	if cfg, err := Load(filepath.Join(projectDir, ".ecolang.yaml")); err == nil {
		return cfg
	}
	if home, err := os.UserHomeDir(); err == nil {
		if cfg, err := Load(filepath.Join(home, ".ecolang", "config.yaml")); err == nil {
			return cfg
		}
	}
	return Default()
}

// Resolve merges a parsed file onto the defaults and clamps every limit
// to the safe ceiling. Eco parameters are tunable without a ceiling;
// they affect reporting, not execution.
func Resolve(f *File) Config {
	cfg := Default()
	if f == nil {
		return cfg
	}
	safe := govern.DefaultLimits()

	if f.MaxSteps > 0 {
		cfg.Limits.MaxSteps = clampI64(f.MaxSteps, safe.MaxSteps)
	}
	if f.MaxLoop > 0 {
		cfg.Limits.MaxLoop = clampI64(f.MaxLoop, safe.MaxLoop)
	}
	if f.MaxTimeS > 0 {
		requested := time.Duration(f.MaxTimeS * float64(time.Second))
		if requested > safe.MaxTime {
			requested = safe.MaxTime
		}
		cfg.Limits.MaxTime = requested
	}
	if f.MaxOutputChars > 0 {
		cfg.Limits.MaxOutputChars = clampInt(f.MaxOutputChars, safe.MaxOutputChars)
	}
	if f.MaxCallDepth > 0 {
		cfg.Limits.MaxCallDepth = clampInt(f.MaxCallDepth, safe.MaxCallDepth)
	}
	if f.MaxParams > 0 {
		cfg.Limits.MaxParams = clampInt(f.MaxParams, safe.MaxParams)
	}

	if f.EnergyPerOpJ > 0 {
		cfg.Params.EnergyPerOpJ = f.EnergyPerOpJ
	}
	if f.IdlePowerW > 0 {
		cfg.Params.IdlePowerW = f.IdlePowerW
	}
	if f.CO2PerKWhG > 0 {
		cfg.Params.CO2PerKWhG = f.CO2PerKWhG
	}
	return cfg
}

func clampI64(v, ceil int64) int64 {
	if v > ceil {
		return ceil
	}
	return v
}

func clampInt(v, ceil int) int {
	if v > ceil {
		return ceil
	}
	return v
}

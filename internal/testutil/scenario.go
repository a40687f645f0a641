// Package testutil provides shared helpers for EcoLang conformance tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ecorun/ecolang/pkg/govern"
)

// Scenario is one conformance case loaded from a scenario.json file. The
// program source lives next to it as program.eco.
type Scenario struct {
	Inputs map[string]any  `json:"inputs,omitempty"`
	Limits *LimitOverrides `json:"limits,omitempty"`
	Expect ExpectedResult  `json:"expect"`
}

// LimitOverrides are the budget fields a scenario may tighten. Zero
// fields keep the defaults.
type LimitOverrides struct {
	MaxSteps       int64 `json:"maxSteps,omitempty"`
	MaxLoop        int64 `json:"maxLoop,omitempty"`
	MaxTimeMs      int64 `json:"maxTimeMs,omitempty"`
	MaxOutputChars int   `json:"maxOutputChars,omitempty"`
	MaxCallDepth   int   `json:"maxCallDepth,omitempty"`
}

// ExpectedResult describes the outcome a scenario requires.
type ExpectedResult struct {
	ExitCode        int      `json:"exitCode"`
	Output          *string  `json:"output,omitempty"`
	OutputContains  string   `json:"outputContains,omitempty"`
	WarningsContain []string `json:"warningsContain,omitempty"`
	ErrorCode       string   `json:"errorCode,omitempty"`
	ErrorContains   string   `json:"errorContains,omitempty"`
	MinTotalOps     int64    `json:"minTotalOps,omitempty"`
}

// ResolveLimits applies the scenario's overrides to the default budgets.
func (s *Scenario) ResolveLimits() govern.Limits {
	l := govern.DefaultLimits()
	if s.Limits == nil {
		return l
	}
	if s.Limits.MaxSteps > 0 {
		l.MaxSteps = s.Limits.MaxSteps
	}
	if s.Limits.MaxLoop > 0 {
		l.MaxLoop = s.Limits.MaxLoop
	}
	if s.Limits.MaxTimeMs > 0 {
		l.MaxTime = time.Duration(s.Limits.MaxTimeMs) * time.Millisecond
	}
	if s.Limits.MaxOutputChars > 0 {
		l.MaxOutputChars = s.Limits.MaxOutputChars
	}
	if s.Limits.MaxCallDepth > 0 {
		l.MaxCallDepth = s.Limits.MaxCallDepth
	}
	return l
}

// LoadScenario loads the scenario.json in dir.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns every directory under root that holds a
// scenario.json.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), "scenario.json")); err == nil {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}

// ReadProgram reads the program.eco source next to the scenario.
func ReadProgram(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "program.eco"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

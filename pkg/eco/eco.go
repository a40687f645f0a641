// Package eco implements weighted operation-cost accounting and the
// derived energy/CO2 report for one run.
package eco

import (
	"fmt"
	"time"
)

// Category identifies one accounted action kind.
type Category int

const (
	Print Category = iota
	LoopCheck
	Math
	Assign
	IO
	FuncCall
	Other
)

// DefaultWeights is the per-category operation cost table.
func DefaultWeights() map[Category]int64 {
	return map[Category]int64{
		Print:     50,
		LoopCheck: 5,
		Math:      10,
		Assign:    5,
		IO:        200,
		FuncCall:  20,
		Other:     5,
	}
}

// Params holds the tunable constants used to derive the eco report.
type Params struct {
	EnergyPerOpJ float64
	IdlePowerW   float64
	CO2PerKWhG   float64
}

// DefaultParams returns the default estimation constants.
func DefaultParams() Params {
	return Params{
		EnergyPerOpJ: 1e-9,
		IdlePowerW:   0.5,
		CO2PerKWhG:   475,
	}
}

// HighUsageOps is the total_ops threshold above which a run gets a
// high-usage warning and an advisory tip.
const HighUsageOps = 1000

// minScale floors the savePower cost scale factor.
const minScale = 0.1

// Report is the immutable eco summary computed at the end of a
// successful run.
type Report struct {
	TotalOps  int64    `json:"total_ops"`
	EnergyJ   float64  `json:"energy_J"`
	EnergyKWh float64  `json:"energy_kWh"`
	CO2G      float64  `json:"co2_g"`
	Tips      []string `json:"tips"`
}

// Accountant accumulates weighted operation costs for one run. Each
// recorded event is multiplied by the current scale factor and truncated
// to an integer before being added to the total.
type Accountant struct {
	weights map[Category]int64
	params  Params
	total   int64
	scale   float64
}

// NewAccountant creates an accountant with the given weights and params.
// Nil weights selects the defaults.
func NewAccountant(weights map[Category]int64, params Params) *Accountant {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Accountant{
		weights: weights,
		params:  params,
		scale:   1.0,
	}
}

// Charge records one operation of the given category.
func (a *Accountant) Charge(cat Category) {
	a.total += int64(float64(a.weights[cat]) * a.scale)
}

// Total returns the accumulated weighted operation count.
func (a *Accountant) Total() int64 {
	return a.total
}

// Scale returns the current cost scale factor.
func (a *Accountant) Scale() float64 {
	return a.scale
}

// SavePower applies a power-saving level in [0,100]. The resulting scale
// factor is floored at 0.1 and never increases within a run.
func (a *Accountant) SavePower(level float64) float64 {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	candidate := 1.0 - level*0.01
	if candidate < minScale {
		candidate = minScale
	}
	if candidate < a.scale {
		a.scale = candidate
	}
	return a.scale
}

// Finalize derives the eco report from the accumulated total and the
// run's elapsed wall-clock time.
func (a *Accountant) Finalize(elapsed time.Duration) *Report {
	seconds := elapsed.Seconds()
	if seconds < 1e-6 {
		seconds = 1e-6
	}
	computeJ := float64(a.total) * a.params.EnergyPerOpJ
	overheadJ := seconds * a.params.IdlePowerW
	energyJ := computeJ + overheadJ
	energyKWh := energyJ / 3_600_000.0
	co2 := energyKWh * a.params.CO2PerKWhG

	rep := &Report{
		TotalOps:  a.total,
		EnergyJ:   energyJ,
		EnergyKWh: energyKWh,
		CO2G:      co2,
		Tips:      []string{},
	}
	if a.total > HighUsageOps {
		rep.Tips = append(rep.Tips, "Consider reducing loop iterations or heavy math operations")
	}
	return rep
}

// ecoTips rotate through the ecoTip statement's advisory strings.
var ecoTips = []string{
	"Turn off unused devices",
	"Reduce loop counts",
	"Prefer simpler math operations",
}

// Tip returns the rotating advisory string for the current total.
func (a *Accountant) Tip() string {
	return fmt.Sprintf("ecoTip: %s", ecoTips[a.total%int64(len(ecoTips))])
}

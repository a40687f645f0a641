// Package govern enforces per-run execution budgets: steps, wall-clock
// time, output size, and call-stack depth. Loop iteration capping is
// advisory (handled by the control-flow handlers as a warning) and only
// the cap value lives here.
package govern

import (
	"fmt"
	"time"

	"github.com/ecorun/ecolang/pkg/diag"
)

// Limits holds the resource budgets for one run.
type Limits struct {
	MaxSteps       int64
	MaxLoop        int64
	MaxTime        time.Duration
	MaxOutputChars int
	MaxCallDepth   int
	MaxParams      int
}

// DefaultLimits returns the engine's safe default budgets.
func DefaultLimits() Limits {
	return Limits{
		MaxSteps:       100_000,
		MaxLoop:        10_000,
		MaxTime:        1500 * time.Millisecond,
		MaxOutputChars: 5_000,
		MaxCallDepth:   5,
		MaxParams:      3,
	}
}

// Governor tracks resource consumption during one run and reports budget
// violations as diagnostics. It is not safe for concurrent use; every run
// owns its own Governor.
type Governor struct {
	limits     Limits
	steps      int64
	outputLen  int
	callDepth  int
	startHires int64
}

// New creates a Governor for one run, starting its wall clock now.
func New(limits Limits) *Governor {
	return &Governor{
		limits:     limits,
		startHires: hiresNow(),
	}
}

// Limits returns the configured budgets.
func (g *Governor) Limits() Limits {
	return g.limits
}

// Elapsed returns the wall-clock time since the run started.
func (g *Governor) Elapsed() time.Duration {
	return time.Duration(hiresSinceNs(g.startHires))
}

// CheckStep accounts one statement dispatch and verifies the step and
// time budgets. It must be called before every statement.
func (g *Governor) CheckStep() *diag.Diagnostic {
	g.steps++
	if g.steps > g.limits.MaxSteps {
		d := diag.New(diag.StepLimit, "Step limit exceeded", 0, 0, "", "")
		return &d
	}
	return g.CheckTime()
}

// CheckTime verifies the wall-clock budget.
func (g *Governor) CheckTime() *diag.Diagnostic {
	if g.Elapsed() > g.limits.MaxTime {
		d := diag.New(diag.Timeout, "Time limit exceeded", 0, 0, "", "")
		return &d
	}
	return nil
}

// AddOutput accounts n output characters and verifies the output budget.
// The caller must not append the output when an error is returned, so
// results already produced stay within the cap.
func (g *Governor) AddOutput(n int) *diag.Diagnostic {
	if g.outputLen+n > g.limits.MaxOutputChars {
		d := diag.New(diag.OutputLimit, "Output length limit reached", 0, 0, "", "")
		return &d
	}
	g.outputLen += n
	return nil
}

// EnterCall pushes one call frame and verifies the depth budget.
// Depth violations are runtime errors, not resource errors: they indicate
// a program bug (runaway recursion), not an expensive program.
func (g *Governor) EnterCall() *diag.Diagnostic {
	if g.callDepth >= g.limits.MaxCallDepth {
		d := diag.New(diag.RuntimeErr,
			fmt.Sprintf("Call depth limit exceeded (max %d)", g.limits.MaxCallDepth),
			0, 0, "", "Reduce nested or recursive calls.")
		return &d
	}
	g.callDepth++
	return nil
}

// ExitCall pops one call frame.
func (g *Governor) ExitCall() {
	if g.callDepth > 0 {
		g.callDepth--
	}
}

// LoopAllowed reports whether another loop iteration fits under the loop
// cap. Exceeding the cap is not fatal; the handler truncates and warns.
func (g *Governor) LoopAllowed(iterations int64) bool {
	return iterations < g.limits.MaxLoop
}

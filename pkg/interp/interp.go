// Package interp implements the EcoLang run orchestrator: environment,
// function table, statement dispatcher, and control-flow handlers. One
// Run call owns its Environment, Governor, and Accountant exclusively;
// nothing is shared across runs, so Run is safe to invoke from
// concurrent callers.
package interp

import (
	"strings"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/eco"
	"github.com/ecorun/ecolang/pkg/expr"
	"github.com/ecorun/ecolang/pkg/govern"
	"github.com/ecorun/ecolang/pkg/source"
	"github.com/ecorun/ecolang/pkg/value"
)

// Result is the outcome of one run. Err != nil implies Eco == nil;
// Output and Warnings hold partial results up to the failure point.
type Result struct {
	Output     string           `json:"output"`
	Warnings   []string         `json:"warnings"`
	Eco        *eco.Report      `json:"eco"`
	Err        *diag.Diagnostic `json:"errors"`
	DurationMS int64            `json:"duration_ms"`
}

// Options configure one run.
type Options struct {
	Limits  govern.Limits
	Weights map[eco.Category]int64
	Params  eco.Params
	Trace   func(TraceEvent)
}

// Option mutates run Options.
type Option func(*Options)

// WithLimits overrides the default resource budgets.
func WithLimits(l govern.Limits) Option {
	return func(o *Options) { o.Limits = l }
}

// WithWeights overrides the default operation cost table.
func WithWeights(w map[eco.Category]int64) Option {
	return func(o *Options) { o.Weights = w }
}

// WithParams overrides the default eco estimation parameters.
func WithParams(p eco.Params) Option {
	return func(o *Options) { o.Params = p }
}

// WithTrace installs a callback receiving execution trace events.
func WithTrace(fn func(TraceEvent)) Option {
	return func(o *Options) { o.Trace = fn }
}

// FunctionDef is one registered function. The table is built in a
// pre-scan pass and immutable during execution.
type FunctionDef struct {
	Name   string
	Params []string
	Body   []source.Line
	Line   int
}

// returnSignal propagates a return statement up through nested blocks
// to the enclosing function call. A nil val means the return carried no
// expression.
type returnSignal struct {
	val value.Value
}

type runner struct {
	env      *Environment
	acct     *eco.Accountant
	gov      *govern.Governor
	funcs    map[string]*FunctionDef
	inputs   map[string]value.Value
	out      strings.Builder
	warnings []string
	trace    func(TraceEvent)
}

// Run executes EcoLang source text against the given inputs and returns
// the captured output, warnings, eco report, and any diagnostic.
func Run(src string, inputs map[string]value.Value, opts ...Option) Result {
	o := Options{
		Limits: govern.DefaultLimits(),
		Params: eco.DefaultParams(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if inputs == nil {
		inputs = map[string]value.Value{}
	}

	r := &runner{
		env:      NewEnvironment(),
		acct:     eco.NewAccountant(o.Weights, o.Params),
		gov:      govern.New(o.Limits),
		funcs:    make(map[string]*FunctionDef),
		inputs:   inputs,
		warnings: []string{},
		trace:    o.Trace,
	}

	lines := source.Scan(src)
	r.traceEvent(TraceEvent{Kind: TraceRunStart})

	if d := r.prescan(lines); d != nil {
		return r.finish(d)
	}
	_, d := r.exec(lines, r.env, false)
	return r.finish(d)
}

func (r *runner) finish(d *diag.Diagnostic) Result {
	elapsed := r.gov.Elapsed()
	res := Result{
		Output:     r.out.String(),
		Warnings:   r.warnings,
		Err:        d,
		DurationMS: elapsed.Milliseconds(),
	}
	if d == nil {
		if r.acct.Total() > eco.HighUsageOps {
			res.Warnings = append(res.Warnings, "High estimated energy use")
		}
		res.Eco = r.acct.Finalize(elapsed)
	}
	r.traceEvent(TraceEvent{Kind: TraceRunEnd})
	return res
}

// emit appends one output line, enforcing the output budget before the
// text is committed.
func (r *runner) emit(text string) *diag.Diagnostic {
	if d := r.gov.AddOutput(len(text)); d != nil {
		return d
	}
	r.out.WriteString(text)
	r.out.WriteByte('\n')
	return nil
}

func (r *runner) addWarning(msg string) {
	r.warnings = append(r.warnings, msg)
}

func (r *runner) traceEvent(ev TraceEvent) {
	if r.trace != nil {
		r.trace(ev)
	}
}

// meter adapts the Accountant to expr.Meter: evaluated nodes charge
// math, builtin calls charge the general category.
type meter struct {
	acct *eco.Accountant
}

func (m meter) ChargeMath() { m.acct.Charge(eco.Math) }
func (m meter) ChargeCall() { m.acct.Charge(eco.Other) }
func (m meter) Ops() int64  { return m.acct.Total() }

// evalText parses and evaluates one embedded expression. colBase is the
// 1-based column where the expression starts within its statement line.
func (r *runner) evalText(text string, env *Environment, colBase int) (value.Value, *diag.Diagnostic) {
	node, perr := expr.Parse(text)
	if perr != nil {
		return nil, exprDiag(perr, colBase)
	}
	v, eerr := expr.Eval(node, env, meter{acct: r.acct})
	if eerr != nil {
		return nil, exprDiag(eerr, colBase)
	}
	return v, nil
}

// exprDiag translates an expression error into a diagnostic. The line
// position is filled in by the dispatch loop.
func exprDiag(e *expr.Error, colBase int) *diag.Diagnostic {
	code := diag.RuntimeErr
	if e.Syntax {
		code = diag.SyntaxError
	}
	col := e.Col
	if col < 1 {
		col = 1
	}
	d := diag.New(code, e.Msg, 0, colBase+col, "", "")
	return &d
}

// isIdentifier reports whether s is a valid EcoLang identifier: a letter
// or underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		alpha := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		if i == 0 {
			if !alpha {
				return false
			}
			continue
		}
		if !alpha && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}

func syntaxDiag(msg string, col int, hint string) *diag.Diagnostic {
	d := diag.New(diag.SyntaxError, msg, 0, col, "", hint)
	return &d
}

func runtimeDiag(msg string, col int, hint string) *diag.Diagnostic {
	d := diag.New(diag.RuntimeErr, msg, 0, col, "", hint)
	return &d
}

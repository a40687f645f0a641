package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/eco"
	"github.com/ecorun/ecolang/pkg/source"
	"github.com/ecorun/ecolang/pkg/value"
)

// handleIf evaluates an if/elif/else block. Branches execute inline
// against the enclosing environment so mutations persist; only one elif
// is supported per if.
func (r *runner) handleIf(lines []source.Line, i int, env *Environment, inFunc bool) (int, *returnSignal, *diag.Diagnostic) {
	ln := lines[i]
	if !strings.HasSuffix(ln.Text, " then") {
		return i, nil, syntaxDiag("Expected 'then' after if condition",
			len(ln.Text)+1, "Write: if <condition> then")
	}
	condText := strings.TrimSpace(ln.Text[len("if") : len(ln.Text)-len(" then")])

	body, endIdx, ok := source.ExtractBlock(lines, i+1)
	if !ok {
		return i, nil, syntaxDiag("Missing end for block", 1,
			"Add a matching 'end' for this 'if'.")
	}

	elifIdx, elseIdx, d := scanBranches(body)
	if d != nil {
		return i, nil, d
	}

	r.acct.Charge(eco.LoopCheck)
	cond, d := r.evalText(condText, env, len("if "))
	if d != nil {
		return i, nil, d
	}

	thenEnd := len(body)
	if elifIdx >= 0 && elifIdx < thenEnd {
		thenEnd = elifIdx
	}
	if elseIdx >= 0 && elseIdx < thenEnd {
		thenEnd = elseIdx
	}

	var branch []source.Line
	switch {
	case value.Truthy(cond):
		branch = body[:thenEnd]
	case elifIdx >= 0:
		elifLn := body[elifIdx]
		elifCond := strings.TrimSpace(elifLn.Text[len("elif") : len(elifLn.Text)-len(" then")])
		r.acct.Charge(eco.LoopCheck)
		cond2, d := r.evalText(elifCond, env, len("elif "))
		if d != nil {
			dd := d.WithPosition(elifLn.Num, 0, elifLn.Text)
			return i, nil, &dd
		}
		if value.Truthy(cond2) {
			elifEnd := len(body)
			if elseIdx >= 0 {
				elifEnd = elseIdx
			}
			branch = body[elifIdx+1 : elifEnd]
		} else if elseIdx >= 0 {
			branch = body[elseIdx+1:]
		}
	case elseIdx >= 0:
		branch = body[elseIdx+1:]
	}

	ret, d := r.exec(branch, env, inFunc)
	if d != nil {
		return i, nil, d
	}
	return endIdx + 1, ret, nil
}

// scanBranches locates the top-level elif and else of an if body.
// A second elif, an elif after else, or a malformed elif header is a
// syntax error. Missing branches return -1.
func scanBranches(body []source.Line) (elifIdx, elseIdx int, d *diag.Diagnostic) {
	elifIdx, elseIdx = -1, -1
	depth := 0
	for j, ln := range body {
		switch {
		case ln.Kind.OpensBlock():
			depth++
		case ln.Kind == source.KindEnd:
			if depth > 0 {
				depth--
			}
		case depth == 0 && ln.Kind == source.KindElif:
			if elifIdx >= 0 {
				return -1, -1, positioned(syntaxDiag(
					"Only one 'elif' is supported per 'if'", 1,
					"Nest another if inside the else branch instead."), ln)
			}
			if elseIdx >= 0 {
				return -1, -1, positioned(syntaxDiag(
					"'elif' must come before 'else'", 1, ""), ln)
			}
			if !strings.HasSuffix(ln.Text, " then") {
				return -1, -1, positioned(syntaxDiag(
					"Expected 'then' after elif condition",
					len(ln.Text)+1, "Write: elif <condition> then"), ln)
			}
			elifIdx = j
		case depth == 0 && ln.Kind == source.KindElse:
			if elseIdx >= 0 {
				return -1, -1, positioned(syntaxDiag(
					"Duplicate 'else' in if block", 1, ""), ln)
			}
			elseIdx = j
		}
	}
	return elifIdx, elseIdx, nil
}

// positioned pins a diagnostic to a specific line instead of the block
// opener the dispatch loop would assign.
func positioned(d *diag.Diagnostic, ln source.Line) *diag.Diagnostic {
	dd := d.WithPosition(ln.Num, 0, ln.Text)
	return &dd
}

// handleRepeat executes a repeat-N-times block. The count must be an
// integer literal; counts above the loop cap truncate with a warning.
func (r *runner) handleRepeat(lines []source.Line, i int, env *Environment, inFunc bool) (int, *returnSignal, *diag.Diagnostic) {
	ln := lines[i]
	if !strings.HasSuffix(ln.Text, " times") {
		return i, nil, syntaxDiag("Expected 'times' at end of repeat",
			len(ln.Text)+1, "Write: repeat <number> times")
	}
	mid := strings.TrimSpace(ln.Text[len("repeat") : len(ln.Text)-len(" times")])
	n, err := strconv.ParseInt(mid, 10, 64)
	if err != nil || n < 0 {
		return i, nil, syntaxDiag("Invalid repeat count",
			len("repeat ")+1, "Use: repeat <number> times")
	}

	body, endIdx, ok := source.ExtractBlock(lines, i+1)
	if !ok {
		return i, nil, syntaxDiag("Missing end for block", 1,
			"Add a matching 'end' for this 'repeat'.")
	}

	loopCap := r.gov.Limits().MaxLoop
	if n > loopCap {
		r.addWarning(fmt.Sprintf("Repeat count limited to %d", loopCap))
		n = loopCap
	}

	for iter := int64(0); iter < n; iter++ {
		if d := r.gov.CheckTime(); d != nil {
			return i, nil, d
		}
		r.acct.Charge(eco.LoopCheck)
		r.traceEvent(TraceEvent{Kind: TraceLoopIter, Line: ln.Num, Detail: "repeat"})
		ret, d := r.exec(body, env, inFunc)
		if d != nil {
			return i, nil, d
		}
		if ret != nil {
			return endIdx + 1, ret, nil
		}
	}
	return endIdx + 1, nil, nil
}

// handleWhile executes a while block, re-evaluating the condition every
// iteration against the same environment. Iterations are capped like
// repeat.
func (r *runner) handleWhile(lines []source.Line, i int, env *Environment, inFunc bool) (int, *returnSignal, *diag.Diagnostic) {
	ln := lines[i]
	if !strings.HasSuffix(ln.Text, " then") {
		return i, nil, syntaxDiag("Expected 'then' after while condition",
			len(ln.Text)+1, "Write: while <condition> then")
	}
	condText := strings.TrimSpace(ln.Text[len("while") : len(ln.Text)-len(" then")])

	body, endIdx, ok := source.ExtractBlock(lines, i+1)
	if !ok {
		return i, nil, syntaxDiag("Missing end for block", 1,
			"Add a matching 'end' for this 'while'.")
	}

	var iterations int64
	for {
		if d := r.gov.CheckTime(); d != nil {
			return i, nil, d
		}
		r.acct.Charge(eco.LoopCheck)
		cond, d := r.evalText(condText, env, len("while "))
		if d != nil {
			return i, nil, d
		}
		if !value.Truthy(cond) {
			break
		}
		if !r.gov.LoopAllowed(iterations) {
			r.addWarning(fmt.Sprintf("While iterations limited to %d", r.gov.Limits().MaxLoop))
			break
		}
		r.traceEvent(TraceEvent{Kind: TraceLoopIter, Line: ln.Num, Detail: "while"})
		ret, d := r.exec(body, env, inFunc)
		if d != nil {
			return i, nil, d
		}
		if ret != nil {
			return endIdx + 1, ret, nil
		}
		iterations++
	}
	return endIdx + 1, nil, nil
}

// handleFor executes an inclusive for-range block. The loop variable is
// bound in the enclosing environment and keeps its final value after
// the loop exits.
func (r *runner) handleFor(lines []source.Line, i int, env *Environment, inFunc bool) (int, *returnSignal, *diag.Diagnostic) {
	ln := lines[i]
	clause := strings.TrimSpace(strings.TrimPrefix(ln.Text, "for"))
	eq := strings.Index(clause, "=")
	if eq < 0 || !strings.Contains(clause, " to ") {
		return i, nil, syntaxDiag("Use: for name = start to end [step s]", 1, "")
	}
	varname := strings.TrimSpace(clause[:eq])
	if !isIdentifier(varname) {
		return i, nil, syntaxDiag("Invalid loop variable name", len("for ")+1, "")
	}
	rest := clause[eq+1:]

	var stepText string
	if si := strings.Index(rest, " step "); si >= 0 {
		stepText = strings.TrimSpace(rest[si+len(" step "):])
		rest = rest[:si]
	}
	ti := strings.Index(rest, " to ")
	if ti < 0 {
		return i, nil, syntaxDiag("Missing 'to' in for range", 1, "")
	}
	startText := strings.TrimSpace(rest[:ti])
	endText := strings.TrimSpace(rest[ti+len(" to "):])

	startVal, d := r.evalText(startText, env, 1)
	if d != nil {
		return i, nil, d
	}
	endVal, d := r.evalText(endText, env, 1)
	if d != nil {
		return i, nil, d
	}
	startF, sok := value.AsFloat(startVal)
	endF, eok := value.AsFloat(endVal)
	if !sok || !eok {
		return i, nil, runtimeDiag("Invalid numeric values in for", 1, "")
	}

	stepF := 1.0
	if startF > endF {
		stepF = -1.0
	}
	if stepText != "" {
		stepVal, d := r.evalText(stepText, env, 1)
		if d != nil {
			return i, nil, d
		}
		f, ok := value.AsFloat(stepVal)
		if !ok {
			return i, nil, runtimeDiag("Invalid numeric values in for", 1, "")
		}
		stepF = f
	}
	if stepF == 0 {
		return i, nil, runtimeDiag("for step cannot be 0", 1, "")
	}

	body, endIdx, ok := source.ExtractBlock(lines, i+1)
	if !ok {
		return i, nil, syntaxDiag("Missing end for block", 1,
			"Add a matching 'end' for this 'for'.")
	}

	var iterations int64
	for cur := startF; forCont(cur, endF, stepF); cur += stepF {
		if !r.gov.LoopAllowed(iterations) {
			r.addWarning(fmt.Sprintf("For iterations limited to %d", r.gov.Limits().MaxLoop))
			break
		}
		if d := r.gov.CheckTime(); d != nil {
			return i, nil, d
		}
		env.Set(varname, loopValue(cur))
		r.acct.Charge(eco.LoopCheck)
		r.traceEvent(TraceEvent{Kind: TraceLoopIter, Line: ln.Num, Detail: "for"})
		ret, d := r.exec(body, env, inFunc)
		if d != nil {
			return i, nil, d
		}
		if ret != nil {
			return endIdx + 1, ret, nil
		}
		iterations++
	}
	return endIdx + 1, nil, nil
}

func forCont(cur, end, step float64) bool {
	if step > 0 {
		return cur <= end
	}
	return cur >= end
}

// loopValue binds integral loop positions as Int so say output stays
// clean for whole-number ranges.
func loopValue(cur float64) value.Value {
	trunc := math.Trunc(cur)
	if math.Abs(cur-trunc) < 1e-9 {
		return value.NewInt(int64(trunc))
	}
	return value.NewFloat(cur)
}

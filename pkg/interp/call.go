package interp

import (
	"fmt"
	"strings"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/eco"
	"github.com/ecorun/ecolang/pkg/source"
	"github.com/ecorun/ecolang/pkg/value"
)

// prescan builds the run's function table before execution. Every func
// statement anywhere in the program is registered; the table is
// immutable afterwards. Later definitions of the same name win.
func (r *runner) prescan(lines []source.Line) *diag.Diagnostic {
	for i, ln := range lines {
		if ln.Kind != source.KindFunc {
			continue
		}
		def, d := r.parseFuncDef(lines, i)
		if d != nil {
			dd := d.WithPosition(ln.Num, 1, ln.Text)
			return &dd
		}
		r.funcs[def.Name] = def
	}
	return nil
}

// parseFuncDef parses a func header and extracts its body block.
func (r *runner) parseFuncDef(lines []source.Line, i int) (*FunctionDef, *diag.Diagnostic) {
	ln := lines[i]
	parts := strings.Fields(strings.TrimPrefix(ln.Text, "func"))
	if len(parts) == 0 {
		return nil, syntaxDiag("Missing function name", 1, "Use: func name [args]")
	}
	name := parts[0]
	if !isIdentifier(name) {
		return nil, syntaxDiag("Invalid function name", len("func ")+1, "")
	}
	params := parts[1:]
	maxParams := r.gov.Limits().MaxParams
	if len(params) > maxParams {
		return nil, syntaxDiag(fmt.Sprintf("Too many params (max %d)", maxParams), 1, "")
	}
	for _, p := range params {
		if !isIdentifier(p) {
			return nil, syntaxDiag(fmt.Sprintf("Invalid parameter name '%s'", p), 1, "")
		}
	}
	body, _, ok := source.ExtractBlock(lines, i+1)
	if !ok {
		return nil, syntaxDiag("Missing end for block", 1,
			"Add a matching 'end' for this 'func'.")
	}
	return &FunctionDef{Name: name, Params: params, Body: body, Line: ln.Num}, nil
}

// handleFuncDef dispatches a func statement at execution time. The
// definition was registered during prescan; here the body is skipped
// and the definition acknowledged.
func (r *runner) handleFuncDef(lines []source.Line, i int) (int, *returnSignal, *diag.Diagnostic) {
	def, d := r.parseFuncDef(lines, i)
	if d != nil {
		return i, nil, d
	}
	_, endIdx, _ := source.ExtractBlock(lines, i+1)
	r.acct.Charge(eco.Other)
	r.addWarning(fmt.Sprintf("func defined: %s", def.Name))
	return endIdx + 1, nil, nil
}

// handleCall executes `call name [with e1, e2, ...] [into var]`.
// Arguments are evaluated in the caller's environment and copied into a
// fresh frame; the return value is bound to var or printed.
func (r *runner) handleCall(ln source.Line, env *Environment) *diag.Diagnostic {
	txt := strings.TrimSpace(strings.TrimPrefix(ln.Text, "call"))
	if txt == "" {
		return syntaxDiag("Missing function name", 1, "Use: call name [with args] [into var]")
	}

	intoVar := ""
	if idx := strings.Index(txt, " into "); idx >= 0 {
		intoVar = strings.TrimSpace(txt[idx+len(" into "):])
		txt = strings.TrimSpace(txt[:idx])
		if !isIdentifier(intoVar) {
			return syntaxDiag("Invalid target after 'into'",
				strings.Index(ln.Text, " into ")+len(" into ")+1, "")
		}
	}

	name := txt
	var argTexts []string
	if idx := strings.Index(txt, " with "); idx >= 0 {
		name = strings.TrimSpace(txt[:idx])
		for _, part := range strings.Split(txt[idx+len(" with "):], ",") {
			if p := strings.TrimSpace(part); p != "" {
				argTexts = append(argTexts, p)
			}
		}
	}
	if !isIdentifier(name) {
		return syntaxDiag("Invalid function name", len("call ")+1, "")
	}
	def, ok := r.funcs[name]
	if !ok {
		return runtimeDiag(fmt.Sprintf("Unknown function '%s'", name), len("call ")+1, "")
	}
	if len(argTexts) != len(def.Params) {
		return runtimeDiag(fmt.Sprintf("Argument count mismatch: '%s' expects %d, got %d",
			name, len(def.Params), len(argTexts)), 1, "")
	}

	argBase := 1
	if idx := strings.Index(ln.Text, " with "); idx >= 0 {
		argBase = idx + len(" with ")
	}
	frame := NewEnvironment()
	for k, text := range argTexts {
		v, d := r.evalText(text, env, argBase)
		if d != nil {
			return d
		}
		frame.Set(def.Params[k], v)
	}

	if d := r.gov.EnterCall(); d != nil {
		return d
	}
	r.acct.Charge(eco.FuncCall)
	r.traceEvent(TraceEvent{Kind: TraceCall, Line: ln.Num, Detail: name})
	ret, d := r.exec(def.Body, frame, true)
	r.gov.ExitCall()
	if d != nil {
		return d
	}

	var retVal value.Value
	if ret != nil {
		retVal = ret.val
	}
	if intoVar != "" {
		if env.IsConst(intoVar) {
			return runtimeDiag(fmt.Sprintf("Cannot reassign const '%s'", intoVar), 1, "")
		}
		if retVal == nil {
			retVal = value.NewInt(0)
		}
		env.Set(intoVar, retVal)
		return nil
	}
	if retVal != nil {
		return r.emit(value.Display(retVal))
	}
	return nil
}

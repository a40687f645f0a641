package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/eco"
	"github.com/ecorun/ecolang/pkg/source"
	"github.com/ecorun/ecolang/pkg/value"
)

// exec drives the dispatcher over a block of statement lines. It is
// used for the top-level program, inline control-flow blocks, and
// function bodies (inFunc enables return). A non-nil returnSignal
// short-circuits the enclosing blocks up to the active call.
func (r *runner) exec(lines []source.Line, env *Environment, inFunc bool) (*returnSignal, *diag.Diagnostic) {
	i := 0
	for i < len(lines) {
		ln := lines[i]
		if d := r.gov.CheckStep(); d != nil {
			return nil, d
		}
		// every dispatched statement costs one general op
		r.acct.Charge(eco.Other)
		r.traceEvent(TraceEvent{Kind: TraceStatement, Line: ln.Num, Detail: ln.Kind.String()})

		next, ret, d := r.dispatch(lines, i, env, inFunc)
		if d != nil {
			dd := d.WithPosition(ln.Num, 1, ln.Text)
			return nil, &dd
		}
		if ret != nil {
			return ret, nil
		}
		i = next
	}
	return nil, nil
}

// dispatch routes one classified statement to its handler. Handlers
// return the index of the next statement to execute.
func (r *runner) dispatch(lines []source.Line, i int, env *Environment, inFunc bool) (int, *returnSignal, *diag.Diagnostic) {
	ln := lines[i]
	switch ln.Kind {
	case source.KindSay:
		return i + 1, nil, r.handleSay(ln, env)
	case source.KindLet:
		return i + 1, nil, r.handleLet(ln, env)
	case source.KindConst:
		return i + 1, nil, r.handleConst(ln, env)
	case source.KindWarn:
		return i + 1, nil, r.handleWarn(ln, env)
	case source.KindAsk:
		return i + 1, nil, r.handleAsk(ln, env)
	case source.KindEcoTip:
		return i + 1, nil, r.handleEcoTip(ln)
	case source.KindSavePower:
		return i + 1, nil, r.handleSavePower(ln)
	case source.KindIf:
		return r.handleIf(lines, i, env, inFunc)
	case source.KindRepeat:
		return r.handleRepeat(lines, i, env, inFunc)
	case source.KindWhile:
		return r.handleWhile(lines, i, env, inFunc)
	case source.KindFor:
		return r.handleFor(lines, i, env, inFunc)
	case source.KindFunc:
		return r.handleFuncDef(lines, i)
	case source.KindCall:
		return i + 1, nil, r.handleCall(ln, env)
	case source.KindReturn:
		ret, d := r.handleReturn(ln, env, inFunc)
		return i + 1, ret, d
	case source.KindElif:
		return i, nil, syntaxDiag("'elif' without matching 'if'", 1,
			"Place 'elif' inside an if..end block.")
	case source.KindElse:
		return i, nil, syntaxDiag("'else' without matching 'if'", 1,
			"Place 'else' inside an if..end block.")
	case source.KindEnd:
		return i, nil, syntaxDiag("Unexpected 'end'", 1,
			"Remove extra 'end' or match it with if/repeat/while/for/func.")
	}
	return i, nil, syntaxDiag(fmt.Sprintf("Unknown statement: %s", ln.Text), 1,
		"Check the command name or syntax.")
}

func (r *runner) handleSay(ln source.Line, env *Environment) *diag.Diagnostic {
	text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "say"))
	v, d := r.evalText(text, env, len("say "))
	if d != nil {
		return d
	}
	r.acct.Charge(eco.Print)
	return r.emit(value.Display(v))
}

func (r *runner) handleLet(ln source.Line, env *Environment) *diag.Diagnostic {
	rest := strings.TrimSpace(strings.TrimPrefix(ln.Text, "let"))
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return syntaxDiag("Expected '=' in let statement", 1, "Use: let name = expr")
	}
	name := strings.TrimSpace(rest[:eq])
	exprText := strings.TrimSpace(rest[eq+1:])
	if !isIdentifier(name) {
		return syntaxDiag("Invalid identifier in let", 1,
			"Identifiers must be letters/digits/_ and not start with a digit.")
	}
	if env.IsConst(name) {
		return runtimeDiag(fmt.Sprintf("Cannot reassign const '%s'", name), 1, "")
	}
	v, d := r.evalText(exprText, env, strings.Index(ln.Text, "=")+2)
	if d != nil {
		return d
	}
	env.Set(name, v)
	r.acct.Charge(eco.Assign)
	return nil
}

func (r *runner) handleConst(ln source.Line, env *Environment) *diag.Diagnostic {
	rest := strings.TrimSpace(strings.TrimPrefix(ln.Text, "const"))
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return syntaxDiag("Expected '=' in const", 1, "Use: const NAME = expr")
	}
	name := strings.TrimSpace(rest[:eq])
	exprText := strings.TrimSpace(rest[eq+1:])
	if !isIdentifier(name) {
		return syntaxDiag("Invalid const name", 1, "")
	}
	if env.Has(name) {
		return runtimeDiag(fmt.Sprintf("'%s' already defined", name), 1, "")
	}
	v, d := r.evalText(exprText, env, strings.Index(ln.Text, "=")+2)
	if d != nil {
		return d
	}
	env.SetConst(name, v)
	r.acct.Charge(eco.Assign)
	return nil
}

func (r *runner) handleWarn(ln source.Line, env *Environment) *diag.Diagnostic {
	text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "warn"))
	v, d := r.evalText(text, env, len("warn "))
	if d != nil {
		return d
	}
	r.addWarning(value.Display(v))
	r.acct.Charge(eco.Other)
	return nil
}

func (r *runner) handleAsk(ln source.Line, env *Environment) *diag.Diagnostic {
	name := strings.TrimSpace(strings.TrimPrefix(ln.Text, "ask"))
	if !isIdentifier(name) {
		return syntaxDiag("Invalid identifier in ask", 1, "Use: ask name")
	}
	v, ok := r.inputs[name]
	if !ok {
		return runtimeDiag(fmt.Sprintf("Missing input for '%s'", name), 1, "")
	}
	env.Set(name, v)
	r.acct.Charge(eco.IO)
	return nil
}

func (r *runner) handleEcoTip(ln source.Line) *diag.Diagnostic {
	if ln.Text != "ecoTip" {
		return syntaxDiag(fmt.Sprintf("Unknown statement: %s", ln.Text), 1,
			"Check the command name or syntax.")
	}
	r.acct.Charge(eco.Other)
	return r.emit(r.acct.Tip())
}

func (r *runner) handleSavePower(ln source.Line) *diag.Diagnostic {
	text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "savePower"))
	lvl, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return syntaxDiag("Invalid number for savePower", 1, "Use: savePower <0-100>")
	}
	r.acct.SavePower(lvl)
	r.addWarning(fmt.Sprintf("savePower applied: level %s",
		strconv.FormatFloat(lvl, 'f', -1, 64)))
	return nil
}

func (r *runner) handleReturn(ln source.Line, env *Environment, inFunc bool) (*returnSignal, *diag.Diagnostic) {
	if !inFunc {
		return nil, runtimeDiag("'return' outside function", 1,
			"Use 'return' only inside a func..end block.")
	}
	text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "return"))
	if text == "" {
		return &returnSignal{}, nil
	}
	v, d := r.evalText(text, env, len("return "))
	if d != nil {
		return nil, d
	}
	return &returnSignal{val: v}, nil
}

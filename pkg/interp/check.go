package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/expr"
	"github.com/ecorun/ecolang/pkg/govern"
	"github.com/ecorun/ecolang/pkg/source"
)

// checker accumulates diagnostics during a static pass.
type checker struct {
	limits govern.Limits
	diags  []diag.Diagnostic
}

// openBlock is one entry of the checker's nesting stack.
type openBlock struct {
	kind    source.Kind
	line    source.Line
	sawElif bool
	sawElse bool
}

// Check statically validates source text without executing it: block
// matching, required keywords, the single-elif rule, function parameter
// limits, and the parse of every embedded expression. All findings are
// returned, not just the first.
func Check(src string, opts ...Option) []diag.Diagnostic {
	o := Options{Limits: govern.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}
	c := &checker{limits: o.Limits}
	lines := source.Scan(src)

	var stack []*openBlock
	for _, ln := range lines {
		top := func() *openBlock {
			if len(stack) == 0 {
				return nil
			}
			return stack[len(stack)-1]
		}

		switch ln.Kind {
		case source.KindSay:
			c.checkExpr(ln, strings.TrimSpace(strings.TrimPrefix(ln.Text, "say")), len("say "))
		case source.KindWarn:
			c.checkExpr(ln, strings.TrimSpace(strings.TrimPrefix(ln.Text, "warn")), len("warn "))
		case source.KindLet:
			c.checkBinding(ln, "let", "Expected '=' in let statement", "Use: let name = expr")
		case source.KindConst:
			c.checkBinding(ln, "const", "Expected '=' in const", "Use: const NAME = expr")
		case source.KindAsk:
			if !isIdentifier(strings.TrimSpace(strings.TrimPrefix(ln.Text, "ask"))) {
				c.report(ln, "Invalid identifier in ask", 1, "Use: ask name")
			}
		case source.KindEcoTip:
			if ln.Text != "ecoTip" {
				c.report(ln, fmt.Sprintf("Unknown statement: %s", ln.Text), 1,
					"Check the command name or syntax.")
			}
		case source.KindSavePower:
			text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "savePower"))
			if _, err := strconv.ParseFloat(text, 64); err != nil {
				c.report(ln, "Invalid number for savePower", 1, "Use: savePower <0-100>")
			}
		case source.KindReturn:
			if !c.inFunc(stack) {
				c.report(ln, "'return' outside function", 1,
					"Use 'return' only inside a func..end block.")
			}
			if text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "return")); text != "" {
				c.checkExpr(ln, text, len("return "))
			}
		case source.KindCall:
			c.checkCall(ln)

		case source.KindIf:
			c.checkThenHeader(ln, "if", "Expected 'then' after if condition", "Write: if <condition> then")
			stack = append(stack, &openBlock{kind: source.KindIf, line: ln})
		case source.KindWhile:
			c.checkThenHeader(ln, "while", "Expected 'then' after while condition", "Write: while <condition> then")
			stack = append(stack, &openBlock{kind: source.KindWhile, line: ln})
		case source.KindRepeat:
			c.checkRepeatHeader(ln)
			stack = append(stack, &openBlock{kind: source.KindRepeat, line: ln})
		case source.KindFor:
			c.checkForHeader(ln)
			stack = append(stack, &openBlock{kind: source.KindFor, line: ln})
		case source.KindFunc:
			c.checkFuncHeader(ln)
			stack = append(stack, &openBlock{kind: source.KindFunc, line: ln})

		case source.KindElif:
			blk := top()
			if blk == nil || blk.kind != source.KindIf {
				c.report(ln, "'elif' without matching 'if'", 1,
					"Place 'elif' inside an if..end block.")
				break
			}
			if blk.sawElif {
				c.report(ln, "Only one 'elif' is supported per 'if'", 1,
					"Nest another if inside the else branch instead.")
			}
			if blk.sawElse {
				c.report(ln, "'elif' must come before 'else'", 1, "")
			}
			blk.sawElif = true
			c.checkThenHeader(ln, "elif", "Expected 'then' after elif condition", "Write: elif <condition> then")
		case source.KindElse:
			blk := top()
			if blk == nil || blk.kind != source.KindIf {
				c.report(ln, "'else' without matching 'if'", 1,
					"Place 'else' inside an if..end block.")
				break
			}
			if blk.sawElse {
				c.report(ln, "Duplicate 'else' in if block", 1, "")
			}
			blk.sawElse = true
		case source.KindEnd:
			if len(stack) == 0 {
				c.report(ln, "Unexpected 'end'", 1,
					"Remove extra 'end' or match it with if/repeat/while/for/func.")
				break
			}
			stack = stack[:len(stack)-1]

		default:
			c.report(ln, fmt.Sprintf("Unknown statement: %s", ln.Text), 1,
				"Check the command name or syntax.")
		}
	}

	for _, blk := range stack {
		c.report(blk.line, "Missing end for block", 1,
			fmt.Sprintf("Add a matching 'end' for this '%s'.", blk.kind))
	}
	return c.diags
}

func (c *checker) report(ln source.Line, msg string, col int, hint string) {
	c.diags = append(c.diags, diag.New(diag.SyntaxError, msg, ln.Num, col, ln.Text, hint))
}

func (c *checker) inFunc(stack []*openBlock) bool {
	for _, blk := range stack {
		if blk.kind == source.KindFunc {
			return true
		}
	}
	return false
}

// checkExpr parses an embedded expression, reporting parse failures
// only; evaluation errors are a runtime concern.
func (c *checker) checkExpr(ln source.Line, text string, colBase int) {
	if _, err := expr.Parse(text); err != nil {
		c.diags = append(c.diags, diag.New(diag.SyntaxError, err.Msg,
			ln.Num, colBase+err.Col, ln.Text, ""))
	}
}

func (c *checker) checkBinding(ln source.Line, kw, missingEq, hint string) {
	rest := strings.TrimSpace(strings.TrimPrefix(ln.Text, kw))
	eq := strings.Index(rest, "=")
	if eq < 0 {
		c.report(ln, missingEq, 1, hint)
		return
	}
	name := strings.TrimSpace(rest[:eq])
	if !isIdentifier(name) {
		c.report(ln, fmt.Sprintf("Invalid identifier in %s", kw), 1, hint)
	}
	c.checkExpr(ln, strings.TrimSpace(rest[eq+1:]), strings.Index(ln.Text, "=")+2)
}

func (c *checker) checkThenHeader(ln source.Line, kw, missing, hint string) {
	if !strings.HasSuffix(ln.Text, " then") {
		c.report(ln, missing, len(ln.Text)+1, hint)
		return
	}
	cond := strings.TrimSpace(ln.Text[len(kw) : len(ln.Text)-len(" then")])
	c.checkExpr(ln, cond, len(kw)+1)
}

func (c *checker) checkRepeatHeader(ln source.Line) {
	if !strings.HasSuffix(ln.Text, " times") {
		c.report(ln, "Expected 'times' at end of repeat", len(ln.Text)+1,
			"Write: repeat <number> times")
		return
	}
	mid := strings.TrimSpace(ln.Text[len("repeat") : len(ln.Text)-len(" times")])
	if n, err := strconv.ParseInt(mid, 10, 64); err != nil || n < 0 {
		c.report(ln, "Invalid repeat count", len("repeat ")+1, "Use: repeat <number> times")
	}
}

func (c *checker) checkForHeader(ln source.Line) {
	clause := strings.TrimSpace(strings.TrimPrefix(ln.Text, "for"))
	eq := strings.Index(clause, "=")
	if eq < 0 || !strings.Contains(clause, " to ") {
		c.report(ln, "Use: for name = start to end [step s]", 1, "")
		return
	}
	if !isIdentifier(strings.TrimSpace(clause[:eq])) {
		c.report(ln, "Invalid loop variable name", len("for ")+1, "")
	}
	rest := clause[eq+1:]
	if si := strings.Index(rest, " step "); si >= 0 {
		c.checkExpr(ln, strings.TrimSpace(rest[si+len(" step "):]), 1)
		rest = rest[:si]
	}
	if ti := strings.Index(rest, " to "); ti >= 0 {
		c.checkExpr(ln, strings.TrimSpace(rest[:ti]), 1)
		c.checkExpr(ln, strings.TrimSpace(rest[ti+len(" to "):]), 1)
	}
}

func (c *checker) checkFuncHeader(ln source.Line) {
	parts := strings.Fields(strings.TrimPrefix(ln.Text, "func"))
	if len(parts) == 0 {
		c.report(ln, "Missing function name", 1, "Use: func name [args]")
		return
	}
	if !isIdentifier(parts[0]) {
		c.report(ln, "Invalid function name", len("func ")+1, "")
	}
	params := parts[1:]
	if len(params) > c.limits.MaxParams {
		c.report(ln, fmt.Sprintf("Too many params (max %d)", c.limits.MaxParams), 1, "")
	}
	for _, p := range params {
		if !isIdentifier(p) {
			c.report(ln, fmt.Sprintf("Invalid parameter name '%s'", p), 1, "")
		}
	}
}

func (c *checker) checkCall(ln source.Line) {
	txt := strings.TrimSpace(strings.TrimPrefix(ln.Text, "call"))
	if txt == "" {
		c.report(ln, "Missing function name", 1, "Use: call name [with args] [into var]")
		return
	}
	if idx := strings.Index(txt, " into "); idx >= 0 {
		if !isIdentifier(strings.TrimSpace(txt[idx+len(" into "):])) {
			c.report(ln, "Invalid target after 'into'", 1, "")
		}
		txt = strings.TrimSpace(txt[:idx])
	}
	name := txt
	if idx := strings.Index(txt, " with "); idx >= 0 {
		name = strings.TrimSpace(txt[:idx])
		argBase := strings.Index(ln.Text, " with ") + len(" with ")
		for _, part := range strings.Split(txt[idx+len(" with "):], ",") {
			if p := strings.TrimSpace(part); p != "" {
				c.checkExpr(ln, p, argBase)
			}
		}
	}
	if !isIdentifier(name) {
		c.report(ln, "Invalid function name", len("call ")+1, "")
	}
}

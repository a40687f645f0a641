// Package diag defines EcoLang diagnostic types for syntax, runtime, and
// resource errors.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error code constants. Resource codes are distinguished from bugs so
// callers can tell a misbehaving program from an expensive one.
const (
	SyntaxError = "SYNTAX_ERROR"
	RuntimeErr  = "RUNTIME_ERROR"
	Timeout     = "TIMEOUT"
	StepLimit   = "STEP_LIMIT"
	OutputLimit = "OUTPUT_LIMIT"
)

// Context carries the offending source line's text.
type Context struct {
	LineText string `json:"line_text"`
}

// Diagnostic represents a syntax, runtime, or resource diagnostic.
// Line and Column are 1-based positions in the original source.
type Diagnostic struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Line    int      `json:"line,omitempty"`
	Column  int      `json:"column,omitempty"`
	Context *Context `json:"context,omitempty"`
	Hint    string   `json:"hint,omitempty"`
}

// New creates a Diagnostic.
func New(code, message string, line, column int, lineText, hint string) Diagnostic {
	d := Diagnostic{
		Code:    code,
		Message: message,
		Line:    line,
		Column:  column,
		Hint:    hint,
	}
	if lineText != "" {
		d.Context = &Context{LineText: lineText}
	}
	return d
}

// WithPosition fills in position fields that are not already set.
func (d Diagnostic) WithPosition(line, column int, lineText string) Diagnostic {
	if d.Line == 0 {
		d.Line = line
	}
	if d.Column == 0 {
		d.Column = column
	}
	if d.Context == nil && lineText != "" {
		d.Context = &Context{LineText: lineText}
	}
	return d
}

// IsResource reports whether the code names a resource-budget violation
// rather than a program bug.
func (d Diagnostic) IsResource() bool {
	switch d.Code {
	case Timeout, StepLimit, OutputLimit:
		return true
	}
	return false
}

// Format renders a single diagnostic for display.
func Format(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s", d.Code, d.Message)
	if d.Line > 0 {
		out += fmt.Sprintf("\n  --> line %d, column %d", d.Line, d.Column)
	}
	if d.Context != nil {
		out += fmt.Sprintf("\n  | %s", d.Context.LineText)
	}
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatAll renders a slice of diagnostics for display.
func FormatAll(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = Format(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// Package format implements the EcoLang source formatter. Statements
// are canonically indented by block depth; comments and blank lines are
// preserved in place.
package format

import (
	"strings"

	"github.com/ecorun/ecolang/pkg/source"
)

const indent = "  "

// Format re-indents EcoLang source text. It is purely lexical: lines
// are classified, never parsed, so malformed programs still format.
func Format(src string) string {
	raw := strings.Split(src, "\n")
	// drop a single trailing newline artifact so output stays stable
	// under repeated formatting
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	var out []string
	depth := 0
	for _, line := range raw {
		text := strings.TrimSpace(line)
		if text == "" {
			out = append(out, "")
			continue
		}
		kind := source.KindUnknown
		if !strings.HasPrefix(text, "#") {
			kind = source.Classify(text)
		}

		level := depth
		switch {
		case kind == source.KindEnd:
			if depth > 0 {
				depth--
			}
			level = depth
		case kind == source.KindElif || kind == source.KindElse:
			// branch markers sit at the opener's level
			if level > 0 {
				level--
			}
		}

		out = append(out, strings.Repeat(indent, level)+text)

		if kind.OpensBlock() {
			depth++
		}
	}
	return strings.Join(out, "\n") + "\n"
}

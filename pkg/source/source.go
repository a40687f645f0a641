// Package source splits EcoLang text into classified statement lines.
// Blank lines and comments are dropped but original line numbers are
// preserved for diagnostics.
package source

import "strings"

// Kind identifies a statement by its leading keyword. The set is closed:
// the dispatcher switches exhaustively over it.
type Kind int

const (
	KindUnknown Kind = iota
	KindSay
	KindLet
	KindConst
	KindWarn
	KindAsk
	KindIf
	KindElif
	KindElse
	KindRepeat
	KindWhile
	KindFor
	KindFunc
	KindReturn
	KindCall
	KindEcoTip
	KindSavePower
	KindEnd
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindSay:       "say",
	KindLet:       "let",
	KindConst:     "const",
	KindWarn:      "warn",
	KindAsk:       "ask",
	KindIf:        "if",
	KindElif:      "elif",
	KindElse:      "else",
	KindRepeat:    "repeat",
	KindWhile:     "while",
	KindFor:       "for",
	KindFunc:      "func",
	KindReturn:    "return",
	KindCall:      "call",
	KindEcoTip:    "ecoTip",
	KindSavePower: "savePower",
	KindEnd:       "end",
}

func (k Kind) String() string {
	return kindNames[k]
}

// OpensBlock reports whether the statement consumes lines up to a
// matching end.
func (k Kind) OpensBlock() bool {
	switch k {
	case KindIf, KindRepeat, KindWhile, KindFor, KindFunc:
		return true
	}
	return false
}

// Line is one executable statement with its original position.
type Line struct {
	Num  int    // 1-based line number in the submitted source
	Text string // trimmed statement text
	Kind Kind
}

var keywords = map[string]Kind{
	"say":       KindSay,
	"let":       KindLet,
	"const":     KindConst,
	"warn":      KindWarn,
	"ask":       KindAsk,
	"if":        KindIf,
	"elif":      KindElif,
	"else":      KindElse,
	"repeat":    KindRepeat,
	"while":     KindWhile,
	"for":       KindFor,
	"func":      KindFunc,
	"return":    KindReturn,
	"call":      KindCall,
	"ecoTip":    KindEcoTip,
	"savePower": KindSavePower,
	"end":       KindEnd,
}

// Classify returns the statement kind for one trimmed line.
func Classify(text string) Kind {
	word := text
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		word = text[:i]
	}
	if k, ok := keywords[word]; ok {
		return k
	}
	return KindUnknown
}

// Scan splits source text into classified statement lines, dropping
// blanks and # comments.
func Scan(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		t := strings.TrimSpace(r)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		lines = append(lines, Line{
			Num:  i + 1,
			Text: t,
			Kind: Classify(t),
		})
	}
	return lines
}

// ExtractBlock collects the lines of a block body starting at lines[start]
// (the first line after the opener) up to the matching end, tracking
// nesting so inner blocks of any kind are matched correctly. It returns
// the body, the index of the matching end line, and whether the end was
// found.
func ExtractBlock(lines []Line, start int) (body []Line, endIdx int, ok bool) {
	depth := 0
	for j := start; j < len(lines); j++ {
		switch {
		case lines[j].Kind.OpensBlock():
			depth++
		case lines[j].Kind == KindEnd:
			if depth == 0 {
				return lines[start:j], j, true
			}
			depth--
		}
	}
	return nil, 0, false
}

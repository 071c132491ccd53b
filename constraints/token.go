// Package constraints implements the set-constraint pipeline: generating
// normalized constraints from a LIR program, parsing the textual constraint
// language, and solving by graph saturation into a points-to map.
package constraints

import (
	"strings"

	analysis "github.com/lirtools/analysis"
)

// Tokenizer splits constraint text into identifiers, punctuation and
// newlines. Newlines are significant: one constraint per line.
type Tokenizer struct {
	tokens []string
	pos    int
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func symbolAt(s string, i int) string {
	if strings.HasPrefix(s[i:], "<=") || strings.HasPrefix(s[i:], "->") {
		return s[i : i+2]
	}
	switch s[i] {
	case '(', ')', '[', ']', ',', '\n':
		return s[i : i+1]
	}
	return ""
}

func NewTokenizer(input string) *Tokenizer {
	var tokens []string
	for i := 0; i < len(input); {
		switch {
		case isSpace(input[i]):
			i++
		case symbolAt(input, i) != "":
			sym := symbolAt(input, i)
			tokens = append(tokens, sym)
			i += len(sym)
		default:
			j := i
			for j < len(input) && !isSpace(input[j]) && symbolAt(input, j) == "" {
				j++
			}
			tokens = append(tokens, input[i:j])
			i = j
		}
	}
	return &Tokenizer{tokens: tokens}
}

func (t *Tokenizer) Empty() bool { return t.pos >= len(t.tokens) }

func (t *Tokenizer) Peek() string {
	if t.Empty() {
		return ""
	}
	return t.tokens[t.pos]
}

func (t *Tokenizer) Consume() (string, error) {
	if t.Empty() {
		return "", analysis.Errorf(analysis.Parse, "unexpected end of constraint input")
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok, nil
}

func (t *Tokenizer) Expect(want string) error {
	got, err := t.Consume()
	if err != nil {
		return err
	}
	if got != want {
		return analysis.Errorf(analysis.Parse, "expected %q, got %q", want, got)
	}
	return nil
}

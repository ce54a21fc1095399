package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokTimes
	tokDivide
	tokLParen
	tokRParen
	tokEquals
	tokFunc     // sin cos tan log
	tokSqrt     // √
	tokPi       // π
	tokIntegral // ∫
	tokVariable // a b c x y
)

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset in the input
}

var functionNames = []string{"sin", "cos", "tan", "log"}

var variableNames = "abcxy"

// tokenize splits s into tokens. Whitespace is skipped.
func tokenize(s string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		if r >= '0' && r <= '9' || r == '.' {
			start := i
			dots := 0
			for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
				if s[i] == '.' {
					dots++
				}
				i++
			}
			if dots > 1 || s[start:i] == "." {
				return nil, fmt.Errorf("malformed number %q at position %d", s[start:i], start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: s[start:i], pos: start})
			continue
		}

		if name := matchFunction(s[i:]); name != "" {
			tokens = append(tokens, token{kind: tokFunc, text: name, pos: i})
			i += len(name)
			continue
		}

		kind, ok := symbolKind(r)
		if !ok {
			return nil, fmt.Errorf("unexpected symbol %q at position %d", string(r), i)
		}
		tokens = append(tokens, token{kind: kind, text: string(r), pos: i})
		i += size
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(s)})
	return tokens, nil
}

func matchFunction(s string) string {
	for _, name := range functionNames {
		if strings.HasPrefix(s, name) {
			return name
		}
	}
	return ""
}

func symbolKind(r rune) (tokenKind, bool) {
	switch r {
	case '+':
		return tokPlus, true
	case '-', '−':
		return tokMinus, true
	case '×', '*', '·':
		return tokTimes, true
	case '÷', '/':
		return tokDivide, true
	case '(':
		return tokLParen, true
	case ')':
		return tokRParen, true
	case '=':
		return tokEquals, true
	case '√':
		return tokSqrt, true
	case 'π':
		return tokPi, true
	case '∫':
		return tokIntegral, true
	}
	if strings.ContainsRune(variableNames, r) {
		return tokVariable, true
	}
	return tokEOF, false
}

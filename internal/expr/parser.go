package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUnsupported is returned for symbols that are recognized but cannot be
	// evaluated numerically, such as variables and integrals.
	ErrUnsupported = errors.New("unsupported symbol")
)

// Evaluate parses and evaluates an arithmetic expression written with the
// symbol vocabulary.
//
// # Grammar
//
//	expression = term { ("+" | "-") term } [ "=" ]
//	term       = unary { ("×" | "÷") unary | unary }
//	unary      = ("-" | "+") unary | ("√" | function) unary | primary
//	primary    = number | "π" | "(" expression ")"
//
// A unary that directly follows another one in a term is multiplied with it,
// so "2π" and "3(4+1)" read as products. Functions take radians and "log" is
// the base-10 logarithm. A single trailing "=" is ignored.
func Evaluate(s string) (float64, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 1 {
		return 0, errors.New("empty expression")
	}

	p := &parser{tokens: tokens}
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.peek().kind == tokEquals {
		p.next()
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("result is not a finite number")
	}
	return v, nil
}

// Format renders v the way a calculator would: integers without a decimal
// point, other values with the shortest exact representation.
func Format(v float64) string {
	if v == 0 {
		return "0" // also covers negative zero
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EvaluateString evaluates s and returns the formatted result, or
// "Error: <reason>" when evaluation fails.
func EvaluateString(s string) string {
	v, err := Evaluate(s)
	if err != nil {
		return "Error: " + err.Error()
	}
	return Format(v)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case tokMinus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokTimes:
			p.next()
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			left *= right
		case t.kind == tokDivide:
			p.next()
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("%w at position %d", ErrDivisionByZero, t.pos)
			}
			left /= right
		case startsOperand(t.kind):
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			left *= right
		default:
			return left, nil
		}
	}
}

// startsOperand reports whether a token can begin an implicit product factor.
// Unary signs are excluded so "2-1" stays a subtraction.
func startsOperand(k tokenKind) bool {
	switch k {
	case tokNumber, tokLParen, tokFunc, tokSqrt, tokPi, tokVariable, tokIntegral:
		return true
	}
	return false
}

func (p *parser) unary() (float64, error) {
	t := p.peek()
	switch t.kind {
	case tokMinus:
		p.next()
		v, err := p.unary()
		return -v, err
	case tokPlus:
		p.next()
		return p.unary()
	case tokSqrt:
		p.next()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return 0, fmt.Errorf("square root of negative number at position %d", t.pos)
		}
		return math.Sqrt(v), nil
	case tokFunc:
		p.next()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		return applyFunction(t, v)
	}
	return p.primary()
}

func applyFunction(t token, v float64) (float64, error) {
	switch t.text {
	case "sin":
		return math.Sin(v), nil
	case "cos":
		return math.Cos(v), nil
	case "tan":
		return math.Tan(v), nil
	case "log":
		if v <= 0 {
			return 0, fmt.Errorf("logarithm of non-positive number at position %d", t.pos)
		}
		return math.Log10(v), nil
	}
	return 0, fmt.Errorf("unknown function %q", t.text)
}

func (p *parser) primary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed number %q at position %d", t.text, t.pos)
		}
		return v, nil
	case tokPi:
		return math.Pi, nil
	case tokLParen:
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, fmt.Errorf("missing closing parenthesis for position %d", t.pos)
		}
		return v, nil
	case tokVariable:
		return 0, fmt.Errorf("%w: variable %q has no value", ErrUnsupported, t.text)
	case tokIntegral:
		return 0, fmt.Errorf("%w: integrals cannot be evaluated", ErrUnsupported)
	case tokEOF:
		return 0, errors.New("unexpected end of expression")
	}
	return 0, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
}

// Package expr evaluates tenant-defined custom formulas. Formulas reference
// the fixed variable context with bracketed tokens, e.g.
// "[valor_total] / [potencia_kwp]". Safety is a property of the grammar:
// after substitution only numbers, + - * / ( ) and whitespace may remain,
// and the parser has no notion of identifiers or calls.
package expr

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	tokenPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

	errBadChar    = errors.New("expression contains a disallowed character")
	errParse      = errors.New("expression does not parse")
	errDivideZero = errors.New("division by zero")
)

// Evaluate substitutes every bracketed token with its context value (missing
// keys substitute as 0), rejects anything outside the arithmetic charset,
// evaluates the remaining expression and rounds to four decimals. Any
// failure yields nil; one bad formula never aborts the batch.
func Evaluate(expression string, context map[string]float64) *float64 {
	substituted := tokenPattern.ReplaceAllStringFunc(expression, func(match string) string {
		name := strings.TrimSpace(match[1 : len(match)-1])
		return strconv.FormatFloat(context[name], 'f', -1, 64)
	})

	value, err := evaluateArithmetic(substituted)
	if err != nil {
		return nil
	}
	rounded, _ := value.Round(4).Float64()
	return &rounded
}

func evaluateArithmetic(input string) (decimal.Decimal, error) {
	for _, r := range input {
		if !isAllowed(r) {
			return decimal.Zero, errBadChar
		}
	}
	p := &parser{input: input}
	value, err := p.parseExpression()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return decimal.Zero, errParse
	}
	return value, nil
}

func isAllowed(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '+' || r == '-' || r == '*' || r == '/':
		return true
	case r == '(' || r == ')' || r == ' ' || r == '\t':
		return true
	}
	return false
}

// parser is a recursive-descent evaluator over the grammar
//
//	expression = term { ("+" | "-") term }
//	term       = factor { ("*" | "/") factor }
//	factor     = number | "-" factor | "(" expression ")"
type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpression() (decimal.Decimal, error) {
	value, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpace()
		switch {
		case p.consume('+'):
			rhs, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			value = value.Add(rhs)
		case p.consume('-'):
			rhs, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			value = value.Sub(rhs)
		default:
			return value, nil
		}
	}
}

func (p *parser) parseTerm() (decimal.Decimal, error) {
	value, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpace()
		switch {
		case p.consume('*'):
			rhs, err := p.parseFactor()
			if err != nil {
				return decimal.Zero, err
			}
			value = value.Mul(rhs)
		case p.consume('/'):
			rhs, err := p.parseFactor()
			if err != nil {
				return decimal.Zero, err
			}
			if rhs.IsZero() {
				return decimal.Zero, errDivideZero
			}
			value = value.Div(rhs)
		default:
			return value, nil
		}
	}
}

func (p *parser) parseFactor() (decimal.Decimal, error) {
	p.skipSpace()
	if p.consume('-') {
		value, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		return value.Neg(), nil
	}
	if p.consume('(') {
		value, err := p.parseExpression()
		if err != nil {
			return decimal.Zero, err
		}
		p.skipSpace()
		if !p.consume(')') {
			return decimal.Zero, errParse
		}
		return value, nil
	}
	return p.parseNumber()
}

func (p *parser) parseNumber() (decimal.Decimal, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return decimal.Zero, errParse
	}
	value, err := decimal.NewFromString(p.input[start:p.pos])
	if err != nil {
		return decimal.Zero, errParse
	}
	return value, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

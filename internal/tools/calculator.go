package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

const (
	invalidExpressionText = "Invalid expression"
	calculationErrorText  = "Error in calculation"
)

var (
	ErrInvalidExpression = errors.New("calculator: expression contains disallowed characters")
	ErrDivisionByZero    = errors.New("calculator: division by zero")
	ErrSyntax            = errors.New("calculator: syntax error")
)

var allowedExpression = regexp.MustCompile(`^[0-9+\-*/().\s]+$`)

// Calculator evaluates the whole message as an arithmetic expression over
// digits, decimal points, + - * / and parentheses. Integer arithmetic is
// exact; decimals and division produce floats.
type Calculator struct{}

func (c *Calculator) Handle(_ context.Context, message string) Result {
	value, err := Evaluate(message)
	switch {
	case errors.Is(err, ErrInvalidExpression):
		return Result{Tool: ToolCalculator, Text: invalidExpressionText, Status: StatusFailed}
	case err != nil:
		return Result{Tool: ToolCalculator, Text: calculationErrorText, Status: StatusFailed}
	}
	return Result{Tool: ToolCalculator, Text: value.String(), Status: StatusOK}
}

// FormatNumber renders v in its shortest decimal form: 8, 3.5, 0.1.
func FormatNumber(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Number is an exact integer until a decimal literal or a division makes it
// a float64.
type Number struct {
	exact  *big.Int
	approx float64
}

func exactNumber(i *big.Int) Number { return Number{exact: i} }
func approxNumber(f float64) Number { return Number{approx: f} }
func (n Number) IsExact() bool      { return n.exact != nil }

func (n Number) String() string {
	if n.exact != nil {
		return n.exact.String()
	}
	return FormatNumber(n.approx)
}

// Float64 converts n, failing when an integer is too large for a float.
func (n Number) Float64() (float64, error) {
	if n.exact == nil {
		return n.approx, nil
	}
	f, _ := new(big.Float).SetInt(n.exact).Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: integer too large to convert to float", ErrSyntax)
	}
	return f, nil
}

// Evaluate parses and computes expr with the usual precedence and unary
// signs. No identifiers or function calls are accepted.
func Evaluate(expr string) (Number, error) {
	if !allowedExpression.MatchString(expr) {
		return Number{}, ErrInvalidExpression
	}

	p := &exprParser{src: expr}
	value, err := p.parseSum()
	if err != nil {
		return Number{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Number{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, p.src[p.pos], p.pos)
	}
	return value, nil
}

func apply(op byte, a, b Number) (Number, error) {
	if op == '/' {
		return divide(a, b)
	}

	if a.IsExact() && b.IsExact() {
		out := new(big.Int)
		switch op {
		case '+':
			out.Add(a.exact, b.exact)
		case '-':
			out.Sub(a.exact, b.exact)
		case '*':
			out.Mul(a.exact, b.exact)
		}
		return exactNumber(out), nil
	}

	x, err := a.Float64()
	if err != nil {
		return Number{}, err
	}
	y, err := b.Float64()
	if err != nil {
		return Number{}, err
	}

	var out float64
	switch op {
	case '+':
		out = x + y
	case '-':
		out = x - y
	case '*':
		out = x * y
	}
	return finite(out)
}

// divide always yields a float; integer operands are divided exactly and
// rounded once.
func divide(a, b Number) (Number, error) {
	if a.IsExact() && b.IsExact() {
		if b.exact.Sign() == 0 {
			return Number{}, ErrDivisionByZero
		}
		f, _ := new(big.Rat).SetFrac(a.exact, b.exact).Float64()
		return finite(f)
	}

	x, err := a.Float64()
	if err != nil {
		return Number{}, err
	}
	y, err := b.Float64()
	if err != nil {
		return Number{}, err
	}
	if y == 0 {
		return Number{}, ErrDivisionByZero
	}
	return finite(x / y)
}

func negate(n Number) Number {
	if n.IsExact() {
		return exactNumber(new(big.Int).Neg(n.exact))
	}
	return approxNumber(-n.approx)
}

func finite(f float64) (Number, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Number{}, fmt.Errorf("%w: result is not finite", ErrSyntax)
	}
	return approxNumber(f), nil
}

type exprParser struct {
	src   string
	pos   int
	depth int
}

const maxNesting = 256

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseSum() (Number, error) {
	left, err := p.parseProduct()
	if err != nil {
		return Number{}, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return Number{}, err
		}
		if left, err = apply(op, left, right); err != nil {
			return Number{}, err
		}
	}
}

func (p *exprParser) parseProduct() (Number, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Number{}, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return Number{}, err
		}
		if left, err = apply(op, left, right); err != nil {
			return Number{}, err
		}
	}
}

func (p *exprParser) parseUnary() (Number, error) {
	switch p.peek() {
	case '+', '-':
		op := p.src[p.pos]
		p.pos++
		if err := p.enter(); err != nil {
			return Number{}, err
		}
		defer p.leave()
		value, err := p.parseUnary()
		if err != nil {
			return Number{}, err
		}
		if op == '-' {
			value = negate(value)
		}
		return value, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Number, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		if err := p.enter(); err != nil {
			return Number{}, err
		}
		defer p.leave()
		value, err := p.parseSum()
		if err != nil {
			return Number{}, err
		}
		if p.peek() != ')' {
			return Number{}, fmt.Errorf("%w: missing closing parenthesis", ErrSyntax)
		}
		p.pos++
		return value, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case c == 0:
		return Number{}, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return Number{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, c, p.pos)
	}
}

// parseNumber reads an integer literal exactly and a decimal literal as a
// float64.
func (p *exprParser) parseNumber() (Number, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c != '.' && (c < '0' || c > '9') {
			break
		}
		p.pos++
	}
	literal := p.src[start:p.pos]

	if !strings.Contains(literal, ".") {
		i, ok := new(big.Int).SetString(literal, 10)
		if !ok {
			return Number{}, fmt.Errorf("%w: bad number %q", ErrSyntax, literal)
		}
		return exactNumber(i), nil
	}

	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return Number{}, fmt.Errorf("%w: bad number %q", ErrSyntax, literal)
	}
	return finite(value)
}

func (p *exprParser) enter() error {
	p.depth++
	if p.depth > maxNesting {
		return fmt.Errorf("%w: expression nested too deeply", ErrSyntax)
	}
	return nil
}

func (p *exprParser) leave() { p.depth-- }

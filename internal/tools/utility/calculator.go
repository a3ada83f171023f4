package utility

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

var (
	errDivisionByZero = errors.New("division by zero")
	errOutOfRange     = errors.New("result out of range")
)

// number is an exact integer or a float. Integers never overflow; floats
// only appear for true division, float literals and negative exponents.
type number struct {
	i *big.Int // nil for floats
	f float64
}

// maxPowBits bounds the size of an integer power result.
const maxPowBits = 1 << 16

func intNum(i *big.Int) number  { return number{i: i} }
func floatNum(f float64) number { return number{f: f} }

func (n number) isInt() bool { return n.i != nil }

func (n number) float() (float64, error) {
	if !n.isInt() {
		return n.f, nil
	}
	f, _ := new(big.Float).SetInt(n.i).Float64()
	if math.IsInf(f, 0) {
		return 0, errOutOfRange
	}
	return f, nil
}

func (n number) String() string {
	if n.isInt() {
		return n.i.String()
	}
	if n.f == math.Trunc(n.f) && math.Abs(n.f) < 1e21 {
		return strconv.FormatFloat(n.f, 'f', -1, 64)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case (c >= '0' && c <= '9') || c == '.':
			start := i
			for i < len(expr) && ((expr[i] >= '0' && expr[i] <= '9') || expr[i] == '.' || expr[i] == '_') {
				i++
			}
			// exponent, e.g. 1e3 or 2.5E-2
			if i < len(expr) && (expr[i] == 'e' || expr[i] == 'E') {
				j := i + 1
				if j < len(expr) && (expr[j] == '+' || expr[j] == '-') {
					j++
				}
				if j < len(expr) && expr[j] >= '0' && expr[j] <= '9' {
					for j < len(expr) && expr[j] >= '0' && expr[j] <= '9' {
						j++
					}
					i = j
				}
			}
			toks = append(toks, token{kind: tokNumber, text: expr[start:i], pos: start})
		case c == '*' || c == '/':
			if i+1 < len(expr) && expr[i+1] == c {
				toks = append(toks, token{kind: tokOp, text: expr[i : i+2], pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '+' || c == '-' || c == '%':
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(expr)}), nil
}

// parser is a recursive descent evaluator with the usual precedence:
//
//	expr  = term { ("+" | "-") term }
//	term  = unary { ("*" | "/" | "//" | "%") unary }
//	unary = ("+" | "-") unary | power
//	power = primary [ "**" unary ]
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (number, error) {
	left, err := p.term()
	if err != nil {
		return number{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return number{}, err
		}
		if left, err = apply(t.text, left, right); err != nil {
			return number{}, err
		}
	}
}

func (p *parser) term() (number, error) {
	left, err := p.unary()
	if err != nil {
		return number{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "//" && t.text != "%") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return number{}, err
		}
		if left, err = apply(t.text, left, right); err != nil {
			return number{}, err
		}
	}
}

func (p *parser) unary() (number, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		v, err := p.unary()
		if err != nil {
			return number{}, err
		}
		if t.text == "+" {
			return v, nil
		}
		if v.isInt() {
			return intNum(new(big.Int).Neg(v.i)), nil
		}
		return floatNum(-v.f), nil
	}
	return p.power()
}

func (p *parser) power() (number, error) {
	base, err := p.primary()
	if err != nil {
		return number{}, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "**" {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return number{}, err
		}
		return apply("**", base, exp)
	}
	return base, nil
}

func (p *parser) primary() (number, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return parseNumber(t.text)
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return number{}, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return number{}, fmt.Errorf("missing closing parenthesis at position %d", closing.pos)
		}
		return v, nil
	case tokEOF:
		return number{}, errors.New("unexpected end of expression")
	default:
		return number{}, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
}

func parseNumber(s string) (number, error) {
	clean := strings.ReplaceAll(s, "_", "")
	if !strings.ContainsAny(clean, ".eE") {
		if i, ok := new(big.Int).SetString(clean, 10); ok {
			return intNum(i), nil
		}
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return number{}, fmt.Errorf("invalid number %q", s)
	}
	return floatNum(f), nil
}

func apply(op string, a, b number) (number, error) {
	if a.isInt() && b.isInt() {
		if v, ok, err := applyInt(op, a.i, b.i); err != nil || ok {
			return v, err
		}
	}
	if op == "/" && a.isInt() && b.isInt() {
		// Exact quotient rounded once, so large operands keep full precision.
		r, _ := new(big.Rat).SetFrac(a.i, b.i).Float64()
		if math.IsInf(r, 0) {
			return number{}, errOutOfRange
		}
		return floatNum(r), nil
	}
	x, err := a.float()
	if err != nil {
		return number{}, err
	}
	y, err := b.float()
	if err != nil {
		return number{}, err
	}
	var r float64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		if y == 0 {
			return number{}, errDivisionByZero
		}
		r = x / y
	case "//":
		if y == 0 {
			return number{}, errDivisionByZero
		}
		r = math.Floor(x / y)
	case "%":
		if y == 0 {
			return number{}, errDivisionByZero
		}
		r = math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
	case "**":
		if x == 0 && y < 0 {
			return number{}, errors.New("zero cannot be raised to a negative power")
		}
		r = math.Pow(x, y)
	default:
		return number{}, fmt.Errorf("unsupported operator %q", op)
	}
	if math.IsInf(r, 0) {
		return number{}, errOutOfRange
	}
	if math.IsNaN(r) {
		return number{}, errors.New("result is not a real number")
	}
	return floatNum(r), nil
}

// applyInt computes exact integer results. It reports ok=false for true
// division and negative exponents, which the caller evaluates as floats.
func applyInt(op string, a, b *big.Int) (number, bool, error) {
	switch op {
	case "+":
		return intNum(new(big.Int).Add(a, b)), true, nil
	case "-":
		return intNum(new(big.Int).Sub(a, b)), true, nil
	case "*":
		return intNum(new(big.Int).Mul(a, b)), true, nil
	case "/":
		if b.Sign() == 0 {
			return number{}, false, errDivisionByZero
		}
	case "//", "%":
		if b.Sign() == 0 {
			return number{}, false, errDivisionByZero
		}
		q, m := new(big.Int).QuoRem(a, b, new(big.Int))
		// Floor semantics: the remainder takes the divisor's sign.
		if m.Sign() != 0 && (m.Sign() < 0) != (b.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
			m.Add(m, b)
		}
		if op == "//" {
			return intNum(q), true, nil
		}
		return intNum(m), true, nil
	case "**":
		if b.Sign() < 0 {
			return number{}, false, nil
		}
		if a.CmpAbs(big.NewInt(1)) > 0 {
			if !b.IsInt64() || b.Int64() > maxPowBits || int64(a.BitLen()-1)*b.Int64() > maxPowBits {
				return number{}, false, errOutOfRange
			}
		}
		return intNum(powInt(a, b)), true, nil
	}
	return number{}, false, nil
}

// powInt handles bases 0, 1 and -1 with huge exponents without looping.
func powInt(a, b *big.Int) *big.Int {
	switch {
	case a.Sign() == 0:
		if b.Sign() == 0 {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case a.CmpAbs(big.NewInt(1)) == 0:
		if a.Sign() < 0 && b.Bit(0) == 1 {
			return big.NewInt(-1)
		}
		return big.NewInt(1)
	}
	return new(big.Int).Exp(a, b, nil)
}

// Evaluate parses and evaluates an arithmetic expression.
func Evaluate(expr string) (string, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return "", err
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return "", err
	}
	if t := p.peek(); t.kind != tokEOF {
		return "", fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
	return v.String(), nil
}

func calculateImpl(query string) (string, error) {
	expr := strings.TrimSpace(query)
	if expr == "" {
		return "", errors.New("empty expression")
	}
	result, err := Evaluate(expr)
	if err != nil {
		if errors.Is(err, errDivisionByZero) {
			return "", err
		}
		return "", fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	return fmt.Sprintf("Result: %s = %s", expr, result), nil
}

// NewCalculatorTool creates the Calculator tool.
func NewCalculatorTool() engine.Tool {
	return engine.NewTool(
		"Calculator",
		"Evaluate arithmetic. Supports + - * / // % ** and parentheses. Examples: '2 + 2', '10 * (5 + 3)', '2 ** 8'",
		func(_ context.Context, query string) (string, error) {
			return calculateImpl(query)
		},
	)
}

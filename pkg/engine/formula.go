package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp     // + - * / ^
	tokLParen // (
	tokRParen // )
	tokSep    // ; argument separator
)

type token struct {
	kind tokenKind
	text string
}

// lex splits a formula into tokens. Decimal commas inside numbers are
// normalized to dots; ';' separates function arguments.
func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i
			seenDot := false
			for j < len(rs) {
				c := rs[j]
				if unicode.IsDigit(c) {
					j++
					continue
				}
				if (c == '.' || c == ',') && !seenDot && j+1 < len(rs) && unicode.IsDigit(rs[j+1]) {
					seenDot = true
					j++
					continue
				}
				break
			}
			text := strings.Replace(string(rs[i:j]), ",", ".", 1)
			toks = append(toks, token{kind: tokNumber, text: text})
			i = j
		case isIdentStart(r):
			j := i + 1
			for j < len(rs) && isIdentPart(rs[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[i:j])})
			i = j
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case r == ';':
			toks = append(toks, token{kind: tokSep, text: ";"})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", r, i)
		}
	}
	return toks, nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '#'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '#' || r == '.'
}

// Tokens returns the identifiers referenced by a formula, in order of first
// appearance, excluding function names.
func Tokens(formula string) ([]string, error) {
	toks, err := lex(formula)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]bool)
	for i, t := range toks {
		if t.kind != tokIdent {
			continue
		}
		if i+1 < len(toks) && toks[i+1].kind == tokLParen {
			continue
		}
		if !seen[t.text] {
			seen[t.text] = true
			out = append(out, t.text)
		}
	}
	return out, nil
}

// Canonical returns the normalized text of a formula: one space around
// binary operators, none inside parentheses, dots as decimal separators.
// Canonical is idempotent. Text that does not lex is returned trimmed.
func Canonical(formula string) string {
	toks, err := lex(formula)
	if err != nil {
		return strings.TrimSpace(formula)
	}
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && needsSpace(toks, i) {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func needsSpace(toks []token, i int) bool {
	prev, cur := toks[i-1], toks[i]
	switch {
	case prev.kind == tokLParen, cur.kind == tokRParen, cur.kind == tokSep:
		return false
	case prev.kind == tokOp && isUnary(toks, i-1):
		return false
	case cur.kind == tokLParen:
		return prev.kind == tokOp || prev.kind == tokSep
	}
	return true
}

// isUnary reports whether the operator at i is a prefix sign.
func isUnary(toks []token, i int) bool {
	if toks[i].kind != tokOp || (toks[i].text != "-" && toks[i].text != "+") {
		return false
	}
	if i == 0 {
		return true
	}
	switch toks[i-1].kind {
	case tokOp, tokLParen, tokSep:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Parser: infix formula -> zygomys s-expression
// ---------------------------------------------------------------------------

// functions maps formula function names to their registered builtin and
// arity. A negative arity means "one or more".
var functions = map[string]struct {
	builtin string
	arity   int
}{
	"sqrt":  {"fx_sqrt", 1},
	"abs":   {"fx_abs", 1},
	"sin":   {"fx_sin", 1},
	"cos":   {"fx_cos", 1},
	"tan":   {"fx_tan", 1},
	"asin":  {"fx_asin", 1},
	"acos":  {"fx_acos", 1},
	"atan":  {"fx_atan", 1},
	"pow":   {"fx_pow", 2},
	"min":   {"fx_min", -1},
	"max":   {"fx_max", -1},
	"round": {"fx_round", 1},
}

type parser struct {
	toks []token
	pos  int
	// bind resolves an identifier to the symbol it is bound to.
	bind func(name string) (string, error)
}

// compile parses an infix formula and returns the equivalent s-expression.
func compile(formula string, bind func(string) (string, error)) (string, error) {
	toks, err := lex(formula)
	if err != nil {
		return "", err
	}
	if len(toks) == 0 {
		return "", fmt.Errorf("empty formula")
	}
	p := &parser{toks: toks, bind: bind}
	out, err := p.expr(0)
	if err != nil {
		return "", err
	}
	if p.pos != len(p.toks) {
		return "", fmt.Errorf("unexpected %q at token %d", p.toks[p.pos].text, p.pos)
	}
	return out, nil
}

func precedence(op string) (prec int, rightAssoc bool) {
	switch op {
	case "+", "-":
		return 1, false
	case "*", "/":
		return 2, false
	case "^":
		return 4, true
	}
	return 0, false
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

// expr implements precedence climbing over binary operators.
func (p *parser) expr(minPrec int) (string, error) {
	lhs, err := p.unary()
	if err != nil {
		return "", err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp {
			return lhs, nil
		}
		prec, right := precedence(t.text)
		if prec < minPrec || prec == 0 {
			return lhs, nil
		}
		p.pos++
		next := prec + 1
		if right {
			next = prec
		}
		rhs, err := p.expr(next)
		if err != nil {
			return "", err
		}
		if t.text == "^" {
			lhs = fmt.Sprintf("(fx_pow %s %s)", lhs, rhs)
		} else {
			lhs = fmt.Sprintf("(%s %s %s)", t.text, lhs, rhs)
		}
	}
}

func (p *parser) unary() (string, error) {
	t, ok := p.peek()
	if ok && t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.pos++
		// Unary sign binds tighter than * and / but looser than ^.
		operand, err := p.expr(3)
		if err != nil {
			return "", err
		}
		if t.text == "+" {
			return operand, nil
		}
		return fmt.Sprintf("(- 0.0 %s)", operand), nil
	}
	return p.primary()
}

func (p *parser) primary() (string, error) {
	t, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("unexpected end of formula")
	}
	p.pos++
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return "", fmt.Errorf("bad number %q: %w", t.text, err)
		}
		return floatLiteral(v), nil

	case tokIdent:
		if next, ok := p.peek(); ok && next.kind == tokLParen {
			return p.call(t.text)
		}
		return p.bind(t.text)

	case tokLParen:
		inner, err := p.expr(0)
		if err != nil {
			return "", err
		}
		if closing, ok := p.peek(); !ok || closing.kind != tokRParen {
			return "", fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}
	return "", fmt.Errorf("unexpected %q", t.text)
}

func (p *parser) call(name string) (string, error) {
	fn, ok := functions[name]
	if !ok {
		return "", fmt.Errorf("unknown function %q", name)
	}
	p.pos++ // (

	var args []string
	for {
		arg, err := p.expr(0)
		if err != nil {
			return "", err
		}
		args = append(args, arg)
		t, ok := p.peek()
		if !ok {
			return "", fmt.Errorf("missing closing parenthesis in call to %s", name)
		}
		p.pos++
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokSep {
			return "", fmt.Errorf("unexpected %q in call to %s", t.text, name)
		}
	}
	if fn.arity >= 0 && len(args) != fn.arity {
		return "", fmt.Errorf("%s takes %d argument(s), got %d", name, fn.arity, len(args))
	}
	return fmt.Sprintf("(%s %s)", fn.builtin, strings.Join(args, " ")), nil
}

// floatLiteral renders v so that zygomys reads it back as a float, never an
// integer, which keeps division exact.
func floatLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	if v < 0 {
		return "(- 0.0 " + s[1:] + ")"
	}
	return s
}

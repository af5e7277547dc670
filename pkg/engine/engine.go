// Package engine evaluates pattern formulas. Infix formulas are compiled to
// zygomys s-expressions and run in a fresh sandboxed environment, one per
// evaluation, so evaluations never share state.
package engine

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/selvage/pkg/perr"
)

// EvalError represents a failure to evaluate a formula, such as a parse
// error or a runtime error in the generated program.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Calculator evaluates formulas against a set of named variables.
// It is safe for concurrent use; each evaluation creates a fresh sandboxed
// environment for determinism.
type Calculator struct{}

// NewCalculator creates a new Calculator instance.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// EvalFormula evaluates text with the given variables. On any failure it
// returns (0, false). An empty formula evaluates to (0, true).
func (c *Calculator) EvalFormula(vars map[string]float64, text string) (float64, bool) {
	v, err := c.Eval(vars, text)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Eval evaluates text and reports failures as expression errors.
//
// Return semantics:
//   - empty formula: 0, nil
//   - success: value, nil
//   - unknown identifier, syntax error, runtime error, NaN/Inf, timeout or
//     panic: 0, *perr.Error of KindExpression
func (c *Calculator) Eval(vars map[string]float64, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	program, err := buildProgram(vars, text)
	if err != nil {
		return 0, perr.Expression(text, err)
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		v, err := run(program)
		ch <- evalResult{value: v, err: err}
	}()

	v, err := waitWithTimeout(ch)
	if err != nil {
		return 0, perr.Expression(text, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, perr.Expression(text, fmt.Errorf("result is not a finite number"))
	}
	return v, nil
}

// buildProgram renders the zygomys source for one evaluation: a def per
// referenced variable followed by the compiled expression.
func buildProgram(vars map[string]float64, text string) (string, error) {
	bound := make(map[string]string)
	var names []string
	bind := func(name string) (string, error) {
		if sym, ok := bound[name]; ok {
			return sym, nil
		}
		if _, ok := vars[name]; !ok {
			return "", fmt.Errorf("unknown variable %q", name)
		}
		sym := "v_" + strconv.Itoa(len(bound))
		bound[name] = sym
		names = append(names, name)
		return sym, nil
	}

	expr, err := compile(text, bind)
	if err != nil {
		return "", err
	}

	// A lone atom runs to a sentinel in zygomys, so it is wrapped in a call.
	if !strings.HasPrefix(expr, "(") {
		expr = "(+ 0.0 " + expr + ")"
	}

	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "(def %s %s)\n", bound[name], floatLiteral(vars[name]))
	}
	b.WriteString(expr)
	return b.String(), nil
}

// run evaluates program in a fresh sandbox.
func run(program string) (float64, error) {
	// Sandbox mode prevents formulas from reaching the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env)

	if err := env.LoadString(program); err != nil {
		return 0, parseZygomysError(err)[0]
	}
	res, err := env.Run()
	if err != nil {
		return 0, parseZygomysError(err)[0]
	}
	return toFloat64(res)
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

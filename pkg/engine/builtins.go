package engine

import (
	"fmt"
	"math"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", s)
	}
}

// floatArgs converts every argument to float64.
func floatArgs(name string, args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

const degToRad = math.Pi / 180.0

// builtinFunc is the signature zygomys expects from user functions.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// unaryBuiltins are the single-argument formula functions. Trigonometric
// functions work in degrees, as pattern angles do.
var unaryBuiltins = map[string]func(float64) float64{
	"fx_sqrt":  math.Sqrt,
	"fx_abs":   math.Abs,
	"fx_round": math.Round,
	"fx_sin":   func(x float64) float64 { return math.Sin(x * degToRad) },
	"fx_cos":   func(x float64) float64 { return math.Cos(x * degToRad) },
	"fx_tan":   func(x float64) float64 { return math.Tan(x * degToRad) },
	"fx_asin":  func(x float64) float64 { return math.Asin(x) / degToRad },
	"fx_acos":  func(x float64) float64 { return math.Acos(x) / degToRad },
	"fx_atan":  func(x float64) float64 { return math.Atan(x) / degToRad },
}

// registerBuiltins adds the formula functions to env.
func registerBuiltins(env *zygo.Zlisp) {
	for name, fn := range unaryBuiltins {
		fn := fn
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			xs, err := floatArgs(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(xs) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s: expected 1 argument, got %d", name, len(xs))
			}
			return &zygo.SexpFloat{Val: fn(xs[0])}, nil
		})
	}

	env.AddFunction("fx_pow", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		xs, err := floatArgs(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(xs) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(xs))
		}
		return &zygo.SexpFloat{Val: math.Pow(xs[0], xs[1])}, nil
	})

	reduce := func(pick func(a, b float64) float64) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			xs, err := floatArgs(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(xs) == 0 {
				return zygo.SexpNull, fmt.Errorf("%s: expected at least 1 argument", name)
			}
			acc := xs[0]
			for _, x := range xs[1:] {
				acc = pick(acc, x)
			}
			return &zygo.SexpFloat{Val: acc}, nil
		}
	}
	env.AddFunction("fx_min", reduce(math.Min))
	env.AddFunction("fx_max", reduce(math.Max))
}

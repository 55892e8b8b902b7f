package internal

import (
	"math"
)

// registerMathHelpers registers the Math.* helpers
func registerMathHelpers(r *HelperRegistry) {
	// round(x, precision = 0)
	r.MustRegister(&Helper{
		Name:    HelperMathRound,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			f, err := anyToFloat(args[ArgIndexFirst], HelperMathRound, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			precision := 0
			if len(args) > 1 {
				if precision, err = anyToInt(args[ArgIndexSecond], HelperMathRound, ArgIndexSecond); err != nil {
					return nil, err
				}
			}
			factor := math.Pow(10, float64(precision))
			return normalizeNumber(math.Round(f*factor) / factor), nil
		},
	})

	r.MustRegister(unaryMathHelper(HelperMathFloor, math.Floor))
	r.MustRegister(unaryMathHelper(HelperMathCeil, math.Ceil))
	r.MustRegister(unaryMathHelper(HelperMathAbs, math.Abs))
	r.MustRegister(foldMathHelper(HelperMathMax, math.Max))
	r.MustRegister(foldMathHelper(HelperMathMin, math.Min))
}

func unaryMathHelper(name string, fn func(float64) float64) *Helper {
	return &Helper{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			f, err := anyToFloat(args[ArgIndexFirst], name, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			return normalizeNumber(fn(f)), nil
		},
	}
}

// foldMathHelper accepts either several numbers or a single array of numbers
func foldMathHelper(name string, fn func(a, b float64) float64) *Helper {
	return &Helper{
		Name:    name,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(args []any) (any, error) {
			values := args
			if len(args) == 1 {
				if items, err := toSlice(args[ArgIndexFirst], name, ArgIndexFirst); err == nil {
					values = items
				}
			}
			if len(values) == 0 {
				return nil, nil
			}
			result, err := anyToFloat(values[0], name, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			for i, v := range values[1:] {
				f, err := anyToFloat(v, name, i+1)
				if err != nil {
					return nil, err
				}
				result = fn(result, f)
			}
			return normalizeNumber(result), nil
		},
	}
}

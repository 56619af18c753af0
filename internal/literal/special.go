package literal

import (
	"math"

	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/function"
)

// specialDouble returns nan(), infinity() or -infinity() for the IEEE-754
// special values, and nil for finite doubles.
func specialDouble(v float64) expr.Expression {
	switch {
	case math.IsNaN(v):
		return expr.Call(function.NaN)
	case math.IsInf(v, -1):
		return expr.Negative(expr.Call(function.Infinity))
	case math.IsInf(v, 1):
		return expr.Call(function.Infinity)
	}
	return nil
}

// specialReal is specialDouble for REAL. The functions return DOUBLE, so each
// call is cast to real, with the sign applied outside the cast.
func specialReal(v float32) expr.Expression {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return realCast(expr.Call(function.NaN))
	case math.IsInf(f, -1):
		return expr.Negative(realCast(expr.Call(function.Infinity)))
	case math.IsInf(f, 1):
		return realCast(expr.Call(function.Infinity))
	}
	return nil
}

func realCast(e expr.Expression) *expr.Cast {
	return &expr.Cast{Expression: e, Type: "real"}
}

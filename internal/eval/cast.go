package eval

import (
	"fmt"
	"math"
	"math/big"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

func (ev *Evaluator) evalCast(c *expr.Cast) (value.Value, types.Type, error) {
	v, from, err := ev.Eval(c.Expression)
	if err != nil {
		return nil, nil, err
	}
	to, err := ev.catalog.Type(c.Type)
	if err != nil {
		return nil, nil, err
	}
	if v == nil {
		return nil, to, nil
	}

	if c.TypeOnly {
		if v.Kind() != to.Native() {
			return nil, nil, fmt.Errorf("type-only cast from %s to %s changes the native kind", from, to)
		}
		return v, to, nil
	}

	out, err := cast(v, from, to)
	if err != nil {
		if c.Safe {
			return nil, to, nil
		}
		return nil, nil, err
	}
	return out, to, nil
}

// cast converts between the types literal expressions combine: numeric
// widening, double to real, decimal rescaling, and character retagging.
func cast(v value.Value, from, to types.Type) (value.Value, error) {
	if types.Equal(from, to) {
		return v, nil
	}

	switch target := to.(type) {
	case types.RealType:
		switch from.(type) {
		case types.DoubleType:
			return value.RealBits(float32(v.(value.Float64))), nil
		case types.TinyintType, types.SmallintType, types.IntegerType, types.BigintType:
			n, _ := value.AsInt64(v)
			return value.RealBits(float32(n)), nil
		}

	case types.DoubleType:
		switch from.(type) {
		case types.RealType:
			bits, _ := value.AsInt64(v)
			return value.Float64(value.RealFromBits(bits)), nil
		case types.TinyintType, types.SmallintType, types.IntegerType, types.BigintType:
			n, _ := value.AsInt64(v)
			return value.Float64(n), nil
		}

	case types.TinyintType, types.SmallintType, types.IntegerType, types.BigintType:
		switch from.(type) {
		case types.TinyintType, types.SmallintType, types.IntegerType, types.BigintType:
			n, _ := value.AsInt64(v)
			if n < integerMin(target) || n > integerMax(target) {
				return nil, fmt.Errorf("value %d out of range for %s", n, to)
			}
			return value.Int64(n), nil
		}

	case types.DecimalType:
		switch src := from.(type) {
		case types.DecimalType:
			return rescale(decimalOf(v, src), target)
		case types.TinyintType, types.SmallintType, types.IntegerType, types.BigintType:
			n, _ := value.AsInt64(v)
			return rescale(apd.New(n, 0), target)
		}

	case types.VarcharType, types.CharType:
		switch from.(type) {
		case types.VarcharType, types.CharType:
			return v, nil
		}
	}

	return nil, fmt.Errorf("cannot cast %s to %s", from, to)
}

func integerMax(t types.Type) int64 {
	switch t.(type) {
	case types.TinyintType:
		return math.MaxInt8
	case types.SmallintType:
		return math.MaxInt16
	case types.IntegerType:
		return math.MaxInt32
	default:
		return math.MaxInt64
	}
}

func integerMin(t types.Type) int64 {
	return -integerMax(t) - 1
}

func negate(v value.Value, t types.Type) (value.Value, error) {
	switch typ := t.(type) {
	case types.DoubleType:
		return value.Float64(-float64(v.(value.Float64))), nil
	case types.RealType:
		bits, _ := value.AsInt64(v)
		return value.RealBits(-value.RealFromBits(bits)), nil
	case types.TinyintType, types.SmallintType, types.IntegerType, types.BigintType:
		n, _ := value.AsInt64(v)
		if n == integerMin(t) {
			return nil, fmt.Errorf("negating %d overflows %s", n, t)
		}
		return value.Int64(-n), nil
	case types.DecimalType:
		d := decimalOf(v, typ)
		d.Neg(d)
		return rescale(d, typ)
	}
	return nil, fmt.Errorf("cannot negate %s", t)
}

// parseDecimalLiteral types DECIMAL 'text' as decimal(p,s) where s is the
// number of fractional digits and p the number of digits overall.
func parseDecimalLiteral(text string) (value.Value, types.Type, error) {
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, nil, fmt.Errorf("decimal literal %q: %w", text, err)
	}
	if d.Form != apd.Finite {
		return nil, nil, fmt.Errorf("decimal literal %q is not finite", text)
	}

	scale := 0
	if d.Exponent < 0 {
		scale = int(-d.Exponent)
	}
	precision := digits(d) + int(max(d.Exponent, 0))
	precision = max(precision, scale, 1)
	if precision > types.MaxPrecision {
		return nil, nil, fmt.Errorf("decimal literal %q exceeds precision %d", text, types.MaxPrecision)
	}

	t := types.DecimalOf(precision, scale)
	v, err := rescale(d, t)
	if err != nil {
		return nil, nil, err
	}
	return v, t, nil
}

// decimalOf lifts a native decimal value to an apd.Decimal.
func decimalOf(v value.Value, t types.DecimalType) *apd.Decimal {
	if t.IsShort() {
		return apd.New(int64(v.(value.Int64)), int32(-t.Scale))
	}
	coeff := new(apd.BigInt).SetMathBigInt(v.(value.LongDecimal).Num().BigInt())
	return apd.NewWithBigInt(coeff, int32(-t.Scale))
}

// rescale rounds d half-up to t's scale and returns t's native form.
func rescale(d *apd.Decimal, t types.DecimalType) (value.Value, error) {
	ctx := apd.BaseContext.WithPrecision(types.MaxPrecision + 2)
	ctx.Rounding = apd.RoundHalfUp

	var q apd.Decimal
	if _, err := ctx.Quantize(&q, d, int32(-t.Scale)); err != nil {
		return nil, fmt.Errorf("rescale to %s: %w", t, err)
	}
	if digits(&q) > t.Precision {
		return nil, fmt.Errorf("value %s out of range for %s", d.Text('f'), t)
	}

	unscaled := q.Coeff.MathBigInt()
	if q.Negative {
		unscaled.Neg(unscaled)
	}
	if t.IsShort() {
		return value.Int64(unscaled.Int64()), nil
	}
	return value.LongDecimal(decimal128.FromBigInt(unscaled)), nil
}

// digits counts the coefficient digits of d. Zero has one digit.
func digits(d *apd.Decimal) int {
	return len(new(big.Int).Abs(d.Coeff.MathBigInt()).String())
}

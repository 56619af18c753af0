// Package eval evaluates literal expressions back to typed runtime values.
//
// It understands exactly the expression shapes the literal encoder produces,
// plus the casts and sign changes needed to combine them. It is the oracle for
// round-trip checks: for every value v of type t,
//
//	Eval(Encode(v, t)) == (v, t)
//
// with NaN-aware equality for floating point types.
package eval

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/function"
	"github.com/roach88/litenc/internal/literal"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// Catalog resolves type signatures and decodes serialized blocks.
type Catalog interface {
	Type(signature string) (types.Type, error)
	BlockEncodingSerde() *block.Serde
}

// Evaluator evaluates literal expressions. It is safe for concurrent use.
type Evaluator struct {
	catalog Catalog
}

// New creates an Evaluator over catalog.
func New(catalog Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Eval returns the value and static type of e. Block values own their arrow
// array and must be released by the caller.
func (ev *Evaluator) Eval(e expr.Expression) (value.Value, types.Type, error) {
	switch n := e.(type) {
	case *expr.NullLiteral:
		return nil, types.Unknown, nil

	case *expr.BooleanLiteral:
		return value.Boolean(n.Value), types.Boolean, nil

	case *expr.LongLiteral:
		v, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("integer literal %q: %w", n.Value, err)
		}
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return value.Int64(v), types.Integer, nil
		}
		return value.Int64(v), types.Bigint, nil

	case *expr.DoubleLiteral:
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("double literal %q: %w", n.Value, err)
		}
		return value.Float64(v), types.Double, nil

	case *expr.DecimalLiteral:
		return parseDecimalLiteral(n.Value)

	case *expr.StringLiteral:
		return value.Bytes(n.Value), types.VarcharOf(utf8.RuneCountInString(n.Value)), nil

	case *expr.GenericLiteral:
		t, err := ev.catalog.Type(n.Type)
		if err != nil {
			return nil, nil, err
		}
		v, err := parseTyped(n.Value, t)
		if err != nil {
			return nil, nil, fmt.Errorf("%s literal %q: %w", strings.ToUpper(n.Type), n.Value, err)
		}
		return v, t, nil

	case *expr.Cast:
		return ev.evalCast(n)

	case *expr.ArithmeticUnary:
		v, t, err := ev.Eval(n.Value)
		if err != nil {
			return nil, nil, err
		}
		if n.Sign == expr.SignPlus {
			return v, t, nil
		}
		neg, err := negate(v, t)
		if err != nil {
			return nil, nil, err
		}
		return neg, t, nil

	case *expr.FunctionCall:
		return ev.evalCall(n)

	default:
		return nil, nil, fmt.Errorf("cannot evaluate %T", e)
	}
}

func (ev *Evaluator) evalCall(call *expr.FunctionCall) (value.Value, types.Type, error) {
	switch call.Name {
	case function.NaN:
		if len(call.Arguments) != 0 {
			return nil, nil, fmt.Errorf("%s takes no arguments", call.Name)
		}
		return value.Float64(math.NaN()), types.Double, nil

	case function.Infinity:
		if len(call.Arguments) != 0 {
			return nil, nil, fmt.Errorf("%s takes no arguments", call.Name)
		}
		return value.Float64(math.Inf(1)), types.Double, nil

	case function.FromBase64:
		v, err := ev.singleArgument(call)
		if err != nil {
			return nil, nil, err
		}
		s, ok := v.(value.Bytes)
		if !ok {
			return nil, nil, fmt.Errorf("%s expects character data, got %s", call.Name, value.String(v))
		}
		b, err := base64.StdEncoding.DecodeString(string(s))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", call.Name, err)
		}
		return value.Bytes(b), types.Varbinary, nil
	}

	signature, ok := literal.IsMagicLiteralFunction(call.Name)
	if !ok {
		return nil, nil, fmt.Errorf("unknown function %q", call.Name)
	}
	return ev.evalMagic(call, signature)
}

// evalMagic rebuilds a value of the type named by a $literal$ function from
// its representation.
func (ev *Evaluator) evalMagic(call *expr.FunctionCall, signature string) (value.Value, types.Type, error) {
	t, err := ev.catalog.Type(signature)
	if err != nil {
		return nil, nil, err
	}
	sig, err := literal.MagicLiteralSignature(t)
	if err != nil {
		return nil, nil, err
	}
	if len(call.Arguments) != 1 {
		return nil, nil, fmt.Errorf("%s takes 1 argument, got %d", call.Name, len(call.Arguments))
	}
	if !types.Equal(call.Arguments[0].Type, sig.ArgumentTypes[0]) {
		return nil, nil, fmt.Errorf("%s expects %s, got %s", call.Name, sig.ArgumentTypes[0], call.Arguments[0].Type)
	}

	v, _, err := ev.Eval(call.Arguments[0].Value)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", call.Name, err)
	}
	if v == nil {
		return nil, t, nil
	}

	if t.Native() == types.NativeBlock {
		b, ok := v.(value.Bytes)
		if !ok {
			return nil, nil, fmt.Errorf("%s expects a serialized block", call.Name)
		}
		serde := ev.catalog.BlockEncodingSerde()
		if serde == nil {
			return nil, nil, fmt.Errorf("%s: no block encoding serde", call.Name)
		}
		arr, err := serde.ReadBlock(b)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", call.Name, err)
		}
		return value.Block{Array: arr}, t, nil
	}

	if t.Native() == types.NativeDecimal {
		b, ok := v.(value.Bytes)
		if !ok {
			return nil, nil, fmt.Errorf("%s expects a binary long decimal", call.Name)
		}
		d, err := value.LongDecimalFromBinary(b)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", call.Name, err)
		}
		return d, t, nil
	}

	if v.Kind() != t.Native() {
		return nil, nil, fmt.Errorf("%s: representation %s does not carry native kind %s", call.Name, v.Kind(), t.Native())
	}
	return v, t, nil
}

func (ev *Evaluator) singleArgument(call *expr.FunctionCall) (value.Value, error) {
	if len(call.Arguments) != 1 {
		return nil, fmt.Errorf("%s takes 1 argument, got %d", call.Name, len(call.Arguments))
	}
	v, _, err := ev.Eval(call.Arguments[0].Value)
	return v, err
}

// parseTyped parses the text of a type-tagged literal.
func parseTyped(text string, t types.Type) (value.Value, error) {
	switch t.(type) {
	case types.TinyintType:
		v, err := strconv.ParseInt(text, 10, 8)
		return value.Int64(v), err
	case types.SmallintType:
		v, err := strconv.ParseInt(text, 10, 16)
		return value.Int64(v), err
	case types.IntegerType:
		v, err := strconv.ParseInt(text, 10, 32)
		return value.Int64(v), err
	case types.BigintType:
		v, err := strconv.ParseInt(text, 10, 64)
		return value.Int64(v), err
	case types.RealType:
		f, err := strconv.ParseFloat(text, 32)
		return value.RealBits(float32(f)), err
	case types.DoubleType:
		f, err := strconv.ParseFloat(text, 64)
		return value.Float64(f), err
	case types.BooleanType:
		b, err := strconv.ParseBool(text)
		return value.Boolean(b), err
	case types.DateType:
		days, err := parseDate(text)
		return value.Int64(days), err
	case types.TimestampType:
		ts, err := time.Parse("2006-01-02 15:04:05", text)
		if err != nil {
			return nil, err
		}
		return value.Int64(ts.UnixMilli()), nil
	case types.VarcharType, types.CharType, types.VarbinaryType:
		return value.Bytes(text), nil
	default:
		return nil, fmt.Errorf("no literal syntax for %s", t)
	}
}

// parseDate reads yyyy-MM-dd, where years outside 0000..9999 carry a sign
// and may have more digits.
func parseDate(text string) (int64, error) {
	body, sign := text, 1
	switch {
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	case strings.HasPrefix(body, "-"):
		body, sign = body[1:], -1
	}
	parts := strings.Split(body, "-")
	if len(parts) != 3 || len(parts[0]) < 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, fmt.Errorf("invalid date %q", text)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", text)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", text)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", text)
	}
	year *= sign

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return 0, fmt.Errorf("invalid date %q", text)
	}
	return d.Unix() / 86400, nil
}

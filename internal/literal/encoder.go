package literal

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// Metadata is the read-only catalog view the encoder needs.
type Metadata interface {
	// BlockEncodingSerde serializes block values before they are shipped as
	// magic literals.
	BlockEncodingSerde() *block.Serde
}

// Encoder turns typed runtime values into literal expressions.
// It is immutable after construction and safe for concurrent use.
type Encoder struct {
	metadata Metadata
	logger   log.Logger
	metrics  *Metrics
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// WithMetrics enables encoding counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Encoder) {
		e.metrics = m
	}
}

// NewEncoder creates an Encoder over metadata.
func NewEncoder(metadata Metadata, opts ...Option) *Encoder {
	e := &Encoder{
		metadata: metadata,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode returns a literal expression that evaluates to v as a value of t.
// A nil v is SQL NULL. A value.Expr is returned unchanged.
func (e *Encoder) Encode(v value.Value, t types.Type) (expr.Expression, error) {
	out, _, err := e.EncodeForm(v, t)
	return out, err
}

// EncodeForm is like Encode and also reports the form of the literal.
func (e *Encoder) EncodeForm(v value.Value, t types.Type) (expr.Expression, Form, error) {
	out, f, err := e.encode(v, t, false)
	if err != nil {
		e.metrics.observeError(err)
		return nil, "", err
	}
	e.metrics.observe(f)
	return out, f, nil
}

// EncodeAll encodes parallel lists of values and types. It fails on the
// first value that cannot be encoded.
func (e *Encoder) EncodeAll(values []value.Value, ts []types.Type) ([]expr.Expression, error) {
	if len(values) != len(ts) {
		return nil, fmt.Errorf("got %d values but %d types", len(values), len(ts))
	}

	out := make([]expr.Expression, len(values))
	for i := range values {
		x, err := e.Encode(values[i], ts[i])
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

// encode dispatches on the type. nested is set while encoding the argument
// of a magic literal, where a second magic literal is not allowed.
func (e *Encoder) encode(v value.Value, t types.Type, nested bool) (expr.Expression, Form, error) {
	if t == nil {
		return nil, "", fmt.Errorf("nil type")
	}

	if x, ok := v.(value.Expr); ok {
		return x.Expression, FormNative, nil
	}

	if v == nil {
		if _, ok := t.(types.UnknownType); ok {
			return &expr.NullLiteral{}, FormNull, nil
		}
		return &expr.Cast{Expression: &expr.NullLiteral{}, Type: t.String(), TypeOnly: true}, FormNull, nil
	}

	if err := checkKind(v, t); err != nil {
		return nil, "", err
	}

	switch typ := t.(type) {
	case types.TinyintType:
		n, _ := value.AsInt64(v)
		return &expr.GenericLiteral{Type: "TINYINT", Value: strconv.FormatInt(n, 10)}, FormNative, nil

	case types.SmallintType:
		n, _ := value.AsInt64(v)
		return &expr.GenericLiteral{Type: "SMALLINT", Value: strconv.FormatInt(n, 10)}, FormNative, nil

	case types.IntegerType:
		n, _ := value.AsInt64(v)
		return &expr.LongLiteral{Value: strconv.FormatInt(n, 10)}, FormNative, nil

	case types.BigintType:
		n, _ := value.AsInt64(v)
		text := strconv.FormatInt(n, 10)
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return &expr.GenericLiteral{Type: "BIGINT", Value: text}, FormNative, nil
		}
		return &expr.LongLiteral{Value: text}, FormNative, nil

	case types.DoubleType:
		f := float64(v.(value.Float64))
		if s := specialDouble(f); s != nil {
			return s, FormSpecial, nil
		}
		return &expr.DoubleLiteral{Value: formatDouble(f)}, FormNative, nil

	case types.RealType:
		bits, _ := value.AsInt64(v)
		f := value.RealFromBits(bits)
		if s := specialReal(f); s != nil {
			return s, FormSpecial, nil
		}
		return &expr.GenericLiteral{Type: "REAL", Value: formatReal(f)}, FormNative, nil

	case types.DecimalType:
		var text string
		if typ.IsShort() {
			text = formatShortDecimal(int64(v.(value.Int64)), typ.Scale)
		} else {
			text = formatLongDecimal(v.(value.LongDecimal).Num(), typ.Scale)
		}
		return &expr.Cast{Expression: &expr.DecimalLiteral{Value: text}, Type: typ.DisplayName()}, FormNative, nil

	case types.VarcharType:
		s, err := decodeUTF8(v.(value.Bytes))
		if err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", typ, err)
		}
		if typ.Bounded && typ.Length == utf8.RuneCountInString(s) {
			return &expr.StringLiteral{Value: s}, FormNative, nil
		}
		return &expr.Cast{Expression: &expr.StringLiteral{Value: s}, Type: typ.DisplayName(), TypeOnly: true}, FormNative, nil

	case types.CharType:
		s, err := decodeUTF8(v.(value.Bytes))
		if err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", typ, err)
		}
		return &expr.Cast{Expression: &expr.StringLiteral{Value: s}, Type: typ.DisplayName(), TypeOnly: true}, FormNative, nil

	case types.BooleanType:
		return &expr.BooleanLiteral{Value: bool(v.(value.Boolean))}, FormNative, nil

	case types.DateType:
		days, _ := value.AsInt64(v)
		text, ok := formatDate(days)
		if !ok {
			return nil, "", newOutOfRangeError(v, t, "days is outside the int32 range")
		}
		return &expr.GenericLiteral{Type: "DATE", Value: text}, FormNative, nil

	case types.TimestampType:
		millis, _ := value.AsInt64(v)
		return &expr.GenericLiteral{Type: "TIMESTAMP", Value: formatTimestamp(millis)}, FormNative, nil
	}

	if nested {
		rep, err := RepresentationType(t)
		if err != nil {
			return nil, "", err
		}
		return nil, "", newNestedMagicLiteralError(t, rep)
	}
	return e.encodeMagic(v, t)
}

// encodeMagic emits $literal$<t>(arg), where arg encodes v as a value of the
// representation type.
func (e *Encoder) encodeMagic(v value.Value, t types.Type) (expr.Expression, Form, error) {
	sig, err := MagicLiteralSignature(t)
	if err != nil {
		return nil, "", err
	}
	rep := sig.ArgumentTypes[0]

	if b, ok := v.(value.Block); ok {
		data, err := e.serializeBlock(b)
		if err != nil {
			return nil, "", fmt.Errorf("serialize %s block: %w", t, err)
		}
		v = value.Bytes(data)
	}
	if d, ok := v.(value.LongDecimal); ok {
		v = value.Bytes(d.AppendBinary(nil))
	}

	level.Debug(e.logger).Log("msg", "encoding magic literal", "type", t.String(), "representation", rep.String())

	if b, ok := v.(value.Bytes); ok {
		return expr.Call(sig.NameSuffix(), expr.Argument{Type: rep, Value: fromBase64(b)}), FormBinary, nil
	}

	arg, _, err := e.encode(v, rep, true)
	if err != nil {
		return nil, "", err
	}
	return expr.Call(sig.NameSuffix(), expr.Argument{Type: rep, Value: arg}), FormMagic, nil
}

func (e *Encoder) serializeBlock(b value.Block) ([]byte, error) {
	if e.metadata == nil || e.metadata.BlockEncodingSerde() == nil {
		return nil, fmt.Errorf("no block encoding serde")
	}
	return e.metadata.BlockEncodingSerde().WriteBlock(b.Array)
}

// checkKind verifies v is carried in t's native representation. Types backed
// by 32-bit integers also accept Int32.
func checkKind(v value.Value, t types.Type) error {
	if v.Kind() == t.Native() {
		return nil
	}
	if v.Kind() == types.NativeInt32 && t.Native() == types.NativeInt64 && types.IntBacked(t) {
		return nil
	}
	return newMismatchError(v.Kind(), t)
}

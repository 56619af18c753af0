package literal

import (
	"bytes"
	"encoding/base64"
	"math"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

type testMetadata struct {
	serde *block.Serde
}

func (m testMetadata) BlockEncodingSerde() *block.Serde { return m.serde }

func newTestEncoder(opts ...Option) *Encoder {
	return NewEncoder(testMetadata{serde: block.NewSerde()}, opts...)
}

var (
	hyperloglog = types.OpaqueType{Name: "hyperloglog", Rep: types.NativeBytes}
	color       = types.OpaqueType{Name: "color", Rep: types.NativeInt64}
	score       = types.OpaqueType{Name: "score", Rep: types.NativeFloat64}
	flag        = types.OpaqueType{Name: "flag", Rep: types.NativeBoolean}
	bigNumber   = types.OpaqueType{Name: "bignumber", Rep: types.NativeDecimal}
	narrow      = types.OpaqueType{Name: "narrow", Rep: types.NativeInt32}
)

func bigDecimal(s string) value.LongDecimal {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad decimal " + s)
	}
	return value.LongDecimal(decimal128.FromBigInt(n))
}

func TestEncodeFormats(t *testing.T) {
	tests := []struct {
		name     string
		value    value.Value
		typ      types.Type
		expected string
	}{
		{"null unknown", nil, types.Unknown, "null"},
		{"null bigint", nil, types.Bigint, "CAST(null AS bigint)"},
		{"null varchar", nil, types.VarcharOf(3), "CAST(null AS varchar(3))"},
		{"null opaque", nil, hyperloglog, "CAST(null AS hyperloglog)"},

		{"tinyint", value.Int64(7), types.Tinyint, "TINYINT '7'"},
		{"smallint", value.Int64(-300), types.Smallint, "SMALLINT '-300'"},
		{"integer", value.Int64(42), types.Integer, "42"},
		{"integer from int32", value.Int32(-5), types.Integer, "-5"},

		{"bigint small", value.Int64(5), types.Bigint, "BIGINT '5'"},
		{"bigint max int32", value.Int64(math.MaxInt32), types.Bigint, "BIGINT '2147483647'"},
		{"bigint min int32", value.Int64(math.MinInt32), types.Bigint, "BIGINT '-2147483648'"},
		{"bigint above int32", value.Int64(math.MaxInt32 + 1), types.Bigint, "2147483648"},
		{"bigint below int32", value.Int64(math.MinInt32 - 1), types.Bigint, "-2147483649"},
		{"bigint max", value.Int64(math.MaxInt64), types.Bigint, "9223372036854775807"},

		{"double", value.Float64(1.5), types.Double, "1.5E0"},
		{"double exponent", value.Float64(1e300), types.Double, "1E+300"},
		{"double nan", value.Float64(math.NaN()), types.Double, "nan()"},
		{"double -inf", value.Float64(math.Inf(-1)), types.Double, "-infinity()"},
		{"double +inf", value.Float64(math.Inf(1)), types.Double, "infinity()"},

		{"real", value.RealBits(1.5), types.Real, "REAL '1.5'"},
		{"real shortest text", value.RealBits(0.1), types.Real, "REAL '0.1'"},
		{"real int32 bits", value.Int32(int32(math.Float32bits(2.5))), types.Real, "REAL '2.5'"},
		{"real nan", value.RealBits(float32(math.NaN())), types.Real, "CAST(nan() AS real)"},
		{"real -inf", value.RealBits(float32(math.Inf(-1))), types.Real, "-CAST(infinity() AS real)"},
		{"real +inf", value.RealBits(float32(math.Inf(1))), types.Real, "CAST(infinity() AS real)"},

		{"short decimal", value.Int64(1234), types.DecimalOf(10, 2), "CAST(DECIMAL '12.34' AS decimal(10,2))"},
		{"short decimal fraction", value.Int64(-5), types.DecimalOf(10, 2), "CAST(DECIMAL '-0.05' AS decimal(10,2))"},
		{"short decimal zero scale", value.Int64(7), types.DecimalOf(5, 0), "CAST(DECIMAL '7' AS decimal(5,0))"},
		{"short decimal zero", value.Int64(0), types.DecimalOf(18, 3), "CAST(DECIMAL '0.000' AS decimal(18,3))"},
		{"long decimal", value.LongDecimal(decimal128.FromI64(1)), types.DecimalOf(38, 10), "CAST(DECIMAL '0.0000000001' AS decimal(38,10))"},
		{"long decimal wide", bigDecimal("-123456789012345678901234567890"), types.DecimalOf(38, 2), "CAST(DECIMAL '-1234567890123456789012345678.90' AS decimal(38,2))"},

		{"varchar exact bound", value.Bytes("abc"), types.VarcharOf(3), "'abc'"},
		{"varchar shorter than bound", value.Bytes("abc"), types.VarcharOf(5), "CAST('abc' AS varchar(5))"},
		{"varchar unbounded", value.Bytes("abc"), types.Varchar, "CAST('abc' AS varchar)"},
		{"varchar counts code points", value.Bytes("é☃"), types.VarcharOf(2), "'é☃'"},
		{"varchar quote", value.Bytes("it's"), types.VarcharOf(4), "'it''s'"},
		{"char", value.Bytes("ab"), types.CharOf(5), "CAST('ab' AS char(5))"},
		{"char exact length", value.Bytes("ab"), types.CharOf(2), "CAST('ab' AS char(2))"},

		{"boolean", value.Boolean(true), types.Boolean, "true"},
		{"date epoch", value.Int64(0), types.Date, "DATE '1970-01-01'"},
		{"date", value.Int32(11556), types.Date, "DATE '2001-08-22'"},
		{"date before epoch", value.Int64(-1), types.Date, "DATE '1969-12-31'"},
		{"date past year 9999", value.Int64(2932897), types.Date, "DATE '+10000-01-01'"},
		{"date max int32", value.Int64(math.MaxInt32), types.Date, "DATE '+5881580-07-11'"},
		{"date negative year", value.Int64(-719894), types.Date, "DATE '-0001-01-01'"},
		{"timestamp", value.Int64(998449445321), types.Timestamp, "TIMESTAMP '2001-08-22 03:04:05.321'"},
		{"timestamp before epoch", value.Int64(-1), types.Timestamp, "TIMESTAMP '1969-12-31 23:59:59.999'"},

		{"varbinary", value.Bytes{0, 1}, types.Varbinary, `"$literal$varbinary"(from_base64('AAE='))`},
		{"opaque bytes", value.Bytes{0, 1}, hyperloglog, `"$literal$hyperloglog"(from_base64('AAE='))`},
		{"opaque empty bytes", value.Bytes{}, hyperloglog, `"$literal$hyperloglog"(from_base64(''))`},
		{"opaque int64", value.Int64(3), color, `"$literal$color"(BIGINT '3')`},
		{"opaque int64 wide", value.Int64(math.MaxInt64), color, `"$literal$color"(9223372036854775807)`},
		{"opaque float64", value.Float64(math.NaN()), score, `"$literal$score"(nan())`},
		{"opaque boolean", value.Boolean(false), flag, `"$literal$flag"(false)`},
		{"opaque long decimal", value.LongDecimal(decimal128.FromI64(1)), bigNumber, `"$literal$bignumber"(from_base64('AQAAAAAAAAAAAAAAAAAAAA=='))`},
		{"opaque long decimal negative", value.LongDecimal(decimal128.FromI64(-1)), bigNumber, `"$literal$bignumber"(from_base64('/////////////////////w=='))`},
		{"unknown non-null", value.Boolean(true), types.Unknown, `"$literal$unknown"(true)`},
	}

	enc := newTestEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc.Encode(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, expr.Format(got))
		})
	}
}

func TestEncodeCastFlags(t *testing.T) {
	enc := newTestEncoder()

	t.Run("typed null is a type-only cast", func(t *testing.T) {
		got, err := enc.Encode(nil, types.Bigint)
		require.NoError(t, err)
		assert.Equal(t, &expr.Cast{Expression: &expr.NullLiteral{}, Type: "bigint", TypeOnly: true}, got)
	})

	t.Run("character casts are type-only", func(t *testing.T) {
		got, err := enc.Encode(value.Bytes("ab"), types.CharOf(3))
		require.NoError(t, err)
		cast, ok := got.(*expr.Cast)
		require.True(t, ok)
		assert.True(t, cast.TypeOnly)
		assert.False(t, cast.Safe)
	})

	t.Run("decimal cast is a plain cast", func(t *testing.T) {
		got, err := enc.Encode(value.Int64(1), types.DecimalOf(3, 1))
		require.NoError(t, err)
		cast, ok := got.(*expr.Cast)
		require.True(t, ok)
		assert.False(t, cast.TypeOnly)
		assert.False(t, cast.Safe)
	})

	t.Run("real special cast is a plain cast", func(t *testing.T) {
		got, err := enc.Encode(value.RealBits(float32(math.NaN())), types.Real)
		require.NoError(t, err)
		assert.Equal(t, &expr.Cast{Expression: expr.Call("nan"), Type: "real"}, got)
	})
}

func TestEncodeReplacesInvalidUTF8(t *testing.T) {
	got, err := newTestEncoder().Encode(value.Bytes{'a', 0xff}, types.VarcharOf(2))
	require.NoError(t, err)
	assert.Equal(t, &expr.StringLiteral{Value: "a\uFFFD"}, got)
}

func TestEncodeExpressionPassthrough(t *testing.T) {
	in := &expr.LongLiteral{Value: "1"}
	got, err := newTestEncoder().Encode(value.Expr{Expression: in}, types.Varchar)
	require.NoError(t, err)
	assert.Same(t, in, got)
}

func TestEncodeBlock(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	serde := block.NewSerde(block.WithAllocator(mem))
	enc := NewEncoder(testMetadata{serde: serde})

	b := array.NewInt64Builder(mem)
	b.AppendValues([]int64{1, 2, 3}, []bool{true, false, true})
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	got, err := enc.Encode(value.Block{Array: arr}, types.ArrayOf(types.Bigint))
	require.NoError(t, err)

	call, ok := got.(*expr.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "$literal$array(bigint)", call.Name)
	require.Len(t, call.Arguments, 1)
	assert.Equal(t, types.Varbinary, call.Arguments[0].Type)

	inner, ok := call.Arguments[0].Value.(*expr.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "from_base64", inner.Name)
	payload := inner.Arguments[0].Value.(*expr.StringLiteral).Value

	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	out, err := serde.ReadBlock(data)
	require.NoError(t, err)
	defer out.Release()
	assert.True(t, array.Equal(arr, out))
}

func TestEncodeBlockWithoutSerde(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	b := array.NewInt64Builder(mem)
	b.Append(1)
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	_, err := NewEncoder(nil).Encode(value.Block{Array: arr}, types.ArrayOf(types.Bigint))
	assert.Error(t, err)
}

func TestEncodeMagicLiteralIsDeterministic(t *testing.T) {
	enc := newTestEncoder()
	a, err := enc.Encode(value.Bytes("payload"), hyperloglog)
	require.NoError(t, err)
	b, err := enc.Encode(value.Bytes("payload"), hyperloglog)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, expr.MustFingerprint(a), expr.MustFingerprint(b))
}

func TestEncodeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		value     value.Value
		typ       types.Type
		valueKind types.NativeKind
	}{
		{"double for bigint", value.Float64(1), types.Bigint, types.NativeFloat64},
		{"int32 for bigint", value.Int32(1), types.Bigint, types.NativeInt32},
		{"int32 for tinyint", value.Int32(1), types.Tinyint, types.NativeInt32},
		{"int32 for timestamp", value.Int32(1), types.Timestamp, types.NativeInt32},
		{"bytes for boolean", value.Bytes("true"), types.Boolean, types.NativeBytes},
		{"int64 for varchar", value.Int64(1), types.Varchar, types.NativeInt64},
		{"int64 for long decimal", value.Int64(1), types.DecimalOf(20, 0), types.NativeInt64},
		{"long decimal for short decimal", value.LongDecimal(decimal128.FromI64(1)), types.DecimalOf(10, 0), types.NativeDecimal},
		{"bytes for array", value.Bytes{1}, types.ArrayOf(types.Bigint), types.NativeBytes},
	}

	enc := newTestEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc.Encode(tt.value, tt.typ)
			require.Error(t, err)
			assert.Nil(t, got, "no partial output")
			assert.True(t, IsEncodingMismatch(err))

			var ee *EncodingError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.valueKind, ee.ValueKind)
		})
	}
}

func TestEncodeMismatchNamesBothKinds(t *testing.T) {
	_, err := newTestEncoder().Encode(value.Float64(1), types.Bigint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float64")
	assert.Contains(t, err.Error(), "int64")
	assert.Contains(t, err.Error(), "type=bigint")
}

func TestEncodeUnsupportedNativeType(t *testing.T) {
	_, err := newTestEncoder().Encode(value.Int32(1), narrow)
	require.Error(t, err)
	assert.True(t, IsUnsupportedNativeType(err))
	assert.False(t, IsEncodingMismatch(err))
}

func TestEncodeNilType(t *testing.T) {
	_, err := newTestEncoder().Encode(value.Int64(1), nil)
	assert.Error(t, err)
}

func TestNestedMagicLiteralIsRejected(t *testing.T) {
	enc := newTestEncoder()
	_, _, err := enc.encode(value.Bytes{1}, types.Varbinary, true)
	require.Error(t, err)
	assert.True(t, IsNestedMagicLiteral(err))

	_, _, err = enc.encode(value.Int64(1), color, true)
	assert.True(t, IsNestedMagicLiteral(err))
}

func TestEncodeAll(t *testing.T) {
	enc := newTestEncoder()

	got, err := enc.EncodeAll(
		[]value.Value{value.Int64(1), nil, value.Bytes("x")},
		[]types.Type{types.Integer, types.Double, types.VarcharOf(1)},
	)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1", expr.Format(got[0]))
	assert.Equal(t, "CAST(null AS double)", expr.Format(got[1]))
	assert.Equal(t, "'x'", expr.Format(got[2]))

	_, err = enc.EncodeAll([]value.Value{value.Int64(1)}, nil)
	assert.Error(t, err)

	got, err = enc.EncodeAll([]value.Value{value.Int64(1), value.Float64(1)}, []types.Type{types.Bigint, types.Bigint})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, IsEncodingMismatch(err))
	assert.Contains(t, err.Error(), "value[1]")
}

func TestEncoderMetrics(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Register(reg), "registering twice is allowed")

	enc := newTestEncoder(WithMetrics(m))
	inputs := []struct {
		v value.Value
		t types.Type
	}{
		{nil, types.Bigint},
		{value.Int64(1), types.Bigint},
		{value.Bytes("a"), types.VarcharOf(1)},
		{value.Float64(math.Inf(1)), types.Double},
		{value.Int64(3), color},
		{value.Bytes{1}, hyperloglog},
		{value.Float64(1), types.Bigint},
	}
	for _, in := range inputs {
		_, _ = enc.Encode(in.v, in.t)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.encodings.WithLabelValues("null")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.encodings.WithLabelValues("native")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.encodings.WithLabelValues("special")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.encodings.WithLabelValues("magic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.encodings.WithLabelValues("binary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("ENCODING_MISMATCH")))
}

func TestEncodeDateOutOfRange(t *testing.T) {
	enc := newTestEncoder()
	for _, days := range []int64{math.MaxInt32 + 1, math.MinInt32 - 1, math.MaxInt64} {
		got, err := enc.Encode(value.Int64(days), types.Date)
		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, IsValueOutOfRange(err), err.Error())

		var ee *EncodingError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "date", ee.Type)
	}

	_, err := enc.Encode(value.Int64(math.MinInt32), types.Date)
	assert.NoError(t, err)
}

func TestEncoderConcurrentUse(t *testing.T) {
	m := NewMetrics()
	enc := newTestEncoder(WithMetrics(m))

	inputs := []struct {
		v    value.Value
		t    types.Type
		want string
	}{
		{nil, types.Bigint, "CAST(null AS bigint)"},
		{value.Int64(5), types.Bigint, "BIGINT '5'"},
		{value.Float64(math.NaN()), types.Double, "nan()"},
		{value.Bytes("abc"), types.VarcharOf(3), "'abc'"},
		{value.Int64(3), color, `"$literal$color"(BIGINT '3')`},
		{value.Bytes{0, 1}, hyperloglog, `"$literal$hyperloglog"(from_base64('AAE='))`},
		{value.LongDecimal(decimal128.FromI64(1)), bigNumber, `"$literal$bignumber"(from_base64('AQAAAAAAAAAAAAAAAAAAAA=='))`},
		{value.Float64(1), types.Bigint, ""},
	}

	const workers = 16
	const rounds = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for _, in := range inputs {
					got, err := enc.Encode(in.v, in.t)
					if in.want == "" {
						assert.Error(t, err)
						continue
					}
					if assert.NoError(t, err) {
						assert.Equal(t, in.want, expr.Format(got))
					}
				}
			}
		}()
	}
	wg.Wait()

	n := float64(workers * rounds)
	assert.Equal(t, n, testutil.ToFloat64(m.encodings.WithLabelValues("null")))
	assert.Equal(t, 2*n, testutil.ToFloat64(m.encodings.WithLabelValues("native")))
	assert.Equal(t, n, testutil.ToFloat64(m.encodings.WithLabelValues("special")))
	assert.Equal(t, n, testutil.ToFloat64(m.encodings.WithLabelValues("magic")))
	assert.Equal(t, 2*n, testutil.ToFloat64(m.encodings.WithLabelValues("binary")))
	assert.Equal(t, n, testutil.ToFloat64(m.errors.WithLabelValues("ENCODING_MISMATCH")))
}

func TestEncoderLogsMagicFallback(t *testing.T) {
	var buf bytes.Buffer
	enc := newTestEncoder(WithLogger(log.NewLogfmtLogger(&buf)))

	_, err := enc.Encode(value.Int64(1), types.Bigint)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = enc.Encode(value.Bytes{1}, hyperloglog)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), `msg="encoding magic literal"`), buf.String())
	assert.Contains(t, buf.String(), "type=hyperloglog")
	assert.Contains(t, buf.String(), "representation=varbinary")
}

func TestEncodeForm(t *testing.T) {
	enc := newTestEncoder()
	tests := []struct {
		v    value.Value
		t    types.Type
		form Form
	}{
		{nil, types.Unknown, FormNull},
		{nil, hyperloglog, FormNull},
		{value.Boolean(true), types.Boolean, FormNative},
		{value.Expr{Expression: &expr.LongLiteral{Value: "1"}}, types.Integer, FormNative},
		{value.Float64(math.NaN()), types.Double, FormSpecial},
		{value.RealBits(float32(math.Inf(-1))), types.Real, FormSpecial},
		{value.Boolean(false), flag, FormMagic},
		{value.Float64(math.NaN()), score, FormMagic},
		{value.Bytes("x"), types.Varbinary, FormBinary},
		{value.LongDecimal(decimal128.FromI64(7)), bigNumber, FormBinary},
	}
	for _, tt := range tests {
		_, got, err := enc.EncodeForm(tt.v, tt.t)
		require.NoError(t, err, tt.t.String())
		assert.Equal(t, tt.form, got, tt.t.String())
	}

	_, got, err := enc.EncodeForm(value.Int64(1), types.Boolean)
	require.Error(t, err)
	assert.Empty(t, got)
}

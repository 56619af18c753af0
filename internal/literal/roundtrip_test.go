package literal_test

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litenc/internal/block"
	"github.com/roach88/litenc/internal/catalog"
	"github.com/roach88/litenc/internal/eval"
	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/literal"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

func newCatalog(t *testing.T, opts ...catalog.Option) *catalog.Catalog {
	t.Helper()
	c := catalog.New(opts...)
	require.NoError(t, c.Register(types.OpaqueType{Name: "hyperloglog", Rep: types.NativeBytes}))
	require.NoError(t, c.Register(types.OpaqueType{Name: "color", Rep: types.NativeInt64}))
	require.NoError(t, c.Register(types.OpaqueType{Name: "score", Rep: types.NativeFloat64}))
	require.NoError(t, c.Register(types.OpaqueType{Name: "flag", Rep: types.NativeBoolean}))
	require.NoError(t, c.Register(types.OpaqueType{Name: "bignumber", Rep: types.NativeDecimal}))
	return c
}

type roundTripCase struct {
	value value.Value
	typ   types.Type
}

func roundTripCases(t *testing.T, c *catalog.Catalog) []roundTripCase {
	t.Helper()
	opaque := func(name string) types.Type {
		typ, err := c.Type(name)
		require.NoError(t, err)
		return typ
	}

	negZero := math.Copysign(0, -1)
	return []roundTripCase{
		{nil, types.Unknown},
		{nil, types.Bigint},
		{nil, types.VarcharOf(7)},
		{nil, opaque("hyperloglog")},
		{value.Int64(math.MinInt8), types.Tinyint},
		{value.Int64(math.MaxInt16), types.Smallint},
		{value.Int64(math.MinInt32), types.Integer},
		{value.Int32(12), types.Integer},
		{value.Int64(0), types.Bigint},
		{value.Int64(math.MaxInt32), types.Bigint},
		{value.Int64(math.MaxInt32 + 1), types.Bigint},
		{value.Int64(math.MinInt32 - 1), types.Bigint},
		{value.Int64(math.MaxInt64), types.Bigint},
		{value.Int64(math.MinInt64), types.Bigint},
		{value.Float64(0.1), types.Double},
		{value.Float64(negZero), types.Double},
		{value.Float64(math.SmallestNonzeroFloat64), types.Double},
		{value.Float64(math.MaxFloat64), types.Double},
		{value.Float64(math.NaN()), types.Double},
		{value.Float64(math.Inf(1)), types.Double},
		{value.Float64(math.Inf(-1)), types.Double},
		{value.RealBits(0.1), types.Real},
		{value.RealBits(float32(negZero)), types.Real},
		{value.RealBits(math.SmallestNonzeroFloat32), types.Real},
		{value.RealBits(math.MaxFloat32), types.Real},
		{value.RealBits(float32(math.NaN())), types.Real},
		{value.RealBits(float32(math.Inf(1))), types.Real},
		{value.RealBits(float32(math.Inf(-1))), types.Real},
		{value.Int64(1234), types.DecimalOf(10, 2)},
		{value.Int64(-5), types.DecimalOf(18, 18)},
		{value.Int64(999999999999999999), types.DecimalOf(18, 0)},
		{value.LongDecimal(decimal128.FromI64(-1)), types.DecimalOf(38, 37)},
		{value.LongDecimal(decimal128.FromU64(math.MaxUint64)), types.DecimalOf(20, 0)},
		{value.Bytes("abc"), types.VarcharOf(3)},
		{value.Bytes("abc"), types.VarcharOf(10)},
		{value.Bytes("日本語"), types.VarcharOf(3)},
		{value.Bytes("it's"), types.Varchar},
		{value.Bytes(""), types.Varchar},
		{value.Bytes("line\nbreak"), types.Varchar},
		{value.Bytes("ab"), types.CharOf(2)},
		{value.Bytes("ab"), types.CharOf(5)},
		{value.Boolean(true), types.Boolean},
		{value.Boolean(false), types.Boolean},
		{value.Int64(11556), types.Date},
		{value.Int32(-719162), types.Date},
		{value.Int64(998449445321), types.Timestamp},
		{value.Int64(-1), types.Timestamp},
		{value.Bytes{0, 1, 0xff}, types.Varbinary},
		{value.Bytes{}, types.Varbinary},
		{value.Bytes("hll-sketch"), opaque("hyperloglog")},
		{value.Int64(3), opaque("color")},
		{value.Int64(math.MinInt64), opaque("color")},
		{value.Float64(math.Inf(-1)), opaque("score")},
		{value.Boolean(true), opaque("flag")},
		{value.LongDecimal(decimal128.FromI64(0)), opaque("bignumber")},
		{value.LongDecimal(decimal128.FromI64(-1)), opaque("bignumber")},
		{value.LongDecimal(decimal128.New(math.MaxInt64, math.MaxUint64)), opaque("bignumber")},
		{nil, opaque("bignumber")},
		{value.Int64(2932897), types.Date},
		{value.Int64(math.MaxInt32), types.Date},
		{value.Int64(-719894), types.Date},
	}
}

func TestRoundTrip(t *testing.T) {
	c := newCatalog(t)
	enc := literal.NewEncoder(c)
	ev := eval.New(c)

	for _, tc := range roundTripCases(t, c) {
		name := tc.typ.String() + "/" + value.String(tc.value)
		t.Run(name, func(t *testing.T) {
			e, err := enc.Encode(tc.value, tc.typ)
			require.NoError(t, err)

			got, typ, err := ev.Eval(e)
			require.NoError(t, err, expr.Format(e))
			assert.True(t, types.Equal(tc.typ, typ), "type %s != %s", typ, tc.typ)
			assert.True(t, value.Equal(tc.typ, tc.value, got), "%s evaluated to %s", expr.Format(e), value.String(got))
		})
	}
}

func TestRoundTripThroughWire(t *testing.T) {
	c := newCatalog(t)
	enc := literal.NewEncoder(c)
	ev := eval.New(c)

	cases := roundTripCases(t, c)
	values := make([]value.Value, len(cases))
	ts := make([]types.Type, len(cases))
	for i, tc := range cases {
		values[i] = tc.value
		ts[i] = tc.typ
	}

	exprs, err := enc.EncodeAll(values, ts)
	require.NoError(t, err)

	data, err := expr.MarshalList(exprs)
	require.NoError(t, err)
	decoded, err := expr.UnmarshalList(data, c)
	require.NoError(t, err)
	require.Len(t, decoded, len(cases))

	for i, e := range decoded {
		assert.Equal(t, expr.Format(exprs[i]), expr.Format(e))

		got, typ, err := ev.Eval(e)
		require.NoError(t, err)
		assert.True(t, types.Equal(ts[i], typ))
		assert.True(t, value.Equal(ts[i], values[i], got), expr.Format(e))
	}
}

func TestRoundTripBlock(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	c := newCatalog(t, catalog.WithBlockSerde(block.NewSerde(block.WithAllocator(mem))))
	enc := literal.NewEncoder(c)
	ev := eval.New(c)

	b := array.NewStringBuilder(mem)
	b.AppendValues([]string{"a", "", "c"}, []bool{true, false, true})
	arr := b.NewArray()
	b.Release()
	defer arr.Release()

	typ := types.ArrayOf(types.Varchar)
	e, err := enc.Encode(value.Block{Array: arr}, typ)
	require.NoError(t, err)

	got, gotType, err := ev.Eval(e)
	require.NoError(t, err)
	blk := got.(value.Block)
	defer blk.Array.Release()

	assert.Equal(t, "array(varchar)", gotType.String())
	assert.True(t, value.Equal(typ, value.Block{Array: arr}, blk))
}

func TestBoundedCharacterRoundTrip(t *testing.T) {
	c := newCatalog(t)
	enc := literal.NewEncoder(c)

	// A string whose code point count equals the bound needs no cast.
	e, err := enc.Encode(value.Bytes("日本語"), types.VarcharOf(3))
	require.NoError(t, err)
	assert.IsType(t, &expr.StringLiteral{}, e)

	for _, typ := range []types.Type{types.VarcharOf(9), types.Varchar, types.CharOf(3)} {
		e, err := enc.Encode(value.Bytes("日本語"), typ)
		require.NoError(t, err)
		assert.IsType(t, &expr.Cast{}, e, typ.String())
	}
}

package eval

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

func TestParseText(t *testing.T) {
	color := types.OpaqueType{Name: "color", Rep: types.NativeInt64}
	hll := types.OpaqueType{Name: "hyperloglog", Rep: types.NativeBytes}
	score := types.OpaqueType{Name: "score", Rep: types.NativeFloat64}
	bigNumber := types.OpaqueType{Name: "bignumber", Rep: types.NativeDecimal}

	tests := []struct {
		text  string
		typ   types.Type
		value value.Value
	}{
		{"-128", types.Tinyint, value.Int64(-128)},
		{"9223372036854775807", types.Bigint, value.Int64(math.MaxInt64)},
		{"NaN", types.Double, value.Float64(math.NaN())},
		{"-Inf", types.Double, value.Float64(math.Inf(-1))},
		{"0.1", types.Real, value.RealBits(0.1)},
		{"true", types.Boolean, value.Boolean(true)},
		{"2001-08-22", types.Date, value.Int64(11556)},
		{"+10000-01-01", types.Date, value.Int64(2932897)},
		{"+5881580-07-11", types.Date, value.Int64(math.MaxInt32)},
		{"-0001-01-01", types.Date, value.Int64(-719894)},
		{"2001-08-22 03:04:05.321", types.Timestamp, value.Int64(998449445321)},
		{"12.345", types.DecimalOf(10, 2), value.Int64(1235)},
		{"-1", types.DecimalOf(38, 2), value.LongDecimal(decimal128.FromI64(-100))},
		{"héllo", types.VarcharOf(5), value.Bytes("héllo")},
		{"AAH/", types.Varbinary, value.Bytes{0, 1, 0xff}},
		{"3", color, value.Int64(3)},
		{"c2tldGNo", hll, value.Bytes("sketch")},
		{"-Infinity", score, value.Float64(math.Inf(-1))},
		{"170141183460469231731687303715884105727", bigNumber, value.LongDecimal(decimal128.New(math.MaxInt64, math.MaxUint64))},
		{"42", bigNumber, value.LongDecimal(decimal128.FromI64(42))},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.text, func(t *testing.T) {
			got, err := ParseText(tt.text, tt.typ)
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.typ, tt.value, got), "got %s", value.String(got))
		})
	}
}

func TestParseTextErrors(t *testing.T) {
	tests := []struct {
		text string
		typ  types.Type
	}{
		{"128", types.Tinyint},
		{"1.5", types.Bigint},
		{"yes please", types.Boolean},
		{"12345.6", types.DecimalOf(5, 1)},
		{"NaN", types.DecimalOf(5, 1)},
		{"not base64!", types.Varbinary},
		{"[1]", types.ArrayOf(types.Bigint)},
		{"x", types.Unknown},
		{"1", types.OpaqueType{Name: "blob", Rep: types.NativeBlock}},
		{"2001-02-30", types.Date},
		{"01-02-03", types.Date},
		{"2001-8-22", types.Date},
		{"1.5", types.OpaqueType{Name: "bignumber", Rep: types.NativeDecimal}},
		{"170141183460469231731687303715884105728", types.OpaqueType{Name: "bignumber", Rep: types.NativeDecimal}},
		{"-170141183460469231731687303715884105728", types.OpaqueType{Name: "bignumber", Rep: types.NativeDecimal}},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.text, func(t *testing.T) {
			_, err := ParseText(tt.text, tt.typ)
			assert.Error(t, err)
		})
	}
}

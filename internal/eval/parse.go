package eval

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// ParseText parses the display text of a value of type t into its native
// form. Binary data (varbinary and bytes-backed extension types) is written
// in standard base64. Decimals are rounded half-up to the scale of t.
// Arrays have no text form.
func ParseText(text string, t types.Type) (value.Value, error) {
	switch typ := t.(type) {
	case types.DecimalType:
		d, _, err := apd.NewFromString(text)
		if err != nil {
			return nil, fmt.Errorf("%s value %q: %w", t, text, err)
		}
		if d.Form != apd.Finite {
			return nil, fmt.Errorf("%s value %q is not finite", t, text)
		}
		return rescale(d, typ)

	case types.VarbinaryType:
		return decodeBase64(text, t)

	case types.OpaqueType:
		return parseNative(text, typ)

	case types.ArrayType, types.UnknownType:
		return nil, fmt.Errorf("no text form for %s", t)
	}

	v, err := parseTyped(text, t)
	if err != nil {
		return nil, fmt.Errorf("%s value %q: %w", t, text, err)
	}
	return v, nil
}

// parseNative parses an extension type value by its native kind.
func parseNative(text string, t types.OpaqueType) (value.Value, error) {
	var (
		v   value.Value
		err error
	)
	switch t.Rep {
	case types.NativeInt64:
		var n int64
		n, err = strconv.ParseInt(text, 10, 64)
		v = value.Int64(n)
	case types.NativeFloat64:
		var f float64
		f, err = strconv.ParseFloat(text, 64)
		v = value.Float64(f)
	case types.NativeBoolean:
		var b bool
		b, err = strconv.ParseBool(text)
		v = value.Boolean(b)
	case types.NativeBytes:
		return decodeBase64(text, t)
	case types.NativeDecimal:
		n, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, fmt.Errorf("%s value %q is not an integer", t, text)
		}
		if n.BitLen() > 127 {
			return nil, fmt.Errorf("%s value %q does not fit in 128 bits", t, text)
		}
		return value.LongDecimal(decimal128.FromBigInt(n)), nil
	default:
		return nil, fmt.Errorf("no text form for %s backed by %s", t, t.Rep)
	}
	if err != nil {
		return nil, fmt.Errorf("%s value %q: %w", t, text, err)
	}
	return v, nil
}

func decodeBase64(text string, t types.Type) (value.Value, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%s value is not base64: %w", t, err)
	}
	return value.Bytes(b), nil
}

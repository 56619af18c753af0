package literal

import (
	"encoding/base64"

	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/function"
	"github.com/roach88/litenc/internal/types"
)

// MagicLiteralPrefix starts the name of every magic-literal function. The
// rest of the name is the canonical signature of the reconstructed type.
const MagicLiteralPrefix = "$literal$"

// MagicLiteralSignature returns the signature of the function that rebuilds a
// value of t from its representation: $literal$<t>(rep) returning t.
func MagicLiteralSignature(t types.Type) (function.Signature, error) {
	rep, err := RepresentationType(t)
	if err != nil {
		return function.Signature{}, err
	}
	return function.NewSignature(function.DefaultName(MagicLiteralPrefix+t.String()), function.KindScalar, t, rep), nil
}

// RepresentationType picks the argument type of t's magic-literal function
// from t's native kind.
func RepresentationType(t types.Type) (types.Type, error) {
	switch t.Native() {
	case types.NativeInt64:
		return types.Bigint, nil
	case types.NativeFloat64:
		return types.Double, nil
	case types.NativeBoolean:
		return types.Boolean, nil
	case types.NativeDecimal, types.NativeBytes, types.NativeBlock:
		if _, ok := t.(types.VarcharType); ok {
			return t, nil
		}
		return types.Varbinary, nil
	default:
		return nil, newUnsupportedNativeTypeError(t)
	}
}

// IsMagicLiteralFunction reports whether name is a magic-literal function
// name and returns the type signature it encodes.
func IsMagicLiteralFunction(name string) (string, bool) {
	if len(name) <= len(MagicLiteralPrefix) || name[:len(MagicLiteralPrefix)] != MagicLiteralPrefix {
		return "", false
	}
	return name[len(MagicLiteralPrefix):], true
}

// fromBase64 wraps raw bytes as from_base64('<standard base64>').
func fromBase64(b []byte) *expr.FunctionCall {
	return expr.Call(function.FromBase64, expr.Argument{
		Type:  types.Varchar,
		Value: &expr.StringLiteral{Value: base64.StdEncoding.EncodeToString(b)},
	})
}

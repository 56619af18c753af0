package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownType is returned when a signature names no known type.
var ErrUnknownType = errors.New("unknown type")

// Lookup resolves a non-standard base name, e.g. a catalog extension type.
type Lookup func(name string) (Type, bool)

var standard = map[string]Type{
	"unknown":   Unknown,
	"boolean":   Boolean,
	"tinyint":   Tinyint,
	"smallint":  Smallint,
	"integer":   Integer,
	"int":       Integer,
	"bigint":    Bigint,
	"real":      Real,
	"double":    Double,
	"varchar":   Varchar,
	"date":      Date,
	"timestamp": Timestamp,
	"varbinary": Varbinary,
}

// Parse resolves a standard type signature such as "bigint", "varchar(10)",
// "decimal(20,4)" or "array(double)".
func Parse(signature string) (Type, error) {
	return ParseWith(signature, nil)
}

// ParseWith is Parse with a fallback for names that are not standard types.
// Array element signatures are resolved recursively with the same fallback.
func ParseWith(signature string, lookup Lookup) (Type, error) {
	sig := strings.ToLower(strings.TrimSpace(signature))
	if sig == "" {
		return nil, fmt.Errorf("%w: empty signature", ErrUnknownType)
	}

	if t, ok := standard[sig]; ok {
		return t, nil
	}

	base, params, hasParams, err := splitSignature(sig)
	if err != nil {
		return nil, err
	}

	if hasParams {
		switch base {
		case "varchar":
			n, err := intParams(sig, params, 1)
			if err != nil {
				return nil, err
			}
			return VarcharOf(n[0]), nil
		case "char":
			n, err := intParams(sig, params, 1)
			if err != nil {
				return nil, err
			}
			return CharOf(n[0]), nil
		case "decimal":
			return parseDecimal(sig, params)
		case "array":
			elem, err := ParseWith(params, lookup)
			if err != nil {
				return nil, fmt.Errorf("array element: %w", err)
			}
			return ArrayOf(elem), nil
		}
	}

	if lookup != nil {
		if t, ok := lookup(sig); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, signature)
}

// splitSignature splits "name(params)" into its parts.
func splitSignature(sig string) (base, params string, hasParams bool, err error) {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return sig, "", false, nil
	}
	if !strings.HasSuffix(sig, ")") {
		return "", "", false, fmt.Errorf("%w: unbalanced parentheses in %q", ErrUnknownType, sig)
	}
	return strings.TrimSpace(sig[:open]), strings.TrimSpace(sig[open+1 : len(sig)-1]), true, nil
}

func intParams(sig, params string, want int) ([]int, error) {
	parts := strings.Split(params, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("%w: %q expects %d parameter(s)", ErrUnknownType, sig, want)
	}
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid parameter %q in %q", ErrUnknownType, p, sig)
		}
		out[i] = n
	}
	return out, nil
}

func parseDecimal(sig, params string) (Type, error) {
	var n []int
	var err error
	if strings.Contains(params, ",") {
		n, err = intParams(sig, params, 2)
	} else {
		n, err = intParams(sig, params, 1)
		n = append(n, 0)
	}
	if err != nil {
		return nil, err
	}
	precision, scale := n[0], n[1]
	if precision < 1 || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: decimal precision %d out of range [1, %d]", ErrUnknownType, precision, MaxPrecision)
	}
	if scale > precision {
		return nil, fmt.Errorf("%w: decimal scale %d exceeds precision %d", ErrUnknownType, scale, precision)
	}
	return DecimalOf(precision, scale), nil
}

package literal

import (
	"errors"
	"fmt"

	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// EncodingError reports a (value, type) pair the encoder cannot turn into a
// literal. Encoding never produces partial output alongside an error.
type EncodingError struct {
	// Code identifies the error category.
	Code EncodingErrorCode

	// Message is a human-readable description.
	Message string

	// ValueKind is the native kind of the offending value.
	ValueKind types.NativeKind

	// NativeKind is the native kind the type expects.
	NativeKind types.NativeKind

	// Type is the canonical signature of the declared type.
	Type string
}

// EncodingErrorCode categorizes encoding errors.
type EncodingErrorCode string

const (
	// ErrCodeEncodingMismatch indicates the value's native kind is not
	// accepted by the declared type.
	ErrCodeEncodingMismatch EncodingErrorCode = "ENCODING_MISMATCH"

	// ErrCodeUnsupportedNativeType indicates a type whose native kind has no
	// magic-literal representation. This is a catalog error.
	ErrCodeUnsupportedNativeType EncodingErrorCode = "UNSUPPORTED_NATIVE_TYPE"

	// ErrCodeNestedMagicLiteral indicates the representation type of a magic
	// literal would itself need a magic literal.
	ErrCodeNestedMagicLiteral EncodingErrorCode = "NESTED_MAGIC_LITERAL"

	// ErrCodeValueOutOfRange indicates a value of the right native kind that
	// the type's literal syntax cannot express.
	ErrCodeValueOutOfRange EncodingErrorCode = "VALUE_OUT_OF_RANGE"
)

// Error implements the error interface.
func (e *EncodingError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsEncodingMismatch returns true if err is an ENCODING_MISMATCH error.
func IsEncodingMismatch(err error) bool {
	return hasCode(err, ErrCodeEncodingMismatch)
}

// IsUnsupportedNativeType returns true if err is an UNSUPPORTED_NATIVE_TYPE
// error.
func IsUnsupportedNativeType(err error) bool {
	return hasCode(err, ErrCodeUnsupportedNativeType)
}

// IsNestedMagicLiteral returns true if err is a NESTED_MAGIC_LITERAL error.
func IsNestedMagicLiteral(err error) bool {
	return hasCode(err, ErrCodeNestedMagicLiteral)
}

// IsValueOutOfRange returns true if err is a VALUE_OUT_OF_RANGE error.
func IsValueOutOfRange(err error) bool {
	return hasCode(err, ErrCodeValueOutOfRange)
}

func hasCode(err error, code EncodingErrorCode) bool {
	var ee *EncodingError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

func newMismatchError(valueKind types.NativeKind, t types.Type) *EncodingError {
	return &EncodingError{
		Code:       ErrCodeEncodingMismatch,
		Message:    fmt.Sprintf("value of native kind %s does not match native kind %s", valueKind, t.Native()),
		ValueKind:  valueKind,
		NativeKind: t.Native(),
		Type:       t.String(),
	}
}

func newUnsupportedNativeTypeError(t types.Type) *EncodingError {
	return &EncodingError{
		Code:       ErrCodeUnsupportedNativeType,
		Message:    fmt.Sprintf("no magic literal representation for native kind %s", t.Native()),
		NativeKind: t.Native(),
		Type:       t.String(),
	}
}

func newNestedMagicLiteralError(t, rep types.Type) *EncodingError {
	return &EncodingError{
		Code:       ErrCodeNestedMagicLiteral,
		Message:    fmt.Sprintf("representation type %s would require a magic literal", rep),
		NativeKind: rep.Native(),
		Type:       t.String(),
	}
}

func newOutOfRangeError(v value.Value, t types.Type, why string) *EncodingError {
	return &EncodingError{
		Code:       ErrCodeValueOutOfRange,
		Message:    fmt.Sprintf("%s %s", value.String(v), why),
		ValueKind:  v.Kind(),
		NativeKind: t.Native(),
		Type:       t.String(),
	}
}

package types

import (
	"fmt"
	"strconv"
)

// NativeKind identifies the in-memory representation the engine uses for the
// values of a type.
type NativeKind uint8

const (
	NativeUnknown NativeKind = iota // no representation known to the encoder
	NativeBoolean
	NativeInt32
	NativeInt64
	NativeFloat64
	NativeDecimal // 128-bit unscaled integer (long decimal)
	NativeBytes
	NativeBlock
)

// String returns the lower-case name of the native kind.
func (k NativeKind) String() string {
	switch k {
	case NativeBoolean:
		return "boolean"
	case NativeInt32:
		return "int32"
	case NativeInt64:
		return "int64"
	case NativeFloat64:
		return "float64"
	case NativeDecimal:
		return "decimal128"
	case NativeBytes:
		return "bytes"
	case NativeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Primitive reports whether values of this kind are held unboxed by the engine.
// Decimals, byte sequences and blocks are object-backed.
func (k NativeKind) Primitive() bool {
	switch k {
	case NativeBoolean, NativeInt32, NativeInt64, NativeFloat64:
		return true
	default:
		return false
	}
}

// ParseNativeKind is the inverse of NativeKind.String.
func ParseNativeKind(s string) (NativeKind, error) {
	for k := NativeUnknown; k <= NativeBlock; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return NativeUnknown, fmt.Errorf("unknown native kind %q", s)
}

// Decimal precision limits.
const (
	MaxShortPrecision = 18
	MaxPrecision      = 38
)

// Type is a sealed interface over the engine's semantic types.
type Type interface {
	fmt.Stringer

	// DisplayName is the name rendered as a CAST target.
	DisplayName() string

	// Native is the in-memory representation of values of this type.
	Native() NativeKind

	sqlType() // Sealed
}

type UnknownType struct{}

func (UnknownType) sqlType()            {}
func (UnknownType) String() string      { return "unknown" }
func (UnknownType) DisplayName() string { return "unknown" }
func (UnknownType) Native() NativeKind  { return NativeBoolean }

type BooleanType struct{}

func (BooleanType) sqlType()            {}
func (BooleanType) String() string      { return "boolean" }
func (BooleanType) DisplayName() string { return "boolean" }
func (BooleanType) Native() NativeKind  { return NativeBoolean }

type TinyintType struct{}

func (TinyintType) sqlType()            {}
func (TinyintType) String() string      { return "tinyint" }
func (TinyintType) DisplayName() string { return "tinyint" }
func (TinyintType) Native() NativeKind  { return NativeInt64 }

type SmallintType struct{}

func (SmallintType) sqlType()            {}
func (SmallintType) String() string      { return "smallint" }
func (SmallintType) DisplayName() string { return "smallint" }
func (SmallintType) Native() NativeKind  { return NativeInt64 }

type IntegerType struct{}

func (IntegerType) sqlType()            {}
func (IntegerType) String() string      { return "integer" }
func (IntegerType) DisplayName() string { return "integer" }
func (IntegerType) Native() NativeKind  { return NativeInt64 }

type BigintType struct{}

func (BigintType) sqlType()            {}
func (BigintType) String() string      { return "bigint" }
func (BigintType) DisplayName() string { return "bigint" }
func (BigintType) Native() NativeKind  { return NativeInt64 }

// RealType is single-precision floating point. Values are the raw float32 bit
// pattern stored in a 64-bit integer.
type RealType struct{}

func (RealType) sqlType()            {}
func (RealType) String() string      { return "real" }
func (RealType) DisplayName() string { return "real" }
func (RealType) Native() NativeKind  { return NativeInt64 }

type DoubleType struct{}

func (DoubleType) sqlType()            {}
func (DoubleType) String() string      { return "double" }
func (DoubleType) DisplayName() string { return "double" }
func (DoubleType) Native() NativeKind  { return NativeFloat64 }

// DecimalType is a fixed-point decimal. Short decimals (precision up to
// MaxShortPrecision) store the unscaled value in an int64; long decimals use a
// 128-bit integer.
type DecimalType struct {
	Precision int
	Scale     int
}

func (DecimalType) sqlType() {}

func (t DecimalType) String() string {
	return "decimal(" + strconv.Itoa(t.Precision) + "," + strconv.Itoa(t.Scale) + ")"
}

func (t DecimalType) DisplayName() string { return t.String() }

func (t DecimalType) Native() NativeKind {
	if t.IsShort() {
		return NativeInt64
	}
	return NativeDecimal
}

// IsShort reports whether the unscaled value fits in an int64.
func (t DecimalType) IsShort() bool { return t.Precision <= MaxShortPrecision }

// VarcharType is variable-length character data. The zero value is the
// unbounded varchar.
type VarcharType struct {
	Length  int
	Bounded bool
}

func (VarcharType) sqlType() {}

func (t VarcharType) String() string {
	if !t.Bounded {
		return "varchar"
	}
	return "varchar(" + strconv.Itoa(t.Length) + ")"
}

func (t VarcharType) DisplayName() string { return t.String() }
func (VarcharType) Native() NativeKind    { return NativeBytes }

// IsUnbounded reports whether the type has no declared maximum length.
func (t VarcharType) IsUnbounded() bool { return !t.Bounded }

// CharType is fixed-length, space-padded character data.
type CharType struct {
	Length int
}

func (CharType) sqlType()              {}
func (t CharType) String() string      { return "char(" + strconv.Itoa(t.Length) + ")" }
func (t CharType) DisplayName() string { return t.String() }
func (CharType) Native() NativeKind    { return NativeBytes }

// DateType stores days since 1970-01-01.
type DateType struct{}

func (DateType) sqlType()            {}
func (DateType) String() string      { return "date" }
func (DateType) DisplayName() string { return "date" }
func (DateType) Native() NativeKind  { return NativeInt64 }

// TimestampType stores milliseconds since the epoch.
type TimestampType struct{}

func (TimestampType) sqlType()            {}
func (TimestampType) String() string      { return "timestamp" }
func (TimestampType) DisplayName() string { return "timestamp" }
func (TimestampType) Native() NativeKind  { return NativeInt64 }

type VarbinaryType struct{}

func (VarbinaryType) sqlType()            {}
func (VarbinaryType) String() string      { return "varbinary" }
func (VarbinaryType) DisplayName() string { return "varbinary" }
func (VarbinaryType) Native() NativeKind  { return NativeBytes }

// ArrayType values are columnar blocks of the element type.
type ArrayType struct {
	Element Type
}

func (ArrayType) sqlType()              {}
func (t ArrayType) String() string      { return "array(" + t.Element.String() + ")" }
func (t ArrayType) DisplayName() string { return "array(" + t.Element.DisplayName() + ")" }
func (ArrayType) Native() NativeKind    { return NativeBlock }

// OpaqueType is a catalog extension type with no literal syntax of its own,
// e.g. hyperloglog or ipaddress. Rep declares its native representation.
type OpaqueType struct {
	Name string
	Rep  NativeKind
}

func (OpaqueType) sqlType()              {}
func (t OpaqueType) String() string      { return t.Name }
func (t OpaqueType) DisplayName() string { return t.Name }
func (t OpaqueType) Native() NativeKind  { return t.Rep }

// Standard type singletons.
var (
	Unknown   Type = UnknownType{}
	Boolean   Type = BooleanType{}
	Tinyint   Type = TinyintType{}
	Smallint  Type = SmallintType{}
	Integer   Type = IntegerType{}
	Bigint    Type = BigintType{}
	Real      Type = RealType{}
	Double    Type = DoubleType{}
	Varchar   Type = VarcharType{}
	Date      Type = DateType{}
	Timestamp Type = TimestampType{}
	Varbinary Type = VarbinaryType{}
)

// VarcharOf returns a varchar bounded to n code points.
func VarcharOf(n int) VarcharType {
	return VarcharType{Length: n, Bounded: true}
}

// CharOf returns char(n).
func CharOf(n int) CharType {
	return CharType{Length: n}
}

// DecimalOf returns decimal(precision, scale).
func DecimalOf(precision, scale int) DecimalType {
	return DecimalType{Precision: precision, Scale: scale}
}

// ArrayOf returns array(element).
func ArrayOf(element Type) ArrayType {
	return ArrayType{Element: element}
}

// Equal compares two types by canonical signature.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IntBacked reports whether t is one of the 32-bit-backed integer types that
// also accept 32-bit integer values in place of their 64-bit native form.
func IntBacked(t Type) bool {
	switch t.(type) {
	case IntegerType, RealType, DateType:
		return true
	default:
		return false
	}
}

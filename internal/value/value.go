// Package value holds runtime values in their native engine representation.
//
// Value is a sealed interface: Boolean, Int32, Int64, Float64, LongDecimal,
// Bytes, Block and Expr implement it. A nil Value is SQL NULL.
package value

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"

	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/types"
)

// Value is a runtime value paired with a semantic type by the caller.
type Value interface {
	// Kind is the native representation this value is carried in.
	Kind() types.NativeKind

	nativeValue() // Sealed
}

// Boolean is a boolean value.
type Boolean bool

func (Boolean) nativeValue()           {}
func (Boolean) Kind() types.NativeKind { return types.NativeBoolean }

// Int32 is a 32-bit integer. Only 32-bit-backed integer types accept it.
type Int32 int32

func (Int32) nativeValue()           {}
func (Int32) Kind() types.NativeKind { return types.NativeInt32 }

// Int64 carries every 64-bit-integer-backed type: integers, short decimal
// unscaled values, epoch days, epoch millis, and raw REAL bits.
type Int64 int64

func (Int64) nativeValue()           {}
func (Int64) Kind() types.NativeKind { return types.NativeInt64 }

// Float64 is a DOUBLE value.
type Float64 float64

func (Float64) nativeValue()           {}
func (Float64) Kind() types.NativeKind { return types.NativeFloat64 }

// LongDecimal is the unscaled 128-bit value of a long decimal.
type LongDecimal decimal128.Num

func (LongDecimal) nativeValue()           {}
func (LongDecimal) Kind() types.NativeKind { return types.NativeDecimal }

// Num returns the arrow decimal128 form.
func (d LongDecimal) Num() decimal128.Num { return decimal128.Num(d) }

// LongDecimalSize is the length of the binary form of a LongDecimal.
const LongDecimalSize = 16

// AppendBinary appends the two's-complement value little-endian: low 64
// bits first, then the high 64 bits.
func (d LongDecimal) AppendBinary(b []byte) []byte {
	n := d.Num()
	b = binary.LittleEndian.AppendUint64(b, n.LowBits())
	return binary.LittleEndian.AppendUint64(b, uint64(n.HighBits()))
}

// LongDecimalFromBinary decodes the form written by AppendBinary.
func LongDecimalFromBinary(b []byte) (LongDecimal, error) {
	if len(b) != LongDecimalSize {
		return LongDecimal{}, fmt.Errorf("long decimal needs %d bytes, got %d", LongDecimalSize, len(b))
	}
	lo := binary.LittleEndian.Uint64(b[:8])
	hi := int64(binary.LittleEndian.Uint64(b[8:]))
	return LongDecimal(decimal128.New(hi, lo)), nil
}

// Bytes is a byte sequence: character data (UTF-8) or binary.
type Bytes []byte

func (Bytes) nativeValue()           {}
func (Bytes) Kind() types.NativeKind { return types.NativeBytes }

// Block is a columnar block of values backed by an arrow array.
// The Block does not own a reference to Array; callers manage Retain/Release.
type Block struct {
	Array arrow.Array
}

func (Block) nativeValue()           {}
func (Block) Kind() types.NativeKind { return types.NativeBlock }

// Expr wraps an expression that is already in literal form. Encoders return
// it unchanged.
type Expr struct {
	Expression expr.Expression
}

func (Expr) nativeValue()           {}
func (Expr) Kind() types.NativeKind { return types.NativeUnknown }

// RealBits packs a float32 into the REAL native form: the raw bit pattern,
// sign-extended into an int64.
func RealBits(f float32) Int64 {
	return Int64(int32(math.Float32bits(f)))
}

// RealFromBits is the inverse of RealBits. Only the low 32 bits are used.
func RealFromBits(bits int64) float32 {
	return math.Float32frombits(uint32(bits))
}

// AsInt64 widens Int32 and Int64 values. Other kinds return false.
func AsInt64(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int64:
		return int64(val), true
	case Int32:
		return int64(val), true
	default:
		return 0, false
	}
}

// Equal reports whether a and b are the same value of type t.
//
// Integers compare numerically across Int32/Int64. DOUBLE and REAL treat
// every NaN as equal to every other NaN and otherwise compare bit patterns,
// so -0.0 and 0.0 differ.
func Equal(t types.Type, a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if _, ok := t.(types.RealType); ok {
		ai, aok := AsInt64(a)
		bi, bok := AsInt64(b)
		if !aok || !bok {
			return false
		}
		return floatBitsEqual(float64(RealFromBits(ai)), float64(RealFromBits(bi)), uint64(uint32(ai)), uint64(uint32(bi)))
	}

	switch av := a.(type) {
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Int32, Int64:
		ai, _ := AsInt64(a)
		bi, ok := AsInt64(b)
		return ok && ai == bi
	case Float64:
		bv, ok := b.(Float64)
		return ok && floatBitsEqual(float64(av), float64(bv), math.Float64bits(float64(av)), math.Float64bits(float64(bv)))
	case LongDecimal:
		bv, ok := b.(LongDecimal)
		return ok && av.Num() == bv.Num()
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && bytes.Equal(av, bv)
	case Block:
		bv, ok := b.(Block)
		return ok && array.Equal(av.Array, bv.Array)
	default:
		return false
	}
}

func floatBitsEqual(a, b float64, abits, bbits uint64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return abits == bbits
}

// String renders a value for diagnostics.
func String(v Value) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case Boolean:
		return fmt.Sprintf("%t", bool(val))
	case Int32:
		return fmt.Sprintf("%d", int32(val))
	case Int64:
		return fmt.Sprintf("%d", int64(val))
	case Float64:
		return fmt.Sprintf("%v", float64(val))
	case LongDecimal:
		return val.Num().BigInt().String()
	case Bytes:
		return fmt.Sprintf("%q", []byte(val))
	case Block:
		if val.Array == nil {
			return "block(nil)"
		}
		return fmt.Sprintf("block(%s, len=%d)", val.Array.DataType(), val.Array.Len())
	case Expr:
		return fmt.Sprintf("expr(%T)", val.Expression)
	default:
		return fmt.Sprintf("%T", v)
	}
}

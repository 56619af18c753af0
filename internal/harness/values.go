package harness

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"gopkg.in/yaml.v3"

	"github.com/roach88/litenc/internal/eval"
	"github.com/roach88/litenc/internal/types"
	"github.com/roach88/litenc/internal/value"
)

// ParseValue builds a runtime value of t from a YAML node. native overrides
// the native representation as described for Case.Native. Block values own
// their arrow array; the caller releases it.
func ParseValue(node *yaml.Node, t types.Type, native string, mem memory.Allocator) (value.Value, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if isNull(node) {
		return nil, nil
	}

	if native != "" && native != NativeInt32 {
		kind, err := types.ParseNativeKind(native)
		if err != nil {
			return nil, err
		}
		return parseKind(node, kind)
	}

	var v value.Value
	if arr, ok := t.(types.ArrayType); ok {
		b, err := buildBlock(node, arr.Element, mem)
		if err != nil {
			return nil, fmt.Errorf("%s value: %w", t, err)
		}
		v = b
	} else {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s value must be a scalar", t)
		}
		parsed, err := eval.ParseText(node.Value, t)
		if err != nil {
			return nil, err
		}
		v = parsed
	}

	if native == NativeInt32 {
		return narrow(v, t)
	}
	return v, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// parseKind builds a value of the given native kind from scalar text.
func parseKind(node *yaml.Node, kind types.NativeKind) (value.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%s value must be a scalar", kind)
	}
	text := node.Value

	var (
		v   value.Value
		err error
	)
	switch kind {
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
		v = value.Bytes(text)
	default:
		return nil, fmt.Errorf("cannot build a %s value from text", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s value %q: %w", kind, text, err)
	}
	return v, nil
}

// narrow converts the value of an int-backed type to Int32.
func narrow(v value.Value, t types.Type) (value.Value, error) {
	if !types.IntBacked(t) {
		return nil, fmt.Errorf("%s is not backed by a 32-bit integer", t)
	}
	n, ok := value.AsInt64(v)
	if !ok || n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("%s does not fit in int32", value.String(v))
	}
	return value.Int32(n), nil
}

// buildBlock builds an arrow array from a YAML sequence of element values.
func buildBlock(node *yaml.Node, elem types.Type, mem memory.Allocator) (value.Block, error) {
	if node.Kind != yaml.SequenceNode {
		return value.Block{}, fmt.Errorf("array value must be a sequence")
	}

	items := make([]value.Value, len(node.Content))
	for i, n := range node.Content {
		if isNull(n) {
			continue
		}
		if n.Kind != yaml.ScalarNode {
			return value.Block{}, fmt.Errorf("element %d: nested arrays are not supported", i)
		}
		v, err := eval.ParseText(n.Value, elem)
		if err != nil {
			return value.Block{}, fmt.Errorf("element %d: %w", i, err)
		}
		items[i] = v
	}

	b, err := newBuilder(elem, mem)
	if err != nil {
		return value.Block{}, err
	}
	defer b.Release()

	for _, v := range items {
		if v == nil {
			b.AppendNull()
			continue
		}
		appendValue(b, v)
	}
	return value.Block{Array: b.NewArray()}, nil
}

// newBuilder picks the arrow builder for elements of t.
func newBuilder(t types.Type, mem memory.Allocator) (array.Builder, error) {
	switch typ := t.(type) {
	case types.RealType:
		return array.NewFloat32Builder(mem), nil
	case types.VarcharType, types.CharType:
		return array.NewStringBuilder(mem), nil
	case types.DecimalType:
		return array.NewDecimal128Builder(mem, &arrow.Decimal128Type{
			Precision: int32(typ.Precision),
			Scale:     int32(typ.Scale),
		}), nil
	}

	switch t.Native() {
	case types.NativeInt64:
		return array.NewInt64Builder(mem), nil
	case types.NativeFloat64:
		return array.NewFloat64Builder(mem), nil
	case types.NativeBoolean:
		return array.NewBooleanBuilder(mem), nil
	case types.NativeBytes:
		return array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary), nil
	default:
		return nil, fmt.Errorf("no arrow layout for %s elements", t)
	}
}

func appendValue(b array.Builder, v value.Value) {
	switch b := b.(type) {
	case *array.Float32Builder:
		bits, _ := value.AsInt64(v)
		b.Append(value.RealFromBits(bits))
	case *array.StringBuilder:
		b.Append(string(v.(value.Bytes)))
	case *array.Decimal128Builder:
		switch d := v.(type) {
		case value.Int64:
			b.Append(decimal128.FromI64(int64(d)))
		case value.LongDecimal:
			b.Append(d.Num())
		}
	case *array.Int64Builder:
		n, _ := value.AsInt64(v)
		b.Append(n)
	case *array.Float64Builder:
		b.Append(float64(v.(value.Float64)))
	case *array.BooleanBuilder:
		b.Append(bool(v.(value.Boolean)))
	case *array.BinaryBuilder:
		b.Append(v.(value.Bytes))
	}
}

package expr

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/litenc/internal/types"
)

// Resolver resolves canonical type signatures carried on the wire.
type Resolver interface {
	Type(signature string) (types.Type, error)
}

// Node kinds on the wire.
const (
	kindNull     = "null"
	kindBoolean  = "boolean"
	kindLong     = "long"
	kindGeneric  = "generic"
	kindDouble   = "double"
	kindDecimal  = "decimal"
	kindString   = "string"
	kindCast     = "cast"
	kindFunction = "function"
	kindUnary    = "unary"
)

// wireNode is the tagged JSON form of an Expression.
type wireNode struct {
	Kind     string         `json:"kind"`
	Value    *string        `json:"value,omitempty"`
	Bool     *bool          `json:"bool,omitempty"`
	Type     string         `json:"type,omitempty"`
	Safe     bool           `json:"safe,omitempty"`
	TypeOnly bool           `json:"type_only,omitempty"`
	Name     string         `json:"name,omitempty"`
	Sign     string         `json:"sign,omitempty"`
	Operand  *wireNode      `json:"operand,omitempty"`
	Args     []wireArgument `json:"args,omitempty"`
}

type wireArgument struct {
	Type  string    `json:"type"`
	Value *wireNode `json:"value"`
}

// Marshal encodes e in the wire format.
func Marshal(e Expression) ([]byte, error) {
	n, err := toWire(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// MarshalList encodes a list of expressions as a JSON array.
func MarshalList(es []Expression) ([]byte, error) {
	nodes := make([]*wireNode, len(es))
	for i, e := range es {
		n, err := toWire(e)
		if err != nil {
			return nil, fmt.Errorf("expression[%d]: %w", i, err)
		}
		nodes[i] = n
	}
	return json.Marshal(nodes)
}

// Unmarshal decodes the wire format, resolving argument types with r.
func Unmarshal(data []byte, r Resolver) (Expression, error) {
	var n wireNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return fromWire(&n, r)
}

// UnmarshalList is the inverse of MarshalList.
func UnmarshalList(data []byte, r Resolver) ([]Expression, error) {
	var nodes []*wireNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	out := make([]Expression, len(nodes))
	for i, n := range nodes {
		e, err := fromWire(n, r)
		if err != nil {
			return nil, fmt.Errorf("expression[%d]: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func text(s string) *string { return &s }

func toWire(e Expression) (*wireNode, error) {
	switch n := e.(type) {
	case *NullLiteral:
		return &wireNode{Kind: kindNull}, nil
	case *BooleanLiteral:
		b := n.Value
		return &wireNode{Kind: kindBoolean, Bool: &b}, nil
	case *LongLiteral:
		return &wireNode{Kind: kindLong, Value: text(n.Value)}, nil
	case *GenericLiteral:
		return &wireNode{Kind: kindGeneric, Type: n.Type, Value: text(n.Value)}, nil
	case *DoubleLiteral:
		return &wireNode{Kind: kindDouble, Value: text(n.Value)}, nil
	case *DecimalLiteral:
		return &wireNode{Kind: kindDecimal, Value: text(n.Value)}, nil
	case *StringLiteral:
		return &wireNode{Kind: kindString, Value: text(n.Value)}, nil
	case *Cast:
		operand, err := toWire(n.Expression)
		if err != nil {
			return nil, fmt.Errorf("cast operand: %w", err)
		}
		return &wireNode{Kind: kindCast, Type: n.Type, Safe: n.Safe, TypeOnly: n.TypeOnly, Operand: operand}, nil
	case *FunctionCall:
		args := make([]wireArgument, len(n.Arguments))
		for i, arg := range n.Arguments {
			if arg.Type == nil {
				return nil, fmt.Errorf("%s argument %d: missing type", n.Name, i)
			}
			v, err := toWire(arg.Value)
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", n.Name, i, err)
			}
			args[i] = wireArgument{Type: arg.Type.String(), Value: v}
		}
		return &wireNode{Kind: kindFunction, Name: n.Name, Args: args}, nil
	case *ArithmeticUnary:
		operand, err := toWire(n.Value)
		if err != nil {
			return nil, fmt.Errorf("unary operand: %w", err)
		}
		return &wireNode{Kind: kindUnary, Sign: string(n.Sign), Operand: operand}, nil
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func fromWire(n *wireNode, r Resolver) (Expression, error) {
	if n == nil {
		return nil, fmt.Errorf("missing expression node")
	}

	switch n.Kind {
	case kindNull:
		return &NullLiteral{}, nil
	case kindBoolean:
		if n.Bool == nil {
			return nil, fmt.Errorf("boolean node without value")
		}
		return &BooleanLiteral{Value: *n.Bool}, nil
	case kindLong, kindDouble, kindDecimal, kindString, kindGeneric:
		if n.Value == nil {
			return nil, fmt.Errorf("%s node without value", n.Kind)
		}
		switch n.Kind {
		case kindLong:
			return &LongLiteral{Value: *n.Value}, nil
		case kindDouble:
			return &DoubleLiteral{Value: *n.Value}, nil
		case kindDecimal:
			return &DecimalLiteral{Value: *n.Value}, nil
		case kindString:
			return &StringLiteral{Value: *n.Value}, nil
		default:
			if n.Type == "" {
				return nil, fmt.Errorf("generic literal without type")
			}
			return &GenericLiteral{Type: n.Type, Value: *n.Value}, nil
		}
	case kindCast:
		operand, err := fromWire(n.Operand, r)
		if err != nil {
			return nil, fmt.Errorf("cast operand: %w", err)
		}
		if n.Type == "" {
			return nil, fmt.Errorf("cast without target type")
		}
		return &Cast{Expression: operand, Type: n.Type, Safe: n.Safe, TypeOnly: n.TypeOnly}, nil
	case kindFunction:
		if n.Name == "" {
			return nil, fmt.Errorf("function call without name")
		}
		var args []Argument
		for i, a := range n.Args {
			t, err := r.Type(a.Type)
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", n.Name, i, err)
			}
			v, err := fromWire(a.Value, r)
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", n.Name, i, err)
			}
			args = append(args, Argument{Type: t, Value: v})
		}
		return &FunctionCall{Name: n.Name, Arguments: args}, nil
	case kindUnary:
		operand, err := fromWire(n.Operand, r)
		if err != nil {
			return nil, fmt.Errorf("unary operand: %w", err)
		}
		switch Sign(n.Sign) {
		case SignPlus, SignMinus:
		default:
			return nil, fmt.Errorf("invalid sign %q", n.Sign)
		}
		return &ArithmeticUnary{Sign: Sign(n.Sign), Value: operand}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
	}
}

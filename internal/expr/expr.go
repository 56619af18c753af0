package expr

import "github.com/roach88/litenc/internal/types"

// Expression is a node of a literal expression tree.
type Expression interface {
	expressionNode() // Sealed
}

// NullLiteral is the untyped NULL. Typed nulls are a Cast of NullLiteral.
type NullLiteral struct{}

func (*NullLiteral) expressionNode() {}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Value bool
}

func (*BooleanLiteral) expressionNode() {}

// LongLiteral is a default-width integer literal in exact decimal text.
type LongLiteral struct {
	Value string
}

func (*LongLiteral) expressionNode() {}

// GenericLiteral is a literal tagged with an explicit type keyword,
// e.g. TINYINT '7' or TIMESTAMP '2001-08-22 03:04:05.321'.
type GenericLiteral struct {
	Type  string
	Value string
}

func (*GenericLiteral) expressionNode() {}

// DoubleLiteral is a double-precision literal in round-trip decimal text.
type DoubleLiteral struct {
	Value string
}

func (*DoubleLiteral) expressionNode() {}

// DecimalLiteral is an exact decimal literal. Its precision and scale come
// from the text; encoders wrap it in a Cast to pin the declared type.
type DecimalLiteral struct {
	Value string
}

func (*DecimalLiteral) expressionNode() {}

// StringLiteral is character data.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) expressionNode() {}

// Cast converts Expression to Type.
//
// Safe casts yield NULL instead of failing. TypeOnly casts only retag the
// static type of their operand and never fail at evaluation time; encoders use
// them to give a literal whose natural type is wider (unbounded varchar, the
// untyped NULL) the declared type of the value.
type Cast struct {
	Expression Expression
	Type       string
	Safe       bool
	TypeOnly   bool
}

func (*Cast) expressionNode() {}

// Argument is a typed function call argument.
type Argument struct {
	Type  types.Type
	Value Expression
}

// FunctionCall invokes a scalar function by unqualified name.
type FunctionCall struct {
	Name      string
	Arguments []Argument
}

func (*FunctionCall) expressionNode() {}

// Sign of an ArithmeticUnary.
type Sign string

const (
	SignPlus  Sign = "+"
	SignMinus Sign = "-"
)

// ArithmeticUnary applies a sign to Value.
type ArithmeticUnary struct {
	Sign  Sign
	Value Expression
}

func (*ArithmeticUnary) expressionNode() {}

// Negative returns -e.
func Negative(e Expression) *ArithmeticUnary {
	return &ArithmeticUnary{Sign: SignMinus, Value: e}
}

// Call builds a FunctionCall.
func Call(name string, args ...Argument) *FunctionCall {
	return &FunctionCall{Name: name, Arguments: args}
}

// Inspect traverses e in depth-first order, calling f for each node. If f
// returns false, the children of that node are skipped.
func Inspect(e Expression, f func(Expression) bool) {
	if e == nil || !f(e) {
		return
	}
	switch n := e.(type) {
	case *Cast:
		Inspect(n.Expression, f)
	case *FunctionCall:
		for _, arg := range n.Arguments {
			Inspect(arg.Value, f)
		}
	case *ArithmeticUnary:
		Inspect(n.Value, f)
	}
}

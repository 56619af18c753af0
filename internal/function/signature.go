// Package function describes function signatures. It only constructs
// descriptors; resolution and execution belong to the evaluator.
package function

import (
	"strings"

	"github.com/roach88/litenc/internal/types"
)

// Built-in function names referenced by encoded literals. These are part of
// the plan wire format.
const (
	NaN        = "nan"
	Infinity   = "infinity"
	FromBase64 = "from_base64"
)

// Default namespace for engine-provided functions.
const (
	DefaultCatalog = "system"
	DefaultSchema  = "builtin"
)

// Kind classifies a function.
type Kind string

const KindScalar Kind = "SCALAR"

// QualifiedName is catalog.schema.object.
type QualifiedName struct {
	Catalog string
	Schema  string
	Object  string
}

// DefaultName qualifies object under the default namespace.
func DefaultName(object string) QualifiedName {
	return QualifiedName{Catalog: DefaultCatalog, Schema: DefaultSchema, Object: object}
}

func (n QualifiedName) String() string {
	return n.Catalog + "." + n.Schema + "." + n.Object
}

// Signature identifies a function by name, kind, return and argument types.
type Signature struct {
	Name          QualifiedName
	Kind          Kind
	ReturnType    types.Type
	ArgumentTypes []types.Type
}

// NewSignature builds a signature descriptor.
func NewSignature(name QualifiedName, kind Kind, returnType types.Type, argumentTypes ...types.Type) Signature {
	return Signature{
		Name:          name,
		Kind:          kind,
		ReturnType:    returnType,
		ArgumentTypes: argumentTypes,
	}
}

// NameSuffix is the unqualified function name used in call expressions.
func (s Signature) NameSuffix() string {
	return s.Name.Object
}

// String renders the signature as name(arg, ...):return.
func (s Signature) String() string {
	args := make([]string, len(s.ArgumentTypes))
	for i, t := range s.ArgumentTypes {
		args[i] = t.String()
	}
	ret := "?"
	if s.ReturnType != nil {
		ret = s.ReturnType.String()
	}
	return s.Name.Object + "(" + strings.Join(args, ",") + "):" + ret
}

// Equal compares two signatures field by field.
func (s Signature) Equal(o Signature) bool {
	if s.Name != o.Name || s.Kind != o.Kind || !types.Equal(s.ReturnType, o.ReturnType) {
		return false
	}
	if len(s.ArgumentTypes) != len(o.ArgumentTypes) {
		return false
	}
	for i := range s.ArgumentTypes {
		if !types.Equal(s.ArgumentTypes[i], o.ArgumentTypes[i]) {
			return false
		}
	}
	return true
}

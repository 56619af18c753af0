// Package expr provides the literal expression tree that encoded constants are
// embedded into.
//
// NODES:
//
// Expression is a sealed interface using the marker method pattern. Only the
// node types of this package implement it:
//
//	NullLiteral       NULL
//	BooleanLiteral    true / false
//	LongLiteral       123 (default-width integer literal)
//	GenericLiteral    BIGINT '5', REAL '1.5', DATE '2001-08-22'
//	DoubleLiteral     1.5E0
//	DecimalLiteral    DECIMAL '12.34'
//	StringLiteral     'text'
//	Cast              CAST(x AS varchar(3))
//	FunctionCall      from_base64('AAE=')
//	ArithmeticUnary   -infinity()
//
// Backends switch over the node types exhaustively:
//
//	switch n := e.(type) {
//	case *expr.Cast:
//	    // ...
//	}
//
// WIRE FORMAT:
//
// Marshal/Unmarshal produce and consume a tagged JSON form used to ship plan
// fragments to workers. Every scalar is carried as a JSON string or bool, never
// as a JSON number, so no float rounding can occur in transit. Function
// argument types travel as canonical type signatures and are resolved against
// the receiver's catalog.
//
// IDENTITY:
//
// Fingerprint hashes the RFC 8785 canonical form of the wire JSON with a
// domain prefix. Two expressions have the same fingerprint iff they have the
// same wire encoding.
package expr

// Package literal re-expresses typed runtime values as literal expressions
// that can be embedded in a plan, shipped to workers, printed, and evaluated
// back to an equal value.
//
// DISPATCH:
//
// Encoder.Encode picks the literal form from the declared type:
//
//	NULL                    CAST(null AS t), or null for unknown
//	tinyint, smallint       TINYINT '7'
//	integer                 7
//	bigint                  BIGINT '7' if it fits in 32 bits, else 7
//	double                  1.5E0, nan(), infinity(), -infinity()
//	real                    REAL '1.5', CAST(nan() AS real), -CAST(infinity() AS real)
//	decimal(p,s)            CAST(DECIMAL '1.50' AS decimal(p,s))
//	varchar(n)              'abc' when the string has exactly n code points,
//	                        otherwise CAST('abc' AS varchar(n))
//	char(n)                 CAST('abc' AS char(n))
//	boolean                 true / false
//	date                    DATE '2001-08-22'
//	timestamp               TIMESTAMP '2001-08-22 03:04:05.321'
//
// Every other type is encoded as a magic literal.
//
// MAGIC LITERALS:
//
// A magic literal is a call to the function $literal$<signature>, which takes
// one argument of the type's representation type and returns the type:
//
//	"$literal$hyperloglog"(from_base64('AAE='))
//	"$literal$color"(BIGINT '3')
//
// The representation type is BIGINT, DOUBLE or BOOLEAN for primitive native
// kinds and VARBINARY for object-backed ones. Byte payloads and serialized
// blocks travel as from_base64 calls; other values are encoded recursively
// against the representation type, which must not need a magic literal
// itself.
//
// The names nan, infinity, from_base64 and the $literal$ prefix are part of
// the wire contract with workers.
package literal

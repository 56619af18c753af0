// Package types provides the semantic type catalog vocabulary shared by the
// literal encoder, the reference evaluator, and the catalog loader.
//
// Type is a sealed interface. Only the types declared in this package implement
// it, so the encoder can dispatch with an exhaustive type switch and treat its
// default arm as the magic-literal fallback.
//
// Every Type exposes three facts:
//   - String(): the canonical type signature ("decimal(10,2)", "array(bigint)")
//   - DisplayName(): the name used inside CAST targets
//   - Native(): the in-memory representation the engine uses for its values
//
// Two historical conventions are kept narrow on purpose:
//   - INTEGER, REAL and DATE are 32-bit-backed: their native kind is a 64-bit
//     integer but callers may hand over 32-bit integers (see IntBacked).
//   - REAL values are the raw IEEE-754 float32 bit pattern held in a 64-bit
//     integer.
package types

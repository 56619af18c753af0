// Package harness runs literal encoding scenarios.
//
// A scenario lists typed values together with the literal each one must
// encode to. The harness encodes every case, checks the expectations, stores
// the encoded expressions as a fragment, reads them back through the wire
// codec, and evaluates them to confirm they rebuild the original value.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: extensions          # optional CUE directory, relative to the file
//	extensions:                  # optional inline extension types
//	  - name: color
//	    native: int64
//	cases:
//	  - name: small_bigint
//	    type: bigint
//	    value: 5
//	    expect:
//	      sql: "BIGINT '5'"
//	      form: native
//	  - name: bad_kind
//	    type: boolean
//	    value: 1
//	    native: int64
//	    expect:
//	      error: ENCODING_MISMATCH
//	assertions:
//	  - type: form_count
//	    form: magic
//	    count: 1
//
// # Values
//
// A case value is written in the display text of its type and parsed with
// eval.ParseText: numbers, true/false, dates as 2001-08-22, timestamps as
// 2001-08-22 03:04:05.321, binary data in base64. null (or ~) is SQL NULL.
// Array values are YAML sequences of element values.
//
// The optional native field overrides the native representation of the
// value: int32 narrows an int-backed value, and the scalar kinds
// (int64, float64, boolean, bytes) build the value from its text without
// looking at the type, which is how mismatch cases are written.
//
// # Assertion Types
//
//   - form_count: Exactly count cases encode to the given literal form
//   - calls_function: Exactly count case expressions call the function
//   - registered: The magic-literal functions registered while running,
//     in name order
//   - same_literal: All listed cases encode to the same expression
//
// # Golden Files
//
// RunWithGolden snapshots the per-case SQL, form and error code together
// with the registered functions as canonical JSON under testdata/golden.
package harness

package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Cases    []CaseResult
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Cases) > 0 {
		fmt.Fprintf(&buf, "\nCases:\n")
		for i, c := range e.Cases {
			outcome := c.SQL
			if c.Error != "" {
				outcome = "error " + c.Error
			}
			fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", i+1, c.Name, c.Type, outcome)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFormCount:
			err = assertFormCount(result.Cases, a)
		case AssertCallsFunction:
			err = assertCallsFunction(result.Cases, a)
		case AssertRegistered:
			err = assertRegistered(result.Signatures, a)
		case AssertSameLiteral:
			err = assertSameLiteral(result.Cases, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertFormCount checks that exactly Count cases encoded to Form.
func assertFormCount(cases []CaseResult, a Assertion) error {
	count := 0
	for _, c := range cases {
		if c.Form == a.Form {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertFormCount,
			Expected: fmt.Sprintf("%d %s literals", a.Count, a.Form),
			Actual:   fmt.Sprintf("%d %s literals", count, a.Form),
			Cases:    cases,
		}
	}
	return nil
}

// assertCallsFunction checks that exactly Count case expressions call
// Function at least once.
func assertCallsFunction(cases []CaseResult, a Assertion) error {
	count := 0
	for _, c := range cases {
		for _, name := range c.Calls {
			if name == a.Function {
				count++
				break
			}
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertCallsFunction,
			Expected: fmt.Sprintf("%d expressions calling %s", a.Count, a.Function),
			Actual:   fmt.Sprintf("%d expressions", count),
			Cases:    cases,
		}
	}
	return nil
}

// assertRegistered compares the registered signatures with Functions.
func assertRegistered(signatures []string, a Assertion) error {
	if !slices.Equal(signatures, a.Functions) {
		return &AssertionError{
			Type:     AssertRegistered,
			Expected: fmt.Sprintf("%v", a.Functions),
			Actual:   fmt.Sprintf("%v", signatures),
		}
	}
	return nil
}

// assertSameLiteral checks that the named cases encoded to the same
// expression.
func assertSameLiteral(cases []CaseResult, a Assertion) error {
	byName := make(map[string]CaseResult, len(cases))
	for _, c := range cases {
		byName[c.Name] = c
	}

	first, ok := byName[a.Cases[0]]
	if !ok || first.Fingerprint == "" {
		return fmt.Errorf("case %s did not encode", a.Cases[0])
	}
	for _, name := range a.Cases[1:] {
		c, ok := byName[name]
		if !ok || c.Fingerprint == "" {
			return fmt.Errorf("case %s did not encode", name)
		}
		if c.Fingerprint != first.Fingerprint {
			return &AssertionError{
				Type:     AssertSameLiteral,
				Expected: fmt.Sprintf("%s encodes like %s: %s", name, first.Name, first.SQL),
				Actual:   c.SQL,
			}
		}
	}
	return nil
}

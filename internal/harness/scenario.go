package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/litenc/internal/literal"
	"github.com/roach88/litenc/internal/types"
)

// Scenario is a set of encoding cases checked together.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional directory of CUE extension type declarations.
	// LoadScenario resolves it relative to the scenario file.
	Catalog string `yaml:"catalog,omitempty"`

	// Extensions declares extension types inline.
	Extensions []Extension `yaml:"extensions,omitempty"`

	// Cases are encoded in order.
	Cases []Case `yaml:"cases"`

	// Assertions validate the scenario as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Extension declares an opaque type backed by a native kind.
type Extension struct {
	Name   string `yaml:"name"`
	Native string `yaml:"native"`
}

// Case is one value to encode.
type Case struct {
	Name string `yaml:"name"`

	// Type is the canonical type signature of the value.
	Type string `yaml:"type"`

	// Value is the value in its display text; see the package documentation.
	Value yaml.Node `yaml:"value"`

	// Native overrides the native representation of Value.
	Native string `yaml:"native,omitempty"`

	// Expect is optional; without it the case only has to round-trip.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected encoding of a case.
type Expect struct {
	// SQL is the expected expr.Format text.
	SQL string `yaml:"sql,omitempty"`

	// Form is the expected literal form (null, native, special, magic, binary).
	Form string `yaml:"form,omitempty"`

	// Error is the expected encoding error code. A case that expects an error
	// must not encode.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the scenario result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "form_count": Count cases with the given form
	// - "calls_function": Count case expressions calling Function
	// - "registered": Compare the registered functions with Functions
	// - "same_literal": All Cases encode to the same expression
	Type string `yaml:"type"`

	// Form is the literal form (used by form_count).
	Form string `yaml:"form,omitempty"`

	// Function is the called function name (used by calls_function).
	Function string `yaml:"function,omitempty"`

	// Count is the expected number of occurrences.
	Count int `yaml:"count,omitempty"`

	// Functions are the expected registered signatures (used by registered).
	Functions []string `yaml:"functions,omitempty"`

	// Cases are case names (used by same_literal).
	Cases []string `yaml:"cases,omitempty"`
}

// Assertion type constants.
const (
	AssertFormCount     = "form_count"
	AssertCallsFunction = "calls_function"
	AssertRegistered    = "registered"
	AssertSameLiteral   = "same_literal"
)

// Native overrides accepted by Case.Native.
const (
	NativeInt32 = "int32"
)

var knownForms = map[string]bool{
	string(literal.FormNull):    true,
	string(literal.FormNative):  true,
	string(literal.FormSpecial): true,
	string(literal.FormMagic):   true,
	string(literal.FormBinary):  true,
}

var knownErrorCodes = map[string]bool{
	string(literal.ErrCodeEncodingMismatch):      true,
	string(literal.ErrCodeUnsupportedNativeType): true,
	string(literal.ErrCodeNestedMagicLiteral):    true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); err != nil {
			return nil, fmt.Errorf("invalid scenario: catalog directory: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Catalog paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, ext := range s.Extensions {
		if ext.Name == "" {
			return fmt.Errorf("extensions[%d]: name is required", i)
		}
		if _, err := types.ParseNativeKind(ext.Native); err != nil {
			return fmt.Errorf("extensions[%d]: %w", i, err)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		if c.Type == "" {
			return fmt.Errorf("cases[%d]: type is required", i)
		}
		if c.Value.Kind == 0 {
			return fmt.Errorf("cases[%d]: value is required (use null for NULL)", i)
		}
		if c.Native != "" && c.Native != NativeInt32 {
			if _, err := types.ParseNativeKind(c.Native); err != nil {
				return fmt.Errorf("cases[%d]: %w", i, err)
			}
		}
		if c.Expect != nil {
			if err := validateExpect(i, c.Expect); err != nil {
				return err
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, names); err != nil {
			return err
		}
	}

	return nil
}

func validateExpect(index int, e *Expect) error {
	if e.Form != "" && !knownForms[e.Form] {
		return fmt.Errorf("cases[%d].expect: unknown form %q", index, e.Form)
	}
	if e.Error != "" {
		if !knownErrorCodes[e.Error] {
			return fmt.Errorf("cases[%d].expect: unknown error code %q", index, e.Error)
		}
		if e.SQL != "" || e.Form != "" {
			return fmt.Errorf("cases[%d].expect: error excludes sql and form", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, cases map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFormCount:
		if !knownForms[a.Form] {
			return fmt.Errorf("assertions[%d]: unknown form %q for form_count", index, a.Form)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for form_count", index)
		}
	case AssertCallsFunction:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for calls_function", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for calls_function", index)
		}
	case AssertRegistered:
		// An empty list asserts that nothing was registered.
	case AssertSameLiteral:
		if len(a.Cases) < 2 {
			return fmt.Errorf("assertions[%d]: same_literal needs at least two cases", index)
		}
		for _, name := range a.Cases {
			if !cases[name] {
				return fmt.Errorf("assertions[%d]: unknown case %q", index, name)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

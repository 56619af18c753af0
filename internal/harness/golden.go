package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/litenc/internal/expr"
)

// Snapshot captures the stable part of a scenario result. Fingerprints and
// fragment ids are left out; the SQL text already pins the literal.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Cases        []CaseResult `json:"cases"`
	Signatures   []string     `json:"signatures"`
}

// toCanonicalMap converts a Snapshot to the generic form expected by
// expr.MarshalCanonical.
func (s *Snapshot) toCanonicalMap() map[string]any {
	cases := make([]any, len(s.Cases))
	for i, c := range s.Cases {
		m := map[string]any{
			"name": c.Name,
			"type": c.Type,
		}
		if c.SQL != "" {
			m["sql"] = c.SQL
		}
		if c.Form != "" {
			m["form"] = c.Form
		}
		if c.Error != "" {
			m["error"] = c.Error
		}
		cases[i] = m
	}

	sigs := make([]any, len(s.Signatures))
	for i, sig := range s.Signatures {
		sigs[i] = sig
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"cases":         cases,
		"signatures":    sigs,
	}
}

// MarshalSnapshot renders the snapshot of result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: name,
		Cases:        result.Cases,
		Signatures:   result.Signatures,
	}
	return expr.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}

package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/organizer/internal/ir"
)

// TraceSnapshot captures the trace and step outcomes of a scenario.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Steps        []StepResult
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Empty summary fields are left out.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = map[string]any{
			"step":    e.Step,
			"type":    e.Type,
			"state":   e.State,
			"results": e.Results,
			"seq":     e.Seq,
		}
	}

	steps := make([]any, len(s.Steps))
	for i, st := range s.Steps {
		items := make([]any, len(st.Items))
		for j, it := range st.Items {
			m := map[string]any{}
			for k, v := range map[string]string{
				"id":     it.ID,
				"parent": it.Parent,
				"type":   it.Type,
				"label":  it.Label,
				"start":  it.Start,
			} {
				if v != "" {
					m[k] = v
				}
			}
			items[j] = m
		}
		steps[i] = map[string]any{
			"request": st.Request,
			"state":   st.State,
			"error":   st.Error,
			"items":   items,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"steps":         steps,
	}
}

// MarshalSnapshot renders the canonical snapshot of a result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Steps:        result.Steps,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}

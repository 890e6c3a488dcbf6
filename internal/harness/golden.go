package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cinemad/internal/ir"
)

// TraceSnapshot is the golden form of a scenario trace.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Display      string       `json:"display"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap keeps only the fields meaningful for each event type so
// golden files stay small and stable.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		m := map[string]any{
			"step": e.Step,
			"type": e.Type,
		}
		switch e.Type {
		case EventActivate:
			m["display"] = e.Display
			m["activation"] = e.Activation
		case EventPass:
			m["display"] = e.Display
			m["total"] = e.Total
			m["selected"] = e.Selected
		case EventOutput:
			m["structure"] = e.Structure
			m["count"] = e.Count
		case EventSelect:
			m["structure"] = e.Structure
			m["value"] = e.Value
		case EventReject:
			m["structure"] = e.Structure
			m["value"] = e.Value
			m["error"] = e.Error
		}
		traceList[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"display":       s.Display,
		"trace":         traceList,
	}
}

// MarshalTrace renders a trace as canonical JSON.
func MarshalTrace(scenarioName, display string, trace []TraceEvent) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Display: display, Trace: trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := assertGolden(t, scenario.Name, scenario.Display, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName, display string, result *Result) error {
	t.Helper()
	return assertGolden(t, scenarioName, display, result)
}

func assertGolden(t *testing.T, scenarioName, display string, result *Result) error {
	t.Helper()
	traceJSON, err := MarshalTrace(scenarioName, display, result.Trace)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

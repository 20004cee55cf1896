package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// FormatTrace renders a trace as indented text, one block per step.
//
//	encode Note abc123
//	  record {"fields":{...},"recordID":{...},"recordType":"Note"}
//	  skipped comments TO_MANY_RELATIONSHIP
//	decode Note abc123
//	  deleted
func FormatTrace(trace []TraceEvent) string {
	var buf strings.Builder
	for _, event := range trace {
		buf.WriteString(event.Step)
		if event.Type != "" {
			buf.WriteString(" " + event.Type)
		}
		if event.RecordName != "" {
			buf.WriteString(" " + event.RecordName)
		}
		buf.WriteByte('\n')
		if event.Record != "" {
			fmt.Fprintf(&buf, "  record %s\n", event.Record)
		}
		for _, s := range event.Skipped {
			fmt.Fprintf(&buf, "  skipped %s\n", s)
		}
		if event.Deleted {
			buf.WriteString("  deleted\n")
		}
		if event.Error != "" {
			fmt.Fprintf(&buf, "  error %s\n", event.Error)
		}
	}
	return buf.String()
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, []byte(FormatTrace(result.Trace)))
}

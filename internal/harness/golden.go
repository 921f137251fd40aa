package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/conventions/internal/ir"
)

// GoldenDir is where RunWithGolden keeps golden files, relative to the
// package under test.
const GoldenDir = "testdata/golden"

// BuildSnapshot captures the outcome of a scenario for golden comparison:
// the complete trace and, for a successful build, the model.
type BuildSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	RunID        string            `json:"run_id"`
	Trace        []ir.TraceEvent   `json:"trace"`
	Model        *ir.ModelSnapshot `json:"model,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty"`
}

// GoldenBytes renders the outcome of a scenario as canonical JSON.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	trace := result.Trace
	if trace == nil {
		trace = []ir.TraceEvent{}
	}
	snap := BuildSnapshot{
		ScenarioName: scenarioName,
		RunID:        result.RunID,
		Trace:        trace,
		Model:        result.Snapshot,
		ErrorCode:    result.ErrorCode,
	}
	data, err := ir.Canonicalize(snap)
	if err != nil {
		return nil, fmt.Errorf("golden snapshot %s: %w", scenarioName, err)
	}
	return data, nil
}

// RunWithGolden executes a scenario and compares its outcome against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
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

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t, append([]goldie.Option{
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	}, opts...)...)
	g.Assert(t, scenarioName, data)
	return nil
}

// GoldenPath returns the golden file of a scenario file: golden/<name>.golden
// next to it.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes the outcome of a scenario to path.
func UpdateGolden(path, scenarioName string, result *Result) error {
	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the outcome of a scenario matches the
// golden file at path. A missing golden file is an error that satisfies
// os.IsNotExist.
func CompareGolden(path, scenarioName string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	got, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

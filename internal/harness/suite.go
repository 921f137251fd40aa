package harness

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Golden comparison outcomes of a suite scenario.
const (
	GoldenNone     = "none"     // No golden file next to the scenario
	GoldenMatched  = "matched"  // Outcome matches the golden file
	GoldenMismatch = "mismatch" // Outcome differs from the golden file
	GoldenUpdated  = "updated"  // Golden file was rewritten
)

// SuiteOptions configures RunSuite.
type SuiteOptions struct {
	// Filter is a glob matched against scenario file names without
	// extension. Empty runs every scenario.
	Filter string

	// Update rewrites golden files instead of comparing against them.
	Update bool

	// BasePath resolves relative spec paths of every scenario. Empty
	// resolves them against each scenario's own directory.
	BasePath string

	// Options are passed to every scenario run.
	Options []Option
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// ScenarioOutcome is the result of one scenario file in a suite.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	RunID  string   `json:"run_id,omitempty"`
	Golden string   `json:"golden"`
	Errors []string `json:"errors,omitempty"`
}

// FindScenarios returns the YAML scenario files under dir in lexical order.
// A non-empty filter is a glob matched against the base name and against the
// slash-separated path relative to dir, both without extension, so
// "relations/**" selects a subdirectory.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, fmt.Errorf("invalid filter pattern %q", filter)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" && !matchesFilter(dir, path, ext, filter) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

func matchesFilter(dir, path, ext, filter string) bool {
	name := strings.TrimSuffix(filepath.Base(path), ext)
	if doublestar.MatchUnvalidated(filter, name) {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return doublestar.MatchUnvalidated(filter, filepath.ToSlash(strings.TrimSuffix(rel, ext)))
}

// RunSuite runs every scenario under dir. Scenario failures are reported
// in the result; the error is for a directory that cannot be scanned.
func RunSuite(ctx context.Context, dir string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := FindScenarios(dir, opts.Filter)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{
		Scenarios: make([]ScenarioOutcome, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		outcome := runSuiteScenario(ctx, file, opts)
		if outcome.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, outcome)
	}
	return result, nil
}

func runSuiteScenario(ctx context.Context, file string, opts SuiteOptions) ScenarioOutcome {
	outcome := ScenarioOutcome{
		Name:   filepath.Base(file),
		Path:   file,
		Golden: GoldenNone,
	}

	var scenario *Scenario
	var err error
	if opts.BasePath != "" {
		scenario, err = LoadScenarioWithBasePath(file, opts.BasePath)
	} else {
		scenario, err = LoadScenario(file)
	}
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := RunContext(ctx, scenario, opts.Options...)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return outcome
	}
	outcome.RunID = result.RunID
	outcome.Errors = result.Errors
	outcome.Pass = result.Pass

	goldenPath := GoldenPath(file)
	if opts.Update {
		if err := UpdateGolden(goldenPath, scenario.Name, result); err != nil {
			outcome.Pass = false
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("failed to update golden file: %v", err))
			return outcome
		}
		outcome.Golden = GoldenUpdated
		return outcome
	}

	match, err := CompareGolden(goldenPath, scenario.Name, result)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		outcome.Pass = false
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	case match:
		outcome.Golden = GoldenMatched
	default:
		outcome.Golden = GoldenMismatch
		outcome.Pass = false
		outcome.Errors = append(outcome.Errors, "outcome does not match golden file (run with --update to regenerate)")
	}
	return outcome
}

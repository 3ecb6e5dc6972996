package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioOutcome is the result of running one scenario file.
type ScenarioOutcome struct {
	Path   string   `json:"path"`
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
	// Golden reports how the snapshot compared: "match", "mismatch",
	// "missing", "updated" or "" when the scenario did not run.
	Golden string `json:"golden,omitempty"`
}

// SuiteResult summarises a scenario directory run.
type SuiteResult struct {
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios"`
}

// FindScenarios returns the scenario files in dir, sorted by name. When filter
// is set only files whose base name contains it are returned.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find scenario files: %w", err)
		}
		files = append(files, matches...)
	}

	if filter != "" {
		var filtered []string
		for _, f := range files {
			if strings.Contains(filepath.Base(f), filter) {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}
	sort.Strings(files)
	return files, nil
}

// GoldenPath returns the golden file for a scenario file:
// <dir>/golden/<name>.golden, where name is the file name without extension.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	name := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
	return filepath.Join(dir, "golden", name+".golden")
}

// RunFile loads and runs one scenario file and compares its snapshot against
// the golden file when one exists. With update set the golden file is
// rewritten instead.
func RunFile(path string, update bool) ScenarioOutcome {
	outcome := ScenarioOutcome{Path: path, Name: filepath.Base(path)}
	fail := func(msg string) ScenarioOutcome {
		outcome.Pass = false
		outcome.Errors = append(outcome.Errors, msg)
		return outcome
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		return fail(fmt.Sprintf("load error: %v", err))
	}
	outcome.Name = scenario.Name

	result, err := Run(scenario)
	if err != nil {
		return fail(fmt.Sprintf("execution error: %v", err))
	}
	outcome.Pass = result.Pass
	outcome.Errors = append(outcome.Errors, result.Errors...)

	snapshot := Snapshot(scenario.Name, result)
	goldenPath := GoldenPath(path)
	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			return fail(fmt.Sprintf("golden update: %v", err))
		}
		if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
			return fail(fmt.Sprintf("golden update: %v", err))
		}
		outcome.Golden = "updated"
		return outcome
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		outcome.Golden = "missing"
	case err != nil:
		return fail(fmt.Sprintf("golden read: %v", err))
	case bytes.Equal(want, snapshot):
		outcome.Golden = "match"
	default:
		outcome.Golden = "mismatch"
		return fail(fmt.Sprintf("snapshot differs from %s", goldenPath))
	}
	return outcome
}

// RunSuite runs every scenario file in order.
func RunSuite(files []string, update bool) *SuiteResult {
	res := &SuiteResult{Scenarios: []ScenarioOutcome{}}
	for _, f := range files {
		outcome := RunFile(f, update)
		res.Total++
		if outcome.Pass {
			res.Passed++
		} else {
			res.Failed++
		}
		res.Scenarios = append(res.Scenarios, outcome)
	}
	return res
}

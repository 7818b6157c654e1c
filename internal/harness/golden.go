package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/querybuilder/internal/render"
)

// GoldenDir is the directory, next to the scenario file, that holds golden
// exports.
const GoldenDir = "golden"

// Snapshot renders the result's export as it is stored in golden files.
func Snapshot(result *Result) ([]byte, error) {
	return render.Indent(result.Export)
}

// GoldenName is the golden file name, without suffix, for a scenario: the
// scenario file's base name, or the scenario name when it was not loaded
// from a file.
func GoldenName(scenario *Scenario) string {
	if scenario.Path == "" {
		return scenario.Name
	}
	base := filepath.Base(scenario.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GoldenPath returns the golden file path for a scenario.
func GoldenPath(scenario *Scenario) string {
	dir := filepath.Join("testdata", GoldenDir)
	if scenario.Path != "" {
		dir = filepath.Join(filepath.Dir(scenario.Path), GoldenDir)
	}
	return filepath.Join(dir, GoldenName(scenario)+".golden")
}

// RunWithGolden executes a scenario, fails t on step or assertion errors,
// and compares the export against the scenario's golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, e)
	}

	AssertGolden(t, scenario, result)
	return result
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	path := GoldenPath(scenario)
	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Dir(path)),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, GoldenName(scenario), data)
}

// CompareGolden reports whether the result matches the golden file.
// A missing golden file is reported as os.ErrNotExist.
func CompareGolden(scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(scenario))
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// UpdateGolden writes the result's export as the scenario's golden file.
func UpdateGolden(scenario *Scenario, result *Result) error {
	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	path := GoldenPath(scenario)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

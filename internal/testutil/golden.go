// Package testutil provides shared test infrastructure for the dcsim simulator.
// It holds the golden dataset types and assertion helpers used across the
// sim/ and cmd/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase pairs a scenario file with the outcome it must reproduce.
type GoldenTestCase struct {
	Name     string `json:"name"`
	Scenario string `json:"scenario"` // file name under testdata/

	SubmissionOrder []int         `json:"submission_order"`
	CompletionOrder []int         `json:"completion_order"`
	Tasks           []GoldenTask  `json:"tasks"`
	Metrics         GoldenMetrics `json:"metrics"`
}

// GoldenTask is the expected timing of one completed task.
type GoldenTask struct {
	ID     int     `json:"id"`
	VMID   int     `json:"vm_id"`
	Start  float64 `json:"start"`
	Finish float64 `json:"finish"`
}

// GoldenMetrics represents the expected run-level figures of a golden case.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	CompletedTasks int `json:"completed_tasks"`
	FailedTasks    int `json:"failed_tasks"`
	VMsCreated     int `json:"vms_created"`
	ProvisionedVMs int `json:"provisioned_vms"`

	// Deterministic floating-point metrics (derived from simulation clock)
	Makespan float64 `json:"makespan"`
	ExecMean float64 `json:"exec_mean"`
	ExecP50  float64 `json:"exec_p50"`
	ExecP95  float64 `json:"exec_p95"`
}

// TestdataPath resolves a file under the repository testdata/ directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", name)
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	data, err := os.ReadFile(TestdataPath(t, "goldendataset.json"))
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// WriteTempYAML writes content to a fresh file in t.TempDir and returns its path.
func WriteTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

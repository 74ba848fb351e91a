// Package testutil provides shared test infrastructure for the kernel and
// its scenarios. It consolidates golden dataset types and assertion helpers
// used across sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/procsim/procsim/sim"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scenario run with known results. Config is the
// scenario file in YAML.
type GoldenTestCase struct {
	Name    string        `json:"name"`
	Config  string        `json:"config"`
	Metrics GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected results of a golden test case.
// Only scenarios with constant durations are recorded, so every value is
// exact up to the kernel tolerance.
type GoldenMetrics struct {
	FinalTime float64        `json:"final_time"`
	Completed int            `json:"completed"`
	Counters  map[string]int `json:"counters"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
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

// AssertTimeEqual compares two simulation times with the kernel's default
// tolerance.
func AssertTimeEqual(t *testing.T, name string, want, got sim.Time) {
	t.Helper()
	if !sim.DefaultTolerance.Equal(want, got) {
		t.Errorf("%s: got %s, want %s", name, got, want)
	}
}

// AssertNondecreasing checks that times never go backwards.
func AssertNondecreasing(t *testing.T, name string, times []sim.Time) {
	t.Helper()
	for i := 1; i < len(times); i++ {
		if sim.DefaultTolerance.Less(times[i], times[i-1]) {
			t.Errorf("%s: time went backwards at %d: %s after %s", name, i, times[i], times[i-1])
			return
		}
	}
}

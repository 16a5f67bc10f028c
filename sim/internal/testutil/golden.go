// Package testutil provides shared test infrastructure for the simulator.
// It consolidates golden file handling used across sim/ sub-package tests.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir returns the repository's testdata/golden directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/golden.
func GoldenDir(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden")
}

// Golden returns a goldie instance reading fixtures from GoldenDir.
//
// To regenerate golden files, run the test with -update.
func Golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir(GoldenDir(t)),
		goldie.WithNameSuffix(".golden"),
	)
}

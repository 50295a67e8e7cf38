package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a stimulus and compares the rendered trace log
// against the golden file testdata/golden/{stimulus.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The run must pass equivalence before the golden comparison happens, so a
// stale golden file can never mask a real backend divergence.
func RunWithGolden(t *testing.T, s *Stimulus) error {
	t.Helper()

	report, err := Run(s)
	if err != nil {
		return err
	}
	if !report.Passed() {
		t.Fatalf("backends diverged before golden comparison: %s", report.Divergence)
	}

	var buf bytes.Buffer
	if err := report.WriteLog(&buf); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, buf.Bytes())
	return nil
}

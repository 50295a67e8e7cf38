package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgram = `
name: panel-cycle
mode: counted
sequence:
  - state: panel_stable
    hold: 2
    sof: true
  - state: readout
    hold: 3
    eof: true
`

const testStimulus = `
name: panel-cycle-verify
cycles: 20
mode: counted
program:
  - state: panel_stable
    hold: 2
    sof: true
  - state: readout
    hold: 3
    eof: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, "panel.yaml", testProgram)
	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `program "panel-cycle" is valid`)
	assert.Contains(t, out, "PANEL_STABLE")
	assert.Contains(t, out, "READOUT")
}

func TestValidateCommandJSON(t *testing.T) {
	path := writeFile(t, "panel.yaml", testProgram)
	out, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateCommandRejectsBadProgram(t *testing.T) {
	path := writeFile(t, "bad.yaml", "name: bad\nsequence:\n  - state: warmup\n")
	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "unknown state")
}

func TestValidateCommandStimulus(t *testing.T) {
	path := writeFile(t, "stim.yaml", testStimulus)
	out, err := execute(t, "validate", "--stimulus", path)
	require.NoError(t, err)
	assert.Contains(t, out, `stimulus "panel-cycle-verify" is valid`)

	bad := writeFile(t, "bad.yaml", "name: bad\ncycles: 1\nprogram:\n  - state: flush\n")
	_, err = execute(t, "validate", "--stimulus", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGenerateCommand(t *testing.T) {
	path := writeFile(t, "panel.yaml", testProgram)
	out, err := execute(t, "generate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "module sequencer_fsm (")
	assert.Contains(t, out, "internal_lut_ram[0]")
	assert.Contains(t, out, "endmodule")
}

func TestGenerateCommandRejectsEmptyProgram(t *testing.T) {
	path := writeFile(t, "empty.yaml", "name: empty\nsequence: []\n")
	out, err := execute(t, "generate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "sequence is required")
}

func TestGenerateCommandToFile(t *testing.T) {
	path := writeFile(t, "panel.yaml", testProgram)
	outPath := filepath.Join(t.TempDir(), "out.sv")
	_, err := execute(t, "generate", path, "-o", outPath, "--module", "xray_seq")
	require.NoError(t, err)

	sv, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(sv), "module xray_seq (")
}

func TestDiagramCommand(t *testing.T) {
	path := writeFile(t, "panel.yaml", testProgram)
	out, err := execute(t, "diagram", path)
	require.NoError(t, err)
	assert.Contains(t, out, "stateDiagram-v2")
	assert.Contains(t, out, "RST --> PANEL_STABLE")
}

func TestSimCommand(t *testing.T) {
	path := writeFile(t, "panel.yaml", testProgram)
	out, err := execute(t, "sim", path, "--cycles", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "cycle=000 state=RST")
	assert.Contains(t, out, "state=PANEL_STABLE")
	assert.Contains(t, out, "cycle=011")
	assert.NotContains(t, out, "cycle=012")
}

func TestVerifyCommandPass(t *testing.T) {
	path := writeFile(t, "stim.yaml", testStimulus)
	out, err := execute(t, "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS panel-cycle-verify (20 cycles)")
}

func TestVerifyCommandTrace(t *testing.T) {
	path := writeFile(t, "stim.yaml", testStimulus)
	out, err := execute(t, "verify", path, "--trace")
	require.NoError(t, err)
	assert.Contains(t, out, "# run: panel-cycle-verify cycles=20 ref=model dut=rtl")
	assert.Contains(t, out, "result: PASS")
}

func TestVerifyCommandMissingStimulus(t *testing.T) {
	_, err := execute(t, "verify", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyArchiveAndInspect(t *testing.T) {
	stim := writeFile(t, "stim.yaml", testStimulus)
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "verify", stim, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "archived as run ")

	out, err = execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "panel-cycle-verify")
	assert.Contains(t, out, "PASS")

	// Pull the run ID back out of the listing to inspect its trace.
	fields := strings.Fields(out)
	require.NotEmpty(t, fields)
	runID := fields[0]

	out, err = execute(t, "report", runID, "--db", db, "--backend", "rtl")
	require.NoError(t, err)
	assert.Contains(t, out, "run "+runID+": PASS")
	assert.Contains(t, out, "backend=rtl")
	assert.Contains(t, out, "cycle=000 state=RST")
}

func TestRunsCommandEmptyArchive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no archived runs")
}

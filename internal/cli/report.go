package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raydet/sequencer/internal/runlog"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	Backend  string
}

// ReportResult is the report command's JSON payload.
type ReportResult struct {
	Run   runlog.Run `json:"run"`
	Trace []string   `json:"trace,omitempty"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Show one archived run and its trace",
		Long: `Show an archived equivalence run: verdict, parameters, and the
per-cycle trace of one backend.

Example:
  sequencer report --db runs.db 0190a6e0-... --backend rtl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run archive (required)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "model", "backend trace to show (model|rtl)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReport(opts *ReportOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	archive, err := runlog.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open run archive", err)
	}
	defer archive.Close()

	run, err := archive.GetRun(cmd.Context(), runID)
	if err != nil {
		_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	trace, err := archive.ReadTrace(cmd.Context(), runID, opts.Backend)
	if err != nil {
		_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	result := ReportResult{Run: *run}
	for _, obs := range trace {
		result.Trace = append(result.Trace, fmt.Sprintf("cycle=%03d %s", obs.Cycle, obs))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	verdict := "PASS"
	if !run.Passed {
		verdict = fmt.Sprintf("FAIL cycle=%d field=%s", *run.MismatchCycle, *run.MismatchField)
	}
	fmt.Fprintf(&b, "run %s: %s\n", run.ID, verdict)
	fmt.Fprintf(&b, "  name=%s layout=%s mode=%s cycles=%d created=%s\n",
		run.Name, run.Layout, run.Mode, run.Cycles, run.CreatedAt)
	fmt.Fprintf(&b, "  backend=%s\n", opts.Backend)
	for _, line := range result.Trace {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}

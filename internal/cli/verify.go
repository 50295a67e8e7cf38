package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raydet/sequencer/internal/harness"
	"github.com/raydet/sequencer/internal/runlog"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	Trace    bool

	// IDGenerator overrides the archive run ID source (for testing).
	IDGenerator runlog.RunIDGenerator
}

// VerifyResult is the verify command's JSON payload.
type VerifyResult struct {
	Name       string `json:"name"`
	Cycles     int    `json:"cycles"`
	Pass       bool   `json:"pass"`
	Divergence string `json:"divergence,omitempty"`
	RunID      string `json:"run_id,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <stimulus.yaml>",
		Short: "Verify backend equivalence for a stimulus",
		Long: `Drive the software model and the register-transfer simulator through a
stimulus in lockstep and compare the observable tuple on every cycle.

Exits 0 when every cycle matches, 1 on the first divergence. With --db the
run and both full traces are archived for later inspection.

Example:
  sequencer verify stimulus.yaml
  sequencer verify stimulus.yaml --db runs.db --trace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the full trace log")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := harness.LoadStimulus(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStimulus, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load stimulus", err)
	}
	layout, _ := s.ResolveLayout()
	mode, _ := s.ResolveMode()

	report, err := harness.Run(s)
	if err != nil {
		_ = formatter.Error(ErrCodeStimulus, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	result := VerifyResult{
		Name:   report.Name,
		Cycles: report.Cycles(),
		Pass:   report.Passed(),
	}
	if report.Divergence != nil {
		result.Divergence = report.Divergence.String()
	}

	if opts.Database != "" {
		archiveOpts := []runlog.Option{}
		if opts.IDGenerator != nil {
			archiveOpts = append(archiveOpts, runlog.WithIDGenerator(opts.IDGenerator))
		}
		archive, err := runlog.Open(opts.Database, archiveOpts...)
		if err != nil {
			_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open run archive", err)
		}
		defer archive.Close()

		id, err := archive.SaveReport(cmd.Context(), report, layout, mode)
		if err != nil {
			_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to archive run", err)
		}
		result.RunID = id
		formatter.VerboseLog("archived run %s", id)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		if opts.Trace {
			if err := report.WriteLog(cmd.OutOrStdout()); err != nil {
				return err
			}
		} else if result.Pass {
			fmt.Fprintf(cmd.OutOrStdout(), "PASS %s (%d cycles)\n", result.Name, result.Cycles)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %s\n", result.Name, result.Divergence)
		}
		if result.RunID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "archived as run %s\n", result.RunID)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("backends diverged: %s", result.Divergence))
	}
	return nil
}

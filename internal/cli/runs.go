package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raydet/sequencer/internal/runlog"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived equivalence runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run archive (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
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

	runs, err := archive.ListRuns(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeArchive, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no archived runs")
		return nil
	}
	var b strings.Builder
	for _, r := range runs {
		verdict := "PASS"
		if !r.Passed {
			verdict = fmt.Sprintf("FAIL cycle=%d field=%s", *r.MismatchCycle, *r.MismatchField)
		}
		fmt.Fprintf(&b, "%s  %-20s layout=%-8s mode=%-8s cycles=%-5d %s  %s\n",
			r.ID, r.Name, r.Layout, r.Mode, r.Cycles, verdict, r.CreatedAt)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}

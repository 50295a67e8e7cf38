package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raydet/sequencer/internal/harness"
	"github.com/raydet/sequencer/internal/sim"
)

// SimOptions holds flags for the sim command.
type SimOptions struct {
	*RootOptions
	Cycles   int
	ExitFrom int
	ExitTo   int
}

// SimResult is the sim command's JSON payload.
type SimResult struct {
	Name   string   `json:"name"`
	Cycles int      `json:"cycles"`
	Trace  []string `json:"trace"`
}

// NewSimCommand creates the sim command.
func NewSimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sim <program.yaml>",
		Short: "Simulate a program on the software model",
		Long: `Run a sequence program on the cycle-stepping software model and print
one trace line per cycle. The configuration prologue (configure pulse plus
one store write per record) counts toward the cycle budget.

Example:
  sequencer sim panel.yaml --cycles 64
  sequencer sim panel.yaml --cycles 100 --exit-from 40 --exit-to 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Cycles, "cycles", 64, "number of cycles to simulate")
	cmd.Flags().IntVar(&opts.ExitFrom, "exit-from", -1, "first cycle of the exit window (inclusive)")
	cmd.Flags().IntVar(&opts.ExitTo, "exit-to", -1, "last cycle of the exit window (inclusive)")

	return cmd
}

func runSim(opts *SimOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, layout, mode, _, err := loadProgram(path)
	if err != nil {
		_ = formatter.Error(ErrCodeProgram, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid program", err)
	}

	s := &harness.Stimulus{
		Name:    p.Name,
		Cycles:  opts.Cycles,
		Layout:  p.Layout,
		Mode:    p.Mode,
		Program: p.Sequence,
	}
	if opts.ExitFrom >= 0 {
		to := opts.ExitTo
		if to < opts.ExitFrom {
			to = opts.ExitFrom
		}
		s.Exit = []harness.Window{{From: opts.ExitFrom, To: to}}
	}
	inputs, err := s.Expand()
	if err != nil {
		_ = formatter.Error(ErrCodeStimulus, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid stimulus", err)
	}

	m := sim.New(layout, mode)
	result := SimResult{Name: p.Name, Cycles: opts.Cycles}
	for _, obs := range m.Trace(inputs) {
		result.Trace = append(result.Trace, fmt.Sprintf("cycle=%03d %s", obs.Cycle, obs))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	for _, line := range result.Trace {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

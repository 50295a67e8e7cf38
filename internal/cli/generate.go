package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raydet/sequencer/internal/config"
	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
	"github.com/raydet/sequencer/internal/rtl"
)

// GenerateOptions holds flags for the generate and diagram commands.
type GenerateOptions struct {
	*RootOptions
	Out    string
	Module string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <program.yaml>",
		Short: "Generate the SystemVerilog sequencer module",
		Long: `Generate the synthesizable SystemVerilog sequencer module with the
program pre-loaded into the internal LUT RAM.

Example:
  sequencer generate panel.yaml -o sequencer_fsm.sv
  sequencer generate --module xray_seq panel.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd, rtl.EmitVerilog)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Module, "module", rtl.DefaultModuleName, "generated module name")

	return cmd
}

// NewDiagramCommand creates the diagram command.
func NewDiagramCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diagram <program.yaml>",
		Short: "Generate the Mermaid state diagram",
		Long: `Generate a Mermaid state diagram of the sequencer for the given
program's layout and dispatch mode.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd, rtl.EmitMermaid)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Module, "module", rtl.DefaultModuleName, "generated module name")

	return cmd
}

type emitFunc func(w io.Writer, d rtl.Design, program []lut.Record) error

func runEmit(opts *GenerateOptions, path string, cmd *cobra.Command, emit emitFunc) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, layout, mode, records, err := loadProgram(path)
	if err != nil {
		_ = formatter.Error(ErrCodeProgram, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid program", err)
	}
	formatter.VerboseLog("loaded program %q (%d records)", p.Name, len(records))

	design := rtl.Design{Name: opts.Module, Layout: layout, Mode: mode}

	w := cmd.OutOrStdout()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			_ = formatter.Error(ErrCodeEmit, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}
	if err := emit(w, design, records); err != nil {
		_ = formatter.Error(ErrCodeEmit, err.Error(), nil)
		return WrapExitError(ExitCommandError, "emission failed", err)
	}
	if opts.Out != "" {
		formatter.VerboseLog("wrote %s", opts.Out)
	}
	return nil
}

// loadProgram loads a program file and resolves its layout, mode, and
// record list.
func loadProgram(path string) (*config.Program, lut.Layout, fsm.RepeatMode, []lut.Record, error) {
	p, err := config.LoadProgram(path)
	if err != nil {
		return nil, lut.Layout{}, 0, nil, err
	}
	layout, err := p.ResolveLayout()
	if err != nil {
		return nil, lut.Layout{}, 0, nil, err
	}
	mode, err := p.ResolveMode()
	if err != nil {
		return nil, lut.Layout{}, 0, nil, err
	}
	records, err := p.Records()
	if err != nil {
		return nil, lut.Layout{}, 0, nil, err
	}
	return p, layout, mode, records, nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raydet/sequencer/internal/config"
	"github.com/raydet/sequencer/internal/harness"
)

// ValidationResult is the validate command's JSON payload.
type ValidationResult struct {
	Valid   bool         `json:"valid"`
	Name    string       `json:"name,omitempty"`
	Layout  string       `json:"layout,omitempty"`
	Mode    string       `json:"mode,omitempty"`
	Records []RecordView `json:"records,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// RecordView is one program record as reported to the user: decoded
// fields plus the exact packed word the store will hold.
type RecordView struct {
	Address int    `json:"address"`
	State   string `json:"state"`
	Repeat  uint8  `json:"repeat"`
	Hold    uint16 `json:"hold"`
	EOF     bool   `json:"eof"`
	SOF     bool   `json:"sof"`
	Next    uint8  `json:"next,omitempty"`
	Packed  string `json:"packed"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var stimulus bool

	cmd := &cobra.Command{
		Use:   "validate <program.yaml>",
		Short: "Validate a sequence program or stimulus",
		Long: `Validate a sequence program file: strict YAML parsing, state name
resolution, layout/mode spelling, and record range checks. Prints the
decoded records with their packed store words.

With --stimulus the file is checked as a verification stimulus instead
(cycle budget, exit windows, reconfigure pulses).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stimulus {
				return runValidateStimulus(rootOpts, args[0], cmd)
			}
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&stimulus, "stimulus", false, "validate a stimulus file instead of a program")

	return cmd
}

func runValidateStimulus(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := harness.LoadStimulus(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStimulus, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid stimulus", err)
	}

	result := struct {
		Valid  bool   `json:"valid"`
		Name   string `json:"name"`
		Cycles int    `json:"cycles"`
	}{Valid: true, Name: s.Name, Cycles: s.Cycles}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stimulus %q is valid (%d cycles, %d records, %d exit windows)\n",
		s.Name, s.Cycles, len(s.Program), len(s.Exit))
	return nil
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, err := config.LoadProgram(path)
	if err != nil {
		_ = formatter.Error(ErrCodeProgram, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid program", err)
	}

	layout, _ := p.ResolveLayout()
	mode, _ := p.ResolveMode()
	records, err := p.Records()
	if err != nil {
		_ = formatter.Error(ErrCodeProgram, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid program", err)
	}

	hexDigits := (int(layout.Width()) + 3) / 4
	result := ValidationResult{
		Valid:  true,
		Name:   p.Name,
		Layout: map[bool]string{false: "base", true: "extended"}[layout.Extended()],
		Mode:   mode.String(),
	}
	for i, r := range records {
		result.Records = append(result.Records, RecordView{
			Address: i,
			State:   r.NextState.String(),
			Repeat:  r.RepeatCount,
			Hold:    r.HoldLength,
			EOF:     r.EOF,
			SOF:     r.SOF,
			Next:    r.NextAddress,
			Packed:  fmt.Sprintf("0x%0*X", hexDigits, layout.Pack(r)),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "program %q is valid (layout=%s mode=%s, %d records)\n", result.Name, result.Layout, result.Mode, len(records))
	for _, rv := range result.Records {
		fmt.Fprintf(&b, "  [%3d] %-12s repeat=%-3d hold=%-5d eof=%v sof=%v packed=%s\n",
			rv.Address, rv.State, rv.Repeat, rv.Hold, rv.EOF, rv.SOF, rv.Packed)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}

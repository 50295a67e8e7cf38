package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/rtl"
	"github.com/raydet/sequencer/internal/sim"
)

// Divergence names the first cycle and observable field on which the two
// backends disagreed.
type Divergence struct {
	Cycle int
	Field string
	Ref   string
	Dut   string
}

func (d Divergence) String() string {
	return fmt.Sprintf("cycle=%d field=%s ref=%s dut=%s", d.Cycle, d.Field, d.Ref, d.Dut)
}

// Report is the outcome of one lockstep comparison. Both full traces are
// retained so a divergence can be inspected in context.
type Report struct {
	Name    string
	RefName string
	DutName string

	RefTrace []fsm.Observation
	DutTrace []fsm.Observation

	// Divergence is nil when the backends matched on every cycle.
	Divergence *Divergence
}

// Passed reports whether every cycle's observable tuple matched.
func (r *Report) Passed() bool { return r.Divergence == nil }

// Cycles returns the compared run length.
func (r *Report) Cycles() int { return len(r.RefTrace) }

// Compare drives both backends through the input schedule in lockstep and
// records the first observable divergence. Both backends are hard-reset
// first; the full run is always captured, even past a divergence.
func Compare(name string, ref, dut Backend, inputs []fsm.Inputs) *Report {
	ref.Reset()
	dut.Reset()

	report := &Report{
		Name:     name,
		RefName:  ref.Name(),
		DutName:  dut.Name(),
		RefTrace: make([]fsm.Observation, 0, len(inputs)),
		DutTrace: make([]fsm.Observation, 0, len(inputs)),
	}

	for cycle, in := range inputs {
		ref.Step(in)
		dut.Step(in)
		want := ref.Snapshot()
		got := dut.Snapshot()
		report.RefTrace = append(report.RefTrace, want)
		report.DutTrace = append(report.DutTrace, got)

		if report.Divergence != nil {
			continue
		}
		wantFields, gotFields := want.Fields(), got.Fields()
		for i, wf := range wantFields {
			if wf.Value != gotFields[i].Value {
				report.Divergence = &Divergence{
					Cycle: cycle,
					Field: wf.Name,
					Ref:   wf.Value,
					Dut:   gotFields[i].Value,
				}
				slog.Warn("backends diverged",
					"run", name,
					"cycle", cycle,
					"field", wf.Name,
					"ref", wf.Value,
					"dut", gotFields[i].Value,
				)
				break
			}
		}
	}
	return report
}

// Run expands a stimulus and compares the software model against the
// bit-level register-transfer simulator.
func Run(s *Stimulus) (*Report, error) {
	layout, err := s.ResolveLayout()
	if err != nil {
		return nil, err
	}
	mode, err := s.ResolveMode()
	if err != nil {
		return nil, err
	}
	inputs, err := s.Expand()
	if err != nil {
		return nil, err
	}
	return Compare(s.Name, sim.New(layout, mode), rtl.NewSim(layout, mode), inputs), nil
}

// WriteLog renders the report as a plain-text trace log: a header, one
// line per backend per cycle, and a verdict line. The format is stable;
// golden trace files are diffed against it byte for byte.
func (r *Report) WriteLog(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# run: %s cycles=%d ref=%s dut=%s\n", r.Name, r.Cycles(), r.RefName, r.DutName)
	for i := range r.RefTrace {
		fmt.Fprintf(&b, "cycle=%03d backend=%-5s %s\n", i, r.RefName, r.RefTrace[i])
		fmt.Fprintf(&b, "cycle=%03d backend=%-5s %s\n", i, r.DutName, r.DutTrace[i])
	}
	if r.Divergence != nil {
		fmt.Fprintf(&b, "result: DIVERGED %s\n", r.Divergence)
	} else {
		fmt.Fprintf(&b, "result: PASS\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write trace log: %w", err)
	}
	return nil
}

package rtl

import (
	"fmt"
	"io"
	"strings"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// EmitMermaid renders the sequencer's state graph as a Mermaid state
// diagram. The program decides which launch edge is drawn: the diagram
// names the concrete first command when a program is given, the generic
// record-zero command otherwise.
func EmitMermaid(w io.Writer, d Design, program []lut.Record) error {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	first := "LUT[0].next_state"
	if len(program) > 0 {
		first = program[0].NextState.String()
	}

	line("```mermaid")
	line("stateDiagram-v2")
	line("    direction LR")
	for _, name := range lut.StateNames() {
		s, _ := lut.StateByName(name)
		if port, ok := enableName(s); ok {
			line("    state %s : %s=1", name, port)
		} else {
			line("    state %s", name)
		}
	}
	line("")
	line("    [*] --> RST : cfg_i=1 / lut_addr_reg <= 0")
	line("    RST --> RST : lut_wen_i || lut_rden_i / lut_addr_reg <= lut_addr_reg + 1")
	line("    RST --> %s : quiet cycle / load LUT[0], sof_o=1", first)
	for _, name := range lut.StateNames() {
		s, _ := lut.StateByName(name)
		if !s.Busy() {
			continue
		}
		line("    %s --> IDLE : hold_timer_reg == 0", name)
	}
	for _, rule := range fsm.DispatchRules(d.Mode) {
		line("    IDLE --> %s : %s / %s", dispatchTarget(rule.Action, first), dispatchGuard(rule.Cond), dispatchEffect(rule.Action))
	}
	line("```")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("emit mermaid: %w", err)
	}
	return nil
}

func dispatchGuard(c fsm.DispatchCond) string {
	switch c {
	case fsm.CondRepeatPending:
		return "repeat_count_reg > 0"
	case fsm.CondCancelExit:
		return "repeat_count == 0 && exit_i"
	case fsm.CondCancelHold:
		return "repeat_count == 0"
	case fsm.CondEndOfSequence:
		return "eof == 1"
	case fsm.CondAlways:
		return "otherwise"
	}
	return "?"
}

func dispatchTarget(a fsm.DispatchAction, first string) string {
	switch a {
	case fsm.ActRepeat, fsm.ActHold:
		return "LUT[addr].next_state"
	case fsm.ActAdvance:
		return "LUT[addr'].next_state"
	case fsm.ActWrap:
		return first
	}
	return "?"
}

func dispatchEffect(a fsm.DispatchAction) string {
	switch a {
	case fsm.ActRepeat:
		return "repeat_count_reg--, reload timer"
	case fsm.ActHold:
		return "reload timer"
	case fsm.ActAdvance:
		return "advance cursor, load next record"
	case fsm.ActWrap:
		return "wrap to 0, sequence_done_o=1"
	}
	return "?"
}

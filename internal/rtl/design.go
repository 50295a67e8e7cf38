package rtl

import (
	"fmt"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// DefaultModuleName is used when a design does not name its module.
const DefaultModuleName = "sequencer_fsm"

// Design describes one concrete rendering of the sequencer: its module
// name, record layout, and dispatch policy.
type Design struct {
	Name   string
	Layout lut.Layout
	Mode   fsm.RepeatMode
}

// NewDesign returns a design with the default module name.
func NewDesign(layout lut.Layout, mode fsm.RepeatMode) Design {
	return Design{Name: DefaultModuleName, Layout: layout, Mode: mode}
}

func (d Design) moduleName() string {
	if d.Name == "" {
		return DefaultModuleName
	}
	return d.Name
}

// slice renders the SystemVerilog bit slice of a record field within a
// packed word expression, e.g. slice("rd_word", FieldHoldLength) is
// "rd_word[26:11]".
func (d Design) slice(word string, id lut.FieldID) string {
	off, width := d.Layout.Range(id)
	if width == 1 {
		return fmt.Sprintf("%s[%d]", word, off)
	}
	return fmt.Sprintf("%s[%d:%d]", word, off+width-1, off)
}

// fieldWidth returns the bit width of a record field in this layout.
func (d Design) fieldWidth(id lut.FieldID) int {
	_, width := d.Layout.Range(id)
	return int(width)
}

// enableName maps a command state to its per-state enable output port.
// The housekeeping states drive no enable.
func enableName(s lut.State) (string, bool) {
	switch s {
	case lut.StatePanelStable:
		return "panel_enable_o", true
	case lut.StateBackBias:
		return "bias_enable_o", true
	case lut.StateFlush:
		return "flush_enable_o", true
	case lut.StateExposeTime:
		return "expose_enable_o", true
	case lut.StateReadout:
		return "readout_enable_o", true
	case lut.StateAEDDetect:
		return "aed_enable_o", true
	}
	return "", false
}

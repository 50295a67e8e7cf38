package lut

import "fmt"

// State is one of the sequencer's operating phases, encoded as a 3-bit
// unsigned value. The encoding is fixed by declaration order and is shared
// verbatim by the emitted hardware (localparam values) and the software
// model.
type State uint8

const (
	// StateIdle is the dispatch state: the machine spends exactly one
	// cycle here between commands while it resolves the next record.
	StateIdle State = iota

	// StateRst is the configuration state. LUT reads and writes are only
	// legal here; leaving it launches the program at address 0.
	StateRst

	// Command states. Each corresponds to one controllable panel function.
	StatePanelStable
	StateBackBias
	StateFlush
	StateExposeTime
	StateReadout
	StateAEDDetect

	// NumStates is the cardinality of the state set.
	NumStates = 8

	// StateBits is the encoding width. NumStates must fit in StateBits.
	StateBits = 3
)

var stateNames = [NumStates]string{
	"IDLE",
	"RST",
	"PANEL_STABLE",
	"BACK_BIAS",
	"FLUSH",
	"EXPOSE_TIME",
	"READOUT",
	"AED_DETECT",
}

// String returns the canonical state name used in programs, trace logs,
// and the emitted hardware description.
func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("STATE_%d", uint8(s))
	}
	return stateNames[s]
}

// Valid reports whether s is a member of the state set.
func (s State) Valid() bool {
	return s < NumStates
}

// Busy reports whether s is a busy state. Idle and the configuration
// state are the only non-busy states.
func (s State) Busy() bool {
	return s != StateIdle && s != StateRst
}

// StateByName resolves a canonical state name. Names are matched exactly;
// callers normalizing user input do so before the lookup.
func StateByName(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

// StateNames returns the state names in encoding order.
func StateNames() []string {
	names := make([]string, NumStates)
	copy(names, stateNames[:])
	return names
}

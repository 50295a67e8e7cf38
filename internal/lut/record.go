package lut

import "fmt"

// Record is one unpacked LUT entry: the parameters of a single command in
// a sequence program.
type Record struct {
	// NextState is the command state this record dispatches into.
	NextState State

	// RepeatCount is the number of additional executions of this record
	// before the machine advances past it. Zero means "repeat until the
	// exit signal cancels" under the default dispatch policy.
	RepeatCount uint8

	// HoldLength is the minimum number of clock cycles the command state
	// is held. The state can never exit earlier, independent of inputs.
	HoldLength uint16

	// EOF marks the last record of a program; dispatch wraps back to
	// address 0 and pulses sequence_done when it completes.
	EOF bool

	// SOF marks the first record of a program. Surfaced as a one-cycle
	// pulse when the record becomes active; informational only.
	SOF bool

	// NextAddress is the explicit successor address. Only meaningful
	// under the extended layout; the base layout advances by one.
	NextAddress uint8
}

// Validate reports whether the record's next-state field names a member
// of the state set. Unpack can never produce an invalid state (the field
// is masked to StateBits), but records built from configuration input can.
func (r Record) Validate() error {
	if !r.NextState.Valid() {
		return fmt.Errorf("record next_state %d outside valid state set [0,%d)", uint8(r.NextState), NumStates)
	}
	return nil
}

func (r Record) String() string {
	s := fmt.Sprintf("%s repeat=%d hold=%d eof=%v sof=%v", r.NextState, r.RepeatCount, r.HoldLength, r.EOF, r.SOF)
	return s
}

package fsm

import (
	"fmt"

	"github.com/raydet/sequencer/internal/lut"
)

// Registers is the machine's persistent state between cycles. All fields
// are owned exclusively by the cycle stepper and commit together, never
// partially.
type Registers struct {
	// State is the current operating phase.
	State lut.State

	// Addr is the LUT address register. Outside the configuration state
	// it names the record currently in flight; inside it, it doubles as
	// the store's auto-incrementing access cursor.
	Addr uint8

	// Repeat is the remaining re-executions of the in-flight record.
	Repeat uint8

	// Timer is the remaining mandatory-hold cycles of the in-flight
	// command state.
	Timer uint16

	// EOF and SOF mirror the in-flight record's framing flags. SOF is a
	// pulse: set on the load cycle, cleared the cycle after.
	EOF bool
	SOF bool

	// Done pulses for exactly one cycle when an end-of-sequence record
	// completes and dispatch wraps back to address 0.
	Done bool
}

// ResetRegisters is the defined post-reset register set: configuration
// state, address 0, all counters and flags cleared. Asserting the
// configuration signal from any reachable state yields exactly this value.
func ResetRegisters() Registers {
	return Registers{State: lut.StateRst}
}

// Inputs is the per-cycle external input bundle.
type Inputs struct {
	// Configure requests the configuration state. While asserted the
	// registers hold the reset value; configuration writes are accepted
	// once it de-asserts and until the first idle RST cycle launches the
	// program.
	Configure bool

	// Exit cancels an infinite-repeat record. Sampled only during
	// idle-state dispatch.
	Exit bool

	// WriteEnable/ReadEnable drive the configuration-mode store port.
	// Both auto-increment the address cursor; both are protocol
	// violations outside the configuration state.
	WriteEnable bool
	ReadEnable  bool

	// WriteData is the packed record accompanying WriteEnable.
	WriteData uint64
}

// ROM is the read-only record fetch port the resolver dispatches against.
// Both the software store and the bit-level RAM model satisfy it.
type ROM interface {
	Fetch(addr uint8) lut.Record
}

// Observation is the per-cycle observable field tuple compared by the
// equivalence harness and written to trace logs.
type Observation struct {
	Cycle  int
	State  lut.State
	Busy   bool
	Done   bool
	Addr   uint8
	Repeat uint8
	Timer  uint16
	EOF    bool
	SOF    bool
}

// Observe derives the observable tuple from a register set.
func Observe(cycle int, regs Registers) Observation {
	return Observation{
		Cycle:  cycle,
		State:  regs.State,
		Busy:   regs.State.Busy(),
		Done:   regs.Done,
		Addr:   regs.Addr,
		Repeat: regs.Repeat,
		Timer:  regs.Timer,
		EOF:    regs.EOF,
		SOF:    regs.SOF,
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// String renders the tuple as one trace-log line fragment. Flags render as
// 0/1 to keep the log diffable against hardware simulator dumps.
func (o Observation) String() string {
	return fmt.Sprintf("state=%s busy=%d done=%d addr=%d repeat=%d timer=%d eof=%d sof=%d",
		o.State, b2i(o.Busy), b2i(o.Done), o.Addr, o.Repeat, o.Timer, b2i(o.EOF), b2i(o.SOF))
}

// Fields returns the tuple as ordered (name, value) pairs. The harness
// compares these pairwise so a divergence names the first differing field.
func (o Observation) Fields() []ObservedField {
	return []ObservedField{
		{"state", o.State.String()},
		{"busy", fmt.Sprint(b2i(o.Busy))},
		{"done", fmt.Sprint(b2i(o.Done))},
		{"addr", fmt.Sprint(o.Addr)},
		{"repeat", fmt.Sprint(o.Repeat)},
		{"timer", fmt.Sprint(o.Timer)},
		{"eof", fmt.Sprint(b2i(o.EOF))},
		{"sof", fmt.Sprint(b2i(o.SOF))},
	}
}

// ObservedField is one named member of the observable tuple.
type ObservedField struct {
	Name  string
	Value string
}

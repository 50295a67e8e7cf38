package rtl

import (
	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// Sim executes the emitted hardware's semantics at the bit level: the
// store holds packed words, every record field is recovered by the same
// shift-and-mask slices the Verilog carries, and each Step mirrors one
// clock edge of the always_ff block (compute from the old registers,
// commit as a whole). It deliberately shares no decoded types with the
// software model beyond the dispatch table and the layout, which is what
// makes divergence between the two backends meaningful.
type Sim struct {
	layout lut.Layout
	mode   fsm.RepeatMode
	ram    [lut.Depth]uint64

	state  uint64
	addr   uint64
	repeat uint64
	timer  uint64
	eof    uint64
	sof    uint64
	done   uint64
	cycle  int
}

// NewSim returns a bit-level simulator in the post-reset state.
func NewSim(layout lut.Layout, mode fsm.RepeatMode) *Sim {
	return &Sim{layout: layout, mode: mode, state: uint64(lut.StateRst)}
}

// Name identifies the backend in equivalence reports.
func (s *Sim) Name() string { return "rtl" }

// Reset is the hard reset: registers to the reset value, cycle counter to
// zero, RAM cleared.
func (s *Sim) Reset() {
	s.ram = [lut.Depth]uint64{}
	s.resetRegs()
	s.cycle = 0
}

func (s *Sim) resetRegs() {
	s.state = uint64(lut.StateRst)
	s.addr = 0
	s.repeat = 0
	s.timer = 0
	s.eof = 0
	s.sof = 0
	s.done = 0
}

// field extracts one record field from a packed word.
func (s *Sim) field(word uint64, id lut.FieldID) uint64 {
	off, width := s.layout.Range(id)
	return (word >> off) & ((1 << width) - 1)
}

// Step advances one clock edge.
func (s *Sim) Step(in fsm.Inputs) {
	defer func() { s.cycle++ }()

	if in.Configure {
		s.resetRegs()
		return
	}

	// RAM write port, qualified by the state register.
	if s.state == uint64(lut.StateRst) && in.WriteEnable {
		s.ram[s.addr&(lut.Depth-1)] = in.WriteData & s.layout.Mask()
	}

	// Next values start as the old ones; pulses clear by default.
	nState, nAddr, nRepeat, nTimer, nEOF := s.state, s.addr, s.repeat, s.timer, s.eof
	nSOF, nDone := uint64(0), uint64(0)

	switch {
	case s.state == uint64(lut.StateRst):
		if in.WriteEnable || in.ReadEnable {
			nAddr = (s.addr + 1) & (lut.Depth - 1)
		} else {
			nAddr = 0
			word := s.ram[0]
			nState, nRepeat, nTimer, nEOF, nSOF = s.load(word)
		}

	case s.state != uint64(lut.StateIdle):
		if s.timer > 0 {
			nTimer = s.timer - 1
		}
		if nTimer == 0 {
			nState = uint64(lut.StateIdle)
		}

	default:
		word := s.ram[s.addr&(lut.Depth-1)]
	dispatch:
		for _, rule := range fsm.DispatchRules(s.mode) {
			switch rule.Cond {
			case fsm.CondRepeatPending:
				if s.repeat == 0 {
					continue
				}
			case fsm.CondCancelExit:
				if s.field(word, lut.FieldRepeatCount) != 0 || !in.Exit {
					continue
				}
			case fsm.CondCancelHold:
				if s.field(word, lut.FieldRepeatCount) != 0 {
					continue
				}
			case fsm.CondEndOfSequence:
				if s.field(word, lut.FieldEOF) == 0 {
					continue
				}
			case fsm.CondAlways:
			}

			switch rule.Action {
			case fsm.ActRepeat:
				nRepeat = s.repeat - 1
				nTimer = s.field(word, lut.FieldHoldLength)
				nState = s.field(word, lut.FieldNextState)
			case fsm.ActHold:
				nTimer = s.field(word, lut.FieldHoldLength)
				nState = s.field(word, lut.FieldNextState)
			case fsm.ActAdvance:
				nAddr = s.successor(word)
				nState, nRepeat, nTimer, nEOF, nSOF = s.load(s.ram[nAddr])
			case fsm.ActWrap:
				nAddr = 0
				nState, nRepeat, nTimer, nEOF, nSOF = s.load(s.ram[0])
				nDone = 1
			}
			break dispatch
		}
	}

	s.state, s.addr, s.repeat, s.timer = nState, nAddr, nRepeat, nTimer
	s.eof, s.sof, s.done = nEOF, nSOF, nDone
}

func (s *Sim) load(word uint64) (state, repeat, timer, eof, sof uint64) {
	return s.field(word, lut.FieldNextState),
		s.field(word, lut.FieldRepeatCount),
		s.field(word, lut.FieldHoldLength),
		s.field(word, lut.FieldEOF),
		s.field(word, lut.FieldSOF)
}

func (s *Sim) successor(word uint64) uint64 {
	if s.layout.Extended() {
		return s.field(word, lut.FieldNextAddress)
	}
	return (s.addr + 1) & (lut.Depth - 1)
}

// Snapshot returns the observable tuple for the cycle just executed.
func (s *Sim) Snapshot() fsm.Observation {
	return fsm.Observe(s.cycle-1, fsm.Registers{
		State:  lut.State(s.state),
		Addr:   uint8(s.addr),
		Repeat: uint8(s.repeat),
		Timer:  uint16(s.timer),
		EOF:    s.eof != 0,
		SOF:    s.sof != 0,
		Done:   s.done != 0,
	})
}

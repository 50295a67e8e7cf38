package fsm

import "github.com/raydet/sequencer/internal/lut"

// Resolve computes the next register set from the current registers, the
// per-cycle inputs, and the sequence store's read port. It is a pure
// function: no state of its own, no side effects (the store write
// accompanying a configuration-mode WriteEnable is applied by the stepper,
// not here). The stepper invokes it exactly once per clock and commits the
// result atomically.
//
// Behavior per state:
//
//   - Configure asserted (any state): registers take the defined reset
//     value. Idempotent.
//   - RST: a write or read enable advances the address cursor; otherwise
//     the program launches: record 0 is loaded, sof pulses one cycle.
//   - Command states: the hold timer decrements; the cycle it reaches
//     zero the machine moves to idle with the address unchanged, so a
//     record with hold L occupies its state for max(L,1) cycles
//     regardless of any input.
//   - Idle: the dispatch rule table (DispatchRules) resolves the next
//     record, first match wins.
func Resolve(regs Registers, in Inputs, rom ROM, layout lut.Layout, mode RepeatMode) Registers {
	if in.Configure {
		return ResetRegisters()
	}

	next := regs
	next.SOF = false
	next.Done = false

	switch {
	case regs.State == lut.StateRst:
		if in.WriteEnable || in.ReadEnable {
			next.Addr = regs.Addr + 1
			return next
		}
		// Configuration over: launch at address 0.
		next.Addr = 0
		load(&next, rom.Fetch(0))
		return next

	case regs.State != lut.StateIdle:
		if regs.Timer > 0 {
			next.Timer = regs.Timer - 1
		}
		if next.Timer == 0 {
			next.State = lut.StateIdle
		}
		return next

	default:
		cur := rom.Fetch(regs.Addr)
		for _, rule := range DispatchRules(mode) {
			if !evalCond(rule.Cond, regs, cur, in) {
				continue
			}
			applyAction(rule.Action, &next, regs, cur, rom, layout)
			return next
		}
		return next
	}
}

func evalCond(c DispatchCond, regs Registers, cur lut.Record, in Inputs) bool {
	switch c {
	case CondRepeatPending:
		return regs.Repeat > 0
	case CondCancelExit:
		return cur.RepeatCount == 0 && in.Exit
	case CondCancelHold:
		return cur.RepeatCount == 0
	case CondEndOfSequence:
		return cur.EOF
	case CondAlways:
		return true
	}
	return false
}

func applyAction(a DispatchAction, next *Registers, regs Registers, cur lut.Record, rom ROM, layout lut.Layout) {
	switch a {
	case ActRepeat:
		next.Repeat = regs.Repeat - 1
		next.Timer = cur.HoldLength
		next.State = cur.NextState
	case ActHold:
		next.Timer = cur.HoldLength
		next.State = cur.NextState
	case ActAdvance:
		addr := layout.Successor(regs.Addr, cur)
		next.Addr = addr
		load(next, rom.Fetch(addr))
	case ActWrap:
		next.Addr = 0
		load(next, rom.Fetch(0))
		next.Done = true
	}
}

// load installs a newly addressed record into the registers: state from
// next_state, timer and repeat counters from the record, framing flags
// mirrored (sof as a one-cycle pulse).
func load(next *Registers, rec lut.Record) {
	next.State = rec.NextState
	next.Timer = rec.HoldLength
	next.Repeat = rec.RepeatCount
	next.EOF = rec.EOF
	next.SOF = rec.SOF
}

package fsm

import "fmt"

// RepeatMode pins the contested interpretation of repeat_count == 0.
// Hardware revisions disagreed on whether a zero repeat count means
// "repeat until cancelled" or "execute once"; the mode makes the choice an
// explicit configuration instead of a silent branch on revision history.
// Both backends must be built with the same mode.
type RepeatMode int

const (
	// RepeatInfinite treats repeat_count == 0 as repeat-until-cancelled:
	// the record re-executes every dispatch until the exit signal is
	// sampled high, then advances exactly once.
	RepeatInfinite RepeatMode = iota

	// RepeatCounted treats repeat_count == 0 as zero additional
	// executions: dispatch falls through to the end-of-sequence and
	// advance rules.
	RepeatCounted
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatInfinite:
		return "infinite"
	case RepeatCounted:
		return "counted"
	default:
		return fmt.Sprintf("RepeatMode(%d)", int(m))
	}
}

// ParseRepeatMode resolves the CLI/config spelling of a repeat mode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "infinite", "":
		return RepeatInfinite, nil
	case "counted":
		return RepeatCounted, nil
	default:
		return 0, fmt.Errorf("unknown repeat mode %q (want \"infinite\" or \"counted\")", s)
	}
}

// DispatchCond is the guard of one idle-state dispatch rule, evaluated
// against the current registers, the record at the current address, and
// the external inputs.
type DispatchCond int

const (
	// CondRepeatPending: active repeat count > 0.
	CondRepeatPending DispatchCond = iota

	// CondCancelExit: record repeat_count == 0 and the exit signal is
	// asserted.
	CondCancelExit

	// CondCancelHold: record repeat_count == 0 and the exit signal is
	// not asserted.
	CondCancelHold

	// CondEndOfSequence: the record's eof flag is set.
	CondEndOfSequence

	// CondAlways matches unconditionally; the terminal rule.
	CondAlways
)

// DispatchAction is the consequence of a matched dispatch rule.
type DispatchAction int

const (
	// ActRepeat decrements the active repeat count, reloads the hold
	// timer from the current record, and re-enters its command state.
	// The address does not move.
	ActRepeat DispatchAction = iota

	// ActHold re-enters the current record's command state without
	// touching the repeat count. The infinite-repeat steady state.
	ActHold

	// ActAdvance moves to the successor address and loads that record.
	ActAdvance

	// ActWrap moves to address 0, loads record 0, and pulses
	// sequence_done for one cycle.
	ActWrap
)

// DispatchRule is one (guard, consequence) pair. Rules are evaluated in
// slice order, first match wins.
type DispatchRule struct {
	Cond   DispatchCond
	Action DispatchAction
}

// DispatchRules returns the idle-state dispatch priority list for a mode.
//
// This table is the pinned resolution of the priority ambiguity between
// the repeat, exit and end-of-sequence checks:
//
//  1. a pending counted repeat always wins, so eof never fires while
//     repeats remain;
//  2. the exit check applies to any repeat_count==0 record and does not
//     additionally require eof; a cancelled record advances to its
//     successor, it does not wrap;
//  3. eof wraps to address 0 and pulses sequence_done;
//  4. otherwise advance.
//
// The software resolver interprets this slice and the hardware emitter
// renders it as an if/else-if chain, so any reordering changes both
// backends together.
func DispatchRules(mode RepeatMode) []DispatchRule {
	if mode == RepeatInfinite {
		return []DispatchRule{
			{CondRepeatPending, ActRepeat},
			{CondCancelExit, ActAdvance},
			{CondCancelHold, ActHold},
			{CondEndOfSequence, ActWrap},
			{CondAlways, ActAdvance},
		}
	}
	return []DispatchRule{
		{CondRepeatPending, ActRepeat},
		{CondEndOfSequence, ActWrap},
		{CondAlways, ActAdvance},
	}
}

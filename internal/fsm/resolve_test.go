package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raydet/sequencer/internal/lut"
)

// rom builds a store holding the given records at addresses 0..n-1.
func rom(t *testing.T, layout lut.Layout, records ...lut.Record) *lut.Store {
	t.Helper()
	s := lut.NewStore(layout)
	for i, r := range records {
		require.NoError(t, r.Validate())
		s.Write(uint8(i), r)
	}
	return s
}

func TestResolveConfigureResetsFromAnyState(t *testing.T) {
	s := rom(t, lut.BaseLayout())
	states := []Registers{
		{State: lut.StateIdle, Addr: 7, Repeat: 3, Timer: 9},
		{State: lut.StateFlush, Timer: 2, EOF: true, Done: true},
		{State: lut.StateRst, Addr: 100},
	}
	for _, regs := range states {
		next := Resolve(regs, Inputs{Configure: true}, s, lut.BaseLayout(), RepeatCounted)
		assert.Equal(t, ResetRegisters(), next)
	}
}

func TestResolveRstCursorAdvance(t *testing.T) {
	s := rom(t, lut.BaseLayout())
	regs := ResetRegisters()

	next := Resolve(regs, Inputs{WriteEnable: true}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, lut.StateRst, next.State)
	assert.Equal(t, uint8(1), next.Addr)

	next = Resolve(next, Inputs{ReadEnable: true}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, uint8(2), next.Addr, "read enable advances the cursor too")
}

func TestResolveRstQuietCycleLaunches(t *testing.T) {
	s := rom(t, lut.BaseLayout(),
		lut.Record{NextState: lut.StateFlush, RepeatCount: 2, HoldLength: 5, SOF: true})
	regs := Registers{State: lut.StateRst, Addr: 1}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, lut.StateFlush, next.State)
	assert.Equal(t, uint8(0), next.Addr, "launch always starts at record 0")
	assert.Equal(t, uint8(2), next.Repeat)
	assert.Equal(t, uint16(5), next.Timer)
	assert.True(t, next.SOF)
	assert.False(t, next.Done)
}

func TestResolveHoldCountdown(t *testing.T) {
	s := rom(t, lut.BaseLayout(), lut.Record{NextState: lut.StateExposeTime, HoldLength: 3})
	regs := Registers{State: lut.StateExposeTime, Timer: 3}

	next := Resolve(regs, Inputs{Exit: true}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, lut.StateExposeTime, next.State, "hold ignores inputs")
	assert.Equal(t, uint16(2), next.Timer)

	next = Resolve(next, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, uint16(1), next.Timer)

	next = Resolve(next, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, lut.StateIdle, next.State, "post-decrement zero exits to idle")
	assert.Equal(t, uint16(0), next.Timer)
}

func TestResolveZeroHoldOccupiesOneCycle(t *testing.T) {
	s := rom(t, lut.BaseLayout())
	regs := Registers{State: lut.StateReadout, Timer: 0}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, lut.StateIdle, next.State)
}

func TestResolveDispatchRepeatPending(t *testing.T) {
	cur := lut.Record{NextState: lut.StateFlush, RepeatCount: 2, HoldLength: 4}
	s := rom(t, lut.BaseLayout(), cur)
	regs := Registers{State: lut.StateIdle, Addr: 0, Repeat: 2}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, lut.StateFlush, next.State)
	assert.Equal(t, uint8(1), next.Repeat, "repeat count decrements")
	assert.Equal(t, uint16(4), next.Timer, "timer reloads from the record")
	assert.Equal(t, uint8(0), next.Addr, "address stays put")
	assert.False(t, next.Done)
}

func TestResolveDispatchAdvance(t *testing.T) {
	s := rom(t, lut.BaseLayout(),
		lut.Record{NextState: lut.StateFlush, HoldLength: 1},
		lut.Record{NextState: lut.StateReadout, RepeatCount: 1, HoldLength: 6, EOF: true})
	regs := Registers{State: lut.StateIdle, Addr: 0}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, uint8(1), next.Addr)
	assert.Equal(t, lut.StateReadout, next.State)
	assert.Equal(t, uint8(1), next.Repeat)
	assert.Equal(t, uint16(6), next.Timer)
	assert.True(t, next.EOF)
}

func TestResolveDispatchWrapPulsesDone(t *testing.T) {
	first := lut.Record{NextState: lut.StateFlush, HoldLength: 2, SOF: true}
	last := lut.Record{NextState: lut.StateReadout, HoldLength: 1, EOF: true}
	s := rom(t, lut.BaseLayout(), first, last)
	regs := Registers{State: lut.StateIdle, Addr: 1, EOF: true}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, uint8(0), next.Addr)
	assert.Equal(t, lut.StateFlush, next.State)
	assert.True(t, next.Done)
	assert.True(t, next.SOF)

	// Done and SOF are pulses: the following command cycle clears both.
	after := Resolve(next, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.False(t, after.Done)
	assert.False(t, after.SOF)
}

func TestResolveInfiniteRepeatHoldsUntilExit(t *testing.T) {
	cur := lut.Record{NextState: lut.StateAEDDetect, RepeatCount: 0, HoldLength: 2}
	s := rom(t, lut.BaseLayout(), cur,
		lut.Record{NextState: lut.StateReadout, HoldLength: 1, EOF: true})
	regs := Registers{State: lut.StateIdle, Addr: 0}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatInfinite)
	assert.Equal(t, lut.StateAEDDetect, next.State, "no exit re-executes the record")
	assert.Equal(t, uint8(0), next.Addr)
	assert.Equal(t, uint8(0), next.Repeat, "hold does not touch the repeat count")

	next = Resolve(regs, Inputs{Exit: true}, s, lut.BaseLayout(), RepeatInfinite)
	assert.Equal(t, lut.StateReadout, next.State, "exit advances to the successor")
	assert.Equal(t, uint8(1), next.Addr)
}

func TestResolveInfiniteRepeatExitBeatsEOF(t *testing.T) {
	// A repeat-until-cancelled record that is also eof advances on exit;
	// it does not wrap. The cancel rules outrank end-of-sequence.
	cur := lut.Record{NextState: lut.StateAEDDetect, RepeatCount: 0, HoldLength: 1, EOF: true}
	s := rom(t, lut.BaseLayout(), cur, lut.Record{NextState: lut.StateFlush, HoldLength: 1})
	regs := Registers{State: lut.StateIdle, Addr: 0, EOF: true}

	next := Resolve(regs, Inputs{Exit: true}, s, lut.BaseLayout(), RepeatInfinite)
	assert.Equal(t, uint8(1), next.Addr)
	assert.False(t, next.Done)
}

func TestResolveCountedModeZeroRepeatFallsThrough(t *testing.T) {
	cur := lut.Record{NextState: lut.StateFlush, RepeatCount: 0, HoldLength: 1}
	s := rom(t, lut.BaseLayout(), cur, lut.Record{NextState: lut.StateReadout, HoldLength: 1})
	regs := Registers{State: lut.StateIdle, Addr: 0}

	next := Resolve(regs, Inputs{}, s, lut.BaseLayout(), RepeatCounted)
	assert.Equal(t, uint8(1), next.Addr, "counted mode treats zero as execute-once")
}

func TestResolveExtendedLayoutJump(t *testing.T) {
	s := lut.NewStore(lut.ExtendedLayout())
	s.Write(0, lut.Record{NextState: lut.StateFlush, HoldLength: 1, NextAddress: 5})
	s.Write(5, lut.Record{NextState: lut.StateReadout, HoldLength: 1, EOF: true, NextAddress: 0})
	regs := Registers{State: lut.StateIdle, Addr: 0}

	next := Resolve(regs, Inputs{}, s, lut.ExtendedLayout(), RepeatCounted)
	assert.Equal(t, uint8(5), next.Addr)
	assert.Equal(t, lut.StateReadout, next.State)
}

func TestDispatchRulesOrder(t *testing.T) {
	infinite := DispatchRules(RepeatInfinite)
	require.Len(t, infinite, 5)
	assert.Equal(t, DispatchRule{CondRepeatPending, ActRepeat}, infinite[0])
	assert.Equal(t, DispatchRule{CondCancelExit, ActAdvance}, infinite[1])
	assert.Equal(t, DispatchRule{CondCancelHold, ActHold}, infinite[2])
	assert.Equal(t, DispatchRule{CondEndOfSequence, ActWrap}, infinite[3])
	assert.Equal(t, DispatchRule{CondAlways, ActAdvance}, infinite[4])

	counted := DispatchRules(RepeatCounted)
	require.Len(t, counted, 3)
	assert.Equal(t, DispatchRule{CondRepeatPending, ActRepeat}, counted[0])
	assert.Equal(t, DispatchRule{CondEndOfSequence, ActWrap}, counted[1])
	assert.Equal(t, DispatchRule{CondAlways, ActAdvance}, counted[2])
}

func TestParseRepeatMode(t *testing.T) {
	m, err := ParseRepeatMode("")
	require.NoError(t, err)
	assert.Equal(t, RepeatInfinite, m)

	m, err = ParseRepeatMode("counted")
	require.NoError(t, err)
	assert.Equal(t, RepeatCounted, m)

	_, err = ParseRepeatMode("twice")
	require.Error(t, err)
}

func TestObservationString(t *testing.T) {
	o := Observe(3, Registers{State: lut.StateFlush, Addr: 2, Repeat: 1, Timer: 4, SOF: true})
	assert.Equal(t, "state=FLUSH busy=1 done=0 addr=2 repeat=1 timer=4 eof=0 sof=1", o.String())
	assert.Equal(t, 3, o.Cycle)

	fields := o.Fields()
	require.Len(t, fields, 8)
	assert.Equal(t, "state", fields[0].Name)
	assert.Equal(t, "sof", fields[7].Name)
}

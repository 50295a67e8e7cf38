package lut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateEncodingOrder(t *testing.T) {
	// The encoding is part of the hardware contract; reordering the
	// constants changes every emitted localparam.
	assert.Equal(t, State(0), StateIdle)
	assert.Equal(t, State(1), StateRst)
	assert.Equal(t, State(2), StatePanelStable)
	assert.Equal(t, State(3), StateBackBias)
	assert.Equal(t, State(4), StateFlush)
	assert.Equal(t, State(5), StateExposeTime)
	assert.Equal(t, State(6), StateReadout)
	assert.Equal(t, State(7), StateAEDDetect)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "EXPOSE_TIME", StateExposeTime.String())
	assert.Equal(t, "STATE_9", State(9).String())
}

func TestStateBusy(t *testing.T) {
	assert.False(t, StateIdle.Busy())
	assert.False(t, StateRst.Busy())
	for s := StatePanelStable; s <= StateAEDDetect; s++ {
		assert.True(t, s.Busy(), s.String())
	}
}

func TestStateByName(t *testing.T) {
	s, ok := StateByName("AED_DETECT")
	require.True(t, ok)
	assert.Equal(t, StateAEDDetect, s)

	_, ok = StateByName("aed_detect")
	assert.False(t, ok, "lookup is exact; normalization happens upstream")
}

func TestStateNames(t *testing.T) {
	names := StateNames()
	require.Len(t, names, NumStates)
	assert.Equal(t, "IDLE", names[0])
	assert.Equal(t, "AED_DETECT", names[7])
}

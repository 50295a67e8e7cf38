package lut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutWidths(t *testing.T) {
	assert.Equal(t, uint(29), BaseLayout().Width())
	assert.Equal(t, uint(37), ExtendedLayout().Width())
	assert.False(t, BaseLayout().Extended())
	assert.True(t, ExtendedLayout().Extended())
}

func TestLayoutFieldRanges(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		field  FieldID
		offset uint
		width  uint
	}{
		{"base next_state", BaseLayout(), FieldNextState, 0, 3},
		{"base repeat_count", BaseLayout(), FieldRepeatCount, 3, 8},
		{"base hold_length", BaseLayout(), FieldHoldLength, 11, 16},
		{"base eof", BaseLayout(), FieldEOF, 27, 1},
		{"base sof", BaseLayout(), FieldSOF, 28, 1},
		{"base has no next_address", BaseLayout(), FieldNextAddress, 0, 0},
		{"extended next_address", ExtendedLayout(), FieldNextAddress, 29, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, width := tt.layout.Range(tt.field)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.width, width)
		})
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	records := []Record{
		{},
		{NextState: StateFlush, RepeatCount: 1, HoldLength: 2, EOF: true, SOF: true},
		{NextState: StateExposeTime, HoldLength: 65535},
		{NextState: StateAEDDetect, RepeatCount: 255, HoldLength: 1},
		{NextState: StateReadout, EOF: true},
	}

	for _, r := range records {
		t.Run(r.NextState.String(), func(t *testing.T) {
			got := BaseLayout().Unpack(BaseLayout().Pack(r))
			assert.Equal(t, r, got)

			r.NextAddress = 42
			got = ExtendedLayout().Unpack(ExtendedLayout().Pack(r))
			assert.Equal(t, r, got)
		})
	}
}

func TestPackKnownWord(t *testing.T) {
	r := Record{NextState: StateFlush, RepeatCount: 1, HoldLength: 2, EOF: true, SOF: true}
	// FLUSH=4 | 1<<3 | 2<<11 | 1<<27 | 1<<28
	assert.Equal(t, uint64(0x1800100C), BaseLayout().Pack(r))
}

func TestPackTruncatesOversizedFields(t *testing.T) {
	// Pack does not validate; a state outside the encoding is masked to
	// its low bits. Callers catch this with Record.Validate first.
	wide := Record{NextState: State(9)}
	narrow := Record{NextState: State(1)}
	assert.Equal(t, BaseLayout().Pack(narrow), BaseLayout().Pack(wide))
}

func TestUnpackIgnoresHighBits(t *testing.T) {
	r := Record{NextState: StateReadout, HoldLength: 7}
	bits := BaseLayout().Pack(r) | (uint64(0xFF) << 29)
	assert.Equal(t, r, BaseLayout().Unpack(bits))
}

func TestSuccessor(t *testing.T) {
	r := Record{NextAddress: 9}
	assert.Equal(t, uint8(5), BaseLayout().Successor(4, r), "base layout increments")
	assert.Equal(t, uint8(0), BaseLayout().Successor(255, r), "increment wraps")
	assert.Equal(t, uint8(9), ExtendedLayout().Successor(4, r), "extended layout jumps")
}

func TestStoreReadWrite(t *testing.T) {
	s := NewStore(BaseLayout())
	r := Record{NextState: StateBackBias, HoldLength: 10}

	s.Write(3, r)
	assert.Equal(t, r, s.Read(3))
	assert.Equal(t, r, s.Fetch(3))
	assert.Equal(t, BaseLayout().Pack(r), s.Bits(3))
	assert.Equal(t, Record{}, s.Read(4), "untouched entries stay zero")
}

func TestStoreWriteBitsMasksToLayout(t *testing.T) {
	s := NewStore(BaseLayout())
	s.WriteBits(0, ^uint64(0))
	assert.Equal(t, BaseLayout().Mask(), s.Bits(0))
}

func TestStoreReset(t *testing.T) {
	s := NewStore(BaseLayout())
	s.Write(0, Record{NextState: StateFlush, HoldLength: 1})
	s.Write(200, Record{NextState: StateReadout, HoldLength: 2})

	s.Reset()
	assert.Equal(t, Record{}, s.Read(0))
	assert.Equal(t, Record{}, s.Read(200))
}

func TestRecordValidate(t *testing.T) {
	require.NoError(t, Record{NextState: StateAEDDetect}.Validate())
	err := Record{NextState: State(8)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside valid state set")
}

package lut

// FieldID names one packed record field. The declaration order below fixes
// the bit order: FieldNextState occupies the least significant bits.
type FieldID int

const (
	FieldNextState FieldID = iota
	FieldRepeatCount
	FieldHoldLength
	FieldEOF
	FieldSOF
	FieldNextAddress
)

// Field is one fixed-width slice of a packed record.
type Field struct {
	ID    FieldID
	Name  string
	Width uint
}

// AddrBits is the LUT address width; the store holds 1<<AddrBits records.
const AddrBits = 8

// Layout maps Record fields to bit positions in a flat vector. The base
// layout packs 29 bits (next_state, repeat_count, hold_length, eof, sof);
// the extended layout appends an 8-bit explicit next_address for 37 bits.
// Layouts are immutable.
type Layout struct {
	fields   []Field
	offsets  []uint
	width    uint
	extended bool
}

func newLayout(extended bool) Layout {
	fields := []Field{
		{FieldNextState, "next_state", StateBits},
		{FieldRepeatCount, "repeat_count", 8},
		{FieldHoldLength, "hold_length", 16},
		{FieldEOF, "eof", 1},
		{FieldSOF, "sof", 1},
	}
	if extended {
		fields = append(fields, Field{FieldNextAddress, "next_address", AddrBits})
	}
	offsets := make([]uint, len(fields))
	var off uint
	for i, f := range fields {
		offsets[i] = off
		off += f.Width
	}
	return Layout{fields: fields, offsets: offsets, width: off, extended: extended}
}

var (
	baseLayout     = newLayout(false)
	extendedLayout = newLayout(true)
)

// BaseLayout returns the 29-bit record layout with implicit increment-by-one
// addressing.
func BaseLayout() Layout { return baseLayout }

// ExtendedLayout returns the 37-bit record layout carrying an explicit
// next_address field.
func ExtendedLayout() Layout { return extendedLayout }

// Width returns the total packed width in bits: the sum of the field widths.
func (l Layout) Width() uint { return l.width }

// Extended reports whether the layout carries the next_address field.
func (l Layout) Extended() bool { return l.extended }

// Fields returns the packed fields in LSB-first order.
func (l Layout) Fields() []Field {
	fs := make([]Field, len(l.fields))
	copy(fs, l.fields)
	return fs
}

// Range returns the bit offset and width of a field. The hardware emitter
// uses this to render identical bit slices to the ones Unpack reads.
// Asking for FieldNextAddress on the base layout returns width 0.
func (l Layout) Range(id FieldID) (offset, width uint) {
	for i, f := range l.fields {
		if f.ID == id {
			return l.offsets[i], f.Width
		}
	}
	return 0, 0
}

// Mask returns the all-ones mask for the full record width.
func (l Layout) Mask() uint64 {
	return (uint64(1) << l.width) - 1
}

// Pack encodes a record into a flat bit vector. Pack performs no range
// validation: values wider than their field are silently truncated, so
// callers pre-validate (see Record.Validate and the config loader).
func (l Layout) Pack(r Record) uint64 {
	var bits uint64
	for i, f := range l.fields {
		var v uint64
		switch f.ID {
		case FieldNextState:
			v = uint64(r.NextState)
		case FieldRepeatCount:
			v = uint64(r.RepeatCount)
		case FieldHoldLength:
			v = uint64(r.HoldLength)
		case FieldEOF:
			if r.EOF {
				v = 1
			}
		case FieldSOF:
			if r.SOF {
				v = 1
			}
		case FieldNextAddress:
			v = uint64(r.NextAddress)
		}
		bits |= (v & ((1 << f.Width) - 1)) << l.offsets[i]
	}
	return bits
}

// Unpack decodes a flat bit vector into a record. Unpack is total: it
// masks and shifts, never fails, and ignores bits above the layout width.
func (l Layout) Unpack(bits uint64) Record {
	var r Record
	for i, f := range l.fields {
		v := (bits >> l.offsets[i]) & ((1 << f.Width) - 1)
		switch f.ID {
		case FieldNextState:
			r.NextState = State(v)
		case FieldRepeatCount:
			r.RepeatCount = uint8(v)
		case FieldHoldLength:
			r.HoldLength = uint16(v)
		case FieldEOF:
			r.EOF = v != 0
		case FieldSOF:
			r.SOF = v != 0
		case FieldNextAddress:
			r.NextAddress = uint8(v)
		}
	}
	return r
}

// Successor resolves the address that follows addr when the record at addr
// completes: the record's explicit next_address under the extended layout,
// addr+1 otherwise. Arithmetic wraps modulo the table size.
func (l Layout) Successor(addr uint8, r Record) uint8 {
	if l.extended {
		return r.NextAddress
	}
	return addr + 1
}

package lut

// Depth is the number of addressable records in a Store.
const Depth = 1 << AddrBits

// Store is the sequence store: a flat RAM of packed records. It models the
// LUT RAM of the hardware exactly: records live packed, and every access
// goes through the layout's bit offsets.
//
// The Store itself is a dumb RAM: it does not know what state the machine
// is in. Configuration-state gating and the auto-incrementing address
// cursor are owned by the machine driving it, mirroring the hardware where
// the write enable is qualified by the state register.
//
// Addresses are uint8, so out-of-range access is unrepresentable and
// address arithmetic wraps modulo Depth by construction.
type Store struct {
	layout Layout
	mem    [Depth]uint64
}

// NewStore returns a store holding Depth all-zero records. The all-zero
// record decodes to an idle dispatch with no hold and no repeats.
func NewStore(layout Layout) *Store {
	return &Store{layout: layout}
}

// Layout returns the record layout the store packs with.
func (s *Store) Layout() Layout { return s.layout }

// Write stores a record at addr.
func (s *Store) Write(addr uint8, r Record) {
	s.mem[addr] = s.layout.Pack(r)
}

// WriteBits stores an already-packed record at addr, masked to the layout
// width. This is the path configuration-mode bus writes take.
func (s *Store) WriteBits(addr uint8, bits uint64) {
	s.mem[addr] = bits & s.layout.Mask()
}

// Read returns the record at addr.
func (s *Store) Read(addr uint8) Record {
	return s.layout.Unpack(s.mem[addr])
}

// Bits returns the packed record at addr. This is the read port the
// combinational next-state logic sees.
func (s *Store) Bits(addr uint8) uint64 {
	return s.mem[addr]
}

// Fetch satisfies the resolver's read-only ROM port.
func (s *Store) Fetch(addr uint8) Record {
	return s.Read(addr)
}

// Reset clears every entry to the all-zero record. This is the hard-reset
// behavior: entries persist only for the current configuration session.
func (s *Store) Reset() {
	s.mem = [Depth]uint64{}
}

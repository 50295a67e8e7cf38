// Package lut defines the sequencer's command vocabulary: the state set,
// the packed LUT record format, and the 256-entry sequence store.
//
// A Record describes one command: which state to enter, how many clock
// cycles to hold it, how many additional times to re-execute it, and the
// sequence framing flags (sof/eof). Records are packed into flat bit
// vectors by a Layout; both the software model and the emitted hardware
// read the exact same bit offsets, so the Layout is the single source of
// truth for the wire format.
package lut

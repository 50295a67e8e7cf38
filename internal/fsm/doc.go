// Package fsm holds the sequencer's semantic core: the register file, the
// per-cycle input bundle, and the pure transition resolver.
//
// The resolver is implemented once and consumed twice. The software model
// (internal/sim) calls Resolve directly every cycle; the hardware backend
// (internal/rtl) renders and interprets the same priority-ordered dispatch
// rule table (DispatchRules) at the bit level. Keeping the idle-state case
// analysis in one declarative table is what keeps the two backends from
// drifting apart.
package fsm

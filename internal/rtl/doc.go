// Package rtl is the register-transfer backend: the same sequencer
// semantics expressed at the hardware description level. It renders a
// synthesizable SystemVerilog module and a Mermaid state diagram, and it
// carries Sim, a packed-word simulator that interprets the stored records
// through bit slices only. The dispatch table in the fsm package is the
// single source the emitted priority chain and Sim both derive from.
package rtl

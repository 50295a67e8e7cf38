// Package harness proves the two sequencer backends bit-equivalent: it
// expands a YAML stimulus into a per-cycle input schedule, drives the
// software model and the register-transfer simulator in lockstep, and
// compares the observable field tuple cycle by cycle. A report either
// passes or names the first diverging cycle and field.
//
// Trace logs render one line per backend per cycle and are compared
// against golden files with goldie; regenerate them with:
//
//	go test ./internal/harness -update
package harness

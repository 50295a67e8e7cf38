package harness

import "github.com/raydet/sequencer/internal/fsm"

// Backend is one sequencer implementation under comparison. Both backends
// receive the identical input schedule; equivalence is judged purely on
// the per-cycle observable tuple.
type Backend interface {
	// Name identifies the backend in reports and trace logs.
	Name() string

	// Reset puts the backend in the defined post-reset state with a
	// cleared sequence store.
	Reset()

	// Step advances one clock cycle.
	Step(in fsm.Inputs)

	// Snapshot returns the observable tuple for the cycle just executed.
	Snapshot() fsm.Observation
}

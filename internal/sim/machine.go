// Package sim is the trace backend: the cycle-stepping software model of
// the sequencer. It owns the register file and the sequence store, applies
// the transition resolver exactly once per clock tick, and commits the
// resulting register set atomically.
package sim

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// ErrNotConfiguring is returned by the programmatic store accessors when
// the machine is not in the configuration state. The access is ignored;
// the registers and store are untouched.
var ErrNotConfiguring = errors.New("sequence store access outside configuration state")

// Machine is the canonical semantic model of the sequencer.
//
// Thread-safety: a single writer calls Step; any number of readers may
// call Snapshot concurrently. Snapshots are taken after commit, so a
// reader never observes a partially updated register set.
type Machine struct {
	mu     sync.RWMutex
	layout lut.Layout
	mode   fsm.RepeatMode
	store  *lut.Store
	regs   fsm.Registers
	cycle  int
}

// New returns a machine in the defined post-reset state with an all-zero
// sequence store.
func New(layout lut.Layout, mode fsm.RepeatMode) *Machine {
	return &Machine{
		layout: layout,
		mode:   mode,
		store:  lut.NewStore(layout),
		regs:   fsm.ResetRegisters(),
	}
}

// Name identifies the backend in equivalence reports.
func (m *Machine) Name() string { return "model" }

// Layout returns the record layout the machine was built with.
func (m *Machine) Layout() lut.Layout { return m.layout }

// Mode returns the dispatch policy the machine was built with.
func (m *Machine) Mode() fsm.RepeatMode { return m.mode }

// Reset is the hard reset: registers take the defined reset value, the
// cycle counter restarts, and every store entry clears to the all-zero
// record. Program contents do not survive it.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs = fsm.ResetRegisters()
	m.store.Reset()
	m.cycle = 0
}

// Step advances the machine by one clock tick: the resolver runs once
// against the pre-step registers and the store's read port, any
// configuration-mode write lands in the store, and the returned register
// set commits as a whole.
func (m *Machine) Step(in fsm.Inputs) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inConfig := m.regs.State == lut.StateRst && !in.Configure
	if inConfig {
		if in.WriteEnable {
			m.store.WriteBits(m.regs.Addr, in.WriteData)
		}
	} else if in.WriteEnable || in.ReadEnable {
		slog.Warn("sequence store access ignored outside configuration state",
			"state", m.regs.State.String(),
			"cycle", m.cycle,
		)
		in.WriteEnable = false
		in.ReadEnable = false
	}

	m.regs = fsm.Resolve(m.regs, in, m.store, m.layout, m.mode)
	m.cycle++
}

// Trace replays an input schedule from a fresh hard reset and returns one
// observation per cycle. The machine ends in the post-schedule state, so a
// second Trace call restarts from reset rather than resuming.
func (m *Machine) Trace(schedule []fsm.Inputs) []fsm.Observation {
	m.Reset()
	obs := make([]fsm.Observation, 0, len(schedule))
	for _, in := range schedule {
		m.Step(in)
		obs = append(obs, m.Snapshot())
	}
	return obs
}

// Snapshot returns the observable field tuple for the current cycle.
func (m *Machine) Snapshot() fsm.Observation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fsm.Observe(m.cycle-1, m.regs)
}

// Registers returns a copy of the register file.
func (m *Machine) Registers() fsm.Registers {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regs
}

// WriteRecord is the programmatic configuration path: it validates the
// record and writes it at the address cursor, advancing the cursor, just
// as one clocked configuration-mode bus write would. Outside the
// configuration state it is a reported protocol violation and a no-op.
func (m *Machine) WriteRecord(r lut.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.regs.State != lut.StateRst {
		slog.Warn("record write rejected outside configuration state", "state", m.regs.State.String())
		return ErrNotConfiguring
	}
	if err := r.Validate(); err != nil {
		return err
	}
	m.store.Write(m.regs.Addr, r)
	m.regs.Addr++
	return nil
}

// ReadRecord reads the record at the address cursor and advances the
// cursor. Same gating as WriteRecord.
func (m *Machine) ReadRecord() (lut.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.regs.State != lut.StateRst {
		slog.Warn("record read rejected outside configuration state", "state", m.regs.State.String())
		return lut.Record{}, ErrNotConfiguring
	}
	r := m.store.Read(m.regs.Addr)
	m.regs.Addr++
	return r, nil
}

// LoadProgram bulk-writes records through the configuration path,
// starting at the current cursor. It stops at the first invalid record.
func (m *Machine) LoadProgram(recs []lut.Record) error {
	for _, r := range recs {
		if err := m.WriteRecord(r); err != nil {
			return err
		}
	}
	return nil
}

// Record peeks at the record stored at addr without moving the cursor.
// Diagnostic only; the hardware exposes no such port.
func (m *Machine) Record(addr uint8) lut.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Read(addr)
}

// Package config loads sequence programs from YAML files. A program names
// a record layout and dispatch mode and lists the records to write into
// the sequence store, in address order.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// Program is one sequence program as it appears on disk.
type Program struct {
	// Name identifies the program in logs and archived runs.
	Name string `yaml:"name"`

	// Layout selects the record layout: "base" (default) or "extended".
	Layout string `yaml:"layout,omitempty"`

	// Mode selects the dispatch policy for repeat_count == 0:
	// "infinite" (default) or "counted".
	Mode string `yaml:"mode,omitempty"`

	// Sequence is the record list, written to the store in order
	// starting at address 0.
	Sequence []Entry `yaml:"sequence"`
}

// Entry is one record of a program.
type Entry struct {
	// State names the command state this record dispatches into.
	// Matched case-insensitively after Unicode normalization.
	State string `yaml:"state"`

	// Repeat is the number of additional executions (0-255).
	Repeat uint8 `yaml:"repeat,omitempty"`

	// Hold is the minimum number of cycles the command state is held.
	Hold uint16 `yaml:"hold,omitempty"`

	// EOF marks the final record; SOF marks the first.
	EOF bool `yaml:"eof,omitempty"`
	SOF bool `yaml:"sof,omitempty"`

	// Next is the explicit successor address. Only legal under the
	// extended layout; omitted it defaults to this entry's address + 1.
	Next *uint8 `yaml:"next,omitempty"`
}

// LoadProgram reads and parses a program YAML file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	return ParseProgram(data)
}

// ParseProgram parses program YAML with strict field validation, so a
// typo like "repeet:" is an error rather than a silently dropped field.
func ParseProgram(data []byte) (*Program, error) {
	var p Program
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	return &p, nil
}

// Validate checks structural requirements: a name, a non-empty sequence
// that fits the store, known state names, and next addresses only where
// the layout supports them.
func (p *Program) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	layout, err := p.ResolveLayout()
	if err != nil {
		return err
	}
	if _, err := p.ResolveMode(); err != nil {
		return err
	}
	if len(p.Sequence) == 0 {
		return fmt.Errorf("sequence is required and must be non-empty")
	}
	if len(p.Sequence) > lut.Depth {
		return fmt.Errorf("sequence has %d entries, store holds %d", len(p.Sequence), lut.Depth)
	}
	for i, e := range p.Sequence {
		if _, ok := stateByInput(e.State); !ok {
			return fmt.Errorf("sequence[%d]: unknown state %q", i, e.State)
		}
		if e.Next != nil && !layout.Extended() {
			return fmt.Errorf("sequence[%d]: next address requires the extended layout", i)
		}
	}
	return nil
}

// ResolveLayout resolves the layout name to a record layout.
func (p *Program) ResolveLayout() (lut.Layout, error) {
	switch p.Layout {
	case "", "base":
		return lut.BaseLayout(), nil
	case "extended":
		return lut.ExtendedLayout(), nil
	default:
		return lut.Layout{}, fmt.Errorf("unknown layout %q (want \"base\" or \"extended\")", p.Layout)
	}
}

// ResolveMode resolves the mode name to a dispatch policy.
func (p *Program) ResolveMode() (fsm.RepeatMode, error) {
	return fsm.ParseRepeatMode(p.Mode)
}

// Records converts the sequence to store records. Under the extended
// layout an omitted next address defaults to the entry's own address + 1,
// preserving base-layout ordering unless a jump is asked for.
func (p *Program) Records() ([]lut.Record, error) {
	layout, err := p.ResolveLayout()
	if err != nil {
		return nil, err
	}
	recs := make([]lut.Record, len(p.Sequence))
	for i, e := range p.Sequence {
		state, ok := stateByInput(e.State)
		if !ok {
			return nil, fmt.Errorf("sequence[%d]: unknown state %q", i, e.State)
		}
		r := lut.Record{
			NextState:   state,
			RepeatCount: e.Repeat,
			HoldLength:  e.Hold,
			EOF:         e.EOF,
			SOF:         e.SOF,
		}
		if layout.Extended() {
			if e.Next != nil {
				r.NextAddress = *e.Next
			} else {
				r.NextAddress = uint8(i + 1)
			}
		}
		recs[i] = r
	}
	return recs, nil
}

// stateByInput resolves a user-supplied state name: NFC-normalized,
// upper-cased, with spaces and hyphens treated as underscores.
func stateByInput(name string) (lut.State, bool) {
	n := norm.NFC.String(name)
	n = strings.ToUpper(strings.TrimSpace(n))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	return lut.StateByName(n)
}

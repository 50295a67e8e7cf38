package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/raydet/sequencer/internal/config"
	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// Stimulus defines one equivalence run: the program to load and the input
// schedule to drive both backends with.
type Stimulus struct {
	// Name uniquely identifies this stimulus; it also names the golden
	// trace file.
	Name string `yaml:"name"`

	// Cycles is the total run length. It must leave room for the
	// configuration prologue (one configure pulse plus one write per
	// program record).
	Cycles int `yaml:"cycles"`

	// Layout and Mode select the record layout and dispatch policy,
	// with the same spellings and defaults as program files.
	Layout string `yaml:"layout,omitempty"`
	Mode   string `yaml:"mode,omitempty"`

	// Program is the record list written during the prologue.
	Program []config.Entry `yaml:"program"`

	// Exit lists the cycle windows during which the exit signal is held
	// high. Bounds are inclusive; windows must start after the
	// configuration prologue.
	Exit []Window `yaml:"exit,omitempty"`

	// Reconfigure lists cycles that carry a configure pulse mid-run.
	// The store survives, so the program relaunches as written.
	Reconfigure []int `yaml:"reconfigure,omitempty"`
}

// Window is an inclusive cycle interval.
type Window struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Contains reports whether cycle falls inside the window.
func (w Window) Contains(cycle int) bool {
	return w.From <= cycle && cycle <= w.To
}

// LoadStimulus reads and parses a stimulus YAML file with strict field
// validation.
func LoadStimulus(path string) (*Stimulus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stimulus file: %w", err)
	}
	return ParseStimulus(data)
}

// ParseStimulus parses stimulus YAML with strict field validation.
func ParseStimulus(data []byte) (*Stimulus, error) {
	var s Stimulus
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stimulus: %w", err)
	}
	return &s, nil
}

// program adapts the stimulus to the config loader's program shape so
// layout, mode, and record conversion share one implementation.
func (s *Stimulus) program() *config.Program {
	return &config.Program{
		Name:     s.Name,
		Layout:   s.Layout,
		Mode:     s.Mode,
		Sequence: s.Program,
	}
}

// Validate checks structural requirements.
func (s *Stimulus) Validate() error {
	if err := s.program().Validate(); err != nil {
		return err
	}
	prologue := 1 + len(s.Program)
	if s.Cycles < prologue {
		return fmt.Errorf("cycles is %d, configuration prologue alone takes %d", s.Cycles, prologue)
	}
	for i, w := range s.Exit {
		if w.From > w.To {
			return fmt.Errorf("exit[%d]: window [%d,%d] is empty", i, w.From, w.To)
		}
		if w.From < prologue {
			return fmt.Errorf("exit[%d]: window [%d,%d] overlaps the configuration prologue", i, w.From, w.To)
		}
	}
	for i, c := range s.Reconfigure {
		if c < prologue {
			return fmt.Errorf("reconfigure[%d]: cycle %d falls inside the configuration prologue", i, c)
		}
		if c >= s.Cycles {
			return fmt.Errorf("reconfigure[%d]: cycle %d beyond run length %d", i, c, s.Cycles)
		}
	}
	return nil
}

// ResolveLayout resolves the stimulus layout.
func (s *Stimulus) ResolveLayout() (lut.Layout, error) {
	return s.program().ResolveLayout()
}

// ResolveMode resolves the stimulus dispatch policy.
func (s *Stimulus) ResolveMode() (fsm.RepeatMode, error) {
	return s.program().ResolveMode()
}

// Expand renders the stimulus as a per-cycle input schedule: cycle 0 is
// the configure pulse, cycles 1..N carry one packed record write each,
// and the rest are quiet except for exit windows and reconfigure pulses.
func (s *Stimulus) Expand() ([]fsm.Inputs, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	layout, err := s.ResolveLayout()
	if err != nil {
		return nil, err
	}
	records, err := s.program().Records()
	if err != nil {
		return nil, err
	}

	inputs := make([]fsm.Inputs, s.Cycles)
	inputs[0] = fsm.Inputs{Configure: true}
	for i, r := range records {
		inputs[1+i] = fsm.Inputs{WriteEnable: true, WriteData: layout.Pack(r)}
	}
	for cycle := 1 + len(records); cycle < s.Cycles; cycle++ {
		for _, w := range s.Exit {
			if w.Contains(cycle) {
				inputs[cycle].Exit = true
			}
		}
	}
	for _, c := range s.Reconfigure {
		inputs[c] = fsm.Inputs{Configure: true}
	}
	return inputs, nil
}

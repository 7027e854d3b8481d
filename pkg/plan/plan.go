// Package plan reads and writes test plans: TOML documents naming the IC,
// the board the pins refer to, and the one batch to run.
//
// A two-gate plan looks like:
//
//	name = "74HC08"
//	board = "UNO"
//	kind = "gate"
//
//	[[gates]]
//	inputs = ["D2", "D3"]
//	outputs = ["D4"]
//	truth = [0, 0, 0, 1]
package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Plan kinds.
const (
	KindGate     = "gate"
	KindFlipFlop = "flipflop"
	KindMux      = "mux"
	KindCounter  = "counter"
	KindNE555    = "ne555"
)

// ErrBoardMismatch is returned by CheckBoard when a plan was written for a
// different board than the one in use.
var ErrBoardMismatch = errors.New("plan: board mismatch")

// Plan is one persisted test.
type Plan struct {
	Name      string     `toml:"name"`
	Board     string     `toml:"board"`
	Kind      string     `toml:"kind"`
	Gates     []Gate     `toml:"gates,omitempty"`
	FlipFlops []FlipFlop `toml:"flipflops,omitempty"`
	Mux       *Mux       `toml:"mux,omitempty"`
	Counter   *Counter   `toml:"counter,omitempty"`
}

// Gate is one logic gate. Truth holds one 0/1 entry per input combination,
// combination 0 first.
type Gate struct {
	Inputs  []string `toml:"inputs"`
	Outputs []string `toml:"outputs"`
	Truth   []int    `toml:"truth"`
}

// FlipFlop is one flip-flop. Inputs is keyed by the data input names of the
// type: D, J and K, T, or S and R.
type FlipFlop struct {
	Type   string            `toml:"type"`
	Clock  string            `toml:"clock"`
	Preset string            `toml:"preset,omitempty"`
	Clear  string            `toml:"clear,omitempty"`
	Inputs map[string]string `toml:"inputs"`
	Q      string            `toml:"q"`
	QBar   string            `toml:"qbar,omitempty"`
}

// Mux is a multiplexer or demultiplexer.
type Mux struct {
	Mode     string   `toml:"mode"` // "mux" or "demux"
	Channels int      `toml:"channels"`
	Data     []string `toml:"data"`
	Select   []string `toml:"select"`
	Shared   string   `toml:"shared"`
}

// Counter is a counter IC clocked a fixed number of times.
type Counter struct {
	Clock   string   `toml:"clock"`
	Reset   string   `toml:"reset"`
	Outputs []string `toml:"outputs"`
	Pulses  int      `toml:"pulses"`
}

// Load reads a plan from a TOML file.
func Load(path string) (*Plan, error) {
	var p Plan
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("plan: decode %s: %w", path, err)
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, fmt.Errorf("plan: %s: %w", path, err)
	}
	return &p, nil
}

// Decode reads a plan from r.
func Decode(r io.Reader) (*Plan, error) {
	var p Plan
	meta, err := toml.NewDecoder(r).Decode(&p)
	if err != nil {
		return nil, fmt.Errorf("plan: decode: %w", err)
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return &p, nil
}

func checkUndecoded(meta toml.MetaData) error {
	keys := meta.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	sort.Strings(names)
	return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
}

// Encode writes the plan as TOML.
func (p *Plan) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("plan: encode: %w", err)
	}
	return nil
}

// Save writes the plan to path.
func (p *Plan) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plan: create %s: %w", path, err)
	}
	if err := p.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName returns the conventional file name for the plan,
// "<name>_<board>.toml" with spaces replaced.
func (p *Plan) FileName() string {
	name := p.Name
	if name == "" {
		name = "unnamed"
	}
	name = strings.Join(strings.Fields(name), "_")
	if p.Board == "" {
		return name + ".toml"
	}
	return name + "_" + p.Board + ".toml"
}

// CheckBoard reports ErrBoardMismatch when the plan names a board other than
// current. Plans without a board match any board.
func (p *Plan) CheckBoard(current string) error {
	if p.Board == "" || strings.EqualFold(p.Board, current) {
		return nil
	}
	return fmt.Errorf("%w: plan was saved for %s, using %s", ErrBoardMismatch, p.Board, current)
}

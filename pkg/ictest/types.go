package ictest

import (
	"fmt"
	"math/bits"
	"strings"
)

// PinCode is the protocol byte a board pin name resolves to.
type PinCode byte

// UnusedPin marks an optional pin slot that is not wired.
const UnusedPin PinCode = 0xFF

// Resolver maps board-specific pin names to protocol pin codes.
type Resolver interface {
	Resolve(name string) (PinCode, error)
}

// Kind identifies the IC category a command tests.
type Kind uint8

const (
	KindGate Kind = iota + 1
	KindFlipFlop
	KindMux
	KindCounter
	KindAnalog
)

func (k Kind) String() string {
	switch k {
	case KindGate:
		return "gate"
	case KindFlipFlop:
		return "flip-flop"
	case KindMux:
		return "mux"
	case KindCounter:
		return "counter"
	case KindAnalog:
		return "analog"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Command is a validated, immutable test descriptor ready to be sent.
type Command interface {
	Kind() Kind
	Encode() []byte
}

// GateSpec names the pins and expected truth table of one logic gate.
// Truth[i] is the expected output for input combination i, where the first
// input is the most significant bit of i.
type GateSpec struct {
	Inputs  []string
	Outputs []string
	Truth   []bool
}

// Gate is one resolved gate under test.
type Gate struct {
	inputs  []PinCode
	outputs []PinCode
	truth   byte
	rows    int
}

// NewGate resolves and validates a gate description.
func NewGate(r Resolver, spec GateSpec) (Gate, error) {
	n := len(spec.Inputs)
	if n < 1 || n > MaxGateInputs {
		return Gate{}, invalid("gate", "inputs", "need 1..%d inputs, got %d", MaxGateInputs, n)
	}
	if len(spec.Outputs) < 1 {
		return Gate{}, invalid("gate", "outputs", "need at least one output")
	}
	rows := 1 << n
	if len(spec.Truth) != rows {
		return Gate{}, invalid("gate", "truth", "%d inputs need %d truth rows, got %d", n, rows, len(spec.Truth))
	}
	in, err := resolveAll(r, "gate", "inputs", spec.Inputs)
	if err != nil {
		return Gate{}, err
	}
	out, err := resolveAll(r, "gate", "outputs", spec.Outputs)
	if err != nil {
		return Gate{}, err
	}
	return Gate{inputs: in, outputs: out, truth: PackTruth(spec.Truth), rows: rows}, nil
}

// Inputs returns a copy of the resolved input pins.
func (g Gate) Inputs() []PinCode { return append([]PinCode(nil), g.inputs...) }

// Outputs returns a copy of the resolved output pins.
func (g Gate) Outputs() []PinCode { return append([]PinCode(nil), g.outputs...) }

// TruthByte returns the packed truth table.
func (g Gate) TruthByte() byte { return g.truth }

// Truth unpacks the truth table.
func (g Gate) Truth() []bool { return UnpackTruth(g.truth, g.rows) }

// GateBatch is an ordered set of gates sent in one packet.
type GateBatch struct {
	gates []Gate
}

// NewGateBatch validates the batch size against what a reply can address.
func NewGateBatch(gates ...Gate) (GateBatch, error) {
	if len(gates) < 1 || len(gates) > MaxBatch {
		return GateBatch{}, invalid("gate batch", "gates", "need 1..%d gates, got %d", MaxBatch, len(gates))
	}
	return GateBatch{gates: append([]Gate(nil), gates...)}, nil
}

func (b GateBatch) Kind() Kind { return KindGate }

// Len reports the number of gates, which is also the expected result count.
func (b GateBatch) Len() int { return len(b.gates) }

// Gates returns a copy of the batch.
func (b GateBatch) Gates() []Gate { return append([]Gate(nil), b.gates...) }

// MuxMode selects multiplexer or demultiplexer behaviour.
type MuxMode byte

const (
	ModeMux   MuxMode = 0x01
	ModeDemux MuxMode = 0x02
)

func (m MuxMode) String() string {
	switch m {
	case ModeMux:
		return "MUX"
	case ModeDemux:
		return "DEMUX"
	default:
		return fmt.Sprintf("mode(0x%02X)", byte(m))
	}
}

// MuxSpec names the pins of a multiplexer or demultiplexer.
// Data holds the channel pins: inputs for MUX, outputs for DEMUX.
// Shared is the MUX output or the DEMUX input.
type MuxSpec struct {
	Mode     MuxMode
	Channels int
	Data     []string
	Select   []string
	Shared   string
}

// Mux is a resolved multiplexer or demultiplexer under test.
type Mux struct {
	mode     MuxMode
	channels int
	data     []PinCode
	selects  []PinCode
	shared   PinCode
}

// NewMux resolves and validates a mux/demux description.
func NewMux(r Resolver, spec MuxSpec) (Mux, error) {
	if spec.Mode != ModeMux && spec.Mode != ModeDemux {
		return Mux{}, invalid("mux", "mode", "unknown mode 0x%02X", byte(spec.Mode))
	}
	switch spec.Channels {
	case 2, 4, 8:
	case 16:
		// A DEMUX reply carries one 8-bit output vector per combination.
		if spec.Mode == ModeDemux {
			return Mux{}, invalid("mux", "channels", "DEMUX supports at most 8 channels")
		}
	default:
		return Mux{}, invalid("mux", "channels", "channels must be 2, 4, 8 or 16, got %d", spec.Channels)
	}
	selects := bits.TrailingZeros(uint(spec.Channels))
	if len(spec.Data) != spec.Channels {
		return Mux{}, invalid("mux", "data", "need %d channel pins, got %d", spec.Channels, len(spec.Data))
	}
	if len(spec.Select) != selects {
		return Mux{}, invalid("mux", "select", "need %d select pins, got %d", selects, len(spec.Select))
	}
	data, err := resolveAll(r, "mux", "data", spec.Data)
	if err != nil {
		return Mux{}, err
	}
	sel, err := resolveAll(r, "mux", "select", spec.Select)
	if err != nil {
		return Mux{}, err
	}
	shared, err := resolveOne(r, "mux", "shared", spec.Shared)
	if err != nil {
		return Mux{}, err
	}
	return Mux{mode: spec.Mode, channels: spec.Channels, data: data, selects: sel, shared: shared}, nil
}

func (m Mux) Kind() Kind { return KindMux }

// Mode reports MUX or DEMUX.
func (m Mux) Mode() MuxMode { return m.mode }

// Channels is the channel count, which is also the expected result count.
func (m Mux) Channels() int { return m.channels }

// SelectLines is log2 of the channel count.
func (m Mux) SelectLines() int { return len(m.selects) }

// CounterSpec names the pins of a counter and how many clock pulses to apply.
type CounterSpec struct {
	Clock   string
	Reset   string
	Outputs []string
	Pulses  int
}

// Counter is a resolved counter under test.
type Counter struct {
	clock   PinCode
	reset   PinCode
	outputs []PinCode
	pulses  byte
}

// NewCounter resolves and validates a counter description.
func NewCounter(r Resolver, spec CounterSpec) (Counter, error) {
	if len(spec.Outputs) < 1 || len(spec.Outputs) > MaxWideCount {
		return Counter{}, invalid("counter", "outputs", "need 1..%d outputs, got %d", MaxWideCount, len(spec.Outputs))
	}
	if spec.Pulses < 1 || spec.Pulses > 0xFF {
		return Counter{}, invalid("counter", "pulses", "pulses must be 1..255, got %d", spec.Pulses)
	}
	clk, err := resolveOne(r, "counter", "clock", spec.Clock)
	if err != nil {
		return Counter{}, err
	}
	rst, err := resolveOne(r, "counter", "reset", spec.Reset)
	if err != nil {
		return Counter{}, err
	}
	out, err := resolveAll(r, "counter", "outputs", spec.Outputs)
	if err != nil {
		return Counter{}, err
	}
	return Counter{clock: clk, reset: rst, outputs: out, pulses: byte(spec.Pulses)}, nil
}

func (c Counter) Kind() Kind { return KindCounter }

// Outputs is the number of output pins, which is also the expected result count.
func (c Counter) Outputs() int { return len(c.outputs) }

func (c Counter) Pulses() int { return int(c.pulses) }

// FlipFlopKind selects the flip-flop type, which fixes the required inputs.
type FlipFlopKind byte

const (
	FlipFlopD  FlipFlopKind = 0x01
	FlipFlopJK FlipFlopKind = 0x02
	FlipFlopT  FlipFlopKind = 0x03
	FlipFlopSR FlipFlopKind = 0x04
)

// ParseFlipFlopKind accepts D, JK, T or SR in any case.
func ParseFlipFlopKind(s string) (FlipFlopKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D":
		return FlipFlopD, nil
	case "JK":
		return FlipFlopJK, nil
	case "T":
		return FlipFlopT, nil
	case "SR":
		return FlipFlopSR, nil
	}
	return 0, invalid("flip-flop", "kind", "unknown flip-flop kind %q", s)
}

func (k FlipFlopKind) String() string {
	switch k {
	case FlipFlopD:
		return "D"
	case FlipFlopJK:
		return "JK"
	case FlipFlopT:
		return "T"
	case FlipFlopSR:
		return "SR"
	default:
		return fmt.Sprintf("ff(0x%02X)", byte(k))
	}
}

// InputNames lists the named data inputs this kind requires, in wire order.
func (k FlipFlopKind) InputNames() []string {
	switch k {
	case FlipFlopD:
		return []string{"D"}
	case FlipFlopJK:
		return []string{"J", "K"}
	case FlipFlopT:
		return []string{"T"}
	case FlipFlopSR:
		return []string{"S", "R"}
	default:
		return nil
	}
}

// FlipFlopSpec names the pins of one flip-flop. Inputs is keyed by the names
// from FlipFlopKind.InputNames. Empty Preset, Clear and QBar are unused.
type FlipFlopSpec struct {
	Kind   FlipFlopKind
	Clock  string
	Preset string
	Clear  string
	Inputs map[string]string
	Q      string
	QBar   string
}

// FlipFlop is one resolved flip-flop under test.
type FlipFlop struct {
	kind   FlipFlopKind
	clock  PinCode
	preset PinCode
	clear  PinCode
	inputs []PinCode
	q      PinCode
	qbar   PinCode
}

// NewFlipFlop resolves and validates a flip-flop description.
func NewFlipFlop(r Resolver, spec FlipFlopSpec) (FlipFlop, error) {
	names := spec.Kind.InputNames()
	if names == nil {
		return FlipFlop{}, invalid("flip-flop", "kind", "unknown flip-flop kind 0x%02X", byte(spec.Kind))
	}
	if len(spec.Inputs) != len(names) {
		return FlipFlop{}, invalid("flip-flop", "inputs", "%s flip-flop needs inputs %v, got %d", spec.Kind, names, len(spec.Inputs))
	}
	ff := FlipFlop{kind: spec.Kind}
	var err error
	if ff.clock, err = resolveOne(r, "flip-flop", "clock", spec.Clock); err != nil {
		return FlipFlop{}, err
	}
	if ff.preset, err = resolveOptional(r, "flip-flop", "preset", spec.Preset); err != nil {
		return FlipFlop{}, err
	}
	if ff.clear, err = resolveOptional(r, "flip-flop", "clear", spec.Clear); err != nil {
		return FlipFlop{}, err
	}
	for _, name := range names {
		pin, ok := spec.Inputs[name]
		if !ok {
			return FlipFlop{}, invalid("flip-flop", "inputs", "%s flip-flop is missing input %s", spec.Kind, name)
		}
		code, err := resolveOne(r, "flip-flop", name, pin)
		if err != nil {
			return FlipFlop{}, err
		}
		ff.inputs = append(ff.inputs, code)
	}
	if ff.q, err = resolveOne(r, "flip-flop", "q", spec.Q); err != nil {
		return FlipFlop{}, err
	}
	if ff.qbar, err = resolveOptional(r, "flip-flop", "qbar", spec.QBar); err != nil {
		return FlipFlop{}, err
	}
	return ff, nil
}

func (f FlipFlop) FlipFlopKind() FlipFlopKind { return f.kind }

// FlipFlopBatch is an ordered set of flip-flops sent in one packet.
type FlipFlopBatch struct {
	ffs []FlipFlop
}

// NewFlipFlopBatch validates the batch size.
func NewFlipFlopBatch(ffs ...FlipFlop) (FlipFlopBatch, error) {
	if len(ffs) < 1 || len(ffs) > MaxBatch {
		return FlipFlopBatch{}, invalid("flip-flop batch", "flipflops", "need 1..%d flip-flops, got %d", MaxBatch, len(ffs))
	}
	return FlipFlopBatch{ffs: append([]FlipFlop(nil), ffs...)}, nil
}

func (b FlipFlopBatch) Kind() Kind { return KindFlipFlop }

// Len reports the number of flip-flops, which is also the expected result count.
func (b FlipFlopBatch) Len() int { return len(b.ffs) }

// Analog is the fixed-function NE555 timer test. Its pins are fixed in firmware.
type Analog struct{}

func (Analog) Kind() Kind { return KindAnalog }

func resolveOne(r Resolver, what, field, name string) (PinCode, error) {
	if name == "" {
		return 0, invalid(what, field, "pin is required")
	}
	if r == nil {
		return 0, invalid(what, field, "no pin map to resolve %q", name)
	}
	code, err := r.Resolve(name)
	if err != nil {
		return 0, &DescriptorError{What: what, Field: field, Reason: fmt.Sprintf("pin %q", name), Err: err}
	}
	return code, nil
}

func resolveOptional(r Resolver, what, field, name string) (PinCode, error) {
	if name == "" {
		return UnusedPin, nil
	}
	return resolveOne(r, what, field, name)
}

func resolveAll(r Resolver, what, field string, names []string) ([]PinCode, error) {
	codes := make([]PinCode, 0, len(names))
	for _, name := range names {
		code, err := resolveOne(r, what, field, name)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

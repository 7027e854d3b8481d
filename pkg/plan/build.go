package plan

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// Build resolves the plan's pins and returns the command to send.
func (p *Plan) Build(r ictest.Resolver) (ictest.Command, error) {
	switch strings.ToLower(strings.TrimSpace(p.Kind)) {
	case KindGate, "gates":
		return p.buildGates(r)
	case KindFlipFlop, "flip-flop", "ff":
		return p.buildFlipFlops(r)
	case KindMux, "demux":
		return p.buildMux(r)
	case KindCounter:
		return p.buildCounter(r)
	case KindNE555, "analog", "555":
		return ictest.Analog{}, nil
	case "":
		return nil, fmt.Errorf("plan: %q has no kind", p.Name)
	default:
		return nil, fmt.Errorf("plan: unknown kind %q", p.Kind)
	}
}

func (p *Plan) buildGates(r ictest.Resolver) (ictest.Command, error) {
	gates := make([]ictest.Gate, 0, len(p.Gates))
	for i, g := range p.Gates {
		truth := make([]bool, len(g.Truth))
		for j, v := range g.Truth {
			switch v {
			case 0:
			case 1:
				truth[j] = true
			default:
				return nil, fmt.Errorf("plan: gate %d: truth entry %d is %d, want 0 or 1", i+1, j, v)
			}
		}
		gate, err := ictest.NewGate(r, ictest.GateSpec{Inputs: g.Inputs, Outputs: g.Outputs, Truth: truth})
		if err != nil {
			return nil, fmt.Errorf("plan: gate %d: %w", i+1, err)
		}
		gates = append(gates, gate)
	}
	batch, err := ictest.NewGateBatch(gates...)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return batch, nil
}

func (p *Plan) buildFlipFlops(r ictest.Resolver) (ictest.Command, error) {
	ffs := make([]ictest.FlipFlop, 0, len(p.FlipFlops))
	for i, f := range p.FlipFlops {
		kind, err := ictest.ParseFlipFlopKind(f.Type)
		if err != nil {
			return nil, fmt.Errorf("plan: flip-flop %d: %w", i+1, err)
		}
		inputs := make(map[string]string, len(f.Inputs))
		for k, v := range f.Inputs {
			inputs[strings.ToUpper(k)] = v
		}
		ff, err := ictest.NewFlipFlop(r, ictest.FlipFlopSpec{
			Kind:   kind,
			Clock:  f.Clock,
			Preset: f.Preset,
			Clear:  f.Clear,
			Inputs: inputs,
			Q:      f.Q,
			QBar:   f.QBar,
		})
		if err != nil {
			return nil, fmt.Errorf("plan: flip-flop %d: %w", i+1, err)
		}
		ffs = append(ffs, ff)
	}
	batch, err := ictest.NewFlipFlopBatch(ffs...)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return batch, nil
}

func (p *Plan) buildMux(r ictest.Resolver) (ictest.Command, error) {
	if p.Mux == nil {
		return nil, fmt.Errorf("plan: kind %s needs a [mux] table", p.Kind)
	}
	mode := ictest.ModeMux
	m := strings.ToLower(p.Mux.Mode)
	if m == "demux" || (m == "" && strings.EqualFold(p.Kind, "demux")) {
		mode = ictest.ModeDemux
	} else if m != "" && m != "mux" {
		return nil, fmt.Errorf("plan: mux mode %q, want mux or demux", p.Mux.Mode)
	}
	mux, err := ictest.NewMux(r, ictest.MuxSpec{
		Mode:     mode,
		Channels: p.Mux.Channels,
		Data:     p.Mux.Data,
		Select:   p.Mux.Select,
		Shared:   p.Mux.Shared,
	})
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return mux, nil
}

func (p *Plan) buildCounter(r ictest.Resolver) (ictest.Command, error) {
	if p.Counter == nil {
		return nil, fmt.Errorf("plan: kind counter needs a [counter] table")
	}
	c, err := ictest.NewCounter(r, ictest.CounterSpec{
		Clock:   p.Counter.Clock,
		Reset:   p.Counter.Reset,
		Outputs: p.Counter.Outputs,
		Pulses:  p.Counter.Pulses,
	})
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return c, nil
}

package tester

import (
	"fmt"
	"time"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// Config holds the timing of an exchange.
type Config struct {
	// PollInterval bounds each transport read while waiting for a reply.
	PollInterval time.Duration

	// Per-kind wait for a complete reply (default: 2s, 2s, 1.5s, 2s, 3s)
	GateWait     time.Duration
	FlipFlopWait time.Duration
	MuxWait      time.Duration
	CounterWait  time.Duration
	AnalogWait   time.Duration
}

// DefaultConfig returns the timing the tester firmware is built for.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 50 * time.Millisecond,
		GateWait:     2 * time.Second,
		FlipFlopWait: 2 * time.Second,
		MuxWait:      1500 * time.Millisecond,
		CounterWait:  2 * time.Second,
		AnalogWait:   3 * time.Second,
	}
}

// Validate fills zero durations with defaults and rejects negative ones.
func (c *Config) Validate() error {
	def := DefaultConfig()
	fields := []struct {
		name string
		v    *time.Duration
		def  time.Duration
	}{
		{"poll interval", &c.PollInterval, def.PollInterval},
		{"gate wait", &c.GateWait, def.GateWait},
		{"flip-flop wait", &c.FlipFlopWait, def.FlipFlopWait},
		{"mux wait", &c.MuxWait, def.MuxWait},
		{"counter wait", &c.CounterWait, def.CounterWait},
		{"analog wait", &c.AnalogWait, def.AnalogWait},
	}
	for _, f := range fields {
		if *f.v < 0 {
			return fmt.Errorf("tester: %s must not be negative, got %s", f.name, *f.v)
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}
	return nil
}

// Wait returns the reply wait for a command kind.
func (c *Config) Wait(k ictest.Kind) time.Duration {
	switch k {
	case ictest.KindGate:
		return c.GateWait
	case ictest.KindFlipFlop:
		return c.FlipFlopWait
	case ictest.KindMux:
		return c.MuxWait
	case ictest.KindCounter:
		return c.CounterWait
	case ictest.KindAnalog:
		return c.AnalogWait
	default:
		return c.GateWait
	}
}

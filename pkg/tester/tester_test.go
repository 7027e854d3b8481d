package tester

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/pinmap"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/transport"
)

func fastConfig() *Config {
	return &Config{
		PollInterval: 5 * time.Millisecond,
		GateWait:     200 * time.Millisecond,
		FlipFlopWait: 200 * time.Millisecond,
		MuxWait:      200 * time.Millisecond,
		CounterWait:  200 * time.Millisecond,
		AnalogWait:   200 * time.Millisecond,
	}
}

func newTester(t *testing.T, tr Transport) *Tester {
	t.Helper()
	tt, err := New(tr, fastConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tt
}

func twoAndGates(t *testing.T) ictest.GateBatch {
	t.Helper()
	spec := func(a, b, y string) ictest.GateSpec {
		return ictest.GateSpec{
			Inputs:  []string{a, b},
			Outputs: []string{y},
			Truth:   []bool{false, false, false, true},
		}
	}
	g1, err := ictest.NewGate(pinmap.UNO, spec("D2", "D3", "D4"))
	if err != nil {
		t.Fatal(err)
	}
	g2, err := ictest.NewGate(pinmap.UNO, spec("D5", "D6", "D7"))
	if err != nil {
		t.Fatal(err)
	}
	batch, err := ictest.NewGateBatch(g1, g2)
	if err != nil {
		t.Fatal(err)
	}
	return batch
}

func reply(b []byte) transport.CommandHook {
	return func([]byte, ictest.Header) ([]byte, error) { return b, nil }
}

func TestRunGatesPass(t *testing.T) {
	sim := transport.NewSim()
	tt := newTester(t, sim)
	batch := twoAndGates(t)

	rep, err := tt.Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(sim.Writes(), [][]byte{batch.Encode()}) {
		t.Errorf("written packets = % X", sim.Writes())
	}
	passed, known := rep.Verdict()
	if !passed || !known {
		t.Errorf("Verdict() = %v, %v", passed, known)
	}
	if rep.Frame == nil || rep.Frame.Len() != 2 {
		t.Errorf("frame = %+v", rep.Frame)
	}
	if got := rep.DebugText(); !strings.HasPrefix(got, "Running gate test (2 results)") {
		t.Errorf("DebugText() = %q", got)
	}
}

func TestRunGatesOneFails(t *testing.T) {
	sim := transport.NewSim()
	sim.OnCommand = reply(append([]byte("gate 2 stuck low\r\n"), transport.CountedFrame(0x01, 0x00)...))
	rep, err := newTester(t, sim).Run(context.Background(), twoAndGates(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.PassFail.AllPassed || !reflect.DeepEqual(rep.PassFail.Failed(), []int{1}) {
		t.Errorf("PassFail = %+v", rep.PassFail)
	}
}

func TestRunDemux(t *testing.T) {
	demux, err := ictest.NewMux(pinmap.UNO, ictest.MuxSpec{
		Mode:     ictest.ModeDemux,
		Channels: 4,
		Data:     []string{"D2", "D3", "D4", "D5"},
		Select:   []string{"D6", "D7"},
		Shared:   "D8",
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		results []byte
		allPass bool
		failed  []int
	}{
		{"one-hot", []byte{0x01, 0x02, 0x04, 0x08}, true, nil},
		{"channel 1 bleeds", []byte{0x01, 0x03, 0x04, 0x08}, false, []int{1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim := transport.NewSim()
			sim.OnCommand = reply(transport.CountedFrame(tc.results...))
			rep, err := newTester(t, sim).Run(context.Background(), demux)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if rep.PassFail.AllPassed != tc.allPass || !reflect.DeepEqual(rep.PassFail.Failed(), tc.failed) {
				t.Errorf("PassFail = %+v", rep.PassFail)
			}
		})
	}
}

func TestRunValues(t *testing.T) {
	mux, err := ictest.NewMux(pinmap.UNO, ictest.MuxSpec{
		Mode:     ictest.ModeMux,
		Channels: 4,
		Data:     []string{"D2", "D3", "D4", "D5"},
		Select:   []string{"D6", "D7"},
		Shared:   "D8",
	})
	if err != nil {
		t.Fatal(err)
	}
	counter, err := ictest.NewCounter(pinmap.UNO, ictest.CounterSpec{
		Clock:   "D2",
		Reset:   "D3",
		Outputs: []string{"D4", "D5", "D6", "D7"},
		Pulses:  10,
	})
	if err != nil {
		t.Fatal(err)
	}

	tt := newTester(t, transport.NewSim())
	rep, err := tt.Run(context.Background(), mux)
	if err != nil {
		t.Fatalf("mux Run() error = %v", err)
	}
	if !reflect.DeepEqual(rep.Values, []byte{0, 1, 0, 1}) {
		t.Errorf("mux values = % X", rep.Values)
	}
	if _, known := rep.Verdict(); known {
		t.Errorf("mux reply should carry no verdict")
	}

	rep, err = tt.Run(context.Background(), counter)
	if err != nil {
		t.Fatalf("counter Run() error = %v", err)
	}
	if !reflect.DeepEqual(rep.Values, []byte{0, 1, 0, 1}) {
		t.Errorf("counter values = % X", rep.Values)
	}
}

func TestRunAnalog(t *testing.T) {
	sim := transport.NewSim()
	rep, err := newTester(t, sim).Run(context.Background(), ictest.Analog{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Analog == nil || rep.Analog.FrequencyHz != 1000 || !rep.Analog.Passed {
		t.Errorf("Analog = %+v", rep.Analog)
	}
	if rep.Frame != nil {
		t.Errorf("text reply produced a frame")
	}

	sim = transport.NewSim()
	sim.Quiet = true
	rep, err = newTester(t, sim).Run(context.Background(), ictest.Analog{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Frame == nil || !rep.Analog.Binary {
		t.Errorf("binary reply: frame %+v analog %+v", rep.Frame, rep.Analog)
	}

	// Frequency without a status line is reported once the wait runs out.
	sim = transport.NewSim()
	sim.OnCommand = reply([]byte("Mean frequency: 480.0 Hz\r\n"))
	rep, err = newTester(t, sim).Run(context.Background(), ictest.Analog{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Analog.HasStatus || rep.Analog.FrequencyHz != 480 {
		t.Errorf("Analog = %+v", rep.Analog)
	}
}

func TestRunReplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
		want  error
	}{
		{"silence", nil, ErrNoResponse},
		{"text only", []byte("booting...\r\n"), ErrNoResponse},
		{"header then nothing", []byte{0x55, 0x02}, ictest.ErrTruncatedFrame},
		{"partial results", []byte{0x55, 0x02, 0x01}, ictest.ErrTruncatedFrame},
		{"wrong count", transport.CountedFrame(0x01), ictest.ErrMalformedFrame},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim := transport.NewSim()
			sim.OnCommand = reply(tc.reply)
			rep, err := newTester(t, sim).Run(context.Background(), twoAndGates(t))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Run() error = %v, want %v", err, tc.want)
			}
			if rep == nil {
				t.Fatalf("no report returned with %v", err)
			}
			if string(rep.Response) != string(tc.reply) {
				t.Errorf("Response = % X, want % X", rep.Response, tc.reply)
			}
		})
	}

	sim := transport.NewSim()
	sim.OnCommand = reply([]byte("booting...\r\n"))
	rep, _ := newTester(t, sim).Run(context.Background(), twoAndGates(t))
	if got := rep.DebugText(); got != "booting..." {
		t.Errorf("DebugText() = %q", got)
	}

	sim.OnCommand = reply(transport.CountedFrame(0x01))
	_, err := newTester(t, sim).Run(context.Background(), twoAndGates(t))
	var ce *ictest.CountError
	if !errors.As(err, &ce) || ce.Expected != 2 || ce.Actual != 1 {
		t.Errorf("error = %v, want CountError{2,1}", err)
	}
}

func TestRunMuxTextIsNoResponse(t *testing.T) {
	mux, err := ictest.NewMux(pinmap.UNO, ictest.MuxSpec{
		Mode:     ictest.ModeMux,
		Channels: 4,
		Data:     []string{"D2", "D3", "D4", "D5"},
		Select:   []string{"D6", "D7"},
		Shared:   "D8",
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		reply []byte
		want  error
	}{
		{"line ending in U", []byte("unknown command, type MENU\r\n"), ErrNoResponse},
		{"header with another count", []byte("noise\x55\x0D"), ErrNoResponse},
		{"cut after two results", []byte{0x55, 0x04, 0x00, 0x01}, ictest.ErrTruncatedFrame},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim := transport.NewSim()
			sim.OnCommand = reply(tc.reply)
			_, err := newTester(t, sim).Run(context.Background(), mux)
			if !errors.Is(err, tc.want) {
				t.Errorf("Run() error = %v, want %v", err, tc.want)
			}
		})
	}
}

type flakyTransport struct {
	sim      *transport.Sim
	failRead bool
}

func (f *flakyTransport) Write(p []byte) error { return f.sim.Write(p) }

func (f *flakyTransport) Read(d time.Duration) ([]byte, error) {
	if f.failRead {
		f.failRead = false
		return nil, errors.New("device reports an error")
	}
	return f.sim.Read(d)
}

func TestRunTransportError(t *testing.T) {
	tr := &flakyTransport{sim: transport.NewSim(), failRead: true}
	tt := newTester(t, tr)

	rep, err := tt.Run(context.Background(), twoAndGates(t))
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "read" {
		t.Fatalf("Run() error = %v, want read TransportError", err)
	}
	if rep == nil {
		t.Fatalf("no report after read failure")
	}

	// The transport stays usable: the next exchange reads the queued reply
	// of the first command, which still matches a two-gate batch.
	if _, err := tt.Run(context.Background(), twoAndGates(t)); err != nil {
		t.Errorf("second Run() error = %v", err)
	}

	closed := transport.NewSim()
	closed.Close()
	_, err = newTester(t, closed).Run(context.Background(), ictest.Analog{})
	if !errors.As(err, &te) || te.Op != "write" || !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Run() on closed transport error = %v", err)
	}
}

func TestRunContextCancel(t *testing.T) {
	sim := transport.NewSim()
	sim.OnCommand = reply(nil)
	cfg := fastConfig()
	cfg.GateWait = 10 * time.Second
	tt, err := New(sim, cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = tt.Run(ctx, twoAndGates(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("cancellation took %s", time.Since(start))
	}
}

func TestRunSerializesExchanges(t *testing.T) {
	tt := newTester(t, transport.NewSim())
	batch := twoAndGates(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := tt.Run(context.Background(), batch)
			if err == nil && !rep.PassFail.AllPassed {
				err = errors.New("unexpected failure")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Run() error = %v", err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	c := &Config{MuxWait: time.Second}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	def := DefaultConfig()
	if c.PollInterval != def.PollInterval || c.AnalogWait != 3*time.Second || c.MuxWait != time.Second {
		t.Errorf("Validate() = %+v", c)
	}

	c = &Config{GateWait: -time.Second}
	if err := c.Validate(); err == nil {
		t.Errorf("negative wait accepted")
	}

	if _, err := New(nil, nil); err == nil {
		t.Errorf("nil transport accepted")
	}
}

func TestConfigWait(t *testing.T) {
	c := DefaultConfig()
	want := map[ictest.Kind]time.Duration{
		ictest.KindGate:     2 * time.Second,
		ictest.KindFlipFlop: 2 * time.Second,
		ictest.KindMux:      1500 * time.Millisecond,
		ictest.KindCounter:  2 * time.Second,
		ictest.KindAnalog:   3 * time.Second,
	}
	for k, d := range want {
		if got := c.Wait(k); got != d {
			t.Errorf("Wait(%s) = %s, want %s", k, got, d)
		}
	}
}

package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// CommandHook lets tests replace the simulator's reply to a command. The
// returned bytes are queued as-is; an error is returned from Write.
type CommandHook func(packet []byte, h ictest.Header) ([]byte, error)

// Sim is an in-memory tester board. It answers every command kind the way
// the firmware does: debug text around a reply frame, delivered a few bytes
// per Read. It records each packet written for inspection within tests.
type Sim struct {
	// OnCommand overrides the default reply when set.
	OnCommand CommandHook
	// Chunk is the most bytes a single Read returns. Zero returns everything
	// queued.
	Chunk int
	// Quiet drops the debug text around reply frames.
	Quiet bool

	mu      sync.Mutex
	pending []byte
	writes  [][]byte
	closed  bool
}

// NewSim constructs a simulator that delivers replies in small chunks.
func NewSim() *Sim {
	return &Sim{Chunk: 8}
}

// Write accepts one command packet and queues the reply.
func (s *Sim) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	packet := append([]byte(nil), p...)
	s.writes = append(s.writes, packet)

	h, err := ictest.ParseHeader(packet)
	if err != nil {
		// The firmware prints and drops packets it cannot parse.
		s.pending = append(s.pending, fmt.Sprintf("ERR %v\r\n", err)...)
		return nil
	}

	var reply []byte
	if s.OnCommand != nil {
		reply, err = s.OnCommand(packet, h)
		if err != nil {
			return err
		}
	} else {
		reply = s.defaultReply(h)
	}
	s.pending = append(s.pending, reply...)
	return nil
}

// Read returns up to Chunk queued bytes. With nothing queued it waits for
// timeout, as a serial read would, and returns no data.
func (s *Sim) Read(timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if len(s.pending) == 0 {
		s.mu.Unlock()
		time.Sleep(timeout)
		return nil, nil
	}
	defer s.mu.Unlock()

	n := len(s.pending)
	if s.Chunk > 0 && n > s.Chunk {
		n = s.Chunk
	}
	out := append([]byte(nil), s.pending[:n]...)
	s.pending = s.pending[n:]
	return out, nil
}

// Close marks the simulator closed.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Writes returns copies of every packet written so far.
func (s *Sim) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.writes))
	for i, w := range s.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Queue appends raw bytes to the receive side, e.g. boot chatter.
func (s *Sim) Queue(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, b...)
}

func (s *Sim) defaultReply(h ictest.Header) []byte {
	var payload []byte
	switch h.Kind {
	case ictest.KindGate, ictest.KindFlipFlop:
		payload = repeat(ictest.ResultPass, h.Count)
	case ictest.KindMux:
		payload = make([]byte, h.Channels)
		for i := range payload {
			if h.Mode == ictest.ModeDemux {
				payload[i] = 1 << uint(i)
			} else {
				payload[i] = byte(i % 2)
			}
		}
	case ictest.KindCounter:
		payload = make([]byte, h.Outputs)
		for i := range payload {
			payload[i] = byte(h.Pulses>>uint(i)) & 1
		}
	case ictest.KindAnalog:
		if s.Quiet {
			return FixedFrame(0x03, 0xE8, ictest.ResultPass)
		}
		return []byte("NE555 astable test\r\nMean frequency: 1000.00 Hz\r\nStatus: PASS\r\n")
	}

	if s.Quiet {
		return CountedFrame(payload...)
	}
	var reply []byte
	reply = append(reply, fmt.Sprintf("Running %s test (%d results)\r\n", h.Kind, len(payload))...)
	reply = append(reply, CountedFrame(payload...)...)
	reply = append(reply, "\r\nDone\r\n"...)
	return reply
}

// CountedFrame builds a 55 count results... FF reply frame.
func CountedFrame(results ...byte) []byte {
	f := make([]byte, 0, len(results)+3)
	f = append(f, ictest.SyncByte, byte(len(results)))
	f = append(f, results...)
	return append(f, ictest.EndMarker)
}

// FixedFrame builds a 55 payload... FF reply frame without a count byte.
func FixedFrame(payload ...byte) []byte {
	f := make([]byte, 0, len(payload)+2)
	f = append(f, ictest.SyncByte)
	f = append(f, payload...)
	return append(f, ictest.EndMarker)
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

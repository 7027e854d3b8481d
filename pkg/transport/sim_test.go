package transport

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// drain reads from the simulator until it has nothing more queued.
func drain(t *testing.T, s *Sim) []byte {
	t.Helper()
	var buf []byte
	for i := 0; i < 1000; i++ {
		chunk, err := s.Read(time.Millisecond)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if len(chunk) == 0 {
			return buf
		}
		buf = append(buf, chunk...)
	}
	t.Fatalf("simulator never drained")
	return nil
}

func TestSimDefaultReplies(t *testing.T) {
	tests := []struct {
		name    string
		packet  []byte
		shape   ictest.Shape
		payload []byte
	}{
		{
			name:    "two gates pass",
			packet:  []byte{0xAA, 0x02, 0x01, 0x01, 0x00, 0x01, 0x01, 0x01, 0x01, 0x02, 0x03, 0x00, 0xFF},
			shape:   ictest.CountedShape,
			payload: []byte{0x01, 0x01},
		},
		{
			name:    "mux alternates",
			packet:  []byte{0xCC, 0x01, 0x04, 0x02, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xFF},
			shape:   ictest.WideShape,
			payload: []byte{0x00, 0x01, 0x00, 0x01},
		},
		{
			name:    "demux one-hot",
			packet:  []byte{0xCC, 0x02, 0x04, 0x02, 0x06, 0x04, 0x05, 0x00, 0x01, 0x02, 0x03, 0xFF},
			shape:   ictest.WideShape,
			payload: []byte{0x01, 0x02, 0x04, 0x08},
		},
		{
			name:    "counter after ten pulses",
			packet:  []byte{0xDD, 0x00, 0x01, 0x04, 0x0A, 0x02, 0x03, 0x04, 0x05, 0xFF},
			shape:   ictest.WideShape,
			payload: []byte{0x00, 0x01, 0x00, 0x01},
		},
		{
			name:    "flip-flop pass",
			packet:  []byte{0xBB, 0x01, 0x01, 0x00, 0xFF, 0xFF, 0x01, 0x02, 0xFF, 0xFF},
			shape:   ictest.CountedShape,
			payload: []byte{0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSim()
			if err := s.Write(tt.packet); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			buf := drain(t, s)
			f, err := ictest.Scan(buf, tt.shape)
			if err != nil {
				t.Fatalf("Scan(%q) error = %v", buf, err)
			}
			if f.Start == 0 {
				t.Errorf("frame not surrounded by debug text")
			}
			if !bytes.Equal(f.Payload, tt.payload) {
				t.Errorf("payload = % X, want % X", f.Payload, tt.payload)
			}
		})
	}
}

func TestSimAnalog(t *testing.T) {
	s := NewSim()
	if err := s.Write([]byte{0xEE, 0xFF}); err != nil {
		t.Fatal(err)
	}
	r, err := ictest.DecodeAnalog(drain(t, s))
	if err != nil {
		t.Fatalf("DecodeAnalog() error = %v", err)
	}
	if r.FrequencyHz != 1000 || !r.Passed || r.Binary {
		t.Errorf("got %+v", r)
	}

	s = NewSim()
	s.Quiet = true
	if err := s.Write([]byte{0xEE, 0xFF}); err != nil {
		t.Fatal(err)
	}
	r, err = ictest.DecodeAnalog(drain(t, s))
	if err != nil || !r.Binary || r.FrequencyHz != 1000 {
		t.Errorf("quiet analog: %+v, %v", r, err)
	}
}

func TestSimChunks(t *testing.T) {
	s := NewSim()
	s.Chunk = 3
	s.Queue([]byte("0123456"))

	for _, want := range []string{"012", "345", "6"} {
		got, err := s.Read(time.Millisecond)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("Read() = %q, want %q", got, want)
		}
	}
	start := time.Now()
	got, err := s.Read(20 * time.Millisecond)
	if err != nil || len(got) != 0 {
		t.Errorf("empty Read() = %q, %v", got, err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Errorf("empty Read() returned before its timeout")
	}
}

func TestSimHook(t *testing.T) {
	s := NewSim()
	var seen ictest.Header
	s.OnCommand = func(packet []byte, h ictest.Header) ([]byte, error) {
		seen = h
		return []byte{0x55, 0x02, 0x01}, nil
	}
	if err := s.Write([]byte{0xAA, 0x01, 0x01, 0x01, 0x00, 0x01, 0x01, 0xFF}); err != nil {
		t.Fatal(err)
	}
	if seen.Kind != ictest.KindGate || seen.Count != 1 {
		t.Errorf("hook saw %+v", seen)
	}
	if got := drain(t, s); !bytes.Equal(got, []byte{0x55, 0x02, 0x01}) {
		t.Errorf("reply = % X", got)
	}

	boom := errors.New("boom")
	s.OnCommand = func([]byte, ictest.Header) ([]byte, error) { return nil, boom }
	if err := s.Write([]byte{0xEE, 0xFF}); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want hook error", err)
	}
	if n := len(s.Writes()); n != 2 {
		t.Errorf("recorded %d writes, want 2", n)
	}
}

func TestSimBadPacketAndClose(t *testing.T) {
	s := NewSim()
	if err := s.Write([]byte{0x42, 0xFF}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	buf := drain(t, s)
	if !bytes.HasPrefix(buf, []byte("ERR")) {
		t.Errorf("reply = %q", buf)
	}
	if _, err := ictest.Scan(buf, ictest.CountedShape); !errors.Is(err, ictest.ErrNotFound) {
		t.Errorf("error reply contained a frame")
	}

	s.Close()
	if err := s.Write([]byte{0xEE, 0xFF}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close = %v", err)
	}
	if _, err := s.Read(time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close = %v", err)
	}
}

func TestFrames(t *testing.T) {
	if got := CountedFrame(0x01, 0x00); !bytes.Equal(got, []byte{0x55, 0x02, 0x01, 0x00, 0xFF}) {
		t.Errorf("CountedFrame = % X", got)
	}
	if got := FixedFrame(0x03, 0xE8, 0x01); !bytes.Equal(got, []byte{0x55, 0x03, 0xE8, 0x01, 0xFF}) {
		t.Errorf("FixedFrame = % X", got)
	}
}

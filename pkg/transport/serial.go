package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the line rate of the tester firmware.
const DefaultBaud = 115200

// DefaultResetDelay is how long OpenSerial waits before using the port. Uno
// and Mega class boards reset when the port opens and DTR rises, and the
// bootloader drops whatever arrives while it runs.
const DefaultResetDelay = 2 * time.Second

const readChunk = 256

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("transport: closed")

// port is the part of serial.Port the transport uses.
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Drain() error
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Serial is a tester board attached over a serial port (8N1).
type Serial struct {
	mu   sync.Mutex
	port port
	name string
}

// SerialOption configures OpenSerial.
type SerialOption func(*serialOptions)

type serialOptions struct {
	resetDelay time.Duration
	sleep      func(time.Duration)
}

// WithResetDelay sets how long OpenSerial waits for the board to come out of
// reset. Zero or less skips the wait, for boards that do not reset on open.
func WithResetDelay(d time.Duration) SerialOption {
	return func(o *serialOptions) { o.resetDelay = d }
}

// OpenSerial opens the named port at the given baud rate. A baud of zero
// selects DefaultBaud. It then waits DefaultResetDelay (see WithResetDelay)
// and discards whatever the board printed while booting.
func OpenSerial(name string, baud int, opts ...SerialOption) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", name, err)
	}
	return newSerial(name, p, opts...)
}

func newSerial(name string, p port, opts ...SerialOption) (*Serial, error) {
	o := serialOptions{resetDelay: DefaultResetDelay, sleep: time.Sleep}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resetDelay > 0 {
		o.sleep(o.resetDelay)
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("transport: flush %s: %w", name, err)
	}
	return &Serial{port: p, name: name}, nil
}

// Name returns the port name the transport was opened with.
func (s *Serial) Name() string { return s.name }

// Write sends the whole packet.
func (s *Serial) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrClosed
	}
	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return fmt.Errorf("transport: write %s: %w", s.name, err)
		}
		p = p[n:]
	}
	return s.port.Drain()
}

// Read returns whatever bytes arrive within timeout. An empty result with a
// nil error means nothing arrived.
func (s *Serial) Read(timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, ErrClosed
	}
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("transport: set timeout %s: %w", s.name, err)
	}
	buf := make([]byte, readChunk)
	n, err := s.port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("transport: read %s: %w", s.name, err)
	}
	return buf[:n], nil
}

// Close releases the port. Closing twice is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

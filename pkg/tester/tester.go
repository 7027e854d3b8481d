package tester

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// Transport is the byte pipe to a tester board. Read returns whatever
// arrived within timeout; an empty slice with a nil error means nothing did.
type Transport interface {
	Write(p []byte) error
	Read(timeout time.Duration) ([]byte, error)
}

// Tester runs commands against a board, one exchange at a time.
type Tester struct {
	mu  sync.Mutex
	t   Transport
	cfg Config
	log zerolog.Logger
}

// Option configures a Tester.
type Option func(*Tester)

// WithLogger sets the logger exchanges are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tester) { t.log = l }
}

// New creates a tester on top of a transport. A nil cfg selects
// DefaultConfig.
func New(tr Transport, cfg *Config, opts ...Option) (*Tester, error) {
	if tr == nil {
		return nil, fmt.Errorf("tester: nil transport")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}
	t := &Tester{t: tr, cfg: c, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns the validated timing in use.
func (t *Tester) Config() Config { return t.cfg }

// Run sends one command and waits for its reply.
//
// The returned report is non-nil whenever the packet was written, even when
// err is set, so callers can show the raw reply. Errors are ErrNoResponse or
// ictest.ErrTruncatedFrame when the wait expires, ictest.ErrMalformedFrame
// when the result count is wrong, a *TransportError for I/O failures, or the
// context's error. The transport stays usable after every one of them.
func (t *Tester) Run(ctx context.Context, cmd ictest.Command) (*Report, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kind := cmd.Kind()
	rep := &Report{Kind: kind, Packet: cmd.Encode()}
	log := t.log.With().Stringer("kind", kind).Logger()
	log.Debug().Hex("packet", rep.Packet).Msg("send")

	start := time.Now()
	shape := ictest.ReplyShape(kind)
	if h, err := ictest.ParseHeader(rep.Packet); err == nil {
		shape.Expect = h.ExpectedResults()
	}
	var done func([]byte) bool
	if kind == ictest.KindAnalog {
		done = ictest.AnalogComplete
	} else {
		done = func(buf []byte) bool {
			_, err := ictest.Scan(buf, shape)
			return err == nil
		}
	}

	resp, err := t.exchange(ctx, rep.Packet, t.cfg.Wait(kind), done)
	rep.Response = resp
	rep.Elapsed = time.Since(start)
	log.Debug().Hex("reply", resp).Dur("elapsed", rep.Elapsed).Msg("receive")

	var te *TransportError
	if errors.As(err, &te) {
		log.Error().Err(err).Msg("exchange failed")
		if te.Op == "write" {
			return nil, err
		}
		return rep, err
	}
	if err != nil && !errors.Is(err, errWaitExpired) {
		return rep, err
	}

	if kind == ictest.KindAnalog {
		err = decodeAnalog(rep)
	} else {
		err = decodeCounted(rep, cmd, shape)
	}
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(resp)).Msg("no usable reply")
		return rep, err
	}

	passed, known := rep.Verdict()
	ev := log.Info().Dur("elapsed", rep.Elapsed)
	if known {
		ev = ev.Bool("passed", passed)
	}
	ev.Msg("test complete")
	return rep, nil
}

var errWaitExpired = errors.New("tester: wait expired")

// exchange writes the packet, then polls the transport into a private buffer
// until done reports a complete reply or wait elapses. It returns
// errWaitExpired with whatever arrived when the wait runs out.
func (t *Tester) exchange(ctx context.Context, packet []byte, wait time.Duration, done func([]byte) bool) ([]byte, error) {
	if err := t.t.Write(packet); err != nil {
		return nil, &TransportError{Op: "write", Err: err}
	}

	var buf []byte
	deadline := time.Now().Add(wait)
	for {
		if err := ctx.Err(); err != nil {
			return buf, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return buf, errWaitExpired
		}
		poll := t.cfg.PollInterval
		if poll > remaining {
			poll = remaining
		}
		chunk, err := t.t.Read(poll)
		if err != nil {
			return buf, &TransportError{Op: "read", Err: err}
		}
		if len(chunk) == 0 {
			continue
		}
		buf = append(buf, chunk...)
		if done(buf) {
			return buf, nil
		}
	}
}

func decodeCounted(rep *Report, cmd ictest.Command, shape ictest.Shape) error {
	f, err := ictest.Scan(rep.Response, shape)
	if err != nil {
		if ictest.Pending(rep.Response, shape) {
			return ictest.ErrTruncatedFrame
		}
		return ErrNoResponse
	}
	rep.Frame = &f

	switch c := cmd.(type) {
	case ictest.GateBatch:
		res, err := ictest.DecodePassFail(f, c.Len())
		if err != nil {
			return err
		}
		rep.PassFail = &res
	case ictest.FlipFlopBatch:
		res, err := ictest.DecodePassFail(f, c.Len())
		if err != nil {
			return err
		}
		rep.PassFail = &res
	case ictest.Mux:
		if c.Mode() == ictest.ModeDemux {
			res, err := ictest.DecodeDemux(f, c.Channels())
			if err != nil {
				return err
			}
			rep.PassFail = &res
			return nil
		}
		vals, err := ictest.DecodeValues(f, c.Channels())
		if err != nil {
			return err
		}
		rep.Values = vals
	case ictest.Counter:
		vals, err := ictest.DecodeValues(f, c.Outputs())
		if err != nil {
			return err
		}
		rep.Values = vals
	default:
		return fmt.Errorf("tester: unsupported command %T", cmd)
	}
	return nil
}

func decodeAnalog(rep *Report) error {
	r, err := ictest.DecodeAnalog(rep.Response)
	if err != nil {
		if ictest.Pending(rep.Response, ictest.AnalogShape) {
			return ictest.ErrTruncatedFrame
		}
		return ErrNoResponse
	}
	if r.Binary {
		if f, err := ictest.ScanFixed(rep.Response, ictest.AnalogShape.Fixed); err == nil {
			rep.Frame = &f
		}
	}
	rep.Analog = &r
	return nil
}

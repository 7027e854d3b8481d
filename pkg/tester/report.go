package tester

import (
	"strings"
	"time"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// Report is the outcome of one exchange.
type Report struct {
	Kind     ictest.Kind
	Packet   []byte
	Response []byte
	Elapsed  time.Duration

	// Frame is the located reply, nil for text-only analog replies and
	// for failed exchanges.
	Frame *ictest.Frame

	// Exactly one of the result fields is set on success.
	PassFail *ictest.PassFail      // gates, flip-flops, demux
	Values   []byte                // mux, counter
	Analog   *ictest.AnalogReading // NE555
}

// Verdict returns the overall outcome and whether the device reported one.
// Mux and counter replies carry raw values, so known is false for them.
func (r *Report) Verdict() (passed, known bool) {
	switch {
	case r.PassFail != nil:
		return r.PassFail.AllPassed, true
	case r.Analog != nil && r.Analog.HasStatus:
		return r.Analog.Passed, true
	default:
		return false, false
	}
}

// DebugText returns the printable reply bytes outside the frame: the debug
// output the firmware interleaves with its results.
func (r *Report) DebugText() string {
	resp := r.Response
	if r.Frame != nil && r.Frame.End() <= len(resp) {
		rest := make([]byte, 0, len(resp))
		rest = append(rest, resp[:r.Frame.Start]...)
		rest = append(rest, resp[r.Frame.End():]...)
		resp = rest
	}
	var b strings.Builder
	for _, c := range resp {
		switch {
		case c == '\n' || c == '\t':
			b.WriteByte(c)
		case c == '\r':
		case c >= 0x20 && c < 0x7F:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

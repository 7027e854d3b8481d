package ictest

// Command start markers. Each IC category has its own marker on the wire.
const (
	StartGate     = 0xAA
	StartFlipFlop = 0xBB
	StartMux      = 0xCC
	StartCounter  = 0xDD
	StartAnalog   = 0xEE

	// EndMarker terminates both command packets and reply frames.
	EndMarker = 0xFF
)

const (
	// MaxGateInputs bounds gate inputs so the truth table fits in one byte.
	MaxGateInputs = 3

	// MaxBatch is the largest gate or flip-flop batch a reply can address.
	MaxBatch = 8

	// MaxWideCount is the largest result count of mux, demux and counter replies.
	MaxWideCount = 16
)

// PackTruth packs a truth table into one byte: bit i is set when the output
// for input combination i is 1. Rows beyond the eighth are ignored.
func PackTruth(rows []bool) byte {
	var b byte
	for i, v := range rows {
		if i >= 8 {
			break
		}
		if v {
			b |= 1 << uint(i)
		}
	}
	return b
}

// UnpackTruth recovers the first n rows of a packed truth table.
func UnpackTruth(b byte, n int) []bool {
	if n > 8 {
		n = 8
	}
	rows := make([]bool, n)
	for i := range rows {
		rows[i] = b&(1<<uint(i)) != 0
	}
	return rows
}

// Encode builds the gate packet:
//
//	[AA][n]{[inputs][outputs][in pins...][out pins...][truth]}*n[FF]
func (b GateBatch) Encode() []byte {
	size := 3
	for _, g := range b.gates {
		size += 3 + len(g.inputs) + len(g.outputs)
	}
	packet := make([]byte, 0, size)
	packet = append(packet, StartGate, byte(len(b.gates)))
	for _, g := range b.gates {
		packet = append(packet, byte(len(g.inputs)), byte(len(g.outputs)))
		packet = appendPins(packet, g.inputs)
		packet = appendPins(packet, g.outputs)
		packet = append(packet, g.truth)
	}
	return append(packet, EndMarker)
}

// Encode builds the mux/demux packet:
//
//	MUX:   [CC][01][ch][sel][data pins...][select pins...][out][FF]
//	DEMUX: [CC][02][ch][sel][in][select pins...][data pins...][FF]
func (m Mux) Encode() []byte {
	packet := make([]byte, 0, 6+len(m.data)+len(m.selects))
	packet = append(packet, StartMux, byte(m.mode), byte(m.channels), byte(len(m.selects)))
	if m.mode == ModeMux {
		packet = appendPins(packet, m.data)
		packet = appendPins(packet, m.selects)
		packet = append(packet, byte(m.shared))
	} else {
		packet = append(packet, byte(m.shared))
		packet = appendPins(packet, m.selects)
		packet = appendPins(packet, m.data)
	}
	return append(packet, EndMarker)
}

// Encode builds the counter packet:
//
//	[DD][clk][rst][n][pulses][out pins...][FF]
func (c Counter) Encode() []byte {
	packet := make([]byte, 0, 6+len(c.outputs))
	packet = append(packet, StartCounter, byte(c.clock), byte(c.reset), byte(len(c.outputs)), c.pulses)
	packet = appendPins(packet, c.outputs)
	return append(packet, EndMarker)
}

// Encode builds the flip-flop packet:
//
//	[BB][n]{[type][clk][pre|FF][clr|FF][inputs...][Q][/Q|FF]}*n[FF]
//
// Inputs follow FlipFlopKind.InputNames order. This is the only flip-flop
// layout the tester speaks; the inline CLK,inputs,Q,PRE,CLR ordering used by
// older firmware is not wire compatible.
func (b FlipFlopBatch) Encode() []byte {
	packet := make([]byte, 0, 3+len(b.ffs)*8)
	packet = append(packet, StartFlipFlop, byte(len(b.ffs)))
	for _, ff := range b.ffs {
		packet = append(packet, byte(ff.kind), byte(ff.clock), byte(ff.preset), byte(ff.clear))
		packet = appendPins(packet, ff.inputs)
		packet = append(packet, byte(ff.q), byte(ff.qbar))
	}
	return append(packet, EndMarker)
}

// Encode builds the analog packet. Pin assignment is fixed in firmware.
func (Analog) Encode() []byte {
	return []byte{StartAnalog, EndMarker}
}

func appendPins(dst []byte, pins []PinCode) []byte {
	for _, p := range pins {
		dst = append(dst, byte(p))
	}
	return dst
}

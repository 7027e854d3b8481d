package ictest

import "fmt"

// Header is the fixed metadata at the front of a command packet. It is what a
// device needs to size its reply.
type Header struct {
	Kind     Kind
	Count    int // gates or flip-flops in the batch
	Mode     MuxMode
	Channels int
	Outputs  int // counter outputs
	Pulses   int
}

// ExpectedResults returns the result count a well-behaved device replies with.
func (h Header) ExpectedResults() int {
	switch h.Kind {
	case KindGate, KindFlipFlop:
		return h.Count
	case KindMux:
		return h.Channels
	case KindCounter:
		return h.Outputs
	default:
		return 0
	}
}

// ParseHeader reads the metadata of a command packet and checks its markers.
func ParseHeader(packet []byte) (Header, error) {
	if len(packet) < 2 {
		return Header{}, fmt.Errorf("ictest: packet too short (%d bytes)", len(packet))
	}
	if packet[len(packet)-1] != EndMarker {
		return Header{}, fmt.Errorf("ictest: packet missing end marker")
	}
	need := func(n int) error {
		if len(packet) < n {
			return fmt.Errorf("ictest: packet too short for 0x%02X header (%d bytes)", packet[0], len(packet))
		}
		return nil
	}
	switch packet[0] {
	case StartGate:
		if err := need(3); err != nil {
			return Header{}, err
		}
		return Header{Kind: KindGate, Count: int(packet[1])}, nil
	case StartFlipFlop:
		if err := need(3); err != nil {
			return Header{}, err
		}
		return Header{Kind: KindFlipFlop, Count: int(packet[1])}, nil
	case StartMux:
		if err := need(5); err != nil {
			return Header{}, err
		}
		return Header{Kind: KindMux, Mode: MuxMode(packet[1]), Channels: int(packet[2])}, nil
	case StartCounter:
		if err := need(6); err != nil {
			return Header{}, err
		}
		return Header{Kind: KindCounter, Outputs: int(packet[3]), Pulses: int(packet[4])}, nil
	case StartAnalog:
		return Header{Kind: KindAnalog}, nil
	default:
		return Header{}, fmt.Errorf("ictest: unknown start marker 0x%02X", packet[0])
	}
}

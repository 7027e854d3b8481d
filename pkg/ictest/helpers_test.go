package ictest

import "fmt"

// testBoard resolves "P<n>" style names used throughout the tests.
type testBoard map[string]PinCode

func (b testBoard) Resolve(name string) (PinCode, error) {
	if code, ok := b[name]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownPin, name)
}

// uno mirrors the Arduino UNO pin map.
var uno = testBoard{
	"D2": 0x00, "D3": 0x01, "D4": 0x02, "D5": 0x03,
	"D6": 0x04, "D7": 0x05, "D8": 0x06, "D9": 0x07,
	"D10": 0x10, "D11": 0x11, "D12": 0x1A, "D13": 0x1B,
}

func mustGate(spec GateSpec) Gate {
	g, err := NewGate(uno, spec)
	if err != nil {
		panic(err)
	}
	return g
}

func andGate(a, b, y string) Gate {
	return mustGate(GateSpec{
		Inputs:  []string{a, b},
		Outputs: []string{y},
		Truth:   []bool{false, false, false, true},
	})
}

package pinmap

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// Pin is a named header pin and its protocol code.
type Pin struct {
	Name string
	Code ictest.PinCode
}

// Board is the symbol table of one microcontroller board. It resolves the
// pin names an operator uses into the codes carried in command packets.
// A Board is immutable after construction and safe for concurrent use.
type Board struct {
	name  string
	pins  map[string]ictest.PinCode
	order []string
}

// NewBoard builds a board from its pins, in declaration order.
func NewBoard(name string, pins ...Pin) (*Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("pinmap: board name is empty")
	}
	b := &Board{
		name: name,
		pins: make(map[string]ictest.PinCode, len(pins)),
	}
	for _, p := range pins {
		if p.Name == "" {
			return nil, fmt.Errorf("pinmap: board %s: empty pin name", name)
		}
		if _, dup := b.pins[p.Name]; dup {
			return nil, fmt.Errorf("pinmap: board %s: pin %s declared twice", name, p.Name)
		}
		if p.Code == ictest.UnusedPin {
			return nil, fmt.Errorf("pinmap: board %s: pin %s uses reserved code 0xFF", name, p.Name)
		}
		b.pins[p.Name] = p.Code
		b.order = append(b.order, p.Name)
	}
	return b, nil
}

func mustBoard(name string, pins ...Pin) *Board {
	b, err := NewBoard(name, pins...)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the board identifier, e.g. "UNO".
func (b *Board) Name() string { return b.name }

// Resolve implements ictest.Resolver.
func (b *Board) Resolve(name string) (ictest.PinCode, error) {
	if code, ok := b.pins[name]; ok {
		return code, nil
	}
	// Operators type "d13" as often as "D13".
	if code, ok := b.pins[strings.ToUpper(name)]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("pinmap: board %s: pin %q: %w", b.name, name, ictest.ErrUnknownPin)
}

// Has reports whether the board declares the pin.
func (b *Board) Has(name string) bool {
	_, err := b.Resolve(name)
	return err == nil
}

// Names returns the pin names in declaration order.
func (b *Board) Names() []string {
	return append([]string(nil), b.order...)
}

// Pins returns the pins in declaration order.
func (b *Board) Pins() []Pin {
	pins := make([]Pin, len(b.order))
	for i, n := range b.order {
		pins[i] = Pin{Name: n, Code: b.pins[n]}
	}
	return pins
}

// Len returns the number of pins on the board.
func (b *Board) Len() int { return len(b.order) }

// The tester firmware numbers the twelve usable header pins the same way on
// both boards; only the silkscreen names differ.
var testerCodes = []ictest.PinCode{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x10, 0x11, 0x1A, 0x1B,
}

func digitalPins(first int) []Pin {
	pins := make([]Pin, len(testerCodes))
	for i, c := range testerCodes {
		pins[i] = Pin{Name: fmt.Sprintf("D%d", first+i), Code: c}
	}
	return pins
}

var (
	// UNO maps D2..D13 of an Arduino Uno.
	UNO = mustBoard("UNO", digitalPins(2)...)
	// MEGA maps D22..D33 of an Arduino Mega 2560.
	MEGA = mustBoard("MEGA", digitalPins(22)...)
)

// Builtin returns the boards compiled into the tool.
func Builtin() []*Board {
	return []*Board{UNO, MEGA}
}

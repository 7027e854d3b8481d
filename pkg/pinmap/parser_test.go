package pinmap

import (
	"errors"
	"testing"
)

func TestParseBoardFile(t *testing.T) {
	input := `
	# Arduino Nano clone, same firmware codes as the Uno
	board NANO {
		D2 = 0x00
		D3 = 1   # decimal works too
		D13 = 27
	}
	`

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	file, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if len(file.Boards) != 1 {
		t.Fatalf("Expected 1 board, got %d", len(file.Boards))
	}

	boards, err := file.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	b := boards[0]
	if b.Name() != "NANO" {
		t.Errorf("Expected board name 'NANO', got '%s'", b.Name())
	}

	want := []Pin{{"D2", 0x00}, {"D3", 0x01}, {"D13", 0x1B}}
	got := b.Pins()
	if len(got) != len(want) {
		t.Fatalf("Expected %d pins, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pin %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseSeveralBoards(t *testing.T) {
	input := `board A { X1 = 0x02 } board b { Y1 = 0x03 Y2 = 0x04 }`

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	file, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	boards, err := file.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(boards) != 2 || boards[1].Len() != 2 {
		t.Fatalf("unexpected boards: %d", len(boards))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		build bool // error surfaces in Build rather than parsing
	}{
		{"missing brace", `board UNO { D2 = 0x00`, false},
		{"missing code", `board UNO { D2 = }`, false},
		{"missing board keyword", `UNO { D2 = 1 }`, false},
		{"code too large", `board UNO { D2 = 300 }`, true},
		{"reserved code", `board UNO { D2 = 0xFF }`, true},
		{"duplicate pin", `board UNO { D2 = 1 D2 = 2 }`, true},
	}

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := parser.ParseString(tt.input)
			if !tt.build {
				if err == nil {
					t.Fatalf("expected parse error")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected parse error: %v", err)
				}
				_, err = file.Build()
				if err == nil {
					t.Fatalf("expected build error")
				}
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error %v is not a *ParseError", err)
			} else if perr.Pos.Line != 1 {
				t.Errorf("error line = %d, want 1", perr.Pos.Line)
			}
		})
	}
}

func TestParseCodeIsDecimal(t *testing.T) {
	v, err := parseCode("027")
	if err != nil || v != 27 {
		t.Errorf("parseCode(027) = %d, %v", v, err)
	}
	v, err = parseCode("0X1b")
	if err != nil || v != 0x1B {
		t.Errorf("parseCode(0X1b) = %d, %v", v, err)
	}
}

package pinmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/ictest"
)

// ParseError reports a syntax or content error in a board file.
type ParseError struct {
	Pos lexer.Position
	Msg string
}

func (e *ParseError) Error() string {
	if e.Pos.Filename != "" {
		return fmt.Sprintf("pinmap: %s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("pinmap: %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parser reads board pin-map files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser creates a new board file parser.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(BoardLexer),
		participle.Elide("Comment", "Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("pinmap: failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse parses a board file from a reader. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*File, error) {
	f, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return f, nil
}

// ParseString parses a board file held in a string.
func (p *Parser) ParseString(input string) (*File, error) {
	f, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return f, nil
}

// ParseFile parses a board file from a path.
func (p *Parser) ParseFile(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("pinmap: failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}

func wrapParseError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &ParseError{Pos: perr.Position(), Msg: perr.Message()}
	}
	return fmt.Errorf("pinmap: parse error: %w", err)
}

// Build converts the declarations into boards, checking that every code fits
// the protocol and that no pin is declared twice on the same board.
func (f *File) Build() ([]*Board, error) {
	boards := make([]*Board, 0, len(f.Boards))
	for _, decl := range f.Boards {
		pins := make([]Pin, 0, len(decl.Pins))
		seen := make(map[string]bool, len(decl.Pins))
		for _, pd := range decl.Pins {
			if seen[pd.Name] {
				return nil, &ParseError{Pos: pd.Pos, Msg: fmt.Sprintf("board %s: pin %s declared twice", decl.Name, pd.Name)}
			}
			seen[pd.Name] = true

			v, err := parseCode(pd.Code)
			if err != nil {
				return nil, &ParseError{Pos: pd.Pos, Msg: fmt.Sprintf("board %s: pin %s: code %q does not fit in a byte", decl.Name, pd.Name, pd.Code)}
			}
			if ictest.PinCode(v) == ictest.UnusedPin {
				return nil, &ParseError{Pos: pd.Pos, Msg: fmt.Sprintf("board %s: pin %s: code 0xFF is reserved", decl.Name, pd.Name)}
			}
			pins = append(pins, Pin{Name: pd.Name, Code: ictest.PinCode(v)})
		}
		b, err := NewBoard(decl.Name, pins...)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

// parseCode reads a decimal or 0x-prefixed hex code. Leading zeros are
// decimal, not octal.
func parseCode(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 8)
	}
	return strconv.ParseUint(s, 10, 8)
}

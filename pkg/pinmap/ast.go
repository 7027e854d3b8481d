package pinmap

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed board file. A file may declare several boards.
type File struct {
	Boards []*BoardDecl `parser:"@@*"`
}

// BoardDecl is one board block.
// Example: board UNO { D2 = 0x00 D13 = 27 }
type BoardDecl struct {
	Pos  lexer.Position
	Name string     `parser:"KwBoard @Ident LBrace"`
	Pins []*PinDecl `parser:"@@* RBrace"`
}

// PinDecl binds a pin name to the code the tester firmware uses for it.
type PinDecl struct {
	Pos  lexer.Position
	Name string `parser:"@Ident Assign"`
	Code string `parser:"@( Hex | Integer )"`
}

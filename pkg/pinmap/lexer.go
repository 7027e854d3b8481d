package pinmap

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// BoardLexer tokenizes board pin-map files.
var BoardLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Shell style comments
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	{Name: "KwBoard", Pattern: `(?i)\bBOARD\b`},

	{Name: "Assign", Pattern: `=`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},

	// Hex must come before Integer so "0x1B" is not split
	{Name: "Hex", Pattern: `0[xX][0-9A-Fa-f]+`},
	{Name: "Integer", Pattern: `[0-9]+`},

	// Pin and board names: D13, A0, MEGA_2560
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var SirLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},

		// Format version string
		{Name: "String", Pattern: `"[^"\n]*"`, Action: nil},

		// Return arrow, before integers so that "->" is never a negative number
		{Name: "Arrow", Pattern: `->`, Action: nil},

		// Integer literals
		{Name: "Integer", Pattern: `-?(0x[0-9a-fA-F]+|[0-9]+)`, Action: nil},

		// Keywords, opcodes and identifiers
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`, Action: nil},

		// Punctuation
		{Name: "Punctuation", Pattern: `[{}(),:;=]`, Action: nil},

		// Whitespace
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})

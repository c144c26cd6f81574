package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[File](
	participle.Lexer(SirLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(3),
)

// ParseString parses the text of a .sir file. Syntax errors are returned as
// participle.Error values carrying the offending position.
func ParseString(filename, source string) (*File, error) {
	return parser.ParseString(filename, source)
}

// ParseFile reads and parses a .sir file.
func ParseFile(path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}

// Functions returns the function definitions of the file in source order.
func (f *File) Functions() []*Function {
	var fns []*Function
	for _, e := range f.Elements {
		if e.Function != nil {
			fns = append(fns, e.Function)
		}
	}
	return fns
}

// Versions returns every version header of the file.
func (f *File) Versions() []*Version {
	var versions []*Version
	for _, e := range f.Elements {
		if e.Version != nil {
			versions = append(versions, e.Version)
		}
	}
	return versions
}

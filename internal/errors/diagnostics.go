package errors

import (
	"fmt"
	"sort"
	"strings"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics with suggestions
type DiagnosticBuilder struct {
	err CompilerError
}

// NewDiagnostic creates a new error builder
func NewDiagnostic(code, message string, pos Position) *DiagnosticBuilder {
	return NewDiagnosticAt(Error, code, message, pos)
}

// NewDiagnosticAt creates a builder for a diagnostic of the given level
func NewDiagnosticAt(level ErrorLevel, code, message string, pos Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    level,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the error span
func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement adds a suggestion with replacement text
func (b *DiagnosticBuilder) WithReplacement(message, replacement string, pos Position, length int) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{
		Message:     message,
		Replacement: replacement,
		Position:    pos,
		Length:      length,
	})
	return b
}

// WithNote adds a note to the error
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// UndefinedVariable reports a use that no definition reaches.
func UndefinedVariable(name string, pos Position) CompilerError {
	return NewDiagnostic(ErrorUndefinedVariable, fmt.Sprintf("variable '%s' is used but never defined", name), pos).
		WithLength(len(name)).
		WithSuggestion(fmt.Sprintf("assign '%s' before this use", name)).
		WithNote("declaring a variable with 'var' does not give it a value").
		Build()
}

// PossiblyUndefinedVariable reports a use that some path reaches without a
// definition. paths names the blocks through which the undefined value
// flows in, when they are known.
func PossiblyUndefinedVariable(level ErrorLevel, name string, pos Position, paths []string) CompilerError {
	builder := NewDiagnosticAt(level, ErrorPossiblyUndefined, fmt.Sprintf("variable '%s' may be used before it is defined", name), pos).
		WithLength(len(name))
	if len(paths) > 0 {
		builder = builder.WithNote(fmt.Sprintf("no definition reaches this use through: %s", strings.Join(paths, ", ")))
	}
	return builder.WithSuggestion(fmt.Sprintf("assign '%s' on every path leading here", name)).Build()
}

// UnknownVariable reports a name that was never declared.
func UnknownVariable(name string, pos Position, declared []string) CompilerError {
	builder := NewDiagnostic(ErrorUnknownVariable, fmt.Sprintf("unknown variable '%s'", name), pos).
		WithLength(len(name))
	builder = withSimilar(builder, name, declared)
	if len(builder.err.Suggestions) == 0 {
		builder = builder.WithSuggestion(fmt.Sprintf("declare it with 'var %s: <type>;'", name))
	}
	return builder.Build()
}

// DuplicateVariable reports a second declaration of name.
func DuplicateVariable(name string, pos, previous Position) CompilerError {
	return NewDiagnostic(ErrorDuplicateVariable, fmt.Sprintf("variable '%s' is declared more than once", name), pos).
		WithLength(len(name)).
		WithNote(fmt.Sprintf("first declared at %d:%d", previous.Line, previous.Column)).
		WithHelp("arguments, results and locals share one namespace per function").
		Build()
}

// UnknownOpcode reports an instruction name that does not exist.
func UnknownOpcode(name string, pos Position, known []string) CompilerError {
	builder := NewDiagnostic(ErrorUnknownOpcode, fmt.Sprintf("unknown opcode '%s'", name), pos).
		WithLength(len(name))
	return withSimilar(builder, name, known).Build()
}

// OperandCount reports an instruction with the wrong number of operands.
func OperandCount(op string, expected, actual int, pos Position) CompilerError {
	return NewDiagnostic(ErrorOperandCount, fmt.Sprintf("'%s' takes %d operands, found %d", op, expected, actual), pos).
		WithLength(len(op)).
		Build()
}

// UnsupportedVersion reports a version header outside the supported range.
func UnsupportedVersion(version, constraint string, pos Position) CompilerError {
	return NewDiagnostic(ErrorUnsupportedVersion, fmt.Sprintf("unsupported format version '%s'", version), pos).
		WithNote(fmt.Sprintf("supported versions: %s", constraint)).
		Build()
}

// UnknownType reports a type name that does not exist.
func UnknownType(name string, pos Position, known []string) CompilerError {
	builder := NewDiagnostic(ErrorUnknownType, fmt.Sprintf("unknown type '%s'", name), pos).
		WithLength(len(name))
	builder = withSimilar(builder, name, known)
	return builder.WithNote(fmt.Sprintf("available types: %s", strings.Join(known, ", "))).Build()
}

// InvalidInstruction reports an instruction the builder cannot place.
func InvalidInstruction(message string, pos Position) CompilerError {
	return NewDiagnostic(ErrorInvalidInstruction, message, pos).Build()
}

// SyntaxError reports input the parser rejects.
func SyntaxError(message string, pos Position) CompilerError {
	return NewDiagnostic(ErrorSyntax, message, pos).Build()
}

// Sort orders diagnostics by position, keeping the original order of
// diagnostics at the same position.
func Sort(errs []CompilerError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i].Position, errs[j].Position
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// HasErrors reports whether any diagnostic is at error level.
func HasErrors(errs []CompilerError) bool {
	for _, e := range errs {
		if e.Level == Error {
			return true
		}
	}
	return false
}

func withSimilar(builder *DiagnosticBuilder, name string, candidates []string) *DiagnosticBuilder {
	similar := findSimilarNames(name, candidates)
	switch len(similar) {
	case 0:
		return builder
	case 1:
		return builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	default:
		return builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if candidate != target && levenshteinDistance(target, candidate) <= 2 && len(candidate) > 1 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// Simple Levenshtein distance over two rows
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// ParseLevel maps a configuration string to a level, defaulting to Error.
func ParseLevel(s string) ErrorLevel {
	switch ErrorLevel(strings.ToLower(s)) {
	case Warning:
		return Warning
	case Note:
		return Note
	case Help:
		return Help
	default:
		return Error
	}
}

// Position is a location in a source file. Lines and columns start at 1.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// PositionOf converts a parser position.
func PositionOf(p lexer.Position) Position {
	return Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// CompilerError represents a structured diagnostic with suggestions and context
type CompilerError struct {
	Level       ErrorLevel
	Code        string   // Error code like S0001
	Message     string   // Primary error message
	Position    Position // Location in source
	Length      int      // Length of the problematic region
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

func (e CompilerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s[%s]: %s", e.Position, e.Level, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Position, e.Level, e.Message)
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string
	Replacement string
	Position    Position
	Length      int
}

// ErrorReporter handles consistent error formatting and suggestions
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter creates a new error reporter for a file
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// Report writes every diagnostic to w.
func (er *ErrorReporter) Report(w io.Writer, errs []CompilerError) error {
	for _, e := range errs {
		if _, err := io.WriteString(w, er.FormatError(e)); err != nil {
			return err
		}
	}
	return nil
}

// FormatError formats a compiler error with Rust-like styling and suggestions
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder
	dim := color.New(color.Faint).SprintFunc()

	er.writeHeader(&result, err)

	width := er.getLineNumberWidth(err.Position.Line)
	indent := strings.Repeat(" ", width)
	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
		indent, dim("-->"), er.filename, err.Position.Line, err.Position.Column))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	er.writeSource(&result, err, width)
	er.writeSuggestions(&result, err.Suggestions, indent)

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), noteColor("note:"), note))
	}
	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

// writeHeader writes "error[S0001]: message".
func (er *ErrorReporter) writeHeader(result *strings.Builder, err CompilerError) {
	levelColor := er.getLevelColor(err.Level)
	if err.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(err.Level)), err.Code, err.Message))
		return
	}
	result.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(err.Level)), err.Message))
}

// writeSource writes the offending line between its neighbours, with a
// marker under the reported span.
func (er *ErrorReporter) writeSource(result *strings.Builder, err CompilerError, width int) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	line := err.Position.Line
	indent := strings.Repeat(" ", width)

	if line > 1 && line-1 <= len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, line-1)), dim("│"), er.lines[line-2]))
	}
	if line > 0 && line <= len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, line)), dim("│"), er.lines[line-1]))
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			indent, dim("│"), er.createMarker(err.Position.Column, err.Length, err.Level)))
	}
	if line > 0 && line < len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, line+1)), dim("│"), er.lines[line]))
	}
}

func (er *ErrorReporter) writeSuggestions(result *strings.Builder, suggestions []Suggestion, indent string) {
	if len(suggestions) == 0 {
		return
	}
	dim := color.New(color.Faint).SprintFunc()
	suggestionColor := color.New(color.FgCyan).SprintFunc()
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
	for i, suggestion := range suggestions {
		if i == 0 {
			result.WriteString(fmt.Sprintf("%s %s %s: %s\n",
				indent, suggestionColor("help"), suggestionColor("try"), suggestion.Message))
		} else {
			result.WriteString(fmt.Sprintf("%s %s %s\n",
				indent, suggestionColor("    "), suggestion.Message))
		}
		if suggestion.Replacement != "" {
			result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
			replacement := strings.ReplaceAll(suggestion.Replacement, "\n", fmt.Sprintf("\n%s %s ", indent, dim("│")))
			result.WriteString(fmt.Sprintf("%s %s %s\n",
				indent, suggestionColor("│"), suggestionColor(replacement)))
		}
	}
}

// getLevelColor returns the appropriate color function for an error level
func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker creates the underline marker for errors
func (er *ErrorReporter) createMarker(column, length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))
	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == Warning {
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + markerColor(strings.Repeat("^", length))
}

// getLineNumberWidth calculates the width needed for line numbers
func (er *ErrorReporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line+1))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}

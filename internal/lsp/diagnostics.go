package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"strata/internal/errors"
)

// ConvertDiagnostics transforms compiler diagnostics into LSP diagnostics.
// Notes, help and suggestions are appended to the message since LSP has no
// separate place for them.
func ConvertDiagnostics(errs []errors.CompilerError) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(errs))

	for _, err := range errs {
		length := err.Length
		if length <= 0 {
			length = 1
		}
		line := uint32(max(err.Position.Line-1, 0))   // Convert to 0-based indexing
		char := uint32(max(err.Position.Column-1, 0)) // Convert to 0-based indexing

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: char},
				End:   protocol.Position{Line: line, Character: char + uint32(length)},
			},
			Severity: ptrSeverity(severityOf(err.Level)),
			Code:     &protocol.IntegerOrString{Value: err.Code},
			Source:   ptrString("strata"),
			Message:  message(err),
		})
	}

	return diagnostics
}

func severityOf(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	case errors.Note:
		return protocol.DiagnosticSeverityInformation
	case errors.Help:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

func message(err errors.CompilerError) string {
	parts := []string{err.Message}
	for _, s := range err.Suggestions {
		parts = append(parts, s.Message)
	}
	parts = append(parts, err.Notes...)
	if err.HelpText != "" {
		parts = append(parts, err.HelpText)
	}
	return strings.Join(parts, "\n")
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}

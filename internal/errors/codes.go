package errors

// Diagnostic codes for the strata tools.
//
// Code ranges:
// S0001-S0099: Def/use and lowering errors
// S0100-S0199: Syntax errors

const (
	// S0001: A use that no definition reaches on any path
	ErrorUndefinedVariable = "S0001"

	// S0002: A use that some path reaches without a definition
	ErrorPossiblyUndefined = "S0002"

	// S0003: A name that was never declared
	ErrorUnknownVariable = "S0003"

	// S0004: A name declared twice in the same function
	ErrorDuplicateVariable = "S0004"

	// S0005: An instruction with an unknown opcode
	ErrorUnknownOpcode = "S0005"

	// S0006: An instruction with the wrong number of operands
	ErrorOperandCount = "S0006"

	// S0007: A version header outside the supported range
	ErrorUnsupportedVersion = "S0007"

	// S0008: A declaration with an unknown type
	ErrorUnknownType = "S0008"

	// S0009: An instruction the builder cannot place
	ErrorInvalidInstruction = "S0009"

	// S0100: Input the parser rejects
	ErrorSyntax = "S0100"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUndefinedVariable:
		return "Variable is used but never defined on any path"
	case ErrorPossiblyUndefined:
		return "Variable is used but not defined on every path"
	case ErrorUnknownVariable:
		return "Name is not declared in the function"
	case ErrorDuplicateVariable:
		return "Name is declared more than once"
	case ErrorUnknownOpcode:
		return "Instruction opcode does not exist"
	case ErrorOperandCount:
		return "Instruction has the wrong number of operands"
	case ErrorUnsupportedVersion:
		return "File format version is not supported"
	case ErrorUnknownType:
		return "Type name does not exist"
	case ErrorInvalidInstruction:
		return "Instruction cannot be placed here"
	case ErrorSyntax:
		return "Syntax error"
	default:
		return "Unknown error code"
	}
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "S0001" && code < "S0100":
		return "Def/Use"
	case code >= "S0100" && code < "S0200":
		return "Parser"
	default:
		return "Unknown"
	}
}

package lsp

import (
	"sort"

	"github.com/alecthomas/participle/v2/lexer"

	"strata/grammar"
)

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into the SemanticTokenTypes array
// TokenModifiers is a bitmask based on SemanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

func collectSemanticTokens(file *grammar.File) []SemanticToken {
	var tokens []SemanticToken

	if file == nil {
		return tokens
	}

	for _, el := range file.Elements {
		switch {
		case el.Comment != nil:
			tokens = append(tokens, makeToken(el.Comment.Pos, len(el.Comment.Text), "comment", 0)...)
		case el.Version != nil:
			tokens = append(tokens, makeToken(el.Version.Pos, len("version"), "keyword", 0)...)
		case el.Function != nil:
			tokens = append(tokens, walkFunction(el.Function)...)
		}
	}

	// Keywords are emitted separately from names; the wire format needs
	// tokens in document order.
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})
	return tokens
}

func walkFunction(f *grammar.Function) []SemanticToken {
	var tokens []SemanticToken

	tokens = append(tokens, makeToken(f.Pos, len("func"), "keyword", 0)...)
	tokens = append(tokens, identToken(f.Name, "function", 1)...)

	for _, p := range f.Params {
		tokens = append(tokens, identToken(p.Name, "parameter", 1)...)
		tokens = append(tokens, identToken(p.Type, "type", 0)...)
	}
	for _, p := range f.Returns {
		tokens = append(tokens, identToken(p.Name, "variable", 1)...)
		tokens = append(tokens, identToken(p.Type, "type", 0)...)
	}

	return append(tokens, walkBlock(f.Body)...)
}

func walkBlock(b *grammar.Block) []SemanticToken {
	var tokens []SemanticToken

	if b == nil {
		return tokens
	}

	for _, st := range b.Statements {
		tokens = append(tokens, walkStatement(st)...)
	}

	return tokens
}

func walkStatement(st *grammar.Statement) []SemanticToken {
	var tokens []SemanticToken

	switch {
	case st.Comment != nil:
		tokens = append(tokens, makeToken(st.Comment.Pos, len(st.Comment.Text), "comment", 0)...)
	case st.Var != nil:
		tokens = append(tokens, makeToken(st.Var.Pos, len("var"), "keyword", 0)...)
		tokens = append(tokens, identToken(st.Var.Name, "variable", 1)...)
		tokens = append(tokens, identToken(st.Var.Type, "type", 0)...)
	case st.If != nil:
		tokens = append(tokens, makeToken(st.If.Pos, len("if"), "keyword", 0)...)
		tokens = append(tokens, walkBlock(st.If.Cond)...)
		tokens = append(tokens, walkBlock(st.If.Then)...)
		tokens = append(tokens, walkBlock(st.If.Else)...)
	case st.Switch != nil:
		tokens = append(tokens, makeToken(st.Switch.Pos, len("switch"), "keyword", 0)...)
		tokens = append(tokens, walkBlock(st.Switch.Cond)...)
		for _, c := range st.Switch.Cases {
			tokens = append(tokens, walkBlock(c)...)
		}
	case st.While != nil:
		tokens = append(tokens, makeToken(st.While.Pos, len("while"), "keyword", 0)...)
		tokens = append(tokens, walkBlock(st.While.Cond)...)
		tokens = append(tokens, walkBlock(st.While.Body)...)
		tokens = append(tokens, walkBlock(st.While.Step)...)
	case st.For != nil:
		tokens = append(tokens, makeToken(st.For.Pos, len("for"), "keyword", 0)...)
		tokens = append(tokens, walkBlock(st.For.Init)...)
		tokens = append(tokens, walkBlock(st.For.Cond)...)
		tokens = append(tokens, walkBlock(st.For.Body)...)
		tokens = append(tokens, walkBlock(st.For.Step)...)
	case st.Block != nil:
		tokens = append(tokens, walkBlock(st.Block)...)
	case st.Assign != nil:
		tokens = append(tokens, identToken(st.Assign.Dest, "variable", 0)...)
		tokens = append(tokens, walkInst(st.Assign.Inst)...)
	case st.Inst != nil:
		tokens = append(tokens, walkInst(st.Inst)...)
	}

	return tokens
}

func walkInst(inst *grammar.Inst) []SemanticToken {
	tokens := identToken(inst.Op, "operator", 0)
	for _, o := range inst.Operands {
		switch {
		case o.Ident != nil:
			tokens = append(tokens, makeToken(o.Pos, len(*o.Ident), "variable", 0)...)
		case o.Integer != nil:
			tokens = append(tokens, makeToken(o.Pos, len(*o.Integer), "number", 0)...)
		case o.Bool != nil:
			tokens = append(tokens, makeToken(o.Pos, len(*o.Bool), "keyword", 0)...)
		}
	}
	return tokens
}

func identToken(id grammar.PosIdent, tokenType string, declModifier int) []SemanticToken {
	return makeToken(id.Pos, len(id.Value), tokenType, declModifier)
}

// makeToken creates a semantic token for a given position and length
func makeToken(pos lexer.Position, length int, tokenType string, declModifier int) []SemanticToken {
	if length <= 0 || pos.Line == 0 {
		return nil
	}

	return []SemanticToken{{
		Line:           uint32(pos.Line - 1),   // LSP uses 0-based line numbers
		StartChar:      uint32(pos.Column - 1), // LSP uses 0-based column numbers
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: declModifier << indexOf("declaration", SemanticTokenModifiers),
	}}
}

// encodeSemanticTokens produces the LSP wire format: delta line and delta
// start relative to the previous token.
func encodeSemanticTokens(tokens []SemanticToken) []uint32 {
	var data []uint32
	var prevLine, prevStart uint32

	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		deltaStart := token.StartChar
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}

	return data
}

// indexOf returns the index of a string in a slice, or 0 if not found
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0
}

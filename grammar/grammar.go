package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type File struct {
	Pos      lexer.Position
	Elements []*Element `@@*`
}

type Element struct {
	Comment  *Comment  `  @@`
	Version  *Version  `| @@`
	Function *Function `| @@`
}

type Comment struct {
	Pos  lexer.Position
	Text string `@Comment`
}

type Version struct {
	Pos   lexer.Position
	Value string `"version" @String ";"`
}

type PosIdent struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Value  string `@Ident`
}

type Function struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Name    PosIdent `"func" @@ "("`
	Params  []*Param `[ @@ { "," @@ } ] ")"`
	Returns []*Param `[ "->" "(" [ @@ { "," @@ } ] ")" ]`
	Body    *Block   `@@`
}

type Param struct {
	Pos  lexer.Position
	Name PosIdent `@@ ":"`
	Type PosIdent `@@`
}

type Block struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

type Statement struct {
	Comment *Comment    `  @@`
	Var     *VarDecl    `| @@`
	If      *IfStmt     `| @@`
	Switch  *SwitchStmt `| @@`
	While   *WhileStmt  `| @@`
	For     *ForStmt    `| @@`
	Block   *Block      `| @@`
	Assign  *Assign     `| @@`
	Inst    *Inst       `| @@`
}

type VarDecl struct {
	Pos  lexer.Position
	Name PosIdent `"var" @@ ":"`
	Type PosIdent `@@ ";"`
}

type IfStmt struct {
	Pos  lexer.Position
	Cond *Block `"if" @@`
	Then *Block `"then" @@`
	Else *Block `[ "else" @@ ]`
}

type SwitchStmt struct {
	Pos   lexer.Position
	Cond  *Block   `"switch" @@`
	Cases []*Block `( "case" @@ )+`
}

type WhileStmt struct {
	Pos  lexer.Position
	Cond *Block `"while" @@`
	Body *Block `"do" @@`
	Step *Block `[ "step" @@ ]`
}

type ForStmt struct {
	Pos  lexer.Position
	Init *Block `"for" @@`
	Cond *Block `"while" @@`
	Body *Block `"do" @@`
	Step *Block `"step" @@`
}

type Assign struct {
	Pos  lexer.Position
	Dest PosIdent `@@ "="`
	Inst *Inst    `@@`
}

type Inst struct {
	Pos      lexer.Position
	Op       PosIdent   `@@`
	Operands []*Operand `[ @@ { "," @@ } ] ";"`
}

type Operand struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Bool    *string `  @("true" | "false")`
	Integer *string `| @Integer`
	Ident   *string `| @Ident`
}

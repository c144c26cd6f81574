package grammar_test

import (
	"os"
	"testing"

	"github.com/alecthomas/participle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strata/grammar"
)

func TestCounter(t *testing.T) {
	file, err := grammar.ParseFile(`../examples/counter.sir`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	require.Len(t, file.Elements, 3)
	assert.Equal(t, "// Sums the integers below n and counts how many of them are even.", file.Elements[0].Comment.Text)

	versions := file.Versions()
	require.Len(t, versions, 1)
	assert.Equal(t, "1.0", versions[0].Value)
	assert.Equal(t, 2, versions[0].Pos.Line)

	fns := file.Functions()
	require.Len(t, fns, 1)
	fn := fns[0]
	assert.Equal(t, "sum", fn.Name.Value)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "n", fn.Params[0].Name.Value)
	assert.Equal(t, "i64", fn.Params[0].Type.Value)
	require.Len(t, fn.Returns, 2)
	assert.Equal(t, "evens", fn.Returns[1].Name.Value)

	stmts := fn.Body.Statements
	require.Len(t, stmts, 8)
	for i := 0; i < 4; i++ {
		assert.NotNil(t, stmts[i].Var, "statement %d", i)
	}
	require.NotNil(t, stmts[4].Assign)
	assert.Equal(t, "total", stmts[4].Assign.Dest.Value)
	assert.Equal(t, "const", stmts[4].Assign.Inst.Op.Value)
	assert.Equal(t, "0", *stmts[4].Assign.Inst.Operands[0].Integer)

	loop := stmts[6].For
	require.NotNil(t, loop)
	require.Len(t, loop.Cond.Statements, 2)
	assert.Equal(t, "br", loop.Cond.Statements[1].Inst.Op.Value)
	assert.Equal(t, "c", *loop.Cond.Statements[1].Inst.Operands[0].Ident)
	require.Len(t, loop.Body.Statements, 4)
	branch := loop.Body.Statements[3].If
	require.NotNil(t, branch)
	assert.Nil(t, branch.Else)
	assert.Len(t, branch.Then.Statements, 1)

	ret := stmts[7].Inst
	require.NotNil(t, ret)
	assert.Equal(t, "ret", ret.Op.Value)
	assert.Len(t, ret.Operands, 2)
}

func TestOperandKinds(t *testing.T) {
	file, err := grammar.ParseString("ops.sir", `func f() { x = call g, -3, 0x10, true, y; print; }`)
	require.NoError(t, err)

	body := file.Functions()[0].Body.Statements
	require.Len(t, body, 2)
	ops := body[0].Assign.Inst.Operands
	require.Len(t, ops, 5)
	assert.Equal(t, "g", *ops[0].Ident)
	assert.Equal(t, "-3", *ops[1].Integer)
	assert.Equal(t, "0x10", *ops[2].Integer)
	assert.Equal(t, "true", *ops[3].Bool)
	assert.Equal(t, "y", *ops[4].Ident)
	assert.Equal(t, 1, ops[1].Pos.Line)
	assert.Equal(t, 24, ops[1].Pos.Column)

	assert.Equal(t, "print", body[1].Inst.Op.Value)
	assert.Empty(t, body[1].Inst.Operands)
}

func TestStructuredStatements(t *testing.T) {
	src := `func f() {
    switch { br k; } case { a = const 1; } case { } case { { b = const 2; } }
    while { br k; } do { }
}`
	file, err := grammar.ParseString("s.sir", src)
	require.NoError(t, err)

	body := file.Functions()[0].Body.Statements
	require.Len(t, body, 2)
	require.NotNil(t, body[0].Switch)
	assert.Len(t, body[0].Switch.Cases, 3)
	assert.NotNil(t, body[0].Switch.Cases[2].Statements[0].Block)
	require.NotNil(t, body[1].While)
	assert.Nil(t, body[1].While.Step)
	assert.Empty(t, body[1].While.Body.Statements)
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := grammar.ParseString("bad.sir", "func f() {\n    x = add a b;\n}\n")
	require.Error(t, err)

	var pe participle.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad.sir", pe.Position().Filename)
	assert.Equal(t, 2, pe.Position().Line)
}

func TestFormatRoundTrip(t *testing.T) {
	for _, path := range []string{"../examples/counter.sir", "../examples/undefined.sir"} {
		t.Run(path, func(t *testing.T) {
			src, err := os.ReadFile(path)
			require.NoError(t, err)
			file, err := grammar.ParseString(path, string(src))
			require.NoError(t, err)
			assert.Equal(t, string(src), file.String())
		})
	}
}

func TestFormatNormalizesLayout(t *testing.T) {
	file, err := grammar.ParseString("f.sir", `version "1.0"; func f(a:i64)->(r:i64){r=copy a;if{br a;}then{}else{ret r;}}`)
	require.NoError(t, err)

	want := `version "1.0";

func f(a: i64) -> (r: i64) {
    r = copy a;
    if {
        br a;
    } then { } else {
        ret r;
    }
}
`
	assert.Equal(t, want, file.String())
}

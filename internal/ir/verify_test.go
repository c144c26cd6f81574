package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyReportsUndefinedUse(t *testing.T) {
	fn := NewFunction("f")
	x := fn.AddVariable("x", i64)
	b := fn.NewBlock("b")
	fn.Body().(*Sequence).Append(b)
	use := b.AppendInstruction(OpPrint, nil, V(x))

	violations := fn.Verify()
	require.Len(t, violations, 1)
	assert.Equal(t, UndefinedUse, violations[0].Kind)
	assert.Same(t, use.Uses()[0], violations[0].Use)
	assert.Equal(t, "undefined use of %x in b_0 at 0", violations[0].String())
}

func TestVerifyReportsPartiallyUndefinedUseWithoutMaterializing(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))

	violations := d.fn.Verify()
	require.Len(t, violations, 1)
	assert.Equal(t, PartiallyUndefinedUse, violations[0].Kind)
	assert.Equal(t, "possibly undefined use of %x in join_4 at 0", violations[0].String())
	assert.Empty(t, d.fn.incoming)
}

func TestVerifyReportsPartiallyUndefinedThroughMaterializedJoin(t *testing.T) {
	c := newChain(t)
	c.then1.AppendInstruction(OpConst, c.x, C(1, i64))
	c.then2.AppendInstruction(OpConst, c.x, C(2, i64))
	c.tail.AppendInstruction(OpPrint, nil, V(c.x))
	c.fn.Resolve(c.tail, c.x)
	require.True(t, c.join.Timeline(c.x).HasIncoming())

	violations := c.fn.Verify()
	require.Len(t, violations, 1)
	assert.Equal(t, PartiallyUndefinedUse, violations[0].Kind)
	assert.Same(t, c.tail, violations[0].Block)
}

func TestVerifyReportsDanglingAndMissingIncoming(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.els.AppendInstruction(OpConst, d.x, C(2, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))
	d.fn.Resolve(d.join, d.x)
	jt := d.join.Timeline(d.x)

	d.fork.RemoveCase(1)
	violations := d.fn.Verify()
	require.Len(t, violations, 1)
	assert.Equal(t, DanglingIncoming, violations[0].Kind)
	assert.Same(t, jt.IncomingFrom(d.els), violations[0].Incoming)
	assert.Equal(t, "dangling incoming node [else_2: %x@else_2] on %x@join_4", violations[0].String())

	assert.Equal(t, 1, d.fn.PruneIncoming())
	extra := d.fn.NewBlock("extra")
	d.fork.EmplaceCase(extra)
	violations = d.fn.Verify()
	require.Len(t, violations, 1)
	assert.Equal(t, MissingIncoming, violations[0].Kind)
	assert.Same(t, extra, violations[0].Missing)
	assert.Equal(t, "missing incoming node from extra_5 on %x@join_4", violations[0].String())
}

func TestDefineUndefined(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))
	d.fn.Resolve(d.join, d.x)
	n := d.join.Timeline(d.x).IncomingFrom(d.els)
	require.True(t, n.IsUndefined())

	vars := d.fn.DefineUndefined()
	assert.Equal(t, []*Variable{d.x}, vars)

	undef := d.fn.Entry()
	assert.Equal(t, "undef_5", undef.Label())
	require.Equal(t, 1, undef.Len())
	assert.Equal(t, OpUndef, undef.At(0).Op())
	assert.Same(t, undef.Timeline(d.x), n.Target())
	assert.Empty(t, d.fn.Verify())
	assert.Nil(t, d.fn.DefineUndefined(), "nothing left to define")
}

func TestFreeze(t *testing.T) {
	d := newDiamond(t)
	d.entry.AppendInstruction(OpConst, d.x, C(0, i64))
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))

	d.fn.Freeze()
	assert.True(t, d.fn.IsFrozen())
	assert.True(t, d.join.Timeline(d.x).HasIncoming(), "freezing resolves pending uses")
	assert.Panics(t, func() { d.fn.Split(d.join, 0) })
	assert.Panics(t, func() { d.fn.Freeze() })
}

func TestFrozenFunctionRejectsNewComponents(t *testing.T) {
	d := newDiamond(t)
	d.entry.AppendInstruction(OpConst, d.x, C(0, i64))
	d.fn.Freeze()

	assert.Panics(t, func() { d.fn.NewBlock("b") })
	assert.Panics(t, func() { d.fn.NewSequence() })
	assert.Panics(t, func() { d.fn.NewFork(d.then) })
	assert.Panics(t, func() { d.fn.NewLoop(nil, nil, nil, nil, nil) })
}

func TestFreezeRejectsIncompleteGraph(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(*PreconditionError)
		require.True(t, ok)
		assert.Equal(t, "Function.Freeze", err.Op)
		assert.Contains(t, err.Error(), "possibly undefined use of %x in join_4")
		assert.False(t, d.fn.IsFrozen())
	}()
	d.fn.Freeze()
}

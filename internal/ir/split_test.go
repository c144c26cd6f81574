package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSequenceElement(t *testing.T) {
	fn := NewFunction("f")
	x := fn.AddVariable("x", i64)
	b := fn.NewBlock("b")
	fn.Body().(*Sequence).Append(b)
	d1 := b.AppendInstruction(OpConst, x, C(1, i64))
	p1 := b.AppendInstruction(OpPrint, nil, V(x))
	d2 := b.AppendInstruction(OpConst, x, C(2, i64))
	p2 := b.AppendInstruction(OpPrint, nil, V(x))

	first, second := fn.Split(b, 2)
	require.Same(t, b, first)
	assert.Equal(t, []*Block{b, second}, Blocks(fn))
	assert.Equal(t, []*Instruction{d1, p1}, b.Instructions())
	assert.Equal(t, []*Instruction{d2, p2}, second.Instructions())
	assert.Equal(t, 0, d2.Index())
	assert.Same(t, second, d2.Block())

	assert.Equal(t, []*Block{b}, Predecessors(second))
	assert.Len(t, b.Timeline(x).Locals(), 1)
	assert.Len(t, second.Timeline(x).Locals(), 1)
	assert.Same(t, second.Timeline(x), d2.Def().Timeline().Owner())
	assert.Equal(t, ReachingDef{Def: d2.Def()}, fn.ReachingDef(p2.Uses()[0]))
	assert.Equal(t, ReachingDef{Def: d1.Def()}, fn.ReachingDef(p1.Uses()[0]))
}

func TestSplitMovesTailUsesToIncomingValue(t *testing.T) {
	fn := NewFunction("f")
	x := fn.AddVariable("x", i64)
	b := fn.NewBlock("b")
	fn.Body().(*Sequence).Append(b)
	def := b.AppendInstruction(OpConst, x, C(1, i64))
	use := b.AppendInstruction(OpPrint, nil, V(x))

	_, second := fn.Split(b, 1)
	u := use.Uses()[0]
	assert.Same(t, second.Timeline(x).IncomingTimeline(), u.Timeline())
	assert.Empty(t, def.Def().Timeline().Uses())
	assert.Equal(t, ReachingDef{Def: def.Def()}, fn.ReachingDef(u))
}

func TestSplitRepointsIncomingToNewBlock(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.then.AppendInstruction(OpConst, d.x, C(2, i64))
	d.els.AppendInstruction(OpConst, d.x, C(3, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))
	d.fn.Resolve(d.join, d.x)
	n := d.join.Timeline(d.x).IncomingFrom(d.then)
	require.NotNil(t, n)

	_, second := d.fn.Split(d.then, 1)

	p := PlacementOf(d.then)
	require.Equal(t, RoleSequenceElement, p.Role)
	assert.Equal(t, d.fork.Case(0), p.Parent)
	assert.Equal(t, []*Block{second, d.els}, Predecessors(d.join))
	assert.Same(t, second, n.Predecessor())
	assert.Same(t, second.Timeline(d.x), n.Target())
	assert.Empty(t, d.then.Timeline(d.x).Referrers())
	assert.Empty(t, d.fn.Verify())
}

func TestSplitWithoutMovedDefsKeepsTargets(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.then.AppendInstruction(OpPrint, nil, V(d.x))
	d.els.AppendInstruction(OpConst, d.x, C(2, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))
	d.fn.Resolve(d.join, d.x)
	n := d.join.Timeline(d.x).IncomingFrom(d.then)

	_, second := d.fn.Split(d.then, 1)
	assert.Same(t, second, n.Predecessor())
	assert.Same(t, d.then.Timeline(d.x), n.Target(), "the value leaving the new block is the one leaving the old")
	assert.Empty(t, d.fn.Verify())
}

func TestSplitForkCondition(t *testing.T) {
	d := newDiamond(t)
	d.cond.PrependInstruction(OpConst, d.x, C(5, i64))
	br := d.cond.Terminator()

	first, second := d.fn.Split(d.cond, 1)
	require.Same(t, d.cond, first)
	assert.Same(t, second, d.fork.Condition())
	assert.Same(t, br, second.Terminator())
	assert.Equal(t, RoleSequenceElement, PlacementOf(first).Role)
	assert.Equal(t, []*Block{d.entry, first, second, d.then, d.els, d.join}, Blocks(d.fn))
	assert.Equal(t, []*Block{first}, Predecessors(second))
	assert.Equal(t, []*Block{second}, Predecessors(d.then))

	reach := d.fn.ReachingDef(br.Uses()[0])
	require.NotNil(t, reach.Def)
	assert.Same(t, d.entry, reach.Def.Instruction().Block())
}

func TestSplitLoopAfter(t *testing.T) {
	w := newWhileLoop(t)
	w.after.AppendInstruction(OpConst, w.x, C(1, i64))
	w.after.AppendInstruction(OpPrint, nil, V(w.x))

	_, second := w.fn.Split(w.after, 1)
	assert.Same(t, w.after, w.loop.After())
	p := PlacementOf(second)
	assert.Equal(t, RoleSequenceElement, p.Role)
	assert.Equal(t, 2, p.Index)
	assert.Equal(t, []*Block{w.after}, Predecessors(second))
}

func TestSplitLoopBody(t *testing.T) {
	w := newWhileLoop(t)
	w.body.AppendInstruction(OpConst, w.x, C(1, i64))
	w.body.AppendInstruction(OpPrint, nil, V(w.x))

	_, second := w.fn.Split(w.body, 1)
	seq, ok := w.loop.Body().(*Sequence)
	require.True(t, ok)
	assert.Equal(t, []Component{w.body, second}, seq.Elements())
	assert.Equal(t, []*Block{second}, Predecessors(w.update))
	assert.Equal(t, []*Block{w.cond}, Predecessors(w.body))
}

func TestSplitLoopConditionPanics(t *testing.T) {
	w := newWhileLoop(t)
	assert.Panics(t, func() { w.fn.Split(w.cond, 0) })
}

func TestSplitOutOfRangePanics(t *testing.T) {
	d := newDiamond(t)
	assert.Panics(t, func() { d.fn.Split(d.entry, 5) })
}

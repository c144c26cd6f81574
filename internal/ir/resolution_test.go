package ir

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// ============================================================================
// End-to-end scenarios
// ============================================================================

func TestIfElseCreatesOneIncomingPair(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.els.AppendInstruction(OpConst, d.x, C(2, i64))
	use := d.join.AppendInstruction(OpPrint, nil, V(d.x))
	assert.False(t, d.join.Timeline(d.x).HasIncoming(), "defs alone never materialize a join")

	stack := d.fn.ResolveStack(d.join, d.x)
	created := stack.Created()
	require.Len(t, created, 2)

	jt := d.join.Timeline(d.x)
	assert.Equal(t, jt.Incoming(), created)
	assert.Equal(t, d.then, created[0].Predecessor())
	assert.Equal(t, d.then.Timeline(d.x), created[0].Target())
	assert.Equal(t, d.els, created[1].Predecessor())
	assert.Equal(t, d.els.Timeline(d.x), created[1].Target())

	r := stack.Resolution()
	assert.Equal(t, jt, r.Timeline())
	assert.True(t, r.AtTop())
	assert.Equal(t, ReachingDef{Join: jt}, d.fn.ReachingDef(use.Uses()[0]))

	frames := stack.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, d.join, frames[0].Join())
	assert.Equal(t, []*Block{d.then, d.els}, frames[0].Predecessors())
	paths := frames[0].Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, d.then.Timeline(d.x), paths[0].Timeline())
	assert.Equal(t, d.els.Timeline(d.x), paths[1].Timeline())
}

func TestHomogeneousPathsCreateNothing(t *testing.T) {
	d := newDiamond(t)
	def := d.entry.AppendInstruction(OpConst, d.x, C(1, i64))
	use := d.join.AppendInstruction(OpPrint, nil, V(d.x))
	before := len(d.fn.incoming)

	stack := d.fn.ResolveStack(d.join, d.x)
	assert.Empty(t, stack.Created())
	assert.Equal(t, before, len(d.fn.incoming))
	assert.Equal(t, d.entry.Timeline(d.x), stack.Resolution().Timeline())
	assert.False(t, stack.Resolution().AtTop())
	assert.False(t, d.join.Timeline(d.x).HasIncoming())
	assert.Equal(t, ReachingDef{Def: def.Def()}, d.fn.ReachingDef(use.Uses()[0]))
}

func TestLoopInvariantDefCreatesNoJoin(t *testing.T) {
	w := newWhileLoop(t)
	def := w.entry.AppendInstruction(OpConst, w.x, C(1, i64))
	use := w.body.AppendInstruction(OpPrint, nil, V(w.x))

	r := w.fn.Resolve(w.body, w.x)
	assert.Equal(t, w.entry.Timeline(w.x), r.Timeline())
	assert.Nil(t, w.cond.Timeline(w.x), "the condition never needs a timeline")
	assert.Equal(t, def.Def(), w.fn.ReachingDef(use.Uses()[0]).Def)

	r = w.fn.Resolve(w.after, w.x)
	assert.Equal(t, w.entry.Timeline(w.x), r.Timeline())
}

func TestNeverDefinedIsUndefined(t *testing.T) {
	w := newWhileLoop(t)
	use := w.body.AppendInstruction(OpPrint, nil, V(w.x))

	r := w.fn.Resolve(w.body, w.x)
	assert.True(t, r.IsUndefined())
	assert.Empty(t, r.Timelines())
	assert.True(t, w.fn.ReachingDef(use.Uses()[0]).IsUndefined())
	assert.Equal(t, "undef", w.fn.ReachingDef(use.Uses()[0]).String())
}

func TestTouchedButNeverDefinedTimeline(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpPrint, nil, V(d.x))
	tl := d.then.Timeline(d.x)
	require.NotNil(t, tl)
	assert.True(t, tl.IsEmpty())
	assert.False(t, tl.HasIncoming())
	assert.False(t, tl.HasLocalTimelines())
	assert.True(t, d.fn.Resolve(d.join, d.x).IsUndefined())
}

// ============================================================================
// Loops
// ============================================================================

func TestLoopCarriedDefJoinsAtCondition(t *testing.T) {
	w := newWhileLoop(t)
	w.entry.AppendInstruction(OpConst, w.x, C(0, i64))
	w.update.AppendInstruction(OpAdd, w.x, V(w.x), C(1, i64))

	stack := w.fn.ResolveStack(w.body, w.x)
	ct := w.cond.Timeline(w.x)
	require.NotNil(t, ct)
	require.Len(t, stack.Created(), 2)
	assert.Equal(t, ct, stack.Resolution().Timeline())

	in := ct.Incoming()
	assert.Equal(t, w.entry, in[0].Predecessor())
	assert.Equal(t, w.entry.Timeline(w.x), in[0].Target())
	assert.Equal(t, w.update, in[1].Predecessor())
	assert.Equal(t, w.update.Timeline(w.x), in[1].Target())

	// The use inside update sees the join too.
	r := w.fn.Resolve(w.update, w.x)
	assert.Equal(t, ct, r.Timeline())
	assert.Equal(t, ReachingDef{Join: ct}, r.Reaching())
}

func TestNestedLoopsWithoutDefsCreateNothing(t *testing.T) {
	fn := NewFunction("nested")
	x := fn.AddVariable("x", i64)
	entry := fn.NewBlock("entry")
	innerBody := fn.NewBlock("inner_body")
	inner := fn.NewLoop(nil, nil, innerBody, nil, nil)
	outer := fn.NewLoop(nil, nil, inner, nil, nil)
	body := fn.Body().(*Sequence)
	body.Append(entry)
	body.Append(outer)

	entry.AppendInstruction(OpConst, x, C(7, i64))
	innerBody.AppendInstruction(OpPrint, nil, V(x))

	stack := fn.ResolveStack(innerBody, x)
	assert.Empty(t, stack.Created())
	assert.Equal(t, entry.Timeline(x), stack.Resolution().Timeline())
	assert.Len(t, stack.Frames(), 2)
	assert.Empty(t, fn.Verify())
}

func TestDefInInnerLoopJoinsBothConditions(t *testing.T) {
	fn := NewFunction("nested")
	x := fn.AddVariable("x", i64)
	entry := fn.NewBlock("entry")
	innerBody := fn.NewBlock("inner_body")
	inner := fn.NewLoop(nil, nil, innerBody, nil, nil)
	outer := fn.NewLoop(nil, nil, inner, nil, nil)
	body := fn.Body().(*Sequence)
	body.Append(entry)
	body.Append(outer)

	entry.AppendInstruction(OpConst, x, C(0, i64))
	innerBody.AppendInstruction(OpAdd, x, V(x), C(1, i64))

	fn.ResolveAll()
	assert.True(t, inner.Condition().Timeline(x).HasIncoming())
	assert.True(t, outer.Condition().Timeline(x).HasIncoming())
	assert.Empty(t, fn.Verify())
}

// ============================================================================
// Properties
// ============================================================================

func TestResolutionIsDeterministic(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))

	first := d.fn.Resolve(d.join, d.x)
	count := len(d.fn.incoming)
	second := d.fn.Resolve(d.join, d.x)
	assert.True(t, first.Equal(second))
	assert.Equal(t, count, len(d.fn.incoming))
}

func TestMixedDefinedAndUndefinedIsHeterogeneous(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))

	stack := d.fn.ResolveStack(d.join, d.x)
	created := stack.Created()
	require.Len(t, created, 2)
	assert.False(t, created[0].IsUndefined())
	assert.True(t, created[1].IsUndefined())
	assert.Nil(t, created[1].Target())
}

func TestProbeDoesNotMaterialize(t *testing.T) {
	d := newDiamond(t)
	d.then.AppendInstruction(OpConst, d.x, C(1, i64))
	d.els.AppendInstruction(OpConst, d.x, C(2, i64))

	r := d.fn.Probe(d.join, d.x)
	assert.Equal(t, d.join, r.Join())
	assert.Nil(t, r.Timeline())
	assert.False(t, r.IsUndefined())
	assert.False(t, d.join.Timeline(d.x) != nil && d.join.Timeline(d.x).HasIncoming())
	assert.Empty(t, d.fn.incoming)
}

func TestResolveOnFrozenFunctionOnlyProbes(t *testing.T) {
	d := newDiamond(t)
	d.entry.AppendInstruction(OpConst, d.x, C(1, i64))
	d.join.AppendInstruction(OpPrint, nil, V(d.x))
	d.fn.Freeze()

	assert.Equal(t, d.entry.Timeline(d.x), d.fn.Resolve(d.join, d.x).Timeline())
	assert.Panics(t, func() { d.join.AppendInstruction(OpPrint, nil, V(d.x)) })
}

func TestResolutionMatchesReachingDefinitions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fn, x := genFunction(t)
		blocks := Blocks(fn)
		for i, b := range blocks {
			if rapid.IntRange(0, 3).Draw(t, "def") == 0 {
				b.AppendInstruction(OpConst, x, C(int64(i), i64))
			}
		}
		checkAgainstDataflow(t, fn, x)

		// Resolving again changes nothing.
		count := len(fn.incoming)
		for _, b := range blocks {
			fn.Resolve(b, x)
		}
		if len(fn.incoming) != count {
			t.Fatalf("second resolution created %d nodes", len(fn.incoming)-count)
		}
	})
}

func TestPropagationKeepsReachingDefinitions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fn, x := genFunction(t)
		blocks := Blocks(fn)
		for i, b := range blocks {
			if rapid.IntRange(0, 3).Draw(t, "def") == 0 {
				b.AppendInstruction(OpConst, x, C(int64(i), i64))
			}
		}
		for _, b := range blocks {
			fn.Resolve(b, x)
		}
		n := rapid.IntRange(1, 3).Draw(t, "edits")
		for i := 0; i < n; i++ {
			b := blocks[rapid.IntRange(0, len(blocks)-1).Draw(t, "block")]
			b.AppendInstruction(OpConst, x, C(100, i64))
		}
		checkAgainstDataflow(t, fn, x)
		for _, v := range fn.Verify() {
			if v.Kind == DanglingIncoming || v.Kind == MissingIncoming {
				t.Fatalf("%s", v)
			}
		}
	})
}

func TestCreatePhiKeepsReachingDefinitions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fn, x := genFunction(t)
		blocks := Blocks(fn)
		for i, b := range blocks {
			if rapid.IntRange(0, 3).Draw(t, "def") == 0 {
				b.AppendInstruction(OpConst, x, C(int64(i), i64))
			}
		}
		for _, b := range blocks {
			fn.Resolve(b, x)
		}
		phis := mapset.NewThreadUnsafeSet[NodeID]()
		n := rapid.IntRange(1, 2).Draw(t, "phis")
		for i := 0; i < n; i++ {
			b := blocks[rapid.IntRange(0, len(blocks)-1).Draw(t, "block")]
			if phis.Add(b.ID()) {
				b.CreatePhi(x)
			}
		}
		checkAgainstDataflow(t, fn, x)
		for _, v := range fn.Verify() {
			if v.Kind == DanglingIncoming || v.Kind == MissingIncoming {
				t.Fatalf("%s", v)
			}
		}
	})
}

func checkAgainstDataflow(t *rapid.T, fn *Function, x *Variable) {
	want := reachingSites(fn, x)
	for _, b := range Blocks(fn) {
		got := resolvedSites(fn.Resolve(b, x))
		if !got.Equal(want[b.ID()]) {
			t.Fatalf("%s: resolved %v, want %v", b, sortedIDs(got), sortedIDs(want[b.ID()]))
		}
	}
}

package ir

import (
	"sort"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"pgregory.net/rapid"
)

var (
	i64   = &IntType{Bits: 64}
	boolT = &BoolType{}
)

// diamond is entry; fork(cond, then, else); join.
type diamond struct {
	fn    *Function
	x     *Variable
	c     *Variable
	entry *Block
	fork  *Fork
	cond  *Block
	then  *Block
	els   *Block
	join  *Block
}

func newDiamond(t *testing.T) *diamond {
	t.Helper()
	fn := NewFunction("diamond")
	d := &diamond{
		fn: fn,
		x:  fn.AddVariable("x", i64),
		c:  fn.AddVariable("c", boolT),
	}
	d.entry = fn.NewBlock("entry")
	d.then = fn.NewBlock("then")
	d.els = fn.NewBlock("else")
	d.fork = fn.NewFork(nil, d.then, d.els)
	d.cond = d.fork.Condition()
	d.join = fn.NewBlock("join")

	body := fn.Body().(*Sequence)
	body.Append(d.entry)
	body.Append(d.fork)
	body.Append(d.join)

	d.entry.AppendInstruction(OpConst, d.c, C(1, boolT))
	d.cond.AppendInstruction(OpBranch, nil, V(d.c))
	return d
}

// whileLoop is entry; loop(start, cond, body, update, after).
type whileLoop struct {
	fn     *Function
	x      *Variable
	entry  *Block
	loop   *Loop
	cond   *Block
	body   *Block
	update *Block
	after  *Block
}

func newWhileLoop(t *testing.T) *whileLoop {
	t.Helper()
	fn := NewFunction("while")
	w := &whileLoop{fn: fn, x: fn.AddVariable("x", i64)}
	w.entry = fn.NewBlock("entry")
	w.body = fn.NewBlock("body")
	w.update = fn.NewBlock("update")
	w.loop = fn.NewLoop(nil, nil, w.body, w.update, nil)
	w.cond = w.loop.Condition()
	w.after = w.loop.After()

	seq := fn.Body().(*Sequence)
	seq.Append(w.entry)
	seq.Append(w.loop)
	return w
}

// genComponent draws a random structure of at most the given depth.
func genComponent(t *rapid.T, fn *Function, depth int) Component {
	kind := 0
	if depth > 0 {
		kind = rapid.IntRange(0, 4).Draw(t, "kind")
	}
	switch kind {
	case 1:
		n := rapid.IntRange(0, 3).Draw(t, "elements")
		elems := make([]Component, n)
		for i := range elems {
			elems[i] = genComponent(t, fn, depth-1)
		}
		return fn.NewSequence(elems...)
	case 2:
		n := rapid.IntRange(1, 3).Draw(t, "cases")
		cases := make([]Component, n)
		for i := range cases {
			cases[i] = genComponent(t, fn, depth-1)
		}
		return fn.NewFork(nil, cases...)
	case 3:
		return fn.NewLoop(
			genComponent(t, fn, depth-1),
			nil,
			genComponent(t, fn, depth-1),
			genComponent(t, fn, depth-1),
			nil,
		)
	default:
		return fn.NewBlock("b")
	}
}

// genFunction draws a function whose body starts with a dedicated entry
// block, like lowered code does.
func genFunction(t *rapid.T) (*Function, *Variable) {
	fn := NewFunction("gen")
	x := fn.AddVariable("x", i64)
	body := fn.Body().(*Sequence)
	body.Append(fn.NewBlock("entry"))
	n := rapid.IntRange(1, 3).Draw(t, "top")
	for i := 0; i < n; i++ {
		body.Append(genComponent(t, fn, 3))
	}
	return fn, x
}

const undefSite NodeID = 0

// reachingSites computes, by iterative dataflow over the structural
// predecessor relation, which blocks' defs of v reach the top of each
// block. undefSite stands for the function entry without a def.
func reachingSites(fn *Function, v *Variable) map[NodeID]mapset.Set[NodeID] {
	blocks := Blocks(fn)
	in := make(map[NodeID]mapset.Set[NodeID], len(blocks))
	out := make(map[NodeID]mapset.Set[NodeID], len(blocks))
	for _, b := range blocks {
		in[b.id] = mapset.NewThreadUnsafeSet[NodeID]()
		out[b.id] = mapset.NewThreadUnsafeSet[NodeID]()
	}
	for changed := true; changed; {
		changed = false
		for _, b := range blocks {
			preds := Predecessors(b)
			next := mapset.NewThreadUnsafeSet[NodeID]()
			if len(preds) == 0 {
				next.Add(undefSite)
			}
			for _, p := range preds {
				next = next.Union(out[p.id])
			}
			if !next.Equal(in[b.id]) {
				in[b.id] = next
				changed = true
			}
			o := next
			if b.LatestDef(v) != nil {
				o = mapset.NewThreadUnsafeSet[NodeID](b.id)
			}
			if !o.Equal(out[b.id]) {
				out[b.id] = o
				changed = true
			}
		}
	}
	return in
}

// resolvedSites expands a resolution through joins to the blocks whose
// defs it merges.
func resolvedSites(r Resolution) mapset.Set[NodeID] {
	sites := mapset.NewThreadUnsafeSet[NodeID]()
	seen := mapset.NewThreadUnsafeSet[TimelineID]()
	switch {
	case r.IsUndefined():
		sites.Add(undefSite)
	case r.AtTop():
		expandTop(r.Timeline(), sites, seen)
	default:
		expandBottom(r.Timeline(), sites, seen)
	}
	return sites
}

func expandTop(t *DefTimeline, sites mapset.Set[NodeID], seen mapset.Set[TimelineID]) {
	if !seen.Add(t.ID()) {
		return
	}
	for _, n := range t.Incoming() {
		if n.Target() == nil {
			sites.Add(undefSite)
			continue
		}
		expandBottom(n.Target(), sites, seen)
	}
}

func expandBottom(t *DefTimeline, sites mapset.Set[NodeID], seen mapset.Set[TimelineID]) {
	if t.HasLocalTimelines() {
		sites.Add(t.Block().ID())
		return
	}
	expandTop(t, sites, seen)
}

func sortedIDs(s mapset.Set[NodeID]) []NodeID {
	ids := s.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

package ir

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

type valueKind uint8

const (
	valueUndefined valueKind = iota
	valueTimeline
	// valuePending is the value at the top of a join whose frame is still
	// being resolved.
	valuePending
	// valueJoin is the value at the top of a join whose paths disagree.
	valueJoin
)

// reachValue is what flows along a single path: nothing, the value leaving
// an explicit timeline, or the value at the top of a join block.
type reachValue struct {
	kind     valueKind
	timeline *DefTimeline
	block    *Block
}

var undefinedValue = reachValue{}

func timelineValue(t *DefTimeline) reachValue { return reachValue{kind: valueTimeline, timeline: t} }
func pendingValue(b *Block) reachValue        { return reachValue{kind: valuePending, block: b} }
func joinValue(b *Block) reachValue           { return reachValue{kind: valueJoin, block: b} }

func (v reachValue) String() string {
	switch v.kind {
	case valueTimeline:
		return v.timeline.String()
	case valuePending:
		return "pending(" + v.block.label + ")"
	case valueJoin:
		return "join(" + v.block.label + ")"
	default:
		return "undef"
	}
}

func appendValue(values []reachValue, v reachValue) []reachValue {
	for _, x := range values {
		if x == v {
			return values
		}
	}
	return append(values, v)
}

// Resolution is the reaching definition of a variable at the top of a
// block: either undefined, or the single DefTimeline whose outgoing value
// reaches it. A probe that does not materialize joins reports the join
// block instead of a timeline when paths disagree.
type Resolution struct {
	timeline *DefTimeline
	join     *Block
	top      bool
}

// IsUndefined reports whether no definition reaches along any path.
func (r Resolution) IsUndefined() bool { return r.timeline == nil && r.join == nil }

// Timeline returns the resolved timeline, or nil.
func (r Resolution) Timeline() *DefTimeline { return r.timeline }

// Timelines returns the resolution as a set: empty or a singleton.
func (r Resolution) Timelines() []*DefTimeline {
	if r.timeline == nil {
		return nil
	}
	return []*DefTimeline{r.timeline}
}

// Join returns the block where a join would have to be created. It is only
// set on probes.
func (r Resolution) Join() *Block { return r.join }

// AtTop reports whether the timeline stands for the join at the top of its
// own block rather than for the value leaving the block.
func (r Resolution) AtTop() bool { return r.top }

// Equal compares resolutions by timeline identity.
func (r Resolution) Equal(o Resolution) bool { return r == o }

// Reaching translates the resolution into the definition it denotes.
func (r Resolution) Reaching() ReachingDef {
	switch {
	case r.timeline == nil:
		return ReachingDef{}
	case r.top:
		return ReachingDef{Join: r.timeline}
	default:
		return r.timeline.Outgoing()
	}
}

func (r Resolution) String() string {
	switch {
	case r.timeline != nil:
		return "{" + r.timeline.String() + "}"
	case r.join != nil:
		return "{join " + r.join.label + "}"
	default:
		return "{}"
	}
}

// DefResolutionFrame is one join block crossed while resolving, with one
// path per predecessor of the join.
type DefResolutionFrame struct {
	stack  *DefResolutionStack
	join   *Block
	preds  []*Block
	values []reachValue
	result reachValue
}

func (f *DefResolutionFrame) Join() *Block { return f.join }

// Predecessors returns the predecessor blocks in the join's predecessor
// order.
func (f *DefResolutionFrame) Predecessors() []*Block { return append([]*Block(nil), f.preds...) }

// Paths returns the resolution of each predecessor path once the stack is
// resolved.
func (f *DefResolutionFrame) Paths() []Resolution {
	result := make([]Resolution, len(f.values))
	for i, v := range f.values {
		result[i] = f.stack.export(v)
	}
	return result
}

// Result returns the resolution the frame forwarded upward.
func (f *DefResolutionFrame) Result() Resolution { return f.stack.export(f.result) }

// virtualPhi is a heterogeneous join discovered by the stack. It becomes
// incoming nodes only if it survives trivial-join elimination.
type virtualPhi struct {
	frame      *DefResolutionFrame
	eliminated bool
}

// DefResolutionStack resolves the reaching definition of one variable at
// the top of one block. Frames are pushed for every join crossed on the way
// up and joined bottom-up once all of their paths are known.
type DefResolutionStack struct {
	fn          *Function
	leaf        *Block
	variable    *Variable
	materialize bool
	epoch       uint64

	frames   []*DefResolutionFrame
	active   []*DefResolutionFrame
	onStack  mapset.Set[NodeID]
	tops     map[NodeID]reachValue
	replaced map[NodeID]reachValue
	phis     []*virtualPhi
	created  []*IncomingNode
	root     reachValue
}

func newDefResolutionStack(leaf *Block, v *Variable, materialize bool) *DefResolutionStack {
	return &DefResolutionStack{
		fn:          leaf.fn,
		leaf:        leaf,
		variable:    v,
		materialize: materialize,
		onStack:     mapset.NewThreadUnsafeSet[NodeID](),
		tops:        make(map[NodeID]reachValue),
		replaced:    make(map[NodeID]reachValue),
	}
}

func (s *DefResolutionStack) Leaf() *Block           { return s.leaf }
func (s *DefResolutionStack) Variable() *Variable    { return s.variable }
func (s *DefResolutionStack) Resolution() Resolution { return s.export(s.root) }

// Frames returns every frame pushed, in push order.
func (s *DefResolutionStack) Frames() []*DefResolutionFrame {
	return append([]*DefResolutionFrame(nil), s.frames...)
}

// Created returns the incoming nodes this resolution materialized.
func (s *DefResolutionStack) Created() []*IncomingNode {
	return append([]*IncomingNode(nil), s.created...)
}

func (s *DefResolutionStack) export(v reachValue) Resolution {
	v = s.canon(v)
	switch v.kind {
	case valueTimeline:
		return Resolution{timeline: v.timeline}
	case valueJoin:
		if t := v.block.Timeline(s.variable); t != nil && t.HasIncoming() {
			return Resolution{timeline: t, top: true}
		}
		return Resolution{join: v.block}
	default:
		return Resolution{}
	}
}

// canon follows completed frames and eliminated joins to the value they
// stand for.
func (s *DefResolutionStack) canon(v reachValue) reachValue {
	for i := 0; i <= 2*len(s.frames)+1; i++ {
		var next reachValue
		var ok bool
		switch v.kind {
		case valuePending:
			next, ok = s.tops[v.block.id]
		case valueJoin:
			next, ok = s.replaced[v.block.id]
		}
		if !ok {
			return v
		}
		v = next
	}
	panic(&PreconditionError{Op: "Resolve", Message: "cyclic resolution of " + s.variable.String()})
}

// explicit returns the value leaving b if b's timeline decides it.
func (s *DefResolutionStack) explicit(b *Block) (reachValue, bool) {
	if t := b.Timeline(s.variable); t != nil && t.Explicit() {
		return timelineValue(t), true
	}
	return reachValue{}, false
}

// walk follows single-predecessor edges upward from the top of x. It
// returns the value flowing into x when that is known without a new frame,
// or the join block that needs one.
func (s *DefResolutionStack) walk(x *Block) (reachValue, *Block) {
	seen := mapset.NewThreadUnsafeSet[NodeID](x.id)
	if t := x.Timeline(s.variable); t != nil && t.HasIncoming() {
		return joinValue(x), nil
	}
	for {
		preds := Predecessors(x)
		switch len(preds) {
		case 0:
			return undefinedValue, nil
		case 1:
			p := preds[0]
			if v, ok := s.explicit(p); ok {
				return v, nil
			}
			if !seen.Add(p.id) {
				return undefinedValue, nil
			}
			x = p
		default:
			if s.onStack.Contains(x.id) {
				return pendingValue(x), nil
			}
			if v, ok := s.tops[x.id]; ok {
				return v, nil
			}
			return reachValue{}, x
		}
	}
}

func (s *DefResolutionStack) push(join *Block) {
	f := &DefResolutionFrame{
		stack: s,
		join:  join,
		preds: Predecessors(join),
	}
	s.frames = append(s.frames, f)
	s.active = append(s.active, f)
	s.onStack.Add(join.id)
}

// run builds and resolves the stack.
func (s *DefResolutionStack) run() {
	root, join := s.walk(s.leaf)
	if join == nil {
		s.root = root
		s.finish()
		return
	}
	s.push(join)
	for len(s.active) > 0 {
		f := s.active[len(s.active)-1]
		if i := len(f.values); i < len(f.preds) {
			p := f.preds[i]
			if v, ok := s.explicit(p); ok {
				f.values = append(f.values, v)
				continue
			}
			v, inner := s.walk(p)
			if inner != nil {
				s.push(inner)
				continue
			}
			f.values = append(f.values, v)
			continue
		}
		s.active = s.active[:len(s.active)-1]
		s.onStack.Remove(f.join.id)
		f.result = s.joinFrame(f)
		s.tops[f.join.id] = f.result
	}
	s.root = s.canon(pendingValue(join))
	s.finish()
}

// joinFrame forwards the common value of all paths, or records a join when
// the paths disagree. Paths that lead back into the frame's own join are
// ignored.
func (s *DefResolutionStack) joinFrame(f *DefResolutionFrame) reachValue {
	var distinct []reachValue
	for _, v := range f.values {
		v = s.canon(v)
		if v.block == f.join && (v.kind == valuePending || v.kind == valueJoin) {
			continue
		}
		distinct = appendValue(distinct, v)
	}
	switch len(distinct) {
	case 0:
		return undefinedValue
	case 1:
		return distinct[0]
	}
	s.phis = append(s.phis, &virtualPhi{frame: f})
	return joinValue(f.join)
}

// finish drops joins that, once every frame is known, only merge themselves
// with a single other value, then materializes the survivors.
func (s *DefResolutionStack) finish() {
	for changed := true; changed; {
		changed = false
		for _, phi := range s.phis {
			if phi.eliminated {
				continue
			}
			join := phi.frame.join
			var distinct []reachValue
			for _, v := range phi.frame.values {
				v = s.canon(v)
				if v.block == join && (v.kind == valuePending || v.kind == valueJoin) {
					continue
				}
				distinct = appendValue(distinct, v)
			}
			if len(distinct) > 1 {
				continue
			}
			r := undefinedValue
			if len(distinct) == 1 {
				r = distinct[0]
			}
			s.replaced[join.id] = r
			phi.eliminated = true
			changed = true
		}
	}
	s.root = s.canon(s.root)

	if s.materialize {
		for _, phi := range s.phis {
			if !phi.eliminated {
				s.materializeJoin(phi.frame)
			}
		}
	}
	s.epoch = s.fn.epoch
	log.Debugf("resolved %s at %s: %s (%d frames, %d created)",
		s.variable, s.leaf.label, s.export(s.root), len(s.frames), len(s.created))
}

func (s *DefResolutionStack) materializeJoin(f *DefResolutionFrame) {
	t := f.join.timelineFor(s.variable)
	for i, pred := range f.preds {
		var target *DefTimeline
		switch v := s.canon(f.values[i]); v.kind {
		case valueTimeline:
			target = v.timeline
		case valueJoin:
			target = v.block.timelineFor(s.variable)
		case valuePending:
			panic(&PreconditionError{Op: "Resolve", Message: fmt.Sprintf("unresolved path %s into %s", v, f.join.label)})
		}
		s.created = append(s.created, t.AppendIncoming(pred, target))
	}
}

type resolutionKey struct {
	block    NodeID
	variable VariableID
	probe    bool
}

// ResolveStack resolves v at the top of leaf, materializing incoming nodes
// on every join whose paths disagree. Results are memoized until the next
// edit of the function.
func (f *Function) ResolveStack(leaf *Block, v *Variable) *DefResolutionStack {
	return f.resolve(leaf, v, true)
}

// Resolve returns the reaching definition of v at the top of leaf.
func (f *Function) Resolve(leaf *Block, v *Variable) Resolution {
	return f.resolve(leaf, v, true).Resolution()
}

// Probe resolves like Resolve but never creates incoming nodes. A join
// that would be needed is reported through Resolution.Join.
func (f *Function) Probe(leaf *Block, v *Variable) Resolution {
	return f.resolve(leaf, v, false).Resolution()
}

func (f *Function) resolve(leaf *Block, v *Variable, materialize bool) *DefResolutionStack {
	assertf(leaf.fn == f && v.fn == f, "Resolve", "block and variable must belong to %s", f.name)
	assertf(leaf.HasParent(), "Resolve", "block %s is detached", leaf.label)
	key := resolutionKey{block: leaf.id, variable: v.id, probe: !materialize}
	if s, ok := f.memo[key]; ok && s.epoch == f.epoch {
		return s
	}
	s := newDefResolutionStack(leaf, v, materialize && !f.frozen)
	s.run()
	f.memo[key] = s
	return s
}

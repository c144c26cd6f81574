package ir

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// ViolationKind classifies what Verify found.
type ViolationKind uint8

const (
	// UndefinedUse is a use no definition reaches on any path.
	UndefinedUse ViolationKind = iota + 1
	// PartiallyUndefinedUse is a use some path reaches without a definition.
	PartiallyUndefinedUse
	// DanglingIncoming is an incoming node whose predecessor edge no longer
	// exists or whose target no longer decides a value.
	DanglingIncoming
	// MissingIncoming is a joined timeline lacking a node for one of its
	// block's predecessors.
	MissingIncoming
)

func (k ViolationKind) String() string {
	switch k {
	case UndefinedUse:
		return "undefined use"
	case PartiallyUndefinedUse:
		return "possibly undefined use"
	case DanglingIncoming:
		return "dangling incoming node"
	case MissingIncoming:
		return "missing incoming node"
	default:
		return "unknown"
	}
}

// Violation is one finding of Verify.
type Violation struct {
	Kind     ViolationKind
	Block    *Block
	Variable *Variable
	Use      *Use
	Incoming *IncomingNode
	// Missing is the predecessor lacking an incoming node.
	Missing *Block
}

func (v Violation) String() string {
	switch {
	case v.Use != nil:
		return fmt.Sprintf("%s of %s in %s at %d", v.Kind, v.Variable, v.Block.label, v.Use.user.index)
	case v.Incoming != nil:
		return fmt.Sprintf("%s %s on %s", v.Kind, v.Incoming, v.Incoming.Owner())
	case v.Missing != nil:
		return fmt.Sprintf("%s from %s on %s@%s", v.Kind, v.Missing.label, v.Variable, v.Block.label)
	default:
		return fmt.Sprintf("%s of %s in %s", v.Kind, v.Variable, v.Block.label)
	}
}

// Verify checks the def/use graph without changing it: every use must be
// reached by a definition on all paths, and every joined timeline must have
// exactly one live incoming node per predecessor.
func (f *Function) Verify() []Violation {
	var violations []Violation
	for _, b := range Blocks(f) {
		preds := Predecessors(b)
		for _, t := range b.Timelines() {
			violations = append(violations, f.verifyIncoming(t, preds)...)
			if t.stub == nil || len(t.stub.uses) == 0 {
				continue
			}
			kind, ok := f.undefinedKind(b, t.variable)
			if !ok {
				continue
			}
			for _, u := range t.stub.uses {
				violations = append(violations, Violation{
					Kind:     kind,
					Block:    b,
					Variable: t.variable,
					Use:      u,
				})
			}
		}
	}
	return violations
}

func (f *Function) verifyIncoming(t *DefTimeline, preds []*Block) []Violation {
	if !t.HasIncoming() {
		return nil
	}
	var violations []Violation
	for _, n := range t.Incoming() {
		target := n.Target()
		dangling := !containsBlock(preds, n.pred)
		if target != nil && (target.IsEmpty() || !Contains(f, target.block)) {
			dangling = true
		}
		if dangling {
			violations = append(violations, Violation{
				Kind:     DanglingIncoming,
				Block:    t.block,
				Variable: t.variable,
				Incoming: n,
			})
		}
	}
	for _, p := range preds {
		if t.IncomingFrom(p) == nil {
			violations = append(violations, Violation{
				Kind:     MissingIncoming,
				Block:    t.block,
				Variable: t.variable,
				Missing:  p,
			})
		}
	}
	return violations
}

// undefinedKind reports whether v may be undefined at the top of b.
func (f *Function) undefinedKind(b *Block, v *Variable) (ViolationKind, bool) {
	s := f.resolve(b, v, false)
	root := s.canon(s.root)
	if root.kind == valueUndefined {
		return UndefinedUse, true
	}
	if f.mayBeUndefined(s, root, mapset.NewThreadUnsafeSet[TimelineID](), mapset.NewThreadUnsafeSet[NodeID]()) {
		return PartiallyUndefinedUse, true
	}
	return 0, false
}

// mayBeUndefined walks joins, virtual or materialized, looking for a path
// without a definition.
func (f *Function) mayBeUndefined(s *DefResolutionStack, val reachValue, seenTimelines mapset.Set[TimelineID], seenJoins mapset.Set[NodeID]) bool {
	val = s.canon(val)
	switch val.kind {
	case valueUndefined:
		return true
	case valueTimeline:
		return f.timelineMayBeUndefined(val.timeline, seenTimelines)
	case valueJoin:
		if t := val.block.Timeline(s.variable); t != nil && t.HasIncoming() {
			return f.timelineMayBeUndefined(t, seenTimelines)
		}
		if !seenJoins.Add(val.block.id) {
			return false
		}
		for _, phi := range s.phis {
			if phi.eliminated || phi.frame.join != val.block {
				continue
			}
			for _, op := range phi.frame.values {
				if f.mayBeUndefined(s, op, seenTimelines, seenJoins) {
					return true
				}
			}
		}
	}
	return false
}

func (f *Function) timelineMayBeUndefined(t *DefTimeline, seen mapset.Set[TimelineID]) bool {
	if t.HasLocalTimelines() || !seen.Add(t.id) {
		return false
	}
	if !t.HasIncoming() {
		s := f.resolve(t.block, t.variable, false)
		return f.mayBeUndefined(s, s.root, seen, mapset.NewThreadUnsafeSet[NodeID]())
	}
	for _, n := range t.Incoming() {
		target := n.Target()
		if target == nil || f.timelineMayBeUndefined(target, seen) {
			return true
		}
	}
	return false
}

// Freeze resolves every pending use and seals the function against
// further edits. It panics if the def/use graph is not complete.
func (f *Function) Freeze() {
	f.mutable("Function.Freeze")
	f.ResolveAll()
	if violations := f.Verify(); len(violations) > 0 {
		panic(&PreconditionError{
			Op:      "Function.Freeze",
			Message: fmt.Sprintf("%d violations, first: %s", len(violations), violations[0]),
		})
	}
	f.frozen = true
	log.Infof("froze %s", f.name)
}

// DefineUndefined gives every variable that may be used undefined an
// explicit undef definition in a new block at the start of the function and
// returns those variables.
func (f *Function) DefineUndefined() []*Variable {
	f.mutable("Function.DefineUndefined")
	seen := mapset.NewThreadUnsafeSet[VariableID]()
	var vars []*Variable
	for _, v := range f.Verify() {
		if v.Kind != UndefinedUse && v.Kind != PartiallyUndefinedUse {
			continue
		}
		if seen.Add(v.Variable.id) {
			vars = append(vars, v.Variable)
		}
	}
	if len(vars) == 0 {
		return nil
	}

	entry := f.NewBlock("undef")
	if s, ok := f.body.(*Sequence); ok {
		s.Insert(0, entry)
	} else {
		old := f.body
		seq := f.NewSequence()
		f.SetBody(seq)
		seq.Append(entry)
		seq.Append(old)
	}
	for _, succ := range Successors(entry) {
		for _, t := range succ.Timelines() {
			if t.HasIncoming() && t.IncomingFrom(entry) == nil {
				t.AppendIncoming(entry, nil)
			}
		}
	}
	for _, v := range vars {
		entry.AppendInstruction(OpUndef, v)
	}
	log.Warningf("%s: defined %d variables as undef", f.name, len(vars))
	return vars
}

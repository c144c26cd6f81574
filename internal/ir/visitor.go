package ir

// Visitor dispatches on the concrete component kind. Accept performs the
// dispatch; the set of kinds is closed so no acceptor layer is needed.
type Visitor[R any] interface {
	VisitBlock(b *Block) R
	VisitSequence(s *Sequence) R
	VisitFork(f *Fork) R
	VisitLoop(l *Loop) R
	VisitFunction(fn *Function) R
}

// Accept calls the visit method matching c's kind.
func Accept[R any](c Component, v Visitor[R]) R {
	switch c := c.(type) {
	case *Block:
		return v.VisitBlock(c)
	case *Sequence:
		return v.VisitSequence(c)
	case *Fork:
		return v.VisitFork(c)
	case *Loop:
		return v.VisitLoop(c)
	case *Function:
		return v.VisitFunction(c)
	default:
		assertf(false, "Accept", "unknown component %T", c)
		var zero R
		return zero
	}
}

// Children returns the direct sub-components of c in descending order:
// sequence elements in order; fork condition then cases; loop start,
// condition, body, update, after; function body.
func Children(c Component) []Component {
	switch c := c.(type) {
	case *Sequence:
		return c.Elements()
	case *Fork:
		return append([]Component{c.condition}, c.cases...)
	case *Loop:
		return []Component{c.start, c.condition, c.body, c.update, c.after}
	case *Function:
		return []Component{c.body}
	default:
		return nil
	}
}

// DescendingVisitor is the per-algorithm part of a top-down walk. Block is
// evaluated at every block, Combine folds sibling results and Stop ends the
// walk early once the accumulated result is final.
type DescendingVisitor[R any] interface {
	Block(b *Block) R
	Combine(acc, next R) R
	Stop(acc R) bool
}

// Descend walks c top-down in Children order.
func Descend[R any](c Component, v DescendingVisitor[R]) R {
	if b, ok := c.(*Block); ok {
		return v.Block(b)
	}

	var acc R
	first := true
	for _, child := range Children(c) {
		r := Descend(child, v)
		if first {
			acc, first = r, false
		} else {
			acc = v.Combine(acc, r)
		}
		if v.Stop(acc) {
			return acc
		}
	}
	return acc
}

// Role is the structural position a component holds in its parent.
type Role uint8

const (
	RoleNone Role = iota
	RoleSequenceElement
	RoleForkCondition
	RoleForkCase
	RoleLoopStart
	RoleLoopCondition
	RoleLoopBody
	RoleLoopUpdate
	RoleLoopAfter
	RoleFunctionBody
)

func (r Role) String() string {
	switch r {
	case RoleSequenceElement:
		return "element"
	case RoleForkCondition:
		return "condition"
	case RoleForkCase:
		return "case"
	case RoleLoopStart:
		return "start"
	case RoleLoopCondition:
		return "loop condition"
	case RoleLoopBody:
		return "body"
	case RoleLoopUpdate:
		return "update"
	case RoleLoopAfter:
		return "after"
	case RoleFunctionBody:
		return "function body"
	default:
		return "none"
	}
}

// Placement locates a component inside its parent.
type Placement struct {
	Parent Component
	Role   Role
	Index  int
}

// PlacementOf reports which role c plays in its immediate parent. A
// component without a parent has RoleNone.
func PlacementOf(c Component) Placement {
	parent := c.Parent()
	switch p := parent.(type) {
	case *Sequence:
		i := p.IndexOf(c)
		assertf(i >= 0, "PlacementOf", "%s %d is not an element of its parent", c.Kind(), c.ID())
		return Placement{Parent: p, Role: RoleSequenceElement, Index: i}
	case *Fork:
		if c == Component(p.condition) {
			return Placement{Parent: p, Role: RoleForkCondition}
		}
		i := p.IndexOfCase(c)
		assertf(i >= 0, "PlacementOf", "%s %d is not a case of its parent", c.Kind(), c.ID())
		return Placement{Parent: p, Role: RoleForkCase, Index: i}
	case *Loop:
		r := p.RoleOf(c)
		assertf(r != RoleNone, "PlacementOf", "%s %d is not a member of its parent", c.Kind(), c.ID())
		return Placement{Parent: p, Role: r}
	case *Function:
		return Placement{Parent: p, Role: RoleFunctionBody}
	default:
		return Placement{}
	}
}

// AscendingVisitor is the per-algorithm part of a bottom-up walk. Each
// method receives the parent and the position of the subcomponent the walk
// is coming from and returns true to stop. Reaching the function root ends
// the walk without a call.
type AscendingVisitor interface {
	SequenceElement(s *Sequence, index int) (stop bool)
	ForkCondition(f *Fork) (stop bool)
	ForkCase(f *Fork, index int) (stop bool)
	LoopMember(l *Loop, role Role) (stop bool)
}

// Ascend walks from sub up to the function root, dispatching on the role
// sub plays in each successive parent.
func Ascend(sub Component, v AscendingVisitor) {
	for sub != nil && sub.HasParent() {
		p := PlacementOf(sub)
		var stop bool
		switch p.Role {
		case RoleSequenceElement:
			stop = v.SequenceElement(p.Parent.(*Sequence), p.Index)
		case RoleForkCondition:
			stop = v.ForkCondition(p.Parent.(*Fork))
		case RoleForkCase:
			stop = v.ForkCase(p.Parent.(*Fork), p.Index)
		case RoleLoopStart, RoleLoopCondition, RoleLoopBody, RoleLoopUpdate, RoleLoopAfter:
			stop = v.LoopMember(p.Parent.(*Loop), p.Role)
		case RoleFunctionBody:
			return
		}
		if stop {
			return
		}
		sub = p.Parent
	}
}

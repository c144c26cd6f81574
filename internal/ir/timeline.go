package ir

import (
	"fmt"
	"sort"
)

// UseTimeline is one definition of a variable inside a block together with
// the ordered uses that observe it. The synthetic incoming timeline of a
// DefTimeline has no def: its uses observe the value flowing into the block.
type UseTimeline struct {
	owner *DefTimeline
	def   *Def
	uses  []*Use
}

func (t *UseTimeline) Owner() *DefTimeline { return t.owner }
func (t *UseTimeline) Def() *Def           { return t.def }
func (t *UseTimeline) Uses() []*Use        { return append([]*Use(nil), t.uses...) }
func (t *UseTimeline) NumUses() int        { return len(t.uses) }
func (t *UseTimeline) IsIncoming() bool    { return t.def == nil }

// Position returns the defining instruction, or nil for the incoming
// timeline.
func (t *UseTimeline) Position() *Instruction {
	if t.def == nil {
		return nil
	}
	return t.def.inst
}

func (t *UseTimeline) index() int {
	if t.def == nil {
		return -1
	}
	return t.def.inst.index
}

func (t *UseTimeline) addUse(u *Use) {
	u.timeline = t
	i := sort.Search(len(t.uses), func(i int) bool {
		o := t.uses[i]
		if o.user.index != u.user.index {
			return o.user.index > u.user.index
		}
		return o.slot > u.slot
	})
	t.uses = append(t.uses, nil)
	copy(t.uses[i+1:], t.uses[i:])
	t.uses[i] = u
}

func (t *UseTimeline) removeUse(u *Use) {
	for i, x := range t.uses {
		if x == u {
			t.uses = append(t.uses[:i], t.uses[i+1:]...)
			return
		}
	}
}

// resort restores use order after instructions were renumbered.
func (t *UseTimeline) resort() {
	sort.SliceStable(t.uses, func(i, j int) bool {
		a, b := t.uses[i], t.uses[j]
		if a.user.index != b.user.index {
			return a.user.index < b.user.index
		}
		return a.slot < b.slot
	})
}

// DefTimeline is a block's record of one variable: the incoming nodes that
// link it to predecessor timelines, the optional incoming use timeline that
// local uses observe before the first local def, and the local def/use
// timelines in instruction order.
type DefTimeline struct {
	id        TimelineID
	fn        *Function
	block     *Block
	variable  *Variable
	incoming  []IncomingID
	stub      *UseTimeline
	locals    []*UseTimeline
	referrers []IncomingID
}

func (t *DefTimeline) ID() TimelineID                 { return t.id }
func (t *DefTimeline) Block() *Block                  { return t.block }
func (t *DefTimeline) Variable() *Variable            { return t.variable }
func (t *DefTimeline) HasIncoming() bool              { return len(t.incoming) > 0 }
func (t *DefTimeline) HasLocalTimelines() bool        { return len(t.locals) > 0 }
func (t *DefTimeline) Locals() []*UseTimeline         { return append([]*UseTimeline(nil), t.locals...) }
func (t *DefTimeline) IncomingTimeline() *UseTimeline { return t.stub }

// IsEmpty reports whether the timeline neither defines the variable nor
// links to predecessors. Such a timeline is legal: the block touched the
// variable without defining it, and its value is whatever flows in.
func (t *DefTimeline) IsEmpty() bool {
	return len(t.incoming) == 0 && len(t.locals) == 0
}

// unused reports whether nothing refers to t any more.
func (t *DefTimeline) unused() bool {
	return t.IsEmpty() && len(t.referrers) == 0 && (t.stub == nil || len(t.stub.uses) == 0)
}

// Explicit reports whether the timeline determines the variable's value at
// the end of its block on its own.
func (t *DefTimeline) Explicit() bool { return !t.IsEmpty() }

// Last returns the last local timeline, or nil.
func (t *DefTimeline) Last() *UseTimeline {
	if len(t.locals) == 0 {
		return nil
	}
	return t.locals[len(t.locals)-1]
}

// Incoming returns the incoming nodes in construction order.
func (t *DefTimeline) Incoming() []*IncomingNode {
	result := make([]*IncomingNode, 0, len(t.incoming))
	for _, id := range t.incoming {
		result = append(result, t.fn.Incoming(id))
	}
	return result
}

// Referrers returns the incoming nodes, anywhere in the function, bound to t.
func (t *DefTimeline) Referrers() []*IncomingNode {
	result := make([]*IncomingNode, 0, len(t.referrers))
	for _, id := range t.referrers {
		result = append(result, t.fn.Incoming(id))
	}
	return result
}

// IncomingFrom returns the incoming node recorded for pred, or nil.
func (t *DefTimeline) IncomingFrom(pred *Block) *IncomingNode {
	for _, id := range t.incoming {
		if n := t.fn.Incoming(id); n.pred == pred {
			return n
		}
	}
	return nil
}

func (t *DefTimeline) String() string {
	return fmt.Sprintf("%s@%s", t.variable, t.block.label)
}

// EmplaceBack appends a local timeline for the def of inst, which must come
// after every existing local def.
func (t *DefTimeline) EmplaceBack(inst *Instruction) *UseTimeline {
	t.fn.mutable("DefTimeline.EmplaceBack")
	assertf(inst.block == t.block, "DefTimeline.EmplaceBack", "instruction is not in %s", t.block.label)
	assertf(inst.def != nil && inst.def.variable == t.variable, "DefTimeline.EmplaceBack",
		"instruction does not define %s", t.variable)
	assertf(!IsVoid(t.variable.typ), "DefTimeline.EmplaceBack", "%s has no type", t.variable)
	if last := t.Last(); last != nil {
		assertf(last.index() < inst.index, "DefTimeline.EmplaceBack", "def precedes the last local def")
	}
	ut := &UseTimeline{owner: t, def: inst.def}
	inst.def.timeline = ut
	t.locals = append(t.locals, ut)
	t.fn.bump()
	return ut
}

// insertLocal adds a local timeline for inst at its instruction position.
func (t *DefTimeline) insertLocal(inst *Instruction) *UseTimeline {
	i := sort.Search(len(t.locals), func(i int) bool { return t.locals[i].index() > inst.index })
	if i == len(t.locals) {
		return t.EmplaceBack(inst)
	}
	ut := &UseTimeline{owner: t, def: inst.def}
	inst.def.timeline = ut
	t.locals = append(t.locals, nil)
	copy(t.locals[i+1:], t.locals[i:])
	t.locals[i] = ut
	t.fn.bump()
	return ut
}

func (t *DefTimeline) removeLocal(ut *UseTimeline) {
	for i, x := range t.locals {
		if x == ut {
			t.locals = append(t.locals[:i], t.locals[i+1:]...)
			break
		}
	}
	t.fn.bump()
}

// ensureStub returns the incoming use timeline, creating it on demand.
func (t *DefTimeline) ensureStub() *UseTimeline {
	if t.stub == nil {
		t.stub = &UseTimeline{owner: t}
	}
	return t.stub
}

// observedAt returns the use timeline a use at instruction position index
// observes: the latest local def before index, or the incoming timeline.
func (t *DefTimeline) observedAt(index int) *UseTimeline {
	var result *UseTimeline
	for _, ut := range t.locals {
		if ut.index() >= index {
			break
		}
		result = ut
	}
	if result == nil {
		return t.ensureStub()
	}
	return result
}

// AppendIncoming links t to the predecessor block pred whose value is
// carried by target (nil meaning undefined on that path). A predecessor is
// linked at most once: appending it again rebinds the existing node.
func (t *DefTimeline) AppendIncoming(pred *Block, target *DefTimeline) *IncomingNode {
	t.fn.mutable("DefTimeline.AppendIncoming")
	assertf(pred.fn == t.fn, "DefTimeline.AppendIncoming", "predecessor belongs to another function")
	if n := t.IncomingFrom(pred); n != nil {
		n.Rebind(target)
		return n
	}
	n := t.fn.newIncoming(t, pred, target)
	t.incoming = append(t.incoming, n.id)
	t.fn.bump()
	return n
}

func (t *DefTimeline) removeIncoming(n *IncomingNode) {
	t.incoming = removeIncomingID(t.incoming, n.id)
	n.Rebind(nil)
	t.fn.incoming[n.id-1] = nil
	t.fn.bump()
}

// IncomingNode links a DefTimeline to the predecessor block pred and the
// predecessor timeline carrying the variable's value along that edge.
type IncomingNode struct {
	id     IncomingID
	fn     *Function
	owner  TimelineID
	pred   *Block
	target TimelineID
}

func (n *IncomingNode) ID() IncomingID      { return n.id }
func (n *IncomingNode) Owner() *DefTimeline { return n.fn.timeline(n.owner) }
func (n *IncomingNode) Predecessor() *Block { return n.pred }
func (n *IncomingNode) IsUndefined() bool   { return !n.target.IsValid() }

// Target returns the bound predecessor timeline, or nil when the variable
// is undefined along this edge.
func (n *IncomingNode) Target() *DefTimeline { return n.fn.timeline(n.target) }

func (n *IncomingNode) String() string {
	if t := n.Target(); t != nil {
		return fmt.Sprintf("[%s: %s]", n.pred.label, t)
	}
	return fmt.Sprintf("[%s: undef]", n.pred.label)
}

// Rebind points the node at target, keeping the reverse index of both the
// old and the new target in sync. Rebinding to the current target is a
// no-op. It reports whether anything changed.
func (n *IncomingNode) Rebind(target *DefTimeline) bool {
	id := NoTimeline
	if target != nil {
		assertf(target.variable.id == n.Owner().variable.id, "IncomingNode.Rebind",
			"cannot bind %s to %s", n.Owner(), target)
		id = target.id
	}
	if n.target == id {
		return false
	}
	if old := n.fn.timeline(n.target); old != nil {
		old.referrers = removeIncomingID(old.referrers, n.id)
	}
	n.target = id
	if target != nil {
		target.referrers = append(target.referrers, n.id)
	}
	n.fn.bump()
	return true
}

func removeIncomingID(ids []IncomingID, id IncomingID) []IncomingID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// timeline resolves a handle; the invalid handle yields nil.
func (f *Function) timeline(id TimelineID) *DefTimeline {
	if !id.IsValid() || int(id) > len(f.timelines) {
		return nil
	}
	return f.timelines[id-1]
}

// Timeline resolves a timeline handle.
func (f *Function) Timeline(id TimelineID) *DefTimeline { return f.timeline(id) }

// Incoming resolves an incoming node handle.
func (f *Function) Incoming(id IncomingID) *IncomingNode {
	if !id.IsValid() || int(id) > len(f.incoming) {
		return nil
	}
	return f.incoming[id-1]
}

func (f *Function) newTimeline(b *Block, v *Variable) *DefTimeline {
	assertf(v.fn == f, "newTimeline", "%s belongs to another function", v)
	t := &DefTimeline{
		id:       TimelineID(len(f.timelines) + 1),
		fn:       f,
		block:    b,
		variable: v,
	}
	f.timelines = append(f.timelines, t)
	f.bump()
	return t
}

func (f *Function) releaseTimeline(t *DefTimeline) {
	assertf(t.IsEmpty() && len(t.referrers) == 0, "releaseTimeline", "%s is still in use", t)
	assertf(t.stub == nil || len(t.stub.uses) == 0, "releaseTimeline", "%s still has incoming uses", t)
	f.timelines[t.id-1] = nil
	f.bump()
}

func (f *Function) newIncoming(owner *DefTimeline, pred *Block, target *DefTimeline) *IncomingNode {
	n := &IncomingNode{
		id:    IncomingID(len(f.incoming) + 1),
		fn:    f,
		owner: owner.id,
		pred:  pred,
	}
	f.incoming = append(f.incoming, n)
	n.Rebind(target)
	return n
}

package ir

// Split cuts b before instruction position at. The instructions from at on
// move to a new block that takes b's place as the source of b's successor
// edges, together with every def and use positioned at or after the cut.
// A loop condition cannot be split.
func (f *Function) Split(b *Block, at int) (*Block, *Block) {
	const name = "Function.Split"
	f.mutable(name)
	assertf(b.fn == f, name, "block %s belongs to another function", b.label)
	assertf(at >= b.phiCount && at <= len(b.instructions), name, "cannot split %s at %d", b.label, at)

	p := PlacementOf(b)
	assertf(p.Role != RoleLoopCondition, name, "cannot split loop condition %s", b.label)

	b2 := f.NewBlock(b.label)
	b2.instructions = append(b2.instructions, b.instructions[at:]...)
	b.instructions = b.instructions[:at:at]
	b2.reindex(0)

	switch p.Role {
	case RoleNone:
	case RoleSequenceElement:
		p.Parent.(*Sequence).Insert(p.Index+1, b2)
	case RoleForkCondition:
		fork := p.Parent.(*Fork)
		fork.replaceCondition(b2)
		f.insertBefore(fork, b)
	case RoleLoopAfter:
		f.insertAfter(p.Parent, b2)
	default:
		seq := f.NewSequence()
		f.replaceInParent(b, seq)
		seq.Append(b)
		seq.Append(b2)
	}

	var moved []*DefTimeline
	for _, t := range b.Timelines() {
		if t2 := f.splitTimeline(t, b2); t2 != nil && t2.HasLocalTimelines() {
			moved = append(moved, t2)
		}
	}

	succs := Successors(b2)
	for _, n := range f.incoming {
		if n != nil && n.pred == b && containsBlock(succs, n.Owner().block) {
			n.pred = b2
		}
	}
	f.touch()

	for _, t2 := range moved {
		f.Propagate(t2, NewIncomingCache(b2))
	}
	log.Debugf("split %s at %d into %s", b.label, at, b2.label)
	return b, b2
}

// splitTimeline moves the part of t positioned at or after the cut into
// b2. It returns nil when nothing of t lies past the cut.
func (f *Function) splitTimeline(t *DefTimeline, b2 *Block) *DefTimeline {
	var t2 *DefTimeline
	target := func() *DefTimeline {
		if t2 == nil {
			t2 = b2.timelineFor(t.variable)
		}
		return t2
	}

	keep := t.locals[:0]
	var moved []*UseTimeline
	for _, ut := range t.locals {
		if ut.def.inst.block == b2 {
			moved = append(moved, ut)
		} else {
			keep = append(keep, ut)
		}
	}
	t.locals = keep
	for _, ut := range moved {
		ut.owner = target()
		t2.locals = append(t2.locals, ut)
	}

	moveTail := func(ut *UseTimeline) {
		if ut == nil {
			return
		}
		for _, u := range ut.Uses() {
			if u.user.block == b2 {
				u.moveTo(target().ensureStub())
			}
		}
	}
	moveTail(t.stub)
	for _, ut := range t.locals {
		moveTail(ut)
	}
	if t2 == nil {
		return nil
	}
	for _, ut := range t2.locals {
		ut.resort()
	}
	if t2.stub != nil {
		t2.stub.resort()
	}
	f.bump()
	return t2
}

// replaceInParent puts c into the slot old occupies and detaches old.
func (f *Function) replaceInParent(old, c Component) {
	p := PlacementOf(old)
	switch p.Role {
	case RoleSequenceElement:
		p.Parent.(*Sequence).Replace(p.Index, c)
	case RoleForkCondition:
		p.Parent.(*Fork).replaceCondition(c.(*Block))
	case RoleForkCase:
		p.Parent.(*Fork).replaceCase(p.Index, c)
	case RoleLoopStart, RoleLoopCondition, RoleLoopBody, RoleLoopUpdate, RoleLoopAfter:
		p.Parent.(*Loop).replaceMember(p.Role, c)
	case RoleFunctionBody:
		f.SetBody(c)
	default:
		assertf(false, "replaceInParent", "%s %d is detached", old.Kind(), old.ID())
	}
}

// insertBefore places c so that it runs right before target.
func (f *Function) insertBefore(target, c Component) {
	if s, ok := target.Parent().(*Sequence); ok {
		s.Insert(s.IndexOf(target), c)
		return
	}
	seq := f.NewSequence()
	f.replaceInParent(target, seq)
	seq.Append(c)
	seq.Append(target)
}

// insertAfter places c so that it runs right after target.
func (f *Function) insertAfter(target, c Component) {
	if s, ok := target.Parent().(*Sequence); ok {
		s.Insert(s.IndexOf(target)+1, c)
		return
	}
	seq := f.NewSequence()
	f.replaceInParent(target, seq)
	seq.Append(target)
	seq.Append(c)
}

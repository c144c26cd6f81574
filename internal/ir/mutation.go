package ir

// AppendInstruction adds an instruction at the end of the block. dst is the
// variable the instruction defines, or nil.
func (b *Block) AppendInstruction(op Opcode, dst *Variable, args ...Arg) *Instruction {
	return b.insert("Block.AppendInstruction", len(b.instructions), op, dst, args)
}

// PrependInstruction adds an instruction right after the phi region.
func (b *Block) PrependInstruction(op Opcode, dst *Variable, args ...Arg) *Instruction {
	return b.insert("Block.PrependInstruction", b.phiCount, op, dst, args)
}

// EmplaceInstructionBefore adds an instruction immediately before pos.
func (b *Block) EmplaceInstructionBefore(pos *Instruction, op Opcode, dst *Variable, args ...Arg) *Instruction {
	assertf(pos.block == b, "Block.EmplaceInstructionBefore", "instruction is not in %s", b.label)
	assertf(!pos.IsPhi(), "Block.EmplaceInstructionBefore", "cannot insert into the phi region")
	return b.insert("Block.EmplaceInstructionBefore", pos.index, op, dst, args)
}

func (b *Block) insert(name string, pos int, op Opcode, dst *Variable, args []Arg) *Instruction {
	fn := b.fn
	fn.mutable(name)
	info := op.Info()
	assertf(op != OpInvalid && op != OpPhi, name, "cannot insert %s instructions", op)
	assertf(info.Arity < 0 || len(args) == info.Arity, name, "%s takes %d operands, got %d", op, info.Arity, len(args))
	assertf(dst == nil || info.HasDef, name, "%s does not define a value", op)
	assertf(dst != nil || !info.HasDef || op == OpCall, name, "%s needs a destination", op)
	assertf(pos >= b.phiCount && pos <= len(b.instructions), name, "position %d out of range", pos)
	if term := b.Terminator(); term != nil {
		assertf(pos <= term.index, name, "%s already ends with %s", b.label, term.op)
	}
	if dst != nil {
		assertf(dst.fn == fn, name, "%s belongs to another function", dst)
		assertf(!IsVoid(dst.typ), name, "%s has no type", dst)
	}

	inst := &Instruction{id: fn.nextInstID(), op: op, block: b}
	b.instructions = append(b.instructions, nil)
	copy(b.instructions[pos+1:], b.instructions[pos:])
	b.instructions[pos] = inst
	b.reindex(pos)

	for slot, a := range args {
		if a.constant != nil {
			inst.operands = append(inst.operands, Operand{constant: a.constant})
			continue
		}
		assertf(a.variable != nil && a.variable.fn == fn, name, "operand %d is not a variable of %s", slot, fn.name)
		u := &Use{variable: a.variable, user: inst, slot: slot}
		b.timelineFor(a.variable).observedAt(pos).addUse(u)
		inst.operands = append(inst.operands, Operand{use: u})
	}
	if dst != nil {
		b.define(inst, dst)
	}
	fn.bump()
	log.Debugf("%s: inserted %s at %d", b.label, inst, pos)
	return inst
}

// define attaches a new def of v to inst and hands it the uses that follow.
func (b *Block) define(inst *Instruction, v *Variable) {
	t := b.timelineFor(v)
	wasExplicit := t.Explicit()
	prev := t.observedAt(inst.index)
	inst.def = &Def{variable: v, inst: inst, id: v.nextDefID()}
	ut := t.insertLocal(inst)
	for _, u := range prev.Uses() {
		if u.user.index > inst.index {
			u.moveTo(ut)
		}
	}
	if !wasExplicit {
		b.fn.Propagate(t, nil)
	}
}

// RemoveInstruction deletes inst. Its def dies with it: uses that observed
// it fall back to the previous def in the block or to the incoming value.
func (b *Block) RemoveInstruction(inst *Instruction) {
	const name = "Block.RemoveInstruction"
	b.fn.mutable(name)
	assertf(inst.block == b, name, "instruction is not in %s", b.label)
	var observed []*DefTimeline
	for _, u := range inst.Uses() {
		observed = append(observed, u.timeline.owner)
		u.detach()
	}

	var owner *DefTimeline
	if inst.def != nil {
		ut := inst.def.timeline
		owner = ut.owner
		owner.removeLocal(ut)
		prev := owner.observedAt(inst.index)
		for _, u := range ut.uses {
			prev.addUse(u)
		}
		ut.uses = nil
		inst.def.timeline = nil
	}

	pos := inst.index
	if pos < b.phiCount {
		b.phiCount--
	}
	b.instructions = append(b.instructions[:pos], b.instructions[pos+1:]...)
	b.reindex(pos)
	inst.block = nil
	b.fn.bump()
	log.Debugf("%s: removed %s", b.label, inst)

	if owner != nil {
		b.fn.retarget(owner)
		observed = append(observed, owner)
	}
	for _, t := range observed {
		if b.Timeline(t.variable) == t && t.unused() {
			b.dropTimeline(t)
		}
	}
}

// CreatePhi places an explicit phi for v at the end of the phi region. The
// phi's operands are the incoming nodes of the block's timeline for v,
// which are materialized here if no resolution has done so yet.
func (b *Block) CreatePhi(v *Variable) *Instruction {
	const name = "Block.CreatePhi"
	fn := b.fn
	fn.mutable(name)
	assertf(v.fn == fn, name, "%s belongs to another function", v)
	assertf(b.HasParent(), name, "block %s is detached", b.label)
	for _, phi := range b.instructions[:b.phiCount] {
		assertf(phi.def.variable != v, name, "%s already has a phi for %s", b.label, v)
	}

	t := b.timelineFor(v)
	wasExplicit := t.Explicit()
	pos := b.phiCount
	inst := &Instruction{id: fn.nextInstID(), op: OpPhi, block: b}
	b.instructions = append(b.instructions, nil)
	copy(b.instructions[pos+1:], b.instructions[pos:])
	b.instructions[pos] = inst
	b.phiCount++
	b.reindex(pos)

	prev := t.observedAt(pos)
	inst.def = &Def{variable: v, inst: inst, id: v.nextDefID()}
	ut := t.insertLocal(inst)
	for _, u := range prev.Uses() {
		if u.user.index > pos {
			u.moveTo(ut)
		}
	}

	fn.bump()

	// Downstream nodes are rebound before the operands are resolved: that
	// resolution can materialize joins the walk would otherwise stop at.
	if !wasExplicit {
		fn.Propagate(t, nil)
	}
	if !t.HasIncoming() {
		for _, p := range Predecessors(b) {
			t.AppendIncoming(p, fn.valueLeaving(p, v))
		}
	}
	log.Debugf("%s: created phi for %s with %d incoming", b.label, v, len(t.incoming))
	return inst
}

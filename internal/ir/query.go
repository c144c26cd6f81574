package ir

// ReachingDef is the definition a use observes: a local Def, the join of
// a timeline's incoming nodes, or nothing when the variable is undefined.
type ReachingDef struct {
	Def  *Def
	Join *DefTimeline
}

func (r ReachingDef) IsUndefined() bool { return r.Def == nil && r.Join == nil }

func (r ReachingDef) String() string {
	switch {
	case r.Def != nil:
		return r.Def.String()
	case r.Join != nil:
		return "phi(" + r.Join.String() + ")"
	default:
		return "undef"
	}
}

// Outgoing returns the definition leaving the timeline's block.
func (t *DefTimeline) Outgoing() ReachingDef {
	if last := t.Last(); last != nil {
		return ReachingDef{Def: last.def}
	}
	if t.HasIncoming() {
		return ReachingDef{Join: t}
	}
	return t.fn.Resolve(t.block, t.variable).Reaching()
}

// LatestDef returns the last def of v in the block, or nil.
func (b *Block) LatestDef(v *Variable) *Def {
	t := b.Timeline(v)
	if t == nil || t.Last() == nil {
		return nil
	}
	return t.Last().def
}

// LatestDefBefore returns the last def of v in the block strictly before
// instruction position pos, or nil.
func (b *Block) LatestDefBefore(pos int, v *Variable) *Def {
	t := b.Timeline(v)
	if t == nil {
		return nil
	}
	var result *Def
	for _, ut := range t.locals {
		if ut.index() >= pos {
			break
		}
		result = ut.def
	}
	return result
}

// ReachingDef returns the definition observed by u, resolving the incoming
// value of its block if needed.
func (f *Function) ReachingDef(u *Use) ReachingDef {
	assertf(u.timeline != nil, "Function.ReachingDef", "%s is detached", u)
	if u.timeline.def != nil {
		return ReachingDef{Def: u.timeline.def}
	}
	return f.Resolve(u.Block(), u.variable).Reaching()
}

// ReachingAt returns the definition of v visible just before position pos
// of b.
func (f *Function) ReachingAt(b *Block, pos int, v *Variable) ReachingDef {
	if d := b.LatestDefBefore(pos, v); d != nil {
		return ReachingDef{Def: d}
	}
	return f.Resolve(b, v).Reaching()
}

// Uses returns every use of v in block order.
func (f *Function) Uses(v *Variable) []*Use {
	var uses []*Use
	for _, b := range Blocks(f) {
		t := b.Timeline(v)
		if t == nil {
			continue
		}
		if t.stub != nil {
			uses = append(uses, t.stub.uses...)
		}
		for _, ut := range t.locals {
			uses = append(uses, ut.uses...)
		}
	}
	return uses
}

// ResolveAll resolves the incoming value of every block that has uses
// waiting for it and returns the number of incoming nodes created.
func (f *Function) ResolveAll() int {
	before := len(f.incoming)
	for _, b := range Blocks(f) {
		for _, t := range b.Timelines() {
			if t.stub == nil || len(t.stub.uses) == 0 {
				continue
			}
			f.Resolve(b, t.variable)
		}
	}
	created := len(f.incoming) - before
	if created > 0 {
		log.Infof("%s: resolved %d incoming nodes", f.name, created)
	}
	return created
}

package ir

// Flatten simplifies the structures inside c that have become trivial:
// nested sequences are spliced into their parent, empty sequence elements
// are dropped, single-element sequences are replaced by their element and
// forks with at most one case become plain sequences. Control flow between
// blocks is unchanged. Incoming nodes whose predecessor edge no longer
// exists are removed afterwards. It returns the component now occupying
// c's place.
func (f *Function) Flatten(c Component) Component {
	f.mutable("Function.Flatten")
	result := f.flatten(c)
	if pruned := f.PruneIncoming(); pruned > 0 {
		log.Debugf("flatten pruned %d incoming nodes", pruned)
	}
	return result
}

func (f *Function) flatten(c Component) Component {
	switch c := c.(type) {
	case *Sequence:
		return f.flattenSequence(c)
	case *Fork:
		return f.flattenFork(c)
	case *Loop:
		for _, r := range []Role{RoleLoopStart, RoleLoopBody, RoleLoopUpdate} {
			f.flatten(c.Member(r))
		}
		return c
	case *Function:
		f.flatten(c.body)
		return c
	default:
		return c
	}
}

func (f *Function) flattenSequence(s *Sequence) Component {
	for i := 0; i < len(s.elements); i++ {
		f.flatten(s.elements[i])
	}
	for i := 0; i < len(s.elements); {
		inner, ok := s.elements[i].(*Sequence)
		if !ok {
			i++
			continue
		}
		s.Remove(i)
		children := inner.elements
		inner.elements = nil
		for j, child := range children {
			f.orphan(child)
			s.Insert(i+j, child)
		}
		f.release(inner)
		i += len(children)
	}
	if len(s.elements) == 1 && s.HasParent() {
		child := s.Remove(0)
		f.replaceInParent(s, child)
		f.release(s)
		return child
	}
	return s
}

func (f *Function) flattenFork(fk *Fork) Component {
	for i := 0; i < len(fk.cases); i++ {
		f.flatten(fk.cases[i])
	}
	if len(fk.cases) > 1 || !fk.HasParent() {
		return fk
	}
	var replacement Component = fk.condition
	if len(fk.cases) == 1 {
		c := fk.RemoveCase(0)
		cond := fk.condition
		seq := f.NewSequence()
		f.replaceInParent(fk, seq)
		f.orphan(cond)
		seq.Append(cond)
		seq.Append(c)
		replacement = seq
	} else {
		f.orphan(fk.condition)
		f.replaceInParent(fk, fk.condition)
	}
	fk.condition = nil
	f.release(fk)
	return f.flatten(replacement)
}

// PruneIncoming removes every incoming node whose predecessor is no longer
// a predecessor of the node's block and returns how many were removed.
// Timelines left without a way to decide their value have their referrers
// retargeted.
func (f *Function) PruneIncoming() int {
	f.mutable("Function.PruneIncoming")
	pruned := 0
	var emptied []*DefTimeline
	for _, t := range f.timelines {
		if t == nil || !t.HasIncoming() {
			continue
		}
		preds := Predecessors(t.block)
		for _, n := range t.Incoming() {
			if !containsBlock(preds, n.pred) {
				t.removeIncoming(n)
				pruned++
			}
		}
		if !t.Explicit() {
			emptied = append(emptied, t)
		}
	}
	for _, t := range emptied {
		f.retarget(t)
	}
	return pruned
}

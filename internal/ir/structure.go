package ir

// Structural queries. No edge list is stored: predecessors and successors
// follow from the kind of each enclosing structure and the role a component
// plays in it.

// Leaves returns the leaf blocks of c.
func Leaves(c Component) []*Block { return c.Leaves() }

// IsLeaf reports whether c is a block through which control leaves its
// parent structure. A detached block is its own leaf.
func IsLeaf(c Component) bool {
	b, ok := c.(*Block)
	if !ok {
		return false
	}
	parent := b.Parent()
	if parent == nil {
		return true
	}
	return containsBlock(parent.Leaves(), b)
}

// exits returns the blocks control comes from when it falls out of c. An
// empty structure is transparent and exits through its own predecessors.
func exits(c Component) []*Block {
	if leaves := c.Leaves(); len(leaves) > 0 {
		return leaves
	}
	return Predecessors(c)
}

// enter returns the blocks control reaches when it enters c. An empty
// structure is transparent and enters its own successors.
func enter(c Component) []*Block {
	if entry := c.Entry(); entry != nil {
		return []*Block{entry}
	}
	return Successors(c)
}

type predecessorCollector struct {
	preds []*Block
}

func (pc *predecessorCollector) SequenceElement(s *Sequence, index int) bool {
	if index == 0 {
		return false
	}
	pc.preds = exits(s.elements[index-1])
	return true
}

func (pc *predecessorCollector) ForkCondition(f *Fork) bool {
	return false
}

func (pc *predecessorCollector) ForkCase(f *Fork, index int) bool {
	pc.preds = []*Block{f.condition}
	return true
}

func (pc *predecessorCollector) LoopMember(l *Loop, role Role) bool {
	switch role {
	case RoleLoopStart:
		return false
	case RoleLoopCondition:
		pc.preds = appendUnique(appendUnique(nil, exits(l.start)...), exits(l.update)...)
	case RoleLoopBody, RoleLoopAfter:
		pc.preds = []*Block{l.condition}
	case RoleLoopUpdate:
		pc.preds = exits(l.body)
	}
	return true
}

// Predecessors returns the blocks from which control enters c, in
// construction order. The function entry has none.
func Predecessors(c Component) []*Block {
	pc := &predecessorCollector{}
	Ascend(c, pc)
	return pc.preds
}

type successorCollector struct {
	succs []*Block
}

func (sc *successorCollector) SequenceElement(s *Sequence, index int) bool {
	for j := index + 1; j < len(s.elements); j++ {
		if entry := s.elements[j].Entry(); entry != nil {
			sc.succs = []*Block{entry}
			return true
		}
	}
	return false
}

func (sc *successorCollector) ForkCondition(f *Fork) bool {
	if len(f.cases) == 0 {
		return false
	}
	var succs []*Block
	for _, c := range f.cases {
		succs = appendUnique(succs, enter(c)...)
	}
	sc.succs = succs
	return true
}

func (sc *successorCollector) ForkCase(f *Fork, index int) bool {
	return false
}

func (sc *successorCollector) LoopMember(l *Loop, role Role) bool {
	switch role {
	case RoleLoopStart, RoleLoopUpdate:
		sc.succs = []*Block{l.condition}
	case RoleLoopCondition:
		sc.succs = appendUnique(appendUnique(nil, enter(l.body)...), l.after)
	case RoleLoopBody:
		sc.succs = enter(l.update)
	case RoleLoopAfter:
		return false
	}
	return true
}

// Successors returns the blocks control may reach after leaving c, in
// construction order. The function exit has none.
func Successors(c Component) []*Block {
	sc := &successorCollector{}
	Ascend(c, sc)
	return sc.succs
}

type blockCollector struct{}

func (blockCollector) Block(b *Block) []*Block             { return []*Block{b} }
func (blockCollector) Combine(acc, next []*Block) []*Block { return append(acc, next...) }
func (blockCollector) Stop(acc []*Block) bool              { return false }

// Blocks returns every block inside c in descending order.
func Blocks(c Component) []*Block {
	return Descend[[]*Block](c, blockCollector{})
}

type blockFinder struct {
	pred func(*Block) bool
}

func (bf blockFinder) Block(b *Block) *Block {
	if bf.pred(b) {
		return b
	}
	return nil
}

func (bf blockFinder) Combine(acc, next *Block) *Block {
	if acc != nil {
		return acc
	}
	return next
}

func (bf blockFinder) Stop(acc *Block) bool { return acc != nil }

// FindBlock returns the first block inside c, in descending order, for
// which pred holds.
func FindBlock(c Component, pred func(*Block) bool) *Block {
	return Descend[*Block](c, blockFinder{pred: pred})
}

// Contains reports whether c is inner or an ancestor of inner.
func Contains(c, inner Component) bool {
	for p := inner; p != nil; p = p.Parent() {
		if p == c {
			return true
		}
	}
	return false
}

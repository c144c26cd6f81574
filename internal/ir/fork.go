package ir

// Fork is a condition block followed by independent cases. Every case has
// the condition as its sole predecessor; the fork's leaves are the union of
// the cases' leaves.
type Fork struct {
	node
	condition *Block
	cases     []Component
	leaves    leafCache
}

func (f *Fork) Kind() Kind           { return KindFork }
func (f *Fork) Condition() *Block    { return f.condition }
func (f *Fork) Cases() []Component   { return append([]Component(nil), f.cases...) }
func (f *Fork) Case(i int) Component { return f.cases[i] }
func (f *Fork) NumCases() int        { return len(f.cases) }
func (f *Fork) Entry() *Block        { return f.condition }

// Leaves returns the union of the cases' leaves in case order. A fork
// without cases is degenerate and exits through its condition.
func (f *Fork) Leaves() []*Block {
	return f.leaves.get(f.fn, func() []*Block {
		if len(f.cases) == 0 {
			return []*Block{f.condition}
		}
		var leaves []*Block
		for _, c := range f.cases {
			leaves = appendUnique(leaves, exits(c)...)
		}
		return leaves
	})
}

// IndexOfCase returns the position of c among the cases, or -1.
func (f *Fork) IndexOfCase(c Component) int {
	for i, x := range f.cases {
		if x == c {
			return i
		}
	}
	return -1
}

// EmplaceCase adds c as the last case.
func (f *Fork) EmplaceCase(c Component) {
	f.fn.mutable("Fork.EmplaceCase")
	f.fn.adopt(f, c)
	f.cases = append(f.cases, c)
}

// RemoveCase detaches and returns case i.
func (f *Fork) RemoveCase(i int) Component {
	f.fn.mutable("Fork.RemoveCase")
	assertf(i >= 0 && i < len(f.cases), "Fork.RemoveCase", "index %d out of range", i)
	c := f.cases[i]
	f.cases = append(f.cases[:i], f.cases[i+1:]...)
	f.fn.orphan(c)
	return c
}

func (f *Fork) replaceCase(i int, c Component) {
	old := f.cases[i]
	f.fn.orphan(old)
	f.fn.adopt(f, c)
	f.cases[i] = c
}

func (f *Fork) replaceCondition(b *Block) {
	f.fn.orphan(f.condition)
	f.fn.adopt(f, b)
	f.condition = b
}

package ir

import (
	"fmt"
)

// Function is the root of a component tree. It owns the body, the variable
// table and the arenas every other handle points into.
type Function struct {
	node
	name    string
	body    Component
	vars    []*Variable
	byName  map[string]*Variable
	args    []*Variable
	returns []*Variable

	nodes     []Component
	timelines []*DefTimeline
	incoming  []*IncomingNode

	// generation counts structural edits and keys every leaf cache.
	generation uint64
	// epoch counts every edit, structural or not, and keys memoized
	// resolutions.
	epoch uint64

	lastInst   InstID
	blockCount int
	frozen     bool
	memo       map[resolutionKey]*DefResolutionStack
}

// NewFunction creates a function whose body is an empty sequence.
func NewFunction(name string) *Function {
	f := &Function{
		name:       name,
		byName:     make(map[string]*Variable),
		generation: 1,
		memo:       make(map[resolutionKey]*DefResolutionStack),
	}
	f.node.fn = f
	f.register(f)
	f.body = f.NewSequence()
	f.adopt(f, f.body)
	return f
}

func (f *Function) Kind() Kind         { return KindFunction }
func (f *Function) Name() string       { return f.name }
func (f *Function) Body() Component    { return f.body }
func (f *Function) Leaves() []*Block   { return f.body.Leaves() }
func (f *Function) Entry() *Block      { return f.body.Entry() }
func (f *Function) IsFrozen() bool     { return f.frozen }
func (f *Function) Generation() uint64 { return f.generation }
func (f *Function) String() string     { return "func " + f.name }

// SetBody replaces the function body.
func (f *Function) SetBody(c Component) {
	f.mutable("Function.SetBody")
	f.orphan(f.body)
	f.adopt(f, c)
	f.body = c
}

// Component returns the component with the given handle, or nil if it was
// released.
func (f *Function) Component(id NodeID) Component {
	if !id.IsValid() || int(id) > len(f.nodes) {
		return nil
	}
	return f.nodes[id-1]
}

// NewBlock creates a detached block. The label is made unique by suffixing
// a counter.
func (f *Function) NewBlock(label string) *Block {
	f.mutable("Function.NewBlock")
	if label == "" {
		label = "bb"
	}
	b := &Block{
		label:     fmt.Sprintf("%s_%d", label, f.blockCount),
		timelines: make(map[VariableID]TimelineID),
	}
	f.blockCount++
	f.register(b)
	return b
}

// NewSequence creates a detached sequence owning elems.
func (f *Function) NewSequence(elems ...Component) *Sequence {
	f.mutable("Function.NewSequence")
	s := &Sequence{}
	f.register(s)
	for _, e := range elems {
		s.Append(e)
	}
	return s
}

// NewFork creates a detached fork. A nil condition gets a fresh block.
func (f *Function) NewFork(condition *Block, cases ...Component) *Fork {
	f.mutable("Function.NewFork")
	if condition == nil {
		condition = f.NewBlock("cond")
	}
	fk := &Fork{}
	f.register(fk)
	f.adopt(fk, condition)
	fk.condition = condition
	for _, c := range cases {
		fk.EmplaceCase(c)
	}
	return fk
}

// NewLoop creates a detached loop. Nil members are filled with empty
// sequences (start, body, update) or fresh blocks (condition, after).
func (f *Function) NewLoop(start Component, condition *Block, body, update Component, after *Block) *Loop {
	f.mutable("Function.NewLoop")
	if start == nil {
		start = f.NewSequence()
	}
	if condition == nil {
		condition = f.NewBlock("loop_cond")
	}
	if body == nil {
		body = f.NewSequence()
	}
	if update == nil {
		update = f.NewSequence()
	}
	if after == nil {
		after = f.NewBlock("loop_after")
	}
	l := &Loop{}
	f.register(l)
	for _, c := range []Component{start, condition, body, update, after} {
		f.adopt(l, c)
	}
	l.start, l.condition, l.body, l.update, l.after = start, condition, body, update, after
	return l
}

// AddVariable declares a local variable.
func (f *Function) AddVariable(name string, typ Type) *Variable {
	f.mutable("Function.AddVariable")
	_, exists := f.byName[name]
	assertf(!exists, "Function.AddVariable", "variable %q already declared", name)
	v := &Variable{
		id:   VariableID(len(f.vars) + 1),
		name: name,
		typ:  typ,
		fn:   f,
	}
	f.vars = append(f.vars, v)
	f.byName[name] = v
	return v
}

// AddArgument declares a variable and records it as the next argument.
func (f *Function) AddArgument(name string, typ Type) *Variable {
	v := f.AddVariable(name, typ)
	f.args = append(f.args, v)
	return v
}

// AddReturn declares a variable and records it as the next return value.
func (f *Function) AddReturn(name string, typ Type) *Variable {
	v := f.AddVariable(name, typ)
	f.returns = append(f.returns, v)
	return v
}

// Variable looks a variable up by name.
func (f *Function) Variable(name string) (*Variable, bool) {
	v, ok := f.byName[name]
	return v, ok
}

func (f *Function) Variables() []*Variable { return append([]*Variable(nil), f.vars...) }
func (f *Function) Arguments() []*Variable { return append([]*Variable(nil), f.args...) }
func (f *Function) Returns() []*Variable   { return append([]*Variable(nil), f.returns...) }

func (f *Function) register(c Component) {
	f.nodes = append(f.nodes, c)
	n := c.base()
	n.id = NodeID(len(f.nodes))
	n.fn = f
}

// release drops a detached component from the arena.
func (f *Function) release(c Component) {
	n := c.base()
	assertf(!n.parent.IsValid(), "release", "component %d is still attached", n.id)
	f.nodes[n.id-1] = nil
}

// adopt makes parent the exclusive owner of child.
func (f *Function) adopt(parent, child Component) {
	n := child.base()
	assertf(n.fn == f, "adopt", "component %d belongs to another function", n.id)
	assertf(child.Kind() != KindFunction, "adopt", "a function cannot be owned")
	assertf(!n.parent.IsValid(), "adopt", "%s %d already has a parent", child.Kind(), n.id)
	for p := parent; p != nil; p = p.Parent() {
		assertf(p != child, "adopt", "%s %d cannot own itself", child.Kind(), n.id)
	}
	n.parent = parent.ID()
	f.touch()
}

func (f *Function) orphan(child Component) {
	child.base().parent = NoNode
	f.touch()
}

// touch records a structural edit.
func (f *Function) touch() {
	f.generation++
	f.epoch++
}

// bump records a non-structural edit (instructions or timelines).
func (f *Function) bump() {
	f.epoch++
}

func (f *Function) mutable(op string) {
	assertf(!f.frozen, op, "function %s is frozen", f.name)
}

func (f *Function) nextInstID() InstID {
	f.lastInst++
	return f.lastInst
}

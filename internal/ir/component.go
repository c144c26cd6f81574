package ir

// Kind tags the five component variants.
type Kind uint8

const (
	KindBlock Kind = iota + 1
	KindSequence
	KindFork
	KindLoop
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindSequence:
		return "seq"
	case KindFork:
		return "fork"
	case KindLoop:
		return "loop"
	case KindFunction:
		return "func"
	default:
		return "invalid"
	}
}

// Component is a node of the structured control-flow tree. The set of
// implementations is closed: *Block, *Sequence, *Fork, *Loop and *Function.
type Component interface {
	ID() NodeID
	Kind() Kind
	Parent() Component
	HasParent() bool
	Function() *Function

	// Leaves returns the blocks through which control leaves the component.
	Leaves() []*Block
	// Entry returns the first block reached when entering the component, or
	// nil for an empty structure.
	Entry() *Block

	base() *node
}

// node carries the identity shared by all components. The parent is a
// handle into the owning function's arena, not an owning pointer.
type node struct {
	id     NodeID
	parent NodeID
	fn     *Function
}

func (n *node) ID() NodeID          { return n.id }
func (n *node) Function() *Function { return n.fn }
func (n *node) HasParent() bool     { return n.parent.IsValid() }
func (n *node) base() *node         { return n }

func (n *node) Parent() Component {
	if !n.parent.IsValid() {
		return nil
	}
	return n.fn.Component(n.parent)
}

// leafCache memoizes a structure's leaves for one structural generation of
// the owning function. Any structural edit bumps the generation, which
// invalidates every cache in the tree at once.
type leafCache struct {
	gen    uint64
	leaves []*Block
}

func (c *leafCache) get(fn *Function, compute func() []*Block) []*Block {
	if c.leaves == nil || c.gen != fn.generation {
		c.leaves = compute()
		if c.leaves == nil {
			c.leaves = []*Block{}
		}
		c.gen = fn.generation
	}
	return append([]*Block(nil), c.leaves...)
}

// appendUnique appends blocks not already present, keeping first-seen order.
func appendUnique(dst []*Block, blocks ...*Block) []*Block {
	for _, b := range blocks {
		if !containsBlock(dst, b) {
			dst = append(dst, b)
		}
	}
	return dst
}

func containsBlock(blocks []*Block, b *Block) bool {
	for _, x := range blocks {
		if x == b {
			return true
		}
	}
	return false
}

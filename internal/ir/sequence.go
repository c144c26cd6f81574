package ir

// Sequence executes its elements one after another. The predecessors of
// element i+1 are the leaves of element i.
type Sequence struct {
	node
	elements []Component
	leaves   leafCache
}

func (s *Sequence) Kind() Kind            { return KindSequence }
func (s *Sequence) Len() int              { return len(s.elements) }
func (s *Sequence) At(i int) Component    { return s.elements[i] }
func (s *Sequence) Elements() []Component { return append([]Component(nil), s.elements...) }
func (s *Sequence) IsEmpty() bool         { return len(s.elements) == 0 }
func (s *Sequence) Last() Component       { return s.elements[len(s.elements)-1] }
func (s *Sequence) First() Component      { return s.elements[0] }

// Leaves returns the leaves of the last element that has any.
func (s *Sequence) Leaves() []*Block {
	return s.leaves.get(s.fn, func() []*Block {
		for i := len(s.elements) - 1; i >= 0; i-- {
			if leaves := s.elements[i].Leaves(); len(leaves) > 0 {
				return leaves
			}
		}
		return nil
	})
}

func (s *Sequence) Entry() *Block {
	for _, e := range s.elements {
		if entry := e.Entry(); entry != nil {
			return entry
		}
	}
	return nil
}

// IndexOf returns the position of c among the elements, or -1.
func (s *Sequence) IndexOf(c Component) int {
	for i, e := range s.elements {
		if e == c {
			return i
		}
	}
	return -1
}

// Append adds c as the last element.
func (s *Sequence) Append(c Component) {
	s.Insert(len(s.elements), c)
}

// Insert places c at position i.
func (s *Sequence) Insert(i int, c Component) {
	s.fn.mutable("Sequence.Insert")
	assertf(i >= 0 && i <= len(s.elements), "Sequence.Insert", "index %d out of range [0,%d]", i, len(s.elements))
	s.fn.adopt(s, c)
	s.elements = append(s.elements, nil)
	copy(s.elements[i+1:], s.elements[i:])
	s.elements[i] = c
}

// Remove detaches and returns the element at position i.
func (s *Sequence) Remove(i int) Component {
	s.fn.mutable("Sequence.Remove")
	assertf(i >= 0 && i < len(s.elements), "Sequence.Remove", "index %d out of range", i)
	c := s.elements[i]
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	s.fn.orphan(c)
	return c
}

// Replace swaps the element at position i for c and returns the old one.
func (s *Sequence) Replace(i int, c Component) Component {
	old := s.Remove(i)
	s.Insert(i, c)
	return old
}

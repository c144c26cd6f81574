package ir

import (
	"sort"
)

// Block is a basic block. Its instructions are split into a leading phi
// region and a body region. For every variable it touches the block owns a
// DefTimeline.
type Block struct {
	node
	label        string
	instructions []*Instruction
	phiCount     int
	timelines    map[VariableID]TimelineID
}

func (b *Block) Kind() Kind       { return KindBlock }
func (b *Block) Label() string    { return b.label }
func (b *Block) Len() int         { return len(b.instructions) }
func (b *Block) IsEmpty() bool    { return len(b.instructions) == 0 }
func (b *Block) Leaves() []*Block { return []*Block{b} }
func (b *Block) Entry() *Block    { return b }
func (b *Block) String() string   { return b.label }

// Instructions returns every instruction, phis first.
func (b *Block) Instructions() []*Instruction {
	return append([]*Instruction(nil), b.instructions...)
}

// Phis returns the phi region.
func (b *Block) Phis() []*Instruction {
	return append([]*Instruction(nil), b.instructions[:b.phiCount]...)
}

// Body returns the instructions after the phi region.
func (b *Block) Body() []*Instruction {
	return append([]*Instruction(nil), b.instructions[b.phiCount:]...)
}

// At returns the instruction at position i.
func (b *Block) At(i int) *Instruction { return b.instructions[i] }

// Terminator returns the last instruction if it is a terminator.
func (b *Block) Terminator() *Instruction {
	if n := len(b.instructions); n > 0 && b.instructions[n-1].IsTerminator() {
		return b.instructions[n-1]
	}
	return nil
}

// Timeline returns the block's DefTimeline for v, or nil if the block never
// touched v.
func (b *Block) Timeline(v *Variable) *DefTimeline {
	id, ok := b.timelines[v.id]
	if !ok {
		return nil
	}
	return b.fn.timeline(id)
}

// Timelines returns every DefTimeline of the block ordered by variable.
func (b *Block) Timelines() []*DefTimeline {
	ids := make([]VariableID, 0, len(b.timelines))
	for vid := range b.timelines {
		ids = append(ids, vid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*DefTimeline, 0, len(ids))
	for _, vid := range ids {
		result = append(result, b.fn.timeline(b.timelines[vid]))
	}
	return result
}

// timelineFor returns the DefTimeline for v, creating an empty one if needed.
func (b *Block) timelineFor(v *Variable) *DefTimeline {
	if t := b.Timeline(v); t != nil {
		return t
	}
	t := b.fn.newTimeline(b, v)
	b.timelines[v.id] = t.id
	return t
}

// dropTimeline forgets an empty timeline.
func (b *Block) dropTimeline(t *DefTimeline) {
	delete(b.timelines, t.variable.id)
	b.fn.releaseTimeline(t)
}

func (b *Block) reindex(from int) {
	for i := from; i < len(b.instructions); i++ {
		b.instructions[i].index = i
		b.instructions[i].block = b
	}
}

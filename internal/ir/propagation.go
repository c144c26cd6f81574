package ir

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// IncomingCache restricts which incoming nodes the first block reached by a
// propagation may rebind: only those whose predecessor is in the cache. The
// cache is consumed by the first read, so sibling branches never apply it
// twice. An empty cache matches every predecessor.
type IncomingCache struct {
	blocks mapset.Set[NodeID]
}

// NewIncomingCache creates a cache holding blocks.
func NewIncomingCache(blocks ...*Block) *IncomingCache {
	c := &IncomingCache{blocks: mapset.NewThreadUnsafeSet[NodeID]()}
	for _, b := range blocks {
		c.blocks.Add(b.id)
	}
	return c
}

// Take returns the cached blocks and leaves the cache empty.
func (c *IncomingCache) Take() mapset.Set[NodeID] {
	if c == nil || c.blocks == nil {
		return mapset.NewThreadUnsafeSet[NodeID]()
	}
	blocks := c.blocks
	c.blocks = nil
	return blocks
}

// IsEmpty reports whether the cache has been consumed or was created empty.
func (c *IncomingCache) IsEmpty() bool {
	return c == nil || c.blocks == nil || c.blocks.Cardinality() == 0
}

type propagationEdge struct {
	from, to NodeID
}

type propagationStep struct {
	block *Block
	from  *Block
	value *DefTimeline
	// known is false once the walk crossed a join that was never
	// materialized; the value along the edge is then resolved on demand.
	known bool
	cache *IncomingCache
}

// Propagate announces that t now decides the value leaving its block and
// rebinds the incoming nodes downstream that observed the value it
// replaced. The walk follows successor edges and stops at blocks that
// define the variable themselves or already join it. Joins that were never
// materialized stay lazy: past them, a rebound node gets its target by
// resolving the edge it stands for. The cache applies to the first block
// reached only: a non-empty cache restricts its incoming nodes to the
// cached predecessors and an explicit empty cache rebinds all of them. A
// nil cache, and every later block, matches the edge the walk arrived on.
// It returns the number of nodes rebound.
func (f *Function) Propagate(t *DefTimeline, cache *IncomingCache) int {
	f.mutable("Propagate")
	if !t.block.HasParent() {
		return 0
	}
	v := t.variable
	visited := mapset.NewThreadUnsafeSet[propagationEdge]()
	mark := IncomingID(len(f.incoming))
	var queue []propagationStep
	first := cache
	for _, s := range Successors(t.block) {
		visited.Add(propagationEdge{from: t.block.id, to: s.id})
		queue = append(queue, propagationStep{block: s, from: t.block, value: t, known: true, cache: first})
		first = nil
	}

	rebound := 0
	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]
		b := step.block
		cache := step.cache
		if cache == nil {
			cache = NewIncomingCache(step.from)
		}
		preds := cache.Take()
		value, known := step.value, step.known

		bt := b.Timeline(v)
		switch {
		case bt != nil && bt.HasIncoming():
			for _, n := range bt.Incoming() {
				if preds.Cardinality() > 0 && !preds.Contains(n.pred.id) {
					continue
				}
				target := value
				if !known {
					target = f.valueLeaving(n.pred, v)
				}
				if n.Rebind(target) {
					rebound++
				}
			}
			// A join materialized by a resolution during this walk replaced
			// the value its successors were bound to.
			if bt.HasLocalTimelines() || bt.incoming[0] <= mark {
				continue
			}
			value, known = bt, true
		case bt != nil && bt.HasLocalTimelines():
			continue
		case len(Predecessors(b)) > 1:
			value, known = nil, false
		}
		for _, s := range Successors(b) {
			if visited.Add(propagationEdge{from: b.id, to: s.id}) {
				queue = append(queue, propagationStep{block: s, from: b, value: value, known: known})
			}
		}
	}
	if rebound > 0 {
		log.Debugf("propagated %s: rebound %d incoming nodes", t, rebound)
	}
	return rebound
}

// retarget rebinds the referrers of t after t stopped deciding the value
// leaving its block.
func (f *Function) retarget(t *DefTimeline) {
	if len(t.referrers) == 0 || t.Explicit() {
		return
	}
	target := f.Resolve(t.block, t.variable).Timeline()
	if target == t {
		return
	}
	for _, n := range t.Referrers() {
		n.Rebind(target)
	}
}

// valueLeaving returns the timeline whose value leaves b, or nil when v is
// undefined there.
func (f *Function) valueLeaving(b *Block, v *Variable) *DefTimeline {
	if t := b.Timeline(v); t != nil && t.Explicit() {
		return t
	}
	return f.Resolve(b, v).Timeline()
}

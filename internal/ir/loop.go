package ir

// Loop models start -> condition -> {body -> update -> condition}* -> after.
// The condition's predecessors are the exits of start and update; after is
// the loop's only leaf.
type Loop struct {
	node
	start     Component
	condition *Block
	body      Component
	update    Component
	after     *Block
}

func (l *Loop) Kind() Kind        { return KindLoop }
func (l *Loop) Start() Component  { return l.start }
func (l *Loop) Condition() *Block { return l.condition }
func (l *Loop) Body() Component   { return l.body }
func (l *Loop) Update() Component { return l.update }
func (l *Loop) After() *Block     { return l.after }
func (l *Loop) Leaves() []*Block  { return []*Block{l.after} }

func (l *Loop) Entry() *Block {
	if entry := l.start.Entry(); entry != nil {
		return entry
	}
	return l.condition
}

// Member returns the component playing role r.
func (l *Loop) Member(r Role) Component {
	switch r {
	case RoleLoopStart:
		return l.start
	case RoleLoopCondition:
		return l.condition
	case RoleLoopBody:
		return l.body
	case RoleLoopUpdate:
		return l.update
	case RoleLoopAfter:
		return l.after
	default:
		assertf(false, "Loop.Member", "%s is not a loop role", r)
		return nil
	}
}

// RoleOf returns the role c plays in the loop, or RoleNone.
func (l *Loop) RoleOf(c Component) Role {
	switch c {
	case l.start:
		return RoleLoopStart
	case Component(l.condition):
		return RoleLoopCondition
	case l.body:
		return RoleLoopBody
	case l.update:
		return RoleLoopUpdate
	case Component(l.after):
		return RoleLoopAfter
	default:
		return RoleNone
	}
}

func (l *Loop) replaceMember(r Role, c Component) {
	old := l.Member(r)
	switch r {
	case RoleLoopCondition, RoleLoopAfter:
		_, ok := c.(*Block)
		assertf(ok, "Loop.replaceMember", "%s must be a block", r)
	}
	l.fn.orphan(old)
	l.fn.adopt(l, c)
	switch r {
	case RoleLoopStart:
		l.start = c
	case RoleLoopCondition:
		l.condition = c.(*Block)
	case RoleLoopBody:
		l.body = c
	case RoleLoopUpdate:
		l.update = c
	case RoleLoopAfter:
		l.after = c.(*Block)
	}
}

package ir

// Handles into the per-function arenas. Zero is the invalid sentinel for
// every handle kind.

// NodeID identifies a component within its function.
type NodeID uint32

// TimelineID identifies a DefTimeline within its function.
type TimelineID uint32

// IncomingID identifies an IncomingNode within its function.
type IncomingID uint32

// InstID identifies an instruction within its function.
type InstID uint32

// DefID numbers the definitions of a single variable.
type DefID uint32

// VariableID identifies a variable within its function.
type VariableID uint32

const (
	NoNode     NodeID     = 0
	NoTimeline TimelineID = 0
	NoIncoming IncomingID = 0
	NoInst     InstID     = 0
	NoDef      DefID      = 0
	NoVariable VariableID = 0
)

func (id NodeID) IsValid() bool     { return id != NoNode }
func (id TimelineID) IsValid() bool { return id != NoTimeline }
func (id IncomingID) IsValid() bool { return id != NoIncoming }
func (id InstID) IsValid() bool     { return id != NoInst }
func (id DefID) IsValid() bool      { return id != NoDef }
func (id VariableID) IsValid() bool { return id != NoVariable }

package ir

import (
	"fmt"
)

// Constant is an immediate operand.
type Constant struct {
	Value int64
	Type  Type
}

func (c *Constant) String() string {
	if _, ok := c.Type.(*BoolType); ok {
		if c.Value != 0 {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%d", c.Value)
}

// Use is a read of a variable by an instruction operand. Uses are created
// and owned by timelines; callers never construct them.
type Use struct {
	variable *Variable
	user     *Instruction
	slot     int
	timeline *UseTimeline
}

func (u *Use) Variable() *Variable    { return u.variable }
func (u *Use) User() *Instruction     { return u.user }
func (u *Use) Slot() int              { return u.slot }
func (u *Use) Timeline() *UseTimeline { return u.timeline }
func (u *Use) Block() *Block          { return u.user.block }

func (u *Use) String() string {
	return fmt.Sprintf("use(%s@%d)", u.variable, u.slot)
}

func (u *Use) moveTo(ut *UseTimeline) {
	if u.timeline == ut {
		return
	}
	u.timeline.removeUse(u)
	ut.addUse(u)
}

func (u *Use) detach() {
	if u.timeline != nil {
		u.timeline.removeUse(u)
		u.timeline = nil
	}
}

// Operand is either a variable use or a constant.
type Operand struct {
	use      *Use
	constant *Constant
}

func (o Operand) IsUse() bool         { return o.use != nil }
func (o Operand) Use() *Use           { return o.use }
func (o Operand) Constant() *Constant { return o.constant }
func (o Operand) IsConstant() bool    { return o.constant != nil }

// Arg describes an operand when creating an instruction.
type Arg struct {
	variable *Variable
	constant *Constant
}

// V builds a variable operand.
func V(v *Variable) Arg { return Arg{variable: v} }

// C builds a constant operand.
func C(value int64, t Type) Arg { return Arg{constant: &Constant{Value: value, Type: t}} }

// Instruction is a single operation inside a block.
type Instruction struct {
	id       InstID
	op       Opcode
	block    *Block
	index    int
	operands []Operand
	def      *Def
}

func (i *Instruction) ID() InstID          { return i.id }
func (i *Instruction) Op() Opcode          { return i.op }
func (i *Instruction) Block() *Block       { return i.block }
func (i *Instruction) Operands() []Operand { return i.operands }
func (i *Instruction) Def() *Def           { return i.def }
func (i *Instruction) HasDef() bool        { return i.def != nil }
func (i *Instruction) IsPhi() bool         { return i.op == OpPhi }
func (i *Instruction) IsTerminator() bool  { return i.op.Info().Terminator }

// Index returns the instruction's position inside its block.
func (i *Instruction) Index() int { return i.index }

// Uses returns the variable uses among the operands, in operand order.
func (i *Instruction) Uses() []*Use {
	var uses []*Use
	for _, o := range i.operands {
		if o.use != nil {
			uses = append(uses, o.use)
		}
	}
	return uses
}

// Incoming returns the incoming nodes feeding a phi instruction.
func (i *Instruction) Incoming() []*IncomingNode {
	if i.op != OpPhi || i.def == nil {
		return nil
	}
	return i.def.timeline.owner.Incoming()
}

func (i *Instruction) String() string {
	if i.def != nil {
		return fmt.Sprintf("%s = %s", i.def, i.op)
	}
	return i.op.String()
}

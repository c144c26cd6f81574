package ir

import (
	"fmt"
)

// Variable is a named, typed storage location owned by a Function. Each
// definition created against it receives the next DefID.
type Variable struct {
	id      VariableID
	name    string
	typ     Type
	fn      *Function
	lastDef DefID
}

func (v *Variable) ID() VariableID      { return v.id }
func (v *Variable) Name() string        { return v.name }
func (v *Variable) Type() Type          { return v.typ }
func (v *Variable) Function() *Function { return v.fn }
func (v *Variable) String() string      { return "%" + v.name }

// DefCount returns how many definitions have ever been created for v.
func (v *Variable) DefCount() int { return int(v.lastDef) }

func (v *Variable) nextDefID() DefID {
	v.lastDef++
	return v.lastDef
}

// Def is a single definition of a variable by an instruction. A Def is
// created with its instruction and dies with it.
type Def struct {
	variable *Variable
	inst     *Instruction
	id       DefID
	timeline *UseTimeline
}

func (d *Def) Variable() *Variable       { return d.variable }
func (d *Def) Instruction() *Instruction { return d.inst }
func (d *Def) ID() DefID                 { return d.id }
func (d *Def) Timeline() *UseTimeline    { return d.timeline }

func (d *Def) String() string {
	return fmt.Sprintf("%%%s.%d", d.variable.name, d.id)
}

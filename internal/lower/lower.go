// Package lower builds component trees from parsed source.
package lower

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tliron/commonlog"

	"strata/grammar"
	"strata/internal/errors"
	"strata/internal/ir"
)

var log = commonlog.GetLogger("strata.lower")

// Module is a lowered source file.
type Module struct {
	Filename  string
	Version   *grammar.Version
	Functions []*Function
}

// Function pairs a component tree with the source positions it came from.
type Function struct {
	IR     *ir.Function
	Source *grammar.Function

	instructions map[ir.InstID]errors.Position
	operands     map[operandKey]errors.Position
	declarations map[ir.VariableID]errors.Position
}

type operandKey struct {
	inst ir.InstID
	slot int
}

// PositionOf returns where inst was written. Instructions created after
// lowering, such as materialized phis, have no position.
func (f *Function) PositionOf(inst *ir.Instruction) (errors.Position, bool) {
	pos, ok := f.instructions[inst.ID()]
	return pos, ok
}

// UsePosition returns where the operand behind u was written.
func (f *Function) UsePosition(u *ir.Use) (errors.Position, bool) {
	pos, ok := f.operands[operandKey{inst: u.User().ID(), slot: u.Slot()}]
	return pos, ok
}

// DeclarationOf returns where v was declared.
func (f *Function) DeclarationOf(v *ir.Variable) (errors.Position, bool) {
	pos, ok := f.declarations[v.ID()]
	return pos, ok
}

// Lookup returns the function called name.
func (m *Module) Lookup(name string) (*Function, bool) {
	for _, fn := range m.Functions {
		if fn.IR.Name() == name {
			return fn, true
		}
	}
	return nil, false
}

// Lower builds one ir.Function per source function. Functions with errors
// are still returned so callers can report on what was built.
func Lower(filename string, file *grammar.File) (*Module, []errors.CompilerError) {
	m := &Module{Filename: filename}
	var errs []errors.CompilerError

	seen := make(map[string]errors.Position)
	for _, v := range file.Versions() {
		if m.Version == nil {
			m.Version = v
			continue
		}
		errs = append(errs, errors.InvalidInstruction("version is declared more than once", errors.PositionOf(v.Pos)))
	}
	for _, src := range file.Functions() {
		pos := errors.PositionOf(src.Name.Pos)
		if prev, ok := seen[src.Name.Value]; ok {
			errs = append(errs, errors.NewDiagnostic(errors.ErrorDuplicateVariable,
				fmt.Sprintf("function '%s' is defined more than once", src.Name.Value), pos).
				WithLength(len(src.Name.Value)).
				WithNote(fmt.Sprintf("first defined at %d:%d", prev.Line, prev.Column)).
				Build())
			continue
		}
		seen[src.Name.Value] = pos

		l := newLowerer(src)
		l.lower()
		m.Functions = append(m.Functions, l.out)
		errs = append(errs, l.errs...)
		log.Debugf("lowered %s with %d diagnostics", src.Name.Value, len(l.errs))
	}
	return m, errs
}

type lowerer struct {
	fn   *ir.Function
	out  *Function
	errs []errors.CompilerError
}

func newLowerer(src *grammar.Function) *lowerer {
	fn := ir.NewFunction(src.Name.Value)
	return &lowerer{
		fn: fn,
		out: &Function{
			IR:           fn,
			Source:       src,
			instructions: make(map[ir.InstID]errors.Position),
			operands:     make(map[operandKey]errors.Position),
			declarations: make(map[ir.VariableID]errors.Position),
		},
	}
}

func (l *lowerer) report(err errors.CompilerError) {
	l.errs = append(l.errs, err)
}

func (l *lowerer) lower() {
	src := l.out.Source
	for _, p := range src.Params {
		l.declare(p.Name, p.Type, l.fn.AddArgument)
	}
	for _, p := range src.Returns {
		l.declare(p.Name, p.Type, l.fn.AddReturn)
	}
	l.collect(src.Body)

	// The prologue defines every argument, so the body never starts with a
	// loop condition or a fork.
	entry := l.fn.NewBlock("entry")
	body := l.fn.Body().(*ir.Sequence)
	body.Append(entry)
	for _, arg := range l.fn.Arguments() {
		inst := entry.AppendInstruction(ir.OpArg, arg)
		l.out.instructions[inst.ID()] = l.out.declarations[arg.ID()]
	}
	l.statements(body, entry, src.Body.Statements)
}

// collect declares every local up front. Locals are visible in the whole
// function regardless of where they are written.
func (l *lowerer) collect(bl *grammar.Block) {
	if bl == nil {
		return
	}
	for _, st := range bl.Statements {
		switch {
		case st.Var != nil:
			l.declare(st.Var.Name, st.Var.Type, l.fn.AddVariable)
		case st.If != nil:
			l.collect(st.If.Cond)
			l.collect(st.If.Then)
			l.collect(st.If.Else)
		case st.Switch != nil:
			l.collect(st.Switch.Cond)
			for _, c := range st.Switch.Cases {
				l.collect(c)
			}
		case st.While != nil:
			l.collect(st.While.Cond)
			l.collect(st.While.Body)
			l.collect(st.While.Step)
		case st.For != nil:
			l.collect(st.For.Init)
			l.collect(st.For.Cond)
			l.collect(st.For.Body)
			l.collect(st.For.Step)
		case st.Block != nil:
			l.collect(st.Block)
		}
	}
}

func (l *lowerer) declare(name, typ grammar.PosIdent, add func(string, ir.Type) *ir.Variable) {
	pos := errors.PositionOf(name.Pos)
	if prev, ok := l.fn.Variable(name.Value); ok {
		l.report(errors.DuplicateVariable(name.Value, pos, l.out.declarations[prev.ID()]))
		return
	}
	t, ok := ir.ParseType(typ.Value)
	if !ok {
		l.report(errors.UnknownType(typ.Value, errors.PositionOf(typ.Pos), ir.TypeNames()))
		t = &ir.IntType{Bits: 64}
	}
	v := add(name.Value, t)
	l.out.declarations[v.ID()] = pos
}

func (l *lowerer) declared() []string {
	var names []string
	for _, v := range l.fn.Variables() {
		names = append(names, v.Name())
	}
	sort.Strings(names)
	return names
}

// statements lowers stmts into seq. Runs of instructions share a block;
// cur is the block the next instruction goes into, or nil.
func (l *lowerer) statements(seq *ir.Sequence, cur *ir.Block, stmts []*grammar.Statement) {
	next := func() *ir.Block {
		if cur == nil {
			cur = l.fn.NewBlock("bb")
			seq.Append(cur)
		}
		return cur
	}
	for _, st := range stmts {
		switch {
		case st.Comment != nil, st.Var != nil:
		case st.Assign != nil:
			l.instruction(next(), &st.Assign.Dest, st.Assign.Inst)
		case st.Inst != nil:
			l.instruction(next(), nil, st.Inst)
		case st.Block != nil:
			seq.Append(l.sequence(st.Block))
			cur = nil
		case st.If != nil:
			cond := l.condition(st.If.Cond, "if")
			els := l.sequence(st.If.Else)
			seq.Append(l.fn.NewFork(cond, l.sequence(st.If.Then), els))
			cur = nil
		case st.Switch != nil:
			cond := l.condition(st.Switch.Cond, "switch")
			cases := make([]ir.Component, 0, len(st.Switch.Cases))
			for _, c := range st.Switch.Cases {
				cases = append(cases, l.sequence(c))
			}
			seq.Append(l.fn.NewFork(cond, cases...))
			cur = nil
		case st.While != nil:
			cond := l.condition(st.While.Cond, "loop_cond")
			seq.Append(l.fn.NewLoop(nil, cond, l.sequence(st.While.Body), l.sequence(st.While.Step), nil))
			cur = nil
		case st.For != nil:
			cond := l.condition(st.For.Cond, "loop_cond")
			seq.Append(l.fn.NewLoop(l.sequence(st.For.Init), cond, l.sequence(st.For.Body), l.sequence(st.For.Step), nil))
			cur = nil
		}
	}
}

// sequence lowers a nested block. A missing block becomes an empty
// sequence.
func (l *lowerer) sequence(bl *grammar.Block) *ir.Sequence {
	seq := l.fn.NewSequence()
	if bl != nil {
		l.statements(seq, nil, bl.Statements)
	}
	return seq
}

// condition lowers a condition block. Conditions decide where control
// goes, so they may only hold instructions.
func (l *lowerer) condition(bl *grammar.Block, label string) *ir.Block {
	b := l.fn.NewBlock(label)
	for _, st := range bl.Statements {
		switch {
		case st.Comment != nil, st.Var != nil:
		case st.Assign != nil:
			l.instruction(b, &st.Assign.Dest, st.Assign.Inst)
		case st.Inst != nil:
			l.instruction(b, nil, st.Inst)
		default:
			l.report(errors.InvalidInstruction("control flow is not allowed in a condition", statementPos(st)))
		}
	}
	return b
}

func statementPos(st *grammar.Statement) errors.Position {
	switch {
	case st.If != nil:
		return errors.PositionOf(st.If.Pos)
	case st.Switch != nil:
		return errors.PositionOf(st.Switch.Pos)
	case st.While != nil:
		return errors.PositionOf(st.While.Pos)
	case st.For != nil:
		return errors.PositionOf(st.For.Pos)
	case st.Block != nil:
		return errors.PositionOf(st.Block.Pos)
	default:
		return errors.Position{}
	}
}

// instruction checks src and appends it to b. Invalid instructions are
// reported and skipped.
func (l *lowerer) instruction(b *ir.Block, dst *grammar.PosIdent, src *grammar.Inst) {
	pos := errors.PositionOf(src.Pos)
	opPos := errors.PositionOf(src.Op.Pos)
	name := src.Op.Value

	op, ok := ir.LookupOpcode(name)
	if !ok {
		l.report(errors.UnknownOpcode(name, opPos, ir.OpcodeNames()))
		return
	}
	info := op.Info()
	switch {
	case op == ir.OpPhi:
		l.report(errors.InvalidInstruction("phi instructions are inserted by resolution and cannot be written", opPos))
		return
	case op == ir.OpArg:
		l.report(errors.InvalidInstruction("arguments are defined by the function signature", opPos))
		return
	case info.Arity >= 0 && len(src.Operands) != info.Arity:
		l.report(errors.OperandCount(name, info.Arity, len(src.Operands), opPos))
		return
	case dst == nil && info.HasDef && op != ir.OpCall:
		l.report(errors.InvalidInstruction(fmt.Sprintf("'%s' needs a destination", name), opPos))
		return
	case dst != nil && !info.HasDef:
		l.report(errors.InvalidInstruction(fmt.Sprintf("'%s' does not define a value", name), errors.PositionOf(dst.Pos)))
		return
	}
	if term := b.Terminator(); term != nil {
		l.report(errors.InvalidInstruction(fmt.Sprintf("instruction follows '%s' in the same block", term.Op()), pos))
		return
	}

	var target *ir.Variable
	valid := true
	if dst != nil {
		v, ok := l.fn.Variable(dst.Value)
		switch {
		case !ok:
			l.report(errors.UnknownVariable(dst.Value, errors.PositionOf(dst.Pos), l.declared()))
			valid = false
		case ir.IsVoid(v.Type()):
			l.report(errors.InvalidInstruction(fmt.Sprintf("cannot assign to '%s' of type void", dst.Value), errors.PositionOf(dst.Pos)))
			valid = false
		default:
			target = v
		}
	}

	constType := l.constantType(src, target)
	args := make([]ir.Arg, 0, len(src.Operands))
	for _, o := range src.Operands {
		arg, ok := l.operand(o, constType)
		valid = valid && ok
		args = append(args, arg)
	}
	if !valid {
		return
	}

	inst := b.AppendInstruction(op, target, args...)
	if dst != nil {
		pos = errors.PositionOf(dst.Pos)
	}
	l.out.instructions[inst.ID()] = pos
	for slot, o := range src.Operands {
		l.out.operands[operandKey{inst: inst.ID(), slot: slot}] = errors.PositionOf(o.Pos)
	}
}

// constantType picks the type of integer literals: the first variable
// operand's, then the destination's, then i64.
func (l *lowerer) constantType(src *grammar.Inst, dst *ir.Variable) ir.Type {
	for _, o := range src.Operands {
		if o.Ident == nil {
			continue
		}
		if v, ok := l.fn.Variable(*o.Ident); ok {
			return v.Type()
		}
	}
	if dst != nil {
		return dst.Type()
	}
	return &ir.IntType{Bits: 64}
}

func (l *lowerer) operand(o *grammar.Operand, constType ir.Type) (ir.Arg, bool) {
	pos := errors.PositionOf(o.Pos)
	switch {
	case o.Bool != nil:
		value := int64(0)
		if *o.Bool == "true" {
			value = 1
		}
		return ir.C(value, &ir.BoolType{}), true
	case o.Integer != nil:
		value, err := strconv.ParseInt(*o.Integer, 0, 64)
		if err != nil {
			l.report(errors.InvalidInstruction(fmt.Sprintf("integer literal %s does not fit in 64 bits", *o.Integer), pos))
			return ir.Arg{}, false
		}
		return ir.C(value, constType), true
	default:
		v, ok := l.fn.Variable(*o.Ident)
		if !ok {
			l.report(errors.UnknownVariable(*o.Ident, pos, l.declared()))
			return ir.Arg{}, false
		}
		return ir.V(v), true
	}
}

package ir

import (
	"fmt"
	"strings"
)

// Printer renders a function's component tree with every use annotated by
// the definition that reaches it. Printing never materializes joins: uses
// whose join has not been resolved yet are shown as such.
type Printer struct {
	indent int
	output strings.Builder
	fn     *Function
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of a function.
func Print(fn *Function) string {
	p := NewPrinter()
	p.fn = fn
	Accept[struct{}](fn, p)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) nested(header string, children ...Component) {
	p.writeLine("%s {", header)
	p.indent++
	for _, c := range children {
		Accept[struct{}](c, p)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) VisitFunction(fn *Function) struct{} {
	p.writeLine("func %s(%s) -> (%s) {", fn.name, p.params(fn.args), p.params(fn.returns))
	p.indent++
	Accept[struct{}](fn.body, p)
	p.indent--
	p.writeLine("}")
	return struct{}{}
}

func (p *Printer) VisitSequence(s *Sequence) struct{} {
	p.nested("seq", s.elements...)
	return struct{}{}
}

func (p *Printer) VisitFork(f *Fork) struct{} {
	p.writeLine("fork {")
	p.indent++
	p.printBlock("cond ", f.condition)
	for i, c := range f.cases {
		p.nested(fmt.Sprintf("case %d", i), c)
	}
	p.indent--
	p.writeLine("}")
	return struct{}{}
}

func (p *Printer) VisitLoop(l *Loop) struct{} {
	p.writeLine("loop {")
	p.indent++
	p.nested("start", l.start)
	p.printBlock("cond ", l.condition)
	p.nested("body", l.body)
	p.nested("update", l.update)
	p.printBlock("after ", l.after)
	p.indent--
	p.writeLine("}")
	return struct{}{}
}

func (p *Printer) VisitBlock(b *Block) struct{} {
	p.printBlock("", b)
	return struct{}{}
}

func (p *Printer) printBlock(prefix string, b *Block) {
	p.writeLine("%sblock %s {", prefix, b.label)
	p.indent++
	phis := make(map[VariableID]bool)
	for _, inst := range b.instructions[:b.phiCount] {
		phis[inst.def.variable.id] = true
	}
	for _, t := range b.Timelines() {
		if t.HasIncoming() && !phis[t.variable.id] {
			p.writeLine("%s = join %s", ReachingDef{Join: t}, p.incoming(t))
		}
	}
	for _, inst := range b.instructions {
		p.printInstruction(inst)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printInstruction(inst *Instruction) {
	var sb strings.Builder
	if inst.def != nil {
		sb.WriteString(inst.def.String())
		sb.WriteString(" = ")
	}
	sb.WriteString(inst.op.String())
	if inst.op == OpPhi {
		sb.WriteString(" ")
		sb.WriteString(p.incoming(inst.def.timeline.owner))
	}
	for i, o := range inst.operands {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(p.operand(o))
	}
	p.writeLine("%s", sb.String())
}

func (p *Printer) incoming(t *DefTimeline) string {
	parts := make([]string, 0, len(t.incoming))
	for _, n := range t.Incoming() {
		value := "undef"
		if target := n.Target(); target != nil {
			value = p.outgoing(target)
		}
		parts = append(parts, fmt.Sprintf("[%s: %s]", n.pred.label, value))
	}
	return strings.Join(parts, " ")
}

func (p *Printer) outgoing(t *DefTimeline) string {
	if last := t.Last(); last != nil {
		return last.def.String()
	}
	if t.HasIncoming() {
		return ReachingDef{Join: t}.String()
	}
	return p.resolution(p.fn.Probe(t.block, t.variable))
}

func (p *Printer) resolution(r Resolution) string {
	switch {
	case r.IsUndefined():
		return "undef"
	case r.Join() != nil:
		return "unresolved(" + r.Join().label + ")"
	case r.AtTop():
		return ReachingDef{Join: r.Timeline()}.String()
	default:
		return p.outgoing(r.Timeline())
	}
}

func (p *Printer) operand(o Operand) string {
	if o.constant != nil {
		return o.constant.String()
	}
	u := o.use
	if u.timeline.def != nil {
		return u.timeline.def.String()
	}
	return p.resolution(p.fn.Probe(u.Block(), u.variable))
}

func (p *Printer) params(vars []*Variable) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = fmt.Sprintf("%s: %s", v.name, v.typ)
	}
	return strings.Join(parts, ", ")
}

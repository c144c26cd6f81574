package grammar

import (
	"fmt"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (f *File) String() string {
	var b strings.Builder
	for i, e := range f.Elements {
		if i > 0 && e.Function != nil {
			b.WriteString("\n")
		}
		b.WriteString(e.StringWithIndent(0))
	}
	return b.String()
}

func (e *Element) StringWithIndent(level int) string {
	switch {
	case e.Comment != nil:
		return indent(level) + e.Comment.String() + "\n"
	case e.Version != nil:
		return indent(level) + e.Version.String() + "\n"
	case e.Function != nil:
		return e.Function.StringWithIndent(level)
	}
	return ""
}

func (c *Comment) String() string {
	return c.Text
}

func (v *Version) String() string {
	return fmt.Sprintf("version %q;", v.Value)
}

func (p *Param) String() string {
	return fmt.Sprintf("%s: %s", p.Name.Value, p.Type.Value)
}

func params(ps []*Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func (f *Function) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%sfunc %s(%s)", indent(level), f.Name.Value, params(f.Params)))
	if len(f.Returns) > 0 {
		b.WriteString(fmt.Sprintf(" -> (%s)", params(f.Returns)))
	}
	b.WriteString(" " + f.Body.StringWithIndent(level) + "\n")
	return b.String()
}

// StringWithIndent renders the block starting at the current column; the
// closing brace is indented to level.
func (bl *Block) StringWithIndent(level int) string {
	if len(bl.Statements) == 0 {
		return "{ }"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range bl.Statements {
		b.WriteString(s.StringWithIndent(level + 1))
	}
	b.WriteString(indent(level) + "}")
	return b.String()
}

func (s *Statement) StringWithIndent(level int) string {
	var body string
	switch {
	case s.Comment != nil:
		body = s.Comment.String()
	case s.Var != nil:
		body = s.Var.String()
	case s.If != nil:
		body = s.If.StringWithIndent(level)
	case s.Switch != nil:
		body = s.Switch.StringWithIndent(level)
	case s.While != nil:
		body = s.While.StringWithIndent(level)
	case s.For != nil:
		body = s.For.StringWithIndent(level)
	case s.Block != nil:
		body = s.Block.StringWithIndent(level)
	case s.Assign != nil:
		body = s.Assign.String()
	case s.Inst != nil:
		body = s.Inst.String()
	}
	return indent(level) + body + "\n"
}

func (v *VarDecl) String() string {
	return fmt.Sprintf("var %s: %s;", v.Name.Value, v.Type.Value)
}

func (i *IfStmt) StringWithIndent(level int) string {
	out := fmt.Sprintf("if %s then %s", i.Cond.StringWithIndent(level), i.Then.StringWithIndent(level))
	if i.Else != nil {
		out += " else " + i.Else.StringWithIndent(level)
	}
	return out
}

func (s *SwitchStmt) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString("switch " + s.Cond.StringWithIndent(level))
	for _, c := range s.Cases {
		b.WriteString(" case " + c.StringWithIndent(level))
	}
	return b.String()
}

func (w *WhileStmt) StringWithIndent(level int) string {
	out := fmt.Sprintf("while %s do %s", w.Cond.StringWithIndent(level), w.Body.StringWithIndent(level))
	if w.Step != nil {
		out += " step " + w.Step.StringWithIndent(level)
	}
	return out
}

func (f *ForStmt) StringWithIndent(level int) string {
	return fmt.Sprintf("for %s while %s do %s step %s",
		f.Init.StringWithIndent(level), f.Cond.StringWithIndent(level),
		f.Body.StringWithIndent(level), f.Step.StringWithIndent(level))
}

func (a *Assign) String() string {
	return a.Dest.Value + " = " + a.Inst.String()
}

func (i *Inst) String() string {
	if len(i.Operands) == 0 {
		return i.Op.Value + ";"
	}
	ops := make([]string, len(i.Operands))
	for j, o := range i.Operands {
		ops[j] = o.String()
	}
	return fmt.Sprintf("%s %s;", i.Op.Value, strings.Join(ops, ", "))
}

func (o *Operand) String() string {
	switch {
	case o.Bool != nil:
		return *o.Bool
	case o.Integer != nil:
		return *o.Integer
	case o.Ident != nil:
		return *o.Ident
	}
	return ""
}

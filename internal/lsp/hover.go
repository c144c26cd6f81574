package lsp

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"strata/internal/driver"
	"strata/internal/errors"
	"strata/internal/ir"
	"strata/internal/lower"
)

// hoverAt describes the variable operand or destination at pos.
func hoverAt(res *driver.Result, pos protocol.Position) (string, protocol.Range, bool) {
	if res == nil || res.Module == nil {
		return "", protocol.Range{}, false
	}
	line, col := int(pos.Line)+1, int(pos.Character)+1
	for _, fn := range res.Module.Functions {
		for _, b := range ir.Blocks(fn.IR) {
			for _, inst := range b.Instructions() {
				for _, u := range inst.Uses() {
					p, ok := fn.UsePosition(u)
					if ok && covers(p, u.Variable().Name(), line, col) {
						return describeUse(fn, u), nameRange(p, u.Variable().Name()), true
					}
				}
				if !inst.HasDef() || inst.Op() == ir.OpArg {
					continue
				}
				v := inst.Def().Variable()
				p, ok := fn.PositionOf(inst)
				if ok && covers(p, v.Name(), line, col) {
					text := fmt.Sprintf("%s: %s\ndefines %s", v.Name(), v.Type(), inst.Def())
					return text, nameRange(p, v.Name()), true
				}
			}
		}
	}
	return "", protocol.Range{}, false
}

func describeUse(fn *lower.Function, u *ir.Use) string {
	v := u.Variable()
	header := fmt.Sprintf("%s: %s\n", v.Name(), v.Type())
	rd := fn.IR.ReachingDef(u)
	switch {
	case rd.Def != nil:
		where := ""
		if p, ok := fn.PositionOf(rd.Def.Instruction()); ok {
			where = fmt.Sprintf(" at %d:%d", p.Line, p.Column)
		}
		return header + fmt.Sprintf("reached by %s%s", rd.Def, where)
	case rd.Join != nil:
		var preds []string
		for _, n := range rd.Join.Incoming() {
			preds = append(preds, n.Predecessor().Label())
		}
		return header + fmt.Sprintf("reached by a join in %s from %s", rd.Join.Block().Label(), strings.Join(preds, ", "))
	default:
		return header + "no definition reaches this use"
	}
}

func covers(p errors.Position, name string, line, col int) bool {
	return p.Line == line && col >= p.Column && col < p.Column+len(name)
}

func nameRange(p errors.Position, name string) protocol.Range {
	start := protocol.Position{Line: uint32(p.Line - 1), Character: uint32(p.Column - 1)}
	end := start
	end.Character += uint32(len(name))
	return protocol.Range{Start: start, End: end}
}

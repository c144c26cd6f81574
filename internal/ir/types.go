package ir

import (
	"fmt"
)

// Type is an opaque value type. The core only needs equality and the
// distinguished Void type, which marks undefined or indeterminate values.
type Type interface {
	String() string
	Equal(other Type) bool
}

type IntType struct {
	Bits int
}

type BoolType struct{}

type PtrType struct{}

type VoidType struct{}

// Void is the bottom type.
var Void Type = &VoidType{}

func (i *IntType) String() string  { return fmt.Sprintf("i%d", i.Bits) }
func (b *BoolType) String() string { return "bool" }
func (p *PtrType) String() string  { return "ptr" }
func (v *VoidType) String() string { return "void" }

func (i *IntType) Equal(other Type) bool {
	o, ok := other.(*IntType)
	return ok && o.Bits == i.Bits
}

func (b *BoolType) Equal(other Type) bool {
	_, ok := other.(*BoolType)
	return ok
}

func (p *PtrType) Equal(other Type) bool {
	_, ok := other.(*PtrType)
	return ok
}

func (v *VoidType) Equal(other Type) bool {
	_, ok := other.(*VoidType)
	return ok
}

// IsVoid reports whether t is nil or the bottom type.
func IsVoid(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*VoidType)
	return ok
}

// ParseType maps a textual type name to a Type.
func ParseType(name string) (Type, bool) {
	switch name {
	case "i1":
		return &IntType{Bits: 1}, true
	case "i8":
		return &IntType{Bits: 8}, true
	case "i16":
		return &IntType{Bits: 16}, true
	case "i32":
		return &IntType{Bits: 32}, true
	case "i64":
		return &IntType{Bits: 64}, true
	case "bool":
		return &BoolType{}, true
	case "ptr":
		return &PtrType{}, true
	case "void":
		return Void, true
	default:
		return nil, false
	}
}

// TypeNames lists the names ParseType accepts.
func TypeNames() []string {
	return []string{"i1", "i8", "i16", "i32", "i64", "bool", "ptr", "void"}
}

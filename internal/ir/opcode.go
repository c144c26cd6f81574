package ir

// Opcode selects an instruction's operation. The core only looks at the
// metadata needed to wire defs and uses; everything else is for consumers.
type Opcode uint8

const (
	OpInvalid Opcode = iota
	OpArg
	OpConst
	OpCopy
	OpUndef
	OpPhi
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNot
	OpNeg
	OpLoad
	OpStore
	OpCall
	OpPrint
	OpBranch
	OpRet
)

// OpInfo is the static metadata of an opcode. Arity is -1 for variadic
// operations.
type OpInfo struct {
	Name       string
	HasDef     bool
	Arity      int
	Terminator bool
}

var opTable = [...]OpInfo{
	OpInvalid: {Name: "invalid", Arity: 0},
	OpArg:     {Name: "arg", HasDef: true, Arity: 0},
	OpConst:   {Name: "const", HasDef: true, Arity: 1},
	OpCopy:    {Name: "copy", HasDef: true, Arity: 1},
	OpUndef:   {Name: "undef", HasDef: true, Arity: 0},
	OpPhi:     {Name: "phi", HasDef: true, Arity: 0},
	OpAdd:     {Name: "add", HasDef: true, Arity: 2},
	OpSub:     {Name: "sub", HasDef: true, Arity: 2},
	OpMul:     {Name: "mul", HasDef: true, Arity: 2},
	OpDiv:     {Name: "div", HasDef: true, Arity: 2},
	OpRem:     {Name: "rem", HasDef: true, Arity: 2},
	OpAnd:     {Name: "and", HasDef: true, Arity: 2},
	OpOr:      {Name: "or", HasDef: true, Arity: 2},
	OpXor:     {Name: "xor", HasDef: true, Arity: 2},
	OpShl:     {Name: "shl", HasDef: true, Arity: 2},
	OpShr:     {Name: "shr", HasDef: true, Arity: 2},
	OpEq:      {Name: "eq", HasDef: true, Arity: 2},
	OpNe:      {Name: "ne", HasDef: true, Arity: 2},
	OpLt:      {Name: "lt", HasDef: true, Arity: 2},
	OpLe:      {Name: "le", HasDef: true, Arity: 2},
	OpGt:      {Name: "gt", HasDef: true, Arity: 2},
	OpGe:      {Name: "ge", HasDef: true, Arity: 2},
	OpNot:     {Name: "not", HasDef: true, Arity: 1},
	OpNeg:     {Name: "neg", HasDef: true, Arity: 1},
	OpLoad:    {Name: "load", HasDef: true, Arity: 1},
	OpStore:   {Name: "store", Arity: 2},
	OpCall:    {Name: "call", HasDef: true, Arity: -1},
	OpPrint:   {Name: "print", Arity: -1},
	OpBranch:  {Name: "br", Arity: 1, Terminator: true},
	OpRet:     {Name: "ret", Arity: -1, Terminator: true},
}

var opByName map[string]Opcode

func init() {
	opByName = make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		if Opcode(op) == OpInvalid {
			continue
		}
		opByName[info.Name] = Opcode(op)
	}
}

// Info returns the metadata for op.
func (op Opcode) Info() OpInfo {
	if int(op) >= len(opTable) {
		return opTable[OpInvalid]
	}
	return opTable[op]
}

func (op Opcode) String() string { return op.Info().Name }

// LookupOpcode finds an opcode by its textual name.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opByName[name]
	return op, ok
}

// OpcodeNames returns the textual names of every valid opcode in opcode
// order.
func OpcodeNames() []string {
	names := make([]string, 0, len(opTable)-1)
	for op := OpInvalid + 1; int(op) < len(opTable); op++ {
		names = append(names, opTable[op].Name)
	}
	return names
}

// Package bytecode implements the fetch/decode/dispatch core of the "es"
// stack-based bytecode virtual machine: a precise binary instruction format
// with variable-width encoding, tagged-union value semantics, per-scope
// variable tables across nested call frames, a fixed-capacity array heap,
// and the registration/invocation protocol for external host subroutines.
package bytecode

// OpCode identifies one instruction. The instruction format is either
// single-byte (opcode only) or nine-byte (opcode + two big-endian 32-bit
// operand words); OpCode.Width reports which.
type OpCode byte

const (
	OpNop          OpCode = 0x00
	OpPushG        OpCode = 0x10
	OpPopG         OpCode = 0x11
	OpPushL        OpCode = 0x12
	OpPopL         OpCode = 0x13
	OpPush         OpCode = 0x14
	OpPushS        OpCode = 0x15
	OpData         OpCode = 0x16
	OpPushA        OpCode = 0x17
	OpPushAS       OpCode = 0x18
	OpEq           OpCode = 0x20
	OpLt           OpCode = 0x21
	OpGt           OpCode = 0x22
	OpLtEq         OpCode = 0x23
	OpGtEq         OpCode = 0x24
	OpNotEq        OpCode = 0x25
	OpAdd          OpCode = 0x30
	OpNeg          OpCode = 0x31
	OpSub          OpCode = 0x32
	OpMul          OpCode = 0x33
	OpDiv          OpCode = 0x34
	OpAnd          OpCode = 0x35
	OpOr           OpCode = 0x36
	OpNot          OpCode = 0x37
	OpConcat       OpCode = 0x38
	OpMod          OpCode = 0x39
	OpJz           OpCode = 0x40
	OpJmp          OpCode = 0x41
	OpRetFromFrame OpCode = 0x42
	OpCallFun      OpCode = 0x43
	OpHostCall     OpCode = 0x44
	OpPrint        OpCode = 0x50
	OpArgType      OpCode = 0x51
	OpLen          OpCode = 0x52
	OpArrayCtor    OpCode = 0x53
)

// OpCodeNames maps opcodes to their mnemonic, used by the disassembler and
// by IsDefined. Fault messages show the opcode as a hex byte instead.
var OpCodeNames = map[OpCode]string{
	OpNop:          "Nop",
	OpPushG:        "PushG",
	OpPopG:         "PopG",
	OpPushL:        "PushL",
	OpPopL:         "PopL",
	OpPush:         "Push",
	OpPushS:        "PushS",
	OpData:         "Data",
	OpPushA:        "PushA",
	OpPushAS:       "PushAS",
	OpEq:           "Eq",
	OpLt:           "Lt",
	OpGt:           "Gt",
	OpLtEq:         "LtEq",
	OpGtEq:         "GtEq",
	OpNotEq:        "NotEq",
	OpAdd:          "Add",
	OpNeg:          "Neg",
	OpSub:          "Sub",
	OpMul:          "Mul",
	OpDiv:          "Div",
	OpAnd:          "And",
	OpOr:           "Or",
	OpNot:          "Not",
	OpConcat:       "Concat",
	OpMod:          "Mod",
	OpJz:           "Jz",
	OpJmp:          "Jmp",
	OpRetFromFrame: "RetFromFrame",
	OpCallFun:      "CallFun",
	OpHostCall:     "HostCall",
	OpPrint:        "Print",
	OpArgType:      "ArgType",
	OpLen:          "Len",
	OpArrayCtor:    "ArrayCtor",
}

func (op OpCode) String() string {
	if name, ok := OpCodeNames[op]; ok {
		return name
	}
	return "Invalid"
}

// singleByteOpcodes is the canonical classification of opcodes that carry no
// operand field. Every other defined opcode is nine-byte (opcode + two
// big-endian 32-bit operand words). The decoder MUST use this table;
// misclassifying an opcode's width is a fatal DecodeFault. Concat and
// RetFromFrame are deliberately nine-byte here (matching original_source's
// sb_ops[] table, which marks both 0x38 and 0x42 as non-single-byte) even
// though spec.md's own opcode table text doesn't show an operand token for
// either row; a canonically-encoded nine-byte RetFromFrame ends every
// subroutine call, so getting this wrong would desync the instruction
// stream on the very next fetch.
var singleByteOpcodes = map[OpCode]bool{
	OpNop:       true,
	OpPushAS:    true,
	OpEq:        true,
	OpLt:        true,
	OpGt:        true,
	OpLtEq:      true,
	OpGtEq:      true,
	OpNotEq:     true,
	OpAdd:       true,
	OpNeg:       true,
	OpSub:       true,
	OpMul:       true,
	OpDiv:       true,
	OpAnd:       true,
	OpOr:        true,
	OpNot:       true,
	OpMod:       true,
	OpPrint:     true,
	OpArgType:   true,
	OpLen:       true,
	OpArrayCtor: true,
}

// IsDefined reports whether op is a member of the opcode table at all.
func (op OpCode) IsDefined() bool {
	_, ok := OpCodeNames[op]
	return ok
}

// IsSingleByte reports whether op is encoded as opcode-only (true) or as
// opcode plus a nine-byte operand field (false). Callers must check
// IsDefined first: an unclassified opcode is an InvalidOpcodeFault, not a
// width question.
func (op OpCode) IsSingleByte() bool {
	return singleByteOpcodes[op]
}

// Width returns the number of bytes this opcode and its operand field
// occupy (not counting any inline literal body, e.g. PushS's string bytes).
func (op OpCode) Width() int {
	if op.IsSingleByte() {
		return 1
	}
	return 9
}

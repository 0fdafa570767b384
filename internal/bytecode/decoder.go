package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/esvm-dev/esvm/internal/errors"
)

// Decoded is one fetched-and-decoded instruction: its opcode, the raw
// big-endian operand halves (when nine-byte), and those halves reassembled
// into the 64-bit IEEE-754 double "d_op" most immediate-taking opcodes use.
type Decoded struct {
	Op       OpCode
	Operand1 uint32
	Operand2 uint32
	DOp      float64
	Width    int
}

// IntOperand truncates d_op to an integer index, for opcodes whose operand
// must be an integer (PushG/PopG/PushL/PopL/PushA/Jz/Jmp/CallFun/HostCall/
// PushS's length).
func (d Decoded) IntOperand() int {
	return int(d.DOp)
}

// decodeAt fetches and decodes the instruction at ip. It never advances past
// an opcode's own operand field: for PushS, the caller is responsible for
// additionally skipping the inline literal body using d.IntOperand() as its
// length. Both the dispatch loop and the disassembler call this so they can
// never disagree about instruction boundaries.
func decodeAt(ds *DataSegment, ip int) (Decoded, error) {
	opByte, err := ds.At(ip)
	if err != nil {
		return Decoded{}, err
	}
	op := OpCode(opByte)
	if !op.IsDefined() {
		return Decoded{}, errors.NewFault(errors.InvalidOpcodeFault, ip, opByte, "opcode byte 0x%02X is not in the defined set", opByte)
	}

	if op.IsSingleByte() {
		return Decoded{Op: op, Width: 1}, nil
	}

	raw, err := ds.Slice(ip+1, 8)
	if err != nil {
		return Decoded{}, errors.NewFault(errors.DecodeFault, ip, opByte, "truncated nine-byte instruction: %v", err)
	}
	op1 := binary.BigEndian.Uint32(raw[0:4])
	op2 := binary.BigEndian.Uint32(raw[4:8])
	bits := uint64(op1)<<32 | uint64(op2)
	return Decoded{
		Op:       op,
		Operand1: op1,
		Operand2: op2,
		DOp:      math.Float64frombits(bits),
		Width:    9,
	}, nil
}

// encodeOperand packs a float64 into its big-endian 32-bit operand halves,
// the inverse of decodeAt's reassembly. It is unexported; tests and
// embedding hosts that build programs by hand reach it through
// EncodeInstruction.
func encodeOperand(d float64) (op1, op2 uint32) {
	bits := math.Float64bits(d)
	return uint32(bits >> 32), uint32(bits)
}

// EncodeInstruction appends a nine-byte instruction (opcode + immediate) to
// buf and returns the result. It is a convenience for hosts/tests building
// byte streams; the core itself never calls it during execution.
func EncodeInstruction(buf []byte, op OpCode, immediate float64) []byte {
	op1, op2 := encodeOperand(immediate)
	buf = append(buf, byte(op))
	var b [8]byte
	binary.BigEndian.PutUint32(b[0:4], op1)
	binary.BigEndian.PutUint32(b[4:8], op2)
	return append(buf, b[:]...)
}

// EncodeSimple appends a single-byte instruction to buf.
func EncodeSimple(buf []byte, op OpCode) []byte {
	return append(buf, byte(op))
}

// EncodeString appends a PushS instruction (length immediate + inline
// literal body) to buf.
func EncodeString(buf []byte, s string) []byte {
	buf = EncodeInstruction(buf, OpPushS, float64(len(s)))
	return append(buf, []byte(s)...)
}

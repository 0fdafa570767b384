package bytecode

import (
	"fmt"
	"io"
)

// Disassembler prints a human-readable dump of a loaded data segment. It
// walks the segment with the exact same decodeAt routine the dispatch loop
// uses, so disassembly can never desync from what actually executes; it
// never mutates VM state and is not reachable from bytecode itself.
type Disassembler struct {
	writer io.Writer
	ds     *DataSegment
}

// NewDisassembler creates a disassembler over a data segment already loaded
// with a program (see DataSegment.Load).
func NewDisassembler(ds *DataSegment, writer io.Writer) *Disassembler {
	return &Disassembler{writer: writer, ds: ds}
}

// Disassemble prints every instruction in the segment, one per line.
func (d *Disassembler) Disassemble() error {
	fmt.Fprintf(d.writer, "== program (%d bytes) ==\n", d.ds.Len())
	offset := 0
	for offset < d.ds.Len() {
		next, err := d.DisassembleInstruction(offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

// DisassembleInstruction prints the instruction at offset and returns the
// offset of the next instruction.
func (d *Disassembler) DisassembleInstruction(offset int) (int, error) {
	dec, err := decodeAt(d.ds, offset)
	if err != nil {
		return 0, err
	}

	next := offset + dec.Width
	switch dec.Op {
	case OpPushS:
		length := dec.IntOperand()
		body, err := d.ds.Slice(next, length)
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(d.writer, "%04d  %-14s %q\n", offset, dec.Op.String(), string(body))
		next += length
	case OpPushG, OpPopG, OpPushL, OpPopL, OpData, OpPushA, OpJz, OpJmp, OpCallFun, OpHostCall:
		fmt.Fprintf(d.writer, "%04d  %-14s %d\n", offset, dec.Op.String(), dec.IntOperand())
	case OpPush:
		fmt.Fprintf(d.writer, "%04d  %-14s %g\n", offset, dec.Op.String(), dec.DOp)
	default:
		fmt.Fprintf(d.writer, "%04d  %s\n", offset, dec.Op.String())
	}
	return next, nil
}

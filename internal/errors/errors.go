// Package errors formats the VM's fault taxonomy the way the source
// compiler formats diagnostics: a short header naming where the problem
// occurred, followed by the detail. There is no source text in this system,
// so the "where" is an instruction offset and opcode rather than a
// line/column.
package errors

import "fmt"

// FaultKind enumerates the fatal fault taxonomy. Every fault is terminal:
// the VM reports it once via the host's Fail callback and stops.
type FaultKind string

const (
	DecodeFault         FaultKind = "DecodeFault"
	StackUnderflowFault FaultKind = "StackUnderflowFault"
	StackOverflowFault  FaultKind = "StackOverflowFault"
	ArrayBoundsFault    FaultKind = "ArrayBoundsFault"
	ArrayAllocFault     FaultKind = "ArrayAllocFault"
	FrameOverflowFault  FaultKind = "FrameOverflowFault"
	FrameUnderflowFault FaultKind = "FrameUnderflowFault"
	StringLengthFault   FaultKind = "StringLengthFault"
	UnknownHostRoutine  FaultKind = "UnknownHostRoutine"
	HostRoutineError    FaultKind = "HostRoutineError"
	InvalidOpcodeFault  FaultKind = "InvalidOpcodeFault"

	// ArithmeticFault covers the one fatal arithmetic case the opcode table
	// calls out (Mod by zero) but the source's closed fault table never
	// named: see DESIGN.md for the resolution.
	ArithmeticFault FaultKind = "ArithmeticFault"
)

// Fault is the error value returned by any opcode that cannot complete. It
// carries enough context to reproduce the failure: the kind, a message, and
// the instruction pointer / opcode byte active at the time of the fault.
type Fault struct {
	Kind    FaultKind
	Message string
	IP      int
	Opcode  byte
}

// NewFault constructs a Fault at the given IP/opcode.
func NewFault(kind FaultKind, ip int, opcode byte, format string, args ...interface{}) *Fault {
	return &Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		IP:      ip,
		Opcode:  opcode,
	}
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return f.Format()
}

// Format renders the fault the way the source compiler renders a
// diagnostic: a header line naming where it happened, then the message.
func (f *Fault) Format() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s at ip=%d (opcode 0x%02X): %s", f.Kind, f.IP, f.Opcode, f.Message)
}

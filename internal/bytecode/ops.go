package bytecode

import "github.com/esvm-dev/esvm/internal/errors"

// binaryNumeric pops b (top) then a (next), applies fn(a, b), and pushes
// the Number result. Arithmetic and comparison opcodes assume both operands
// are numbers, per the data model's invariant; the VM trusts that
// precondition the way an embedded interpreter trusts its compiler.
func (vm *VM) binaryNumeric(fn func(a, b float64) float64) error {
	b, err := vm.stack.pop()
	if err != nil {
		return err
	}
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	return vm.stack.push(NumberValue(fn(a.Num, b.Num)))
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (vm *VM) unaryNumeric(fn func(a float64) float64) error {
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	return vm.stack.push(NumberValue(fn(a.Num)))
}

// mod implements the Mod opcode: uint32 truncation, mod, truncated again to
// 8 bits. Mod by zero faults (unlike Div, which is IEEE and never faults).
func (vm *VM) mod() error {
	b, err := vm.stack.pop()
	if err != nil {
		return err
	}
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	divisor := uint32(b.Num)
	if divisor == 0 {
		return errors.NewFault(errors.ArithmeticFault, vm.ip, byte(OpMod), "mod by zero")
	}
	result := uint32(a.Num) % divisor
	return vm.stack.push(NumberValue(float64(result & 0xFF)))
}

// concat implements: pop two values (top first, then next), render any
// non-string operand with the canonical format, concatenate next+top (so
// the left-to-right push order reads left-to-right in the result), and
// bound the result by MAX_STR.
func (vm *VM) concat() error {
	top, err := vm.stack.pop()
	if err != nil {
		return err
	}
	next, err := vm.stack.pop()
	if err != nil {
		return err
	}
	result := next.CanonicalString() + top.CanonicalString()
	if len(result) > vm.config.MaxStringLen {
		return errors.NewFault(errors.StringLengthFault, vm.ip, byte(OpConcat), "concat result length %d exceeds MAX_STR %d", len(result), vm.config.MaxStringLen)
	}
	return vm.stack.push(StringValue(result))
}

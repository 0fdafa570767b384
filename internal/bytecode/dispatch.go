package bytecode

import "github.com/esvm-dev/esvm/internal/errors"

// Execute loads program into the data segment and runs the fetch/decode/
// dispatch loop to completion or to the first fatal fault. Execution ends
// on the first of: IP reaches the program length (StatusOk), an opcode
// faults (StatusError), or the host's lock-check callback reports "locked"
// at the top of a dispatch cycle (StatusOk, without advancing IP).
func (vm *VM) Execute(program []byte) (Status, error) {
	vm.reset()
	vm.ds.Load(program)

	for {
		if vm.host.LockCheck != nil && vm.host.LockCheck() {
			vm.status = StatusOk
			return vm.status, nil
		}

		if vm.ip >= vm.ds.Len() {
			vm.status = StatusOk
			return vm.status, nil
		}

		vm.status = StatusRunning

		d, err := decodeAt(vm.ds, vm.ip)
		if err != nil {
			vm.annotate(err)
			vm.reportFault(err)
			return vm.status, err
		}

		op := d.Op
		vm.ip += d.Width

		if err := vm.step(d); err != nil {
			vm.annotateOp(err, op)
			vm.reportFault(err)
			return vm.status, err
		}
	}
}

// annotate stamps a fault with the instruction pointer it occurred at, when
// the fault didn't already carry one (decode faults set their own IP since
// they fire before vm.ip advances).
func (vm *VM) annotate(err error) {
	if f, ok := err.(*errors.Fault); ok && f.IP == 0 && f.Opcode == 0 {
		f.IP = vm.ip
	}
}

func (vm *VM) annotateOp(err error, op OpCode) {
	if f, ok := err.(*errors.Fault); ok && f.Opcode == 0 {
		f.Opcode = byte(op)
		if f.IP == 0 {
			f.IP = vm.ip
		}
	}
}

// step dispatches one decoded instruction. The instruction pointer has
// already been advanced past this instruction's own encoding by the caller;
// opcodes that alter control flow (Jz, Jmp, CallFun, RetFromFrame) assign
// vm.ip directly.
func (vm *VM) step(d Decoded) error {
	switch d.Op {
	case OpNop:
		return nil

	case OpPushG:
		i := d.IntOperand()
		return vm.scopedStore(vm.globalGetter(i), vm.globalSetter(i))
	case OpPopG:
		i := d.IntOperand()
		return vm.scopedLoad(vm.globalGetter(i))
	case OpPushL:
		i := d.IntOperand()
		return vm.scopedStore(vm.localGetter(i), vm.localSetter(i))
	case OpPopL:
		i := d.IntOperand()
		return vm.scopedLoad(vm.localGetter(i))

	case OpPush:
		return vm.stack.push(NumberValue(d.DOp))

	case OpPushS:
		length := d.IntOperand()
		bytes, err := vm.ds.Slice(vm.ip, length)
		if err != nil {
			return err
		}
		if length > vm.config.MaxStringLen {
			return errors.NewFault(errors.StringLengthFault, vm.ip, byte(OpPushS), "string literal length %d exceeds MAX_STR %d", length, vm.config.MaxStringLen)
		}
		s := string(bytes)
		vm.ip += length
		return vm.stack.push(StringValue(s))

	case OpData:
		vm.pendingData = d.IntOperand()
		return nil
	case OpPushA:
		vm.pendingArrayIndex = d.IntOperand()
		return nil
	case OpPushAS:
		x, err := vm.stack.pop()
		if err != nil {
			return err
		}
		vm.pendingArrayIndex = int(x.Num)
		return nil

	case OpEq:
		return vm.binaryNumeric(func(a, b float64) float64 { return boolNum(a == b) })
	case OpLt:
		return vm.binaryNumeric(func(a, b float64) float64 { return boolNum(a < b) })
	case OpGt:
		return vm.binaryNumeric(func(a, b float64) float64 { return boolNum(a > b) })
	case OpLtEq:
		return vm.binaryNumeric(func(a, b float64) float64 { return boolNum(a <= b) })
	case OpGtEq:
		return vm.binaryNumeric(func(a, b float64) float64 { return boolNum(a >= b) })
	case OpNotEq:
		return vm.binaryNumeric(func(a, b float64) float64 { return boolNum(a != b) })

	case OpAdd:
		return vm.binaryNumeric(func(a, b float64) float64 { return a + b })
	case OpNeg:
		return vm.unaryNumeric(func(a float64) float64 { return -a })
	case OpSub:
		return vm.binaryNumeric(func(a, b float64) float64 { return a - b })
	case OpMul:
		return vm.binaryNumeric(func(a, b float64) float64 { return a * b })
	case OpDiv:
		return vm.binaryNumeric(func(a, b float64) float64 { return a / b })
	case OpAnd:
		return vm.binaryTruthy(func(a, b bool) bool { return a && b })
	case OpOr:
		return vm.binaryTruthy(func(a, b bool) bool { return a || b })
	case OpNot:
		a, err := vm.stack.pop()
		if err != nil {
			return err
		}
		return vm.stack.push(NumberValue(boolNum(!a.Truthy())))
	case OpConcat:
		return vm.concat()
	case OpMod:
		return vm.mod()

	case OpJz:
		a, err := vm.stack.pop()
		if err != nil {
			return err
		}
		if !a.Truthy() {
			vm.ip = d.IntOperand()
		}
		return nil
	case OpJmp:
		vm.ip = d.IntOperand()
		return nil

	case OpCallFun:
		return vm.callFun(d.IntOperand())
	case OpRetFromFrame:
		return vm.retFromFrame()
	case OpHostCall:
		return vm.hostCall(d.IntOperand())

	case OpPrint:
		return vm.invokeBuiltin(builtinPrint, OpPrint)
	case OpArgType:
		return vm.invokeBuiltin(builtinArgType, OpArgType)
	case OpLen:
		return vm.invokeBuiltin(builtinLen, OpLen)
	case OpArrayCtor:
		return vm.invokeBuiltin(builtinArrayCtor, OpArrayCtor)

	default:
		return errors.NewFault(errors.InvalidOpcodeFault, vm.ip, byte(d.Op), "opcode 0x%02X has no dispatch handler", byte(d.Op))
	}
}

// binaryTruthy pops b (top) then a (next) and pushes fn(truthy(a),
// truthy(b)) as 0/1, used by And/Or.
func (vm *VM) binaryTruthy(fn func(a, b bool) bool) error {
	b, err := vm.stack.pop()
	if err != nil {
		return err
	}
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	return vm.stack.push(NumberValue(boolNum(fn(a.Truthy(), b.Truthy()))))
}

// callFun implements CallFun addr: pop a return address, snapshot
// the active locals into a new frame, push it, and jump to addr.
func (vm *VM) callFun(addr int) error {
	retAddr, err := vm.stack.pop()
	if err != nil {
		return err
	}
	locals := vm.activeLocals().snapshot()
	if err := vm.frames.push(callFrame{returnAddr: int(retAddr.Num), locals: locals}); err != nil {
		return err
	}
	vm.ip = addr
	return nil
}

// retFromFrame implements RetFromFrame: pop the top frame, restore
// IP to its return address, and release array handles that lived in the
// frame's locals.
func (vm *VM) retFromFrame() error {
	frame, err := vm.frames.pop()
	if err != nil {
		return err
	}
	for _, cell := range frame.locals.cells {
		if cell.IsArray() {
			vm.heap.release(cell.Arr.Slot)
		}
	}
	vm.ip = frame.returnAddr
	return nil
}

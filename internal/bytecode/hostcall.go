package bytecode

import "github.com/esvm-dev/esvm/internal/errors"

// hostCall implements the HostCall opcode ABI. argc is the decoded immediate
// naming how many arguments the callee is expected to consume.
func (vm *VM) hostCall(argc int) error {
	name, err := vm.stack.pop()
	if err != nil {
		return err
	}
	if !name.IsString() {
		return errors.NewFault(errors.UnknownHostRoutine, vm.ip, byte(OpHostCall), "HostCall target is not a string value")
	}

	fn, ok := vm.hosts.lookup(name.Str)
	if !ok {
		return errors.NewFault(errors.UnknownHostRoutine, vm.ip, byte(OpHostCall), "unregistered host routine %q", name.Str)
	}

	argsBefore := vm.stack.depth()

	status, err := fn(vm, argc)
	if err != nil || status == 0 {
		msg := "host routine returned error status"
		if err != nil {
			msg = err.Error()
		}
		return errors.NewFault(errors.HostRoutineError, vm.ip, byte(OpHostCall), "%s (routine %q)", msg, name.Str)
	}

	return vm.reconcile(argsBefore, argc, status)
}

// reconcile implements the post-call stack reconciliation: after a callback returns status
// (1+K return values already pushed), trim or compact the operand stack so
// that only (allowed_remaining + return_values) cells remain, and arm
// pending-data when the callback produced more than one return value.
func (vm *VM) reconcile(argsBefore, argc, status int) error {
	returnCount := status - 1
	allowedRemaining := argsBefore - argc
	actualSurplusBase := vm.stack.depth() - returnCount
	diff := actualSurplusBase - allowedRemaining
	if diff > 0 {
		vm.stack.removeBelow(diff, returnCount)
	}

	if returnCount > 1 {
		vm.pendingData = returnCount
	}
	return nil
}

// invokeBuiltin calls a built-in the same way HostCall invokes a registered
// routine: always with argc=1, no name to pop, and the same status
// reconciliation rule. Built-ins that need the following store to
// materialize an array (ArrayCtor, Sort) set pending-data themselves.
func (vm *VM) invokeBuiltin(fn HostFunc, op OpCode) error {
	argsBefore := vm.stack.depth()
	status, err := fn(vm, 1)
	if err != nil || status == 0 {
		msg := "built-in returned error status"
		if err != nil {
			msg = err.Error()
		}
		return errors.NewFault(errors.HostRoutineError, vm.ip, byte(op), "%s", msg)
	}
	return vm.reconcile(argsBefore, 1, status)
}

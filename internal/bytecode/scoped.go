package bytecode

// getter/setter abstract over the two variable spaces (global table, active
// local table) so the scoped store/load logic is written once.
type cellGetter func() (Value, error)
type cellSetter func(Value) error

// popN pops n values off the operand stack and returns them ordered deepest
// first (element 0 = the value that was pushed earliest / sits lowest),
// matching the array-construction procedure: "pop n values... writing them
// in reverse pop order into element positions [0..n-1]".
func (vm *VM) popN(n int) ([]Value, error) {
	values := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := vm.stack.pop()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// scopedStore implements the PushG/PushL store semantics: pending-
// data takes priority (construct a new array from n popped values and write
// the handle), then pending-array-index (index-write into an existing
// array-valued cell), then a plain single-value store.
func (vm *VM) scopedStore(get cellGetter, set cellSetter) error {
	if vm.pendingData != 0 {
		n := vm.pendingData
		vm.pendingData = 0
		values, err := vm.popN(n)
		if err != nil {
			return err
		}
		handle, err := vm.heap.alloc(n)
		if err != nil {
			return err
		}
		if err := vm.heap.writeFromStack(handle, values); err != nil {
			return err
		}
		return set(ArrayValue(handle))
	}

	if vm.pendingArrayIndex != -1 {
		idx := vm.pendingArrayIndex
		vm.pendingArrayIndex = -1
		current, err := get()
		if err != nil {
			return err
		}
		val, err := vm.stack.pop()
		if err != nil {
			return err
		}
		if current.IsArray() {
			return vm.heap.set(current.Arr, idx, val)
		}
		return set(val)
	}

	val, err := vm.stack.pop()
	if err != nil {
		return err
	}
	return set(val)
}

// scopedLoad implements the PopG/PopL load semantics : when the
// referenced variable is an array handle and pending-array-index is set,
// push the indexed element; otherwise push the whole cell (pass-by-handle
// for arrays).
func (vm *VM) scopedLoad(get cellGetter) error {
	current, err := get()
	if err != nil {
		return err
	}

	if vm.pendingArrayIndex != -1 {
		idx := vm.pendingArrayIndex
		vm.pendingArrayIndex = -1
		if current.IsArray() {
			elem, err := vm.heap.get(current.Arr, idx)
			if err != nil {
				return err
			}
			return vm.stack.push(elem)
		}
	}

	return vm.stack.push(current)
}

func (vm *VM) globalGetter(i int) cellGetter {
	return func() (Value, error) { return vm.globals.get(i) }
}

func (vm *VM) globalSetter(i int) cellSetter {
	return func(v Value) error { return vm.globals.set(i, v) }
}

func (vm *VM) localGetter(i int) cellGetter {
	locals := vm.activeLocals()
	return func() (Value, error) { return locals.get(i) }
}

func (vm *VM) localSetter(i int) cellSetter {
	locals := vm.activeLocals()
	return func(v Value) error { return locals.set(i, v) }
}

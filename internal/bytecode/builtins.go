package bytecode

// registerBuiltins registers Sort, the one built-in without a dedicated
// opcode, in the VM's host table so programs reach it through HostCall.
// The other built-ins (Print, ArgType, Len, ArrayCtor) are invoked
// directly by the dispatch core's opcodes 0x50-0x53 and are not in the
// host table.
func (vm *VM) registerBuiltins() {
	vm.hosts.Register("Sort", builtinSort, vm.host.Fail)
}

// builtinPrint implements Print(x): emit x's canonical string form via the
// host's Print callback (the same rendering Concat uses for non-string
// operands, so Print(5) writes "5.000000" rather than doing nothing); it
// pushes no return values.
func builtinPrint(vm *VM, argc int) (int, error) {
	x, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	if vm.host.Print != nil {
		vm.host.Print(x.CanonicalString())
	}
	return 1, nil
}

// builtinArgType implements ArgType(x): push Number(tag(x)).
func builtinArgType(vm *VM, argc int) (int, error) {
	x, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	if err := vm.Push(NumberValue(float64(x.Type))); err != nil {
		return 0, err
	}
	return 2, nil
}

// builtinLen implements Len(x): Number -> 0, String -> slen, Array -> alen.
func builtinLen(vm *VM, argc int) (int, error) {
	x, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	var n float64
	switch x.Type {
	case ValueString:
		n = float64(len(x.Str))
	case ValueArray:
		n = float64(x.Arr.Length)
	default:
		n = 0
	}
	if err := vm.Push(NumberValue(n)); err != nil {
		return 0, err
	}
	return 2, nil
}

// builtinArrayCtor implements ArrayCtor(n): push n Number(0) values and
// arm pending-data so the following store materializes a zero-initialized
// array of length n.
func builtinArrayCtor(vm *VM, argc int) (int, error) {
	nVal, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	n := int(nVal.Num)
	for i := 0; i < n; i++ {
		if err := vm.Push(NumberValue(0)); err != nil {
			return 0, err
		}
	}
	vm.pendingData = n
	return n + 1, nil
}

// builtinSort implements Sort(A): copy an array's cells, sort ascending
// with insertion sort (numbers by value, strings by length as a stable
// proxy, matching original_source's vm_builtins.c), push the sorted cells,
// and arm pending-data so the following store materializes the result.
func builtinSort(vm *VM, argc int) (int, error) {
	a, err := vm.Pop()
	if err != nil {
		return 0, err
	}
	if !a.IsArray() {
		return 0, nil
	}

	n := a.Arr.Length
	cells := make([]Value, n)
	for i := 0; i < n; i++ {
		v, err := vm.ArrayElement(a.Arr, i)
		if err != nil {
			return 0, err
		}
		cells[i] = v
	}

	insertionSort(cells)

	for _, v := range cells {
		if err := vm.Push(v); err != nil {
			return 0, err
		}
	}
	vm.pendingData = n
	return n + 1, nil
}

func insertionSort(cells []Value) {
	for i := 1; i < len(cells); i++ {
		key := cells[i]
		j := i - 1
		for j >= 0 && sortLess(key, cells[j]) {
			cells[j+1] = cells[j]
			j--
		}
		cells[j+1] = key
	}
}

// sortLess implements the documented total order: numbers compare by
// value, strings compare by length as a stable proxy, and mixed-type pairs
// fall back to comparing their tag so the order is still total.
func sortLess(a, b Value) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	switch a.Type {
	case ValueNumber:
		return a.Num < b.Num
	case ValueString:
		return len(a.Str) < len(b.Str)
	case ValueArray:
		return a.Arr.Length < b.Arr.Length
	default:
		return false
	}
}

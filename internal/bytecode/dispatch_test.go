package bytecode

import "testing"

func newTestVM(printed *[]string) *VM {
	host := HostCallbacks{
		Print: func(s string) { *printed = append(*printed, s) },
	}
	return New(DefaultConfig(), host)
}

// S1: Arithmetic. Push 2.0; Push 3.0; Add; Print.
func TestExecute_S1_Arithmetic(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	var program []byte
	program = EncodeInstruction(program, OpPush, 2.0)
	program = EncodeInstruction(program, OpPush, 3.0)
	program = EncodeSimple(program, OpAdd)
	program = EncodeSimple(program, OpPrint)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if len(printed) != 1 || printed[0] != "5.000000" {
		t.Errorf("printed = %v, want [\"5.000000\"]", printed)
	}
}

// S2: Branch. Push 0.0; Jz target=end-of-program; Push 1.0; Print. The
// branch is taken (0.0 is falsy) so the program ends before Push 1.0/Print
// ever run.
func TestExecute_S2_Branch(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	pushZero := EncodeInstruction(nil, OpPush, 0.0)
	pushOne := EncodeInstruction(nil, OpPush, 1.0)
	printOp := EncodeSimple(nil, OpPrint)
	tailLen := len(pushOne) + len(printOp)

	target := float64(len(pushZero) + 9 + tailLen) // end of program
	jz := EncodeInstruction(nil, OpJz, target)

	program := append(append(append(pushZero, jz...), pushOne...), printOp...)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if len(printed) != 0 {
		t.Errorf("printed = %v, want no calls", printed)
	}
	if vm.StackDepth() != 0 {
		t.Errorf("stack depth = %d, want 0", vm.StackDepth())
	}
}

// Jz must use the general truthiness rule, not a raw numeric-bits test: a
// non-empty String operand (whose .Num field is always the zero value) is
// truthy and must NOT branch. PushS "hi"; Jz target=end-of-program;
// PushS "hi"; Print.
func TestExecute_Jz_StringOperandUsesTruthiness(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	pushStr := EncodeString(nil, "hi")
	printOp := EncodeSimple(nil, OpPrint)
	tailLen := len(pushStr) + len(printOp)

	target := float64(len(pushStr) + 9 + tailLen) // end of program
	jz := EncodeInstruction(nil, OpJz, target)

	var program []byte
	program = append(program, pushStr...)
	program = append(program, jz...)
	program = append(program, pushStr...)
	program = append(program, printOp...)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if len(printed) != 1 || printed[0] != "hi" {
		t.Errorf("printed = %v, want [\"hi\"] (non-empty string must be truthy, so Jz must not branch)", printed)
	}
}

// S3: Array indexed write/read. Data 3; Push 10; Push 20; Push 30; PushG 0;
// PushA 1; PopG 0; Print.
func TestExecute_S3_ArrayIndexedWriteRead(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	var program []byte
	program = EncodeInstruction(program, OpData, 3)
	program = EncodeInstruction(program, OpPush, 10)
	program = EncodeInstruction(program, OpPush, 20)
	program = EncodeInstruction(program, OpPush, 30)
	program = EncodeInstruction(program, OpPushG, 0)
	program = EncodeInstruction(program, OpPushA, 1)
	program = EncodeInstruction(program, OpPopG, 0)
	program = EncodeSimple(program, OpPrint)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if len(printed) != 1 || printed[0] != "20.000000" {
		t.Errorf("printed = %v, want [\"20.000000\"]", printed)
	}
}

// S4: Subroutine roundtrip. Root sets local[0]=7, calls a callee that
// overwrites its own copy of local[0] with 99, then returns; the root's
// local[0] must still read 7 because locals are snapshotted on call and
// discarded on return.
func TestExecute_S4_SubroutineRoundtrip(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	push7 := EncodeInstruction(nil, OpPush, 7)
	storeRootLocal0 := EncodeInstruction(nil, OpPushL, 0)
	rootHeadLen := len(push7) + len(storeRootLocal0)

	calleeBody := EncodeInstruction(nil, OpPush, 99)
	calleeBody = append(calleeBody, EncodeInstruction(nil, OpPushL, 0)...)
	calleeBody = EncodeInstruction(calleeBody, OpRetFromFrame, 0)

	A := rootHeadLen + 9 + 9 // after push-return-addr and CallFun
	B := A + len(calleeBody)

	pushReturnAddr := EncodeInstruction(nil, OpPush, float64(B))
	callFun := EncodeInstruction(nil, OpCallFun, float64(A))

	afterBlock := EncodeInstruction(nil, OpPopL, 0)
	afterBlock = EncodeSimple(afterBlock, OpPrint)

	var program []byte
	program = append(program, push7...)
	program = append(program, storeRootLocal0...)
	program = append(program, pushReturnAddr...)
	program = append(program, callFun...)
	program = append(program, calleeBody...)
	program = append(program, afterBlock...)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if len(printed) != 1 || printed[0] != "7.000000" {
		t.Errorf("printed = %v, want [\"7.000000\"] (callee's write must not leak to root)", printed)
	}
}

// S5: Host call reconciliation. "inc" pops one number, leaves two extra
// junk values beneath its single real return value, and reports only that
// one return value. Reconciliation must strip the junk.
func TestExecute_S5_HostCallReconciliation(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)
	vm.Register("inc", func(vm *VM, argc int) (int, error) {
		arg, err := vm.Pop()
		if err != nil {
			return 0, err
		}
		if err := vm.Push(NumberValue(999)); err != nil { // junk
			return 0, err
		}
		if err := vm.Push(NumberValue(888)); err != nil { // junk
			return 0, err
		}
		if err := vm.Push(NumberValue(arg.Num * 2)); err != nil { // real result
			return 0, err
		}
		return 2, nil // claims exactly one return value
	})

	var program []byte
	program = EncodeInstruction(program, OpPush, 5)
	program = EncodeString(program, "inc")
	program = EncodeInstruction(program, OpHostCall, 1)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if vm.StackDepth() != 1 {
		t.Fatalf("stack depth = %d, want 1", vm.StackDepth())
	}
	top, err := vm.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if top.Num != 10 {
		t.Errorf("result = %v, want 10", top.Num)
	}
}

// S6: Concat with coercion. PushS "x="; Push 3.0; Concat.
func TestExecute_S6_ConcatWithCoercion(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	var program []byte
	program = EncodeString(program, "x=")
	program = EncodeInstruction(program, OpPush, 3.0)
	program = EncodeInstruction(program, OpConcat, 0)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	top, err := vm.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !top.IsString() || top.Str != "x=3.000000" {
		t.Errorf("result = %v, want String \"x=3.000000\"", top)
	}
}

// Property: host ABI reconciliation holds for arbitrary surplus/return
// combinations, not just the S5 literal.
func TestExecute_HostABIReconciliation_Property(t *testing.T) {
	cases := []struct {
		surplus, returns int
	}{
		{0, 1},
		{1, 1},
		{3, 2},
		{0, 0},
	}

	for _, tc := range cases {
		var printed []string
		vm := newTestVM(&printed)
		vm.Register("probe", func(vm *VM, argc int) (int, error) {
			if _, err := vm.Pop(); err != nil { // consume the single argument
				return 0, err
			}
			for i := 0; i < tc.surplus; i++ {
				vm.Push(NumberValue(float64(-1 - i)))
			}
			for i := 0; i < tc.returns; i++ {
				vm.Push(NumberValue(float64(i)))
			}
			return 1 + tc.returns, nil
		})

		var program []byte
		program = EncodeInstruction(program, OpPush, 1)
		program = EncodeString(program, "probe")
		program = EncodeInstruction(program, OpHostCall, 1)

		if _, err := vm.Execute(program); err != nil {
			t.Fatalf("surplus=%d returns=%d: Execute: %v", tc.surplus, tc.returns, err)
		}
		if vm.StackDepth() != tc.returns {
			t.Errorf("surplus=%d returns=%d: stack depth = %d, want %d", tc.surplus, tc.returns, vm.StackDepth(), tc.returns)
		}
	}
}

// Property: pending-array-index is cleared when a store consumes it, so a
// later store (after an opcode that neither sets nor consumes it) does not
// see a stale index. Pending-data is not exercised here.
func TestExecute_PendingFlagsDoNotLeak(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	var program []byte
	program = EncodeInstruction(program, OpPush, 7)
	program = EncodeInstruction(program, OpPushA, 2) // arm pending-array-index
	program = EncodeInstruction(program, OpPushG, 0) // consumes it (plain store, global[0] has no array yet)
	program = EncodeInstruction(program, OpPush, 41)
	program = EncodeInstruction(program, OpPushG, 1) // must NOT see a stale pending-array-index

	if _, err := vm.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if vm.pendingArrayIndex != -1 {
		t.Errorf("pendingArrayIndex leaked: %d", vm.pendingArrayIndex)
	}
	g1, err := vm.Global(1)
	if err != nil {
		t.Fatalf("Global(1): %v", err)
	}
	if g1.Num != 41 {
		t.Errorf("global[1] = %v, want 41", g1.Num)
	}
}

// Array release: a callee-local array handle is freed when its frame
// returns, and the freed slot is available to the next allocation.
func TestExecute_ArrayReleaseOnReturn(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)
	cfg := DefaultConfig()
	cfg.ArraySlots = 1
	vm = New(cfg, HostCallbacks{Print: func(s string) { printed = append(printed, s) }})

	// Callee: Data 2; Push 1; Push 2; PushL 0 (array lives in the frame's
	// locals); RetFromFrame.
	calleeBody := EncodeInstruction(nil, OpData, 2)
	calleeBody = append(calleeBody, EncodeInstruction(nil, OpPush, 1)...)
	calleeBody = append(calleeBody, EncodeInstruction(nil, OpPush, 2)...)
	calleeBody = append(calleeBody, EncodeInstruction(nil, OpPushL, 0)...)
	calleeBody = EncodeInstruction(calleeBody, OpRetFromFrame, 0)

	A := 18 // push-return-addr + CallFun, both 9 bytes
	B := A + len(calleeBody)

	pushReturnAddr := EncodeInstruction(nil, OpPush, float64(B))
	callFun := EncodeInstruction(nil, OpCallFun, float64(A))

	// After the call returns, construct a second array in the root scope;
	// it must succeed because the callee's array slot was freed.
	afterBlock := EncodeInstruction(nil, OpData, 1)
	afterBlock = append(afterBlock, EncodeInstruction(nil, OpPush, 5)...)
	afterBlock = append(afterBlock, EncodeInstruction(nil, OpPushG, 0)...)

	var program []byte
	program = append(program, pushReturnAddr...)
	program = append(program, callFun...)
	program = append(program, calleeBody...)
	program = append(program, afterBlock...)

	status, err := vm.Execute(program)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	g0, err := vm.Global(0)
	if err != nil {
		t.Fatalf("Global(0): %v", err)
	}
	if !g0.IsArray() {
		t.Errorf("global[0] = %v, want an array handle", g0)
	}
}

func TestExecute_UnknownHostRoutineFaults(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	var program []byte
	program = EncodeString(program, "nope")
	program = EncodeInstruction(program, OpHostCall, 0)

	status, err := vm.Execute(program)
	if err == nil {
		t.Fatal("expected a fault calling an unregistered routine")
	}
	if status != StatusError {
		t.Errorf("status = %s, want Error", status)
	}
	if vm.LastFault() == nil {
		t.Error("LastFault() should be populated after a fault")
	}
}

func TestExecute_ModByZeroFaults(t *testing.T) {
	var printed []string
	vm := newTestVM(&printed)

	var program []byte
	program = EncodeInstruction(program, OpPush, 5)
	program = EncodeInstruction(program, OpPush, 0)
	program = EncodeSimple(program, OpMod)

	status, err := vm.Execute(program)
	if err == nil {
		t.Fatal("expected a fault on mod by zero")
	}
	if status != StatusError {
		t.Errorf("status = %s, want Error", status)
	}
}

// Per spec.md's resource model, two VM instances in the same process share
// only the host registration table: a routine registered against one VM
// must be callable from another VM's program without re-registering it.
func TestExecute_HostRegistrationTableIsSharedAcrossVMs(t *testing.T) {
	var printedA, printedB []string
	vmA := New(DefaultConfig(), HostCallbacks{Print: func(s string) { printedA = append(printedA, s) }})
	vmA.Register("sharedDispatchProbe", func(vm *VM, argc int) (int, error) {
		arg, err := vm.Pop()
		if err != nil {
			return 0, err
		}
		if err := vm.Push(NumberValue(arg.Num + 1)); err != nil {
			return 0, err
		}
		return 2, nil
	})

	vmB := New(DefaultConfig(), HostCallbacks{Print: func(s string) { printedB = append(printedB, s) }})

	var program []byte
	program = EncodeInstruction(program, OpPush, 41)
	program = EncodeString(program, "sharedDispatchProbe")
	program = EncodeInstruction(program, OpHostCall, 1)
	program = EncodeSimple(program, OpPrint)

	status, err := vmB.Execute(program)
	if err != nil {
		t.Fatalf("vmB never registered the routine, but the shared table must still resolve it: %v", err)
	}
	if status != StatusOk {
		t.Fatalf("status = %s, want Ok", status)
	}
	if len(printedB) != 1 || printedB[0] != "42.000000" {
		t.Errorf("printed = %v, want [\"42.000000\"]", printedB)
	}
}

// WithIsolatedHostRegistry is the documented escape hatch: a VM built with
// it must NOT see routines registered against other (default, shared) VMs.
func TestExecute_WithIsolatedHostRegistryDoesNotShare(t *testing.T) {
	vmA := New(DefaultConfig(), HostCallbacks{})
	vmA.Register("isolatedDispatchProbe", func(vm *VM, argc int) (int, error) { return 1, nil })

	vmIsolated := New(DefaultConfig(), HostCallbacks{}, WithIsolatedHostRegistry())

	var program []byte
	program = EncodeString(program, "isolatedDispatchProbe")
	program = EncodeInstruction(program, OpHostCall, 0)

	status, err := vmIsolated.Execute(program)
	if err == nil {
		t.Fatal("expected an isolated VM not to see another VM's registration")
	}
	if status != StatusError {
		t.Errorf("status = %s, want Error", status)
	}
}

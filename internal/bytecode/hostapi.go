package bytecode

import (
	"fmt"
	"sync"
)

// HostFunc is the signature of an external subroutine registered against
// the VM. A callback exchanges values with the VM purely through the
// public stack API (Push/Pop); it returns 0 to signal error, or 1+K to
// signal success with K return values already pushed.
type HostFunc func(vm *VM, argc int) (int, error)

// HostCallbacks is the narrow boundary the core invokes into the embedding
// host: print/fail are required, read_byte and lock_check are optional (a
// host that keeps the data segment in-process, or never pauses, leaves
// them nil).
type HostCallbacks struct {
	// Print writes a UTF-8/ASCII string to the host's console/log.
	Print func(msg string)
	// Fail reports a fatal message; it must not unwind (no panics, no
	// os.Exit) — the VM calls it once per fault and then returns Error.
	Fail func(msg string)
	// ReadByte optionally externalizes the data segment. The in-process VM
	// never calls this; it is here for hosts that keep program bytes
	// outside the VM's own memory.
	ReadByte func(addr int) (byte, bool)
	// LockCheck is consulted before each fetch; if it returns true the
	// engine exits cleanly with StatusOk without advancing IP.
	LockCheck func() bool
}

type hostEntry struct {
	name string
	fn   HostFunc
	used bool
}

// hostTable is the fixed-capacity (EXT_MAX entries, EXT_NAME_MAX name
// length) registration table for external subroutines. Lookup is linear;
// callers must ensure names are unique — re-registering an existing name
// overwrites its callback in place rather than consuming a second slot.
// A table may be shared by more than one VM (see sharedHostTable), so
// Register/lookup take their own lock rather than trusting single-VM
// single-threaded use.
type hostTable struct {
	mu         sync.Mutex
	entries    []hostEntry
	nameMaxLen int
}

func newHostTable(capacity, nameMaxLen int) *hostTable {
	return &hostTable{entries: make([]hostEntry, capacity), nameMaxLen: nameMaxLen}
}

var (
	sharedHostTableOnce sync.Once
	sharedHostTableInst *hostTable
)

// sharedHostTable returns the process-wide registration table that New
// hands every VM by default, sized from DefaultConfig. spec.md states that
// two VM instances in the same process share only the host registration
// table, written only during initialization; this is that shared table.
// A host that needs isolation between VMs uses WithIsolatedHostRegistry
// instead, per the Design Notes' escape hatch.
func sharedHostTable() *hostTable {
	sharedHostTableOnce.Do(func() {
		sharedHostTableInst = newHostTable(DefaultHostTableSize, DefaultHostNameMaxLen)
	})
	return sharedHostTableInst
}

// Register adds name/fn to the table, or overwrites the existing entry if
// name is already registered. Registration beyond capacity or with an
// oversize name is reported via fail and silently dropped — it never
// returns a status, matching the source's vm_register_function, which has
// no failure return either. fail may be nil.
func (t *hostTable) Register(name string, fn HostFunc, fail func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(name) > t.nameMaxLen {
		reportFail(fail, "host function name %q exceeds EXT_NAME_MAX (%d)", name, t.nameMaxLen)
		return
	}
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].name == name {
			t.entries[i].fn = fn
			return
		}
	}
	for i := range t.entries {
		if !t.entries[i].used {
			t.entries[i] = hostEntry{name: name, fn: fn, used: true}
			return
		}
	}
	reportFail(fail, "host registration table full (capacity %d); dropping %q", len(t.entries), name)
}

func reportFail(fail func(string), format string, args ...interface{}) {
	if fail == nil {
		return
	}
	fail(fmt.Sprintf(format, args...))
}

// lookup finds a registered callback by name, linear scan.
func (t *hostTable) lookup(name string) (HostFunc, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].name == name {
			return t.entries[i].fn, true
		}
	}
	return nil, false
}

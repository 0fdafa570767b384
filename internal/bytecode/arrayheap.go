package bytecode

import "github.com/esvm-dev/esvm/internal/errors"

// arrayCell is one element slot of an array heap row.
type arrayCell struct {
	value Value
	used  bool
}

// arrayRow is one row of the array heap: a fixed ARRAY_MAX-capacity slice of
// cells plus the logical length a handle referencing this row currently
// reports.
type arrayRow struct {
	cells     []arrayCell
	length    int
	allocated bool
}

// arrayHeap is the fixed ARRAY_SLOTS x ARRAY_MAX pool of arrays. Arrays are
// addressed by handle (slot, length); the heap never exposes an owning
// pointer, only plain indices, and release is the sole place memory is
// reclaimed (on RetFromFrame for frame-local handles).
type arrayHeap struct {
	rows      []arrayRow
	maxCells  int
	cursor    int
	liveCount int
}

func newArrayHeap(slots, maxCells int) *arrayHeap {
	rows := make([]arrayRow, slots)
	for i := range rows {
		rows[i].cells = make([]arrayCell, maxCells)
	}
	return &arrayHeap{rows: rows, maxCells: maxCells}
}

// alloc finds the next free row via a linear scan from the monotonic cursor
// (wrapping), matching the source's "global monotonic counter selects the
// next free row" behavior operationally: it is a scan, not a free-list, and
// ArrayAllocFault fires only when every slot is genuinely in use.
func (h *arrayHeap) alloc(length int) (ArrayHandle, error) {
	if length < 0 || length > h.maxCells {
		return ArrayHandle{}, errors.NewFault(errors.ArrayAllocFault, 0, 0, "array length %d exceeds ARRAY_MAX %d", length, h.maxCells)
	}
	n := len(h.rows)
	for i := 0; i < n; i++ {
		slot := (h.cursor + i) % n
		if !h.rows[slot].allocated {
			row := &h.rows[slot]
			row.allocated = true
			row.length = length
			for c := 0; c < h.maxCells; c++ {
				row.cells[c] = arrayCell{}
			}
			h.cursor = (slot + 1) % n
			h.liveCount++
			return ArrayHandle{Slot: slot, Length: length}, nil
		}
	}
	return ArrayHandle{}, errors.NewFault(errors.ArrayAllocFault, 0, 0, "array heap exhausted (ARRAY_SLOTS %d)", n)
}

func (h *arrayHeap) checkHandle(handle ArrayHandle) (*arrayRow, error) {
	if handle.Slot < 0 || handle.Slot >= len(h.rows) || !h.rows[handle.Slot].allocated {
		return nil, errors.NewFault(errors.ArrayBoundsFault, 0, 0, "array handle references unallocated slot %d", handle.Slot)
	}
	return &h.rows[handle.Slot], nil
}

func (h *arrayHeap) get(handle ArrayHandle, index int) (Value, error) {
	row, err := h.checkHandle(handle)
	if err != nil {
		return Value{}, err
	}
	if index < 0 || index >= row.length {
		return Value{}, errors.NewFault(errors.ArrayBoundsFault, 0, 0, "array index %d out of range (length %d)", index, row.length)
	}
	return row.cells[index].value, nil
}

func (h *arrayHeap) set(handle ArrayHandle, index int, v Value) error {
	row, err := h.checkHandle(handle)
	if err != nil {
		return err
	}
	if index < 0 || index >= row.length {
		return errors.NewFault(errors.ArrayBoundsFault, 0, 0, "array index %d out of range (length %d)", index, row.length)
	}
	row.cells[index] = arrayCell{value: v, used: true}
	return nil
}

// writeFromStack writes n values popped from the operand stack (deepest
// first) into element positions [0..n-1] of a freshly allocated row, per
// the array-construction procedure: the first pushed value ends up at
// element 0.
func (h *arrayHeap) writeFromStack(handle ArrayHandle, values []Value) error {
	row, err := h.checkHandle(handle)
	if err != nil {
		return err
	}
	for i, v := range values {
		if i >= row.length {
			return errors.NewFault(errors.ArrayBoundsFault, 0, 0, "array construction overflow: %d values for length %d", len(values), row.length)
		}
		row.cells[i] = arrayCell{value: v, used: true}
	}
	return nil
}

// release marks a row's cells unused and frees the row for reuse. It is the
// only place array memory is reclaimed.
func (h *arrayHeap) release(slot int) {
	if slot < 0 || slot >= len(h.rows) {
		return
	}
	row := &h.rows[slot]
	if !row.allocated {
		return
	}
	row.allocated = false
	row.length = 0
	for c := range row.cells {
		row.cells[c] = arrayCell{}
	}
	h.liveCount--
}

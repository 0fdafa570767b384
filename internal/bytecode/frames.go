package bytecode

import "github.com/esvm-dev/esvm/internal/errors"

// callFrame is {return address, snapshot of locals}, created by CallFun and
// destroyed by RetFromFrame.
type callFrame struct {
	returnAddr int
	locals     *varTable
}

// frameStack is the fixed-capacity call-frame stack.
type frameStack struct {
	frames []callFrame
	count  int
}

func newFrameStack(capacity int) *frameStack {
	return &frameStack{frames: make([]callFrame, capacity)}
}

func (f *frameStack) depth() int {
	return f.count
}

func (f *frameStack) push(frame callFrame) error {
	if f.count >= len(f.frames) {
		return errors.NewFault(errors.FrameOverflowFault, 0, 0, "call frame stack overflow (capacity %d)", len(f.frames))
	}
	f.frames[f.count] = frame
	f.count++
	return nil
}

func (f *frameStack) pop() (callFrame, error) {
	if f.count == 0 {
		return callFrame{}, errors.NewFault(errors.FrameUnderflowFault, 0, 0, "RetFromFrame with no active frame")
	}
	f.count--
	return f.frames[f.count], nil
}

func (f *frameStack) top() *callFrame {
	if f.count == 0 {
		return nil
	}
	return &f.frames[f.count-1]
}

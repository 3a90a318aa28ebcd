package bytecode

import (
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// Instructions is an ordered, editable instruction list. Instructions live
// in an arena and are addressed by Handle; branch targets and exception
// ranges refer to handles, so editing never invalidates them.
type Instructions struct {
	arena    []*Instruction
	order    []Handle
	index    map[Handle]int // lazily rebuilt position cache
	Handlers []Handler
	version  int
}

// NewInstructions returns an empty list.
func NewInstructions() *Instructions {
	return &Instructions{}
}

// Version increments on every structural or operand edit made through the
// list. Callers use it to detect whether re-assembly is needed.
func (l *Instructions) Version() int { return l.version }

// Touch marks the list as modified after editing an instruction obtained
// from Get in place.
func (l *Instructions) Touch() { l.version++ }

// Len returns the number of live instructions.
func (l *Instructions) Len() int { return len(l.order) }

// Handles returns the live handles in program order.
func (l *Instructions) Handles() []Handle {
	return append([]Handle(nil), l.order...)
}

// At returns the handle at position i.
func (l *Instructions) At(i int) Handle {
	if i < 0 || i >= len(l.order) {
		return NoHandle
	}
	return l.order[i]
}

// Get returns the instruction for h, or nil when h is not live.
func (l *Instructions) Get(h Handle) *Instruction {
	if l.IndexOf(h) < 0 {
		return nil
	}
	return l.arena[h]
}

// IndexOf returns the program position of h, or -1.
func (l *Instructions) IndexOf(h Handle) int {
	if l.index == nil {
		l.index = make(map[Handle]int, len(l.order))
		for i, x := range l.order {
			l.index[x] = i
		}
	}
	if i, ok := l.index[h]; ok {
		return i
	}
	return -1
}

// Next returns the handle following h in program order, or NoHandle.
func (l *Instructions) Next(h Handle) Handle {
	i := l.IndexOf(h)
	if i < 0 {
		return NoHandle
	}
	return l.At(i + 1)
}

// Prev returns the handle preceding h in program order, or NoHandle.
func (l *Instructions) Prev(h Handle) Handle {
	i := l.IndexOf(h)
	if i <= 0 {
		return NoHandle
	}
	return l.order[i-1]
}

func (l *Instructions) alloc(ins Instruction) Handle {
	h := Handle(len(l.arena))
	cp := ins
	l.arena = append(l.arena, &cp)
	return h
}

func (l *Instructions) insertAt(pos int, ins Instruction) Handle {
	h := l.alloc(ins)
	l.order = append(l.order, NoHandle)
	copy(l.order[pos+1:], l.order[pos:])
	l.order[pos] = h
	l.index = nil
	l.version++
	return h
}

// Add appends ins and returns its handle.
func (l *Instructions) Add(ins Instruction) Handle {
	return l.insertAt(len(l.order), ins)
}

// InsertBefore inserts ins in front of at.
func (l *Instructions) InsertBefore(at Handle, ins Instruction) (Handle, error) {
	i := l.IndexOf(at)
	if i < 0 {
		return NoHandle, errors.Errorf("bytecode: insert before unknown handle %d", at)
	}
	return l.insertAt(i, ins), nil
}

// InsertAfter inserts ins behind at.
func (l *Instructions) InsertAfter(at Handle, ins Instruction) (Handle, error) {
	i := l.IndexOf(at)
	if i < 0 {
		return NoHandle, errors.Errorf("bytecode: insert after unknown handle %d", at)
	}
	return l.insertAt(i+1, ins), nil
}

// Replace swaps the instruction behind h, keeping the handle so existing
// branch targets now reach the replacement.
func (l *Instructions) Replace(h Handle, ins Instruction) error {
	if l.IndexOf(h) < 0 {
		return errors.Errorf("bytecode: replace unknown handle %d", h)
	}
	cp := ins
	l.arena[h] = &cp
	l.version++
	return nil
}

// Remove deletes h. Branches and exception ranges pointing at h are moved to
// the following instruction; removing a referenced last instruction fails.
func (l *Instructions) Remove(h Handle) error {
	i := l.IndexOf(h)
	if i < 0 {
		return errors.Errorf("bytecode: remove unknown handle %d", h)
	}
	next := l.At(i + 1)
	if next == NoHandle && l.referenced(h) {
		return errors.Errorf("bytecode: cannot remove referenced last instruction %d", h)
	}
	l.retarget(h, next)
	l.order = append(l.order[:i], l.order[i+1:]...)
	l.index = nil
	l.version++
	return nil
}

// Clear removes every instruction and handler.
func (l *Instructions) Clear() {
	l.order = nil
	l.Handlers = nil
	l.index = nil
	l.version++
}

func (l *Instructions) referenced(h Handle) bool {
	for _, x := range l.order {
		if x == h {
			continue
		}
		ins := l.arena[x]
		if ins.Target == h || ins.Default == h {
			return true
		}
		for _, t := range ins.Targets {
			if t == h {
				return true
			}
		}
	}
	for _, e := range l.Handlers {
		if e.Start == h || e.Handler == h {
			return true
		}
	}
	return false
}

func (l *Instructions) retarget(from, to Handle) {
	for _, x := range l.order {
		ins := l.arena[x]
		if ins.Target == from {
			ins.Target = to
		}
		if ins.Default == from {
			ins.Default = to
		}
		for j, t := range ins.Targets {
			if t == from {
				ins.Targets[j] = to
			}
		}
	}
	for j := range l.Handlers {
		e := &l.Handlers[j]
		if e.Start == from {
			e.Start = to
		}
		if e.End == from {
			e.End = to
		}
		if e.Handler == from {
			e.Handler = to
		}
	}
}

// HandlersCovering returns the exception handlers whose range contains h.
func (l *Instructions) HandlersCovering(h Handle) []Handler {
	pos := l.IndexOf(h)
	if pos < 0 {
		return nil
	}
	var out []Handler
	for _, e := range l.Handlers {
		start := l.IndexOf(e.Start)
		end := len(l.order)
		if e.End != NoHandle {
			end = l.IndexOf(e.End)
		}
		if start >= 0 && pos >= start && pos < end {
			out = append(out, e)
		}
	}
	return out
}

// SetConstant rewrites the constant pushed by h. See Instruction.SetConstant.
func (l *Instructions) SetConstant(h Handle, c jvmfmt.Entry) error {
	ins := l.Get(h)
	if ins == nil {
		return errors.Errorf("bytecode: set constant on unknown handle %d", h)
	}
	if err := ins.SetConstant(c); err != nil {
		return err
	}
	l.version++
	return nil
}

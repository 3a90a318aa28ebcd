package execution

import (
	"fmt"
	"strings"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
)

// InvariantError reports bytecode the engine cannot type: a pop of the
// wrong category, an empty stack, an unset local. It indicates malformed
// input or a bug in code synthesis.
type InvariantError struct {
	Method string
	Pos    int
	Op     bytecode.Opcode
	Msg    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("execution: %s @%d %s: %s", e.Method, e.Pos, e.Op, e.Msg)
}

// StackContext is one value pushed on the operand stack: which instruction
// produced it and which instructions consumed it.
type StackContext struct {
	Pushed *InstructionContext
	Value  Value
	Popped []*InstructionContext
}

// InstructionContext records one execution of an instruction on one path.
type InstructionContext struct {
	Handle      bytecode.Handle
	Instruction *bytecode.Instruction
	Pops        []*StackContext // in pop order, top of stack first
	Pushes      []*StackContext
	Successors  []bytecode.Handle
}

// Pop returns the i-th popped value counted from the top of the stack.
func (c *InstructionContext) Pop(i int) *StackContext {
	if i < 0 || i >= len(c.Pops) {
		return nil
	}
	return c.Pops[i]
}

// Push returns the single pushed value, or nil.
func (c *InstructionContext) Push() *StackContext {
	if len(c.Pushes) == 0 {
		return nil
	}
	return c.Pushes[len(c.Pushes)-1]
}

// Stack is the operand stack of a frame.
type Stack struct {
	items []*StackContext
}

// Size returns the number of entries.
func (s *Stack) Size() int { return len(s.items) }

// Slots returns the depth in JVM slots, long and double counting twice.
func (s *Stack) Slots() int {
	n := 0
	for _, it := range s.items {
		n += it.Value.Slots()
	}
	return n
}

// Peek returns the entry i positions below the top.
func (s *Stack) Peek(i int) *StackContext {
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[len(s.items)-1-i]
}

func (s *Stack) push(c *StackContext) { s.items = append(s.items, c) }

func (s *Stack) pop() *StackContext {
	if len(s.items) == 0 {
		return nil
	}
	c := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return c
}

// Variables are the local variable slots of a frame.
type Variables struct {
	slots []*Value
}

// Get returns the value in slot i, or nil when unset.
func (v *Variables) Get(i int) *Value {
	if i < 0 || i >= len(v.slots) {
		return nil
	}
	return v.slots[i]
}

// Len returns the number of slots.
func (v *Variables) Len() int { return len(v.slots) }

func (v *Variables) set(i int, val Value) {
	for len(v.slots) < i+val.Slots() {
		v.slots = append(v.slots, nil)
	}
	// a wide value at i-1 loses its second half
	if i > 0 && v.slots[i-1] != nil && v.slots[i-1].Slots() == 2 {
		v.slots[i-1] = nil
	}
	cp := val
	v.slots[i] = &cp
	if val.Slots() == 2 {
		v.slots[i+1] = nil
	}
}

// Frame is the simulated state of one execution path.
type Frame struct {
	Method *classfile.Method
	Stack  *Stack
	Vars   *Variables

	owner string // method name for errors
}

// NewFrame returns the entry frame of m: `this` in slot 0 for instance
// methods, followed by the arguments.
func NewFrame(m *classfile.Method) *Frame {
	f := &Frame{Method: m, Stack: &Stack{}, Vars: &Variables{}, owner: m.String()}
	slot := 0
	if !m.IsStatic() {
		f.Vars.set(0, Unknown(m.Owner.Type()))
		slot = 1
	}
	for _, a := range m.Signature().Args {
		f.Vars.set(slot, Unknown(a))
		slot += a.Slots()
	}
	return f
}

// Dup copies the frame. Stack entries are shared, containers are not.
func (f *Frame) Dup() *Frame {
	n := &Frame{
		Method: f.Method,
		Stack:  &Stack{items: append([]*StackContext(nil), f.Stack.items...)},
		Vars:   &Variables{slots: append([]*Value(nil), f.Vars.slots...)},
		owner:  f.owner,
	}
	return n
}

// Shape returns a key of the stack and local variable types. Constants are
// not part of the shape so loops with changing counters terminate.
func (f *Frame) Shape() string {
	var b strings.Builder
	for _, it := range f.Stack.items {
		b.WriteString(string(it.Value.Type))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, v := range f.Vars.slots {
		if v != nil {
			b.WriteString(string(v.Type))
		}
		b.WriteByte(',')
	}
	return b.String()
}

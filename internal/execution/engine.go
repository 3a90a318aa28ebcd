package execution

import (
	"github.com/pkg/errors"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

const defaultMaxSteps = 1_000_000

// Execution walks every reachable path of a method body. Both edges of
// conditional branches, every switch target and the handlers covering each
// executed instruction are followed. A path ends when it reaches an
// instruction with a frame shape already seen there.
type Execution struct {
	MaxSteps int // 0 = 1M

	contexts map[bytecode.Handle][]*InstructionContext
	order    []*InstructionContext
	visited  map[visit]bool
	maxStack int
	steps    int
}

type visit struct {
	h     bytecode.Handle
	shape string
}

type pending struct {
	h bytecode.Handle
	f *Frame
}

// New returns an engine.
func New() *Execution {
	return &Execution{}
}

// Run executes m from its entry frame. Invariant violations in the bytecode
// are returned as *InvariantError.
func (e *Execution) Run(m *classfile.Method) error {
	if m.Code == nil {
		return errors.Errorf("execution: %s has no code", m)
	}
	return e.RunFrom(NewFrame(m), m.Code.Instructions.At(0))
}

// RunFrom executes from entry using f as the initial state.
func (e *Execution) RunFrom(f *Frame, entry bytecode.Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()
	e.contexts = make(map[bytecode.Handle][]*InstructionContext)
	e.order = nil
	e.visited = make(map[visit]bool)
	e.maxStack = 0
	e.steps = 0
	if entry == bytecode.NoHandle {
		return nil
	}
	limit := e.MaxSteps
	if limit <= 0 {
		limit = defaultMaxSteps
	}

	l := f.Method.Code.Instructions
	work := []pending{{entry, f}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		for h, fr := p.h, p.f; h != bytecode.NoHandle; {
			key := visit{h, fr.Shape()}
			if e.visited[key] {
				break
			}
			e.visited[key] = true
			if e.steps++; e.steps > limit {
				return errors.Errorf("execution: %s: step limit %d exceeded", f.Method, limit)
			}

			for _, hd := range l.HandlersCovering(h) {
				hf := fr.Dup()
				hf.Stack = &Stack{}
				t := jvmfmt.Throwable
				if hd.CatchType != "" {
					t = jvmfmt.ObjectType(hd.CatchType)
				}
				hf.Stack.push(&StackContext{Value: Unknown(t)})
				e.noteStack(1)
				work = append(work, pending{hd.Handler, hf})
			}

			ctx := Execute(fr, h)
			e.contexts[h] = append(e.contexts[h], ctx)
			e.order = append(e.order, ctx)
			e.noteStack(fr.Stack.Slots())

			succ := ctx.Successors
			if len(succ) == 0 {
				break
			}
			for _, s := range succ[1:] {
				work = append(work, pending{s, fr.Dup()})
			}
			h = succ[0]
		}
	}
	return nil
}

func (e *Execution) noteStack(n int) {
	if n > e.maxStack {
		e.maxStack = n
	}
}

// Contexts returns every context produced for h, one per distinct path.
func (e *Execution) Contexts(h bytecode.Handle) []*InstructionContext {
	return e.contexts[h]
}

// All returns every context in execution order.
func (e *Execution) All() []*InstructionContext { return e.order }

// MaxStack returns the deepest operand stack seen, in slots.
func (e *Execution) MaxStack() int { return e.maxStack }

// Steps returns the number of instructions executed.
func (e *Execution) Steps() int { return e.steps }

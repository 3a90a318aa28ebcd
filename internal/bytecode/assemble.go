package bytecode

import (
	"math"

	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// Assembled is the output of Assemble.
type Assembled struct {
	Code []byte
	pcs  map[Handle]int
}

// PC returns the bytecode offset of h. NoHandle maps to the code length.
func (a *Assembled) PC(h Handle) (int, bool) {
	if h == NoHandle {
		return len(a.Code), true
	}
	pc, ok := a.pcs[h]
	return pc, ok
}

// asmInsn is the per-instruction encoding decision.
type asmInsn struct {
	ins  *Instruction
	op   Opcode
	wide bool
	ref  uint16
}

// Assemble encodes the instruction list. Pool operands are interned into
// pool. Lengths are iterated to a fixed point: ldc is widened to ldc_w for
// large pool indices and goto/jsr are widened to goto_w/jsr_w when their
// offset no longer fits in 16 bits.
func Assemble(l *Instructions, pool *jvmfmt.Pool) (*Assembled, error) {
	n := l.Len()
	insns := make([]asmInsn, n)
	pos := make(map[Handle]int, n)
	for i, h := range l.order {
		ins := l.arena[h]
		a := asmInsn{ins: ins, op: ins.Op}
		if ins.Ref != nil {
			idx, err := pool.Add(ins.Ref)
			if err != nil {
				return nil, errors.Wrapf(err, "%s at %d", ins.Op, i)
			}
			a.ref = idx
			if a.op == Ldc && idx > math.MaxUint8 {
				a.op = LdcW
			}
		}
		switch a.op.Format() {
		case FmtLocal:
			a.wide = ins.Wide || ins.Local > math.MaxUint8
		case FmtIinc:
			a.wide = ins.Wide || ins.Local > math.MaxUint8 || ins.Int < math.MinInt8 || ins.Int > math.MaxInt8
		}
		insns[i] = a
		pos[h] = i
	}

	pcs := make([]int, n+1)
	for iter := 0; ; iter++ {
		pc := 0
		for i := range insns {
			pcs[i] = pc
			pc += insns[i].size(pc)
		}
		pcs[n] = pc

		changed := false
		for i := range insns {
			a := &insns[i]
			if a.op.Format() != FmtBranch16 {
				continue
			}
			t, ok := pos[a.ins.Target]
			if !ok {
				return nil, errors.Errorf("bytecode: %s at %d targets a removed instruction", a.op, i)
			}
			off := pcs[t] - pcs[i]
			if off >= math.MinInt16 && off <= math.MaxInt16 {
				continue
			}
			switch a.op {
			case Goto:
				a.op = GotoW
			case Jsr:
				a.op = JsrW
			default:
				return nil, errors.Errorf("bytecode: %s at %d: branch offset %d out of range", a.op, i, off)
			}
			changed = true
		}
		if !changed {
			break
		}
		if iter > n {
			return nil, errors.Errorf("bytecode: branch layout did not converge")
		}
	}

	w := jvmfmt.NewWriter()
	out := &Assembled{pcs: make(map[Handle]int, n)}
	for i, h := range l.order {
		out.pcs[h] = pcs[i]
		if err := insns[i].encode(w, pcs[i], pos, pcs); err != nil {
			return nil, errors.Wrapf(err, "%s at %d", insns[i].op, i)
		}
	}
	if w.Len() != pcs[n] {
		return nil, errors.Errorf("bytecode: encoded %d bytes, laid out %d", w.Len(), pcs[n])
	}
	out.Code = w.Bytes()
	return out, nil
}

func switchPad(pc int) int { return (4 - (pc+1)%4) % 4 }

func (a *asmInsn) size(pc int) int {
	switch a.op.Format() {
	case FmtNone:
		return 1
	case FmtByte, FmtNewArray, FmtPool8:
		return 2
	case FmtShort, FmtPool16, FmtBranch16:
		return 3
	case FmtLocal:
		if a.wide {
			return 4
		}
		return 2
	case FmtIinc:
		if a.wide {
			return 6
		}
		return 3
	case FmtMultiANewArray:
		return 4
	case FmtBranch32, FmtInvokeInterface, FmtInvokeDynamic:
		return 5
	case FmtTableSwitch:
		return 1 + switchPad(pc) + 12 + 4*len(a.ins.Targets)
	case FmtLookupSwitch:
		return 1 + switchPad(pc) + 8 + 8*len(a.ins.Targets)
	}
	return 1
}

func (a *asmInsn) encode(w *jvmfmt.Writer, pc int, pos map[Handle]int, pcs []int) error {
	ins := a.ins
	offset := func(h Handle) (int, error) {
		t, ok := pos[h]
		if !ok {
			return 0, errors.Errorf("bytecode: branch to removed instruction %d", h)
		}
		return pcs[t] - pc, nil
	}
	if a.wide {
		w.U8(uint8(Wide))
	}
	w.U8(uint8(a.op))
	switch a.op.Format() {
	case FmtNone:
	case FmtByte, FmtNewArray:
		w.U8(uint8(ins.Int))
	case FmtShort:
		w.U16(uint16(int16(ins.Int)))
	case FmtLocal:
		if a.wide {
			w.U16(uint16(ins.Local))
		} else {
			w.U8(uint8(ins.Local))
		}
	case FmtIinc:
		if a.wide {
			w.U16(uint16(ins.Local))
			w.U16(uint16(int16(ins.Int)))
		} else {
			w.U8(uint8(ins.Local))
			w.U8(uint8(int8(ins.Int)))
		}
	case FmtPool8:
		w.U8(uint8(a.ref))
	case FmtPool16:
		w.U16(a.ref)
	case FmtInvokeInterface:
		w.U16(a.ref)
		w.U8(uint8(ins.Int))
		w.U8(0)
	case FmtInvokeDynamic:
		w.U16(a.ref)
		w.U16(0)
	case FmtMultiANewArray:
		w.U16(a.ref)
		w.U8(uint8(ins.Int))
	case FmtBranch16:
		off, err := offset(ins.Target)
		if err != nil {
			return err
		}
		w.U16(uint16(int16(off)))
	case FmtBranch32:
		off, err := offset(ins.Target)
		if err != nil {
			return err
		}
		w.U32(uint32(int32(off)))
	case FmtTableSwitch, FmtLookupSwitch:
		for i := 0; i < switchPad(pc); i++ {
			w.U8(0)
		}
		def, err := offset(ins.Default)
		if err != nil {
			return err
		}
		w.U32(uint32(int32(def)))
		if a.op == Tableswitch {
			w.U32(uint32(ins.Low))
			w.U32(uint32(ins.Low + int32(len(ins.Targets)) - 1))
		} else {
			if len(ins.Keys) != len(ins.Targets) {
				return errors.Errorf("bytecode: lookupswitch has %d keys and %d targets", len(ins.Keys), len(ins.Targets))
			}
			w.U32(uint32(len(ins.Targets)))
		}
		for i, t := range ins.Targets {
			off, err := offset(t)
			if err != nil {
				return err
			}
			if a.op == Lookupswitch {
				w.U32(uint32(ins.Keys[i]))
			}
			w.U32(uint32(int32(off)))
		}
	default:
		return errors.Errorf("bytecode: cannot encode format %d", a.op.Format())
	}
	return nil
}

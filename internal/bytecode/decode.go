package bytecode

import (
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// PCMap maps bytecode offsets of decoded instructions to their handles.
type PCMap map[int]Handle

// Handle resolves a bytecode offset. The offset one past the last
// instruction resolves to NoHandle, which exception ranges use for
// "end of code".
func (m PCMap) Handle(pc, codeLen int) (Handle, error) {
	if pc == codeLen {
		return NoHandle, nil
	}
	h, ok := m[pc]
	if !ok {
		return NoHandle, errors.Errorf("bytecode: offset %d is not an instruction boundary", pc)
	}
	return h, nil
}

// pending branch operands, resolved once every offset is known.
type fixup struct {
	h       Handle
	target  int
	dflt    int
	targets []int
}

// Decode parses a Code attribute's bytecode into an instruction list,
// resolving pool operands through pool and branch offsets into handles.
func Decode(code []byte, pool *jvmfmt.Pool) (*Instructions, PCMap, error) {
	l := NewInstructions()
	pcs := make(PCMap)
	var fixups []fixup
	s := jvmfmt.NewStream(code)

	for s.Remaining() > 0 {
		pc := s.Position()
		b, err := s.ReadUint8()
		if err != nil {
			return nil, nil, err
		}
		op := Opcode(b)
		ins := Simple(op)
		if op == Wide {
			inner, err := s.ReadUint8()
			if err != nil {
				return nil, nil, errors.Wrapf(err, "wide at %d", pc)
			}
			op = Opcode(inner)
			ins = Simple(op)
			ins.Wide = true
		}
		if !op.Valid() {
			return nil, nil, errors.Errorf("bytecode: invalid opcode 0x%02x at %d", b, pc)
		}
		fx := fixup{target: -1, dflt: -1}
		if err := decodeOperands(s, pool, pc, &ins, &fx); err != nil {
			return nil, nil, errors.Wrapf(err, "%s at %d", op, pc)
		}
		h := l.Add(ins)
		pcs[pc] = h
		if fx.target >= 0 || fx.dflt >= 0 {
			fx.h = h
			fixups = append(fixups, fx)
		}
	}

	for _, fx := range fixups {
		ins := l.arena[fx.h]
		resolve := func(pc int) (Handle, error) {
			h, ok := pcs[pc]
			if !ok {
				return NoHandle, errors.Errorf("bytecode: branch to offset %d is not an instruction boundary", pc)
			}
			return h, nil
		}
		var err error
		if fx.target >= 0 {
			if ins.Target, err = resolve(fx.target); err != nil {
				return nil, nil, err
			}
		}
		if fx.dflt >= 0 {
			if ins.Default, err = resolve(fx.dflt); err != nil {
				return nil, nil, err
			}
			ins.Targets = make([]Handle, len(fx.targets))
			for i, t := range fx.targets {
				if ins.Targets[i], err = resolve(t); err != nil {
					return nil, nil, err
				}
			}
		}
	}
	l.version = 0
	return l, pcs, nil
}

func decodeOperands(s *jvmfmt.Stream, pool *jvmfmt.Pool, pc int, ins *Instruction, fx *fixup) error {
	ref := func(idx uint16) error {
		e, err := pool.Get(idx)
		if err != nil {
			return err
		}
		ins.Ref = e
		return nil
	}
	switch ins.Op.Format() {
	case FmtNone:
	case FmtByte, FmtNewArray:
		v, err := s.ReadInt8()
		if err != nil {
			return err
		}
		ins.Int = int32(v)
		if ins.Op == Newarray {
			ins.Int = int32(uint8(v))
		}
	case FmtShort:
		v, err := s.ReadInt16()
		if err != nil {
			return err
		}
		ins.Int = int32(v)
	case FmtLocal:
		idx, err := readLocal(s, ins.Wide)
		if err != nil {
			return err
		}
		ins.Local = idx
	case FmtIinc:
		idx, err := readLocal(s, ins.Wide)
		if err != nil {
			return err
		}
		ins.Local = idx
		if ins.Wide {
			v, err := s.ReadInt16()
			if err != nil {
				return err
			}
			ins.Int = int32(v)
		} else {
			v, err := s.ReadInt8()
			if err != nil {
				return err
			}
			ins.Int = int32(v)
		}
	case FmtPool8:
		idx, err := s.ReadUint8()
		if err != nil {
			return err
		}
		return ref(uint16(idx))
	case FmtPool16:
		idx, err := s.ReadUint16()
		if err != nil {
			return err
		}
		return ref(idx)
	case FmtInvokeInterface:
		idx, err := s.ReadUint16()
		if err != nil {
			return err
		}
		count, err := s.ReadUint8()
		if err != nil {
			return err
		}
		if _, err := s.ReadUint8(); err != nil {
			return err
		}
		ins.Int = int32(count)
		return ref(idx)
	case FmtInvokeDynamic:
		idx, err := s.ReadUint16()
		if err != nil {
			return err
		}
		if _, err := s.ReadUint16(); err != nil {
			return err
		}
		return ref(idx)
	case FmtMultiANewArray:
		idx, err := s.ReadUint16()
		if err != nil {
			return err
		}
		dims, err := s.ReadUint8()
		if err != nil {
			return err
		}
		ins.Int = int32(dims)
		return ref(idx)
	case FmtBranch16:
		off, err := s.ReadInt16()
		if err != nil {
			return err
		}
		fx.target = pc + int(off)
	case FmtBranch32:
		off, err := s.ReadInt32()
		if err != nil {
			return err
		}
		fx.target = pc + int(off)
	case FmtTableSwitch:
		s.Align(0, 4)
		def, err := s.ReadInt32()
		if err != nil {
			return err
		}
		low, err := s.ReadInt32()
		if err != nil {
			return err
		}
		high, err := s.ReadInt32()
		if err != nil {
			return err
		}
		if high < low || int64(high)-int64(low)+1 > int64(s.Remaining()/4) {
			return errors.Errorf("bytecode: bad tableswitch range %d..%d", low, high)
		}
		ins.Low = low
		fx.dflt = pc + int(def)
		for k := int64(low); k <= int64(high); k++ {
			off, err := s.ReadInt32()
			if err != nil {
				return err
			}
			fx.targets = append(fx.targets, pc+int(off))
		}
	case FmtLookupSwitch:
		s.Align(0, 4)
		def, err := s.ReadInt32()
		if err != nil {
			return err
		}
		n, err := s.ReadInt32()
		if err != nil {
			return err
		}
		if n < 0 || int(n) > s.Remaining()/8 {
			return errors.Errorf("bytecode: bad lookupswitch pair count %d", n)
		}
		fx.dflt = pc + int(def)
		ins.Keys = make([]int32, n)
		for i := range ins.Keys {
			key, err := s.ReadInt32()
			if err != nil {
				return err
			}
			off, err := s.ReadInt32()
			if err != nil {
				return err
			}
			ins.Keys[i] = key
			fx.targets = append(fx.targets, pc+int(off))
		}
	default:
		return errors.Errorf("bytecode: unsupported operand format %d", ins.Op.Format())
	}
	return nil
}

func readLocal(s *jvmfmt.Stream, wide bool) (int, error) {
	if wide {
		v, err := s.ReadUint16()
		return int(v), err
	}
	v, err := s.ReadUint8()
	return int(v), err
}

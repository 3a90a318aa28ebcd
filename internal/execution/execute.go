package execution

import (
	"fmt"

	"deobinject/internal/bytecode"
	"deobinject/internal/jvmfmt"
)

// step carries the state of one instruction execution.
type step struct {
	f   *Frame
	l   *bytecode.Instructions
	ins *bytecode.Instruction
	ctx *InstructionContext
}

func (s *step) fail(format string, args ...any) {
	panic(&InvariantError{
		Method: s.f.owner,
		Pos:    s.l.IndexOf(s.ctx.Handle),
		Op:     s.ins.Op,
		Msg:    fmt.Sprintf(format, args...),
	})
}

// checkReturn fails when op is not the return instruction the method
// descriptor calls for.
func (s *step) checkReturn(op bytecode.Opcode) {
	ret := s.f.Method.Signature().Return
	want, err := bytecode.ReturnFor(ret)
	if err != nil {
		s.fail("%v", err)
	}
	if op != want {
		s.fail("%s in method returning %s, want %s", op, ret, want)
	}
}

func (s *step) pop() *StackContext {
	c := s.f.Stack.pop()
	if c == nil {
		s.fail("pop from empty stack")
	}
	c.Popped = append(c.Popped, s.ctx)
	s.ctx.Pops = append(s.ctx.Pops, c)
	return c
}

// popType pops a value of stack type t. Any reference type satisfies a
// reference t.
func (s *step) popType(t jvmfmt.Type) Value {
	c := s.pop()
	got := c.Value.Type
	if t.IsReference() {
		if !got.IsReference() {
			s.fail("popped %s, want reference", got)
		}
	} else if got != t.StackType() {
		s.fail("popped %s, want %s", got, t.StackType())
	}
	return c.Value
}

// popCategory pops a value of computational category 1 or 2.
func (s *step) popCategory(cat int) *StackContext {
	c := s.pop()
	if c.Value.Slots() != cat {
		s.fail("popped %s, want category %d", c.Value.Type, cat)
	}
	return c
}

func (s *step) push(v Value) {
	c := &StackContext{Pushed: s.ctx, Value: v}
	s.f.Stack.push(c)
	s.ctx.Pushes = append(s.ctx.Pushes, c)
}

// repush pushes a copy of an existing entry, as the dup family does.
func (s *step) repush(c *StackContext) { s.push(c.Value) }

func (s *step) load(idx int, t jvmfmt.Type) {
	v := s.f.Vars.Get(idx)
	if v == nil {
		s.fail("load of unset local %d", idx)
	}
	if t.IsReference() {
		if !v.Type.IsReference() {
			s.fail("local %d is %s, want reference", idx, v.Type)
		}
	} else if v.Type != t {
		s.fail("local %d is %s, want %s", idx, v.Type, t)
	}
	s.push(*v)
}

func (s *step) store(idx int, t jvmfmt.Type) {
	c := s.pop()
	got := c.Value.Type
	ok := got == t
	if t.IsReference() {
		ok = got.IsReference() || got == jvmfmt.ReturnAddress
	}
	if !ok {
		s.fail("store of %s into %s local %d", got, t, idx)
	}
	s.f.Vars.set(idx, c.Value)
}

func (s *step) next() {
	n := s.l.Next(s.ctx.Handle)
	if n == bytecode.NoHandle {
		s.fail("execution falls off the end of the code")
	}
	s.ctx.Successors = append(s.ctx.Successors, n)
}

func (s *step) jump(h bytecode.Handle) {
	if s.l.IndexOf(h) < 0 {
		s.fail("branch to unknown instruction %d", h)
	}
	for _, x := range s.ctx.Successors {
		if x == h {
			return
		}
	}
	s.ctx.Successors = append(s.ctx.Successors, h)
}

// local operand types indexed by (op - base) / 4 for the implicit forms and
// op - base for the explicit ones.
var localTypes = [5]jvmfmt.Type{jvmfmt.Int, jvmfmt.Long, jvmfmt.Float, jvmfmt.Double, jvmfmt.Object}

var arrayElem = map[bytecode.Opcode]jvmfmt.Type{
	bytecode.Iaload: jvmfmt.Int, bytecode.Laload: jvmfmt.Long, bytecode.Faload: jvmfmt.Float,
	bytecode.Daload: jvmfmt.Double, bytecode.Aaload: jvmfmt.Object, bytecode.Baload: jvmfmt.Int,
	bytecode.Caload: jvmfmt.Int, bytecode.Saload: jvmfmt.Int,
	bytecode.Iastore: jvmfmt.Int, bytecode.Lastore: jvmfmt.Long, bytecode.Fastore: jvmfmt.Float,
	bytecode.Dastore: jvmfmt.Double, bytecode.Aastore: jvmfmt.Object, bytecode.Bastore: jvmfmt.Int,
	bytecode.Castore: jvmfmt.Int, bytecode.Sastore: jvmfmt.Int,
}

var returnTypes = map[bytecode.Opcode]jvmfmt.Type{
	bytecode.Ireturn: jvmfmt.Int, bytecode.Lreturn: jvmfmt.Long, bytecode.Freturn: jvmfmt.Float,
	bytecode.Dreturn: jvmfmt.Double, bytecode.Areturn: jvmfmt.Object,
}

// Execute runs the instruction h of f.Method against f, mutating f into the
// state after the instruction. It panics with *InvariantError when the
// stack or locals do not match the instruction.
func Execute(f *Frame, h bytecode.Handle) *InstructionContext {
	l := f.Method.Code.Instructions
	ins := l.Get(h)
	ctx := &InstructionContext{Handle: h, Instruction: ins}
	s := &step{f: f, l: l, ins: ins, ctx: ctx}
	if ins == nil {
		s.ins = &bytecode.Instruction{}
		s.fail("unknown instruction %d", h)
	}
	op := ins.Op

	switch op {
	case bytecode.Nop:
		s.next()

	case bytecode.AconstNull:
		s.push(Unknown(jvmfmt.Null))
		s.next()

	case bytecode.IconstM1, bytecode.Iconst0, bytecode.Iconst1, bytecode.Iconst2, bytecode.Iconst3,
		bytecode.Iconst4, bytecode.Iconst5, bytecode.Lconst0, bytecode.Lconst1,
		bytecode.Fconst0, bytecode.Fconst1, bytecode.Fconst2, bytecode.Dconst0, bytecode.Dconst1,
		bytecode.Bipush, bytecode.Sipush, bytecode.Ldc, bytecode.LdcW, bytecode.Ldc2W:
		c, ok := ins.Constant()
		if !ok {
			s.fail("missing constant")
		}
		s.push(Constant(c))
		s.next()

	case bytecode.Iload, bytecode.Lload, bytecode.Fload, bytecode.Dload, bytecode.Aload:
		s.load(ins.Local, localTypes[op-bytecode.Iload])
		s.next()

	case bytecode.Iload0, bytecode.Iload1, bytecode.Iload2, bytecode.Iload3,
		bytecode.Lload0, bytecode.Lload1, bytecode.Lload2, bytecode.Lload3,
		bytecode.Fload0, bytecode.Fload1, bytecode.Fload2, bytecode.Fload3,
		bytecode.Dload0, bytecode.Dload1, bytecode.Dload2, bytecode.Dload3,
		bytecode.Aload0, bytecode.Aload1, bytecode.Aload2, bytecode.Aload3:
		idx, _ := op.ImplicitLocal()
		s.load(idx, localTypes[(op-bytecode.Iload0)/4])
		s.next()

	case bytecode.Iaload, bytecode.Laload, bytecode.Faload, bytecode.Daload,
		bytecode.Aaload, bytecode.Baload, bytecode.Caload, bytecode.Saload:
		s.popType(jvmfmt.Int)
		arr := s.popType(jvmfmt.Object)
		elem := arrayElem[op]
		if op == bytecode.Aaload && arr.Type.IsArray() {
			elem = arr.Type.ComponentType()
		}
		s.push(Unknown(elem))
		s.next()

	case bytecode.Istore, bytecode.Lstore, bytecode.Fstore, bytecode.Dstore, bytecode.Astore:
		s.store(ins.Local, localTypes[op-bytecode.Istore])
		s.next()

	case bytecode.Istore0, bytecode.Istore1, bytecode.Istore2, bytecode.Istore3,
		bytecode.Lstore0, bytecode.Lstore1, bytecode.Lstore2, bytecode.Lstore3,
		bytecode.Fstore0, bytecode.Fstore1, bytecode.Fstore2, bytecode.Fstore3,
		bytecode.Dstore0, bytecode.Dstore1, bytecode.Dstore2, bytecode.Dstore3,
		bytecode.Astore0, bytecode.Astore1, bytecode.Astore2, bytecode.Astore3:
		idx, _ := op.ImplicitLocal()
		s.store(idx, localTypes[(op-bytecode.Istore0)/4])
		s.next()

	case bytecode.Iastore, bytecode.Lastore, bytecode.Fastore, bytecode.Dastore,
		bytecode.Aastore, bytecode.Bastore, bytecode.Castore, bytecode.Sastore:
		s.popType(arrayElem[op])
		s.popType(jvmfmt.Int)
		s.popType(jvmfmt.Object)
		s.next()

	case bytecode.Pop:
		s.popCategory(1)
		s.next()

	case bytecode.Pop2:
		if s.pop().Value.Slots() == 1 {
			s.popCategory(1)
		}
		s.next()

	case bytecode.Dup:
		v := s.popCategory(1)
		s.repush(v)
		s.repush(v)
		s.next()

	case bytecode.DupX1:
		v1 := s.popCategory(1)
		v2 := s.popCategory(1)
		s.repush(v1)
		s.repush(v2)
		s.repush(v1)
		s.next()

	case bytecode.DupX2:
		v1 := s.popCategory(1)
		v2 := s.pop()
		if v2.Value.Slots() == 2 {
			s.repush(v1)
			s.repush(v2)
			s.repush(v1)
		} else {
			v3 := s.popCategory(1)
			s.repush(v1)
			s.repush(v3)
			s.repush(v2)
			s.repush(v1)
		}
		s.next()

	case bytecode.Dup2:
		v1 := s.pop()
		if v1.Value.Slots() == 2 {
			s.repush(v1)
			s.repush(v1)
		} else {
			v2 := s.popCategory(1)
			s.repush(v2)
			s.repush(v1)
			s.repush(v2)
			s.repush(v1)
		}
		s.next()

	case bytecode.Dup2X1:
		v1 := s.pop()
		if v1.Value.Slots() == 2 {
			v2 := s.popCategory(1)
			s.repush(v1)
			s.repush(v2)
			s.repush(v1)
		} else {
			v2 := s.popCategory(1)
			v3 := s.popCategory(1)
			s.repush(v2)
			s.repush(v1)
			s.repush(v3)
			s.repush(v2)
			s.repush(v1)
		}
		s.next()

	case bytecode.Dup2X2:
		v1 := s.pop()
		if v1.Value.Slots() == 2 {
			v2 := s.pop()
			if v2.Value.Slots() == 2 {
				s.repush(v1)
				s.repush(v2)
				s.repush(v1)
			} else {
				v3 := s.popCategory(1)
				s.repush(v1)
				s.repush(v3)
				s.repush(v2)
				s.repush(v1)
			}
		} else {
			v2 := s.popCategory(1)
			v3 := s.pop()
			if v3.Value.Slots() == 2 {
				s.repush(v2)
				s.repush(v1)
				s.repush(v3)
				s.repush(v2)
				s.repush(v1)
			} else {
				v4 := s.popCategory(1)
				s.repush(v2)
				s.repush(v1)
				s.repush(v4)
				s.repush(v3)
				s.repush(v2)
				s.repush(v1)
			}
		}
		s.next()

	case bytecode.Swap:
		v1 := s.popCategory(1)
		v2 := s.popCategory(1)
		s.repush(v1)
		s.repush(v2)
		s.next()

	case bytecode.Iadd, bytecode.Isub, bytecode.Imul, bytecode.Idiv, bytecode.Irem,
		bytecode.Iand, bytecode.Ior, bytecode.Ixor, bytecode.Ishl, bytecode.Ishr, bytecode.Iushr:
		b := s.popType(jvmfmt.Int)
		a := s.popType(jvmfmt.Int)
		out := Unknown(jvmfmt.Int)
		if x, ok := a.Int(); ok {
			if y, ok := b.Int(); ok {
				if r, ok := foldInt(op, x, y); ok {
					out = IntValue(r)
				}
			}
		}
		s.push(out)
		s.next()

	case bytecode.Ladd, bytecode.Lsub, bytecode.Lmul, bytecode.Ldiv, bytecode.Lrem,
		bytecode.Land, bytecode.Lor, bytecode.Lxor:
		b := s.popType(jvmfmt.Long)
		a := s.popType(jvmfmt.Long)
		out := Unknown(jvmfmt.Long)
		if x, ok := a.Long(); ok {
			if y, ok := b.Long(); ok {
				if r, ok := foldLong(op, x, y); ok {
					out = LongValue(r)
				}
			}
		}
		s.push(out)
		s.next()

	case bytecode.Lshl, bytecode.Lshr, bytecode.Lushr:
		b := s.popType(jvmfmt.Int)
		a := s.popType(jvmfmt.Long)
		out := Unknown(jvmfmt.Long)
		if x, ok := a.Long(); ok {
			if n, ok := b.Int(); ok {
				out = LongValue(foldLongShift(op, x, n))
			}
		}
		s.push(out)
		s.next()

	case bytecode.Fadd, bytecode.Fsub, bytecode.Fmul, bytecode.Fdiv, bytecode.Frem:
		b := s.popType(jvmfmt.Float)
		a := s.popType(jvmfmt.Float)
		out := Unknown(jvmfmt.Float)
		if x, ok := a.Float(); ok {
			if y, ok := b.Float(); ok {
				out = Constant(jvmfmt.Float32(float32(foldFloat(op, float64(x), float64(y)))))
			}
		}
		s.push(out)
		s.next()

	case bytecode.Dadd, bytecode.Dsub, bytecode.Dmul, bytecode.Ddiv, bytecode.Drem:
		b := s.popType(jvmfmt.Double)
		a := s.popType(jvmfmt.Double)
		out := Unknown(jvmfmt.Double)
		if x, ok := a.Double(); ok {
			if y, ok := b.Double(); ok {
				out = Constant(jvmfmt.Float64(foldFloat(op, x, y)))
			}
		}
		s.push(out)
		s.next()

	case bytecode.Ineg:
		a := s.popType(jvmfmt.Int)
		out := Unknown(jvmfmt.Int)
		if x, ok := a.Int(); ok {
			out = IntValue(-x)
		}
		s.push(out)
		s.next()

	case bytecode.Lneg:
		a := s.popType(jvmfmt.Long)
		out := Unknown(jvmfmt.Long)
		if x, ok := a.Long(); ok {
			out = LongValue(-x)
		}
		s.push(out)
		s.next()

	case bytecode.Fneg:
		a := s.popType(jvmfmt.Float)
		out := Unknown(jvmfmt.Float)
		if x, ok := a.Float(); ok {
			out = Constant(jvmfmt.Float32(-x))
		}
		s.push(out)
		s.next()

	case bytecode.Dneg:
		a := s.popType(jvmfmt.Double)
		out := Unknown(jvmfmt.Double)
		if x, ok := a.Double(); ok {
			out = Constant(jvmfmt.Float64(-x))
		}
		s.push(out)
		s.next()

	case bytecode.Iinc:
		v := s.f.Vars.Get(ins.Local)
		if v == nil || v.Type != jvmfmt.Int {
			s.fail("iinc of non-int local %d", ins.Local)
		}
		out := Unknown(jvmfmt.Int)
		if x, ok := v.Int(); ok {
			out = IntValue(x + ins.Int)
		}
		s.f.Vars.set(ins.Local, out)
		s.next()

	case bytecode.I2l, bytecode.I2f, bytecode.I2d, bytecode.I2b, bytecode.I2c, bytecode.I2s:
		s.push(convertInt(op, s.popType(jvmfmt.Int)))
		s.next()

	case bytecode.L2i, bytecode.L2f, bytecode.L2d:
		s.push(convertLong(op, s.popType(jvmfmt.Long)))
		s.next()

	case bytecode.F2i, bytecode.F2l, bytecode.F2d:
		a := s.popType(jvmfmt.Float)
		x, ok := a.Float()
		s.push(convertFloat(op, float64(x), ok))
		s.next()

	case bytecode.D2i, bytecode.D2l, bytecode.D2f:
		a := s.popType(jvmfmt.Double)
		x, ok := a.Double()
		s.push(convertFloat(op, x, ok))
		s.next()

	case bytecode.Lcmp:
		b := s.popType(jvmfmt.Long)
		a := s.popType(jvmfmt.Long)
		out := Unknown(jvmfmt.Int)
		if x, ok := a.Long(); ok {
			if y, ok := b.Long(); ok {
				out = IntValue(0)
				switch {
				case x < y:
					out = IntValue(-1)
				case x > y:
					out = IntValue(1)
				}
			}
		}
		s.push(out)
		s.next()

	case bytecode.Fcmpl, bytecode.Fcmpg:
		b := s.popType(jvmfmt.Float)
		a := s.popType(jvmfmt.Float)
		out := Unknown(jvmfmt.Int)
		if x, ok := a.Float(); ok {
			if y, ok := b.Float(); ok {
				out = IntValue(compare(float64(x), float64(y), nanResult(op)))
			}
		}
		s.push(out)
		s.next()

	case bytecode.Dcmpl, bytecode.Dcmpg:
		b := s.popType(jvmfmt.Double)
		a := s.popType(jvmfmt.Double)
		out := Unknown(jvmfmt.Int)
		if x, ok := a.Double(); ok {
			if y, ok := b.Double(); ok {
				out = IntValue(compare(x, y, nanResult(op)))
			}
		}
		s.push(out)
		s.next()

	case bytecode.Ifeq, bytecode.Ifne, bytecode.Iflt, bytecode.Ifge, bytecode.Ifgt, bytecode.Ifle:
		s.popType(jvmfmt.Int)
		s.jump(ins.Target)
		s.next()

	case bytecode.IfIcmpeq, bytecode.IfIcmpne, bytecode.IfIcmplt, bytecode.IfIcmpge,
		bytecode.IfIcmpgt, bytecode.IfIcmple:
		s.popType(jvmfmt.Int)
		s.popType(jvmfmt.Int)
		s.jump(ins.Target)
		s.next()

	case bytecode.IfAcmpeq, bytecode.IfAcmpne:
		s.popType(jvmfmt.Object)
		s.popType(jvmfmt.Object)
		s.jump(ins.Target)
		s.next()

	case bytecode.Ifnull, bytecode.Ifnonnull:
		s.popType(jvmfmt.Object)
		s.jump(ins.Target)
		s.next()

	case bytecode.Goto, bytecode.GotoW:
		s.jump(ins.Target)

	case bytecode.Jsr, bytecode.JsrW:
		ret := Unknown(jvmfmt.ReturnAddress)
		ret.Ret = l.Next(h)
		s.push(ret)
		s.jump(ins.Target)

	case bytecode.Ret:
		v := f.Vars.Get(ins.Local)
		if v == nil || v.Type != jvmfmt.ReturnAddress || v.Ret == bytecode.NoHandle {
			s.fail("ret through non-address local %d", ins.Local)
		}
		s.jump(v.Ret)

	case bytecode.Tableswitch, bytecode.Lookupswitch:
		s.popType(jvmfmt.Int)
		for _, t := range ins.Targets {
			s.jump(t)
		}
		s.jump(ins.Default)

	case bytecode.Ireturn, bytecode.Lreturn, bytecode.Freturn, bytecode.Dreturn, bytecode.Areturn:
		s.checkReturn(op)
		s.popType(returnTypes[op])

	case bytecode.Return:
		s.checkReturn(op)

	case bytecode.Getstatic, bytecode.Putstatic, bytecode.Getfield, bytecode.Putfield:
		ref, ok := ins.Ref.(jvmfmt.FieldRef)
		if !ok {
			s.fail("operand %T is not a field reference", ins.Ref)
		}
		switch op {
		case bytecode.Getstatic:
			s.push(Unknown(ref.Type))
		case bytecode.Putstatic:
			s.popType(ref.Type)
		case bytecode.Getfield:
			s.popType(jvmfmt.Object)
			s.push(Unknown(ref.Type))
		case bytecode.Putfield:
			s.popType(ref.Type)
			s.popType(jvmfmt.Object)
		}
		s.next()

	case bytecode.Invokevirtual, bytecode.Invokespecial, bytecode.Invokestatic,
		bytecode.Invokeinterface, bytecode.Invokedynamic:
		var desc string
		switch r := ins.Ref.(type) {
		case jvmfmt.MethodRef:
			desc = r.Desc
		case jvmfmt.InterfaceMethodRef:
			desc = r.Desc
		case jvmfmt.InvokeDynamic:
			desc = r.Desc
		default:
			s.fail("operand %T is not a method reference", ins.Ref)
		}
		sig, err := jvmfmt.ParseSignature(desc)
		if err != nil {
			s.fail("%v", err)
		}
		for i := len(sig.Args) - 1; i >= 0; i-- {
			s.popType(sig.Args[i])
		}
		if op != bytecode.Invokestatic && op != bytecode.Invokedynamic {
			s.popType(jvmfmt.Object)
		}
		if sig.Return != jvmfmt.Void {
			s.push(Unknown(sig.Return))
		}
		s.next()

	case bytecode.New:
		s.push(Unknown(classType(s, ins.Ref)))
		s.next()

	case bytecode.Newarray:
		s.popType(jvmfmt.Int)
		t, ok := bytecode.ArrayType(ins.Int)
		if !ok {
			s.fail("bad newarray type %d", ins.Int)
		}
		s.push(Unknown(t.ArrayOf(1)))
		s.next()

	case bytecode.Anewarray:
		s.popType(jvmfmt.Int)
		s.push(Unknown(classType(s, ins.Ref).ArrayOf(1)))
		s.next()

	case bytecode.Multianewarray:
		for i := int32(0); i < ins.Int; i++ {
			s.popType(jvmfmt.Int)
		}
		s.push(Unknown(classType(s, ins.Ref)))
		s.next()

	case bytecode.Arraylength:
		s.popType(jvmfmt.Object)
		s.push(Unknown(jvmfmt.Int))
		s.next()

	case bytecode.Athrow:
		s.popType(jvmfmt.Object)

	case bytecode.Checkcast:
		s.popType(jvmfmt.Object)
		s.push(Unknown(classType(s, ins.Ref)))
		s.next()

	case bytecode.Instanceof:
		s.popType(jvmfmt.Object)
		s.push(Unknown(jvmfmt.Int))
		s.next()

	case bytecode.Monitorenter, bytecode.Monitorexit:
		s.popType(jvmfmt.Object)
		s.next()

	default:
		s.fail("unsupported opcode")
	}
	return ctx
}

func classType(s *step, ref jvmfmt.Entry) jvmfmt.Type {
	c, ok := ref.(jvmfmt.ClassInfo)
	if !ok {
		s.fail("operand %T is not a class reference", ref)
	}
	return jvmfmt.ObjectType(c.Name)
}

func nanResult(op bytecode.Opcode) int32 {
	if op == bytecode.Fcmpg || op == bytecode.Dcmpg {
		return 1
	}
	return -1
}

func convertInt(op bytecode.Opcode, v Value) Value {
	x, ok := v.Int()
	switch op {
	case bytecode.I2l:
		if ok {
			return LongValue(int64(x))
		}
		return Unknown(jvmfmt.Long)
	case bytecode.I2f:
		if ok {
			return Constant(jvmfmt.Float32(float32(x)))
		}
		return Unknown(jvmfmt.Float)
	case bytecode.I2d:
		if ok {
			return Constant(jvmfmt.Float64(float64(x)))
		}
		return Unknown(jvmfmt.Double)
	}
	if !ok {
		return Unknown(jvmfmt.Int)
	}
	switch op {
	case bytecode.I2b:
		return IntValue(int32(int8(x)))
	case bytecode.I2c:
		return IntValue(int32(uint16(x)))
	}
	return IntValue(int32(int16(x)))
}

func convertLong(op bytecode.Opcode, v Value) Value {
	x, ok := v.Long()
	switch op {
	case bytecode.L2i:
		if ok {
			return IntValue(int32(x))
		}
		return Unknown(jvmfmt.Int)
	case bytecode.L2f:
		if ok {
			return Constant(jvmfmt.Float32(float32(x)))
		}
		return Unknown(jvmfmt.Float)
	}
	if ok {
		return Constant(jvmfmt.Float64(float64(x)))
	}
	return Unknown(jvmfmt.Double)
}

func convertFloat(op bytecode.Opcode, x float64, ok bool) Value {
	switch op {
	case bytecode.F2i, bytecode.D2i:
		if ok {
			return IntValue(toInt32(x))
		}
		return Unknown(jvmfmt.Int)
	case bytecode.F2l, bytecode.D2l:
		if ok {
			return LongValue(toInt64(x))
		}
		return Unknown(jvmfmt.Long)
	case bytecode.F2d:
		if ok {
			return Constant(jvmfmt.Float64(x))
		}
		return Unknown(jvmfmt.Double)
	}
	if ok {
		return Constant(jvmfmt.Float32(float32(x)))
	}
	return Unknown(jvmfmt.Float)
}

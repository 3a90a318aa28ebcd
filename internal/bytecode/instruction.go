// Package bytecode models JVM method bodies as an editable instruction
// list: decoding, assembly, constant access, control flow and listings.
package bytecode

import (
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// ErrImplicitConstant is returned when rewriting the constant of an
// instruction whose value is implied by its opcode (iconst_1, dconst_0, ...).
var ErrImplicitConstant = errors.New("bytecode: constant is implicit in the opcode")

// Handle identifies an instruction inside one Instructions arena. Handles
// stay valid across insertion, removal and reordering of other instructions.
type Handle int32

// NoHandle is the zero reference. As an exception range end it means
// "end of code".
const NoHandle Handle = -1

// Instruction is one decoded instruction. Which operand fields are
// meaningful depends on Op.Format().
type Instruction struct {
	Op   Opcode
	Wide bool // encoded behind a wide prefix

	Local int          // local variable index: loads, stores, iinc, ret
	Int   int32        // bipush/sipush value, iinc delta, newarray atype, multianewarray dims, invokeinterface count
	Ref   jvmfmt.Entry // constant pool operand

	Target  Handle   // branch target
	Default Handle   // switch default
	Low     int32    // tableswitch low key; high is Low+len(Targets)-1
	Keys    []int32  // lookupswitch match keys, parallel to Targets
	Targets []Handle // switch targets
}

// Simple returns an operand-less instruction.
func Simple(op Opcode) Instruction {
	return Instruction{Op: op, Target: NoHandle, Default: NoHandle}
}

// WithRef returns an instruction taking a single pool operand
// (field/method access, new, checkcast, ldc ...).
func WithRef(op Opcode, ref jvmfmt.Entry) Instruction {
	ins := Simple(op)
	ins.Ref = ref
	if op == Invokeinterface {
		if m, ok := ref.(jvmfmt.InterfaceMethodRef); ok {
			if sig, err := m.Signature(); err == nil {
				ins.Int = int32(sig.ArgSlots() + 1)
			}
		}
	}
	return ins
}

// Branch returns a branch instruction to target.
func Branch(op Opcode, target Handle) Instruction {
	ins := Simple(op)
	ins.Target = target
	return ins
}

// LDC returns the ldc form suitable for the constant.
func LDC(c jvmfmt.Entry) Instruction {
	if jvmfmt.IsWide(c) {
		return WithRef(Ldc2W, c)
	}
	return WithRef(Ldc, c)
}

// PushInt returns the shortest instruction pushing v.
func PushInt(v int32) Instruction {
	switch {
	case v >= -1 && v <= 5:
		return Simple(Iconst0 + Opcode(v))
	case v >= -128 && v <= 127:
		ins := Simple(Bipush)
		ins.Int = v
		return ins
	case v >= -32768 && v <= 32767:
		ins := Simple(Sipush)
		ins.Int = v
		return ins
	}
	return LDC(jvmfmt.IntegerInfo{Value: v})
}

var loadOps = map[jvmfmt.Type]Opcode{
	jvmfmt.Int: Iload, jvmfmt.Long: Lload, jvmfmt.Float: Fload, jvmfmt.Double: Dload,
}

var storeOps = map[jvmfmt.Type]Opcode{
	jvmfmt.Int: Istore, jvmfmt.Long: Lstore, jvmfmt.Float: Fstore, jvmfmt.Double: Dstore,
}

// Load returns the instruction loading local idx of type t, using the
// implicit-index forms for slots 0..3.
func Load(t jvmfmt.Type, idx int) (Instruction, error) {
	op, err := localOp(t, loadOps, Aload)
	if err != nil {
		return Instruction{}, err
	}
	return localInsn(op, Iload0, Iload, idx), nil
}

// Store returns the instruction storing into local idx of type t.
func Store(t jvmfmt.Type, idx int) (Instruction, error) {
	op, err := localOp(t, storeOps, Astore)
	if err != nil {
		return Instruction{}, err
	}
	return localInsn(op, Istore0, Istore, idx), nil
}

func localOp(t jvmfmt.Type, ops map[jvmfmt.Type]Opcode, ref Opcode) (Opcode, error) {
	if t.IsReference() {
		return ref, nil
	}
	if op, ok := ops[t.StackType()]; ok {
		return op, nil
	}
	return 0, errors.Errorf("bytecode: no local variable instruction for type %q", t)
}

func localInsn(op, implicitBase, explicitBase Opcode, idx int) Instruction {
	if idx >= 0 && idx <= 3 {
		return Simple(implicitBase + (op-explicitBase)*4 + Opcode(idx))
	}
	ins := Simple(op)
	ins.Local = idx
	ins.Wide = idx > 255
	return ins
}

// ReturnFor returns the return opcode for a method returning t.
// Object and array types use areturn.
func ReturnFor(t jvmfmt.Type) (Opcode, error) {
	if t.IsReference() {
		return Areturn, nil
	}
	switch t {
	case jvmfmt.Boolean, jvmfmt.Byte, jvmfmt.Char, jvmfmt.Short, jvmfmt.Int:
		return Ireturn, nil
	case jvmfmt.Long:
		return Lreturn, nil
	case jvmfmt.Float:
		return Freturn, nil
	case jvmfmt.Double:
		return Dreturn, nil
	case jvmfmt.Void:
		return Return, nil
	}
	return 0, errors.Errorf("bytecode: unknown return type %q", t)
}

// LocalIndex returns the local variable slot addressed by a load, store,
// iinc or ret.
func (ins *Instruction) LocalIndex() (int, bool) {
	if idx, ok := ins.Op.ImplicitLocal(); ok {
		return idx, true
	}
	switch ins.Op.Format() {
	case FmtLocal, FmtIinc:
		return ins.Local, true
	}
	return 0, false
}

// Constant returns the value pushed by a constant-push instruction.
// aconst_null has no pool representation and reports false.
func (ins *Instruction) Constant() (jvmfmt.Entry, bool) {
	switch op := ins.Op; {
	case op >= IconstM1 && op <= Iconst5:
		return jvmfmt.IntegerInfo{Value: int32(op) - int32(Iconst0)}, true
	case op == Lconst0 || op == Lconst1:
		return jvmfmt.LongInfo{Value: int64(op - Lconst0)}, true
	case op >= Fconst0 && op <= Fconst2:
		return jvmfmt.Float32(float32(op - Fconst0)), true
	case op == Dconst0 || op == Dconst1:
		return jvmfmt.Float64(float64(op - Dconst0)), true
	case op == Bipush || op == Sipush:
		return jvmfmt.IntegerInfo{Value: ins.Int}, true
	case op == Ldc || op == LdcW || op == Ldc2W:
		return ins.Ref, ins.Ref != nil
	}
	return nil, false
}

// SetConstant rewrites the pushed constant, switching between bipush,
// sipush and the ldc forms as the new value requires. Opcodes whose
// constant is implied by the opcode cannot be rewritten.
func (ins *Instruction) SetConstant(c jvmfmt.Entry) error {
	switch ins.Op {
	case Bipush, Sipush, Ldc, LdcW, Ldc2W:
	default:
		if _, ok := ins.Constant(); ok {
			return ErrImplicitConstant
		}
		return errors.Errorf("bytecode: %s does not push a constant", ins.Op)
	}
	switch v := c.(type) {
	case jvmfmt.IntegerInfo:
		if ins.Op == Bipush || ins.Op == Sipush {
			if v.Value >= -32768 && v.Value <= 32767 {
				if v.Value >= -128 && v.Value <= 127 {
					ins.Op = Bipush
				} else {
					ins.Op = Sipush
				}
				ins.Int = v.Value
				return nil
			}
		}
	case jvmfmt.FloatInfo, jvmfmt.LongInfo, jvmfmt.DoubleInfo, jvmfmt.StringInfo,
		jvmfmt.ClassInfo, jvmfmt.MethodType, jvmfmt.MethodHandle, jvmfmt.Dynamic:
	default:
		return errors.Errorf("bytecode: %T is not a loadable constant", c)
	}
	switch {
	case jvmfmt.IsWide(c):
		ins.Op = Ldc2W
	case ins.Op == LdcW:
	default:
		ins.Op = Ldc
	}
	ins.Int = 0
	ins.Ref = c
	return nil
}

// Handler is one exception table entry. End is exclusive; NoHandle means
// the range runs to the end of the code.
type Handler struct {
	Start     Handle
	End       Handle
	Handler   Handle
	CatchType string // internal class name, "" catches everything
}

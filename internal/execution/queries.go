package execution

import (
	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// Multiplier is a constant multiplied with a field read.
type Multiplier struct {
	Method *classfile.Method
	Handle bytecode.Handle // the imul/lmul
	Value  int64           // int constants are sign-extended
}

// Multipliers runs m and returns the constants multiplied with reads of
// field (getfield/getstatic feeding imul/lmul, in either operand order).
// References through a subclass name match when they resolve to field.
func Multipliers(m *classfile.Method, field *classfile.Field) ([]Multiplier, error) {
	all, err := FieldMultipliers(m)
	if err != nil {
		return nil, err
	}
	return all[field], nil
}

// FieldMultipliers runs m once and groups every field multiplier it
// finds by the field read.
func FieldMultipliers(m *classfile.Method) (map[*classfile.Field][]Multiplier, error) {
	if m.Code == nil {
		return nil, nil
	}
	e := New()
	if err := e.Run(m); err != nil {
		return nil, err
	}
	out := make(map[*classfile.Field][]Multiplier)
	seen := map[Multiplier]bool{}
	for _, ctx := range e.All() {
		op := ctx.Instruction.Op
		if op != bytecode.Imul && op != bytecode.Lmul {
			continue
		}
		a, b := ctx.Pop(0), ctx.Pop(1)
		for _, pair := range [2][2]*StackContext{{a, b}, {b, a}} {
			read, k := pair[0], pair[1]
			field := fieldRead(m.Owner, read)
			if field == nil {
				continue
			}
			var v int64
			if i, ok := k.Value.Int(); ok {
				v = int64(i)
			} else if l, ok := k.Value.Long(); ok {
				v = l
			} else {
				continue
			}
			mul := Multiplier{Method: m, Handle: ctx.Handle, Value: v}
			if !seen[mul] {
				seen[mul] = true
				out[field] = append(out[field], mul)
			}
		}
	}
	return out, nil
}

// fieldRead returns the field a getfield/getstatic producing c reads,
// resolved within the group of from.
func fieldRead(from *classfile.ClassFile, c *StackContext) *classfile.Field {
	if c == nil || c.Pushed == nil {
		return nil
	}
	op := c.Pushed.Instruction.Op
	if op != bytecode.Getfield && op != bytecode.Getstatic {
		return nil
	}
	ref, ok := c.Pushed.Instruction.Ref.(jvmfmt.FieldRef)
	if !ok {
		return nil
	}
	owner := from
	if ref.Class != from.Name {
		if from.Group == nil {
			return nil
		}
		if owner = from.Group.FindClass(ref.Class); owner == nil {
			return nil
		}
	}
	return owner.FindFieldDeep(ref.Name, ref.Type)
}

// MaxStack runs m and returns the operand stack depth its code needs.
func MaxStack(m *classfile.Method) (int, error) {
	if m.Code == nil {
		return 0, nil
	}
	e := New()
	if err := e.Run(m); err != nil {
		return 0, err
	}
	return e.MaxStack(), nil
}

package inject

import (
	"github.com/apex/log"
	"github.com/pkg/errors"

	"deobinject/internal/api"
	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/deob"
	"deobinject/internal/execution"
	"deobinject/internal/jvmfmt"
)

// injectGetter adds m to clazz, returning field multiplied by enc:
//
//	[aload_0] getfield|getstatic field [ldc k; imul|lmul] xreturn
func (i *Injector) injectGetter(clazz *classfile.ClassFile, m *api.Method, field *classfile.Field, enc *deob.Getter) error {
	desc := jvmfmt.Signature{Return: m.Returns}.String()
	gm, err := clazz.AddMethod(jvmfmt.AccPublic, m.Name, desc)
	if err != nil {
		return &InternalError{Member: clazz.Name + "." + m.Name + desc, Err: err}
	}
	l := gm.Code.Instructions
	if field.IsStatic() {
		l.Add(bytecode.WithRef(bytecode.Getstatic, field.Ref()))
	} else {
		l.Add(bytecode.Simple(bytecode.Aload0))
		l.Add(bytecode.WithRef(bytecode.Getfield, field.Ref()))
	}
	if enc != nil {
		ins, err := multiply(field.Type, *enc)
		if err != nil {
			return &InternalError{Member: gm.String(), Err: err}
		}
		l.Add(ins[0])
		l.Add(ins[1])
	}
	ret, err := bytecode.ReturnFor(field.Type)
	if err != nil || ret == bytecode.Return {
		return &InternalError{Member: gm.String(), Err: errors.Errorf("no return instruction for field type %s", field.Type)}
	}
	l.Add(bytecode.Simple(ret))
	return i.finish(gm, RoleGetter, field.String())
}

// injectSetter adds the setter importing name to clazz. The argument is
// multiplied by enc, the inverse of the getter constant, before the store.
func (i *Injector) injectSetter(clazz *classfile.ClassFile, iface *api.Interface, field *classfile.Field, name string, enc *deob.Getter) error {
	m := iface.FindImport(name, true)
	if m == nil {
		i.log.WithFields(log.Fields{"interface": iface.Name, "export": name}).Info("no setter import on api interface, not injecting setter")
		i.report.Diags.Addf(field.String(), jvmfmt.DiagNoAPIMethod, "%s has no setter importing %s", iface.Name, name)
		return nil
	}
	member := iface.Name + "." + m.Name
	if len(m.Args) != 1 || m.Returns != jvmfmt.Void {
		return &TypeError{Member: member, From: field.Type, To: jvmfmt.Type(m.Descriptor()), Reason: "setter must take one argument and return void"}
	}
	arg := m.Args[0]
	if err := i.validateArgument(arg, field.Type, member); err != nil {
		return err
	}

	sm, err := clazz.AddMethod(jvmfmt.AccPublic, m.Name, m.Descriptor())
	if err != nil {
		return &InternalError{Member: clazz.Name + "." + m.Name + m.Descriptor(), Err: err}
	}
	l := sm.Code.Instructions
	if !field.IsStatic() {
		l.Add(bytecode.Simple(bytecode.Aload0))
	}
	load, err := bytecode.Load(arg, 1)
	if err != nil {
		return &InternalError{Member: sm.String(), Err: err}
	}
	l.Add(load)
	if field.Type.IsReference() && arg != field.Type {
		l.Add(bytecode.WithRef(bytecode.Checkcast, jvmfmt.ClassInfo{Name: field.Type.ClassRef()}))
	}
	if enc != nil {
		ins, err := multiply(field.Type, *enc)
		if err != nil {
			return &InternalError{Member: sm.String(), Err: err}
		}
		l.Add(ins[0])
		l.Add(ins[1])
	}
	if field.IsStatic() {
		l.Add(bytecode.WithRef(bytecode.Putstatic, field.Ref()))
	} else {
		l.Add(bytecode.WithRef(bytecode.Putfield, field.Ref()))
	}
	l.Add(bytecode.Simple(bytecode.Return))
	return i.finish(sm, RoleSetter, field.String())
}

// validateArgument checks a value declared as the API type from can be
// stored where vanilla expects to. Object types are cast, so only the
// shape has to agree.
func (i *Injector) validateArgument(from, to jvmfmt.Type, member string) error {
	if from.Dimensions() != to.Dimensions() {
		return &TypeError{Member: member, From: from, To: to, Reason: "array dimension mismatch"}
	}
	fromPrim, toPrim := from.ElementType().IsPrimitive(), to.ElementType().IsPrimitive()
	if fromPrim != toPrim {
		return &TypeError{Member: member, From: from, To: to, Reason: "primitive and reference types do not convert"}
	}
	if fromPrim && from.Dimensions() == 0 && from.StackType() != to.StackType() {
		return &TypeError{Member: member, From: from, To: to, Reason: "primitive category mismatch"}
	}
	return nil
}

// multiply returns the ldc and multiply instructions applying k to a value
// of type t.
func multiply(t jvmfmt.Type, k deob.Getter) ([2]bytecode.Instruction, error) {
	switch t.StackType() {
	case jvmfmt.Int:
		return [2]bytecode.Instruction{
			bytecode.LDC(jvmfmt.IntegerInfo{Value: k.Int()}),
			bytecode.Simple(bytecode.Imul),
		}, nil
	case jvmfmt.Long:
		return [2]bytecode.Instruction{
			bytecode.LDC(jvmfmt.LongInfo{Value: k.Value}),
			bytecode.Simple(bytecode.Lmul),
		}, nil
	}
	return [2]bytecode.Instruction{}, errors.Errorf("multiplier on non-integral type %s", t)
}

// finish runs the new method through the execution engine to validate it
// and size its operand stack, then records it.
func (i *Injector) finish(m *classfile.Method, role Role, target string) error {
	n, err := execution.MaxStack(m)
	if err != nil {
		return &InternalError{Member: m.String(), Err: err}
	}
	m.Code.MaxStack = n
	i.report.Methods = append(i.report.Methods, AddedMethod{
		Class:  m.Owner.Name,
		Name:   m.Name,
		Desc:   m.Desc,
		Role:   role,
		Target: target,
	})
	i.log.WithFields(log.Fields{
		"method": m.String(),
		"role":   string(role),
		"target": target,
	}).Debug("injected method")
	return nil
}

package inject

import (
	"strconv"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/deob"
	"deobinject/internal/jvmfmt"
)

// injectInvoker adds a public API-named method calling the vanilla
// counterpart of an exported method. When the vanilla descriptor carries
// one extra trailing parameter, the @ObfuscatedSignature garbage value is
// passed for it.
func (i *Injector) injectInvoker(cf, other *classfile.ClassFile, m *classfile.Method) error {
	vocab := i.opts.Vocabulary
	exp, ok := vocab.ExportOf(m.Annotations)
	if !ok {
		return nil
	}
	target, iface, err := i.target(cf, other, m.IsStatic(), m.String())
	if err != nil {
		return err
	}
	if iface == nil {
		return nil
	}
	apiMethod := iface.FindImport(exp.Name, false)
	if apiMethod == nil {
		apiMethod = iface.FindImport(exp.Name, true)
	}
	if apiMethod == nil {
		i.log.WithFields(log.Fields{"method": m.String(), "export": exp.Name}).Info("no import method on api interface, not injecting invoker")
		i.report.Diags.Addf(m.String(), jvmfmt.DiagNoAPIMethod, "%s has no method importing %s", iface.Name, exp.Name)
		return nil
	}

	vm, err := i.Resolver.Method(m)
	if err != nil {
		return err
	}
	if m.IsStatic() != vm.IsStatic() {
		return &deob.ConfigurationError{Symbol: m.String(), Obfuscated: vm.String(), Reason: "static modifier differs"}
	}
	desc := apiMethod.Descriptor()
	if target.FindMethod(apiMethod.Name, desc) != nil {
		i.log.WithField("method", target.Name+"."+apiMethod.Name+desc).Debug("invoker already present")
		return nil
	}

	vsig := vm.Signature()
	member := iface.Name + "." + apiMethod.Name
	garbage := ""
	switch len(vsig.Args) - len(apiMethod.Args) {
	case 0:
	case 1:
		sig, _ := vocab.SignatureOf(m.Annotations)
		if sig.Garbage == "" {
			return &TypeError{Member: member, From: jvmfmt.Type(vm.Desc), To: jvmfmt.Type(desc), Reason: "extra parameter without a garbage value"}
		}
		garbage = sig.Garbage
	default:
		return &deob.ConfigurationError{Symbol: m.String(), Obfuscated: vm.String(), Reason: "parameter count differs from " + member + desc}
	}

	im, err := target.AddMethod(jvmfmt.AccPublic, apiMethod.Name, desc)
	if err != nil {
		return &InternalError{Member: target.Name + "." + apiMethod.Name + desc, Err: err}
	}
	l := im.Code.Instructions
	if !vm.IsStatic() {
		l.Add(bytecode.Simple(bytecode.Aload0))
	}
	slot := 1
	for k, at := range apiMethod.Args {
		vt := vsig.Args[k]
		if err := i.validateArgument(at, vt, member); err != nil {
			return err
		}
		load, err := bytecode.Load(at, slot)
		if err != nil {
			return &InternalError{Member: im.String(), Err: err}
		}
		l.Add(load)
		if vt.IsReference() && at != vt {
			l.Add(bytecode.WithRef(bytecode.Checkcast, jvmfmt.ClassInfo{Name: vt.ClassRef()}))
		}
		slot += at.Slots()
	}
	if garbage != "" {
		push, err := garbageConstant(vsig.Args[len(vsig.Args)-1], garbage)
		if err != nil {
			return &deob.ConfigurationError{Symbol: m.String(), Obfuscated: vm.String(), Reason: err.Error()}
		}
		l.Add(push)
	}

	switch {
	case vm.IsStatic():
		l.Add(bytecode.WithRef(bytecode.Invokestatic, vm.Ref()))
	case vm.Owner.Access.IsInterface():
		l.Add(bytecode.WithRef(bytecode.Invokeinterface, vm.Ref()))
	default:
		l.Add(bytecode.WithRef(bytecode.Invokevirtual, vm.Ref()))
	}
	ret, err := bytecode.ReturnFor(vsig.Return)
	if err != nil {
		return &InternalError{Member: im.String(), Err: err}
	}
	l.Add(bytecode.Simple(ret))
	return i.finish(im, RoleInvoker, vm.String())
}

// garbageConstant returns the push of the opaque value for a trailing
// parameter of type t.
func garbageConstant(t jvmfmt.Type, value string) (bytecode.Instruction, error) {
	switch t {
	case jvmfmt.Int, jvmfmt.Short, jvmfmt.Byte, jvmfmt.Char, jvmfmt.Boolean:
		v, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return bytecode.Instruction{}, errors.Wrapf(err, "garbage value %q", value)
		}
		return bytecode.PushInt(int32(v)), nil
	case jvmfmt.Long:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return bytecode.Instruction{}, errors.Wrapf(err, "garbage value %q", value)
		}
		return bytecode.LDC(jvmfmt.LongInfo{Value: v}), nil
	}
	return bytecode.Instruction{}, errors.Errorf("garbage parameter of type %s", t)
}

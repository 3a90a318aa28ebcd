// Package inject patches a vanilla class group with the API surface
// described by an annotated deobfuscated group: interfaces first, then
// getters, setters and invokers for every exported member.
package inject

import (
	"github.com/apex/log"
	"github.com/pkg/errors"

	"deobinject/internal/api"
	"deobinject/internal/classfile"
	"deobinject/internal/deob"
	"deobinject/internal/execution"
	"deobinject/internal/jvmfmt"
)

// DefaultClientClass is the vanilla class receiving accessors of static
// fields.
const DefaultClientClass = "client"

// Options tunes an Injector. Zero values select defaults.
type Options struct {
	ClientClass   string
	Vocabulary    *deob.Vocabulary
	VerifyGetters bool
	Logger        log.Interface
	Processors    []MethodProcessor
}

// Injector holds the state of one run. Only the vanilla group is mutated.
type Injector struct {
	Vanilla  *classfile.ClassGroup
	Deob     *classfile.ClassGroup
	Contract *api.Contract
	Resolver *deob.Resolver

	opts        Options
	log         log.Interface
	implemented map[*classfile.ClassFile]*api.Interface // deobfuscated class -> interface
	multipliers map[*classfile.Field][]execution.Multiplier
	report      *Report
}

// New returns an injector patching vanilla from deobfuscated.
func New(vanilla, deobfuscated *classfile.ClassGroup, contract *api.Contract, opts Options) *Injector {
	if opts.ClientClass == "" {
		opts.ClientClass = DefaultClientClass
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = deob.NewVocabulary("")
	}
	if opts.Logger == nil {
		opts.Logger = log.Log
	}
	return &Injector{
		Vanilla:     vanilla,
		Deob:        deobfuscated,
		Contract:    contract,
		Resolver:    deob.NewResolver(vanilla, opts.Vocabulary),
		opts:        opts,
		log:         opts.Logger,
		implemented: make(map[*classfile.ClassFile]*api.Interface),
		report:      &Report{},
	}
}

// Report returns what the injector has done so far.
func (i *Injector) Report() *Report { return i.report }

// Run performs the interface pass over every class, then the member pass.
func (i *Injector) Run() (*Report, error) {
	if err := i.InjectInterfaces(); err != nil {
		return i.report, err
	}
	if i.opts.VerifyGetters {
		i.indexMultipliers()
	}
	for _, cf := range i.Deob.Classes() {
		if !deob.HasAny(cf.Annotations) {
			continue
		}
		if err := i.injectMembers(cf); err != nil {
			return i.report, err
		}
	}
	i.log.WithFields(log.Fields{
		"interfaces": len(i.report.Interfaces),
		"getters":    i.report.Count(RoleGetter),
		"setters":    i.report.Count(RoleSetter),
		"invokers":   i.report.Count(RoleInvoker),
		"skipped":    i.report.Diags.Len(),
	}).Info("injection complete")
	return i.report, nil
}

// InjectInterfaces adds the @Implements interface of every annotated
// class to its vanilla counterpart. Running it again adds nothing.
func (i *Injector) InjectInterfaces() error {
	for _, cf := range i.Deob.Classes() {
		if !deob.HasAny(cf.Annotations) {
			continue
		}
		other, err := i.Resolver.Class(cf)
		if err != nil {
			return err
		}
		iface := i.injectInterface(cf, other)
		if iface != nil {
			i.implemented[cf] = iface
		}
	}
	return nil
}

func (i *Injector) injectInterface(cf, other *classfile.ClassFile) *api.Interface {
	name, ok := i.opts.Vocabulary.ImplementsOf(cf.Annotations)
	if !ok {
		return nil
	}
	iface := i.Contract.Resolve(name)
	if iface == nil {
		i.log.WithFields(log.Fields{
			"class":     cf.Name,
			"interface": i.Contract.Prefix + name,
		}).Info("class implements nonexistent interface, skipping interface injection")
		i.report.Diags.Addf(cf.Name, jvmfmt.DiagNoAPIClass, "interface %s%s is not in the contract", i.Contract.Prefix, name)
		return nil
	}
	if other.AddInterface(iface.Name) {
		i.report.Interfaces = append(i.report.Interfaces, AddedInterface{Class: other.Name, Interface: iface.Name})
		i.log.WithFields(log.Fields{"class": other.Name, "interface": iface.Name}).Debug("injected interface")
	}
	return iface
}

// Implemented returns the interface injected for a deobfuscated class.
func (i *Injector) Implemented(cf *classfile.ClassFile) *api.Interface {
	return i.implemented[cf]
}

func (i *Injector) clientClass(symbol string) (*classfile.ClassFile, error) {
	c := i.Vanilla.FindClass(i.opts.ClientClass)
	if c == nil {
		return nil, &deob.ConfigurationError{Symbol: symbol, Obfuscated: i.opts.ClientClass, Reason: "no vanilla client class"}
	}
	return c, nil
}

// target returns the vanilla class and API interface receiving accessors
// for a member: the client for statics, the mapped class otherwise.
func (i *Injector) target(cf, other *classfile.ClassFile, static bool, symbol string) (*classfile.ClassFile, *api.Interface, error) {
	if !static {
		return other, i.implemented[cf], nil
	}
	client, err := i.clientClass(symbol)
	if err != nil {
		return nil, nil, err
	}
	return client, i.Contract.ClientInterface(), nil
}

func (i *Injector) injectMembers(cf *classfile.ClassFile) error {
	other, err := i.Resolver.Class(cf)
	if err != nil {
		return err
	}
	for _, f := range cf.Fields {
		if err := i.injectField(cf, other, f); err != nil {
			return err
		}
	}
	for _, m := range cf.Methods {
		t := MethodTarget{Method: m, Vanilla: other, API: i.implemented[cf]}
		for _, p := range i.opts.Processors {
			if err := p.ProcessMethod(i, t); err != nil {
				return errors.Wrapf(err, "processing %s", m)
			}
		}
		if err := i.injectInvoker(cf, other, m); err != nil {
			return err
		}
	}
	return nil
}

func (i *Injector) injectField(cf, other *classfile.ClassFile, f *classfile.Field) error {
	vocab := i.opts.Vocabulary
	exp, ok := vocab.ExportOf(f.Annotations)
	if !ok {
		return nil
	}
	getter, hasGetter := vocab.GetterOf(f.Annotations)

	otherf, err := i.Resolver.Field(f)
	if err != nil {
		return err
	}
	if f.IsStatic() != otherf.IsStatic() {
		return &deob.ConfigurationError{Symbol: f.String(), Obfuscated: otherf.String(), Reason: "static modifier differs"}
	}

	targetClass, iface, err := i.target(cf, other, f.IsStatic(), f.String())
	if err != nil {
		return err
	}
	ctx := i.log.WithFields(log.Fields{"field": f.String(), "export": exp.Name})
	if iface == nil {
		ctx.Warn("exported field on a class with no api interface")
		i.report.Diags.Addf(f.String(), jvmfmt.DiagNoInterface, "%s has no injected interface", cf.Name)
		return nil
	}

	if exp.Setter {
		var setter *deob.Getter
		if hasGetter {
			inv, err := getter.Inverse()
			if err != nil {
				return &deob.ConfigurationError{
					Symbol:     f.String(),
					Obfuscated: otherf.String(),
					Reason:     errors.Wrapf(err, "getter constant %d", getter.Value).Error(),
				}
			}
			setter = &inv
		}
		if err := i.injectSetter(targetClass, iface, otherf, exp.Name, setter); err != nil {
			return err
		}
	}

	apiMethod := iface.FindImport(exp.Name, false)
	if apiMethod == nil {
		ctx.WithField("interface", iface.Name).Info("no import method on api interface, not injecting getter")
		i.report.Diags.Addf(f.String(), jvmfmt.DiagNoAPIMethod, "%s has no getter importing %s", iface.Name, exp.Name)
		return nil
	}
	if err := i.ValidateConvertible(otherf.Type, apiMethod.Returns, f.String()); err != nil {
		return err
	}
	var enc *deob.Getter
	if hasGetter {
		enc = &getter
		if i.multipliers != nil {
			i.verifyGetter(f.String(), otherf, getter)
		}
	}
	return i.injectGetter(targetClass, apiMethod, otherf, enc)
}

// ValidateConvertible checks that a vanilla type can be returned where the
// API declares to. Primitives convert among themselves. A vanilla object
// type converts when it, a superclass or any interface reachable from them
// (including injected ones) is to, or extends it in the contract. Types
// outside the vanilla group are accepted.
func (i *Injector) ValidateConvertible(from, to jvmfmt.Type, member string) error {
	if from.Dimensions() != to.Dimensions() {
		return &TypeError{Member: member, From: from, To: to, Reason: "array dimension mismatch"}
	}
	fromPrim, toPrim := from.ElementType().IsPrimitive(), to.ElementType().IsPrimitive()
	switch {
	case fromPrim && toPrim:
		return nil
	case fromPrim != toPrim:
		return &TypeError{Member: member, From: from, To: to, Reason: "primitive and reference types do not convert"}
	}
	vc := i.Vanilla.FindClass(from.InternalName())
	if vc == nil {
		return nil
	}
	want := to.InternalName()
	for _, name := range vc.Supertypes() {
		if name == want || i.Contract.Implements(name, want) {
			return nil
		}
	}
	return &TypeError{Member: member, From: from, To: to, Reason: "no implemented interface matches"}
}

// indexMultipliers records the field multipliers of the vanilla code
// before any accessor is added.
func (i *Injector) indexMultipliers() {
	i.multipliers = make(map[*classfile.Field][]execution.Multiplier)
	for _, c := range i.Vanilla.Classes() {
		for _, m := range c.Methods {
			found, err := execution.FieldMultipliers(m)
			if err != nil {
				i.log.WithError(err).WithField("method", m.String()).Debug("skipping method in getter verification")
				continue
			}
			for f, ms := range found {
				i.multipliers[f] = append(i.multipliers[f], ms...)
			}
		}
	}
}

// verifyGetter warns when no vanilla code multiplies reads of field by g.
func (i *Injector) verifyGetter(symbol string, field *classfile.Field, g deob.Getter) {
	for _, m := range i.multipliers[field] {
		if m.Value == g.Value || (!g.Long && int32(m.Value) == g.Int()) {
			return
		}
	}
	i.log.WithFields(log.Fields{"field": symbol, "getter": g.Value}).Warn("getter constant not observed in vanilla code")
	i.report.Diags.Addf(symbol, jvmfmt.DiagUnverified, "constant %d never multiplies %s", g.Value, field)
}

package deob

import (
	"fmt"

	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// ConfigurationError reports that the two class groups disagree: a symbol
// has no vanilla counterpart, two symbols claim the same counterpart, or a
// mapped pair disagrees on shape. It aborts an injection run.
type ConfigurationError struct {
	Symbol     string // deobfuscated symbol
	Obfuscated string // vanilla name looked up
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.Obfuscated == "" {
		return fmt.Sprintf("configuration: %s: %s", e.Symbol, e.Reason)
	}
	return fmt.Sprintf("configuration: %s (obfuscated %s): %s", e.Symbol, e.Obfuscated, e.Reason)
}

// Resolver maps deobfuscated classes and members to the vanilla group.
// Results are memoized and the mapping is kept injective.
type Resolver struct {
	Vocab   *Vocabulary
	Vanilla *classfile.ClassGroup

	classes map[*classfile.ClassFile]*classfile.ClassFile
	fields  map[*classfile.Field]*classfile.Field
	methods map[*classfile.Method]*classfile.Method

	// reverse maps, vanilla -> deobfuscated
	classOwner  map[*classfile.ClassFile]*classfile.ClassFile
	fieldOwner  map[*classfile.Field]*classfile.Field
	methodOwner map[*classfile.Method]*classfile.Method
}

// NewResolver returns a resolver into vanilla. A nil vocab selects the
// default annotation package.
func NewResolver(vanilla *classfile.ClassGroup, vocab *Vocabulary) *Resolver {
	if vocab == nil {
		vocab = NewVocabulary("")
	}
	return &Resolver{
		Vocab:       vocab,
		Vanilla:     vanilla,
		classes:     make(map[*classfile.ClassFile]*classfile.ClassFile),
		fields:      make(map[*classfile.Field]*classfile.Field),
		methods:     make(map[*classfile.Method]*classfile.Method),
		classOwner:  make(map[*classfile.ClassFile]*classfile.ClassFile),
		fieldOwner:  make(map[*classfile.Field]*classfile.Field),
		methodOwner: make(map[*classfile.Method]*classfile.Method),
	}
}

// ObfuscatedClassName returns the vanilla name of a deobfuscated class.
func (r *Resolver) ObfuscatedClassName(cf *classfile.ClassFile) string {
	if n, ok := r.Vocab.ObfuscatedNameOf(cf.Annotations); ok {
		return n
	}
	return cf.Name
}

// Class resolves a deobfuscated class by exact obfuscated name.
func (r *Resolver) Class(cf *classfile.ClassFile) (*classfile.ClassFile, error) {
	if v, ok := r.classes[cf]; ok {
		return v, nil
	}
	name := r.ObfuscatedClassName(cf)
	v := r.Vanilla.FindClass(name)
	if v == nil {
		return nil, &ConfigurationError{Symbol: cf.Name, Obfuscated: name, Reason: "no vanilla class"}
	}
	if prev, ok := r.classOwner[v]; ok && prev != cf {
		return nil, &ConfigurationError{Symbol: cf.Name, Obfuscated: name, Reason: "vanilla class already mapped from " + prev.Name}
	}
	r.classes[cf] = v
	r.classOwner[v] = cf
	return v, nil
}

// Field resolves a deobfuscated field. The name selects candidates and the
// vanilla-side type must match. Fields inherited from supertypes are found
// through deep lookup.
func (r *Resolver) Field(f *classfile.Field) (*classfile.Field, error) {
	if v, ok := r.fields[f]; ok {
		return v, nil
	}
	owner, err := r.Class(f.Owner)
	if err != nil {
		return nil, err
	}
	name := f.Name
	if n, ok := r.Vocab.ObfuscatedNameOf(f.Annotations); ok {
		name = n
	}
	typ := r.fieldType(f)

	var v *classfile.Field
	switch cands := owner.FieldsNamed(name); len(cands) {
	case 0:
		v = owner.FindFieldDeep(name, typ)
	case 1:
		if cands[0].Type != typ {
			return nil, &ConfigurationError{Symbol: f.String(), Obfuscated: cands[0].String(), Reason: "vanilla field has type " + string(cands[0].Type) + ", want " + string(typ)}
		}
		v = cands[0]
	default:
		for _, c := range cands {
			if c.Type == typ {
				v = c
				break
			}
		}
	}
	if v == nil {
		return nil, &ConfigurationError{Symbol: f.String(), Obfuscated: owner.Name + "." + name, Reason: "no vanilla field of type " + string(typ)}
	}
	if prev, ok := r.fieldOwner[v]; ok && prev != f {
		return nil, &ConfigurationError{Symbol: f.String(), Obfuscated: v.String(), Reason: "vanilla field already mapped from " + prev.String()}
	}
	r.fields[f] = v
	r.fieldOwner[v] = f
	return v, nil
}

// Method resolves a deobfuscated method, like Field, using the
// vanilla-side descriptor as the secondary key.
func (r *Resolver) Method(m *classfile.Method) (*classfile.Method, error) {
	if v, ok := r.methods[m]; ok {
		return v, nil
	}
	owner, err := r.Class(m.Owner)
	if err != nil {
		return nil, err
	}
	name := m.Name
	if n, ok := r.Vocab.ObfuscatedNameOf(m.Annotations); ok {
		name = n
	}
	desc := r.Vocab.MethodDesc(m)

	var v *classfile.Method
	switch cands := owner.MethodsNamed(name); len(cands) {
	case 0:
		v = owner.FindMethodDeep(name, desc)
	case 1:
		v = cands[0]
	default:
		for _, c := range cands {
			if c.Desc == desc {
				v = c
				break
			}
		}
	}
	if v == nil {
		return nil, &ConfigurationError{Symbol: m.String(), Obfuscated: owner.Name + "." + name + desc, Reason: "no vanilla method"}
	}
	if prev, ok := r.methodOwner[v]; ok && prev != m {
		return nil, &ConfigurationError{Symbol: m.String(), Obfuscated: v.String(), Reason: "vanilla method already mapped from " + prev.String()}
	}
	r.methods[m] = v
	r.methodOwner[v] = m
	return v, nil
}

// fieldType is the type f must have in vanilla: the @ObfuscatedSignature
// descriptor, else its own type renamed into the vanilla group.
func (r *Resolver) fieldType(f *classfile.Field) jvmfmt.Type {
	if _, ok := r.Vocab.SignatureOf(f.Annotations); ok {
		return r.Vocab.FieldType(f)
	}
	return r.TypeOf(f.Owner.Group, f.Type)
}

// TypeOf maps a deobfuscated descriptor to vanilla by renaming class
// components that belong to the deobfuscated group. Types outside the
// group are returned unchanged.
func (r *Resolver) TypeOf(deob *classfile.ClassGroup, t jvmfmt.Type) jvmfmt.Type {
	elem := t.ElementType()
	if !elem.IsReference() || deob == nil {
		return t
	}
	cf := deob.FindClass(elem.InternalName())
	if cf == nil {
		return t
	}
	return jvmfmt.ObjectType(r.ObfuscatedClassName(cf)).ArrayOf(t.Dimensions())
}

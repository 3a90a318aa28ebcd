// Package classfile is a mutable in-memory model of JVM class files that
// reads and writes them with byte-for-byte fidelity for untouched parts.
package classfile

import (
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// ClassGroup is an ordered set of class files indexed by internal name.
type ClassGroup struct {
	classes []*ClassFile
	byName  map[string]*ClassFile
}

// NewClassGroup returns an empty group.
func NewClassGroup() *ClassGroup {
	return &ClassGroup{byName: make(map[string]*ClassFile)}
}

// Add inserts cf. Class names are unique within a group.
func (g *ClassGroup) Add(cf *ClassFile) error {
	if _, dup := g.byName[cf.Name]; dup {
		return errors.Errorf("classfile: duplicate class %s", cf.Name)
	}
	cf.Group = g
	g.classes = append(g.classes, cf)
	g.byName[cf.Name] = cf
	return nil
}

// FindClass returns the class with the given internal name, or nil.
func (g *ClassGroup) FindClass(name string) *ClassFile {
	return g.byName[name]
}

// Classes returns the classes in insertion order.
func (g *ClassGroup) Classes() []*ClassFile { return g.classes }

// Len returns the number of classes.
func (g *ClassGroup) Len() int { return len(g.classes) }

// ClassFile is one parsed class.
type ClassFile struct {
	Group *ClassGroup

	Minor, Major uint16
	Access       jvmfmt.AccessFlags
	Name         string
	SuperName    string // "" for java/lang/Object
	Fields       []*Field
	Methods      []*Method
	Annotations  Annotations
	Attributes   []Attribute
	Pool         *jvmfmt.Pool

	interfaces *linkedhashset.Set // of string, in declaration order
	nameIdx    uint16
	superIdx   uint16
	ifaceIdx   map[string]uint16
}

// New returns an empty public class extending superName, using Java 8
// class file version numbers.
func New(name, superName string) *ClassFile {
	return &ClassFile{
		Major:      52,
		Access:     jvmfmt.AccPublic | jvmfmt.AccSuper,
		Name:       name,
		SuperName:  superName,
		Pool:       jvmfmt.NewPool(),
		interfaces: linkedhashset.New(),
		ifaceIdx:   make(map[string]uint16),
	}
}

func (c *ClassFile) String() string { return c.Name }

// Type returns the object descriptor of the class.
func (c *ClassFile) Type() jvmfmt.Type { return jvmfmt.ObjectType(c.Name) }

// Interfaces returns the implemented interface names in declaration order.
func (c *ClassFile) Interfaces() []string {
	vals := c.interfaces.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.(string)
	}
	return out
}

// Implements reports whether the class directly lists iface.
func (c *ClassFile) Implements(iface string) bool {
	return c.interfaces.Contains(iface)
}

// AddInterface adds iface to the implemented set. It reports false when
// the class already implements it.
func (c *ClassFile) AddInterface(iface string) bool {
	if c.interfaces.Contains(iface) {
		return false
	}
	c.interfaces.Add(iface)
	return true
}

// Super returns the superclass when it is part of the same group.
func (c *ClassFile) Super() *ClassFile {
	if c.Group == nil || c.SuperName == "" {
		return nil
	}
	return c.Group.FindClass(c.SuperName)
}

// FindField returns the field declared here with the given name and, when
// typ is non-empty, descriptor.
func (c *ClassFile) FindField(name string, typ jvmfmt.Type) *Field {
	for _, f := range c.Fields {
		if f.Name == name && (typ == "" || f.Type == typ) {
			return f
		}
	}
	return nil
}

// FindMethod returns the method declared here with the given name and, when
// desc is non-empty, descriptor.
func (c *ClassFile) FindMethod(name, desc string) *Method {
	for _, m := range c.Methods {
		if m.Name == name && (desc == "" || m.Desc == desc) {
			return m
		}
	}
	return nil
}

// FieldsNamed returns every field declared here called name.
func (c *ClassFile) FieldsNamed(name string) []*Field {
	var out []*Field
	for _, f := range c.Fields {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// MethodsNamed returns every method declared here called name.
func (c *ClassFile) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FindFieldDeep looks the field up here, up the superclass chain, then in
// the superinterfaces, staying inside the group.
func (c *ClassFile) FindFieldDeep(name string, typ jvmfmt.Type) *Field {
	var found *Field
	c.walkSupertypes(func(k *ClassFile) bool {
		found = k.FindField(name, typ)
		return found != nil
	})
	return found
}

// FindMethodDeep looks the method up here, up the superclass chain, then in
// the superinterfaces, staying inside the group.
func (c *ClassFile) FindMethodDeep(name, desc string) *Method {
	var found *Method
	c.walkSupertypes(func(k *ClassFile) bool {
		found = k.FindMethod(name, desc)
		return found != nil
	})
	return found
}

// walkSupertypes visits c, its superclasses and then every reachable
// interface once, until visit returns true.
func (c *ClassFile) walkSupertypes(visit func(*ClassFile) bool) {
	seen := map[string]bool{}
	var ifaces []string
	for k := c; k != nil && !seen[k.Name]; k = k.Super() {
		seen[k.Name] = true
		if visit(k) {
			return
		}
		ifaces = append(ifaces, k.Interfaces()...)
	}
	for len(ifaces) > 0 {
		name := ifaces[0]
		ifaces = ifaces[1:]
		if seen[name] || c.Group == nil {
			continue
		}
		seen[name] = true
		k := c.Group.FindClass(name)
		if k == nil {
			continue
		}
		if visit(k) {
			return
		}
		ifaces = append(ifaces, k.Interfaces()...)
	}
}

// Supertypes returns the names of c, its superclasses and every reachable
// interface, each once. Supertypes outside the group are listed but not
// expanded.
func (c *ClassFile) Supertypes() []string {
	var out []string
	seen := map[string]bool{}
	note := func(name string) bool {
		if name == "" || seen[name] {
			return false
		}
		seen[name] = true
		out = append(out, name)
		return true
	}
	var ifaces []string
	k := c
	for k != nil && note(k.Name) {
		ifaces = append(ifaces, k.Interfaces()...)
		if k.Super() == nil {
			note(k.SuperName)
		}
		k = k.Super()
	}
	for len(ifaces) > 0 {
		name := ifaces[0]
		ifaces = ifaces[1:]
		if !note(name) || c.Group == nil {
			continue
		}
		if i := c.Group.FindClass(name); i != nil {
			ifaces = append(ifaces, i.Interfaces()...)
		}
	}
	return out
}

// AddField appends a new field.
func (c *ClassFile) AddField(access jvmfmt.AccessFlags, name string, typ jvmfmt.Type) *Field {
	f := &Field{Owner: c, Access: access, Name: name, Type: typ}
	c.Fields = append(c.Fields, f)
	return f
}

// AddMethod appends a new method. Concrete methods get an empty Code.
func (c *ClassFile) AddMethod(access jvmfmt.AccessFlags, name, desc string) (*Method, error) {
	if _, err := jvmfmt.ParseSignature(desc); err != nil {
		return nil, err
	}
	if c.FindMethod(name, desc) != nil {
		return nil, errors.Errorf("classfile: %s.%s%s already exists", c.Name, name, desc)
	}
	m := &Method{Owner: c, Access: access, Name: name, Desc: desc}
	if !access.IsAbstract() && !access.IsNative() {
		m.Code = NewCode(m)
	}
	c.Methods = append(c.Methods, m)
	return m, nil
}

// Field is a class field.
type Field struct {
	Owner       *ClassFile
	Access      jvmfmt.AccessFlags
	Name        string
	Type        jvmfmt.Type
	Annotations Annotations
	Attributes  []Attribute

	nameIdx, descIdx uint16
}

func (f *Field) String() string { return f.Owner.Name + "." + f.Name }

// IsStatic reports whether the field is static.
func (f *Field) IsStatic() bool { return f.Access.IsStatic() }

// Ref returns the pool reference to the field.
func (f *Field) Ref() jvmfmt.FieldRef {
	return jvmfmt.FieldRef{Class: f.Owner.Name, Name: f.Name, Type: f.Type}
}

// Method is a class method.
type Method struct {
	Owner       *ClassFile
	Access      jvmfmt.AccessFlags
	Name        string
	Desc        string
	Code        *Code
	Annotations Annotations
	Attributes  []Attribute // includes the raw Code attribute of parsed methods

	nameIdx, descIdx uint16
}

func (m *Method) String() string { return m.Owner.Name + "." + m.Name + m.Desc }

// IsStatic reports whether the method is static.
func (m *Method) IsStatic() bool { return m.Access.IsStatic() }

// Signature parses the descriptor.
func (m *Method) Signature() jvmfmt.Signature {
	sig, err := jvmfmt.ParseSignature(m.Desc)
	if err != nil {
		return jvmfmt.Signature{Return: jvmfmt.Void}
	}
	return sig
}

// Ref returns the pool reference used to invoke the method.
func (m *Method) Ref() jvmfmt.Entry {
	if m.Owner.Access.IsInterface() {
		return jvmfmt.InterfaceMethodRef{Class: m.Owner.Name, Name: m.Name, Desc: m.Desc}
	}
	return jvmfmt.MethodRef{Class: m.Owner.Name, Name: m.Name, Desc: m.Desc}
}

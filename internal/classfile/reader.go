package classfile

import (
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// Parse reads a class file.
func Parse(data []byte) (*ClassFile, error) {
	s := jvmfmt.NewStream(data)
	magic, err := s.ReadUint32()
	if err != nil {
		return nil, err
	}
	if magic != jvmfmt.Magic {
		return nil, errors.Errorf("classfile: bad magic 0x%08x", magic)
	}
	c := &ClassFile{
		interfaces: linkedhashset.New(),
		ifaceIdx:   make(map[string]uint16),
	}
	if c.Minor, err = s.ReadUint16(); err != nil {
		return nil, err
	}
	if c.Major, err = s.ReadUint16(); err != nil {
		return nil, err
	}
	if c.Pool, err = jvmfmt.ReadPool(s); err != nil {
		return nil, errors.Wrap(err, "constant pool")
	}
	access, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	c.Access = jvmfmt.AccessFlags(access)
	if c.nameIdx, err = s.ReadUint16(); err != nil {
		return nil, err
	}
	if c.Name, err = c.Pool.ClassName(c.nameIdx); err != nil {
		return nil, errors.Wrap(err, "this_class")
	}
	if c.superIdx, err = s.ReadUint16(); err != nil {
		return nil, err
	}
	if c.superIdx != 0 {
		if c.SuperName, err = c.Pool.ClassName(c.superIdx); err != nil {
			return nil, errors.Wrap(err, "super_class")
		}
	}

	n, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		idx, err := s.ReadUint16()
		if err != nil {
			return nil, err
		}
		name, err := c.Pool.ClassName(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: interface %d", c.Name, i)
		}
		c.interfaces.Add(name)
		c.ifaceIdx[name] = idx
	}

	if n, err = s.ReadUint16(); err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		f, err := c.readField(s)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: field %d", c.Name, i)
		}
		c.Fields = append(c.Fields, f)
	}

	if n, err = s.ReadUint16(); err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		m, err := c.readMethod(s)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: method %d", c.Name, i)
		}
		c.Methods = append(c.Methods, m)
	}

	if c.Attributes, err = readAttributes(s, c.Pool); err != nil {
		return nil, errors.Wrapf(err, "%s: attributes", c.Name)
	}
	if c.Annotations, err = annotationsOf(c.Attributes, c.Pool); err != nil {
		return nil, errors.Wrapf(err, "%s: annotations", c.Name)
	}
	if s.Remaining() != 0 {
		return nil, errors.Errorf("classfile: %s: %d trailing bytes", c.Name, s.Remaining())
	}
	return c, nil
}

func (c *ClassFile) readMember(s *jvmfmt.Stream) (access jvmfmt.AccessFlags, name, desc string, nameIdx, descIdx uint16, attrs []Attribute, err error) {
	a, err := s.ReadUint16()
	if err != nil {
		return
	}
	access = jvmfmt.AccessFlags(a)
	if nameIdx, err = s.ReadUint16(); err != nil {
		return
	}
	if name, err = c.Pool.Utf8(nameIdx); err != nil {
		return
	}
	if descIdx, err = s.ReadUint16(); err != nil {
		return
	}
	if desc, err = c.Pool.Utf8(descIdx); err != nil {
		return
	}
	attrs, err = readAttributes(s, c.Pool)
	return
}

func (c *ClassFile) readField(s *jvmfmt.Stream) (*Field, error) {
	access, name, desc, ni, di, attrs, err := c.readMember(s)
	if err != nil {
		return nil, err
	}
	typ, err := jvmfmt.ParseType(desc)
	if err != nil {
		return nil, err
	}
	f := &Field{Owner: c, Access: access, Name: name, Type: typ, Attributes: attrs, nameIdx: ni, descIdx: di}
	if f.Annotations, err = annotationsOf(attrs, c.Pool); err != nil {
		return nil, errors.Wrapf(err, "field %s", name)
	}
	return f, nil
}

func (c *ClassFile) readMethod(s *jvmfmt.Stream) (*Method, error) {
	access, name, desc, ni, di, attrs, err := c.readMember(s)
	if err != nil {
		return nil, err
	}
	if _, err := jvmfmt.ParseSignature(desc); err != nil {
		return nil, err
	}
	m := &Method{Owner: c, Access: access, Name: name, Desc: desc, Attributes: attrs, nameIdx: ni, descIdx: di}
	if m.Annotations, err = annotationsOf(attrs, c.Pool); err != nil {
		return nil, errors.Wrapf(err, "method %s%s", name, desc)
	}
	for _, a := range attrs {
		if a.Name == attrCode {
			if m.Code, err = parseCode(m, a.Data, c.Pool); err != nil {
				return nil, errors.Wrapf(err, "method %s%s: code", name, desc)
			}
			break
		}
	}
	return m, nil
}

func readAttributes(s *jvmfmt.Stream, pool *jvmfmt.Pool) ([]Attribute, error) {
	n, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, n)
	for i := 0; i < int(n); i++ {
		ni, err := s.ReadUint16()
		if err != nil {
			return nil, err
		}
		name, err := pool.Utf8(ni)
		if err != nil {
			return nil, err
		}
		size, err := s.ReadUint32()
		if err != nil {
			return nil, err
		}
		data, err := s.ReadBytes(int(size))
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", name)
		}
		attrs = append(attrs, Attribute{NameIndex: ni, Name: name, Data: data})
	}
	return attrs, nil
}

func annotationsOf(attrs []Attribute, pool *jvmfmt.Pool) (Annotations, error) {
	for _, a := range attrs {
		if a.Name == attrRuntimeVisibleAnnots {
			return parseAnnotations(a.Data, pool)
		}
	}
	return nil, nil
}

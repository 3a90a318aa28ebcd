package classfile

import (
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// Bytes serializes the class.
func (c *ClassFile) Bytes() ([]byte, error) {
	return c.Encode(nil)
}

// Encode serializes the class. Untouched members and attributes are written
// from their original bytes with their original pool indices. Attributes
// dropped by code reassembly are reported to diags when non-nil.
func (c *ClassFile) Encode(diags *jvmfmt.Diags) ([]byte, error) {
	if c.Pool == nil {
		c.Pool = jvmfmt.NewPool()
	}
	// The body is encoded first because it may add pool entries.
	body := jvmfmt.NewWriter()
	body.U16(uint16(c.Access))
	this, err := c.Pool.ClassIndex(c.nameIdx, c.Name)
	if err != nil {
		return nil, err
	}
	body.U16(this)
	var super uint16
	if c.SuperName != "" {
		if super, err = c.Pool.ClassIndex(c.superIdx, c.SuperName); err != nil {
			return nil, err
		}
	}
	body.U16(super)

	ifaces := c.Interfaces()
	body.U16(uint16(len(ifaces)))
	for _, name := range ifaces {
		idx, err := c.Pool.ClassIndex(c.ifaceIdx[name], name)
		if err != nil {
			return nil, err
		}
		body.U16(idx)
	}

	body.U16(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		if err := c.writeMember(body, f.Access, f.Name, string(f.Type), f.nameIdx, f.descIdx, f.Attributes, f.Annotations, nil); err != nil {
			return nil, errors.Wrapf(err, "field %s", f)
		}
	}

	body.U16(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		var code []byte
		if m.Code != nil {
			if code, err = m.Code.encode(c.Pool, diags); err != nil {
				return nil, errors.Wrapf(err, "method %s", m)
			}
		}
		if err := c.writeMember(body, m.Access, m.Name, m.Desc, m.nameIdx, m.descIdx, m.Attributes, m.Annotations, code); err != nil {
			return nil, errors.Wrapf(err, "method %s", m)
		}
	}

	attrs, err := withAnnotations(c.Attributes, c.Annotations, c.Pool)
	if err != nil {
		return nil, err
	}
	if err := writeAttributes(body, attrs, c.Pool); err != nil {
		return nil, err
	}

	w := jvmfmt.NewWriter()
	w.U32(jvmfmt.Magic)
	w.U16(c.Minor)
	w.U16(c.Major)
	if err := c.Pool.Write(w); err != nil {
		return nil, err
	}
	w.Write(body.Bytes())
	return w.Bytes(), nil
}

// writeMember writes a field or method. code, when non-nil, replaces the
// Code attribute or is appended for methods that had none.
func (c *ClassFile) writeMember(w *jvmfmt.Writer, access jvmfmt.AccessFlags, name, desc string, nameIdx, descIdx uint16, attrs []Attribute, annots Annotations, code []byte) error {
	ni, err := c.Pool.Utf8Index(nameIdx, name)
	if err != nil {
		return err
	}
	di, err := c.Pool.Utf8Index(descIdx, desc)
	if err != nil {
		return err
	}
	w.U16(uint16(access))
	w.U16(ni)
	w.U16(di)

	out := make([]Attribute, 0, len(attrs)+1)
	hasCode := false
	for _, a := range attrs {
		if a.Name == attrCode {
			if code == nil {
				continue
			}
			a.Data = code
			hasCode = true
		}
		out = append(out, a)
	}
	if code != nil && !hasCode {
		out = append(out, Attribute{Name: attrCode, Data: code})
	}
	if out, err = withAnnotations(out, annots, c.Pool); err != nil {
		return err
	}
	return writeAttributes(w, out, c.Pool)
}

// withAnnotations appends an encoded RuntimeVisibleAnnotations attribute for
// annotations that were set programmatically on an element without one.
func withAnnotations(attrs []Attribute, annots Annotations, pool *jvmfmt.Pool) ([]Attribute, error) {
	if len(annots) == 0 {
		return attrs, nil
	}
	for _, a := range attrs {
		if a.Name == attrRuntimeVisibleAnnots {
			return attrs, nil
		}
	}
	data, err := encodeAnnotations(annots, pool)
	if err != nil {
		return nil, err
	}
	return append(attrs[:len(attrs):len(attrs)], Attribute{Name: attrRuntimeVisibleAnnots, Data: data}), nil
}

func writeAttributes(w *jvmfmt.Writer, attrs []Attribute, pool *jvmfmt.Pool) error {
	w.U16(uint16(len(attrs)))
	for _, a := range attrs {
		ni, err := pool.Utf8Index(a.NameIndex, a.Name)
		if err != nil {
			return err
		}
		w.U16(ni)
		w.U32(uint32(len(a.Data)))
		w.Write(a.Data)
	}
	return nil
}

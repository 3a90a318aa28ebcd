package classfile

import (
	"github.com/pkg/errors"

	"deobinject/internal/jvmfmt"
)

// Attribute is an attribute kept as raw bytes. NameIndex is the original
// pool index of the name, reused on write when still valid.
type Attribute struct {
	NameIndex uint16
	Name      string
	Data      []byte
}

const (
	attrCode                   = "Code"
	attrRuntimeVisibleAnnots   = "RuntimeVisibleAnnotations"
	attrLineNumberTable        = "LineNumberTable"
	attrLocalVariableTable     = "LocalVariableTable"
	attrLocalVariableTypeTable = "LocalVariableTypeTable"
	attrStackMapTable          = "StackMapTable"
)

// Element value tags.
const (
	TagEnum       byte = 'e'
	TagClass      byte = 'c'
	TagAnnotation byte = '@'
	TagArray      byte = '['
	TagString     byte = 's'
)

// ElementValue is one annotation element value. Tag selects the field in use:
// a constant tag (B C D F I J S Z s) uses Const, 'e' uses EnumType/EnumName,
// 'c' uses Class, '@' uses Nested, '[' uses Array.
type ElementValue struct {
	Tag      byte
	Const    jvmfmt.Entry
	EnumType string
	EnumName string
	Class    string
	Nested   *Annotation
	Array    []ElementValue
}

// StringValue returns a string constant.
func (v ElementValue) StringValue() (string, bool) {
	if u, ok := v.Const.(jvmfmt.Utf8Info); ok && v.Tag == TagString {
		return u.Value, true
	}
	return "", false
}

// IntValue returns an int-like constant (B C I S).
func (v ElementValue) IntValue() (int32, bool) {
	if i, ok := v.Const.(jvmfmt.IntegerInfo); ok && v.Tag != 'Z' {
		return i.Value, true
	}
	return 0, false
}

// LongValue returns a long constant.
func (v ElementValue) LongValue() (int64, bool) {
	if l, ok := v.Const.(jvmfmt.LongInfo); ok {
		return l.Value, true
	}
	return 0, false
}

// BoolValue returns a boolean constant.
func (v ElementValue) BoolValue() (bool, bool) {
	if i, ok := v.Const.(jvmfmt.IntegerInfo); ok && v.Tag == 'Z' {
		return i.Value != 0, true
	}
	return false, false
}

// StringElem, IntElem, LongElem and BoolElem build constant element values.
func StringElem(s string) ElementValue {
	return ElementValue{Tag: TagString, Const: jvmfmt.Utf8Info{Value: s}}
}

func IntElem(v int32) ElementValue {
	return ElementValue{Tag: 'I', Const: jvmfmt.IntegerInfo{Value: v}}
}

func LongElem(v int64) ElementValue {
	return ElementValue{Tag: 'J', Const: jvmfmt.LongInfo{Value: v}}
}

func BoolElem(b bool) ElementValue {
	v := int32(0)
	if b {
		v = 1
	}
	return ElementValue{Tag: 'Z', Const: jvmfmt.IntegerInfo{Value: v}}
}

// Element is a named annotation element.
type Element struct {
	Name  string
	Value ElementValue
}

// Annotation is one parsed runtime-visible annotation.
type Annotation struct {
	Type     jvmfmt.Type
	Elements []Element
}

// Value returns the element called name.
func (a *Annotation) Value(name string) (ElementValue, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return ElementValue{}, false
}

// Annotations is the ordered annotation list of a class or member.
type Annotations []*Annotation

// Find returns the annotation of the given type descriptor, or nil.
func (as Annotations) Find(t jvmfmt.Type) *Annotation {
	for _, a := range as {
		if a.Type == t {
			return a
		}
	}
	return nil
}

func parseAnnotations(data []byte, pool *jvmfmt.Pool) (Annotations, error) {
	s := jvmfmt.NewStream(data)
	n, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	out := make(Annotations, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := parseAnnotation(s, pool)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func parseAnnotation(s *jvmfmt.Stream, pool *jvmfmt.Pool) (*Annotation, error) {
	ti, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	typ, err := pool.Utf8(ti)
	if err != nil {
		return nil, err
	}
	n, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	a := &Annotation{Type: jvmfmt.Type(typ)}
	for i := 0; i < int(n); i++ {
		ni, err := s.ReadUint16()
		if err != nil {
			return nil, err
		}
		name, err := pool.Utf8(ni)
		if err != nil {
			return nil, err
		}
		v, err := parseElementValue(s, pool)
		if err != nil {
			return nil, errors.Wrapf(err, "annotation %s element %s", typ, name)
		}
		a.Elements = append(a.Elements, Element{Name: name, Value: v})
	}
	return a, nil
}

func parseElementValue(s *jvmfmt.Stream, pool *jvmfmt.Pool) (ElementValue, error) {
	tag, err := s.ReadUint8()
	if err != nil {
		return ElementValue{}, err
	}
	v := ElementValue{Tag: tag}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', TagString:
		idx, err := s.ReadUint16()
		if err != nil {
			return v, err
		}
		if v.Const, err = pool.Get(idx); err != nil {
			return v, err
		}
	case TagEnum:
		ti, err := s.ReadUint16()
		if err != nil {
			return v, err
		}
		ni, err := s.ReadUint16()
		if err != nil {
			return v, err
		}
		if v.EnumType, err = pool.Utf8(ti); err != nil {
			return v, err
		}
		if v.EnumName, err = pool.Utf8(ni); err != nil {
			return v, err
		}
	case TagClass:
		idx, err := s.ReadUint16()
		if err != nil {
			return v, err
		}
		if v.Class, err = pool.Utf8(idx); err != nil {
			return v, err
		}
	case TagAnnotation:
		if v.Nested, err = parseAnnotation(s, pool); err != nil {
			return v, err
		}
	case TagArray:
		n, err := s.ReadUint16()
		if err != nil {
			return v, err
		}
		for i := 0; i < int(n); i++ {
			e, err := parseElementValue(s, pool)
			if err != nil {
				return v, err
			}
			v.Array = append(v.Array, e)
		}
	default:
		return v, errors.Errorf("unknown element value tag %q", tag)
	}
	return v, nil
}

// encodeAnnotations serializes annotations, interning names into pool.
func encodeAnnotations(as Annotations, pool *jvmfmt.Pool) ([]byte, error) {
	w := jvmfmt.NewWriter()
	w.U16(uint16(len(as)))
	for _, a := range as {
		if err := encodeAnnotation(w, a, pool); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func encodeAnnotation(w *jvmfmt.Writer, a *Annotation, pool *jvmfmt.Pool) error {
	ti, err := pool.Add(jvmfmt.Utf8Info{Value: string(a.Type)})
	if err != nil {
		return err
	}
	w.U16(ti)
	w.U16(uint16(len(a.Elements)))
	for _, e := range a.Elements {
		ni, err := pool.Add(jvmfmt.Utf8Info{Value: e.Name})
		if err != nil {
			return err
		}
		w.U16(ni)
		if err := encodeElementValue(w, e.Value, pool); err != nil {
			return err
		}
	}
	return nil
}

func encodeElementValue(w *jvmfmt.Writer, v ElementValue, pool *jvmfmt.Pool) error {
	utf := func(s string) error {
		i, err := pool.Add(jvmfmt.Utf8Info{Value: s})
		w.U16(i)
		return err
	}
	w.U8(v.Tag)
	switch v.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', TagString:
		i, err := pool.Add(v.Const)
		if err != nil {
			return err
		}
		w.U16(i)
	case TagEnum:
		if err := utf(v.EnumType); err != nil {
			return err
		}
		return utf(v.EnumName)
	case TagClass:
		return utf(v.Class)
	case TagAnnotation:
		return encodeAnnotation(w, v.Nested, pool)
	case TagArray:
		w.U16(uint16(len(v.Array)))
		for _, e := range v.Array {
			if err := encodeElementValue(w, e, pool); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("unknown element value tag %q", v.Tag)
	}
	return nil
}

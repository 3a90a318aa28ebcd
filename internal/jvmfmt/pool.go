package jvmfmt

import (
	"fmt"
	"math"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// Entry is an immutable constant pool value. Entries are comparable and
// are deduplicated by value.
type Entry interface {
	Tag() Tag
}

type Utf8Info struct{ Value string }
type IntegerInfo struct{ Value int32 }
type LongInfo struct{ Value int64 }

// FloatInfo and DoubleInfo carry raw IEEE bits so NaN payloads survive and
// the structs stay usable as map keys.
type FloatInfo struct{ Bits uint32 }
type DoubleInfo struct{ Bits uint64 }

type ClassInfo struct{ Name string }
type StringInfo struct{ Value string }

type FieldRef struct {
	Class string
	Name  string
	Type  Type
}

type MethodRef struct {
	Class string
	Name  string
	Desc  string
}

type InterfaceMethodRef struct {
	Class string
	Name  string
	Desc  string
}

type NameAndType struct {
	Name string
	Desc string
}

type MethodHandle struct {
	Kind uint8
	Ref  Entry
}

type MethodType struct{ Desc string }

type Dynamic struct {
	Bootstrap uint16
	Name      string
	Desc      string
}

type InvokeDynamic struct {
	Bootstrap uint16
	Name      string
	Desc      string
}

type ModuleInfo struct{ Name string }
type PackageInfo struct{ Name string }

func (Utf8Info) Tag() Tag           { return TagUtf8 }
func (IntegerInfo) Tag() Tag        { return TagInteger }
func (FloatInfo) Tag() Tag          { return TagFloat }
func (LongInfo) Tag() Tag           { return TagLong }
func (DoubleInfo) Tag() Tag         { return TagDouble }
func (ClassInfo) Tag() Tag          { return TagClass }
func (StringInfo) Tag() Tag         { return TagString }
func (FieldRef) Tag() Tag           { return TagFieldref }
func (MethodRef) Tag() Tag          { return TagMethodref }
func (InterfaceMethodRef) Tag() Tag { return TagInterfaceMethodref }
func (NameAndType) Tag() Tag        { return TagNameAndType }
func (MethodHandle) Tag() Tag       { return TagMethodHandle }
func (MethodType) Tag() Tag         { return TagMethodType }
func (Dynamic) Tag() Tag            { return TagDynamic }
func (InvokeDynamic) Tag() Tag      { return TagInvokeDynamic }
func (ModuleInfo) Tag() Tag         { return TagModule }
func (PackageInfo) Tag() Tag        { return TagPackage }

// Float32 returns a float pool entry.
func Float32(f float32) FloatInfo { return FloatInfo{Bits: math.Float32bits(f)} }

// Float64 returns a double pool entry.
func Float64(f float64) DoubleInfo { return DoubleInfo{Bits: math.Float64bits(f)} }

func (f FloatInfo) Value() float32  { return math.Float32frombits(f.Bits) }
func (d DoubleInfo) Value() float64 { return math.Float64frombits(d.Bits) }

// Signature parses the method descriptor of the reference.
func (m MethodRef) Signature() (Signature, error) { return ParseSignature(m.Desc) }

// Signature parses the method descriptor of the reference.
func (m InterfaceMethodRef) Signature() (Signature, error) { return ParseSignature(m.Desc) }

// IsWide reports whether e takes two pool slots.
func IsWide(e Entry) bool {
	switch e.(type) {
	case LongInfo, DoubleInfo:
		return true
	}
	return false
}

// Pool is a class file constant pool. Entries parsed from a class file keep
// their original record bytes so an untouched pool is written back
// byte-for-byte, even when the input contains duplicate entries.
type Pool struct {
	slots []Entry
	raw   [][]byte
	index map[Entry]uint16
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		slots: []Entry{nil},
		raw:   [][]byte{nil},
		index: make(map[Entry]uint16),
	}
}

// Count returns constant_pool_count (number of slots including slot 0).
func (p *Pool) Count() int { return len(p.slots) }

// Get returns the entry at index i.
func (p *Pool) Get(i uint16) (Entry, error) {
	if i == 0 || int(i) >= len(p.slots) || p.slots[i] == nil {
		return nil, fmt.Errorf("pool: invalid index %d", i)
	}
	return p.slots[i], nil
}

// Utf8 returns the string at index i.
func (p *Pool) Utf8(i uint16) (string, error) {
	e, err := p.Get(i)
	if err != nil {
		return "", err
	}
	u, ok := e.(Utf8Info)
	if !ok {
		return "", fmt.Errorf("pool: index %d is tag %d, want Utf8", i, e.Tag())
	}
	return u.Value, nil
}

// ClassName returns the class name at index i.
func (p *Pool) ClassName(i uint16) (string, error) {
	e, err := p.Get(i)
	if err != nil {
		return "", err
	}
	c, ok := e.(ClassInfo)
	if !ok {
		return "", fmt.Errorf("pool: index %d is tag %d, want Class", i, e.Tag())
	}
	return c.Name, nil
}

// Find returns the index of e if present.
func (p *Pool) Find(e Entry) (uint16, bool) {
	i, ok := p.index[e]
	return i, ok
}

// Utf8Index returns orig when it still holds s, otherwise the index of s,
// adding it if needed. Used by writers to keep original indices stable.
func (p *Pool) Utf8Index(orig uint16, s string) (uint16, error) {
	if orig != 0 {
		if v, err := p.Utf8(orig); err == nil && v == s {
			return orig, nil
		}
	}
	return p.Add(Utf8Info{Value: s})
}

// ClassIndex is Utf8Index for CONSTANT_Class entries.
func (p *Pool) ClassIndex(orig uint16, name string) (uint16, error) {
	if orig != 0 {
		if v, err := p.ClassName(orig); err == nil && v == name {
			return orig, nil
		}
	}
	return p.Add(ClassInfo{Name: name})
}

// Add returns the index of e, appending it and its dependencies when absent.
func (p *Pool) Add(e Entry) (uint16, error) {
	if i, ok := p.index[e]; ok {
		return i, nil
	}
	if err := p.addDeps(e); err != nil {
		return 0, err
	}
	need := 1
	if IsWide(e) {
		need = 2
	}
	if len(p.slots)+need > math.MaxUint16 {
		return 0, fmt.Errorf("pool: constant pool overflow adding %T", e)
	}
	i := uint16(len(p.slots))
	p.slots = append(p.slots, e)
	p.raw = append(p.raw, nil)
	if need == 2 {
		p.slots = append(p.slots, nil)
		p.raw = append(p.raw, nil)
	}
	p.index[e] = i
	return i, nil
}

func (p *Pool) addDeps(e Entry) error {
	var deps []Entry
	switch v := e.(type) {
	case ClassInfo:
		deps = []Entry{Utf8Info{v.Name}}
	case StringInfo:
		deps = []Entry{Utf8Info{v.Value}}
	case FieldRef:
		deps = []Entry{ClassInfo{v.Class}, NameAndType{v.Name, string(v.Type)}}
	case MethodRef:
		deps = []Entry{ClassInfo{v.Class}, NameAndType{v.Name, v.Desc}}
	case InterfaceMethodRef:
		deps = []Entry{ClassInfo{v.Class}, NameAndType{v.Name, v.Desc}}
	case NameAndType:
		deps = []Entry{Utf8Info{v.Name}, Utf8Info{v.Desc}}
	case MethodHandle:
		deps = []Entry{v.Ref}
	case MethodType:
		deps = []Entry{Utf8Info{v.Desc}}
	case Dynamic:
		deps = []Entry{NameAndType{v.Name, v.Desc}}
	case InvokeDynamic:
		deps = []Entry{NameAndType{v.Name, v.Desc}}
	case ModuleInfo:
		deps = []Entry{Utf8Info{v.Name}}
	case PackageInfo:
		deps = []Entry{Utf8Info{v.Name}}
	}
	for _, d := range deps {
		if _, err := p.Add(d); err != nil {
			return err
		}
	}
	return nil
}

type rawRecord struct {
	tag  Tag
	data []byte
	a, b uint16 // index operands, when the tag has them
}

// ReadPool reads constant_pool_count and the pool entries.
func ReadPool(s *Stream) (*Pool, error) {
	count, err := s.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("pool: count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("pool: zero constant_pool_count")
	}

	recs := make([]*rawRecord, count)
	for i := 1; i < int(count); i++ {
		tb, err := s.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("pool: entry %d: %w", i, err)
		}
		start := s.Position()
		rec := &rawRecord{tag: Tag(tb)}
		switch rec.tag {
		case TagUtf8:
			n, err := s.ReadUint16()
			if err == nil {
				err = s.Skip(int(n))
			}
			if err != nil {
				return nil, fmt.Errorf("pool: utf8 %d: %w", i, err)
			}
		case TagInteger, TagFloat:
			err = s.Skip(4)
		case TagLong, TagDouble:
			err = s.Skip(8)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			rec.a, err = s.ReadUint16()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			if rec.a, err = s.ReadUint16(); err == nil {
				rec.b, err = s.ReadUint16()
			}
		case TagMethodHandle:
			var kind uint8
			if kind, err = s.ReadUint8(); err == nil {
				rec.a = uint16(kind)
				rec.b, err = s.ReadUint16()
			}
		default:
			return nil, fmt.Errorf("pool: entry %d has unknown tag %d", i, tb)
		}
		if err != nil {
			return nil, fmt.Errorf("pool: entry %d: %w", i, err)
		}
		rec.data = append([]byte(nil), s.data[start:s.Position()]...)
		recs[i] = rec
		if rec.tag == TagLong || rec.tag == TagDouble {
			i++
		}
	}

	p := &Pool{
		slots: make([]Entry, count),
		raw:   make([][]byte, count),
		index: make(map[Entry]uint16, count),
	}
	resolving := make([]bool, count)
	var resolve func(i uint16) (Entry, error)
	resolve = func(i uint16) (Entry, error) {
		if int(i) >= len(recs) || recs[i] == nil {
			return nil, fmt.Errorf("pool: reference to invalid index %d", i)
		}
		if p.slots[i] != nil {
			return p.slots[i], nil
		}
		if resolving[i] {
			return nil, fmt.Errorf("pool: circular reference at index %d", i)
		}
		resolving[i] = true
		e, err := decodeRecord(recs[i], resolve)
		if err != nil {
			return nil, err
		}
		p.slots[i] = e
		p.raw[i] = recs[i].data
		return e, nil
	}
	for i := 1; i < int(count); i++ {
		if recs[i] == nil {
			continue
		}
		e, err := resolve(uint16(i))
		if err != nil {
			return nil, err
		}
		if _, dup := p.index[e]; !dup {
			p.index[e] = uint16(i)
		}
	}
	return p, nil
}

func decodeRecord(r *rawRecord, resolve func(uint16) (Entry, error)) (Entry, error) {
	utf := func(i uint16) (string, error) {
		e, err := resolve(i)
		if err != nil {
			return "", err
		}
		u, ok := e.(Utf8Info)
		if !ok {
			return "", fmt.Errorf("pool: index %d is not Utf8", i)
		}
		return u.Value, nil
	}
	class := func(i uint16) (string, error) {
		e, err := resolve(i)
		if err != nil {
			return "", err
		}
		c, ok := e.(ClassInfo)
		if !ok {
			return "", fmt.Errorf("pool: index %d is not Class", i)
		}
		return c.Name, nil
	}
	nat := func(i uint16) (NameAndType, error) {
		e, err := resolve(i)
		if err != nil {
			return NameAndType{}, err
		}
		n, ok := e.(NameAndType)
		if !ok {
			return NameAndType{}, fmt.Errorf("pool: index %d is not NameAndType", i)
		}
		return n, nil
	}
	s := NewStream(r.data)

	switch r.tag {
	case TagUtf8:
		v, err := s.ReadUTF()
		return Utf8Info{v}, err
	case TagInteger:
		v, err := s.ReadInt32()
		return IntegerInfo{v}, err
	case TagFloat:
		v, err := s.ReadUint32()
		return FloatInfo{v}, err
	case TagLong:
		v, err := s.ReadUint64()
		return LongInfo{int64(v)}, err
	case TagDouble:
		v, err := s.ReadUint64()
		return DoubleInfo{v}, err
	case TagClass:
		n, err := utf(r.a)
		return ClassInfo{n}, err
	case TagString:
		n, err := utf(r.a)
		return StringInfo{n}, err
	case TagMethodType:
		n, err := utf(r.a)
		return MethodType{n}, err
	case TagModule:
		n, err := utf(r.a)
		return ModuleInfo{n}, err
	case TagPackage:
		n, err := utf(r.a)
		return PackageInfo{n}, err
	case TagNameAndType:
		name, err := utf(r.a)
		if err != nil {
			return nil, err
		}
		desc, err := utf(r.b)
		return NameAndType{name, desc}, err
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		c, err := class(r.a)
		if err != nil {
			return nil, err
		}
		n, err := nat(r.b)
		if err != nil {
			return nil, err
		}
		switch r.tag {
		case TagFieldref:
			return FieldRef{c, n.Name, Type(n.Desc)}, nil
		case TagMethodref:
			return MethodRef{c, n.Name, n.Desc}, nil
		}
		return InterfaceMethodRef{c, n.Name, n.Desc}, nil
	case TagDynamic, TagInvokeDynamic:
		n, err := nat(r.b)
		if err != nil {
			return nil, err
		}
		if r.tag == TagDynamic {
			return Dynamic{r.a, n.Name, n.Desc}, nil
		}
		return InvokeDynamic{r.a, n.Name, n.Desc}, nil
	case TagMethodHandle:
		ref, err := resolve(r.b)
		if err != nil {
			return nil, err
		}
		return MethodHandle{uint8(r.a), ref}, nil
	}
	return nil, fmt.Errorf("pool: unknown tag %d", r.tag)
}

// Write emits constant_pool_count followed by every entry.
func (p *Pool) Write(w *Writer) error {
	w.U16(uint16(len(p.slots)))
	for i := 1; i < len(p.slots); i++ {
		e := p.slots[i]
		if e == nil {
			continue // second slot of a long/double
		}
		w.U8(uint8(e.Tag()))
		if p.raw[i] != nil {
			w.Write(p.raw[i])
			continue
		}
		if err := p.encode(w, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) encode(w *Writer, e Entry) error {
	idx := func(d Entry) uint16 {
		i, _ := p.Find(d)
		return i
	}
	switch v := e.(type) {
	case Utf8Info:
		return w.UTF(v.Value)
	case IntegerInfo:
		w.U32(uint32(v.Value))
	case FloatInfo:
		w.U32(v.Bits)
	case LongInfo:
		w.U64(uint64(v.Value))
	case DoubleInfo:
		w.U64(v.Bits)
	case ClassInfo:
		w.U16(idx(Utf8Info{v.Name}))
	case StringInfo:
		w.U16(idx(Utf8Info{v.Value}))
	case MethodType:
		w.U16(idx(Utf8Info{v.Desc}))
	case ModuleInfo:
		w.U16(idx(Utf8Info{v.Name}))
	case PackageInfo:
		w.U16(idx(Utf8Info{v.Name}))
	case NameAndType:
		w.U16(idx(Utf8Info{v.Name}))
		w.U16(idx(Utf8Info{v.Desc}))
	case FieldRef:
		w.U16(idx(ClassInfo{v.Class}))
		w.U16(idx(NameAndType{v.Name, string(v.Type)}))
	case MethodRef:
		w.U16(idx(ClassInfo{v.Class}))
		w.U16(idx(NameAndType{v.Name, v.Desc}))
	case InterfaceMethodRef:
		w.U16(idx(ClassInfo{v.Class}))
		w.U16(idx(NameAndType{v.Name, v.Desc}))
	case Dynamic:
		w.U16(v.Bootstrap)
		w.U16(idx(NameAndType{v.Name, v.Desc}))
	case InvokeDynamic:
		w.U16(v.Bootstrap)
		w.U16(idx(NameAndType{v.Name, v.Desc}))
	case MethodHandle:
		w.U8(v.Kind)
		w.U16(idx(v.Ref))
	default:
		return fmt.Errorf("pool: cannot encode %T", e)
	}
	return nil
}

package classfile

import (
	"slices"

	"github.com/pkg/errors"

	"deobinject/internal/bytecode"
	"deobinject/internal/jvmfmt"
)

// Code is a parsed Code attribute.
type Code struct {
	Method       *Method
	MaxStack     int
	MaxLocals    int
	Instructions *bytecode.Instructions
	Attributes   []Attribute // LineNumberTable, StackMapTable, ...

	raw          []byte
	origVersion  int
	origStack    int
	origLocals   int
	origHandlers []bytecode.Handler
}

// pc-dependent attributes that are dropped when parsed code is reassembled.
var pcAttributes = map[string]bool{
	attrLineNumberTable:        true,
	attrLocalVariableTable:     true,
	attrLocalVariableTypeTable: true,
	attrStackMapTable:          true,
}

// NewCode returns an empty body for m with MaxLocals covering the receiver
// and arguments.
func NewCode(m *Method) *Code {
	locals := m.Signature().ArgSlots()
	if !m.IsStatic() {
		locals++
	}
	return &Code{
		Method:       m,
		MaxLocals:    locals,
		Instructions: bytecode.NewInstructions(),
	}
}

// Modified reports whether the body differs from what was parsed. Fresh
// bodies are always modified.
func (c *Code) Modified() bool {
	return c.raw == nil ||
		c.Instructions.Version() != c.origVersion ||
		c.MaxStack != c.origStack ||
		c.MaxLocals != c.origLocals ||
		!slices.Equal(c.Instructions.Handlers, c.origHandlers)
}

func parseCode(m *Method, data []byte, pool *jvmfmt.Pool) (*Code, error) {
	s := jvmfmt.NewStream(data)
	maxStack, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	n, err := s.ReadUint32()
	if err != nil {
		return nil, err
	}
	code, err := s.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	ins, pcs, err := bytecode.Decode(code, pool)
	if err != nil {
		return nil, err
	}

	ne, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ne); i++ {
		var raw [4]uint16
		for j := range raw {
			if raw[j], err = s.ReadUint16(); err != nil {
				return nil, err
			}
		}
		h := bytecode.Handler{}
		if h.Start, err = pcs.Handle(int(raw[0]), len(code)); err != nil {
			return nil, errors.Wrap(err, "exception start")
		}
		if h.End, err = pcs.Handle(int(raw[1]), len(code)); err != nil {
			return nil, errors.Wrap(err, "exception end")
		}
		if h.Handler, err = pcs.Handle(int(raw[2]), len(code)); err != nil {
			return nil, errors.Wrap(err, "exception handler")
		}
		if h.Start == bytecode.NoHandle || h.Handler == bytecode.NoHandle {
			return nil, errors.Errorf("classfile: exception entry %d points past the code", i)
		}
		if raw[3] != 0 {
			if h.CatchType, err = pool.ClassName(raw[3]); err != nil {
				return nil, err
			}
		}
		ins.Handlers = append(ins.Handlers, h)
	}

	attrs, err := readAttributes(s, pool)
	if err != nil {
		return nil, err
	}
	return &Code{
		Method:       m,
		MaxStack:     int(maxStack),
		MaxLocals:    int(maxLocals),
		Instructions: ins,
		Attributes:   attrs,
		raw:          data,
		origVersion:  ins.Version(),
		origStack:    int(maxStack),
		origLocals:   int(maxLocals),
		origHandlers: slices.Clone(ins.Handlers),
	}, nil
}

// encode returns the Code attribute body, reusing the parsed bytes when
// nothing changed.
func (c *Code) encode(pool *jvmfmt.Pool, diags *jvmfmt.Diags) ([]byte, error) {
	if !c.Modified() {
		return c.raw, nil
	}
	asm, err := bytecode.Assemble(c.Instructions, pool)
	if err != nil {
		return nil, err
	}
	if c.MaxStack > 0xffff || c.MaxLocals > 0xffff {
		return nil, errors.Errorf("classfile: max stack %d / locals %d out of range", c.MaxStack, c.MaxLocals)
	}
	w := jvmfmt.NewWriter()
	w.U16(uint16(c.MaxStack))
	w.U16(uint16(c.MaxLocals))
	w.U32(uint32(len(asm.Code)))
	w.Write(asm.Code)

	w.U16(uint16(len(c.Instructions.Handlers)))
	for _, h := range c.Instructions.Handlers {
		for _, x := range []bytecode.Handle{h.Start, h.End, h.Handler} {
			pc, ok := asm.PC(x)
			if !ok {
				return nil, errors.Errorf("classfile: exception entry references removed instruction %d", x)
			}
			w.U16(uint16(pc))
		}
		var ct uint16
		if h.CatchType != "" {
			if ct, err = pool.Add(jvmfmt.ClassInfo{Name: h.CatchType}); err != nil {
				return nil, err
			}
		}
		w.U16(ct)
	}

	var kept []Attribute
	for _, a := range c.Attributes {
		if pcAttributes[a.Name] && c.raw != nil {
			if diags != nil {
				diags.Addf(c.Method.String(), jvmfmt.DiagDroppedAttr, "dropped %s after reassembly", a.Name)
			}
			continue
		}
		kept = append(kept, a)
	}
	if err := writeAttributes(w, kept, pool); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

package jvmfmt

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Type is a JVM field descriptor ("I", "Ljava/lang/String;", "[[J").
// The two pseudo types Null and ReturnAddress only ever appear on the
// symbolic operand stack.
type Type string

const (
	Void    Type = "V"
	Boolean Type = "Z"
	Byte    Type = "B"
	Char    Type = "C"
	Short   Type = "S"
	Int     Type = "I"
	Long    Type = "J"
	Float   Type = "F"
	Double  Type = "D"

	Null          Type = "null"
	ReturnAddress Type = "returnAddress"

	Object    Type = "Ljava/lang/Object;"
	String    Type = "Ljava/lang/String;"
	Class     Type = "Ljava/lang/Class;"
	Throwable Type = "Ljava/lang/Throwable;"
)

// ObjectType returns the descriptor of a class given its internal name.
// Array class names ("[I") are already descriptors and are returned as is.
func ObjectType(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type(internalName)
	}
	return Type("L" + internalName + ";")
}

// ParseType validates a single field descriptor.
func ParseType(desc string) (Type, error) {
	n, err := typeLen(desc, 0)
	if err != nil {
		return "", err
	}
	if n != len(desc) {
		return "", fmt.Errorf("descriptor: trailing data in %q", desc)
	}
	return Type(desc), nil
}

// typeLen returns the length of the field descriptor starting at off.
func typeLen(desc string, off int) (int, error) {
	i := off
	for i < len(desc) && desc[i] == '[' {
		i++
	}
	if i >= len(desc) {
		return 0, fmt.Errorf("descriptor: truncated type in %q", desc)
	}
	switch desc[i] {
	case 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D':
		return i + 1 - off, nil
	case 'V':
		if i != off {
			return 0, fmt.Errorf("descriptor: array of void in %q", desc)
		}
		return 1, nil
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end <= 1 {
			return 0, fmt.Errorf("descriptor: unterminated class name in %q", desc)
		}
		return i + end + 1 - off, nil
	}
	return 0, fmt.Errorf("descriptor: bad type %q in %q", desc[i], desc)
}

func (t Type) String() string { return string(t) }

// Dimensions returns the number of array dimensions.
func (t Type) Dimensions() int {
	n := 0
	for n < len(t) && t[n] == '[' {
		n++
	}
	return n
}

// IsArray reports whether t has at least one array dimension.
func (t Type) IsArray() bool { return t.Dimensions() > 0 }

// ElementType strips every array dimension.
func (t Type) ElementType() Type { return t[t.Dimensions():] }

// ComponentType strips one array dimension.
func (t Type) ComponentType() Type {
	if !t.IsArray() {
		return t
	}
	return t[1:]
}

// ArrayOf adds dims array dimensions.
func (t Type) ArrayOf(dims int) Type {
	return Type(strings.Repeat("[", dims)) + t
}

// IsPrimitive reports whether t is a primitive or void, ignoring dimensions.
// Combine with Dimensions() == 0 for scalar primitives.
func (t Type) IsPrimitive() bool {
	e := t.ElementType()
	if len(e) != 1 {
		return false
	}
	return strings.IndexByte("ZBCSIJFDV", e[0]) >= 0
}

// IsReference reports whether values of t are references.
func (t Type) IsReference() bool {
	return t == Null || t.IsArray() || strings.HasPrefix(string(t), "L")
}

// InternalName returns the class name of the element type ("Lfoo/Bar;" and
// "[[Lfoo/Bar;" both give "foo/Bar"). Primitives give "".
func (t Type) InternalName() string {
	e := t.ElementType()
	if len(e) > 2 && e[0] == 'L' && e[len(e)-1] == ';' {
		return string(e[1 : len(e)-1])
	}
	return ""
}

// ClassRef returns the name used by CONSTANT_Class for this type: the
// internal name for classes, the full descriptor for arrays.
func (t Type) ClassRef() string {
	if t.IsArray() {
		return string(t)
	}
	return t.InternalName()
}

// Slots returns the number of local variable / stack slots the type takes.
func (t Type) Slots() int {
	switch t {
	case Void:
		return 0
	case Long, Double:
		return 2
	}
	return 1
}

// StackType maps sub-int primitives to int, which is how the operand
// stack and local variables carry them.
func (t Type) StackType() Type {
	switch t {
	case Boolean, Byte, Char, Short:
		return Int
	}
	return t
}

// Signature is a parsed method descriptor.
type Signature struct {
	Args   []Type
	Return Type
}

var signatureCache, _ = lru.New[string, Signature](4096)

// ParseSignature parses a method descriptor such as "(IJ[Ljava/lang/String;)V".
func ParseSignature(desc string) (Signature, error) {
	if sig, ok := signatureCache.Get(desc); ok {
		return sig.clone(), nil
	}
	if len(desc) < 3 || desc[0] != '(' {
		return Signature{}, fmt.Errorf("descriptor: bad method descriptor %q", desc)
	}
	var sig Signature
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n, err := typeLen(desc, i)
		if err != nil {
			return Signature{}, err
		}
		if desc[i] == 'V' {
			return Signature{}, fmt.Errorf("descriptor: void argument in %q", desc)
		}
		sig.Args = append(sig.Args, Type(desc[i:i+n]))
		i += n
	}
	if i >= len(desc) {
		return Signature{}, fmt.Errorf("descriptor: missing ')' in %q", desc)
	}
	ret, err := ParseType(desc[i+1:])
	if err != nil {
		return Signature{}, err
	}
	sig.Return = ret
	signatureCache.Add(desc, sig.clone())
	return sig, nil
}

// MustSignature is ParseSignature for descriptors known to be valid.
func MustSignature(desc string) Signature {
	sig, err := ParseSignature(desc)
	if err != nil {
		panic(err)
	}
	return sig
}

func (s Signature) clone() Signature {
	out := Signature{Return: s.Return}
	if len(s.Args) > 0 {
		out.Args = append([]Type(nil), s.Args...)
	}
	return out
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range s.Args {
		b.WriteString(string(a))
	}
	b.WriteByte(')')
	b.WriteString(string(s.Return))
	return b.String()
}

// ArgSlots returns the local variable slots taken by the arguments,
// excluding the receiver.
func (s Signature) ArgSlots() int {
	n := 0
	for _, a := range s.Args {
		n += a.Slots()
	}
	return n
}

// Equal compares two signatures.
func (s Signature) Equal(o Signature) bool {
	if s.Return != o.Return || len(s.Args) != len(o.Args) {
		return false
	}
	for i := range s.Args {
		if s.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

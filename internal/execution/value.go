// Package execution symbolically executes method bodies, tracking the types
// and, where statically known, the constant values that flow through the
// operand stack and local variables.
package execution

import (
	"fmt"

	"deobinject/internal/bytecode"
	"deobinject/internal/jvmfmt"
)

// Value is a statically typed value. Const is set when the value is a known
// constant (IntegerInfo, LongInfo, FloatInfo, DoubleInfo, StringInfo,
// ClassInfo). Ret is the continuation of a ReturnAddress pushed by jsr.
type Value struct {
	Type  jvmfmt.Type
	Const jvmfmt.Entry
	Ret   bytecode.Handle
}

// Unknown returns a value of type t with no known constant. Sub-int
// primitives are widened to int.
func Unknown(t jvmfmt.Type) Value {
	return Value{Type: t.StackType(), Ret: bytecode.NoHandle}
}

// Constant returns the value of a loadable pool constant.
func Constant(e jvmfmt.Entry) Value {
	v := Value{Const: e, Ret: bytecode.NoHandle}
	switch c := e.(type) {
	case jvmfmt.IntegerInfo:
		v.Type = jvmfmt.Int
	case jvmfmt.LongInfo:
		v.Type = jvmfmt.Long
	case jvmfmt.FloatInfo:
		v.Type = jvmfmt.Float
	case jvmfmt.DoubleInfo:
		v.Type = jvmfmt.Double
	case jvmfmt.StringInfo:
		v.Type = jvmfmt.String
	case jvmfmt.ClassInfo:
		v.Type = jvmfmt.Class
	case jvmfmt.MethodType:
		v.Type, v.Const = "Ljava/lang/invoke/MethodType;", nil
	case jvmfmt.MethodHandle:
		v.Type, v.Const = "Ljava/lang/invoke/MethodHandle;", nil
	case jvmfmt.Dynamic:
		v.Type, v.Const = jvmfmt.Type(c.Desc).StackType(), nil
	default:
		v.Type, v.Const = jvmfmt.Object, nil
	}
	return v
}

// IntValue returns an int32 value.
func IntValue(i int32) Value { return Constant(jvmfmt.IntegerInfo{Value: i}) }

// LongValue returns an int64 value.
func LongValue(i int64) Value { return Constant(jvmfmt.LongInfo{Value: i}) }

// IsConstant reports whether the value is statically known.
func (v Value) IsConstant() bool { return v.Const != nil }

// Int returns the known int constant.
func (v Value) Int() (int32, bool) {
	c, ok := v.Const.(jvmfmt.IntegerInfo)
	return c.Value, ok
}

// Long returns the known long constant.
func (v Value) Long() (int64, bool) {
	c, ok := v.Const.(jvmfmt.LongInfo)
	return c.Value, ok
}

// Float returns the known float constant.
func (v Value) Float() (float32, bool) {
	c, ok := v.Const.(jvmfmt.FloatInfo)
	return c.Value(), ok
}

// Double returns the known double constant.
func (v Value) Double() (float64, bool) {
	c, ok := v.Const.(jvmfmt.DoubleInfo)
	return c.Value(), ok
}

// Slots returns the stack/local slots taken by the value.
func (v Value) Slots() int { return v.Type.Slots() }

func (v Value) String() string {
	if v.Const != nil {
		return fmt.Sprintf("%s(%s)", v.Type, bytecode.EntryString(v.Const))
	}
	return string(v.Type)
}

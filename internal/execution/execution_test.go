package execution

import (
	"errors"
	"math"
	"testing"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

func newMethod(t *testing.T, access jvmfmt.AccessFlags, desc string, insns ...bytecode.Instruction) *classfile.Method {
	t.Helper()
	c := classfile.New("t", "java/lang/Object")
	g := classfile.NewClassGroup()
	if err := g.Add(c); err != nil {
		t.Fatal(err)
	}
	c.AddField(jvmfmt.AccStatic, "x", jvmfmt.Int)
	c.AddField(0, "y", jvmfmt.Long)
	m, err := c.AddMethod(access, "m", desc)
	if err != nil {
		t.Fatal(err)
	}
	for _, ins := range insns {
		m.Code.Instructions.Add(ins)
	}
	return m
}

func simple(ops ...bytecode.Opcode) []bytecode.Instruction {
	out := make([]bytecode.Instruction, len(ops))
	for i, op := range ops {
		out[i] = bytecode.Simple(op)
	}
	return out
}

func TestConstantRoundTrip(t *testing.T) {
	tests := []bytecode.Instruction{
		bytecode.Simple(bytecode.IconstM1),
		bytecode.Simple(bytecode.Iconst5),
		bytecode.Simple(bytecode.Lconst1),
		bytecode.Simple(bytecode.Fconst2),
		bytecode.Simple(bytecode.Dconst1),
		bytecode.PushInt(-100),
		bytecode.PushInt(30000),
		bytecode.LDC(jvmfmt.IntegerInfo{Value: math.MinInt32}),
		bytecode.LDC(jvmfmt.LongInfo{Value: math.MaxInt64}),
		bytecode.LDC(jvmfmt.Float32(1.5)),
		bytecode.LDC(jvmfmt.Float64(-2.25)),
		bytecode.LDC(jvmfmt.StringInfo{Value: "hi"}),
	}
	for _, ins := range tests {
		t.Run(ins.Op.String(), func(t *testing.T) {
			want, ok := ins.Constant()
			if !ok {
				t.Fatal("no constant")
			}
			discard := bytecode.Simple(bytecode.Pop)
			if jvmfmt.IsWide(want) {
				discard = bytecode.Simple(bytecode.Pop2)
			}
			m := newMethod(t, jvmfmt.AccStatic, "()V", ins, discard, bytecode.Simple(bytecode.Return))
			e := New()
			if err := e.Run(m); err != nil {
				t.Fatal(err)
			}
			ctxs := e.Contexts(m.Code.Instructions.At(0))
			if len(ctxs) != 1 {
				t.Fatalf("contexts = %d, want 1", len(ctxs))
			}
			if got := ctxs[0].Push().Value.Const; got != want {
				t.Errorf("pushed %v, want %v", got, want)
			}
		})
	}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		name  string
		insns []bytecode.Instruction
		want  Value
	}{
		{"imul", []bytecode.Instruction{bytecode.PushInt(2), bytecode.PushInt(3), bytecode.Simple(bytecode.Imul)}, IntValue(6)},
		{"isub", []bytecode.Instruction{bytecode.PushInt(2), bytecode.PushInt(3), bytecode.Simple(bytecode.Isub)}, IntValue(-1)},
		{"iushr", []bytecode.Instruction{bytecode.PushInt(-1), bytecode.PushInt(28), bytecode.Simple(bytecode.Iushr)}, IntValue(15)},
		{"idiv overflow", []bytecode.Instruction{bytecode.LDC(jvmfmt.IntegerInfo{Value: math.MinInt32}), bytecode.PushInt(-1), bytecode.Simple(bytecode.Idiv)}, IntValue(math.MinInt32)},
		{"idiv by zero", []bytecode.Instruction{bytecode.PushInt(1), bytecode.PushInt(0), bytecode.Simple(bytecode.Idiv)}, Unknown(jvmfmt.Int)},
		{"ineg", []bytecode.Instruction{bytecode.PushInt(7), bytecode.Simple(bytecode.Ineg)}, IntValue(-7)},
		{"i2b", []bytecode.Instruction{bytecode.PushInt(200), bytecode.Simple(bytecode.I2b)}, IntValue(-56)},
		{"i2c", []bytecode.Instruction{bytecode.PushInt(-1), bytecode.Simple(bytecode.I2c)}, IntValue(65535)},
		{"lmul", []bytecode.Instruction{bytecode.LDC(jvmfmt.LongInfo{Value: 1 << 40}), bytecode.LDC(jvmfmt.LongInfo{Value: 3}), bytecode.Simple(bytecode.Lmul)}, LongValue(3 << 40)},
		{"lshl", []bytecode.Instruction{bytecode.Simple(bytecode.Lconst1), bytecode.PushInt(65), bytecode.Simple(bytecode.Lshl)}, LongValue(2)},
		{"l2i", []bytecode.Instruction{bytecode.LDC(jvmfmt.LongInfo{Value: 1<<32 + 5}), bytecode.Simple(bytecode.L2i)}, IntValue(5)},
		{"lcmp", []bytecode.Instruction{bytecode.Simple(bytecode.Lconst0), bytecode.Simple(bytecode.Lconst1), bytecode.Simple(bytecode.Lcmp)}, IntValue(-1)},
		{"f2i nan", []bytecode.Instruction{bytecode.LDC(jvmfmt.Float32(float32(math.NaN()))), bytecode.Simple(bytecode.F2i)}, IntValue(0)},
		{"d2l saturates", []bytecode.Instruction{bytecode.LDC(jvmfmt.Float64(1e300)), bytecode.Simple(bytecode.D2l)}, LongValue(math.MaxInt64)},
		{"fcmpg nan", []bytecode.Instruction{bytecode.LDC(jvmfmt.Float32(float32(math.NaN()))), bytecode.Simple(bytecode.Fconst0), bytecode.Simple(bytecode.Fcmpg)}, IntValue(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discard := bytecode.Simple(bytecode.Pop)
			if tt.want.Slots() == 2 {
				discard = bytecode.Simple(bytecode.Pop2)
			}
			insns := append(tt.insns, discard, bytecode.Simple(bytecode.Return))
			m := newMethod(t, jvmfmt.AccStatic, "()V", insns...)
			e := New()
			if err := e.Run(m); err != nil {
				t.Fatal(err)
			}
			last := m.Code.Instructions.At(len(tt.insns) - 1)
			got := e.Contexts(last)[0].Push().Value
			if got.Type != tt.want.Type || got.Const != tt.want.Const {
				t.Errorf("folded %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInverseByFolding(t *testing.T) {
	// 3 * 0xaaaaaaab == 1 mod 2^32
	for _, x := range []int32{0, 1, -1, math.MinInt32, math.MaxInt32, 123456} {
		m := newMethod(t, jvmfmt.AccStatic, "()I",
			bytecode.LDC(jvmfmt.IntegerInfo{Value: x}),
			bytecode.PushInt(3),
			bytecode.Simple(bytecode.Imul),
			bytecode.LDC(jvmfmt.IntegerInfo{Value: -1431655765}),
			bytecode.Simple(bytecode.Imul),
			bytecode.Simple(bytecode.Ireturn),
		)
		e := New()
		if err := e.Run(m); err != nil {
			t.Fatal(err)
		}
		got, ok := e.Contexts(m.Code.Instructions.At(4))[0].Push().Value.Int()
		if !ok || got != x {
			t.Errorf("x=%d: folded %d (known %v)", x, got, ok)
		}
	}
}

func TestBranchesAndLoops(t *testing.T) {
	m := newMethod(t, jvmfmt.AccStatic, "(I)I", simple(bytecode.Iload0, bytecode.Ifeq, bytecode.Iconst1, bytecode.Ireturn, bytecode.Iconst0, bytecode.Ireturn)...)
	l := m.Code.Instructions
	l.Get(l.At(1)).Target = l.At(4)
	e := New()
	if err := e.Run(m); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < l.Len(); i++ {
		if len(e.Contexts(l.At(i))) != 1 {
			t.Errorf("instruction %d executed %d times, want 1", i, len(e.Contexts(l.At(i))))
		}
	}

	// i = 0; for (;;) i++;
	loop := newMethod(t, jvmfmt.AccStatic, "()V", simple(bytecode.Iconst0, bytecode.Istore0, bytecode.Iinc, bytecode.Goto)...)
	ll := loop.Code.Instructions
	ll.Get(ll.At(2)).Int = 1
	ll.Get(ll.At(3)).Target = ll.At(2)
	e = New()
	if err := e.Run(loop); err != nil {
		t.Fatal(err)
	}
	if n := len(e.Contexts(ll.At(2))); n != 1 {
		t.Errorf("loop body executed %d times, want 1", n)
	}
}

func TestHandlersAreFollowed(t *testing.T) {
	m := newMethod(t, jvmfmt.AccStatic, "()V", simple(bytecode.Nop, bytecode.Return, bytecode.Astore0, bytecode.Return)...)
	l := m.Code.Instructions
	l.Handlers = []bytecode.Handler{{Start: l.At(0), End: l.At(1), Handler: l.At(2), CatchType: "java/io/IOException"}}
	e := New()
	if err := e.Run(m); err != nil {
		t.Fatal(err)
	}
	ctxs := e.Contexts(l.At(2))
	if len(ctxs) != 1 {
		t.Fatalf("handler executed %d times, want 1", len(ctxs))
	}
	if got := ctxs[0].Pop(0).Value.Type; got != "Ljava/io/IOException;" {
		t.Errorf("caught %s", got)
	}
}

func TestInvariantViolation(t *testing.T) {
	tests := []struct {
		name  string
		insns []bytecode.Instruction
	}{
		{"category", simple(bytecode.Iconst1, bytecode.Lconst0, bytecode.Ladd, bytecode.Return)},
		{"empty", simple(bytecode.Pop, bytecode.Return)},
		{"unset local", simple(bytecode.Iload3, bytecode.Return)},
		{"falls off", simple(bytecode.Nop)},
		{"return type", simple(bytecode.Iconst0, bytecode.Ireturn)},
	}
	for _, tt := range tests {
		m := newMethod(t, jvmfmt.AccStatic, "()V", tt.insns...)
		err := New().Run(m)
		var ie *InvariantError
		if !errors.As(err, &ie) {
			t.Errorf("%s: err = %v, want InvariantError", tt.name, err)
		}
	}
}

func TestMaxStack(t *testing.T) {
	tests := []struct {
		name  string
		desc  string
		insns []bytecode.Instruction
		want  int
	}{
		{"longs", "()V", simple(bytecode.Lconst0, bytecode.Lconst1, bytecode.Ladd, bytecode.Pop2, bytecode.Return), 4},
		{"dup2 long", "()V", simple(bytecode.Lconst0, bytecode.Dup2, bytecode.Pop2, bytecode.Pop2, bytecode.Return), 4},
		{"getter", "()J", []bytecode.Instruction{
			bytecode.Simple(bytecode.Aload0),
			bytecode.WithRef(bytecode.Getfield, jvmfmt.FieldRef{Class: "t", Name: "y", Type: jvmfmt.Long}),
			bytecode.LDC(jvmfmt.LongInfo{Value: 5}),
			bytecode.Simple(bytecode.Lmul),
			bytecode.Simple(bytecode.Lreturn),
		}, 4},
	}
	for _, tt := range tests {
		var access jvmfmt.AccessFlags = jvmfmt.AccStatic
		if tt.name == "getter" {
			access = jvmfmt.AccPublic
		}
		m := newMethod(t, access, tt.desc, tt.insns...)
		got, err := MaxStack(m)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: max stack = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMultipliers(t *testing.T) {
	x := jvmfmt.FieldRef{Class: "t", Name: "x", Type: jvmfmt.Int}
	m := newMethod(t, jvmfmt.AccStatic, "()I",
		bytecode.WithRef(bytecode.Getstatic, x),
		bytecode.LDC(jvmfmt.IntegerInfo{Value: 1234567}),
		bytecode.Simple(bytecode.Imul),
		bytecode.LDC(jvmfmt.IntegerInfo{Value: -99}),
		bytecode.WithRef(bytecode.Getstatic, x),
		bytecode.Simple(bytecode.Imul),
		bytecode.Simple(bytecode.Iadd),
		bytecode.Simple(bytecode.Ireturn),
	)
	field := m.Owner.FindField("x", jvmfmt.Int)
	got, err := Multipliers(m, field)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Value != 1234567 || got[1].Value != -99 {
		t.Errorf("multipliers = %+v, want 1234567 and -99", got)
	}
	other := m.Owner.FindField("y", jvmfmt.Long)
	if got, _ := Multipliers(m, other); len(got) != 0 {
		t.Errorf("multipliers of y = %+v, want none", got)
	}
}

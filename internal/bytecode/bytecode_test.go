package bytecode

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"deobinject/internal/jvmfmt"
)

// if (a) return 1; return 0;
var ifCode = []byte{
	0x1b,             // iload_1
	0x99, 0x00, 0x05, // ifeq +5
	0x04, // iconst_1
	0xac, // ireturn
	0x03, // iconst_0
	0xac, // ireturn
}

// switch (a) { case 0: return 1; case 1: return 2; default: return 0; }
var switchCode = []byte{
	0x1b,       // iload_1
	0xaa,       // tableswitch
	0x00, 0x00, // padding
	0x00, 0x00, 0x00, 0x1b, // default +27
	0x00, 0x00, 0x00, 0x00, // low 0
	0x00, 0x00, 0x00, 0x01, // high 1
	0x00, 0x00, 0x00, 0x17, // +23
	0x00, 0x00, 0x00, 0x19, // +25
	0x04, 0xac, // iconst_1; ireturn
	0x05, 0xac, // iconst_2; ireturn
	0x03, 0xac, // iconst_0; ireturn
}

func TestDecodeAssembleRoundTrip(t *testing.T) {
	pool := jvmfmt.NewPool()
	if _, err := pool.Add(jvmfmt.IntegerInfo{Value: 123456}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		code []byte
		n    int
	}{
		{"branch", ifCode, 6},
		{"tableswitch", switchCode, 8},
		{"ldc", []byte{0x12, 0x01, 0xac}, 2},
		{"wide iinc", []byte{0xc4, 0x84, 0x01, 0x00, 0x03, 0xe8, 0xb1}, 2},
		{"lookupswitch", []byte{
			0xab, 0x00, 0x00, 0x00, // lookupswitch + padding
			0x00, 0x00, 0x00, 0x14, // default +20
			0x00, 0x00, 0x00, 0x01, // 1 pair
			0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x14, // 7: +20
			0xb1, // return
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, err := Decode(tt.code, pool)
			if err != nil {
				t.Fatal(err)
			}
			if l.Len() != tt.n {
				t.Fatalf("decoded %d instructions, want %d", l.Len(), tt.n)
			}
			out, err := Assemble(l, pool)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(out.Code, tt.code) {
				t.Errorf("assembled % x\nwant      % x", out.Code, tt.code)
			}
		})
	}
}

func TestDecodeOperands(t *testing.T) {
	l, pcs, err := Decode(ifCode, jvmfmt.NewPool())
	if err != nil {
		t.Fatal(err)
	}
	br := l.Get(pcs[1])
	if br.Op != Ifeq {
		t.Fatalf("op = %s, want ifeq", br.Op)
	}
	if br.Target != pcs[6] {
		t.Errorf("target = %d, want handle of offset 6 (%d)", br.Target, pcs[6])
	}
	if h, err := pcs.Handle(len(ifCode), len(ifCode)); err != nil || h != NoHandle {
		t.Errorf("end offset = %d, %v; want NoHandle", h, err)
	}
	if _, err := pcs.Handle(2, len(ifCode)); err == nil {
		t.Error("mid-instruction offset resolved")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"truncated", []byte{0x11, 0x01}},
		{"bad opcode", []byte{0xfe}},
		{"bad target", []byte{0xa7, 0x00, 0x02, 0x00}},
		{"bad pool index", []byte{0x12, 0x09}},
	}
	for _, tt := range tests {
		if _, _, err := Decode(tt.code, jvmfmt.NewPool()); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestAssembleGotoPromotion(t *testing.T) {
	l := NewInstructions()
	g := l.Add(Simple(Goto))
	for i := 0; i < 40000; i++ {
		l.Add(Simple(Nop))
	}
	end := l.Add(Simple(Return))
	l.Get(g).Target = end

	out, err := Assemble(l, jvmfmt.NewPool())
	if err != nil {
		t.Fatal(err)
	}
	if Opcode(out.Code[0]) != GotoW {
		t.Errorf("first opcode = %s, want goto_w", Opcode(out.Code[0]))
	}
	if pc, _ := out.PC(end); pc != 5+40000 {
		t.Errorf("return at %d, want %d", pc, 5+40000)
	}
}

func TestAssembleLongBranchFails(t *testing.T) {
	l := NewInstructions()
	br := l.Add(Simple(Ifeq))
	for i := 0; i < 40000; i++ {
		l.Add(Simple(Nop))
	}
	end := l.Add(Simple(Return))
	l.Get(br).Target = end
	if _, err := Assemble(l, jvmfmt.NewPool()); err == nil {
		t.Error("expected out of range error")
	}
}

func TestAssembleLdcPromotion(t *testing.T) {
	pool := jvmfmt.NewPool()
	for i := 0; i < 300; i++ {
		if _, err := pool.Add(jvmfmt.Utf8Info{Value: fmt.Sprint("s", i)}); err != nil {
			t.Fatal(err)
		}
	}
	l := NewInstructions()
	l.Add(LDC(jvmfmt.IntegerInfo{Value: 77777}))
	l.Add(Simple(Ireturn))
	out, err := Assemble(l, pool)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{byte(LdcW), 0x01, 0x2d, byte(Ireturn)}
	if !bytes.Equal(out.Code, want) {
		t.Errorf("code = % x, want % x", out.Code, want)
	}
}

func TestRemoveRetargets(t *testing.T) {
	l, pcs, err := Decode(ifCode, jvmfmt.NewPool())
	if err != nil {
		t.Fatal(err)
	}
	target := pcs[6]
	next := l.Next(target)
	if err := l.Remove(target); err != nil {
		t.Fatal(err)
	}
	if got := l.Get(pcs[1]).Target; got != next {
		t.Errorf("branch target = %d, want %d", got, next)
	}
	if l.Get(target) != nil {
		t.Error("removed handle still resolves")
	}
	if err := l.Remove(next); err == nil {
		t.Error("removing referenced last instruction should fail")
	}
}

func TestInsertKeepsHandles(t *testing.T) {
	l := NewInstructions()
	a := l.Add(Simple(Iconst1))
	r := l.Add(Simple(Ireturn))
	v := l.Version()
	m, err := l.InsertBefore(r, Simple(Ineg))
	if err != nil {
		t.Fatal(err)
	}
	if l.Version() == v {
		t.Error("version unchanged after insert")
	}
	want := []Handle{a, m, r}
	got := l.Handles()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("handles = %v, want %v", got, want)
		}
	}
	if _, err := l.InsertAfter(Handle(99), Simple(Nop)); err == nil {
		t.Error("insert after unknown handle should fail")
	}
}

func TestSetConstant(t *testing.T) {
	tests := []struct {
		name   string
		ins    Instruction
		c      jvmfmt.Entry
		wantOp Opcode
		err    error
	}{
		{"bipush stays", PushInt(10), jvmfmt.IntegerInfo{Value: -20}, Bipush, nil},
		{"bipush to sipush", PushInt(10), jvmfmt.IntegerInfo{Value: 1000}, Sipush, nil},
		{"sipush to ldc", PushInt(1000), jvmfmt.IntegerInfo{Value: 1 << 20}, Ldc, nil},
		{"ldc int to long", LDC(jvmfmt.IntegerInfo{Value: 1 << 20}), jvmfmt.LongInfo{Value: 5}, Ldc2W, nil},
		{"ldc2 to int", LDC(jvmfmt.LongInfo{Value: 5}), jvmfmt.IntegerInfo{Value: 3}, Ldc, nil},
		{"implicit", PushInt(1), jvmfmt.IntegerInfo{Value: 3}, Iconst1, ErrImplicitConstant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := tt.ins
			err := ins.SetConstant(tt.c)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if ins.Op != tt.wantOp {
				t.Errorf("op = %s, want %s", ins.Op, tt.wantOp)
			}
			if tt.err != nil {
				return
			}
			got, ok := ins.Constant()
			if !ok || got != tt.c {
				t.Errorf("constant = %v, want %v", got, tt.c)
			}
		})
	}
	ret := Simple(Ireturn)
	if err := ret.SetConstant(jvmfmt.IntegerInfo{Value: 1}); err == nil {
		t.Error("ireturn accepted a constant")
	}
}

func TestImplicitConstants(t *testing.T) {
	tests := []struct {
		op   Opcode
		want jvmfmt.Entry
	}{
		{IconstM1, jvmfmt.IntegerInfo{Value: -1}},
		{Iconst5, jvmfmt.IntegerInfo{Value: 5}},
		{Lconst1, jvmfmt.LongInfo{Value: 1}},
		{Fconst2, jvmfmt.Float32(2)},
		{Dconst1, jvmfmt.Float64(1)},
	}
	for _, tt := range tests {
		ins := Simple(tt.op)
		got, ok := ins.Constant()
		if !ok || got != tt.want {
			t.Errorf("%s constant = %v, want %v", tt.op, got, tt.want)
		}
	}
	null := Simple(AconstNull)
	if _, ok := null.Constant(); ok {
		t.Error("aconst_null reported a pool constant")
	}
}

func TestLoadStore(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Instruction, error)
		op    Opcode
		local int
	}{
		{"int 2", func() (Instruction, error) { return Load(jvmfmt.Int, 2) }, Iload2, 0},
		{"boolean 1", func() (Instruction, error) { return Load(jvmfmt.Boolean, 1) }, Iload1, 0},
		{"long 0", func() (Instruction, error) { return Load(jvmfmt.Long, 0) }, Lload0, 0},
		{"object 5", func() (Instruction, error) { return Load(jvmfmt.Object, 5) }, Aload, 5},
		{"array 3", func() (Instruction, error) { return Load("[I", 3) }, Aload3, 0},
		{"store double 3", func() (Instruction, error) { return Store(jvmfmt.Double, 3) }, Dstore3, 0},
		{"store float 9", func() (Instruction, error) { return Store(jvmfmt.Float, 9) }, Fstore, 9},
	}
	for _, tt := range tests {
		ins, err := tt.build()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if ins.Op != tt.op || ins.Local != tt.local {
			t.Errorf("%s: got %s %d, want %s %d", tt.name, ins.Op, ins.Local, tt.op, tt.local)
		}
	}
	if _, err := Load(jvmfmt.Void, 0); err == nil {
		t.Error("load of void should fail")
	}
	if _, err := ReturnFor("Q"); err == nil {
		t.Error("unknown return type should fail")
	}
}

func TestBuildCFG_Conditional(t *testing.T) {
	l, _, err := Decode(ifCode, jvmfmt.NewPool())
	if err != nil {
		t.Fatal(err)
	}
	cfg := BuildCFG("cond", l)
	if len(cfg.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(cfg.Blocks))
	}
	b0 := cfg.Blocks[0]
	var hasT, hasF bool
	for _, s := range b0.Succs {
		if s.Cond == "T" && s.BlockID == 2 {
			hasT = true
		}
		if s.Cond == "F" && s.BlockID == 1 {
			hasF = true
		}
	}
	if !hasT || !hasF {
		t.Errorf("block 0 succs = %+v, want T->2 and F->1", b0.Succs)
	}
	if !cfg.Blocks[1].IsTerm || !cfg.Blocks[2].IsTerm {
		t.Error("return blocks should be terminal")
	}
}

func TestBuildCFG_SwitchAndHandler(t *testing.T) {
	l, pcs, err := Decode(switchCode, jvmfmt.NewPool())
	if err != nil {
		t.Fatal(err)
	}
	l.Handlers = append(l.Handlers, Handler{Start: pcs[0], End: pcs[24], Handler: pcs[28]})
	cfg := BuildCFG("switch", l)
	if len(cfg.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(cfg.Blocks))
	}
	conds := map[string]int{}
	for _, s := range cfg.Blocks[0].Succs {
		conds[s.Cond] = s.BlockID
	}
	if conds["0"] != 1 || conds["1"] != 2 || conds["default"] != 3 || conds["E"] != 3 {
		t.Errorf("switch succs = %+v", cfg.Blocks[0].Succs)
	}
	if !cfg.Blocks[3].IsHandler {
		t.Error("default block should be marked as handler")
	}
}

func TestListing(t *testing.T) {
	l, _, err := Decode(ifCode, jvmfmt.NewPool())
	if err != nil {
		t.Fatal(err)
	}
	got := Listing(l, func(h Handle, ins *Instruction) string {
		if ins.Op == Ifeq {
			return "test"
		}
		return ""
	})
	want := "   0: iload_1         \n" +
		"   1: ifeq             -> 4  ; test\n" +
		"   2: iconst_1        \n" +
		"   3: ireturn         \n" +
		"   4: iconst_0        \n" +
		"   5: ireturn         \n"
	if got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

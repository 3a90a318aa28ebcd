package classfile

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"deobinject/internal/bytecode"
	"deobinject/internal/jvmfmt"
)

const exportType jvmfmt.Type = "Lnet/runelite/mapping/Export;"

// buildClass returns a class with an annotated field, a getter and a
// method with an exception handler.
func buildClass(t *testing.T) *ClassFile {
	t.Helper()
	c := New("a", "java/lang/Object")
	c.AddInterface("java/lang/Runnable")
	f := c.AddField(jvmfmt.AccPrivate, "x", jvmfmt.Int)
	f.Annotations = Annotations{{Type: exportType, Elements: []Element{{Name: "value", Value: StringElem("x")}}}}

	get, err := c.AddMethod(jvmfmt.AccPublic, "getX", "()I")
	if err != nil {
		t.Fatal(err)
	}
	l := get.Code.Instructions
	l.Add(bytecode.Simple(bytecode.Aload0))
	l.Add(bytecode.WithRef(bytecode.Getfield, f.Ref()))
	l.Add(bytecode.LDC(jvmfmt.IntegerInfo{Value: 1234567}))
	l.Add(bytecode.Simple(bytecode.Imul))
	l.Add(bytecode.Simple(bytecode.Ireturn))
	get.Code.MaxStack = 2

	run, err := c.AddMethod(jvmfmt.AccPublic, "run", "()V")
	if err != nil {
		t.Fatal(err)
	}
	l = run.Code.Instructions
	start := l.Add(bytecode.Simple(bytecode.Nop))
	ret := l.Add(bytecode.Simple(bytecode.Return))
	handler := l.Add(bytecode.Simple(bytecode.Athrow))
	l.Handlers = append(l.Handlers, bytecode.Handler{Start: start, End: ret, Handler: handler, CatchType: "java/lang/Exception"})
	run.Code.MaxStack = 1
	run.Code.Attributes = append(run.Code.Attributes, Attribute{Name: attrLineNumberTable, Data: []byte{0, 1, 0, 0, 0, 7}})
	return c
}

func TestRoundTrip(t *testing.T) {
	data, err := buildClass(t).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoded class differs: %d bytes, want %d", len(again), len(data))
	}

	if c.Name != "a" || c.SuperName != "java/lang/Object" {
		t.Errorf("names = %s extends %s", c.Name, c.SuperName)
	}
	if diff := cmp.Diff([]string{"java/lang/Runnable"}, c.Interfaces()); diff != "" {
		t.Errorf("interfaces mismatch (-want +got):\n%s", diff)
	}
	f := c.FindField("x", jvmfmt.Int)
	if f == nil {
		t.Fatal("field x missing")
	}
	a := f.Annotations.Find(exportType)
	if a == nil {
		t.Fatal("Export annotation missing")
	}
	if v, ok := a.Value("value"); !ok {
		t.Error("Export value missing")
	} else if s, _ := v.StringValue(); s != "x" {
		t.Errorf("Export value = %q, want x", s)
	}

	m := c.FindMethod("getX", "()I")
	if m == nil || m.Code == nil {
		t.Fatal("getX missing")
	}
	if m.Code.Modified() {
		t.Error("parsed code reports modified")
	}
	if m.Code.MaxStack != 2 || m.Code.MaxLocals != 1 {
		t.Errorf("max stack/locals = %d/%d, want 2/1", m.Code.MaxStack, m.Code.MaxLocals)
	}
	if got := m.Code.Instructions.Len(); got != 5 {
		t.Errorf("instructions = %d, want 5", got)
	}

	run := c.FindMethod("run", "")
	hs := run.Code.Instructions.Handlers
	if len(hs) != 1 || hs[0].CatchType != "java/lang/Exception" {
		t.Fatalf("handlers = %+v", hs)
	}
	if run.Code.Instructions.IndexOf(hs[0].Handler) != 2 {
		t.Errorf("handler at %d, want 2", run.Code.Instructions.IndexOf(hs[0].Handler))
	}
}

func TestEditedCodeDropsDebugAttributes(t *testing.T) {
	data, err := buildClass(t).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	run := c.FindMethod("run", "()V")
	if len(run.Code.Attributes) != 1 {
		t.Fatalf("code attributes = %d, want 1", len(run.Code.Attributes))
	}
	l := run.Code.Instructions
	if _, err := l.InsertBefore(l.At(0), bytecode.Simple(bytecode.Nop)); err != nil {
		t.Fatal(err)
	}
	if !run.Code.Modified() {
		t.Fatal("edit not detected")
	}
	var diags jvmfmt.Diags
	out, err := c.Encode(&diags)
	if err != nil {
		t.Fatal(err)
	}
	if diags.Count(jvmfmt.DiagDroppedAttr) != 1 {
		t.Errorf("dropped diagnostics = %d, want 1", diags.Count(jvmfmt.DiagDroppedAttr))
	}
	c2, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	run2 := c2.FindMethod("run", "()V")
	if len(run2.Code.Attributes) != 0 {
		t.Errorf("code attributes = %d after reassembly, want 0", len(run2.Code.Attributes))
	}
	if run2.Code.Instructions.Len() != 4 {
		t.Errorf("instructions = %d, want 4", run2.Code.Instructions.Len())
	}
	h := run2.Code.Instructions.Handlers[0]
	if got := run2.Code.Instructions.IndexOf(h.Start); got != 1 {
		t.Errorf("handler start at %d, want 1", got)
	}
	// the untouched getter keeps its bytes
	if c2.FindMethod("getX", "()I").Code.Instructions.Len() != 5 {
		t.Error("getter changed")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte{0xca, 0xfe, 0xba, 0xbf, 0, 0, 0, 52}); err == nil {
		t.Error("bad magic accepted")
	}
	data, err := buildClass(t).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(data[:len(data)-3]); err == nil {
		t.Error("truncated class accepted")
	}
	if _, err := Parse(append(data, 0)); err == nil {
		t.Error("trailing byte accepted")
	}
}

func TestAddInterfaceOnce(t *testing.T) {
	c := New("a", "java/lang/Object")
	if !c.AddInterface("api/A") {
		t.Error("first add reported existing")
	}
	if c.AddInterface("api/A") {
		t.Error("second add reported new")
	}
	c.AddInterface("api/B")
	if diff := cmp.Diff([]string{"api/A", "api/B"}, c.Interfaces()); diff != "" {
		t.Errorf("interfaces mismatch (-want +got):\n%s", diff)
	}
}

func TestDeepLookup(t *testing.T) {
	g := NewClassGroup()
	base := New("base", "java/lang/Object")
	base.AddField(jvmfmt.AccPublic, "f", jvmfmt.Long)
	if _, err := base.AddMethod(jvmfmt.AccPublic, "m", "()V"); err != nil {
		t.Fatal(err)
	}
	iface := New("iface", "java/lang/Object")
	iface.Access = jvmfmt.AccPublic | jvmfmt.AccInterface | jvmfmt.AccAbstract
	if _, err := iface.AddMethod(jvmfmt.AccPublic|jvmfmt.AccAbstract, "n", "()I"); err != nil {
		t.Fatal(err)
	}
	child := New("child", "base")
	child.AddInterface("iface")
	for _, c := range []*ClassFile{base, iface, child} {
		if err := g.Add(c); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Add(New("base", "")); err == nil {
		t.Error("duplicate class accepted")
	}

	if f := child.FindFieldDeep("f", jvmfmt.Long); f == nil || f.Owner != base {
		t.Errorf("FindFieldDeep(f) = %v, want base.f", f)
	}
	if f := child.FindFieldDeep("f", jvmfmt.Int); f != nil {
		t.Errorf("FindFieldDeep with wrong type = %v, want nil", f)
	}
	if m := child.FindMethodDeep("m", "()V"); m == nil || m.Owner != base {
		t.Errorf("FindMethodDeep(m) = %v", m)
	}
	if m := child.FindMethodDeep("n", ""); m == nil || m.Owner != iface {
		t.Errorf("FindMethodDeep(n) = %v", m)
	}
	if iface.FindMethod("n", "()I").Code != nil {
		t.Error("abstract method got a body")
	}
	if _, ok := child.FindMethodDeep("n", "()I").Ref().(jvmfmt.InterfaceMethodRef); !ok {
		t.Error("interface method ref has wrong kind")
	}

	iface.AddInterface("api/RSActor")
	want := []string{"child", "base", "java/lang/Object", "iface", "api/RSActor"}
	if diff := cmp.Diff(want, child.Supertypes()); diff != "" {
		t.Errorf("Supertypes mismatch (-want +got):\n%s", diff)
	}
}

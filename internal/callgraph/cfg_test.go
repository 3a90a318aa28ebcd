package callgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zboralski/lattice/render"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// newGroup returns classes a and b where a.m(I)V is:
//
//	entry (B0):
//	  0: iload_0
//	  1: invokestatic b.f()V
//	  2: ifeq 5              ; conditional -> B2
//
//	true path (B1):
//	  3: invokestatic a.g()V
//	  4: goto 8              ; jump -> B3
//
//	false path (B2):
//	  5: ldc "hello"
//	  6: invokestatic java/lang/System.gc()V
//	  7: return
//
//	join (B3):
//	  8: return
func newGroup(t *testing.T) (*classfile.ClassGroup, *classfile.Method) {
	t.Helper()
	g := classfile.NewClassGroup()
	a := classfile.New("a", "java/lang/Object")
	b := classfile.New("b", "java/lang/Object")
	for _, c := range []*classfile.ClassFile{a, b} {
		if err := g.Add(c); err != nil {
			t.Fatal(err)
		}
	}
	add := func(c *classfile.ClassFile, name, desc string) *classfile.Method {
		m, err := c.AddMethod(jvmfmt.AccPublic|jvmfmt.AccStatic, name, desc)
		if err != nil {
			t.Fatal(err)
		}
		return m
	}
	f := add(b, "f", "()V")
	f.Code.Instructions.Add(bytecode.Simple(bytecode.Return))
	gm := add(a, "g", "()V")
	gm.Code.Instructions.Add(bytecode.Simple(bytecode.Return))

	m := add(a, "m", "(I)V")
	l := m.Code.Instructions
	l.Add(bytecode.Simple(bytecode.Iload0))
	l.Add(bytecode.WithRef(bytecode.Invokestatic, f.Ref()))
	ifeq := l.Add(bytecode.Branch(bytecode.Ifeq, bytecode.NoHandle))
	l.Add(bytecode.WithRef(bytecode.Invokestatic, gm.Ref()))
	jump := l.Add(bytecode.Branch(bytecode.Goto, bytecode.NoHandle))
	falsePath := l.Add(bytecode.LDC(jvmfmt.StringInfo{Value: "hello"}))
	l.Add(bytecode.WithRef(bytecode.Invokestatic, jvmfmt.MethodRef{Class: "java/lang/System", Name: "gc", Desc: "()V"}))
	l.Add(bytecode.Simple(bytecode.Return))
	join := l.Add(bytecode.Simple(bytecode.Return))
	l.Get(ifeq).Target = falsePath
	l.Get(jump).Target = join
	return g, m
}

func TestBuildCFG_DOTOutput(t *testing.T) {
	_, m := newGroup(t)
	cfg := BuildCFG([]*classfile.Method{m})

	if len(cfg.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(cfg.Funcs))
	}
	f := cfg.Funcs[0]
	if f.Name != "a.m(I)V" {
		t.Errorf("func name = %q", f.Name)
	}
	if len(f.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(f.Blocks))
	}

	b0 := f.Blocks[0]
	if len(b0.Calls) != 1 || b0.Calls[0].Callee != "b.f()V" || b0.Calls[0].Offset != 1 {
		t.Errorf("B0 calls = %+v", b0.Calls)
	}
	if len(b0.Succs) != 2 {
		t.Errorf("B0 succs = %+v", b0.Succs)
	}

	b1 := f.Blocks[1]
	if len(b1.Calls) != 1 || b1.Calls[0].Callee != "a.g()V" {
		t.Errorf("B1 calls = %+v", b1.Calls)
	}
	if b1.Term {
		t.Error("B1 should not be terminal")
	}

	b2 := f.Blocks[2]
	if len(b2.Calls) != 1 || b2.Calls[0].Callee != "java/lang/System.gc()V" || b2.Calls[0].Offset != 6 {
		t.Errorf("B2 calls = %+v", b2.Calls)
	}
	if !b2.Term {
		t.Error("B2 should be terminal")
	}
	if !f.Blocks[3].Term {
		t.Error("B3 should be terminal")
	}

	dot := render.DOTCFG(cfg, "a.m CFG")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestBuildFuncCFG(t *testing.T) {
	g, m := newGroup(t)
	if _, n := BuildFuncCFG(m); n != 4 {
		t.Errorf("blocks = %d, want 4", n)
	}
	if _, n := BuildFuncCFG(g.FindClass("b").FindMethod("f", "()V")); n != 1 {
		t.Errorf("blocks = %d, want 1", n)
	}
}

func TestBuildSummaryFuncCFG(t *testing.T) {
	_, m := newGroup(t)
	f := BuildSummaryFuncCFG(m)
	if len(f.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(f.Blocks))
	}
	var got []string
	for _, c := range f.Blocks[0].Calls {
		got = append(got, c.Callee)
	}
	want := []string{"b.f()V", "a.g()V", `"hello"`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCallGraph_DOTOutput(t *testing.T) {
	g, _ := newGroup(t)

	cg := BuildCallGraph(g, false)
	if len(cg.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(cg.Nodes))
	}
	if len(cg.Edges) != 2 {
		t.Errorf("expected 2 edges, got %+v", cg.Edges)
	}

	cg = BuildCallGraph(g, true)
	if len(cg.Edges) != 3 {
		t.Errorf("expected 3 edges with external callees, got %+v", cg.Edges)
	}

	dot := render.DOT(cg, "call graph")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

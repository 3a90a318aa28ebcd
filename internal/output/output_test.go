package output

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/inject"
	"deobinject/internal/jvmfmt"
)

func newGroup(t *testing.T) *classfile.ClassGroup {
	t.Helper()
	g := classfile.NewClassGroup()
	for _, name := range []string{"client", "net/runelite/ab"} {
		c := classfile.New(name, "java/lang/Object")
		c.AddField(jvmfmt.AccStatic, "q", jvmfmt.Int)
		m, err := c.AddMethod(jvmfmt.AccPublic|jvmfmt.AccStatic, "getQ", "()I")
		if err != nil {
			t.Fatal(err)
		}
		m.Code.Instructions.Add(bytecode.WithRef(bytecode.Getstatic, c.Fields[0].Ref()))
		m.Code.Instructions.Add(bytecode.Simple(bytecode.Ireturn))
		m.Code.MaxStack = 1
		if err := g.Add(c); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func names(g *classfile.ClassGroup) map[string]bool {
	out := make(map[string]bool)
	for _, c := range g.Classes() {
		out[c.Name] = true
	}
	return out
}

func TestSaveAndLoadGroup(t *testing.T) {
	dir := t.TempDir()
	g := newGroup(t)
	var diags jvmfmt.Diags
	if err := SaveGroup(dir, g, &diags); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "net", "runelite", "ab.class")); err != nil {
		t.Errorf("nested class not written: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a class"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadGroup(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(names(g), names(loaded)); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	m := loaded.FindClass("client").FindMethod("getQ", "()I")
	if m == nil || m.Code.Instructions.Len() != 2 {
		t.Fatalf("getQ not restored: %+v", m)
	}
}

func TestLoadJar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamepack.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, c := range newGroup(t).Classes() {
		data, err := c.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		w, err := zw.Create(c.Name + ".class")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if w, err := zw.Create("META-INF/MANIFEST.MF"); err != nil {
		t.Fatal(err)
	} else if _, err := w.Write([]byte("Manifest-Version: 1.0\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	g, err := LoadGroup(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 || g.FindClass("net/runelite/ab") == nil {
		t.Errorf("jar classes = %v", names(g))
	}
}

func TestLoadGroupErrors(t *testing.T) {
	if _, err := LoadGroup(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing path: expected error")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.class"), []byte{0xca, 0xfe}, 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadGroup(dir)
	if err == nil || !strings.Contains(err.Error(), "bad.class") {
		t.Errorf("truncated class: err = %v", err)
	}
}

func TestWriteReportJSON(t *testing.T) {
	dir := t.TempDir()
	r := &inject.Report{
		Interfaces: []inject.AddedInterface{{Class: "ab", Interface: "net/runelite/rs/api/RSPlayer"}},
		Methods:    []inject.AddedMethod{{Class: "ab", Name: "getX", Desc: "()I", Role: inject.RoleGetter, Target: "ab.c I"}},
	}
	r.Diags.Add("Player.y", jvmfmt.DiagNoAPIMethod, "no getter")
	if err := WriteReportJSON(dir, r); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Interfaces  []map[string]any `json:"interfaces"`
		Methods     []map[string]any `json:"methods"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report.json: %v", err)
	}
	if len(got.Interfaces) != 1 || len(got.Methods) != 1 || len(got.Diagnostics) != 1 {
		t.Errorf("report = %s", data)
	}
	if got.Methods[0]["name"] != "getX" {
		t.Errorf("method name = %v, want getX", got.Methods[0]["name"])
	}
}

func TestWriteListingAndDOT(t *testing.T) {
	dir := t.TempDir()
	g := newGroup(t)
	m := g.FindClass("net/runelite/ab").FindMethod("getQ", "()I")
	if err := WriteListing(dir, m); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "asm", "net", "runelite", "ab", "getQ()I.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "getstatic") || !strings.Contains(string(data), "ireturn") {
		t.Errorf("listing = %q", data)
	}

	if err := WriteDOT(dir, "a.m(I)V", "digraph {}\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "dot", "a.m(I)V.dot")); err != nil {
		t.Error(err)
	}

	if err := WriteClassesJSON(dir, g); err != nil {
		t.Fatal(err)
	}
	var entries []ClassEntry
	data, err = os.ReadFile(filepath.Join(dir, "classes.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	want := []ClassEntry{
		{Name: "client", Super: "java/lang/Object", Fields: 1, Methods: 1},
		{Name: "net/runelite/ab", Super: "java/lang/Object", Fields: 1, Methods: 1},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("classes.json mismatch (-want +got):\n%s", diff)
	}
}

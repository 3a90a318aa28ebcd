package jvmfmt

import (
	"bytes"
	"math"
	"testing"
)

func TestPoolAddDedup(t *testing.T) {
	p := NewPool()
	ref := FieldRef{Class: "client", Name: "x", Type: Int}
	i, err := p.Add(ref)
	if err != nil {
		t.Fatal(err)
	}
	j, err := p.Add(ref)
	if err != nil {
		t.Fatal(err)
	}
	if i != j {
		t.Errorf("re-adding returned %d, want %d", j, i)
	}
	// Utf8 client, Class client, Utf8 x, Utf8 I, NameAndType, Fieldref.
	if p.Count() != 7 {
		t.Errorf("count = %d, want 7", p.Count())
	}
	if _, ok := p.Find(ClassInfo{Name: "client"}); !ok {
		t.Error("dependency Class client not added")
	}
}

func TestPoolWideSlots(t *testing.T) {
	p := NewPool()
	l, _ := p.Add(LongInfo{Value: 1})
	d, _ := p.Add(Float64(2.5))
	s, _ := p.Add(Utf8Info{Value: "next"})
	if l != 1 || d != 3 || s != 5 {
		t.Errorf("indices = %d %d %d, want 1 3 5", l, d, s)
	}
	if _, err := p.Get(2); err == nil {
		t.Error("Get on second slot of a long should fail")
	}
}

func TestPoolFloatNaN(t *testing.T) {
	p := NewPool()
	nan := Float32(float32(math.NaN()))
	i, _ := p.Add(nan)
	j, _ := p.Add(nan)
	if i != j {
		t.Errorf("NaN float entries not deduplicated: %d != %d", i, j)
	}
}

// TestPoolRoundTripDuplicates reads a pool that holds two identical Utf8
// entries and checks it is written back unchanged.
func TestPoolRoundTripDuplicates(t *testing.T) {
	w := NewWriter()
	w.U16(6)
	w.U8(uint8(TagUtf8))
	_ = w.UTF("dup")
	w.U8(uint8(TagUtf8))
	_ = w.UTF("dup")
	w.U8(uint8(TagClass))
	w.U16(2) // refers to the second copy
	w.U8(uint8(TagLong))
	w.U64(0xFFFFFFFFFFFFFFFF)
	in := w.Bytes()

	p, err := ReadPool(NewStream(in))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := p.ClassName(3); got != "dup" {
		t.Errorf("class name = %q, want dup", got)
	}
	if i, _ := p.Find(Utf8Info{Value: "dup"}); i != 1 {
		t.Errorf("Find(dup) = %d, want first occurrence 1", i)
	}
	e, err := p.Get(4)
	if err != nil {
		t.Fatal(err)
	}
	if e != (LongInfo{Value: -1}) {
		t.Errorf("long = %#v, want -1", e)
	}

	out := NewWriter()
	if err := p.Write(out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Errorf("round trip mismatch:\n got % x\nwant % x", out.Bytes(), in)
	}
}

func TestPoolAppendAfterRead(t *testing.T) {
	w := NewWriter()
	w.U16(2)
	w.U8(uint8(TagUtf8))
	_ = w.UTF("client")
	p, err := ReadPool(NewStream(w.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	i, err := p.Add(ClassInfo{Name: "client"})
	if err != nil {
		t.Fatal(err)
	}
	if i != 2 {
		t.Errorf("class index = %d, want 2", i)
	}
	out := NewWriter()
	if err := p.Write(out); err != nil {
		t.Fatal(err)
	}
	q, err := ReadPool(NewStream(out.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if name, _ := q.ClassName(2); name != "client" {
		t.Errorf("reparsed class = %q, want client", name)
	}
}

func TestReadPoolBadTag(t *testing.T) {
	if _, err := ReadPool(NewStream([]byte{0, 2, 99})); err == nil {
		t.Error("expected error for unknown tag")
	}
}

package jvmfmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTypeQueries(t *testing.T) {
	tests := []struct {
		t         Type
		dims      int
		primitive bool
		ref       bool
		internal  string
		slots     int
	}{
		{Int, 0, true, false, "", 1},
		{Long, 0, true, false, "", 2},
		{"[J", 1, true, true, "", 1},
		{"Lclient;", 0, false, true, "client", 1},
		{"[[Lfoo/Bar;", 2, false, true, "foo/Bar", 1},
		{Null, 0, false, true, "", 1},
	}
	for _, tt := range tests {
		if got := tt.t.Dimensions(); got != tt.dims {
			t.Errorf("%s.Dimensions() = %d, want %d", tt.t, got, tt.dims)
		}
		if got := tt.t.IsPrimitive(); got != tt.primitive {
			t.Errorf("%s.IsPrimitive() = %v, want %v", tt.t, got, tt.primitive)
		}
		if got := tt.t.IsReference(); got != tt.ref {
			t.Errorf("%s.IsReference() = %v, want %v", tt.t, got, tt.ref)
		}
		if got := tt.t.InternalName(); got != tt.internal {
			t.Errorf("%s.InternalName() = %q, want %q", tt.t, got, tt.internal)
		}
		if got := tt.t.Slots(); got != tt.slots {
			t.Errorf("%s.Slots() = %d, want %d", tt.t, got, tt.slots)
		}
	}
	if got := ObjectType("a/B").ArrayOf(2); got != "[[La/B;" {
		t.Errorf("ArrayOf = %s", got)
	}
	if got := Type("[[I").ClassRef(); got != "[[I" {
		t.Errorf("ClassRef of array = %s", got)
	}
	if Byte.StackType() != Int || Long.StackType() != Long {
		t.Error("StackType mapping wrong")
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("(IJ[Ljava/lang/String;Lfoo;)[[Z")
	if err != nil {
		t.Fatal(err)
	}
	want := Signature{Args: []Type{Int, Long, "[Ljava/lang/String;", "Lfoo;"}, Return: "[[Z"}
	if diff := cmp.Diff(want, sig); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
	if sig.ArgSlots() != 5 {
		t.Errorf("ArgSlots = %d, want 5", sig.ArgSlots())
	}
	if sig.String() != "(IJ[Ljava/lang/String;Lfoo;)[[Z" {
		t.Errorf("String = %s", sig.String())
	}

	// Cached copies must not alias.
	sig.Args[0] = Float
	again := MustSignature("(IJ[Ljava/lang/String;Lfoo;)[[Z")
	if again.Args[0] != Int {
		t.Error("cached signature was mutated through a returned copy")
	}
}

func TestParseSignatureErrors(t *testing.T) {
	for _, desc := range []string{"", "I", "(I", "(V)V", "(Lfoo)V", "(I)", "(I)VV", "([V)V"} {
		if _, err := ParseSignature(desc); err == nil {
			t.Errorf("ParseSignature(%q) succeeded, want error", desc)
		}
	}
}

package api

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"deobinject/internal/jvmfmt"
)

const sample = `
prefix: net.runelite.rs.api.RS
client: net/runelite/rs/api/RSClient
interfaces:
  - name: net/runelite/rs/api/RSClient
    extends: [net/runelite/api/Client]
    methods:
      - {name: getX, import: x, returns: I}
      - {name: setX, import: x, setter: true, args: [I], returns: V}
      - {name: getXBridge, import: x, returns: I, synthetic: true}
  - name: net/runelite/rs/api/RSPlayer
    extends: [net/runelite/rs/api/RSActor]
    methods:
      - {name: getName, import: name, returns: Ljava/lang/String;}
  - name: net/runelite/rs/api/RSActor
    extends: [net/runelite/api/Actor]
`

func TestParse(t *testing.T) {
	c, err := LoadReader(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if c.Prefix != "net/runelite/rs/api/RS" {
		t.Errorf("Prefix = %q", c.Prefix)
	}
	if got := c.Resolve("Player"); got == nil || got.Name != "net/runelite/rs/api/RSPlayer" {
		t.Errorf("Resolve(Player) = %+v", got)
	}
	if c.Resolve("Npc") != nil {
		t.Error("Resolve(Npc) found an undeclared interface")
	}

	client := c.ClientInterface()
	if client == nil {
		t.Fatal("no client interface")
	}
	want := &Method{Name: "setX", Import: "x", Setter: true, Args: []jvmfmt.Type{"I"}, Returns: "V"}
	if diff := cmp.Diff(want, client.FindImport("x", true)); diff != "" {
		t.Errorf("FindImport(x, setter) mismatch (-want +got):\n%s", diff)
	}
	if got := client.FindImport("x", false); got == nil || got.Name != "getX" {
		t.Errorf("FindImport(x, getter) = %+v, want getX", got)
	}
	if client.FindImport("y", false) != nil {
		t.Error("FindImport(y) found a method")
	}
	if got := client.FindImport("x", true).Descriptor(); got != "(I)V" {
		t.Errorf("Descriptor = %s", got)
	}
}

func TestImplements(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		a, b string
		want bool
	}{
		{"net/runelite/rs/api/RSPlayer", "net/runelite/rs/api/RSPlayer", true},
		{"net/runelite/rs/api/RSPlayer", "net/runelite/rs/api/RSActor", true},
		{"net/runelite/rs/api/RSPlayer", "net/runelite/api/Actor", true},
		{"net.runelite.rs.api.RSPlayer", "net.runelite.api.Actor", true},
		{"net/runelite/rs/api/RSActor", "net/runelite/rs/api/RSPlayer", false},
		{"net/runelite/rs/api/RSClient", "net/runelite/api/Actor", false},
		{"unknown/Iface", "net/runelite/api/Actor", false},
	}
	for _, tt := range tests {
		if got := c.Implements(tt.a, tt.b); got != tt.want {
			t.Errorf("Implements(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"syntax", "interfaces: [:"},
		{"duplicate", "interfaces: [{name: a}, {name: a}]"},
		{"bad type", "interfaces: [{name: a, methods: [{name: m, returns: Q}]}]"},
		{"cycle", "interfaces: [{name: a, extends: [b]}, {name: b, extends: [a]}]"},
		{"unnamed", "interfaces: [{methods: []}]"},
	}
	for _, tt := range tests {
		if _, err := Parse([]byte(tt.in)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

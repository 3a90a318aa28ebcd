package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"

	"deobinject/internal/deob"
	"deobinject/internal/inject"
)

const sample = `
input:
  vanilla: vanilla.jar
  deobfuscated: deob/
  contract: api.yaml
inject:
  annotation-package: com.example.mapping
  verify-getters: true
output: injected/
`

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(sample)); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.Input.Vanilla != "vanilla.jar" || c.Input.Deobfuscated != "deob/" || c.Input.Contract != "api.yaml" {
		t.Errorf("inputs = %+v", c.Input)
	}
	if c.Output != "injected/" {
		t.Errorf("output = %q, want injected/", c.Output)
	}
	if c.Inject.ClientClass != inject.DefaultClientClass {
		t.Errorf("client class = %q, want default %q", c.Inject.ClientClass, inject.DefaultClientClass)
	}

	opts := c.Options()
	if !opts.VerifyGetters {
		t.Error("verify-getters not carried into options")
	}
	if want := deob.NewVocabulary("com/example/mapping").Export; opts.Vocabulary.Export != want {
		t.Errorf("export annotation = %s, want %s", opts.Vocabulary.Export, want)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("input.vanilla", "v")
	v.Set("input.deobfuscated", "d")
	v.Set("input.contract", "c.yaml")
	c, err := LoadConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.Output != "out" {
		t.Errorf("output = %q, want out", c.Output)
	}
	if c.Inject.AnnotationPackage != deob.DefaultPackage {
		t.Errorf("annotation package = %q, want %q", c.Inject.AnnotationPackage, deob.DefaultPackage)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
		want string
	}{
		{"no vanilla", map[string]any{"input.deobfuscated": "d", "input.contract": "c"}, "input.vanilla"},
		{"no deob", map[string]any{"input.vanilla": "v", "input.contract": "c"}, "input.deobfuscated"},
		{"no contract", map[string]any{"input.vanilla": "v", "input.deobfuscated": "d"}, "input.contract"},
		{"same inputs", map[string]any{"input.vanilla": "v", "input.deobfuscated": "v", "input.contract": "c"}, "cannot be the same"},
		{"overwrite", map[string]any{"input.vanilla": "v", "input.deobfuscated": "d", "input.contract": "c", "output": "v"}, "overwrite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := LoadConfig(v)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

// Package deob reads the mapping annotations carried by a deobfuscated
// class group and resolves its symbols to their vanilla counterparts.
package deob

import (
	"strings"

	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// DefaultPackage is the internal package name of the mapping annotations.
const DefaultPackage = "net/runelite/mapping"

// Vocabulary holds the descriptors of the recognized annotation kinds.
// Annotations of any other type are ignored.
type Vocabulary struct {
	ObfuscatedName      jvmfmt.Type
	Export              jvmfmt.Type
	Implements          jvmfmt.Type
	ObfuscatedGetter    jvmfmt.Type
	ObfuscatedSignature jvmfmt.Type
	Hook                jvmfmt.Type
	Replace             jvmfmt.Type
	ObfuscatedOverride  jvmfmt.Type
}

// NewVocabulary returns the vocabulary for annotations declared in pkg
// ("net/runelite/mapping" or "net.runelite.mapping"). An empty pkg selects
// DefaultPackage.
func NewVocabulary(pkg string) *Vocabulary {
	if pkg == "" {
		pkg = DefaultPackage
	}
	pkg = strings.TrimSuffix(strings.ReplaceAll(pkg, ".", "/"), "/")
	t := func(name string) jvmfmt.Type { return jvmfmt.ObjectType(pkg + "/" + name) }
	return &Vocabulary{
		ObfuscatedName:      t("ObfuscatedName"),
		Export:              t("Export"),
		Implements:          t("Implements"),
		ObfuscatedGetter:    t("ObfuscatedGetter"),
		ObfuscatedSignature: t("ObfuscatedSignature"),
		Hook:                t("Hook"),
		Replace:             t("Replace"),
		ObfuscatedOverride:  t("ObfuscatedOverride"),
	}
}

// Export is a decoded @Export.
type Export struct {
	Name   string
	Setter bool
}

// Getter is a decoded @ObfuscatedGetter: the constant the vanilla code
// multiplies the raw field value by on every read.
type Getter struct {
	Value int64
	Long  bool
}

// Int returns the constant of an int getter.
func (g Getter) Int() int32 { return int32(g.Value) }

// ObfuscatedSignature is a decoded @ObfuscatedSignature. Garbage is the
// value vanilla callers pass in the trailing opaque parameter, if any.
type ObfuscatedSignature struct {
	Descriptor string
	Garbage    string
}

// Hook is a decoded @Hook.
type Hook struct {
	Name string
	End  bool
}

func stringElem(a *classfile.Annotation, names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := a.Value(n); ok {
			if s, ok := v.StringValue(); ok {
				return s, true
			}
		}
	}
	if len(a.Elements) > 0 {
		return a.Elements[0].Value.StringValue()
	}
	return "", false
}

func boolElem(a *classfile.Annotation, name string, pos int) bool {
	if v, ok := a.Value(name); ok {
		b, _ := v.BoolValue()
		return b
	}
	if pos < len(a.Elements) {
		b, _ := a.Elements[pos].Value.BoolValue()
		return b
	}
	return false
}

// HasAny reports whether as holds at least one annotation of any kind.
func HasAny(as classfile.Annotations) bool { return len(as) > 0 }

// ObfuscatedNameOf returns the @ObfuscatedName value.
func (v *Vocabulary) ObfuscatedNameOf(as classfile.Annotations) (string, bool) {
	a := as.Find(v.ObfuscatedName)
	if a == nil {
		return "", false
	}
	return stringElem(a, "value")
}

// ExportOf returns the @Export value and its setter flag.
func (v *Vocabulary) ExportOf(as classfile.Annotations) (Export, bool) {
	a := as.Find(v.Export)
	if a == nil {
		return Export{}, false
	}
	name, ok := stringElem(a, "value")
	if !ok {
		return Export{}, false
	}
	return Export{Name: name, Setter: boolElem(a, "setter", 1)}, true
}

// ImplementsOf returns the @Implements interface suffix.
func (v *Vocabulary) ImplementsOf(as classfile.Annotations) (string, bool) {
	a := as.Find(v.Implements)
	if a == nil {
		return "", false
	}
	return stringElem(a, "value")
}

// GetterOf returns the @ObfuscatedGetter constant. Both the named
// intValue/longValue elements and a single positional value are accepted.
func (v *Vocabulary) GetterOf(as classfile.Annotations) (Getter, bool) {
	a := as.Find(v.ObfuscatedGetter)
	if a == nil {
		return Getter{}, false
	}
	values := make([]classfile.ElementValue, 0, 2)
	for _, n := range []string{"intValue", "longValue"} {
		if e, ok := a.Value(n); ok {
			values = append(values, e)
		}
	}
	if len(values) == 0 && len(a.Elements) > 0 {
		values = append(values, a.Elements[0].Value)
	}
	for _, e := range values {
		if i, ok := e.IntValue(); ok && i != 0 {
			return Getter{Value: int64(i)}, true
		}
		if l, ok := e.LongValue(); ok && l != 0 {
			return Getter{Value: l, Long: true}, true
		}
	}
	// an explicit zero is still a (non-invertible) constant
	for _, e := range values {
		if _, ok := e.IntValue(); ok {
			return Getter{}, true
		}
		if _, ok := e.LongValue(); ok {
			return Getter{Long: true}, true
		}
	}
	return Getter{}, false
}

// SignatureOf returns the @ObfuscatedSignature override.
func (v *Vocabulary) SignatureOf(as classfile.Annotations) (ObfuscatedSignature, bool) {
	a := as.Find(v.ObfuscatedSignature)
	if a == nil {
		return ObfuscatedSignature{}, false
	}
	desc, ok := stringElem(a, "descriptor", "signature")
	if !ok {
		return ObfuscatedSignature{}, false
	}
	sig := ObfuscatedSignature{Descriptor: desc}
	if g, ok := a.Value("garbageValue"); ok {
		sig.Garbage, _ = g.StringValue()
	} else if len(a.Elements) > 1 {
		sig.Garbage, _ = a.Elements[1].Value.StringValue()
	}
	return sig, true
}

// HookOf returns the @Hook target.
func (v *Vocabulary) HookOf(as classfile.Annotations) (Hook, bool) {
	a := as.Find(v.Hook)
	if a == nil {
		return Hook{}, false
	}
	name, ok := stringElem(a, "value")
	if !ok {
		return Hook{}, false
	}
	return Hook{Name: name, End: boolElem(a, "end", 1)}, true
}

// ReplaceOf returns the @Replace target.
func (v *Vocabulary) ReplaceOf(as classfile.Annotations) (string, bool) {
	a := as.Find(v.Replace)
	if a == nil {
		return "", false
	}
	return stringElem(a, "value")
}

// OverrideOf returns the @ObfuscatedOverride name.
func (v *Vocabulary) OverrideOf(as classfile.Annotations) (string, bool) {
	a := as.Find(v.ObfuscatedOverride)
	if a == nil {
		return "", false
	}
	return stringElem(a, "value")
}

// FieldType returns the vanilla-side type of a deobfuscated field: the
// @ObfuscatedSignature descriptor when deobfuscation changed the type.
func (v *Vocabulary) FieldType(f *classfile.Field) jvmfmt.Type {
	if sig, ok := v.SignatureOf(f.Annotations); ok {
		if t, err := jvmfmt.ParseType(sig.Descriptor); err == nil {
			return t
		}
	}
	return f.Type
}

// MethodDesc returns the vanilla-side descriptor of a deobfuscated method.
func (v *Vocabulary) MethodDesc(m *classfile.Method) string {
	if sig, ok := v.SignatureOf(m.Annotations); ok {
		if _, err := jvmfmt.ParseSignature(sig.Descriptor); err == nil {
			return sig.Descriptor
		}
	}
	return m.Desc
}

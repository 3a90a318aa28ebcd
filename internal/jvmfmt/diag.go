// Package jvmfmt provides the shared low-level types for class file
// processing: the byte stream, constant pool, type descriptors, access
// flags and diagnostics.
package jvmfmt

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagNoInterface DiagKind = "no_interface"
	DiagNoAPIMethod DiagKind = "no_api_method"
	DiagNoAPIClass  DiagKind = "no_api_class"
	DiagUnverified  DiagKind = "unverified_getter"
	DiagDroppedAttr DiagKind = "dropped_attribute"
)

// Diag records a non-fatal issue. Symbol names the class or member
// the diagnostic is about.
type Diag struct {
	Symbol string   `json:"symbol"`
	Kind   DiagKind `json:"kind"`
	Msg    string   `json:"msg"`
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Symbol, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(symbol string, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Symbol: symbol, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(symbol string, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{Symbol: symbol, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }

// Count returns the number of diagnostics of the given kind.
func (d *Diags) Count(kind DiagKind) int {
	n := 0
	for _, it := range d.items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}

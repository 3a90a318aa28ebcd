// Package callgraph maps class groups onto lattice call graphs and
// per-method control flow graphs for rendering.
package callgraph

import (
	"github.com/zboralski/lattice"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// Callee returns the call graph name of the method an invoke instruction
// targets, or "" when ins does not call a method.
func Callee(ins *bytecode.Instruction) string {
	switch r := ins.Ref.(type) {
	case jvmfmt.MethodRef:
		return r.Class + "." + r.Name + r.Desc
	case jvmfmt.InterfaceMethodRef:
		return r.Class + "." + r.Name + r.Desc
	case jvmfmt.InvokeDynamic:
		return "indy:" + r.Name + r.Desc
	}
	return ""
}

// BuildCallGraph constructs a lattice.Graph from every method body in g.
// Each method becomes a node and each invoke an edge. Calls leaving the
// group are dropped unless external is set.
func BuildCallGraph(g *classfile.ClassGroup, external bool) *lattice.Graph {
	lg := &lattice.Graph{}
	for _, c := range g.Classes() {
		for _, m := range c.Methods {
			lg.Nodes = append(lg.Nodes, m.String())
			if m.Code == nil {
				continue
			}
			l := m.Code.Instructions
			for _, h := range l.Handles() {
				ins := l.Get(h)
				callee := Callee(ins)
				if callee == "" {
					continue
				}
				if !external && !isInternalCallee(g, ins.Ref) {
					continue
				}
				lg.Edges = append(lg.Edges, lattice.Edge{
					Caller: m.String(),
					Callee: callee,
				})
			}
		}
	}
	lg.Dedup()
	return lg
}

// isInternalCallee reports whether ref names a method of a class in g.
func isInternalCallee(g *classfile.ClassGroup, ref jvmfmt.Entry) bool {
	switch r := ref.(type) {
	case jvmfmt.MethodRef:
		return g.FindClass(r.Class) != nil
	case jvmfmt.InterfaceMethodRef:
		return g.FindClass(r.Class) != nil
	}
	return false
}

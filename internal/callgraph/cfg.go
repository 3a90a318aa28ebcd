package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// BuildCFG constructs a lattice.CFGGraph from method bodies. Methods
// without code are skipped.
func BuildCFG(methods []*classfile.Method) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for _, m := range methods {
		if m.Code == nil {
			continue
		}
		bcfg := bytecode.BuildCFG(m.String(), m.Code.Instructions)
		cg.Funcs = append(cg.Funcs, convertFuncCFG(&bcfg))
	}
	return cg
}

// BuildFuncCFG builds a single-method lattice.FuncCFG.
// Returns the FuncCFG and the number of basic blocks (for filtering trivial methods).
func BuildFuncCFG(m *classfile.Method) (*lattice.FuncCFG, int) {
	if m.Code == nil {
		return &lattice.FuncCFG{Name: m.String()}, 0
	}
	bcfg := bytecode.BuildCFG(m.String(), m.Code.Instructions)
	return convertFuncCFG(&bcfg), len(bcfg.Blocks)
}

// BuildSummaryFuncCFG builds a one-block FuncCFG listing the distinct
// calls and string constants of a method, in order of first use. Calls
// into the JDK are left out.
func BuildSummaryFuncCFG(m *classfile.Method) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: m.String()}
	if m.Code == nil {
		return lcfg
	}
	seen := make(map[string]bool)
	var calls []lattice.CallSite
	l := m.Code.Instructions
	for _, h := range l.Handles() {
		ins := l.Get(h)
		label := Callee(ins)
		if !isInterestingCallee(label) {
			label = ""
		}
		if s, ok := ins.Ref.(jvmfmt.StringInfo); ok {
			v := s.Value
			if len(v) > 50 {
				v = v[:47] + "..."
			}
			label = fmt.Sprintf("%q", v)
		}
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		calls = append(calls, lattice.CallSite{Offset: len(calls), Callee: label})
	}
	if len(calls) > 0 {
		lcfg.Blocks = append(lcfg.Blocks, &lattice.BasicBlock{
			ID:    0,
			Start: 0,
			End:   1,
			Term:  true,
			Calls: calls,
		})
	}
	return lcfg
}

// isInterestingCallee returns true if the callee is application code rather
// than the JDK.
func isInterestingCallee(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range []string{"java/", "javax/", "sun/", "jdk/", "indy:"} {
		if len(name) >= len(p) && name[:len(p)] == p {
			return false
		}
	}
	return true
}

// convertFuncCFG maps a bytecode.CFG to a lattice.FuncCFG. Invokes become
// call sites of the block holding them, keyed by instruction position.
func convertFuncCFG(bcfg *bytecode.CFG) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: bcfg.Name}
	for _, bb := range bcfg.Blocks {
		lb := &lattice.BasicBlock{
			ID:    bb.ID,
			Start: bb.Start,
			End:   bb.End,
			Term:  bb.IsTerm,
		}
		for _, s := range bb.Succs {
			lb.Succs = append(lb.Succs, lattice.Successor{
				BlockID: s.BlockID,
				Cond:    s.Cond,
			})
		}
		for k, h := range bcfg.Handles(bb) {
			if callee := Callee(bcfg.Insts.Get(h)); callee != "" {
				lb.Calls = append(lb.Calls, lattice.CallSite{
					Offset: bb.Start + k,
					Callee: callee,
				})
			}
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

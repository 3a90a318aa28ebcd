package bytecode

import (
	"sort"
	"strconv"
)

// BasicBlock represents a sequence of instructions with a single entry point.
type BasicBlock struct {
	ID        int
	Start     int    // position in the instruction list (inclusive)
	End       int    // position in the instruction list (exclusive)
	Succs     []Succ // successor edges
	IsEntry   bool
	IsTerm    bool // ends with a return or athrow
	IsHandler bool // starts an exception handler
}

// Succ describes a control-flow successor edge.
type Succ struct {
	BlockID int
	// "" = unconditional, "T" = taken, "F" = fallthrough, "E" = exception
	// handler, otherwise a switch key or "default".
	Cond string
}

// CFG is the control flow graph of one method body.
type CFG struct {
	Name   string
	Blocks []BasicBlock
	Insts  *Instructions
}

// BuildCFG constructs a control flow graph from an instruction list.
// The algorithm:
//  1. Find block leaders: position 0, branch and switch targets, handler
//     starts, instructions after branches and terminators.
//  2. Partition instructions into blocks by leaders.
//  3. Compute successor edges from each block's last instruction, then add
//     exception edges from every block inside a protected range.
func BuildCFG(name string, l *Instructions) CFG {
	n := l.Len()
	if n == 0 {
		return CFG{Name: name, Insts: l}
	}

	// Pass 1: Identify block leaders.
	leaders := map[int]bool{0: true}
	mark := func(h Handle) {
		if i := l.IndexOf(h); i >= 0 {
			leaders[i] = true
		}
	}
	for i, h := range l.order {
		ins := l.arena[h]
		if ins.Op.IsBranch() || ins.Op.IsSwitch() || ins.Op.IsTerminator() {
			if i+1 < n {
				leaders[i+1] = true
			}
		}
		if ins.Op.IsBranch() {
			mark(ins.Target)
		}
		if ins.Op.IsSwitch() {
			mark(ins.Default)
			for _, t := range ins.Targets {
				mark(t)
			}
		}
	}
	handlerStarts := make(map[int]bool)
	for _, e := range l.Handlers {
		mark(e.Start)
		mark(e.End)
		mark(e.Handler)
		if i := l.IndexOf(e.Handler); i >= 0 {
			handlerStarts[i] = true
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	// Pass 2: Partition into blocks.
	blocks := make([]BasicBlock, len(sorted))
	leaderToBlock := make(map[int]int, len(sorted))
	for i, start := range sorted {
		end := n
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		blocks[i] = BasicBlock{
			ID:        i,
			Start:     start,
			End:       end,
			IsEntry:   start == 0,
			IsHandler: handlerStarts[start],
		}
		leaderToBlock[start] = i
	}
	blockOf := func(h Handle) (int, bool) {
		b, ok := leaderToBlock[l.IndexOf(h)]
		return b, ok
	}

	// Pass 3: Compute successors.
	for i := range blocks {
		blk := &blocks[i]
		last := l.arena[l.order[blk.End-1]]
		add := func(h Handle, cond string) {
			if b, ok := blockOf(h); ok {
				blk.Succs = append(blk.Succs, Succ{BlockID: b, Cond: cond})
			}
		}
		fallThrough := func(cond string) {
			if next, ok := leaderToBlock[blk.End]; ok {
				blk.Succs = append(blk.Succs, Succ{BlockID: next, Cond: cond})
			}
		}
		switch {
		case last.Op.IsReturn() || last.Op == Athrow || last.Op == Ret:
			blk.IsTerm = true
		case last.Op.IsSwitch():
			for j, t := range last.Targets {
				key := last.Low + int32(j)
				if last.Op == Lookupswitch {
					key = last.Keys[j]
				}
				add(t, strconv.Itoa(int(key)))
			}
			add(last.Default, "default")
		case last.Op.IsConditional():
			add(last.Target, "T")
			fallThrough("F")
		case last.Op == Jsr || last.Op == JsrW:
			add(last.Target, "")
			fallThrough("F")
		case last.Op.IsBranch():
			add(last.Target, "")
		default:
			fallThrough("")
		}
	}

	for _, e := range l.Handlers {
		start := l.IndexOf(e.Start)
		end := n
		if e.End != NoHandle {
			end = l.IndexOf(e.End)
		}
		hb, ok := blockOf(e.Handler)
		if start < 0 || !ok {
			continue
		}
		for i := range blocks {
			if blocks[i].Start >= start && blocks[i].Start < end {
				blocks[i].Succs = append(blocks[i].Succs, Succ{BlockID: hb, Cond: "E"})
			}
		}
	}

	return CFG{Name: name, Blocks: blocks, Insts: l}
}

// Handles returns the instruction handles of a block.
func (c *CFG) Handles(b BasicBlock) []Handle {
	return append([]Handle(nil), c.Insts.order[b.Start:b.End]...)
}

package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"deobinject/internal/classfile"
	"deobinject/internal/jvmfmt"
)

// ClassgraphDOT renders a class-level callgraph where each class of g is
// one node and edges represent aggregated inter-class invokes. maxNodes
// limits rendered classes (0 = all). Calls leaving the group are ignored.
func ClassgraphDOT(g *classfile.ClassGroup, title string, t Theme, maxNodes int) string {
	type classEdge struct {
		from, to string
	}
	classCounts := make(map[classEdge]int)
	for _, c := range g.Classes() {
		for _, m := range c.Methods {
			if m.Code == nil {
				continue
			}
			l := m.Code.Instructions
			for _, h := range l.Handles() {
				var owner string
				switch r := l.Get(h).Ref.(type) {
				case jvmfmt.MethodRef:
					owner = r.Class
				case jvmfmt.InterfaceMethodRef:
					owner = r.Class
				default:
					continue
				}
				if owner == c.Name || g.FindClass(owner) == nil {
					continue
				}
				classCounts[classEdge{c.Name, owner}]++
			}
		}
	}

	classInvolvement := make(map[string]int)
	for ce, count := range classCounts {
		classInvolvement[ce.from] += count
		classInvolvement[ce.to] += count
	}

	// Rank classes by involvement for maxNodes limit.
	type rankedClass struct {
		name        string
		involvement int
	}
	ranked := make([]rankedClass, 0, len(classInvolvement))
	for name, inv := range classInvolvement {
		ranked = append(ranked, rankedClass{name, inv})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].involvement != ranked[j].involvement {
			return ranked[i].involvement > ranked[j].involvement
		}
		return ranked[i].name < ranked[j].name
	})

	renderSet := make(map[string]bool)
	limit := len(ranked)
	if maxNodes > 0 && limit > maxNodes {
		limit = maxNodes
	}
	for _, rc := range ranked[:limit] {
		renderSet[rc.name] = true
	}

	var b strings.Builder
	b.WriteString("digraph classgraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.5;\n")
	b.WriteString("  ranksep=0.8;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=\"filled,rounded\", fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=10, fontcolor=%q, height=0.4, margin=\"0.15,0.08\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=vee, color=%q];\n", t.EdgeDirect)
	writeTitle(&b, title, t)
	b.WriteByte('\n')

	maxMethods := 1
	for name := range renderSet {
		if c := len(g.FindClass(name).Methods); c > maxMethods {
			maxMethods = c
		}
	}
	for _, rc := range ranked[:limit] {
		methods := len(g.FindClass(rc.name).Methods)

		// Scale node height by method count (log scale).
		height := 0.4 + 0.3*math.Log2(float64(methods)+1)/math.Log2(float64(maxMethods)+1)

		htmlLabel := fmt.Sprintf("<<font point-size=\"10\">%s</font><br/><font point-size=\"7\" color=\"%s\">%d methods</font>>",
			dotEscape(rc.name), t.ExternalText, methods)
		fmt.Fprintf(&b, "  %s [label=%s, height=%.2f];\n", dotID(rc.name), htmlLabel, height)
	}
	b.WriteByte('\n')

	maxEdgeCount := 1
	edges := make([]classEdge, 0, len(classCounts))
	for ce, c := range classCounts {
		if !renderSet[ce.from] || !renderSet[ce.to] {
			continue
		}
		edges = append(edges, ce)
		if c > maxEdgeCount {
			maxEdgeCount = c
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, ce := range edges {
		count := classCounts[ce]
		pw := 0.5 + 2.0*math.Log2(float64(count)+1)/math.Log2(float64(maxEdgeCount)+1)
		attrs := fmt.Sprintf("penwidth=%.1f", pw)
		if count > 1 {
			attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%d</font>>",
				t.ExternalText, count)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(ce.from), dotID(ce.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

func writeTitle(b *strings.Builder, title string, t Theme) {
	if title == "" {
		return
	}
	fmt.Fprintf(b, "  labelloc=t;\n  labeljust=l;\n")
	fmt.Fprintf(b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
		t.TextColor, dotEscape(title))
}

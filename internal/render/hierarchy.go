package render

import (
	"fmt"
	"sort"
	"strings"

	"deobinject/internal/classfile"
)

// HierarchyDOT renders the supertypes of every class in g. Superclass
// edges are solid, interface edges dotted. Interfaces listed for a class in
// injected are drawn bold in the injected color. Supertypes outside the
// group become plaintext nodes labelled with their simple name.
func HierarchyDOT(g *classfile.ClassGroup, injected map[string][]string, title string, t Theme) string {
	var b strings.Builder
	b.WriteString("digraph hierarchy {\n")
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  nodesep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=\"filled,rounded\", fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=10, fontcolor=%q];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.6, arrowhead=empty, color=%q];\n", t.EdgeDirect)
	writeTitle(&b, title, t)
	b.WriteByte('\n')

	external := make(map[string]bool)
	node := func(name string) string {
		if g.FindClass(name) == nil {
			external[name] = true
		}
		return dotID(name)
	}

	var edges []string
	for _, c := range g.Classes() {
		shape := ""
		if c.Access.IsInterface() {
			shape = ", style=\"filled,dashed\""
		}
		fmt.Fprintf(&b, "  %s [label=<%s>%s];\n", dotID(c.Name), dotEscape(c.Name), shape)

		if c.SuperName != "" && c.SuperName != "java/lang/Object" {
			edges = append(edges, fmt.Sprintf("  %s -> %s;\n", dotID(c.Name), node(c.SuperName)))
		}
		added := make(map[string]bool, len(injected[c.Name]))
		for _, i := range injected[c.Name] {
			added[i] = true
		}
		for _, i := range c.Interfaces() {
			if added[i] {
				edges = append(edges, fmt.Sprintf("  %s -> %s [color=%q, penwidth=1.5, style=dotted];\n",
					dotID(c.Name), node(i), t.EdgeInjected))
				continue
			}
			edges = append(edges, fmt.Sprintf("  %s -> %s [color=%q, style=dotted];\n",
				dotID(c.Name), node(i), t.EdgeInterface))
		}
	}

	names := make([]string, 0, len(external))
	for name := range external {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s [shape=plaintext, style=\"\", label=<%s>, fontcolor=%q];\n",
			dotID(name), dotEscape(simpleName(name)), t.ExternalText)
	}
	b.WriteByte('\n')
	for _, e := range edges {
		b.WriteString(e)
	}
	b.WriteString("}\n")
	return b.String()
}

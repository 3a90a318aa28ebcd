package main

import (
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zboralski/lattice"
	lrender "github.com/zboralski/lattice/render"

	"deobinject/internal/bytecode"
	"deobinject/internal/callgraph"
	"deobinject/internal/classfile"
	"deobinject/internal/output"
	"deobinject/internal/render"
)

var graphCmd = &cobra.Command{
	Use:   "graph <classes>",
	Short: "Render call graphs, class graphs, hierarchies and method CFGs as DOT",
	Long: `Kinds:
  callgraph  method call graph of the group (lattice)
  classgraph aggregated calls between classes
  hierarchy  superclasses and interfaces
  cfg        basic blocks of --method, or of every method of --class
  summary    calls and strings of every method of --class`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := output.LoadGroup(args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		kind, _ := f.GetString("kind")
		outDir, _ := f.GetString("out")
		external, _ := f.GetBool("external")
		maxNodes, _ := f.GetInt("max-nodes")
		class, _ := f.GetString("class")
		method, _ := f.GetString("method")
		minBlocks, _ := f.GetInt("min-blocks")

		var dot string
		name := kind
		switch kind {
		case "callgraph":
			dot = lrender.DOT(callgraph.BuildCallGraph(g, external), args[0])
		case "classgraph":
			dot = render.ClassgraphDOT(g, args[0], render.NASA, maxNodes)
		case "hierarchy":
			dot = render.HierarchyDOT(g, nil, args[0], render.NASA)
		case "cfg":
			if method != "" {
				m, err := findMethod(g, method)
				if err != nil {
					return err
				}
				if m.Code == nil {
					return errors.Errorf("%s has no code", method)
				}
				dot = render.CFGDOT(bytecode.BuildCFG(m.String(), m.Code.Instructions), render.NASA)
				name = m.String()
				break
			}
			cf, err := findClass(g, class)
			if err != nil {
				return err
			}
			cg := &lattice.CFGGraph{}
			for _, m := range cf.Methods {
				fc, n := callgraph.BuildFuncCFG(m)
				if n < minBlocks {
					continue
				}
				cg.Funcs = append(cg.Funcs, fc)
			}
			dot = lrender.DOTCFG(cg, cf.Name)
			name = cf.Name
		case "summary":
			cf, err := findClass(g, class)
			if err != nil {
				return err
			}
			cg := &lattice.CFGGraph{}
			for _, m := range cf.Methods {
				if fc := callgraph.BuildSummaryFuncCFG(m); len(fc.Blocks) > 0 {
					cg.Funcs = append(cg.Funcs, fc)
				}
			}
			dot = lrender.DOTCFG(cg, cf.Name+" summary")
			name = cf.Name + ".summary"
		default:
			return errors.Errorf("unknown graph kind %q", kind)
		}

		if outDir == "" {
			_, err := os.Stdout.WriteString(dot)
			return err
		}
		if err := output.WriteDOT(outDir, name, dot); err != nil {
			return err
		}
		log.WithFields(log.Fields{"kind": kind, "out": outDir}).Info("wrote graph")
		return nil
	},
}

func init() {
	f := graphCmd.Flags()
	f.StringP("kind", "k", "callgraph", "graph kind: callgraph, classgraph, hierarchy, cfg, summary")
	f.StringP("out", "o", "", "write dot/<name>.dot to this directory instead of stdout")
	f.Bool("external", false, "keep calls leaving the group")
	f.Int("max-nodes", 0, "limit classgraph nodes (0 = all)")
	f.String("class", "", "class for cfg and summary")
	f.String("method", "", "method for cfg, as owner.name(desc)")
	f.Int("min-blocks", 1, "skip methods with fewer basic blocks in class cfgs")
}

func findClass(g *classfile.ClassGroup, name string) (*classfile.ClassFile, error) {
	if name == "" {
		return nil, errors.Errorf("--class is required")
	}
	cf := g.FindClass(name)
	if cf == nil {
		return nil, errors.Errorf("no class %s", name)
	}
	return cf, nil
}

// findMethod resolves owner.name(desc). The descriptor may be omitted when
// the name is unique.
func findMethod(g *classfile.ClassGroup, ref string) (*classfile.Method, error) {
	desc := ""
	if i := strings.IndexByte(ref, '('); i >= 0 {
		ref, desc = ref[:i], ref[i:]
	}
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 {
		return nil, errors.Errorf("method %q is not owner.name", ref)
	}
	cf, err := findClass(g, ref[:dot])
	if err != nil {
		return nil, err
	}
	name := ref[dot+1:]
	if desc != "" {
		if m := cf.FindMethod(name, desc); m != nil {
			return m, nil
		}
		return nil, errors.Errorf("no method %s.%s%s", cf.Name, name, desc)
	}
	switch ms := cf.MethodsNamed(name); len(ms) {
	case 0:
		return nil, errors.Errorf("no method %s.%s", cf.Name, name)
	case 1:
		return ms[0], nil
	default:
		return nil, errors.Errorf("%s.%s is overloaded, add the descriptor", cf.Name, name)
	}
}

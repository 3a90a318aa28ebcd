package main

import (
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"deobinject/internal/bytecode"
	"deobinject/internal/classfile"
	"deobinject/internal/deob"
	"deobinject/internal/execution"
	"deobinject/internal/jvmfmt"
	"deobinject/internal/output"
)

var (
	colorClass  = color.New(color.FgHiBlue, color.Bold).SprintFunc()
	colorMember = color.New(color.FgHiWhite).SprintFunc()
	colorExport = color.New(color.FgYellow).SprintFunc()
	colorFaint  = color.New(color.Faint).SprintFunc()
)

var dumpCmd = &cobra.Command{
	Use:   "dump <classes> [class...]",
	Short: "Print classes with their mapping annotations and code listings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := output.LoadGroup(args[0])
		if err != nil {
			return err
		}
		vocab := deob.NewVocabulary(viper.GetString("inject.annotation-package"))
		code, _ := cmd.Flags().GetBool("code")
		outDir, _ := cmd.Flags().GetString("out")

		for _, cf := range g.Classes() {
			if len(args) > 1 && !selected(cf.Name, args[1:]) {
				continue
			}
			dumpClass(cf, vocab, code)
			if outDir == "" {
				continue
			}
			for _, m := range cf.Methods {
				if err := output.WriteListing(outDir, m, multiplierAnnotator(m)); err != nil {
					return err
				}
			}
		}
		if outDir != "" {
			return output.WriteClassesJSON(outDir, g)
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolP("code", "c", false, "print method listings")
	dumpCmd.Flags().String("out", "", "write listings and classes.json to this directory")
}

func selected(name string, filters []string) bool {
	for _, f := range filters {
		if name == f || (strings.HasSuffix(f, "*") && strings.HasPrefix(name, strings.TrimSuffix(f, "*"))) {
			return true
		}
	}
	return false
}

func dumpClass(cf *classfile.ClassFile, vocab *deob.Vocabulary, code bool) {
	header := colorClass(cf.Name)
	if cf.SuperName != "" {
		header += colorFaint(" extends ") + cf.SuperName
	}
	if ifaces := cf.Interfaces(); len(ifaces) > 0 {
		header += colorFaint(" implements ") + strings.Join(ifaces, ", ")
	}
	if name, ok := vocab.ObfuscatedNameOf(cf.Annotations); ok {
		header += colorExport(" @" + name)
	}
	if iface, ok := vocab.ImplementsOf(cf.Annotations); ok {
		header += colorExport(" implements " + iface)
	}
	fmt.Println(header)

	for _, f := range cf.Fields {
		line := fmt.Sprintf("  %s %s", colorMember(f.Name), f.Type)
		line += exportSuffix(vocab, f.Annotations)
		if g, ok := vocab.GetterOf(f.Annotations); ok {
			line += colorExport(fmt.Sprintf(" getter=%d", g.Value))
		}
		fmt.Println(line)
	}
	for _, m := range cf.Methods {
		line := fmt.Sprintf("  %s%s", colorMember(m.Name), m.Desc)
		line += exportSuffix(vocab, m.Annotations)
		if sig, ok := vocab.SignatureOf(m.Annotations); ok && sig.Garbage != "" {
			line += colorExport(" garbage=" + sig.Garbage)
		}
		fmt.Println(line)
		if code && m.Code != nil {
			fmt.Print(indent(bytecode.Listing(m.Code.Instructions, multiplierAnnotator(m)), "    "))
		}
	}
}

func exportSuffix(vocab *deob.Vocabulary, a classfile.Annotations) string {
	var s string
	if name, ok := vocab.ObfuscatedNameOf(a); ok {
		s += colorFaint(" (" + name + ")")
	}
	if exp, ok := vocab.ExportOf(a); ok {
		s += colorExport(" @Export " + exp.Name)
	}
	return s
}

// multiplierAnnotator marks every multiplication of a field read with the
// constant and its modular inverse.
func multiplierAnnotator(m *classfile.Method) bytecode.Annotator {
	notes := make(map[bytecode.Handle]string)
	found, err := execution.FieldMultipliers(m)
	if err != nil {
		log.WithError(err).WithField("method", m.String()).Debug("no multiplier annotations")
	}
	for f, muls := range found {
		for _, mul := range muls {
			g := deob.Getter{Value: mul.Value, Long: f.Type.StackType() == jvmfmt.Long}
			note := fmt.Sprintf("%s * %d", f, mul.Value)
			if inv, err := g.Inverse(); err == nil {
				note += fmt.Sprintf(" (inverse %d)", inv.Value)
			}
			notes[mul.Handle] = note
		}
	}
	return func(h bytecode.Handle, ins *bytecode.Instruction) string {
		return notes[h]
	}
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "")
}

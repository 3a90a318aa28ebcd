package bytecode

import (
	"fmt"
	"strings"

	"deobinject/internal/jvmfmt"
)

// Annotator returns a comment for an instruction, or "".
type Annotator func(h Handle, ins *Instruction) string

// Listing renders the instruction list as stable text output.
// Each line: <pos>: <mnemonic> <operands>  ; <comment>
// Branch targets are printed as list positions. Annotators are checked in
// order; the first non-empty result is used.
func Listing(l *Instructions, annotators ...Annotator) string {
	var b strings.Builder
	for i, h := range l.order {
		ins := l.arena[h]
		name := ins.Op.String()
		if ins.Wide {
			name = "wide " + name
		}
		fmt.Fprintf(&b, "%4d: %-16s", i, name)
		if ops := Operands(l, ins); ops != "" {
			b.WriteByte(' ')
			b.WriteString(ops)
		}
		for _, ann := range annotators {
			if s := ann(h, ins); s != "" {
				fmt.Fprintf(&b, "  ; %s", s)
				break
			}
		}
		b.WriteString("\n")
	}
	for _, e := range l.Handlers {
		end := "end"
		if e.End != NoHandle {
			end = fmt.Sprint(l.IndexOf(e.End))
		}
		catch := e.CatchType
		if catch == "" {
			catch = "any"
		}
		fmt.Fprintf(&b, "  try [%d, %s) -> %d catch %s\n", l.IndexOf(e.Start), end, l.IndexOf(e.Handler), catch)
	}
	return b.String()
}

// Operands renders the operands of ins.
func Operands(l *Instructions, ins *Instruction) string {
	switch ins.Op.Format() {
	case FmtByte, FmtShort:
		return fmt.Sprint(ins.Int)
	case FmtNewArray:
		return fmt.Sprint(arrayTypeName(ins.Int))
	case FmtLocal:
		return fmt.Sprint(ins.Local)
	case FmtIinc:
		return fmt.Sprintf("%d %d", ins.Local, ins.Int)
	case FmtPool8, FmtPool16, FmtInvokeInterface, FmtInvokeDynamic:
		return EntryString(ins.Ref)
	case FmtMultiANewArray:
		return fmt.Sprintf("%s %d", EntryString(ins.Ref), ins.Int)
	case FmtBranch16, FmtBranch32:
		return fmt.Sprintf("-> %d", l.IndexOf(ins.Target))
	case FmtTableSwitch, FmtLookupSwitch:
		var parts []string
		for i, t := range ins.Targets {
			key := ins.Low + int32(i)
			if ins.Op == Lookupswitch {
				key = ins.Keys[i]
			}
			parts = append(parts, fmt.Sprintf("%d: %d", key, l.IndexOf(t)))
		}
		parts = append(parts, fmt.Sprintf("default: %d", l.IndexOf(ins.Default)))
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return ""
}

// EntryString renders a pool entry the way listings show it.
func EntryString(e jvmfmt.Entry) string {
	switch v := e.(type) {
	case nil:
		return "<nil>"
	case jvmfmt.IntegerInfo:
		return fmt.Sprint(v.Value)
	case jvmfmt.LongInfo:
		return fmt.Sprintf("%dL", v.Value)
	case jvmfmt.FloatInfo:
		return fmt.Sprintf("%gf", v.Value())
	case jvmfmt.DoubleInfo:
		return fmt.Sprintf("%gd", v.Value())
	case jvmfmt.StringInfo:
		return fmt.Sprintf("%q", v.Value)
	case jvmfmt.ClassInfo:
		return v.Name
	case jvmfmt.FieldRef:
		return fmt.Sprintf("%s.%s %s", v.Class, v.Name, v.Type)
	case jvmfmt.MethodRef:
		return fmt.Sprintf("%s.%s%s", v.Class, v.Name, v.Desc)
	case jvmfmt.InterfaceMethodRef:
		return fmt.Sprintf("%s.%s%s", v.Class, v.Name, v.Desc)
	case jvmfmt.MethodType:
		return v.Desc
	case jvmfmt.MethodHandle:
		return fmt.Sprintf("handle(%d) %s", v.Kind, EntryString(v.Ref))
	case jvmfmt.InvokeDynamic:
		return fmt.Sprintf("#%d:%s%s", v.Bootstrap, v.Name, v.Desc)
	case jvmfmt.Dynamic:
		return fmt.Sprintf("#%d:%s %s", v.Bootstrap, v.Name, v.Desc)
	}
	return fmt.Sprintf("%v", e)
}

// ArrayType returns the descriptor for a newarray atype code.
func ArrayType(atype int32) (jvmfmt.Type, bool) {
	switch atype {
	case 4:
		return jvmfmt.Boolean, true
	case 5:
		return jvmfmt.Char, true
	case 6:
		return jvmfmt.Float, true
	case 7:
		return jvmfmt.Double, true
	case 8:
		return jvmfmt.Byte, true
	case 9:
		return jvmfmt.Short, true
	case 10:
		return jvmfmt.Int, true
	case 11:
		return jvmfmt.Long, true
	}
	return "", false
}

func arrayTypeName(atype int32) string {
	if t, ok := ArrayType(atype); ok {
		return string(t)
	}
	return fmt.Sprintf("atype(%d)", atype)
}

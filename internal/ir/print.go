package ir

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes f in the textual IR format accepted by the parser.
//
//	func name(%a int) %ret int {
//	entry:
//	  %x = alloc int
//	  store %x, %t
//	  condbr %c, then, else
//	}
func Fprint(w io.Writer, f *Func) {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%%%s %s", p.Name, p.Type.Deref())
	}
	fmt.Fprintf(w, "func %s(%s)", f.Name, strings.Join(params, ", "))
	if f.Result != nil {
		fmt.Fprintf(w, " %%%s %s", f.Result.Name, f.Result.Type.Deref())
	}
	fmt.Fprintf(w, " {\n")
	for _, inst := range f.Instrs {
		if inst.Kind == KindLabel {
			fmt.Fprintf(w, "%s:\n", inst.Name)
			continue
		}
		fmt.Fprintf(w, "  %s\n", FormatInstr(inst))
	}
	fmt.Fprintf(w, "}\n")
}

// FprintFile writes every global and function of file.
func FprintFile(w io.Writer, file *File) {
	for _, g := range file.Globals {
		fmt.Fprintf(w, "global @%s %s\n", g.Name, g.Type)
	}
	for i, f := range file.Funcs {
		if i > 0 || len(file.Globals) > 0 {
			fmt.Fprintln(w)
		}
		Fprint(w, f)
	}
}

// Sprint returns the textual form of f.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}

// FormatInstr renders a single instruction.
func FormatInstr(inst *Instr) string {
	var sb strings.Builder
	if inst.HasResult() {
		fmt.Fprintf(&sb, "%%%s = ", inst.Name)
	}
	switch inst.Kind {
	case KindLabel:
		return inst.Name + ":"
	case KindAlloc:
		fmt.Fprintf(&sb, "alloc %s", inst.Type.Deref())
	case KindLoad:
		fmt.Fprintf(&sb, "load %s", inst.Args[0])
	case KindStore:
		fmt.Fprintf(&sb, "store %s, %s", inst.Args[0], inst.Args[1])
	case KindBinOp:
		fmt.Fprintf(&sb, "%s %s, %s", inst.Op, inst.Args[0], inst.Args[1])
	case KindUnOp:
		fmt.Fprintf(&sb, "%s %s", inst.Op, inst.Args[0])
	case KindIndex:
		fmt.Fprintf(&sb, "index %s, %s", inst.Args[0], inst.Args[1])
	case KindMember:
		fmt.Fprintf(&sb, "member %s, %s, %s", inst.Args[0], inst.Field, inst.Type.Deref())
	case KindCast:
		fmt.Fprintf(&sb, "cast %s to %s", inst.Args[0], inst.Type)
	case KindSelect:
		fmt.Fprintf(&sb, "select %s, %s, %s", inst.Args[0], inst.Args[1], inst.Args[2])
	case KindCall:
		sb.WriteString("call ")
		if inst.HasResult() {
			fmt.Fprintf(&sb, "%s ", inst.Type)
		}
		args := make([]string, len(inst.Args)-1)
		for i, a := range inst.Args[1:] {
			args[i] = a.String()
		}
		fmt.Fprintf(&sb, "%s(%s)", inst.Args[0], strings.Join(args, ", "))
	case KindBr:
		fmt.Fprintf(&sb, "br %s", inst.Targets[0].Name)
	case KindCondBr:
		fmt.Fprintf(&sb, "condbr %s, %s, %s", inst.Args[0], inst.Targets[0].Name, inst.Targets[1].Name)
	case KindRet:
		sb.WriteString("ret")
		if len(inst.Args) > 0 {
			fmt.Fprintf(&sb, " %s", inst.Args[0])
		}
	case KindUnreachable:
		sb.WriteString("unreachable")
	default:
		fmt.Fprintf(&sb, "<%s>", inst.Kind)
	}
	return sb.String()
}

package ssa

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes the SSA representation of a function to w.
//
// Format:
//
//	func name(n int) int:
//	  b0: (entry)
//	    v1 = param <int> [0] {n}
//	    v2 = local <int> v1 {n}
//	    v3 = const <int> [42]
//	    v4 = add <int> v2 v3
//	    ret v4
//
// Values print under their number once numbering ran, under their ID
// before. Control flow and no-value nodes have no "vN =" prefix.
func Fprint(w io.Writer, f *Func) {
	fmt.Fprintf(w, "func %s", f.Name)
	if src := f.Source; src != nil {
		params := make([]string, len(src.Params))
		for i, p := range src.Params {
			params[i] = fmt.Sprintf("%s %s", p.Name, p.Type.Deref())
		}
		fmt.Fprintf(w, "(%s)", strings.Join(params, ", "))
		if src.Result != nil {
			fmt.Fprintf(w, " %s", src.ResultType())
		}
	}
	fmt.Fprintf(w, ":\n")

	for _, b := range f.Blocks {
		fprintBlock(w, b, f)
	}
}

// fprintBlock writes a single block to w.
func fprintBlock(w io.Writer, b *Block, f *Func) {
	label := ""
	if b == f.Entry {
		label = " (entry)"
	}
	if b.Label != nil {
		label += " {" + b.Label.Name + "}"
	}

	predsStr := ""
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, p := range b.Preds {
			preds[i] = p.String()
		}
		predsStr = " <- " + strings.Join(preds, " ")
	}

	fmt.Fprintf(w, "  %s:%s%s\n", b, label, predsStr)

	for _, v := range b.Values {
		fmt.Fprintf(w, "    %s\n", formatValue(v))
	}
}

// formatValue formats a value as a string.
func formatValue(v *Value) string {
	var sb strings.Builder

	name := v.Op.String()
	if v.Op == OpBinary || v.Op == OpUnary {
		name = v.Oper.String()
	}
	if v.ProducesValue() {
		fmt.Fprintf(&sb, "%s = %s", v, name)
	} else {
		sb.WriteString(name)
	}

	if v.Type != nil {
		fmt.Fprintf(&sb, " <%s>", v.Type)
	}

	switch v.Op {
	case OpConst:
		fmt.Fprintf(&sb, " [%s]", v.Const)
	case OpParam:
		fmt.Fprintf(&sb, " [%d]", v.AuxInt)
	}

	for _, arg := range v.Args {
		if arg == nil {
			sb.WriteString(" <nil>")
			continue
		}
		fmt.Fprintf(&sb, " %s", arg)
	}

	switch v.Op {
	case OpFunc, OpGlobal, OpParam, OpMember:
		fmt.Fprintf(&sb, " {%s}", v.Sym)
	case OpLocal, OpPhi:
		if v.Var != nil {
			fmt.Fprintf(&sb, " {%s}", v.Var.Name)
		}
	}

	if v.IsControlFlow() && v.Block != nil && len(v.Block.Succs) > 0 {
		succs := make([]string, len(v.Block.Succs))
		for i, s := range v.Block.Succs {
			succs[i] = s.String()
		}
		fmt.Fprintf(&sb, " -> %s", strings.Join(succs, " "))
	}

	return sb.String()
}

// Sprint returns the SSA representation of a function as a string.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}

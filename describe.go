package gridcalc

import (
	"fmt"
	"strings"
)

// Describe parses a formula and returns a human-readable tree of its
// function calls, operators, references and literals.
// Useful for debugging formulas during development.
func Describe(formula string) (string, error) {
	n, err := ParseFormula(formula)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Formula: ")
	b.WriteString(formula)
	b.WriteByte('\n')
	describeNode(&b, n, 1, DefaultRegistry())
	return b.String(), nil
}

// describeNode recursively writes one line per node, children indented.
func describeNode(b *strings.Builder, n Node, indent int, reg *Registry) {
	prefix := strings.Repeat("  ", indent)
	switch x := n.(type) {
	case *CallNode:
		info := "unknown function"
		if d, ok := reg.Lookup(x.Name); ok {
			info = fmt.Sprintf("%s, %s", d.Category, d.Authority)
			if !d.AcceptsArgs(len(x.Args)) {
				info += fmt.Sprintf(", expects %s args", d.Arity())
			}
		}
		fmt.Fprintf(b, "%scall %s (%s)\n", prefix, x.Name, info)
		for _, a := range x.Args {
			describeNode(b, a, indent+1, reg)
		}
	case *BinaryNode:
		op := x.Op
		if op == " " {
			op = "intersect"
		}
		fmt.Fprintf(b, "%sop %s\n", prefix, op)
		describeNode(b, x.L, indent+1, reg)
		describeNode(b, x.R, indent+1, reg)
	case *UnaryNode:
		fmt.Fprintf(b, "%sprefix %s\n", prefix, x.Op)
		describeNode(b, x.X, indent+1, reg)
	case *PostfixNode:
		fmt.Fprintf(b, "%spostfix %s\n", prefix, x.Op)
		describeNode(b, x.X, indent+1, reg)
	case *ParenNode:
		fmt.Fprintf(b, "%sgroup\n", prefix)
		describeNode(b, x.X, indent+1, reg)
	case *ArrayNode:
		width := 0
		if len(x.Rows) > 0 {
			width = len(x.Rows[0])
		}
		fmt.Fprintf(b, "%sarray %s\n", prefix, Size{Width: width, Height: len(x.Rows)})
		for _, r := range x.Rows {
			for _, item := range r {
				describeNode(b, item, indent+1, reg)
			}
		}
	case *RefNode:
		fmt.Fprintf(b, "%sref %s\n", prefix, x.Ref)
	case *RangeNode:
		if x.Whole {
			fmt.Fprintf(b, "%srange %s (whole)\n", prefix, x.Raw)
		} else {
			fmt.Fprintf(b, "%srange %s %s\n", prefix, x.Area, x.Area.Size())
		}
	case *SheetRefNode:
		fmt.Fprintf(b, "%ssheet ref %s (unsupported)\n", prefix, x.Raw)
	case *NameNode:
		fmt.Fprintf(b, "%sname %s (unresolved)\n", prefix, x.Name)
	case *MissingNode:
		fmt.Fprintf(b, "%smissing\n", prefix)
	case *NumberNode:
		fmt.Fprintf(b, "%snumber %s\n", prefix, x)
	case *TextNode:
		fmt.Fprintf(b, "%stext %s\n", prefix, x)
	case *BoolNode:
		fmt.Fprintf(b, "%sbool %s\n", prefix, x)
	case *ErrorNode:
		fmt.Fprintf(b, "%serror %s\n", prefix, x)
	}
}

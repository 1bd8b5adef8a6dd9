package gridcalc

import (
	"strconv"
	"strings"
)

// Node is a parsed formula expression. String renders canonical formula text
// for the node, which is also what procedures see as an argument's text.
type Node interface {
	String() string
	node()
}

// NumberNode is a numeric literal.
type NumberNode struct {
	Value float64
	Raw   string
}

// TextNode is a quoted text literal.
type TextNode struct {
	Value string
}

// BoolNode is TRUE or FALSE.
type BoolNode struct {
	Value bool
}

// ErrorNode is an error literal such as #N/A.
type ErrorNode struct {
	Code ErrorCode
}

// RefNode is a single-cell reference.
type RefNode struct {
	Ref CellRef
	Raw string
}

// RangeNode is a rectangular reference. Whole is set for column (A:C) and
// row (1:3) ranges, which are clipped to the grid when read.
type RangeNode struct {
	Area  AreaRef
	Whole bool
	Raw   string
}

// SheetRefNode is a sheet-qualified reference; grids have one sheet so it never resolves.
type SheetRefNode struct {
	Raw string
}

// NameNode is an identifier that is neither a reference nor a literal.
type NameNode struct {
	Name string
}

// MissingNode is an omitted argument, as in IF(A1,,0).
type MissingNode struct{}

// UnaryNode is a prefix operator.
type UnaryNode struct {
	Op string
	X  Node
}

// PostfixNode is the percent operator.
type PostfixNode struct {
	Op string
	X  Node
}

// BinaryNode is an infix operator. Op " " is range intersection.
type BinaryNode struct {
	Op   string
	L, R Node
}

// ParenNode is a parenthesized subexpression.
type ParenNode struct {
	X Node
}

// CallNode is a function call. Name is upper case without any _xlfn. prefix.
type CallNode struct {
	Name string
	Args []Node
}

// ArrayNode is an array constant such as {1,2;3,4}.
type ArrayNode struct {
	Rows [][]Node
}

func (*NumberNode) node()   {}
func (*TextNode) node()     {}
func (*BoolNode) node()     {}
func (*ErrorNode) node()    {}
func (*RefNode) node()      {}
func (*RangeNode) node()    {}
func (*SheetRefNode) node() {}
func (*NameNode) node()     {}
func (*MissingNode) node()  {}
func (*UnaryNode) node()    {}
func (*PostfixNode) node()  {}
func (*BinaryNode) node()   {}
func (*ParenNode) node()    {}
func (*CallNode) node()     {}
func (*ArrayNode) node()    {}

func (n *NumberNode) String() string {
	if n.Raw != "" {
		return n.Raw
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n *TextNode) String() string {
	return `"` + strings.ReplaceAll(n.Value, `"`, `""`) + `"`
}

func (n *BoolNode) String() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

func (n *ErrorNode) String() string    { return string(n.Code) }
func (n *RefNode) String() string      { return n.Raw }
func (n *RangeNode) String() string    { return n.Raw }
func (n *SheetRefNode) String() string { return n.Raw }
func (n *NameNode) String() string     { return n.Name }
func (n *MissingNode) String() string  { return "" }
func (n *UnaryNode) String() string    { return n.Op + n.X.String() }
func (n *PostfixNode) String() string  { return n.X.String() + n.Op }
func (n *ParenNode) String() string    { return "(" + n.X.String() + ")" }

func (n *BinaryNode) String() string {
	return n.L.String() + n.Op + n.R.String()
}

func (n *CallNode) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ",") + ")"
}

func (n *ArrayNode) String() string {
	rows := make([]string, len(n.Rows))
	for i, r := range n.Rows {
		items := make([]string, len(r))
		for j, x := range r {
			items[j] = x.String()
		}
		rows[i] = strings.Join(items, ",")
	}
	return "{" + strings.Join(rows, ";") + "}"
}

// Walk visits n and its children depth-first. Returning false from fn skips
// the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *UnaryNode:
		Walk(x.X, fn)
	case *PostfixNode:
		Walk(x.X, fn)
	case *ParenNode:
		Walk(x.X, fn)
	case *BinaryNode:
		Walk(x.L, fn)
		Walk(x.R, fn)
	case *CallNode:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case *ArrayNode:
		for _, r := range x.Rows {
			for _, item := range r {
				Walk(item, fn)
			}
		}
	}
}

// Calls returns the upper-case names of every function called in n, in first-seen order.
func Calls(n Node) []string {
	seen := make(map[string]bool)
	var names []string
	Walk(n, func(x Node) bool {
		if c, ok := x.(*CallNode); ok && !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
		return true
	})
	return names
}

// References returns every area read by n. Single-cell references become one-cell areas.
func References(n Node) []AreaRef {
	var refs []AreaRef
	Walk(n, func(x Node) bool {
		switch r := x.(type) {
		case *RefNode:
			refs = append(refs, AreaRef{First: r.Ref, Last: r.Ref})
		case *RangeNode:
			refs = append(refs, r.Area)
		}
		return true
	})
	return refs
}

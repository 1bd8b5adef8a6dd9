package gridcalc

import (
	"math"
)

// eval computes a node. Range references and array constants evaluate to
// array values; everything else to scalars.
func (ctx *EvalContext) eval(n Node) Value {
	switch x := n.(type) {
	case nil, *MissingNode:
		return Empty()
	case *NumberNode:
		return Number(x.Value)
	case *TextNode:
		return Text(x.Value)
	case *BoolNode:
		return Bool(x.Value)
	case *ErrorNode:
		return ErrorOf(x.Code)
	case *NameNode:
		return ErrorOf(ErrName)
	case *SheetRefNode:
		return ErrorOf(ErrRef)
	case *RefNode:
		return ctx.grid.Value(x.Ref)
	case *RangeNode:
		return ctx.rangeValue(x)
	case *ParenNode:
		return ctx.eval(x.X)
	case *UnaryNode:
		return mapArray(ctx.eval(x.X), func(v Value) Value { return unaryOp(x.Op, v) })
	case *PostfixNode:
		return mapArray(ctx.eval(x.X), percentOp)
	case *BinaryNode:
		return ctx.binary(x)
	case *CallNode:
		return ctx.call(x)
	case *ArrayNode:
		rows := make([][]Value, len(x.Rows))
		for i, r := range x.Rows {
			rows[i] = make([]Value, len(r))
			for j, item := range r {
				rows[i][j] = ctx.eval(item).Scalar()
			}
		}
		return Array(rows)
	}
	return ErrorOf(ErrValue)
}

func (ctx *EvalContext) rangeValue(r *RangeNode) Value {
	area := ctx.clip(r)
	if !ctx.grid.InBounds(area.First) || !ctx.grid.InBounds(area.Last) {
		return ErrorOf(ErrRef)
	}
	rows := make([][]Value, 0, area.Size().Height)
	for row := area.First.Row; row <= area.Last.Row; row++ {
		line := make([]Value, 0, area.Size().Width)
		for col := area.First.Col; col <= area.Last.Col; col++ {
			line = append(line, ctx.grid.Value(CellRef{Row: row, Col: col}))
		}
		rows = append(rows, line)
	}
	return Array(rows)
}

func (ctx *EvalContext) call(n *CallNode) Value {
	d, ok := ctx.env.registry.Lookup(n.Name)
	if !ok {
		return ErrorOf(ErrName)
	}
	if !d.AcceptsArgs(len(n.Args)) {
		return ErrorOf(ErrValue)
	}
	args := make([]Arg, len(n.Args))
	for i, a := range n.Args {
		args[i] = Arg{Text: a.String(), node: a}
	}
	return d.Fn(ctx, args)
}

func (ctx *EvalContext) binary(n *BinaryNode) Value {
	if n.Op == " " {
		return ErrorOf(ErrNull)
	}
	l := ctx.eval(n.L)
	r := ctx.eval(n.R)
	if l.Kind == KindArray || r.Kind == KindArray {
		return broadcast(l, r, func(a, b Value) Value { return binaryOp(n.Op, a, b) })
	}
	return binaryOp(n.Op, l, r)
}

func mapArray(v Value, f func(Value) Value) Value {
	if v.Kind != KindArray {
		return f(v)
	}
	rows := make([][]Value, len(v.Array))
	for i, r := range v.Array {
		rows[i] = make([]Value, len(r))
		for j, x := range r {
			rows[i][j] = f(x)
		}
	}
	return Array(rows)
}

func dims(v Value) (rows, cols int) {
	if v.Kind != KindArray {
		return 1, 1
	}
	if len(v.Array) == 0 {
		return 0, 0
	}
	return len(v.Array), len(v.Array[0])
}

// pick returns element (i, j) of v, repeating single rows and columns.
func pick(v Value, i, j int) Value {
	if v.Kind != KindArray {
		return v
	}
	h, w := dims(v)
	if h == 1 {
		i = 0
	}
	if w == 1 {
		j = 0
	}
	if i >= h || j >= w {
		return ErrorOf(ErrNA)
	}
	return v.Array[i][j]
}

// broadcast applies f element-wise over two operands of possibly different shapes.
func broadcast(l, r Value, f func(a, b Value) Value) Value {
	lh, lw := dims(l)
	rh, rw := dims(r)
	h, w := max(lh, rh), max(lw, rw)
	rows := make([][]Value, h)
	for i := range rows {
		rows[i] = make([]Value, w)
		for j := range rows[i] {
			rows[i][j] = f(pick(l, i, j), pick(r, i, j))
		}
	}
	return Array(rows)
}

func unaryOp(op string, v Value) Value {
	if v.IsError() {
		return v
	}
	f, err := ToNumber(v)
	if err != nil {
		return ErrorValue(err)
	}
	if op == "-" {
		return Number(-f)
	}
	return Number(f)
}

func percentOp(v Value) Value {
	if v.IsError() {
		return v
	}
	f, err := ToNumber(v)
	if err != nil {
		return ErrorValue(err)
	}
	return Number(f / 100)
}

func binaryOp(op string, a, b Value) Value {
	if a.IsError() {
		return a
	}
	if b.IsError() {
		return b
	}
	switch op {
	case "=", "<>", "<", ">", "<=", ">=":
		return Bool(compareOp(op, compareValues(a, b)))
	case "&":
		x, err := ToText(a)
		if err != nil {
			return ErrorValue(err)
		}
		y, err := ToText(b)
		if err != nil {
			return ErrorValue(err)
		}
		return Text(x + y)
	}
	return arithmetic(op, a, b)
}

func compareOp(op string, c int) bool {
	switch op {
	case "=":
		return c == 0
	case "<>":
		return c != 0
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	}
	return c >= 0
}

func arithmetic(op string, a, b Value) Value {
	x, err := ToNumber(a)
	if err != nil {
		return ErrorValue(err)
	}
	y, err := ToNumber(b)
	if err != nil {
		return ErrorValue(err)
	}

	var r float64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		if y == 0 {
			return ErrorOf(ErrDiv0)
		}
		r = x / y
	case "^":
		if x == 0 && y == 0 {
			return ErrorOf(ErrNum)
		}
		if x == 0 && y < 0 {
			return ErrorOf(ErrDiv0)
		}
		r = math.Pow(x, y)
	default:
		return ErrorOf(ErrValue)
	}

	// Shifting a date by a number of days stays a date.
	aDate, bDate := a.Kind == KindDate, b.Kind == KindDate
	if (op == "+" && aDate != bDate) || (op == "-" && aDate && !bDate) {
		if r >= 0 && r < maxDateSerial+1 {
			return Date(SerialDate(r))
		}
	}
	return Number(r)
}

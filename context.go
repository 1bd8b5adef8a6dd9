package gridcalc

import (
	"math"
	"time"
)

// environment is the calculator state shared by every evaluation.
type environment struct {
	registry *Registry
	now      func() time.Time
	random   func() float64
	criteria *criteriaEvaluator
}

// EvalContext is the read-only view a procedure gets of the grid and the
// cell being computed.
type EvalContext struct {
	Row int // 0-based row of the formula cell
	Col int // 0-based column of the formula cell

	grid *Grid
	env  *environment
}

func newEvalContext(g *Grid, row, col int, env *environment) *EvalContext {
	return &EvalContext{Row: row, Col: col, grid: g, env: env}
}

// Arg is one unevaluated function argument.
type Arg struct {
	Text string // canonical source text of the argument
	node Node
}

// Missing reports whether the argument was omitted, as the middle one in IF(A1,,0).
func (a Arg) Missing() bool {
	_, ok := a.node.(*MissingNode)
	return ok
}

// Cell returns the address of the formula cell.
func (ctx *EvalContext) Cell() CellRef {
	return CellRef{Row: ctx.Row, Col: ctx.Col}
}

// Now returns the calculator clock's current time.
func (ctx *EvalContext) Now() time.Time {
	return ctx.env.now()
}

// Random returns a value in [0, 1) from the calculator's random source.
func (ctx *EvalContext) Random() float64 {
	return ctx.env.random()
}

// GetCellValue returns the value at address, or #REF! when the address is
// malformed or outside the grid.
func (ctx *EvalContext) GetCellValue(address string) Value {
	ref, err := ParseCellRef(address)
	if err != nil {
		return ErrorOf(ErrRef)
	}
	return ctx.grid.Value(ref)
}

// GetRangeValues returns the row-major values of a range like "A1:C3".
// Blank cells are kept as Empty values. A range reaching outside the grid
// returns ErrRef.
func (ctx *EvalContext) GetRangeValues(rng string) ([]Value, error) {
	area, err := ParseAreaRef(rng)
	if err != nil {
		return nil, ErrRef
	}
	if !ctx.grid.InBounds(area.First) || !ctx.grid.InBounds(area.Last) {
		return nil, ErrRef
	}
	values := make([]Value, 0, area.Size().Width*area.Size().Height)
	for _, ref := range area.Cells() {
		values = append(values, ctx.grid.Value(ref))
	}
	return values, nil
}

// Value evaluates an argument to a scalar. Arrays collapse to their top-left element.
func (ctx *EvalContext) Value(a Arg) Value {
	return ctx.eval(a.node).Scalar()
}

// Eval evaluates an argument without collapsing arrays.
func (ctx *EvalContext) Eval(a Arg) Value {
	return ctx.eval(a.node)
}

// Number evaluates an argument and coerces it to a number.
func (ctx *EvalContext) Number(a Arg) (float64, error) {
	return ToNumber(ctx.Value(a))
}

// Int evaluates an argument to a number truncated toward zero and clamped to the int32 range.
func (ctx *EvalContext) Int(a Arg) (int, error) {
	f, err := ctx.Number(a)
	if err != nil {
		return 0, err
	}
	return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Trunc(f)))), nil
}

// Text evaluates an argument and coerces it to text.
func (ctx *EvalContext) Text(a Arg) (string, error) {
	return ToText(ctx.Value(a))
}

// Bool evaluates an argument and coerces it to a logical.
func (ctx *EvalContext) Bool(a Arg) (bool, error) {
	return ToBool(ctx.Value(a))
}

// Values evaluates an argument and flattens it row-major. A scalar yields one value.
func (ctx *EvalContext) Values(a Arg) []Value {
	v := ctx.eval(a.node)
	if v.Kind != KindArray {
		return []Value{v}
	}
	var out []Value
	for _, row := range v.Array {
		out = append(out, row...)
	}
	return out
}

// Matrix evaluates an argument to rows of values. A scalar yields a 1x1 matrix.
func (ctx *EvalContext) Matrix(a Arg) [][]Value {
	v := ctx.eval(a.node)
	if v.Kind != KindArray {
		return [][]Value{{v}}
	}
	return v.Array
}

// IsReference reports whether the argument is a cell or range reference,
// ignoring surrounding parentheses.
func (ctx *EvalContext) IsReference(a Arg) bool {
	_, ok := ctx.Area(a)
	return ok
}

// Area returns the area an argument refers to, clipped to the grid for whole
// rows and columns.
func (ctx *EvalContext) Area(a Arg) (AreaRef, bool) {
	n := a.node
	for {
		p, ok := n.(*ParenNode)
		if !ok {
			break
		}
		n = p.X
	}
	switch r := n.(type) {
	case *RefNode:
		return AreaRef{First: r.Ref, Last: r.Ref}, true
	case *RangeNode:
		return ctx.clip(r), true
	}
	return AreaRef{}, false
}

func (ctx *EvalContext) clip(r *RangeNode) AreaRef {
	if !r.Whole {
		return r.Area
	}
	area := r.Area
	area.Last.Row = min(area.Last.Row, ctx.grid.Rows()-1)
	area.Last.Col = min(area.Last.Col, ctx.grid.Cols()-1)
	return area
}

// match reports whether v satisfies a COUNTIF-style criterion.
func (ctx *EvalContext) match(c criterion, v Value) bool {
	return ctx.env.criteria.Match(c, v)
}

package gridcalc

import (
	"strings"
)

// Cell holds one value and, optionally, the formula that produced it.
type Cell struct {
	Value   Value
	Formula string // original formula text including the leading '='
}

// HasFormula reports whether the cell is driven by a formula.
func (c Cell) HasFormula() bool {
	return c.Formula != ""
}

// ParseInput interprets text the way a user typing into a cell would:
// a leading '=' makes a formula, otherwise numbers, TRUE/FALSE, error
// sentinels and text are recognized.
func ParseInput(s string) Cell {
	if strings.HasPrefix(s, "=") && len(s) > 1 {
		return Cell{Formula: s}
	}
	return Cell{Value: ParseLiteral(s)}
}

// ParseLiteral converts non-formula input text into a typed value.
func ParseLiteral(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Empty()
	}
	if strings.HasPrefix(s, "'") {
		return Text(s[1:])
	}
	if f, ok := parseNumberText(trimmed); ok {
		return Number(f)
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}
	if code, ok := ParseErrorCode(trimmed); ok {
		return ErrorOf(code)
	}
	return Text(s)
}

// Grid is a rectangular collection of cells. Every row has the same
// number of columns.
type Grid struct {
	rows [][]Cell
	cols int
}

// NewGrid creates an empty grid of the given size.
func NewGrid(rows, cols int) *Grid {
	g := &Grid{rows: make([][]Cell, rows), cols: cols}
	for i := range g.rows {
		g.rows[i] = make([]Cell, cols)
	}
	return g
}

// GridFromRows builds a grid from cells, padding short rows with empty cells.
func GridFromRows(rows [][]Cell) *Grid {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	g := NewGrid(len(rows), cols)
	for i, r := range rows {
		copy(g.rows[i], r)
	}
	return g
}

// GridFromInput builds a grid from user input text, one string per cell.
func GridFromInput(rows [][]string) *Grid {
	cells := make([][]Cell, len(rows))
	for i, r := range rows {
		cells[i] = make([]Cell, len(r))
		for j, s := range r {
			cells[i][j] = ParseInput(s)
		}
	}
	return GridFromRows(cells)
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return len(g.rows) }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether the reference addresses a cell of this grid.
func (g *Grid) InBounds(ref CellRef) bool {
	return ref.Row >= 0 && ref.Col >= 0 && ref.Row < len(g.rows) && ref.Col < g.cols
}

// Cell returns the cell at ref, or false when ref is outside the grid.
func (g *Grid) Cell(ref CellRef) (Cell, bool) {
	if !g.InBounds(ref) {
		return Cell{}, false
	}
	return g.rows[ref.Row][ref.Col], true
}

// Value returns the value at ref, or #REF! when ref is outside the grid.
func (g *Grid) Value(ref CellRef) Value {
	c, ok := g.Cell(ref)
	if !ok {
		return ErrorOf(ErrRef)
	}
	return c.Value
}

// Set replaces the cell at ref. Out-of-bounds writes are ignored and reported as false.
func (g *Grid) Set(ref CellRef, c Cell) bool {
	if !g.InBounds(ref) {
		return false
	}
	g.rows[ref.Row][ref.Col] = c
	return true
}

// SetInput replaces the cell at the given address with parsed user input.
func (g *Grid) SetInput(address, input string) error {
	ref, err := ParseCellRef(address)
	if err != nil {
		return err
	}
	if !g.Set(ref, ParseInput(input)) {
		return ErrRef
	}
	return nil
}

// setValue updates only the value of the cell at ref, keeping its formula.
func (g *Grid) setValue(ref CellRef, v Value) {
	if g.InBounds(ref) {
		g.rows[ref.Row][ref.Col].Value = v
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{rows: make([][]Cell, len(g.rows)), cols: g.cols}
	for i, r := range g.rows {
		c.rows[i] = make([]Cell, len(r))
		copy(c.rows[i], r)
	}
	return c
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(ref CellRef, c Cell)) {
	for i, r := range g.rows {
		for j, c := range r {
			fn(CellRef{Row: i, Col: j}, c)
		}
	}
}

// FormulaCells returns the references of every formula cell in row-major order.
func (g *Grid) FormulaCells() []CellRef {
	var refs []CellRef
	g.Each(func(ref CellRef, c Cell) {
		if c.HasFormula() {
			refs = append(refs, ref)
		}
	})
	return refs
}

// Values returns a copy of every cell value in row-major rows.
func (g *Grid) Values() [][]Value {
	out := make([][]Value, len(g.rows))
	for i, r := range g.rows {
		out[i] = make([]Value, len(r))
		for j, c := range r {
			out[i][j] = c.Value
		}
	}
	return out
}

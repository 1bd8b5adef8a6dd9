package gridcalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned when text is not a letters-then-digits cell address.
var ErrInvalidAddress = errors.New("invalid cell address")

// ErrInvalidRange is returned when text is not two addresses joined by ':'.
var ErrInvalidRange = errors.New("invalid range")

// CellRef represents a single cell position in a grid.
type CellRef struct {
	Row int // 0-based row index
	Col int // 0-based column index
}

// NewCellRef creates a CellRef with explicit row, col.
func NewCellRef(row, col int) CellRef {
	return CellRef{Row: row, Col: col}
}

// ParseCellRef parses a cell reference string like "A1" or "$B$12".
// A sheet-qualified reference ("Sheet1!A1") is rejected: grids have a single sheet.
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("%w: empty reference", ErrInvalidAddress)
	}
	if strings.Contains(s, "!") {
		return CellRef{}, fmt.Errorf("%w: sheet-qualified reference %q", ErrInvalidAddress, s)
	}

	col, row, err := parseCellName(strings.ReplaceAll(s, "$", ""))
	if err != nil {
		return CellRef{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	return CellRef{Row: row, Col: col}, nil
}

// ParseAddress converts an address like "B12" into 0-based (column, row) coordinates.
func ParseAddress(address string) (col, row int, err error) {
	ref, err := ParseCellRef(address)
	if err != nil {
		return 0, 0, err
	}
	return ref.Col, ref.Row, nil
}

// FormatAddress formats 0-based coordinates as an address like "B12".
func FormatAddress(row, col int) string {
	return ColToName(col) + strconv.Itoa(row+1)
}

// parseCellName parses "A1" into col=0, row=0.
func parseCellName(name string) (col, row int, err error) {
	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("expected letters followed by digits")
	}

	col, err = NameToCol(name[:i])
	if err != nil {
		return 0, 0, err
	}

	rowNum := 0
	for _, ch := range name[i:] {
		if ch < '0' || ch > '9' {
			return 0, 0, fmt.Errorf("invalid row in cell name")
		}
		rowNum = rowNum*10 + int(ch-'0')
		if rowNum > maxRows {
			return 0, 0, fmt.Errorf("row out of range")
		}
	}
	if rowNum < 1 {
		return 0, 0, fmt.Errorf("row numbers start at 1")
	}

	return col, rowNum - 1, nil
}

// maxRows and maxCols bound addresses to the Excel sheet size.
const (
	maxRows = 1048576
	maxCols = 16384
)

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the CellRef as "A1".
func (c CellRef) String() string {
	return FormatAddress(c.Row, c.Col)
}

// Offset returns the reference moved by the given number of rows and columns.
func (c CellRef) Offset(rows, cols int) CellRef {
	return CellRef{Row: c.Row + rows, Col: c.Col + cols}
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	result := ""
	col++
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
		if col > maxCols {
			return 0, fmt.Errorf("column out of range: %q", name)
		}
	}
	return col - 1, nil
}

// AreaRef represents a rectangular area defined by two cell references.
// First is always the top-left corner and Last the bottom-right one.
type AreaRef struct {
	First CellRef
	Last  CellRef
}

// NewAreaRef creates a normalized AreaRef from two corner references.
func NewAreaRef(a, b CellRef) AreaRef {
	return AreaRef{
		First: CellRef{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		Last:  CellRef{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

// ParseRange splits a range like "A1:C5" into its two corner references,
// in the order written.
func ParseRange(s string) (start, end CellRef, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return CellRef{}, CellRef{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	start, err = ParseCellRef(parts[0])
	if err != nil {
		return CellRef{}, CellRef{}, fmt.Errorf("%w %q: %w", ErrInvalidRange, s, err)
	}
	end, err = ParseCellRef(parts[1])
	if err != nil {
		return CellRef{}, CellRef{}, fmt.Errorf("%w %q: %w", ErrInvalidRange, s, err)
	}
	return start, end, nil
}

// ParseAreaRef parses a range like "A1:C5" into a normalized AreaRef.
// A single address yields a one-cell area.
func ParseAreaRef(s string) (AreaRef, error) {
	if !strings.Contains(s, ":") {
		ref, err := ParseCellRef(s)
		if err != nil {
			return AreaRef{}, err
		}
		return AreaRef{First: ref, Last: ref}, nil
	}
	start, end, err := ParseRange(s)
	if err != nil {
		return AreaRef{}, err
	}
	return NewAreaRef(start, end), nil
}

// String formats the AreaRef as "A1:C5".
func (a AreaRef) String() string {
	return a.First.String() + ":" + a.Last.String()
}

// Size returns the dimensions of the area.
func (a AreaRef) Size() Size {
	return Size{
		Width:  a.Last.Col - a.First.Col + 1,
		Height: a.Last.Row - a.First.Row + 1,
	}
}

// Contains returns true if the given cell reference is within this area.
func (a AreaRef) Contains(ref CellRef) bool {
	return ref.Row >= a.First.Row && ref.Row <= a.Last.Row &&
		ref.Col >= a.First.Col && ref.Col <= a.Last.Col
}

// Cells returns every reference in the area in row-major order.
func (a AreaRef) Cells() []CellRef {
	size := a.Size()
	refs := make([]CellRef, 0, size.Width*size.Height)
	for row := a.First.Row; row <= a.Last.Row; row++ {
		for col := a.First.Col; col <= a.Last.Col; col++ {
			refs = append(refs, CellRef{Row: row, Col: col})
		}
	}
	return refs
}

// Size represents width (columns) and height (rows).
type Size struct {
	Width  int
	Height int
}

// String formats the Size as "(WxH)".
func (s Size) String() string {
	return fmt.Sprintf("(%dx%d)", s.Width, s.Height)
}

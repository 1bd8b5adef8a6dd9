package gridcalc

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook loads one sheet of an xlsx file into a grid. An empty sheet
// name selects the first sheet. Formulas are kept; cached values become the
// cells' starting values.
func ReadWorkbook(path, sheet string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

// ReadWorkbookFrom is ReadWorkbook for an xlsx stream.
func ReadWorkbookFrom(r io.Reader, sheet string) (*Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (*Grid, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("read workbook: no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
	}

	// GetRows drops trailing blanks, so formula cells without a cached value
	// are only found through the sheet dimension.
	height, width := len(rows), 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if dim, err := f.GetSheetDimension(sheet); err == nil && dim != "" {
		if area, err := ParseAreaRef(dim); err == nil {
			height = max(height, area.Last.Row+1)
			width = max(width, area.Last.Col+1)
		}
	}

	g := NewGrid(height, width)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			raw := ""
			if r < len(rows) && c < len(rows[r]) {
				raw = rows[r][c]
			}
			name := FormatAddress(r, c)
			formula, err := f.GetCellFormula(sheet, name)
			if err != nil {
				return nil, fmt.Errorf("read formula %s!%s: %w", sheet, name, err)
			}
			cell := Cell{Value: ParseLiteral(raw)}
			if formula != "" {
				cell.Formula = "=" + strings.TrimPrefix(formula, "=")
			} else if typ, _ := f.GetCellType(sheet, name); typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
				cell.Value = Text(raw)
			}
			g.Set(CellRef{Row: r, Col: c}, cell)
		}
	}
	return g, nil
}

// WriteWorkbook writes g as a one-sheet xlsx file. Formula cells keep their
// formula with the current value cached, and the workbook asks spreadsheet
// applications to recalculate on open.
func WriteWorkbook(w io.Writer, g *Grid, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()
	if sheet == "" {
		sheet = engineSheet
	}
	if sheet != engineSheet {
		if err := f.SetSheetName(engineSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet %q: %w", sheet, err)
		}
	}

	var err error
	g.Each(func(ref CellRef, c Cell) {
		if err != nil {
			return
		}
		err = writeCell(f, sheet, ref, c)
	})
	if err != nil {
		return err
	}
	// readSheet sizes the grid from the dimension, which excelize does not
	// maintain on its own; formula cells without a cached value need it.
	if g.Rows() > 0 && g.Cols() > 0 {
		if err := f.SetSheetDimension(sheet, "A1:"+FormatAddress(g.Rows()-1, g.Cols()-1)); err != nil {
			return fmt.Errorf("set dimension: %w", err)
		}
	}

	fullCalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return fmt.Errorf("set calc props: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeCell(f *excelize.File, sheet string, ref CellRef, c Cell) error {
	name := ref.String()
	if !c.Value.IsEmpty() {
		var v any = RenderValue(c.Value)
		if c.Value.Kind == KindDate {
			v = c.Value.Time
		}
		if err := f.SetCellValue(sheet, name, v); err != nil {
			return fmt.Errorf("write cell %s: %w", name, err)
		}
	}
	if c.HasFormula() {
		// The value is written first: setting a value clears any formula.
		if err := f.SetCellFormula(sheet, name, strings.TrimPrefix(c.Formula, "=")); err != nil {
			return fmt.Errorf("write formula %s: %w", name, err)
		}
	}
	return nil
}

package gridcalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Formula marks an engine input cell as formula text (with or without '=').
type Formula string

// CalcOptions tunes an engine run.
type CalcOptions struct {
	Precision         int  // significant digits kept in numeric results
	MaxCalcIterations uint // iteration limit for circular references
}

// Engine is an external calculator that resolves a whole matrix at once.
// Input cells hold float64, string, bool, nil or Formula; the result has the
// same shape, with plain input cells echoed back.
type Engine interface {
	Calculate(cells [][]any, opts CalcOptions) ([][]Value, error)
}

// engineSheet is the worksheet every engine run writes to.
const engineSheet = "Sheet1"

// ExcelizeEngine evaluates formulas with excelize's calculation engine in an
// in-memory workbook.
type ExcelizeEngine struct{}

// NewExcelizeEngine returns an engine backed by excelize.
func NewExcelizeEngine() *ExcelizeEngine {
	return &ExcelizeEngine{}
}

// Calculate writes cells into a fresh workbook and reads every formula back.
func (e *ExcelizeEngine) Calculate(cells [][]any, opts CalcOptions) ([][]Value, error) {
	f := excelize.NewFile(excelize.Options{MaxCalcIterations: opts.MaxCalcIterations})
	defer f.Close()

	for r, row := range cells {
		for c, v := range row {
			if v == nil {
				continue
			}
			name := FormatAddress(r, c)
			var err error
			switch x := v.(type) {
			case Formula:
				err = f.SetCellFormula(engineSheet, name, strings.TrimPrefix(string(x), "="))
			default:
				err = f.SetCellValue(engineSheet, name, x)
			}
			if err != nil {
				return nil, fmt.Errorf("write engine cell %s: %w", name, err)
			}
		}
	}

	out := make([][]Value, len(cells))
	for r, row := range cells {
		out[r] = make([]Value, len(row))
		for c, v := range row {
			if _, ok := v.(Formula); !ok {
				out[r][c] = engineInputValue(v)
				continue
			}
			name := FormatAddress(r, c)
			raw, err := f.CalcCellValue(engineSheet, name, excelize.Options{
				RawCellValue:      true,
				MaxCalcIterations: opts.MaxCalcIterations,
			})
			if err != nil {
				// excelize reports spreadsheet errors both in the result and as err.
				if code, ok := ParseErrorCode(strings.TrimSpace(raw)); ok {
					out[r][c] = ErrorOf(code)
					continue
				}
				if code, ok := ParseErrorCode(err.Error()); ok {
					out[r][c] = ErrorOf(code)
					continue
				}
				out[r][c] = ErrorOf(ErrValue)
				continue
			}
			out[r][c] = engineResult(raw, opts.Precision)
		}
	}
	return out, nil
}

func engineInputValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Empty()
	case float64:
		return Number(x)
	case bool:
		return Bool(x)
	case string:
		return Text(x)
	}
	return ErrorOf(ErrValue)
}

// engineResult converts a raw engine string back into a typed value.
func engineResult(raw string, precision int) Value {
	if raw == "" {
		return Empty()
	}
	if code, ok := ParseErrorCode(raw); ok {
		return ErrorOf(code)
	}
	switch raw {
	case "TRUE":
		return Bool(true)
	case "FALSE":
		return Bool(false)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(roundSignificant(f, precision))
	}
	return Text(raw)
}

// engineInput converts a grid into the matrix an Engine consumes.
func engineInput(g *Grid) [][]any {
	cells := make([][]any, g.Rows())
	for r := range cells {
		cells[r] = make([]any, g.Cols())
	}
	g.Each(func(ref CellRef, c Cell) {
		if c.HasFormula() {
			cells[ref.Row][ref.Col] = Formula(c.Formula)
			return
		}
		switch v := c.Value; v.Kind {
		case KindNumber:
			cells[ref.Row][ref.Col] = v.Num
		case KindDate:
			cells[ref.Row][ref.Col] = DateSerial(v.Time)
		case KindBool:
			cells[ref.Row][ref.Col] = v.Bool
		case KindText:
			cells[ref.Row][ref.Col] = v.Str
		case KindError:
			cells[ref.Row][ref.Col] = string(v.Err)
		}
	})
	return cells
}

package gridcalc

// StyleHints are presentation suggestions for a rendered cell.
type StyleHints struct {
	Align        string `json:"align,omitempty"`        // "right" for numbers and dates
	Error        bool   `json:"error,omitempty"`        // the value is an error sentinel
	NumberFormat string `json:"numberFormat,omitempty"` // display format for dates
}

// RenderCell is the shape handed to grid renderers.
type RenderCell struct {
	Value   any         `json:"value"`
	Formula string      `json:"formula,omitempty"`
	Style   *StyleHints `json:"style,omitempty"`
}

// Render converts every cell into its display shape.
func (g *Grid) Render() [][]RenderCell {
	out := make([][]RenderCell, g.Rows())
	for i := range out {
		out[i] = make([]RenderCell, g.Cols())
	}
	g.Each(func(ref CellRef, c Cell) {
		out[ref.Row][ref.Col] = RenderCell{
			Value:   RenderValue(c.Value),
			Formula: c.Formula,
			Style:   styleHints(c.Value),
		}
	})
	return out
}

// RenderValue converts a value into a plain Go value: float64 for numbers,
// bool, string for text, errors and dates, nil for blanks.
func RenderValue(v Value) any {
	switch v.Kind {
	case KindEmpty:
		return nil
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	}
	return v.String()
}

func styleHints(v Value) *StyleHints {
	switch v.Kind {
	case KindNumber:
		return &StyleHints{Align: "right"}
	case KindDate:
		format := "yyyy-mm-dd"
		if DateSerial(v.Time) != float64(int64(DateSerial(v.Time))) {
			format = "yyyy-mm-dd hh:mm:ss"
		}
		return &StyleHints{Align: "right", NumberFormat: format}
	case KindError:
		return &StyleHints{Error: true}
	}
	return nil
}

package gridcalc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// inputCell is one cell of the JSON grid shape [[{"value": …, "formula": …}]].
// A bare scalar is accepted in place of the object.
type inputCell struct {
	Value   any    `json:"value"`
	Formula string `json:"formula,omitempty"`
}

func (c *inputCell) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		type plain inputCell
		return json.Unmarshal(data, (*plain)(c))
	}
	return json.Unmarshal(data, &c.Value)
}

func (c inputCell) cell() Cell {
	if f := strings.TrimSpace(c.Formula); f != "" {
		if !strings.HasPrefix(f, "=") {
			f = "=" + f
		}
		return Cell{Formula: f}
	}
	switch v := c.Value.(type) {
	case float64:
		return Cell{Value: Number(v)}
	case bool:
		return Cell{Value: Bool(v)}
	case string:
		return ParseInput(v)
	}
	return Cell{}
}

// DecodeGrid reads a grid in the JSON shape produced by grid-generating
// services. Short rows are padded with blank cells.
func DecodeGrid(r io.Reader) (*Grid, error) {
	var rows [][]inputCell
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, len(row))
		for j, c := range row {
			cells[i][j] = c.cell()
		}
	}
	return GridFromRows(cells), nil
}

// EncodeGrid writes g in the same JSON shape DecodeGrid reads, values
// rendered as by RenderValue.
func EncodeGrid(w io.Writer, g *Grid) error {
	rows := make([][]inputCell, g.Rows())
	for i := range rows {
		rows[i] = make([]inputCell, g.Cols())
	}
	g.Each(func(ref CellRef, c Cell) {
		rows[ref.Row][ref.Col] = inputCell{Value: RenderValue(c.Value), Formula: c.Formula}
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode grid: %w", err)
	}
	return nil
}

// ParseAssignment splits "A1=42" into an address and input text, as used to
// override inputs from the command line.
func ParseAssignment(s string) (address, input string, err error) {
	address, input, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("assignment %q: want ADDRESS=VALUE", s)
	}
	address = strings.TrimSpace(address)
	if _, err := ParseCellRef(address); err != nil {
		return "", "", fmt.Errorf("assignment %q: %w", s, err)
	}
	return address, input, nil
}

package gridcalc

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGrid(t *testing.T) {
	in := `[
		[1, "x", {"formula": "A1+1"}, {"value": "=A1*2"}, true, null],
		[{"value": 2.5, "formula": "=A1"}]
	]`
	g, err := DecodeGrid(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 6, g.Cols())

	assertValue(t, Number(1), valueAt(t, g, "A1"))
	assertValue(t, Text("x"), valueAt(t, g, "B1"))
	assertValue(t, Bool(true), valueAt(t, g, "E1"))
	assert.True(t, valueAt(t, g, "F1").IsEmpty())
	assert.True(t, valueAt(t, g, "B2").IsEmpty())

	for address, want := range map[string]string{"C1": "=A1+1", "D1": "=A1*2", "A2": "=A1"} {
		ref, err := ParseCellRef(address)
		require.NoError(t, err)
		cell, _ := g.Cell(ref)
		assert.Equal(t, want, cell.Formula, address)
		assert.True(t, cell.Value.IsEmpty(), address)
	}
}

func TestDecodeGrid_Invalid(t *testing.T) {
	_, err := DecodeGrid(strings.NewReader(`{"not": "rows"}`))
	assert.ErrorContains(t, err, "decode grid")
}

func TestEncodeGrid_RoundTrip(t *testing.T) {
	res := recalc(t, [][]string{{"1", "=A1+1", "text", ""}})

	var buf bytes.Buffer
	require.NoError(t, EncodeGrid(&buf, res.Grid))
	assert.Contains(t, buf.String(), `"formula": "=A1+1"`)
	assert.Contains(t, buf.String(), `"value": 2`)

	g, err := DecodeGrid(&buf)
	require.NoError(t, err)
	assertValue(t, Number(1), valueAt(t, g, "A1"))
	assertValue(t, Text("text"), valueAt(t, g, "C1"))
	assert.True(t, valueAt(t, g, "D1").IsEmpty())

	assert.True(t, valueAt(t, g, "B1").IsEmpty())
	res2, err := newTestCalculator().Recalculate(g)
	require.NoError(t, err)
	assertValue(t, Number(2), valueAt(t, res2.Grid, "B1"))
}

func TestParseAssignment(t *testing.T) {
	address, input, err := ParseAssignment("A1=42")
	require.NoError(t, err)
	assert.Equal(t, "A1", address)
	assert.Equal(t, "42", input)

	address, input, err = ParseAssignment("B2==SUM(A1:A2)")
	require.NoError(t, err)
	assert.Equal(t, "B2", address)
	assert.Equal(t, "=SUM(A1:A2)", input)

	_, _, err = ParseAssignment("42")
	assert.ErrorContains(t, err, "want ADDRESS=VALUE")

	_, _, err = ParseAssignment("Sheet1!A1=1")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestGrid_Render(t *testing.T) {
	g := GridFromInput([][]string{{"1.5", "x", "", "#N/A", "=A1*2"}})
	res, err := newTestCalculator().Recalculate(g)
	require.NoError(t, err)
	cells := res.Grid.Render()
	require.Len(t, cells, 1)
	row := cells[0]

	assert.Equal(t, RenderCell{Value: 1.5, Style: &StyleHints{Align: "right"}}, row[0])
	assert.Equal(t, RenderCell{Value: "x"}, row[1])
	assert.Equal(t, RenderCell{}, row[2])
	assert.Equal(t, RenderCell{Value: "#N/A", Style: &StyleHints{Error: true}}, row[3])
	assert.Equal(t, RenderCell{Value: 3.0, Formula: "=A1*2", Style: &StyleHints{Align: "right"}}, row[4])
}

func TestRenderValue_Dates(t *testing.T) {
	day := Date(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	noon := Date(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-03-15", RenderValue(day))
	assert.Equal(t, "2024-03-15 12:00:00", RenderValue(noon))
	assert.Equal(t, &StyleHints{Align: "right", NumberFormat: "yyyy-mm-dd"}, styleHints(day))
	assert.Equal(t, &StyleHints{Align: "right", NumberFormat: "yyyy-mm-dd hh:mm:ss"}, styleHints(noon))
	assert.Equal(t, true, RenderValue(Bool(true)))
	assert.Nil(t, RenderValue(Empty()))
	assert.Nil(t, styleHints(Text("x")))
}

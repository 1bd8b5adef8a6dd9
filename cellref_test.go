package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellRef_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want CellRef
	}{
		{"A1", CellRef{Row: 0, Col: 0}},
		{"$B$12", CellRef{Row: 11, Col: 1}},
		{"aa3", CellRef{Row: 2, Col: 26}},
		{" C5 ", CellRef{Row: 4, Col: 2}},
		{"XFD1048576", CellRef{Row: 1048575, Col: 16383}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCellRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCellRef_Invalid(t *testing.T) {
	for _, in := range []string{"", "1A", "A0", "A", "12", "Sheet1!A1", "A1B", "XFE1", "A1048577"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCellRef(in)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestParseAddress_ColumnRow(t *testing.T) {
	col, row, err := ParseAddress("D7")
	require.NoError(t, err)
	assert.Equal(t, 3, col)
	assert.Equal(t, 6, row)
	assert.Equal(t, "D7", FormatAddress(row, col))
}

func TestFormatAddress_RoundTrip(t *testing.T) {
	rows := []int{0, 1, 8, 9, 99, 65535, maxRows - 2, maxRows - 1}
	cols := []int{0, 1, 24, 25, 26, 27, 51, 52, 700, 701, 702, 703, maxCols - 2, maxCols - 1}
	for _, row := range rows {
		for _, col := range cols {
			address := FormatAddress(row, col)
			gotCol, gotRow, err := ParseAddress(address)
			require.NoError(t, err, address)
			assert.Equal(t, col, gotCol, address)
			assert.Equal(t, row, gotRow, address)
			assert.Equal(t, address, FormatAddress(gotRow, gotCol))
		}
	}

	assert.Equal(t, "XFD1048576", FormatAddress(maxRows-1, maxCols-1))
	_, _, err := ParseAddress(FormatAddress(maxRows, 0))
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, _, err = ParseAddress(FormatAddress(0, maxCols))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestColToName_RoundTrip(t *testing.T) {
	assert.Equal(t, "A", ColToName(0))
	assert.Equal(t, "Z", ColToName(25))
	assert.Equal(t, "AA", ColToName(26))
	assert.Equal(t, "AAA", ColToName(702))

	for col := 0; col < 2000; col++ {
		got, err := NameToCol(ColToName(col))
		require.NoError(t, err)
		require.Equal(t, col, got)
	}
}

func TestNameToCol_Invalid(t *testing.T) {
	for _, in := range []string{"", "A1", "ZZZZ"} {
		_, err := NameToCol(in)
		assert.Error(t, err, in)
	}
}

func TestParseRange_KeepsWrittenOrder(t *testing.T) {
	start, end, err := ParseRange("C5:A1")
	require.NoError(t, err)
	assert.Equal(t, "C5", start.String())
	assert.Equal(t, "A1", end.String())

	area, err := ParseAreaRef("C5:A1")
	require.NoError(t, err)
	assert.Equal(t, "A1:C5", area.String())
	assert.Equal(t, Size{Width: 3, Height: 5}, area.Size())
}

func TestParseRange_Invalid(t *testing.T) {
	for _, in := range []string{"A1", "A1:B2:C3", "A1:", "A1:??"} {
		t.Run(in, func(t *testing.T) {
			_, _, err := ParseRange(in)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestParseAreaRef_SingleCell(t *testing.T) {
	area, err := ParseAreaRef("B2")
	require.NoError(t, err)
	assert.Equal(t, area.First, area.Last)
	assert.Equal(t, "(1x1)", area.Size().String())
}

func TestAreaRef_CellsRowMajor(t *testing.T) {
	area := NewAreaRef(NewCellRef(2, 2), NewCellRef(1, 1))
	var names []string
	for _, ref := range area.Cells() {
		names = append(names, ref.String())
	}
	assert.Equal(t, []string{"B2", "C2", "B3", "C3"}, names)
	assert.True(t, area.Contains(NewCellRef(1, 2)))
	assert.False(t, area.Contains(NewCellRef(0, 1)))
}

func TestCellRef_Offset(t *testing.T) {
	assert.Equal(t, "C4", NewCellRef(0, 0).Offset(3, 2).String())
}

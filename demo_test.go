package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemos_AllRecalculate(t *testing.T) {
	demos := Demos()
	require.NotEmpty(t, demos)
	calc := newTestCalculator()
	for _, d := range demos {
		t.Run(d.Function, func(t *testing.T) {
			assert.NotEmpty(t, d.Description)
			_, ok := calc.Registry().Lookup(d.Function)
			assert.True(t, ok, "demo for unregistered function")

			focus, err := d.FocusRef()
			require.NoError(t, err)
			cell, ok := d.Grid().Cell(focus)
			require.True(t, ok)
			assert.True(t, cell.HasFormula(), "focus %s has no formula", d.Focus)

			assert.Empty(t, Validate(d.Grid(), nil))
			res, err := calc.Recalculate(d.Grid())
			require.NoError(t, err)
			res.Grid.Each(func(ref CellRef, c Cell) {
				if c.Value.IsError() {
					assert.NotEqual(t, ErrName, c.Value.Err, ref.String())
					assert.NotEqual(t, ErrRef, c.Value.Err, ref.String())
				}
			})
		})
	}
}

func TestDemos_FocusValues(t *testing.T) {
	cases := []struct {
		function string
		want     Value
	}{
		{"SUM", Number(60)},
		{"COUNTIF", Number(3)},
		{"VLOOKUP", Text("鈴木")},
		{"HLOOKUP", Number(200)},
		{"LOOKUP", Text("D")},
		{"IFERROR", Text("n/a")},
		{"TEXT", Text("1,234.50")},
		{"DATEDIF", Number(3)},
		{"NETWORKDAYS", Number(23)},
		{"TODAY", date(2024, 3, 15)},
	}
	calc := newTestCalculator()
	for _, tc := range cases {
		t.Run(tc.function, func(t *testing.T) {
			d, err := LookupDemo(tc.function)
			require.NoError(t, err)
			res, err := calc.Recalculate(d.Grid())
			require.NoError(t, err)
			focus, err := d.FocusRef()
			require.NoError(t, err)
			assertValue(t, tc.want, res.Grid.Value(focus))
		})
	}
}

func TestLookupDemo(t *testing.T) {
	d, err := LookupDemo(" vlookup ")
	require.NoError(t, err)
	assert.Equal(t, "VLOOKUP", d.Function)

	_, err = LookupDemo("NOSUCH")
	assert.ErrorIs(t, err, ErrUnknownDemo)

	list := Demos()
	list[0].Function = "changed"
	assert.NotEqual(t, "changed", Demos()[0].Function)
}

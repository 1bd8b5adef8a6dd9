package gridcalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Operators(t *testing.T) {
	g := GridFromInput([][]string{
		{"4", "x"},
		{"", "2024-01-31"},
	})
	runFormulaCases(t, g, []formulaCase{
		{"=1+2*3", Number(7)},
		{"=(1+2)*3", Number(9)},
		{"=-2^2", Number(4)},
		{"=2^3^2", Number(64)},
		{"=10/4", Number(2.5)},
		{"=1/0", ErrorOf(ErrDiv0)},
		{"=0^0", ErrorOf(ErrNum)},
		{"=50%", Number(0.5)},
		{"=--\"5\"", Number(5)},
		{`="a"&1`, Text("a1")},
		{`=1&TRUE`, Text("1TRUE")},
		{"=1=1", Bool(true)},
		{`="abc"="ABC"`, Bool(true)},
		{`=1<"a"`, Bool(true)},
		{`="a"<TRUE`, Bool(true)},
		{"=A2=0", Bool(true)},
		{`=A2=""`, Bool(true)},
		{"=A1*A2", Number(0)},
		{`="x"+1`, ErrorOf(ErrValue)},
		{"=B1+1", ErrorOf(ErrValue)},
		{"=#N/A+1", ErrorOf(ErrNA)},
		{"=1+#DIV/0!", ErrorOf(ErrDiv0)},
		{"=A1 B1", ErrorOf(ErrNull)},
	})
}

func TestEvaluate_FailuresBecomeErrorValues(t *testing.T) {
	g := GridFromInput([][]string{{"1"}})
	runFormulaCases(t, g, []formulaCase{
		{"=NOSUCH(1)", ErrorOf(ErrName)},
		{"=undefined_name", ErrorOf(ErrName)},
		{"=SUM(", ErrorOf(ErrName)},
		{"=ABS(1,2)", ErrorOf(ErrValue)},
		{"=Z99", ErrorOf(ErrRef)},
		{"=SUM(A1:C3)", ErrorOf(ErrRef)},
		{"=Sheet2!A1", ErrorOf(ErrRef)},
		{"=SUM(A:A)", Number(1)},
	})
}

func TestEvaluate_DateArithmetic(t *testing.T) {
	calc := newTestCalculator()
	assertValue(t, date(2024, time.February, 1), calc.Evaluate("=DATE(2024,1,31)+1", nil, 0, 0))
	assertValue(t, Number(29), calc.Evaluate("=DATE(2024,3,1)-DATE(2024,2,1)", nil, 0, 0))
	assertValue(t, date(2024, time.January, 25), calc.Evaluate("=DATE(2024,2,1)-7", nil, 0, 0))
}

func TestEvaluate_ArrayResultKeepsTopLeft(t *testing.T) {
	g := GridFromInput([][]string{{"3", "4"}})
	calc := newTestCalculator()
	assertValue(t, Number(30), calc.Evaluate("=A1:B1*10", g, 0, 0))
	assertValue(t, Number(1), calc.Evaluate("={1,2;3,4}", nil, 0, 0))
}

func TestEvaluate_BlankResultIsZero(t *testing.T) {
	g := GridFromInput([][]string{{"", "=A1"}})
	assertValue(t, Number(0), newTestCalculator().Evaluate("=A1", g, 0, 1))
}

func TestEvaluate_DoesNotModifyGrid(t *testing.T) {
	g := GridFromInput([][]string{{"1", "=A1+1"}})
	newTestCalculator().Evaluate("=B1", g, 0, 0)
	assert.True(t, g.Value(NewCellRef(0, 1)).IsEmpty())
}

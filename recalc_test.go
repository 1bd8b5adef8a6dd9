package gridcalc

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculate_Graph(t *testing.T) {
	res := recalc(t, [][]string{
		{"=B1+1", "=C1+1", "1"},
		{"=SUM(A1:C1)", "=A2*2", ""},
	})
	assert.Equal(t, ModeGraph, res.Mode)
	assert.Equal(t, 1, res.Passes)
	assert.True(t, res.Converged)
	assert.Empty(t, res.Cycles)
	assertValue(t, Number(3), valueAt(t, res.Grid, "A1"))
	assertValue(t, Number(2), valueAt(t, res.Grid, "B1"))
	assertValue(t, Number(6), valueAt(t, res.Grid, "A2"))
	assertValue(t, Number(12), valueAt(t, res.Grid, "B2"))
}

func TestRecalculate_GraphMarksCycles(t *testing.T) {
	res := recalc(t, [][]string{
		{"=B1", "=A1", "=A1+1", "5", "=D1+1"},
		{"=A2+1", "", "", "", ""},
	})
	assertValue(t, ErrorOf(ErrCycle), valueAt(t, res.Grid, "A1"))
	assertValue(t, ErrorOf(ErrCycle), valueAt(t, res.Grid, "B1"))
	assertValue(t, ErrorOf(ErrCycle), valueAt(t, res.Grid, "C1"))
	assertValue(t, Number(5), valueAt(t, res.Grid, "D1"))
	assertValue(t, Number(6), valueAt(t, res.Grid, "E1"))
	assertValue(t, ErrorOf(ErrCycle), valueAt(t, res.Grid, "A2"))
	require.Len(t, res.Cycles, 2)
	assert.Equal(t, refs(t, "A1", "B1"), res.Cycles[0])
	assert.Equal(t, refs(t, "A2"), res.Cycles[1])
}

func TestRecalculate_CellFailuresStayLocal(t *testing.T) {
	res := recalc(t, [][]string{
		{"=NOSUCH(1)", "=1/0", "=SUM(", "=IFERROR(B1,0)", "=A1"},
	})
	assertValue(t, ErrorOf(ErrName), valueAt(t, res.Grid, "A1"))
	assertValue(t, ErrorOf(ErrDiv0), valueAt(t, res.Grid, "B1"))
	assertValue(t, ErrorOf(ErrName), valueAt(t, res.Grid, "C1"))
	assertValue(t, Number(0), valueAt(t, res.Grid, "D1"))
	assertValue(t, ErrorOf(ErrName), valueAt(t, res.Grid, "E1"))
}

func TestRecalculate_DoesNotModifyInput(t *testing.T) {
	g := GridFromInput([][]string{{"1", "=A1+1"}})
	res, err := newTestCalculator().Recalculate(g)
	require.NoError(t, err)
	assertValue(t, Number(2), valueAt(t, res.Grid, "B1"))
	assert.True(t, valueAt(t, g, "B1").IsEmpty())
	cell, _ := res.Grid.Cell(NewCellRef(0, 1))
	assert.Equal(t, "=A1+1", cell.Formula)
}

func TestRecalculate_NilGrid(t *testing.T) {
	_, err := newTestCalculator().Recalculate(nil)
	assert.ErrorIs(t, err, ErrNilGrid)
}

func TestRecalculate_FixedPoint(t *testing.T) {
	rows := [][]string{{"=B1+1", "=C1+1", "1"}}

	res := recalc(t, rows, WithMode(ModeFixedPoint))
	assert.True(t, res.Converged)
	assert.Equal(t, 3, res.Passes)
	assertValue(t, Number(3), valueAt(t, res.Grid, "A1"))

	res = recalc(t, rows, WithMode(ModeFixedPoint), WithMaxPasses(2))
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Passes)
	assertValue(t, Number(3), valueAt(t, res.Grid, "A1"))

	// Row-major order sees values computed earlier in the same pass.
	res = recalc(t, [][]string{{"1", "=A1+1", "=B1+1"}}, WithMode(ModeFixedPoint))
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Passes)
	assertValue(t, Number(3), valueAt(t, res.Grid, "C1"))
}

func TestRecalculate_FixedPointIsIdempotent(t *testing.T) {
	calc := newTestCalculator(WithMode(ModeFixedPoint))
	first, err := calc.Recalculate(GridFromInput([][]string{
		{"=B1+1", "=C1*2", "4"},
		{"=SUM(A1:C1)", `=IF(A2>10,"big","small")`, "=A2/0"},
	}))
	require.NoError(t, err)
	require.True(t, first.Converged)

	second, err := calc.Recalculate(first.Grid)
	require.NoError(t, err)
	assert.True(t, second.Converged)
	assert.Equal(t, 1, second.Passes)
	if diff := cmp.Diff(first.Grid.Render(), second.Grid.Render()); diff != "" {
		t.Errorf("second recalculation changed the grid (-first +second):\n%s", diff)
	}
}

func TestRecalculate_FixedPointVolatileConverges(t *testing.T) {
	n := 0.0
	counter := func() float64 {
		n += 0.1
		return n
	}
	res := recalc(t, [][]string{{"=RAND()", "=A1*2"}}, WithMode(ModeFixedPoint), WithRandom(counter))
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Passes)
	assertValue(t, Number(0.1), valueAt(t, res.Grid, "A1"))
	assertValue(t, Number(0.2), valueAt(t, res.Grid, "B1"))
}

func TestRecalculate_FixedPointCycleExhaustsBudget(t *testing.T) {
	res := recalc(t, [][]string{{"=B1+1", "=A1+1"}}, WithMode(ModeFixedPoint))
	assert.False(t, res.Converged)
	assert.Equal(t, 10, res.Passes)
	assert.Empty(t, res.Cycles)
	assertValue(t, Number(19), valueAt(t, res.Grid, "A1"))
	assertValue(t, Number(20), valueAt(t, res.Grid, "B1"))
}

// fakeEngine returns canned results and records its input.
type fakeEngine struct {
	out   [][]Value
	err   error
	input [][]any
	opts  CalcOptions
}

func (e *fakeEngine) Calculate(cells [][]any, opts CalcOptions) ([][]Value, error) {
	e.input, e.opts = cells, opts
	return e.out, e.err
}

func TestRecalculate_Delegated(t *testing.T) {
	rows := [][]string{
		{"2", "=A1*10", `=TEXT(B1,"0")`, "=B1+1", `=C1&"!"`, "=A1+1"},
	}
	engine := &fakeEngine{out: [][]Value{{
		Number(2), Number(999), Text("engine"), Number(1000), Text("engine"), ErrorOf(ErrName),
	}}}
	res := recalc(t, rows, WithMode(ModeDelegated), WithEngine(engine), WithPrecision(12))

	assert.False(t, res.Fallback)
	assert.Equal(t, 2, res.Delegated)
	assertValue(t, Number(999), valueAt(t, res.Grid, "B1"))
	assertValue(t, Text("999"), valueAt(t, res.Grid, "C1"))
	assertValue(t, Number(1000), valueAt(t, res.Grid, "D1"))
	assertValue(t, Text("999!"), valueAt(t, res.Grid, "E1"))
	assertValue(t, Number(3), valueAt(t, res.Grid, "F1"))

	require.Len(t, engine.input, 1)
	assert.Equal(t, 2.0, engine.input[0][0])
	assert.Equal(t, Formula("=A1*10"), engine.input[0][1])
	assert.Equal(t, 12, engine.opts.Precision)
}

func TestRecalculate_DelegatedKeepsVolatileLocal(t *testing.T) {
	engine := &fakeEngine{out: [][]Value{{Number(0.99), Number(7)}}}
	res := recalc(t, [][]string{{"=RAND()", "=A1*2"}}, WithMode(ModeDelegated), WithEngine(engine))
	assert.Equal(t, 0, res.Delegated)
	assertValue(t, Number(0.5), valueAt(t, res.Grid, "A1"))
	assertValue(t, Number(1), valueAt(t, res.Grid, "B1"))
}

func TestRecalculate_DelegatedMarksCycles(t *testing.T) {
	engine := &fakeEngine{out: [][]Value{{Number(0), Number(0)}}}
	res := recalc(t, [][]string{{"=B1", "=A1"}}, WithMode(ModeDelegated), WithEngine(engine))
	assert.Equal(t, 0, res.Delegated)
	assertValue(t, ErrorOf(ErrCycle), valueAt(t, res.Grid, "A1"))
	assertValue(t, ErrorOf(ErrCycle), valueAt(t, res.Grid, "B1"))
}

func TestRecalculate_DelegatedFallsBack(t *testing.T) {
	rows := [][]string{{"2", "=A1*10"}}
	cases := map[string]*fakeEngine{
		"engine error":   {err: errors.New("boom")},
		"shape mismatch": {out: [][]Value{{Number(1)}}},
	}
	for name, engine := range cases {
		t.Run(name, func(t *testing.T) {
			res := recalc(t, rows, WithMode(ModeDelegated), WithEngine(engine))
			assert.True(t, res.Fallback)
			assert.Equal(t, ModeDelegated, res.Mode)
			assert.Equal(t, 0, res.Delegated)
			assertValue(t, Number(20), valueAt(t, res.Grid, "B1"))
		})
	}
}

func TestRecalculate_DelegatedWithExcelize(t *testing.T) {
	res := recalc(t, [][]string{
		{"1", "2", "=SUM(A1:B1)", `=TEXT(C1,"0.0")`},
	}, WithMode(ModeDelegated))
	assert.False(t, res.Fallback)
	assert.Equal(t, 1, res.Delegated)
	assertValue(t, Number(3), valueAt(t, res.Grid, "C1"))
	assertValue(t, Text("3.0"), valueAt(t, res.Grid, "D1"))
}

func TestRecalculate_RecoversPanics(t *testing.T) {
	r := NewBuiltinRegistry()
	require.NoError(t, r.Register(FormulaDescriptor{
		Name:    "BOOM",
		MaxArgs: Variadic,
		Fn:      func(*EvalContext, []Arg) Value { panic("boom") },
	}))
	res := recalc(t, [][]string{{"=BOOM()", "=A1", "=1+1"}}, WithRegistry(r))
	assertValue(t, ErrorOf(ErrValue), valueAt(t, res.Grid, "A1"))
	assertValue(t, ErrorOf(ErrValue), valueAt(t, res.Grid, "B1"))
	assertValue(t, Number(2), valueAt(t, res.Grid, "C1"))
}

func TestMode_ParseAndString(t *testing.T) {
	for _, m := range []Mode{ModeGraph, ModeFixedPoint, ModeDelegated} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseMode("FIXED")
	require.NoError(t, err)
	assert.Equal(t, ModeFixedPoint, got)

	_, err = ParseMode("iterative")
	assert.Error(t, err)
	assert.Equal(t, "Mode(9)", Mode(9).String())
}

func TestCalculator_ParseCaches(t *testing.T) {
	calc := newTestCalculator()
	a, err := calc.Parse("=SUM(A1:B2)")
	require.NoError(t, err)
	b, err := calc.Parse("=SUM(A1:B2)")
	require.NoError(t, err)
	assert.Same(t, a.(*CallNode), b.(*CallNode))

	_, err = calc.Parse("=SUM(")
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Same(t, DefaultRegistry(), calc.Registry())
}

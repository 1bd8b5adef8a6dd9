package gridcalc

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is the clock every test calculator reads.
var fixedNow = time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCalculator returns a calculator with a fixed clock, a constant
// random source and a discarded log.
func newTestCalculator(opts ...Option) *Calculator {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithRandom(func() float64 { return 0.5 }),
		WithLogger(quietLogger()),
	}
	return New(append(base, opts...)...)
}

// recalc recalculates input rows and fails the test on error.
func recalc(t *testing.T, rows [][]string, opts ...Option) *Result {
	t.Helper()
	res, err := newTestCalculator(opts...).Recalculate(GridFromInput(rows))
	require.NoError(t, err)
	return res
}

// valueAt returns the value at an address of a grid.
func valueAt(t *testing.T, g *Grid, address string) Value {
	t.Helper()
	ref, err := ParseCellRef(address)
	require.NoError(t, err)
	return g.Value(ref)
}

// assertValue compares values, allowing float rounding noise on numbers.
func assertValue(t *testing.T, want, got Value, msgAndArgs ...any) bool {
	t.Helper()
	if want.Kind == KindNumber && got.Kind == KindNumber {
		return assert.InDelta(t, want.Num, got.Num, 1e-9*math.Max(1, math.Abs(want.Num)), msgAndArgs...)
	}
	if !want.Equal(got) {
		return assert.Failf(t, "values differ", "want %s %q, got %s %q %v",
			want.Kind, want.String(), got.Kind, got.String(), msgAndArgs)
	}
	return true
}

type formulaCase struct {
	formula string
	want    Value
}

// runFormulaCases evaluates each formula against g as if it sat in A1.
func runFormulaCases(t *testing.T, g *Grid, cases []formulaCase, opts ...Option) {
	t.Helper()
	calc := newTestCalculator(opts...)
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			assertValue(t, tc.want, calc.Evaluate(tc.formula, g, 0, 0))
		})
	}
}

func date(y int, m time.Month, d int) Value {
	return Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

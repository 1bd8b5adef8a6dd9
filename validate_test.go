package gridcalc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Issues(t *testing.T) {
	g := GridFromInput([][]string{
		{"1", "=NOSUCH(A1)", "=Z9", "=Sheet2!A1"},
		{"=rate+1", "=ABS(1,2)", "=SUM(", "=SUM(A1:E5)"},
		{"=B3", "=A3", "=SUM(A1:A2)", ""},
	})
	issues := Validate(g, nil)

	var got []string
	for _, issue := range issues {
		got = append(got, issue.String())
	}
	require.Len(t, got, 8, strings.Join(got, "\n"))
	assert.Equal(t, "[ERROR] B1: unknown function NOSUCH", got[0])
	assert.Equal(t, "[ERROR] C1: reference Z9 is outside the grid (4x3)", got[1])
	assert.Equal(t, "[ERROR] D1: sheet-qualified reference Sheet2!A1 is not supported", got[2])
	assert.Equal(t, `[ERROR] A2: unresolved name "rate"`, got[3])
	assert.Equal(t, "[WARN] B2: ABS expects 1 arguments, got 2", got[4])
	assert.True(t, strings.HasPrefix(got[5], `[ERROR] C2: invalid formula "=SUM(":`), got[5])
	assert.Equal(t, "[ERROR] D2: range A1:E5 is outside the grid (4x3)", got[6])
	assert.Equal(t, "[WARN] A3: circular reference through A3, B3", got[7])

	assert.Equal(t, SeverityWarning, issues[7].Severity)
	assert.Equal(t, NewCellRef(2, 0), issues[7].CellRef)
}

func TestValidate_CleanGrid(t *testing.T) {
	g := GridFromInput([][]string{
		{"1", "2", "=SUM(A1:B1)", "=IF(C1>2,\"big\",\"small\")"},
	})
	assert.Empty(t, Validate(g, nil))
}

func TestValidate_CustomRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(FormulaDescriptor{
		Name: "ONE", Fn: func(*EvalContext, []Arg) Value { return Number(1) },
	}))
	g := GridFromInput([][]string{{"=ONE()", "=SUM(1)"}})
	issues := Validate(g, r)
	require.Len(t, issues, 1)
	assert.Equal(t, "[ERROR] B1: unknown function SUM", issues[0].String())
}

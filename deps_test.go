package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormulaRefs(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"=A1+B2", []string{"A1", "B2"}},
		{"=SUM($A$1:A3)", []string{"A1", "A2", "A3"}},
		{"=A1+A1*A1:B1", []string{"A1", "B1"}},
		{`="A1"&B1`, []string{"B1"}},
		{"=Sheet2!A1+C3", []string{"C3"}},
		{"=LOG10(100)", []string{}},
		{"=PI()", []string{}},
		{"=a1+$b$2", []string{"A1", "B2"}},
		{"=rate2*A1", []string{"A1"}},
		{"=SUM(Z1:Z3)", []string{}},
		{"=SUM(C4:XFD1048576)", []string{"C4", "D4", "C5", "D5"}},
	}
	bounds := AreaRef{Last: CellRef{Row: 4, Col: 3}}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			assert.Equal(t, tt.want, formulaRefs(tt.formula, bounds))
		})
	}
}

func TestDependencyMap(t *testing.T) {
	g := GridFromInput([][]string{
		{"1", "=A1*2", "=SUM(A1:B1)"},
		{"text", "=PI()", "=SUM(a1:XFD1048576)"},
	})
	want := map[string][]string{
		"B1": {"A1"},
		"C1": {"A1", "B1"},
		"B2": {},
		"C2": {"A1", "B1", "C1", "A2", "B2", "C2"},
	}
	assert.Equal(t, want, DependencyMap(g))
}

package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Tree(t *testing.T) {
	out, err := Describe(`=IF(A1>0,SUM(A1:B3),"x")`)
	require.NoError(t, err)
	want := "Formula: =IF(A1>0,SUM(A1:B3),\"x\")\n" +
		"  call IF (logical, delegated)\n" +
		"    op >\n" +
		"      ref A1\n" +
		"      number 0\n" +
		"    call SUM (math, delegated)\n" +
		"      range A1:B3 (2x3)\n" +
		"    text \"x\"\n"
	assert.Equal(t, want, out)
}

func TestDescribe_Nodes(t *testing.T) {
	tests := []struct {
		formula string
		lines   []string
	}{
		{`=TEXT(1,"0")`, []string{"call TEXT (text, local)"}},
		{"=ABS(1,2)", []string{"call ABS (math, delegated, expects 1 args)"}},
		{"=NOSUCH()", []string{"call NOSUCH (unknown function)"}},
		{"=-(1)", []string{"  prefix -", "    group", "      number 1"}},
		{"=A1%", []string{"postfix %", "ref A1"}},
		{"={1,2;3,4}", []string{"array (2x2)", "number 4"}},
		{"=SUM(A:A)", []string{"range A:A (whole)"}},
		{"=Sheet2!A1", []string{"sheet ref Sheet2!A1 (unsupported)"}},
		{"=rate*2", []string{"name rate (unresolved)"}},
		{"=IF(TRUE,,#N/A)", []string{"bool TRUE", "missing", "error #N/A"}},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			out, err := Describe(tt.formula)
			require.NoError(t, err)
			for _, line := range tt.lines {
				assert.Contains(t, out, line)
			}
		})
	}
}

func TestDescribe_InvalidFormula(t *testing.T) {
	_, err := Describe("=SUM(")
	assert.ErrorIs(t, err, ErrSyntax)
}

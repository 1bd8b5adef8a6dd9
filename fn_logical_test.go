package gridcalc

import "testing"

func TestLogicalFunctions(t *testing.T) {
	g := GridFromInput([][]string{
		{"85", "TRUE", "text"},
		{"0", "FALSE", ""},
	})
	runFormulaCases(t, g, []formulaCase{
		{`=IF(A1>=80,"pass","fail")`, Text("pass")},
		{`=IF(A2,"yes","no")`, Text("no")},
		{`=IF(A1>100,"big")`, Bool(false)},
		{`=IF(A1>0)`, Bool(true)},
		{`=IF(A1,,1)`, Number(0)},
		{`=IF(C1,1,2)`, ErrorOf(ErrValue)},
		{`=IF(TRUE,1,1/0)`, Number(1)},
		{`=IFS(A1>=90,"A",A1>=80,"B",TRUE,"C")`, Text("B")},
		{`=IFS(A1>100,"A")`, ErrorOf(ErrNA)},
		{`=IFS(TRUE)`, ErrorOf(ErrValue)},
		{`=IFERROR(1/0,"div")`, Text("div")},
		{`=IFERROR(5,"div")`, Number(5)},
		{`=IFNA(NA(),"missing")`, Text("missing")},
		{`=IFNA(1/0,"missing")`, ErrorOf(ErrDiv0)},
		{"=AND(TRUE,A1>0)", Bool(true)},
		{"=AND(B1:B2)", Bool(false)},
		{"=AND(B1:C2,TRUE)", Bool(false)},
		{"=OR(B1:B2)", Bool(true)},
		{"=OR(C1:C2)", ErrorOf(ErrValue)},
		{`=AND("x")`, ErrorOf(ErrValue)},
		{"=XOR(TRUE,TRUE,TRUE)", Bool(true)},
		{"=NOT(A2)", Bool(true)},
		{`=SWITCH(2,1,"one",2,"two","other")`, Text("two")},
		{`=SWITCH(9,1,"one","other")`, Text("other")},
		{`=SWITCH(9,1,"one")`, ErrorOf(ErrNA)},
		{`=SWITCH("b","B","upper")`, Text("upper")},
		{"=TRUE()", Bool(true)},
		{"=FALSE()", Bool(false)},
	})
}

func TestInfoFunctions(t *testing.T) {
	g := GridFromInput([][]string{
		{"1", "text", "", "#N/A", "#DIV/0!", "TRUE"},
	})
	runFormulaCases(t, g, []formulaCase{
		{"=ISBLANK(C1)", Bool(true)},
		{"=ISBLANK(A1)", Bool(false)},
		{"=ISNUMBER(A1)", Bool(true)},
		{"=ISNUMBER(B1)", Bool(false)},
		{"=ISNUMBER(DATE(2024,1,1))", Bool(true)},
		{"=ISTEXT(B1)", Bool(true)},
		{"=ISLOGICAL(F1)", Bool(true)},
		{"=ISERROR(D1)", Bool(true)},
		{"=ISERROR(A1)", Bool(false)},
		{"=ISERR(D1)", Bool(false)},
		{"=ISERR(E1)", Bool(true)},
		{"=ISNA(D1)", Bool(true)},
		{"=ISNA(E1)", Bool(false)},
		{"=ISEVEN(4)", Bool(true)},
		{"=ISEVEN(-3)", Bool(false)},
		{"=ISODD(-3.7)", Bool(true)},
		{"=ISODD(F1)", ErrorOf(ErrValue)},
		{"=ISEVEN(B1)", ErrorOf(ErrValue)},
		{"=NA()", ErrorOf(ErrNA)},
	})
}

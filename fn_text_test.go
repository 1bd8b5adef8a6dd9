package gridcalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTextFunctions_Joining(t *testing.T) {
	g := GridFromInput([][]string{{"x", "y", ""}})
	runFormulaCases(t, g, []formulaCase{
		{`=CONCATENATE("a",1,TRUE)`, Text("a1TRUE")},
		{`=CONCAT(A1:B1,"!")`, Text("xy!")},
		{`=TEXTJOIN("-",TRUE,A1:C1)`, Text("x-y")},
		{`=TEXTJOIN("-",FALSE,A1:C1)`, Text("x-y-")},
		{`=CONCATENATE("a",NA())`, ErrorOf(ErrNA)},
	})
}

func TestTextFunctions_Slicing(t *testing.T) {
	runFormulaCases(t, nil, []formulaCase{
		{`=LEFT("hello",2)`, Text("he")},
		{`=LEFT("hello")`, Text("h")},
		{`=LEFT("abc",10)`, Text("abc")},
		{`=LEFT("abc",-1)`, ErrorOf(ErrValue)},
		{`=RIGHT("日本語",2)`, Text("本語")},
		{`=MID("hello",2,3)`, Text("ell")},
		{`=MID("abc",5,1)`, Text("")},
		{`=MID("abc",0,1)`, ErrorOf(ErrValue)},
		{`=LEN("日本語")`, Number(3)},
		{`=LEN(12.5)`, Number(4)},
		{`=REPLACE("abcdef",2,3,"X")`, Text("aXef")},
		{`=REPLACE("abcdef",2,9.2E+18,"X")`, Text("aX")},
		{`=MID("abc",2,1E+20)`, Text("bc")},
	})
}

func TestTextFunctions_Case(t *testing.T) {
	runFormulaCases(t, nil, []formulaCase{
		{`=UPPER("abc")`, Text("ABC")},
		{`=LOWER("AbC")`, Text("abc")},
		{`=PROPER("hello wORLD")`, Text("Hello World")},
		{`=PROPER("o'neil")`, Text("O'Neil")},
		{`=TRIM("  a   b  ")`, Text("a b")},
		{`=EXACT("a","A")`, Bool(false)},
		{`=EXACT("a","a")`, Bool(true)},
	})
}

func TestTextFunctions_Searching(t *testing.T) {
	runFormulaCases(t, nil, []formulaCase{
		{`=SUBSTITUTE("a-b-c","-","+")`, Text("a+b+c")},
		{`=SUBSTITUTE("a-b-c","-","+",2)`, Text("a-b+c")},
		{`=SUBSTITUTE("a-b-c","-","+",5)`, Text("a-b-c")},
		{`=SUBSTITUTE("a-b-c","-","+",0)`, ErrorOf(ErrValue)},
		{`=FIND("B","aBcB")`, Number(2)},
		{`=FIND("B","aBcB",3)`, Number(4)},
		{`=FIND("b","aBcB")`, ErrorOf(ErrValue)},
		{`=FIND("","abc")`, Number(1)},
		{`=SEARCH("b","aBcB")`, Number(2)},
		{`=SEARCH("c*b","aBcB")`, Number(3)},
		{`=SEARCH("語","日本語")`, Number(3)},
		{`=SEARCH("z","abc")`, ErrorOf(ErrValue)},
		{`=REPT("ab",3)`, Text("ababab")},
		{`=REPT("a",-1)`, ErrorOf(ErrValue)},
		{`=REPT("ab",4.7E+18)`, ErrorOf(ErrValue)},
		{`=REPT("ab",16384)`, ErrorOf(ErrValue)},
		{`=REPT("",1E+300)`, Text("")},
	})
}

func TestTextFunctions_Conversion(t *testing.T) {
	runFormulaCases(t, nil, []formulaCase{
		{`=VALUE("1,234")`, Number(1234)},
		{`=VALUE("50%")`, Number(0.5)},
		{`=VALUE("2024-01-01")`, Number(45292)},
		{`=VALUE("abc")`, ErrorOf(ErrValue)},
		{`=TEXT(1234.5,"#,##0.00")`, Text("1,234.50")},
		{`=TEXT(0.256,"0%")`, Text("26%")},
		{`=TEXT(DATE(2024,3,5),"yyyy-mm-dd")`, Text("2024-03-05")},
		{`=TEXT(NA(),"0")`, ErrorOf(ErrNA)},
		{"=CHAR(65)", Text("A")},
		{"=CHAR(0)", ErrorOf(ErrValue)},
		{`=CODE("A")`, Number(65)},
		{`=CODE("")`, ErrorOf(ErrValue)},
	})
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		name   string
		value  Value
		format string
		want   string
	}{
		{"grouped decimals", Number(1234.5), "#,##0.00", "1,234.50"},
		{"large grouping", Number(1234567), "#,##0", "1,234,567"},
		{"percent", Number(0.256), "0%", "26%"},
		{"negative", Number(-5), "0", "-5"},
		{"iso date", Date(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), "yyyy-mm-dd", "2024-03-05"},
		{"logical", Bool(true), "0.00", "TRUE"},
		{"text without text section", Text("abc"), "0.00", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatValue(tc.value, tc.format))
		})
	}
}

package gridcalc

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type criterionKind uint8

const (
	criterionNumber criterionKind = iota
	criterionText
	criterionBool
	criterionBlank
)

// criterion is a parsed COUNTIF-style condition such as ">5", "<>done" or "a*".
type criterion struct {
	op      string // = <> < > <= >=
	kind    criterionKind
	num     float64
	text    string // lower case; a regular expression when wildcard is set
	boolean bool
	wild    bool
}

var criterionOps = []string{">=", "<=", "<>", "=", ">", "<"}

// parseCriterion interprets a criteria argument. Numbers and logicals match by
// equality; text may start with a comparison operator and use * ? ~ wildcards.
func parseCriterion(v Value) criterion {
	switch v.Kind {
	case KindEmpty:
		return criterion{op: "=", kind: criterionBlank}
	case KindNumber, KindDate:
		f, _ := ToNumber(v)
		return criterion{op: "=", kind: criterionNumber, num: f}
	case KindBool:
		return criterion{op: "=", kind: criterionBool, boolean: v.Bool}
	case KindError:
		return criterion{op: "=", kind: criterionText, text: strings.ToLower(string(v.Err))}
	}

	s := v.Str
	op := "="
	for _, candidate := range criterionOps {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			s = s[len(candidate):]
			break
		}
	}
	return operandCriterion(op, s)
}

// equalityCriterion matches values equal to v, honoring wildcards in text but
// never treating a leading operator specially. Lookups use it for exact matches.
func equalityCriterion(v Value) criterion {
	if v.Kind != KindText {
		return parseCriterion(v)
	}
	if v.Str == "" {
		return criterion{op: "=", kind: criterionBlank}
	}
	c := criterion{op: "=", kind: criterionText, text: strings.ToLower(v.Str)}
	if strings.ContainsAny(v.Str, "*?") {
		c.wild = true
		c.text = wildcardPattern(c.text)
	}
	return c
}

func operandCriterion(op, s string) criterion {
	if s == "" {
		return criterion{op: op, kind: criterionBlank}
	}
	if f, ok := parseNumberText(s); ok {
		return criterion{op: op, kind: criterionNumber, num: f}
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return criterion{op: op, kind: criterionBool, boolean: true}
	case "FALSE":
		return criterion{op: op, kind: criterionBool, boolean: false}
	}
	c := criterion{op: op, kind: criterionText, text: strings.ToLower(s)}
	if (op == "=" || op == "<>") && strings.ContainsAny(s, "*?") {
		c.wild = true
		c.text = wildcardPattern(c.text)
	}
	return c
}

// wildcardPattern converts * ? and ~ escapes into an anchored regular expression.
func wildcardPattern(s string) string {
	return "^(?s)" + wildcardBody(s) + "$"
}

// wildcardBody converts * ? and ~ escapes into an unanchored regular expression.
func wildcardBody(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '~' && i+1 < len(runes) && strings.ContainsRune("*?~", runes[i+1]):
			b.WriteString(regexp.QuoteMeta(string(runes[i+1])))
			i++
		case r == '*':
			b.WriteString(".*")
		case r == '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// criteriaEvaluator runs comparisons as compiled expr programs, cached by
// expression text.
type criteriaEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

func newCriteriaEvaluator() *criteriaEvaluator {
	return &criteriaEvaluator{}
}

// Match reports whether v satisfies c.
func (e *criteriaEvaluator) Match(c criterion, v Value) bool {
	v = v.Scalar()
	if v.IsError() {
		if c.kind != criterionText {
			return c.op == "<>"
		}
		v = Text(string(v.Err))
	}

	switch c.kind {
	case criterionBlank:
		blank := v.IsEmpty() || (v.Kind == KindText && v.Str == "")
		switch c.op {
		case "=":
			return blank
		case "<>":
			return !blank
		}
		return false
	case criterionNumber:
		if !v.IsNumeric() {
			return c.op == "<>"
		}
		f, _ := ToNumber(v)
		return e.compare(c.op, f, c.num)
	case criterionBool:
		if v.Kind != KindBool {
			return c.op == "<>"
		}
		return e.compare(c.op, boolRank(v.Bool), boolRank(c.boolean))
	}

	if v.Kind != KindText {
		return c.op == "<>"
	}
	s := strings.ToLower(v.Str)
	if c.wild {
		code := "v matches c"
		if c.op == "<>" {
			code = "not (v matches c)"
		}
		return e.run(code, s, c.text)
	}
	return e.compare(c.op, s, c.text)
}

func boolRank(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var exprOps = map[string]string{"=": "==", "<>": "!=", "<": "<", ">": ">", "<=": "<=", ">=": ">="}

func (e *criteriaEvaluator) compare(op string, v, c any) bool {
	return e.run("v "+exprOps[op]+" c", v, c)
}

func (e *criteriaEvaluator) run(code string, v, c any) bool {
	program, err := e.compile(code)
	if err != nil {
		return false
	}
	out, err := expr.Run(program, map[string]any{"v": v, "c": c})
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

func (e *criteriaEvaluator) compile(code string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(code); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(code, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile criterion %q: %w", code, err)
	}
	e.cache.Store(code, program)
	return program, nil
}

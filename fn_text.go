package gridcalc

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

func textFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		fn("CONCATENATE", CategoryText, 1, Variadic, fnConcatenate),
		fn("CONCAT", CategoryText, 1, Variadic, fnConcat),
		fn("TEXTJOIN", CategoryText, 3, Variadic, fnTextJoin),
		fn("LEFT", CategoryText, 1, 2, fnLeft),
		fn("RIGHT", CategoryText, 1, 2, fnRight),
		fn("MID", CategoryText, 3, 3, fnMid),
		fn("LEN", CategoryText, 1, 1, text1(func(s string) Value { return Number(float64(utf8.RuneCountInString(s))) })),
		fn("UPPER", CategoryText, 1, 1, text1(func(s string) Value { return Text(strings.ToUpper(s)) })),
		fn("LOWER", CategoryText, 1, 1, text1(func(s string) Value { return Text(strings.ToLower(s)) })),
		fn("PROPER", CategoryText, 1, 1, text1(fnProper)),
		fn("TRIM", CategoryText, 1, 1, text1(fnTrim)),
		fn("SUBSTITUTE", CategoryText, 3, 4, fnSubstitute),
		fn("REPLACE", CategoryText, 4, 4, fnReplace),
		fn("FIND", CategoryText, 2, 3, finder(true)),
		fn("SEARCH", CategoryText, 2, 3, finder(false)),
		fn("REPT", CategoryText, 2, 2, fnRept),
		fn("EXACT", CategoryText, 2, 2, fnExact),
		fn("VALUE", CategoryText, 1, 1, fnValue),
		local(fn("TEXT", CategoryText, 2, 2, fnText)),
		fn("CHAR", CategoryText, 1, 1, math1(fnChar)),
		fn("CODE", CategoryText, 1, 1, text1(fnCode)),
	}
}

// maxTextLength is the longest text a cell can hold.
const maxTextLength = 32767

func text1(f func(s string) Value) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		s, err := ctx.Text(args[0])
		if err != nil {
			return ErrorValue(err)
		}
		return f(s)
	}
}

func fnConcatenate(ctx *EvalContext, args []Arg) Value {
	var b strings.Builder
	for _, a := range args {
		s, err := ctx.Text(a)
		if err != nil {
			return ErrorValue(err)
		}
		b.WriteString(s)
	}
	return Text(b.String())
}

func fnConcat(ctx *EvalContext, args []Arg) Value {
	var b strings.Builder
	for _, v := range flatten(ctx, args) {
		s, err := ToText(v)
		if err != nil {
			return ErrorValue(err)
		}
		b.WriteString(s)
	}
	return Text(b.String())
}

func fnTextJoin(ctx *EvalContext, args []Arg) Value {
	delim, err := ctx.Text(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	ignoreEmpty, err := ctx.Bool(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	var parts []string
	for _, v := range flatten(ctx, args[2:]) {
		s, err := ToText(v)
		if err != nil {
			return ErrorValue(err)
		}
		if ignoreEmpty && s == "" {
			continue
		}
		parts = append(parts, s)
	}
	out := strings.Join(parts, delim)
	if utf8.RuneCountInString(out) > maxTextLength {
		return ErrorOf(ErrValue)
	}
	return Text(out)
}

// textCount reads (text, [count=1]) for LEFT and RIGHT.
func textCount(ctx *EvalContext, args []Arg) ([]rune, int, error) {
	s, err := ctx.Text(args[0])
	if err != nil {
		return nil, 0, err
	}
	n, err := optNumber(ctx, args, 1, 1)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		return nil, 0, ErrValue
	}
	return []rune(s), int(n), nil
}

func fnLeft(ctx *EvalContext, args []Arg) Value {
	r, n, err := textCount(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	return Text(string(r[:min(n, len(r))]))
}

func fnRight(ctx *EvalContext, args []Arg) Value {
	r, n, err := textCount(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	return Text(string(r[len(r)-min(n, len(r)):]))
}

func fnMid(ctx *EvalContext, args []Arg) Value {
	s, err := ctx.Text(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	start, err := ctx.Int(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	n, err := ctx.Int(args[2])
	if err != nil {
		return ErrorValue(err)
	}
	if start < 1 || n < 0 {
		return ErrorOf(ErrValue)
	}
	r := []rune(s)
	if start > len(r) {
		return Text("")
	}
	end := min(start-1+n, len(r))
	return Text(string(r[start-1 : end]))
}

func fnProper(s string) Value {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return Text(b.String())
}

// fnTrim removes leading and trailing spaces and collapses inner runs to one.
func fnTrim(s string) Value {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' })
	return Text(strings.Join(fields, " "))
}

func fnSubstitute(ctx *EvalContext, args []Arg) Value {
	var parts [3]string
	for i := range parts {
		s, err := ctx.Text(args[i])
		if err != nil {
			return ErrorValue(err)
		}
		parts[i] = s
	}
	s, old, repl := parts[0], parts[1], parts[2]
	if old == "" {
		return Text(s)
	}
	if len(args) < 4 {
		return Text(strings.ReplaceAll(s, old, repl))
	}
	nth, err := ctx.Int(args[3])
	if err != nil {
		return ErrorValue(err)
	}
	if nth < 1 {
		return ErrorOf(ErrValue)
	}
	pos := 0
	for i := 1; ; i++ {
		idx := strings.Index(s[pos:], old)
		if idx < 0 {
			return Text(s)
		}
		if i == nth {
			at := pos + idx
			return Text(s[:at] + repl + s[at+len(old):])
		}
		pos += idx + len(old)
	}
}

func fnReplace(ctx *EvalContext, args []Arg) Value {
	s, err := ctx.Text(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	start, err := ctx.Int(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	n, err := ctx.Int(args[2])
	if err != nil {
		return ErrorValue(err)
	}
	repl, err := ctx.Text(args[3])
	if err != nil {
		return ErrorValue(err)
	}
	if start < 1 || n < 0 {
		return ErrorOf(ErrValue)
	}
	r := []rune(s)
	from := min(start-1, len(r))
	to := len(r)
	if n < to-from {
		to = from + n
	}
	return Text(string(r[:from]) + repl + string(r[to:]))
}

// finder builds FIND (case-sensitive) and SEARCH (case-insensitive, wildcards).
// Positions are 1-based and count characters.
func finder(caseSensitive bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		needle, err := ctx.Text(args[0])
		if err != nil {
			return ErrorValue(err)
		}
		hay, err := ctx.Text(args[1])
		if err != nil {
			return ErrorValue(err)
		}
		start, err := optNumber(ctx, args, 2, 1)
		if err != nil {
			return ErrorValue(err)
		}
		r := []rune(hay)
		from := int(start)
		if from < 1 || from > len(r)+1 {
			return ErrorOf(ErrValue)
		}
		if needle == "" {
			return Number(float64(from))
		}
		rest := string(r[from-1:])

		var idx int
		switch {
		case caseSensitive:
			idx = strings.Index(rest, needle)
		case strings.ContainsAny(needle, "*?"):
			re, err := regexp.Compile("(?is)" + wildcardBody(needle))
			if err != nil {
				return ErrorOf(ErrValue)
			}
			loc := re.FindStringIndex(rest)
			idx = -1
			if loc != nil {
				idx = loc[0]
			}
		default:
			idx = strings.Index(strings.ToLower(rest), strings.ToLower(needle))
		}
		if idx < 0 {
			return ErrorOf(ErrValue)
		}
		return Number(float64(from + utf8.RuneCountInString(rest[:idx])))
	}
}

func fnRept(ctx *EvalContext, args []Arg) Value {
	s, err := ctx.Text(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	n, err := ctx.Int(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	if n < 0 || (n > 0 && utf8.RuneCountInString(s) > maxTextLength/n) {
		return ErrorOf(ErrValue)
	}
	return Text(strings.Repeat(s, n))
}

func fnExact(ctx *EvalContext, args []Arg) Value {
	a, err := ctx.Text(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	b, err := ctx.Text(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	return Bool(a == b)
}

// dateLayouts are the text forms VALUE and DATEVALUE-style coercion accept.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"1/2/2006",
	"15:04:05",
	"15:04",
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() == 0 {
				return excelEpoch.Add(t.Sub(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC))), true
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func fnValue(ctx *EvalContext, args []Arg) Value {
	v := ctx.Value(args[0])
	switch v.Kind {
	case KindError:
		return v
	case KindNumber, KindEmpty:
		f, _ := ToNumber(v)
		return Number(f)
	case KindDate:
		return Number(DateSerial(v.Time))
	case KindText:
		if f, ok := parseNumberText(v.Str); ok {
			return Number(f)
		}
		if t, ok := parseDateText(v.Str); ok {
			return Number(DateSerial(t))
		}
	}
	return ErrorOf(ErrValue)
}

func fnText(ctx *EvalContext, args []Arg) Value {
	v := ctx.Value(args[0])
	if v.IsError() {
		return v
	}
	format, err := ctx.Text(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	return Text(FormatValue(v, format))
}

func fnChar(x float64) Value {
	n := int(x)
	if n < 1 || n > 255 {
		return ErrorOf(ErrValue)
	}
	return Text(string(rune(n)))
}

func fnCode(s string) Value {
	if s == "" {
		return ErrorOf(ErrValue)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return Number(float64(r))
}

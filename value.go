package gridcalc

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindBool
	KindDate
	KindError
	KindArray
)

var kindNames = [...]string{"empty", "number", "text", "bool", "date", "error", "array"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the content of a cell or the result of an expression.
// Errors and ordinary values share the same slot.
type Value struct {
	Kind  Kind
	Num   float64
	Str   string
	Bool  bool
	Time  time.Time
	Err   ErrorCode
	Array [][]Value
}

// Empty returns the blank value.
func Empty() Value { return Value{} }

// Number returns a numeric value. NaN and infinities become #NUM!.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrorOf(ErrNum)
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Date returns a date value normalized to UTC.
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t.UTC()} }

// ErrorOf returns an error value for the given sentinel.
func ErrorOf(code ErrorCode) Value { return Value{Kind: KindError, Err: code} }

// ErrorValue converts a Go error into an error value. Non-sentinel errors become #VALUE!.
func ErrorValue(err error) Value { return ErrorOf(codeOf(err)) }

// Array returns an array value. The rows must be rectangular.
func Array(rows [][]Value) Value { return Value{Kind: KindArray, Array: rows} }

// IsEmpty reports whether the value is blank.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// IsError reports whether the value is an error sentinel.
func (v Value) IsError() bool { return v.Kind == KindError }

// IsNumeric reports whether the value is a number or a date.
func (v Value) IsNumeric() bool { return v.Kind == KindNumber || v.Kind == KindDate }

// Scalar collapses an array to its top-left element.
func (v Value) Scalar() Value {
	if v.Kind != KindArray {
		return v
	}
	if len(v.Array) == 0 || len(v.Array[0]) == 0 {
		return ErrorOf(ErrValue)
	}
	return v.Array[0][0].Scalar()
}

// String returns the display text of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindText:
		return v.Str
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindDate:
		return formatDate(v.Time)
	case KindError:
		return string(v.Err)
	case KindArray:
		return v.Scalar().String()
	}
	return ""
}

// Equal reports whether two values are identical in kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindText:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindDate:
		return v.Time.Equal(o.Time)
	case KindError:
		return v.Err == o.Err
	case KindArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if len(v.Array[i]) != len(o.Array[i]) {
				return false
			}
			for j := range v.Array[i] {
				if !v.Array[i][j].Equal(o.Array[i][j]) {
					return false
				}
			}
		}
	}
	return true
}

// ToNumber is the shared numeric coercion used by every procedure.
func ToNumber(v Value) (float64, error) {
	switch v.Kind {
	case KindEmpty:
		return 0, nil
	case KindNumber:
		return v.Num, nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindDate:
		return DateSerial(v.Time), nil
	case KindText:
		if f, ok := parseNumberText(v.Str); ok {
			return f, nil
		}
		return 0, ErrValue
	case KindError:
		return 0, v.Err
	case KindArray:
		return ToNumber(v.Scalar())
	}
	return 0, ErrValue
}

// ToText converts a value the way the & operator does.
func ToText(v Value) (string, error) {
	switch v.Kind {
	case KindError:
		return "", v.Err
	case KindDate:
		return formatNumber(DateSerial(v.Time)), nil
	case KindArray:
		return ToText(v.Scalar())
	}
	return v.String(), nil
}

// ToBool converts a value to a logical.
func ToBool(v Value) (bool, error) {
	switch v.Kind {
	case KindEmpty:
		return false, nil
	case KindBool:
		return v.Bool, nil
	case KindNumber:
		return v.Num != 0, nil
	case KindDate:
		return true, nil
	case KindText:
		switch strings.ToUpper(strings.TrimSpace(v.Str)) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		}
		return false, ErrValue
	case KindError:
		return false, v.Err
	case KindArray:
		return ToBool(v.Scalar())
	}
	return false, ErrValue
}

// parseNumberText accepts plain numbers, percentages and thousands separators.
func parseNumberText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 0.01
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f * scale, true
}

// roundSignificant rounds to the given number of significant digits.
func roundSignificant(f float64, digits int) float64 {
	if f == 0 || digits <= 0 {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', digits, 64), 64)
	if err != nil {
		return f
	}
	return r
}

// formatNumber renders a number like Excel's General format (15 significant digits).
func formatNumber(f float64) string {
	f = roundSignificant(f, 15)
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-9 {
		return strings.ToUpper(strconv.FormatFloat(f, 'G', 15, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// excelEpoch is serial day 0 in the 1900 date system (with the 1900 leap-year bug folded in).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxDateSerial is 9999-12-31, the last day the 1900 date system represents.
const maxDateSerial = 2958465

// DateSerial converts a time to an Excel serial number (fractional days).
func DateSerial(t time.Time) float64 {
	t = t.UTC()
	secs := float64(t.Unix()-excelEpoch.Unix()) + float64(t.Nanosecond())/1e9
	return secs / 86400
}

// SerialDate converts an Excel serial number to a UTC time, rounded to the second.
func SerialDate(serial float64) time.Time {
	secs := int64(math.Round(serial * 86400))
	days, rem := secs/86400, secs%86400
	if rem < 0 {
		days--
		rem += 86400
	}
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(rem) * time.Second)
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// compareValues orders two scalar values the way spreadsheet comparison operators do:
// numbers < text < logicals, text compared case-insensitively, blanks adopting the
// other side's type.
func compareValues(a, b Value) int {
	a, b = a.Scalar(), b.Scalar()
	if a.Kind == KindEmpty {
		a = blankLike(b)
	}
	if b.Kind == KindEmpty {
		b = blankLike(a)
	}
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case 0:
		x, _ := ToNumber(a)
		y, _ := ToNumber(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case 1:
		return strings.Compare(strings.ToLower(a.Str), strings.ToLower(b.Str))
	case 2:
		x, y := 0, 0
		if a.Bool {
			x = 1
		}
		if b.Bool {
			y = 1
		}
		return cmpInt(x, y)
	}
	return 0
}

func blankLike(v Value) Value {
	switch v.Kind {
	case KindText:
		return Text("")
	case KindBool:
		return Bool(false)
	}
	return Number(0)
}

func typeRank(v Value) int {
	switch v.Kind {
	case KindText:
		return 1
	case KindBool:
		return 2
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

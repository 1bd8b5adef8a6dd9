package gridcalc

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/nfp"
)

// FormatValue renders v with a spreadsheet number format such as "#,##0.00",
// "0.0%", "\"$\"#,##0;(#,##0)" or "yyyy-mm-dd". Tokens it does not understand
// are copied literally.
func FormatValue(v Value, format string) string {
	v = v.Scalar()
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(format)
	if len(sections) == 0 {
		return ""
	}
	if v.Kind == KindBool {
		return v.String()
	}

	num, err := ToNumber(v)
	if err != nil {
		for _, s := range sections {
			if s.Type == nfp.TokenSectionText {
				return renderText(s.Items, v.String())
			}
		}
		return v.String()
	}

	var numeric []nfp.Section
	for _, s := range sections {
		if s.Type != nfp.TokenSectionText {
			numeric = append(numeric, s)
		}
	}
	if len(numeric) == 0 {
		return renderText(sections[0].Items, formatNumber(num))
	}

	section, negative := numeric[0], num < 0
	switch {
	case num < 0 && len(numeric) >= 2:
		section, negative = numeric[1], false
		num = -num
	case num == 0 && len(numeric) >= 3:
		section = numeric[2]
	}
	if hasDateTokens(section.Items) {
		return renderDate(section.Items, num)
	}
	return renderNumber(section.Items, num, negative)
}

func hasDateTokens(items []nfp.Token) bool {
	for _, t := range items {
		if t.TType == nfp.TokenTypeDateTimes || t.TType == nfp.TokenTypeElapsedDateTimes {
			return true
		}
	}
	return false
}

func isPlaceholder(t nfp.Token) bool {
	switch t.TType {
	case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder,
		nfp.TokenTypeThousandsSeparator, nfp.TokenTypeDecimalPoint:
		return true
	}
	return false
}

// literal renders the tokens every section type shares.
func literal(t nfp.Token) string {
	switch t.TType {
	case nfp.TokenTypeLiteral, nfp.TokenTypeUnknown:
		return t.TValue
	case nfp.TokenTypeAlignment:
		return " "
	case nfp.TokenTypeCurrencyLanguage:
		for _, p := range t.Parts {
			if p.Token.TType == nfp.TokenSubTypeCurrencyString {
				return strings.TrimPrefix(p.Token.TValue, "$")
			}
		}
	}
	return ""
}

func renderText(items []nfp.Token, s string) string {
	var b strings.Builder
	for _, t := range items {
		if t.TType == nfp.TokenTypeTextPlaceHolder || t.TType == nfp.TokenTypeGeneral {
			b.WriteString(s)
			continue
		}
		b.WriteString(literal(t))
	}
	return b.String()
}

// numberMask summarizes the placeholders of a numeric section.
type numberMask struct {
	minInt       int // zeros before the decimal point
	decimals     int // placeholders after the decimal point
	zeroDecimals int // zeros after the decimal point
	point        bool
	group        bool
}

func scanMask(items []nfp.Token) numberMask {
	var m numberMask
	for _, t := range items {
		switch t.TType {
		case nfp.TokenTypeDecimalPoint:
			m.point = true
		case nfp.TokenTypeThousandsSeparator:
			if !m.point {
				m.group = true
			}
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder:
			n := len(t.TValue)
			if m.point {
				m.decimals += n
				if t.TType == nfp.TokenTypeZeroPlaceHolder {
					m.zeroDecimals += n
				}
			} else if t.TType == nfp.TokenTypeZeroPlaceHolder {
				m.minInt += n
			}
		}
	}
	return m
}

func (m numberMask) format(x float64) string {
	x = roundTo(x, m.decimals, roundNearest)
	s := strconv.FormatFloat(x, 'f', m.decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	for len(frac) > m.zeroDecimals && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	if intPart == "0" && m.minInt == 0 {
		intPart = ""
	}
	if len(intPart) < m.minInt {
		intPart = strings.Repeat("0", m.minInt-len(intPart)) + intPart
	}
	if m.group {
		intPart = groupThousands(intPart)
	}
	if m.point {
		return intPart + "." + frac
	}
	return intPart
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func renderNumber(items []nfp.Token, num float64, negative bool) string {
	for _, t := range items {
		if t.TType == nfp.TokenTypePercent {
			num *= 100
		}
	}
	mask := scanMask(items)
	abs := math.Abs(num)

	var b strings.Builder
	placed := false
	for _, t := range items {
		switch {
		case isPlaceholder(t):
			if !placed {
				b.WriteString(mask.format(abs))
				placed = true
			}
		case t.TType == nfp.TokenTypePercent:
			b.WriteString(t.TValue)
		case t.TType == nfp.TokenTypeGeneral, t.TType == nfp.TokenTypeTextPlaceHolder:
			b.WriteString(formatNumber(abs))
		default:
			b.WriteString(literal(t))
		}
	}
	out := b.String()
	if negative && strings.ContainsAny(out, "123456789") {
		return "-" + out
	}
	return out
}

var (
	monthNames = []string{"January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December"}
	dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

func renderDate(items []nfp.Token, serial float64) string {
	t := SerialDate(serial)
	twelveHour := false
	var codes []int
	for i, tok := range items {
		if tok.TType == nfp.TokenTypeDateTimes {
			codes = append(codes, i)
			if strings.Contains(tok.TValue, "/") {
				twelveHour = true
			}
		}
	}

	// m and mm mean minutes right after an hour code or right before a seconds code.
	minutes := make(map[int]bool)
	for k, i := range codes {
		code := strings.ToLower(items[i].TValue)
		if code != "m" && code != "mm" {
			continue
		}
		if k > 0 && strings.HasPrefix(strings.ToLower(items[codes[k-1]].TValue), "h") {
			minutes[i] = true
		}
		if k+1 < len(codes) && strings.HasPrefix(strings.ToLower(items[codes[k+1]].TValue), "s") {
			minutes[i] = true
		}
	}

	var b strings.Builder
	for i, tok := range items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			b.WriteString(dateCode(tok.TValue, t, twelveHour, minutes[i]))
		case nfp.TokenTypeElapsedDateTimes:
			b.WriteString(elapsed(tok.TValue, serial))
		default:
			if !isPlaceholder(tok) {
				b.WriteString(literal(tok))
			}
		}
	}
	return b.String()
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func dateCode(code string, t time.Time, twelveHour, minute bool) string {
	lower := strings.ToLower(code)
	n := len(lower)
	switch {
	case strings.Contains(lower, "/"):
		am := t.Hour() < 12
		upper := unicode.IsUpper(rune(code[0]))
		var s string
		switch {
		case lower == "a/p" && am:
			s = "a"
		case lower == "a/p":
			s = "p"
		case am:
			s = "am"
		default:
			s = "pm"
		}
		if upper {
			return strings.ToUpper(s)
		}
		return s
	case lower[0] == 'y' || lower[0] == 'e':
		if n <= 2 && lower[0] == 'y' {
			return pad2(t.Year() % 100)
		}
		return strconv.Itoa(t.Year())
	case lower[0] == 'm' && minute:
		if n == 1 {
			return strconv.Itoa(t.Minute())
		}
		return pad2(t.Minute())
	case lower[0] == 'm':
		month := monthNames[t.Month()-1]
		switch n {
		case 1:
			return strconv.Itoa(int(t.Month()))
		case 2:
			return pad2(int(t.Month()))
		case 3:
			return month[:3]
		case 4:
			return month
		}
		return month[:1]
	case lower[0] == 'd':
		day := dayNames[t.Weekday()]
		switch n {
		case 1:
			return strconv.Itoa(t.Day())
		case 2:
			return pad2(t.Day())
		case 3:
			return day[:3]
		}
		return day
	case lower[0] == 'h':
		h := t.Hour()
		if twelveHour {
			h %= 12
			if h == 0 {
				h = 12
			}
		}
		if n == 1 {
			return strconv.Itoa(h)
		}
		return pad2(h)
	case lower[0] == 's':
		if n == 1 {
			return strconv.Itoa(t.Second())
		}
		return pad2(t.Second())
	}
	return ""
}

// elapsed renders [h], [mm] and [ss] codes as totals rather than clock parts.
func elapsed(code string, serial float64) string {
	lower := strings.ToLower(code)
	var total float64
	switch lower[0] {
	case 'h':
		total = serial * 24
	case 'm':
		total = serial * 24 * 60
	case 's':
		total = serial * 24 * 60 * 60
	default:
		return code
	}
	n := int(math.Floor(clean(total)))
	s := strconv.Itoa(n)
	if len(s) < len(lower) {
		s = strings.Repeat("0", len(lower)-len(s)) + s
	}
	return s
}

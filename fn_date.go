package gridcalc

import (
	"math"
	"strings"
	"time"
)

func dateFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		local(fn("DATE", CategoryDate, 3, 3, fnDate)),
		fn("TIME", CategoryDate, 3, 3, fnTime),
		volatile(fn("TODAY", CategoryDate, 0, 0, fnToday)),
		volatile(fn("NOW", CategoryDate, 0, 0, fnNow)),
		fn("YEAR", CategoryDate, 1, 1, datePart(func(t time.Time) int { return t.Year() })),
		fn("MONTH", CategoryDate, 1, 1, datePart(func(t time.Time) int { return int(t.Month()) })),
		fn("DAY", CategoryDate, 1, 1, datePart(func(t time.Time) int { return t.Day() })),
		fn("HOUR", CategoryDate, 1, 1, datePart(func(t time.Time) int { return t.Hour() })),
		fn("MINUTE", CategoryDate, 1, 1, datePart(func(t time.Time) int { return t.Minute() })),
		fn("SECOND", CategoryDate, 1, 1, datePart(func(t time.Time) int { return t.Second() })),
		fn("WEEKDAY", CategoryDate, 1, 2, fnWeekday),
		local(fn("EDATE", CategoryDate, 2, 2, fnEDate)),
		local(fn("EOMONTH", CategoryDate, 2, 2, fnEOMonth)),
		fn("DATEDIF", CategoryDate, 3, 3, fnDateDif),
		fn("DAYS", CategoryDate, 2, 2, fnDays),
		fn("NETWORKDAYS", CategoryDate, 2, 3, fnNetworkDays),
	}
}

// toDate coerces a value to a time: dates as is, numbers as serials, text
// through the accepted date layouts.
func toDate(v Value) (time.Time, error) {
	switch v.Kind {
	case KindDate:
		return v.Time, nil
	case KindError:
		return time.Time{}, v.Err
	case KindText:
		if t, ok := parseDateText(v.Str); ok {
			return t, nil
		}
	}
	f, err := ToNumber(v)
	if err != nil {
		return time.Time{}, err
	}
	if f < 0 || f >= maxDateSerial+1 {
		return time.Time{}, ErrNum
	}
	return SerialDate(f), nil
}

// daysBetween counts whole days from a to b on the serial scale.
func daysBetween(a, b time.Time) float64 {
	return math.Round(DateSerial(b) - DateSerial(a))
}

func (ctx *EvalContext) date(a Arg) (time.Time, error) {
	return toDate(ctx.Value(a))
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func fnDate(ctx *EvalContext, args []Arg) Value {
	var parts [3]int
	for i := range parts {
		n, err := ctx.Number(args[i])
		if err != nil {
			return ErrorValue(err)
		}
		parts[i] = int(math.Floor(n))
	}
	year := parts[0]
	if year >= 0 && year < 1900 {
		year += 1900
	}
	if year < 0 || year > 9999 {
		return ErrorOf(ErrNum)
	}
	t := time.Date(year, time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
	if t.Before(excelEpoch) || t.Year() > 9999 {
		return ErrorOf(ErrNum)
	}
	return Date(t)
}

func fnTime(ctx *EvalContext, args []Arg) Value {
	var secs float64
	for i, scale := range []float64{3600, 60, 1} {
		n, err := ctx.Number(args[i])
		if err != nil {
			return ErrorValue(err)
		}
		secs += math.Trunc(n) * scale
	}
	if secs < 0 {
		return ErrorOf(ErrNum)
	}
	return Number(math.Mod(secs, 86400) / 86400)
}

func fnToday(ctx *EvalContext, _ []Arg) Value {
	return Date(dayStart(ctx.Now().UTC()))
}

func fnNow(ctx *EvalContext, _ []Arg) Value {
	return Date(ctx.Now().UTC().Truncate(time.Second))
}

func datePart(part func(time.Time) int) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		t, err := ctx.date(args[0])
		if err != nil {
			return ErrorValue(err)
		}
		return Number(float64(part(t)))
	}
}

func fnWeekday(ctx *EvalContext, args []Arg) Value {
	t, err := ctx.date(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	kind, err := optNumber(ctx, args, 1, 1)
	if err != nil {
		return ErrorValue(err)
	}
	wd := int(t.Weekday()) // Sunday = 0
	switch k := int(kind); {
	case k == 1:
		return Number(float64(wd + 1))
	case k == 2:
		return Number(float64((wd+6)%7 + 1))
	case k == 3:
		return Number(float64((wd + 6) % 7))
	case k >= 11 && k <= 17:
		first := (k - 10) % 7 // weekday numbered 1: 11 Monday … 17 Sunday
		return Number(float64((wd-first+7)%7 + 1))
	}
	return ErrorOf(ErrNum)
}

// addMonths shifts t by n months, clamping the day to the target month's length.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(t.Day(), last), 0, 0, 0, 0, time.UTC)
}

func monthShift(ctx *EvalContext, args []Arg) (time.Time, int, error) {
	t, err := ctx.date(args[0])
	if err != nil {
		return time.Time{}, 0, err
	}
	n, err := ctx.Int(args[1])
	if err != nil {
		return time.Time{}, 0, err
	}
	return t, n, nil
}

func fnEDate(ctx *EvalContext, args []Arg) Value {
	t, n, err := monthShift(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	out := addMonths(t, n)
	if out.Before(excelEpoch) {
		return ErrorOf(ErrNum)
	}
	return Date(out)
}

func fnEOMonth(ctx *EvalContext, args []Arg) Value {
	t, n, err := monthShift(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	out := first.AddDate(0, 1, -1)
	if out.Before(excelEpoch) {
		return ErrorOf(ErrNum)
	}
	return Date(out)
}

func fnDateDif(ctx *EvalContext, args []Arg) Value {
	start, err := ctx.date(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	end, err := ctx.date(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	unit, err := ctx.Text(args[2])
	if err != nil {
		return ErrorValue(err)
	}
	start, end = dayStart(start), dayStart(end)
	if start.After(end) {
		return ErrorOf(ErrNum)
	}

	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	switch strings.ToUpper(unit) {
	case "Y":
		return Number(float64(months / 12))
	case "M":
		return Number(float64(months))
	case "D":
		return Number(daysBetween(start, end))
	case "MD":
		anchor := addMonths(start, months)
		return Number(daysBetween(anchor, end))
	case "YM":
		return Number(float64(months % 12))
	case "YD":
		anchor := addMonths(start, months/12*12)
		return Number(daysBetween(anchor, end))
	}
	return ErrorOf(ErrNum)
}

func fnDays(ctx *EvalContext, args []Arg) Value {
	end, err := ctx.date(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	start, err := ctx.date(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	return Number(daysBetween(dayStart(start), dayStart(end)))
}

func fnNetworkDays(ctx *EvalContext, args []Arg) Value {
	start, err := ctx.date(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	end, err := ctx.date(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	holidays := make(map[time.Time]bool)
	if len(args) > 2 {
		for _, v := range ctx.Values(args[2]) {
			if v.IsEmpty() {
				continue
			}
			h, err := toDate(v)
			if err != nil {
				return ErrorValue(err)
			}
			holidays[dayStart(h)] = true
		}
	}

	start, end = dayStart(start), dayStart(end)
	sign := 1.0
	if start.After(end) {
		start, end, sign = end, start, -1
	}
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday && !holidays[d] {
			n++
		}
	}
	return Number(sign * float64(n))
}

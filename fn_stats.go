package gridcalc

import (
	"math"
	"sort"
)

func statsFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		fn("AVERAGE", CategoryStats, 1, Variadic, fnAverage),
		fn("AVERAGEA", CategoryStats, 1, Variadic, fnAverageA),
		fn("AVERAGEIF", CategoryStats, 2, 3, fnAverageIf),
		fn("AVERAGEIFS", CategoryStats, 3, Variadic, fnAverageIfs),
		fn("COUNT", CategoryStats, 1, Variadic, fnCount),
		fn("COUNTA", CategoryStats, 1, Variadic, fnCountA),
		fn("COUNTBLANK", CategoryStats, 1, 1, fnCountBlank),
		fn("COUNTIF", CategoryStats, 2, 2, fnCountIf),
		fn("COUNTIFS", CategoryStats, 2, Variadic, fnCountIfs),
		fn("MAX", CategoryStats, 1, Variadic, extremum(math.Max)),
		fn("MIN", CategoryStats, 1, Variadic, extremum(math.Min)),
		fn("MAXIFS", CategoryStats, 3, Variadic, extremumIfs(math.Max)),
		fn("MINIFS", CategoryStats, 3, Variadic, extremumIfs(math.Min)),
		fn("MEDIAN", CategoryStats, 1, Variadic, fnMedian),
		fn("MODE", CategoryStats, 1, Variadic, fnMode),
		fn("MODE.SNGL", CategoryStats, 1, Variadic, fnMode),
		fn("STDEV", CategoryStats, 1, Variadic, deviation(true, true)),
		fn("STDEV.S", CategoryStats, 1, Variadic, deviation(true, true)),
		fn("STDEV.P", CategoryStats, 1, Variadic, deviation(false, true)),
		fn("VAR", CategoryStats, 1, Variadic, deviation(true, false)),
		fn("VAR.S", CategoryStats, 1, Variadic, deviation(true, false)),
		fn("VAR.P", CategoryStats, 1, Variadic, deviation(false, false)),
		fn("LARGE", CategoryStats, 2, 2, kth(true)),
		fn("SMALL", CategoryStats, 2, 2, kth(false)),
		fn("RANK", CategoryStats, 2, 3, fnRank),
		fn("RANK.EQ", CategoryStats, 2, 3, fnRank),
		fn("PERCENTILE", CategoryStats, 2, 2, fnPercentile),
		fn("QUARTILE", CategoryStats, 2, 2, fnQuartile),
	}
}

func mean(nums []float64) float64 {
	sum := 0.0
	for _, f := range nums {
		sum += f
	}
	return sum / float64(len(nums))
}

func fnAverage(ctx *EvalContext, args []Arg) Value {
	nums, err := numbers(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return ErrorOf(ErrDiv0)
	}
	return Number(mean(nums))
}

// fnAverageA counts text as 0 and logicals as 1/0 when read through references.
func fnAverageA(ctx *EvalContext, args []Arg) Value {
	var nums []float64
	for _, a := range args {
		if a.Missing() {
			continue
		}
		v := ctx.Eval(a)
		if v.Kind != KindArray && !ctx.IsReference(a) {
			f, err := ToNumber(v)
			if err != nil {
				return ErrorValue(err)
			}
			nums = append(nums, f)
			continue
		}
		for _, x := range ctx.Values(a) {
			switch x.Kind {
			case KindEmpty:
			case KindError:
				return x
			case KindText:
				nums = append(nums, 0)
			default:
				f, _ := ToNumber(x)
				nums = append(nums, f)
			}
		}
	}
	if len(nums) == 0 {
		return ErrorOf(ErrDiv0)
	}
	return Number(mean(nums))
}

// averageOrZero keeps the established behavior of returning 0, not #DIV/0!,
// when no cell matches.
func averageOrZero(nums []float64, err error) Value {
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return Number(0)
	}
	return Number(mean(nums))
}

func fnAverageIf(ctx *EvalContext, args []Arg) Value  { return averageOrZero(ifTarget(ctx, args)) }
func fnAverageIfs(ctx *EvalContext, args []Arg) Value { return averageOrZero(ifsTarget(ctx, args)) }

func fnCount(ctx *EvalContext, args []Arg) Value {
	n := 0
	for _, a := range args {
		if a.Missing() {
			continue
		}
		v := ctx.Eval(a)
		if v.Kind != KindArray && !ctx.IsReference(a) {
			if _, err := ToNumber(v); err == nil && v.Kind != KindEmpty {
				n++
			}
			continue
		}
		for _, x := range ctx.Values(a) {
			if x.IsNumeric() {
				n++
			}
		}
	}
	return Number(float64(n))
}

func fnCountA(ctx *EvalContext, args []Arg) Value {
	n := 0
	for _, a := range args {
		if a.Missing() {
			continue
		}
		for _, x := range ctx.Values(a) {
			if !x.IsEmpty() {
				n++
			}
		}
	}
	return Number(float64(n))
}

func fnCountBlank(ctx *EvalContext, args []Arg) Value {
	m, err := matrixArg(ctx, args[0])
	if err != nil {
		return ErrorValue(err)
	}
	n := 0
	for _, row := range m {
		for _, x := range row {
			if x.IsEmpty() || (x.Kind == KindText && x.Str == "") {
				n++
			}
		}
	}
	return Number(float64(n))
}

func countMask(mask []bool, err error) Value {
	if err != nil {
		return ErrorValue(err)
	}
	n := 0
	for _, ok := range mask {
		if ok {
			n++
		}
	}
	return Number(float64(n))
}

func fnCountIf(ctx *EvalContext, args []Arg) Value {
	m, err := matrixArg(ctx, args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return countMask(criteriaMask(ctx, args, len(m), len(m[0])))
}

func fnCountIfs(ctx *EvalContext, args []Arg) Value {
	if len(args)%2 != 0 {
		return ErrorOf(ErrValue)
	}
	m, err := matrixArg(ctx, args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return countMask(criteriaMask(ctx, args, len(m), len(m[0])))
}

func extremum(pick func(a, b float64) float64) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		nums, err := numbers(ctx, args)
		if err != nil {
			return ErrorValue(err)
		}
		return extremumOf(pick, nums)
	}
}

func extremumOf(pick func(a, b float64) float64, nums []float64) Value {
	if len(nums) == 0 {
		return Number(0)
	}
	r := nums[0]
	for _, f := range nums[1:] {
		r = pick(r, f)
	}
	return Number(r)
}

func extremumIfs(pick func(a, b float64) float64) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		nums, err := ifsTarget(ctx, args)
		if err != nil {
			return ErrorValue(err)
		}
		return extremumOf(pick, nums)
	}
}

func sortedNumbers(ctx *EvalContext, args []Arg) ([]float64, error) {
	nums, err := numbers(ctx, args)
	if err != nil {
		return nil, err
	}
	sort.Float64s(nums)
	return nums, nil
}

func fnMedian(ctx *EvalContext, args []Arg) Value {
	nums, err := sortedNumbers(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	n := len(nums)
	if n == 0 {
		return ErrorOf(ErrNum)
	}
	if n%2 == 1 {
		return Number(nums[n/2])
	}
	return Number((nums[n/2-1] + nums[n/2]) / 2)
}

// fnMode returns the most frequent number; ties go to the value seen first.
func fnMode(ctx *EvalContext, args []Arg) Value {
	nums, err := numbers(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	counts := make(map[float64]int, len(nums))
	best, bestCount := 0.0, 1
	for _, f := range nums {
		counts[f]++
	}
	for _, f := range nums {
		if c := counts[f]; c > bestCount {
			best, bestCount = f, c
		}
	}
	if bestCount < 2 {
		return ErrorOf(ErrNA)
	}
	return Number(best)
}

// deviation builds the STDEV/VAR family. sample selects n-1 denominators.
func deviation(sample, root bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		nums, err := numbers(ctx, args)
		if err != nil {
			return ErrorValue(err)
		}
		n := float64(len(nums))
		if (sample && n < 2) || n < 1 {
			return ErrorOf(ErrDiv0)
		}
		m := mean(nums)
		ss := 0.0
		for _, f := range nums {
			ss += (f - m) * (f - m)
		}
		if sample {
			ss /= n - 1
		} else {
			ss /= n
		}
		if root {
			return Number(math.Sqrt(ss))
		}
		return Number(ss)
	}
}

func kth(largest bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		nums, err := sortedNumbers(ctx, args[:1])
		if err != nil {
			return ErrorValue(err)
		}
		k, err := ctx.Number(args[1])
		if err != nil {
			return ErrorValue(err)
		}
		i := int(math.Ceil(k))
		if i < 1 || i > len(nums) {
			return ErrorOf(ErrNum)
		}
		if largest {
			return Number(nums[len(nums)-i])
		}
		return Number(nums[i-1])
	}
}

func fnRank(ctx *EvalContext, args []Arg) Value {
	x, err := ctx.Number(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	nums, err := numbers(ctx, args[1:2])
	if err != nil {
		return ErrorValue(err)
	}
	order, err := optNumber(ctx, args, 2, 0)
	if err != nil {
		return ErrorValue(err)
	}
	found := false
	rank := 1
	for _, f := range nums {
		switch {
		case f == x:
			found = true
		case order == 0 && f > x, order != 0 && f < x:
			rank++
		}
	}
	if !found {
		return ErrorOf(ErrNA)
	}
	return Number(float64(rank))
}

func percentile(nums []float64, k float64) Value {
	if len(nums) == 0 || k < 0 || k > 1 {
		return ErrorOf(ErrNum)
	}
	pos := k * float64(len(nums)-1)
	lo := math.Floor(pos)
	i := int(lo)
	if i+1 >= len(nums) {
		return Number(nums[i])
	}
	return Number(nums[i] + (pos-lo)*(nums[i+1]-nums[i]))
}

func fnPercentile(ctx *EvalContext, args []Arg) Value {
	nums, err := sortedNumbers(ctx, args[:1])
	if err != nil {
		return ErrorValue(err)
	}
	k, err := ctx.Number(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	return percentile(nums, k)
}

func fnQuartile(ctx *EvalContext, args []Arg) Value {
	nums, err := sortedNumbers(ctx, args[:1])
	if err != nil {
		return ErrorValue(err)
	}
	q, err := ctx.Number(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	q = math.Trunc(q)
	if q < 0 || q > 4 {
		return ErrorOf(ErrNum)
	}
	return percentile(nums, q/4)
}

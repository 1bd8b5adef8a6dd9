package gridcalc

import (
	"math"
)

func mathFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		fn("SUM", CategoryMath, 1, Variadic, fnSum),
		fn("SUMPRODUCT", CategoryMath, 1, Variadic, fnSumProduct),
		fn("SUMSQ", CategoryMath, 1, Variadic, fnSumSq),
		fn("SUMIF", CategoryMath, 2, 3, fnSumIf),
		fn("SUMIFS", CategoryMath, 3, Variadic, fnSumIfs),
		fn("PRODUCT", CategoryMath, 1, Variadic, fnProduct),
		fn("ABS", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Abs(x)) })),
		fn("SIGN", CategoryMath, 1, 1, math1(fnSign)),
		fn("ROUND", CategoryMath, 2, 2, roundProc(roundNearest)),
		fn("ROUNDUP", CategoryMath, 2, 2, roundProc(roundUp)),
		fn("ROUNDDOWN", CategoryMath, 2, 2, roundProc(roundDown)),
		fn("MROUND", CategoryMath, 2, 2, math2(fnMRound)),
		fn("INT", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Floor(x)) })),
		fn("TRUNC", CategoryMath, 1, 2, fnTrunc),
		fn("MOD", CategoryMath, 2, 2, math2(fnMod)),
		fn("QUOTIENT", CategoryMath, 2, 2, math2(fnQuotient)),
		fn("POWER", CategoryMath, 2, 2, math2(func(x, y float64) Value { return arithmetic("^", Number(x), Number(y)) })),
		fn("SQRT", CategoryMath, 1, 1, math1(fnSqrt)),
		fn("EXP", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Exp(x)) })),
		fn("LN", CategoryMath, 1, 1, math1(fnLn)),
		fn("LOG", CategoryMath, 1, 2, fnLog),
		fn("LOG10", CategoryMath, 1, 1, math1(func(x float64) Value { return logBase(x, 10) })),
		fn("PI", CategoryMath, 0, 0, func(*EvalContext, []Arg) Value { return Number(math.Pi) }),
		fn("CEILING.MATH", CategoryMath, 1, 3, fnCeilingMath),
		fn("CEILING", CategoryMath, 1, 2, fnCeiling),
		fn("FLOOR.MATH", CategoryMath, 1, 3, fnFloorMath),
		fn("FLOOR", CategoryMath, 1, 2, fnFloor),
		fn("EVEN", CategoryMath, 1, 1, math1(fnEven)),
		fn("ODD", CategoryMath, 1, 1, math1(fnOdd)),
		fn("FACT", CategoryMath, 1, 1, math1(fnFact)),
		fn("COMBIN", CategoryMath, 2, 2, math2(fnCombin)),
		fn("PERMUT", CategoryMath, 2, 2, math2(fnPermut)),
		fn("GCD", CategoryMath, 1, Variadic, fnGCD),
		fn("LCM", CategoryMath, 1, Variadic, fnLCM),
		volatile(fn("RAND", CategoryMath, 0, 0, fnRand)),
		volatile(fn("RANDBETWEEN", CategoryMath, 2, 2, fnRandBetween)),
		fn("SIN", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Sin(x)) })),
		fn("COS", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Cos(x)) })),
		fn("TAN", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Tan(x)) })),
		fn("ASIN", CategoryMath, 1, 1, math1(unitDomain(math.Asin))),
		fn("ACOS", CategoryMath, 1, 1, math1(unitDomain(math.Acos))),
		fn("ATAN", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(math.Atan(x)) })),
		fn("ATAN2", CategoryMath, 2, 2, math2(fnAtan2)),
		fn("DEGREES", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(x * 180 / math.Pi) })),
		fn("RADIANS", CategoryMath, 1, 1, math1(func(x float64) Value { return Number(x * math.Pi / 180) })),
	}
}

// math1 adapts a one-number function into a procedure.
func math1(f func(x float64) Value) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		x, err := ctx.Number(args[0])
		if err != nil {
			return ErrorValue(err)
		}
		return f(x)
	}
}

// math2 adapts a two-number function into a procedure.
func math2(f func(x, y float64) Value) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		x, err := ctx.Number(args[0])
		if err != nil {
			return ErrorValue(err)
		}
		y, err := ctx.Number(args[1])
		if err != nil {
			return ErrorValue(err)
		}
		return f(x, y)
	}
}

// optNumber reads argument i as a number, or def when it is absent or omitted.
func optNumber(ctx *EvalContext, args []Arg, i int, def float64) (float64, error) {
	if i >= len(args) || args[i].Missing() {
		return def, nil
	}
	return ctx.Number(args[i])
}

// numbers collects the numbers aggregates work on. Values read through
// references or arrays contribute only numbers and dates; direct scalar
// arguments are coerced. The first error found is returned.
func numbers(ctx *EvalContext, args []Arg) ([]float64, error) {
	var out []float64
	for _, a := range args {
		if a.Missing() {
			continue
		}
		v := ctx.Eval(a)
		if v.Kind == KindArray {
			for _, row := range v.Array {
				for _, x := range row {
					if x.IsError() {
						return nil, x.Err
					}
					if x.IsNumeric() {
						f, _ := ToNumber(x)
						out = append(out, f)
					}
				}
			}
			continue
		}
		if ctx.IsReference(a) {
			if v.IsError() {
				return nil, v.Err
			}
			if v.IsNumeric() {
				f, _ := ToNumber(v)
				out = append(out, f)
			}
			continue
		}
		f, err := ToNumber(v)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// flatten evaluates every argument and returns all values row-major.
func flatten(ctx *EvalContext, args []Arg) []Value {
	var out []Value
	for _, a := range args {
		out = append(out, ctx.Values(a)...)
	}
	return out
}

// clean drops binary floating point noise before integer rounding.
func clean(f float64) float64 {
	return roundSignificant(f, 15)
}

func fnSum(ctx *EvalContext, args []Arg) Value {
	nums, err := numbers(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	sum := 0.0
	for _, f := range nums {
		sum += f
	}
	return Number(sum)
}

func fnSumSq(ctx *EvalContext, args []Arg) Value {
	nums, err := numbers(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	sum := 0.0
	for _, f := range nums {
		sum += f * f
	}
	return Number(sum)
}

func fnProduct(ctx *EvalContext, args []Arg) Value {
	nums, err := numbers(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return Number(0)
	}
	p := 1.0
	for _, f := range nums {
		p *= f
	}
	return Number(p)
}

func fnSumProduct(ctx *EvalContext, args []Arg) Value {
	var h, w int
	matrices := make([][][]Value, len(args))
	for i, a := range args {
		m := ctx.Matrix(a)
		if i == 0 {
			h, w = len(m), len(m[0])
		} else if len(m) != h || len(m[0]) != w {
			return ErrorOf(ErrValue)
		}
		matrices[i] = m
	}

	sum := 0.0
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			p := 1.0
			for _, m := range matrices {
				v := m[r][c]
				if v.IsError() {
					return v
				}
				if v.Kind == KindNumber || v.Kind == KindDate {
					f, _ := ToNumber(v)
					p *= f
				} else {
					p = 0
				}
			}
			sum += p
		}
	}
	return Number(sum)
}

// criteriaMask evaluates (range, criterion) pairs over h x w cells and
// returns which cells satisfy every pair, row-major.
func criteriaMask(ctx *EvalContext, pairs []Arg, h, w int) ([]bool, error) {
	mask := make([]bool, h*w)
	for i := range mask {
		mask[i] = true
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		m, err := matrixArg(ctx, pairs[i])
		if err != nil {
			return nil, err
		}
		if len(m) != h || len(m[0]) != w {
			return nil, ErrValue
		}
		crit := parseCriterion(ctx.Value(pairs[i+1]))
		for r := 0; r < h; r++ {
			for c := 0; c < w; c++ {
				if mask[r*w+c] && !ctx.match(crit, m[r][c]) {
					mask[r*w+c] = false
				}
			}
		}
	}
	return mask, nil
}

// matrixArg reads an argument as rows of values, failing with #REF! when it
// references cells outside the grid.
func matrixArg(ctx *EvalContext, a Arg) ([][]Value, error) {
	if area, ok := ctx.Area(a); ok && (!ctx.grid.InBounds(area.First) || !ctx.grid.InBounds(area.Last)) {
		return nil, ErrRef
	}
	return ctx.Matrix(a), nil
}

// matchedNumbers returns the numeric cells of target selected by mask.
func matchedNumbers(target [][]Value, mask []bool, w int) ([]float64, error) {
	var out []float64
	for r, row := range target {
		for c, v := range row {
			if c >= w || r*w+c >= len(mask) || !mask[r*w+c] {
				continue
			}
			if v.IsError() {
				return nil, v.Err
			}
			if v.IsNumeric() {
				f, _ := ToNumber(v)
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// ifTarget evaluates the single-criterion *IF form: (range, criterion, [target]).
func ifTarget(ctx *EvalContext, args []Arg) ([]float64, error) {
	m, err := matrixArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	h, w := len(m), len(m[0])
	mask, err := criteriaMask(ctx, args[:2], h, w)
	if err != nil {
		return nil, err
	}
	target := m
	if len(args) > 2 && !args[2].Missing() {
		if target, err = matrixArg(ctx, args[2]); err != nil {
			return nil, err
		}
	}
	return matchedNumbers(target, mask, w)
}

// ifsTarget evaluates the multi-criteria *IFS form: (target, range1, criterion1, ...).
func ifsTarget(ctx *EvalContext, args []Arg) ([]float64, error) {
	if len(args)%2 != 1 {
		return nil, ErrValue
	}
	target, err := matrixArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	h, w := len(target), len(target[0])
	mask, err := criteriaMask(ctx, args[1:], h, w)
	if err != nil {
		return nil, err
	}
	return matchedNumbers(target, mask, w)
}

func sumOf(nums []float64, err error) Value {
	if err != nil {
		return ErrorValue(err)
	}
	sum := 0.0
	for _, f := range nums {
		sum += f
	}
	return Number(sum)
}

func fnSumIf(ctx *EvalContext, args []Arg) Value  { return sumOf(ifTarget(ctx, args)) }
func fnSumIfs(ctx *EvalContext, args []Arg) Value { return sumOf(ifsTarget(ctx, args)) }

func fnSign(x float64) Value {
	switch {
	case x > 0:
		return Number(1)
	case x < 0:
		return Number(-1)
	}
	return Number(0)
}

type roundMode uint8

const (
	roundNearest roundMode = iota // half away from zero
	roundUp                       // away from zero
	roundDown                     // toward zero
)

func roundTo(x float64, digits int, mode roundMode) float64 {
	scale := math.Pow(10, math.Abs(float64(digits)))
	v := x * scale
	if digits < 0 {
		v = x / scale
	}
	v = clean(v)
	switch mode {
	case roundUp:
		if v < 0 {
			v = -math.Ceil(-v)
		} else {
			v = math.Ceil(v)
		}
	case roundDown:
		v = math.Trunc(v)
	default:
		v = math.Round(v)
	}
	if digits < 0 {
		return v * scale
	}
	return v / scale
}

func roundProc(mode roundMode) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		x, err := ctx.Number(args[0])
		if err != nil {
			return ErrorValue(err)
		}
		digits, err := ctx.Int(args[1])
		if err != nil {
			return ErrorValue(err)
		}
		return Number(roundTo(x, digits, mode))
	}
}

func fnTrunc(ctx *EvalContext, args []Arg) Value {
	x, err := ctx.Number(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	digits, err := optNumber(ctx, args, 1, 0)
	if err != nil {
		return ErrorValue(err)
	}
	return Number(roundTo(x, int(digits), roundDown))
}

func fnMRound(n, m float64) Value {
	if m == 0 {
		return Number(0)
	}
	if (n > 0 && m < 0) || (n < 0 && m > 0) {
		return ErrorOf(ErrNum)
	}
	return Number(math.Round(clean(n/m)) * m)
}

func fnMod(n, d float64) Value {
	if d == 0 {
		return ErrorOf(ErrDiv0)
	}
	return Number(clean(n - d*math.Floor(clean(n/d))))
}

func fnQuotient(n, d float64) Value {
	if d == 0 {
		return ErrorOf(ErrDiv0)
	}
	return Number(math.Trunc(clean(n / d)))
}

func fnSqrt(x float64) Value {
	if x < 0 {
		return ErrorOf(ErrNum)
	}
	return Number(math.Sqrt(x))
}

func fnLn(x float64) Value {
	if x <= 0 {
		return ErrorOf(ErrNum)
	}
	return Number(math.Log(x))
}

func logBase(x, base float64) Value {
	if x <= 0 || base <= 0 {
		return ErrorOf(ErrNum)
	}
	if base == 1 {
		return ErrorOf(ErrDiv0)
	}
	if base == 10 {
		return Number(math.Log10(x))
	}
	return Number(math.Log(x) / math.Log(base))
}

func fnLog(ctx *EvalContext, args []Arg) Value {
	x, err := ctx.Number(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	base, err := optNumber(ctx, args, 1, 10)
	if err != nil {
		return ErrorValue(err)
	}
	return logBase(x, base)
}

// mathRounding reads (number, [significance], [mode]) for the *.MATH functions.
func mathRounding(ctx *EvalContext, args []Arg) (x, sig, mode float64, err error) {
	if x, err = ctx.Number(args[0]); err != nil {
		return
	}
	if sig, err = optNumber(ctx, args, 1, 1); err != nil {
		return
	}
	mode, err = optNumber(ctx, args, 2, 0)
	return x, math.Abs(sig), mode, err
}

func fnCeilingMath(ctx *EvalContext, args []Arg) Value {
	x, sig, mode, err := mathRounding(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	if sig == 0 {
		return Number(0)
	}
	if x < 0 && mode != 0 {
		return Number(-math.Ceil(clean(-x/sig)) * sig)
	}
	return Number(math.Ceil(clean(x/sig)) * sig)
}

func fnFloorMath(ctx *EvalContext, args []Arg) Value {
	x, sig, mode, err := mathRounding(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	if sig == 0 {
		return Number(0)
	}
	if x < 0 && mode != 0 {
		return Number(-math.Floor(clean(-x/sig)) * sig)
	}
	return Number(math.Floor(clean(x/sig)) * sig)
}

func fnCeiling(ctx *EvalContext, args []Arg) Value {
	x, err := ctx.Number(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	sig, err := optNumber(ctx, args, 1, 1)
	if err != nil {
		return ErrorValue(err)
	}
	if x > 0 && sig < 0 {
		return ErrorOf(ErrNum)
	}
	if sig == 0 {
		return Number(0)
	}
	return Number(math.Ceil(clean(x/sig)) * sig)
}

func fnFloor(ctx *EvalContext, args []Arg) Value {
	x, err := ctx.Number(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	sig, err := optNumber(ctx, args, 1, 1)
	if err != nil {
		return ErrorValue(err)
	}
	if x > 0 && sig < 0 {
		return ErrorOf(ErrNum)
	}
	if sig == 0 {
		return ErrorOf(ErrDiv0)
	}
	return Number(math.Floor(clean(x/sig)) * sig)
}

func fnEven(x float64) Value {
	v := math.Ceil(clean(math.Abs(x)))
	if math.Mod(v, 2) != 0 {
		v++
	}
	return Number(math.Copysign(v, x))
}

func fnOdd(x float64) Value {
	v := math.Ceil(clean(math.Abs(x)))
	if math.Mod(v, 2) == 0 {
		v++
	}
	if x < 0 {
		return Number(-v)
	}
	return Number(v)
}

// maxFact is the largest n whose factorial fits in a float64.
const maxFact = 170

func fnFact(x float64) Value {
	if x < 0 || x != math.Trunc(x) || x > maxFact {
		return ErrorOf(ErrNum)
	}
	p := 1.0
	for i := 2.0; i <= x; i++ {
		p *= i
	}
	return Number(p)
}

// lnFact is ln(n!) for a non-negative integer n.
func lnFact(n float64) float64 {
	v, _ := math.Lgamma(n + 1)
	return v
}

func fnCombin(n, k float64) Value {
	n, k = math.Trunc(n), math.Trunc(k)
	if n < 0 || k < 0 || k > n {
		return ErrorOf(ErrNum)
	}
	k = math.Min(k, n-k)
	if k <= maxFact {
		r := 1.0
		for i := 1.0; i <= k; i++ {
			r = r * (n - k + i) / i
		}
		return Number(math.Round(r))
	}
	return Number(math.Round(math.Exp(lnFact(n) - lnFact(k) - lnFact(n-k))))
}

func fnPermut(n, k float64) Value {
	n, k = math.Trunc(n), math.Trunc(k)
	if n < 0 || k < 0 || k > n {
		return ErrorOf(ErrNum)
	}
	if k <= maxFact {
		r := 1.0
		for i := 0.0; i < k; i++ {
			r *= n - i
		}
		return Number(r)
	}
	return Number(math.Round(math.Exp(lnFact(n) - lnFact(n-k))))
}

func gcd(a, b float64) float64 {
	for b != 0 {
		a, b = b, math.Mod(a, b)
	}
	return a
}

func integerArgs(ctx *EvalContext, args []Arg) ([]float64, error) {
	nums, err := numbers(ctx, args)
	if err != nil {
		return nil, err
	}
	for i, f := range nums {
		if f < 0 {
			return nil, ErrNum
		}
		nums[i] = math.Trunc(f)
	}
	return nums, nil
}

func fnGCD(ctx *EvalContext, args []Arg) Value {
	nums, err := integerArgs(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	g := 0.0
	for _, f := range nums {
		g = gcd(g, f)
	}
	return Number(g)
}

func fnLCM(ctx *EvalContext, args []Arg) Value {
	nums, err := integerArgs(ctx, args)
	if err != nil {
		return ErrorValue(err)
	}
	l := 1.0
	for _, f := range nums {
		if f == 0 {
			return Number(0)
		}
		l = l * f / gcd(l, f)
	}
	return Number(l)
}

func fnRand(ctx *EvalContext, _ []Arg) Value {
	return Number(ctx.Random())
}

func fnRandBetween(ctx *EvalContext, args []Arg) Value {
	lo, err := ctx.Number(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	hi, err := ctx.Number(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	lo, hi = math.Ceil(lo), math.Floor(hi)
	if lo > hi {
		return ErrorOf(ErrNum)
	}
	return Number(lo + math.Floor(ctx.Random()*(hi-lo+1)))
}

func unitDomain(f func(float64) float64) func(float64) Value {
	return func(x float64) Value {
		if x < -1 || x > 1 {
			return ErrorOf(ErrNum)
		}
		return Number(f(x))
	}
}

// fnAtan2 takes (x, y) in spreadsheet order.
func fnAtan2(x, y float64) Value {
	if x == 0 && y == 0 {
		return ErrorOf(ErrDiv0)
	}
	return Number(math.Atan2(y, x))
}

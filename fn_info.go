package gridcalc

import "math"

func infoFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		fn("ISBLANK", CategoryInfo, 1, 1, is(func(v Value) bool { return v.IsEmpty() })),
		fn("ISNUMBER", CategoryInfo, 1, 1, is(func(v Value) bool { return v.IsNumeric() })),
		fn("ISTEXT", CategoryInfo, 1, 1, is(func(v Value) bool { return v.Kind == KindText })),
		fn("ISLOGICAL", CategoryInfo, 1, 1, is(func(v Value) bool { return v.Kind == KindBool })),
		fn("ISERROR", CategoryInfo, 1, 1, is(func(v Value) bool { return v.IsError() })),
		fn("ISERR", CategoryInfo, 1, 1, is(func(v Value) bool { return v.IsError() && v.Err != ErrNA })),
		fn("ISNA", CategoryInfo, 1, 1, is(func(v Value) bool { return v.IsError() && v.Err == ErrNA })),
		fn("ISEVEN", CategoryInfo, 1, 1, parity(0)),
		fn("ISODD", CategoryInfo, 1, 1, parity(1)),
		fn("NA", CategoryInfo, 0, 0, func(*EvalContext, []Arg) Value { return ErrorOf(ErrNA) }),
	}
}

// is builds the IS* predicates, which never propagate errors.
func is(pred func(Value) bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		return Bool(pred(ctx.Value(args[0])))
	}
}

func parity(rem float64) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		v := ctx.Value(args[0])
		if v.Kind == KindBool {
			return ErrorOf(ErrValue)
		}
		f, err := ToNumber(v)
		if err != nil {
			return ErrorValue(err)
		}
		return Bool(math.Abs(math.Mod(math.Trunc(f), 2)) == rem)
	}
}

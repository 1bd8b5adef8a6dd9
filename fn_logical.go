package gridcalc

func logicalFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		fn("IF", CategoryLogical, 1, 3, fnIf),
		fn("IFS", CategoryLogical, 2, Variadic, fnIfs),
		fn("IFERROR", CategoryLogical, 2, 2, fnIfError),
		fn("IFNA", CategoryLogical, 2, 2, fnIfNA),
		fn("AND", CategoryLogical, 1, Variadic, logicalFold(func(acc, b bool) bool { return acc && b }, true)),
		fn("OR", CategoryLogical, 1, Variadic, logicalFold(func(acc, b bool) bool { return acc || b }, false)),
		fn("XOR", CategoryLogical, 1, Variadic, logicalFold(func(acc, b bool) bool { return acc != b }, false)),
		fn("NOT", CategoryLogical, 1, 1, fnNot),
		fn("SWITCH", CategoryLogical, 3, Variadic, fnSwitch),
		fn("TRUE", CategoryLogical, 0, 0, func(*EvalContext, []Arg) Value { return Bool(true) }),
		fn("FALSE", CategoryLogical, 0, 0, func(*EvalContext, []Arg) Value { return Bool(false) }),
	}
}

// branch evaluates a chosen result argument. An omitted argument yields 0.
func branch(ctx *EvalContext, a Arg) Value {
	if a.Missing() {
		return Number(0)
	}
	return ctx.Eval(a)
}

func fnIf(ctx *EvalContext, args []Arg) Value {
	cond, err := ctx.Bool(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	switch {
	case cond && len(args) > 1:
		return branch(ctx, args[1])
	case cond:
		return Bool(true)
	case len(args) > 2:
		return branch(ctx, args[2])
	}
	return Bool(false)
}

func fnIfs(ctx *EvalContext, args []Arg) Value {
	if len(args)%2 != 0 {
		return ErrorOf(ErrValue)
	}
	for i := 0; i < len(args); i += 2 {
		cond, err := ctx.Bool(args[i])
		if err != nil {
			return ErrorValue(err)
		}
		if cond {
			return branch(ctx, args[i+1])
		}
	}
	return ErrorOf(ErrNA)
}

func fnIfError(ctx *EvalContext, args []Arg) Value {
	v := ctx.Value(args[0])
	if v.IsError() {
		return branch(ctx, args[1])
	}
	return v
}

func fnIfNA(ctx *EvalContext, args []Arg) Value {
	v := ctx.Value(args[0])
	if v.IsError() && v.Err == ErrNA {
		return branch(ctx, args[1])
	}
	return v
}

// logicalFold combines logical arguments. Text and blanks read through
// references or arrays are ignored; at least one logical is required.
func logicalFold(op func(acc, b bool) bool, start bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		acc, seen := start, false
		for _, a := range args {
			if a.Missing() {
				continue
			}
			v := ctx.Eval(a)
			if v.Kind != KindArray && !ctx.IsReference(a) {
				b, err := ToBool(v)
				if err != nil {
					return ErrorValue(err)
				}
				acc, seen = op(acc, b), true
				continue
			}
			for _, x := range ctx.Values(a) {
				switch x.Kind {
				case KindError:
					return x
				case KindBool, KindNumber, KindDate:
					b, _ := ToBool(x)
					acc, seen = op(acc, b), true
				}
			}
		}
		if !seen {
			return ErrorOf(ErrValue)
		}
		return Bool(acc)
	}
}

func fnNot(ctx *EvalContext, args []Arg) Value {
	b, err := ctx.Bool(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return Bool(!b)
}

func fnSwitch(ctx *EvalContext, args []Arg) Value {
	target := ctx.Value(args[0])
	if target.IsError() {
		return target
	}
	rest := args[1:]
	for i := 0; i+1 < len(rest); i += 2 {
		candidate := ctx.Value(rest[i])
		if candidate.IsError() {
			return candidate
		}
		if typeRank(candidate) == typeRank(target) && compareValues(candidate, target) == 0 {
			return branch(ctx, rest[i+1])
		}
	}
	if len(rest)%2 == 1 {
		return branch(ctx, rest[len(rest)-1])
	}
	return ErrorOf(ErrNA)
}

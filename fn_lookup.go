package gridcalc

import "strings"

func lookupFunctions() []FormulaDescriptor {
	return []FormulaDescriptor{
		fn("VLOOKUP", CategoryLookup, 3, 4, fnVLookup),
		fn("HLOOKUP", CategoryLookup, 3, 4, fnHLookup),
		fn("XLOOKUP", CategoryLookup, 3, 6, fnXLookup),
		fn("LOOKUP", CategoryLookup, 2, 3, fnLookup),
		fn("MATCH", CategoryLookup, 2, 3, fnMatch),
		fn("INDEX", CategoryLookup, 2, 3, fnIndex),
		fn("CHOOSE", CategoryLookup, 2, Variadic, fnChoose),
		fn("ROW", CategoryLookup, 0, 1, position(true)),
		fn("COLUMN", CategoryLookup, 0, 1, position(false)),
		fn("ROWS", CategoryLookup, 1, 1, extent(true)),
		fn("COLUMNS", CategoryLookup, 1, 1, extent(false)),
	}
}

type matchMode int

const (
	matchExact      matchMode = 0
	matchAscending  matchMode = 1  // last key <= search key
	matchDescending matchMode = -1 // last key >= search key
)

// findKey returns the position of key in keys under mode, or -1.
// Exact text matches are case-insensitive and honor wildcards.
func findKey(ctx *EvalContext, key Value, keys []Value, mode matchMode) int {
	if mode == matchExact {
		crit := equalityCriterion(key)
		for i, k := range keys {
			if !k.IsEmpty() && ctx.match(crit, k) {
				return i
			}
		}
		return -1
	}

	best := -1
	for i, k := range keys {
		if k.IsEmpty() || k.IsError() || typeRank(k) != typeRank(key) {
			continue
		}
		c := compareValues(k, key)
		if (mode == matchAscending && c <= 0) || (mode == matchDescending && c >= 0) {
			best = i
			continue
		}
		break
	}
	return best
}

// approximate reads the optional range_lookup flag of VLOOKUP and HLOOKUP.
// It defaults to TRUE when absent and FALSE when written but empty.
func approximate(ctx *EvalContext, args []Arg, i int) (bool, error) {
	if i >= len(args) {
		return true, nil
	}
	if args[i].Missing() {
		return false, nil
	}
	return ctx.Bool(args[i])
}

func tableLookup(ctx *EvalContext, args []Arg, vertical bool) Value {
	key := ctx.Value(args[0])
	if key.IsError() {
		return key
	}
	table, err := matrixArg(ctx, args[1])
	if err != nil {
		return ErrorValue(err)
	}
	index, err := ctx.Int(args[2])
	if err != nil {
		return ErrorValue(err)
	}
	approx, err := approximate(ctx, args, 3)
	if err != nil {
		return ErrorValue(err)
	}
	if !vertical {
		table = transpose(table)
	}
	if index < 1 {
		return ErrorOf(ErrValue)
	}
	if index > len(table[0]) {
		return ErrorOf(ErrRef)
	}

	keys := make([]Value, len(table))
	for i, row := range table {
		keys[i] = row[0]
	}
	mode := matchExact
	if approx {
		mode = matchAscending
	}
	i := findKey(ctx, key, keys, mode)
	if i < 0 {
		return ErrorOf(ErrNA)
	}
	return table[i][index-1]
}

func fnVLookup(ctx *EvalContext, args []Arg) Value { return tableLookup(ctx, args, true) }
func fnHLookup(ctx *EvalContext, args []Arg) Value { return tableLookup(ctx, args, false) }

func transpose(m [][]Value) [][]Value {
	if len(m) == 0 {
		return m
	}
	out := make([][]Value, len(m[0]))
	for c := range out {
		out[c] = make([]Value, len(m))
		for r := range m {
			out[c][r] = m[r][c]
		}
	}
	return out
}

// vector flattens a single row or column; two-dimensional input is rejected.
func vector(m [][]Value) ([]Value, bool) {
	switch {
	case len(m) == 1:
		return m[0], true
	case len(m) > 0 && len(m[0]) == 1:
		out := make([]Value, len(m))
		for i, row := range m {
			out[i] = row[0]
		}
		return out, true
	}
	return nil, false
}

func fnMatch(ctx *EvalContext, args []Arg) Value {
	key := ctx.Value(args[0])
	if key.IsError() {
		return key
	}
	m, err := matrixArg(ctx, args[1])
	if err != nil {
		return ErrorValue(err)
	}
	keys, ok := vector(m)
	if !ok {
		return ErrorOf(ErrNA)
	}
	mode, err := optNumber(ctx, args, 2, 1)
	if err != nil {
		return ErrorValue(err)
	}
	mm := matchExact
	switch {
	case mode > 0:
		mm = matchAscending
	case mode < 0:
		mm = matchDescending
	}
	i := findKey(ctx, key, keys, mm)
	if i < 0 {
		return ErrorOf(ErrNA)
	}
	return Number(float64(i + 1))
}

// nearest finds an exact match, else the closest key on the requested side:
// below for mode -1, above for mode 1. Keys need not be sorted.
func nearest(ctx *EvalContext, key Value, keys []Value, mode int, reverse bool) int {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
		if reverse {
			order[i] = len(keys) - 1 - i
		}
	}

	exact := parseCriterion(key)
	if key.Kind == KindText {
		exact = criterion{op: "=", kind: criterionText, text: strings.ToLower(key.Str)}
	}
	if mode == 2 {
		exact = equalityCriterion(key)
	}
	for _, i := range order {
		if !keys[i].IsEmpty() && ctx.match(exact, keys[i]) {
			return i
		}
	}
	if mode != -1 && mode != 1 {
		return -1
	}

	best := -1
	for _, i := range order {
		k := keys[i]
		if k.IsEmpty() || k.IsError() || typeRank(k) != typeRank(key) {
			continue
		}
		c := compareValues(k, key)
		if (mode == -1 && c >= 0) || (mode == 1 && c <= 0) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		d := compareValues(k, keys[best])
		if (mode == -1 && d > 0) || (mode == 1 && d < 0) {
			best = i
		}
	}
	return best
}

func fnXLookup(ctx *EvalContext, args []Arg) Value {
	key := ctx.Value(args[0])
	if key.IsError() {
		return key
	}
	lookup, err := matrixArg(ctx, args[1])
	if err != nil {
		return ErrorValue(err)
	}
	keys, ok := vector(lookup)
	if !ok {
		return ErrorOf(ErrValue)
	}
	ret, err := matrixArg(ctx, args[2])
	if err != nil {
		return ErrorValue(err)
	}
	mode, err := optNumber(ctx, args, 4, 0)
	if err != nil {
		return ErrorValue(err)
	}
	search, err := optNumber(ctx, args, 5, 1)
	if err != nil {
		return ErrorValue(err)
	}

	i := nearest(ctx, key, keys, int(mode), search < 0)
	if i < 0 {
		if len(args) > 3 && !args[3].Missing() {
			return ctx.Eval(args[3])
		}
		return ErrorOf(ErrNA)
	}

	columnar := len(lookup) > 1 || len(lookup[0]) == 1
	if columnar {
		if i >= len(ret) {
			return ErrorOf(ErrValue)
		}
		if len(ret[i]) == 1 {
			return ret[i][0]
		}
		return Array([][]Value{ret[i]})
	}
	if len(ret) == 0 || i >= len(ret[0]) {
		return ErrorOf(ErrValue)
	}
	if len(ret) == 1 {
		return ret[0][i]
	}
	col := make([][]Value, len(ret))
	for r := range ret {
		col[r] = []Value{ret[r][i]}
	}
	return Array(col)
}

func fnLookup(ctx *EvalContext, args []Arg) Value {
	key := ctx.Value(args[0])
	if key.IsError() {
		return key
	}
	m, err := matrixArg(ctx, args[1])
	if err != nil {
		return ErrorValue(err)
	}

	var keys, results []Value
	if len(args) > 2 {
		var ok bool
		if keys, ok = vector(m); !ok {
			return ErrorOf(ErrNA)
		}
		r, err := matrixArg(ctx, args[2])
		if err != nil {
			return ErrorValue(err)
		}
		if results, ok = vector(r); !ok {
			return ErrorOf(ErrNA)
		}
	} else {
		if len(m[0]) > len(m) {
			m = transpose(m)
		}
		keys = make([]Value, len(m))
		results = make([]Value, len(m))
		for i, row := range m {
			keys[i], results[i] = row[0], row[len(row)-1]
		}
	}

	i := findKey(ctx, key, keys, matchAscending)
	if i < 0 || i >= len(results) {
		return ErrorOf(ErrNA)
	}
	return results[i]
}

func fnIndex(ctx *EvalContext, args []Arg) Value {
	m, err := matrixArg(ctx, args[0])
	if err != nil {
		return ErrorValue(err)
	}
	h, w := len(m), len(m[0])
	row, err := ctx.Int(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	col := 1
	if w > 1 {
		col = 0
	}
	switch {
	case len(args) > 2 && !args[2].Missing():
		if col, err = ctx.Int(args[2]); err != nil {
			return ErrorValue(err)
		}
	case h == 1:
		row, col = 1, row
	}
	if row < 0 || col < 0 {
		return ErrorOf(ErrValue)
	}
	if row > h || col > w {
		return ErrorOf(ErrRef)
	}

	switch {
	case row == 0 && col == 0:
		return Array(m)
	case row == 0:
		out := make([][]Value, h)
		for r := range m {
			out[r] = []Value{m[r][col-1]}
		}
		return Array(out)
	case col == 0:
		return Array([][]Value{m[row-1]})
	}
	return m[row-1][col-1]
}

func fnChoose(ctx *EvalContext, args []Arg) Value {
	i, err := ctx.Int(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	if i < 1 || i >= len(args) {
		return ErrorOf(ErrValue)
	}
	return branch(ctx, args[i])
}

// position builds ROW and COLUMN: the 1-based index of the reference, or of
// the formula cell when called without arguments.
func position(rows bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		ref := ctx.Cell()
		if len(args) > 0 {
			area, ok := ctx.Area(args[0])
			if !ok {
				return ErrorOf(ErrValue)
			}
			ref = area.First
		}
		if rows {
			return Number(float64(ref.Row + 1))
		}
		return Number(float64(ref.Col + 1))
	}
}

// extent builds ROWS and COLUMNS.
func extent(rows bool) Procedure {
	return func(ctx *EvalContext, args []Arg) Value {
		var size Size
		if area, ok := ctx.Area(args[0]); ok {
			size = area.Size()
		} else {
			m := ctx.Matrix(args[0])
			if len(m) == 1 && len(m[0]) == 1 && m[0][0].IsError() {
				return m[0][0]
			}
			size = Size{Width: len(m[0]), Height: len(m)}
		}
		if rows {
			return Number(float64(size.Height))
		}
		return Number(float64(size.Width))
	}
}

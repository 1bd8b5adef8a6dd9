package gridcalc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Mode selects how Recalculate resolves a grid.
type Mode uint8

const (
	// ModeGraph orders formula cells by their dependencies, evaluates each
	// once and marks cells on circular references with #CYCLE!.
	ModeGraph Mode = iota
	// ModeFixedPoint rescans every formula cell row by row until a pass
	// changes nothing or the pass budget runs out. Cells calling a volatile
	// function are evaluated in the first pass only.
	ModeFixedPoint
	// ModeDelegated hands the grid to the configured Engine once and
	// computes the remaining cells locally.
	ModeDelegated
)

var modeNames = map[Mode]string{
	ModeGraph:      "graph",
	ModeFixedPoint: "fixed",
	ModeDelegated:  "delegated",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode parses "graph", "fixed" or "delegated".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want graph, fixed or delegated)", s)
}

// Result describes one recalculation.
type Result struct {
	Grid      *Grid
	Mode      Mode
	Passes    int         // evaluation passes over the formula cells
	Converged bool        // false when the fixed-point budget ran out
	Cycles    [][]CellRef // circular reference groups found by the graph
	Delegated int         // formula cells whose engine result was kept
	Fallback  bool        // the engine failed and graph mode was used instead
}

// Calculator recalculates grids. It is safe for concurrent use; every call
// works on its own copy of the grid.
type Calculator struct {
	opts   *Options
	env    *environment
	logger *slog.Logger
	parsed sync.Map // formula text → parseResult
}

type parseResult struct {
	node Node
	err  error
}

// New creates a Calculator.
func New(opts ...Option) *Calculator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.engine == nil {
		o.engine = NewExcelizeEngine()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Calculator{
		opts: o,
		env: &environment{
			registry: o.registry,
			now:      o.now,
			random:   o.random,
			criteria: newCriteriaEvaluator(),
		},
		logger: o.logger,
	}
}

// Registry returns the function registry in use.
func (c *Calculator) Registry() *Registry {
	return c.opts.registry
}

// Parse parses formula text, caching the result by text.
func (c *Calculator) Parse(formula string) (Node, error) {
	if cached, ok := c.parsed.Load(formula); ok {
		r := cached.(parseResult)
		return r.node, r.err
	}
	n, err := ParseFormula(formula)
	c.parsed.Store(formula, parseResult{node: n, err: err})
	return n, err
}

// Evaluate computes one formula as if it sat at (row, col) of g. The grid is
// not modified.
func (c *Calculator) Evaluate(formula string, g *Grid, row, col int) Value {
	if g == nil {
		g = NewGrid(0, 0)
	}
	return c.evalFormula(g, CellRef{Row: row, Col: col}, formula)
}

// Recalculate resolves every formula cell of a copy of g and returns it.
// Individual cell failures become error values; only a nil grid is an error.
func (c *Calculator) Recalculate(g *Grid) (*Result, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	res := &Result{Grid: g.Clone(), Mode: c.opts.mode}
	switch c.opts.mode {
	case ModeFixedPoint:
		c.recalcFixedPoint(res)
	case ModeDelegated:
		c.recalcDelegated(res)
	default:
		c.recalcGraph(res)
	}
	return res, nil
}

func (c *Calculator) evalCell(g *Grid, ref CellRef) Value {
	cell, _ := g.Cell(ref)
	return c.evalFormula(g, ref, cell.Formula)
}

func (c *Calculator) evalFormula(g *Grid, ref CellRef, formula string) (v Value) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("formula panicked", "cell", ref.String(), "formula", formula, "panic", r)
			v = ErrorOf(ErrValue)
		}
	}()
	n, err := c.Parse(formula)
	if err != nil {
		return ErrorOf(ErrName)
	}
	return cellValue(newEvalContext(g, ref.Row, ref.Col, c.env).eval(n))
}

// cellValue turns an expression result into what a cell stores: arrays keep
// their top-left element and a blank result reads as zero.
func cellValue(v Value) Value {
	v = v.Scalar()
	if v.IsEmpty() {
		return Number(0)
	}
	return v
}

// parseAll parses every formula of g. Unparseable formulas map to nil.
func (c *Calculator) parseAll(g *Grid) map[CellRef]Node {
	parsed := make(map[CellRef]Node)
	for _, ref := range g.FormulaCells() {
		cell, _ := g.Cell(ref)
		n, err := c.Parse(cell.Formula)
		if err != nil {
			n = nil
		}
		parsed[ref] = n
	}
	return parsed
}

// markCycles stores #CYCLE! in every cell on a circular reference.
func (c *Calculator) markCycles(res *Result, s Schedule) {
	res.Cycles = s.Cycles
	for _, cycle := range s.Cycles {
		names := make([]string, len(cycle))
		for i, ref := range cycle {
			res.Grid.setValue(ref, ErrorOf(ErrCycle))
			names[i] = ref.String()
		}
		c.logger.Warn("circular reference", "cells", strings.Join(names, ","))
	}
}

func (c *Calculator) recalcGraph(res *Result) {
	g := res.Grid
	s := BuildDependencyGraph(g, c.parseAll(g)).Schedule()
	c.markCycles(res, s)
	for _, ref := range s.Order {
		g.setValue(ref, c.evalCell(g, ref))
	}
	res.Passes = 1
	res.Converged = true
	c.logger.Debug("graph recalculation done", "cells", len(s.Order), "cycles", len(s.Cycles))
}

func (c *Calculator) recalcFixedPoint(res *Result) {
	g := res.Grid
	formulas := g.FormulaCells()
	volatile := make(map[CellRef]bool)
	for ref, n := range c.parseAll(g) {
		if n != nil && c.opts.registry.Volatile(n) {
			volatile[ref] = true
		}
	}
	for pass := 1; pass <= c.opts.maxPasses; pass++ {
		changed := 0
		for _, ref := range formulas {
			if pass > 1 && volatile[ref] {
				continue
			}
			v := c.evalCell(g, ref)
			if !v.Equal(g.Value(ref)) {
				g.setValue(ref, v)
				changed++
			}
		}
		res.Passes = pass
		c.logger.Debug("recalculation pass", "pass", pass, "changed", changed)
		if changed == 0 {
			res.Converged = true
			return
		}
	}
	c.logger.Warn("recalculation did not converge", "passes", res.Passes)
}

// errBadEngineShape reports an engine result that does not match its input.
var errBadEngineShape = errors.New("engine result shape mismatch")

func (c *Calculator) recalcDelegated(res *Result) {
	g := res.Grid
	parsed := c.parseAll(g)
	dg := BuildDependencyGraph(g, parsed)
	s := dg.Schedule()

	out, err := c.opts.engine.Calculate(engineInput(g), CalcOptions{
		Precision:         c.opts.precision,
		MaxCalcIterations: c.opts.maxCalcIterations,
	})
	if err == nil && !sameShape(out, g) {
		err = errBadEngineShape
	}
	if err != nil {
		c.logger.Warn("delegated engine failed, falling back to graph mode", "error", err)
		res.Fallback = true
		c.recalcGraph(res)
		return
	}

	c.markCycles(res, s)
	accepted := make(map[CellRef]bool)
	for _, ref := range s.Order {
		if c.acceptEngine(dg, parsed[ref], ref, accepted) {
			if v := out[ref.Row][ref.Col]; !v.IsError() || v.Err != ErrName {
				g.setValue(ref, cellValue(v))
				accepted[ref] = true
				res.Delegated++
				continue
			}
		}
		g.setValue(ref, c.evalCell(g, ref))
	}
	res.Passes = 1
	res.Converged = true
	c.logger.Debug("delegated recalculation done", "delegated", res.Delegated, "local", len(s.Order)-res.Delegated)
}

// acceptEngine reports whether the engine's value for ref is authoritative:
// every function it calls is delegated and every formula cell it reads was
// itself taken from the engine.
func (c *Calculator) acceptEngine(dg *DependencyGraph, n Node, ref CellRef, accepted map[CellRef]bool) bool {
	if n == nil || !c.opts.registry.Delegable(n) {
		return false
	}
	node, ok := dg.Node(ref)
	if !ok {
		return false
	}
	for p := range node.Precedents {
		if !accepted[p] {
			return false
		}
	}
	return true
}

func sameShape(out [][]Value, g *Grid) bool {
	if len(out) != g.Rows() {
		return false
	}
	for _, row := range out {
		if len(row) != g.Cols() {
			return false
		}
	}
	return true
}

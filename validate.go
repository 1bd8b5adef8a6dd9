package gridcalc

import (
	"fmt"
	"strings"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // the cell will evaluate to an error
	SeverityWarning                 // the cell may produce unexpected results
)

// ValidationIssue represents a single problem found in a grid's formulas.
type ValidationIssue struct {
	Severity Severity
	CellRef  CellRef
	Message  string
}

// String formats the issue as "[ERROR] A2: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.CellRef, v.Message)
}

// Validate checks every formula of g without evaluating it: syntax, unknown
// functions and names, references outside the grid or to other sheets,
// argument counts and circular references. A nil registry means the
// built-in one. Issues come back in row-major cell order, cycles last.
func Validate(g *Grid, reg *Registry) []ValidationIssue {
	if reg == nil {
		reg = DefaultRegistry()
	}
	var issues []ValidationIssue
	parsed := make(map[CellRef]Node)
	for _, ref := range g.FormulaCells() {
		cell, _ := g.Cell(ref)
		n, err := ParseFormula(cell.Formula)
		if err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				CellRef:  ref,
				Message:  fmt.Sprintf("invalid formula %q: %v", cell.Formula, err),
			})
			continue
		}
		parsed[ref] = n
		issues = append(issues, validateNode(g, reg, ref, n)...)
	}

	for _, cycle := range BuildDependencyGraph(g, parsed).Schedule().Cycles {
		names := make([]string, len(cycle))
		for i, ref := range cycle {
			names[i] = ref.String()
		}
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			CellRef:  cycle[0],
			Message:  fmt.Sprintf("circular reference through %s", strings.Join(names, ", ")),
		})
	}
	return issues
}

// validateNode reports problems in one parsed formula.
func validateNode(g *Grid, reg *Registry, ref CellRef, n Node) []ValidationIssue {
	var issues []ValidationIssue
	add := func(sev Severity, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: sev, CellRef: ref, Message: fmt.Sprintf(format, args...)})
	}
	Walk(n, func(x Node) bool {
		switch x := x.(type) {
		case *CallNode:
			d, ok := reg.Lookup(x.Name)
			if !ok {
				add(SeverityError, "unknown function %s", x.Name)
			} else if !d.AcceptsArgs(len(x.Args)) {
				add(SeverityWarning, "%s expects %s arguments, got %d", x.Name, d.Arity(), len(x.Args))
			}
		case *NameNode:
			add(SeverityError, "unresolved name %q", x.Name)
		case *SheetRefNode:
			add(SeverityError, "sheet-qualified reference %s is not supported", x.Raw)
		case *RefNode:
			if !g.InBounds(x.Ref) {
				add(SeverityError, "reference %s is outside the grid %s", x.Ref, gridSize(g))
			}
		case *RangeNode:
			if !x.Whole && (!g.InBounds(x.Area.First) || !g.InBounds(x.Area.Last)) {
				add(SeverityError, "range %s is outside the grid %s", x.Area, gridSize(g))
			}
		}
		return true
	})
	return issues
}

func gridSize(g *Grid) Size {
	return Size{Width: g.Cols(), Height: g.Rows()}
}

package gridcalc

import (
	"regexp"
	"strings"
)

// cellRefRegex matches cell and range references in formula text
// (A1, $A$1, A1:B5, Sheet1!A1).
var cellRefRegex = regexp.MustCompile(`(?:('[^']+'|[A-Za-z0-9_]+)!)?\$?([A-Za-z]{1,3})\$?(\d+)(?::\$?([A-Za-z]{1,3})\$?(\d+))?`)

// quotedRegex matches string literals so references inside them are ignored.
var quotedRegex = regexp.MustCompile(`"(?:[^"]|"")*"`)

// DependencyMap extracts, for every formula cell, the addresses its formula
// text mentions, with ranges expanded up to the grid bounds and
// sheet-qualified references skipped.
// It works on text alone and is meant for diagnostics; recalculation uses
// the parsed dependency graph instead.
func DependencyMap(g *Grid) map[string][]string {
	deps := make(map[string][]string)
	bounds := AreaRef{Last: CellRef{Row: g.Rows() - 1, Col: g.Cols() - 1}}
	g.Each(func(ref CellRef, c Cell) {
		if !c.HasFormula() {
			return
		}
		deps[ref.String()] = formulaRefs(c.Formula, bounds)
	})
	return deps
}

// formulaRefs returns the addresses referenced by formula text in first-seen order.
// Ranges are clipped to bounds; single addresses are kept as written.
func formulaRefs(formula string, bounds AreaRef) []string {
	text := quotedRegex.ReplaceAllStringFunc(formula, func(s string) string {
		return strings.Repeat(" ", len(s))
	})

	seen := make(map[string]bool)
	refs := []string{}
	add := func(ref CellRef) {
		name := ref.String()
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}

	for _, m := range cellRefRegex.FindAllStringSubmatchIndex(text, -1) {
		if !refBoundary(text, m[0], m[1]) || m[2] >= 0 {
			continue
		}
		first, err := ParseCellRef(text[m[4]:m[5]] + text[m[6]:m[7]])
		if err != nil {
			continue
		}
		if m[8] < 0 {
			add(first)
			continue
		}
		last, err := ParseCellRef(text[m[8]:m[9]] + text[m[10]:m[11]])
		if err != nil {
			continue
		}
		area, ok := clipArea(NewAreaRef(first, last), bounds)
		if !ok {
			continue
		}
		for _, ref := range area.Cells() {
			add(ref)
		}
	}
	return refs
}

// clipArea intersects a with bounds, reporting false when they do not overlap.
func clipArea(a, bounds AreaRef) (AreaRef, bool) {
	out := AreaRef{
		First: CellRef{Row: max(a.First.Row, bounds.First.Row), Col: max(a.First.Col, bounds.First.Col)},
		Last:  CellRef{Row: min(a.Last.Row, bounds.Last.Row), Col: min(a.Last.Col, bounds.Last.Col)},
	}
	if out.First.Row > out.Last.Row || out.First.Col > out.Last.Col {
		return AreaRef{}, false
	}
	return out, true
}

// refBoundary rejects matches inside longer identifiers such as LOG10( or _A1.
func refBoundary(text string, start, end int) bool {
	if start > 0 {
		switch b := text[start-1]; {
		case isAlpha(b), b >= '0' && b <= '9', b == '_', b == '.':
			return false
		}
	}
	if end < len(text) {
		switch b := text[end]; {
		case b == '(', isAlpha(b), b == '_', b == '.':
			return false
		}
	}
	return true
}

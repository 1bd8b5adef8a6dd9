package gridcalc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scheduleOf parses every formula of rows and schedules the resulting graph.
func scheduleOf(t *testing.T, rows [][]string) (*DependencyGraph, Schedule) {
	t.Helper()
	g := GridFromInput(rows)
	parsed := make(map[CellRef]Node)
	for _, ref := range g.FormulaCells() {
		cell, _ := g.Cell(ref)
		n, err := ParseFormula(cell.Formula)
		require.NoError(t, err)
		parsed[ref] = n
	}
	dg := BuildDependencyGraph(g, parsed)
	return dg, dg.Schedule()
}

func refs(t *testing.T, addresses ...string) []CellRef {
	t.Helper()
	out := make([]CellRef, len(addresses))
	for i, a := range addresses {
		ref, err := ParseCellRef(a)
		require.NoError(t, err)
		out[i] = ref
	}
	return out
}

func TestSchedule_PrecedentsFirst(t *testing.T) {
	_, s := scheduleOf(t, [][]string{
		{"1", "=A1+1", "=B1*2", "=SUM(B1:C1)"},
	})
	assert.Empty(t, s.Cycles)
	if diff := cmp.Diff(refs(t, "B1", "C1", "D1"), s.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	_, s = scheduleOf(t, [][]string{
		{"=A2+1"},
		{"=A3+1"},
		{"5"},
	})
	if diff := cmp.Diff(refs(t, "A2", "A1"), s.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedule_Cycles(t *testing.T) {
	_, s := scheduleOf(t, [][]string{
		{"=B1", "=A1", "=A1+1", "=D1"},
	})
	want := [][]CellRef{refs(t, "A1", "B1"), refs(t, "D1")}
	if diff := cmp.Diff(want, s.Cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(refs(t, "C1"), s.Order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	cyclic := s.Cyclic()
	assert.Len(t, cyclic, 3)
	assert.True(t, cyclic[refs(t, "D1")[0]])
	assert.False(t, cyclic[refs(t, "C1")[0]])
}

func TestBuildDependencyGraph_Edges(t *testing.T) {
	dg, _ := scheduleOf(t, [][]string{
		{"=SUM(B1:B3)", "=1"},
		{"", "2"},
		{"=SUM(A:A)", "3"},
	})
	assert.Equal(t, 3, dg.Len())

	a1, ok := dg.Node(refs(t, "A1")[0])
	require.True(t, ok)
	assert.Len(t, a1.Precedents, 1)
	assert.Contains(t, a1.Precedents, refs(t, "B1")[0])

	b1, ok := dg.Node(refs(t, "B1")[0])
	require.True(t, ok)
	assert.Empty(t, b1.Precedents)
	assert.Contains(t, b1.Dependents, refs(t, "A1")[0])

	// A3 reads the whole column, itself included.
	a3, ok := dg.Node(refs(t, "A3")[0])
	require.True(t, ok)
	assert.Contains(t, a3.Precedents, refs(t, "A1")[0])
	assert.Contains(t, a3.Precedents, refs(t, "A3")[0])

	_, ok = dg.Node(refs(t, "B2")[0])
	assert.False(t, ok)
}

func TestBuildDependencyGraph_UnparsedCellsAreIsolated(t *testing.T) {
	g := GridFromInput([][]string{{"=A2", "=SUM("}, {"=B1", "1"}})
	n, err := ParseFormula("=A2")
	require.NoError(t, err)
	dg := BuildDependencyGraph(g, map[CellRef]Node{{Row: 0, Col: 0}: n})

	assert.Equal(t, 3, dg.Len())
	a1, _ := dg.Node(CellRef{Row: 0, Col: 0})
	assert.Contains(t, a1.Precedents, CellRef{Row: 1, Col: 0})
	b1, _ := dg.Node(CellRef{Row: 0, Col: 1})
	assert.Empty(t, b1.Precedents)
}

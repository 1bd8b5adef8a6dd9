package gridcalc

import "sort"

// DependencyNode is one formula cell in the dependency graph.
type DependencyNode struct {
	Ref        CellRef
	Precedents map[CellRef]*DependencyNode // formula cells this cell reads
	Dependents map[CellRef]*DependencyNode // formula cells that read this cell
}

// DependencyGraph links formula cells through the references in their formulas.
// Only formula cells are nodes; plain values never need ordering.
type DependencyGraph struct {
	nodes map[CellRef]*DependencyNode
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{nodes: make(map[CellRef]*DependencyNode)}
}

// BuildDependencyGraph adds a node for every formula cell of g and an edge for
// every reference that lands on another formula cell. Ranges are expanded to
// the formula cells they cover. parsed maps each formula cell to its AST;
// cells without an AST become isolated nodes.
func BuildDependencyGraph(g *Grid, parsed map[CellRef]Node) *DependencyGraph {
	dg := NewDependencyGraph()
	formulas := g.FormulaCells()
	for _, ref := range formulas {
		dg.getOrCreateNode(ref)
	}

	bounds := AreaRef{Last: CellRef{Row: g.Rows() - 1, Col: g.Cols() - 1}}
	for _, ref := range formulas {
		n := parsed[ref]
		if n == nil {
			continue
		}
		for _, area := range References(n) {
			area, ok := intersect(area, bounds)
			if !ok {
				continue
			}
			if area.Size().Width*area.Size().Height <= len(formulas) {
				for _, target := range area.Cells() {
					if _, isFormula := dg.nodes[target]; isFormula {
						dg.AddDependency(ref, target)
					}
				}
				continue
			}
			for _, target := range formulas {
				if area.Contains(target) {
					dg.AddDependency(ref, target)
				}
			}
		}
	}
	return dg
}

func intersect(a, b AreaRef) (AreaRef, bool) {
	out := AreaRef{
		First: CellRef{Row: max(a.First.Row, b.First.Row), Col: max(a.First.Col, b.First.Col)},
		Last:  CellRef{Row: min(a.Last.Row, b.Last.Row), Col: min(a.Last.Col, b.Last.Col)},
	}
	if out.First.Row > out.Last.Row || out.First.Col > out.Last.Col {
		return AreaRef{}, false
	}
	return out, true
}

func (dg *DependencyGraph) getOrCreateNode(ref CellRef) *DependencyNode {
	if node, ok := dg.nodes[ref]; ok {
		return node
	}
	node := &DependencyNode{
		Ref:        ref,
		Precedents: make(map[CellRef]*DependencyNode),
		Dependents: make(map[CellRef]*DependencyNode),
	}
	dg.nodes[ref] = node
	return node
}

// AddDependency records that from reads to.
func (dg *DependencyGraph) AddDependency(from, to CellRef) {
	fromNode := dg.getOrCreateNode(from)
	toNode := dg.getOrCreateNode(to)
	fromNode.Precedents[to] = toNode
	toNode.Dependents[from] = fromNode
}

// Node returns the node for ref.
func (dg *DependencyGraph) Node(ref CellRef) (*DependencyNode, bool) {
	node, ok := dg.nodes[ref]
	return node, ok
}

// Len returns the number of nodes.
func (dg *DependencyGraph) Len() int { return len(dg.nodes) }

// sortedRefs returns refs in row-major order so results are deterministic.
func sortedRefs[V any](m map[CellRef]V) []CellRef {
	refs := make([]CellRef, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return rowMajorLess(refs[i], refs[j]) })
	return refs
}

func rowMajorLess(a, b CellRef) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// Schedule is an evaluation plan: Order lists acyclic cells with every
// precedent before its dependents; Cycles lists each strongly connected
// component that contains a loop, members in row-major order.
type Schedule struct {
	Order  []CellRef
	Cycles [][]CellRef
}

// Cyclic returns the set of cells that sit on a cycle.
func (s Schedule) Cyclic() map[CellRef]bool {
	out := make(map[CellRef]bool)
	for _, c := range s.Cycles {
		for _, ref := range c {
			out[ref] = true
		}
	}
	return out
}

// Schedule runs Tarjan's strongly connected components algorithm. Tarjan
// emits components in reverse topological order of the condensed graph with
// edges pointing at precedents, which is exactly precedents-first.
// Cells that depend on a cycle without being on it stay in Order.
func (dg *DependencyGraph) Schedule() Schedule {
	t := &tarjan{
		graph:   dg,
		index:   make(map[CellRef]int),
		lowlink: make(map[CellRef]int),
		onStack: make(map[CellRef]bool),
	}
	for _, ref := range sortedRefs(dg.nodes) {
		if _, seen := t.index[ref]; !seen {
			t.connect(ref)
		}
	}

	var s Schedule
	for _, comp := range t.components {
		node := dg.nodes[comp[0]]
		_, selfLoop := node.Precedents[node.Ref]
		if len(comp) == 1 && !selfLoop {
			s.Order = append(s.Order, comp[0])
			continue
		}
		sort.Slice(comp, func(i, j int) bool { return rowMajorLess(comp[i], comp[j]) })
		s.Cycles = append(s.Cycles, comp)
	}
	return s
}

type tarjan struct {
	graph      *DependencyGraph
	counter    int
	index      map[CellRef]int
	lowlink    map[CellRef]int
	stack      []CellRef
	onStack    map[CellRef]bool
	components [][]CellRef
}

func (t *tarjan) connect(v CellRef) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range sortedRefs(t.graph.nodes[v].Precedents) {
		if _, seen := t.index[w]; !seen {
			t.connect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var comp []CellRef
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, comp)
}

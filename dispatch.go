package gridcalc

// Match is the result of recognizing a function call in formula text.
type Match struct {
	Descriptor *FormulaDescriptor
	Args       []string // canonical text of each top-level argument
}

// MatchFormula recognizes formula text (with or without '=') whose top-level
// expression is a call to a registered function. It returns false when the
// text does not parse, is not a call, or names an unknown function.
func (r *Registry) MatchFormula(formulaBody string) (*Match, bool) {
	n, err := ParseFormula(formulaBody)
	if err != nil {
		return nil, false
	}
	call, ok := n.(*CallNode)
	if !ok {
		return nil, false
	}
	d, ok := r.Lookup(call.Name)
	if !ok {
		return nil, false
	}
	m := &Match{Descriptor: d, Args: make([]string, len(call.Args))}
	for i, a := range call.Args {
		m.Args[i] = a.String()
	}
	return m, true
}

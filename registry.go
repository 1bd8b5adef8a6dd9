package gridcalc

import (
	"fmt"
	"strings"
	"sync"
)

// Category groups functions for listings and demos.
type Category string

const (
	CategoryMath    Category = "math"
	CategoryStats   Category = "statistics"
	CategoryLogical Category = "logical"
	CategoryLookup  Category = "lookup"
	CategoryText    Category = "text"
	CategoryDate    Category = "date"
	CategoryInfo    Category = "information"
)

// Authority names the evaluator whose result is authoritative for a function.
type Authority uint8

const (
	// AuthorityLocal functions are always computed by the local procedure.
	AuthorityLocal Authority = iota
	// AuthorityDelegated functions may be computed by the configured Engine.
	AuthorityDelegated
)

func (a Authority) String() string {
	if a == AuthorityDelegated {
		return "delegated"
	}
	return "local"
}

// Variadic marks a descriptor without an upper argument bound.
const Variadic = -1

// Procedure computes a function result from its unevaluated arguments.
type Procedure func(ctx *EvalContext, args []Arg) Value

// FormulaDescriptor is one registry entry.
type FormulaDescriptor struct {
	Name      string
	Category  Category
	MinArgs   int
	MaxArgs   int // Variadic for no limit
	Authority Authority
	Volatile  bool
	Fn        Procedure
}

// Delegated reports whether an external engine may compute this function.
func (d *FormulaDescriptor) Delegated() bool {
	return d.Authority == AuthorityDelegated
}

// AcceptsArgs reports whether n arguments satisfy the descriptor's arity.
func (d *FormulaDescriptor) AcceptsArgs(n int) bool {
	if n < d.MinArgs {
		return false
	}
	return d.MaxArgs == Variadic || n <= d.MaxArgs
}

// Arity renders the accepted argument count, e.g. "2", "1-3" or "1+".
func (d *FormulaDescriptor) Arity() string {
	switch {
	case d.MaxArgs == Variadic:
		return fmt.Sprintf("%d+", d.MinArgs)
	case d.MinArgs == d.MaxArgs:
		return fmt.Sprintf("%d", d.MinArgs)
	}
	return fmt.Sprintf("%d-%d", d.MinArgs, d.MaxArgs)
}

// Registry is an ordered set of function descriptors keyed by upper-case name.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []*FormulaDescriptor
	byName map[string]*FormulaDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*FormulaDescriptor)}
}

// Register adds a descriptor. Names are case-insensitive and must be unique.
func (r *Registry) Register(d FormulaDescriptor) error {
	name := strings.ToUpper(strings.TrimSpace(d.Name))
	if name == "" {
		return fmt.Errorf("register function: empty name")
	}
	if d.Fn == nil {
		return fmt.Errorf("register function %q: nil procedure", name)
	}
	d.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("register function %q: %w", name, ErrDuplicateFunction)
	}
	r.order = append(r.order, &d)
	r.byName[name] = &d
	return nil
}

// Lookup finds a descriptor by exact (case-insensitive) name.
func (r *Registry) Lookup(name string) (*FormulaDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[strings.ToUpper(name)]
	return d, ok
}

// Descriptors returns a copy of every descriptor in registration order.
func (r *Registry) Descriptors() []FormulaDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FormulaDescriptor, len(r.order))
	for i, d := range r.order {
		out[i] = *d
	}
	return out
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Delegable reports whether every function called by n is registered with
// AuthorityDelegated. Formulas without calls are delegable.
func (r *Registry) Delegable(n Node) bool {
	for _, name := range Calls(n) {
		d, ok := r.Lookup(name)
		if !ok || !d.Delegated() {
			return false
		}
	}
	return true
}

// Volatile reports whether n calls any volatile function.
func (r *Registry) Volatile(n Node) bool {
	for _, name := range Calls(n) {
		if d, ok := r.Lookup(name); ok && d.Volatile {
			return true
		}
	}
	return false
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry of built-in functions.
// It is built once on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewBuiltinRegistry()
	})
	return defaultRegistry
}

// NewBuiltinRegistry returns a fresh registry holding every built-in function.
// Callers may register additional functions on it.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	groups := [][]FormulaDescriptor{
		mathFunctions(),
		statsFunctions(),
		logicalFunctions(),
		lookupFunctions(),
		textFunctions(),
		dateFunctions(),
		infoFunctions(),
	}
	for _, group := range groups {
		for _, d := range group {
			if err := r.Register(d); err != nil {
				panic(err)
			}
		}
	}
	return r
}

// fn is shorthand for building delegable descriptors in the function tables.
func fn(name string, cat Category, minArgs, maxArgs int, p Procedure) FormulaDescriptor {
	return FormulaDescriptor{
		Name:      name,
		Category:  cat,
		MinArgs:   minArgs,
		MaxArgs:   maxArgs,
		Authority: AuthorityDelegated,
		Fn:        p,
	}
}

// local marks a descriptor as computed only by its local procedure.
func local(d FormulaDescriptor) FormulaDescriptor {
	d.Authority = AuthorityLocal
	return d
}

// volatile marks a descriptor as volatile; volatile functions are always local.
func volatile(d FormulaDescriptor) FormulaDescriptor {
	d.Volatile = true
	d.Authority = AuthorityLocal
	return d
}

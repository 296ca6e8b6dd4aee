package obfmap

import (
	"iter"
	"strings"
)

// Kind discriminates the declaration variants held by a Symbol.
type Kind string

const (
	KindUnknown     Kind = ""
	KindClass       Kind = "class"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindField       Kind = "field"
	KindProperty    Kind = "property"
	KindEvent       Kind = "event"
)

// IsCallable reports whether the kind carries a parameter list.
func (k Kind) IsCallable() bool {
	return k == KindMethod || k == KindConstructor
}

// Symbol is one declaration from a mapping document. Fields below the common
// block are only meaningful for the kinds noted.
type Symbol struct {
	Kind    Kind
	Name    EntityName
	Skipped bool
	Reason  string

	// OwnerName is the declared enclosing class, in dotted form. Non-empty
	// marks a nested class; it is the join key for tree building.
	OwnerName string

	// Owner is a lookup-only back-reference to the enclosing class. The
	// owning edge runs the other way, through Children.
	Owner *Symbol

	// Classes.
	Module   string
	Children []*Symbol

	// Methods and constructors.
	ReturnType string
	Params     []EntityName
}

// IsNested reports whether the symbol was declared with an owner.
func (s *Symbol) IsNested() bool {
	return s.OwnerName != ""
}

// MethodCount returns the number of methods and constructors declared
// directly on a class.
func (s *Symbol) MethodCount() int {
	n := 0
	for _, c := range s.Children {
		if c.Kind.IsCallable() {
			n++
		}
	}
	return n
}

// FullName returns the dotted path of the symbol on the given side.
func (s *Symbol) FullName(side Side) string {
	q := s.Name.Side(side)
	if q == nil {
		return ""
	}
	return q.Path()
}

// DisplayName is FullName plus, for callables, the parameter list rendered on
// the same side.
func (s *Symbol) DisplayName(side Side) string {
	name := s.FullName(side)
	if !s.Kind.IsCallable() {
		return name
	}
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		if q := p.Side(side); q != nil {
			params[i] = q.Path()
		}
	}
	return name + "(" + strings.Join(params, ", ") + ")"
}

// CompareParams reports whether params matches the symbol's parameter list
// element by element on simple name. Comparison is ordinal and sensitive to
// both order and arity.
func (s *Symbol) CompareParams(params []QualifiedName, side Side) bool {
	if len(params) != len(s.Params) {
		return false
	}
	for i, p := range s.Params {
		q := p.Side(side)
		if q == nil || q.Name != params[i].Name {
			return false
		}
	}
	return true
}

// Walk yields the symbol and all of its descendants in pre-order.
func (s *Symbol) Walk() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		s.walk(yield)
	}
}

func (s *Symbol) walk(yield func(*Symbol) bool) bool {
	if !yield(s) {
		return false
	}
	for _, c := range s.Children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// findClass descends the class tree looking for a class whose full name on
// side equals target.
func (s *Symbol) findClass(target string, side Side) *Symbol {
	if s.Kind != KindClass {
		return nil
	}
	if s.FullName(side) == target {
		return s
	}
	for _, c := range s.Children {
		if found := c.findClass(target, side); found != nil {
			return found
		}
	}
	return nil
}

// search yields descendants reachable from s by consuming tokens. s itself
// has already matched; tokens is what remains.
func (s *Symbol) search(tokens []string, side Side, yield func(*Symbol) bool) bool {
	if len(tokens) == 0 {
		return yield(s)
	}
	for _, c := range s.Children {
		q := c.Name.Side(side)
		if q == nil || q.Name != tokens[0] {
			continue
		}
		if c.Kind == KindClass {
			if !c.search(tokens[1:], side, yield) {
				return false
			}
			continue
		}
		if len(tokens) == 1 && !yield(c) {
			return false
		}
	}
	return true
}

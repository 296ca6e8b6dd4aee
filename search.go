package obfmap

import (
	"iter"
	"slices"
	"strings"
)

// SearchOptions control Index.Search.
type SearchOptions struct {
	// Substitute re-resolves renamed parameter types to their original names
	// and retries overload matching once when nothing matched directly.
	Substitute bool

	// FilterPrefix drops one leading whitespace-delimited token, such as the
	// "at" of a stack frame, before parsing.
	FilterPrefix bool
}

// SearchResults is the outcome of one query. Matches is lazy and may be
// ranged over any number of times; each pass re-runs the search against the
// same immutable index.
type SearchResults struct {
	Query   string
	Entity  *Entity // nil when the query could not be parsed
	Err     error   // ErrEmptyQuery or ErrMalformedQuery, wrapped
	Target  Side    // the side matches are reported in
	Matches iter.Seq[*Symbol]
}

// All collects every match.
func (r *SearchResults) All() []*Symbol {
	return slices.Collect(r.Matches)
}

// First returns the first match, or nil.
func (r *SearchResults) First() *Symbol {
	for s := range r.Matches {
		return s
	}
	return nil
}

// String renders the matches on the target side, separated by " | ". A query
// with no match renders as itself.
func (r *SearchResults) String() string {
	var names []string
	for s := range r.Matches {
		names = append(names, s.DisplayName(r.Target))
	}
	if len(names) == 0 {
		return r.Query
	}
	return strings.Join(names, " | ")
}

func noMatches(func(*Symbol) bool) {}

// Search resolves a reference written with renamed names back to the
// original declarations.
func (x *Index) Search(query string, opts SearchOptions) *SearchResults {
	text := strings.TrimLeft(query, " \t")
	if opts.FilterPrefix {
		text = StripPrefix(text)
	}

	res := &SearchResults{Query: query, Target: Original, Matches: noMatches}
	e, err := ParseEntity(text)
	if err != nil {
		res.Err = err
		return res
	}
	res.Entity = e
	if e.Kind.IsCallable() {
		res.Matches = x.searchMethod(e, Renamed, opts.Substitute)
	} else {
		res.Matches = x.searchItem(e.Tokens(), Renamed)
	}
	return res
}

// SearchOriginal finds declarations by their original names, reporting the
// renamed names. It never substitutes parameters.
func (x *Index) SearchOriginal(query string) *SearchResults {
	res := &SearchResults{Query: query, Target: Renamed, Matches: noMatches}
	e, err := ParseEntity(query)
	if err != nil {
		res.Err = err
		return res
	}
	res.Entity = e
	if e.Kind.IsCallable() {
		res.Matches = x.searchMethod(e, Original, false)
	} else {
		res.Matches = x.searchItem(e.Tokens(), Original)
	}
	return res
}

// StripPrefix removes the first whitespace-delimited token, such as the "at"
// of a stack frame, when it comes before any parameter list. Leading
// whitespace is dropped first.
func StripPrefix(s string) string {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s
	}
	if p := strings.IndexByte(s, '('); p >= 0 && p < i {
		return s
	}
	return strings.TrimLeft(s[i:], " \t")
}

// searchItem yields every symbol reachable by the token path on side. A
// top-level class consumes the shortest token prefix equal to its full name;
// below that each token names one child.
func (x *Index) searchItem(tokens []string, side Side) iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		if len(tokens) == 0 {
			return
		}
		for _, c := range x.classes {
			full := c.FullName(side)
			if full == "" {
				continue
			}
			var path strings.Builder
			for k := 1; k <= len(tokens); k++ {
				if k > 1 {
					path.WriteByte('.')
				}
				path.WriteString(tokens[k-1])
				if path.Len() > len(full) {
					break
				}
				if path.String() == full {
					if !c.search(tokens[k:], side, yield) {
						return
					}
					break
				}
			}
		}
	}
}

// searchMethod yields callables found by name whose parameters match the
// entity's. Parameters are always compared on their original names.
func (x *Index) searchMethod(e *Entity, side Side, substitute bool) iter.Seq[*Symbol] {
	tokens := e.Tokens()
	return func(yield func(*Symbol) bool) {
		matched := false
		for s := range x.searchItem(tokens, side) {
			if !s.Kind.IsCallable() || !s.CompareParams(e.Params, Original) {
				continue
			}
			matched = true
			if !yield(s) {
				return
			}
		}
		if matched || !substitute || len(e.Params) == 0 {
			return
		}

		params := x.substituteParams(e.Params)
		for s := range x.searchItem(tokens, side) {
			if !s.Kind.IsCallable() || !s.CompareParams(params, Original) {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// substituteParams maps each renamed parameter type to its original name:
// first as a dotted renamed path, then by renamed simple name among top-level
// classes ignoring namespace. The last hit wins; parameters that resolve to
// nothing are kept as given.
func (x *Index) substituteParams(params []QualifiedName) []QualifiedName {
	out := slices.Clone(params)
	for i, p := range out {
		var found *QualifiedName
		for s := range x.searchItem(SplitPath(p.Path()), Renamed) {
			if s.Name.Original != nil {
				found = s.Name.Original
			}
		}
		if found == nil {
			for _, c := range x.classes {
				if q := c.Name.Renamed; q != nil && q.Name == p.Name && c.Name.Original != nil {
					found = c.Name.Original
				}
			}
		}
		if found != nil {
			out[i] = *found
		}
	}
	return out
}

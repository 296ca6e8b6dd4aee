package obfmap

import (
	"fmt"
	"strings"
)

// Entity is a structured description of a free-text symbol reference. It is
// built per query and never stored.
type Entity struct {
	Text       string
	Kind       Kind // KindMethod or KindConstructor with a parameter list, else KindUnknown
	Name       QualifiedName
	ReturnType string
	Params     []QualifiedName
}

// Tokens returns the dotted path of the entity split into search tokens.
func (e *Entity) Tokens() []string {
	return SplitPath(e.Name.Path())
}

// ParseEntity parses a symbol reference such as
//
//	System.Void a.b.c(System.String, a.d)
//	Foo.Bar+Inner..ctor(String s) in Foo.cs:line 12
//	a.b
//
// A parameter list makes the entity a method (or constructor for .ctor and
// .cctor). Leading tokens before the path become ReturnType. Parameters keep
// only their type, so names printed in stack traces are dropped.
func ParseEntity(s string) (*Entity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyQuery
	}

	head, params, hasParams, err := splitParams(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}

	e := &Entity{Text: s, Kind: KindUnknown}
	if i := lastTopLevelSpace(head); i >= 0 {
		e.ReturnType = strings.TrimSpace(head[:i])
		head = strings.TrimSpace(head[i+1:])
	}
	tokens := SplitPath(head)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no symbol path in %q", ErrMalformedQuery, s)
	}
	e.Name = QualifiedName{
		Namespace: strings.Join(tokens[:len(tokens)-1], "."),
		Name:      tokens[len(tokens)-1],
	}

	if hasParams {
		e.Kind = KindMethod
		if isConstructorName(e.Name.Name) {
			e.Kind = KindConstructor
		}
		e.Params = make([]QualifiedName, 0, len(params))
		for _, p := range params {
			if i := lastTopLevelSpace(p); i >= 0 {
				p = strings.TrimSpace(p[:i])
			}
			e.Params = append(e.Params, ParseQualifiedName(p))
		}
	}
	return e, nil
}

package obfmap

import (
	"fmt"
	"strings"

	"github.com/ericsoft/obfmap/internal/xmltree"
)

// Document element and attribute names.
const (
	tagMapping       = "mapping"
	tagRenamedTypes  = "renamedTypes"
	tagSkippedTypes  = "skippedTypes"
	tagRenamedClass  = "renamedClass"
	tagSkippedClass  = "skippedClass"
	attrOldName      = "oldName"
	attrNewName      = "newName"
	attrName         = "name"
	attrReason       = "reason"
	attrOwner        = "owner"
	attrModule       = "module"
	systemNamespace  = "System."
	renamedTagPrefix = "renamed"
	skippedTagPrefix = "skipped"
)

// memberKinds maps the tag suffix of a member element to its kind.
var memberKinds = map[string]Kind{
	"Method":   KindMethod,
	"Field":    KindField,
	"Property": KindProperty,
	"Event":    KindEvent,
}

// load reads the renamedTypes and skippedTypes sections. Top-level classes go
// straight to b.classes; nested ones are queued in b.nested for attach.
func (b *indexBuilder) load(root *xmltree.Node) error {
	if root.Name != tagMapping {
		return fmt.Errorf("%w: root element is <%s>, want <%s>", ErrMalformedDocument, root.Name, tagMapping)
	}
	if m, ok := root.Attr(attrModule); ok && b.idx.defaultModule == "" {
		b.idx.defaultModule = m
	}

	if types := root.Child(tagRenamedTypes); types != nil {
		for _, el := range types.Children {
			if el.Name != tagRenamedClass {
				continue
			}
			c, err := parseClass(el, false)
			if err != nil {
				return err
			}
			b.idx.stats.Classes++
			b.add(c)

			b.idx.stats.Methods += c.MethodCount()
			if c.Module != "" {
				b.modules.add(c.Module)
			}
			if !c.IsNested() {
				if c.Name.Original != nil && strings.HasPrefix(c.Name.Original.Namespace, systemNamespace) {
					b.idx.stats.HasSystemEntities = true
				}
				if c.Name.Original != nil {
					b.namespaces.add(c.Name.Original.Namespace)
				}
				if c.Name.Renamed != nil {
					b.renamedNamespaces.add(c.Name.Renamed.Namespace)
				}
			}
		}
	}

	if types := root.Child(tagSkippedTypes); types != nil {
		for _, el := range types.Children {
			if el.Name != tagSkippedClass {
				continue
			}
			c, err := parseClass(el, true)
			if err != nil {
				return err
			}
			b.idx.stats.Skipped++
			b.idx.stats.Classes++
			b.add(c)
		}
	}
	return nil
}

func (b *indexBuilder) add(c *Symbol) {
	if c.IsNested() {
		b.nested = append(b.nested, c)
		return
	}
	b.idx.classes = append(b.idx.classes, c)
}

// parseClass builds a class symbol and its members from a renamedClass or
// skippedClass element.
func parseClass(el *xmltree.Node, skipped bool) (*Symbol, error) {
	nameAttr := attrOldName
	if skipped {
		nameAttr = attrName
	}
	oldName, ok := el.Attr(nameAttr)
	if !ok || strings.TrimSpace(oldName) == "" {
		return nil, fmt.Errorf("%w: <%s> without %s", ErrMalformedDocument, el.Name, nameAttr)
	}

	c := &Symbol{Kind: KindClass, Skipped: skipped}
	c.Reason, _ = el.Attr(attrReason)

	module, path := splitModule(oldName)
	owner, original := splitOwner(path)
	if explicit, ok := el.Attr(attrOwner); ok && explicit != "" {
		owner = strings.Join(SplitPath(explicit), ".")
		original = QualifiedName{Namespace: owner, Name: ParseQualifiedName(path).Name}
	}
	c.OwnerName = owner
	c.Name.Original = &original
	c.Module = module

	if newName, ok := el.Attr(attrNewName); ok && !skipped && newName != "" {
		newModule, newPath := splitModule(newName)
		_, renamed := splitOwner(newPath)
		c.Name.Renamed = &renamed
		if newModule != "" {
			c.Module = newModule
		}
	}

	for _, child := range el.Children {
		m, err := parseMember(child, original.Path())
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", original.Path(), err)
		}
		if m != nil {
			c.Children = append(c.Children, m)
		}
	}
	return c, nil
}

// parseMember builds a member symbol. Elements whose tag is not a known
// member kind are ignored and return (nil, nil).
func parseMember(el *xmltree.Node, ownerPath string) (*Symbol, error) {
	var skipped bool
	var suffix string
	switch {
	case strings.HasPrefix(el.Name, renamedTagPrefix):
		suffix = strings.TrimPrefix(el.Name, renamedTagPrefix)
	case strings.HasPrefix(el.Name, skippedTagPrefix):
		suffix = strings.TrimPrefix(el.Name, skippedTagPrefix)
		skipped = true
	default:
		return nil, nil
	}
	kind, ok := memberKinds[suffix]
	if !ok {
		return nil, nil
	}

	nameAttr := attrOldName
	if skipped {
		nameAttr = attrName
	}
	sig, ok := el.Attr(nameAttr)
	if !ok || strings.TrimSpace(sig) == "" {
		return nil, fmt.Errorf("%w: <%s> without %s", ErrMalformedDocument, el.Name, nameAttr)
	}

	m, err := parseSignature(sig)
	if err != nil {
		return nil, fmt.Errorf("%w: <%s %s=%q>: %v", ErrMalformedDocument, el.Name, nameAttr, sig, err)
	}
	m.Skipped = skipped
	m.Reason, _ = el.Attr(attrReason)
	m.Name.Original.Namespace = ownerPath
	if kind == KindMethod && isConstructorName(m.Name.Original.Name) {
		kind = KindConstructor
	}
	m.Kind = kind
	if !kind.IsCallable() {
		m.Params = nil
	}

	if newName, ok := el.Attr(attrNewName); ok && !skipped && newName != "" {
		m.Name.Renamed = &QualifiedName{Name: newName}
	}
	return m, nil
}

// parseSignature splits "[ReturnType ][Owner::]Name[(P1,P2)]" into a symbol
// with only the original name, return type and parameters populated.
func parseSignature(sig string) (*Symbol, error) {
	sig = strings.TrimSpace(sig)
	head, params, hasParams, err := splitParams(sig)
	if err != nil {
		return nil, err
	}

	s := &Symbol{}
	if i := lastTopLevelSpace(head); i >= 0 {
		s.ReturnType = strings.TrimSpace(head[:i])
		head = strings.TrimSpace(head[i+1:])
	}
	if i := strings.LastIndex(head, "::"); i >= 0 {
		head = head[i+2:]
	}
	name := ParseQualifiedName(head).Name
	if name == "" {
		return nil, fmt.Errorf("empty member name")
	}
	s.Name.Original = &QualifiedName{Name: name}

	if hasParams {
		for _, p := range params {
			q := ParseQualifiedName(p)
			s.Params = append(s.Params, EntityName{Original: &q})
		}
	}
	return s, nil
}

// splitParams separates a trailing parenthesised parameter list. Text after
// the closing parenthesis is discarded.
func splitParams(s string) (head string, params []string, ok bool, err error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, false, nil
	}
	depth := 0
	closeAt := -1
	for i := open; i < len(s) && closeAt < 0; i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeAt = i
			}
		}
	}
	if closeAt < 0 {
		return "", nil, false, fmt.Errorf("unterminated parameter list in %q", s)
	}
	inner := strings.TrimSpace(s[open+1 : closeAt])
	if inner != "" {
		for _, p := range splitTopLevel(inner, ',') {
			if p = strings.TrimSpace(p); p != "" {
				params = append(params, p)
			}
		}
	}
	return strings.TrimSpace(s[:open]), params, true, nil
}

// lastTopLevelSpace returns the index of the last space outside generic
// brackets, or -1.
func lastTopLevelSpace(s string) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '>', ']':
			depth++
		case '<', '[':
			depth--
		case ' ', '\t':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitModule strips a leading "[Module]" prefix.
func splitModule(s string) (module, rest string) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if i := strings.IndexByte(s, ']'); i > 0 {
			return s[1:i], s[i+1:]
		}
	}
	return "", s
}

// splitOwner separates a nested type path "Outer/Inner" into the dotted owner
// path and the nested name. Paths without '/' have no owner.
func splitOwner(path string) (owner string, name QualifiedName) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", ParseQualifiedName(path)
	}
	owner = strings.Join(SplitPath(path[:i]), ".")
	return owner, QualifiedName{Namespace: owner, Name: path[i+1:]}
}

// orderedSet is a deduplicated, insertion-ordered string set. Empty strings
// are ignored.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

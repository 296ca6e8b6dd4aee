package obfmap

import "strings"

// Side selects which half of an EntityName a lookup is keyed by.
type Side int

const (
	Original Side = iota
	Renamed
)

func (s Side) String() string {
	if s == Renamed {
		return "renamed"
	}
	return "original"
}

// QualifiedName is a namespace plus a simple name. For nested classes and
// members the namespace holds the dotted path of the enclosing class.
type QualifiedName struct {
	Namespace string
	Name      string
}

// Path returns the dotted full name.
func (q QualifiedName) Path() string {
	if q.Namespace == "" {
		return q.Name
	}
	return q.Namespace + "." + q.Name
}

func (q QualifiedName) String() string {
	return q.Path()
}

// EntityName pairs an original name with its renamed counterpart. Either side
// may be nil; Side falls back to the original when the renamed half is absent,
// which is how skipped declarations keep their identity.
type EntityName struct {
	Original *QualifiedName
	Renamed  *QualifiedName
}

// Side returns the requested half, or nil if neither half is present.
func (n EntityName) Side(side Side) *QualifiedName {
	if side == Renamed && n.Renamed != nil {
		return n.Renamed
	}
	return n.Original
}

// ParseQualifiedName splits s at its last '.' that is not inside generic
// brackets. Nested-type separators ('/' and '+') are normalised to '.'.
func ParseQualifiedName(s string) QualifiedName {
	s = normalizeSeparators(strings.TrimSpace(s))
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '>', ']':
			depth++
		case '<', '[':
			depth--
		case '.':
			if depth != 0 {
				continue
			}
			// ".ctor" keeps its leading dot.
			if i > 0 && s[i-1] == '.' {
				return QualifiedName{Namespace: s[:i-1], Name: s[i:]}
			}
			if i == 0 {
				return QualifiedName{Name: s}
			}
			return QualifiedName{Namespace: s[:i], Name: s[i+1:]}
		}
	}
	return QualifiedName{Name: s}
}

// normalizeSeparators rewrites "::", "/" and "+" to '.' so a single tokenizer
// handles member, nested and stack-trace notations alike.
func normalizeSeparators(s string) string {
	if !strings.ContainsAny(s, ":/+") {
		return s
	}
	s = strings.ReplaceAll(s, "::", ".")
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '+' {
			return '.'
		}
		return r
	}, s)
}

// SplitPath tokenizes a dotted symbol path. ".ctor" and ".cctor" stay
// single tokens; empty segments are dropped.
func SplitPath(s string) []string {
	s = normalizeSeparators(s)
	raw := strings.Split(s, ".")
	tokens := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if t == "" {
			if i+1 < len(raw) && isConstructorToken(raw[i+1]) {
				tokens = append(tokens, "."+raw[i+1])
				i++
			}
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func isConstructorToken(t string) bool {
	return t == "ctor" || t == "cctor"
}

// isConstructorName reports whether name is a .NET instance or static
// constructor name.
func isConstructorName(name string) bool {
	return name == ".ctor" || name == ".cctor"
}

// splitTopLevel splits s on sep, ignoring separators nested inside generic
// or array brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

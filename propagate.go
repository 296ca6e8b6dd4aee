package obfmap

// propagate fills in renamed names and modules that the document leaves
// implicit. It must run after attach, since a nested class takes its renamed
// context from the owner it was attached to. Running it twice is a no-op.
func propagate(idx *Index) {
	for _, c := range idx.classes {
		propagateClass(c, idx.defaultModule)
	}

	// Parameter types are looked up among classes by original full name; the
	// first class in walk order wins, matching FindClass.
	byOriginal := make(map[string]*Symbol)
	for s := range idx.Symbols() {
		if s.Kind != KindClass {
			continue
		}
		name := s.FullName(Original)
		if _, ok := byOriginal[name]; !ok {
			byOriginal[name] = s
		}
	}
	for s := range idx.Symbols() {
		if !s.Kind.IsCallable() {
			continue
		}
		for i := range s.Params {
			p := &s.Params[i]
			if p.Renamed != nil || p.Original == nil {
				continue
			}
			cls, ok := byOriginal[p.Original.Path()]
			if !ok || cls.Name.Renamed == nil {
				continue
			}
			renamed := *cls.Name.Renamed
			p.Renamed = &renamed
		}
	}
}

func propagateClass(c *Symbol, defaultModule string) {
	if c.Module == "" {
		if c.Owner != nil {
			c.Module = c.Owner.Module
		} else {
			c.Module = defaultModule
		}
	}
	if c.Owner != nil {
		inheritNamespace(c, c.Owner)
	}
	for _, child := range c.Children {
		if child.Kind == KindClass {
			propagateClass(child, defaultModule)
			continue
		}
		inheritNamespace(child, c)
	}
}

// inheritNamespace places s under owner's original and renamed paths. A
// symbol with no renamed name of its own gets one only when the owner was
// itself renamed, so that it stays reachable through the owner's obfuscated
// path.
func inheritNamespace(s, owner *Symbol) {
	if s.Name.Original != nil {
		s.Name.Original.Namespace = owner.FullName(Original)
	}
	ownerRenamed := owner.FullName(Renamed)
	if s.Name.Renamed != nil {
		if s.Name.Renamed.Namespace == "" {
			s.Name.Renamed.Namespace = ownerRenamed
		}
		return
	}
	if s.Name.Original == nil || ownerRenamed == owner.FullName(Original) {
		return
	}
	s.Name.Renamed = &QualifiedName{Namespace: ownerRenamed, Name: s.Name.Original.Name}
}

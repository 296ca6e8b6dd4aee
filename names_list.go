package obfmap

// OriginalNames returns the distinct original full names of every indexed
// symbol, in walk order. Used for autocompletion.
func (x *Index) OriginalNames() []string {
	return x.names(Original)
}

// RenamedNames returns the distinct renamed full names of every symbol that
// has a renamed side.
func (x *Index) RenamedNames() []string {
	return x.names(Renamed)
}

func (x *Index) names(side Side) []string {
	var set orderedSet
	for s := range x.Symbols() {
		if side == Renamed && s.Name.Renamed == nil {
			continue
		}
		set.add(s.FullName(side))
	}
	return set.items
}

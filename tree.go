package obfmap

import "log/slog"

// attach resolves each queued nested class to its owner, first by original
// name and then by renamed name, in document order. A class whose owner is
// not found is promoted to the top level and recorded as a diagnostic.
//
// Lookups scan the top-level collection in order, so when two classes share a
// lookup key the one declared first wins.
func (b *indexBuilder) attach() {
	for _, c := range b.nested {
		owner := b.idx.FindClass(c.OwnerName, Original)
		if owner == nil {
			owner = b.idx.FindClass(c.OwnerName, Renamed)
		}
		if owner != nil {
			owner.Children = append(owner.Children, c)
			c.Owner = owner
			b.idx.stats.Subclasses++
			continue
		}

		b.logger.Warn("owner class not found, promoting to top level",
			slog.String("class", c.FullName(Original)),
			slog.String("owner", c.OwnerName),
		)
		b.idx.diagnostics = append(b.idx.diagnostics, Diagnostic{
			Kind:    UnresolvedOwner,
			Symbol:  c.FullName(Original),
			Message: "owner " + c.OwnerName + " not found",
		})
		b.idx.classes = append(b.idx.classes, c)
	}
	b.nested = nil
}

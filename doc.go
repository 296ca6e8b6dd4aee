// Package obfmap resolves identifiers renamed by an obfuscator back to their
// original declarations, and the reverse, using the mapping document the
// obfuscator writes alongside its output.
//
// # Pipeline
//
// Opening a mapping runs four phases, each timed:
//
//  1. XML: parse the document into a generic element tree.
//  2. Parsing: read renamedTypes and skippedTypes into class symbols with
//     their methods, constructors, fields, properties and events. Nested
//     classes are queued.
//  3. Subclasses: attach each nested class to its owner, looked up by
//     original name and then by renamed name. Owners that cannot be found
//     leave the class at the top level and record a Diagnostic.
//  4. New names: fill in renamed namespaces, modules and parameter types
//     that the document leaves implicit.
//
// # Usage
//
//	m, err := obfmap.Open("Mapping.xml")
//	if err != nil { ... }
//
//	res := m.Search("a.b.c(a.d)", obfmap.SearchOptions{Substitute: true})
//	for sym := range res.Matches {
//		fmt.Println(sym.DisplayName(obfmap.Original))
//	}
//
//	fmt.Print(m.ProcessCrashlogText(log, obfmap.CrashlogOptions{FilterPrefix: true}))
//
// # Searching
//
// [Index.Search] is keyed by renamed names and reports original ones;
// [Index.SearchOriginal] goes the other way. Because namespaces and nested
// types share the '.' separator, a top-level class consumes whichever prefix
// of the query path equals its full name, and each remaining token then names
// one child. Methods are filtered by parameter list; with substitution
// enabled, renamed parameter types are translated to original names and
// matching is retried once.
//
// # Reloading
//
// An [Index] is immutable. [Mapping.Reload] builds a new one and swaps it in,
// so a reader that fetched [Mapping.Index] before the reload keeps a
// consistent view. [Mapping.HasChangedOnDisk] tells a caller whether a reload
// is warranted.
package obfmap

package obfmap

import (
	"iter"
	"log/slog"
	"time"

	"github.com/ericsoft/obfmap/internal/xmltree"
)

// Stats are aggregate counters accumulated while loading a document.
type Stats struct {
	Methods           int  // methods and constructors across all classes
	Classes           int  // every class, nested and skipped included
	Subclasses        int  // nested classes attached to a resolved owner
	Skipped           int  // classes from skippedTypes
	Modules           int  // distinct target modules
	Namespaces        int  // distinct original namespaces
	RenamedNamespaces int  // distinct renamed namespaces
	HasSystemEntities bool // some top-level original namespace starts with "System."
}

// Timings record how long each load phase took.
type Timings struct {
	XML        time.Duration
	Parsing    time.Duration
	Subclasses time.Duration
	NewNames   time.Duration
}

// Total is the sum of all phases.
func (t Timings) Total() time.Duration {
	return t.XML + t.Parsing + t.Subclasses + t.NewNames
}

// Index is an immutable snapshot of one loaded mapping document. All query
// methods are read-only and safe to call from multiple goroutines.
type Index struct {
	classes           []*Symbol
	modules           []string
	namespaces        []string
	renamedNamespaces []string
	stats             Stats
	timings           Timings
	diagnostics       []Diagnostic
	defaultModule     string
	contentHash       string
}

// Classes returns the top-level classes in document order. Orphaned nested
// classes appear after the regular top-level ones. The slice must not be
// modified.
func (x *Index) Classes() []*Symbol { return x.classes }

// ContentHash returns the hex SHA-256 of the document bytes the index was
// built from, or "" for an index not loaded from a file.
func (x *Index) ContentHash() string { return x.contentHash }

// Modules returns the distinct target modules in first-seen order.
func (x *Index) Modules() []string { return x.modules }

// Namespaces returns the distinct original namespaces in first-seen order.
func (x *Index) Namespaces() []string { return x.namespaces }

// RenamedNamespaces returns the distinct renamed namespaces in first-seen order.
func (x *Index) RenamedNamespaces() []string { return x.renamedNamespaces }

// Stats returns the aggregate counters.
func (x *Index) Stats() Stats { return x.stats }

// Timings returns the per-phase load timings.
func (x *Index) Timings() Timings { return x.timings }

// Diagnostics returns the non-fatal anomalies recorded while loading.
func (x *Index) Diagnostics() []Diagnostic { return x.diagnostics }

// Symbols yields every indexed symbol in pre-order, class by class.
func (x *Index) Symbols() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		for _, c := range x.classes {
			if !c.walk(yield) {
				return
			}
		}
	}
}

// FindClass returns the first class, in top-level order and descending into
// nested classes, whose dotted full name on side equals name.
func (x *Index) FindClass(name string, side Side) *Symbol {
	for _, c := range x.classes {
		if found := c.findClass(name, side); found != nil {
			return found
		}
	}
	return nil
}

// indexBuilder holds the intermediate state of a single load.
type indexBuilder struct {
	idx    *Index
	logger *slog.Logger
	nested []*Symbol

	modules           orderedSet
	namespaces        orderedSet
	renamedNamespaces orderedSet
}

// buildIndex runs the load, attach and propagate phases over a parsed
// document.
func buildIndex(root *xmltree.Node, defaultModule string, logger *slog.Logger) (*Index, error) {
	b := &indexBuilder{
		idx:    &Index{defaultModule: defaultModule},
		logger: logger,
	}

	start := time.Now()
	if err := b.load(root); err != nil {
		return nil, err
	}
	b.idx.timings.Parsing = time.Since(start)

	start = time.Now()
	b.attach()
	b.idx.timings.Subclasses = time.Since(start)

	start = time.Now()
	propagate(b.idx)
	b.idx.timings.NewNames = time.Since(start)

	b.idx.modules = b.modules.items
	b.idx.namespaces = b.namespaces.items
	b.idx.renamedNamespaces = b.renamedNamespaces.items
	b.idx.stats.Modules = len(b.idx.modules)
	b.idx.stats.Namespaces = len(b.idx.namespaces)
	b.idx.stats.RenamedNamespaces = len(b.idx.renamedNamespaces)
	return b.idx, nil
}

package store

import "time"

// Document is one exported mapping file with its load statistics.
type Document struct {
	ID                int64
	Path              string
	Hash              string
	Modules           []string
	Namespaces        []string
	RenamedNamespaces []string
	Classes           int
	Methods           int
	Subclasses        int
	Skipped           int
	HasSystemEntities bool
	ExportedAt        time.Time
}

// Symbol is one declaration row. RenamedPath is nil for declarations that
// were never renamed; their identity is the original path.
type Symbol struct {
	ID                int64
	DocumentID        int64
	ParentID          *int64
	Kind              string
	OriginalNamespace string
	OriginalName      string
	OriginalPath      string
	RenamedNamespace  string
	RenamedName       string
	RenamedPath       *string
	Module            string
	Skipped           bool
	Reason            string
	ReturnType        string
	SignatureHash     string
}

// Param is one parameter of a method or constructor.
type Param struct {
	ID           int64
	SymbolID     int64
	Ordinal      int
	OriginalType string
	RenamedType  *string
}

// Diagnostic is a non-fatal load anomaly recorded with its document.
type Diagnostic struct {
	ID         int64
	DocumentID int64
	Kind       string
	Symbol     string
	Message    string
}

package obfmap

import "errors"

var (
	// ErrDocumentNotFound is returned by Open and Reload when the mapping
	// file does not exist.
	ErrDocumentNotFound = errors.New("mapping document not found")

	// ErrMalformedDocument is returned when the document cannot be parsed
	// or violates the expected element/attribute layout.
	ErrMalformedDocument = errors.New("malformed mapping document")

	// ErrEmptyQuery and ErrMalformedQuery are reported by ParseEntity. The
	// search layer turns them into empty results.
	ErrEmptyQuery     = errors.New("empty query")
	ErrMalformedQuery = errors.New("malformed query")
)

// DiagnosticKind classifies a non-fatal anomaly recorded while loading.
type DiagnosticKind string

const (
	// UnresolvedOwner: a nested class named an owner that is not in the
	// index. The class was promoted to the top level.
	UnresolvedOwner DiagnosticKind = "unresolved_owner"
)

// Diagnostic is a non-fatal anomaly recorded while loading.
type Diagnostic struct {
	Kind    DiagnosticKind
	Symbol  string
	Message string
}

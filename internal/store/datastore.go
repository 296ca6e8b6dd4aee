package store

// DataStore is the interface for export-phase writes. Both Store (direct
// SQLite) and BatchedStore (in-memory buffering committed in one
// transaction) implement it.
type DataStore interface {
	// Each insert returns the assigned ID.
	InsertSymbol(sym *Symbol) (int64, error)
	InsertParam(p *Param) (int64, error)
	InsertDiagnostic(d *Diagnostic) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)

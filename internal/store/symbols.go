package store

import (
	"fmt"
)

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbol(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

// SymbolCols is the column list for symbol queries.
const SymbolCols = `id, document_id, parent_id, kind, original_namespace, original_name,
	original_path, renamed_namespace, renamed_name, renamed_path, module, skipped,
	reason, return_type, signature_hash`

func (s *Store) scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var module, reason, returnType, hash *string
	err := scanner.Scan(
		&sym.ID, &sym.DocumentID, &sym.ParentID, &sym.Kind,
		&sym.OriginalNamespace, &sym.OriginalName, &sym.OriginalPath,
		&sym.RenamedNamespace, &sym.RenamedName, &sym.RenamedPath,
		&module, &sym.Skipped, &reason, &returnType, &hash,
	)
	if err != nil {
		return nil, err
	}
	sym.Module = deref(module)
	sym.Reason = deref(reason)
	sym.ReturnType = deref(returnType)
	sym.SignatureHash = deref(hash)
	return sym, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := s.scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolsByDocument returns a document's symbols in export order, which is
// a pre-order walk of the class tree.
func (s *Store) SymbolsByDocument(documentID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE document_id = ? ORDER BY id", documentID)
}

// SymbolsByOriginalPath returns every symbol whose dotted original path is
// path, across all documents.
func (s *Store) SymbolsByOriginalPath(path string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE original_path = ? ORDER BY id", path)
}

// SymbolsByRenamedPath returns every symbol whose dotted renamed path is
// path. A symbol without a renamed side matches on its original path.
func (s *Store) SymbolsByRenamedPath(path string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+SymbolCols+" FROM symbols WHERE COALESCE(renamed_path, original_path) = ? ORDER BY id", path,
	)
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE kind = ? ORDER BY id", kind)
}

func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE parent_id = ? ORDER BY id", symbolID)
}

// --- Parameter operations ---

func (s *Store) InsertParam(p *Param) (int64, error) {
	id, err := insertParam(s.db, p)
	if err != nil {
		return 0, fmt.Errorf("insert param: %w", err)
	}
	p.ID = id
	return id, nil
}

// Params returns a symbol's parameters in ordinal order.
func (s *Store) Params(symbolID int64) ([]*Param, error) {
	rows, err := s.db.Query(
		"SELECT id, symbol_id, ordinal, original_type, renamed_type FROM parameters WHERE symbol_id = ? ORDER BY ordinal",
		symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	defer rows.Close()
	var params []*Param
	for rows.Next() {
		p := &Param{}
		if err := rows.Scan(&p.ID, &p.SymbolID, &p.Ordinal, &p.OriginalType, &p.RenamedType); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive, AUTOINCREMENT) IDs, and all FK references within the batch
// are rewritten using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Symbols (depend on document_id, which is already real, and parent_id)
//  2. Params (depend on symbol_id)
//  3. Diagnostics (depend on document_id only)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	// 1. Symbols. Parents are always buffered before their children.
	for _, sym := range batch.Symbols {
		if sym.ParentID != nil && *sym.ParentID < 0 {
			realID, ok := fakeToReal[*sym.ParentID]
			if !ok {
				return fmt.Errorf("commit batch: symbol %q has parent_id=%d not in fakeToReal map", sym.OriginalPath, *sym.ParentID)
			}
			sym.ParentID = &realID
		}
		realID, err := insertSymbol(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.OriginalPath, err)
		}
		fakeToReal[sym.ID] = realID
	}

	// 2. Params
	for _, p := range batch.Params {
		if p.SymbolID < 0 {
			realID, ok := fakeToReal[p.SymbolID]
			if !ok {
				return fmt.Errorf("commit batch: param %d has symbol_id=%d not in fakeToReal map (have %d symbols)", p.Ordinal, p.SymbolID, len(batch.Symbols))
			}
			p.SymbolID = realID
		}
		if _, err := insertParam(tx, &p); err != nil {
			return fmt.Errorf("commit batch: param %q: %w", p.OriginalType, err)
		}
	}

	// 3. Diagnostics
	for _, d := range batch.Diagnostics {
		if _, err := insertDiagnostic(tx, &d); err != nil {
			return fmt.Errorf("commit batch: diagnostic %q: %w", d.Symbol, err)
		}
	}

	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertSymbol(ex execer, sym *Symbol) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO symbols (document_id, parent_id, kind, original_namespace, original_name,
			original_path, renamed_namespace, renamed_name, renamed_path, module, skipped,
			reason, return_type, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.DocumentID, sym.ParentID, sym.Kind, sym.OriginalNamespace, sym.OriginalName,
		sym.OriginalPath, sym.RenamedNamespace, sym.RenamedName, sym.RenamedPath, sym.Module,
		sym.Skipped, sym.Reason, sym.ReturnType, sym.SignatureHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertParam(ex execer, p *Param) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO parameters (symbol_id, ordinal, original_type, renamed_type)
		 VALUES (?, ?, ?, ?)`,
		p.SymbolID, p.Ordinal, p.OriginalType, p.RenamedType,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDiagnostic(ex execer, d *Diagnostic) (int64, error) {
	res, err := ex.Exec(
		"INSERT INTO diagnostics (document_id, kind, symbol, message) VALUES (?, ?, ?, ?)",
		d.DocumentID, d.Kind, d.Symbol, d.Message,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

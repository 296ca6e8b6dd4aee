package store

import (
	"database/sql"
	"fmt"
)

const documentCols = `id, path, hash, modules, namespaces, renamed_namespaces,
	classes, methods, subclasses, skipped, has_system_entities, exported_at`

func (s *Store) InsertDocument(d *Document) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO documents (path, hash, modules, namespaces, renamed_namespaces,
			classes, methods, subclasses, skipped, has_system_entities, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Path, d.Hash, marshalStrings(d.Modules), marshalStrings(d.Namespaces),
		marshalStrings(d.RenamedNamespaces), d.Classes, d.Methods, d.Subclasses,
		d.Skipped, d.HasSystemEntities, d.ExportedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

func (s *Store) scanDocument(scanner interface{ Scan(...any) error }) (*Document, error) {
	d := &Document{}
	var modules, namespaces, renamed string
	err := scanner.Scan(
		&d.ID, &d.Path, &d.Hash, &modules, &namespaces, &renamed,
		&d.Classes, &d.Methods, &d.Subclasses, &d.Skipped, &d.HasSystemEntities, &d.ExportedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Modules = unmarshalStrings(modules)
	d.Namespaces = unmarshalStrings(namespaces)
	d.RenamedNamespaces = unmarshalStrings(renamed)
	return d, nil
}

// DocumentByPath returns the document exported from path, or nil if there is
// none.
func (s *Store) DocumentByPath(path string) (*Document, error) {
	d, err := s.scanDocument(s.db.QueryRow("SELECT "+documentCols+" FROM documents WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("document by path: %w", err)
	}
	return d, nil
}

// Documents returns every exported document ordered by path.
func (s *Store) Documents() ([]*Document, error) {
	rows, err := s.db.Query("SELECT " + documentCols + " FROM documents ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d, err := s.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Diagnostic operations ---

func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	id, err := insertDiagnostic(s.db, d)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	d.ID = id
	return id, nil
}

func (s *Store) DiagnosticsByDocument(documentID int64) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		"SELECT id, document_id, kind, symbol, message FROM diagnostics WHERE document_id = ? ORDER BY id",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by document: %w", err)
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		if err := rows.Scan(&d.ID, &d.DocumentID, &d.Kind, &d.Symbol, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for exported mapping documents.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  id                  INTEGER PRIMARY KEY,
  path                TEXT NOT NULL UNIQUE,
  hash                TEXT,
  modules             TEXT,
  namespaces          TEXT,
  renamed_namespaces  TEXT,
  classes             INTEGER DEFAULT 0,
  methods             INTEGER DEFAULT 0,
  subclasses          INTEGER DEFAULT 0,
  skipped             INTEGER DEFAULT 0,
  has_system_entities BOOLEAN DEFAULT FALSE,
  exported_at         TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id                 INTEGER PRIMARY KEY,
  document_id        INTEGER NOT NULL REFERENCES documents(id),
  parent_id          INTEGER REFERENCES symbols(id),
  kind               TEXT NOT NULL,
  original_namespace TEXT NOT NULL DEFAULT '',
  original_name      TEXT NOT NULL,
  original_path      TEXT NOT NULL,
  renamed_namespace  TEXT NOT NULL DEFAULT '',
  renamed_name       TEXT NOT NULL DEFAULT '',
  renamed_path       TEXT,
  module             TEXT,
  skipped            BOOLEAN DEFAULT FALSE,
  reason             TEXT,
  return_type        TEXT,
  signature_hash     TEXT
);

CREATE TABLE IF NOT EXISTS parameters (
  id            INTEGER PRIMARY KEY,
  symbol_id     INTEGER NOT NULL REFERENCES symbols(id),
  ordinal       INTEGER NOT NULL,
  original_type TEXT NOT NULL,
  renamed_type  TEXT
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id          INTEGER PRIMARY KEY,
  document_id INTEGER NOT NULL REFERENCES documents(id),
  kind        TEXT NOT NULL,
  symbol      TEXT,
  message     TEXT
);

CREATE INDEX IF NOT EXISTS idx_symbols_document ON symbols(document_id);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_id);
CREATE INDEX IF NOT EXISTS idx_symbols_original_path ON symbols(original_path);
CREATE INDEX IF NOT EXISTS idx_symbols_renamed_path ON symbols(renamed_path);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_parameters_symbol ON parameters(symbol_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_document ON diagnostics(document_id);
`

// DeleteDocumentData transactionally removes a document and everything
// exported from it. Deletes in reverse-dependency order to respect FK
// constraints.
func (s *Store) DeleteDocumentData(documentID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM symbols WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("query symbols: %w", err)
	}
	var symbolIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan symbol id: %w", err)
		}
		symbolIDs = append(symbolIDs, id)
	}
	rows.Close()

	if len(symbolIDs) > 0 {
		placeholders := placeholderList(len(symbolIDs))
		if _, err := tx.Exec("DELETE FROM parameters WHERE symbol_id IN ("+placeholders+")", int64sToArgs(symbolIDs)...); err != nil {
			return fmt.Errorf("delete parameters: %w", err)
		}
	}

	// Children reference their parent, so clear the self-reference first.
	for _, q := range []string{
		"UPDATE symbols SET parent_id = NULL WHERE document_id = ?",
		"DELETE FROM symbols WHERE document_id = ?",
		"DELETE FROM diagnostics WHERE document_id = ?",
		"DELETE FROM documents WHERE id = ?",
	} {
		if _, err := tx.Exec(q, documentID); err != nil {
			return fmt.Errorf("delete document data: %w", err)
		}
	}

	return tx.Commit()
}

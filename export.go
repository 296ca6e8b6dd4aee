package obfmap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ericsoft/obfmap/internal/store"
)

// Export writes every symbol of the index to ds under documentID, together
// with method parameters and load diagnostics. Symbols are written in
// pre-order, so a parent is always inserted before its children.
func (x *Index) Export(ds store.DataStore, documentID int64) error {
	for _, c := range x.classes {
		if err := exportSymbol(ds, documentID, c, nil); err != nil {
			return err
		}
	}
	for _, d := range x.diagnostics {
		if _, err := ds.InsertDiagnostic(&store.Diagnostic{
			DocumentID: documentID,
			Kind:       string(d.Kind),
			Symbol:     d.Symbol,
			Message:    d.Message,
		}); err != nil {
			return fmt.Errorf("export diagnostic %s: %w", d.Symbol, err)
		}
	}
	return nil
}

func exportSymbol(ds store.DataStore, documentID int64, s *Symbol, parentID *int64) error {
	row := &store.Symbol{
		DocumentID:   documentID,
		ParentID:     parentID,
		Kind:         string(s.Kind),
		OriginalPath: s.FullName(Original),
		Module:       s.Module,
		Skipped:      s.Skipped,
		Reason:       s.Reason,
		ReturnType:   s.ReturnType,
	}
	if q := s.Name.Original; q != nil {
		row.OriginalNamespace = q.Namespace
		row.OriginalName = q.Name
	}
	if q := s.Name.Renamed; q != nil {
		row.RenamedNamespace = q.Namespace
		row.RenamedName = q.Name
		path := q.Path()
		row.RenamedPath = &path
	}

	var paramTypes []string
	if s.Kind.IsCallable() {
		paramTypes = make([]string, len(s.Params))
		for i, p := range s.Params {
			if p.Original != nil {
				paramTypes[i] = p.Original.Path()
			}
		}
		row.SignatureHash = store.ComputeSignatureHash(row.Kind, row.OriginalPath, paramTypes)
	}

	id, err := ds.InsertSymbol(row)
	if err != nil {
		return fmt.Errorf("export %s: %w", row.OriginalPath, err)
	}

	for i, p := range s.Params {
		param := &store.Param{SymbolID: id, Ordinal: i, OriginalType: paramTypes[i]}
		if p.Renamed != nil {
			renamed := p.Renamed.Path()
			param.RenamedType = &renamed
		}
		if _, err := ds.InsertParam(param); err != nil {
			return fmt.Errorf("export %s param %d: %w", row.OriginalPath, i, err)
		}
	}

	for _, c := range s.Children {
		if err := exportSymbol(ds, documentID, c, &id); err != nil {
			return err
		}
	}
	return nil
}

// ExportResult reports what ExportTo did.
type ExportResult struct {
	Document  *store.Document
	Unchanged bool // the stored copy already had the same content hash
	Symbols   int
}

// ExportTo persists the current index into s, keyed by the absolute path of
// the mapping file and the hash of the bytes the index was built from. A
// document whose hash matches the stored copy is left alone; otherwise the
// previous copy is replaced.
func (m *Mapping) ExportTo(s *store.Store) (*ExportResult, error) {
	idx := m.Index()
	path, err := filepath.Abs(m.filename)
	if err != nil {
		return nil, fmt.Errorf("obfmap: export: %w", err)
	}
	existing, err := s.DocumentByPath(path)
	if err != nil {
		return nil, fmt.Errorf("obfmap: export: %w", err)
	}
	if existing != nil && existing.Hash == idx.ContentHash() {
		m.logger.Debug("export skipped, document unchanged", slog.String("path", path))
		return &ExportResult{Document: existing, Unchanged: true}, nil
	}

	batch := store.NewBatchedStore()
	if err := idx.Export(batch, 0); err != nil {
		return nil, fmt.Errorf("obfmap: export: %w", err)
	}
	doc := documentRecord(idx, path)
	if err := commitExport(s, m.logger, doc, existing, batch); err != nil {
		return nil, fmt.Errorf("obfmap: export: %w", err)
	}
	return &ExportResult{Document: doc, Symbols: len(batch.Symbols)}, nil
}

// fileHash returns the content hash of the file at path as it is on disk
// now. It only serves the unchanged check; the stored hash always comes
// from the index.
func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return store.ContentHash(data), nil
}

// documentRecord builds the documents row for idx.
func documentRecord(idx *Index, path string) *store.Document {
	st := idx.Stats()
	return &store.Document{
		Path:              path,
		Hash:              idx.ContentHash(),
		Modules:           idx.Modules(),
		Namespaces:        idx.Namespaces(),
		RenamedNamespaces: idx.RenamedNamespaces(),
		Classes:           st.Classes,
		Methods:           st.Methods,
		Subclasses:        st.Subclasses,
		Skipped:           st.Skipped,
		HasSystemEntities: st.HasSystemEntities,
		ExportedAt:        time.Now(),
	}
}

// commitExport replaces existing (may be nil) with doc and commits the
// buffered rows under the new document id.
func commitExport(s *store.Store, logger *slog.Logger, doc, existing *store.Document, batch *store.BatchedStore) error {
	if existing != nil {
		if err := s.DeleteDocumentData(existing.ID); err != nil {
			return err
		}
	}
	if _, err := s.InsertDocument(doc); err != nil {
		return err
	}
	for i := range batch.Symbols {
		batch.Symbols[i].DocumentID = doc.ID
	}
	for i := range batch.Diagnostics {
		batch.Diagnostics[i].DocumentID = doc.ID
	}
	if err := s.CommitBatch(batch); err != nil {
		// Drop the document row so the next export does not see a matching
		// hash with no symbols behind it.
		if derr := s.DeleteDocumentData(doc.ID); derr != nil {
			logger.Warn("cleanup after failed export", slog.String("path", doc.Path), slog.Any("error", derr))
		}
		return err
	}
	logger.Debug("mapping exported",
		slog.String("path", doc.Path),
		slog.Int64("document_id", doc.ID),
		slog.Int("symbols", len(batch.Symbols)),
	)
	return nil
}

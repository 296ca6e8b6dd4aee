package obfmap

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ericsoft/obfmap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "obfmap.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExportTo_WritesTree(t *testing.T) {
	t.Parallel()
	m := openBasic(t)
	s := newExportStore(t)

	res, err := m.ExportTo(s)
	require.NoError(t, err)
	assert.False(t, res.Unchanged)

	total := 0
	for range m.Index().Symbols() {
		total++
	}
	assert.Equal(t, 21, total)
	assert.Equal(t, total, res.Symbols)

	abs, err := filepath.Abs(basicMapping)
	require.NoError(t, err)
	doc, err := s.DocumentByPath(abs)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 10, doc.Classes)
	assert.Equal(t, 7, doc.Methods)
	assert.Equal(t, []string{"Core", "Util.Obf"}, doc.Modules)

	rows, err := s.SymbolsByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, rows, total)
	assert.Equal(t, "Foo.Bar", rows[0].OriginalPath)
	assert.Nil(t, rows[0].ParentID)

	diags, err := s.DiagnosticsByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, string(UnresolvedOwner), diags[0].Kind)
}

func TestExportTo_LookupByRenamedPath(t *testing.T) {
	t.Parallel()
	m := openBasic(t)
	s := newExportStore(t)
	_, err := m.ExportTo(s)
	require.NoError(t, err)

	rows, err := s.SymbolsByRenamedPath("a.b.c")
	require.NoError(t, err)
	require.Len(t, rows, 3, "three DoWork overloads")
	hashes := map[string]bool{}
	for _, r := range rows {
		assert.Equal(t, "Foo.Bar.DoWork", r.OriginalPath)
		hashes[r.SignatureHash] = true
	}
	assert.Len(t, hashes, 3, "overloads have distinct signature hashes")

	params, err := s.Params(rows[0].ID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "System.String", params[0].OriginalType)
	require.NotNil(t, params[0].RenamedType)
	assert.Equal(t, "a.d", *params[0].RenamedType)

	inner, err := s.SymbolsByOriginalPath("Foo.Bar.Inner")
	require.NoError(t, err)
	require.Len(t, inner, 1)
	require.NotNil(t, inner[0].ParentID)
	parent, err := s.SymbolsByOriginalPath("Foo.Bar")
	require.NoError(t, err)
	assert.Equal(t, parent[0].ID, *inner[0].ParentID)

	api, err := s.SymbolsByRenamedPath("Foo.Api")
	require.NoError(t, err)
	require.Len(t, api, 1)
	assert.True(t, api[0].Skipped)
}

func TestExportTo_SkipsUnchangedAndReplacesChanged(t *testing.T) {
	t.Parallel()
	path := copyBasic(t)
	m, err := Open(path)
	require.NoError(t, err)
	s := newExportStore(t)

	first, err := m.ExportTo(s)
	require.NoError(t, err)

	again, err := m.ExportTo(s)
	require.NoError(t, err)
	assert.True(t, again.Unchanged)
	assert.Equal(t, first.Document.ID, again.Document.ID)

	doc := `<mapping><renamedTypes><renamedClass oldName="Only.One" newName="z"/></renamedTypes></mapping>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	require.NoError(t, m.Reload())

	replaced, err := m.ExportTo(s)
	require.NoError(t, err)
	assert.False(t, replaced.Unchanged)
	assert.Equal(t, 1, replaced.Symbols)

	docs, err := s.Documents()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	rows, err := s.SymbolsByDocument(docs[0].ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Only.One", rows[0].OriginalPath)
}

func TestExportTo_StoresHashOfLoadedBytes(t *testing.T) {
	t.Parallel()
	path := copyBasic(t)
	loaded, err := os.ReadFile(path)
	require.NoError(t, err)
	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, store.ContentHash(loaded), m.Index().ContentHash())

	// The file changes after the load; the export must describe what was
	// loaded, not what is on disk now.
	edited := strings.Replace(string(loaded), `newName="a.b"`, `newName="zz.b"`, 1)
	require.NotEqual(t, string(loaded), edited)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	s := newExportStore(t)
	first, err := m.ExportTo(s)
	require.NoError(t, err)
	assert.Equal(t, store.ContentHash(loaded), first.Document.Hash)

	fresh, err := Open(path)
	require.NoError(t, err)
	second, err := fresh.ExportTo(s)
	require.NoError(t, err)
	assert.False(t, second.Unchanged)
	assert.Equal(t, store.ContentHash([]byte(edited)), second.Document.Hash)

	current, err := s.SymbolsByRenamedPath("zz.b")
	require.NoError(t, err)
	assert.Len(t, current, 1)
	stale, err := s.SymbolsByRenamedPath("a.b")
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestIndexExport_ParentsPrecedeChildren(t *testing.T) {
	t.Parallel()
	idx := openBasic(t).Index()
	batch := store.NewBatchedStore()
	require.NoError(t, idx.Export(batch, 1))

	seen := map[int64]bool{}
	for _, sym := range batch.Symbols {
		if sym.ParentID != nil {
			assert.True(t, seen[*sym.ParentID], "%s inserted before its parent", sym.OriginalPath)
		}
		seen[sym.ID] = true
	}
	assert.Len(t, batch.Diagnostics, 1)
}

func TestExportFiles_Parallel(t *testing.T) {
	t.Parallel()
	basic := copyBasic(t)
	other := filepath.Join(t.TempDir(), "other.xml")
	doc := `<mapping><renamedTypes><renamedClass oldName="Only.One" newName="z"/></renamedTypes></mapping>`
	require.NoError(t, os.WriteFile(other, []byte(doc), 0o644))
	missing := filepath.Join(t.TempDir(), "missing.xml")
	s := newExportStore(t)

	results, err := ExportFiles(context.Background(), s, []string{basic, other, missing})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Nil(t, results[2])
	assert.Equal(t, 21, results[0].Symbols)
	assert.Equal(t, 1, results[1].Symbols)

	rows, err := s.SymbolsByRenamedPath("z")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, results[1].Document.ID, rows[0].DocumentID)

	again, err := ExportFiles(context.Background(), s, []string{basic, other})
	require.NoError(t, err)
	assert.True(t, again[0].Unchanged)
	assert.True(t, again[1].Unchanged)

	docs, err := s.Documents()
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestExportFiles_Canceled(t *testing.T) {
	t.Parallel()
	s := newExportStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ExportFiles(ctx, s, []string{copyBasic(t)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results[0])
}

func TestExportFiles_DuplicatePath(t *testing.T) {
	t.Parallel()
	path := copyBasic(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)
	s := newExportStore(t)

	results, err := ExportFiles(context.Background(), s, []string{path, path, rel})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	assert.False(t, results[0].Unchanged)
	assert.Same(t, results[0], results[1])
	assert.Same(t, results[0], results[2])

	docs, err := s.Documents()
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

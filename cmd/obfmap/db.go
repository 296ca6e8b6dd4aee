package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericsoft/obfmap"
	"github.com/ericsoft/obfmap/internal/store"
)

var (
	flagDB         string
	flagLookupSide string
)

var exportCmd = &cobra.Command{
	Use:   "export [mapping...]",
	Short: "Write mapping indexes to a SQLite database",
	Long:  "Persists every class, member and parameter of each mapping document, loading documents in parallel. Without arguments the --mapping document is exported. Re-exporting an unchanged document is a no-op; a changed one replaces the stored copy.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runExport,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Look a name up in an exported database",
	Long:  "Answers name queries from a database written by export, without loading the mapping document. A parameter list narrows methods by parameter type.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLookup,
}

func init() {
	exportCmd.Flags().StringVar(&flagDB, "db", "", "database path (default: .obfmap/index.db)")
	lookupCmd.Flags().StringVar(&flagDB, "db", "", "database path (default: .obfmap/index.db)")
	lookupCmd.Flags().StringVar(&flagLookupSide, "side", "renamed", "which name the query is: original|renamed")
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath() string {
	if flagDB != "" {
		return flagDB
	}
	return filepath.Join(".obfmap", "index.db")
}

func runExport(cmd *cobra.Command, args []string) error {
	start := time.Now()

	files := args
	if len(files) == 0 {
		path, err := resolveMappingPath()
		if err != nil {
			return outputError("export", err)
		}
		files = []string{path}
	}

	dbPath := resolveDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError("export", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return outputError("export", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return outputError("export", err)
	}

	results, err := obfmap.ExportFiles(context.Background(), s, files, obfmap.WithLogger(logger))
	if err != nil {
		return outputError("export", err)
	}
	logger.Info("export finished",
		slog.String("db", dbPath),
		slog.Int("documents", len(results)),
		slog.Duration("elapsed", time.Since(start)),
	)

	out := make([]CLIExport, len(results))
	for i, res := range results {
		out[i] = CLIExport{
			Database:   dbPath,
			Document:   res.Document.Path,
			DocumentID: res.Document.ID,
			Unchanged:  res.Unchanged,
			Symbols:    res.Symbols,
		}
	}
	if len(out) == 1 {
		return outputResult(CLIResult{Command: "export", Results: out[0]})
	}
	total := len(out)
	return outputResult(CLIResult{Command: "export", Results: out, TotalCount: &total})
}

func runLookup(cmd *cobra.Command, args []string) error {
	side, err := parseSide(flagLookupSide)
	if err != nil {
		return outputError("lookup", err)
	}
	e, err := obfmap.ParseEntity(strings.Join(args, " "))
	if err != nil {
		return outputError("lookup", err)
	}

	s, err := openStore()
	if err != nil {
		return outputError("lookup", err)
	}
	defer s.Close()

	out, err := lookupSymbols(s, e, side)
	if err != nil {
		return outputError("lookup", err)
	}
	total := len(out)
	return outputResult(CLIResult{Command: "lookup", Results: out, TotalCount: &total})
}

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	dbPath := resolveDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'obfmap export' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// lookupSymbols finds the rows whose path on side equals the entity's path.
// When the entity carries a parameter list only callables whose parameter
// simple names match are kept.
func lookupSymbols(s *store.Store, e *obfmap.Entity, side obfmap.Side) ([]CLIStoredSymbol, error) {
	path := e.Name.Path()
	var rows []*store.Symbol
	var err error
	if side == obfmap.Renamed {
		rows, err = s.SymbolsByRenamedPath(path)
	} else {
		rows, err = s.SymbolsByOriginalPath(path)
	}
	if err != nil {
		return nil, err
	}

	docs, err := s.Documents()
	if err != nil {
		return nil, err
	}
	docPaths := make(map[int64]string, len(docs))
	for _, d := range docs {
		docPaths[d.ID] = d.Path
	}

	out := []CLIStoredSymbol{}
	for _, row := range rows {
		params, err := s.Params(row.ID)
		if err != nil {
			return nil, err
		}
		if e.Kind.IsCallable() && !paramsMatch(params, e.Params, side) {
			continue
		}
		out = append(out, storedSymbolToCLI(row, params, docPaths[row.DocumentID]))
	}
	return out, nil
}

// paramsMatch compares stored parameters with query parameters by simple
// name, reading the renamed type when side is Renamed and one was recorded.
func paramsMatch(params []*store.Param, want []obfmap.QualifiedName, side obfmap.Side) bool {
	if len(params) != len(want) {
		return false
	}
	for i, p := range params {
		typ := p.OriginalType
		if side == obfmap.Renamed && p.RenamedType != nil {
			typ = *p.RenamedType
		}
		if obfmap.ParseQualifiedName(typ).Name != want[i].Name {
			return false
		}
	}
	return true
}

func storedSymbolToCLI(row *store.Symbol, params []*store.Param, document string) CLIStoredSymbol {
	out := CLIStoredSymbol{
		ID:            row.ID,
		Document:      document,
		ParentID:      row.ParentID,
		Kind:          row.Kind,
		Original:      row.OriginalPath,
		Module:        row.Module,
		ReturnType:    row.ReturnType,
		SignatureHash: row.SignatureHash,
	}
	if row.RenamedPath != nil {
		out.Renamed = *row.RenamedPath
	}
	for _, p := range params {
		out.Params = append(out.Params, p.OriginalType)
	}
	return out
}

package obfmap

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ericsoft/obfmap/internal/store"
)

// exportItem holds everything a parallel export worker needs.
type exportItem struct {
	pos      int
	filename string
	path     string
	existing *store.Document

	// Filled in by the worker.
	idx   *Index
	batch *store.BatchedStore
}

// ExportFiles exports several mapping documents into s using a three-phase
// pipeline:
//
//	Phase A (serial):   Dedupe by absolute path, hash check against the stored copy; unchanged documents are skipped.
//	Phase B (parallel): Load each document and buffer its rows in a BatchedStore.
//	Phase C (serial):   Replace the stored copy and commit each batch.
//
// Results are in the order of filenames; a repeated path shares the result of
// its first occurrence. A document that fails leaves a nil entry and does not
// stop the others; the first failure is returned.
func ExportFiles(ctx context.Context, s *store.Store, filenames []string, opts ...Option) ([]*ExportResult, error) {
	cfg := &Mapping{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger

	results := make([]*ExportResult, len(filenames))
	var errs []error

	// ---- Phase A: Serial preparation ----
	var items []*exportItem
	firstPos := make(map[string]int, len(filenames))
	dupOf := make(map[int]int)
	for i, filename := range filenames {
		path, err := filepath.Abs(filename)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", filename, err))
			continue
		}
		if first, ok := firstPos[path]; ok {
			dupOf[i] = first
			continue
		}
		firstPos[path] = i

		hash, err := fileHash(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", filename, err))
			continue
		}
		existing, err := s.DocumentByPath(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", filename, err))
			continue
		}
		if existing != nil && existing.Hash == hash {
			logger.Debug("export skipped, document unchanged", slog.String("path", path))
			results[i] = &ExportResult{Document: existing, Unchanged: true}
			continue
		}
		items = append(items, &exportItem{pos: i, filename: filename, path: path, existing: existing})
	}

	if len(items) > 0 {
		// ---- Phase B: Parallel load ----
		numWorkers := max(min(runtime.NumCPU(), len(items)), 1)

		workCh := make(chan *exportItem, len(items))
		for _, item := range items {
			workCh <- item
		}
		close(workCh)

		type result struct {
			item *exportItem
			err  error
		}
		resultCh := make(chan result, len(items))

		var wg sync.WaitGroup
		for range numWorkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for item := range workCh {
					resultCh <- result{item: item, err: loadForExport(ctx, item, opts)}
				}
			}()
		}

		go func() {
			wg.Wait()
			close(resultCh)
		}()

		// ---- Phase C: Serial commit ----
		for res := range resultCh {
			item := res.item
			if res.err != nil {
				errs = append(errs, fmt.Errorf("load %s: %w", item.filename, res.err))
				continue
			}
			if item.existing != nil && item.existing.Hash == item.idx.ContentHash() {
				// Reverted on disk between the hash check and the load.
				results[item.pos] = &ExportResult{Document: item.existing, Unchanged: true}
				continue
			}
			doc := documentRecord(item.idx, item.path)
			if err := commitExport(s, logger, doc, item.existing, item.batch); err != nil {
				errs = append(errs, fmt.Errorf("commit %s: %w", item.filename, err))
				continue
			}
			results[item.pos] = &ExportResult{Document: doc, Symbols: len(item.batch.Symbols)}
		}
	}

	for pos, first := range dupOf {
		results[pos] = results[first]
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("obfmap: export had %d error(s): %w", len(errs), errs[0])
	}
	return results, nil
}

// loadForExport parses one document and buffers its rows. The stored hash is
// the one recorded by the load, not the one from phase A. The document id is
// assigned at commit time.
func loadForExport(ctx context.Context, item *exportItem, opts []Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := Open(item.filename, opts...)
	if err != nil {
		return err
	}
	item.idx = m.Index()
	item.batch = store.NewBatchedStore()
	return item.idx.Export(item.batch, 0)
}

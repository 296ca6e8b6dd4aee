package obfmap

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericsoft/obfmap/internal/store"
	"github.com/ericsoft/obfmap/internal/xmltree"
)

// Mapping owns the index built from one mapping document on disk. Reload
// builds a fresh Index and swaps it in atomically, so readers holding the
// previous Index keep a consistent view.
type Mapping struct {
	filename      string
	logger        *slog.Logger
	defaultModule string

	current atomic.Pointer[Index]

	mu       sync.Mutex
	modTime  time.Time // recorded by load and by HasChangedOnDisk
	loadedAt time.Time
}

// Option configures a Mapping.
type Option func(*Mapping)

// WithLogger sets the logger used for load diagnostics. The default discards
// all output.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mapping) {
		m.logger = l
	}
}

// WithDefaultModule sets the module assigned to top-level classes that
// declare none, overriding the document's own default.
func WithDefaultModule(module string) Option {
	return func(m *Mapping) {
		m.defaultModule = module
	}
}

// Open loads the mapping document at filename.
func Open(filename string, opts ...Option) (*Mapping, error) {
	m := &Mapping{
		filename: filename,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload rebuilds the index from disk. The file is read once and the new
// index records the hash of exactly those bytes. On failure the previous
// index, if any, stays in place.
func (m *Mapping) Reload() error {
	info, err := os.Stat(m.filename)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("obfmap: %w: %s", ErrDocumentNotFound, m.filename)
	}
	if err != nil {
		return fmt.Errorf("obfmap: stat %s: %w", m.filename, err)
	}

	start := time.Now()
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return fmt.Errorf("obfmap: read %s: %w", m.filename, err)
	}
	root, err := xmltree.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("obfmap: %w: %v", ErrMalformedDocument, err)
	}
	xmlTime := time.Since(start)

	idx, err := buildIndex(root, m.defaultModule, m.logger)
	if err != nil {
		return fmt.Errorf("obfmap: load %s: %w", m.filename, err)
	}
	idx.timings.XML = xmlTime
	idx.contentHash = store.ContentHash(data)

	m.mu.Lock()
	m.modTime = info.ModTime()
	m.loadedAt = time.Now()
	m.mu.Unlock()
	m.current.Store(idx)

	t := idx.Timings()
	m.logger.Debug("mapping loaded",
		slog.String("file", m.filename),
		slog.Int("classes", idx.stats.Classes),
		slog.Int("methods", idx.stats.Methods),
		slog.Int("orphans", len(idx.diagnostics)),
		slog.Duration("xml", t.XML),
		slog.Duration("parsing", t.Parsing),
		slog.Duration("subclasses", t.Subclasses),
		slog.Duration("new_names", t.NewNames),
		slog.Duration("total", t.Total()),
	)
	return nil
}

// HasChangedOnDisk reports whether the file was modified after the time
// last recorded, and records the current modification time. Call it before
// deciding to Reload, not after.
func (m *Mapping) HasChangedOnDisk() (bool, error) {
	info, err := os.Stat(m.filename)
	if errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("obfmap: %w: %s", ErrDocumentNotFound, m.filename)
	}
	if err != nil {
		return false, fmt.Errorf("obfmap: stat %s: %w", m.filename, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.modTime
	m.modTime = info.ModTime()
	return m.modTime.After(prev), nil
}

// Index returns the current snapshot.
func (m *Mapping) Index() *Index {
	return m.current.Load()
}

// Filename returns the path the mapping was opened from.
func (m *Mapping) Filename() string {
	return m.filename
}

// LoadedAt returns when the current index was built.
func (m *Mapping) LoadedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadedAt
}

// Stats returns the counters of the current index.
func (m *Mapping) Stats() Stats { return m.Index().Stats() }

// Timings returns the load timings of the current index.
func (m *Mapping) Timings() Timings { return m.Index().Timings() }

// Diagnostics returns the load anomalies of the current index.
func (m *Mapping) Diagnostics() []Diagnostic { return m.Index().Diagnostics() }

// Search runs Index.Search on the current index.
func (m *Mapping) Search(query string, opts SearchOptions) *SearchResults {
	return m.Index().Search(query, opts)
}

// SearchOriginal runs Index.SearchOriginal on the current index.
func (m *Mapping) SearchOriginal(query string) *SearchResults {
	return m.Index().SearchOriginal(query)
}

// ProcessCrashlog runs Index.ProcessCrashlog on the current index.
func (m *Mapping) ProcessCrashlog(text string, opts CrashlogOptions) []*SearchResults {
	return m.Index().ProcessCrashlog(text, opts)
}

// ProcessCrashlogText runs Index.ProcessCrashlogText on the current index.
func (m *Mapping) ProcessCrashlogText(text string, opts CrashlogOptions) string {
	return m.Index().ProcessCrashlogText(text, opts)
}

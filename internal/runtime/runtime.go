package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"

	"github.com/ericsoft/obfmap"
)

// Runtime embeds a Risor VM and provides line-rewriting host functions to
// crash-log filter scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
	index      *obfmap.Index
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the script-facing log global to l.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithIndex exposes idx to scripts through the resolve global.
func WithIndex(idx *obfmap.Index) RuntimeOption {
	return func(r *Runtime) {
		r.index = idx
	}
}

// NewRuntime creates a Runtime that loads scripts from scriptsDir.
// Accepts optional RuntimeOptions for configuration such as fs.FS-based script loading.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller, returning the value of its
// last expression.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) (object.Object, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	code, err := r.compile(ctx, source, label, extraGlobals)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, code, label, extraGlobals)
}

// compile parses and compiles source against the global names a run with
// extraGlobals will provide. The values in extraGlobals are not captured.
func (r *Runtime) compile(ctx context.Context, source, label string, extraGlobals map[string]any) (*compiler.Code, error) {
	cfg := risor.NewConfig(r.options(label, extraGlobals)...)
	prog, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	code, err := compiler.Compile(prog, cfg.CompilerOpts()...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return code, nil
}

// run executes compiled code with a fresh VM. extraGlobals must carry the
// same names the code was compiled with.
func (r *Runtime) run(ctx context.Context, code *compiler.Code, label string, extraGlobals map[string]any) (object.Object, error) {
	result, err := risor.EvalCode(ctx, code, r.options(label, extraGlobals)...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

func (r *Runtime) options(label string, extraGlobals map[string]any) []risor.Option {
	globals := r.buildGlobals(label, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}
	return opts
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		// For fs.FS, strip any leading path separator so the path is
		// relative within the FS (e.g., "/filters/dotnet.risor" -> "filters/dotnet.risor").
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// FilterScriptPath returns the path to a named filter script.
func FilterScriptPath(name string) string {
	return filepath.Join("filters", name+".risor")
}

// Filters lists the names of the filter scripts available to the Runtime,
// sorted.
func (r *Runtime) Filters() ([]string, error) {
	var names []string
	collect := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			names = append(names, strings.TrimSuffix(filepath.Base(path), ".risor"))
		}
		return nil
	}

	switch {
	case r.fsys != nil:
		if err := fs.WalkDir(r.fsys, "filters", collect); err != nil {
			return nil, fmt.Errorf("runtime: listing filters: %w", err)
		}
	case r.scriptsDir != "":
		if err := filepath.WalkDir(filepath.Join(r.scriptsDir, "filters"), collect); err != nil {
			return nil, fmt.Errorf("runtime: listing filters: %w", err)
		}
	}
	slices.Sort(names)
	return names, nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(label string, extra map[string]any) map[string]any {
	globals := map[string]any{
		"strip_prefix":  makeStripPrefixFn(),
		"trim_location": makeTrimLocationFn(),
		"replace_all":   makeReplaceAllFn(),
		"log":           mustProxy(&logObject{logger: r.logger, script: label}),
	}

	// Expose the index if available (nil during some tests).
	if r.index != nil {
		globals["resolve"] = makeResolveFn(r.index)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

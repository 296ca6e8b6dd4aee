package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/object"
)

// Filter is a line-rewriting script. The script sees the current crash-log
// line as the global line; the value of its last expression replaces the
// line. A nil result keeps the line unchanged.
//
// The script is compiled on first use and the compiled code is run for
// every line after that.
type Filter struct {
	rt     *Runtime
	name   string
	source string

	once       sync.Once
	code       *compiler.Code
	compileErr error
}

// LoadFilter loads a filter by name ("dotnet" reads filters/dotnet.risor)
// or, when name ends in .risor, by script path.
func (r *Runtime) LoadFilter(name string) (*Filter, error) {
	path := name
	if !strings.HasSuffix(name, ".risor") {
		path = FilterScriptPath(name)
	}
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	return &Filter{rt: r, name: path, source: src}, nil
}

// NewFilter builds a filter from inline source.
func (r *Runtime) NewFilter(name, source string) *Filter {
	return &Filter{rt: r, name: name, source: source}
}

// Name returns the script path or label the filter was created with.
func (f *Filter) Name() string {
	return f.name
}

// lineGlobals is the per-line global set. Its names must not vary between
// compile and run.
func lineGlobals(line string) map[string]any {
	return map[string]any{"line": line}
}

func (f *Filter) compiled(ctx context.Context) (*compiler.Code, error) {
	f.once.Do(func() {
		f.code, f.compileErr = f.rt.compile(ctx, f.source, f.name, lineGlobals(""))
	})
	return f.code, f.compileErr
}

// Rewrite runs the filter over one line.
func (f *Filter) Rewrite(ctx context.Context, line string) (string, error) {
	code, err := f.compiled(ctx)
	if err != nil {
		return line, err
	}
	result, err := f.rt.run(ctx, code, f.name, lineGlobals(line))
	if err != nil {
		return line, err
	}
	switch v := result.(type) {
	case *object.String:
		return v.Value(), nil
	case *object.NilType:
		return line, nil
	default:
		return line, fmt.Errorf("runtime: filter %s returned %s, want string", f.name, result.Type())
	}
}

// Chain applies filters in order, each seeing the previous one's output.
func Chain(filters ...*Filter) func(ctx context.Context, line string) (string, error) {
	return func(ctx context.Context, line string) (string, error) {
		for _, f := range filters {
			var err error
			if line, err = f.Rewrite(ctx, line); err != nil {
				return line, err
			}
		}
		return line, nil
	}
}

// RewriteFunc adapts a rewrite to the plain func(string) string hook used
// by obfmap.CrashlogOptions. A failing script leaves the line as it was and
// is logged at warn level.
func RewriteFunc(ctx context.Context, logger *slog.Logger, rewrite func(context.Context, string) (string, error)) func(string) string {
	return func(line string) string {
		out, err := rewrite(ctx, line)
		if err != nil {
			logger.Warn("filter failed, keeping line", slog.String("line", line), slog.Any("error", err))
			return line
		}
		return out
	}
}

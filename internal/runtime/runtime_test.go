package runtime

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericsoft/obfmap"
	"github.com/ericsoft/obfmap/scripts"
)

func basicIndex(t *testing.T) *obfmap.Index {
	t.Helper()
	m, err := obfmap.Open(filepath.Join("..", "..", "testdata", "mappings", "basic.xml"))
	require.NoError(t, err)
	return m.Index()
}

// --- Host function tests ---

func TestTrimLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`a.b.c(a.d s) in C:\src\Foo.cs:line 12`, "a.b.c(a.d s)"},
		{"a.b:c (a.d) (at Assets/Foo.cs:12)", "a.b:c (a.d)"},
		{"a.b:c (a.d) [0x00012] in <0a1b2c3d>:0", "a.b:c (a.d)"},
		{"a.b.c(System.Func`1<System.Int32 (x)>)", "a.b.c(System.Func`1<System.Int32 (x)>)"},
		{"a.b  ", "a.b"},
		{"a.b(unterminated", "a.b(unterminated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, trimLocation(tt.in), tt.in)
	}
}

func TestRunSource_HostFunctions(t *testing.T) {
	rt := NewRuntime("")
	ctx := context.Background()

	script := `
assert(strip_prefix("   at a.b.c()") == "a.b.c()", "strip_prefix")
assert(strip_prefix("a.b.c(x y)") == "a.b.c(x y)", "strip_prefix keeps params")
assert(trim_location("a.b() in f.cs:line 1") == "a.b()", "trim_location")
assert(replace_all("a:b:c", ":", ".") == "a.b.c", "replace_all")
`
	_, err := rt.RunSource(ctx, script, nil)
	require.NoError(t, err)
}

func TestRunSource_HostFunctionArgErrors(t *testing.T) {
	rt := NewRuntime("")
	ctx := context.Background()

	for _, script := range []string{
		`strip_prefix()`,
		`strip_prefix(1)`,
		`trim_location("a", "b")`,
		`replace_all("a", "b")`,
		`replace_all("a", 1, "c")`,
	} {
		_, err := rt.RunSource(ctx, script, nil)
		assert.Error(t, err, script)
	}
}

func TestRunSource_ReturnsLastExpression(t *testing.T) {
	rt := NewRuntime("")
	result, err := rt.RunSource(context.Background(), `x := 20
x + 22`, nil)
	require.NoError(t, err)
	assert.Equal(t, object.NewInt(42), result)
}

func TestRunSource_Resolve(t *testing.T) {
	rt := NewRuntime("", WithIndex(basicIndex(t)))

	script := `
assert(resolve("a.b.c(a.d)") == "Foo.Bar.DoWork(System.String)", "resolve method")
assert(resolve("z.z") == nil, "resolve miss")
`
	_, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_ResolveAbsentWithoutIndex(t *testing.T) {
	rt := NewRuntime("")
	_, err := rt.RunSource(context.Background(), `resolve("a.b")`, nil)
	assert.Error(t, err)
}

func TestRunSource_LogUsesLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := NewRuntime("", WithLogger(logger))

	_, err := rt.RunSource(context.Background(), `log.Warn("odd frame")`, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "odd frame")
	assert.Contains(t, buf.String(), "script=<inline>")
}

// --- Filter tests ---

func TestFilter_Rewrite(t *testing.T) {
	rt := NewRuntime("")
	ctx := context.Background()

	f := rt.NewFilter("upper", `replace_all(line, "x", "y")`)
	out, err := f.Rewrite(ctx, "axb")
	require.NoError(t, err)
	assert.Equal(t, "ayb", out)
	assert.Equal(t, "upper", f.Name())
}

func TestFilter_CompiledOncePerFilter(t *testing.T) {
	rt := NewRuntime("")
	ctx := context.Background()
	f := rt.NewFilter("dots", `replace_all(line, "-", ".")`)

	out, err := f.Rewrite(ctx, "a-b")
	require.NoError(t, err)
	assert.Equal(t, "a.b", out)
	code := f.code
	require.NotNil(t, code)

	for _, tt := range []struct{ in, want string }{
		{"a-b-c", "a.b.c"},
		{"x", "x"},
		{"--", ".."},
	} {
		out, err := f.Rewrite(ctx, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out)
	}
	assert.Same(t, code, f.code, "later lines reuse the compiled code")
}

func TestFilter_CompileErrorKeepsLine(t *testing.T) {
	rt := NewRuntime("")
	f := rt.NewFilter("broken", `replace_all(line, "-"`)

	for _, line := range []string{"a-b", "c-d"} {
		out, err := f.Rewrite(context.Background(), line)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
		assert.Equal(t, line, out)
	}
	assert.Nil(t, f.code)
}

func TestFilter_NilKeepsLine(t *testing.T) {
	rt := NewRuntime("")
	f := rt.NewFilter("noop", `nil`)
	out, err := f.Rewrite(context.Background(), "  at a.b()")
	require.NoError(t, err)
	assert.Equal(t, "  at a.b()", out)
}

func TestFilter_NonStringResult(t *testing.T) {
	rt := NewRuntime("")
	f := rt.NewFilter("bad", `len(line)`)
	out, err := f.Rewrite(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want string")
	assert.Equal(t, "abc", out)
}

func TestChainAndRewriteFunc(t *testing.T) {
	rt := NewRuntime("")
	ctx := context.Background()

	first := rt.NewFilter("first", `strip_prefix(line)`)
	second := rt.NewFilter("second", `replace_all(line, ":", ".")`)
	chain := Chain(first, second)

	out, err := chain(ctx, "at a.b:c()")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c()", out)

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	broken := rt.NewFilter("broken", `undefined_fn(line)`)
	rewrite := RewriteFunc(ctx, logger, Chain(first, broken))
	assert.Equal(t, "at a.b()", rewrite("at a.b()"))
	assert.Contains(t, buf.String(), "filter failed")
}

// --- Built-in filter scripts ---

func TestBuiltinFilters(t *testing.T) {
	rt := NewRuntime("", WithRuntimeFS(scripts.FS))
	ctx := context.Background()

	names, err := rt.Filters()
	require.NoError(t, err)
	assert.Equal(t, []string{"dotnet", "unity"}, names)

	tests := []struct {
		filter string
		in     string
		want   string
	}{
		{"dotnet", `   at a.b.c(a.d s) in C:\src\Foo.cs:line 12`, "a.b.c(a.d s)"},
		{"dotnet", "  at a.b.e()", "a.b.e()"},
		{"unity", "a.b:c (a.d) (at Assets/Scripts/Foo.cs:12)", "a.b.c(a.d)"},
		{"unity", "a.b:e () [0x00012] in <0a1b2c3d>:0", "a.b.e()"},
	}
	for _, tt := range tests {
		f, err := rt.LoadFilter(tt.filter)
		require.NoError(t, err, tt.filter)
		got, err := f.Rewrite(ctx, tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBuiltinFilters_ResolveCrashlog(t *testing.T) {
	idx := basicIndex(t)
	rt := NewRuntime("", WithRuntimeFS(scripts.FS))
	f, err := rt.LoadFilter("unity")
	require.NoError(t, err)

	log := "a.b:c (a.d) (at Assets/Foo.cs:12)\na.b:e () [0x00012] in <0a1b2c3d>:0"
	out := idx.ProcessCrashlogText(log, obfmap.CrashlogOptions{
		Rewrite: RewriteFunc(context.Background(), slog.New(slog.DiscardHandler), f.Rewrite),
	})
	assert.Equal(t, "Foo.Bar.DoWork(System.String)\nFoo.Bar.Reset()\n", out)
}

// --- Script loading tests ---

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"filters/custom.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime("", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("filters/custom.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{}))

	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")

	_, err = rt.LoadFilter("nonexistent")
	require.Error(t, err)
}

func TestLoadScript_FromFSFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()

	content := `y := 99`
	mapFS := fstest.MapFS{
		"filters/custom.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime("", WithRuntimeFS(mapFS))

	// Absolute-style path should be resolved within the FS.
	got, err := rt.LoadScript("/filters/custom.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "filters"), 0o755))
	content := `strip_prefix(line)`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filters", "mine.risor"), []byte(content), 0o644))

	// No WithRuntimeFS -- should fall back to disk.
	rt := NewRuntime(dir)

	got, err := rt.LoadScript("filters/mine.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	names, err := rt.Filters()
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, names)
}

func TestLoadFilter_ByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.risor")
	require.NoError(t, os.WriteFile(path, []byte(`replace_all(line, "-", ".")`), 0o644))

	rt := NewRuntime("")
	f, err := rt.LoadFilter(path)
	require.NoError(t, err)
	out, err := f.Rewrite(context.Background(), "a-b")
	require.NoError(t, err)
	assert.Equal(t, "a.b", out)
}

// --- Importer wiring tests ---

func TestImport_FSImporter(t *testing.T) {
	// Risor's FSImporter resolves "lib_frames" by trying name + ".risor",
	// so the file must be at the flat path "lib_frames.risor" in the FS.
	mapFS := fstest.MapFS{
		"lib_frames.risor": &fstest.MapFile{Data: []byte(`
func clean(s) {
	return trim_location(strip_prefix(s))
}
`)},
	}

	rt := NewRuntime("", WithRuntimeFS(mapFS))

	script := `
import lib_frames

lib_frames.clean(line)
`
	result, err := rt.RunSource(context.Background(), script, map[string]any{"line": "at a.b() in x.cs:line 1"})
	require.NoError(t, err)
	assert.Equal(t, object.NewString("a.b()"), result)
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0o644))

	rt := NewRuntime(dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	_, err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Nil(t, rt.index)
	assert.NotNil(t, rt.logger)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
	assert.Equal(t, filepath.Join("filters", "dotnet.risor"), FilterScriptPath("dotnet"))
}

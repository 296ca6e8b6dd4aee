package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericsoft/obfmap"
	"github.com/ericsoft/obfmap/internal/runtime"
	"github.com/ericsoft/obfmap/scripts"
)

var (
	flagNoSubstitute bool
	flagKeepPrefix   bool
	flagFilters      []string
	flagFilterScript []string
	flagScriptsDir   string
	flagListFilters  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Resolve a renamed name or signature to the original declarations",
	Long:  "Looks a renamed reference such as \"a.b.c(a.d)\" up in the mapping and prints every original declaration it could stand for. Multiple arguments are joined with spaces.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var originalCmd = &cobra.Command{
	Use:   "original <query>",
	Short: "Find the renamed form of an original name or signature",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOriginal,
}

var crashlogCmd = &cobra.Command{
	Use:   "crashlog [file|-]",
	Short: "Resolve every line of a crash log",
	Long:  "Reads a crash log from a file or stdin and resolves each non-empty line. Filter scripts can rewrite lines before they are resolved.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCrashlog,
}

func init() {
	searchCmd.Flags().BoolVar(&flagNoSubstitute, "no-substitute", false, "do not retry with renamed parameter types resolved")
	searchCmd.Flags().BoolVar(&flagKeepPrefix, "keep-prefix", false, "do not strip a leading token such as \"at\"")

	crashlogCmd.Flags().BoolVar(&flagKeepPrefix, "keep-prefix", false, "do not strip a leading token such as \"at\"")
	crashlogCmd.Flags().StringSliceVar(&flagFilters, "filter", nil, "built-in filter to apply to each line (repeatable, e.g. dotnet,unity)")
	crashlogCmd.Flags().StringSliceVar(&flagFilterScript, "filter-script", nil, "path to a .risor filter script (repeatable)")
	crashlogCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load built-in filters from disk path instead of embedded")
	crashlogCmd.Flags().BoolVar(&flagListFilters, "list-filters", false, "list available built-in filters and exit")
}

func runSearch(cmd *cobra.Command, args []string) error {
	m, err := openMapping()
	if err != nil {
		return outputError("search", err)
	}
	res := m.Search(strings.Join(args, " "), obfmap.SearchOptions{
		Substitute:   !flagNoSubstitute,
		FilterPrefix: !flagKeepPrefix,
	})
	if res.Err != nil {
		return outputError("search", res.Err)
	}
	out := searchToCLI(res)
	total := len(out.Matches)
	return outputResult(CLIResult{Command: "search", Results: out, TotalCount: &total})
}

func runOriginal(cmd *cobra.Command, args []string) error {
	m, err := openMapping()
	if err != nil {
		return outputError("original", err)
	}
	res := m.SearchOriginal(strings.Join(args, " "))
	if res.Err != nil {
		return outputError("original", res.Err)
	}
	out := searchToCLI(res)
	total := len(out.Matches)
	return outputResult(CLIResult{Command: "original", Results: out, TotalCount: &total})
}

func runCrashlog(cmd *cobra.Command, args []string) error {
	if flagListFilters {
		names, err := builtinRuntime(nil).Filters()
		if err != nil {
			return outputError("crashlog", err)
		}
		return outputResult(CLIResult{Command: "crashlog", Results: names})
	}

	m, err := openMapping()
	if err != nil {
		return outputError("crashlog", err)
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return outputError("crashlog", err)
	}

	opts := obfmap.CrashlogOptions{FilterPrefix: !flagKeepPrefix}
	filters, err := loadFilters(m.Index())
	if err != nil {
		return outputError("crashlog", err)
	}
	if len(filters) > 0 {
		opts.Rewrite = runtime.RewriteFunc(context.Background(), logger, runtime.Chain(filters...))
	}

	results := m.ProcessCrashlog(text, opts)
	out := make([]CLISearch, len(results))
	for i, res := range results {
		out[i] = searchToCLI(res)
	}
	total := len(out)
	return outputResult(CLIResult{Command: "crashlog", Results: out, TotalCount: &total})
}

// readInput returns the contents of args[0], or stdin when no file or "-" is
// given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading crash log: %w", err)
	}
	return string(data), nil
}

// builtinRuntime returns a Runtime over the embedded filters, or over
// --scripts-dir when set.
func builtinRuntime(idx *obfmap.Index) *runtime.Runtime {
	opts := []runtime.RuntimeOption{runtime.WithLogger(logger)}
	if idx != nil {
		opts = append(opts, runtime.WithIndex(idx))
	}
	if flagScriptsDir == "" {
		opts = append(opts, runtime.WithRuntimeFS(scripts.FS))
	}
	return runtime.NewRuntime(flagScriptsDir, opts...)
}

// loadFilters resolves --filter names against the built-in scripts, then
// --filter-script paths from disk, in that order.
func loadFilters(idx *obfmap.Index) ([]*runtime.Filter, error) {
	var filters []*runtime.Filter
	if len(flagFilters) > 0 {
		rt := builtinRuntime(idx)
		for _, name := range flagFilters {
			f, err := rt.LoadFilter(strings.TrimSpace(name))
			if err != nil {
				return nil, fmt.Errorf("loading filter %q: %w", name, err)
			}
			filters = append(filters, f)
		}
	}
	for _, path := range flagFilterScript {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving filter script %q: %w", path, err)
		}
		// Scripts may import modules that sit next to them.
		rt := runtime.NewRuntime(filepath.Dir(abs),
			runtime.WithLogger(logger),
			runtime.WithIndex(idx),
		)
		f, err := rt.LoadFilter(abs)
		if err != nil {
			return nil, fmt.Errorf("loading filter script: %w", err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// searchToCLI converts a search outcome to its JSON form.
func searchToCLI(res *obfmap.SearchResults) CLISearch {
	out := CLISearch{
		Query:    res.Query,
		Resolved: res.String(),
		Matches:  []CLIMatch{},
	}
	if res.Entity != nil {
		out.Kind = string(res.Entity.Kind)
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	for s := range res.Matches {
		out.Matches = append(out.Matches, matchToCLI(s))
	}
	return out
}

// matchToCLI converts a symbol to a CLIMatch. Parameters are reported with
// their original type names.
func matchToCLI(s *obfmap.Symbol) CLIMatch {
	m := CLIMatch{
		Kind:       string(s.Kind),
		Original:   s.FullName(obfmap.Original),
		Module:     s.Module,
		ReturnType: s.ReturnType,
	}
	if s.Name.Renamed != nil {
		m.Renamed = s.Name.Renamed.Path()
	}
	for _, p := range s.Params {
		if q := p.Side(obfmap.Original); q != nil {
			m.Params = append(m.Params, q.Path())
		}
	}
	return m
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

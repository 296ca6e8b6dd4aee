package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatSearchesText prints one resolved line per query, as a crash log
// would read after translation.
func formatSearchesText(w io.Writer, searches []CLISearch) {
	for _, s := range searches {
		fmt.Fprintln(w, s.Resolved)
	}
}

// formatMatchesText formats the matches of a single query as aligned columns.
func formatMatchesText(w io.Writer, s CLISearch) {
	if len(s.Matches) == 0 {
		fmt.Fprintf(w, "no match for %q\n", s.Query)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tORIGINAL\tRENAMED\tMODULE")
	for _, m := range s.Matches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Kind, m.Original, m.Renamed, m.Module)
	}
	tw.Flush()
}

// formatStatsText formats CLIStats as readable text.
func formatStatsText(w io.Writer, st CLIStats) {
	fmt.Fprintf(w, "Mapping: %s\n", st.File)
	fmt.Fprintf(w, "Loaded:  %s\n", st.LoadedAt)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Classes:    %d\n", st.Classes)
	fmt.Fprintf(w, "Methods:    %d\n", st.Methods)
	fmt.Fprintf(w, "Subclasses: %d\n", st.Subclasses)
	fmt.Fprintf(w, "Skipped:    %d\n", st.Skipped)
	if st.HasSystemEntities {
		fmt.Fprintln(w, "Contains System.* entities")
	}
	fmt.Fprintln(w)

	if len(st.Modules) > 0 {
		fmt.Fprintf(w, "Modules: %s\n", strings.Join(st.Modules, ", "))
	}
	if len(st.Namespaces) > 0 {
		fmt.Fprintf(w, "Namespaces: %s\n", strings.Join(st.Namespaces, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Timings (ms):")
	for _, phase := range timingPhases {
		fmt.Fprintf(w, "  %s: %d\n", phase, st.TimingsMS[phase])
	}

	if len(st.Diagnostics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Diagnostics:")
		for _, d := range st.Diagnostics {
			fmt.Fprintf(w, "  %s: %s\n", d.Kind, d.Message)
		}
	}
}

// formatTreeText prints the class tree indented two spaces per level.
func formatTreeText(w io.Writer, classes []CLIClass, depth int) {
	for _, c := range classes {
		line := c.Original
		if c.Renamed != "" && c.Renamed != c.Original {
			line += " -> " + c.Renamed
		}
		if c.Kind != "class" {
			line = c.Kind + " " + line
		}
		if c.Skipped {
			line += " (skipped)"
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), line)
		formatTreeText(w, c.Children, depth+1)
	}
}

// formatExportsText prints one summary line per exported document.
func formatExportsText(w io.Writer, exports []CLIExport) {
	for _, e := range exports {
		if e.Unchanged {
			fmt.Fprintf(w, "%s unchanged in %s\n", e.Document, e.Database)
		} else {
			fmt.Fprintf(w, "Exported %d symbols from %s to %s\n", e.Symbols, e.Document, e.Database)
		}
	}
}

// formatStoredSymbolsText formats CLIStoredSymbol results as aligned columns.
func formatStoredSymbolsText(w io.Writer, syms []CLIStoredSymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tORIGINAL\tRENAMED\tDOCUMENT")
	for _, s := range syms {
		original := s.Original
		if len(s.Params) > 0 || s.Kind == "method" || s.Kind == "constructor" {
			original += "(" + strings.Join(s.Params, ", ") + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Kind, original, s.Renamed, s.Document)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case CLISearch:
		formatMatchesText(w, v)
	case []CLISearch:
		formatSearchesText(w, v)
	case CLIStats:
		formatStatsText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case []CLIClass:
		formatTreeText(w, v, 0)
	case CLIExport:
		formatExportsText(w, []CLIExport{v})
	case []CLIExport:
		formatExportsText(w, v)
	case []CLIStoredSymbol:
		formatStoredSymbolsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

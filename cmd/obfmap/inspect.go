package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericsoft/obfmap"
)

var (
	flagSide    string
	flagMembers bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the mapping document",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List full names for autocompletion",
	Args:  cobra.NoArgs,
	RunE:  runNames,
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the class hierarchy",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func init() {
	namesCmd.Flags().StringVar(&flagSide, "side", "original", "which names to list: original|renamed")
	treeCmd.Flags().BoolVar(&flagMembers, "members", false, "include methods, fields, properties and events")
}

// timingPhases orders the load phases for display.
var timingPhases = []string{"xml", "parsing", "subclasses", "new_names", "total"}

func runStats(cmd *cobra.Command, args []string) error {
	m, err := openMapping()
	if err != nil {
		return outputError("stats", err)
	}
	return outputResult(CLIResult{Command: "stats", Results: statsToCLI(m)})
}

func runNames(cmd *cobra.Command, args []string) error {
	side, err := parseSide(flagSide)
	if err != nil {
		return outputError("names", err)
	}
	m, err := openMapping()
	if err != nil {
		return outputError("names", err)
	}
	idx := m.Index()
	names := idx.OriginalNames()
	if side == obfmap.Renamed {
		names = idx.RenamedNames()
	}
	total := len(names)
	return outputResult(CLIResult{Command: "names", Results: names, TotalCount: &total})
}

func runTree(cmd *cobra.Command, args []string) error {
	m, err := openMapping()
	if err != nil {
		return outputError("tree", err)
	}
	classes := m.Index().Classes()
	out := make([]CLIClass, 0, len(classes))
	for _, c := range classes {
		out = append(out, classToCLI(c, flagMembers))
	}
	return outputResult(CLIResult{Command: "tree", Results: out})
}

// parseSide maps a --side value to an obfmap.Side.
func parseSide(s string) (obfmap.Side, error) {
	switch s {
	case "original":
		return obfmap.Original, nil
	case "renamed":
		return obfmap.Renamed, nil
	}
	return obfmap.Original, fmt.Errorf("invalid side %q: must be original or renamed", s)
}

func statsToCLI(m *obfmap.Mapping) CLIStats {
	idx := m.Index()
	st := idx.Stats()
	t := idx.Timings()
	out := CLIStats{
		File:              m.Filename(),
		LoadedAt:          m.LoadedAt().Format(time.RFC3339),
		Classes:           st.Classes,
		Methods:           st.Methods,
		Subclasses:        st.Subclasses,
		Skipped:           st.Skipped,
		HasSystemEntities: st.HasSystemEntities,
		Modules:           idx.Modules(),
		Namespaces:        idx.Namespaces(),
		RenamedNamespaces: idx.RenamedNamespaces(),
		TimingsMS: map[string]int64{
			"xml":        t.XML.Milliseconds(),
			"parsing":    t.Parsing.Milliseconds(),
			"subclasses": t.Subclasses.Milliseconds(),
			"new_names":  t.NewNames.Milliseconds(),
			"total":      t.Total().Milliseconds(),
		},
	}
	for _, d := range idx.Diagnostics() {
		out.Diagnostics = append(out.Diagnostics, CLIDiagnostic{
			Kind:    string(d.Kind),
			Symbol:  d.Symbol,
			Message: d.Message,
		})
	}
	return out
}

// classToCLI converts a class and its nested classes. Members are included
// only when members is set.
func classToCLI(s *obfmap.Symbol, members bool) CLIClass {
	out := CLIClass{
		Kind:     string(s.Kind),
		Original: s.DisplayName(obfmap.Original),
		Skipped:  s.Skipped,
	}
	if s.Name.Renamed != nil {
		out.Renamed = s.DisplayName(obfmap.Renamed)
	}
	for _, c := range s.Children {
		if c.Kind != obfmap.KindClass && !members {
			continue
		}
		out.Children = append(out.Children, classToCLI(c, members))
	}
	return out
}

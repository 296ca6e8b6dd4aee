package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericsoft/obfmap"
)

// mappingEnv names the environment variable consulted when --mapping is unset.
const mappingEnv = "OBFMAP_MAPPING"

var (
	flagMapping string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// logger is replaced in PersistentPreRunE when --verbose is set.
var logger = slog.New(slog.DiscardHandler)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "obfmap",
	Short:         "Resolve obfuscated .NET names back to their originals",
	Long:          "obfmap loads an obfuscation mapping document and translates renamed names, signatures and crash logs back to the original declarations.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMapping, "mapping", "", "mapping document path (default: $"+mappingEnv+")")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log load and export details to stderr")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(originalCmd)
	rootCmd.AddCommand(crashlogCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(lookupCmd)
}

// resolveMappingPath returns the mapping path from --mapping or the
// environment.
func resolveMappingPath() (string, error) {
	if flagMapping != "" {
		return flagMapping, nil
	}
	if p := os.Getenv(mappingEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no mapping document: pass --mapping or set %s", mappingEnv)
}

// openMapping loads the mapping document named by --mapping.
func openMapping() (*obfmap.Mapping, error) {
	path, err := resolveMappingPath()
	if err != nil {
		return nil, err
	}
	m, err := obfmap.Open(path, obfmap.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	t := m.Timings()
	logger.Debug("mapping loaded",
		slog.String("path", m.Filename()),
		slog.Int("classes", m.Stats().Classes),
		slog.Duration("total", t.Total()),
	)
	return m, nil
}

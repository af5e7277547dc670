package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	metricsAddr string
	logLevel    string
	jsonOutput  bool
	writeBack   bool
	gcPolicy    string
	noGC        bool

	rootCmd = &cobra.Command{
		Use:   "selvage",
		Short: "Incremental re-evaluation engine for clothing-pattern documents",
		Long: `selvage parses pattern documents, builds their dependency graph,
collects unused modeling objects and computes piece outlines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	parseCmd = &cobra.Command{
		Use:   "parse FILE",
		Short: "Fully parse a pattern and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runParseCommand, // Defined in cmd_parse.go
	}

	gcCmd = &cobra.Command{
		Use:   "gc FILE",
		Short: "Parse a pattern and remove modeling objects no piece uses",
		Args:  cobra.ExactArgs(1),
		RunE:  runGCCommand, // Defined in cmd_gc.go
	}

	formulasCmd = &cobra.Command{
		Use:     "formulas FILE",
		Short:   "List every formula in a pattern with its value",
		Aliases: []string{"f"},
		Args:    cobra.ExactArgs(1),
		RunE:    runFormulasCommand, // Defined in cmd_formulas.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-parse a pattern whenever it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchCommand, // Defined in cmd_watch.go
	}

	desktopCmd = &cobra.Command{
		Use:   "desktop [FILE]",
		Short: "Open the desktop viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDesktopCommand, // Defined in cmd_desktop.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	parseCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the summary as JSON")
	parseCmd.Flags().BoolVar(&noGC, "no-gc", false, "skip garbage collection")

	gcCmd.Flags().BoolVarP(&writeBack, "write", "w", false, "save the document after collecting")
	gcCmd.Flags().StringVar(&gcPolicy, "policy", "always", "collection policy (once|always)")

	formulasCmd.Flags().BoolVar(&jsonOutput, "json", false, "print formulas as JSON")

	rootCmd.AddCommand(parseCmd, gcCmd, formulasCmd, watchCmd, desktopCmd)
}

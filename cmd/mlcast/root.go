package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

// configDir is where .mlcast.yaml lookup starts.
var configDir = "."

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mlcast",
		Short: "mlcast - validate datasets against MLCast specifications",
		Long: `mlcast validates gridded datasets stored as Zarr archives against the
versioned MLCast dataset specifications, and renders those specifications
as documentation.

Specifications are selected by data stage and product, and optionally by
version (an exact version or a constraint such as "~0.1"). Without a
version the latest registered specification is used.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newSpecCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newDocsCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute(ctx context.Context) error {
	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(ctx)
}

// isTerminal reports whether w writes to a terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// stringSetting returns the flag value when the flag was given on the
// command line, and the configured value otherwise.
func stringSetting(cmd *cobra.Command, name, flagValue, configured string) string {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configured
}

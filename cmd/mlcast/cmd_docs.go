package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/projectconfig"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specdoc"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specs"
)

func newDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Build specification documentation",
	}
	cmd.AddCommand(newDocsBuildCommand())
	return cmd
}

func newDocsBuildCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write a documentation site for every registered specification",
		Long: `Write Markdown and HTML pages for the latest version of every registered
specification, plus an index page linking them:

  <out>/index.md, <out>/index.html
  <out>/specs/<data-stage>/<product>.md
  <out>/specs/<data-stage>/<product>.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(configDir)
			if err != nil {
				return err
			}
			dir := stringSetting(cmd, "out", out, cfg.Docs.Out)

			written, err := specdoc.BuildSite(dir, specs.Default().Latest())
			if err != nil {
				return fmt.Errorf("building documentation: %w", err)
			}
			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, filepath.FromSlash(p))) //nolint:errcheck
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", projectconfig.DefaultDocsOut, "Output directory")
	return cmd
}
